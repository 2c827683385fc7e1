package sapmodel

import (
	"context"
	"fmt"

	"github.com/tomblancdev/sapmodel-go/native"
)

// PropertyManager reads and defines material and section properties.
type PropertyManager struct {
	h *ModelHandle
}

// MaterialType is the native material type code.
type MaterialType int

const (
	MaterialSteel      MaterialType = 1
	MaterialConcrete   MaterialType = 2
	MaterialNoDesign   MaterialType = 3
	MaterialAluminum   MaterialType = 4
	MaterialColdFormed MaterialType = 5
	MaterialRebar      MaterialType = 6
	MaterialTendon     MaterialType = 7
)

func (t MaterialType) String() string {
	switch t {
	case MaterialSteel:
		return "Steel"
	case MaterialConcrete:
		return "Concrete"
	case MaterialNoDesign:
		return "NoDesign"
	case MaterialAluminum:
		return "Aluminum"
	case MaterialColdFormed:
		return "ColdFormed"
	case MaterialRebar:
		return "Rebar"
	case MaterialTendon:
		return "Tendon"
	default:
		return fmt.Sprintf("MaterialType(%d)", int(t))
	}
}

// Material is one of [Steel], [Concrete], [Rebar] or [OtherMaterial].
// The set is closed: only types embedding [MaterialBase] satisfy it.
type Material interface {
	Base() MaterialBase
	Type() MaterialType
	sealed()
}

// MaterialBase holds the isotropic properties shared by every material, in
// present units.
type MaterialBase struct {
	Name         string  `validate:"required"`
	E            float64 `validate:"gt=0"`
	Poisson      float64 `validate:"gte=0,lt=0.5"`
	ThermalCoeff float64 `validate:"gte=0"`
	UnitWeight   float64 `validate:"gte=0"`
}

// Base returns the shared properties.
func (b MaterialBase) Base() MaterialBase { return b }

func (MaterialBase) sealed() {}

// Steel is a structural steel material.
type Steel struct {
	MaterialBase
	Fy float64 `validate:"gt=0"`
	Fu float64 `validate:"gt=0,gtefield=Fy"`
}

// Type returns [MaterialSteel].
func (Steel) Type() MaterialType { return MaterialSteel }

// Concrete is a concrete material.
type Concrete struct {
	MaterialBase
	Fc          float64 `validate:"gt=0"`
	Lightweight bool
}

// Type returns [MaterialConcrete].
func (Concrete) Type() MaterialType { return MaterialConcrete }

// Rebar is a reinforcing steel material.
type Rebar struct {
	MaterialBase
	Fy float64 `validate:"gt=0"`
	Fu float64 `validate:"gt=0,gtefield=Fy"`
}

// Type returns [MaterialRebar].
func (Rebar) Type() MaterialType { return MaterialRebar }

// OtherMaterial is any material without type-specific properties here.
type OtherMaterial struct {
	MaterialBase
	Kind MaterialType `validate:"required"`
}

// Type returns the native type code.
func (o OtherMaterial) Type() MaterialType { return o.Kind }

// MaterialNames lists every material name.
func (m *PropertyManager) MaterialNames(ctx context.Context) ([]string, error) {
	cc := callContext("PropMaterial.GetNameList")
	return list(ctx, m.h, cc, native.Request{Op: cc.Operation}, decodeName)
}

// Material reads one material.
func (m *PropertyManager) Material(ctx context.Context, name string) (Material, error) {
	req, cc, err := itemRequest("PropMaterial.GetMaterial", name, native.ItemObject)
	if err != nil {
		return nil, err
	}

	type header struct {
		typ  MaterialType
		base MaterialBase
	}
	hd, err := scalar(ctx, m.h, cc, req, func(c *Columns, i int) header {
		return header{
			typ: MaterialType(c.Int("MatType", i)),
			base: MaterialBase{
				Name:         name,
				E:            c.Float("E", i),
				Poisson:      c.Float("U", i),
				ThermalCoeff: c.Float("A", i),
				UnitWeight:   c.Float("W", i),
			},
		}
	})
	if err != nil {
		return nil, err
	}

	switch hd.typ {
	case MaterialSteel, MaterialRebar:
		op := "PropMaterial.GetOSteel"
		if hd.typ == MaterialRebar {
			op = "PropMaterial.GetORebar"
		}
		req, cc, _ := itemRequest(op, name, native.ItemObject)
		strength, err := scalar(ctx, m.h, cc, req, func(c *Columns, i int) [2]float64 {
			return [2]float64{c.Float("Fy", i), c.Float("Fu", i)}
		})
		if err != nil {
			return nil, err
		}
		if hd.typ == MaterialRebar {
			return Rebar{MaterialBase: hd.base, Fy: strength[0], Fu: strength[1]}, nil
		}
		return Steel{MaterialBase: hd.base, Fy: strength[0], Fu: strength[1]}, nil

	case MaterialConcrete:
		req, cc, _ := itemRequest("PropMaterial.GetOConcrete", name, native.ItemObject)
		return scalar(ctx, m.h, cc, req, func(c *Columns, i int) Material {
			return Concrete{
				MaterialBase: hd.base,
				Fc:           c.Float("Fc", i),
				Lightweight:  c.Bool("IsLightweight", i),
			}
		})

	default:
		return OtherMaterial{MaterialBase: hd.base, Kind: hd.typ}, nil
	}
}

// Materials reads each named material.
func (m *PropertyManager) Materials(ctx context.Context, names []string) (*BulkOutcome[Material], error) {
	return RunBulk(ctx, names, BulkCall[Material]{
		Operation: "PropMaterial.GetMaterial",
		One:       m.Material,
	})
}

// SetMaterial defines or replaces a material.
func (m *PropertyManager) SetMaterial(ctx context.Context, mat Material) error {
	if mat == nil {
		return validationError(callContext("PropMaterial.SetMaterial"), "material is required")
	}
	base := mat.Base()
	cc := callContext("PropMaterial.SetMaterial", base.Name)
	if err := validateStruct(cc, mat); err != nil {
		return err
	}

	err := m.h.exec(ctx, cc, native.Request{
		Op:     cc.Operation,
		Filter: base.Name,
		Args: map[string]any{
			"MatType": int(mat.Type()),
			"E":       base.E,
			"U":       base.Poisson,
			"A":       base.ThermalCoeff,
			"W":       base.UnitWeight,
		},
	})
	if err != nil {
		return err
	}

	switch v := mat.(type) {
	case Steel:
		return m.setStrength(ctx, "PropMaterial.SetOSteel", base.Name, v.Fy, v.Fu)
	case Rebar:
		return m.setStrength(ctx, "PropMaterial.SetORebar", base.Name, v.Fy, v.Fu)
	case Concrete:
		cc := callContext("PropMaterial.SetOConcrete", base.Name)
		return m.h.exec(ctx, cc, native.Request{
			Op:     cc.Operation,
			Filter: base.Name,
			Args:   map[string]any{"Fc": v.Fc, "IsLightweight": v.Lightweight},
		})
	default:
		return nil
	}
}

func (m *PropertyManager) setStrength(ctx context.Context, op, name string, fy, fu float64) error {
	cc := callContext(op, name)
	return m.h.exec(ctx, cc, native.Request{
		Op:     op,
		Filter: name,
		Args:   map[string]any{"Fy": fy, "Fu": fu},
	})
}

// FrameSectionType is the native frame section shape code.
type FrameSectionType int

// FrameSection is one frame section property with its principal
// dimensions in present units. Dimensions that do not apply to the shape
// are zero.
type FrameSection struct {
	Name            string
	Type            FrameSectionType
	Depth           float64
	Width           float64
	FlangeThickness float64
	WebThickness    float64
}

// FrameSections lists every frame section property.
func (m *PropertyManager) FrameSections(ctx context.Context) ([]FrameSection, error) {
	cc := callContext("PropFrame.GetAllFrameProperties")
	return list(ctx, m.h, cc, native.Request{Op: cc.Operation}, func(c *Columns, i int) FrameSection {
		return FrameSection{
			Name:            c.String("Name", i),
			Type:            FrameSectionType(c.Int("PropType", i)),
			Depth:           c.Float("T3", i),
			Width:           c.Float("T2", i),
			FlangeThickness: c.Float("Tf", i),
			WebThickness:    c.Float("Tw", i),
		}
	})
}
