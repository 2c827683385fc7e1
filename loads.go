package sapmodel

import (
	"context"
	"fmt"
	"strconv"

	"github.com/tomblancdev/sapmodel-go/native"
)

// LoadManager reads and defines load patterns, load cases and point loads.
type LoadManager struct {
	h *ModelHandle
}

// PatternType is the native load pattern type code.
type PatternType int

const (
	PatternDead       PatternType = 1
	PatternSuperDead  PatternType = 2
	PatternLive       PatternType = 3
	PatternReduceLive PatternType = 4
	PatternQuake      PatternType = 5
	PatternWind       PatternType = 6
	PatternSnow       PatternType = 7
	PatternOther      PatternType = 8
)

// LoadPattern describes a load pattern to add.
type LoadPattern struct {
	Name string      `validate:"required"`
	Type PatternType `validate:"gte=1,lte=8"`

	// SelfWeight is the self weight multiplier.
	SelfWeight float64 `validate:"gte=0"`

	// AddCase also creates a linear static load case of the same name.
	AddCase bool
}

// PointLoad is a force and moment applied to a point in one load pattern.
type PointLoad struct {
	Point   string `validate:"required"`
	Pattern string `validate:"required"`

	// CSys is the coordinate system; empty means "Global".
	CSys string
	Forces
}

// Patterns lists every load pattern name.
func (m *LoadManager) Patterns(ctx context.Context) ([]string, error) {
	cc := callContext("LoadPatterns.GetNameList")
	return list(ctx, m.h, cc, native.Request{Op: cc.Operation}, decodeName)
}

// AddPattern adds a load pattern.
func (m *LoadManager) AddPattern(ctx context.Context, p LoadPattern) error {
	cc := callContext("LoadPatterns.Add", p.Name)
	if err := validateStruct(cc, p); err != nil {
		return err
	}
	return m.h.exec(ctx, cc, native.Request{
		Op: cc.Operation,
		Args: map[string]any{
			"Name":             p.Name,
			"MyType":           int(p.Type),
			"SelfWTMultiplier": p.SelfWeight,
			"AddLoadCase":      p.AddCase,
		},
	})
}

// Cases lists every load case name.
func (m *LoadManager) Cases(ctx context.Context) ([]string, error) {
	cc := callContext("LoadCases.GetNameList")
	return list(ctx, m.h, cc, native.Request{Op: cc.Operation}, decodeName)
}

// PointLoads reads the point loads on a point, group or the current
// selection.
func (m *LoadManager) PointLoads(ctx context.Context, name string, kind native.ItemType) (Outcome[PointLoad], error) {
	req, cc, err := itemRequest("PointObj.GetLoadForce", name, kind)
	if err != nil {
		return Outcome[PointLoad]{}, err
	}
	return query(ctx, m.h, cc, req, func(c *Columns, i int) PointLoad {
		return PointLoad{
			Point:   c.String("PointName", i),
			Pattern: c.String("LoadPat", i),
			CSys:    c.String("CSys", i),
			Forces: Forces{
				F1: c.Float("F1", i),
				F2: c.Float("F2", i),
				F3: c.Float("F3", i),
				M1: c.Float("M1", i),
				M2: c.Float("M2", i),
				M3: c.Float("M3", i),
			},
		}
	})
}

// SetPointLoads assigns many point loads in a single call. Existing loads
// of the same point and pattern are replaced.
func (m *LoadManager) SetPointLoads(ctx context.Context, loads []PointLoad) error {
	cc := callContext("PointObj.SetLoadForceMany", strconv.Itoa(len(loads))+" loads")
	if len(loads) == 0 {
		return validationError(cc, "at least one load is required")
	}
	for i, l := range loads {
		if err := validateStruct(callContext(cc.Operation, l.Point, l.Pattern), l); err != nil {
			return err
		}
		f := l.Forces
		if err := validateFinite(cc, fmt.Sprintf("loads[%d]", i), f.F1, f.F2, f.F3, f.M1, f.M2, f.M3); err != nil {
			return err
		}
	}

	return m.h.exec(ctx, cc, native.Request{
		Op:     cc.Operation,
		Fields: Encode(loads, encodePointLoad),
	})
}

func encodePointLoad(w *ColumnWriter, i int, l PointLoad) {
	csys := l.CSys
	if csys == "" {
		csys = "Global"
	}
	w.String("PointName", i, l.Point)
	w.String("LoadPat", i, l.Pattern)
	w.String("CSys", i, csys)
	w.Float("F1", i, l.F1)
	w.Float("F2", i, l.F2)
	w.Float("F3", i, l.F3)
	w.Float("M1", i, l.M1)
	w.Float("M2", i, l.M2)
	w.Float("M3", i, l.M3)
}
