package sapmodel

import (
	"context"
	"sort"

	"github.com/tomblancdev/sapmodel-go/native"
)

// PointManager reads and edits point objects.
type PointManager struct {
	h *ModelHandle
}

// Point is a point object with its global cartesian coordinates in present
// units.
type Point struct {
	Name    string
	X, Y, Z float64
}

// DOF indexes the six degrees of freedom of a point.
type DOF int

const (
	U1 DOF = iota
	U2
	U3
	R1
	R2
	R3
)

var dofNames = [6]string{"U1", "U2", "U3", "R1", "R2", "R3"}

func (d DOF) String() string {
	if d < 0 || int(d) >= len(dofNames) {
		return "DOF(?)"
	}
	return dofNames[d]
}

// Restraint holds the restrained flag of each degree of freedom.
type Restraint [6]bool

// Fixed restrains every degree of freedom.
var Fixed = Restraint{true, true, true, true, true, true}

// Pinned restrains the translations only.
var Pinned = Restraint{true, true, true, false, false, false}

// PointInput describes a point to add.
type PointInput struct {
	X, Y, Z float64

	// Name is the requested name. The application picks one when empty or
	// taken.
	Name string
}

// Names lists every point object name.
func (m *PointManager) Names(ctx context.Context) ([]string, error) {
	cc := callContext("PointObj.GetNameList")
	return list(ctx, m.h, cc, native.Request{Op: cc.Operation}, decodeName)
}

// Coordinates returns the cartesian coordinates of one point.
func (m *PointManager) Coordinates(ctx context.Context, name string) (Point, error) {
	req, cc, err := itemRequest("PointObj.GetCoordCartesian", name, native.ItemObject)
	if err != nil {
		return Point{}, err
	}
	return scalar(ctx, m.h, cc, req, func(c *Columns, i int) Point {
		return Point{
			Name: name,
			X:    c.Float("X", i),
			Y:    c.Float("Y", i),
			Z:    c.Float("Z", i),
		}
	})
}

// Restraints reads the restraint of each named point. Points the
// application rejects are reported in the outcome's failed map.
func (m *PointManager) Restraints(ctx context.Context, names []string) (*BulkOutcome[Restraint], error) {
	return RunBulk(ctx, names, BulkCall[Restraint]{
		Operation: "PointObj.GetRestraint",
		One:       m.restraint,
	})
}

func (m *PointManager) restraint(ctx context.Context, name string) (Restraint, error) {
	req, cc, err := itemRequest("PointObj.GetRestraint", name, native.ItemObject)
	if err != nil {
		return Restraint{}, err
	}
	return scalar(ctx, m.h, cc, req, func(c *Columns, i int) Restraint {
		var r Restraint
		for d, col := range dofNames {
			r[d] = c.Bool(col, i)
		}
		return r
	})
}

// SetRestraints assigns a restraint to each point in restraints.
func (m *PointManager) SetRestraints(ctx context.Context, restraints map[string]Restraint) (*BulkOutcome[Restraint], error) {
	names := make([]string, 0, len(restraints))
	for name := range restraints {
		names = append(names, name)
	}
	sort.Strings(names)

	return RunBulk(ctx, names, BulkCall[Restraint]{
		Operation: "PointObj.SetRestraint",
		One: func(ctx context.Context, name string) (Restraint, error) {
			r := restraints[name]
			req, cc, err := itemRequest("PointObj.SetRestraint", name, native.ItemObject)
			if err != nil {
				return r, err
			}
			req.Fields = map[string]native.Column{"Value": native.Bools(r[:]...)}
			return r, m.h.exec(ctx, cc, req)
		},
	})
}

// AddCartesian adds a point and returns the name the application assigned.
func (m *PointManager) AddCartesian(ctx context.Context, p PointInput) (string, error) {
	cc := callContext("PointObj.AddCartesian", p.Name)
	if err := validateFinite(cc, "coordinates", p.X, p.Y, p.Z); err != nil {
		return "", err
	}
	return scalar(ctx, m.h, cc, native.Request{
		Op: cc.Operation,
		Args: map[string]any{
			"X":        p.X,
			"Y":        p.Y,
			"Z":        p.Z,
			"UserName": p.Name,
		},
	}, decodeName)
}

func decodeName(c *Columns, i int) string {
	return c.String("Name", i)
}
