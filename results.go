package sapmodel

import (
	"context"

	"github.com/tomblancdev/sapmodel-go/native"
)

// ResultsManager reads analysis results. Results are reported for the load
// cases and combinations selected with [ResultsManager.SetCasesForOutput].
type ResultsManager struct {
	h *ModelHandle
}

// Forces is a force and moment vector in present units.
type Forces struct {
	F1, F2, F3 float64
	M1, M2, M3 float64
}

// ResultStep identifies the load case step a result row belongs to.
type ResultStep struct {
	LoadCase string
	StepType string
	StepNum  float64
}

// JointReaction is one joint reaction row.
type JointReaction struct {
	Point   string
	Element string
	ResultStep
	Forces
}

// JointDisplacement is one joint displacement row.
type JointDisplacement struct {
	Point   string
	Element string
	ResultStep
	U1, U2, U3 float64
	R1, R2, R3 float64
}

// FrameForce is one frame internal force row at a station.
type FrameForce struct {
	Frame   string
	Station float64
	Element string
	ResultStep
	P, V2, V3 float64
	T, M2, M3 float64
}

// BaseReaction is one structure base reaction row.
type BaseReaction struct {
	ResultStep
	FX, FY, FZ float64
	MX, MY, MZ float64
}

func decodeStep(c *Columns, i int) ResultStep {
	return ResultStep{
		LoadCase: c.String("LoadCase", i),
		StepType: c.String("StepType", i),
		StepNum:  c.Float("StepNum", i),
	}
}

// SetCasesForOutput deselects every case and combination, then selects the
// named load cases for output.
func (m *ResultsManager) SetCasesForOutput(ctx context.Context, cases []string) (*BulkOutcome[struct{}], error) {
	const op = "Results.Setup.SetCaseSelectedForOutput"
	if err := validateIdentifiers(callContext(op, cases...), "cases", cases); err != nil {
		return nil, err
	}
	cc := callContext("Results.Setup.DeselectAllCasesAndCombosForOutput")
	if err := m.h.exec(ctx, cc, native.Request{Op: cc.Operation}); err != nil {
		return nil, err
	}

	return RunBulk(ctx, cases, BulkCall[struct{}]{
		Operation: op,
		One: func(ctx context.Context, name string) (struct{}, error) {
			cc := callContext(op, name)
			return struct{}{}, m.h.exec(ctx, cc, native.Request{
				Op:   op,
				Args: map[string]any{"Name": name, "Selected": true},
			})
		},
	})
}

// JointReactions reads joint reactions for a point, group or the current
// selection.
func (m *ResultsManager) JointReactions(ctx context.Context, name string, kind native.ItemType) (Outcome[JointReaction], error) {
	req, cc, err := itemRequest("Results.JointReact", name, kind)
	if err != nil {
		return Outcome[JointReaction]{}, err
	}
	return query(ctx, m.h, cc, req, decodeJointReaction)
}

func decodeJointReaction(c *Columns, i int) JointReaction {
	return JointReaction{
		Point:      c.String("Obj", i),
		Element:    c.String("Elm", i),
		ResultStep: decodeStep(c, i),
		Forces: Forces{
			F1: c.Float("F1", i),
			F2: c.Float("F2", i),
			F3: c.Float("F3", i),
			M1: c.Float("M1", i),
			M2: c.Float("M2", i),
			M3: c.Float("M3", i),
		},
	}
}

// JointReactionsFor reads the reactions of each named point.
//
// Reactions are read in one call over the ALL group and partitioned by
// point. Points with no reaction rows, typically unrestrained ones, are
// reported as failed.
func (m *ResultsManager) JointReactionsFor(ctx context.Context, names []string) (*BulkOutcome[[]JointReaction], error) {
	return RunBulk(ctx, names, BulkCall[[]JointReaction]{
		Operation: "Results.JointReact",
		All: func(ctx context.Context, _ []string) (map[string][]JointReaction, error) {
			out, err := m.JointReactions(ctx, native.GroupAll, native.ItemGroup)
			if err != nil {
				return nil, err
			}
			rows, err := out.Unwrap()
			if err != nil {
				return nil, err
			}
			byPoint := make(map[string][]JointReaction)
			for _, r := range rows {
				byPoint[r.Point] = append(byPoint[r.Point], r)
			}
			return byPoint, nil
		},
		One: func(ctx context.Context, name string) ([]JointReaction, error) {
			out, err := m.JointReactions(ctx, name, native.ItemObject)
			if err != nil {
				return nil, err
			}
			return out.Unwrap()
		},
	})
}

// JointDisplacements reads joint displacements for a point, group or the
// current selection.
func (m *ResultsManager) JointDisplacements(ctx context.Context, name string, kind native.ItemType) (Outcome[JointDisplacement], error) {
	req, cc, err := itemRequest("Results.JointDispl", name, kind)
	if err != nil {
		return Outcome[JointDisplacement]{}, err
	}
	return query(ctx, m.h, cc, req, func(c *Columns, i int) JointDisplacement {
		return JointDisplacement{
			Point:      c.String("Obj", i),
			Element:    c.String("Elm", i),
			ResultStep: decodeStep(c, i),
			U1:         c.Float("U1", i),
			U2:         c.Float("U2", i),
			U3:         c.Float("U3", i),
			R1:         c.Float("R1", i),
			R2:         c.Float("R2", i),
			R3:         c.Float("R3", i),
		}
	})
}

// FrameForces reads frame internal forces for a frame, group or the current
// selection.
func (m *ResultsManager) FrameForces(ctx context.Context, name string, kind native.ItemType) (Outcome[FrameForce], error) {
	req, cc, err := itemRequest("Results.FrameForce", name, kind)
	if err != nil {
		return Outcome[FrameForce]{}, err
	}
	return query(ctx, m.h, cc, req, func(c *Columns, i int) FrameForce {
		return FrameForce{
			Frame:      c.String("Obj", i),
			Station:    c.Float("ObjSta", i),
			Element:    c.String("Elm", i),
			ResultStep: decodeStep(c, i),
			P:          c.Float("P", i),
			V2:         c.Float("V2", i),
			V3:         c.Float("V3", i),
			T:          c.Float("T", i),
			M2:         c.Float("M2", i),
			M3:         c.Float("M3", i),
		}
	})
}

// BaseReactions reads the structure base reactions.
func (m *ResultsManager) BaseReactions(ctx context.Context) (Outcome[BaseReaction], error) {
	cc := callContext("Results.BaseReact")
	return query(ctx, m.h, cc, native.Request{Op: cc.Operation}, func(c *Columns, i int) BaseReaction {
		return BaseReaction{
			ResultStep: decodeStep(c, i),
			FX:         c.Float("FX", i),
			FY:         c.Float("FY", i),
			FZ:         c.Float("FZ", i),
			MX:         c.Float("MX", i),
			MY:         c.Float("MY", i),
			MZ:         c.Float("MZ", i),
		}
	})
}
