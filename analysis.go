package sapmodel

import (
	"context"
	"fmt"
	"sort"

	"github.com/tomblancdev/sapmodel-go/native"
)

// AnalysisManager drives the analysis engine.
type AnalysisManager struct {
	h *ModelHandle
}

// CaseRunStatus is the native run status code of a load case.
type CaseRunStatus int

const (
	CaseNotRun        CaseRunStatus = 1
	CaseCouldNotStart CaseRunStatus = 2
	CaseNotFinished   CaseRunStatus = 3
	CaseFinished      CaseRunStatus = 4
)

func (s CaseRunStatus) String() string {
	switch s {
	case CaseNotRun:
		return "not run"
	case CaseCouldNotStart:
		return "could not start"
	case CaseNotFinished:
		return "not finished"
	case CaseFinished:
		return "finished"
	default:
		return fmt.Sprintf("CaseRunStatus(%d)", int(s))
	}
}

// CaseStatus is the run status of one load case.
type CaseStatus struct {
	Case   string
	Status CaseRunStatus
}

// CreateModel builds the analysis model from the object model.
func (m *AnalysisManager) CreateModel(ctx context.Context) error {
	cc := callContext("Analyze.CreateAnalysisModel")
	return m.h.exec(ctx, cc, native.Request{Op: cc.Operation})
}

// Run runs every load case flagged to run. The model must have been saved
// to a file first. The call blocks until the analysis finishes.
func (m *AnalysisManager) Run(ctx context.Context) error {
	cc := callContext("Analyze.RunAnalysis")
	return m.h.exec(ctx, cc, native.Request{Op: cc.Operation})
}

// CaseStatus returns the run status of every load case.
func (m *AnalysisManager) CaseStatus(ctx context.Context) ([]CaseStatus, error) {
	cc := callContext("Analyze.GetCaseStatus")
	return list(ctx, m.h, cc, native.Request{Op: cc.Operation}, func(c *Columns, i int) CaseStatus {
		return CaseStatus{
			Case:   c.String("CaseName", i),
			Status: CaseRunStatus(c.Int("Status", i)),
		}
	})
}

// SetRunFlags sets whether each named load case runs on the next analysis.
func (m *AnalysisManager) SetRunFlags(ctx context.Context, flags map[string]bool) (*BulkOutcome[bool], error) {
	const op = "Analyze.SetRunCaseFlag"
	names := make([]string, 0, len(flags))
	for name := range flags {
		names = append(names, name)
	}
	sort.Strings(names)

	return RunBulk(ctx, names, BulkCall[bool]{
		Operation: op,
		One: func(ctx context.Context, name string) (bool, error) {
			run := flags[name]
			return run, m.h.exec(ctx, callContext(op, name), native.Request{
				Op:   op,
				Args: map[string]any{"Name": name, "Run": run},
			})
		},
	})
}

// IsLocked reports whether the model is locked. Analysis locks the model
// until its results are deleted.
func (m *AnalysisManager) IsLocked(ctx context.Context) (bool, error) {
	cc := callContext("GetModelIsLocked")
	return scalar(ctx, m.h, cc, native.Request{Op: cc.Operation}, func(c *Columns, i int) bool {
		return c.Bool("Locked", i)
	})
}

// SetLocked locks or unlocks the model. Unlocking deletes analysis results.
func (m *AnalysisManager) SetLocked(ctx context.Context, locked bool) error {
	cc := callContext("SetModelIsLocked")
	return m.h.exec(ctx, cc, native.Request{
		Op:   cc.Operation,
		Args: map[string]any{"Locked": locked},
	})
}
