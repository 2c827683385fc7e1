package sapmodel

import (
	"context"

	"github.com/tomblancdev/sapmodel-go/native"
)

// DesignManager drives steel frame design.
type DesignManager struct {
	h *ModelHandle
}

// SteelSummary is the design summary of one steel frame.
type SteelSummary struct {
	Frame     string
	Ratio     float64
	RatioType int
	Location  float64
	Combo     string
	Errors    string
	Warnings  string
}

// Overstressed reports whether the controlling ratio exceeds one.
func (s SteelSummary) Overstressed() bool {
	return s.Ratio > 1
}

// SetSteelCode selects the steel design code, e.g. "AISC 360-16".
func (m *DesignManager) SetSteelCode(ctx context.Context, code string) error {
	cc := callContext("DesignSteel.SetCode", code)
	if err := validateName(cc, "code", code); err != nil {
		return err
	}
	return m.h.exec(ctx, cc, native.Request{
		Op:   cc.Operation,
		Args: map[string]any{"CodeName": code},
	})
}

// SteelCode returns the selected steel design code.
func (m *DesignManager) SteelCode(ctx context.Context) (string, error) {
	cc := callContext("DesignSteel.GetCode")
	return scalar(ctx, m.h, cc, native.Request{Op: cc.Operation}, func(c *Columns, i int) string {
		return c.String("CodeName", i)
	})
}

// StartSteelDesign runs steel design. Analysis results must be available.
func (m *DesignManager) StartSteelDesign(ctx context.Context) error {
	cc := callContext("DesignSteel.StartDesign")
	return m.h.exec(ctx, cc, native.Request{Op: cc.Operation})
}

// SteelSummary reads design summaries for a frame, group or the current
// selection.
func (m *DesignManager) SteelSummary(ctx context.Context, name string, kind native.ItemType) (Outcome[SteelSummary], error) {
	req, cc, err := itemRequest("DesignSteel.GetSummaryResults", name, kind)
	if err != nil {
		return Outcome[SteelSummary]{}, err
	}
	return query(ctx, m.h, cc, req, func(c *Columns, i int) SteelSummary {
		return SteelSummary{
			Frame:     c.String("FrameName", i),
			Ratio:     c.Float("Ratio", i),
			RatioType: c.Int("RatioType", i),
			Location:  c.Float("Location", i),
			Combo:     c.String("ComboName", i),
			Errors:    c.String("ErrorSummary", i),
			Warnings:  c.String("WarningSummary", i),
		}
	})
}
