package sapmodel

import (
	"context"

	"github.com/tomblancdev/sapmodel-go/native"
)

// FrameManager reads and edits frame objects.
type FrameManager struct {
	h *ModelHandle
}

// FrameEnds names the end points of a frame.
type FrameEnds struct {
	Name   string
	PointI string
	PointJ string
}

// FrameInput describes a frame to add between two existing points.
type FrameInput struct {
	PointI  string `validate:"required"`
	PointJ  string `validate:"required,nefield=PointI"`
	Section string

	// Name is the requested name. The application picks one when empty or
	// taken.
	Name string
}

// Names lists every frame object name.
func (m *FrameManager) Names(ctx context.Context) ([]string, error) {
	cc := callContext("FrameObj.GetNameList")
	return list(ctx, m.h, cc, native.Request{Op: cc.Operation}, decodeName)
}

// Endpoints returns the end points of one frame.
func (m *FrameManager) Endpoints(ctx context.Context, name string) (FrameEnds, error) {
	req, cc, err := itemRequest("FrameObj.GetPoints", name, native.ItemObject)
	if err != nil {
		return FrameEnds{}, err
	}
	return scalar(ctx, m.h, cc, req, func(c *Columns, i int) FrameEnds {
		return FrameEnds{
			Name:   name,
			PointI: c.String("Point1", i),
			PointJ: c.String("Point2", i),
		}
	})
}

type frameSection struct {
	frame   string
	section string
}

// Sections returns the section assigned to each named frame.
//
// All assignments are read in one call over the ALL group; if that call is
// rejected the frames are read one at a time.
func (m *FrameManager) Sections(ctx context.Context, names []string) (*BulkOutcome[string], error) {
	return RunBulk(ctx, names, BulkCall[string]{
		Operation: "FrameObj.GetSection",
		All: func(ctx context.Context, _ []string) (map[string]string, error) {
			rows, err := m.sections(ctx, native.GroupAll, native.ItemGroup)
			if err != nil {
				return nil, err
			}
			out := make(map[string]string, len(rows))
			for _, r := range rows {
				out[r.frame] = r.section
			}
			return out, nil
		},
		One: func(ctx context.Context, name string) (string, error) {
			rows, err := m.sections(ctx, name, native.ItemObject)
			if err != nil {
				return "", err
			}
			for _, r := range rows {
				if r.frame == name {
					return r.section, nil
				}
			}
			return "", newError(KindUnexpected, callContext("FrameObj.GetSection", name),
				"frame missing from native result", nil)
		},
	})
}

func (m *FrameManager) sections(ctx context.Context, name string, kind native.ItemType) ([]frameSection, error) {
	req, cc, err := itemRequest("FrameObj.GetSection", name, kind)
	if err != nil {
		return nil, err
	}
	return list(ctx, m.h, cc, req, func(c *Columns, i int) frameSection {
		return frameSection{
			frame:   c.String("Name", i),
			section: c.String("PropName", i),
		}
	})
}

// SetSection assigns a frame section property to one frame.
func (m *FrameManager) SetSection(ctx context.Context, name, section string) error {
	req, cc, err := itemRequest("FrameObj.SetSection", name, native.ItemObject)
	if err != nil {
		return err
	}
	if err := validateName(cc, "section", section); err != nil {
		return err
	}
	req.Args = map[string]any{"PropName": section}
	return m.h.exec(ctx, cc, req)
}

// AddByPoint adds a frame between two points and returns the name the
// application assigned. An empty Section uses the application default.
func (m *FrameManager) AddByPoint(ctx context.Context, f FrameInput) (string, error) {
	cc := callContext("FrameObj.AddByPoint", f.PointI, f.PointJ)
	if err := validateStruct(cc, f); err != nil {
		return "", err
	}
	section := f.Section
	if section == "" {
		section = "Default"
	}
	return scalar(ctx, m.h, cc, native.Request{
		Op: cc.Operation,
		Args: map[string]any{
			"Point1":   f.PointI,
			"Point2":   f.PointJ,
			"PropName": section,
			"UserName": f.Name,
		},
	}, decodeName)
}
