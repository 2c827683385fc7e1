package sapmodel

import (
	"context"

	"github.com/tomblancdev/sapmodel-go/native"
)

// FileManager passes model persistence through to the application. No file
// format is read or written by this package.
type FileManager struct {
	h *ModelHandle
}

// Path returns the full path of the open model file, empty for an unsaved
// model.
func (m *FileManager) Path(ctx context.Context) (string, error) {
	cc := callContext("GetModelFilename")
	return scalar(ctx, m.h, cc, native.Request{Op: cc.Operation}, func(c *Columns, i int) string {
		return c.String("FileName", i)
	})
}

// Save saves the model. An empty path saves to the current file.
func (m *FileManager) Save(ctx context.Context, path string) error {
	cc := callContext("File.Save")
	if path != "" {
		cc.Targets = []string{path}
		if err := validateName(cc, "path", path); err != nil {
			return err
		}
	}
	return m.h.exec(ctx, cc, native.Request{
		Op:   cc.Operation,
		Args: map[string]any{"FileName": path},
	})
}

// Open opens an existing model file, replacing the current model.
func (m *FileManager) Open(ctx context.Context, path string) error {
	cc := callContext("File.OpenFile", path)
	if err := validateName(cc, "path", path); err != nil {
		return err
	}
	return m.h.exec(ctx, cc, native.Request{
		Op:   cc.Operation,
		Args: map[string]any{"FileName": path},
	})
}

// NewBlank replaces the current model with an empty one.
func (m *FileManager) NewBlank(ctx context.Context) error {
	cc := callContext("File.NewBlank")
	return m.h.exec(ctx, cc, native.Request{Op: cc.Operation})
}

// InitializeNewModel clears the application and sets the units for the next
// model. The handle's unit cache follows on success.
func (m *FileManager) InitializeNewModel(ctx context.Context, units Units) error {
	cc := callContext("InitializeNewModel", units.String())
	if err := units.validate(cc); err != nil {
		return err
	}
	err := m.h.exec(ctx, cc, native.Request{
		Op: cc.Operation,
		Args: map[string]any{
			"Force":       int(units.Force),
			"Length":      int(units.Length),
			"Temperature": int(units.Temperature),
		},
	})
	if err != nil {
		return err
	}
	m.h.Units().store(units)
	return nil
}
