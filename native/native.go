// Package native describes the automation surface exposed by a running
// structural-analysis application.
//
// The surface is procedural: every operation takes scalar arguments and a
// filter, and answers with an integer return code plus zero or more parallel
// output arrays. This package only models that shape. Typed access lives in
// the parent sapmodel package.
package native

import (
	"context"
	"errors"
	"time"
)

// Session errors reported by transports.
var (
	// ErrSessionClosed is returned when a call is issued on a released session.
	ErrSessionClosed = errors.New("native session closed")

	// ErrSessionLost is returned when the application process went away.
	ErrSessionLost = errors.New("native session lost")
)

// ItemType selects how Request.Filter is interpreted.
type ItemType int

const (
	// ItemObject treats the filter as a single object name.
	ItemObject ItemType = 0

	// ItemGroup treats the filter as a group name ("ALL" is the built-in group).
	ItemGroup ItemType = 1

	// ItemSelection ignores the filter and uses the current selection.
	ItemSelection ItemType = 2
)

// String returns the item type name.
func (t ItemType) String() string {
	switch t {
	case ItemObject:
		return "Object"
	case ItemGroup:
		return "Group"
	case ItemSelection:
		return "SelectedObjects"
	default:
		return "Unknown"
	}
}

// GroupAll is the built-in group containing every object.
const GroupAll = "ALL"

// Request is one call into the native surface.
type Request struct {
	// Op is the native operation name, e.g. "Results.JointReact".
	Op string `json:"op"`

	// Filter is the object or group name the call applies to.
	Filter string `json:"filter,omitempty"`

	// ItemType qualifies Filter.
	ItemType ItemType `json:"item_type"`

	// Args carries scalar input parameters.
	Args map[string]any `json:"args,omitempty"`

	// Fields carries array input parameters for set-many calls.
	// All columns have the same length.
	Fields map[string]Column `json:"fields,omitempty"`
}

// Result is the direct decode of one native call.
//
// When Code is zero every output column is expected to hold Count values.
type Result struct {
	Code   int               `json:"code"`
	Count  int               `json:"count"`
	Fields map[string]Column `json:"fields,omitempty"`
}

// Session is an attached native model.
//
// Implementations are not required to be safe for concurrent use; callers
// serialize access.
type Session interface {
	// Call issues one native operation.
	Call(ctx context.Context, req Request) (*Result, error)

	// Close releases the session. When save is true the application is asked
	// to save (and may prompt) before exiting.
	Close(ctx context.Context, save bool) error
}

// Metadata describes a running application instance.
type Metadata struct {
	PID          int       `json:"pid"`
	Version      string    `json:"version"`
	ActiveWindow bool      `json:"active_window"`
	ModelPath    string    `json:"model_path,omitempty"`
	StartedAt    time.Time `json:"started_at,omitempty"`
}

// Instance is a candidate application process found by a Locator.
type Instance interface {
	ID() string
	Metadata(ctx context.Context) (Metadata, error)
	Attach(ctx context.Context) (Session, error)
}

// Locator enumerates running application processes.
type Locator interface {
	Instances(ctx context.Context) ([]Instance, error)
}

// LaunchRequest describes a new application process.
type LaunchRequest struct {
	StartUI bool `json:"start_ui"`
}

// Launcher starts new application processes.
type Launcher interface {
	Launch(ctx context.Context, req LaunchRequest) (Session, error)
}
