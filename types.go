package sapmodel

import (
	"time"

	"github.com/go-openapi/strfmt"

	"github.com/tomblancdev/sapmodel-go/native"
)

// SessionDescriptor describes a running application instance found by
// [Connector.Discover].
//
// Pass descriptors back to [Connector.Attach]:
//
//	candidates := conn.Discover(ctx)
//	h, err := conn.Attach(ctx, candidates, 22)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if h == nil {
//	    log.Fatal("no running instance with an open window")
//	}
//	defer h.Close(ctx, false)
type SessionDescriptor struct {
	// ID identifies the instance within its locator.
	ID string `json:"id"`

	// PID is the operating system process id, when known.
	PID int `json:"pid,omitempty"`

	// Version is the application version string as reported by the instance.
	// Example: "23.1.0".
	Version string `json:"version"`

	// MajorVersion is the parsed major component of Version, zero when
	// Version could not be parsed.
	MajorVersion int `json:"major_version"`

	// ActiveWindow reports whether the instance shows an active main window.
	// Only such instances are attach candidates.
	ActiveWindow bool `json:"active_window"`

	// ModelPath is the file currently open in the instance, if any.
	ModelPath string `json:"model_path,omitempty"`

	// StartedAt is the process start time, when known.
	StartedAt strfmt.DateTime `json:"started_at,omitempty"`

	// DiscoveredAt is when the descriptor was produced.
	DiscoveredAt time.Time `json:"discovered_at"`

	// MetadataErr is set when the instance was found but its metadata could
	// not be read. Such descriptors are never attached.
	MetadataErr error `json:"-"`

	instance native.Instance
}

// Attachable reports whether the descriptor qualifies as an attach
// candidate, ignoring the version floor.
func (d SessionDescriptor) Attachable() bool {
	return d.instance != nil && d.MetadataErr == nil && d.ActiveWindow
}

// LaunchOptions configures [Connector.CreateNew].
type LaunchOptions struct {
	// ModelPath, when set, is opened after the application starts.
	// Otherwise a blank model is created.
	ModelPath *string

	// StartUI shows the application window. When false the application runs
	// headless.
	StartUI bool
}
