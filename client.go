package sapmodel

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tomblancdev/sapmodel-go/native"
)

// Connector finds, attaches to and starts application instances.
//
// A Connector holds no sessions itself; every handle it returns owns its
// session and must be closed by the caller.
type Connector struct {
	locator  native.Locator
	launcher native.Launcher
	settings settings
}

// NewConnector creates a Connector. Either locator or launcher may be nil
// when the corresponding operations are not needed.
func NewConnector(locator native.Locator, launcher native.Launcher, opts ...Option) *Connector {
	c := &Connector{
		locator:  locator,
		launcher: launcher,
		settings: defaultSettings(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// MinVersion returns the configured application major version floor.
func (c *Connector) MinVersion() int {
	return c.settings.minVersion
}

// CheckCompatibility checks version against the configured version range.
func (c *Connector) CheckCompatibility(version string) CompatibilityResult {
	return checkCompatibility(version, c.settings.versionRange)
}

// Discover enumerates running application instances and reads their
// metadata.
//
// Discover never fails: a locator error or the absence of running
// instances yields an empty slice. Instances whose metadata cannot be read
// are returned with MetadataErr set.
func (c *Connector) Discover(ctx context.Context) []SessionDescriptor {
	if c.locator == nil {
		return []SessionDescriptor{}
	}

	instances, err := c.locator.Instances(ctx)
	if err != nil {
		c.settings.logger.Warn("enumerating application instances failed", slog.Any("error", err))
		return []SessionDescriptor{}
	}

	descs := make([]SessionDescriptor, len(instances))
	var g errgroup.Group
	g.SetLimit(c.settings.discoverConcurrency)
	for i, inst := range instances {
		g.Go(func() error {
			descs[i] = c.describe(ctx, inst)
			return nil
		})
	}
	_ = g.Wait()

	return descs
}

func (c *Connector) describe(ctx context.Context, inst native.Instance) (desc SessionDescriptor) {
	desc = SessionDescriptor{
		ID:           inst.ID(),
		DiscoveredAt: time.Now(),
		instance:     inst,
	}
	defer func() {
		if r := recover(); r != nil {
			desc.MetadataErr = fmt.Errorf("panic reading metadata: %v", r)
		}
		if desc.MetadataErr != nil {
			c.settings.logger.Warn("reading instance metadata failed",
				slog.String("instance", desc.ID),
				slog.Any("error", desc.MetadataErr),
			)
		}
	}()

	md, err := inst.Metadata(ctx)
	if err != nil {
		desc.MetadataErr = err
		return desc
	}

	desc.PID = md.PID
	desc.Version = md.Version
	desc.ActiveWindow = md.ActiveWindow
	desc.ModelPath = md.ModelPath
	if !md.StartedAt.IsZero() {
		desc.StartedAt = strfmt.DateTime(md.StartedAt)
	}

	major, err := nativeMajor(md.Version)
	if err != nil {
		desc.MetadataErr = fmt.Errorf("parsing version %q: %w", md.Version, err)
		return desc
	}
	desc.MajorVersion = major
	return desc
}

// Attach attaches to the first candidate, in order, that shows an active
// main window. It returns (nil, nil) when no candidate qualifies.
//
// The winner is rejected with [KindUnsupportedVersion] when its major
// version is below minVersion; nothing is attached in that case. A
// non-positive minVersion selects the configured floor.
func (c *Connector) Attach(ctx context.Context, candidates []SessionDescriptor, minVersion int) (*ModelHandle, error) {
	if minVersion <= 0 {
		minVersion = c.settings.minVersion
	}

	var winner *SessionDescriptor
	for i := range candidates {
		if candidates[i].Attachable() {
			winner = &candidates[i]
			break
		}
	}
	if winner == nil {
		return nil, nil
	}

	cc := callContext("Attach", winner.ID)
	if winner.MajorVersion < minVersion {
		return nil, newError(KindUnsupportedVersion, cc,
			fmt.Sprintf("application version %s (major %d) is below the supported floor %d",
				winner.Version, winner.MajorVersion, minVersion), nil)
	}

	session, err := winner.instance.Attach(ctx)
	if err != nil {
		return nil, translate(cc, err)
	}
	if session == nil {
		return nil, newError(KindUnexpected, cc, "instance returned no session", nil)
	}

	return newModelHandle(session, *winner, &c.settings), nil
}

// AttachRunning discovers running instances and attaches to the first
// qualifying one using the configured version floor.
func (c *Connector) AttachRunning(ctx context.Context) (*ModelHandle, error) {
	return c.Attach(ctx, c.Discover(ctx), c.settings.minVersion)
}

// CreateNew starts a new application instance and prepares a model in it.
//
// The returned handle is always attached. If any step after the launch
// fails the new session is released before the error is returned.
func (c *Connector) CreateNew(ctx context.Context, opts LaunchOptions) (*ModelHandle, error) {
	cc := callContext("CreateNew")
	if opts.ModelPath != nil {
		cc.Targets = []string{*opts.ModelPath}
		if err := validateName(cc, "modelPath", *opts.ModelPath); err != nil {
			return nil, err
		}
	}
	if c.launcher == nil {
		return nil, newError(KindUnexpected, cc, "connector has no launcher", nil)
	}

	session, err := c.launcher.Launch(ctx, native.LaunchRequest{StartUI: opts.StartUI})
	if err != nil {
		return nil, newError(KindNativeCall, cc, "launching application failed", err)
	}
	if session == nil {
		return nil, newError(KindNativeCall, cc, "launcher returned no session", nil)
	}

	desc := SessionDescriptor{
		ID:           uuid.NewString(),
		ActiveWindow: opts.StartUI,
		ModelPath:    swag.StringValue(opts.ModelPath),
		DiscoveredAt: time.Now(),
	}
	handle := newModelHandle(session, desc, &c.settings)

	ready := false
	defer func() {
		if !ready {
			_ = handle.Close(ctx, false)
		}
	}()

	if err := handle.Files().InitializeNewModel(ctx, handle.Units().Cached()); err != nil {
		return nil, err
	}
	if opts.ModelPath != nil {
		if err := handle.Files().Open(ctx, *opts.ModelPath); err != nil {
			return nil, err
		}
	} else if err := handle.Files().NewBlank(ctx); err != nil {
		return nil, err
	}

	ready = true
	return handle, nil
}
