package sapmodel

import "log/slog"

const (
	defaultDiscoverConcurrency = 4
	defaultBurst               = 1
)

// settings are shared by a Connector and every handle it creates. They are
// not modified after construction.
type settings struct {
	logger              *slog.Logger
	observer            Observer
	minVersion          int
	versionRange        string
	callsPerSecond      float64
	burst               int
	defaultUnits        Units
	discoverConcurrency int
}

func defaultSettings() settings {
	return settings{
		logger:              discardLogger,
		minVersion:          MinNativeVersion,
		versionRange:        NativeVersionRange,
		burst:               defaultBurst,
		defaultUnits:        DefaultUnits,
		discoverConcurrency: defaultDiscoverConcurrency,
	}
}

// Option configures a Connector.
type Option func(*Connector)

// WithLogger sets the logger used for warnings such as unit cache
// fallbacks and unreadable instances.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Connector) {
		if logger != nil {
			c.settings.logger = logger
		}
	}
}

// WithObserver sets the observer notified of every native call.
func WithObserver(o Observer) Option {
	return func(c *Connector) {
		c.settings.observer = o
	}
}

// WithMinVersion sets the lowest application major version accepted by
// [Connector.AttachRunning] and by [Connector.Attach] when called with a
// non-positive floor.
func WithMinVersion(major int) Option {
	return func(c *Connector) {
		if major > 0 {
			c.settings.minVersion = major
		}
	}
}

// WithVersionRange sets the semver constraint used by
// [Connector.CheckCompatibility].
func WithVersionRange(constraint string) Option {
	return func(c *Connector) {
		if constraint != "" {
			c.settings.versionRange = constraint
		}
	}
}

// WithCallRate paces native calls on each handle to perSecond calls with
// the given burst. Zero disables pacing.
func WithCallRate(perSecond float64, burst int) Option {
	return func(c *Connector) {
		c.settings.callsPerSecond = perSecond
		if burst < 1 {
			burst = defaultBurst
		}
		c.settings.burst = burst
	}
}

// WithDefaultUnits sets the units a handle assumes before its first
// successful unit read or write.
func WithDefaultUnits(u Units) Option {
	return func(c *Connector) {
		c.settings.defaultUnits = u
	}
}

// WithDiscoverConcurrency bounds how many instances are probed at once
// during discovery.
func WithDiscoverConcurrency(n int) Option {
	return func(c *Connector) {
		if n > 0 {
			c.settings.discoverConcurrency = n
		}
	}
}
