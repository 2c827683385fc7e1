package sapmodel

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/tomblancdev/sapmodel-go/native"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// CallEvent describes one completed native call.
type CallEvent struct {
	HandleID   string
	Operation  string
	Targets    []string
	ItemType   native.ItemType
	ReturnCode int
	Duration   time.Duration

	// Err is the translated error, nil when the call reached the native layer
	// and returned. A nonzero ReturnCode with a nil Err is a native failure
	// that the caller decodes.
	Err error
}

// Failed reports whether the call failed at any level.
func (e CallEvent) Failed() bool {
	return e.Err != nil || e.ReturnCode != 0
}

// Observer receives an event for every native call issued through a
// [ModelHandle]. Observers are invoked while the handle lock is held and
// must not call back into the handle.
type Observer interface {
	ObserveCall(CallEvent)
}

// ObserverFunc adapts a function to [Observer].
type ObserverFunc func(CallEvent)

// ObserveCall calls f(ev).
func (f ObserverFunc) ObserveCall(ev CallEvent) { f(ev) }

type multiObserver []Observer

func (m multiObserver) ObserveCall(ev CallEvent) {
	for _, o := range m {
		o.ObserveCall(ev)
	}
}

// MultiObserver fans events out to every non-nil observer.
func MultiObserver(observers ...Observer) Observer {
	var m multiObserver
	for _, o := range observers {
		if o != nil {
			m = append(m, o)
		}
	}
	if len(m) == 1 {
		return m[0]
	}
	return m
}

// SlogObserver writes call events to an slog.Logger: successful calls at
// Debug level, failures at Warn level.
type SlogObserver struct {
	logger *slog.Logger
}

// NewSlogObserver creates an observer that writes to logger.
func NewSlogObserver(logger *slog.Logger) *SlogObserver {
	return &SlogObserver{logger: logger}
}

// ObserveCall logs ev.
func (o *SlogObserver) ObserveCall(ev CallEvent) {
	attrs := []slog.Attr{
		slog.String("handle", ev.HandleID),
		slog.String("op", ev.Operation),
		slog.Duration("duration", ev.Duration),
	}
	if len(ev.Targets) > 0 {
		attrs = append(attrs, slog.Any("targets", ev.Targets))
	}
	if ev.ReturnCode != 0 {
		attrs = append(attrs, slog.Int("return_code", ev.ReturnCode))
	}
	if ev.Err != nil {
		attrs = append(attrs, slog.Any("error", ev.Err))
	}

	level := slog.LevelDebug
	if ev.Failed() {
		level = slog.LevelWarn
	}
	o.logger.LogAttrs(context.Background(), level, "native call", attrs...)
}
