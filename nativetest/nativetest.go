// Package nativetest provides an in-memory, scriptable stand-in for the
// native application surface.
//
// An [App] dispatches each request to the handler registered for its
// operation name and records every request it receives:
//
//	app := nativetest.NewApp().
//		Return("PointObj.GetNameList", nativetest.OK(2, map[string]native.Column{
//			"Name": native.Strings("1", "2"),
//		}))
//	conn := sapmodel.NewConnector(nil, app.Launcher())
package nativetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomblancdev/sapmodel-go/native"
)

// Handler answers one native request.
type Handler func(ctx context.Context, req native.Request) (*native.Result, error)

// OK returns a successful result with count records.
func OK(count int, fields map[string]native.Column) *native.Result {
	return &native.Result{Count: count, Fields: fields}
}

// Code returns a failed result with the given return code.
func Code(code int) *native.Result {
	return &native.Result{Code: code}
}

// App is a fake application model. It is safe for concurrent use.
type App struct {
	mu       sync.Mutex
	handlers map[string]Handler
	calls    []native.Request
	closes   []bool
	closeErr error
}

// NewApp returns an App with no handlers.
func NewApp() *App {
	return &App{handlers: make(map[string]Handler)}
}

// Handle registers h for op, replacing any previous handler.
func (a *App) Handle(op string, h Handler) *App {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handlers[op] = h
	return a
}

// Return registers a handler that always answers op with res.
func (a *App) Return(op string, res *native.Result) *App {
	return a.Handle(op, func(context.Context, native.Request) (*native.Result, error) {
		clone := *res
		return &clone, nil
	})
}

// Fail registers a handler that always answers op with a nonzero code.
func (a *App) Fail(op string, code int) *App {
	return a.Return(op, Code(code))
}

// Error registers a handler that fails op at the transport level.
func (a *App) Error(op string, err error) *App {
	return a.Handle(op, func(context.Context, native.Request) (*native.Result, error) {
		return nil, err
	})
}

// FailClose makes every session close report err. The session is still
// released.
func (a *App) FailClose(err error) *App {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closeErr = err
	return a
}

// HandleUnits installs stateful GetPresentUnits_2 and SetPresentUnits_2
// handlers starting from the given unit codes.
func (a *App) HandleUnits(force, length, temperature int) *App {
	var mu sync.Mutex
	state := [3]int{force, length, temperature}

	a.Handle("GetPresentUnits_2", func(context.Context, native.Request) (*native.Result, error) {
		mu.Lock()
		defer mu.Unlock()
		return OK(1, map[string]native.Column{
			"Force":       native.Ints(state[0]),
			"Length":      native.Ints(state[1]),
			"Temperature": native.Ints(state[2]),
		}), nil
	})
	return a.Handle("SetPresentUnits_2", func(_ context.Context, req native.Request) (*native.Result, error) {
		var next [3]int
		for i, name := range []string{"Force", "Length", "Temperature"} {
			v, err := req.ArgInt(name)
			if err != nil {
				return Code(1), nil
			}
			next[i] = v
		}
		mu.Lock()
		state = next
		mu.Unlock()
		return OK(0, nil), nil
	})
}

// Calls returns a copy of every request received, in order.
func (a *App) Calls() []native.Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]native.Request(nil), a.calls...)
}

// CallCount returns how many requests named op were received.
func (a *App) CallCount(op string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, c := range a.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Closes returns the save flag of every session close, in order.
func (a *App) Closes() []bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]bool(nil), a.closes...)
}

func (a *App) dispatch(ctx context.Context, req native.Request) (*native.Result, error) {
	a.mu.Lock()
	a.calls = append(a.calls, req)
	h, ok := a.handlers[req.Op]
	a.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("nativetest: no handler for %q", req.Op)
	}
	return h(ctx, req)
}

// Session returns a new session on the app.
func (a *App) Session() *Session {
	return &Session{app: a}
}

// Session is an attached fake session.
type Session struct {
	app *App

	mu     sync.Mutex
	closed bool
	lost   bool
}

// Call dispatches req to the app.
func (s *Session) Call(ctx context.Context, req native.Request) (*native.Result, error) {
	s.mu.Lock()
	closed, lost := s.closed, s.lost
	s.mu.Unlock()

	switch {
	case closed:
		return nil, native.ErrSessionClosed
	case lost:
		return nil, native.ErrSessionLost
	}
	return s.app.dispatch(ctx, req)
}

// Close releases the session.
func (s *Session) Close(_ context.Context, save bool) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return native.ErrSessionClosed
	}
	s.closed = true
	s.mu.Unlock()

	s.app.mu.Lock()
	defer s.app.mu.Unlock()
	s.app.closes = append(s.app.closes, save)
	return s.app.closeErr
}

// Lose simulates the application process going away: every later call
// fails with native.ErrSessionLost.
func (s *Session) Lose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lost = true
}

// Closed reports whether the session was released.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Instance is a fake running application process.
type Instance struct {
	InstanceID string
	Meta       native.Metadata
	MetaErr    error
	AttachErr  error
	App        *App

	mu       sync.Mutex
	sessions []*Session
}

// NewInstance returns an instance with an active window running version.
func NewInstance(id, version string, app *App) *Instance {
	return &Instance{
		InstanceID: id,
		App:        app,
		Meta: native.Metadata{
			PID:          1000,
			Version:      version,
			ActiveWindow: true,
			StartedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		},
	}
}

// ID returns the instance id.
func (i *Instance) ID() string { return i.InstanceID }

// Metadata returns Meta or MetaErr.
func (i *Instance) Metadata(context.Context) (native.Metadata, error) {
	if i.MetaErr != nil {
		return native.Metadata{}, i.MetaErr
	}
	return i.Meta, nil
}

// Attach returns a new session on App, or AttachErr.
func (i *Instance) Attach(context.Context) (native.Session, error) {
	if i.AttachErr != nil {
		return nil, i.AttachErr
	}
	if i.App == nil {
		return nil, errors.New("nativetest: instance has no app")
	}
	s := i.App.Session()
	i.mu.Lock()
	i.sessions = append(i.sessions, s)
	i.mu.Unlock()
	return s, nil
}

// Attached returns how many sessions were attached.
func (i *Instance) Attached() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.sessions)
}

// Locator lists a fixed set of instances.
type Locator struct {
	List []native.Instance
	Err  error
}

// Instances returns List or Err.
func (l *Locator) Instances(context.Context) ([]native.Instance, error) {
	if l.Err != nil {
		return nil, l.Err
	}
	return l.List, nil
}

// Launcher starts sessions on an App.
type Launcher struct {
	App *App
	Err error

	mu       sync.Mutex
	requests []native.LaunchRequest
	sessions []*Session
}

// Launcher returns a launcher starting sessions on a.
func (a *App) Launcher() *Launcher {
	return &Launcher{App: a}
}

// Launch records req and returns a new session, or Err.
func (l *Launcher) Launch(_ context.Context, req native.LaunchRequest) (native.Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.requests = append(l.requests, req)
	if l.Err != nil {
		return nil, l.Err
	}
	s := l.App.Session()
	l.sessions = append(l.sessions, s)
	return s, nil
}

// Requests returns every launch request, in order.
func (l *Launcher) Requests() []native.LaunchRequest {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]native.LaunchRequest(nil), l.requests...)
}

// Sessions returns every launched session, in order.
func (l *Launcher) Sessions() []*Session {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*Session(nil), l.sessions...)
}
