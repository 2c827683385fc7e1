package sapmodel

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/time/rate"

	"github.com/tomblancdev/sapmodel-go/native"
)

// State is the lifecycle state of a [ModelHandle].
type State uint8

const (
	// StateUnattached is the state of a handle that never received a session.
	StateUnattached State = iota

	// StateAttached indicates a live native session.
	StateAttached

	// StateDisposed indicates the session was released. It is terminal.
	StateDisposed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateUnattached:
		return "UNATTACHED"
	case StateAttached:
		return "ATTACHED"
	case StateDisposed:
		return "DISPOSED"
	default:
		return "UNKNOWN"
	}
}

// ModelHandle owns one native session and serializes every call made
// against it.
//
// Handles are produced by a [Connector]. The zero value is an unattached
// handle on which every operation fails with [KindUnavailableSession].
// A ModelHandle is safe for concurrent use; calls are issued one at a time.
// Independent handles share no mutable state.
type ModelHandle struct {
	mu      sync.Mutex
	id      string
	state   State
	session native.Session
	desc    SessionDescriptor

	limiter  *rate.Limiter
	observer Observer
	logger   *slog.Logger

	unitsOnce sync.Once
	units     *UnitCache
	defaults  Units

	versionMu sync.Mutex
	version   string
}

func newModelHandle(session native.Session, desc SessionDescriptor, s *settings) *ModelHandle {
	h := &ModelHandle{
		id:       uuid.NewString(),
		state:    StateAttached,
		session:  session,
		desc:     desc,
		observer: s.observer,
		logger:   s.logger,
		defaults: s.defaultUnits,
		version:  desc.Version,
	}
	if s.callsPerSecond > 0 {
		h.limiter = rate.NewLimiter(rate.Limit(s.callsPerSecond), s.burst)
	}
	return h
}

// ID returns the handle's unique identifier.
func (h *ModelHandle) ID() string {
	return h.id
}

// Descriptor returns the descriptor of the instance the handle is attached to.
// Handles created with [Connector.CreateNew] carry a descriptor without PID
// or window information.
func (h *ModelHandle) Descriptor() SessionDescriptor {
	return h.desc
}

// State returns the current lifecycle state.
func (h *ModelHandle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Close releases the native session. When save is true the application is
// asked to save the model first.
//
// Close is idempotent: once the handle is disposed, further calls return nil.
// The session is released exactly once, even when the native close fails.
func (h *ModelHandle) Close(ctx context.Context, save bool) (err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != StateAttached {
		h.state = StateDisposed
		return nil
	}

	session := h.session
	h.session = nil
	h.state = StateDisposed

	cc := callContext("ApplicationExit", h.desc.ID)
	defer func() {
		if r := recover(); r != nil {
			err = newError(KindUnexpected, cc, "panic while releasing native session",
				fmt.Errorf("%v\n%s", r, debug.Stack()))
		}
	}()
	if cerr := session.Close(context.WithoutCancel(ctx), save); cerr != nil {
		return translate(cc, cerr)
	}
	return nil
}

// Use runs fn with the handle and closes it without saving on every exit
// path, including panics raised by fn.
func (h *ModelHandle) Use(ctx context.Context, fn func(context.Context, *ModelHandle) error) (err error) {
	defer func() {
		err = multierr.Append(err, h.Close(ctx, false))
	}()
	return fn(ctx, h)
}

// call issues one native request under the handle lock.
//
// ctx is checked before the call is issued. The call itself runs detached
// from ctx cancellation so that an in-flight native call is never
// interrupted.
func (h *ModelHandle) call(ctx context.Context, cc CallContext, req native.Request) (*native.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, translate(cc, err)
	}
	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			return nil, translate(cc, err)
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != StateAttached {
		return nil, newError(KindUnavailableSession, cc,
			fmt.Sprintf("model handle is %s", h.state), nil)
	}

	start := time.Now()
	res, err := guardedCall(context.WithoutCancel(ctx), h.session, req)
	err = translate(cc, err)

	if h.observer != nil {
		ev := CallEvent{
			HandleID:  h.id,
			Operation: req.Op,
			Targets:   cc.Targets,
			ItemType:  req.ItemType,
			Duration:  time.Since(start),
			Err:       err,
		}
		if res != nil {
			ev.ReturnCode = res.Code
		}
		h.observer.ObserveCall(ev)
	}
	return res, err
}

// exec issues a native call that returns only a status code and converts a
// nonzero code into a [KindNativeCall] error.
func (h *ModelHandle) exec(ctx context.Context, cc CallContext, req native.Request) error {
	res, err := h.call(ctx, cc, req)
	if err != nil {
		return err
	}
	if res.Code != 0 {
		return nativeCallError(cc, res.Code, fmt.Sprintf("return code %d", res.Code))
	}
	return nil
}

// query issues a get-style request and decodes its output columns.
func query[T any](ctx context.Context, h *ModelHandle, cc CallContext, req native.Request, decode Decoder[T]) (Outcome[T], error) {
	res, err := h.call(ctx, cc, req)
	if err != nil {
		return Outcome[T]{}, err
	}
	return Map(res, cc, decode)
}

// list is query for callers that treat a nonzero return code as an error.
func list[T any](ctx context.Context, h *ModelHandle, cc CallContext, req native.Request, decode Decoder[T]) ([]T, error) {
	out, err := query(ctx, h, cc, req, decode)
	if err != nil {
		return nil, err
	}
	return out.Unwrap()
}

// scalar issues a request whose outputs are single values.
func scalar[T any](ctx context.Context, h *ModelHandle, cc CallContext, req native.Request, decode Decoder[T]) (T, error) {
	res, err := h.call(ctx, cc, req)
	if err != nil {
		var zero T
		return zero, err
	}
	return mapOne(res, cc, decode)
}

// itemRequest builds a filtered request after checking name and kind.
// The name is ignored for [native.ItemSelection].
func itemRequest(op, name string, kind native.ItemType) (native.Request, CallContext, error) {
	cc := callContext(op, name).withItemType(kind)
	req := native.Request{Op: op, Filter: name, ItemType: kind}
	if err := validateEnum(cc, "itemType", int(kind), []int{
		int(native.ItemObject), int(native.ItemGroup), int(native.ItemSelection),
	}); err != nil {
		return req, cc, err
	}
	if kind == native.ItemSelection {
		cc.Targets = nil
		req.Filter = ""
		return req, cc, nil
	}
	return req, cc, validateName(cc, "name", name)
}

// NativeVersion returns the application version string. It is read once
// per handle and cached.
func (h *ModelHandle) NativeVersion(ctx context.Context) (string, error) {
	h.versionMu.Lock()
	defer h.versionMu.Unlock()

	if h.version != "" {
		return h.version, nil
	}
	cc := callContext("GetVersion")
	v, err := scalar(ctx, h, cc, native.Request{Op: cc.Operation}, func(c *Columns, i int) string {
		return c.String("Version", i)
	})
	if err != nil {
		return "", err
	}
	h.version = v
	return v, nil
}

func (h *ModelHandle) log() *slog.Logger {
	if h.logger == nil {
		return discardLogger
	}
	return h.logger
}

// Units returns the handle's unit cache.
func (h *ModelHandle) Units() *UnitCache {
	h.unitsOnce.Do(func() {
		defaults := h.defaults
		if defaults == (Units{}) {
			defaults = DefaultUnits
		}
		h.units = &UnitCache{h: h, cached: defaults}
	})
	return h.units
}

// Points returns the point object manager.
func (h *ModelHandle) Points() *PointManager { return &PointManager{h: h} }

// Frames returns the frame object manager.
func (h *ModelHandle) Frames() *FrameManager { return &FrameManager{h: h} }

// Results returns the analysis results manager.
func (h *ModelHandle) Results() *ResultsManager { return &ResultsManager{h: h} }

// Properties returns the property manager.
func (h *ModelHandle) Properties() *PropertyManager { return &PropertyManager{h: h} }

// Loads returns the load manager.
func (h *ModelHandle) Loads() *LoadManager { return &LoadManager{h: h} }

// Analysis returns the analysis manager.
func (h *ModelHandle) Analysis() *AnalysisManager { return &AnalysisManager{h: h} }

// Design returns the design manager.
func (h *ModelHandle) Design() *DesignManager { return &DesignManager{h: h} }

// Files returns the file manager.
func (h *ModelHandle) Files() *FileManager { return &FileManager{h: h} }
