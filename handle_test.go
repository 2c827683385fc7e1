package sapmodel_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tomblancdev/sapmodel-go"
	"github.com/tomblancdev/sapmodel-go/native"
	"github.com/tomblancdev/sapmodel-go/nativetest"
)

// mockSession is a native.Session driven by testify/mock.
type mockSession struct {
	mock.Mock
}

func (m *mockSession) Call(ctx context.Context, req native.Request) (*native.Result, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*native.Result)
	return res, args.Error(1)
}

func (m *mockSession) Close(ctx context.Context, save bool) error {
	return m.Called(ctx, save).Error(0)
}

type mockInstance struct {
	session native.Session
}

func (i mockInstance) ID() string { return "mock" }

func (i mockInstance) Metadata(context.Context) (native.Metadata, error) {
	return native.Metadata{Version: "23.0.0", ActiveWindow: true}, nil
}

func (i mockInstance) Attach(context.Context) (native.Session, error) {
	return i.session, nil
}

func attachSession(t *testing.T, s native.Session, opts ...sapmodel.Option) *sapmodel.ModelHandle {
	t.Helper()
	conn := sapmodel.NewConnector(&nativetest.Locator{List: []native.Instance{mockInstance{session: s}}}, nil, opts...)
	h, err := conn.AttachRunning(context.Background())
	require.NoError(t, err)
	require.NotNil(t, h)
	return h
}

// TestModelHandle_ZeroValue tests that an unattached handle rejects calls.
func TestModelHandle_ZeroValue(t *testing.T) {
	var h sapmodel.ModelHandle

	assert.Equal(t, sapmodel.StateUnattached, h.State())

	_, err := h.Points().Names(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, sapmodel.ErrUnavailableSession)
	assert.Contains(t, err.Error(), "UNATTACHED")

	require.NoError(t, h.Close(context.Background(), false))
	assert.Equal(t, sapmodel.StateDisposed, h.State())
}

// TestModelHandle_CloseTwice tests that Close is idempotent and releases the
// session exactly once.
func TestModelHandle_CloseTwice(t *testing.T) {
	// Arrange
	app := nativetest.NewApp()
	h := attachApp(t, app)
	ctx := context.Background()

	// Act
	err1 := h.Close(ctx, true)
	err2 := h.Close(ctx, false)

	// Assert
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, sapmodel.StateDisposed, h.State())
	assert.Equal(t, []bool{true}, app.Closes())
}

// TestModelHandle_CallAfterClose tests that a disposed handle rejects calls
// without reaching the native layer.
func TestModelHandle_CallAfterClose(t *testing.T) {
	app := nativetest.NewApp().Return("PointObj.GetNameList", names("1"))
	h := attachApp(t, app)
	require.NoError(t, h.Close(context.Background(), false))

	_, err := h.Points().Names(context.Background())

	assert.ErrorIs(t, err, sapmodel.ErrUnavailableSession)
	assert.Zero(t, app.CallCount("PointObj.GetNameList"))
}

// TestModelHandle_CloseError tests that a failing native close still
// disposes the handle.
func TestModelHandle_CloseError(t *testing.T) {
	s := new(mockSession)
	s.On("Close", mock.Anything, false).Return(errors.New("exit refused")).Once()
	h := attachSession(t, s)

	err := h.Close(context.Background(), false)

	require.Error(t, err)
	assert.ErrorIs(t, err, sapmodel.ErrUnexpected)
	assert.Equal(t, sapmodel.StateDisposed, h.State())
	require.NoError(t, h.Close(context.Background(), false))
	s.AssertExpectations(t)
}

// TestModelHandle_PanicIsTranslated tests that a panicking session surfaces
// as an unexpected error.
func TestModelHandle_PanicIsTranslated(t *testing.T) {
	s := new(mockSession)
	s.On("Call", mock.Anything, mock.MatchedBy(func(r native.Request) bool {
		return r.Op == "PointObj.GetNameList"
	})).Panic("COM exception")
	s.On("Close", mock.Anything, false).Return(nil)
	h := attachSession(t, s)
	defer h.Close(context.Background(), false)

	var err error
	require.NotPanics(t, func() {
		_, err = h.Points().Names(context.Background())
	})

	assert.ErrorIs(t, err, sapmodel.ErrUnexpected)
	assert.Contains(t, err.Error(), "COM exception")
	assert.Contains(t, err.Error(), "PointObj.GetNameList")
}

// TestModelHandle_SessionLost tests that a lost session is reported as
// unavailable.
func TestModelHandle_SessionLost(t *testing.T) {
	s := new(mockSession)
	s.On("Call", mock.Anything, mock.Anything).Return(nil, native.ErrSessionLost)
	s.On("Close", mock.Anything, false).Return(nil)
	h := attachSession(t, s)
	defer h.Close(context.Background(), false)

	_, err := h.Frames().Names(context.Background())

	assert.ErrorIs(t, err, sapmodel.ErrUnavailableSession)
	assert.ErrorIs(t, err, native.ErrSessionLost)
}

// TestModelHandle_CanceledContext tests that no call is issued once the
// context is done.
func TestModelHandle_CanceledContext(t *testing.T) {
	app := nativetest.NewApp().Return("PointObj.GetNameList", names("1"))
	h := attachApp(t, app)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Points().Names(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, sapmodel.ErrUnexpected)
	assert.Zero(t, app.CallCount("PointObj.GetNameList"))
}

// TestModelHandle_InFlightCallNotCanceled tests that the native call itself
// runs detached from cancellation.
func TestModelHandle_InFlightCallNotCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	app := nativetest.NewApp().Handle("PointObj.GetNameList", func(callCtx context.Context, _ native.Request) (*native.Result, error) {
		cancel()
		if err := callCtx.Err(); err != nil {
			return nil, err
		}
		return names("1", "2"), nil
	})
	h := attachApp(t, app)

	got, err := h.Points().Names(ctx)

	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, got)
}

// TestModelHandle_Use tests that Use closes the handle on every exit path.
func TestModelHandle_Use(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		app := nativetest.NewApp()
		h := attachApp(t, app)

		err := h.Use(ctx, func(context.Context, *sapmodel.ModelHandle) error { return nil })

		require.NoError(t, err)
		assert.Equal(t, sapmodel.StateDisposed, h.State())
		assert.Len(t, app.Closes(), 1)
	})

	t.Run("error", func(t *testing.T) {
		app := nativetest.NewApp()
		h := attachApp(t, app)
		boom := errors.New("boom")

		err := h.Use(ctx, func(context.Context, *sapmodel.ModelHandle) error { return boom })

		assert.ErrorIs(t, err, boom)
		assert.Equal(t, sapmodel.StateDisposed, h.State())
		assert.Len(t, app.Closes(), 1)
	})

	t.Run("panic", func(t *testing.T) {
		app := nativetest.NewApp()
		h := attachApp(t, app)

		assert.Panics(t, func() {
			_ = h.Use(ctx, func(context.Context, *sapmodel.ModelHandle) error { panic("boom") })
		})
		assert.Equal(t, sapmodel.StateDisposed, h.State())
		assert.Len(t, app.Closes(), 1)
	})
}

// TestModelHandle_NativeVersion tests the version is read once and cached.
func TestModelHandle_NativeVersion(t *testing.T) {
	s := new(mockSession)
	s.On("Close", mock.Anything, false).Return(nil)
	h := attachSession(t, s)
	defer h.Close(context.Background(), false)

	v, err := h.NativeVersion(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "23.0.0", v, "descriptor version is used without a native call")
	s.AssertNotCalled(t, "Call", mock.Anything, mock.Anything)
}

// TestModelHandle_Observer tests that observers see every call.
func TestModelHandle_Observer(t *testing.T) {
	var events []sapmodel.CallEvent
	obs := sapmodel.ObserverFunc(func(ev sapmodel.CallEvent) { events = append(events, ev) })
	app := nativetest.NewApp().
		Return("PointObj.GetNameList", names("1")).
		Fail("FrameObj.GetNameList", 4)
	h := attachApp(t, app, sapmodel.WithObserver(obs))
	ctx := context.Background()

	_, _ = h.Points().Names(ctx)
	_, err := h.Frames().Names(ctx)

	require.Error(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "PointObj.GetNameList", events[0].Operation)
	assert.False(t, events[0].Failed())
	assert.Equal(t, h.ID(), events[0].HandleID)
	assert.Equal(t, 4, events[1].ReturnCode)
	assert.True(t, events[1].Failed())
}

// TestModelHandle_SerializesCalls tests that concurrent callers of one handle
// never have two native calls in flight.
func TestModelHandle_SerializesCalls(t *testing.T) {
	// Arrange
	const callers = 16
	var inFlight, peak atomic.Int32
	app := nativetest.NewApp().Handle("PointObj.GetNameList", func(context.Context, native.Request) (*native.Result, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		return names("1"), nil
	})
	h := attachApp(t, app)

	// Act
	var wg sync.WaitGroup
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.Points().Names(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Assert
	assert.Equal(t, int32(1), peak.Load())
	assert.Equal(t, callers, app.CallCount("PointObj.GetNameList"))
}

// TestModelHandle_IndependentHandlesRunConcurrently tests that the call lock
// is per handle: each handle's call waits for the other's to start.
func TestModelHandle_IndependentHandlesRunConcurrently(t *testing.T) {
	// Arrange
	var arrived atomic.Int32
	both := make(chan struct{})
	handler := func(context.Context, native.Request) (*native.Result, error) {
		if arrived.Add(1) == 2 {
			close(both)
		}
		select {
		case <-both:
			return names("1"), nil
		case <-time.After(5 * time.Second):
			return nil, errors.New("other handle's call never started")
		}
	}
	handles := []*sapmodel.ModelHandle{
		attachApp(t, nativetest.NewApp().Handle("PointObj.GetNameList", handler)),
		attachApp(t, nativetest.NewApp().Handle("PointObj.GetNameList", handler)),
	}

	// Act
	errs := make([]error, len(handles))
	var wg sync.WaitGroup
	for i, h := range handles {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = h.Points().Names(context.Background())
		}()
	}
	wg.Wait()

	// Assert
	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1])
}
