package sapmodel_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomblancdev/sapmodel-go"
	"github.com/tomblancdev/sapmodel-go/native"
	"github.com/tomblancdev/sapmodel-go/nativetest"
)

// ----------------------------------------------------------------------------
// Discover
// ----------------------------------------------------------------------------

// TestDiscover_NoInstances tests that discovery with nothing running yields
// an empty list.
func TestDiscover_NoInstances(t *testing.T) {
	tests := []struct {
		name    string
		locator native.Locator
	}{
		{"nil locator", nil},
		{"empty locator", &nativetest.Locator{}},
		{"failing locator", &nativetest.Locator{Err: errors.New("process table unreadable")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := sapmodel.NewConnector(tt.locator, nil)

			got := conn.Discover(context.Background())

			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

// TestDiscover_Metadata tests descriptors carry parsed instance metadata and
// keep order.
func TestDiscover_Metadata(t *testing.T) {
	// Arrange
	var logs bytes.Buffer
	broken := nativetest.NewInstance("b", "", nil)
	broken.MetaErr = errors.New("access denied")
	loc := &nativetest.Locator{List: []native.Instance{
		nativetest.NewInstance("a", "23.1.0.1970", nil),
		broken,
		nativetest.NewInstance("c", "garbage", nil),
	}}
	conn := sapmodel.NewConnector(loc, nil,
		sapmodel.WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
		sapmodel.WithDiscoverConcurrency(2),
	)

	// Act
	got := conn.Discover(context.Background())

	// Assert
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, 23, got[0].MajorVersion)
	assert.Equal(t, 1000, got[0].PID)
	assert.True(t, got[0].Attachable())
	assert.False(t, time.Time(got[0].StartedAt).IsZero())

	assert.Equal(t, "b", got[1].ID)
	assert.Error(t, got[1].MetadataErr)
	assert.False(t, got[1].Attachable())

	assert.Equal(t, "c", got[2].ID)
	assert.Error(t, got[2].MetadataErr)
	assert.Zero(t, got[2].MajorVersion)

	assert.Contains(t, logs.String(), "access denied")
}

// ----------------------------------------------------------------------------
// Attach
// ----------------------------------------------------------------------------

// TestAttach_NoQualifyingInstance tests that attach returns nil without an
// error when no instance shows an active window.
func TestAttach_NoQualifyingInstance(t *testing.T) {
	hidden := nativetest.NewInstance("hidden", "23.0.0", nativetest.NewApp())
	hidden.Meta.ActiveWindow = false
	conn := sapmodel.NewConnector(&nativetest.Locator{List: []native.Instance{hidden}}, nil)
	ctx := context.Background()

	h, err := conn.Attach(ctx, conn.Discover(ctx), 0)
	require.NoError(t, err)
	assert.Nil(t, h)
	assert.Zero(t, hidden.Attached())

	h, err = conn.Attach(ctx, nil, 0)
	require.NoError(t, err)
	assert.Nil(t, h)
}

// TestAttach_FirstActiveWins tests the tie-break between qualifying instances.
func TestAttach_FirstActiveWins(t *testing.T) {
	hidden := nativetest.NewInstance("hidden", "23.0.0", nativetest.NewApp())
	hidden.Meta.ActiveWindow = false
	first := nativetest.NewInstance("first", "22.0.0", nativetest.NewApp())
	second := nativetest.NewInstance("second", "24.0.0", nativetest.NewApp())
	conn := sapmodel.NewConnector(&nativetest.Locator{List: []native.Instance{hidden, first, second}}, nil)

	h, err := conn.AttachRunning(context.Background())

	require.NoError(t, err)
	require.NotNil(t, h)
	defer h.Close(context.Background(), false)
	assert.Equal(t, "first", h.Descriptor().ID)
	assert.Equal(t, sapmodel.StateAttached, h.State())
	assert.Equal(t, 1, first.Attached())
	assert.Zero(t, second.Attached())
}

// TestAttach_VersionGate tests the floor boundary: floor-1 is rejected,
// floor and floor+1 are accepted.
func TestAttach_VersionGate(t *testing.T) {
	const floor = 22

	tests := []struct {
		major  int
		accept bool
	}{
		{floor - 1, false},
		{floor, true},
		{floor + 1, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("major %d", tt.major), func(t *testing.T) {
			inst := nativetest.NewInstance("i", fmt.Sprintf("%d.0.0", tt.major), nativetest.NewApp())
			conn := sapmodel.NewConnector(&nativetest.Locator{List: []native.Instance{inst}}, nil)
			ctx := context.Background()

			h, err := conn.Attach(ctx, conn.Discover(ctx), floor)

			if tt.accept {
				require.NoError(t, err)
				require.NotNil(t, h)
				assert.NoError(t, h.Close(ctx, false))
				return
			}
			require.Error(t, err)
			assert.Nil(t, h)
			assert.ErrorIs(t, err, sapmodel.ErrUnsupportedVersion)
			assert.Contains(t, err.Error(), "21.0.0")
			assert.Zero(t, inst.Attached(), "nothing may be attached below the floor")
		})
	}
}

// TestAttach_ConfiguredFloor tests that a non-positive floor selects the
// configured one.
func TestAttach_ConfiguredFloor(t *testing.T) {
	inst := nativetest.NewInstance("i", "23.0.0", nativetest.NewApp())
	conn := sapmodel.NewConnector(&nativetest.Locator{List: []native.Instance{inst}}, nil,
		sapmodel.WithMinVersion(24))

	_, err := conn.AttachRunning(context.Background())

	assert.Equal(t, 24, conn.MinVersion())
	assert.ErrorIs(t, err, sapmodel.ErrUnsupportedVersion)
}

// TestAttach_Failure tests that an attach failure is translated.
func TestAttach_Failure(t *testing.T) {
	inst := nativetest.NewInstance("i", "23.0.0", nativetest.NewApp())
	inst.AttachErr = native.ErrSessionLost
	conn := sapmodel.NewConnector(&nativetest.Locator{List: []native.Instance{inst}}, nil)

	h, err := conn.AttachRunning(context.Background())

	assert.Nil(t, h)
	assert.ErrorIs(t, err, sapmodel.ErrUnavailableSession)
}

// ----------------------------------------------------------------------------
// CreateNew
// ----------------------------------------------------------------------------

func newModelApp() *nativetest.App {
	ok := nativetest.OK(0, nil)
	return nativetest.NewApp().
		Return("InitializeNewModel", ok).
		Return("File.NewBlank", ok).
		Return("File.OpenFile", ok)
}

// TestCreateNew_Blank tests creating a blank model.
func TestCreateNew_Blank(t *testing.T) {
	// Arrange
	app := newModelApp()
	launcher := app.Launcher()
	conn := sapmodel.NewConnector(nil, launcher, sapmodel.WithDefaultUnits(sapmodel.USUnits))

	// Act
	h, err := conn.CreateNew(context.Background(), sapmodel.LaunchOptions{})

	// Assert
	require.NoError(t, err)
	require.NotNil(t, h)
	defer h.Close(context.Background(), false)
	assert.Equal(t, sapmodel.StateAttached, h.State())
	assert.Equal(t, []native.LaunchRequest{{StartUI: false}}, launcher.Requests())

	calls := app.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "InitializeNewModel", calls[0].Op)
	assert.Equal(t, int(sapmodel.ForceKip), calls[0].Args["Force"])
	assert.Equal(t, "File.NewBlank", calls[1].Op)
	assert.Equal(t, sapmodel.USUnits, h.Units().Cached())
}

// TestCreateNew_OpenFile tests creating a session on an existing file.
func TestCreateNew_OpenFile(t *testing.T) {
	app := newModelApp()
	conn := sapmodel.NewConnector(nil, app.Launcher())
	path := `C:\models\frame.sdb`

	h, err := conn.CreateNew(context.Background(), sapmodel.LaunchOptions{ModelPath: &path, StartUI: true})

	require.NoError(t, err)
	defer h.Close(context.Background(), false)
	assert.Equal(t, path, h.Descriptor().ModelPath)
	assert.Equal(t, 1, app.CallCount("File.OpenFile"))
	assert.Zero(t, app.CallCount("File.NewBlank"))
}

// TestCreateNew_LaunchFailure tests that a failed launch is a native call error.
func TestCreateNew_LaunchFailure(t *testing.T) {
	launcher := nativetest.NewApp().Launcher()
	launcher.Err = errors.New("license unavailable")
	conn := sapmodel.NewConnector(nil, launcher)

	h, err := conn.CreateNew(context.Background(), sapmodel.LaunchOptions{})

	assert.Nil(t, h)
	assert.ErrorIs(t, err, sapmodel.ErrNativeCall)
	assert.Contains(t, err.Error(), "license unavailable")
}

// TestCreateNew_LaunchSessionLost tests that every launch failure is a
// native call error, with the transport cause still reachable.
func TestCreateNew_LaunchSessionLost(t *testing.T) {
	launcher := nativetest.NewApp().Launcher()
	launcher.Err = native.ErrSessionLost
	conn := sapmodel.NewConnector(nil, launcher)

	h, err := conn.CreateNew(context.Background(), sapmodel.LaunchOptions{})

	assert.Nil(t, h)
	assert.ErrorIs(t, err, sapmodel.ErrNativeCall)
	assert.NotErrorIs(t, err, sapmodel.ErrUnavailableSession)
	assert.ErrorIs(t, err, native.ErrSessionLost)
}

// TestCreateNew_ReleasesOnFailure tests that no half-attached session
// survives a failure after launch.
func TestCreateNew_ReleasesOnFailure(t *testing.T) {
	app := newModelApp().Fail("File.NewBlank", 1)
	launcher := app.Launcher()
	conn := sapmodel.NewConnector(nil, launcher)

	h, err := conn.CreateNew(context.Background(), sapmodel.LaunchOptions{})

	assert.Nil(t, h)
	assert.ErrorIs(t, err, sapmodel.ErrNativeCall)
	sessions := launcher.Sessions()
	require.Len(t, sessions, 1)
	assert.True(t, sessions[0].Closed())
	assert.Equal(t, []bool{false}, app.Closes())
}

// TestCreateNew_Validation tests a blank model path is rejected before launch.
func TestCreateNew_Validation(t *testing.T) {
	launcher := newModelApp().Launcher()
	conn := sapmodel.NewConnector(nil, launcher)
	blank := "  "

	_, err := conn.CreateNew(context.Background(), sapmodel.LaunchOptions{ModelPath: &blank})

	assert.ErrorIs(t, err, sapmodel.ErrValidation)
	assert.Empty(t, launcher.Requests())
}
