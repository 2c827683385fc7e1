package sapmodel_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tomblancdev/sapmodel-go"
	"github.com/tomblancdev/sapmodel-go/native"
	"github.com/tomblancdev/sapmodel-go/nativetest"
)

// attachApp attaches a handle to a single running instance backed by app.
// The handle is closed when the test ends.
func attachApp(t *testing.T, app *nativetest.App, opts ...sapmodel.Option) *sapmodel.ModelHandle {
	t.Helper()

	inst := nativetest.NewInstance("inst-1", "23.1.0", app)
	loc := &nativetest.Locator{List: []native.Instance{inst}}
	conn := sapmodel.NewConnector(loc, nil, opts...)

	h, err := conn.AttachRunning(context.Background())
	require.NoError(t, err)
	require.NotNil(t, h)
	t.Cleanup(func() {
		_ = h.Close(context.Background(), false)
	})
	return h
}

// names returns a successful result with one string column named Name.
func names(v ...string) *native.Result {
	return nativetest.OK(len(v), map[string]native.Column{"Name": native.Strings(v...)})
}
