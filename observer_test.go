package sapmodel_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomblancdev/sapmodel-go"
	"github.com/tomblancdev/sapmodel-go/native"
	"github.com/tomblancdev/sapmodel-go/nativetest"
)

// TestSlogObserver tests levels and attributes of logged calls.
func TestSlogObserver(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	obs := sapmodel.NewSlogObserver(logger)

	obs.ObserveCall(sapmodel.CallEvent{HandleID: "h1", Operation: "PointObj.GetNameList", Duration: time.Millisecond})
	obs.ObserveCall(sapmodel.CallEvent{HandleID: "h1", Operation: "FrameObj.SetSection", Targets: []string{"F1"}, ReturnCode: 1})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var ok, failed map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &ok))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &failed))

	assert.Equal(t, "DEBUG", ok["level"])
	assert.Equal(t, "PointObj.GetNameList", ok["op"])
	assert.NotContains(t, ok, "return_code")

	assert.Equal(t, "WARN", failed["level"])
	assert.Equal(t, float64(1), failed["return_code"])
	assert.Equal(t, []any{"F1"}, failed["targets"])
}

// TestMultiObserver tests fan-out and nil filtering.
func TestMultiObserver(t *testing.T) {
	var a, b int
	obs := sapmodel.MultiObserver(
		sapmodel.ObserverFunc(func(sapmodel.CallEvent) { a++ }),
		nil,
		sapmodel.ObserverFunc(func(sapmodel.CallEvent) { b++ }),
	)

	obs.ObserveCall(sapmodel.CallEvent{})
	obs.ObserveCall(sapmodel.CallEvent{})

	assert.Equal(t, 2, a)
	assert.Equal(t, 2, b)
}

// TestMetricsObserver tests call counters by outcome through a handle.
func TestMetricsObserver(t *testing.T) {
	// Arrange
	reg := prometheus.NewRegistry()
	metrics, err := sapmodel.NewMetricsObserver(reg, "sapmodel")
	require.NoError(t, err)

	app := nativetest.NewApp().
		Return("PointObj.GetNameList", names("1")).
		Fail("FrameObj.GetNameList", 1).
		Error("LoadCases.GetNameList", native.ErrSessionLost)
	h := attachApp(t, app, sapmodel.WithObserver(metrics))
	ctx := context.Background()

	// Act
	_, _ = h.Points().Names(ctx)
	_, _ = h.Points().Names(ctx)
	_, _ = h.Frames().Names(ctx)
	_, _ = h.Loads().Cases(ctx)

	// Assert
	assert.Equal(t, 2.0, callCount(t, reg, "PointObj.GetNameList", "ok"))
	assert.Equal(t, 1.0, callCount(t, reg, "FrameObj.GetNameList", "return_code"))
	assert.Equal(t, 1.0, callCount(t, reg, "LoadCases.GetNameList", "unavailable_session"))
	assert.Equal(t, 3, testutil.CollectAndCount(reg, "sapmodel_native_call_duration_seconds"))
}

// TestMetricsObserver_DuplicateRegistration tests that registering twice
// on one registry fails.
func TestMetricsObserver_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := sapmodel.NewMetricsObserver(reg, "")
	require.NoError(t, err)

	_, err = sapmodel.NewMetricsObserver(reg, "")
	assert.Error(t, err)
}

// callCount returns the calls_total value for one operation and outcome.
func callCount(t *testing.T, reg *prometheus.Registry, op, outcome string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "sapmodel_native_calls_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["operation"] == op && labels["outcome"] == outcome {
				return m.GetCounter().GetValue()
			}
		}
	}
	t.Fatalf("no calls_total series for %s/%s", op, outcome)
	return 0
}
