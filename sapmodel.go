// Package sapmodel provides a typed Go API over the automation surface of a
// running structural-analysis application.
//
// The application answers every call with an integer return code and a set
// of parallel output arrays. This package turns those into typed records,
// one error taxonomy, bulk operations that tolerate per-item failures, and
// a session lifecycle that always releases the application.
//
// # Installation
//
//	go get github.com/tomblancdev/sapmodel-go
//
// # Quick Start
//
// Attach to a running instance and read joint reactions:
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//	    "log"
//
//	    "github.com/tomblancdev/sapmodel-go"
//	    "github.com/tomblancdev/sapmodel-go/native"
//	)
//
//	func main() {
//	    ctx := context.Background()
//
//	    cfg, err := sapmodel.LoadConfig("sapmodel.yaml")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    conn, err := sapmodel.NewConnectorFromConfig(cfg)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    h, err := conn.AttachRunning(ctx)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if h == nil {
//	        log.Fatal("no running instance")
//	    }
//	    defer h.Close(ctx, false)
//
//	    out, err := h.Results().JointReactions(ctx, native.GroupAll, native.ItemGroup)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    rows, err := out.Unwrap()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Printf("%d reaction rows in %s\n", len(rows), h.Units().Get(ctx))
//	}
//
// # Connector Configuration
//
// The connector can be configured using functional options:
//
//	conn := sapmodel.NewConnector(locator, launcher,
//	    sapmodel.WithMinVersion(22),
//	    sapmodel.WithCallRate(50, 5),
//	    sapmodel.WithObserver(sapmodel.NewSlogObserver(logger)),
//	)
//
// or from a YAML file with [LoadConfig].
//
// # Error Handling
//
// Every error returned by this package is an [*Error] of one [Kind]:
//
//	pts, err := h.Points().Names(ctx)
//	if err != nil {
//	    switch {
//	    case errors.Is(err, sapmodel.ErrUnavailableSession):
//	        // reattach
//	    case errors.Is(err, sapmodel.ErrNativeCall):
//	        code, _ := sapmodel.ReturnCode(err)
//	        log.Printf("rejected with code %d", code)
//	    }
//	}
//
// Bulk operations return a [BulkOutcome]. A rejected item never fails the
// batch; only an unavailable session does.
//
// # Architecture
//
// The SDK is built in two layers:
//
//   - Typed Layer: managers, records and errors (this package)
//   - Native Layer: the procedural call surface
//     (github.com/tomblancdev/sapmodel-go/native), reached through a
//     transport such as the HTTP bridge
//     (github.com/tomblancdev/sapmodel-go/bridge)
//
// Users should only interact with the typed layer.
//
// # Thread Safety
//
// A [ModelHandle] is safe for concurrent use, but the application is single
// threaded: calls on one handle are issued one at a time. Separate handles
// share no state and may be driven in parallel.
//
// # Version Compatibility
//
// This SDK is tested against application versions in [NativeVersionRange].
// Use [CheckCompatibility] with [ModelHandle.NativeVersion] to check an
// attached instance at runtime.
package sapmodel
