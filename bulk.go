package sapmodel

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/multierr"
)

// BulkOutcome is the ledger of a multi-item operation.
type BulkOutcome[T any] struct {
	// Succeeded maps each identifier that completed to its result.
	Succeeded map[string]T

	// Failed maps each identifier that did not complete to a diagnostic message.
	Failed map[string]string

	// TotalRequested is the number of identifiers the caller asked for.
	TotalRequested int
}

func newBulkOutcome[T any](n int) *BulkOutcome[T] {
	return &BulkOutcome[T]{
		Succeeded:      make(map[string]T, n),
		Failed:         make(map[string]string),
		TotalRequested: n,
	}
}

// OK reports whether every requested identifier succeeded.
func (b *BulkOutcome[T]) OK() bool {
	return len(b.Failed) == 0 && len(b.Succeeded) == b.TotalRequested
}

// FailedIDs returns the failed identifiers in sorted order.
func (b *BulkOutcome[T]) FailedIDs() []string {
	ids := make([]string, 0, len(b.Failed))
	for id := range b.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Err combines the per-item failures into one error, or returns nil when
// nothing failed. Callers decide whether partial failure matters to them.
func (b *BulkOutcome[T]) Err() error {
	var err error
	for _, id := range b.FailedIDs() {
		err = multierr.Append(err, fmt.Errorf("%s: %s", id, b.Failed[id]))
	}
	return err
}

// BulkCall describes how to run one logical operation over many identifiers.
type BulkCall[T any] struct {
	// Operation names the logical operation for diagnostics.
	Operation string

	// All, when set, performs the whole batch in one native call and returns
	// the results keyed by identifier.
	All func(ctx context.Context, ids []string) (map[string]T, error)

	// One performs the operation for a single identifier.
	One func(ctx context.Context, id string) (T, error)
}

// RunBulk runs call over ids.
//
// A true bulk call is preferred when call.All is set; if it fails with a
// native return code the coordinator falls back to per-item calls. Per-item
// native failures are recorded in the outcome and do not stop the batch. An
// unavailable session aborts immediately. Cancellation is checked between
// items only; on cancellation the partial outcome is returned together with
// an error wrapping ctx.Err().
func RunBulk[T any](ctx context.Context, ids []string, call BulkCall[T]) (*BulkOutcome[T], error) {
	cc := callContext(call.Operation, ids...)
	if err := validateIdentifiers(cc, "ids", ids); err != nil {
		return nil, err
	}
	if call.One == nil && call.All == nil {
		return nil, validationError(cc, "no single-item or bulk operation supplied")
	}

	out := newBulkOutcome[T](len(ids))

	if call.All != nil {
		if err := ctx.Err(); err != nil {
			return out, newError(KindUnexpected, cc, "bulk operation canceled", err)
		}
		results, err := call.All(ctx, ids)
		switch {
		case err == nil:
			for _, id := range ids {
				if v, ok := results[id]; ok {
					out.Succeeded[id] = v
				} else {
					out.Failed[id] = "not returned by bulk call"
				}
			}
			return out, nil
		case errors.Is(err, ErrNativeCall) && call.One != nil:
			// fall back to per-item calls
		default:
			return nil, translate(cc, err)
		}
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return out, newError(KindUnexpected, cc, "bulk operation canceled", err)
		}
		v, err := call.One(ctx, id)
		if err == nil {
			out.Succeeded[id] = v
			continue
		}
		if errors.Is(err, ErrUnavailableSession) || errors.Is(err, ErrValidation) {
			return nil, err
		}
		out.Failed[id] = err.Error()
	}
	return out, nil
}
