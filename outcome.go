package sapmodel

import "fmt"

// Outcome is the decoded result of one native call: either the records it
// produced or the return code and message it failed with.
//
// Build outcomes with [Success] or [Failure]; the zero value is a failure
// with an empty message.
type Outcome[T any] struct {
	ok      bool
	records []T
	code    int
	message string
	cc      CallContext
}

// Success returns a successful outcome. A nil records slice is normalized to
// an empty one.
func Success[T any](records []T) Outcome[T] {
	if records == nil {
		records = []T{}
	}
	return Outcome[T]{ok: true, records: records}
}

// Failure returns a failed outcome for a nonzero native return code.
func Failure[T any](code int, message string) Outcome[T] {
	return Outcome[T]{code: code, message: message}
}

// OK reports whether the native call succeeded.
func (o Outcome[T]) OK() bool {
	return o.ok
}

// Records returns the decoded records. It is nil for a failed outcome.
func (o Outcome[T]) Records() []T {
	if !o.ok {
		return nil
	}
	return o.records
}

// ReturnCode returns the native return code (zero on success).
func (o Outcome[T]) ReturnCode() int {
	return o.code
}

// Message returns the failure message. It is empty on success.
func (o Outcome[T]) Message() string {
	return o.message
}

// Err returns a [KindNativeCall] error for a failed outcome and nil otherwise.
func (o Outcome[T]) Err() error {
	if o.ok {
		return nil
	}
	return nativeCallError(o.cc, o.code, fmt.Sprintf("return code %d", o.code))
}

// Unwrap returns the records or the failure as an error.
func (o Outcome[T]) Unwrap() ([]T, error) {
	if !o.ok {
		return nil, o.Err()
	}
	return o.records, nil
}

// First returns the first record. A successful outcome with no records is
// reported as a [KindUnexpected] error.
func (o Outcome[T]) First() (T, error) {
	var zero T
	records, err := o.Unwrap()
	if err != nil {
		return zero, err
	}
	if len(records) == 0 {
		return zero, newError(KindUnexpected, o.cc, "native call returned no records", nil)
	}
	return records[0], nil
}

func (o Outcome[T]) withContext(cc CallContext) Outcome[T] {
	o.cc = cc
	return o
}
