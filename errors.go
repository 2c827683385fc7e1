package sapmodel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tomblancdev/sapmodel-go/native"
)

// Kind classifies an [Error].
type Kind string

// Error kinds. Every error returned by this package carries one of these.
const (
	// KindValidation marks malformed caller input. It is raised locally and
	// never reaches the native application.
	KindValidation Kind = "VALIDATION"

	// KindUnavailableSession marks a handle that is not attached or a session
	// the application dropped.
	KindUnavailableSession Kind = "UNAVAILABLE_SESSION"

	// KindUnsupportedVersion marks an application below the version floor.
	KindUnsupportedVersion Kind = "UNSUPPORTED_VERSION"

	// KindNativeCall marks a nonzero native return code.
	KindNativeCall Kind = "NATIVE_CALL"

	// KindUnexpected marks any other fault, including native contract
	// violations and transport failures.
	KindUnexpected Kind = "UNEXPECTED"
)

// Error represents a failure of a model operation.
type Error struct {
	Kind       Kind
	Op         string
	Targets    []string
	ItemType   native.ItemType
	ReturnCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("sapmodel: ")
	b.WriteString(string(e.Kind))
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	if len(e.Targets) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(e.Targets, ", "))
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind, so the sentinels
// below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Message == ""
}

// Sentinel errors.
var (
	ErrValidation         = &Error{Kind: KindValidation}
	ErrUnavailableSession = &Error{Kind: KindUnavailableSession}
	ErrUnsupportedVersion = &Error{Kind: KindUnsupportedVersion}
	ErrNativeCall         = &Error{Kind: KindNativeCall}
	ErrUnexpected         = &Error{Kind: KindUnexpected}
)

func newError(kind Kind, cc CallContext, message string, cause error) *Error {
	return &Error{
		Kind:     kind,
		Op:       cc.Operation,
		Targets:  cc.Targets,
		ItemType: cc.ItemType,
		Message:  message,
		Cause:    cause,
	}
}

func validationError(cc CallContext, format string, args ...any) *Error {
	return newError(KindValidation, cc, fmt.Sprintf(format, args...), nil)
}

func nativeCallError(cc CallContext, code int, message string) *Error {
	e := newError(KindNativeCall, cc, message, nil)
	e.ReturnCode = code
	return e
}

// ReturnCode extracts the native return code carried by err, if any.
func ReturnCode(err error) (int, bool) {
	var e *Error
	if !errors.As(err, &e) || e.Kind != KindNativeCall {
		return 0, false
	}
	return e.ReturnCode, true
}

// KindOf returns the kind of err, or KindUnexpected for foreign errors.
// It returns the empty kind for a nil error.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}
