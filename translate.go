package sapmodel

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/tomblancdev/sapmodel-go/native"
)

// CallContext identifies one logical operation for diagnostics. It is
// attached to every error the operation returns.
type CallContext struct {
	Operation string
	Targets   []string
	ItemType  native.ItemType
}

func callContext(op string, targets ...string) CallContext {
	return CallContext{Operation: op, Targets: targets}
}

func (cc CallContext) withItemType(t native.ItemType) CallContext {
	cc.ItemType = t
	return cc
}

func (cc CallContext) String() string {
	if len(cc.Targets) == 0 {
		return cc.Operation
	}
	return fmt.Sprintf("%s [%s]", cc.Operation, strings.Join(cc.Targets, ", "))
}

// translate maps any error raised while talking to the native layer onto the
// package taxonomy.
func translate(cc CallContext, err error) error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		if e.Op == "" {
			clone := *e
			clone.Op = cc.Operation
			clone.Targets = cc.Targets
			clone.ItemType = cc.ItemType
			return &clone
		}
		return err
	}

	switch {
	case errors.Is(err, native.ErrSessionClosed), errors.Is(err, native.ErrSessionLost):
		return newError(KindUnavailableSession, cc, "native session unavailable", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return newError(KindUnexpected, cc, "operation interrupted", err)
	default:
		return newError(KindUnexpected, cc, "native call failed", err)
	}
}

// guardedCall issues req on s, converting panics raised by the session into
// errors.
func guardedCall(ctx context.Context, s native.Session, req native.Request) (res *native.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("panic in native call %s: %v\n%s", req.Op, r, debug.Stack())
		}
	}()
	res, err = s.Call(ctx, req)
	if err == nil && res == nil {
		err = fmt.Errorf("native call %s returned no result", req.Op)
	}
	return res, err
}
