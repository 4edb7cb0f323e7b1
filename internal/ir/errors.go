package ir

import (
	"fmt"

	"github.com/pkg/errors"

	"dslc/internal/diag"
	"dslc/internal/source"
)

// InternalError reports a broken IR invariant: a compiler bug, never a user
// mistake.
type InternalError struct {
	Func  string
	Msg   string
	cause error
}

func (e *InternalError) Error() string {
	if e.Func != "" {
		return fmt.Sprintf("internal compiler error in %s: %s", e.Func, e.Msg)
	}
	return "internal compiler error: " + e.Msg
}

func (e *InternalError) Unwrap() error { return e.cause }

func (e *InternalError) DiagCode() diag.Code   { return diag.InternalInvariant }
func (e *InternalError) DiagSpan() source.Span { return source.Span{} }
func (e *InternalError) FuncName() string      { return e.Func }

// Bug panics with an InternalError carrying a stack trace.
func Bug(format string, args ...any) {
	panic(errors.WithStack(&InternalError{Msg: fmt.Sprintf(format, args...)}))
}

// Recover turns a panic raised by Bug (or any other panic) inside the work
// for function fn into an *InternalError stored in *errp. It must be
// deferred directly.
func Recover(errp *error, fn string) {
	r := recover()
	if r == nil {
		return
	}
	*errp = asInternal(r, fn)
}

func asInternal(r any, fn string) error {
	err, ok := r.(error)
	if !ok {
		err = errors.WithStack(fmt.Errorf("%v", r))
	}
	var ie *InternalError
	if errors.As(err, &ie) {
		if ie.Func == "" {
			ie.Func = fn
		}
		return err
	}
	return &InternalError{Func: fn, Msg: err.Error(), cause: err}
}
