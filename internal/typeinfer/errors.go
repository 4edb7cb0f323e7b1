package typeinfer

import (
	"fmt"

	"dslc/internal/diag"
	"dslc/internal/source"
)

// Error is a type or shape error in one function.
type Error struct {
	Code diag.Code
	Func string
	Span source.Span
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Func, e.Msg)
}

func (e *Error) DiagCode() diag.Code   { return e.Code }
func (e *Error) DiagSpan() source.Span { return e.Span }
func (e *Error) FuncName() string      { return e.Func }
