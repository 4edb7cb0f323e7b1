package cgen

import (
	"fmt"

	"dslc/internal/diag"
	"dslc/internal/source"
)

// Error reports a construct the C backend cannot lower.
type Error struct {
	Func string
	Span source.Span
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Func, e.Msg)
}

func (e *Error) DiagCode() diag.Code   { return diag.GenUnsupported }
func (e *Error) DiagSpan() source.Span { return e.Span }
func (e *Error) FuncName() string      { return e.Func }
