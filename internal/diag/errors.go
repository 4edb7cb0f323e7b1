package diag

import (
	"errors"

	"go.uber.org/multierr"

	"dslc/internal/source"
)

// Coded is implemented by pipeline errors that map onto a diagnostic.
type Coded interface {
	error
	DiagCode() Code
	DiagSpan() source.Span
}

// Functional is implemented by errors scoped to a single DSL function.
type Functional interface {
	FuncName() string
}

// ToDiagnostics flattens err, multierr aggregates included, into one
// diagnostic per leaf. Leaves that are not Coded become internal errors at
// fallback.
func ToDiagnostics(err error, fallback source.Span) []Diagnostic {
	var out []Diagnostic
	for _, e := range multierr.Errors(err) {
		d := NewError(InternalInvariant, fallback, e.Error())
		var coded Coded
		if errors.As(e, &coded) {
			d.Code, d.Primary = coded.DiagCode(), coded.DiagSpan()
		}
		var fn Functional
		if errors.As(e, &fn) {
			d.Func = fn.FuncName()
		}
		out = append(out, d)
	}
	return out
}
