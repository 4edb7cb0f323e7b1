package lexer

import (
	"dslc/internal/diag"
	"dslc/internal/source"
)

type Options struct {
	// Reporter may be nil, in which case errors are dropped and lexing
	// continues.
	Reporter diag.Reporter
}

func (lx *Lexer) report(code diag.Code, sp source.Span, msg string) {
	if lx.opts.Reporter != nil {
		lx.opts.Reporter.Report(diag.NewError(code, sp, msg))
	}
}
