// Package cgen lowers typed programs to C.
//
// Each function becomes one C function. Definitions are hoisted into
// statement buffers, one per open scope, before the expression that uses
// them is finished, so every value is declared before its first use.
// Literals are inlined, the returned value of a scope is inlined into its
// return or element store, and comprehensions lower to a heap allocation
// followed by a counting loop.
package cgen

import (
	"context"
	"strings"

	"go.uber.org/multierr"

	"dslc/internal/ir"
	"dslc/internal/trace"
)

// Options configures C emission.
type Options struct {
	// Prefix is prepended to function names; DefaultPrefix when empty.
	Prefix string
}

// Emitter accumulates the C translation unit.
type Emitter struct {
	prog *ir.TypedProgram
	opts Options
	buf  strings.Builder
}

// EmitProgram renders p as one C translation unit. Functions that cannot be
// lowered are left out and their errors combined into the returned error.
func EmitProgram(ctx context.Context, p *ir.TypedProgram, opts Options) (string, error) {
	span, ctx := trace.Start(ctx, trace.ScopePass, "cgen")
	defer span.End("")

	e := &Emitter{prog: p, opts: opts}
	e.emitPreamble()

	var errs error
	for _, f := range p.Fundefs {
		fspan, _ := trace.Start(ctx, trace.ScopeFunc, "fn:"+f.Name)
		text, err := e.emitFunction(f)
		if err != nil {
			fspan.End("error")
			errs = multierr.Append(errs, err)
			continue
		}
		fspan.End("")
		e.buf.WriteByte('\n')
		e.buf.WriteString(text)
	}
	return e.buf.String(), errs
}

func (e *Emitter) emitPreamble() {
	e.buf.WriteString("/* Code generated by dslc. DO NOT EDIT. */\n\n")
	e.buf.WriteString("#include <stdbool.h>\n")
	e.buf.WriteString("#include <stdint.h>\n")
	if e.prog.HasTensor() {
		e.buf.WriteString("#include <stdlib.h>\n")
	}
}
