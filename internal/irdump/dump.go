// Package irdump prints scoped SSA programs for debugging and golden tests.
package irdump

import (
	"fmt"
	"io"
	"strings"

	"dslc/internal/arena"
	"dslc/internal/ir"
	"dslc/internal/traverse"
)

// DumpOptions configures program dumping.
type DumpOptions struct {
	// Keys prefixes every definition with its arena key.
	Keys bool
}

// DumpProgram writes a human-readable listing of p. Definitions appear in
// dependency order starting from each return value; definitions nothing
// reaches follow, marked as unreachable.
func DumpProgram[T ir.Meta](w io.Writer, p *ir.Program[T], opts DumpOptions) error {
	if w == nil || p == nil {
		return nil
	}
	var sb strings.Builder
	for i, f := range p.Fundefs {
		if i > 0 {
			sb.WriteByte('\n')
		}
		dumpFunc(&sb, f, opts)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// String is DumpProgram into a string.
func String[T ir.Meta](p *ir.Program[T], opts DumpOptions) string {
	var sb strings.Builder
	_ = DumpProgram(&sb, p, opts)
	return sb.String()
}

type printer[T ir.Meta] struct {
	sb      *strings.Builder
	opts    DumpOptions
	printed map[arena.Key]bool
	dead    bool
}

func (p *printer[T]) line(depth int, format string, args ...any) {
	p.sb.WriteString(strings.Repeat("  ", depth+1))
	fmt.Fprintf(p.sb, format, args...)
	if p.dead {
		p.sb.WriteString("  ; unreachable")
	}
	p.sb.WriteByte('\n')
}

func (p *printer[T]) head(k arena.Key, avis ir.Avis[T]) string {
	if p.opts.Keys {
		return fmt.Sprintf("%s %s: %s", k, avis.Name, avis.Type)
	}
	return fmt.Sprintf("%s: %s", avis.Name, avis.Type)
}

func dumpFunc[T ir.Meta](sb *strings.Builder, f *ir.Fundef[T], opts DumpOptions) {
	p := &printer[T]{sb: sb, opts: opts, printed: make(map[arena.Key]bool)}

	params := make([]string, len(f.Args))
	for i, a := range f.Args {
		params[i] = fmt.Sprintf("%s: %s", a.Name, a.Type)
	}
	fmt.Fprintf(sb, "fn %s(%s) -> %s:\n", f.Name, strings.Join(params, ", "), f.Result)

	v := &traverse.Visitor[T, struct{}]{
		Fundef: func(w *traverse.Walker[T, struct{}], f *ir.Fundef[T]) struct{} {
			w.Scopes.PushScope(f.Scope)
			p.body(w, f.Scope, f.Ret, "return")
			w.Scopes.PopScope()
			return struct{}{}
		},
		Var: func(w *traverse.Walker[T, struct{}], k arena.Key, avis ir.Avis[T], e ir.Expr[T]) struct{} {
			if p.printed[k] {
				return struct{}{}
			}
			p.printed[k] = true
			depth := w.Scopes.Depth(k)
			if t, ok := e.(*ir.Tensor[T]); ok {
				w.Ref(t.Lower)
				w.Ref(t.Upper)
				iv := t.Ids.At(t.IV)
				p.line(depth, "%s = { %s <= %s < %s }", p.head(k, avis), name(w, t.Lower), p.head(t.IV, iv), name(w, t.Upper))
				w.Scopes.PushScope(t.Scope)
				p.body(w, t.Scope, t.Ret, "yield")
				w.Scopes.PopScope()
				return struct{}{}
			}
			w.Default(e)
			p.line(depth, "%s = %s", p.head(k, avis), rhs(w, e))
			return struct{}{}
		},
	}
	v.VisitFundef(f)
}

// body prints the definitions of the innermost scope, then its result.
func (p *printer[T]) body(w *traverse.Walker[T, struct{}], sc ir.Scope[T], ret ir.ArgOrVar[T], verb string) {
	depth := w.Scopes.Len() - 1
	w.Ref(ret)
	wasDead := p.dead
	p.dead = true
	for _, k := range sc.SSA.Keys() {
		w.Ref(ir.Var[T](k))
	}
	p.dead = wasDead
	p.line(depth, "%s %s", verb, name(w, ret))
}

func name[T ir.Meta](w *traverse.Walker[T, struct{}], r ir.ArgOrVar[T]) string {
	return w.Scopes.FindID(r).Name
}

func rhs[T ir.Meta](w *traverse.Walker[T, struct{}], e ir.Expr[T]) string {
	switch e := e.(type) {
	case *ir.Binary[T]:
		return fmt.Sprintf("%s %s %s", name(w, e.L), e.Op, name(w, e.R))
	case *ir.Unary[T]:
		return e.Op.String() + name(w, e.R)
	case *ir.Bool[T]:
		return fmt.Sprint(e.Value)
	case *ir.U32[T]:
		return fmt.Sprint(e.Value)
	}
	ir.Bug("irdump: unexpected expression %T", e)
	return ""
}
