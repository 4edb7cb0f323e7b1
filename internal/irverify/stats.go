package irverify

import (
	"dslc/internal/arena"
	"dslc/internal/ir"
	"dslc/internal/traverse"
)

// Stats summarises the shape of a program.
type Stats struct {
	Funcs int
	// Scopes counts function scopes and comprehension scopes.
	Scopes    int
	Defs      int
	Reachable int
	Literals  int
	Tensors   int
	MaxDepth  int
}

// Collect computes Stats for p.
func Collect[T ir.Meta](p *ir.Program[T]) Stats {
	var st Stats
	for _, f := range p.Fundefs {
		st.Funcs++
		countScope(&st, f.Scope, 0)
	}
	reach := &traverse.Visitor[T, int]{
		Once:    true,
		Combine: func(a, b int) int { return a + b },
		Var: func(w *traverse.Walker[T, int], _ arena.Key, _ ir.Avis[T], e ir.Expr[T]) int {
			return 1 + w.Expr(e)
		},
	}
	st.Reachable = reach.VisitProgram(p)
	return st
}

func countScope[T ir.Meta](st *Stats, sc ir.Scope[T], d int) {
	st.Scopes++
	st.MaxDepth = max(st.MaxDepth, d)
	for _, e := range sc.SSA.All() {
		st.Defs++
		switch e := e.(type) {
		case *ir.Tensor[T]:
			st.Tensors++
			countScope(st, e.Scope, d+1)
		case *ir.U32[T], *ir.Bool[T]:
			st.Literals++
		}
	}
}
