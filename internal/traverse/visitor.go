package traverse

import (
	"dslc/internal/arena"
	"dslc/internal/ir"
	"dslc/internal/scope"
)

// Visitor folds values of R over a program. Every hook receives the Walker
// so it can reach the scope stack or fall back to the default recursion
// through Walker.Default.
type Visitor[T ir.Meta, R any] struct {
	Zero    R
	Combine func(a, b R) R
	// Once visits each definition at most once; later references to an
	// already visited Var yield Zero.
	Once bool

	Fundef      func(w *Walker[T, R], f *ir.Fundef[T]) R
	Arg         func(w *Walker[T, R], pos int, avis ir.Avis[T]) R
	IndexVector func(w *Walker[T, R], key arena.Key, avis ir.Avis[T]) R
	// Var wraps the visit of a definition; the default visits e.
	Var    func(w *Walker[T, R], key arena.Key, avis ir.Avis[T], e ir.Expr[T]) R
	Tensor func(w *Walker[T, R], e *ir.Tensor[T]) R
	Binary func(w *Walker[T, R], e *ir.Binary[T]) R
	Unary  func(w *Walker[T, R], e *ir.Unary[T]) R
	Bool   func(w *Walker[T, R], e *ir.Bool[T]) R
	U32    func(w *Walker[T, R], e *ir.U32[T]) R
}

// Walker is the state of one visit.
type Walker[T ir.Meta, R any] struct {
	v       *Visitor[T, R]
	Scopes  *scope.Stack[T]
	visited map[arena.Key]bool
}

// VisitProgram visits every function and combines the results in order.
func (v *Visitor[T, R]) VisitProgram(p *ir.Program[T]) R {
	acc := v.Zero
	for _, f := range p.Fundefs {
		acc = v.combine(acc, v.VisitFundef(f))
	}
	return acc
}

// VisitFundef visits one function with a fresh scope stack.
func (v *Visitor[T, R]) VisitFundef(f *ir.Fundef[T]) R {
	w := &Walker[T, R]{v: v, Scopes: scope.New(f.Args)}
	if v.Once {
		w.visited = make(map[arena.Key]bool)
	}
	if v.Fundef != nil {
		return v.Fundef(w, f)
	}
	return w.DefaultFundef(f)
}

func (v *Visitor[T, R]) combine(a, b R) R {
	if v.Combine == nil {
		return b
	}
	return v.Combine(a, b)
}

// Combine folds results with the visitor's Combine.
func (w *Walker[T, R]) Combine(rs ...R) R {
	acc := w.v.Zero
	for _, r := range rs {
		acc = w.v.combine(acc, r)
	}
	return acc
}

// DefaultFundef enters the function scope and visits the returned value.
func (w *Walker[T, R]) DefaultFundef(f *ir.Fundef[T]) R {
	w.Scopes.SetArgs(f.Args)
	w.Scopes.PushScope(f.Scope)
	r := w.Ref(f.Ret)
	w.Scopes.PopScope()
	return r
}

// Ref visits whatever r refers to.
func (w *Walker[T, R]) Ref(r ir.ArgOrVar[T]) R {
	v := w.v
	switch r.Kind {
	case ir.RefArg:
		if v.Arg != nil {
			return v.Arg(w, r.Pos, w.Scopes.FindID(r))
		}
		return v.Zero
	case ir.RefIndexVector:
		if v.IndexVector != nil {
			return v.IndexVector(w, r.Key, w.Scopes.FindKey(r.Key))
		}
		return v.Zero
	}

	if w.visited != nil {
		if w.visited[r.Key] {
			return v.Zero
		}
		w.visited[r.Key] = true
	}
	e, ok := w.Scopes.FindSSA(r.Key)
	if !ok {
		ir.Bug("traverse: var %s has no definition", r.Key)
	}
	if v.Var != nil {
		return v.Var(w, r.Key, w.Scopes.FindKey(r.Key), e)
	}
	return w.Expr(e)
}

// Expr dispatches e to its hook or to Default.
func (w *Walker[T, R]) Expr(e ir.Expr[T]) R {
	v := w.v
	switch e := e.(type) {
	case *ir.Tensor[T]:
		if v.Tensor != nil {
			return v.Tensor(w, e)
		}
	case *ir.Binary[T]:
		if v.Binary != nil {
			return v.Binary(w, e)
		}
	case *ir.Unary[T]:
		if v.Unary != nil {
			return v.Unary(w, e)
		}
	case *ir.Bool[T]:
		if v.Bool != nil {
			return v.Bool(w, e)
		}
	case *ir.U32[T]:
		if v.U32 != nil {
			return v.U32(w, e)
		}
	}
	return w.Default(e)
}

// Default recurses into the operands of e.
func (w *Walker[T, R]) Default(e ir.Expr[T]) R {
	switch e := e.(type) {
	case *ir.Tensor[T]:
		bounds := w.Combine(w.Ref(e.Lower), w.Ref(e.Upper))
		w.Scopes.PushScope(e.Scope)
		body := w.Ref(e.Ret)
		w.Scopes.PopScope()
		return w.Combine(bounds, body)
	case *ir.Binary[T]:
		return w.Combine(w.Ref(e.L), w.Ref(e.R))
	case *ir.Unary[T]:
		return w.Ref(e.R)
	case *ir.Bool[T], *ir.U32[T]:
		return w.v.Zero
	}
	ir.Bug("traverse: unknown expression %T", e)
	return w.v.Zero
}
