// Package undossa turns typed programs back into surface syntax.
//
// Values are rebuilt as nested expressions starting from each return
// value. A function-level value that is used more than once, or used inside
// a comprehension, becomes an assignment to a fresh name so it is computed
// once and cannot be captured by an index vector of the same name. Values
// nothing reaches are dropped.
package undossa

import (
	"strconv"

	"go.uber.org/multierr"

	"dslc/internal/arena"
	"dslc/internal/ast"
	"dslc/internal/ir"
	"dslc/internal/traverse"
)

// Program rebuilds every function of p. Functions whose IR is broken are
// left out and reported in the returned error.
func Program(p *ir.TypedProgram) (*ast.Program, error) {
	out := &ast.Program{}
	var errs error
	for _, f := range p.Fundefs {
		af, err := Fundef(f)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		out.Fundefs = append(out.Fundefs, af)
	}
	return out, errs
}

// Fundef rebuilds one function.
func Fundef(f *ir.Fundef[ir.Type]) (af *ast.Fundef, err error) {
	defer ir.Recover(&err, f.Name)

	u := &undoer{
		f:     f,
		uses:  make(map[arena.Key]int),
		deep:  make(map[arena.Key]bool),
		named: make(map[arena.Key]string),
		taken: make(map[string]bool),
	}
	for _, a := range f.Args {
		u.taken[a.Name] = true
	}
	u.count()

	af = &ast.Fundef{
		Name:     f.Name,
		Args:     make([]ast.Param, len(f.Args)),
		RetType:  surfaceType(f.Result),
		Span:     f.Span,
		NameSpan: f.Span,
	}
	for i, a := range f.Args {
		af.Args[i] = ast.Param{Type: surfaceType(a.Type), Name: a.Name}
	}
	af.Return = u.build()
	af.Body = u.stmts
	return af, nil
}

func surfaceType(t ir.Type) ast.Type {
	base := ast.BaseU32
	if t.Base == ir.BaseBool {
		base = ast.BaseBool
	}
	return ast.Type{Base: base, Rank: t.Shape.Rank}
}

type undoer struct {
	f *ir.Fundef[ir.Type]
	// uses counts the reachable references to each definition; deep marks
	// definitions referenced from a scope nested below their own.
	uses  map[arena.Key]int
	deep  map[arena.Key]bool
	named map[arena.Key]string
	taken map[string]bool
	next  int
	stmts []ast.Stmt
}

func (u *undoer) count() {
	v := &traverse.Visitor[ir.Type, struct{}]{
		IndexVector: func(_ *traverse.Walker[ir.Type, struct{}], _ arena.Key, avis ir.Avis[ir.Type]) struct{} {
			u.taken[avis.Name] = true
			return struct{}{}
		},
		Var: func(w *traverse.Walker[ir.Type, struct{}], k arena.Key, _ ir.Avis[ir.Type], e ir.Expr[ir.Type]) struct{} {
			u.uses[k]++
			if w.Scopes.Len()-1 > w.Scopes.Depth(k) {
				u.deep[k] = true
			}
			if u.uses[k] > 1 {
				return struct{}{}
			}
			if t, ok := e.(*ir.Tensor[ir.Type]); ok {
				u.taken[t.Ids.At(t.IV).Name] = true
			}
			return w.Expr(e)
		},
	}
	v.VisitFundef(u.f)
}

func (u *undoer) fresh() string {
	for {
		name := "t" + strconv.Itoa(u.next)
		u.next++
		if !u.taken[name] {
			u.taken[name] = true
			return name
		}
	}
}

type walker = traverse.Walker[ir.Type, ast.Expr]

func (u *undoer) build() ast.Expr {
	v := &traverse.Visitor[ir.Type, ast.Expr]{
		Arg: func(_ *walker, _ int, avis ir.Avis[ir.Type]) ast.Expr {
			return &ast.Identifier{Name: avis.Name}
		},
		IndexVector: func(_ *walker, _ arena.Key, avis ir.Avis[ir.Type]) ast.Expr {
			return &ast.Identifier{Name: avis.Name}
		},
		Var: func(w *walker, k arena.Key, _ ir.Avis[ir.Type], e ir.Expr[ir.Type]) ast.Expr {
			if name, ok := u.named[k]; ok {
				return &ast.Identifier{Name: name, Span: e.Pos()}
			}
			x := w.Expr(e)
			if ir.IsLiteral(e) || w.Scopes.Depth(k) != 0 || (u.uses[k] < 2 && !u.deep[k]) {
				return x
			}
			name := u.fresh()
			u.named[k] = name
			u.stmts = append(u.stmts, &ast.Assign{Name: name, Expr: x, Span: e.Pos()})
			return &ast.Identifier{Name: name, Span: e.Pos()}
		},
		Tensor: func(w *walker, t *ir.Tensor[ir.Type]) ast.Expr {
			lower, upper := w.Ref(t.Lower), w.Ref(t.Upper)
			w.Scopes.PushScope(t.Scope)
			body := w.Ref(t.Ret)
			w.Scopes.PopScope()
			return &ast.Tensor{
				Body:  body,
				IV:    t.Ids.At(t.IV).Name,
				Lower: lower,
				Upper: upper,
				Span:  t.Span,
			}
		},
		Binary: func(w *walker, e *ir.Binary[ir.Type]) ast.Expr {
			l := w.Ref(e.L)
			r := w.Ref(e.R)
			return &ast.Binary{L: l, R: r, Op: binOps[e.Op], Span: e.Span}
		},
		Unary: func(w *walker, e *ir.Unary[ir.Type]) ast.Expr {
			return &ast.Unary{R: w.Ref(e.R), Op: unOps[e.Op], Span: e.Span}
		},
		Bool: func(_ *walker, e *ir.Bool[ir.Type]) ast.Expr {
			return &ast.Bool{Value: e.Value, Span: e.Span}
		},
		U32: func(_ *walker, e *ir.U32[ir.Type]) ast.Expr {
			return &ast.U32{Value: e.Value, Span: e.Span}
		},
	}
	return v.VisitFundef(u.f)
}

var binOps = map[ir.BinOp]ast.BinOp{
	ir.Add: ast.Add, ir.Sub: ast.Sub, ir.Mul: ast.Mul, ir.Div: ast.Div,
	ir.Eq: ast.Eq, ir.Ne: ast.Ne, ir.Lt: ast.Lt, ir.Le: ast.Le, ir.Gt: ast.Gt, ir.Ge: ast.Ge,
}

var unOps = map[ir.UnOp]ast.UnOp{
	ir.Neg: ast.Neg,
	ir.Not: ast.Not,
}
