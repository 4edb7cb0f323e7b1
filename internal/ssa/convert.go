// Package ssa flattens parse-tree functions into the scoped SSA form of
// package ir.
//
// Every evaluated non-identifier expression node gets a fresh Avis and one
// SSA definition in the scope where it is evaluated. Identifiers resolve
// through a name map stack kept parallel to the scope stack, so an
// assignment only rebinds a surface name and never creates a definition of
// its own. Comprehension bounds are evaluated in the enclosing scope; the
// index vector and the body live in a fresh nested scope.
package ssa

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"dslc/internal/arena"
	"dslc/internal/ast"
	"dslc/internal/diag"
	"dslc/internal/ir"
	"dslc/internal/scope"
	"dslc/internal/source"
	"dslc/internal/trace"
)

type (
	meta = ir.MaybeType
	ref  = ir.ArgOrVar[meta]
)

// ConvertProgram flattens every function of p. A function that fails is
// left out of the result and its error is combined into the returned error,
// so the caller still gets every function that converted.
func ConvertProgram(ctx context.Context, p *ast.Program) (*ir.UntypedProgram, error) {
	span, ctx := trace.Start(ctx, trace.ScopePass, "ssa")
	defer span.End("")

	out := &ir.UntypedProgram{}
	seen := make(map[string]source.Span, len(p.Fundefs))
	var errs error
	for _, f := range p.Fundefs {
		if _, dup := seen[f.Name]; dup {
			errs = multierr.Append(errs, &Error{
				Code: diag.SemaDuplicateFn,
				Func: f.Name,
				Span: f.NameSpan,
				Msg:  fmt.Sprintf("function %q is defined more than once", f.Name),
			})
			continue
		}
		seen[f.Name] = f.NameSpan

		fspan, _ := trace.Start(ctx, trace.ScopeFunc, "fn:"+f.Name)
		fd, names, err := ConvertFundef(f, Names{})
		fspan.AttrInt("temps", names.Issued()).End("")
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		out.Fundefs = append(out.Fundefs, fd)
	}
	return out, errs
}

// ConvertFundef flattens one function, drawing temporaries from names.
func ConvertFundef(f *ast.Fundef, names Names) (fd *ir.Fundef[meta], _ Names, err error) {
	defer ir.Recover(&err, f.Name)

	b := &builder{
		fn:    f.Name,
		gen:   &arena.Keys{},
		names: names,
		args:  make(map[string]int, len(f.Args)),
	}

	args := make([]ir.Avis[meta], len(f.Args))
	for i, a := range f.Args {
		if _, dup := b.args[a.Name]; dup {
			return nil, b.names, b.errorf(diag.SemaDuplicateParam, a.Span, "parameter %q declared twice", a.Name)
		}
		b.args[a.Name] = i
		args[i] = ir.Avis[meta]{Name: a.Name, Type: ir.Known(lowerType(a.Type)), Role: ir.Arg[meta](i)}
	}
	b.scopes = scope.New(args)

	top := ir.NewScope[meta](b.gen)
	b.push(top)
	for _, st := range f.Body {
		as, ok := st.(*ast.Assign)
		if !ok {
			ir.Bug("ssa: unexpected statement %T", st)
		}
		r, err := b.expr(as.Expr)
		if err != nil {
			return nil, b.names, err
		}
		b.bind(as.Name, r)
	}
	if f.Return == nil {
		return nil, b.names, b.errorf(diag.SemaMissingReturn, f.Span, "function %q has no return statement", f.Name)
	}
	ret, err := b.expr(f.Return)
	if err != nil {
		return nil, b.names, err
	}
	b.pop()

	declared := lowerType(f.RetType)
	if ret.IsVar() {
		avis := top.Ids.At(ret.Key)
		avis.Type = ir.Known(declared)
		top.Ids.Set(ret.Key, avis)
	}

	return &ir.Fundef[meta]{
		Scope:  top,
		Name:   f.Name,
		Args:   args,
		Result: ir.Known(declared),
		Ret:    ret,
		Span:   f.Span,
	}, b.names, nil
}

func lowerType(t ast.Type) ir.Type {
	base := ir.BaseU32
	if t.Base == ast.BaseBool {
		base = ir.BaseBool
	}
	return ir.Type{Base: base, Shape: ir.Shape{Rank: t.Rank}}
}

type builder struct {
	fn     string
	gen    *arena.Keys
	names  Names
	args   map[string]int
	scopes *scope.Stack[meta]
	// env[i] maps surface names bound in scope level i.
	env []map[string]ref
}

func (b *builder) push(sc ir.Scope[meta]) {
	b.scopes.PushScope(sc)
	b.env = append(b.env, make(map[string]ref))
}

func (b *builder) pop() ir.Scope[meta] {
	b.env = b.env[:len(b.env)-1]
	return b.scopes.PopScope()
}

func (b *builder) bind(name string, r ref) {
	b.env[len(b.env)-1][name] = r
}

// resolve looks a surface name up innermost first; arguments come last
// because any assignment may shadow them.
func (b *builder) resolve(name string) (ref, bool) {
	for i := len(b.env) - 1; i >= 0; i-- {
		if r, ok := b.env[i][name]; ok {
			return r, true
		}
	}
	if pos, ok := b.args[name]; ok {
		return ir.Arg[meta](pos), true
	}
	return ref{}, false
}

// define mints a fresh Var in the innermost scope with e as its definition.
func (b *builder) define(e ir.Expr[meta]) ref {
	var name string
	name, b.names = b.names.Fresh()
	top := b.scopes.Top()
	k := top.Ids.InsertWith(func(k arena.Key) ir.Avis[meta] {
		return ir.Avis[meta]{Name: name, Type: ir.Unknown(), Role: ir.Var[meta](k)}
	})
	top.SSA.Set(k, e)
	return ir.Var[meta](k)
}

func (b *builder) expr(e ast.Expr) (ref, error) {
	switch e := e.(type) {
	case *ast.Identifier:
		r, ok := b.resolve(e.Name)
		if !ok {
			return ref{}, b.errorf(diag.SemaUnresolvedName, e.Span, "undefined name %q", e.Name)
		}
		return r, nil

	case *ast.U32:
		return b.define(&ir.U32[meta]{Value: e.Value, Span: e.Span}), nil

	case *ast.Bool:
		return b.define(&ir.Bool[meta]{Value: e.Value, Span: e.Span}), nil

	case *ast.Unary:
		r, err := b.expr(e.R)
		if err != nil {
			return ref{}, err
		}
		return b.define(&ir.Unary[meta]{R: r, Op: unOps[e.Op], Span: e.Span}), nil

	case *ast.Binary:
		l, err := b.expr(e.L)
		if err != nil {
			return ref{}, err
		}
		r, err := b.expr(e.R)
		if err != nil {
			return ref{}, err
		}
		return b.define(&ir.Binary[meta]{L: l, R: r, Op: binOps[e.Op], Span: e.Span}), nil

	case *ast.Tensor:
		return b.tensor(e)
	}
	ir.Bug("ssa: unexpected expression %T", e)
	return ref{}, nil
}

func (b *builder) tensor(e *ast.Tensor) (ref, error) {
	lower, err := b.expr(e.Lower)
	if err != nil {
		return ref{}, err
	}
	upper, err := b.expr(e.Upper)
	if err != nil {
		return ref{}, err
	}

	inner := ir.NewScope[meta](b.gen)
	iv := inner.Ids.InsertWith(func(k arena.Key) ir.Avis[meta] {
		return ir.Avis[meta]{Name: e.IV, Type: ir.Unknown(), Role: ir.IndexVector[meta](k)}
	})
	b.push(inner)
	b.bind(e.IV, ir.IndexVector[meta](iv))
	body, err := b.expr(e.Body)
	if err != nil {
		return ref{}, err
	}
	b.pop()

	return b.define(&ir.Tensor[meta]{
		Scope: inner,
		IV:    iv,
		Lower: lower,
		Upper: upper,
		Ret:   body,
		Span:  e.Span,
	}), nil
}

func (b *builder) errorf(code diag.Code, sp source.Span, format string, args ...any) error {
	return &Error{Code: code, Func: b.fn, Span: sp, Msg: fmt.Sprintf(format, args...)}
}

var binOps = map[ast.BinOp]ir.BinOp{
	ast.Add: ir.Add, ast.Sub: ir.Sub, ast.Mul: ir.Mul, ast.Div: ir.Div,
	ast.Eq: ir.Eq, ast.Ne: ir.Ne, ast.Lt: ir.Lt, ast.Le: ir.Le, ast.Gt: ir.Gt, ast.Ge: ir.Ge,
}

var unOps = map[ast.UnOp]ir.UnOp{
	ast.Neg: ir.Neg,
	ast.Not: ir.Not,
}
