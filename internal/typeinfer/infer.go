// Package typeinfer lowers untyped programs into typed ones.
//
// Inference is a traverse.Rewriter from the untyped to the typed
// typestate. Types flow bottom-up along the reference graph of each
// function starting at its return value; every definition is typed once
// and gets exactly one typed copy, however many sites reference it.
package typeinfer

import (
	"context"
	"fmt"

	"dslc/internal/diag"
	"dslc/internal/ir"
	"dslc/internal/source"
	"dslc/internal/traverse"
)

var (
	inferRules   = rules[ir.MaybeType]("typeinfer")
	reinferRules = rules[ir.Type]("reinfer")
)

// InferProgram types every function of p. Functions with type errors are
// left out of the result; the returned error combines one error per failed
// function.
func InferProgram(ctx context.Context, p *ir.UntypedProgram) (*ir.TypedProgram, error) {
	return inferRules.RewriteProgram(ctx, p)
}

// InferFundef types a single function.
func InferFundef(f *ir.Fundef[ir.MaybeType]) (*ir.Fundef[ir.Type], error) {
	return inferRules.RewriteFundef(f)
}

// Reinfer runs inference again over an already typed program, taking the
// existing argument and result types as declared. Types it produces equal
// the ones already present.
func Reinfer(ctx context.Context, p *ir.TypedProgram) (*ir.TypedProgram, error) {
	return reinferRules.RewriteProgram(ctx, p)
}

// declared extracts the type a program states up front.
func declared[T ir.Meta](m T) (ir.Type, bool) {
	switch m := any(m).(type) {
	case ir.MaybeType:
		return m.Get()
	case ir.Type:
		return m, true
	}
	return ir.Type{}, false
}

type session[In ir.Meta] = traverse.Session[In, ir.Type]

func rules[In ir.Meta](name string) *traverse.Rewriter[In, ir.Type] {
	return &traverse.Rewriter[In, ir.Type]{
		Name: name,
		Arg: func(s *session[In], pos int, avis ir.Avis[In]) (ir.Type, error) {
			t, ok := declared(avis.Type)
			if !ok {
				ir.Bug("typeinfer: argument %d (%s) of %s has no declared type", pos, avis.Name, s.Func())
			}
			return t, nil
		},
		IndexVector: func(*session[In], ir.Avis[In], *ir.Tensor[In]) (ir.Type, error) {
			return ir.ScalarOf(ir.BaseU32), nil
		},
		Var: func(s *session[In], _ ir.Avis[In], e ir.Expr[ir.Type]) (ir.Type, error) {
			return exprType(s, e)
		},
		Result: func(s *session[In], f *ir.Fundef[In], ret ir.Type) (ir.Type, error) {
			want, ok := declared(f.Result)
			if !ok {
				ir.Bug("typeinfer: %s has no declared result type", f.Name)
			}
			if _, _, ok := unify(want, ret); !ok {
				return ir.Type{}, &Error{
					Code: diag.SemaReturnMismatch,
					Func: f.Name,
					Span: retSpan(f),
					Msg:  fmt.Sprintf("return type mismatch: expected `%s`, got `%s`", want, ret),
				}
			}
			return want, nil
		},
	}
}

func retSpan[T ir.Meta](f *ir.Fundef[T]) source.Span {
	if f.Ret.IsVar() {
		if e, ok := f.SSA.Get(f.Ret.Key); ok {
			return e.Pos()
		}
	}
	return f.Span
}

func exprType[In ir.Meta](s *session[In], e ir.Expr[ir.Type]) (ir.Type, error) {
	switch e := e.(type) {
	case *ir.U32[ir.Type]:
		return ir.ScalarOf(ir.BaseU32), nil
	case *ir.Bool[ir.Type]:
		return ir.ScalarOf(ir.BaseBool), nil
	case *ir.Unary[ir.Type]:
		return unaryType(s, e)
	case *ir.Binary[ir.Type]:
		return binaryType(s, e)
	case *ir.Tensor[ir.Type]:
		return tensorType(s, e)
	}
	ir.Bug("typeinfer: unknown expression %T", e)
	return ir.Type{}, nil
}

func unaryType[In ir.Meta](s *session[In], e *ir.Unary[ir.Type]) (ir.Type, error) {
	t := s.TypeOf(e.R)
	want := ir.BaseU32
	if e.Op == ir.Not {
		want = ir.BaseBool
	}
	if t.Base != want {
		return ir.Type{}, errorf(s, diag.SemaTypeMismatch, e.Span,
			"operator `%s` expects a `%s` operand, got `%s`", e.Op, want, t)
	}
	return t, nil
}

func binaryType[In ir.Meta](s *session[In], e *ir.Binary[ir.Type]) (ir.Type, error) {
	l, r := s.TypeOf(e.L), s.TypeOf(e.R)
	t, code, ok := unify(l, r)
	if !ok {
		return ir.Type{}, errorf(s, code, e.Span,
			"mismatched operands for `%s`: `%s` and `%s`", e.Op, l, r)
	}
	if (e.Op.IsArith() || e.Op.IsOrdering()) && t.Base != ir.BaseU32 {
		return ir.Type{}, errorf(s, diag.SemaTypeMismatch, e.Span,
			"operator `%s` expects `u32` operands, got `%s`", e.Op, t)
	}
	if e.Op.IsCompare() {
		return ir.Type{Base: ir.BaseBool, Shape: t.Shape}, nil
	}
	return t, nil
}

func tensorType[In ir.Meta](s *session[In], e *ir.Tensor[ir.Type]) (ir.Type, error) {
	for _, b := range [...]ir.ArgOrVar[ir.Type]{e.Lower, e.Upper} {
		if t := s.TypeOf(b); t != ir.ScalarOf(ir.BaseU32) {
			return ir.Type{}, errorf(s, diag.SemaBoundNotScalar, e.Span,
				"comprehension bounds must be `u32`, got `%s`", t)
		}
	}
	body := s.TypeOfIn(e.Scope, e.Ret)
	if body.Shape.Rank == ^uint8(0) {
		return ir.Type{}, errorf(s, diag.SemaShapeMismatch, e.Span, "comprehension nests too deeply")
	}
	return ir.Type{Base: body.Base, Shape: body.Shape.Deeper()}, nil
}

func errorf[In ir.Meta](s *session[In], code diag.Code, sp source.Span, format string, args ...any) error {
	return &Error{Code: code, Func: s.Func(), Span: sp, Msg: fmt.Sprintf(format, args...)}
}
