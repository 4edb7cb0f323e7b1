package traverse

import (
	"context"

	"go.uber.org/multierr"

	"dslc/internal/arena"
	"dslc/internal/ir"
	"dslc/internal/scope"
	"dslc/internal/trace"
)

// Rewriter rebuilds programs from typestate In to typestate Out. Arg,
// IndexVector, Var and Result are required.
type Rewriter[In, Out ir.Meta] struct {
	// Name labels trace spans.
	Name string

	// Arg converts the metadata of argument pos.
	Arg func(s *Session[In, Out], pos int, avis ir.Avis[In]) (Out, error)
	// IndexVector converts the metadata of a comprehension index.
	IndexVector func(s *Session[In, Out], avis ir.Avis[In], t *ir.Tensor[In]) (Out, error)
	// Var computes the metadata of a definition from its already rewritten
	// right-hand side. Operands resolve through s.Out().
	Var func(s *Session[In, Out], avis ir.Avis[In], e ir.Expr[Out]) (Out, error)
	// Result converts the declared return metadata once the body is
	// rewritten; ret is the metadata of the returned value.
	Result func(s *Session[In, Out], f *ir.Fundef[In], ret Out) (Out, error)
	// Fundef, when set, validates the finished function.
	Fundef func(s *Session[In, Out], in *ir.Fundef[In], out *ir.Fundef[Out]) error
}

// Session is the state of rewriting one function.
type Session[In, Out ir.Meta] struct {
	rw   *Rewriter[In, Out]
	fn   string
	in   *scope.Stack[In]
	out  *scope.Stack[Out]
	memo []map[arena.Key]arena.Key
	gen  *arena.Keys
}

// In returns the input scope stack.
func (s *Session[In, Out]) In() *scope.Stack[In] { return s.in }

// Out returns the output scope stack being built.
func (s *Session[In, Out]) Out() *scope.Stack[Out] { return s.out }

// Func is the name of the function being rewritten.
func (s *Session[In, Out]) Func() string { return s.fn }

// TypeOf returns the output metadata of an already rewritten reference.
func (s *Session[In, Out]) TypeOf(r ir.ArgOrVar[Out]) Out {
	return s.out.FindID(r).Type
}

// TypeOfIn resolves r through sc first. Hooks use it for the body of a
// comprehension, whose scope is already closed when the comprehension
// itself is typed.
func (s *Session[In, Out]) TypeOfIn(sc ir.Scope[Out], r ir.ArgOrVar[Out]) Out {
	if !r.IsArg() {
		if avis, ok := sc.Ids.Get(r.Key); ok {
			return avis.Type
		}
	}
	return s.TypeOf(r)
}

// RewriteProgram rewrites every function. Functions that fail are dropped
// from the result and their errors combined.
func (rw *Rewriter[In, Out]) RewriteProgram(ctx context.Context, p *ir.Program[In]) (*ir.Program[Out], error) {
	span, ctx := trace.Start(ctx, trace.ScopePass, rw.name())
	defer span.End("")

	out := &ir.Program[Out]{Fundefs: make([]*ir.Fundef[Out], 0, len(p.Fundefs))}
	var errs error
	for _, f := range p.Fundefs {
		fspan, _ := trace.Start(ctx, trace.ScopeFunc, "fn:"+f.Name)
		nf, err := rw.RewriteFundef(f)
		fspan.End(errDetail(err))
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		out.Fundefs = append(out.Fundefs, nf)
	}
	return out, errs
}

func (rw *Rewriter[In, Out]) name() string {
	if rw.Name == "" {
		return "rewrite"
	}
	return rw.Name
}

func errDetail(err error) string {
	if err == nil {
		return ""
	}
	return "error"
}

// RewriteFundef rewrites one function into fresh arenas with fresh keys.
func (rw *Rewriter[In, Out]) RewriteFundef(f *ir.Fundef[In]) (nf *ir.Fundef[Out], err error) {
	defer ir.Recover(&err, f.Name)

	s := &Session[In, Out]{
		rw:  rw,
		fn:  f.Name,
		in:  scope.New(f.Args),
		out: scope.New[Out](nil),
		gen: &arena.Keys{},
	}
	args := make([]ir.Avis[Out], len(f.Args))
	for i, a := range f.Args {
		t, err := rw.Arg(s, i, a)
		if err != nil {
			return nil, err
		}
		args[i] = ir.Avis[Out]{Name: a.Name, Type: t, Role: ir.Arg[Out](i)}
	}
	s.out.SetArgs(args)

	s.push(f.Scope)
	ret, err := s.ref(f.Ret)
	if err != nil {
		return nil, err
	}
	if err := s.sweep(f.Scope); err != nil {
		return nil, err
	}
	retType := s.TypeOf(ret)
	body := s.pop()

	result, err := rw.Result(s, f, retType)
	if err != nil {
		return nil, err
	}
	nf = &ir.Fundef[Out]{
		Scope:  body,
		Name:   f.Name,
		Args:   args,
		Result: result,
		Ret:    ret,
		Span:   f.Span,
	}
	if rw.Fundef != nil {
		// the output scope is closed; hooks resolve through nf itself
		s.out.PushScope(body)
		err = rw.Fundef(s, f, nf)
		s.out.PopScope()
		if err != nil {
			return nil, err
		}
	}
	return nf, nil
}

func (s *Session[In, Out]) push(in ir.Scope[In]) {
	s.in.PushScope(in)
	s.out.PushScope(ir.NewScope[Out](s.gen))
	s.memo = append(s.memo, make(map[arena.Key]arena.Key))
}

func (s *Session[In, Out]) pop() ir.Scope[Out] {
	s.in.PopScope()
	s.memo = s.memo[:len(s.memo)-1]
	return s.out.PopScope()
}

// sweep rewrites, in key order, the definitions of the innermost scope that
// the returned value does not reach.
func (s *Session[In, Out]) sweep(in ir.Scope[In]) error {
	memo := s.memo[len(s.memo)-1]
	for _, k := range in.Ids.Keys() {
		if _, done := memo[k]; done || !in.SSA.Has(k) {
			continue
		}
		if _, err := s.ref(ir.Var[In](k)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session[In, Out]) ref(r ir.ArgOrVar[In]) (ir.ArgOrVar[Out], error) {
	switch r.Kind {
	case ir.RefArg:
		if r.Pos < 0 || r.Pos >= len(s.in.Args()) {
			ir.Bug("rewrite: argument %d out of range", r.Pos)
		}
		return ir.Arg[Out](r.Pos), nil
	case ir.RefIndexVector:
		d := s.in.Depth(r.Key)
		nk, ok := s.lookupMemo(d, r.Key)
		if !ok {
			ir.Bug("rewrite: index vector %s used outside its comprehension", r.Key)
		}
		return ir.IndexVector[Out](nk), nil
	}

	d := s.in.Depth(r.Key)
	if nk, ok := s.lookupMemo(d, r.Key); ok {
		return ir.Var[Out](nk), nil
	}
	level := s.in.Level(d)
	e, ok := level.SSA.Get(r.Key)
	if !ok {
		ir.Bug("rewrite: var %s has no definition", r.Key)
	}
	avis := level.Ids.At(r.Key)

	ne, err := s.expr(e)
	if err != nil {
		return ir.ArgOrVar[Out]{}, err
	}
	t, err := s.rw.Var(s, avis, ne)
	if err != nil {
		return ir.ArgOrVar[Out]{}, err
	}
	target := s.out.Level(d)
	nk := target.Ids.InsertWith(func(k arena.Key) ir.Avis[Out] {
		return ir.Avis[Out]{Name: avis.Name, Type: t, Role: ir.Var[Out](k)}
	})
	target.SSA.Set(nk, ne)
	s.memo[d][r.Key] = nk
	return ir.Var[Out](nk), nil
}

func (s *Session[In, Out]) lookupMemo(d int, k arena.Key) (arena.Key, bool) {
	if d < 0 || d >= len(s.memo) {
		ir.Bug("rewrite: key %s not declared in any open scope", k)
	}
	nk, ok := s.memo[d][k]
	return nk, ok
}

func (s *Session[In, Out]) expr(e ir.Expr[In]) (ir.Expr[Out], error) {
	switch e := e.(type) {
	case *ir.U32[In]:
		return &ir.U32[Out]{Value: e.Value, Span: e.Span}, nil
	case *ir.Bool[In]:
		return &ir.Bool[Out]{Value: e.Value, Span: e.Span}, nil
	case *ir.Unary[In]:
		r, err := s.ref(e.R)
		if err != nil {
			return nil, err
		}
		return &ir.Unary[Out]{R: r, Op: e.Op, Span: e.Span}, nil
	case *ir.Binary[In]:
		l, err := s.ref(e.L)
		if err != nil {
			return nil, err
		}
		r, err := s.ref(e.R)
		if err != nil {
			return nil, err
		}
		return &ir.Binary[Out]{L: l, R: r, Op: e.Op, Span: e.Span}, nil
	case *ir.Tensor[In]:
		return s.tensor(e)
	}
	ir.Bug("rewrite: unknown expression %T", e)
	return nil, nil
}

func (s *Session[In, Out]) tensor(e *ir.Tensor[In]) (ir.Expr[Out], error) {
	lower, err := s.ref(e.Lower)
	if err != nil {
		return nil, err
	}
	upper, err := s.ref(e.Upper)
	if err != nil {
		return nil, err
	}

	s.push(e.Scope)
	ivAvis := e.Ids.At(e.IV)
	ivType, err := s.rw.IndexVector(s, ivAvis, e)
	if err != nil {
		return nil, err
	}
	iv := s.out.Top().Ids.InsertWith(func(k arena.Key) ir.Avis[Out] {
		return ir.Avis[Out]{Name: ivAvis.Name, Type: ivType, Role: ir.IndexVector[Out](k)}
	})
	s.memo[len(s.memo)-1][e.IV] = iv

	ret, err := s.ref(e.Ret)
	if err != nil {
		return nil, err
	}
	if err := s.sweep(e.Scope); err != nil {
		return nil, err
	}
	inner := s.pop()

	return &ir.Tensor[Out]{
		Scope: inner,
		IV:    iv,
		Lower: lower,
		Upper: upper,
		Ret:   ret,
		Span:  e.Span,
	}, nil
}
