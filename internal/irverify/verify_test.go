package irverify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"dslc/internal/arena"
	"dslc/internal/diag"
	"dslc/internal/ir"
	"dslc/internal/parser"
	"dslc/internal/source"
	"dslc/internal/ssa"
	"dslc/internal/typeinfer"
)

const sample = `
fn add(u32 a, u32 b) -> u32 { return a + b; }
fn shadow() -> u32 { x = 1; x = x + 1; return x; }
fn grid(u32 n) -> u32[.][.] {
  dead = n * 2;
  return { { i + j | 0 <= j < n } | 0 <= i < n };
}
`

func lower(t *testing.T, src string) *ir.UntypedProgram {
	t.Helper()
	bag := diag.NewBag(16)
	prog := parser.ParseString(source.NewFileSet(), "t.dsl", src, diag.BagReporter{Bag: bag})
	if bag.Len() != 0 {
		t.Fatalf("parse: %v", bag.Items())
	}
	p, err := ssa.ConvertProgram(context.Background(), prog)
	if err != nil {
		t.Fatalf("ssa: %v", err)
	}
	return p
}

func TestCheckAcceptsPipelineOutput(t *testing.T) {
	untyped := lower(t, sample)
	if err := Check(untyped); err != nil {
		t.Fatalf("untyped: %v", err)
	}
	typed, err := typeinfer.InferProgram(context.Background(), untyped)
	if err != nil {
		t.Fatal(err)
	}
	if err := Check(typed); err != nil {
		t.Fatalf("typed: %v", err)
	}
}

func expectBroken(t *testing.T, f *ir.Fundef[ir.MaybeType], want string) {
	t.Helper()
	err := CheckFundef(f)
	var ie *ir.InternalError
	if !errors.As(err, &ie) {
		t.Fatalf("err = %v, want internal error", err)
	}
	if !strings.Contains(ie.Msg, want) {
		t.Errorf("message %q does not mention %q", ie.Msg, want)
	}
}

func TestCheckDanglingVar(t *testing.T) {
	f := lower(t, "fn f(u32 a) -> u32 { return a + 1; }").Fundefs[0]
	f.Ret = ir.Var[ir.MaybeType](arena.Key(99))
	expectBroken(t, f, "k99")
}

func TestCheckArgOutOfRange(t *testing.T) {
	f := lower(t, "fn f(u32 a) -> u32 { return a + 1; }").Fundefs[0]
	bin := f.SSA.At(f.Ret.Key).(*ir.Binary[ir.MaybeType])
	bin.L = ir.Arg[ir.MaybeType](3)
	expectBroken(t, f, "argument 3")
}

func TestCheckEscapedIndexVector(t *testing.T) {
	f := lower(t, "fn f(u32 n) -> u32[.] { t = { i | 0 <= i < n }; return t; }").Fundefs[0]
	tn := f.SSA.At(f.Ret.Key).(*ir.Tensor[ir.MaybeType])
	// use the index as the upper bound, outside its comprehension
	tn.Upper = ir.IndexVector[ir.MaybeType](tn.IV)
	expectBroken(t, f, "not declared")
}

func TestCheckDefinitionInWrongScope(t *testing.T) {
	f := lower(t, "fn f(u32 n) -> u32[.] { return { i + 1 | 0 <= i < n }; }").Fundefs[0]
	tn := f.SSA.At(f.Ret.Key).(*ir.Tensor[ir.MaybeType])
	f.SSA.Set(tn.Ret.Key, tn.SSA.At(tn.Ret.Key))
	expectBroken(t, f, "outside the scope")
}

func TestCheckIndexVectorWithDefinition(t *testing.T) {
	f := lower(t, "fn f(u32 n) -> u32[.] { return { i | 0 <= i < n }; }").Fundefs[0]
	tn := f.SSA.At(f.Ret.Key).(*ir.Tensor[ir.MaybeType])
	tn.SSA.Set(tn.IV, &ir.U32[ir.MaybeType]{Value: 1})
	expectBroken(t, f, "has a definition")
}

func TestCheckReportsEveryBrokenFunction(t *testing.T) {
	p := lower(t, sample)
	p.Fundefs[0].Ret = ir.Var[ir.MaybeType](arena.Key(77))
	p.Fundefs[2].Ret = ir.Var[ir.MaybeType](arena.Key(78))
	err := Check(p)
	ds := diag.ToDiagnostics(err, source.Span{})
	if len(ds) != 2 || ds[0].Func != "add" || ds[1].Func != "grid" {
		t.Fatalf("diagnostics: %+v", ds)
	}
	for _, d := range ds {
		if d.Code != diag.InternalInvariant {
			t.Errorf("code %s", d.Code.ID())
		}
	}
}

func TestCollect(t *testing.T) {
	st := Collect(lower(t, sample))
	want := Stats{
		Funcs: 3,
		// add, shadow, grid, outer and inner comprehension
		Scopes: 5,
		// add: 1; shadow: 1, 1, x+1; grid: 2, dead, 0, 0, i+j, inner, outer
		Defs:      11,
		Reachable: 9,
		Literals:  5,
		Tensors:   2,
		MaxDepth:  2,
	}
	if st != want {
		t.Errorf("got %+v\nwant %+v", st, want)
	}
}
