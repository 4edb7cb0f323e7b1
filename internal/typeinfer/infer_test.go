package typeinfer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/multierr"

	"dslc/internal/arena"
	"dslc/internal/diag"
	"dslc/internal/ir"
	"dslc/internal/parser"
	"dslc/internal/source"
	"dslc/internal/ssa"
)

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

func infer(t *testing.T, src string) *ir.TypedProgram {
	t.Helper()
	p, err := InferProgram(context.Background(), lower(t, src))
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	return p
}

func retType(f *ir.Fundef[ir.Type]) ir.Type {
	if f.Ret.IsArg() {
		return f.Args[f.Ret.Pos].Type
	}
	return f.Ids.At(f.Ret.Key).Type
}

func u32(rank uint8) ir.Type   { return ir.Type{Base: ir.BaseU32, Shape: ir.Shape{Rank: rank}} }
func boolT(rank uint8) ir.Type { return ir.Type{Base: ir.BaseBool, Shape: ir.Shape{Rank: rank}} }

func TestInferReturnTypes(t *testing.T) {
	p := infer(t, `
fn add(u32 a, u32 b) -> u32 { return a + b; }
fn neg(bool b) -> bool { return !b; }
fn less(u32 a, u32 b) -> bool { return a < b; }
fn same(bool a, bool b) -> bool { return a == b; }
fn minus(u32 a) -> u32 { return -a; }
fn ident(u32 a) -> u32 { return a; }
fn iota(u32 n) -> u32[.] { return { iv + 1 | 0 <= iv < n }; }
fn grid(u32 n) -> u32[.][.] { return { { i * j | 0 <= j < n } | 0 <= i < n }; }
fn mask(u32 n) -> bool[.] { v = { i | 0 <= i < n }; return v == v; }
fn fill(u32 n, bool x) -> bool[.] { return { x | 0 <= i < n }; }
`)
	want := map[string]ir.Type{
		"add": u32(0), "neg": boolT(0), "less": boolT(0), "same": boolT(0),
		"minus": u32(0), "ident": u32(0), "iota": u32(1), "grid": u32(2),
		"mask": boolT(1), "fill": boolT(1),
	}
	if len(p.Fundefs) != len(want) {
		t.Fatalf("got %d functions", len(p.Fundefs))
	}
	for _, f := range p.Fundefs {
		if got := retType(f); got != want[f.Name] {
			t.Errorf("%s: inferred %s, want %s", f.Name, got, want[f.Name])
		}
		if f.Result != want[f.Name] {
			t.Errorf("%s: result %s", f.Name, f.Result)
		}
	}
}

func TestInferAddShape(t *testing.T) {
	p := infer(t, "fn add(u32 a, u32 b) -> u32 { return a + b; }")
	f := p.Fundefs[0]
	if f.SSA.Len() != 1 {
		t.Fatalf("%d definitions", f.SSA.Len())
	}
	bin, ok := f.SSA.At(f.Ret.Key).(*ir.Binary[ir.Type])
	if !ok {
		t.Fatalf("ret is %T", f.SSA.At(f.Ret.Key))
	}
	want := &ir.Binary[ir.Type]{L: ir.Arg[ir.Type](0), R: ir.Arg[ir.Type](1), Op: ir.Add}
	if diff := cmp.Diff(want, bin, cmp.FilterPath(func(p cmp.Path) bool {
		return p.Last().String() == ".Span"
	}, cmp.Ignore())); diff != "" {
		t.Errorf("binary (-want +got):\n%s", diff)
	}
}

func TestInferErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code diag.Code
	}{
		{"mixed bases", "fn f(u32 a, bool b) -> u32 { return a + b; }", diag.SemaTypeMismatch},
		{"arith on bool", "fn f(bool a) -> bool { return a * a; }", diag.SemaTypeMismatch},
		{"ordering on bool", "fn f(bool a) -> bool { return a < a; }", diag.SemaTypeMismatch},
		{"not on u32", "fn f(u32 a) -> bool { return !a; }", diag.SemaTypeMismatch},
		{"neg on bool", "fn f(bool a) -> bool { return -a; }", diag.SemaTypeMismatch},
		{"vector plus scalar", "fn f(u32 n) -> u32[.] { t = { i | 0 <= i < n }; return t + n; }", diag.SemaShapeMismatch},
		{"bool bound", "fn f(bool b) -> u32[.] { return { 1 | 0 <= i < b }; }", diag.SemaBoundNotScalar},
		{"vector bound", "fn f(u32 n) -> u32[.] { t = { i | 0 <= i < n }; return { 1 | 0 <= i < t }; }", diag.SemaBoundNotScalar},
		{"wrong result base", "fn f(u32 a) -> bool { return a; }", diag.SemaReturnMismatch},
		{"wrong result rank", "fn f(u32 n) -> u32 { return { i | 0 <= i < n }; }", diag.SemaReturnMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := InferProgram(context.Background(), lower(t, tt.src))
			var te *Error
			if !errors.As(err, &te) {
				t.Fatalf("err = %v, want *Error", err)
			}
			if te.Code != tt.code || te.Func != "f" {
				t.Errorf("got %s in %q (%s), want %s", te.Code.ID(), te.Func, te.Msg, tt.code.ID())
			}
		})
	}
}

func TestInferKeepsGoodSiblings(t *testing.T) {
	p, err := InferProgram(context.Background(), lower(t, `
fn bad1(u32 a) -> bool { return a; }
fn good(u32 a) -> u32 { return a * 2; }
fn bad2(bool a) -> u32 { return a + 1; }
`))
	if got := len(multierr.Errors(err)); got != 2 {
		t.Fatalf("%d errors: %v", got, err)
	}
	if len(p.Fundefs) != 1 || p.Fundefs[0].Name != "good" {
		t.Fatalf("kept %d functions", len(p.Fundefs))
	}
	ds := diag.ToDiagnostics(err, source.Span{})
	if ds[0].Func != "bad1" || ds[1].Func != "bad2" {
		t.Errorf("diagnostics: %+v", ds)
	}
}

func TestInferSharedValueOnce(t *testing.T) {
	untyped := lower(t, "fn f(u32 a) -> u32 { x = a + 1; y = x * x; return y - x; }")
	p, err := InferProgram(context.Background(), untyped)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := p.Fundefs[0].SSA.Len(), untyped.Fundefs[0].SSA.Len(); got != want {
		t.Errorf("typed definitions = %d, untyped = %d", got, want)
	}
}

func TestInferMissingArgTypeIsInternal(t *testing.T) {
	gen := &arena.Keys{}
	f := &ir.Fundef[ir.MaybeType]{
		Scope:  ir.NewScope[ir.MaybeType](gen),
		Name:   "broken",
		Args:   []ir.Avis[ir.MaybeType]{{Name: "a", Type: ir.Unknown(), Role: ir.Arg[ir.MaybeType](0)}},
		Result: ir.Known(u32(0)),
		Ret:    ir.Arg[ir.MaybeType](0),
	}
	_, err := InferFundef(f)
	var ie *ir.InternalError
	if !errors.As(err, &ie) || ie.Func != "broken" {
		t.Fatalf("err = %v", err)
	}
}

// typesInKeyOrder lists name:type of every identifier, descending into
// comprehension scopes after their owner.
func typesInKeyOrder(sc ir.Scope[ir.Type]) []string {
	var out []string
	for k, avis := range sc.Ids.All() {
		out = append(out, fmt.Sprintf("%s:%s", avis.Name, avis.Type))
		if e, ok := sc.SSA.Get(k); ok {
			if tn, ok := e.(*ir.Tensor[ir.Type]); ok {
				out = append(out, typesInKeyOrder(tn.Scope)...)
			}
		}
	}
	return out
}

func TestReinferIsIdempotent(t *testing.T) {
	typed := infer(t, `
fn f(u32 n, bool b) -> bool[.] {
  unused = n * 3;
  g = { { i + j | 0 <= j < n } | 0 <= i < n };
  return { b == (i < n) | 1 <= i < n };
}
`)
	again, err := Reinfer(context.Background(), typed)
	if err != nil {
		t.Fatal(err)
	}
	for i, f := range typed.Fundefs {
		g := again.Fundefs[i]
		if diff := cmp.Diff(typesInKeyOrder(f.Scope), typesInKeyOrder(g.Scope)); diff != "" {
			t.Errorf("%s types changed (-first +second):\n%s", f.Name, diff)
		}
		if f.Result != g.Result || retType(f) != retType(g) {
			t.Errorf("%s result changed", f.Name)
		}
	}
}
