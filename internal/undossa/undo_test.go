package undossa

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"dslc/internal/ast"
	"dslc/internal/diag"
	"dslc/internal/ir"
	"dslc/internal/parser"
	"dslc/internal/source"
	"dslc/internal/ssa"
	"dslc/internal/typeinfer"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	bag := diag.NewBag(16)
	prog := parser.ParseString(source.NewFileSet(), "t.dsl", src, diag.BagReporter{Bag: bag})
	if bag.Len() != 0 {
		t.Fatalf("parse: %v", bag.Items())
	}
	return prog
}

func typed(t *testing.T, prog *ast.Program) *ir.TypedProgram {
	t.Helper()
	p, err := ssa.ConvertProgram(context.Background(), prog)
	if err != nil {
		t.Fatalf("ssa: %v", err)
	}
	tp, err := typeinfer.InferProgram(context.Background(), p)
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	return tp
}

func undo(t *testing.T, p *ir.TypedProgram) *ast.Program {
	t.Helper()
	out, err := Program(p)
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	return out
}

func TestUndoInlinesSingleUses(t *testing.T) {
	got := ast.Format(undo(t, typed(t, parse(t, `
fn add(u32 a, u32 b) -> u32 { return a + b; }
fn shadow() -> u32 { x = 1; x = x + 1; return x; }
fn dead(u32 a) -> u32 { d = a * 3; return (a - 1) * 2; }
`))))
	want := `fn add(u32 a, u32 b) -> u32 {
    return a + b;
}

fn shadow() -> u32 {
    return 1 + 1;
}

fn dead(u32 a) -> u32 {
    return (a - 1) * 2;
}
`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("undo (-want +got):\n%s", diff)
	}
}

func TestUndoAssignsSharedAndCapturedValues(t *testing.T) {
	got := ast.Format(undo(t, typed(t, parse(t, `
fn sq(u32 a) -> u32 { x = a + 1; y = x * x; return y - x; }
fn cap(u32 i, u32 n) -> u32[.] { k = i * 2; return { i + k | 0 <= i < n }; }
`))))
	want := `fn sq(u32 a) -> u32 {
    t0 = a + 1;
    return t0 * t0 - t0;
}

fn cap(u32 i, u32 n) -> u32[.] {
    t0 = i * 2;
    return { i + t0 | 0 <= i < n };
}
`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("undo (-want +got):\n%s", diff)
	}
}

func TestUndoAvoidsTakenNames(t *testing.T) {
	got := ast.Format(undo(t, typed(t, parse(t,
		"fn f(u32 t0, u32 n) -> u32[.] { x = t0 + 1; return { x * t1 | 0 <= t1 < x }; }"))))
	want := `fn f(u32 t0, u32 n) -> u32[.] {
    t2 = t0 + 1;
    return { t2 * t1 | 0 <= t1 < t2 };
}
`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("undo (-want +got):\n%s", diff)
	}
}

var roundTrip = []string{
	"fn add(u32 a, u32 b) -> u32 { return a + b; }",
	"fn neg(bool b) -> bool { return !b; }",
	"fn lits() -> bool { return ((7 - 2) * 3 == 15) != false; }",
	"fn sub(u32 a, u32 b, u32 c) -> u32 { return a - (b - c); }",
	"fn iota(u32 n) -> u32[.] { return { iv + 1 | 0 <= iv < n }; }",
	"fn grid(u32 n) -> bool[.][.] { return { { i < j | i <= j < n } | 2 <= i < n * 4 }; }",
	"fn sq(u32 a) -> u32 { x = a / 3; return x * x + -x; }",
}

// TestUndoRoundTrip flattens the reconstructed source again and expects the
// same reconstruction, so literal leaves and operator nesting survive.
func TestUndoRoundTrip(t *testing.T) {
	for _, src := range roundTrip {
		first := undo(t, typed(t, parse(t, src)))
		second := undo(t, typed(t, first))
		if diff := cmp.Diff(ast.Format(first), ast.Format(second)); diff != "" {
			t.Errorf("%s: second pass differs (-first +second):\n%s", src, diff)
		}

		reparsed := parse(t, ast.Format(first))
		if diff := cmp.Diff(first, reparsed, cmpopts.IgnoreTypes(source.Span{}), cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("%s: reparse differs (-undo +reparsed):\n%s", src, diff)
		}
	}
}
