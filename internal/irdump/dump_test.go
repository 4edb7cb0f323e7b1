package irdump

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"dslc/internal/diag"
	"dslc/internal/ir"
	"dslc/internal/parser"
	"dslc/internal/source"
	"dslc/internal/ssa"
	"dslc/internal/typeinfer"
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

func TestDumpUntyped(t *testing.T) {
	got := String(lower(t, `
fn add(u32 a, u32 b) -> u32 { return a + b; }
fn f(u32 a) -> u32 { d = a * 3; return a; }
`), DumpOptions{})
	want := `fn add(a: u32, b: u32) -> u32:
  _ssa_0: u32 = a + b
  return _ssa_0

fn f(a: u32) -> u32:
  _ssa_0: ? = 3  ; unreachable
  _ssa_1: ? = a * _ssa_0  ; unreachable
  return a
`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("dump (-want +got):\n%s", diff)
	}
}

func TestDumpTypedComprehension(t *testing.T) {
	typed, err := typeinfer.InferProgram(context.Background(),
		lower(t, "fn iota(u32 n) -> u32[.] { return { iv + 1 | 0 <= iv < n }; }"))
	if err != nil {
		t.Fatal(err)
	}
	got := String(typed, DumpOptions{Keys: true})
	want := `fn iota(n: u32) -> u32[.]:
  k1 _ssa_0: u32 = 0
  k5 _ssa_3: u32[.] = { _ssa_0 <= k2 iv: u32 < n }
    k3 _ssa_1: u32 = 1
    k4 _ssa_2: u32 = iv + _ssa_1
    yield _ssa_2
  return _ssa_3
`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("dump (-want +got):\n%s", diff)
	}
}
