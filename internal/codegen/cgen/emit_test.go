package cgen

import (
	"context"
	"errors"
	"strings"
	"testing"

	"dslc/internal/diag"
	"dslc/internal/ir"
	"dslc/internal/parser"
	"dslc/internal/source"
	"dslc/internal/ssa"
	"dslc/internal/typeinfer"
)

func typed(t *testing.T, src string) *ir.TypedProgram {
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
	tp, err := typeinfer.InferProgram(context.Background(), p)
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	return tp
}

func norm(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func emit(t *testing.T, src string) string {
	t.Helper()
	out, err := EmitProgram(context.Background(), typed(t, src), Options{})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	return out
}

func expectContains(t *testing.T, out, want string) {
	t.Helper()
	if !strings.Contains(norm(out), norm(want)) {
		t.Errorf("output does not contain\n%s\ngot:\n%s", want, out)
	}
}

func TestEmitScalars(t *testing.T) {
	out := emit(t, `
fn add(u32 a, u32 b) -> u32 { return a + b; }
fn neg(bool b) -> bool { return !b; }
`)
	expectContains(t, out, "uint32_t DSL_add(uint32_t a, uint32_t b) { return a + b; }")
	expectContains(t, out, "bool DSL_neg(bool b) { return !b; }")
	if strings.Contains(out, "stdlib.h") {
		t.Errorf("stdlib.h included without comprehensions")
	}
	for _, inc := range []string{"#include <stdbool.h>", "#include <stdint.h>"} {
		if !strings.Contains(out, inc) {
			t.Errorf("missing %s", inc)
		}
	}
}

func TestEmitComprehension(t *testing.T) {
	out := emit(t, "fn iota(u32 n) -> u32[.] { return { iv + 1 | 0 <= iv < n }; }")
	expectContains(t, out, `uint32_t *DSL_iota(uint32_t n) {
    uint32_t *res = malloc(n * sizeof(uint32_t));
    for (size_t iv = 0; iv < n; iv += 1) {
        res[iv] = iv + 1;
    }
    return res;
}`)
	if !strings.Contains(out, "#include <stdlib.h>") {
		t.Errorf("missing stdlib.h")
	}
}

func TestEmitHoistsSharedValuesOnce(t *testing.T) {
	out := emit(t, "fn sq(u32 a) -> u32 { x = a + 1; return x * x; }")
	expectContains(t, out, `uint32_t DSL_sq(uint32_t a) {
    uint32_t _ssa_1 = a + 1;
    return _ssa_1 * _ssa_1;
}`)
}

func TestEmitHoistsOuterValuesBeforeLoop(t *testing.T) {
	out := emit(t, "fn f(u32 n, u32 a) -> u32[.] { x = a * 2; return { i + x | 0 <= i < n }; }")
	expectContains(t, out, `uint32_t *DSL_f(uint32_t n, uint32_t a) {
    uint32_t _ssa_1 = a * 2;
    uint32_t *res = malloc(n * sizeof(uint32_t));
    for (size_t i = 0; i < n; i += 1) {
        res[i] = i + _ssa_1;
    }
    return res;
}`)
}

func TestEmitNestedComprehension(t *testing.T) {
	out := emit(t, "fn grid(u32 n) -> u32[.][.] { return { { i * j | 0 <= j < n } | 0 <= i < n }; }")
	expectContains(t, out, `uint32_t **DSL_grid(uint32_t n) {
    uint32_t **res = malloc(n * sizeof(uint32_t *));
    for (size_t i = 0; i < n; i += 1) {
        uint32_t *res1 = malloc(n * sizeof(uint32_t));
        for (size_t j = 0; j < n; j += 1) {
            res1[j] = i * j;
        }
        res[i] = res1;
    }
    return res;
}`)
}

func TestEmitHoistsInsideLoopBody(t *testing.T) {
	out := emit(t, "fn f(u32 n) -> bool[.] { return { (i * i) < n | 0 <= i < n }; }")
	expectContains(t, out, `for (size_t i = 0; i < n; i += 1) {
        uint32_t _ssa_1 = i * i;
        res[i] = _ssa_1 < n;
    }`)
	expectContains(t, out, "bool *res = malloc(n * sizeof(bool));")
}

func TestEmitRenamesClashingIdentifiers(t *testing.T) {
	out := emit(t, "fn f(u32 res, u32 int) -> u32[.] { return { res + int | 0 <= res < int }; }")
	expectContains(t, out, "uint32_t *DSL_f(uint32_t res, uint32_t int_)")
	expectContains(t, out, "uint32_t *res1 = malloc(int_ * sizeof(uint32_t));")
	expectContains(t, out, "for (size_t res2 = 0; res2 < int_; res2 += 1) { res1[res2] = res2 + int_; }")
}

func TestEmitPrefix(t *testing.T) {
	out, err := EmitProgram(context.Background(), typed(t, "fn id(bool b) -> bool { return b; }"), Options{Prefix: "k_"})
	if err != nil {
		t.Fatal(err)
	}
	expectContains(t, out, "bool k_id(bool b) { return b; }")
}

func TestEmitRejectsVectorOperators(t *testing.T) {
	out, err := EmitProgram(context.Background(), typed(t, `
fn bad(u32 n) -> bool[.] { v = { i | 0 <= i < n }; return v == v; }
fn ok() -> u32 { return 7; }
`), Options{})
	var ge *Error
	if !errors.As(err, &ge) || ge.Func != "bad" {
		t.Fatalf("err = %v", err)
	}
	if ge.DiagCode() != diag.GenUnsupported {
		t.Errorf("code %s", ge.DiagCode().ID())
	}
	if strings.Contains(out, "DSL_bad") {
		t.Errorf("failed function emitted:\n%s", out)
	}
	expectContains(t, out, "uint32_t DSL_ok(void) { return 7; }")
}
