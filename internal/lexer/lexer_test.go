package lexer

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"dslc/internal/diag"
	"dslc/internal/source"
	"dslc/internal/token"
)

func lexAll(t *testing.T, src string) ([]token.Token, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.dsl", []byte(src))
	bag := diag.NewBag(16)
	lx := New(fs.Get(id), Options{Reporter: diag.BagReporter{Bag: bag}})
	return lx.All(), bag
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, 0, len(toks))
	for _, t := range toks {
		out = append(out, t.Kind)
	}
	return out
}

func TestLexFunction(t *testing.T) {
	toks, bag := lexAll(t, "fn add(u32 a, u32 b) -> u32 { return a + b; }")
	want := []token.Kind{
		token.KwFn, token.Ident, token.LParen, token.KwU32, token.Ident, token.Comma,
		token.KwU32, token.Ident, token.RParen, token.Arrow, token.KwU32, token.LBrace,
		token.KwReturn, token.Ident, token.Plus, token.Ident, token.Semicolon, token.RBrace,
		token.EOF,
	}
	if diff := cmp.Diff(want, kinds(toks)); diff != "" {
		t.Errorf("kinds mismatch (-want +got):\n%s", diff)
	}
	if bag.Len() != 0 {
		t.Errorf("unexpected diagnostics: %v", bag.Items())
	}
	if toks[1].Text != "add" || toks[1].Span.Start != 3 || toks[1].Span.End != 6 {
		t.Errorf("ident token = %+v", toks[1])
	}
}

func TestLexComprehensionAndOperators(t *testing.T) {
	toks, _ := lexAll(t, "{ iv + 1 | 0 <= iv < n } == != >= > ! u32[.] // trailing\n-")
	want := []token.Kind{
		token.LBrace, token.Ident, token.Plus, token.IntLit, token.Pipe, token.IntLit,
		token.LtEq, token.Ident, token.Lt, token.Ident, token.RBrace,
		token.EqEq, token.BangEq, token.GtEq, token.Gt, token.Bang,
		token.KwU32, token.LBracket, token.Dot, token.RBracket, token.Minus, token.EOF,
	}
	if diff := cmp.Diff(want, kinds(toks)); diff != "" {
		t.Errorf("kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestLexIdentifiersCannotStartWithUnderscore(t *testing.T) {
	toks, bag := lexAll(t, "_ssa_0 x_1")
	if toks[0].Kind != token.Invalid {
		t.Fatalf("leading underscore lexed as %s", toks[0].Kind)
	}
	if toks[1].Kind != token.Ident || toks[1].Text != "ssa_0" {
		t.Errorf("second token = %+v", toks[1])
	}
	if toks[2].Kind != token.Ident || toks[2].Text != "x_1" {
		t.Errorf("third token = %+v", toks[2])
	}
	if bag.Len() != 1 || bag.Items()[0].Code != diag.LexUnknownChar {
		t.Errorf("diagnostics = %v", bag.Items())
	}
}

func TestLexBadNumbers(t *testing.T) {
	_, bag := lexAll(t, "4294967295 4294967296 12ab")
	if bag.Len() != 2 {
		t.Fatalf("want 2 diagnostics, got %v", bag.Items())
	}
	for _, d := range bag.Items() {
		if d.Code != diag.LexBadNumber {
			t.Errorf("code = %s", d.Code.ID())
		}
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("p.dsl", []byte("return x"))
	lx := New(fs.Get(id), Options{})
	if lx.Peek().Kind != token.KwReturn || lx.Next().Kind != token.KwReturn {
		t.Fatalf("peek consumed the token")
	}
	if lx.Next().Kind != token.Ident || lx.Next().Kind != token.EOF || lx.Next().Kind != token.EOF {
		t.Fatalf("stream after peek wrong")
	}
}
