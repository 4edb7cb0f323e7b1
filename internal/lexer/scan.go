package lexer

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"dslc/internal/diag"
	"dslc/internal/token"
)

func isIdentStart(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

func isIdentContinue(b byte) bool {
	return isIdentStart(b) || isDec(b) || b == '_'
}

func isDec(b byte) bool {
	return b >= '0' && b <= '9'
}

func (lx *Lexer) scanIdentOrKeyword() token.Token {
	start := lx.r.pos
	lx.r.skip(isIdentContinue)
	sp := lx.r.spanFrom(start)
	text := lx.text(sp)
	if kw, ok := token.LookupKeyword(text); ok {
		return token.Token{Kind: kw, Span: sp, Text: text}
	}
	return token.Token{Kind: token.Ident, Span: sp, Text: text}
}

// scanNumber reads a decimal u32 literal. A literal glued to identifier
// characters, or one that does not fit in 32 bits, is reported but still
// returned as IntLit so the parser can continue.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.r.pos
	lx.r.skip(isDec)
	bad := lx.r.skip(isIdentContinue) > 0
	sp := lx.r.spanFrom(start)
	text := lx.text(sp)
	switch {
	case bad:
		lx.report(diag.LexBadNumber, sp, fmt.Sprintf("malformed number %q", text))
	default:
		if _, err := strconv.ParseUint(text, 10, 32); err != nil {
			lx.report(diag.LexBadNumber, sp, fmt.Sprintf("literal %s does not fit in u32", text))
		}
	}
	return token.Token{Kind: token.IntLit, Span: sp, Text: text}
}

var twoByte = []struct {
	text string
	kind token.Kind
}{
	{"->", token.Arrow},
	{"==", token.EqEq},
	{"!=", token.BangEq},
	{"<=", token.LtEq},
	{">=", token.GtEq},
}

var singleByte = map[byte]token.Kind{
	'+': token.Plus,
	'-': token.Minus,
	'*': token.Star,
	'/': token.Slash,
	'!': token.Bang,
	'<': token.Lt,
	'>': token.Gt,
	'=': token.Assign,
	'|': token.Pipe,
	':': token.Colon,
	';': token.Semicolon,
	',': token.Comma,
	'.': token.Dot,
	'(': token.LParen,
	')': token.RParen,
	'{': token.LBrace,
	'}': token.RBrace,
	'[': token.LBracket,
	']': token.RBracket,
}

// scanOperatorOrPunct is greedy: two-byte operators win over one-byte ones.
func (lx *Lexer) scanOperatorOrPunct() token.Token {
	start := lx.r.pos
	emit := func(k token.Kind) token.Token {
		sp := lx.r.spanFrom(start)
		return token.Token{Kind: k, Span: sp, Text: lx.text(sp)}
	}

	for _, op := range twoByte {
		if lx.r.accept(op.text) {
			return emit(op.kind)
		}
	}

	ch := lx.r.next()
	if k, ok := singleByte[ch]; ok {
		return emit(k)
	}
	// swallow the whole UTF-8 sequence so the diagnostic shows one character
	if ch >= utf8.RuneSelf {
		lx.r.skip(func(b byte) bool { return !utf8.RuneStart(b) })
	}
	return lx.invalid(start)
}
