package lexer

import (
	"fmt"

	"dslc/internal/diag"
	"dslc/internal/source"
	"dslc/internal/token"
)

type Lexer struct {
	file *source.File
	r    reader
	opts Options
	look *token.Token
}

func New(file *source.File, opts Options) *Lexer {
	return &Lexer{
		file: file,
		r:    newReader(file),
		opts: opts,
	}
}

// Next returns the next significant token. After EOF it keeps returning EOF.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}

	lx.r.skipTrivia()
	if lx.r.done() {
		return token.Token{Kind: token.EOF, Span: lx.emptySpan()}
	}

	ch := lx.r.at(0)
	switch {
	case isIdentStart(ch):
		return lx.scanIdentOrKeyword()
	case isDec(ch):
		return lx.scanNumber()
	default:
		return lx.scanOperatorOrPunct()
	}
}

// Peek returns the next token without consuming it.
func (lx *Lexer) Peek() token.Token {
	t := lx.Next()
	lx.look = &t
	return t
}

// All drains the lexer. The EOF token is included.
func (lx *Lexer) All() []token.Token {
	var out []token.Token
	for {
		t := lx.Next()
		out = append(out, t)
		if t.Kind == token.EOF {
			return out
		}
	}
}

func (lx *Lexer) emptySpan() source.Span {
	return source.Span{File: lx.file.ID, Start: lx.r.pos, End: lx.r.pos}
}

func (lx *Lexer) text(sp source.Span) string {
	return string(lx.file.Content[sp.Start:sp.End])
}

func (lx *Lexer) invalid(start uint32) token.Token {
	sp := lx.r.spanFrom(start)
	lx.report(diag.LexUnknownChar, sp, fmt.Sprintf("unknown character %q", lx.text(sp)))
	return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
}
