package parser

import (
	"dslc/internal/ast"
	"dslc/internal/diag"
	"dslc/internal/token"
)

// parseFundef parses
//
//	fn name(type a, ...) -> type { x = e; ... return e; }
//
// A body without return is accepted here; the SSA builder rejects it.
func (p *Parser) parseFundef() (*ast.Fundef, bool) {
	fnTok := p.advance()
	name, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected function name")
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '('"); !ok {
		return nil, false
	}
	params, ok := p.parseParams()
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(token.Arrow, diag.SynUnexpectedToken, "expected '->' before return type"); !ok {
		return nil, false
	}
	ret, ok := p.parseType()
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(token.LBrace, diag.SynUnexpectedToken, "expected '{' to open function body"); !ok {
		return nil, false
	}

	fn := &ast.Fundef{
		Name:     name.Text,
		Args:     params,
		RetType:  ret,
		NameSpan: name.Span,
	}
	for !p.atAny(token.KwReturn, token.RBrace, token.EOF) {
		st, ok := p.parseAssign()
		if !ok {
			return nil, false
		}
		fn.Body = append(fn.Body, st)
	}
	if p.at(token.KwReturn) {
		p.advance()
		e, ok := p.parseExpr(precLowest)
		if !ok {
			return nil, false
		}
		if _, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after return"); !ok {
			return nil, false
		}
		fn.Return = e
	}
	end, ok := p.expect(token.RBrace, diag.SynUnclosedBrace, "expected '}' to close function body")
	if !ok {
		return nil, false
	}
	fn.Span = fnTok.Span.Cover(end.Span)
	return fn, true
}

func (p *Parser) parseParams() ([]ast.Param, bool) {
	var params []ast.Param
	if p.at(token.RParen) {
		p.advance()
		return params, true
	}
	for {
		start := p.lx.Peek().Span
		ty, ok := p.parseType()
		if !ok {
			return nil, false
		}
		name, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected parameter name")
		if !ok {
			return nil, false
		}
		params = append(params, ast.Param{Type: ty, Name: name.Text, Span: start.Cover(name.Span)})
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ',' or ')' in parameter list"); !ok {
			return nil, false
		}
		return params, true
	}
}

// parseType accepts u32 or bool followed by any number of [..] suffixes.
// The bracket content may be empty, '.', or an extent name.
func (p *Parser) parseType() (ast.Type, bool) {
	var ty ast.Type
	switch p.lx.Peek().Kind {
	case token.KwU32:
		ty.Base = ast.BaseU32
	case token.KwBool:
		ty.Base = ast.BaseBool
	default:
		p.err(diag.SynExpectType, "expected type 'u32' or 'bool', found "+describe(p.lx.Peek()))
		return ty, false
	}
	p.advance()
	for p.at(token.LBracket) {
		p.advance()
		if p.atAny(token.Dot, token.Ident) {
			p.advance()
		}
		if _, ok := p.expect(token.RBracket, diag.SynExpectType, "expected ']' in array type"); !ok {
			return ty, false
		}
		ty.Rank++
	}
	return ty, true
}

func (p *Parser) parseAssign() (*ast.Assign, bool) {
	name, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected assignment or 'return'")
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(token.Assign, diag.SynUnexpectedToken, "expected '='"); !ok {
		return nil, false
	}
	e, ok := p.parseExpr(precLowest)
	if !ok {
		return nil, false
	}
	semi, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after assignment")
	if !ok {
		return nil, false
	}
	return &ast.Assign{Name: name.Text, Expr: e, Span: name.Span.Cover(semi.Span)}, true
}
