package parser

import (
	"fmt"
	"strconv"

	"dslc/internal/ast"
	"dslc/internal/diag"
	"dslc/internal/token"
)

// parseExpr parses a binary expression whose operators bind at least as
// tightly as minPrec.
func (p *Parser) parseExpr(minPrec int) (ast.Expr, bool) {
	lhs, ok := p.parseUnary()
	if !ok {
		return nil, false
	}
	for {
		op, isOp := binaryOp(p.lx.Peek().Kind)
		if !isOp || op.Precedence() < minPrec {
			return lhs, true
		}
		p.advance()
		rhs, ok := p.parseExpr(op.Precedence() + 1)
		if !ok {
			return nil, false
		}
		lhs = &ast.Binary{L: lhs, R: rhs, Op: op, Span: lhs.Pos().Cover(rhs.Pos())}

		if !op.Associative() {
			if next, ok := binaryOp(p.lx.Peek().Kind); ok && next.Precedence() == op.Precedence() {
				p.err(diag.SynNonAssociative,
					fmt.Sprintf("operator %s cannot follow %s without parentheses", next, op))
				return nil, false
			}
		}
	}
}

func (p *Parser) parseUnary() (ast.Expr, bool) {
	var op ast.UnOp
	switch p.lx.Peek().Kind {
	case token.Minus:
		op = ast.Neg
	case token.Bang:
		op = ast.Not
	default:
		return p.parsePrimary()
	}
	tok := p.advance()
	operand, ok := p.parseUnary()
	if !ok {
		return nil, false
	}
	return &ast.Unary{R: operand, Op: op, Span: tok.Span.Cover(operand.Pos())}, true
}

func (p *Parser) parsePrimary() (ast.Expr, bool) {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.IntLit:
		p.advance()
		v, err := strconv.ParseUint(tok.Text, 10, 32)
		if err != nil {
			// already reported by the lexer; drop the function
			return nil, false
		}
		return &ast.U32{Value: uint32(v), Span: tok.Span}, true
	case token.KwTrue, token.KwFalse:
		p.advance()
		return &ast.Bool{Value: tok.Kind == token.KwTrue, Span: tok.Span}, true
	case token.Ident:
		p.advance()
		return &ast.Identifier{Name: tok.Text, Span: tok.Span}, true
	case token.LParen:
		p.advance()
		e, ok := p.parseExpr(precLowest)
		if !ok {
			return nil, false
		}
		if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')'"); !ok {
			return nil, false
		}
		return e, true
	case token.LBrace:
		return p.parseTensor()
	}
	p.err(diag.SynExpectExpression, "expected expression, found "+describe(tok))
	return nil, false
}

// parseTensor parses { body | lower <= iv < upper }.
func (p *Parser) parseTensor() (ast.Expr, bool) {
	open := p.advance()
	body, ok := p.parseExpr(precLowest)
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(token.Pipe, diag.SynBadComprehension, "expected '|' after comprehension body"); !ok {
		return nil, false
	}
	lower, ok := p.parseExpr(precBound)
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(token.LtEq, diag.SynBadComprehension, "expected '<=' after lower bound"); !ok {
		return nil, false
	}
	iv, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected index variable")
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(token.Lt, diag.SynBadComprehension, "expected '<' before upper bound"); !ok {
		return nil, false
	}
	upper, ok := p.parseExpr(precBound)
	if !ok {
		return nil, false
	}
	closing, ok := p.expect(token.RBrace, diag.SynUnclosedBrace, "expected '}' to close comprehension")
	if !ok {
		return nil, false
	}
	return &ast.Tensor{
		Body:   body,
		IV:     iv.Text,
		Lower:  lower,
		Upper:  upper,
		Span:   open.Span.Cover(closing.Span),
		IVSpan: iv.Span,
	}, true
}
