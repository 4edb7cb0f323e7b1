package parser

import (
	"dslc/internal/ast"
	"dslc/internal/token"
)

const (
	precLowest = 1
	// precBound parses comprehension bounds: arithmetic only, so the
	// surrounding <= and < are not swallowed.
	precBound = 4
)

var binaryOps = map[token.Kind]ast.BinOp{
	token.EqEq:   ast.Eq,
	token.BangEq: ast.Ne,
	token.Lt:     ast.Lt,
	token.LtEq:   ast.Le,
	token.Gt:     ast.Gt,
	token.GtEq:   ast.Ge,
	token.Plus:   ast.Add,
	token.Minus:  ast.Sub,
	token.Star:   ast.Mul,
	token.Slash:  ast.Div,
}

func binaryOp(k token.Kind) (ast.BinOp, bool) {
	op, ok := binaryOps[k]
	return op, ok
}
