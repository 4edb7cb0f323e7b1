package ast

import "dslc/internal/source"

type Program struct {
	Fundefs []*Fundef
}

type Param struct {
	Type Type
	Name string
	Span source.Span
}

type Fundef struct {
	Name    string
	Args    []Param
	RetType Type
	Body    []Stmt
	// Return is nil when the body has no return statement.
	Return   Expr
	Span     source.Span
	NameSpan source.Span
}

// Stmt is a statement. Assign is the only kind.
type Stmt interface {
	Pos() source.Span
	stmtNode()
}

type Assign struct {
	Name string
	Expr Expr
	Span source.Span
}

func (s *Assign) Pos() source.Span { return s.Span }
func (*Assign) stmtNode()          {}

type Expr interface {
	Pos() source.Span
	exprNode()
}

type Tensor struct {
	Body   Expr
	IV     string
	Lower  Expr
	Upper  Expr
	Span   source.Span
	IVSpan source.Span
}

type Binary struct {
	L, R Expr
	Op   BinOp
	Span source.Span
}

type Unary struct {
	R    Expr
	Op   UnOp
	Span source.Span
}

type Identifier struct {
	Name string
	Span source.Span
}

type Bool struct {
	Value bool
	Span  source.Span
}

type U32 struct {
	Value uint32
	Span  source.Span
}

func (e *Tensor) Pos() source.Span     { return e.Span }
func (e *Binary) Pos() source.Span     { return e.Span }
func (e *Unary) Pos() source.Span      { return e.Span }
func (e *Identifier) Pos() source.Span { return e.Span }
func (e *Bool) Pos() source.Span       { return e.Span }
func (e *U32) Pos() source.Span        { return e.Span }

func (*Tensor) exprNode()     {}
func (*Binary) exprNode()     {}
func (*Unary) exprNode()      {}
func (*Identifier) exprNode() {}
func (*Bool) exprNode()       {}
func (*U32) exprNode()        {}
