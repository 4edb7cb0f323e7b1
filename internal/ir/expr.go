package ir

import (
	"dslc/internal/arena"
	"dslc/internal/source"
)

// ExprKind enumerates expression node kinds.
type ExprKind uint8

const (
	ExprTensor ExprKind = iota
	ExprBinary
	ExprUnary
	ExprBool
	ExprU32
)

func (k ExprKind) String() string {
	switch k {
	case ExprTensor:
		return "Tensor"
	case ExprBinary:
		return "Binary"
	case ExprUnary:
		return "Unary"
	case ExprBool:
		return "Bool"
	case ExprU32:
		return "U32"
	}
	return "Unknown"
}

// Expr is the right-hand side of one SSA definition. Operands are always
// references, never nested expressions.
type Expr[T Meta] interface {
	Kind() ExprKind
	Pos() source.Span
	exprNode(T)
}

// Scope is one lexical level: the identifiers it declares and the SSA
// definitions of its Var keys.
type Scope[T Meta] struct {
	Ids *arena.Arena[Avis[T]]
	SSA *arena.Secondary[Expr[T]]
}

// NewScope creates an empty scope drawing keys from gen.
func NewScope[T Meta](gen *arena.Keys) Scope[T] {
	return Scope[T]{
		Ids: arena.New[Avis[T]](gen),
		SSA: arena.NewSecondary[Expr[T]](),
	}
}

// Tensor is a comprehension { Ret | Lower <= IV < Upper }. Lower and Upper
// live in the enclosing scope; IV and the body live in Scope.
type Tensor[T Meta] struct {
	Scope[T]
	IV    arena.Key
	Lower ArgOrVar[T]
	Upper ArgOrVar[T]
	Ret   ArgOrVar[T]
	Span  source.Span
}

type Binary[T Meta] struct {
	L, R ArgOrVar[T]
	Op   BinOp
	Span source.Span
}

type Unary[T Meta] struct {
	R    ArgOrVar[T]
	Op   UnOp
	Span source.Span
}

type Bool[T Meta] struct {
	Value bool
	Span  source.Span
}

type U32[T Meta] struct {
	Value uint32
	Span  source.Span
}

func (*Tensor[T]) Kind() ExprKind { return ExprTensor }
func (*Binary[T]) Kind() ExprKind { return ExprBinary }
func (*Unary[T]) Kind() ExprKind  { return ExprUnary }
func (*Bool[T]) Kind() ExprKind   { return ExprBool }
func (*U32[T]) Kind() ExprKind    { return ExprU32 }

func (e *Tensor[T]) Pos() source.Span { return e.Span }
func (e *Binary[T]) Pos() source.Span { return e.Span }
func (e *Unary[T]) Pos() source.Span  { return e.Span }
func (e *Bool[T]) Pos() source.Span   { return e.Span }
func (e *U32[T]) Pos() source.Span    { return e.Span }

func (*Tensor[T]) exprNode(T) {}
func (*Binary[T]) exprNode(T) {}
func (*Unary[T]) exprNode(T)  {}
func (*Bool[T]) exprNode(T)   {}
func (*U32[T]) exprNode(T)    {}

// IsLiteral reports Bool and U32 nodes.
func IsLiteral[T Meta](e Expr[T]) bool {
	k := e.Kind()
	return k == ExprBool || k == ExprU32
}
