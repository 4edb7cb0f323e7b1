package ir

import (
	"fmt"

	"dslc/internal/arena"
)

// RefKind discriminates ArgOrVar.
type RefKind uint8

const (
	RefArg RefKind = iota
	RefVar
	RefIndexVector
)

// ArgOrVar refers to a value: a function argument by position, an SSA
// definition by key, or a comprehension index vector by key. T is phantom.
type ArgOrVar[T Meta] struct {
	Kind RefKind
	Pos  int
	Key  arena.Key
}

func Arg[T Meta](pos int) ArgOrVar[T] {
	return ArgOrVar[T]{Kind: RefArg, Pos: pos}
}

func Var[T Meta](k arena.Key) ArgOrVar[T] {
	return ArgOrVar[T]{Kind: RefVar, Key: k}
}

func IndexVector[T Meta](k arena.Key) ArgOrVar[T] {
	return ArgOrVar[T]{Kind: RefIndexVector, Key: k}
}

func (r ArgOrVar[T]) IsArg() bool { return r.Kind == RefArg }
func (r ArgOrVar[T]) IsVar() bool { return r.Kind == RefVar }
func (r ArgOrVar[T]) IsIV() bool  { return r.Kind == RefIndexVector }

func (r ArgOrVar[T]) String() string {
	switch r.Kind {
	case RefArg:
		return fmt.Sprintf("arg%d", r.Pos)
	case RefVar:
		return "var " + r.Key.String()
	case RefIndexVector:
		return "iv " + r.Key.String()
	}
	return "<bad ref>"
}

// Avis is the per-identifier record: name, metadata and role.
type Avis[T Meta] struct {
	Name string
	Type T
	Role ArgOrVar[T]
}
