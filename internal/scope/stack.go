// Package scope implements the lexical scope stack every IR pass threads
// while walking a function: the function's own scope at the bottom and one
// level per enclosing comprehension above it.
package scope

import (
	"dslc/internal/arena"
	"dslc/internal/ir"
)

// Stack resolves keys innermost to outermost. Arguments of the function
// being walked are resolved positionally through SetArgs.
type Stack[T ir.Meta] struct {
	args   []ir.Avis[T]
	levels []ir.Scope[T]
}

// New returns an empty stack bound to the given argument list.
func New[T ir.Meta](args []ir.Avis[T]) *Stack[T] {
	return &Stack[T]{args: args}
}

// SetArgs replaces the arguments Arg references resolve against.
func (s *Stack[T]) SetArgs(args []ir.Avis[T]) {
	s.args = args
}

func (s *Stack[T]) Args() []ir.Avis[T] {
	return s.args
}

// PushScope enters a new innermost level.
func (s *Stack[T]) PushScope(sc ir.Scope[T]) {
	s.levels = append(s.levels, sc)
}

// PopScope leaves the innermost level and returns it.
func (s *Stack[T]) PopScope() ir.Scope[T] {
	n := len(s.levels)
	if n == 0 {
		ir.Bug("scope: pop on empty stack")
	}
	top := s.levels[n-1]
	s.levels = s.levels[:n-1]
	return top
}

// Len is the number of open levels.
func (s *Stack[T]) Len() int {
	return len(s.levels)
}

// Top returns the innermost level.
func (s *Stack[T]) Top() ir.Scope[T] {
	if len(s.levels) == 0 {
		ir.Bug("scope: top of empty stack")
	}
	return s.levels[len(s.levels)-1]
}

// Level returns level d, 0 being the function scope.
func (s *Stack[T]) Level(d int) ir.Scope[T] {
	if d < 0 || d >= len(s.levels) {
		ir.Bug("scope: level %d out of range (depth %d)", d, len(s.levels))
	}
	return s.levels[d]
}

// Depth returns the level declaring k, searching innermost first, or -1.
func (s *Stack[T]) Depth(k arena.Key) int {
	for d := len(s.levels) - 1; d >= 0; d-- {
		if s.levels[d].Ids.Has(k) {
			return d
		}
	}
	return -1
}

// Lookup is the non-panicking form of FindKey.
func (s *Stack[T]) Lookup(k arena.Key) (ir.Avis[T], bool) {
	if d := s.Depth(k); d >= 0 {
		return s.levels[d].Ids.Get(k)
	}
	return ir.Avis[T]{}, false
}

// FindKey returns the Avis of k. A key that no open level declares is a
// broken invariant.
func (s *Stack[T]) FindKey(k arena.Key) ir.Avis[T] {
	avis, ok := s.Lookup(k)
	if !ok {
		ir.Bug("scope: key %s not declared in any of %d open levels", k, len(s.levels))
	}
	return avis
}

// FindSSA returns the definition of k from the level declaring it. Index
// vectors have an Avis but no definition, in which case ok is false.
func (s *Stack[T]) FindSSA(k arena.Key) (ir.Expr[T], bool) {
	d := s.Depth(k)
	if d < 0 {
		ir.Bug("scope: ssa lookup of undeclared key %s", k)
	}
	return s.levels[d].SSA.Get(k)
}

// FindID resolves any reference to its Avis.
func (s *Stack[T]) FindID(ref ir.ArgOrVar[T]) ir.Avis[T] {
	if ref.IsArg() {
		if ref.Pos < 0 || ref.Pos >= len(s.args) {
			ir.Bug("scope: argument %d out of range (%d args)", ref.Pos, len(s.args))
		}
		return s.args[ref.Pos]
	}
	return s.FindKey(ref.Key)
}
