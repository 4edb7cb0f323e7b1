package ir

import (
	"dslc/internal/arena"
	"dslc/internal/source"
)

// Fundef is one function. Args are addressed positionally through Arg refs;
// Ret names the returned value. Result is the declared return type.
type Fundef[T Meta] struct {
	Scope[T]
	Name   string
	Args   []Avis[T]
	Result T
	Ret    ArgOrVar[T]
	Span   source.Span
}

// Keys returns the generator shared by every scope of the function.
func (f *Fundef[T]) Keys() *arena.Keys {
	return f.Ids.Generator()
}

// Program is an ordered list of functions.
type Program[T Meta] struct {
	Fundefs []*Fundef[T]
}

type (
	UntypedProgram = Program[MaybeType]
	TypedProgram   = Program[Type]
)

// Lookup finds a function by name.
func (p *Program[T]) Lookup(name string) (*Fundef[T], bool) {
	for _, f := range p.Fundefs {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// HasTensor reports whether any function contains a comprehension. Nested
// comprehensions always sit inside a function-level one, so only the outer
// scopes are inspected.
func (p *Program[T]) HasTensor() bool {
	for _, f := range p.Fundefs {
		for _, e := range f.SSA.All() {
			if e.Kind() == ExprTensor {
				return true
			}
		}
	}
	return false
}
