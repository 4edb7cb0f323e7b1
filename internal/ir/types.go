package ir

import "strings"

// Typestate tells which phase a program belongs to.
type Typestate uint8

const (
	Untyped Typestate = iota
	Typed
)

func (s Typestate) String() string {
	if s == Typed {
		return "typed"
	}
	return "untyped"
}

// BaseType is the element type of a value.
type BaseType uint8

const (
	InvalidBase BaseType = iota
	BaseU32
	BaseBool
)

func (b BaseType) String() string {
	switch b {
	case BaseU32:
		return "u32"
	case BaseBool:
		return "bool"
	}
	return "<invalid>"
}

// Shape is a rank marker: 0 is a scalar, every comprehension nesting level
// adds one.
type Shape struct {
	Rank uint8
}

// Scalar is the rank-0 shape.
var Scalar = Shape{}

// Deeper returns the shape one nesting level further out.
func (s Shape) Deeper() Shape {
	return Shape{Rank: s.Rank + 1}
}

func (s Shape) IsScalar() bool { return s.Rank == 0 }

// Type is the fully known type of a value.
type Type struct {
	Base  BaseType
	Shape Shape
}

func (Type) Typestate() Typestate { return Typed }

func (t Type) IsScalar() bool { return t.Shape.IsScalar() }

func (t Type) String() string {
	var sb strings.Builder
	sb.WriteString(t.Base.String())
	for range t.Shape.Rank {
		sb.WriteString("[.]")
	}
	return sb.String()
}

// ScalarOf builds a rank-0 type.
func ScalarOf(b BaseType) Type {
	return Type{Base: b}
}

// MaybeType is the metadata of untyped programs: declared types of
// arguments and returns are known, everything else is not.
type MaybeType struct {
	Type  Type
	Known bool
}

func (MaybeType) Typestate() Typestate { return Untyped }

// Known wraps a declared type.
func Known(t Type) MaybeType {
	return MaybeType{Type: t, Known: true}
}

// Unknown is the metadata of a value whose type is still to be inferred.
func Unknown() MaybeType {
	return MaybeType{}
}

// Get returns the type and whether it is known.
func (m MaybeType) Get() (Type, bool) {
	return m.Type, m.Known
}

func (m MaybeType) String() string {
	if !m.Known {
		return "?"
	}
	return m.Type.String()
}

// Meta is the typestate constraint over per-identifier metadata.
type Meta interface {
	MaybeType | Type
	Typestate() Typestate
}
