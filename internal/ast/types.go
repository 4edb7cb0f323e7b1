package ast

import "strings"

// BaseType is the element type named in source.
type BaseType uint8

const (
	BaseU32 BaseType = iota
	BaseBool
)

func (b BaseType) String() string {
	if b == BaseBool {
		return "bool"
	}
	return "u32"
}

// Type is a declared type: a base and one rank per `[...]` suffix. Extent
// names written inside the brackets are not tracked.
type Type struct {
	Base BaseType
	Rank uint8
}

func (t Type) String() string {
	var sb strings.Builder
	sb.WriteString(t.Base.String())
	for range t.Rank {
		sb.WriteString("[.]")
	}
	return sb.String()
}
