package typeinfer

import (
	"dslc/internal/diag"
	"dslc/internal/ir"
)

// unify requires a and b to be the same type. A differing base reports a
// type mismatch, a differing rank a shape mismatch.
func unify(a, b ir.Type) (ir.Type, diag.Code, bool) {
	if a.Base != b.Base {
		return ir.Type{}, diag.SemaTypeMismatch, false
	}
	if a.Shape != b.Shape {
		return ir.Type{}, diag.SemaShapeMismatch, false
	}
	return a, diag.UnknownCode, true
}
