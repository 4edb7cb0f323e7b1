// Package ir defines the scoped SSA representation shared by every pass.
//
// A Program is parameterised by its typestate: UntypedProgram carries
// MaybeType metadata as produced by the SSA builder, TypedProgram carries
// fully inferred Type metadata. References (ArgOrVar) carry the same
// parameter, so a key taken from an untyped program cannot be used to index
// a typed one.
//
// Each Fundef and each Tensor owns a Scope: an arena of Avis records and a
// secondary table of SSA definitions keyed by the same keys. Arguments and
// comprehension index vectors have an Avis but no definition.
package ir
