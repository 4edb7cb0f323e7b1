// Package ast holds the parse tree of the tensor DSL.
//
// A program is a list of straight-line functions. A function body is a
// sequence of single assignments followed by exactly one return. The only
// compound expression is the tensor comprehension
//
//	{ body | lower <= iv < upper }
//
// which evaluates body once per index value and collects the results.
package ast
