// Package traverse implements the two generic walks every IR pass is built
// from.
//
// A Visitor walks a program read-only and folds a result with Combine.
// Nil hooks fall back to the default recursion, so a pass only spells out
// the node kinds it cares about.
//
// A Rewriter rebuilds a program in another typestate. It keeps an input
// and an output scope stack in lockstep, rewrites each definition exactly
// once and mints its new key in the output level matching the input level
// that declared it.
package traverse
