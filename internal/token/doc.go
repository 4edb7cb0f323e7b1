// Package token defines lexical token kinds for the tensor DSL.
// Invariants:
//   - Token.Text is the exact source text covered by Token.Span.
//   - Built-in type names (u32, bool) are keywords, not identifiers.
//   - Identifiers start with an ASCII letter, so names beginning with '_'
//     are free for compiler-generated temporaries.
package token
