// Package parser builds the ast of one DSL file with a recursive descent
// parser; binary expressions use precedence climbing over op_table.go.
package parser

import (
	"slices"

	"dslc/internal/ast"
	"dslc/internal/diag"
	"dslc/internal/lexer"
	"dslc/internal/source"
	"dslc/internal/token"
)

type Options struct {
	// MaxErrors stops parsing after that many syntax errors; 0 means no limit.
	MaxErrors uint
	Reporter  diag.Reporter
}

// Parser holds the state for a single file.
type Parser struct {
	lx       *lexer.Lexer
	file     source.FileID
	opts     Options
	errors   uint
	lastSpan source.Span
}

// ParseFile parses every function of file. Functions with syntax errors are
// reported and skipped; the rest are returned.
func ParseFile(file *source.File, opts Options) *ast.Program {
	if opts.Reporter != nil {
		opts.Reporter = diag.Once(opts.Reporter)
	}
	p := &Parser{
		lx:   lexer.New(file, lexer.Options{Reporter: opts.Reporter}),
		file: file.ID,
		opts: opts,
	}
	return p.parseProgram()
}

// ParseString is a convenience wrapper for tests and tooling.
func ParseString(fs *source.FileSet, name, src string, r diag.Reporter) *ast.Program {
	id := fs.AddVirtual(name, []byte(src))
	return ParseFile(fs.Get(id), Options{Reporter: r})
}

func (p *Parser) at(k token.Kind) bool {
	return p.lx.Peek().Kind == k
}

func (p *Parser) atAny(kinds ...token.Kind) bool {
	return slices.Contains(kinds, p.lx.Peek().Kind)
}

func (p *Parser) enough() bool {
	return p.opts.MaxErrors != 0 && p.errors >= p.opts.MaxErrors
}

func (p *Parser) parseProgram() *ast.Program {
	prog := &ast.Program{}
	for !p.at(token.EOF) && !p.enough() {
		if !p.at(token.KwFn) {
			p.err(diag.SynUnexpectedTopLevel, "expected 'fn' at top level, found "+describe(p.lx.Peek()))
			p.resyncTop()
			continue
		}
		fn, ok := p.parseFundef()
		if !ok {
			p.resyncTop()
			continue
		}
		prog.Fundefs = append(prog.Fundefs, fn)
	}
	return prog
}

// resyncTop skips to the next 'fn' keyword, always consuming at least one
// token so the top-level loop makes progress.
func (p *Parser) resyncTop() {
	if !p.at(token.EOF) {
		p.advance()
	}
	for !p.atAny(token.KwFn, token.EOF) {
		p.advance()
	}
}
