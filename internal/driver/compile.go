// Package driver runs the compilation pipeline over DSL source files:
// parse, SSA conversion, type inference, optional IR verification and the
// C, header and cgo emitters. Per-function failures end up as diagnostics
// in the file's bag; the error return is reserved for I/O and cancellation.
package driver

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"strings"

	"dslc/internal/ast"
	"dslc/internal/codegen/cgen"
	"dslc/internal/codegen/ffi"
	"dslc/internal/diag"
	"dslc/internal/ir"
	"dslc/internal/irdump"
	"dslc/internal/irverify"
	"dslc/internal/observ"
	"dslc/internal/parser"
	"dslc/internal/project"
	"dslc/internal/source"
	"dslc/internal/ssa"
	"dslc/internal/trace"
	"dslc/internal/typeinfer"
	"dslc/internal/undossa"
)

// Artifacts are the rendered outputs of one file. An empty string means the
// artifact was not requested or nothing could be emitted.
type Artifacts struct {
	C      string `msgpack:"c"`
	Header string `msgpack:"h"`
	Go     string `msgpack:"go"`
	SSA    string `msgpack:"ssa"`
	Typed  string `msgpack:"typed"`
	Undo   string `msgpack:"undo"`
}

// Result is everything known about one compiled file.
type Result struct {
	Path    string
	FileSet *source.FileSet
	FileID  source.FileID
	Bag     *diag.Bag

	// The intermediate forms are nil when the result came from the cache.
	AST   *ast.Program
	SSA   *ir.UntypedProgram
	Typed *ir.TypedProgram

	Stats     irverify.Stats
	Artifacts Artifacts
	Timing    observ.Report
	Cached    bool
}

// BaseName is the file name without directory and extension. It names the
// generated artifacts.
func (r *Result) BaseName() string {
	base := filepath.Base(r.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// CompileFile loads path into a fresh FileSet and compiles it.
func CompileFile(ctx context.Context, path string, opts Options) (*Result, error) {
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		return nil, err
	}
	return CompileSource(ctx, fs, id, opts)
}

// CompileSource compiles the file id of fs. fs is only read.
func CompileSource(ctx context.Context, fs *source.FileSet, id source.FileID, opts Options) (*Result, error) {
	file := fs.Get(id)
	span, ctx := trace.Start(ctx, trace.ScopeDriver, "compile")
	defer span.End(file.Path)

	c := &compilation{
		ctx:   ctx,
		opts:  opts,
		timer: observ.NewTimer(),
		res: &Result{
			Path:    file.Path,
			FileSet: fs,
			FileID:  id,
			Bag:     diag.NewBag(opts.MaxDiagnostics),
		},
		fallback: source.Span{File: id},
	}
	err := c.run(file)
	c.res.Timing = c.timer.Report()
	if err != nil {
		return nil, err
	}
	return c.res, nil
}

type compilation struct {
	ctx      context.Context
	opts     Options
	timer    *observ.Timer
	res      *Result
	fallback source.Span
}

func (c *compilation) report(err error) {
	for _, d := range diag.ToDiagnostics(err, c.fallback) {
		c.res.Bag.Add(d)
	}
}

func (c *compilation) phase(name string, fn func() string) error {
	if err := c.ctx.Err(); err != nil {
		return err
	}
	c.timer.Time(name, fn)
	return nil
}

func (c *compilation) run(file *source.File) error {
	res := c.res
	steps := []struct {
		name string
		fn   func() string
	}{
		{"parse", func() string {
			res.AST = parser.ParseFile(file, parser.Options{Reporter: diag.BagReporter{Bag: res.Bag}})
			return plural(len(res.AST.Fundefs), "fn")
		}},
		{"ssa", func() string {
			var err error
			res.SSA, err = ssa.ConvertProgram(c.ctx, res.AST)
			c.report(err)
			if c.opts.Verify {
				c.report(irverify.Check(res.SSA))
			}
			return plural(len(res.SSA.Fundefs), "fn")
		}},
		{"typeinfer", func() string {
			var err error
			res.Typed, err = typeinfer.InferProgram(c.ctx, res.SSA)
			c.report(err)
			if c.opts.Verify {
				c.report(irverify.Check(res.Typed))
				_, err = typeinfer.Reinfer(c.ctx, res.Typed)
				c.report(err)
			}
			res.Stats = irverify.Collect(res.Typed)
			return plural(len(res.Typed.Fundefs), "fn")
		}},
		{"emit", c.emit},
		{"dump", c.dump},
	}
	for _, st := range steps {
		if err := c.phase(st.name, st.fn); err != nil {
			return err
		}
	}
	return nil
}

func (c *compilation) emit() string {
	res := c.res
	emitted := res.Typed
	if c.opts.emits(project.EmitC) || c.opts.emits(project.EmitHeader) || c.opts.emits(project.EmitGo) {
		text, err := cgen.EmitProgram(c.ctx, res.Typed, cgen.Options{Prefix: c.opts.Prefix})
		c.report(err)
		if c.opts.emits(project.EmitC) {
			res.Artifacts.C = text
		}
		emitted = withoutFailed(res.Typed, err)
	}

	fopts := ffi.Options{
		Prefix:  c.opts.Prefix,
		Name:    res.BaseName(),
		Package: c.opts.GoPackage,
		LDFlags: c.opts.LDFlags,
	}
	if c.opts.emits(project.EmitHeader) {
		text, err := ffi.EmitHeader(emitted, fopts)
		c.report(err)
		res.Artifacts.Header = text
	}
	if c.opts.emits(project.EmitGo) {
		text, err := ffi.EmitGo(emitted, fopts)
		c.report(err)
		res.Artifacts.Go = text
	}
	return plural(len(emitted.Fundefs), "fn")
}

func (c *compilation) dump() string {
	res := c.res
	dopts := irdump.DumpOptions{Keys: c.opts.DumpKeys}
	if c.opts.Dumps&DumpSSA != 0 {
		res.Artifacts.SSA = irdump.String(res.SSA, dopts)
	}
	if c.opts.Dumps&DumpTyped != 0 {
		res.Artifacts.Typed = irdump.String(res.Typed, dopts)
	}
	if c.opts.Dumps&DumpUndo != 0 {
		prog, err := undossa.Program(res.Typed)
		c.report(err)
		if prog != nil {
			res.Artifacts.Undo = ast.Format(prog)
		}
	}
	return ""
}

// withoutFailed drops the functions named by err's leaves, so the header
// and bindings only declare functions that have a C definition.
func withoutFailed(p *ir.TypedProgram, err error) *ir.TypedProgram {
	if err == nil {
		return p
	}
	failed := make(map[string]bool)
	for _, d := range diag.ToDiagnostics(err, source.Span{}) {
		failed[d.Func] = true
	}
	out := &ir.TypedProgram{}
	for _, f := range p.Fundefs {
		if !failed[f.Name] {
			out.Fundefs = append(out.Fundefs, f)
		}
	}
	return out
}

func plural(n int, what string) string {
	if n == 1 {
		return "1 " + what
	}
	return strconv.Itoa(n) + " " + what + "s"
}

// IsCanceled reports whether err stems from context cancellation.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
