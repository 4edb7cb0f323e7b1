package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"dslc/internal/diag"
	"dslc/internal/source"
)

type palette struct {
	err, warn, info, code, gutter, caret, note *color.Color
}

func newPalette(enabled bool) *palette {
	p := &palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		code:   color.New(color.Bold),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgGreen, color.Bold),
		note:   color.New(color.FgCyan),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.code, p.gutter, p.caret, p.note} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	}
	return p.info
}

// Pretty renders the diagnostics of bag, in bag order, as
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// followed by the source line with the primary span underlined.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	p := newPalette(opts.Color)
	for _, d := range bag.Items() {
		prettyOne(w, p, d, fs, opts)
	}
}

func prettyOne(w io.Writer, p *palette, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	path, ok := spanPath(fs, d.Primary, opts.PathMode, opts.BaseDir)
	loc := path
	if ok {
		start, _ := fs.Resolve(d.Primary)
		loc = fmt.Sprintf("%s:%d:%d", path, start.Line, start.Col)
	}
	msg := d.Message
	if d.Func != "" && !strings.HasPrefix(msg, d.Func+":") {
		msg += fmt.Sprintf(" (in fn %s)", d.Func)
	}
	fmt.Fprintf(w, "%s: %s %s: %s\n", loc, p.severity(d.Severity).Sprint(d.Severity), p.code.Sprint(d.Code.ID()), msg)
	if ok {
		snippet(w, p, fs, d.Primary, opts.Context)
	}
	if !opts.ShowNotes {
		return
	}
	for _, n := range d.Notes {
		npath, nok := spanPath(fs, n.Span, opts.PathMode, opts.BaseDir)
		if nok {
			start, _ := fs.Resolve(n.Span)
			npath = fmt.Sprintf("%s:%d:%d", npath, start.Line, start.Col)
		}
		fmt.Fprintf(w, "  %s %s: %s\n", p.note.Sprint("note:"), npath, n.Msg)
	}
}

func snippet(w io.Writer, p *palette, fs *source.FileSet, sp source.Span, context int8) {
	f := fs.Get(sp.File)
	start, end := fs.Resolve(sp)
	first := start.Line
	if ctx := uint32(max(context, 0)); ctx < start.Line {
		first = start.Line - ctx
	} else {
		first = 1
	}
	width := len(fmt.Sprint(start.Line))
	for ln := first; ln <= start.Line; ln++ {
		fmt.Fprintf(w, "%s %s\n", p.gutter.Sprintf("%*d |", width, ln), f.Line(ln))
	}

	line := f.Line(start.Line)
	from := min(int(start.Col)-1, len(line))
	to := len(line)
	if end.Line == start.Line {
		to = min(max(int(end.Col)-1, from), len(line))
	}
	marks := "^" + strings.Repeat("~", max(runewidth.StringWidth(line[from:to])-1, 0))
	fmt.Fprintf(w, "%s %s%s\n", p.gutter.Sprintf("%*s |", width, ""), pad(line[:from]), p.caret.Sprint(marks))
}

// pad reproduces the display width of prefix with blanks, keeping tabs so
// the caret lines up under tab-indented source.
func pad(prefix string) string {
	var sb strings.Builder
	for _, r := range prefix {
		if r == '\t' {
			sb.WriteByte('\t')
			continue
		}
		sb.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	return sb.String()
}
