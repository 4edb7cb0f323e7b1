// Package ffi generates the foreign interface of emitted C code: a C header
// declaring every function and a cgo file wrapping each one in a Go function
// of the same name.
package ffi

import (
	"bytes"
	"fmt"
	"go/format"
	"path/filepath"
	"strings"
	"text/template"
	"unicode"

	"github.com/pkg/errors"

	"dslc/internal/codegen/cgen"
	"dslc/internal/ir"

	_ "embed"
)

//go:embed header.h.tmpl
var headerSource string

//go:embed bindings.go.tmpl
var bindingsSource string

var (
	headerTmpl   = template.Must(template.New("HeaderTMPL").Parse(headerSource))
	bindingsTmpl = template.Must(template.New("GoBindingsTMPL").Parse(bindingsSource))
)

// Options configures header and binding generation.
type Options struct {
	// Prefix must match the prefix the C code was emitted with.
	Prefix string
	// Name is the base name of the artifacts; it seeds the include guard.
	Name string
	// Package is the Go package clause of the bindings; "dsl" when empty.
	Package string
	// LDFlags, when set, becomes a #cgo LDFLAGS directive.
	LDFlags string
}

type function struct {
	Signature string
	Symbol    string
	GoName    string
	GoParams  string
	GoResult  string
	GoReturn  string
}

type unit struct {
	Guard       string
	Package     string
	LDFlags     string
	NeedsUnsafe bool
	Funcs       []function
}

// EmitHeader renders the C header declaring every function of p.
func EmitHeader(p *ir.TypedProgram, opts Options) (string, error) {
	var buf bytes.Buffer
	if err := headerTmpl.Execute(&buf, newUnit(p, opts)); err != nil {
		return "", errors.Wrap(err, "cannot render header")
	}
	return buf.String(), nil
}

// EmitGo renders the cgo bindings of p as gofmt-formatted Go source.
func EmitGo(p *ir.TypedProgram, opts Options) (string, error) {
	var buf bytes.Buffer
	if err := bindingsTmpl.Execute(&buf, newUnit(p, opts)); err != nil {
		return "", errors.Wrap(err, "cannot render bindings")
	}
	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		return buf.String(), errors.Errorf("cannot format bindings: %v", err)
	}
	return string(formatted), nil
}

func newUnit(p *ir.TypedProgram, opts Options) *unit {
	u := &unit{
		Guard:   guard(opts.Name),
		Package: opts.Package,
		LDFlags: opts.LDFlags,
	}
	if u.Package == "" {
		u.Package = "dsl"
	}
	for _, f := range p.Fundefs {
		fn, pointers := bind(f, opts.Prefix)
		u.NeedsUnsafe = u.NeedsUnsafe || pointers
		u.Funcs = append(u.Funcs, fn)
	}
	return u
}

func bind(f *ir.Fundef[ir.Type], prefix string) (function, bool) {
	symbol := cgen.Symbol(prefix, f.Name)
	usesUnsafe := !f.Result.IsScalar()

	params := make([]string, len(f.Args))
	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		name := GoIdent(a.Name)
		params[i] = name + " " + GoType(a.Type)
		args[i] = toC(a.Type, name)
		usesUnsafe = usesUnsafe || !a.Type.IsScalar()
	}
	call := fmt.Sprintf("C.%s(%s)", symbol, strings.Join(args, ", "))
	return function{
		Signature: cgen.Signature(f, prefix),
		Symbol:    symbol,
		GoName:    GoIdent(f.Name),
		GoParams:  strings.Join(params, ", "),
		GoResult:  GoType(f.Result),
		GoReturn:  fromC(f.Result, call),
	}, usesUnsafe
}

// GoType spells t in Go; vectors are pointers to their C buffers.
func GoType(t ir.Type) string {
	base := "uint32"
	if t.Base == ir.BaseBool {
		base = "bool"
	}
	return strings.Repeat("*", int(t.Shape.Rank)) + base
}

func cgoType(t ir.Type) string {
	base := "C.uint32_t"
	if t.Base == ir.BaseBool {
		base = "C.bool"
	}
	return strings.Repeat("*", int(t.Shape.Rank)) + base
}

func toC(t ir.Type, v string) string {
	if t.IsScalar() {
		return fmt.Sprintf("%s(%s)", cgoType(t), v)
	}
	return fmt.Sprintf("(%s)(unsafe.Pointer(%s))", cgoType(t), v)
}

func fromC(t ir.Type, v string) string {
	if t.IsScalar() {
		return fmt.Sprintf("%s(%s)", GoType(t), v)
	}
	return fmt.Sprintf("(%s)(unsafe.Pointer(%s))", GoType(t), v)
}

var goKeywords = map[string]bool{
	"break": true, "case": true, "chan": true, "const": true, "continue": true,
	"default": true, "defer": true, "else": true, "fallthrough": true, "for": true,
	"func": true, "go": true, "goto": true, "if": true, "import": true,
	"interface": true, "map": true, "package": true, "range": true, "return": true,
	"select": true, "struct": true, "switch": true, "type": true, "var": true,
	"init": true, "C": true, "unsafe": true,
}

// GoIdent maps a DSL identifier to a usable Go identifier.
func GoIdent(name string) string {
	if goKeywords[name] {
		return name + "_"
	}
	return name
}

func guard(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if name == "" || base == "." {
		base = "dsl"
	}
	var sb strings.Builder
	if unicode.IsDigit(rune(base[0])) {
		sb.WriteString("DSL_")
	}
	for _, r := range base {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			sb.WriteRune(unicode.ToUpper(r))
		} else {
			sb.WriteByte('_')
		}
	}
	sb.WriteString("_H")
	return sb.String()
}
