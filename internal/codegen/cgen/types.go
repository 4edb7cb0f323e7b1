package cgen

import (
	"strconv"
	"strings"

	"dslc/internal/ir"
)

// DefaultPrefix is prepended to every emitted function name.
const DefaultPrefix = "DSL_"

var cBase = map[ir.BaseType]string{
	ir.BaseU32:  "uint32_t",
	ir.BaseBool: "bool",
}

// CType spells t in C: the scalar type followed by one '*' per rank.
func CType(t ir.Type) string {
	base, ok := cBase[t.Base]
	if !ok {
		ir.Bug("cgen: no C type for %s", t)
	}
	if t.IsScalar() {
		return base
	}
	return base + " " + strings.Repeat("*", int(t.Shape.Rank))
}

// Decl declares name with type t, e.g. "uint32_t *res".
func Decl(t ir.Type, name string) string {
	ct := CType(t)
	if strings.HasSuffix(ct, "*") {
		return ct + name
	}
	return ct + " " + name
}

// Symbol is the C name of DSL function name.
func Symbol(prefix, name string) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return prefix + name
}

// ParamNames returns the C spelling of the parameters of f.
func ParamNames(f *ir.Fundef[ir.Type]) []string {
	used := make(map[string]bool, len(f.Args))
	out := make([]string, len(f.Args))
	for i, a := range f.Args {
		out[i] = unique(used, Ident(a.Name))
	}
	return out
}

// Signature is the C prototype of f without a trailing semicolon.
func Signature(f *ir.Fundef[ir.Type], prefix string) string {
	names := ParamNames(f)
	params := make([]string, len(f.Args))
	for i, a := range f.Args {
		params[i] = Decl(a.Type, names[i])
	}
	if len(params) == 0 {
		params = []string{"void"}
	}
	return Decl(f.Result, Symbol(prefix, f.Name)) + "(" + strings.Join(params, ", ") + ")"
}

var cKeywords = map[string]bool{
	"auto": true, "break": true, "case": true, "char": true, "const": true,
	"continue": true, "default": true, "do": true, "double": true, "else": true,
	"enum": true, "extern": true, "float": true, "for": true, "goto": true,
	"if": true, "inline": true, "int": true, "long": true, "register": true,
	"restrict": true, "return": true, "short": true, "signed": true, "sizeof": true,
	"static": true, "struct": true, "switch": true, "typedef": true, "union": true,
	"unsigned": true, "void": true, "volatile": true, "while": true,
	"true": true, "false": true, "malloc": true, "size_t": true, "uint32_t": true,
}

// Ident maps a DSL identifier to a usable C identifier.
func Ident(name string) string {
	if cKeywords[name] {
		return name + "_"
	}
	return name
}

func unique(used map[string]bool, base string) string {
	name := base
	for i := 1; used[name]; i++ {
		name = base + strconv.Itoa(i)
	}
	used[name] = true
	return name
}
