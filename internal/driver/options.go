package driver

import (
	"fmt"
	"slices"
	"strings"

	"dslc/internal/project"
)

// Dump selects textual renderings of intermediate forms.
type Dump uint8

const (
	DumpSSA Dump = 1 << iota
	DumpTyped
	DumpUndo
)

// Options configures one compilation.
type Options struct {
	// Prefix is prepended to every exported C symbol.
	Prefix string
	// GoPackage is the package clause of the cgo bindings.
	GoPackage string
	// LDFlags is copied into the bindings' #cgo LDFLAGS directive.
	LDFlags string
	// Emit lists the artifacts to render (project.EmitC and friends).
	// Nil renders every artifact; an empty slice renders none.
	Emit  []string
	Dumps Dump
	// DumpKeys shows arena keys in SSA dumps.
	DumpKeys bool
	// Verify re-checks IR invariants after every pass.
	Verify bool
	// MaxDiagnostics bounds the per-file bag; 0 means no limit.
	MaxDiagnostics int
}

func (o Options) emits(kind string) bool {
	return o.Emit == nil || slices.Contains(o.Emit, kind)
}

// fingerprint is a stable rendering of every option that changes output.
func (o Options) fingerprint() string {
	emit := "*"
	if o.Emit != nil {
		sorted := slices.Clone(o.Emit)
		slices.Sort(sorted)
		emit = strings.Join(sorted, ",")
	}
	return fmt.Sprintf("prefix=%s;pkg=%s;ld=%s;emit=%s;dumps=%d;keys=%t;verify=%t;max=%d",
		o.Prefix, o.GoPackage, o.LDFlags, emit, o.Dumps, o.DumpKeys, o.Verify, o.MaxDiagnostics)
}

// OptionsFromConfig maps a manifest's [build] table onto Options.
func OptionsFromConfig(cfg *project.Config) Options {
	return Options{
		Prefix:    cfg.Build.Prefix,
		GoPackage: cfg.Build.GoPackage,
		Emit:      slices.Clone(cfg.Build.Emit),
	}
}
