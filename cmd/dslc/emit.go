package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"dslc/internal/driver"
	"dslc/internal/project"
)

var emitKinds = []string{"c", "header", "go", "ssa", "typed", "undo"}

var emitCmd = &cobra.Command{
	Use:   "emit <" + strings.Join(emitKinds, "|") + "> file.dsl",
	Short: "Print one artifact or intermediate form of a file",
	Long: `Emit compiles a single file and prints the requested artifact to stdout:
the C source, the C header, the cgo bindings, the SSA form before or after type
inference, or the source rebuilt from the typed SSA form.`,
	Args:      cobra.ExactArgs(2),
	ValidArgs: emitKinds,
	RunE:      runEmit,
}

func init() {
	f := emitCmd.Flags()
	f.String("prefix", "", "prefix of exported C symbols (default DSL_)")
	f.String("go-package", "", "package clause of the cgo bindings")
	f.String("ldflags", "", "#cgo LDFLAGS line for the bindings")
	f.Bool("keys", false, "show arena keys in SSA dumps")
	f.Bool("verify", false, "re-check IR invariants after every pass")
}

func runEmit(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic()

	kind, path := args[0], args[1]
	if !slices.Contains(emitKinds, kind) {
		return fmt.Errorf("unknown artifact %q (expected %s)", kind, strings.Join(emitKinds, ", "))
	}
	g, err := readGlobals(cmd)
	if err != nil {
		return err
	}
	opts, err := emitOptions(cmd, kind)
	if err != nil {
		return err
	}
	opts.MaxDiagnostics = g.maxDiagnostics

	res, err := driver.CompileFile(cmd.Context(), path, opts)
	if err != nil {
		return err
	}
	printPretty(cmd.ErrOrStderr(), res.Bag, res.FileSet, g, false)
	if g.timings {
		printTimings(cmd.ErrOrStderr(), []*driver.Result{res})
	}
	if err := writeArtifact(cmd.OutOrStdout(), kind, res.Artifacts); err != nil {
		return err
	}
	if res.Bag.HasErrors() {
		return errDiagnostics
	}
	return nil
}

func emitOptions(cmd *cobra.Command, kind string) (driver.Options, error) {
	flags := cmd.Flags()
	var opts driver.Options
	opts.Prefix, _ = flags.GetString("prefix")
	opts.GoPackage, _ = flags.GetString("go-package")
	opts.LDFlags, _ = flags.GetString("ldflags")
	opts.DumpKeys, _ = flags.GetBool("keys")
	opts.Verify, _ = flags.GetBool("verify")
	switch kind {
	case "c":
		opts.Emit = []string{project.EmitC}
	case "header":
		opts.Emit = []string{project.EmitHeader}
	case "go":
		opts.Emit = []string{project.EmitGo}
	case "ssa":
		opts.Emit, opts.Dumps = []string{}, driver.DumpSSA
	case "typed":
		opts.Emit, opts.Dumps = []string{}, driver.DumpTyped
	case "undo":
		opts.Emit, opts.Dumps = []string{}, driver.DumpUndo
	default:
		return opts, fmt.Errorf("unknown artifact %q", kind)
	}
	return opts, nil
}

func writeArtifact(w io.Writer, kind string, a driver.Artifacts) error {
	text := map[string]string{
		"c":      a.C,
		"header": a.Header,
		"go":     a.Go,
		"ssa":    a.SSA,
		"typed":  a.Typed,
		"undo":   a.Undo,
	}[kind]
	_, err := io.WriteString(w, text)
	return err
}
