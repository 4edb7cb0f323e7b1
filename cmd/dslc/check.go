package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dslc/internal/diagfmt"
	"dslc/internal/driver"
	"dslc/internal/project"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [file.dsl|directory]...",
	Short: "Report diagnostics without writing any output",
	Long: `Check runs the whole pipeline, code generation included, and prints the
diagnostics it finds. Without arguments it checks the sources of the current
project.`,
	RunE: runCheck,
}

func init() {
	f := checkCmd.Flags()
	f.String("format", "pretty", "output format (pretty|json)")
	f.String("path-mode", "auto", "how to print file paths (auto|absolute|relative|basename)")
	f.Bool("with-notes", false, "include diagnostic notes in output")
	f.Bool("verify", true, "re-check IR invariants after every pass")
	f.Int("jobs", 0, "max parallel workers (0=auto)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic()

	g, err := readGlobals(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	format, _ := flags.GetString("format")
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unknown format: %s", format)
	}
	pathModeFlag, _ := flags.GetString("path-mode")
	pathMode, ok := diagfmt.ParsePathMode(pathModeFlag)
	if !ok {
		return fmt.Errorf("invalid --path-mode value %q", pathModeFlag)
	}
	withNotes, _ := flags.GetBool("with-notes")
	verify, _ := flags.GetBool("verify")
	jobs, _ := flags.GetInt("jobs")

	files, err := checkInputs(args)
	if err != nil {
		return err
	}
	fs, results, err := driver.CompileFiles(cmd.Context(), files, driver.BatchOptions{
		Options: driver.Options{Verify: verify, MaxDiagnostics: g.maxDiagnostics},
		Jobs:    jobs,
	})
	if err != nil {
		return err
	}
	bag := mergeBags(results)
	wd, _ := os.Getwd()

	switch format {
	case "json":
		if err := diagfmt.JSON(cmd.OutOrStdout(), bag, fs, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         pathMode,
			BaseDir:          wd,
			IncludeNotes:     withNotes,
		}); err != nil {
			return err
		}
	default:
		diagfmt.Pretty(cmd.OutOrStdout(), bag, fs, diagfmt.PrettyOpts{
			Color:     g.color,
			Context:   1,
			PathMode:  pathMode,
			BaseDir:   wd,
			ShowNotes: withNotes,
		})
		if g.timings {
			printTimings(cmd.ErrOrStderr(), results)
		}
		if !g.quiet && !bag.HasErrors() {
			fmt.Fprintf(cmd.ErrOrStderr(), "checked %d file(s), no errors\n", len(files))
		}
	}
	if bag.HasErrors() {
		return errDiagnostics
	}
	return nil
}

func checkInputs(args []string) ([]string, error) {
	if len(args) > 0 {
		return expandInputs(args)
	}
	m, ok, err := project.LoadManifest(".")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no input files and no %s found", project.ManifestName)
	}
	return m.Sources()
}
