package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"dslc/internal/diag"
	"dslc/internal/diagfmt"
	"dslc/internal/driver"
	"dslc/internal/source"
)

type globalOptions struct {
	color          bool
	quiet          bool
	timings        bool
	maxDiagnostics int
}

func readGlobals(cmd *cobra.Command) (globalOptions, error) {
	flags := cmd.Root().PersistentFlags()
	var g globalOptions
	var err error
	if g.color, err = switchFlag(flags, "color", os.Stderr); err != nil {
		return g, err
	}
	if g.quiet, err = flags.GetBool("quiet"); err != nil {
		return g, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if g.timings, err = flags.GetBool("timings"); err != nil {
		return g, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if g.maxDiagnostics, err = flags.GetInt("max-diagnostics"); err != nil {
		return g, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	return g, nil
}

// mergeBags collects the diagnostics of results into one sorted bag.
func mergeBags(results []*driver.Result) *diag.Bag {
	all := diag.NewBag(0)
	for _, res := range results {
		all.Merge(res.Bag)
	}
	all.Sort()
	return all
}

func printPretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, g globalOptions, notes bool) {
	if bag.Len() == 0 {
		return
	}
	wd, _ := os.Getwd()
	diagfmt.Pretty(w, bag, fs, diagfmt.PrettyOpts{
		Color:     g.color,
		Context:   1,
		PathMode:  diagfmt.PathModeAuto,
		BaseDir:   wd,
		ShowNotes: notes,
	})
}

func printTimings(w io.Writer, results []*driver.Result) {
	for _, res := range results {
		if res.Cached {
			fmt.Fprintf(w, "%s: cached\n", res.Path)
			continue
		}
		fmt.Fprintf(w, "%s:\n", res.Path)
		_ = res.Timing.WriteTo(w, "  ")
	}
}
