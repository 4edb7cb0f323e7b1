package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"dslc/internal/buildpipeline"
	"dslc/internal/driver"
	"dslc/internal/project"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] [file.dsl|directory]...",
	Short: "Compile DSL sources to C, headers and cgo bindings",
	Long: `Build compiles the given files, or every *.dsl file under the given
directories. Without arguments it builds the project whose dslc.toml is found
in the current directory or one of its parents.`,
	RunE: runBuild,
}

func init() {
	f := buildCmd.Flags()
	f.StringP("out", "o", "", "output directory (default: [build].out_dir or ./build)")
	f.String("prefix", "", "prefix of exported C symbols (default DSL_)")
	f.String("go-package", "", "package clause of the cgo bindings")
	f.String("ldflags", "", "#cgo LDFLAGS line for the bindings")
	f.StringSlice("emit", nil, "artifacts to write (c,header,go)")
	f.String("cc", "", "compile emitted C with this compiler")
	f.StringSlice("cflags", nil, "extra C compiler flags")
	f.Int("jobs", 0, "max parallel workers (0=auto)")
	f.Bool("no-cache", false, "do not read or write the build cache")
	f.Bool("verify", false, "re-check IR invariants after every pass")
	f.Bool("print-commands", false, "print C compiler command lines")
	f.String("ui", "auto", "progress UI (auto|on|off)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic()

	g, err := readGlobals(cmd)
	if err != nil {
		return err
	}
	req, err := buildRequest(cmd, args)
	if err != nil {
		return err
	}
	req.Options.MaxDiagnostics = g.maxDiagnostics

	useUI, err := switchFlag(cmd.Flags(), "ui", os.Stdout)
	if err != nil {
		return err
	}

	var res buildpipeline.BuildResult
	if !g.quiet && useUI {
		res, err = runBuildWithUI(cmd.Context(), "dslc build", req)
	} else {
		res, err = buildpipeline.Build(cmd.Context(), req)
	}
	if res.FileSet != nil {
		printPretty(cmd.ErrOrStderr(), mergeBags(res.Results), res.FileSet, g, false)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if g.timings {
		printTimings(out, res.Results)
		printStageTimings(out, res.Timings)
	}
	if !g.quiet {
		for _, o := range res.Outputs {
			for _, p := range []string{o.C, o.Header, o.Go, o.Object} {
				if p != "" {
					fmt.Fprintf(out, "wrote %s\n", p)
				}
			}
		}
	}
	if failed := res.Failed(); failed > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d file(s) failed\n", failed, len(res.Results))
		return errDiagnostics
	}
	return nil
}

// buildRequest merges the manifest (when building a project) with flags;
// flags win.
func buildRequest(cmd *cobra.Command, args []string) (*buildpipeline.BuildRequest, error) {
	req := &buildpipeline.BuildRequest{}
	flags := cmd.Flags()

	if len(args) == 0 {
		m, ok, err := project.LoadManifest(".")
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("no input files and no %s found", project.ManifestName)
		}
		if req.Files, err = m.Sources(); err != nil {
			return nil, err
		}
		req.OutDir = m.OutDir()
		req.Options = driver.OptionsFromConfig(&m.Config)
		req.CC = m.Config.Build.CC
		req.CFlags = m.Config.Build.CFlags
	} else {
		files, err := expandInputs(args)
		if err != nil {
			return nil, err
		}
		req.Files = files
		req.OutDir = "build"
	}

	if flags.Changed("out") {
		req.OutDir, _ = flags.GetString("out")
	}
	if flags.Changed("prefix") {
		req.Options.Prefix, _ = flags.GetString("prefix")
	}
	if flags.Changed("go-package") {
		req.Options.GoPackage, _ = flags.GetString("go-package")
	}
	if flags.Changed("emit") {
		emit, _ := flags.GetStringSlice("emit")
		for _, e := range emit {
			switch e {
			case project.EmitC, project.EmitHeader, project.EmitGo:
			default:
				return nil, fmt.Errorf("invalid --emit value %q (expected c, header or go)", e)
			}
		}
		req.Options.Emit = emit
	}
	if flags.Changed("cc") {
		req.CC, _ = flags.GetString("cc")
	}
	if flags.Changed("cflags") {
		req.CFlags, _ = flags.GetStringSlice("cflags")
	}
	req.Options.LDFlags, _ = flags.GetString("ldflags")
	req.Options.Verify, _ = flags.GetBool("verify")
	req.Jobs, _ = flags.GetInt("jobs")
	req.PrintCommands, _ = flags.GetBool("print-commands")
	req.Stdout = cmd.OutOrStdout()

	if noCache, _ := flags.GetBool("no-cache"); !noCache {
		dir, err := driver.DefaultCacheDir("dslc")
		if err == nil {
			// Without a usable cache directory the build just runs uncached.
			req.Cache, _ = driver.OpenDiskCache(dir)
		}
	}
	return req, nil
}

// expandInputs replaces directories by the sources they contain.
func expandInputs(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		st, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !st.IsDir() {
			files = append(files, arg)
			continue
		}
		found, err := driver.ListSources(arg)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			return nil, fmt.Errorf("no %s files under %s", driver.SourceExt, arg)
		}
		files = append(files, found...)
	}
	return files, nil
}

func relPath(path string) string {
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(wd, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
