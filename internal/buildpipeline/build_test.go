package buildpipeline

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"dslc/internal/driver"
)

func writeSource(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))
	return path
}

func TestBuildWritesCleanSources(t *testing.T) {
	src := t.TempDir()
	good := writeSource(t, src, "good.dsl", "fn add(u32 a, u32 b) -> u32 { return a + b; }\n")
	bad := writeSource(t, src, "bad.dsl", "fn f(u32 a) -> bool { return a; }\n")
	out := filepath.Join(t.TempDir(), "build")

	sink := &RecordingSink{}
	res, err := Build(context.Background(), &BuildRequest{
		Files:    []string{good, bad},
		OutDir:   out,
		Options:  driver.Options{GoPackage: "kernels"},
		Progress: sink,
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.Failed())
	require.Len(t, res.Outputs, 1)

	o := res.Outputs[0]
	require.Equal(t, good, o.Source)
	require.Equal(t, filepath.Join(out, "good.c"), o.C)
	require.Equal(t, filepath.Join(out, "good.h"), o.Header)
	require.Equal(t, filepath.Join(out, "good_dsl.go"), o.Go)
	require.Empty(t, o.Object)

	c, err := os.ReadFile(o.C)
	require.NoError(t, err)
	require.Contains(t, string(c), "DSL_add")
	gosrc, err := os.ReadFile(o.Go)
	require.NoError(t, err)
	require.Contains(t, string(gosrc), "package kernels")

	_, err = os.Stat(filepath.Join(out, "bad.c"))
	require.True(t, os.IsNotExist(err))

	require.True(t, res.Timings.Has(StageCompile))
	require.True(t, res.Timings.Has(StageWrite))
	require.False(t, res.Timings.Has(StageCC))

	final := map[string]Status{}
	for _, evt := range sink.Events() {
		if evt.File != "" && evt.Stage == StageCompile && evt.Status != StatusWorking {
			final[evt.File] = evt.Status
		}
	}
	require.Equal(t, StatusDone, final[good])
	require.Equal(t, StatusError, final[bad])
}

func TestBuildRejectsClashingNames(t *testing.T) {
	_, err := Build(context.Background(), &BuildRequest{
		Files:  []string{"a/k.dsl", "b/k.dsl"},
		OutDir: t.TempDir(),
	})
	require.ErrorContains(t, err, `both produce "k" artifacts`)
}

func TestBuildRequiresOutDir(t *testing.T) {
	_, err := Build(context.Background(), &BuildRequest{Files: []string{"k.dsl"}})
	require.ErrorContains(t, err, "missing output directory")

	_, err = Build(context.Background(), nil)
	require.Error(t, err)
}

func TestBuildRunsCompiler(t *testing.T) {
	cc, err := exec.LookPath("cc")
	if err != nil {
		t.Skip("no C compiler on PATH")
	}
	src := t.TempDir()
	path := writeSource(t, src, "iota.dsl", "fn iota(u32 n) -> u32[.] { return { i + 1 | 0 <= i < n }; }\n")
	out := t.TempDir()

	var printed bytes.Buffer
	res, err := Build(context.Background(), &BuildRequest{
		Files:         []string{path},
		OutDir:        out,
		Options:       driver.Options{Emit: []string{"c", "header"}},
		CC:            cc,
		CFlags:        []string{"-std=c99"},
		PrintCommands: true,
		Stdout:        &printed,
	})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(out, "iota.o"), res.Outputs[0].Object)
	require.Empty(t, res.Outputs[0].Go)
	require.Contains(t, printed.String(), "-c "+filepath.Join(out, "iota.c"))
	_, err = os.Stat(res.Outputs[0].Object)
	require.NoError(t, err)
}

func TestBuildMissingCompiler(t *testing.T) {
	src := t.TempDir()
	path := writeSource(t, src, "k.dsl", "fn k() -> u32 { return 1; }\n")
	_, err := Build(context.Background(), &BuildRequest{
		Files:  []string{path},
		OutDir: t.TempDir(),
		CC:     "definitely-not-a-c-compiler",
	})
	require.ErrorContains(t, err, "not found")
}
