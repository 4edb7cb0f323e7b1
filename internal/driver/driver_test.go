package driver

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"dslc/internal/diag"
	"dslc/internal/project"
	"dslc/internal/source"
	"dslc/internal/token"
)

const kernels = `fn add(u32 a, u32 b) -> u32 { return a + b; }

fn iota(u32 n) -> u32[.] {
    return { iv + 1 | 0 <= iv < n };
}
`

const mixed = `fn bad(u32 n) -> bool[.] { v = { i | 0 <= i < n }; return v == v; }
fn ok() -> u32 { return 7; }
`

func compileString(t *testing.T, name, src string, opts Options) *Result {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual(name, []byte(src))
	res, err := CompileSource(context.Background(), fs, id, opts)
	require.NoError(t, err)
	return res
}

func codes(bag *diag.Bag) []diag.Code {
	var out []diag.Code
	for _, d := range bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

func TestCompileSourceEmitsEverything(t *testing.T) {
	res := compileString(t, "kernels.dsl", kernels, Options{
		Prefix: "K_",
		Dumps:  DumpSSA | DumpTyped | DumpUndo,
		Verify: true,
	})
	require.False(t, res.Bag.HasErrors(), "diagnostics: %v", res.Bag.Items())
	require.Equal(t, "kernels", res.BaseName())

	a := res.Artifacts
	require.Contains(t, a.C, "uint32_t K_add(uint32_t a, uint32_t b)")
	require.Contains(t, a.C, "#include <stdlib.h>")
	require.Contains(t, a.Header, "#ifndef KERNELS_H")
	require.Contains(t, a.Header, "extern uint32_t *K_iota(uint32_t n);")
	require.Contains(t, a.Go, "func add(a uint32, b uint32) uint32")
	require.Contains(t, a.Undo, "fn add(u32 a, u32 b) -> u32 {")
	require.Contains(t, a.SSA, "fn iota")
	require.Contains(t, a.Typed, "u32[.]")

	require.Equal(t, 2, res.Stats.Funcs)
	require.Equal(t, 1, res.Stats.Tensors)

	var phases []string
	for _, p := range res.Timing.Phases {
		phases = append(phases, p.Name)
	}
	require.Equal(t, []string{"parse", "ssa", "typeinfer", "emit", "dump"}, phases)
}

func TestCompileSourceDeclaresOnlyEmittedFunctions(t *testing.T) {
	res := compileString(t, "mixed.dsl", mixed, Options{})
	require.Equal(t, []diag.Code{diag.GenUnsupported}, codes(res.Bag))
	require.Equal(t, "bad", res.Bag.Items()[0].Func)

	require.NotContains(t, res.Artifacts.C, "DSL_bad")
	require.NotContains(t, res.Artifacts.Header, "DSL_bad")
	require.NotContains(t, res.Artifacts.Go, "DSL_bad")
	require.Contains(t, res.Artifacts.Header, "extern uint32_t DSL_ok(void);")
}

func TestCompileSourceReportsTypeErrors(t *testing.T) {
	res := compileString(t, "bad.dsl", "fn f(u32 a) -> bool { return a; }\nfn g() -> bool { return true; }\n", Options{})
	require.Equal(t, []diag.Code{diag.SemaReturnMismatch}, codes(res.Bag))
	d := res.Bag.Items()[0]
	require.Equal(t, "f", d.Func)
	require.Equal(t, res.FileID, d.Primary.File)

	require.Len(t, res.Typed.Fundefs, 1)
	require.Contains(t, res.Artifacts.C, "DSL_g")
}

func TestCompileSourceReportsSyntaxErrors(t *testing.T) {
	res := compileString(t, "syn.dsl", "fn f(u32 a) -> u32 { return a + ; }\nfn g() -> u32 { return 1; }\n", Options{})
	require.True(t, res.Bag.HasErrors())
	require.Equal(t, diag.SynExpectExpression, res.Bag.Items()[0].Code)
	require.Contains(t, res.Artifacts.C, "DSL_g")
}

func TestCompileSourceEmitSelection(t *testing.T) {
	res := compileString(t, "k.dsl", kernels, Options{Emit: []string{project.EmitHeader}})
	require.Empty(t, res.Artifacts.C)
	require.Empty(t, res.Artifacts.Go)
	require.Contains(t, res.Artifacts.Header, "DSL_add")
	require.Empty(t, res.Artifacts.Undo)

	res = compileString(t, "m.dsl", mixed, Options{Emit: []string{}, Dumps: DumpTyped})
	require.Zero(t, res.Bag.Len(), "codegen must not run")
	require.Empty(t, res.Artifacts.C)
	require.Contains(t, res.Artifacts.Typed, "fn bad")
}

func TestCompileSourceCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fs := source.NewFileSet()
	id := fs.AddVirtual("k.dsl", []byte(kernels))
	_, err := CompileSource(ctx, fs, id, Options{})
	require.Error(t, err)
	require.True(t, IsCanceled(err))
}

func TestTokenize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.dsl")
	require.NoError(t, os.WriteFile(path, []byte("fn f() -> u32 { return 1 $ 2; }"), 0o600))

	res, err := Tokenize(path, 0)
	require.NoError(t, err)
	require.Equal(t, token.KwFn, res.Tokens[0].Kind)
	require.Equal(t, token.EOF, res.Tokens[len(res.Tokens)-1].Kind)
	require.Equal(t, []diag.Code{diag.LexUnknownChar}, codes(res.Bag))

	_, err = Tokenize(filepath.Join(t.TempDir(), "missing.dsl"), 0)
	require.Error(t, err)
}

func writeSources(t *testing.T, files map[string]string) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0o600))
	}
	paths, err := ListSources(dir)
	require.NoError(t, err)
	return dir, paths
}

func TestListSources(t *testing.T) {
	dir, paths := writeSources(t, map[string]string{
		"b.dsl":       "",
		"sub/a.dsl":   "",
		"readme.md":   "",
		"sub/x.dsl.c": "",
	})
	require.Equal(t, []string{filepath.Join(dir, "b.dsl"), filepath.Join(dir, "sub", "a.dsl")}, paths)
}

func TestCompileFilesKeepsOrderAndUsesCache(t *testing.T) {
	_, paths := writeSources(t, map[string]string{
		"a.dsl": kernels,
		"b.dsl": "fn f(u32 a) -> bool { return a; }\n",
		"c.dsl": mixed,
	})
	cache, err := OpenDiskCache(t.TempDir())
	require.NoError(t, err)

	var done atomic.Int32
	opts := BatchOptions{Jobs: 2, Cache: cache, OnDone: func(*Result) { done.Add(1) }}
	_, first, err := CompileFiles(context.Background(), paths, opts)
	require.NoError(t, err)
	require.Len(t, first, 3)
	require.EqualValues(t, 3, done.Load())
	for i, res := range first {
		require.Equal(t, paths[i], res.Path)
		require.False(t, res.Cached)
	}

	_, second, err := CompileFiles(context.Background(), paths, opts)
	require.NoError(t, err)
	for i, res := range second {
		require.True(t, res.Cached, res.Path)
		require.Equal(t, first[i].Artifacts, res.Artifacts)
		require.Equal(t, codes(first[i].Bag), codes(res.Bag))
		require.Equal(t, first[i].Stats, res.Stats)
		for j, d := range res.Bag.Items() {
			want := first[i].Bag.Items()[j]
			require.Equal(t, want.Primary.Start, d.Primary.Start)
			require.Equal(t, want.Func, d.Func)
			require.Equal(t, res.FileID, d.Primary.File)
		}
	}

	// Different options miss the cache.
	opts.Prefix = "X_"
	_, third, err := CompileFiles(context.Background(), paths[:1], opts)
	require.NoError(t, err)
	require.False(t, third[0].Cached)
	require.Contains(t, third[0].Artifacts.C, "X_add")
}

func TestCompileFilesReportsLoadFailure(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone.dsl")
	_, results, err := CompileFiles(context.Background(), []string{missing}, BatchOptions{})
	require.NoError(t, err)
	require.Equal(t, []diag.Code{diag.IOLoadFileError}, codes(results[0].Bag))
}

func TestDiskCacheDropAll(t *testing.T) {
	cache, err := OpenDiskCache(t.TempDir())
	require.NoError(t, err)
	key := project.Of("k")
	require.NoError(t, cache.Put(key, &CachePayload{Schema: diskCacheSchemaVersion, Path: "p"}))

	var got CachePayload
	ok, err := cache.Get(key, &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "p", got.Path)

	require.NoError(t, cache.DropAll())
	ok, err = cache.Get(key, &got)
	require.NoError(t, err)
	require.False(t, ok)

	var nilCache *DiskCache
	require.NoError(t, nilCache.Put(key, &got))
	_, ok = nilCache.Lookup(key, source.NewFileSet(), 0, 0)
	require.False(t, ok)
}
