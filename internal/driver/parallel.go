package driver

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"dslc/internal/diag"
	"dslc/internal/source"
)

// SourceExt is the extension of DSL source files.
const SourceExt = ".dsl"

// ListSources returns the sorted *.dsl files under dir.
func ListSources(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, SourceExt) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// BatchOptions configures CompileFiles.
type BatchOptions struct {
	Options
	// Jobs bounds concurrency; GOMAXPROCS when <= 0.
	Jobs int
	// Cache, when set, is consulted before and filled after each file.
	Cache *DiskCache
	// OnStart and OnDone are called from worker goroutines around each file.
	OnStart func(path string)
	OnDone  func(*Result)
}

// CompileFiles compiles paths concurrently and returns one result per path
// in the same order. Files are loaded up front into one shared FileSet,
// which workers only read. A file that cannot be loaded yields a result
// holding a single IO diagnostic.
func CompileFiles(ctx context.Context, paths []string, opts BatchOptions) (*source.FileSet, []*Result, error) {
	fileSet := source.NewFileSet()
	ids := make([]source.FileID, len(paths))
	loadErrs := make([]error, len(paths))
	for i, path := range paths {
		ids[i], loadErrs[i] = fileSet.Load(path)
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([]*Result, len(paths))
	if len(paths) == 0 {
		return fileSet, results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))
	for i, path := range paths {
		g.Go(func() error {
			if opts.OnStart != nil {
				opts.OnStart(path)
			}
			var res *Result
			if loadErrs[i] != nil {
				res = loadFailure(fileSet, path, loadErrs[i], opts.MaxDiagnostics)
			} else {
				var err error
				res, err = compileCached(gctx, fileSet, ids[i], opts)
				if err != nil {
					return err
				}
			}
			results[i] = res
			if opts.OnDone != nil {
				opts.OnDone(res)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fileSet, nil, err
	}
	return fileSet, results, nil
}

func compileCached(ctx context.Context, fileSet *source.FileSet, id source.FileID, opts BatchOptions) (*Result, error) {
	key := CacheKey(fileSet.Get(id), opts.Options)
	if res, ok := opts.Cache.Lookup(key, fileSet, id, opts.MaxDiagnostics); ok {
		return res, nil
	}
	res, err := CompileSource(ctx, fileSet, id, opts.Options)
	if err != nil {
		return nil, err
	}
	// A broken cache entry only costs a recompile next time.
	_ = opts.Cache.Store(key, res)
	return res, nil
}

func loadFailure(fileSet *source.FileSet, path string, err error, maxDiagnostics int) *Result {
	bag := diag.NewBag(maxDiagnostics)
	bag.Add(diag.NewError(diag.IOLoadFileError, source.Span{}, err.Error()))
	return &Result{Path: path, FileSet: fileSet, Bag: bag}
}
