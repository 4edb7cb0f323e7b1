// Package buildpipeline compiles a set of DSL files and writes their C
// sources, headers and cgo bindings into an output directory, optionally
// compiling the C to object files.
package buildpipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"dslc/internal/driver"
	"dslc/internal/source"
)

// BuildRequest configures one build.
type BuildRequest struct {
	Files   []string
	OutDir  string
	Options driver.Options
	Jobs    int
	Cache   *driver.DiskCache
	// CC, when set, compiles each emitted .c file with `CC CFlags -c`.
	CC            string
	CFlags        []string
	PrintCommands bool
	// Stdout receives printed commands; os.Stdout when nil.
	Stdout   io.Writer
	Progress ProgressSink
}

// Output lists the files written for one source. Empty fields were not
// produced.
type Output struct {
	Source string
	C      string
	Header string
	Go     string
	Object string
}

// BuildResult captures build artifacts and timings.
type BuildResult struct {
	FileSet *source.FileSet
	Results []*driver.Result
	// Outputs holds one entry per source without errors, in request order.
	Outputs []Output
	Timings Timings
}

// Failed counts sources with error diagnostics. Their artifacts are not
// written.
func (r BuildResult) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Bag.HasErrors() {
			n++
		}
	}
	return n
}

// Build runs compile, write and cc in order. The error return covers I/O,
// cancellation and C compiler failures; DSL errors are reported through
// the diagnostics of Results.
func Build(ctx context.Context, req *BuildRequest) (BuildResult, error) {
	var result BuildResult
	if req == nil {
		return result, fmt.Errorf("missing build request")
	}
	if req.OutDir == "" {
		return result, fmt.Errorf("missing output directory")
	}
	if err := checkNames(req.Files); err != nil {
		return result, err
	}
	emitQueued(req.Progress, req.Files)

	start := time.Now()
	emit(req.Progress, Event{Stage: StageCompile, Status: StatusWorking})
	fileSet, results, err := driver.CompileFiles(ctx, req.Files, driver.BatchOptions{
		Options: req.Options,
		Jobs:    req.Jobs,
		Cache:   req.Cache,
		OnStart: func(path string) {
			emit(req.Progress, Event{File: path, Stage: StageCompile, Status: StatusWorking})
		},
		OnDone: func(res *driver.Result) {
			emit(req.Progress, compileEvent(res))
		},
	})
	result.FileSet, result.Results = fileSet, results
	result.Timings.Set(StageCompile, time.Since(start))
	if err != nil {
		emit(req.Progress, Event{Stage: StageCompile, Status: StatusError, Err: err})
		return result, err
	}
	emit(req.Progress, Event{Stage: StageCompile, Status: StatusDone, Elapsed: result.Timings.Duration(StageCompile)})

	start = time.Now()
	result.Outputs, err = writeOutputs(req, results)
	result.Timings.Set(StageWrite, time.Since(start))
	if err != nil {
		emit(req.Progress, Event{Stage: StageWrite, Status: StatusError, Err: err})
		return result, err
	}
	emit(req.Progress, Event{Stage: StageWrite, Status: StatusDone, Elapsed: result.Timings.Duration(StageWrite)})

	if req.CC == "" {
		return result, nil
	}
	start = time.Now()
	err = compileC(ctx, req, result.Outputs)
	result.Timings.Set(StageCC, time.Since(start))
	if err != nil {
		emit(req.Progress, Event{Stage: StageCC, Status: StatusError, Err: err})
		return result, err
	}
	emit(req.Progress, Event{Stage: StageCC, Status: StatusDone, Elapsed: result.Timings.Duration(StageCC)})
	return result, nil
}

func compileEvent(res *driver.Result) Event {
	evt := Event{File: res.Path, Stage: StageCompile, Status: StatusDone}
	switch {
	case res.Bag.HasErrors():
		evt.Status = StatusError
		evt.Err = fmt.Errorf("%d diagnostic(s)", res.Bag.Len())
	case res.Cached:
		evt.Status = StatusCached
	}
	evt.Elapsed = time.Duration(res.Timing.TotalMS * float64(time.Millisecond))
	return evt
}

// checkNames rejects sources whose artifacts would overwrite each other.
func checkNames(files []string) error {
	seen := make(map[string]string, len(files))
	for _, f := range files {
		base := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		if prev, ok := seen[base]; ok {
			return fmt.Errorf("%s and %s both produce %q artifacts", prev, f, base)
		}
		seen[base] = f
	}
	return nil
}

// writeOutputs writes under an exclusive lock on the output directory, so
// concurrent builds into the same directory do not interleave.
func writeOutputs(req *BuildRequest, results []*driver.Result) (outputs []Output, err error) {
	if err := os.MkdirAll(req.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	lock := flock.New(filepath.Join(req.OutDir, ".dslc.lock"))
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("acquire output lock: %w", err)
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil && err == nil {
			err = fmt.Errorf("release output lock: %w", unlockErr)
		}
	}()

	for _, res := range results {
		if res.Bag.HasErrors() {
			continue
		}
		emit(req.Progress, Event{File: res.Path, Stage: StageWrite, Status: StatusWorking})
		out, err := writeArtifacts(req.OutDir, res)
		if err != nil {
			emit(req.Progress, Event{File: res.Path, Stage: StageWrite, Status: StatusError, Err: err})
			return outputs, err
		}
		emit(req.Progress, Event{File: res.Path, Stage: StageWrite, Status: StatusDone})
		outputs = append(outputs, out)
	}
	return outputs, nil
}

func writeArtifacts(dir string, res *driver.Result) (Output, error) {
	base := res.BaseName()
	out := Output{Source: res.Path}
	files := []struct {
		dst     *string
		name    string
		content string
	}{
		{&out.C, base + ".c", res.Artifacts.C},
		{&out.Header, base + ".h", res.Artifacts.Header},
		{&out.Go, base + "_dsl.go", res.Artifacts.Go},
	}
	for _, f := range files {
		if f.content == "" {
			continue
		}
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, []byte(f.content), 0o644); err != nil {
			return out, fmt.Errorf("write %s: %w", path, err)
		}
		*f.dst = path
	}
	return out, nil
}

func compileC(ctx context.Context, req *BuildRequest, outputs []Output) error {
	if _, err := exec.LookPath(req.CC); err != nil {
		return fmt.Errorf("C compiler %q not found: %w", req.CC, err)
	}
	for i := range outputs {
		out := &outputs[i]
		if out.C == "" {
			continue
		}
		obj := strings.TrimSuffix(out.C, ".c") + ".o"
		args := append([]string{}, req.CFlags...)
		args = append(args, "-I", req.OutDir, "-c", out.C, "-o", obj)
		emit(req.Progress, Event{File: out.Source, Stage: StageCC, Status: StatusWorking})
		if err := runCommand(ctx, req.stdout(), req.PrintCommands, req.CC, args...); err != nil {
			emit(req.Progress, Event{File: out.Source, Stage: StageCC, Status: StatusError, Err: err})
			return err
		}
		emit(req.Progress, Event{File: out.Source, Stage: StageCC, Status: StatusDone})
		out.Object = obj
	}
	return nil
}

func (req *BuildRequest) stdout() io.Writer {
	if req.Stdout == nil {
		return os.Stdout
	}
	return req.Stdout
}

func runCommand(ctx context.Context, stdout io.Writer, printCommands bool, name string, args ...string) error {
	if printCommands {
		if _, err := fmt.Fprintf(stdout, "%s %s\n", name, strings.Join(args, " ")); err != nil {
			return fmt.Errorf("failed to print command: %w", err)
		}
	}
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return err
		}
		return fmt.Errorf("%s: %s", name, msg)
	}
	return nil
}
