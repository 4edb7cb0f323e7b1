package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"github.com/vmihailenco/msgpack/v5"

	"dslc/internal/diag"
	"dslc/internal/irverify"
	"dslc/internal/project"
	"dslc/internal/source"
	"dslc/internal/version"
)

// Current schema version; bump when CachePayload changes shape.
const diskCacheSchemaVersion uint16 = 1

// DiskCache stores compiled artifacts and diagnostics keyed by the digest
// of the compiler version, the options and the source text. It is safe for
// concurrent use within a process; a lock file serializes writers across
// processes.
type DiskCache struct {
	mu   sync.RWMutex
	dir  string
	lock *flock.Flock
}

// CachePayload is what one cache entry holds.
type CachePayload struct {
	Schema      uint16
	Path        string
	Artifacts   Artifacts
	Diagnostics []cachedDiagnostic
	Stats       irverify.Stats
}

// Spans are stored as offsets; the file ID is restored on load.
type cachedDiagnostic struct {
	Severity diag.Severity
	Code     diag.Code
	Message  string
	Start    uint32
	End      uint32
	Func     string
	Notes    []cachedNote
}

type cachedNote struct {
	Start, End uint32
	Msg        string
}

// DefaultCacheDir returns $XDG_CACHE_HOME/app, or ~/.cache/app.
func DefaultCacheDir(app string) (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, app), nil
}

// OpenDiskCache creates dir if needed and returns a cache rooted there.
func OpenDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir, lock: flock.New(filepath.Join(dir, ".lock"))}, nil
}

// Dir is the cache root.
func (c *DiskCache) Dir() string {
	return c.dir
}

// CacheKey identifies the compilation of file under opts.
func CacheKey(file *source.File, opts Options) project.Digest {
	return project.Combine(project.Digest(file.Hash), project.Of(version.Version), project.Of(opts.fingerprint()))
}

func (c *DiskCache) pathFor(key project.Digest) string {
	return filepath.Join(c.dir, "units", key.String()+".mp")
}

// Put serializes and writes a payload. The entry is replaced atomically.
func (c *DiskCache) Put(key project.Digest, payload *CachePayload) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.lock.Lock(); err != nil {
		return fmt.Errorf("acquire cache lock: %w", err)
	}
	defer func() {
		err = errors.Join(err, c.lock.Unlock())
	}()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads a payload. A missing entry or one written by another schema
// version reports false without error.
func (c *DiskCache) Get(key project.Digest, out *CachePayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if err := msgpack.Unmarshal(data, out); err != nil {
		return false, err
	}
	return out.Schema == diskCacheSchemaVersion, nil
}

// DropAll removes every entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.lock.Lock(); err != nil {
		return fmt.Errorf("acquire cache lock: %w", err)
	}
	defer func() { _ = c.lock.Unlock() }()
	return os.RemoveAll(filepath.Join(c.dir, "units"))
}

// Store records res under key. Results carrying internal errors are not
// cached.
func (c *DiskCache) Store(key project.Digest, res *Result) error {
	if c == nil {
		return nil
	}
	payload := &CachePayload{
		Schema:    diskCacheSchemaVersion,
		Path:      res.Path,
		Artifacts: res.Artifacts,
		Stats:     res.Stats,
	}
	for _, d := range res.Bag.Items() {
		if d.Code == diag.InternalInvariant {
			return nil
		}
		cd := cachedDiagnostic{
			Severity: d.Severity,
			Code:     d.Code,
			Message:  d.Message,
			Start:    d.Primary.Start,
			End:      d.Primary.End,
			Func:     d.Func,
		}
		for _, n := range d.Notes {
			cd.Notes = append(cd.Notes, cachedNote{Start: n.Span.Start, End: n.Span.End, Msg: n.Msg})
		}
		payload.Diagnostics = append(payload.Diagnostics, cd)
	}
	return c.Put(key, payload)
}

// Lookup rebuilds a Result for file id of fs from the entry under key.
func (c *DiskCache) Lookup(key project.Digest, fs *source.FileSet, id source.FileID, maxDiagnostics int) (*Result, bool) {
	var payload CachePayload
	ok, err := c.Get(key, &payload)
	if err != nil || !ok {
		return nil, false
	}
	bag := diag.NewBag(maxDiagnostics)
	for _, cd := range payload.Diagnostics {
		d := diag.New(cd.Severity, cd.Code, source.Span{File: id, Start: cd.Start, End: cd.End}, cd.Message)
		d.Func = cd.Func
		for _, n := range cd.Notes {
			d = d.WithNote(source.Span{File: id, Start: n.Start, End: n.End}, n.Msg)
		}
		bag.Add(d)
	}
	return &Result{
		Path:      fs.Get(id).Path,
		FileSet:   fs,
		FileID:    id,
		Bag:       bag,
		Stats:     payload.Stats,
		Artifacts: payload.Artifacts,
		Cached:    true,
	}, true
}
