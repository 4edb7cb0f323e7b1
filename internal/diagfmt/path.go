package diagfmt

import (
	"path/filepath"
	"strings"

	"dslc/internal/source"
)

func displayPath(f *source.File, mode PathMode, base string) string {
	switch mode {
	case PathModeBasename:
		return filepath.Base(f.Path)
	case PathModeAbsolute:
		if f.Flags&source.FileVirtual != 0 {
			return f.Path
		}
		if abs, err := filepath.Abs(f.Path); err == nil {
			return filepath.ToSlash(abs)
		}
	case PathModeRelative, PathModeAuto:
		if base == "" {
			return f.Path
		}
		rel, err := filepath.Rel(base, f.Path)
		if err != nil {
			return f.Path
		}
		if mode == PathModeAuto && strings.HasPrefix(rel, "..") {
			return f.Path
		}
		return filepath.ToSlash(rel)
	}
	return f.Path
}

func spanPath(fs *source.FileSet, sp source.Span, mode PathMode, base string) (string, bool) {
	if fs == nil || !fs.Has(sp.File) {
		return "<unknown>", false
	}
	return displayPath(fs.Get(sp.File), mode, base), true
}
