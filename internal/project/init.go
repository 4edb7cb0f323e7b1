package project

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const sampleSource = `// Squares of 0..n-1.
fn squares(u32 n) -> u32[.] {
    return { i * i | 0 <= i < n };
}
`

// Init writes a manifest and a sample source into dir. An existing manifest
// is never overwritten.
func Init(dir, name string) (string, error) {
	if name == "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return "", fmt.Errorf("failed to resolve %q: %w", dir, err)
		}
		name = filepath.Base(abs)
	}
	manifestPath := filepath.Join(dir, ManifestName)
	if _, err := os.Stat(manifestPath); err == nil {
		return "", fmt.Errorf("%s already exists", manifestPath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("failed to stat %q: %w", manifestPath, err)
	}

	cfg := Config{Package: PackageConfig{Name: name, Version: "0.1.0"}}
	cfg.applyDefaults()
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return "", fmt.Errorf("failed to encode manifest: %w", err)
	}

	srcDir := filepath.Join(dir, "src")
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", srcDir, err)
	}
	if err := os.WriteFile(manifestPath, buf.Bytes(), 0o600); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	sample := filepath.Join(srcDir, "main.dsl")
	if _, err := os.Stat(sample); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(sample, []byte(sampleSource), 0o600); err != nil {
			return "", fmt.Errorf("failed to write %s: %w", sample, err)
		}
	}
	return manifestPath, nil
}
