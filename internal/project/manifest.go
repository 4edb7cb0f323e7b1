package project

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/mod/semver"
)

// Artifact kinds a build can emit.
const (
	EmitC      = "c"
	EmitHeader = "header"
	EmitGo     = "go"
)

var knownEmits = []string{EmitC, EmitHeader, EmitGo}

// Manifest is a loaded dslc.toml.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

type Config struct {
	Package PackageConfig `toml:"package"`
	Build   BuildConfig   `toml:"build"`
}

type PackageConfig struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

type BuildConfig struct {
	// Sources are globs relative to the project root.
	Sources []string `toml:"sources"`
	OutDir  string   `toml:"out_dir"`
	Prefix  string   `toml:"prefix"`
	// GoPackage is the package clause of generated cgo bindings.
	GoPackage string   `toml:"go_package"`
	Emit      []string `toml:"emit"`
	// CC, when set, compiles every emitted .c file to an object file.
	CC     string   `toml:"cc"`
	CFlags []string `toml:"cflags"`
}

// Defaults applied to fields a manifest leaves out.
const (
	DefaultSources = "src/*.dsl"
	DefaultOutDir  = "build"
	DefaultPrefix  = "DSL_"
)

// LoadManifest finds dslc.toml above startDir and loads it. ok is false
// when there is no manifest.
func LoadManifest(startDir string) (*Manifest, bool, error) {
	manifestPath, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := LoadConfig(manifestPath)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{
		Path:   manifestPath,
		Root:   filepath.Dir(manifestPath),
		Config: cfg,
	}, true, nil
}

// LoadConfig decodes and validates one manifest file.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if err := cfg.validate(meta); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (cfg *Config) validate(meta toml.MetaData) error {
	if !meta.IsDefined("package") {
		return fmt.Errorf("missing [package]")
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return fmt.Errorf("missing [package].name")
	}
	if v := cfg.Package.Version; v != "" && !semver.IsValid(canonicalVersion(v)) {
		return fmt.Errorf("[package].version %q is not a semantic version", v)
	}
	for _, e := range cfg.Build.Emit {
		if !slices.Contains(knownEmits, e) {
			return fmt.Errorf("[build].emit: unknown artifact %q (want one of %s)", e, strings.Join(knownEmits, ", "))
		}
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown key %s", undecoded[0])
	}
	return nil
}

func (cfg *Config) applyDefaults() {
	b := &cfg.Build
	if len(b.Sources) == 0 {
		b.Sources = []string{DefaultSources}
	}
	if b.OutDir == "" {
		b.OutDir = DefaultOutDir
	}
	if b.Prefix == "" {
		b.Prefix = DefaultPrefix
	}
	if b.GoPackage == "" {
		b.GoPackage = goPackageName(cfg.Package.Name)
	}
	if len(b.Emit) == 0 {
		b.Emit = slices.Clone(knownEmits)
	}
}

// canonicalVersion accepts versions written without the leading "v".
func canonicalVersion(v string) string {
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}

// Version returns the package version in canonical semver form, or "".
func (cfg *Config) Version() string {
	if cfg.Package.Version == "" {
		return ""
	}
	return semver.Canonical(canonicalVersion(cfg.Package.Version))
}

func goPackageName(name string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9' && sb.Len() > 0:
			sb.WriteRune(r)
		case r == '_' || r == '-' || r == '.':
			if sb.Len() > 0 {
				sb.WriteByte('_')
			}
		}
	}
	if sb.Len() == 0 {
		return "dsl"
	}
	return sb.String()
}

// Sources expands the source globs against the project root, sorted and
// without duplicates.
func (m *Manifest) Sources() ([]string, error) {
	var out []string
	for _, pattern := range m.Config.Build.Sources {
		matches, err := filepath.Glob(filepath.Join(m.Root, filepath.FromSlash(pattern)))
		if err != nil {
			return nil, fmt.Errorf("%s: bad source pattern %q: %w", m.Path, pattern, err)
		}
		out = append(out, matches...)
	}
	slices.Sort(out)
	out = slices.Compact(out)
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: no sources match %s", m.Path, strings.Join(m.Config.Build.Sources, ", "))
	}
	return out, nil
}

// OutDir is the absolute output directory.
func (m *Manifest) OutDir() string {
	if filepath.IsAbs(m.Config.Build.OutDir) {
		return m.Config.Build.OutDir
	}
	return filepath.Join(m.Root, filepath.FromSlash(m.Config.Build.OutDir))
}

// Emits reports whether the manifest asks for artifact kind.
func (cfg *Config) Emits(kind string) bool {
	return slices.Contains(cfg.Build.Emit, kind)
}
