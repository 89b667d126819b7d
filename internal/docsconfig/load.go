package docsconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
)

// DefaultConfigFileName is the standalone config file name.
const DefaultConfigFileName = "docs.config.json"

// packageJSONKey is the key under which config may be embedded in
// package.json, matching spec.md §4.2.
const packageJSONKey = "docs-cache"

// Loaded bundles everything Load and LoadPath produce.
type Loaded struct {
	Config          *Config
	ResolvedPath    string // absolute path to the config file actually read
	InPackageJSON   bool   // true if Config was read from a package.json key
	ResolvedSources []ResolvedSource
}

// envVarPattern mirrors the teacher's Docker-Compose-style ${VAR} /
// ${VAR:-default} expansion, applied only to cacheDir/targetDir path
// strings so a config can be shared across machines with differing roots.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		sub := envVarPattern.FindStringSubmatch(match)
		if len(sub) < 2 {
			return match
		}
		value := os.Getenv(sub[1])
		if value == "" && len(sub) >= 4 {
			return sub[3]
		}
		return value
	})
}

// Load locates and parses a config file starting from dir. It first looks
// for dir/docs.config.json, then for a "docs-cache" key inside
// dir/package.json. Returns the parsed config, the resolved sources, and
// the absolute path the config lives at (used to resolve cacheDir/
// targetDir and to locate the sibling lockfile).
func Load(dir string) (*Loaded, error) {
	standalone := filepath.Join(dir, DefaultConfigFileName)
	if data, err := os.ReadFile(standalone); err == nil {
		return parse(data, standalone, false)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading %s: %w", standalone, err)
	}

	pkgPath := filepath.Join(dir, "package.json")
	data, err := os.ReadFile(pkgPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no config file found: neither %s nor a %q key in package.json exists", standalone, packageJSONKey)
		}
		return nil, fmt.Errorf("reading %s: %w", pkgPath, err)
	}

	var outer map[string]json.RawMessage
	if err := json.Unmarshal(data, &outer); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", pkgPath, err)
	}
	raw, ok := outer[packageJSONKey]
	if !ok {
		return nil, fmt.Errorf("no config file found: neither %s nor a %q key in package.json exists", standalone, packageJSONKey)
	}
	return parse(raw, pkgPath, true)
}

// LoadPath loads a config from an explicit file path (used by --config),
// detecting package.json embedding by filename.
func LoadPath(path string) (*Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if filepath.Base(path) == "package.json" {
		var outer map[string]json.RawMessage
		if err := json.Unmarshal(data, &outer); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		raw, ok := outer[packageJSONKey]
		if !ok {
			return nil, fmt.Errorf("no %q key found in %s", packageJSONKey, path)
		}
		return parse(raw, path, true)
	}
	return parse(data, path, false)
}

func parse(data []byte, path string, inPackageJSON bool) (*Loaded, error) {
	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path of %s: %w", path, err)
	}

	cfg.CacheDir = expandEnvVars(cfg.CacheDir)
	for i := range cfg.Sources {
		cfg.Sources[i].TargetDir = expandEnvVars(cfg.Sources[i].TargetDir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", abs, err)
	}

	resolved, err := cfg.Resolve(abs)
	if err != nil {
		return nil, fmt.Errorf("resolving config %s: %w", abs, err)
	}

	return &Loaded{
		Config:          &cfg,
		ResolvedPath:    abs,
		InPackageJSON:   inPackageJSON,
		ResolvedSources: resolved,
	}, nil
}

// osDefaultTargetMode mirrors spec.md §3: symlink on Unix, copy on Windows.
func osDefaultTargetMode() TargetMode {
	if runtime.GOOS == "windows" {
		return TargetModeCopy
	}
	return TargetModeSymlink
}
