// Package lockfile implements the docs.lock model of spec.md §4.3/§6.2:
// a JSON record of the resolved commit and integrity hashes for every
// source, written as a sibling of the config file.
//
// Grounded on the teacher's pkg/repomanifest/manifest.go (Load/Save/
// Validate, version check, duplicate-key rejection), adapted from YAML
// and a source list to the JSON map<id,LockEntry> shape spec.md requires.
package lockfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// CurrentVersion is the only lockfile version this tool understands.
const CurrentVersion = 1

// LockEntry records what was materialized for one source.
type LockEntry struct {
	Repo           string `json:"repo"`
	Ref            string `json:"ref"`
	ResolvedCommit string `json:"resolvedCommit"`
	Bytes          int64  `json:"bytes"`
	FileCount      int    `json:"fileCount"`
	ManifestSha256 string `json:"manifestSha256"`
	RulesSha256    string `json:"rulesSha256,omitempty"`
	UpdatedAt      string `json:"updatedAt"`
}

// Lock is the root docs.lock document.
type Lock struct {
	Version     int                  `json:"version"`
	GeneratedAt string               `json:"generatedAt"`
	ToolVersion string               `json:"toolVersion"`
	Sources     map[string]LockEntry `json:"sources"`
}

// New creates an empty Lock ready to be populated.
func New(toolVersion, generatedAt string) *Lock {
	return &Lock{
		Version:     CurrentVersion,
		GeneratedAt: generatedAt,
		ToolVersion: toolVersion,
		Sources:     make(map[string]LockEntry),
	}
}

// ResolvePath returns the lockfile path sibling to configPath: docs.lock
// next to docs.config.json, or docs.lock next to package.json.
func ResolvePath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), "docs.lock")
}

// Read loads and validates a lockfile. A missing file is not an error: it
// returns (nil, nil) so callers can distinguish "no lock yet" from a
// genuine read failure.
func Read(path string) (*Lock, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading lockfile %s: %w", path, err)
	}

	var lock Lock
	if err := json.Unmarshal(data, &lock); err != nil {
		return nil, fmt.Errorf("parsing lockfile %s: %w", path, err)
	}
	if err := Validate(&lock); err != nil {
		return nil, fmt.Errorf("invalid lockfile %s: %w", path, err)
	}
	return &lock, nil
}

// Validate checks the structural invariants of spec.md §3/§4.3.
func Validate(l *Lock) error {
	if l == nil {
		return fmt.Errorf("lock is nil")
	}
	if l.Version != CurrentVersion {
		return fmt.Errorf("unsupported lock version %d (expected %d)", l.Version, CurrentVersion)
	}
	for id, entry := range l.Sources {
		if entry.Bytes < 0 {
			return fmt.Errorf("source %q: bytes must be >= 0", id)
		}
		if entry.FileCount < 0 {
			return fmt.Errorf("source %q: fileCount must be >= 0", id)
		}
	}
	return nil
}

// Write persists the lock atomically: marshal to a sibling temp file,
// then rename into place, so a crash never leaves a half-written lock and
// a failed sync never mutates the previous lockfile in place (spec.md §7).
func Write(path string, lock *Lock) error {
	if err := Validate(lock); err != nil {
		return fmt.Errorf("refusing to write invalid lock: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(lock); err != nil {
		return fmt.Errorf("marshaling lock: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".docs.lock-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp lockfile: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp lockfile: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp lockfile: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("chmod temp lockfile: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming lockfile into place: %w", err)
	}
	return nil
}
