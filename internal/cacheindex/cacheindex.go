// Package cacheindex writes cacheDir/index.json, a machine-readable
// summary of every source's materialized state (spec.md §4.9 "Index
// file").
//
// Grounded on pkg/workspace/manager.go's CacheMetadata/saveMetadata pair
// (load-or-default, marshal-indent, write) for the load/save shape, here
// applied to an always-regenerated summary rather than an incrementally
// updated lookup index.
package cacheindex

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the index file written into the cache root.
const FileName = "index.json"

// Entry summarizes one source's materialized state.
type Entry struct {
	ID             string `json:"id"`
	Repo           string `json:"repo"`
	Ref            string `json:"ref"`
	ResolvedCommit string `json:"resolvedCommit"`
	Bytes          int64  `json:"bytes"`
	FileCount      int    `json:"fileCount"`
	ManifestSha256 string `json:"manifestSha256"`
	CachePath      string `json:"cachePath"`
	TargetDir      string `json:"targetDir,omitempty"`
	GeneratedAt    string `json:"generatedAt"`
}

// Index is the root document.
type Index struct {
	GeneratedAt string  `json:"generatedAt"`
	Sources     []Entry `json:"sources"`
}

// Write renders cacheDir/index.json from entries, overwriting any
// existing file.
func Write(cacheDir string, entries []Entry, generatedAt string) error {
	idx := Index{GeneratedAt: generatedAt, Sources: entries}

	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache index: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	path := filepath.Join(cacheDir, FileName)
	tmp, err := os.CreateTemp(cacheDir, ".index.json-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp index file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp index file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp index file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("chmod temp index file: %w", err)
	}
	return os.Rename(tmpPath, path)
}

// Read loads cacheDir/index.json, returning nil if it does not exist.
func Read(cacheDir string) (*Index, error) {
	data, err := os.ReadFile(filepath.Join(cacheDir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cache index: %w", err)
	}
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("parse cache index: %w", err)
	}
	return &idx, nil
}
