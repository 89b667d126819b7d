// Package docsconfig implements the declarative configuration model of
// spec.md §3/§4.2/§6.1: a strict-JSON document (or an embedded
// "docs-cache" key inside package.json) naming a set of Git-hosted
// documentation sources with per-source and global defaults.
//
// Grounded on the teacher's pkg/config/config.go (Load/LoadGlobal shape,
// env-var expansion, XDG default resolution) and pkg/manifest/manifest.go
// (array-of-strings validation idiom), adapted from YAML to the JSON
// format spec.md mandates.
package docsconfig

import "fmt"

// TargetMode selects how a source's cache is projected to its target dir.
type TargetMode string

const (
	TargetModeSymlink TargetMode = "symlink"
	TargetModeCopy    TargetMode = "copy"
)

func (m TargetMode) Validate() error {
	switch m {
	case "", TargetModeSymlink, TargetModeCopy:
		return nil
	default:
		return fmt.Errorf("invalid targetMode %q (must be %q or %q)", m, TargetModeSymlink, TargetModeCopy)
	}
}

// IntegrityType names what an Integrity value pins.
type IntegrityType string

const (
	IntegrityCommit   IntegrityType = "commit"
	IntegrityManifest IntegrityType = "manifest"
)

// Integrity optionally pins a source to a known-good value, independent of
// the lockfile (useful for pinning in the config itself for review).
type Integrity struct {
	Type  IntegrityType `json:"type"`
	Value *string       `json:"value"`
}

// Defaults holds the config-level defaults merged into every source that
// does not override them.
type Defaults struct {
	Ref                 string   `json:"ref,omitempty"`
	Include             []string `json:"include,omitempty"`
	Exclude             []string `json:"exclude,omitempty"`
	Depth               int      `json:"depth,omitempty"`
	Required            *bool    `json:"required,omitempty"`
	MaxBytes            int64    `json:"maxBytes,omitempty"`
	MaxFiles            *int     `json:"maxFiles,omitempty"`
	AllowHosts          []string `json:"allowHosts,omitempty"`
	TOC                 *bool    `json:"toc,omitempty"`
	UnwrapSingleRootDir *bool    `json:"unwrapSingleRootDir,omitempty"`
	IgnoreHidden        *bool    `json:"ignoreHidden,omitempty"`
}

// SourceSpec is one declared, unresolved source (spec.md §3).
type SourceSpec struct {
	ID                  string     `json:"id"`
	Repo                string     `json:"repo"`
	Ref                 string     `json:"ref,omitempty"`
	Include             []string   `json:"include,omitempty"`
	Exclude             []string   `json:"exclude,omitempty"`
	Depth               int        `json:"depth,omitempty"`
	Required            *bool      `json:"required,omitempty"`
	MaxBytes            int64      `json:"maxBytes,omitempty"`
	MaxFiles            *int       `json:"maxFiles,omitempty"`
	TargetDir           string     `json:"targetDir,omitempty"`
	TargetMode          TargetMode `json:"targetMode,omitempty"`
	TOC                 *bool      `json:"toc,omitempty"`
	UnwrapSingleRootDir *bool      `json:"unwrapSingleRootDir,omitempty"`
	IgnoreHidden        *bool      `json:"ignoreHidden,omitempty"`
	AllowHosts          []string   `json:"allowHosts,omitempty"`
	Integrity           *Integrity `json:"integrity,omitempty"`
}

// Config is the root document (spec.md §6.1).
type Config struct {
	Schema     string       `json:"$schema,omitempty"`
	CacheDir   string       `json:"cacheDir,omitempty"`
	TargetMode TargetMode   `json:"targetMode,omitempty"`
	Defaults   Defaults     `json:"defaults,omitempty"`
	Sources    []SourceSpec `json:"sources"`
}

// ResolvedSource is a SourceSpec merged with Config.Defaults and the
// built-in defaults; every optional field is materialized.
type ResolvedSource struct {
	ID                  string
	Repo                string
	Ref                 string
	Include             []string
	Exclude             []string
	Depth               int
	Required            bool
	MaxBytes            int64
	MaxFiles            int // 0 means unset/unbounded
	TargetDir           string
	TargetMode          TargetMode
	TOC                 bool
	UnwrapSingleRootDir bool
	IgnoreHidden        bool
	AllowHosts          []string
	Integrity           *Integrity
}

// defaultInclude is spec.md §3's built-in include pattern.
var defaultInclude = []string{"**/*.{md,mdx,markdown,mkd,txt,rst,adoc,asciidoc}"}

// defaultAllowHosts is spec.md §3's built-in host allowlist.
var defaultAllowHosts = []string{"github.com", "gitlab.com"}

const defaultMaxBytes int64 = 200_000_000
