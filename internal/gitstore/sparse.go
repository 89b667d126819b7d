package gitstore

import (
	"strings"

	"github.com/hk9890/docs-cache/internal/synerr"
)

// maxBraceExpansions bounds the brace-alternation fan-out (spec.md §4.5).
const maxBraceExpansions = 500

// SparseSpec is the fetcher's plan for `git sparse-checkout set`.
type SparseSpec struct {
	Enabled bool
	Cone    bool     // cone mode restricted to directory prefixes
	Dirs    []string // cone-mode directory list (deduplicated)
	Patterns []string // no-cone pattern list
}

// PlanSparse derives a SparseSpec from a set of include patterns
// (spec.md §4.5): normalize separators, expand brace alternations,
// classify cone vs no-cone.
func PlanSparse(include []string) (*SparseSpec, error) {
	if len(include) == 0 {
		return &SparseSpec{Enabled: false}, nil
	}

	var normalized []string
	for _, p := range include {
		p = strings.ReplaceAll(p, "\\", "/")
		if p == "" {
			continue
		}
		normalized = append(normalized, p)
	}
	if len(normalized) == 0 {
		return &SparseSpec{Enabled: false}, nil
	}

	expanded, err := expandAllBraces(normalized)
	if err != nil {
		return nil, err
	}

	cone := true
	seenDirs := make(map[string]bool)
	var dirs []string
	var patterns []string

	for _, p := range expanded {
		if strings.Contains(p, "**") {
			cone = false
		}
		if !isDirectoryLiteral(p) {
			cone = false
		}
	}

	if cone {
		for _, p := range expanded {
			dir := strings.TrimSuffix(p, "/")
			if dir == "" {
				continue
			}
			if !seenDirs[dir] {
				seenDirs[dir] = true
				dirs = append(dirs, dir)
			}
		}
		return &SparseSpec{Enabled: true, Cone: true, Dirs: dirs}, nil
	}

	for _, p := range expanded {
		if isDirectoryLiteral(p) && !strings.HasSuffix(p, "/") {
			p += "/"
		}
		patterns = append(patterns, p)
	}
	return &SparseSpec{Enabled: true, Cone: false, Patterns: patterns}, nil
}

// isDirectoryLiteral reports whether p contains no glob metacharacter and
// ends with '/'. A metacharacter-free path without a trailing separator is
// not treated as a directory literal.
func isDirectoryLiteral(p string) bool {
	if hasGlobMeta(p) {
		return false
	}
	return strings.HasSuffix(p, "/")
}

func hasGlobMeta(p string) bool {
	return strings.ContainsAny(p, "*?[{}")
}

// expandAllBraces expands `{a,b,c}` alternations in every pattern,
// capping the total number of results at maxBraceExpansions.
func expandAllBraces(patterns []string) ([]string, error) {
	var out []string
	for _, p := range patterns {
		expanded, err := expandBraces(p)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
		if len(out) > maxBraceExpansions {
			return nil, synerr.Newf(synerr.KindBraceExpansionExceed, "", true,
				"brace expansion of include patterns exceeds %d alternatives", maxBraceExpansions)
		}
	}
	return out, nil
}

// expandBraces expands a single pattern's `{a,b,c}` groups into every
// alternative, recursively (to support more than one group per pattern).
func expandBraces(pattern string) ([]string, error) {
	start := strings.IndexByte(pattern, '{')
	if start < 0 {
		return []string{pattern}, nil
	}
	end := matchingBrace(pattern, start)
	if end < 0 {
		// Unbalanced brace: treat literally, no expansion.
		return []string{pattern}, nil
	}

	prefix := pattern[:start]
	alternatives := strings.Split(pattern[start+1:end], ",")
	suffix := pattern[end+1:]

	var out []string
	for _, alt := range alternatives {
		combined := prefix + alt + suffix
		rest, err := expandBraces(combined)
		if err != nil {
			return nil, err
		}
		out = append(out, rest...)
		if len(out) > maxBraceExpansions {
			return nil, synerr.Newf(synerr.KindBraceExpansionExceed, "", true,
				"brace expansion of %q exceeds %d alternatives", pattern, maxBraceExpansions)
		}
	}
	return out, nil
}

func matchingBrace(s string, openIdx int) int {
	depth := 0
	for i := openIdx; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
