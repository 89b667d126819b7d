package materializer

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hk9890/docs-cache/internal/pathsafety"
)

// enumerate walks repoDir and returns the matched relative POSIX paths,
// sorted ascending, skipping .git entirely and never following symlinks
// (spec.md §4.6). Only regular files are considered.
func enumerate(repoDir string, m *compiledMatcher) ([]string, error) {
	var matched []string

	err := filepath.WalkDir(repoDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == repoDir {
			return nil
		}
		rel, relErr := filepath.Rel(repoDir, path)
		if relErr != nil {
			return relErr
		}
		relPosix := pathsafety.ToPosix(rel)

		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}

		// Symbolic links are never materialized; DirEntry.Type() reflects
		// the unresolved lstat mode, so this check never follows the link.
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		if m.matches(relPosix) {
			matched = append(matched, relPosix)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(matched)
	return matched, nil
}

// unwrapCommonPrefix implements spec.md §4.6's "unwrapSingleRootDir":
// while every path shares the same leading segment and stripping it would
// still leave at least one segment per path, strip it.
func unwrapCommonPrefix(paths []string) []string {
	if len(paths) == 0 {
		return paths
	}

	current := append([]string(nil), paths...)
	for {
		first := firstSegment(current[0])
		if first == "" {
			return current
		}
		allShare := true
		for _, p := range current {
			seg := firstSegment(p)
			if seg != first || !strings.Contains(p, "/") {
				allShare = false
				break
			}
		}
		if !allShare {
			return current
		}
		stripped := make([]string, len(current))
		for i, p := range current {
			stripped[i] = strings.TrimPrefix(p, first+"/")
		}
		current = stripped
	}
}

func firstSegment(p string) string {
	if idx := strings.IndexByte(p, '/'); idx >= 0 {
		return p[:idx]
	}
	return ""
}
