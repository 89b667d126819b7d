// Package pathsafety validates source identifiers and resolves cache and
// target directories without allowing path traversal outside their roots.
//
// Grounded on pkg/repomanifest/sourceid.go's name-validation regex and
// pkg/source/git.go's CleanupTempDir containment check.
package pathsafety

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// idPattern matches the safe identifier grammar of spec.md §3: up to 200
// chars of letters, digits, underscore, or hyphen.
var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,200}$`)

// forbiddenChars are always rejected even if idPattern would otherwise
// allow them through (kept as a second, explicit line of defense).
const forbiddenChars = `<>:"/\|?*` + "\x00"

var reservedIDs = map[string]bool{
	".": true, "..": true,
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "LPT1": true,
}

// AssertSafeID validates a source identifier. It is idempotent: calling it
// again on an already-valid id returns nil again.
func AssertSafeID(id string) error {
	if id == "" {
		return fmt.Errorf("source id cannot be empty")
	}
	if strings.ContainsAny(id, forbiddenChars) {
		return fmt.Errorf("source id %q contains a forbidden character", id)
	}
	if strings.Contains(id, "..") {
		return fmt.Errorf("source id %q must not contain '..'", id)
	}
	if len(id) > 200 {
		return fmt.Errorf("source id %q exceeds 200 characters", id)
	}
	if !idPattern.MatchString(id) {
		return fmt.Errorf("source id %q must match [A-Za-z0-9_-]{1,200}", id)
	}
	if reservedIDs[strings.ToUpper(id)] || reservedIDs[id] {
		return fmt.Errorf("source id %q is reserved", id)
	}
	return nil
}

// ToPosix converts an OS path to forward-slash form, as used in manifest
// lines and lockfile paths.
func ToPosix(p string) string {
	return filepath.ToSlash(p)
}

// ResolveCacheDir resolves cacheDir relative to the directory containing
// configPath, unless override is non-empty (in which case override wins,
// resolved relative to the current working directory if relative). The
// chosen value is rejected if, after normalization, it still contains a
// ".." segment (a relative path climbing out of its base).
func ResolveCacheDir(configPath, cacheDir, override string) (string, error) {
	chosen := cacheDir
	if override != "" {
		chosen = override
	}
	if chosen == "" {
		chosen = ".docs"
	}
	if containsDotDot(filepath.Clean(chosen)) {
		return "", fmt.Errorf("cache dir %q escapes its base via '..'", chosen)
	}

	var abs string
	switch {
	case filepath.IsAbs(chosen):
		abs = filepath.Clean(chosen)
	case override != "":
		cwdAbs, err := filepath.Abs(chosen)
		if err != nil {
			return "", err
		}
		abs = cwdAbs
	default:
		base := filepath.Dir(configPath)
		abs = filepath.Clean(filepath.Join(base, chosen))
	}

	if containsDotDot(abs) {
		return "", fmt.Errorf("resolved cache dir %q escapes its base via '..'", abs)
	}
	return abs, nil
}

// ResolveTargetDir resolves targetDir relative to the directory containing
// configPath. A relative targetDir must resolve to a descendant of that
// directory. An absolute targetDir is allowed to point outside it (the
// user asked for that explicitly) but its value must still be a clean
// path with no residual "..".
func ResolveTargetDir(configPath, targetDir string) (string, error) {
	if targetDir == "" {
		return "", nil
	}

	configDir := filepath.Clean(filepath.Dir(configPath))

	if filepath.IsAbs(targetDir) {
		abs := filepath.Clean(targetDir)
		if containsDotDot(targetDir) {
			return "", fmt.Errorf("target dir %q is not a clean path", targetDir)
		}
		return abs, nil
	}

	abs := filepath.Clean(filepath.Join(configDir, targetDir))
	if !IsDescendant(configDir, abs) {
		return "", fmt.Errorf("target dir %q escapes config directory %q", targetDir, configDir)
	}
	return abs, nil
}

// IsDescendant reports whether child is root itself or a path beneath it.
func IsDescendant(root, child string) bool {
	root = filepath.Clean(root)
	child = filepath.Clean(child)
	if root == child {
		return true
	}
	return strings.HasPrefix(child, root+string(filepath.Separator))
}

// EnsureWithin verifies that target lies within root (the "root +
// separator" check mandated by spec.md §4.1/§4.6), returning an error
// otherwise. Both paths are cleaned before comparison.
func EnsureWithin(root, target string) error {
	if !IsDescendant(root, target) {
		return fmt.Errorf("path %q escapes root %q", target, root)
	}
	return nil
}

func containsDotDot(cleanPath string) bool {
	for _, part := range strings.Split(filepath.ToSlash(cleanPath), "/") {
		if part == ".." {
			return true
		}
	}
	return false
}
