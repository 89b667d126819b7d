package gitstore

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// storeDirName is the subdirectory created under the user cache root.
const storeDirName = "docs-cache/git-store"

// DefaultStoreRoot resolves the process-wide GitStore location of
// spec.md §3/§6.4: DOCS_CACHE_GIT_DIR if set, otherwise a
// docs-cache/git-store directory under the OS-appropriate user cache
// root. adrg/xdg already resolves XDG_CACHE_HOME on Unix and
// %LOCALAPPDATA% on Windows, so no platform switch is needed here.
func DefaultStoreRoot() (string, error) {
	if override := os.Getenv("DOCS_CACHE_GIT_DIR"); override != "" {
		abs, err := filepath.Abs(override)
		if err != nil {
			return "", err
		}
		return abs, nil
	}
	return filepath.Join(xdg.CacheHome, storeDirName), nil
}
