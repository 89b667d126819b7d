// Package targeter applies a source's materialized cache directory to its
// configured target directory, by symlink or by copy (spec.md §4.7).
//
// Grounded on pkg/repo/fileops.go's copyFile/copyDir pair for the
// recursive-copy fallback, generalized from a single Manager method into a
// standalone recursive copier, with fatih/color taking over the
// degraded-mode warning the teacher only logged via slog.
package targeter

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/hk9890/docs-cache/internal/docsconfig"
)

// Request describes one source's target application.
type Request struct {
	SourceDir string
	TargetDir string
	Mode      docsconfig.TargetMode
	Explicit  bool // true if the user configured the mode explicitly
}

// Apply ensures TargetDir reflects SourceDir's contents, via symlink or
// copy per Mode, falling back to a copy if symlinking is unsupported.
func Apply(req Request) error {
	if req.TargetDir == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(req.TargetDir), 0o755); err != nil {
		return fmt.Errorf("create target parent dir: %w", err)
	}

	if err := os.RemoveAll(req.TargetDir); err != nil {
		return fmt.Errorf("remove existing target dir: %w", err)
	}

	if req.Mode == docsconfig.TargetModeCopy {
		return copyDir(req.SourceDir, req.TargetDir)
	}

	if err := os.Symlink(req.SourceDir, req.TargetDir); err != nil {
		if !isUnsupportedSymlinkErr(err) {
			return fmt.Errorf("create symlink target: %w", err)
		}
		if req.Explicit {
			color.New(color.FgYellow).Fprintf(os.Stderr,
				"warning: symlink target mode was requested for %q but is not supported here; falling back to copy\n",
				req.TargetDir)
		}
		_ = os.RemoveAll(req.TargetDir)
		return copyDir(req.SourceDir, req.TargetDir)
	}

	return nil
}

// isUnsupportedSymlinkErr reports whether err indicates the platform or
// filesystem cannot create a symlink (as opposed to some other failure
// that should propagate), per spec.md §4.7's EPERM|EACCES|ENOTSUP|EINVAL
// fallback list.
func isUnsupportedSymlinkErr(err error) bool {
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) {
		return false
	}
	var errno syscall.Errno
	if !errors.As(linkErr.Err, &errno) {
		return false
	}
	switch errno {
	case syscall.EPERM, syscall.EACCES, syscall.EINVAL:
		return true
	default:
		return isPlatformUnsupported(errno)
	}
}

// copyDir recursively copies src into dst, mirroring directory permissions
// and following no symlinks from the source tree (it is fed only the
// already-materialized cache directory, which never contains symlinks —
// see internal/materializer's enumeration safety).
func copyDir(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dst, info.Mode()); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			if err := copyDir(srcPath, dstPath); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(srcPath, dstPath); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
