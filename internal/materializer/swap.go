package materializer

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/hk9890/docs-cache/internal/synerr"
)

const (
	lockPollInterval = 100 * time.Millisecond
	lockMaxWait      = 5 * time.Second
)

// acquireLock creates cacheDir/<sourceID>.lock with O_CREAT|O_EXCL,
// spinning for up to lockMaxWait before giving up (spec.md §4.6).
func acquireLock(cacheDir, sourceID string) (release func(), err error) {
	lockPath := filepath.Join(cacheDir, sourceID+".lock")
	deadline := time.Now().Add(lockMaxWait)

	for {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			f.Close()
			return func() { _ = os.Remove(lockPath) }, nil
		}
		if !os.IsExist(err) {
			return nil, err
		}
		if time.Now().After(deadline) {
			return nil, synerr.New(synerr.KindLockTimeout, sourceID, true,
				fmt.Errorf("timed out waiting for lock %s", lockPath))
		}
		time.Sleep(lockPollInterval)
	}
}

// swapIntoPlace implements spec.md §4.6's atomic swap: the existing
// per-source directory, if present, is backed up by rename; the temp
// directory is renamed into its place; on failure the backup is restored.
func swapIntoPlace(tempDir, finalDir string) error {
	_, statErr := os.Stat(finalDir)
	hadExisting := statErr == nil

	var backupDir string
	if hadExisting {
		backupDir = finalDir + fmt.Sprintf(".bak-%d", rand.Int63())
		if err := os.Rename(finalDir, backupDir); err != nil {
			return fmt.Errorf("back up existing cache dir: %w", err)
		}
	}

	if err := os.Rename(tempDir, finalDir); err != nil {
		if hadExisting {
			if restoreErr := os.Rename(backupDir, finalDir); restoreErr != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to restore backup %s after failed swap: %v\n", backupDir, restoreErr)
			}
		}
		return fmt.Errorf("swap temp dir into place: %w", err)
	}

	if hadExisting {
		if err := os.RemoveAll(backupDir); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to remove backup %s: %v\n", backupDir, err)
		}
	}
	return nil
}
