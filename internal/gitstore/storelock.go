package gitstore

import (
	"fmt"
	"os"
	"time"
)

const (
	storeLockPollInterval = 100 * time.Millisecond
	storeLockMaxWait      = 30 * time.Second
)

// acquireStoreLock serializes mutating operations (clone, fetch,
// partial-clone cleanup) against a single bare repo directory, per
// spec.md §5's "at most one fetcher mutating a given bare repo at once"
// requirement. The marker lives alongside the store directory rather than
// inside it, so it survives a clone/reclone that replaces storePath
// wholesale.
func acquireStoreLock(storePath string) (release func(), err error) {
	lockPath := storePath + ".lock"
	deadline := time.Now().Add(storeLockMaxWait)

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
			return nil, fmt.Errorf("timed out waiting for git store lock %s", lockPath)
		}
		time.Sleep(storeLockPollInterval)
	}
}
