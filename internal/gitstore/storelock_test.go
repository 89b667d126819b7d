package gitstore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAcquireStoreLockExclusive(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "store")

	release, err := acquireStoreLock(storePath)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(storePath + ".lock"); err != nil {
		t.Fatalf("expected lock file to exist: %v", err)
	}

	release()

	if _, err := os.Stat(storePath + ".lock"); !os.IsNotExist(err) {
		t.Error("expected lock file to be removed after release")
	}
}

func TestAcquireStoreLockReacquireAfterRelease(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "store")

	release1, err := acquireStoreLock(storePath)
	if err != nil {
		t.Fatal(err)
	}
	release1()

	release2, err := acquireStoreLock(storePath)
	if err != nil {
		t.Fatal(err)
	}
	release2()
}
