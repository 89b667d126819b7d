package cacheindex

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteThenReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	entries := []Entry{
		{ID: "docs", Repo: "https://github.com/a/b", Ref: "main", ResolvedCommit: "abc123",
			Bytes: 1024, FileCount: 3, ManifestSha256: "deadbeef", CachePath: filepath.Join(dir, "docs")},
	}

	if err := Write(dir, entries, "2026-07-31T00:00:00Z"); err != nil {
		t.Fatal(err)
	}

	idx, err := Read(dir)
	if err != nil {
		t.Fatal(err)
	}
	if idx == nil || len(idx.Sources) != 1 {
		t.Fatalf("got %+v", idx)
	}
	if idx.Sources[0].ID != "docs" {
		t.Errorf("got %q", idx.Sources[0].ID)
	}
}

func TestReadMissingIsNilNotError(t *testing.T) {
	idx, err := Read(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if idx != nil {
		t.Errorf("expected nil index for missing file, got %+v", idx)
	}
}

func TestWriteOverwritesPreviousContent(t *testing.T) {
	dir := t.TempDir()
	if err := Write(dir, []Entry{{ID: "a"}}, "t1"); err != nil {
		t.Fatal(err)
	}
	if err := Write(dir, []Entry{{ID: "b"}}, "t2"); err != nil {
		t.Fatal(err)
	}
	idx, err := Read(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(idx.Sources) != 1 || idx.Sources[0].ID != "b" {
		t.Errorf("got %+v", idx)
	}
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	if err := Write(dir, []Entry{{ID: "a"}}, "t1"); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() != FileName {
			t.Errorf("unexpected leftover file %q", e.Name())
		}
	}
}
