package gitstore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStorePathDeterministic(t *testing.T) {
	root := t.TempDir()
	p1 := StorePath(root, "https://github.com/anthropics/skills")
	p2 := StorePath(root, "https://GitHub.com/Anthropics/Skills.git/")
	if p1 != p2 {
		t.Errorf("expected equal normalized paths, got %q vs %q", p1, p2)
	}
}

func TestStorePathDiffersPerRepo(t *testing.T) {
	root := t.TempDir()
	p1 := StorePath(root, "https://github.com/a/one")
	p2 := StorePath(root, "https://github.com/a/two")
	if p1 == p2 {
		t.Errorf("expected different paths for different repos")
	}
}

func TestHasPartialCloneMarkers(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config")
	content := "[core]\n\trepositoryformatversion = 0\n[remote \"origin\"]\n\tpromisor = true\n\tpartialclonefilter = blob:none\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if !hasPartialCloneMarkers(dir) {
		t.Error("expected partial-clone markers to be detected")
	}
}

func TestHasPartialCloneMarkersCleanConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config")
	content := "[core]\n\trepositoryformatversion = 0\n\tbare = true\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if hasPartialCloneMarkers(dir) {
		t.Error("did not expect markers in a clean config")
	}
}

func TestHasPartialCloneMarkersMissingFile(t *testing.T) {
	if hasPartialCloneMarkers(t.TempDir()) {
		t.Error("missing config should not report markers")
	}
}

func TestNormalizeRepoURL(t *testing.T) {
	cases := map[string]string{
		"https://GitHub.com/Anthropics/Skills.git/": "https://github.com/anthropics/skills",
		"  https://github.com/a/b  ":                "https://github.com/a/b",
	}
	for in, want := range cases {
		if got := normalizeRepoURL(in); got != want {
			t.Errorf("normalizeRepoURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDurationMsZeroMeansDefault(t *testing.T) {
	if durationMs(0) != 0 {
		t.Errorf("expected zero duration for zero ms")
	}
	if durationMs(500) <= 0 {
		t.Errorf("expected positive duration for positive ms")
	}
}
