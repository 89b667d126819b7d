package syncengine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hk9890/docs-cache/internal/docsconfig"
	"github.com/hk9890/docs-cache/internal/gitstore"
	"github.com/hk9890/docs-cache/internal/lockfile"
	"github.com/hk9890/docs-cache/internal/refresolver"
	"github.com/hk9890/docs-cache/internal/synerr"
)

// stubResolver returns a fixed commit for every request, matching
// spec.md §9's dependency-injection seam.
func stubResolver(commit string) refresolver.Resolver {
	return func(ctx context.Context, req refresolver.Request) (refresolver.Result, error) {
		return refresolver.Result{Repo: req.Repo, Ref: req.Ref, ResolvedCommit: commit}, nil
	}
}

// stubFetcher hands back a fixed working directory containing the given
// files, with a no-op cleanup.
func stubFetcher(t *testing.T, files map[string]string) gitstore.Fetcher {
	t.Helper()
	repoDir := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(repoDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return func(ctx context.Context, storeRoot string, req gitstore.FetchRequest) (gitstore.FetchResult, error) {
		return gitstore.FetchResult{RepoDir: repoDir, Cleanup: func() error { return nil }}, nil
	}
}

func oneSourceConfig(id, repo string) ([]docsconfig.ResolvedSource, *docsconfig.Config) {
	cfg := &docsconfig.Config{Sources: []docsconfig.SourceSpec{{ID: id, Repo: repo}}}
	resolved := docsconfig.ResolvedSource{
		ID: id, Repo: repo, Ref: "HEAD",
		Include: []string{"**/*.md"}, Required: true,
		TOC: true, UnwrapSingleRootDir: true,
		AllowHosts: []string{"example.com"},
	}
	return []docsconfig.ResolvedSource{resolved}, cfg
}

func TestFreshSyncOfOneSource(t *testing.T) {
	cacheDir := t.TempDir()
	resolved, cfg := oneSourceConfig("local", "https://example.com/repo.git")

	deps := Deps{
		Resolver: stubResolver("abc123"),
		Fetcher:  stubFetcher(t, map[string]string{"README.md": "hello"}),
	}

	cfgPath := filepath.Join(t.TempDir(), "docs.config.json")
	opts := Options{ConfigPath: cfgPath, Concurrency: 2}

	result, err := Run(context.Background(), cfg, resolved, cacheDir, nil, opts, deps)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Results) != 1 || result.Results[0].Status != StatusDone {
		t.Fatalf("expected one done result, got %+v", result.Results)
	}

	data, err := os.ReadFile(filepath.Join(cacheDir, "local", "README.md"))
	if err != nil || string(data) != "hello" {
		t.Fatalf("expected materialized README.md: %v %q", err, data)
	}

	manifest, err := os.ReadFile(filepath.Join(cacheDir, "local", ".manifest.ndjson"))
	if err != nil {
		t.Fatal(err)
	}
	if string(manifest) != `{"path":"README.md","size":5}`+"\n" {
		t.Errorf("unexpected manifest content: %q", manifest)
	}

	lock, err := lockfile.Read(lockfile.ResolvePath(cfgPath))
	if err != nil {
		t.Fatal(err)
	}
	entry, ok := lock.Sources["local"]
	if !ok {
		t.Fatal("expected a lock entry for local")
	}
	if entry.ResolvedCommit != "abc123" || entry.FileCount != 1 || entry.Bytes != 5 {
		t.Errorf("unexpected lock entry: %+v", entry)
	}
}

func TestFrozenDriftRejected(t *testing.T) {
	cacheDir := t.TempDir()
	resolved, cfg := oneSourceConfig("local", "https://example.com/repo.git")

	lock := lockfile.New("0.1.0", "2026-01-01T00:00:00Z")
	aaaa := ""
	for i := 0; i < 40; i++ {
		aaaa += "a"
	}
	lock.Sources["local"] = lockfile.LockEntry{
		Repo: "https://example.com/repo.git", Ref: "HEAD", ResolvedCommit: aaaa,
	}

	deps := Deps{
		Resolver: stubResolver("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"),
		Fetcher:  stubFetcher(t, map[string]string{"README.md": "hello"}),
	}

	cfgPath := filepath.Join(t.TempDir(), "docs.config.json")
	opts := Options{ConfigPath: cfgPath, Frozen: true}

	_, err := Run(context.Background(), cfg, resolved, cacheDir, lock, opts, deps)
	if !synerr.IsKind(err, synerr.KindFrozenSyncFailed) {
		t.Fatalf("expected FrozenSyncFailed, got %v", err)
	}

	if _, statErr := os.Stat(filepath.Join(cacheDir, "local")); !os.IsNotExist(statErr) {
		t.Error("frozen rejection must not materialize anything")
	}
}

func TestOfflineMissingRequiredFails(t *testing.T) {
	cacheDir := t.TempDir()
	resolved, cfg := oneSourceConfig("local", "https://example.com/repo.git")

	deps := Deps{Resolver: stubResolver("unused"), Fetcher: stubFetcher(t, nil)}
	cfgPath := filepath.Join(t.TempDir(), "docs.config.json")
	opts := Options{ConfigPath: cfgPath, Offline: true, FailOnMiss: true}

	_, err := Run(context.Background(), cfg, resolved, cacheDir, nil, opts, deps)
	if !synerr.IsKind(err, synerr.KindMissingRequiredSource) {
		t.Fatalf("expected MissingRequiredSource, got %v", err)
	}
}

func TestOfflineMissingOptionalSucceeds(t *testing.T) {
	cacheDir := t.TempDir()
	resolved, cfg := oneSourceConfig("local", "https://example.com/repo.git")
	resolved[0].Required = false
	cfg.Sources[0].Required = boolPtr(false)

	deps := Deps{Resolver: stubResolver("unused"), Fetcher: stubFetcher(t, nil)}
	cfgPath := filepath.Join(t.TempDir(), "docs.config.json")
	opts := Options{ConfigPath: cfgPath, Offline: true, FailOnMiss: true}

	result, err := Run(context.Background(), cfg, resolved, cacheDir, nil, opts, deps)
	if err != nil {
		t.Fatalf("expected optional miss to succeed, got %v", err)
	}
	if result.Results[0].Status != StatusSkippedOffline {
		t.Errorf("expected skipped-offline-optional, got %v", result.Results[0].Status)
	}
}

func TestLockStaleIDPurge(t *testing.T) {
	cacheDir := t.TempDir()
	resolved, cfg := oneSourceConfig("a", "https://example.com/a.git")

	lock := lockfile.New("0.1.0", "2026-01-01T00:00:00Z")
	lock.Sources["a"] = lockfile.LockEntry{Repo: "https://example.com/a.git", ResolvedCommit: "x"}
	lock.Sources["b"] = lockfile.LockEntry{Repo: "https://example.com/b.git", ResolvedCommit: "y"}

	deps := Deps{
		Resolver: stubResolver("newcommit"),
		Fetcher:  stubFetcher(t, map[string]string{"a.md": "a"}),
	}
	cfgPath := filepath.Join(t.TempDir(), "docs.config.json")
	opts := Options{ConfigPath: cfgPath}

	_, err := Run(context.Background(), cfg, resolved, cacheDir, lock, opts, deps)
	if err != nil {
		t.Fatal(err)
	}

	newLock, err := lockfile.Read(lockfile.ResolvePath(cfgPath))
	if err != nil {
		t.Fatal(err)
	}
	if len(newLock.Sources) != 1 {
		t.Fatalf("expected exactly one source in purged lock, got %v", newLock.Sources)
	}
	if _, ok := newLock.Sources["b"]; ok {
		t.Error("expected stale id b to be purged")
	}
}

func TestUpToDateSourceIsSkippedWithoutFetch(t *testing.T) {
	cacheDir := t.TempDir()
	resolved, cfg := oneSourceConfig("local", "https://example.com/repo.git")

	sourceDir := filepath.Join(cacheDir, "local")
	if err := os.MkdirAll(sourceDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sourceDir, ".manifest.ndjson"), []byte(`{"path":"README.md","size":5}`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	lock := lockfile.New("0.1.0", "2026-01-01T00:00:00Z")
	lock.Sources["local"] = lockfile.LockEntry{
		Repo: "https://example.com/repo.git", ResolvedCommit: "abc123",
		RulesSha256: rulesDigest(resolved[0]), FileCount: 1, Bytes: 5,
	}

	fetchCalled := false
	deps := Deps{
		Resolver: stubResolver("abc123"),
		Fetcher: func(ctx context.Context, storeRoot string, req gitstore.FetchRequest) (gitstore.FetchResult, error) {
			fetchCalled = true
			return gitstore.FetchResult{}, nil
		},
	}

	cfgPath := filepath.Join(t.TempDir(), "docs.config.json")
	opts := Options{ConfigPath: cfgPath}

	result, err := Run(context.Background(), cfg, resolved, cacheDir, lock, opts, deps)
	if err != nil {
		t.Fatal(err)
	}
	if fetchCalled {
		t.Error("up-to-date source must not be re-fetched")
	}
	if result.Results[0].Status != StatusUpToDate {
		t.Errorf("expected up-to-date, got %v", result.Results[0].Status)
	}
}

func boolPtr(b bool) *bool { return &b }
