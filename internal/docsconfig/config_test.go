package docsconfig

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadStandaloneConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, DefaultConfigFileName), `{
  "cacheDir": ".docs",
  "sources": [
    {"id": "local", "repo": "https://github.com/owner/repo.git"}
  ]
}`)

	loaded, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.InPackageJSON {
		t.Error("expected standalone config, not package.json")
	}
	if len(loaded.ResolvedSources) != 1 {
		t.Fatalf("got %d sources, want 1", len(loaded.ResolvedSources))
	}
	rs := loaded.ResolvedSources[0]
	if rs.Ref != "HEAD" {
		t.Errorf("ref = %q, want HEAD", rs.Ref)
	}
	if len(rs.Include) != 1 || rs.Include[0] != defaultInclude[0] {
		t.Errorf("include = %v, want default", rs.Include)
	}
	if rs.MaxBytes != defaultMaxBytes {
		t.Errorf("maxBytes = %d, want %d", rs.MaxBytes, defaultMaxBytes)
	}
	if !rs.Required {
		t.Error("required should default true")
	}
	if !rs.TOC {
		t.Error("toc should default true")
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, DefaultConfigFileName), `{"bogusKey": true, "sources": []}`)

	if _, err := Load(dir); err == nil {
		t.Error("expected error for unknown top-level key")
	}
}

func TestLoadRejectsDuplicateIDs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, DefaultConfigFileName), `{
  "sources": [
    {"id": "a", "repo": "https://github.com/o/r1.git"},
    {"id": "a", "repo": "https://github.com/o/r2.git"}
  ]
}`)

	if _, err := Load(dir); err == nil {
		t.Error("expected error for duplicate source id")
	}
}

func TestLoadFromPackageJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "package.json"), `{
  "name": "example",
  "docs-cache": {
    "sources": [{"id": "a", "repo": "https://github.com/o/r.git"}]
  }
}`)

	loaded, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !loaded.InPackageJSON {
		t.Error("expected package.json config")
	}
	if len(loaded.ResolvedSources) != 1 {
		t.Fatalf("got %d sources", len(loaded.ResolvedSources))
	}
}

func TestSourceTargetModePrecedence(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, DefaultConfigFileName), `{
  "targetMode": "copy",
  "sources": [
    {"id": "a", "repo": "https://github.com/o/r.git", "targetMode": "symlink"},
    {"id": "b", "repo": "https://github.com/o/r2.git"}
  ]
}`)

	loaded, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.ResolvedSources[0].TargetMode != TargetModeSymlink {
		t.Errorf("source override should win, got %q", loaded.ResolvedSources[0].TargetMode)
	}
	if loaded.ResolvedSources[1].TargetMode != TargetModeCopy {
		t.Errorf("config default should apply, got %q", loaded.ResolvedSources[1].TargetMode)
	}
}

func TestTargetDirMustNotEscapeConfigDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, DefaultConfigFileName), `{
  "sources": [{"id": "a", "repo": "https://github.com/o/r.git", "targetDir": "../../etc"}]
}`)

	if _, err := Load(dir); err == nil {
		t.Error("expected targetDir escape to be rejected")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultConfigFileName)
	cfg := &Config{
		Schema: "https://example.com/schema.json",
		Sources: []SourceSpec{
			{ID: "a", Repo: "https://github.com/o/r.git"},
		},
	}
	if err := Save(path, cfg, false); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var roundTripped Config
	if err := json.Unmarshal(data, &roundTripped); err != nil {
		t.Fatal(err)
	}
	if roundTripped.Schema != cfg.Schema {
		t.Errorf("$schema not preserved: got %q", roundTripped.Schema)
	}
	if len(roundTripped.Sources) != 1 || roundTripped.Sources[0].ID != "a" {
		t.Errorf("sources not preserved: %+v", roundTripped.Sources)
	}
}

func TestSavePreservesOtherPackageJSONKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "package.json")
	writeFile(t, path, `{"name": "example", "version": "1.0.0", "docs-cache": {"sources": []}}`)

	cfg := &Config{Sources: []SourceSpec{{ID: "a", Repo: "https://github.com/o/r.git"}}}
	if err := Save(path, cfg, true); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(data, &outer); err != nil {
		t.Fatal(err)
	}
	var name string
	if err := json.Unmarshal(outer["name"], &name); err != nil || name != "example" {
		t.Errorf("name key not preserved: %v %q", err, name)
	}
}
