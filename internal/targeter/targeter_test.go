package targeter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hk9890/docs-cache/internal/docsconfig"
)

func TestApplyCopyMode(t *testing.T) {
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "a.md"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	dstParent := t.TempDir()
	dst := filepath.Join(dstParent, "target")

	if err := Apply(Request{SourceDir: src, TargetDir: dst, Mode: docsconfig.TargetModeCopy}); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dst, "a.md"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hi" {
		t.Errorf("got %q", data)
	}

	info, err := os.Lstat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		t.Error("expected a real directory, not a symlink, in copy mode")
	}
}

func TestApplySymlinkMode(t *testing.T) {
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "a.md"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	dstParent := t.TempDir()
	dst := filepath.Join(dstParent, "target")

	if err := Apply(Request{SourceDir: src, TargetDir: dst, Mode: docsconfig.TargetModeSymlink}); err != nil {
		t.Fatal(err)
	}

	info, err := os.Lstat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		t.Skip("platform fell back to copy mode; fallback path covered separately")
	}
}

func TestApplyReplacesExistingTarget(t *testing.T) {
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "new.md"), []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}

	dstParent := t.TempDir()
	dst := filepath.Join(dstParent, "target")
	if err := os.MkdirAll(dst, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dst, "old.md"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Apply(Request{SourceDir: src, TargetDir: dst, Mode: docsconfig.TargetModeCopy}); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(dst, "old.md")); err == nil {
		t.Error("expected old target content to be removed")
	}
}

func TestApplyEmptyTargetDirIsNoop(t *testing.T) {
	if err := Apply(Request{SourceDir: t.TempDir(), TargetDir: ""}); err != nil {
		t.Errorf("expected no-op for empty target dir, got %v", err)
	}
}
