// Package maintenance implements the thin, ordinary-file-I/O operations
// the outer CLI exposes alongside sync: verify, prune, clean, and pin
// (spec.md §1/§6.5 — these "mutate configuration through ordinary JSON
// read/write and are thin over the sync engine", not new core machinery).
//
// Grounded on pkg/workspace/manager.go's ListCached/Prune/Remove, left as
// literal stubs in the teacher, and on pkg/repomanifest/manifest.go's
// pin-by-rewriting-the-manifest idiom.
package maintenance

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hk9890/docs-cache/internal/cacheindex"
	"github.com/hk9890/docs-cache/internal/docsconfig"
	"github.com/hk9890/docs-cache/internal/lockfile"
)

// SourceVerification reports one source's integrity check outcome.
type SourceVerification struct {
	ID      string
	OK      bool
	Problem string
}

// VerifyReport is the outcome of VerifyCache.
type VerifyReport struct {
	Sources []SourceVerification
}

// AllOK reports whether every source verified cleanly.
func (r VerifyReport) AllOK() bool {
	for _, s := range r.Sources {
		if !s.OK {
			return false
		}
	}
	return true
}

// VerifyCache recomputes each configured source's manifest hash from the
// on-disk .manifest.ndjson and compares it against the lockfile's
// manifestSha256, per the testable property of spec.md §8: "the
// manifestSha256 in the lock equals SHA-256 over the concatenation of
// .manifest.ndjson lines present in cacheDir/<id>/".
func VerifyCache(cacheDir string, resolved []docsconfig.ResolvedSource, lock *lockfile.Lock) (VerifyReport, error) {
	var report VerifyReport
	for _, rs := range resolved {
		v := SourceVerification{ID: rs.ID}
		manifestPath := filepath.Join(cacheDir, rs.ID, ".manifest.ndjson")

		sum, err := hashManifest(manifestPath)
		if err != nil {
			if os.IsNotExist(err) {
				v.Problem = "no cached manifest on disk"
			} else {
				v.Problem = fmt.Sprintf("reading manifest: %v", err)
			}
			report.Sources = append(report.Sources, v)
			continue
		}

		var entry lockfile.LockEntry
		var hasEntry bool
		if lock != nil {
			entry, hasEntry = lock.Sources[rs.ID]
		}
		switch {
		case !hasEntry:
			v.Problem = "no lockfile entry for this source"
		case entry.ManifestSha256 != sum:
			v.Problem = fmt.Sprintf("manifest hash mismatch: lock has %s, disk has %s", entry.ManifestSha256, sum)
		default:
			v.OK = true
		}
		report.Sources = append(report.Sources, v)
	}
	return report, nil
}

// hashManifest streams path, running the same SHA-256 accumulation the
// materializer uses while writing .manifest.ndjson (internal/materializer's
// manifestWriter), so a cache directory never touched by a crashed sync can
// still be independently verified.
func hashManifest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		h.Write(scanner.Bytes())
		h.Write([]byte("\n"))
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// PruneReport lists what PruneCache removed.
type PruneReport struct {
	RemovedDirs  []string
	RemovedStray []string
}

// PruneCache removes per-source cache directories whose id is no longer
// present in the resolved config, and sweeps up any stray transient
// artifacts left behind by a crashed sync (.tmp-*, .bak-*, *.lock —
// spec.md §5's "leftover .tmp-* directories and .lock files are
// considered invalid and ignored on next run; they will be deleted when
// noticed").
func PruneCache(cacheDir string, resolved []docsconfig.ResolvedSource) (PruneReport, error) {
	var report PruneReport

	keep := make(map[string]bool, len(resolved))
	for _, rs := range resolved {
		keep[rs.ID] = true
	}

	entries, err := os.ReadDir(cacheDir)
	if err != nil {
		if os.IsNotExist(err) {
			return report, nil
		}
		return report, fmt.Errorf("read cache dir: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if name == cacheindex.FileName {
			continue
		}
		full := filepath.Join(cacheDir, name)

		if isTransientArtifact(name) {
			if err := os.RemoveAll(full); err != nil {
				return report, fmt.Errorf("remove stray %s: %w", name, err)
			}
			report.RemovedStray = append(report.RemovedStray, name)
			continue
		}

		if entry.IsDir() && !keep[name] {
			if err := os.RemoveAll(full); err != nil {
				return report, fmt.Errorf("remove stale cache dir %s: %w", name, err)
			}
			report.RemovedDirs = append(report.RemovedDirs, name)
		}
	}

	sort.Strings(report.RemovedDirs)
	sort.Strings(report.RemovedStray)
	return report, nil
}

func isTransientArtifact(name string) bool {
	return strings.HasPrefix(name, ".tmp-") ||
		strings.Contains(name, ".bak-") ||
		strings.HasSuffix(name, ".lock")
}

// CleanCache removes the entire cache directory, source of truth and all
// (spec.md §6.5's "clean" operation).
func CleanCache(cacheDir string) error {
	return os.RemoveAll(cacheDir)
}

// CleanGitCache removes the shared GitStore root (spec.md §3's "removed
// by the clean global git cache operation").
func CleanGitCache(storeRoot string) error {
	return os.RemoveAll(storeRoot)
}

// PinSources writes the current lockfile's resolvedCommit into the
// commit-integrity field of every named source (or all sources, if ids is
// empty), so a reviewer can see the pinned commit directly in the config
// diff. Returns the ids actually pinned.
func PinSources(cfg *docsconfig.Config, lock *lockfile.Lock, ids []string) []string {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	var pinned []string
	for i := range cfg.Sources {
		src := &cfg.Sources[i]
		if len(ids) > 0 && !want[src.ID] {
			continue
		}
		entry, ok := lock.Sources[src.ID]
		if !ok {
			continue
		}
		commit := entry.ResolvedCommit
		src.Integrity = &docsconfig.Integrity{Type: docsconfig.IntegrityCommit, Value: &commit}
		pinned = append(pinned, src.ID)
	}
	return pinned
}
