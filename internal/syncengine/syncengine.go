// Package syncengine orchestrates the plan/execute cycle that drives
// every other component: resolve refs, compare against the lockfile,
// fetch and materialize what changed, apply target directories, and
// rewrite the lock and cache index (spec.md §4.9).
//
// Grounded on cmd/repo_sync.go's plan-then-execute, per-source
// result-aggregation shape (there sequential; here parallelized with a
// bounded worker pool) and pkg/repo/bulk.go's per-item success/failure
// collection idiom.
package syncengine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hk9890/docs-cache/internal/cacheindex"
	"github.com/hk9890/docs-cache/internal/docsconfig"
	"github.com/hk9890/docs-cache/internal/gitstore"
	"github.com/hk9890/docs-cache/internal/lockfile"
	"github.com/hk9890/docs-cache/internal/materializer"
	"github.com/hk9890/docs-cache/internal/refresolver"
	"github.com/hk9890/docs-cache/internal/synerr"
	"github.com/hk9890/docs-cache/internal/targeter"
	"github.com/hk9890/docs-cache/internal/toc"
	"github.com/hk9890/docs-cache/internal/version"
	"github.com/sourcegraph/conc/pool"
)

// Status classifies a source's position in the state machine
// (spec.md §4.9).
type Status string

const (
	StatusUpToDate       Status = "up-to-date"
	StatusChanged        Status = "changed"
	StatusMissing        Status = "missing"
	StatusDone           Status = "done"
	StatusSkippedOffline Status = "skipped-offline-optional"
	StatusFailed         Status = "failed"
)

// Options configures one plan/run cycle.
type Options struct {
	ConfigPath       string
	CacheDirOverride string
	JSON             bool
	LockOnly         bool
	Offline          bool
	FailOnMiss       bool
	Frozen           bool
	SourceFilter     []string
	Concurrency      int
	TimeoutMs        int
}

// Deps are the injectable seams per spec.md §9: production wiring uses
// refresolver.Default and gitstore.Fetch; tests substitute stubs.
type Deps struct {
	Resolver  refresolver.Resolver
	Fetcher   gitstore.Fetcher
	StoreRoot string
	Logger    *slog.Logger
}

// PlannedSource is one source's plan-phase outcome.
type PlannedSource struct {
	ID             string
	Repo           string
	Ref            string
	ResolvedCommit string
	RulesSha256    string
	Status         Status
	Required       bool
	LockCommit     string
}

// SyncPlan is the non-executing result of the plan phase.
type SyncPlan struct {
	Sources []PlannedSource
}

// SourceResult is one source's execute-phase outcome.
type SourceResult struct {
	ID             string
	Status         Status
	Error          error
	ResolvedCommit string
	Bytes          int64
	FileCount      int
	ManifestSha256 string
}

// Result is the full outcome of Run.
type Result struct {
	Plan    SyncPlan
	Results []SourceResult
}

func filterSources(resolved []docsconfig.ResolvedSource, ids []string) []docsconfig.ResolvedSource {
	if len(ids) == 0 {
		return resolved
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []docsconfig.ResolvedSource
	for _, rs := range resolved {
		if want[rs.ID] {
			out = append(out, rs)
		}
	}
	return out
}

// rulesDigest computes spec.md §4.9's rulesSha256: a canonical
// serialization of the filter/limit rules that, if changed, invalidates
// a cache entry even when the resolved commit has not moved.
func rulesDigest(rs docsconfig.ResolvedSource) string {
	type rules struct {
		Include             []string `json:"include"`
		Exclude             []string `json:"exclude"`
		UnwrapSingleRootDir bool     `json:"unwrapSingleRootDir"`
		IgnoreHidden        bool     `json:"ignoreHidden"`
		MaxBytes            int64    `json:"maxBytes"`
		MaxFiles            int      `json:"maxFiles"`
	}
	data, _ := json.Marshal(rules{
		Include:             rs.Include,
		Exclude:             rs.Exclude,
		UnwrapSingleRootDir: rs.UnwrapSingleRootDir,
		IgnoreHidden:        rs.IgnoreHidden,
		MaxBytes:            rs.MaxBytes,
		MaxFiles:            rs.MaxFiles,
	})
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// cacheLooksMaterialized reports whether sourceDir holds a non-empty,
// already-materialized manifest.
func cacheLooksMaterialized(sourceDir string) bool {
	info, err := os.Stat(filepath.Join(sourceDir, ".manifest.ndjson"))
	return err == nil && info.Size() > 0
}

// Plan runs the non-executing plan phase of spec.md §4.9.
func Plan(ctx context.Context, resolved []docsconfig.ResolvedSource, cacheDir string, lock *lockfile.Lock, opts Options, deps Deps) (*SyncPlan, error) {
	sources := filterSources(resolved, opts.SourceFilter)
	plan := &SyncPlan{}

	for _, rs := range sources {
		var lockEntry lockfile.LockEntry
		var hasLockEntry bool
		if lock != nil {
			lockEntry, hasLockEntry = lock.Sources[rs.ID]
		}

		var resolvedCommit string
		if opts.Offline {
			if !hasLockEntry {
				plan.Sources = append(plan.Sources, PlannedSource{
					ID: rs.ID, Repo: rs.Repo, Ref: rs.Ref, Required: rs.Required,
					Status: StatusMissing,
				})
				continue
			}
			resolvedCommit = lockEntry.ResolvedCommit
		} else {
			res, err := deps.Resolver(ctx, refresolver.Request{
				Repo: rs.Repo, Ref: rs.Ref, AllowHosts: rs.AllowHosts, TimeoutMs: opts.TimeoutMs,
			})
			if err != nil {
				if rs.Required {
					return nil, err
				}
				plan.Sources = append(plan.Sources, PlannedSource{
					ID: rs.ID, Repo: rs.Repo, Ref: rs.Ref, Required: rs.Required,
					Status: StatusMissing,
				})
				continue
			}
			resolvedCommit = res.ResolvedCommit
		}

		rules := rulesDigest(rs)
		sourceDir := filepath.Join(cacheDir, rs.ID)

		status := StatusMissing
		switch {
		case hasLockEntry && lockEntry.ResolvedCommit == resolvedCommit && lockEntry.RulesSha256 == rules && cacheLooksMaterialized(sourceDir):
			status = StatusUpToDate
		case hasLockEntry:
			status = StatusChanged
		}

		plan.Sources = append(plan.Sources, PlannedSource{
			ID: rs.ID, Repo: rs.Repo, Ref: rs.Ref,
			ResolvedCommit: resolvedCommit,
			RulesSha256:    rules,
			Status:         status,
			Required:       rs.Required,
			LockCommit:     lockEntry.ResolvedCommit,
		})
	}

	return plan, nil
}

// Run executes the plan and updates the lockfile and cache index, per
// spec.md §4.9.
func Run(ctx context.Context, cfg *docsconfig.Config, resolved []docsconfig.ResolvedSource, cacheDir string, lock *lockfile.Lock, opts Options, deps Deps) (*Result, error) {
	plan, err := Plan(ctx, resolved, cacheDir, lock, opts, deps)
	if err != nil {
		return nil, err
	}

	if opts.Frozen {
		for _, ps := range plan.Sources {
			if ps.LockCommit != "" && ps.LockCommit != ps.ResolvedCommit {
				return nil, synerr.Newf(synerr.KindFrozenSyncFailed, ps.ID, true,
					"frozen sync: %s resolved to %s but lock pins %s", ps.ID, ps.ResolvedCommit, ps.LockCommit)
			}
		}
	}

	byID := make(map[string]docsconfig.ResolvedSource, len(resolved))
	for _, rs := range resolved {
		byID[rs.ID] = rs
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	results := make([]SourceResult, len(plan.Sources))
	p := pool.New().WithMaxGoroutines(concurrency)

	for i, ps := range plan.Sources {
		i, ps := i, ps
		if ps.Status == StatusUpToDate {
			results[i] = SourceResult{ID: ps.ID, Status: StatusUpToDate, ResolvedCommit: ps.ResolvedCommit}
			continue
		}
		if ps.Status == StatusMissing && opts.Offline {
			if ps.Required && opts.FailOnMiss {
				results[i] = SourceResult{ID: ps.ID, Status: StatusFailed,
					Error: synerr.New(synerr.KindMissingRequiredSource, ps.ID, true,
						fmt.Errorf("required source %q missing while offline", ps.ID))}
			} else {
				results[i] = SourceResult{ID: ps.ID, Status: StatusSkippedOffline}
			}
			continue
		}

		rs := byID[ps.ID]
		var prevEntry lockfile.LockEntry
		var hasPrev bool
		if lock != nil {
			prevEntry, hasPrev = lock.Sources[ps.ID]
		}
		p.Go(func() {
			results[i] = runOne(ctx, rs, ps, cacheDir, opts, deps, prevEntry, hasPrev)
		})
	}
	p.Wait()

	for _, r := range results {
		if r.Status == StatusFailed && isRequiredFailure(plan, r) {
			return &Result{Plan: *plan, Results: results}, r.Error
		}
	}

	newLock := lockfile.New(version.ToolVersion(), time.Now().UTC().Format(time.RFC3339))
	if lock != nil {
		for id, e := range lock.Sources {
			if _, stillConfigured := byID[id]; stillConfigured {
				newLock.Sources[id] = e
			}
		}
	}
	for _, r := range results {
		if r.Status == StatusUpToDate {
			if lock != nil {
				if e, ok := lock.Sources[r.ID]; ok {
					newLock.Sources[r.ID] = e
					continue
				}
			}
			continue
		}
		if r.Status == StatusDone {
			rs := byID[r.ID]
			newLock.Sources[r.ID] = lockfile.LockEntry{
				Repo:           rs.Repo,
				Ref:            rs.Ref,
				ResolvedCommit: r.ResolvedCommit,
				Bytes:          r.Bytes,
				FileCount:      r.FileCount,
				ManifestSha256: r.ManifestSha256,
				RulesSha256:    rulesDigest(rs),
				UpdatedAt:      time.Now().UTC().Format(time.RFC3339),
			}
		}
	}

	lockPath := lockfile.ResolvePath(opts.ConfigPath)
	if err := lockfile.Write(lockPath, newLock); err != nil {
		return &Result{Plan: *plan, Results: results}, fmt.Errorf("write lockfile: %w", err)
	}

	var entries []cacheindex.Entry
	for id, e := range newLock.Sources {
		rs := byID[id]
		entries = append(entries, cacheindex.Entry{
			ID: id, Repo: e.Repo, Ref: e.Ref, ResolvedCommit: e.ResolvedCommit,
			Bytes: e.Bytes, FileCount: e.FileCount, ManifestSha256: e.ManifestSha256,
			CachePath: filepath.Join(cacheDir, id), TargetDir: rs.TargetDir,
			GeneratedAt: newLock.GeneratedAt,
		})
	}
	if err := cacheindex.Write(cacheDir, entries, newLock.GeneratedAt); err != nil {
		return &Result{Plan: *plan, Results: results}, fmt.Errorf("write cache index: %w", err)
	}

	return &Result{Plan: *plan, Results: results}, nil
}

func isRequiredFailure(plan *SyncPlan, r SourceResult) bool {
	for _, ps := range plan.Sources {
		if ps.ID == r.ID {
			return ps.Required
		}
	}
	return true
}

// runOne executes the fetch/materialize/target/TOC chain for a single
// source that needs work, or — in lockOnly mode — just updates its lock
// entry from the resolved commit, carrying forward the prior entry's
// bytes/fileCount/manifestSha256 when one exists (spec.md §4.9).
func runOne(ctx context.Context, rs docsconfig.ResolvedSource, ps PlannedSource, cacheDir string, opts Options, deps Deps, prevLock lockfile.LockEntry, hasPrev bool) SourceResult {
	if opts.LockOnly {
		if hasPrev {
			return SourceResult{ID: ps.ID, Status: StatusDone, ResolvedCommit: ps.ResolvedCommit,
				Bytes: prevLock.Bytes, FileCount: prevLock.FileCount, ManifestSha256: prevLock.ManifestSha256}
		}
		return SourceResult{ID: ps.ID, Status: StatusDone, ResolvedCommit: ps.ResolvedCommit,
			ManifestSha256: ps.ResolvedCommit}
	}

	log := func(string) {}
	if deps.Logger != nil {
		log = func(msg string) { deps.Logger.Info(msg, "source", ps.ID) }
	}

	fetchRes, err := deps.Fetcher(ctx, deps.StoreRoot, gitstore.FetchRequest{
		SourceID: ps.ID, Repo: rs.Repo, Ref: rs.Ref, ResolvedCommit: ps.ResolvedCommit,
		Include: rs.Include, TimeoutMs: opts.TimeoutMs, Offline: opts.Offline, Logger: log,
	})
	if err != nil {
		return SourceResult{ID: ps.ID, Status: StatusFailed, Error: err}
	}
	defer fetchRes.Cleanup()

	matResult, err := materializer.Materialize(materializer.Request{
		SourceID: ps.ID, RepoDir: fetchRes.RepoDir, CacheDir: cacheDir,
		Include: rs.Include, Exclude: rs.Exclude, MaxBytes: rs.MaxBytes, MaxFiles: rs.MaxFiles,
		IgnoreHidden: rs.IgnoreHidden, UnwrapSingleRootDir: rs.UnwrapSingleRootDir,
	})
	if err != nil {
		return SourceResult{ID: ps.ID, Status: StatusFailed, Error: err}
	}

	sourceDir := filepath.Join(cacheDir, ps.ID)

	if rs.TargetDir != "" {
		// Explicit is always true here: ResolvedSource does not record
		// whether TargetMode came from the config or the OS default, so a
		// symlink that falls back to copy always prints the warning.
		if err := targeter.Apply(targeter.Request{
			SourceDir: sourceDir, TargetDir: rs.TargetDir, Mode: rs.TargetMode, Explicit: true,
		}); err != nil {
			return SourceResult{ID: ps.ID, Status: StatusFailed, Error: err}
		}
	}

	if rs.TOC {
		meta := toc.Meta{SourceID: ps.ID, Repo: rs.Repo, Ref: rs.Ref, Commit: ps.ResolvedCommit}
		if err := toc.Write(sourceDir, meta, false); err != nil {
			return SourceResult{ID: ps.ID, Status: StatusFailed, Error: err}
		}
	} else {
		if err := toc.Remove(sourceDir); err != nil {
			return SourceResult{ID: ps.ID, Status: StatusFailed, Error: err}
		}
	}

	return SourceResult{
		ID: ps.ID, Status: StatusDone, ResolvedCommit: ps.ResolvedCommit,
		Bytes: matResult.Bytes, FileCount: matResult.FileCount, ManifestSha256: matResult.ManifestSha256,
	}
}
