// Package gitstore maintains a shared, hashed-directory store of bare-ish
// Git clones and hands out disposable detached worktrees for materialization
// (spec.md §4.5).
//
// Grounded on pkg/workspace/manager.go's URL-hash cache-directory shape and
// GetOrClone reuse/recovery flow (its Update/ListCached/Prune/Remove were
// left as literal TODO stubs in the source repo; this package is where that
// design actually gets finished), with the shell-out mechanics routed
// through internal/gitproc per
// _examples/other_examples/37b6e8a7_block-cachew__internal-gitclone-manager.go.go.
package gitstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hk9890/docs-cache/internal/gitproc"
	"github.com/hk9890/docs-cache/internal/synerr"
)

// FetchRequest describes one materialization request.
type FetchRequest struct {
	SourceID       string
	Repo           string
	Ref            string
	ResolvedCommit string
	Include        []string
	TimeoutMs      int
	Offline        bool
	Logger         func(msg string)
}

// FetchResult is what Fetch hands back; callers MUST invoke Cleanup once
// done with RepoDir.
type FetchResult struct {
	RepoDir   string
	FromCache bool
	Cleanup   func() error
}

// Fetcher is the injectable seam syncengine depends on (DI per spec.md §9).
type Fetcher func(ctx context.Context, storeRoot string, req FetchRequest) (FetchResult, error)

// partialCloneMarkers are .git/config keys that indicate a promisor/partial
// clone; any store bearing one of these must be discarded (spec.md §4.5).
var partialCloneMarkers = []string{"partialclone", "promisor", "partialclonefilter"}

// StorePath returns the hashed directory for repo under storeRoot.
func StorePath(storeRoot, repo string) string {
	h := sha256.Sum256([]byte(normalizeRepoURL(repo)))
	return filepath.Join(storeRoot, hex.EncodeToString(h[:])[:16])
}

func normalizeRepoURL(repo string) string {
	n := strings.TrimSpace(repo)
	n = strings.ToLower(n)
	n = strings.TrimSuffix(n, "/")
	n = strings.TrimSuffix(n, ".git")
	return n
}

// Fetch implements the Fetcher signature, running the reuse/fetch/reclone
// algorithm of spec.md §4.5 against a shared store rooted at storeRoot.
func Fetch(ctx context.Context, storeRoot string, req FetchRequest) (FetchResult, error) {
	log := req.Logger
	if log == nil {
		log = func(string) {}
	}

	storePath := StorePath(storeRoot, req.Repo)
	timeout := req.TimeoutMs

	if err := os.MkdirAll(storeRoot, 0o755); err != nil {
		return FetchResult{}, fmt.Errorf("create git store root: %w", err)
	}

	release, err := acquireStoreLock(storePath)
	if err != nil {
		return FetchResult{}, fmt.Errorf("acquire git store lock: %w", err)
	}
	reused, err := reuseOrClone(ctx, storePath, req, timeout, log)
	release()
	if err != nil {
		return FetchResult{}, err
	}

	spec, err := PlanSparse(req.Include)
	if err != nil {
		return FetchResult{}, err
	}

	worktreeRoot, err := os.MkdirTemp("", "docs-cache-wt-*")
	if err != nil {
		return FetchResult{}, fmt.Errorf("create worktree temp dir: %w", err)
	}

	repoDir := filepath.Join(worktreeRoot, "repo")
	cleanupWorktree := func() error {
		_, _ = gitproc.Run(ctx, gitproc.Options{Dir: storePath, Timeout: gitproc.DefaultTimeout},
			"worktree", "remove", "--force", repoDir)
		return os.RemoveAll(worktreeRoot)
	}

	if _, err := gitproc.Run(ctx, gitproc.Options{Dir: storePath, Timeout: durationMs(timeout)},
		"worktree", "add", "--detach", "--no-checkout", repoDir, req.ResolvedCommit); err != nil {
		_ = cleanupWorktree()
		return FetchResult{}, synerr.New(synerr.KindGitCommandFailed, req.SourceID, true, err)
	}

	if spec.Enabled {
		if err := applySparse(ctx, repoDir, spec, timeout); err != nil {
			_ = cleanupWorktree()
			return FetchResult{}, err
		}
	}

	if _, err := gitproc.Run(ctx, gitproc.Options{Dir: repoDir, Timeout: durationMs(timeout)},
		"checkout", req.ResolvedCommit, "--", "."); err != nil {
		_ = cleanupWorktree()
		return FetchResult{}, synerr.New(synerr.KindGitCommandFailed, req.SourceID, true, err)
	}

	return FetchResult{
		RepoDir:   repoDir,
		FromCache: reused,
		Cleanup:   cleanupWorktree,
	}, nil
}

// reuseOrClone implements steps 1-5 of the spec.md §4.5 reuse algorithm,
// returning whether the existing store was reused without a fresh clone.
func reuseOrClone(ctx context.Context, storePath string, req FetchRequest, timeoutMs int, log func(string)) (bool, error) {
	exists := storeLooksLikeGitDir(ctx, storePath, timeoutMs)

	if exists && hasPartialCloneMarkers(storePath) {
		log("partial-clone markers detected, discarding cached store")
		if err := os.RemoveAll(storePath); err != nil {
			return false, fmt.Errorf("remove partial-clone store: %w", err)
		}
		exists = false
		if req.Offline {
			return false, synerr.New(synerr.KindCachePartialOffline, req.SourceID, true,
				fmt.Errorf("cached store for %s had partial-clone markers and offline mode forbids recloning", req.Repo))
		}
	}

	if !exists {
		if req.Offline {
			return false, synerr.New(synerr.KindCacheMissingOffline, req.SourceID, true,
				fmt.Errorf("no cached git store for %s and offline mode forbids cloning", req.Repo))
		}
		if err := os.RemoveAll(storePath); err != nil {
			return false, fmt.Errorf("clear stale store path: %w", err)
		}
		if err := cloneBare(ctx, storePath, req.Repo, timeoutMs); err != nil {
			return false, synerr.New(synerr.KindGitCommandFailed, req.SourceID, true, err)
		}
		return false, nil
	}

	if commitPresent(ctx, storePath, req.ResolvedCommit, timeoutMs) {
		return true, nil
	}

	if req.Offline {
		return false, synerr.New(synerr.KindCommitMissingOffline, req.SourceID, true,
			fmt.Errorf("commit %s not present in offline cache for %s", req.ResolvedCommit, req.Repo))
	}

	refSpec := req.Ref
	if refSpec == "" {
		refSpec = "HEAD"
	}
	if _, err := gitproc.Run(ctx, gitproc.Options{Dir: storePath, Timeout: durationMs(timeoutMs)},
		"fetch", "origin", refSpec, "--depth", "1"); err != nil {
		log("fetch failed, reverting to a full reclone: " + err.Error())
		return recloneViaLocalClone(ctx, storePath, req, timeoutMs)
	}

	if commitPresent(ctx, storePath, req.ResolvedCommit, timeoutMs) {
		return true, nil
	}

	if req.Offline {
		return false, synerr.New(synerr.KindCommitMissingOffline, req.SourceID, true,
			fmt.Errorf("commit %s still missing after fetch", req.ResolvedCommit))
	}
	return recloneViaLocalClone(ctx, storePath, req, timeoutMs)
}

// recloneViaLocalClone performs step 5 of the reuse algorithm: the stale
// store is rebuilt from scratch, and the fresh clone replaces it. A plain
// `git clone` against the remote is used; a same-host `file://` rehydrate
// is deliberately not attempted here since the old store is the thing that
// was just found to be missing the target commit.
func recloneViaLocalClone(ctx context.Context, storePath string, req FetchRequest, timeoutMs int) (bool, error) {
	if err := os.RemoveAll(storePath); err != nil {
		return false, fmt.Errorf("remove stale store before reclone: %w", err)
	}
	if err := cloneBare(ctx, storePath, req.Repo, timeoutMs); err != nil {
		return false, synerr.New(synerr.KindGitCommandFailed, req.SourceID, true, err)
	}
	return false, nil
}

// cloneBare creates the store's initial clone per spec.md §4.5: full clone
// (never partial), no checkout, depth 1, no submodules, no tags.
func cloneBare(ctx context.Context, storePath, repo string, timeoutMs int) error {
	_, err := gitproc.Run(ctx, gitproc.Options{Timeout: durationMs(timeoutMs)},
		"clone",
		"--no-checkout",
		"--depth", "1",
		"--recurse-submodules=no",
		"--no-tags",
		repo, storePath)
	return err
}

func storeLooksLikeGitDir(ctx context.Context, storePath string, timeoutMs int) bool {
	if _, err := os.Stat(storePath); err != nil {
		return false
	}
	_, err := gitproc.Run(ctx, gitproc.Options{Dir: storePath, Timeout: durationMs(timeoutMs)}, "rev-parse", "--git-dir")
	return err == nil
}

func commitPresent(ctx context.Context, storePath, commit string, timeoutMs int) bool {
	if commit == "" {
		return false
	}
	_, err := gitproc.Run(ctx, gitproc.Options{Dir: storePath, Timeout: durationMs(timeoutMs)},
		"cat-file", "-e", commit+"^{commit}")
	return err == nil
}

// hasPartialCloneMarkers scans .git/config (or config, for a bare layout)
// for promisor/partial-clone keys without needing a working git binary,
// since a config file is plain text.
func hasPartialCloneMarkers(storePath string) bool {
	for _, configPath := range []string{filepath.Join(storePath, ".git", "config"), filepath.Join(storePath, "config")} {
		data, err := os.ReadFile(configPath)
		if err != nil {
			continue
		}
		lower := strings.ToLower(string(data))
		for _, marker := range partialCloneMarkers {
			if strings.Contains(lower, marker) {
				return true
			}
		}
	}
	return false
}

func applySparse(ctx context.Context, repoDir string, spec *SparseSpec, timeoutMs int) error {
	initArgs := []string{"sparse-checkout", "init"}
	if spec.Cone {
		initArgs = append(initArgs, "--cone")
	} else {
		initArgs = append(initArgs, "--no-cone")
	}
	if _, err := gitproc.Run(ctx, gitproc.Options{Dir: repoDir, Timeout: durationMs(timeoutMs)}, initArgs...); err != nil {
		return fmt.Errorf("sparse-checkout init: %w", err)
	}

	setArgs := []string{"sparse-checkout", "set"}
	if spec.Cone {
		setArgs = append(setArgs, spec.Dirs...)
	} else {
		setArgs = append(setArgs, spec.Patterns...)
	}
	if _, err := gitproc.Run(ctx, gitproc.Options{Dir: repoDir, Timeout: durationMs(timeoutMs)}, setArgs...); err != nil {
		return fmt.Errorf("sparse-checkout set: %w", err)
	}
	return nil
}

// durationMs converts a millisecond timeout to a time.Duration; 0 or
// negative leaves gitproc.Run to apply its own default.
func durationMs(ms int) time.Duration {
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}
