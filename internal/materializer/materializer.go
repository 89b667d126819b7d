// Package materializer copies the filtered contents of a fetched Git
// worktree into a source's cache directory, atomically (spec.md §4.6).
//
// Grounded on pkg/pattern/matcher.go for the "compile once, match many"
// idiom (here compiling github.com/gobwas/glob matchers instead of the
// teacher's resource-centric Matcher), and on pkg/workspace/manager.go for
// the "stage in a temp location, then atomically replace" discipline the
// teacher's own clone/checkout pair never quite reached.
package materializer

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/hk9890/docs-cache/internal/pathsafety"
	"github.com/hk9890/docs-cache/internal/synerr"
	"github.com/sourcegraph/conc/pool"
)

// Request describes one source's materialization.
type Request struct {
	SourceID            string
	RepoDir             string
	CacheDir            string
	Include             []string
	Exclude             []string
	MaxBytes            int64
	MaxFiles            int
	IgnoreHidden        bool
	UnwrapSingleRootDir bool
	Concurrency         int
}

// Result summarizes what was materialized.
type Result struct {
	Bytes          int64
	FileCount      int
	ManifestSha256 string
}

// copyJob pairs a final (possibly unwrapped) relative path with its
// original location in the fetched worktree.
type copyJob struct {
	origRel string
	outRel  string
	size    int64
}

// Materialize enumerates, filters, copies, manifests, and atomically swaps
// a source's materialized content into place.
func Materialize(req Request) (Result, error) {
	matcher, err := newMatcher(req.Include, req.Exclude, req.IgnoreHidden)
	if err != nil {
		return Result{}, fmt.Errorf("compile include/exclude patterns: %w", err)
	}

	origPaths, err := enumerate(req.RepoDir, matcher)
	if err != nil {
		return Result{}, fmt.Errorf("enumerate source tree: %w", err)
	}

	outPaths := origPaths
	if req.UnwrapSingleRootDir {
		outPaths = unwrapCommonPrefix(origPaths)
	}

	jobs := make([]copyJob, len(origPaths))
	for i := range origPaths {
		info, statErr := os.Lstat(filepath.Join(req.RepoDir, origPaths[i]))
		if statErr != nil {
			return Result{}, fmt.Errorf("stat %s: %w", origPaths[i], statErr)
		}
		jobs[i] = copyJob{origRel: origPaths[i], outRel: outPaths[i], size: info.Size()}
	}

	if err := os.MkdirAll(req.CacheDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create cache dir: %w", err)
	}

	tempDir, err := os.MkdirTemp(req.CacheDir, fmt.Sprintf(".tmp-%s-", req.SourceID))
	if err != nil {
		return Result{}, fmt.Errorf("create staging dir: %w", err)
	}
	cleanTemp := true
	defer func() {
		if cleanTemp {
			_ = os.RemoveAll(tempDir)
		}
	}()

	mw, err := newManifestWriter(tempDir)
	if err != nil {
		return Result{}, fmt.Errorf("create manifest writer: %w", err)
	}

	var totalBytes int64
	fileCount := 0

	concurrency := req.Concurrency
	if concurrency <= 0 {
		concurrency = defaultCopyConcurrency()
	}

	for _, job := range jobs {
		dstPath := filepath.Join(tempDir, filepath.FromSlash(job.outRel))
		if err := pathsafety.EnsureWithin(tempDir, dstPath); err != nil {
			mw.abort()
			return Result{}, synerr.New(synerr.KindPathTraversal, req.SourceID, true,
				fmt.Errorf("materialized path %q escapes staging dir: %w", job.outRel, err))
		}

		totalBytes += job.size
		fileCount++
		if req.MaxBytes > 0 && totalBytes > req.MaxBytes {
			mw.abort()
			return Result{}, synerr.Newf(synerr.KindLimitExceeded, req.SourceID, true,
				"materialized size exceeds maxBytes=%d", req.MaxBytes)
		}
		if req.MaxFiles > 0 && fileCount > req.MaxFiles {
			mw.abort()
			return Result{}, synerr.Newf(synerr.KindLimitExceeded, req.SourceID, true,
				"materialized file count exceeds maxFiles=%d", req.MaxFiles)
		}

		if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
			mw.abort()
			return Result{}, fmt.Errorf("create parent dir for %s: %w", job.outRel, err)
		}
		if err := mw.writeEntry(job.outRel, job.size); err != nil {
			mw.abort()
			return Result{}, fmt.Errorf("write manifest entry for %s: %w", job.outRel, err)
		}
	}

	if err := copyAllConcurrently(req.RepoDir, tempDir, jobs, concurrency); err != nil {
		mw.abort()
		return Result{}, fmt.Errorf("copy materialized files: %w", err)
	}

	manifestSha, err := mw.finish()
	if err != nil {
		return Result{}, fmt.Errorf("finalize manifest: %w", err)
	}

	finalDir := filepath.Join(req.CacheDir, req.SourceID)
	release, err := acquireLock(req.CacheDir, req.SourceID)
	if err != nil {
		return Result{}, err
	}
	defer release()

	if err := swapIntoPlace(tempDir, finalDir); err != nil {
		return Result{}, err
	}
	cleanTemp = false

	return Result{Bytes: totalBytes, FileCount: fileCount, ManifestSha256: manifestSha}, nil
}

// defaultCopyConcurrency bounds the per-job file-copy pool to
// max(8, min(128, cpuCount*8)), per spec.md §5.
func defaultCopyConcurrency() int {
	n := runtime.NumCPU() * 8
	if n < 8 {
		return 8
	}
	if n > 128 {
		return 128
	}
	return n
}

func copyAllConcurrently(repoDir, tempDir string, jobs []copyJob, concurrency int) error {
	p := pool.New().WithMaxGoroutines(concurrency).WithErrors()
	for _, job := range jobs {
		job := job
		p.Go(func() error {
			src := filepath.Join(repoDir, filepath.FromSlash(job.origRel))
			dst := filepath.Join(tempDir, filepath.FromSlash(job.outRel))
			return copyOneFile(src, dst, job.size)
		})
	}
	return p.Wait()
}
