package cmd

import (
	"log/slog"
	"os"

	"github.com/hk9890/docs-cache/internal/docsconfig"
	"github.com/hk9890/docs-cache/internal/gitstore"
	"github.com/hk9890/docs-cache/internal/lockfile"
	"github.com/hk9890/docs-cache/internal/refresolver"
	"github.com/hk9890/docs-cache/internal/synclog"
	"github.com/hk9890/docs-cache/internal/syncengine"
	"github.com/spf13/viper"
)

// resolvedConfigPath and resolvedCacheDirOverride read the "config" and
// "cacheDir" keys bound in root.go's init() through viper rather than the
// flag vars directly, so a DOCS_CACHE_CONFIG / DOCS_CACHE_CACHEDIR
// environment variable (spec.md §6.4's env-override promise) takes effect
// exactly like an explicit --config/--cache-dir flag would.
func resolvedConfigPath() string       { return viper.GetString("config") }
func resolvedCacheDirOverride() string { return viper.GetString("cacheDir") }

// loadedState bundles everything every subcommand needs: the parsed
// config, its resolved sources, the cache directory, and whatever
// lockfile currently exists.
type loadedState struct {
	loaded   *docsconfig.Loaded
	cacheDir string
	lock     *lockfile.Lock
}

// loadState locates the config (via --config or the cwd), resolves the
// cache directory, and reads the sibling lockfile if one exists.
func loadState() (*loadedState, error) {
	var loaded *docsconfig.Loaded
	var err error
	if configPath := resolvedConfigPath(); configPath != "" {
		loaded, err = docsconfig.LoadPath(configPath)
	} else {
		wd, wdErr := os.Getwd()
		if wdErr != nil {
			return nil, wdErr
		}
		loaded, err = docsconfig.Load(wd)
	}
	if err != nil {
		return nil, err
	}

	cacheDir, err := loaded.Config.CacheDirAbs(loaded.ResolvedPath, resolvedCacheDirOverride())
	if err != nil {
		return nil, err
	}

	lockPath := lockfile.ResolvePath(loaded.ResolvedPath)
	lock, err := lockfile.Read(lockPath)
	if err != nil {
		return nil, err
	}

	return &loadedState{loaded: loaded, cacheDir: cacheDir, lock: lock}, nil
}

// syncOptions builds syncengine.Options from the bound CLI flags, plus an
// optional source-id filter (used by `update <id>...`).
func syncOptions(sourceFilter []string) syncengine.Options {
	return syncengine.Options{
		ConfigPath:       mustState.loaded.ResolvedPath,
		CacheDirOverride: resolvedCacheDirOverride(),
		JSON:             flagJSON,
		LockOnly:         flagLockOnly,
		Offline:          flagOffline,
		FailOnMiss:       flagFailOnMiss,
		Frozen:           flagFrozen,
		SourceFilter:     sourceFilter,
		Concurrency:      flagConcurrency,
		TimeoutMs:        flagTimeoutMs,
	}
}

// mustState is set by each RunE before syncOptions is consulted; this
// mirrors the teacher's package-level flag variables (simple globals in a
// single-invocation CLI process), scoped to one command execution.
var mustState *loadedState

// defaultDeps wires the production resolver/fetcher into syncengine.Deps,
// plus a synclog.New logger writing to <cacheDir>/.sync.log — the same
// injection the teacher wires *slog.Logger into repo.Manager with. A
// logger that fails to open (unwritable cache dir, etc.) degrades to
// synclog.Discard() rather than failing the whole command.
func defaultDeps(cacheDir string) (syncengine.Deps, error) {
	storeRoot, err := gitstore.DefaultStoreRoot()
	if err != nil {
		return syncengine.Deps{}, err
	}
	logger, err := synclog.New(cacheDir, slog.LevelInfo)
	if err != nil {
		logger = synclog.Discard()
	}
	return syncengine.Deps{
		Resolver:  refresolver.Default,
		Fetcher:   gitstore.Fetch,
		StoreRoot: storeRoot,
		Logger:    logger,
	}, nil
}
