// Package cmd implements the docs-cache CLI: a thin cobra/viper wrapper
// over internal/syncengine exposing exactly the flags of spec.md §6.5.
//
// Grounded on the teacher's cmd/root.go (cobra.OnInitialize + viper wiring,
// persistent --config flag, version flag shape), adapted from a YAML
// user-config file to the flags spec.md names directly.
package cmd

import (
	"fmt"
	"os"

	"github.com/hk9890/docs-cache/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	flagConfig      string
	flagCacheDir    string
	flagOffline     bool
	flagFailOnMiss  bool
	flagLockOnly    bool
	flagFrozen      bool
	flagConcurrency int
	flagTimeoutMs   int
	flagJSON        bool
	flagVersion     bool
)

// rootCmd is the base command; with no subcommand it runs sync, matching
// the teacher's root-falls-through-to-help shape but defaulting to the
// tool's one primary action instead of printing help.
var rootCmd = &cobra.Command{
	Use:   "docs-cache",
	Short: "Deterministic, content-addressed local cache of Git-hosted documentation trees",
	Long: `docs-cache resolves a declarative set of Git-hosted documentation
sources to concrete commits, fetches a minimal subset of each repository,
filters files by pattern, and materializes the result into a per-source
cache directory with a JSON lockfile recording the resolved commit and
integrity hashes.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(c *cobra.Command, args []string) error {
		if flagVersion {
			fmt.Println(version.String())
			return nil
		}
		return runSync(c, args)
	},
}

// Execute runs the root command, exiting with spec.md §6.5's exit codes:
// 0 success, 1 fatal, 9 invalid argument.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if _, ok := err.(*invalidArgError); ok {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(9)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// invalidArgError marks a flag/argument validation failure, surfaced as
// exit code 9 instead of the generic fatal exit code 1.
type invalidArgError struct{ err error }

func (e *invalidArgError) Error() string { return e.err.Error() }

func invalidArg(format string, args ...any) error {
	return &invalidArgError{err: fmt.Errorf(format, args...)}
}

func init() {
	cobra.OnInitialize(initViper)

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to docs.config.json (or a package.json carrying a docs-cache key)")
	rootCmd.PersistentFlags().StringVar(&flagCacheDir, "cache-dir", "", "override the configured cache directory")
	rootCmd.PersistentFlags().BoolVar(&flagOffline, "offline", false, "use only the local git store and lockfile; never reach the network")
	rootCmd.PersistentFlags().BoolVar(&flagFailOnMiss, "fail-on-miss", false, "fail the run if a required source cannot be resolved or fetched")
	rootCmd.PersistentFlags().BoolVar(&flagLockOnly, "lock-only", false, "update the lockfile's resolved commits without fetching or materializing")
	rootCmd.PersistentFlags().BoolVar(&flagFrozen, "frozen", false, "fail if any source's resolved commit would differ from the lockfile")
	rootCmd.PersistentFlags().IntVar(&flagConcurrency, "concurrency", 4, "number of sources to sync in parallel")
	rootCmd.PersistentFlags().IntVar(&flagTimeoutMs, "timeout-ms", 120_000, "timeout in milliseconds for each external git invocation")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit machine-readable JSON instead of a table")
	rootCmd.Flags().BoolVarP(&flagVersion, "version", "v", false, "print the tool version")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("cacheDir", rootCmd.PersistentFlags().Lookup("cache-dir"))
}

// initViper wires environment-variable overrides (spec.md §6.4) on top of
// the flags bound above, matching the teacher's cobra.OnInitialize(initConfig)
// shape but without a separate user-level YAML config — this tool's only
// configuration document is the project's docs.config.json.
func initViper() {
	viper.SetEnvPrefix("DOCS_CACHE")
	viper.AutomaticEnv()
}
