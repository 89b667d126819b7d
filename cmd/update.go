package cmd

import (
	"context"

	"github.com/hk9890/docs-cache/internal/syncengine"
	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update [source-id...]",
	Short: "Re-resolve and re-sync specific sources (or all, with no arguments)",
	Long: `update is a thin convenience over sync: it runs the same plan/execute
cycle restricted to the named sources (spec.md §1 — update "mutates
configuration through ordinary JSON read/write" only in the sense that it
is the lockfile, via the usual sync path, that ends up changed; update
introduces no engine behavior beyond sync's own source filter).`,
	RunE: func(c *cobra.Command, args []string) error {
		state, err := loadState()
		if err != nil {
			return err
		}
		mustState = state

		deps, err := defaultDeps(state.cacheDir)
		if err != nil {
			return err
		}

		result, err := syncengine.Run(context.Background(), state.loaded.Config, state.loaded.ResolvedSources,
			state.cacheDir, state.lock, syncOptions(args), deps)
		if result != nil {
			if renderErr := renderSyncResult(*result); renderErr != nil {
				return renderErr
			}
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
}
