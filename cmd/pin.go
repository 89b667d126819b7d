package cmd

import (
	"fmt"

	"github.com/hk9890/docs-cache/internal/docsconfig"
	"github.com/hk9890/docs-cache/internal/maintenance"
	"github.com/spf13/cobra"
)

var pinCmd = &cobra.Command{
	Use:   "pin [source-id...]",
	Short: "Record the lockfile's resolved commit as each source's commit integrity",
	Long: `pin copies docs.lock's resolvedCommit into the config's per-source
integrity field (type: commit), so the pinned commit is visible directly
in a config diff instead of only in the lockfile. With no arguments, every
source with a lock entry is pinned. This mutates docs.config.json through
an ordinary read/validate/write cycle; it does not touch the sync engine
(spec.md §1).`,
	RunE: func(c *cobra.Command, args []string) error {
		state, err := loadState()
		if err != nil {
			return err
		}
		if state.lock == nil {
			return invalidArg("no lockfile found; run sync first")
		}

		pinned := maintenance.PinSources(state.loaded.Config, state.lock, args)
		if len(pinned) == 0 {
			fmt.Println("no sources pinned (no matching lock entries)")
			return nil
		}

		if err := docsconfig.Save(state.loaded.ResolvedPath, state.loaded.Config, state.loaded.InPackageJSON); err != nil {
			return err
		}
		for _, id := range pinned {
			fmt.Printf("pinned %s\n", id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pinCmd)
}
