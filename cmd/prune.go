package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hk9890/docs-cache/internal/maintenance"
	"github.com/spf13/cobra"
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove stale per-source cache directories and stray transient artifacts",
	Long:  `prune deletes cache directories whose id no longer appears in the config, plus any leftover .tmp-*, .bak-*, and *.lock artifacts a crashed sync left behind (spec.md §5).`,
	RunE: func(c *cobra.Command, args []string) error {
		state, err := loadState()
		if err != nil {
			return err
		}

		report, err := maintenance.PruneCache(state.cacheDir, state.loaded.ResolvedSources)
		if err != nil {
			return err
		}

		if flagJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}

		for _, d := range report.RemovedDirs {
			fmt.Printf("removed stale cache dir: %s\n", d)
		}
		for _, s := range report.RemovedStray {
			fmt.Printf("removed stray artifact: %s\n", s)
		}
		if len(report.RemovedDirs) == 0 && len(report.RemovedStray) == 0 {
			fmt.Println("nothing to prune")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pruneCmd)
}
