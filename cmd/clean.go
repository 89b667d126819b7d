package cmd

import (
	"fmt"

	"github.com/hk9890/docs-cache/internal/gitstore"
	"github.com/hk9890/docs-cache/internal/maintenance"
	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the entire cache directory for this project",
	Long:  `clean deletes cacheDir and everything under it, including the cache index and every source's materialized files. The lockfile is left untouched; the next sync rebuilds the cache from it.`,
	RunE: func(c *cobra.Command, args []string) error {
		state, err := loadState()
		if err != nil {
			return err
		}
		if err := maintenance.CleanCache(state.cacheDir); err != nil {
			return err
		}
		fmt.Printf("removed %s\n", state.cacheDir)
		return nil
	},
}

var cleanGitCmd = &cobra.Command{
	Use:   "clean-git-cache",
	Short: "Remove the shared GitStore (bare clones reused across every project)",
	Long:  `clean-git-cache deletes the process-wide GitStore directory (spec.md §3): every bare repo clone shared across projects on this machine. It does not touch any project's docs.lock or materialized cache.`,
	RunE: func(c *cobra.Command, args []string) error {
		storeRoot, err := gitstore.DefaultStoreRoot()
		if err != nil {
			return err
		}
		if err := maintenance.CleanGitCache(storeRoot); err != nil {
			return err
		}
		fmt.Printf("removed %s\n", storeRoot)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(cleanGitCmd)
}
