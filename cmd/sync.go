package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/hk9890/docs-cache/internal/syncengine"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Resolve, fetch, and materialize every configured documentation source",
	Long: `sync runs the full plan/execute cycle of spec.md §4.9: resolve each
source's ref to a commit, compare it against docs.lock, fetch and
materialize whatever changed, apply any configured target directories, and
rewrite the lockfile and cache index.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(c *cobra.Command, args []string) error {
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
		state.cacheDir, state.lock, syncOptions(nil), deps)
	if result != nil {
		if renderErr := renderSyncResult(*result); renderErr != nil {
			return renderErr
		}
	}
	return err
}

func renderSyncResult(result syncengine.Result) error {
	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Source", "Status", "Commit", "Bytes", "Files")
	for _, r := range result.Results {
		status := string(r.Status)
		if r.Status == syncengine.StatusFailed {
			status = color.New(color.FgRed).Sprint(status)
		} else if r.Status == syncengine.StatusDone {
			status = color.New(color.FgGreen).Sprint(status)
		}
		commit := r.ResolvedCommit
		if len(commit) > 12 {
			commit = commit[:12]
		}
		if err := table.Append(r.ID, status, commit, fmt.Sprintf("%d", r.Bytes), fmt.Sprintf("%d", r.FileCount)); err != nil {
			return err
		}
	}
	return table.Render()
}
