package cmd

import (
	"context"
	"encoding/json"
	"os"

	"github.com/fatih/color"
	"github.com/hk9890/docs-cache/internal/syncengine"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what a sync would do, without fetching or writing anything",
	Long:  `status runs only the plan phase of spec.md §4.9 (getSyncPlan): every source is classified up-to-date, changed, or missing, with no git fetch and no writes to materialized sources, the cache index, or the lockfile. Refs are still resolved with git ls-remote unless --offline is set, and the sync log file under the cache directory is created if missing.`,
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

		plan, err := syncengine.Plan(context.Background(), state.loaded.ResolvedSources, state.cacheDir, state.lock, syncOptions(nil), deps)
		if err != nil {
			return err
		}
		return renderPlan(*plan)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func renderPlan(plan syncengine.SyncPlan) error {
	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Source", "Status", "Ref", "Resolved", "Lock commit")
	for _, ps := range plan.Sources {
		status := string(ps.Status)
		switch ps.Status {
		case syncengine.StatusUpToDate:
			status = color.New(color.FgGreen).Sprint(status)
		case syncengine.StatusChanged:
			status = color.New(color.FgYellow).Sprint(status)
		case syncengine.StatusMissing:
			status = color.New(color.FgRed).Sprint(status)
		}
		if err := table.Append(ps.ID, status, ps.Ref, shortCommit(ps.ResolvedCommit), shortCommit(ps.LockCommit)); err != nil {
			return err
		}
	}
	return table.Render()
}

func shortCommit(c string) string {
	if c == "" {
		return "-"
	}
	if len(c) > 12 {
		return c[:12]
	}
	return c
}
