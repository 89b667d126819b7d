package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/hk9890/docs-cache/internal/maintenance"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Recompute each source's manifest hash and compare it against the lockfile",
	Long:  `verify implements the testable property of spec.md §8: the manifestSha256 recorded in docs.lock must equal SHA-256 over the .manifest.ndjson lines actually present on disk.`,
	RunE: func(c *cobra.Command, args []string) error {
		state, err := loadState()
		if err != nil {
			return err
		}

		report, err := maintenance.VerifyCache(state.cacheDir, state.loaded.ResolvedSources, state.lock)
		if err != nil {
			return err
		}

		if renderErr := renderVerifyReport(report); renderErr != nil {
			return renderErr
		}
		if !report.AllOK() {
			return invalidArg("cache verification failed for one or more sources")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func renderVerifyReport(report maintenance.VerifyReport) error {
	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Source", "OK", "Problem")
	for _, s := range report.Sources {
		ok := color.New(color.FgGreen).Sprint("yes")
		if !s.OK {
			ok = color.New(color.FgRed).Sprint("no")
		}
		if err := table.Append(s.ID, ok, s.Problem); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	if !report.AllOK() {
		fmt.Fprintln(os.Stderr, "verify: one or more sources failed integrity verification")
	}
	return nil
}
