package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cwbudde/blocksad/internal/sad"
	"github.com/cwbudde/blocksad/internal/store"
)

var rerunCmd = &cobra.Command{
	Use:   "rerun [job-id]",
	Short: "Run a persisted job again with the same configuration",
	Long: `Loads the report of a finished job from --data-dir and runs its exact
configuration again. Useful to compare results across builds with different
accumulation strategies.`,
	Args: cobra.ExactArgs(1),
	RunE: runRerun,
}

func init() {
	addLocalJobFlags(rerunCmd)
	rootCmd.AddCommand(rerunCmd)
}

func runRerun(cmd *cobra.Command, args []string) error {
	reportStore, err := store.NewFSStore(dataDir)
	if err != nil {
		return fmt.Errorf("failed to create report store: %w", err)
	}

	previous, err := reportStore.LoadReport(args[0])
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no report for job %s in %s", args[0], dataDir)
	} else if err != nil {
		return err
	}

	if err := previous.IsCompatible(sad.Active().Name()); err != nil {
		slog.Warn("Report was produced by a different build", "job_id", previous.JobID, "error", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Previous: %s\n\n", previous.Summary)

	report, err := runLocalJob(cmd, previous.Config)
	if err != nil {
		return err
	}
	if previous.Kind == store.KindVerify && !report.Passed {
		return errNotPassed
	}
	return nil
}
