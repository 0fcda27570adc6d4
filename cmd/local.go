package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cwbudde/blocksad/internal/jobs"
	"github.com/cwbudde/blocksad/internal/store"
)

// errNotPassed makes the process exit non-zero after the report was printed.
var errNotPassed = errors.New("verification found mismatches")

var noSave bool

func addLocalJobFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Do not persist the report and trace under --data-dir")
}

// runLocalJob executes cfg in-process, prints the report and persists it
// unless --no-save is set.
func runLocalJob(cmd *cobra.Command, cfg store.JobConfig) (*store.Report, error) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg = jobs.WithDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	jobID := uuid.New().String()
	out := cmd.OutOrStdout()

	var (
		reportStore *store.FSStore
		opts        jobs.Options
	)
	if !noSave {
		fs, err := store.NewFSStore(dataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create report store: %w", err)
		}
		reportStore = fs

		trace, err := store.NewTraceWriter(dataDir, jobID, false)
		if err != nil {
			return nil, err
		}
		defer trace.Close()
		opts.Trace = trace
	}
	opts.Progress = func(p jobs.Progress) {
		slog.Debug("Progress", "job_id", jobID, "done", p.Done, "total", p.Total, "size", p.Summary.Size)
	}

	report, err := jobs.Execute(ctx, jobID, cfg, opts)
	if err != nil {
		if opts.Trace != nil {
			// Without a report the partial trace is unreachable.
			opts.Trace.Close()
			if derr := store.DeleteTrace(dataDir, jobID); derr != nil {
				slog.Warn("Failed to delete trace", "job_id", jobID, "error", derr)
			}
		}
		if errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("interrupted: %w", err)
		}
		return nil, err
	}

	printReport(out, report)

	if reportStore != nil {
		if err := reportStore.SaveReport(jobID, report); err != nil {
			return report, err
		}
		fmt.Fprintf(out, "\nReport saved as %s\n", jobID)
	}

	return report, nil
}

// printReport writes the per-size table and the summary line.
func printReport(out io.Writer, r *store.Report) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	switch r.Kind {
	case store.KindVerify:
		fmt.Fprintln(w, "SIZE\tSTRATEGY\tCASES\tMISMATCHES\tFIRST MISMATCH")
		for _, s := range r.Sizes {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", s.Size, s.Strategy, s.Cases, s.Mismatches, s.Detail)
		}
	case store.KindBench:
		fmt.Fprintln(w, "SIZE\tSTRATEGY\tFAMILY\tNS/OP\tMSAMPLES/S")
		for _, s := range r.Sizes {
			fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\t%.0f\n", s.Size, s.Strategy, s.Family, s.NsPerOp, s.MSamplesPerSec)
		}
	case store.KindSearch:
		fmt.Fprintln(w, "SIZE\tMETHOD\tMEAN COST\tEVALUATIONS\tDETAIL")
		for _, s := range r.Sizes {
			fmt.Fprintf(w, "%s\t%s\t%.1f\t%d\t%s\n", s.Size, s.Family, s.MeanCost, s.Evaluations, s.Detail)
		}
	}
	w.Flush()

	status := "PASS"
	if !r.Passed {
		status = "FAIL"
	}
	fmt.Fprintf(out, "\n%s %s [%s]: %s (%s)\n", strings.ToUpper(r.Kind), status, r.Strategy, r.Summary, r.Duration.Round(1e6))
}
