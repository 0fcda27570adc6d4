package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/blocksad/internal/jobs"
	"github.com/cwbudde/blocksad/internal/store"
)

// runJob executes a job in the background. Progress is broadcast to SSE
// clients and traced to <dataDir>/jobs/<id>/trace.jsonl; the final report is
// persisted through reportStore when it is not nil. A panic inside the job
// fails that job instead of the process.
func runJob(ctx context.Context, jm *JobManager, reportStore store.Store, dataDir string, jobID string) (err error) {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	// Subscribers drain the terminal event before seeing their channel closed.
	defer jm.broadcaster.CleanupJob(jobID)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
			markJobFailed(jm, jobID, err)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	jm.setCancel(jobID, cancel)
	defer jm.clearCancel(jobID)

	if err := jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateRunning
	}); err != nil {
		return err
	}

	slog.Info("Starting job", "job_id", jobID, "kind", job.Config.Kind)

	var trace *store.TraceWriter
	if reportStore != nil && dataDir != "" {
		tw, err := store.NewTraceWriter(dataDir, jobID, false)
		if err != nil {
			slog.Warn("Tracing disabled", "job_id", jobID, "error", err)
		} else {
			trace = tw
			defer trace.Close()
		}
	}

	report, err := jobs.Execute(ctx, jobID, job.Config, jobs.Options{
		Trace: trace,
		Progress: func(p jobs.Progress) {
			jm.UpdateJob(jobID, func(j *Job) {
				j.Done, j.Total = p.Done, p.Total
			})
			jm.broadcaster.Broadcast(ProgressEvent{
				JobID:     jobID,
				State:     StateRunning,
				Done:      p.Done,
				Total:     p.Total,
				Size:      p.Summary.Size,
				Strategy:  p.Summary.Strategy,
				Value:     progressValue(p.Summary),
				Timestamp: time.Now(),
			})
		},
	})

	switch {
	case errors.Is(err, context.Canceled):
		markJobCancelled(jm, jobID)
		return err
	case err != nil:
		markJobFailed(jm, jobID, err)
		return err
	}

	if reportStore != nil {
		if err := reportStore.SaveReport(jobID, report); err != nil {
			// The job itself succeeded; keep the result in memory.
			slog.Error("Failed to persist report", "job_id", jobID, "error", err)
		}
	}

	endTime := time.Now()
	if err := jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		j.Passed = report.Passed
		j.Summary = report.Summary
		j.EndTime = &endTime
	}); err != nil {
		return err
	}

	slog.Info("Job completed",
		"job_id", jobID,
		"elapsed", report.Duration,
		"passed", report.Passed,
		"summary", report.Summary,
	)

	jm.broadcaster.Broadcast(ProgressEvent{
		JobID:     jobID,
		State:     StateCompleted,
		Done:      len(report.Sizes),
		Total:     len(report.Sizes),
		Summary:   report.Summary,
		Timestamp: time.Now(),
	})

	return nil
}

// progressValue picks the headline number of a per-size summary.
func progressValue(s store.SizeSummary) float64 {
	switch {
	case s.NsPerOp > 0:
		return s.NsPerOp
	case s.MeanCost > 0:
		return s.MeanCost
	}
	return float64(s.Mismatches)
}

// markJobFailed marks a job as failed with an error message
func markJobFailed(jm *JobManager, jobID string, err error) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
	})
	jm.broadcaster.Broadcast(ProgressEvent{JobID: jobID, State: StateFailed, Summary: err.Error(), Timestamp: endTime})
	slog.Error("Job failed", "job_id", jobID, "error", err)
}

// markJobCancelled marks a job as cancelled
func markJobCancelled(jm *JobManager, jobID string) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCancelled
		j.EndTime = &endTime
	})
	jm.broadcaster.Broadcast(ProgressEvent{JobID: jobID, State: StateCancelled, Timestamp: endTime})
	slog.Info("Job cancelled", "job_id", jobID)
}
