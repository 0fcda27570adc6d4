package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/cwbudde/blocksad/internal/sad"
)

// Job kinds.
const (
	KindVerify = "verify"
	KindBench  = "bench"
	KindSearch = "search"
)

// Upper bounds accepted by JobConfig.Validate. Jobs arrive over HTTP, so
// every field that sizes an allocation or a loop is capped.
const (
	MaxIters    = 10_000_000
	MaxWorkers  = 256
	MaxRadius   = 256
	MaxPlaneDim = 4096
	MaxNoise    = 255
)

// JobConfig holds the configuration of a job. The CLI, the HTTP API and
// persisted reports share it, so a stored report can be rerun as is.
type JobConfig struct {
	Kind       string   `json:"kind"`            // verify, bench, search
	Sizes      []string `json:"sizes,omitempty"` // "WxH"; empty means the whole catalogue
	Strategies []string `json:"strategies,omitempty"`
	Iters      int      `json:"iters"`
	Workers    int      `json:"workers,omitempty"`
	Seed       int64    `json:"seed"`
	Compound   bool     `json:"compound,omitempty"`

	// Search only
	Method      string `json:"method,omitempty"` // full, diamond, mayfly
	Radius      int    `json:"radius,omitempty"`
	PlaneWidth  int    `json:"planeWidth,omitempty"`
	PlaneHeight int    `json:"planeHeight,omitempty"`
	ShiftX      int    `json:"shiftX,omitempty"`
	ShiftY      int    `json:"shiftY,omitempty"`
	Noise       int    `json:"noise,omitempty"`
}

// BlockSizes parses Sizes against the kernel catalogue.
func (c JobConfig) BlockSizes() ([]sad.BlockSize, error) {
	return sad.ParseBlockSizes(strings.Join(c.Sizes, ","))
}

// Validate checks the config before a job is started or persisted.
func (c JobConfig) Validate() error {
	switch c.Kind {
	case KindVerify, KindBench, KindSearch:
	default:
		return &ValidationError{Field: "Kind", Reason: fmt.Sprintf("unknown kind %q", c.Kind)}
	}
	if _, err := c.BlockSizes(); err != nil {
		return &ValidationError{Field: "Sizes", Reason: err.Error()}
	}
	if c.Iters < 0 || c.Iters > MaxIters {
		return &ValidationError{Field: "Iters", Reason: fmt.Sprintf("must be within [0, %d]", MaxIters)}
	}
	if c.Workers < 0 || c.Workers > MaxWorkers {
		return &ValidationError{Field: "Workers", Reason: fmt.Sprintf("must be within [0, %d]", MaxWorkers)}
	}
	for _, s := range c.Strategies {
		if _, err := sad.StrategyByName(s); err != nil {
			return &ValidationError{Field: "Strategies", Reason: err.Error()}
		}
	}
	if c.Kind == KindSearch {
		switch c.Method {
		case "", "full", "diamond", "mayfly":
		default:
			return &ValidationError{Field: "Method", Reason: fmt.Sprintf("unknown method %q", c.Method)}
		}
		if c.Radius < 0 || c.Radius > MaxRadius {
			return &ValidationError{Field: "Radius", Reason: fmt.Sprintf("must be within [0, %d]", MaxRadius)}
		}
		if c.PlaneWidth < 0 || c.PlaneHeight < 0 || c.PlaneWidth > MaxPlaneDim || c.PlaneHeight > MaxPlaneDim {
			return &ValidationError{Field: "Plane", Reason: fmt.Sprintf("dimensions must be within [0, %d]", MaxPlaneDim)}
		}
		if c.ShiftX < -MaxPlaneDim || c.ShiftX > MaxPlaneDim || c.ShiftY < -MaxPlaneDim || c.ShiftY > MaxPlaneDim {
			return &ValidationError{Field: "Shift", Reason: fmt.Sprintf("must be within ±%d", MaxPlaneDim)}
		}
		if c.Noise < 0 || c.Noise > MaxNoise {
			return &ValidationError{Field: "Noise", Reason: fmt.Sprintf("must be within [0, %d]", MaxNoise)}
		}
	}
	return nil
}

// SizeSummary is the per-size outcome of a job. Which fields are set
// depends on the job kind.
type SizeSummary struct {
	Size     string `json:"size"`
	Strategy string `json:"strategy,omitempty"`
	Family   string `json:"family,omitempty"`

	// verify
	Cases      int    `json:"cases,omitempty"`
	Mismatches int    `json:"mismatches,omitempty"`
	Detail     string `json:"detail,omitempty"`

	// bench
	NsPerOp        float64 `json:"nsPerOp,omitempty"`
	MSamplesPerSec float64 `json:"msamplesPerSec,omitempty"`

	// search
	MeanCost    float64 `json:"meanCost,omitempty"`
	Evaluations int     `json:"evaluations,omitempty"`
}

// Report is the persisted result of a finished job.
type Report struct {
	// JobID is the unique identifier of the job that produced the report
	JobID string `json:"jobId"`

	// Kind is the job kind (verify, bench, search)
	Kind string `json:"kind"`

	// Config is the exact configuration the job ran with
	Config JobConfig `json:"config"`

	// Strategy is the build-selected accumulation strategy of the binary
	// that ran the job
	Strategy string `json:"strategy"`

	// Passed is false when verification found a mismatch or the job failed
	Passed bool `json:"passed"`

	// Summary is a one-line human readable outcome
	Summary string `json:"summary"`

	// Sizes holds the per-size results
	Sizes []SizeSummary `json:"sizes"`

	// Duration is the wall time the job took
	Duration time.Duration `json:"duration"`

	// Timestamp records when the report was created
	Timestamp time.Time `json:"timestamp"`
}

// ReportInfo contains report metadata without the per-size results.
type ReportInfo struct {
	JobID     string    `json:"jobId"`
	Kind      string    `json:"kind"`
	Strategy  string    `json:"strategy"`
	Passed    bool      `json:"passed"`
	Summary   string    `json:"summary"`
	Timestamp time.Time `json:"timestamp"`
}

// NewReport creates a report stamped with the current time.
func NewReport(jobID string, config JobConfig, strategy string) *Report {
	return &Report{
		JobID:     jobID,
		Kind:      config.Kind,
		Config:    config,
		Strategy:  strategy,
		Timestamp: time.Now(),
	}
}

// ToInfo converts a full Report to ReportInfo (metadata only).
func (r *Report) ToInfo() ReportInfo {
	return ReportInfo{
		JobID:     r.JobID,
		Kind:      r.Kind,
		Strategy:  r.Strategy,
		Passed:    r.Passed,
		Summary:   r.Summary,
		Timestamp: r.Timestamp,
	}
}

// Validate checks if the report has valid data.
func (r *Report) Validate() error {
	if r.JobID == "" {
		return &ValidationError{Field: "JobID", Reason: "cannot be empty"}
	}
	if r.Kind != r.Config.Kind {
		return &ValidationError{Field: "Kind", Reason: fmt.Sprintf("%q does not match config kind %q", r.Kind, r.Config.Kind)}
	}
	if r.Strategy == "" {
		return &ValidationError{Field: "Strategy", Reason: "cannot be empty"}
	}
	if r.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	if err := r.Config.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ValidationError represents a report or config validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}

// IsCompatible checks whether the report was produced by a binary with the
// given strategy. Results of a different build are still readable but are
// not directly comparable.
func (r *Report) IsCompatible(strategy string) error {
	if r.Strategy != strategy {
		return &CompatibilityError{
			Field:    "Strategy",
			Expected: r.Strategy,
			Actual:   strategy,
		}
	}
	return nil
}

// CompatibilityError represents a report compatibility error.
type CompatibilityError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *CompatibilityError) Error() string {
	return "compatibility error: " + e.Field + " mismatch (expected " + e.Expected + ", got " + e.Actual + ")"
}
