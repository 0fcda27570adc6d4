// Package jobs executes a store.JobConfig (verify, bench or search) and turns
// the outcome into a persisted report. The HTTP worker and the CLI share it.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/cwbudde/blocksad/internal/bench"
	"github.com/cwbudde/blocksad/internal/sad"
	"github.com/cwbudde/blocksad/internal/search"
	"github.com/cwbudde/blocksad/internal/store"
	"github.com/cwbudde/blocksad/internal/verify"
)

// Defaults applied to zero fields of a JobConfig.
const (
	DefaultVerifyIters = 100
	DefaultBenchIters  = 20000
	DefaultSearchIters = 30 // mayfly iterations
	DefaultRadius      = 16
	DefaultPlaneSize   = 256
)

// Progress is reported after every finished unit of work.
type Progress struct {
	Done    int
	Total   int
	Summary store.SizeSummary
}

// Options carries the optional sinks of an execution.
type Options struct {
	// Trace receives one entry per finished unit; nil disables tracing.
	Trace *store.TraceWriter

	// Progress is called after every finished unit; nil disables it.
	Progress func(Progress)
}

// WithDefaults fills zero fields with the per-kind defaults.
func WithDefaults(cfg store.JobConfig) store.JobConfig {
	switch cfg.Kind {
	case store.KindVerify:
		if cfg.Iters == 0 {
			cfg.Iters = DefaultVerifyIters
		}
	case store.KindBench:
		if cfg.Iters == 0 {
			cfg.Iters = DefaultBenchIters
		}
		if len(cfg.Strategies) == 0 {
			cfg.Strategies = []string{"fused", "pairwise"}
		}
	case store.KindSearch:
		if cfg.Iters == 0 {
			cfg.Iters = DefaultSearchIters
		}
		if cfg.Method == "" {
			cfg.Method = string(search.MethodDiamond)
		}
		if cfg.Radius == 0 {
			cfg.Radius = DefaultRadius
		}
		if cfg.PlaneWidth == 0 {
			cfg.PlaneWidth = DefaultPlaneSize
		}
		if cfg.PlaneHeight == 0 {
			cfg.PlaneHeight = DefaultPlaneSize
		}
	}
	return cfg
}

// Execute runs the job and returns its report. Passed on the report reflects
// the outcome; the error is non-nil only for invalid configuration,
// cancellation or an internal failure.
func Execute(ctx context.Context, jobID string, cfg store.JobConfig, o Options) (*store.Report, error) {
	cfg = WithDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid job config: %w", err)
	}
	sizes, err := cfg.BlockSizes()
	if err != nil {
		return nil, err
	}

	slog.Info("Executing job", "job_id", jobID, "kind", cfg.Kind, "sizes", len(sizes))

	report := store.NewReport(jobID, cfg, sad.Active().Name())
	start := time.Now()

	switch cfg.Kind {
	case store.KindVerify:
		err = runVerify(ctx, cfg, sizes, report, o)
	case store.KindBench:
		err = runBench(ctx, cfg, sizes, report, o)
	case store.KindSearch:
		err = runSearch(ctx, cfg, sizes, report, o)
	}
	if err != nil {
		return nil, err
	}

	report.Duration = time.Since(start)
	report.Timestamp = time.Now()

	slog.Info("Job finished",
		"job_id", jobID,
		"passed", report.Passed,
		"summary", report.Summary,
		"elapsed", report.Duration,
	)
	return report, nil
}

func (o Options) emit(done, total int, s store.SizeSummary, traceKind string, value float64) {
	if o.Trace != nil {
		if err := o.Trace.Record(traceKind, s.Size, s.Strategy, value); err != nil {
			slog.Warn("Failed to write trace entry", "error", err)
		}
	}
	if o.Progress != nil {
		o.Progress(Progress{Done: done, Total: total, Summary: s})
	}
}

func runVerify(ctx context.Context, cfg store.JobConfig, sizes []sad.BlockSize, report *store.Report, o Options) error {
	vr, err := verify.Run(ctx, verify.Config{
		Sizes:   sizes,
		Iters:   cfg.Iters,
		Seed:    cfg.Seed,
		Workers: cfg.Workers,
		Progress: func(done, total int, r verify.SizeResult) {
			o.emit(done, total, verifySummary(r), store.TraceMismatches, float64(r.Mismatches))
		},
	})
	if err != nil {
		return err
	}

	for _, r := range vr.Sizes {
		report.Sizes = append(report.Sizes, verifySummary(r))
	}
	report.Passed = vr.Passed
	report.Summary = fmt.Sprintf("%d sizes, %d cases, %d mismatches", len(vr.Sizes), vr.Cases, vr.Mismatches)
	return nil
}

func verifySummary(r verify.SizeResult) store.SizeSummary {
	s := store.SizeSummary{
		Size:       r.Size.String(),
		Strategy:   sad.Active().Name(),
		Cases:      r.Cases,
		Mismatches: r.Mismatches,
	}
	if r.First != nil {
		s.Detail = r.First.String()
	}
	return s
}

func runBench(ctx context.Context, cfg store.JobConfig, sizes []sad.BlockSize, report *store.Report, o Options) error {
	bc := bench.DefaultConfig()
	bc.Sizes = sizes
	bc.Strategies = cfg.Strategies
	bc.Iters = cfg.Iters
	bc.Workers = max(cfg.Workers, 1)
	bc.Seed = cfg.Seed
	bc.Compound = cfg.Compound

	br, err := bench.Run(ctx, bc, func(done, total int, r bench.Result) {
		o.emit(done, total, benchSummary(r), store.TraceNsPerOp, r.NsPerOp)
	})
	if err != nil {
		return err
	}

	var fastest *bench.Result
	for i, r := range br.Results {
		report.Sizes = append(report.Sizes, benchSummary(r))
		if fastest == nil || r.MSamplesPerSec > fastest.MSamplesPerSec {
			fastest = &br.Results[i]
		}
	}
	report.Passed = true
	report.Summary = fmt.Sprintf("%d measurements in %s", len(br.Results), br.Elapsed.Round(time.Millisecond))
	if fastest != nil {
		report.Summary += fmt.Sprintf(", peak %.0f Msamples/s (%s %s)", fastest.MSamplesPerSec, fastest.Strategy, fastest.Size)
	}
	return nil
}

func benchSummary(r bench.Result) store.SizeSummary {
	return store.SizeSummary{
		Size:           r.Size.String(),
		Strategy:       r.Strategy,
		Family:         r.Family,
		NsPerOp:        r.NsPerOp,
		MSamplesPerSec: r.MSamplesPerSec,
	}
}

func runSearch(ctx context.Context, cfg store.JobConfig, sizes []sad.BlockSize, report *store.Report, o Options) error {
	method, err := search.ParseMethod(cfg.Method)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	ref := search.RandomPlane(rng, cfg.PlaneWidth, cfg.PlaneHeight)
	cur := ref.Shifted(cfg.ShiftX, cfg.ShiftY, cfg.Noise, rng)
	truth := search.MotionVector{X: cfg.ShiftX, Y: cfg.ShiftY}

	// A second noisy observation of the same content, for compound scoring.
	var ref1 *search.Plane
	if cfg.Compound {
		ref1 = ref.Shifted(0, 0, max(cfg.Noise, 2), rng)
	}

	so := search.DefaultOptions()
	so.Method = method
	so.Radius = cfg.Radius
	so.MayflyIters = cfg.Iters
	so.Seed = cfg.Seed

	var totalCost float64
	for i, size := range sizes {
		field, err := search.EstimateField(ctx, cur, ref, size, so, nil)
		if err != nil {
			return err
		}

		exact := 0
		for _, mv := range field.Vectors {
			if mv == truth {
				exact++
			}
		}

		s := store.SizeSummary{
			Size:        size.String(),
			Strategy:    sad.Active().Name(),
			Family:      string(method),
			MeanCost:    field.MeanCost(),
			Evaluations: field.Evaluations,
			Detail:      fmt.Sprintf("%d/%d blocks at true motion %s", exact, field.Blocks, truth),
		}

		if ref1 != nil {
			better, err := compoundWins(ctx, cur, ref, ref1, size, field, so)
			if err != nil {
				return err
			}
			s.Detail += fmt.Sprintf(", compound better on %d/%d", better, field.Blocks)
		}

		report.Sizes = append(report.Sizes, s)
		totalCost += field.MeanCost()
		o.emit(i+1, len(sizes), s, store.TraceMeanCost, field.MeanCost())
	}

	report.Passed = true
	report.Summary = fmt.Sprintf("%s search over %dx%d, mean SAD per block %.1f",
		method, cfg.PlaneWidth, cfg.PlaneHeight, totalCost/float64(len(sizes)))
	return nil
}

// compoundWins searches ref1 as well and counts the blocks where averaging
// both predictions beats the better single one.
func compoundWins(ctx context.Context, cur, ref0, ref1 *search.Plane, size sad.BlockSize, field0 *search.FieldResult, so search.Options) (int, error) {
	field1, err := search.EstimateField(ctx, cur, ref1, size, so, nil)
	if err != nil {
		return 0, err
	}

	cols := cur.Width / size.Width
	better := 0
	for i := range field0.Vectors {
		x, y := (i%cols)*size.Width, (i/cols)*size.Height
		res, err := search.CompoundRefine(cur, ref0, ref1, x, y, size, field0.Vectors[i], field1.Vectors[i])
		if err != nil {
			return 0, err
		}
		if res.Better {
			better++
		}
	}
	return better, nil
}
