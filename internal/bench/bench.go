// Package bench measures kernel throughput per block size and strategy.
package bench

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	vecmath "github.com/cwbudde/algo-vecmath"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/blocksad/internal/sad"
)

// Config controls a benchmark run.
type Config struct {
	Sizes      []sad.BlockSize
	Strategies []string // fused, pairwise, reference, active
	Iters      int      // kernel calls per worker per round
	Rounds     int      // repetitions averaged into the result
	Workers    int      // goroutines calling the kernel concurrently
	Seed       int64
	Compound   bool // also measure SadAvg
}

// DefaultConfig benchmarks both strategies over the whole catalogue.
func DefaultConfig() Config {
	return Config{
		Sizes:      sad.Catalogue(),
		Strategies: []string{"fused", "pairwise"},
		Iters:      20000,
		Rounds:     3,
		Workers:    1,
		Seed:       42,
	}
}

// Result is the measurement for one (size, strategy, family) triple.
type Result struct {
	Size           sad.BlockSize `json:"size"`
	Strategy       string        `json:"strategy"`
	Family         string        `json:"family"`
	Workers        int           `json:"workers"`
	Calls          int           `json:"calls"`
	NsPerOp        float64       `json:"ns_per_op"`
	MSamplesPerSec float64       `json:"msamples_per_sec"`
	Checksum       uint64        `json:"checksum"`
}

// Report collects every Result of a run.
type Report struct {
	Results []Result      `json:"results"`
	Elapsed time.Duration `json:"elapsed"`
}

// Run benchmarks every configured combination sequentially; within one
// combination Workers goroutines call the kernel concurrently on shared
// read-only buffers. progress, if non-nil, is called after each combination.
func Run(ctx context.Context, cfg Config, progress func(done, total int, r Result)) (*Report, error) {
	if len(cfg.Sizes) == 0 {
		cfg.Sizes = sad.Catalogue()
	}
	if len(cfg.Strategies) == 0 {
		cfg.Strategies = []string{"active"}
	}
	cfg.Iters = max(cfg.Iters, 1)
	cfg.Rounds = max(cfg.Rounds, 1)
	cfg.Workers = max(cfg.Workers, 1)

	strategies := make([]sad.Strategy, len(cfg.Strategies))
	for i, name := range cfg.Strategies {
		s, err := sad.StrategyByName(name)
		if err != nil {
			return nil, err
		}
		strategies[i] = s
	}

	families := []string{"sad"}
	if cfg.Compound {
		families = append(families, "sad_avg")
	}

	slog.Info("Starting benchmark",
		"sizes", len(cfg.Sizes),
		"strategies", cfg.Strategies,
		"iters", cfg.Iters,
		"workers", cfg.Workers,
	)

	start := time.Now()
	total := len(cfg.Sizes) * len(strategies) * len(families)
	report := &Report{Results: make([]Result, 0, total)}
	rng := rand.New(rand.NewSource(cfg.Seed))

	for _, size := range cfg.Sizes {
		if !size.Valid() {
			return nil, &sad.BlockError{Size: size, Reason: "not a supported partition shape"}
		}
		blocks := newBlocks(rng, size)

		for _, s := range strategies {
			for _, family := range families {
				if err := ctx.Err(); err != nil {
					return report, err
				}

				r, err := measure(ctx, s, family, size, blocks, cfg)
				if err != nil {
					return report, err
				}
				report.Results = append(report.Results, r)

				slog.Debug("Benchmark result",
					"size", size.String(),
					"strategy", r.Strategy,
					"family", family,
					"ns_per_op", r.NsPerOp,
					"msamples_per_sec", r.MSamplesPerSec,
				)
				if progress != nil {
					progress(len(report.Results), total, r)
				}
			}
		}
	}

	report.Elapsed = time.Since(start)
	slog.Info("Benchmark complete", "results", len(report.Results), "elapsed", report.Elapsed)
	return report, nil
}

// blocks are the shared read-only inputs of one size.
type blocks struct {
	src, ref, pred []uint8
	stride         int
}

func newBlocks(rng *rand.Rand, size sad.BlockSize) blocks {
	stride := size.Width + 32
	b := blocks{
		src:    make([]uint8, stride*size.Height),
		ref:    make([]uint8, stride*size.Height),
		pred:   make([]uint8, size.Samples()),
		stride: stride,
	}
	rng.Read(b.src)
	rng.Read(b.ref)
	rng.Read(b.pred)
	return b
}

// cancelCheckMask sets how often a worker polls its context: every 1024
// kernel calls.
const cancelCheckMask = 1<<10 - 1

func measure(ctx context.Context, s sad.Strategy, family string, size sad.BlockSize, b blocks, cfg Config) (Result, error) {
	w, h := size.Width, size.Height
	call := func() uint32 { return s.Sad(w, h, b.src, b.stride, b.ref, b.stride) }
	if family == "sad_avg" {
		call = func() uint32 { return s.SadAvg(w, h, b.src, b.stride, b.ref, b.stride, b.pred) }
	}

	// nsPerOp accumulates one entry per worker across rounds.
	nsPerOp := make([]float64, cfg.Workers)
	elapsed := make([]float64, cfg.Workers)
	scaled := make([]float64, cfg.Workers)

	var (
		mu       sync.Mutex
		checksum uint64
	)

	for round := 0; round < cfg.Rounds; round++ {
		g, gctx := errgroup.WithContext(ctx)
		for wk := 0; wk < cfg.Workers; wk++ {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}

				var sum uint64
				t0 := time.Now()
				for i := 0; i < cfg.Iters; i++ {
					if i&cancelCheckMask == 0 {
						if err := gctx.Err(); err != nil {
							return err
						}
					}
					sum += uint64(call())
				}
				elapsed[wk] = time.Since(t0).Seconds()

				mu.Lock()
				checksum += sum
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return Result{}, fmt.Errorf("benchmark %s %s: %w", size, s.Name(), err)
		}

		vecmath.ScaleBlock(scaled, elapsed, 1e9/float64(cfg.Iters))
		vecmath.AddBlockInPlace(nsPerOp, scaled)
	}

	// Mean over workers and rounds.
	var mean float64
	for _, v := range nsPerOp {
		mean += v
	}
	mean /= float64(cfg.Workers * cfg.Rounds)

	r := Result{
		Size:     size,
		Strategy: s.Name(),
		Family:   family,
		Workers:  cfg.Workers,
		Calls:    cfg.Iters * cfg.Workers * cfg.Rounds,
		NsPerOp:  mean,
		Checksum: checksum,
	}
	if mean > 0 {
		// Aggregate throughput of all workers.
		r.MSamplesPerSec = float64(size.Samples()) * 1e3 / mean * float64(cfg.Workers)
	}
	return r, nil
}
