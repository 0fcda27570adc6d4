// Package verify checks that every accumulation strategy and the
// build-selected dispatcher agree with the scalar reference on generated
// inputs.
package verify

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/blocksad/internal/sad"
)

// Family names the kernel family a case exercised.
type Family string

const (
	FamilySad    Family = "sad"
	FamilySadAvg Family = "sad_avg"
)

// Config controls a verification run.
type Config struct {
	Sizes   []sad.BlockSize
	Iters   int   // random cases per size
	Seed    int64 // base seed; each size derives its own
	Workers int   // sizes verified concurrently; <= 0 means one per size

	// Progress is called after every finished size. Calls are serialized.
	Progress func(done, total int, result SizeResult)
}

// DefaultConfig verifies the whole catalogue.
func DefaultConfig() Config {
	return Config{
		Sizes: sad.Catalogue(),
		Iters: 100,
		Seed:  1,
	}
}

// Mismatch describes the first disagreement found for a size.
type Mismatch struct {
	Pattern   Pattern `json:"pattern"`
	Case      int     `json:"case"`
	Seed      int64   `json:"seed"`
	Family    Family  `json:"family"`
	Strategy  string  `json:"strategy"`
	Expected  uint32  `json:"expected"`
	Got       uint32  `json:"got"`
	SrcStride int     `json:"src_stride"`
	RefStride int     `json:"ref_stride"`
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s %s pattern=%s case=%d seed=%d: expected %d, got %d",
		m.Strategy, m.Family, m.Pattern, m.Case, m.Seed, m.Expected, m.Got)
}

// SizeResult is the outcome for one block size.
type SizeResult struct {
	Size       sad.BlockSize `json:"size"`
	Cases      int           `json:"cases"`
	Mismatches int           `json:"mismatches"`
	First      *Mismatch     `json:"first_mismatch,omitempty"`
}

// Report aggregates a whole run.
type Report struct {
	Strategy   string       `json:"strategy"`
	Sizes      []SizeResult `json:"sizes"`
	Cases      int          `json:"cases"`
	Mismatches int          `json:"mismatches"`
	Passed     bool         `json:"passed"`
}

// candidate is one implementation checked against the reference.
type candidate struct {
	name   string
	sad    func(w, h int, src []uint8, ss int, ref []uint8, rs int) uint32
	sadAvg func(w, h int, src []uint8, ss int, ref []uint8, rs int, pred []uint8) uint32
}

// candidateSet is replaced in tests to inject a faulty implementation.
var candidateSet = candidates

func candidates() []candidate {
	out := []candidate{{
		name:   "dispatch(" + sad.Active().Name() + ")",
		sad:    sad.Sad,
		sadAvg: sad.SadAvg,
	}}
	for _, s := range sad.Strategies() {
		out = append(out, candidate{name: s.Name(), sad: s.Sad, sadAvg: s.SadAvg})
	}
	return out
}

// Run verifies every configured size. It returns an error only for invalid
// configuration or cancellation; disagreements are reported in the Report.
func Run(ctx context.Context, cfg Config) (*Report, error) {
	if len(cfg.Sizes) == 0 {
		cfg.Sizes = sad.Catalogue()
	}
	for _, size := range cfg.Sizes {
		if !size.Valid() {
			return nil, &sad.BlockError{Size: size, Reason: "not a supported partition shape"}
		}
	}
	if cfg.Iters < 0 {
		return nil, fmt.Errorf("iters must be non-negative, got %d", cfg.Iters)
	}

	slog.Info("Starting verification",
		"sizes", len(cfg.Sizes),
		"iters", cfg.Iters,
		"seed", cfg.Seed,
		"strategy", sad.Active().Name(),
	)

	results := make([]SizeResult, len(cfg.Sizes))

	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Workers > 0 {
		g.SetLimit(cfg.Workers)
	}

	for i, size := range cfg.Sizes {
		g.Go(func() error {
			res, err := verifySize(gctx, size, cfg.Iters, cfg.Seed+int64(i)*1_000_003)
			if err != nil {
				return err
			}
			results[i] = res

			if res.Mismatches > 0 {
				slog.Error("Kernel mismatch", "size", size.String(), "first", res.First.String())
			}

			mu.Lock()
			done++
			if cfg.Progress != nil {
				cfg.Progress(done, len(cfg.Sizes), res)
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("verification cancelled: %w", err)
	}

	report := &Report{Strategy: sad.Active().Name(), Sizes: results}
	for _, r := range results {
		report.Cases += r.Cases
		report.Mismatches += r.Mismatches
	}
	report.Passed = report.Mismatches == 0

	slog.Info("Verification complete",
		"cases", report.Cases,
		"mismatches", report.Mismatches,
		"passed", report.Passed,
	)
	return report, nil
}

func verifySize(ctx context.Context, size sad.BlockSize, iters int, seed int64) (SizeResult, error) {
	res := SizeResult{Size: size}
	cands := candidateSet()
	w, h := size.Width, size.Height

	record := func(m Mismatch) {
		res.Mismatches++
		if res.First == nil {
			res.First = &m
		}
	}

	for _, p := range Patterns {
		n := iters
		if p.deterministic() {
			n = 1
		}

		for c := 0; c < n; c++ {
			if err := ctx.Err(); err != nil {
				return res, err
			}

			caseSeed := seed + int64(c)
			in := generate(rand.New(rand.NewSource(caseSeed)), p, size)

			want := sad.ReferenceSad(w, h, in.src, in.srcStride, in.ref, in.refStride)
			wantAvg := sad.ReferenceSadAvg(w, h, in.src, in.srcStride, in.ref, in.refStride, in.pred)

			for _, cand := range cands {
				mm := Mismatch{Pattern: p, Case: c, Seed: caseSeed, Strategy: cand.name,
					SrcStride: in.srcStride, RefStride: in.refStride}

				if got := cand.sad(w, h, in.src, in.srcStride, in.ref, in.refStride); got != want {
					mm.Family, mm.Expected, mm.Got = FamilySad, want, got
					record(mm)
				}
				if got := cand.sadAvg(w, h, in.src, in.srcStride, in.ref, in.refStride, in.pred); got != wantAvg {
					mm.Family, mm.Expected, mm.Got = FamilySadAvg, wantAvg, got
					record(mm)
				}
				res.Cases += 2
			}
		}
	}

	return res, nil
}
