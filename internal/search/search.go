// Package search runs block-matching motion searches on top of the SAD
// kernels: the workload the kernels exist for.
package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cwbudde/blocksad/internal/opt"
	"github.com/cwbudde/blocksad/internal/sad"
)

// Method names a search strategy.
type Method string

const (
	MethodFull    Method = "full"
	MethodDiamond Method = "diamond"
	MethodMayfly  Method = "mayfly"
)

// ParseMethod validates a method name.
func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case MethodFull, MethodDiamond, MethodMayfly:
		return m, nil
	case "":
		return MethodDiamond, nil
	}
	return "", fmt.Errorf("unknown search method %q (want full, diamond or mayfly)", s)
}

// Result is the best candidate a search found for one block.
type Result struct {
	MV          MotionVector `json:"mv"`
	Cost        uint32       `json:"cost"`
	Evaluations int          `json:"evaluations"`
}

// better reports whether (cost, mv) beats the current best. Ties go to the
// shorter vector.
func (r Result) better(cost uint32, mv MotionVector) bool {
	return cost < r.Cost || (cost == r.Cost && mv.l1() < r.MV.l1())
}

// Options configures Search and EstimateField.
type Options struct {
	Method      Method
	Radius      int
	Convergence ConvergenceConfig

	// Optimizer is used by MethodMayfly; nil selects NewMayfly with
	// MayflyIters, MayflyPop and Seed.
	Optimizer   opt.Optimizer
	MayflyIters int
	MayflyPop   int
	Seed        int64
}

// DefaultOptions returns a diamond search over a ±16 window.
func DefaultOptions() Options {
	return Options{
		Method:      MethodDiamond,
		Radius:      16,
		Convergence: DefaultConvergenceConfig(),
		MayflyIters: 30,
		MayflyPop:   20,
		Seed:        42,
	}
}

func (o Options) optimizer() opt.Optimizer {
	if o.Optimizer != nil {
		return o.Optimizer
	}
	return opt.NewMayfly(o.MayflyIters, o.MayflyPop, o.Seed)
}

// Search finds the motion vector of the size block at (x, y) in cur.
func Search(cur, ref *Plane, x, y int, size sad.BlockSize, o Options) (Result, error) {
	switch o.Method {
	case MethodFull:
		return FullSearch(cur, ref, x, y, size, o.Radius)
	case MethodDiamond:
		return DiamondSearch(cur, ref, x, y, size, o.Radius, o.Convergence)
	case MethodMayfly:
		return MetaheuristicSearch(cur, ref, x, y, size, o.Radius, o.optimizer())
	}
	return Result{}, fmt.Errorf("unknown search method %q", o.Method)
}

// FieldResult summarizes a motion field over a whole plane.
type FieldResult struct {
	Size        sad.BlockSize  `json:"size"`
	Method      Method         `json:"method"`
	Blocks      int            `json:"blocks"`
	TotalCost   uint64         `json:"total_cost"`
	Evaluations int            `json:"evaluations"`
	Vectors     []MotionVector `json:"vectors"`
}

// MeanCost returns the average best SAD per block.
func (f *FieldResult) MeanCost() float64 {
	if f.Blocks == 0 {
		return 0
	}
	return float64(f.TotalCost) / float64(f.Blocks)
}

// EstimateField searches every non-overlapping block of cur in raster order.
// progress, if non-nil, is called after each block.
func EstimateField(ctx context.Context, cur, ref *Plane, size sad.BlockSize, o Options, progress func(done, total int)) (*FieldResult, error) {
	cols, rows := cur.Width/size.Width, cur.Height/size.Height
	total := cols * rows
	if total == 0 {
		return nil, fmt.Errorf("plane %dx%d smaller than block %s", cur.Width, cur.Height, size)
	}

	slog.Info("Estimating motion field",
		"size", size.String(),
		"method", o.Method,
		"radius", o.Radius,
		"blocks", total,
	)

	field := &FieldResult{
		Size:    size,
		Method:  o.Method,
		Vectors: make([]MotionVector, 0, total),
	}

	for by := 0; by < rows; by++ {
		for bx := 0; bx < cols; bx++ {
			if err := ctx.Err(); err != nil {
				return field, err
			}

			res, err := Search(cur, ref, bx*size.Width, by*size.Height, size, o)
			if err != nil {
				return field, fmt.Errorf("block (%d,%d): %w", bx, by, err)
			}

			field.Blocks++
			field.TotalCost += uint64(res.Cost)
			field.Evaluations += res.Evaluations
			field.Vectors = append(field.Vectors, res.MV)

			if progress != nil {
				progress(field.Blocks, total)
			}
		}
	}

	slog.Info("Motion field complete",
		"blocks", field.Blocks,
		"mean_cost", field.MeanCost(),
		"evaluations", field.Evaluations,
	)
	return field, nil
}
