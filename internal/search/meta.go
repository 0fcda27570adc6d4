package search

import (
	"math"

	"github.com/cwbudde/blocksad/internal/opt"
	"github.com/cwbudde/blocksad/internal/sad"
)

// MetaheuristicSearch hands the window to a continuous optimizer over
// (dx, dy). Candidates are rounded to whole samples; out-of-plane candidates
// score worse than any real block. The zero vector is always evaluated, so
// the result is never worse than no motion.
func MetaheuristicSearch(cur, ref *Plane, x, y int, size sad.BlockSize, radius int, optimizer opt.Optimizer) (Result, error) {
	bc, err := NewBlockCost(cur, ref, x, y, size)
	if err != nil {
		return Result{}, err
	}

	c, ok := bc.Cost(MotionVector{})
	if !ok {
		return Result{}, ErrOutOfPlane
	}
	best := Result{Cost: c}

	penalty := float64(sad.MaxSad) + 1
	eval := func(p []float64) float64 {
		mv := MotionVector{X: int(math.Round(p[0])), Y: int(math.Round(p[1]))}
		cost, ok := bc.Cost(mv)
		if !ok {
			return penalty
		}
		if best.better(cost, mv) {
			best.MV, best.Cost = mv, cost
		}
		return float64(cost)
	}

	r := float64(radius)
	optimizer.Run(eval, []float64{-r, -r}, []float64{r, r}, 2)

	best.Evaluations = bc.Evaluations()
	return best, nil
}
