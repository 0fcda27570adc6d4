package search

import "github.com/cwbudde/blocksad/internal/sad"

var (
	largeDiamond = []MotionVector{
		{0, -2}, {1, -1}, {2, 0}, {1, 1},
		{0, 2}, {-1, 1}, {-2, 0}, {-1, -1},
	}
	smallDiamond = []MotionVector{
		{0, -1}, {1, 0}, {0, 1}, {-1, 0},
	}
)

// DiamondSearch walks the large diamond pattern until its centre is the best
// point, then refines once with the small diamond. The convergence tracker
// ends the walk early when steps stop lowering the SAD meaningfully.
func DiamondSearch(cur, ref *Plane, x, y int, size sad.BlockSize, radius int, conv ConvergenceConfig) (Result, error) {
	bc, err := NewBlockCost(cur, ref, x, y, size)
	if err != nil {
		return Result{}, err
	}

	c, ok := bc.Cost(MotionVector{})
	if !ok {
		return Result{}, ErrOutOfPlane
	}
	best := Result{Cost: c}

	tracker := NewConvergenceTracker(conv)
	tracker.Update(best.Cost)

	// Each step moves the centre at least one sample, so the window bounds
	// the walk.
	for step := 0; step < 4*radius+1 && best.Cost > 0; step++ {
		centre := best.MV
		best = probe(bc, best, centre, largeDiamond, radius)
		if best.MV == centre {
			break
		}
		if tracker.Update(best.Cost) {
			break
		}
	}

	best = probe(bc, best, best.MV, smallDiamond, radius)
	best.Evaluations = bc.Evaluations()
	return best, nil
}

func probe(bc *BlockCost, best Result, centre MotionVector, pattern []MotionVector, radius int) Result {
	for _, d := range pattern {
		mv := centre.Add(d)
		if !mv.within(radius) {
			continue
		}
		if c, ok := bc.Cost(mv); ok && best.better(c, mv) {
			best.MV, best.Cost = mv, c
		}
	}
	return best
}
