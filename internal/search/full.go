package search

import "github.com/cwbudde/blocksad/internal/sad"

// FullSearch evaluates every candidate in the ±radius window.
func FullSearch(cur, ref *Plane, x, y int, size sad.BlockSize, radius int) (Result, error) {
	bc, err := NewBlockCost(cur, ref, x, y, size)
	if err != nil {
		return Result{}, err
	}

	best := Result{Cost: ^uint32(0)}
	found := false

	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			mv := MotionVector{X: dx, Y: dy}
			c, ok := bc.Cost(mv)
			if !ok {
				continue
			}
			if !found || best.better(c, mv) {
				best.MV, best.Cost = mv, c
				found = true
			}
		}
	}

	if !found {
		return Result{}, ErrOutOfPlane
	}
	best.Evaluations = bc.Evaluations()
	return best, nil
}
