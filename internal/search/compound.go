package search

import (
	"fmt"

	"github.com/cwbudde/blocksad/internal/sad"
)

// CompoundResult compares a bi-predicted block against its two single
// predictions.
type CompoundResult struct {
	Cost    uint32 `json:"cost"`
	Single0 uint32 `json:"single0"`
	Single1 uint32 `json:"single1"`
	Better  bool   `json:"better"`
}

// CompoundRefine scores the size block at (x, y) in cur against the rounded
// average of ref0 at mv0 and ref1 at mv1. ref1's block is packed densely and
// passed as the second predictor.
func CompoundRefine(cur, ref0, ref1 *Plane, x, y int, size sad.BlockSize, mv0, mv1 MotionVector) (CompoundResult, error) {
	bc0, err := NewBlockCost(cur, ref0, x, y, size)
	if err != nil {
		return CompoundResult{}, err
	}
	bc1, err := NewBlockCost(cur, ref1, x, y, size)
	if err != nil {
		return CompoundResult{}, err
	}

	s0, ok0 := bc0.Cost(mv0)
	s1, ok1 := bc1.Cost(mv1)
	if !ok0 || !ok1 {
		return CompoundResult{}, fmt.Errorf("%w: reference at %s / %s", ErrOutOfPlane, mv0, mv1)
	}

	pred, err := ref1.Pack(x+mv1.X, y+mv1.Y, size)
	if err != nil {
		return CompoundResult{}, err
	}

	kernel, _ := sad.Lookup(size.Width, size.Height)
	c := kernel.SadAvg(cur.Block(x, y), cur.Stride, ref0.Block(x+mv0.X, y+mv0.Y), ref0.Stride, pred)

	return CompoundResult{
		Cost:    c,
		Single0: s0,
		Single1: s1,
		Better:  c < min(s0, s1),
	}, nil
}
