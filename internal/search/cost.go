package search

import (
	"errors"
	"fmt"

	"github.com/cwbudde/blocksad/internal/sad"
)

// ErrOutOfPlane is returned when a block does not lie inside its plane.
var ErrOutOfPlane = errors.New("block outside plane")

// MotionVector is a candidate displacement of a block in the reference plane.
type MotionVector struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (mv MotionVector) String() string {
	return fmt.Sprintf("(%d,%d)", mv.X, mv.Y)
}

// Add returns the component-wise sum.
func (mv MotionVector) Add(o MotionVector) MotionVector {
	return MotionVector{X: mv.X + o.X, Y: mv.Y + o.Y}
}

// within reports whether both components lie in [-radius, radius].
func (mv MotionVector) within(radius int) bool {
	return mv.X >= -radius && mv.X <= radius && mv.Y >= -radius && mv.Y <= radius
}

// l1 is the city-block length, used to break cost ties toward short vectors.
func (mv MotionVector) l1() int {
	return abs(mv.X) + abs(mv.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// CostFunc evaluates one candidate. ok is false for candidates whose
// reference block would leave the plane.
type CostFunc func(mv MotionVector) (cost uint32, ok bool)

// BlockCost binds the build-selected SAD kernel for one block of the current
// plane against a reference plane. Costs are memoized per candidate so every
// search strategy pays for each distinct candidate once.
type BlockCost struct {
	cur, ref *Plane
	x, y     int
	kernel   sad.Kernel
	seen     map[MotionVector]uint32
}

// NewBlockCost prepares the cost of the size block at (x, y) in cur.
func NewBlockCost(cur, ref *Plane, x, y int, size sad.BlockSize) (*BlockCost, error) {
	kernel, ok := sad.Lookup(size.Width, size.Height)
	if !ok {
		return nil, &sad.BlockError{Size: size, Reason: "not a supported partition shape"}
	}
	if !cur.Contains(x, y, size) {
		return nil, fmt.Errorf("current %w: %s block at (%d,%d)", ErrOutOfPlane, size, x, y)
	}

	return &BlockCost{
		cur:    cur,
		ref:    ref,
		x:      x,
		y:      y,
		kernel: kernel,
		seen:   make(map[MotionVector]uint32),
	}, nil
}

// Cost returns the SAD of the block against the reference displaced by mv.
func (b *BlockCost) Cost(mv MotionVector) (uint32, bool) {
	if c, ok := b.seen[mv]; ok {
		return c, true
	}

	rx, ry := b.x+mv.X, b.y+mv.Y
	if !b.ref.Contains(rx, ry, b.kernel.Size) {
		return 0, false
	}

	c := b.kernel.Sad(b.cur.Block(b.x, b.y), b.cur.Stride, b.ref.Block(rx, ry), b.ref.Stride)
	b.seen[mv] = c
	return c, true
}

// Evaluations is the number of distinct candidates the kernel was run on.
func (b *BlockCost) Evaluations() int {
	return len(b.seen)
}

// Size returns the bound block size.
func (b *BlockCost) Size() sad.BlockSize {
	return b.kernel.Size
}
