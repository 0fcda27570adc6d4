package search

import (
	"fmt"
	"math/rand"

	"github.com/cwbudde/blocksad/internal/sad"
)

// planePadding is added to every row so the kernels always see a stride
// wider than the block.
const planePadding = 16

// Plane is one 8-bit luma plane. Rows are Stride samples apart; only the
// first Width samples of each row are picture content.
type Plane struct {
	Pix    []uint8
	Stride int
	Width  int
	Height int
}

// NewPlane allocates a zeroed plane with padded rows.
func NewPlane(width, height int) *Plane {
	stride := width + planePadding
	return &Plane{
		Pix:    make([]uint8, stride*height),
		Stride: stride,
		Width:  width,
		Height: height,
	}
}

// At returns the sample at (x, y), clamping coordinates to the picture.
func (p *Plane) At(x, y int) uint8 {
	x = min(max(x, 0), p.Width-1)
	y = min(max(y, 0), p.Height-1)
	return p.Pix[y*p.Stride+x]
}

// Set writes the sample at (x, y).
func (p *Plane) Set(x, y int, v uint8) {
	p.Pix[y*p.Stride+x] = v
}

// Contains reports whether a block of the given size at (x, y) lies fully
// inside the picture.
func (p *Plane) Contains(x, y int, size sad.BlockSize) bool {
	return x >= 0 && y >= 0 && x+size.Width <= p.Width && y+size.Height <= p.Height
}

// Block returns the plane data starting at the block's top-left sample.
func (p *Plane) Block(x, y int) []uint8 {
	return p.Pix[y*p.Stride+x:]
}

// Pack copies a block into a dense width x height buffer, the layout the
// compound kernels expect for their second predictor.
func (p *Plane) Pack(x, y int, size sad.BlockSize) ([]uint8, error) {
	if !p.Contains(x, y, size) {
		return nil, fmt.Errorf("%w: %s block at (%d,%d)", ErrOutOfPlane, size, x, y)
	}

	out := make([]uint8, size.Samples())
	for r := 0; r < size.Height; r++ {
		copy(out[r*size.Width:(r+1)*size.Width], p.Pix[(y+r)*p.Stride+x:])
	}
	return out, nil
}

// RandomPlane builds a smooth textured plane: random control points every
// 8 samples, bilinearly interpolated, plus a little per-sample noise. Smooth
// content gives block matching a meaningful cost surface.
func RandomPlane(rng *rand.Rand, width, height int) *Plane {
	const cell = 8
	gw, gh := width/cell+2, height/cell+2
	grid := make([]float64, gw*gh)
	for i := range grid {
		grid[i] = float64(rng.Intn(256))
	}

	p := NewPlane(width, height)
	for y := 0; y < height; y++ {
		gy, fy := y/cell, float64(y%cell)/cell
		for x := 0; x < width; x++ {
			gx, fx := x/cell, float64(x%cell)/cell

			top := grid[gy*gw+gx]*(1-fx) + grid[gy*gw+gx+1]*fx
			bottom := grid[(gy+1)*gw+gx]*(1-fx) + grid[(gy+1)*gw+gx+1]*fx
			v := top*(1-fy) + bottom*fy + float64(rng.Intn(9)-4)

			p.Set(x, y, clampSample(int(v+0.5)))
		}
	}
	return p
}

// Shifted returns a plane whose sample (x, y) is p's sample (x+dx, y+dy),
// with edges replicated and up to ±noise added per sample. A block of the
// result at (x, y) therefore matches p at motion vector (dx, dy).
func (p *Plane) Shifted(dx, dy, noise int, rng *rand.Rand) *Plane {
	out := NewPlane(p.Width, p.Height)
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			v := int(p.At(x+dx, y+dy))
			if noise > 0 {
				v += rng.Intn(2*noise+1) - noise
			}
			out.Set(x, y, clampSample(v))
		}
	}
	return out
}

func clampSample(v int) uint8 {
	return uint8(min(max(v, 0), 255))
}
