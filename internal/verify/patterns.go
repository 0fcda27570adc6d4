package verify

import (
	"math/rand"

	"github.com/cwbudde/blocksad/internal/sad"
)

// Pattern names one family of generated inputs.
type Pattern string

const (
	PatternRandom    Pattern = "random"
	PatternZero      Pattern = "zero"
	PatternMax       Pattern = "max"
	PatternRamp      Pattern = "ramp"
	PatternOddSum    Pattern = "oddsum"
	PatternIdentical Pattern = "identical"
)

// Patterns lists every pattern in the order Run evaluates them.
var Patterns = []Pattern{
	PatternRandom, PatternZero, PatternMax, PatternRamp, PatternOddSum, PatternIdentical,
}

// deterministic patterns need one case; random ones run Config.Iters times.
func (p Pattern) deterministic() bool {
	return p != PatternRandom
}

// input is one generated case: three buffers and the strides they use.
type input struct {
	src, ref, pred       []uint8
	srcStride, refStride int
}

// generate builds the buffers for one case. Strides are always wider than the
// block and the padding holds random samples the kernels must ignore.
func generate(rng *rand.Rand, p Pattern, size sad.BlockSize) input {
	w, h := size.Width, size.Height
	in := input{
		srcStride: w + 1 + rng.Intn(w+8),
		refStride: w + 1 + rng.Intn(w+8),
	}
	in.src = noise(rng, (h-1)*in.srcStride+w)
	in.ref = noise(rng, (h-1)*in.refStride+w)
	in.pred = noise(rng, w*h)

	fill := func(buf []uint8, stride int, f func(x, y int) uint8) {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				buf[y*stride+x] = f(x, y)
			}
		}
	}

	switch p {
	case PatternZero:
		fill(in.src, in.srcStride, func(x, y int) uint8 { return 0 })
		fill(in.ref, in.refStride, func(x, y int) uint8 { return 0 })
		fill(in.pred, w, func(x, y int) uint8 { return 0 })
	case PatternMax:
		// Largest possible difference in every lane, for both families.
		fill(in.src, in.srcStride, func(x, y int) uint8 { return 0 })
		fill(in.ref, in.refStride, func(x, y int) uint8 { return 255 })
		fill(in.pred, w, func(x, y int) uint8 { return 255 })
	case PatternRamp:
		fill(in.src, in.srcStride, func(x, y int) uint8 { return uint8(x*3 + y*5) })
		fill(in.ref, in.refStride, func(x, y int) uint8 { return uint8(255 - x*2 - y) })
		fill(in.pred, w, func(x, y int) uint8 { return uint8(x + y*4) })
	case PatternOddSum:
		// ref+pred is odd everywhere, so every average depends on rounding.
		fill(in.ref, in.refStride, func(x, y int) uint8 { return uint8(2 * ((x + y) % 128)) })
		fill(in.pred, w, func(x, y int) uint8 { return uint8(2*((x+y)%128) + 1) })
	case PatternIdentical:
		fill(in.ref, in.refStride, func(x, y int) uint8 { return in.src[y*in.srcStride+x] })
		copy(in.pred, pack(in.src, in.srcStride, size))
	}

	return in
}

func noise(rng *rand.Rand, n int) []uint8 {
	buf := make([]uint8, n)
	rng.Read(buf)
	return buf
}

func pack(buf []uint8, stride int, size sad.BlockSize) []uint8 {
	out := make([]uint8, size.Samples())
	for y := 0; y < size.Height; y++ {
		copy(out[y*size.Width:(y+1)*size.Width], buf[y*stride:])
	}
	return out
}
