// Package sad computes the Sum of Absolute Differences between two blocks of
// 8-bit samples for the block sizes a motion-estimation search evaluates, and
// the compound variant that first averages the reference with a second
// predictor.
//
// Two accumulation strategies implement the wide kernels:
//   - Fused:    absolute differences folded into 32-bit lanes in one step
//   - Pairwise: 8-bit differences widened pairwise through 16-bit lanes
//
// Exactly one of them backs Sad and SadAvg; the choice is made at build time
// (see strategy_fused.go and strategy_pairwise.go), never per call. Both
// return identical results for identical inputs.
//
// All functions are pure. They read the caller's buffers, never write or
// retain them, and are safe for concurrent use without locking.
package sad

import (
	"fmt"
	"log/slog"

	"github.com/cwbudde/blocksad/internal/cpu"
)

// MaxSad is the largest value any kernel can return: a 64x64 block where
// every sample differs by 255.
const MaxSad = 64 * 64 * 255

// Strategy is one accumulation scheme for the whole kernel catalogue.
//
// Width must be one of 4, 8, 16, 32 or 64 and height a positive multiple of
// 4. Strides must be at least the width and every buffer must hold height
// rows of width samples; secondPred is dense (stride == width). None of this
// is checked unless the package is built with the saddebug tag.
type Strategy interface {
	// Name identifies the strategy ("fused" or "pairwise").
	Name() string

	// Sad returns Σ|src[i]-ref[i]| over the width x height block.
	Sad(width, height int, src []uint8, srcStride int, ref []uint8, refStride int) uint32

	// SadAvg returns Σ|src[i]-((ref[i]+secondPred[i]+1)>>1)|.
	SadAvg(width, height int, src []uint8, srcStride int, ref []uint8, refStride int, secondPred []uint8) uint32
}

// Sad returns the sum of absolute differences between the width x height
// blocks at src and ref, using the build-selected strategy.
func Sad(width, height int, src []uint8, srcStride int, ref []uint8, refStride int) uint32 {
	checkBlock(width, height, len(src), srcStride, len(ref), refStride, -1)
	return active{}.Sad(width, height, src, srcStride, ref, refStride)
}

// SadAvg returns the sum of absolute differences between src and the rounded
// average (ref+secondPred+1)>>1, using the build-selected strategy.
// secondPred advances exactly width samples per row.
func SadAvg(width, height int, src []uint8, srcStride int, ref []uint8, refStride int, secondPred []uint8) uint32 {
	checkBlock(width, height, len(src), srcStride, len(ref), refStride, len(secondPred))
	return active{}.SadAvg(width, height, src, srcStride, ref, refStride, secondPred)
}

// Active returns the strategy this binary was built with.
func Active() Strategy {
	return active{}
}

// Strategies returns every strategy compiled into the package, so both can be
// checked against each other on any target.
func Strategies() []Strategy {
	return []Strategy{Fused{}, Pairwise{}}
}

// StrategyByName resolves "fused", "pairwise", "reference" or "active".
func StrategyByName(name string) (Strategy, error) {
	switch name {
	case "fused":
		return Fused{}, nil
	case "pairwise":
		return Pairwise{}, nil
	case "reference":
		return Reference(), nil
	case "active", "":
		return Active(), nil
	}
	return nil, fmt.Errorf("unknown strategy %q (want fused, pairwise, reference or active)", name)
}

func unsupportedWidth(width int) string {
	return fmt.Sprintf("sad: unsupported block width %d", width)
}

func init() {
	features := cpu.DetectFeatures()
	fused := cpu.SupportsFused(features)

	slog.Debug("SAD kernels initialized",
		"strategy", Active().Name(),
		"arch", features.Architecture,
		"fused_capable", fused,
	)

	// The build decides; a mismatch means the binary was built for a
	// different target than the one it runs on.
	switch {
	case fused && Active().Name() != (Fused{}).Name():
		slog.Warn("SAD kernels built with pairwise strategy on fused-capable CPU",
			"arch", features.Architecture)
	case !fused && Active().Name() == (Fused{}).Name() && features.Architecture == "arm64":
		slog.Warn("SAD kernels built with fused strategy but CPU reports no dot product support",
			"arch", features.Architecture)
	}
}
