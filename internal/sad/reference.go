package sad

// Scalar reference implementations.
//
// These follow the definitions sample by sample with no lanes, no unrolling
// and a plain 32-bit running sum. They are the ground truth the strategies are
// verified against, and are not meant for hot loops.

// ReferenceSad computes Σ|src[i]-ref[i]| over the width x height block.
func ReferenceSad(width, height int, src []uint8, srcStride int, ref []uint8, refStride int) uint32 {
	var sum uint32

	for y := 0; y < height; y++ {
		s := src[y*srcStride : y*srcStride+width]
		r := ref[y*refStride : y*refStride+width]

		for x := range s {
			sum += absDiff(s[x], r[x])
		}
	}

	return sum
}

// ReferenceSadAvg computes Σ|src[i]-((ref[i]+secondPred[i]+1)>>1)|, with
// secondPred densely packed at a stride of width.
func ReferenceSadAvg(width, height int, src []uint8, srcStride int, ref []uint8, refStride int, secondPred []uint8) uint32 {
	var sum uint32

	for y := 0; y < height; y++ {
		s := src[y*srcStride : y*srcStride+width]
		r := ref[y*refStride : y*refStride+width]
		p := secondPred[y*width : y*width+width]

		for x := range s {
			sum += absDiff(s[x], RoundedAverage(r[x], p[x]))
		}
	}

	return sum
}

// RoundedAverage is the compound predictor rounding: (a+b+1)>>1, ties
// rounded up.
func RoundedAverage(a, b uint8) uint8 {
	return uint8((uint16(a) + uint16(b) + 1) >> 1)
}

func absDiff(a, b uint8) uint32 {
	if a > b {
		return uint32(a - b)
	}
	return uint32(b - a)
}

// reference adapts the scalar functions to the Strategy interface for
// side-by-side evaluation.
type reference struct{}

func (reference) Name() string { return "reference" }

func (reference) Sad(width, height int, src []uint8, srcStride int, ref []uint8, refStride int) uint32 {
	return ReferenceSad(width, height, src, srcStride, ref, refStride)
}

func (reference) SadAvg(width, height int, src []uint8, srcStride int, ref []uint8, refStride int, secondPred []uint8) uint32 {
	return ReferenceSadAvg(width, height, src, srcStride, ref, refStride, secondPred)
}

// Reference returns the scalar reference as a Strategy.
func Reference() Strategy {
	return reference{}
}
