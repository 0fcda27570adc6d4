package sad

// Kernels for the 4 and 8 sample wide blocks. Both strategies share them:
// an 8-lane absolute-difference-accumulate into one 16-bit vector already
// matches the throughput of the fused path at these widths, and a lane
// receives at most one difference per row, far below the 257 differences
// a 16-bit lane can absorb.
//
// The accumulator is never widened, which caps the block height: 257 rows
// at width 8, and 514 at width 4 where a lane sees one difference per row
// pair. Catalogue heights stop at 64. Taller narrow blocks would need the
// flush that pairwiseFlushRows drives in the wide kernels.
const (
	narrowMaxRows4 = 2 * 257
	narrowMaxRows8 = 257
)

// sad4xh packs two 4-sample rows into one 8-lane vector per iteration.
func sad4xh(h int, src []uint8, srcStride int, ref []uint8, refStride int) uint32 {
	var sum u16x8
	so, ro := 0, 0

	for i := h / 2; i > 0; i-- {
		s := loadRows4(src[so:], srcStride)
		r := loadRows4(ref[ro:], refStride)
		sum = absDiffAccumulate(sum, s, r)

		so += 2 * srcStride
		ro += 2 * refStride
	}

	return horizontalAdd16(sum)
}

func sad8xh(h int, src []uint8, srcStride int, ref []uint8, refStride int) uint32 {
	var sum u16x8
	so, ro := 0, 0

	for i := h; i > 0; i-- {
		sum = absDiffAccumulate(sum, load8(src[so:]), load8(ref[ro:]))

		so += srcStride
		ro += refStride
	}

	return horizontalAdd16(sum)
}

// sad4xhAvg consumes 8 contiguous predictor samples per packed row pair,
// since the second predictor is dense with a stride of 4.
func sad4xhAvg(h int, src []uint8, srcStride int, ref []uint8, refStride int, pred []uint8) uint32 {
	var sum u16x8
	so, ro, po := 0, 0, 0

	for i := h / 2; i > 0; i-- {
		s := loadRows4(src[so:], srcStride)
		r := loadRows4(ref[ro:], refStride)
		avg := roundingHalve8(r, load8(pred[po:]))
		sum = absDiffAccumulate(sum, s, avg)

		so += 2 * srcStride
		ro += 2 * refStride
		po += 8
	}

	return horizontalAdd16(sum)
}

func sad8xhAvg(h int, src []uint8, srcStride int, ref []uint8, refStride int, pred []uint8) uint32 {
	var sum u16x8
	so, ro, po := 0, 0, 0

	for i := h; i > 0; i-- {
		avg := roundingHalve8(load8(ref[ro:]), load8(pred[po:]))
		sum = absDiffAccumulate(sum, load8(src[so:]), avg)

		so += srcStride
		ro += refStride
		po += 8
	}

	return horizontalAdd16(sum)
}
