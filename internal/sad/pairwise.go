package sad

// pairwiseFlushRows bounds how many rows a 16-bit accumulator may absorb
// before it is widened into 32 bits. A pairwise accumulate adds at most
// 2*255 to a lane per row, and 128*510 = 65280 still fits in 16 bits.
// Widths 4 and 8 never flush; see narrowMaxRows4 and narrowMaxRows8.
const pairwiseFlushRows = 128

// Pairwise is the fallback accumulation strategy for targets without a fused
// widening instruction. Absolute differences are computed in 8-bit lanes,
// pairwise accumulated into 16-bit lanes and re-widened into 32-bit lanes
// before the 16-bit headroom runs out.
type Pairwise struct{}

// Name returns "pairwise".
func (Pairwise) Name() string { return "pairwise" }

// Sad dispatches on width to the pairwise kernel for that width.
func (p Pairwise) Sad(width, height int, src []uint8, srcStride int, ref []uint8, refStride int) uint32 {
	switch width {
	case 4:
		return sad4xh(height, src, srcStride, ref, refStride)
	case 8:
		return sad8xh(height, src, srcStride, ref, refStride)
	case 16:
		return p.sad16xh(height, src, srcStride, ref, refStride)
	case 32:
		return p.sad32xh(height, src, srcStride, ref, refStride)
	case 64:
		return p.sad64xh(height, src, srcStride, ref, refStride)
	}
	panic(unsupportedWidth(width))
}

// SadAvg dispatches on width to the pairwise compound kernel for that width.
func (p Pairwise) SadAvg(width, height int, src []uint8, srcStride int, ref []uint8, refStride int, secondPred []uint8) uint32 {
	switch width {
	case 4:
		return sad4xhAvg(height, src, srcStride, ref, refStride, secondPred)
	case 8:
		return sad8xhAvg(height, src, srcStride, ref, refStride, secondPred)
	case 16:
		return p.sad16xhAvg(height, src, srcStride, ref, refStride, secondPred)
	case 32:
		return p.sad32xhAvg(height, src, srcStride, ref, refStride, secondPred)
	case 64:
		return p.sad64xhAvg(height, src, srcStride, ref, refStride, secondPred)
	}
	panic(unsupportedWidth(width))
}

// sad64xh keeps one 16-bit accumulator per 16-sample sub-lane of the row and
// widens all four into the 32-bit total every pairwiseFlushRows rows.
func (Pairwise) sad64xh(h int, src []uint8, srcStride int, ref []uint8, refStride int) uint32 {
	var total u32x4
	so, ro := 0, 0

	for done := 0; done < h; {
		rows := min(h-done, pairwiseFlushRows)

		var sum [4]u16x8
		for i := rows; i > 0; i-- {
			for k := range sum {
				diff := absDiff16(load16(src[so+16*k:]), load16(ref[ro+16*k:]))
				sum[k] = pairwiseAccumulate8(sum[k], diff)
			}

			so += srcStride
			ro += refStride
		}

		for k := range sum {
			total = pairwiseAccumulate16(total, sum[k])
		}
		done += rows
	}

	return horizontalAdd32(total)
}

// sad32xh widens every row straight into 32 bits: both halves are pairwise
// summed to 16 bits and then pairwise accumulated into the total.
func (Pairwise) sad32xh(h int, src []uint8, srcStride int, ref []uint8, refStride int) uint32 {
	var sum u32x4
	so, ro := 0, 0

	for i := h; i > 0; i-- {
		sum0 := pairwiseWiden8(absDiff16(load16(src[so:]), load16(ref[ro:])))
		sum1 := pairwiseWiden8(absDiff16(load16(src[so+16:]), load16(ref[ro+16:])))

		sum = pairwiseAccumulate16(sum, sum0)
		sum = pairwiseAccumulate16(sum, sum1)

		so += srcStride
		ro += refStride
	}

	return horizontalAdd32(sum)
}

func (Pairwise) sad16xh(h int, src []uint8, srcStride int, ref []uint8, refStride int) uint32 {
	var total u32x4
	so, ro := 0, 0

	for done := 0; done < h; {
		rows := min(h-done, pairwiseFlushRows)

		var sum u16x8
		for i := rows; i > 0; i-- {
			sum = pairwiseAccumulate8(sum, absDiff16(load16(src[so:]), load16(ref[ro:])))

			so += srcStride
			ro += refStride
		}

		total = pairwiseAccumulate16(total, sum)
		done += rows
	}

	return horizontalAdd32(total)
}

func (Pairwise) sad64xhAvg(h int, src []uint8, srcStride int, ref []uint8, refStride int, pred []uint8) uint32 {
	var total u32x4
	so, ro, po := 0, 0, 0

	for done := 0; done < h; {
		rows := min(h-done, pairwiseFlushRows)

		var sum [4]u16x8
		for i := rows; i > 0; i-- {
			for k := range sum {
				avg := roundingHalve16(load16(ref[ro+16*k:]), load16(pred[po+16*k:]))
				diff := absDiff16(load16(src[so+16*k:]), avg)
				sum[k] = pairwiseAccumulate8(sum[k], diff)
			}

			so += srcStride
			ro += refStride
			po += 64
		}

		for k := range sum {
			total = pairwiseAccumulate16(total, sum[k])
		}
		done += rows
	}

	return horizontalAdd32(total)
}

func (Pairwise) sad32xhAvg(h int, src []uint8, srcStride int, ref []uint8, refStride int, pred []uint8) uint32 {
	var sum u32x4
	so, ro, po := 0, 0, 0

	for i := h; i > 0; i-- {
		avg0 := roundingHalve16(load16(ref[ro:]), load16(pred[po:]))
		sum0 := pairwiseWiden8(absDiff16(load16(src[so:]), avg0))

		avg1 := roundingHalve16(load16(ref[ro+16:]), load16(pred[po+16:]))
		sum1 := pairwiseWiden8(absDiff16(load16(src[so+16:]), avg1))

		sum = pairwiseAccumulate16(sum, sum0)
		sum = pairwiseAccumulate16(sum, sum1)

		so += srcStride
		ro += refStride
		po += 32
	}

	return horizontalAdd32(sum)
}

func (Pairwise) sad16xhAvg(h int, src []uint8, srcStride int, ref []uint8, refStride int, pred []uint8) uint32 {
	var total u32x4
	so, ro, po := 0, 0, 0

	for done := 0; done < h; {
		rows := min(h-done, pairwiseFlushRows)

		var sum u16x8
		for i := rows; i > 0; i-- {
			avg := roundingHalve16(load16(ref[ro:]), load16(pred[po:]))
			sum = pairwiseAccumulate8(sum, absDiff16(load16(src[so:]), avg))

			so += srcStride
			ro += refStride
			po += 16
		}

		total = pairwiseAccumulate16(total, sum)
		done += rows
	}

	return horizontalAdd32(total)
}
