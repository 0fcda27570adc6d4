package sad

// Fused is the accumulation strategy for targets with a fused
// absolute-difference-and-widen instruction (dot product on arm64, PSADBW on
// amd64). Every step folds 16 absolute differences straight into 32-bit
// lanes, so two accumulators are enough regardless of block width; they are
// only added together for the final reduction.
type Fused struct{}

// Name returns "fused".
func (Fused) Name() string { return "fused" }

// Sad dispatches on width to the fused kernel for that width.
func (f Fused) Sad(width, height int, src []uint8, srcStride int, ref []uint8, refStride int) uint32 {
	switch width {
	case 4:
		return sad4xh(height, src, srcStride, ref, refStride)
	case 8:
		return sad8xh(height, src, srcStride, ref, refStride)
	case 16:
		return f.sad16xh(height, src, srcStride, ref, refStride)
	case 32, 64:
		return f.sadwxh(width, height, src, srcStride, ref, refStride)
	}
	panic(unsupportedWidth(width))
}

// SadAvg dispatches on width to the fused compound kernel for that width.
func (f Fused) SadAvg(width, height int, src []uint8, srcStride int, ref []uint8, refStride int, secondPred []uint8) uint32 {
	switch width {
	case 4:
		return sad4xhAvg(height, src, srcStride, ref, refStride, secondPred)
	case 8:
		return sad8xhAvg(height, src, srcStride, ref, refStride, secondPred)
	case 16:
		return f.sad16xhAvg(height, src, srcStride, ref, refStride, secondPred)
	case 32, 64:
		return f.sadwxhAvg(width, height, src, srcStride, ref, refStride, secondPred)
	}
	panic(unsupportedWidth(width))
}

// sadwxh serves widths 32 and 64: each row is walked in 32-sample steps,
// the two 16-sample halves feeding separate accumulators.
func (Fused) sadwxh(w, h int, src []uint8, srcStride int, ref []uint8, refStride int) uint32 {
	var sum [2]u32x4
	so, ro := 0, 0

	for i := h; i > 0; i-- {
		for j := 0; j < w; j += 32 {
			diff0 := absDiff16(load16(src[so+j:]), load16(ref[ro+j:]))
			sum[0] = dotAccumulate(sum[0], diff0)

			diff1 := absDiff16(load16(src[so+j+16:]), load16(ref[ro+j+16:]))
			sum[1] = dotAccumulate(sum[1], diff1)
		}

		so += srcStride
		ro += refStride
	}

	return horizontalAdd32(add32(sum[0], sum[1]))
}

// sad16xh unrolls two rows per iteration, one accumulator per row.
func (Fused) sad16xh(h int, src []uint8, srcStride int, ref []uint8, refStride int) uint32 {
	var sum [2]u32x4
	so, ro := 0, 0

	for i := h / 2; i > 0; i-- {
		diff0 := absDiff16(load16(src[so:]), load16(ref[ro:]))
		sum[0] = dotAccumulate(sum[0], diff0)

		so += srcStride
		ro += refStride

		diff1 := absDiff16(load16(src[so:]), load16(ref[ro:]))
		sum[1] = dotAccumulate(sum[1], diff1)

		so += srcStride
		ro += refStride
	}

	return horizontalAdd32(add32(sum[0], sum[1]))
}

func (Fused) sadwxhAvg(w, h int, src []uint8, srcStride int, ref []uint8, refStride int, pred []uint8) uint32 {
	var sum [2]u32x4
	so, ro, po := 0, 0, 0

	for i := h; i > 0; i-- {
		for j := 0; j < w; j += 32 {
			avg0 := roundingHalve16(load16(ref[ro+j:]), load16(pred[po:]))
			diff0 := absDiff16(load16(src[so+j:]), avg0)
			sum[0] = dotAccumulate(sum[0], diff0)

			avg1 := roundingHalve16(load16(ref[ro+j+16:]), load16(pred[po+16:]))
			diff1 := absDiff16(load16(src[so+j+16:]), avg1)
			sum[1] = dotAccumulate(sum[1], diff1)

			po += 32
		}

		so += srcStride
		ro += refStride
	}

	return horizontalAdd32(add32(sum[0], sum[1]))
}

func (Fused) sad16xhAvg(h int, src []uint8, srcStride int, ref []uint8, refStride int, pred []uint8) uint32 {
	var sum [2]u32x4
	so, ro, po := 0, 0, 0

	for i := h / 2; i > 0; i-- {
		avg0 := roundingHalve16(load16(ref[ro:]), load16(pred[po:]))
		diff0 := absDiff16(load16(src[so:]), avg0)
		sum[0] = dotAccumulate(sum[0], diff0)

		so += srcStride
		ro += refStride
		po += 16

		avg1 := roundingHalve16(load16(ref[ro:]), load16(pred[po:]))
		diff1 := absDiff16(load16(src[so:]), avg1)
		sum[1] = dotAccumulate(sum[1], diff1)

		so += srcStride
		ro += refStride
		po += 16
	}

	return horizontalAdd32(add32(sum[0], sum[1]))
}
