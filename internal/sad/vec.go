package sad

// Emulated 128-bit and 64-bit vector registers.
//
// Each type is a plain value array, so a kernel's accumulators live on the
// stack for the duration of one call. Lane arithmetic wraps modulo the lane
// width exactly like the hardware lanes it models: a 16-bit lane that receives
// more than 65535 overflows silently. The kernels are written so that this
// never happens for any supported block size (see pairwiseFlushRows and
// narrowMaxRows8).

type (
	u8x8  [8]uint8
	u8x16 [16]uint8
	u16x8 [8]uint16
	u32x4 [4]uint32
)

// load16 reads 16 consecutive samples starting at p[0].
func load16(p []uint8) (v u8x16) {
	copy(v[:], p[:16])
	return v
}

// load8 reads 8 consecutive samples starting at p[0].
func load8(p []uint8) (v u8x8) {
	copy(v[:], p[:8])
	return v
}

// loadRows4 packs two rows of 4 samples into one 8-lane vector: lanes 0-3
// hold the row at p[0], lanes 4-7 the row one stride below.
func loadRows4(p []uint8, stride int) (v u8x8) {
	copy(v[:4], p[:4])
	copy(v[4:], p[stride:stride+4])
	return v
}

func absDiff16(a, b u8x16) (d u8x16) {
	for i := range d {
		if a[i] > b[i] {
			d[i] = a[i] - b[i]
		} else {
			d[i] = b[i] - a[i]
		}
	}
	return d
}

func absDiff8(a, b u8x8) (d u8x8) {
	for i := range d {
		if a[i] > b[i] {
			d[i] = a[i] - b[i]
		} else {
			d[i] = b[i] - a[i]
		}
	}
	return d
}

// roundingHalve16 is the rounding halving add (a+b+1)>>1, computed without
// losing the carry out of the 8-bit lane.
func roundingHalve16(a, b u8x16) (r u8x16) {
	for i := range r {
		r[i] = uint8((uint16(a[i]) + uint16(b[i]) + 1) >> 1)
	}
	return r
}

func roundingHalve8(a, b u8x8) (r u8x8) {
	for i := range r {
		r[i] = uint8((uint16(a[i]) + uint16(b[i]) + 1) >> 1)
	}
	return r
}

// dotAccumulate adds each group of four 8-bit lanes of d into the matching
// 32-bit lane of acc. This is a dot product of d with a vector of ones, the
// single widening step the fused strategy relies on.
func dotAccumulate(acc u32x4, d u8x16) u32x4 {
	for i := range acc {
		acc[i] += uint32(d[4*i]) + uint32(d[4*i+1]) + uint32(d[4*i+2]) + uint32(d[4*i+3])
	}
	return acc
}

// pairwiseAccumulate8 adds adjacent pairs of 8-bit lanes of d into the 16-bit
// lanes of acc. Each call adds at most 2*255 to a lane.
func pairwiseAccumulate8(acc u16x8, d u8x16) u16x8 {
	for i := range acc {
		acc[i] += uint16(d[2*i]) + uint16(d[2*i+1])
	}
	return acc
}

// pairwiseWiden8 sums adjacent pairs of 8-bit lanes into 16-bit lanes.
func pairwiseWiden8(d u8x16) (s u16x8) {
	for i := range s {
		s[i] = uint16(d[2*i]) + uint16(d[2*i+1])
	}
	return s
}

// pairwiseAccumulate16 adds adjacent pairs of 16-bit lanes of v into the
// 32-bit lanes of acc.
func pairwiseAccumulate16(acc u32x4, v u16x8) u32x4 {
	for i := range acc {
		acc[i] += uint32(v[2*i]) + uint32(v[2*i+1])
	}
	return acc
}

// absDiffAccumulate adds |a-b| lane by lane into the widened accumulator.
// Each call adds at most 255 to a lane.
func absDiffAccumulate(acc u16x8, a, b u8x8) u16x8 {
	d := absDiff8(a, b)
	for i := range acc {
		acc[i] += uint16(d[i])
	}
	return acc
}

func add32(a, b u32x4) (s u32x4) {
	for i := range s {
		s[i] = a[i] + b[i]
	}
	return s
}

// horizontalAdd32 collapses all lanes of v into one scalar.
func horizontalAdd32(v u32x4) uint32 {
	return v[0] + v[1] + v[2] + v[3]
}

// horizontalAdd16 widens every lane to 32 bits before summing, so eight lanes
// close to 65535 do not wrap.
func horizontalAdd16(v u16x8) uint32 {
	var sum uint32
	for _, x := range v {
		sum += uint32(x)
	}
	return sum
}
