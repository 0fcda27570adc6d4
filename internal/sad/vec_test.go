package sad

import "testing"

func TestAbsDiff16(t *testing.T) {
	var a, b u8x16
	for i := range a {
		a[i] = uint8(i * 17)
		b[i] = uint8(255 - i*17)
	}

	d := absDiff16(a, b)
	for i := range d {
		want := absDiff(a[i], b[i])
		if uint32(d[i]) != want {
			t.Errorf("lane %d: got %d, want %d", i, d[i], want)
		}
	}
}

func TestRoundingHalve_NoCarryLoss(t *testing.T) {
	cases := []struct{ a, b, want uint8 }{
		{0, 0, 0},
		{10, 11, 11},
		{10, 10, 10},
		{254, 255, 255},
		{255, 255, 255},
		{0, 255, 128},
	}

	for _, c := range cases {
		var a, b u8x16
		a[3], b[3] = c.a, c.b
		if got := roundingHalve16(a, b)[3]; got != c.want {
			t.Errorf("roundingHalve16(%d, %d) = %d, want %d", c.a, c.b, got, c.want)
		}

		var a8, b8 u8x8
		a8[5], b8[5] = c.a, c.b
		if got := roundingHalve8(a8, b8)[5]; got != c.want {
			t.Errorf("roundingHalve8(%d, %d) = %d, want %d", c.a, c.b, got, c.want)
		}

		if got := RoundedAverage(c.a, c.b); got != c.want {
			t.Errorf("RoundedAverage(%d, %d) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestDotAccumulate(t *testing.T) {
	var d u8x16
	for i := range d {
		d[i] = uint8(i + 1)
	}

	acc := dotAccumulate(u32x4{100, 0, 0, 0}, d)
	want := u32x4{100 + 1 + 2 + 3 + 4, 5 + 6 + 7 + 8, 9 + 10 + 11 + 12, 13 + 14 + 15 + 16}
	if acc != want {
		t.Errorf("got %v, want %v", acc, want)
	}
}

func TestPairwiseAccumulate(t *testing.T) {
	var d u8x16
	for i := range d {
		d[i] = 255
	}

	var acc u16x8
	for i := 0; i < pairwiseFlushRows; i++ {
		acc = pairwiseAccumulate8(acc, d)
	}
	for i, v := range acc {
		if v != pairwiseFlushRows*510 {
			t.Fatalf("lane %d: got %d, want %d", i, v, pairwiseFlushRows*510)
		}
	}

	total := pairwiseAccumulate16(u32x4{}, acc)
	if got, want := horizontalAdd32(total), uint32(16*255*pairwiseFlushRows); got != want {
		t.Errorf("widened total = %d, want %d", got, want)
	}

	if w := pairwiseWiden8(d); w[0] != 510 || w[7] != 510 {
		t.Errorf("pairwiseWiden8 = %v", w)
	}
}

func TestHorizontalAdd16_Widens(t *testing.T) {
	v := u16x8{65535, 65535, 65535, 65535, 65535, 65535, 65535, 65535}
	if got, want := horizontalAdd16(v), uint32(8*65535); got != want {
		t.Errorf("got %d, want %d", got, want)
	}
}

func TestLoadRows4(t *testing.T) {
	buf := []uint8{1, 2, 3, 4, 99, 99, 5, 6, 7, 8}
	got := loadRows4(buf, 6)
	want := u8x8{1, 2, 3, 4, 5, 6, 7, 8}
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}
