package sad

import (
	"fmt"
	"strconv"
	"strings"
)

// BlockSize is a width x height partition shape.
type BlockSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// String formats the size as "WxH".
func (b BlockSize) String() string {
	return strconv.Itoa(b.Width) + "x" + strconv.Itoa(b.Height)
}

// Samples returns the number of samples in the block.
func (b BlockSize) Samples() int {
	return b.Width * b.Height
}

// MaxSad returns the largest SAD the block can produce.
func (b BlockSize) MaxSad() uint32 {
	return uint32(b.Samples()) * 255
}

// Valid reports whether the size is one of the catalogue shapes.
func (b BlockSize) Valid() bool {
	for _, c := range catalogue {
		if c == b {
			return true
		}
	}
	return false
}

// catalogue lists the encoder partition shapes, narrowest first.
var catalogue = [...]BlockSize{
	{4, 4}, {4, 8},
	{8, 4}, {8, 8}, {8, 16},
	{16, 8}, {16, 16}, {16, 32},
	{32, 16}, {32, 32}, {32, 64},
	{64, 32}, {64, 64},
}

// Catalogue returns a copy of the supported block sizes.
func Catalogue() []BlockSize {
	out := make([]BlockSize, len(catalogue))
	copy(out, catalogue[:])
	return out
}

// ParseBlockSize parses "WxH" and checks it against the catalogue.
func ParseBlockSize(s string) (BlockSize, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return BlockSize{}, fmt.Errorf("block size %q: want WxH", s)
	}
	w, err := strconv.Atoi(ws)
	if err != nil {
		return BlockSize{}, fmt.Errorf("block size %q: width: %w", s, err)
	}
	h, err := strconv.Atoi(hs)
	if err != nil {
		return BlockSize{}, fmt.Errorf("block size %q: height: %w", s, err)
	}

	size := BlockSize{Width: w, Height: h}
	if !size.Valid() {
		return BlockSize{}, &BlockError{Size: size, Reason: "not a supported partition shape"}
	}
	return size, nil
}

// ParseBlockSizes parses a comma separated list of sizes. An empty string or
// "all" yields the whole catalogue.
func ParseBlockSizes(s string) ([]BlockSize, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "all" {
		return Catalogue(), nil
	}

	var sizes []BlockSize
	for _, part := range strings.Split(s, ",") {
		size, err := ParseBlockSize(part)
		if err != nil {
			return nil, err
		}
		sizes = append(sizes, size)
	}
	return sizes, nil
}

// Kernel is one catalogue entry with its height bound, the per-size entry
// point a motion search calls in its inner loop.
type Kernel struct {
	Size   BlockSize
	Sad    func(src []uint8, srcStride int, ref []uint8, refStride int) uint32
	SadAvg func(src []uint8, srcStride int, ref []uint8, refStride int, secondPred []uint8) uint32
}

func bindKernel(s Strategy, size BlockSize) Kernel {
	w, h := size.Width, size.Height
	return Kernel{
		Size: size,
		Sad: func(src []uint8, srcStride int, ref []uint8, refStride int) uint32 {
			return s.Sad(w, h, src, srcStride, ref, refStride)
		},
		SadAvg: func(src []uint8, srcStride int, ref []uint8, refStride int, secondPred []uint8) uint32 {
			return s.SadAvg(w, h, src, srcStride, ref, refStride, secondPred)
		},
	}
}

// activeKernels is bound once; the Kernel values are immutable afterwards.
var activeKernels = KernelsFor(active{})

// KernelsFor binds every catalogue size to the given strategy.
func KernelsFor(s Strategy) []Kernel {
	out := make([]Kernel, len(catalogue))
	for i, size := range catalogue {
		out[i] = bindKernel(s, size)
	}
	return out
}

// Kernels returns the catalogue bound to the build-selected strategy.
func Kernels() []Kernel {
	out := make([]Kernel, len(activeKernels))
	copy(out, activeKernels)
	return out
}

// Lookup returns the build-selected kernel for a catalogue size.
func Lookup(width, height int) (Kernel, bool) {
	for _, k := range activeKernels {
		if k.Size.Width == width && k.Size.Height == height {
			return k, true
		}
	}
	return Kernel{}, false
}
