package sad

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidBlock matches every *BlockError via errors.Is.
var ErrInvalidBlock = errors.New("invalid block")

// BlockError describes a violated kernel precondition.
type BlockError struct {
	Size   BlockSize
	Reason string
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("block %s: %s", e.Size, e.Reason)
}

func (e *BlockError) Is(target error) bool {
	return target == ErrInvalidBlock
}

// Validate checks the kernel preconditions for one call. The kernels never
// call it on the release path; it exists for callers that accept untrusted
// dimensions and for saddebug builds. A negative predLen skips the second
// predictor check.
func Validate(size BlockSize, srcLen, srcStride, refLen, refStride, predLen int) error {
	if !size.Valid() {
		return &BlockError{Size: size, Reason: "not a supported partition shape"}
	}
	if srcStride < size.Width {
		return &BlockError{Size: size, Reason: fmt.Sprintf("source stride %d below width", srcStride)}
	}
	if refStride < size.Width {
		return &BlockError{Size: size, Reason: fmt.Sprintf("reference stride %d below width", refStride)}
	}
	if !fits(size, srcLen, srcStride) {
		return &BlockError{Size: size, Reason: shortBuffer("source", size, srcLen, srcStride)}
	}
	if !fits(size, refLen, refStride) {
		return &BlockError{Size: size, Reason: shortBuffer("reference", size, refLen, refStride)}
	}
	if predLen >= 0 && predLen < size.Samples() {
		return &BlockError{Size: size, Reason: fmt.Sprintf("second predictor holds %d samples, need %d", predLen, size.Samples())}
	}
	return nil
}

// minBufferLen is the smallest buffer that holds the block: the last row
// needs only width samples, not a full stride. It returns -1 when the
// length does not fit in an int.
func minBufferLen(size BlockSize, stride int) int {
	if stride > (math.MaxInt-size.Width)/(size.Height-1) {
		return -1
	}
	return (size.Height-1)*stride + size.Width
}

// fits reports whether a buffer of bufLen samples holds the block at the
// given stride. It divides instead of multiplying so a huge stride cannot
// wrap around.
func fits(size BlockSize, bufLen, stride int) bool {
	if bufLen < size.Width {
		return false
	}
	return stride <= (bufLen-size.Width)/(size.Height-1)
}

func shortBuffer(name string, size BlockSize, bufLen, stride int) string {
	if need := minBufferLen(size, stride); need >= 0 {
		return fmt.Sprintf("%s holds %d samples, need %d", name, bufLen, need)
	}
	return fmt.Sprintf("%s stride %d overflows the buffer length", name, stride)
}
