//go:build saddebug

package sad

// checkBlock panics on any precondition violation. Only compiled with the
// saddebug tag.
func checkBlock(width, height, srcLen, srcStride, refLen, refStride, predLen int) {
	size := BlockSize{Width: width, Height: height}
	if err := Validate(size, srcLen, srcStride, refLen, refStride, predLen); err != nil {
		panic(err)
	}
}
