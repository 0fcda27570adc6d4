//go:build !((amd64 || arm64.v8.4 || sadfused) && !sadpairwise)

package sad

// Targets without a fused widening instruction, or builds tagged
// sadpairwise. Build with -tags sadfused to force the fused kernels.
type active = Pairwise
