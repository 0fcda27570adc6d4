//go:build (amd64 || arm64.v8.4 || sadfused) && !sadpairwise

package sad

// amd64 always has PSADBW and arm64 from v8.4 always has the dot product
// instructions. Build with -tags sadpairwise to force the fallback.
type active = Fused
