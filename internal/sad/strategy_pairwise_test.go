//go:build !((amd64 || arm64.v8.4 || sadfused) && !sadpairwise)

package sad

import "testing"

// Targets without the fused capability, and sadpairwise builds, must fall
// back to the widening kernels.
func TestActive_ResolvesToPairwise(t *testing.T) {
	if _, ok := Active().(Pairwise); !ok {
		t.Fatalf("Active() = %T, want Pairwise on this target", Active())
	}
	if name := Active().Name(); name != "pairwise" {
		t.Errorf("Active().Name() = %q, want pairwise", name)
	}
}
