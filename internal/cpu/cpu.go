// Package cpu reports the vector capabilities relevant to the SAD kernels.
//
// The kernels themselves are chosen at build time; this package only tells
// tooling and logs whether the machine it runs on has the fused
// absolute-difference-accumulate path the build may have assumed.
//
// Detection runs once, on the first call to DetectFeatures, and is cached.
package cpu

import (
	"fmt"
	"sync"
)

// Features describes the CPU capabilities that matter to kernel selection.
type Features struct {
	// x86/amd64
	HasSSE2 bool // PSADBW, the fused byte SAD instruction
	HasAVX2 bool // 256-bit VPSADBW

	// arm64
	HasNEON    bool // Advanced SIMD
	HasDotProd bool // UDOT, the fused widening accumulate

	// ForceGeneric reports the machine as having no vector support at all.
	ForceGeneric bool

	// Architecture is runtime.GOARCH.
	Architecture string
}

// String summarises the features for logs and CLI output.
func (f Features) String() string {
	return fmt.Sprintf("arch=%s sse2=%t avx2=%t neon=%t dotprod=%t",
		f.Architecture, f.HasSSE2, f.HasAVX2, f.HasNEON, f.HasDotProd)
}

var (
	detectedFeatures Features
	detectOnce       sync.Once
	detectMutex      sync.Mutex

	forcedFeatures *Features
	forcedMutex    sync.RWMutex
)

// DetectFeatures returns the features of the current machine.
// Safe for concurrent use.
func DetectFeatures() Features {
	forcedMutex.RLock()
	forced := forcedFeatures
	forcedMutex.RUnlock()

	if forced != nil {
		return *forced
	}

	detectMutex.Lock()
	detectOnce.Do(func() {
		detectedFeatures = detectFeaturesImpl()
	})
	features := detectedFeatures
	detectMutex.Unlock()

	return features
}

// SupportsFused reports whether f has a single instruction that folds byte
// absolute differences into wider lanes.
func SupportsFused(f Features) bool {
	if f.ForceGeneric {
		return false
	}

	switch f.Architecture {
	case "amd64":
		return f.HasSSE2
	case "arm64":
		return f.HasDotProd
	default:
		return false
	}
}

// SetForcedFeatures overrides detection. Intended for tests.
func SetForcedFeatures(f Features) {
	forcedMutex.Lock()
	defer forcedMutex.Unlock()
	forced := f
	forcedFeatures = &forced
}

// ResetDetection clears any override and the detection cache.
func ResetDetection() {
	forcedMutex.Lock()
	forcedFeatures = nil
	forcedMutex.Unlock()

	detectMutex.Lock()
	detectOnce = sync.Once{}
	detectedFeatures = Features{}
	detectMutex.Unlock()
}
