//go:build arm64

package cpu

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// NEON is mandatory on ARMv8; the dot product instructions are optional
// before v8.4.
func detectFeaturesImpl() Features {
	return Features{
		HasNEON:      cpu.ARM64.HasASIMD,
		HasDotProd:   cpu.ARM64.HasASIMDDP,
		Architecture: runtime.GOARCH,
	}
}
