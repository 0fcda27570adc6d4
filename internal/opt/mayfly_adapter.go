package opt

import (
	"log/slog"
	"math/rand"

	"github.com/cwbudde/mayfly"
)

// MayflyAdapter wraps the external Mayfly library to conform to our Optimizer interface
type MayflyAdapter struct {
	maxIters int
	popSize  int
	seed     int64
}

// NewMayfly creates a new Mayfly optimizer adapter
func NewMayfly(maxIters, popSize int, seed int64) Optimizer {
	return &MayflyAdapter{
		maxIters: maxIters,
		popSize:  popSize,
		seed:     seed,
	}
}

// Run executes the Mayfly optimization using the external library.
//
// The library only takes one scalar bound for all dimensions, so the search
// runs in the unit cube and every candidate is mapped onto [lower, upper]
// before it reaches eval.
func (m *MayflyAdapter) Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64) {
	scaled := make([]float64, dim)
	toBox := func(u []float64) []float64 {
		for i := 0; i < dim; i++ {
			scaled[i] = lower[i] + u[i]*(upper[i]-lower[i])
		}
		Clamp(scaled, lower, upper)
		return scaled
	}

	config := mayfly.NewDefaultConfig()
	config.ObjectiveFunc = func(u []float64) float64 {
		return eval(toBox(u))
	}
	config.ProblemSize = dim
	config.MaxIterations = m.maxIters
	config.NPop = m.popSize
	config.LowerBound = 0
	config.UpperBound = 1
	config.Rand = rand.New(rand.NewSource(m.seed))

	result, err := mayfly.Optimize(config)
	if err != nil {
		slog.Warn("mayfly optimization failed, falling back to box centre", "error", err)
		centre := make([]float64, dim)
		for i := range centre {
			centre[i] = (lower[i] + upper[i]) / 2
		}
		return centre, eval(centre)
	}

	best := make([]float64, dim)
	copy(best, toBox(result.GlobalBest.Position))
	return best, result.GlobalBest.Cost
}
