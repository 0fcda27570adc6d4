package opt

import (
	"math"
	"testing"
)

// Sphere function: f(x) = sum(x_i^2), minimum at origin
func sphere(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return sum
}

func TestMayflyAdapterOnSphere(t *testing.T) {
	optimizer := NewMayfly(100, 20, 42) // maxIters, popSize, seed

	dim := 3
	lower := make([]float64, dim)
	upper := make([]float64, dim)
	for i := 0; i < dim; i++ {
		lower[i] = -10
		upper[i] = 10
	}

	best, cost := optimizer.Run(sphere, lower, upper, dim)

	if len(best) != dim {
		t.Fatalf("Expected %d parameters, got %d", dim, len(best))
	}

	// Should converge close to zero
	if cost > 0.1 {
		t.Errorf("Expected cost near 0, got %f", cost)
	}

	// Check that best params are near origin
	for i, v := range best {
		if math.Abs(v) > 1.0 {
			t.Errorf("Parameter %d = %f, expected near 0", i, v)
		}
	}
}

func TestMayflyAdapterDeterministic(t *testing.T) {
	dim := 2
	lower := []float64{-5, -5}
	upper := []float64{5, 5}

	// Run twice with same seed (popSize must be >=20 for mayfly v0.1.0)
	optimizer1 := NewMayfly(50, 20, 123)
	_, cost1 := optimizer1.Run(sphere, lower, upper, dim)

	optimizer2 := NewMayfly(50, 20, 123)
	_, cost2 := optimizer2.Run(sphere, lower, upper, dim)

	if cost1 != cost2 {
		t.Errorf("Non-deterministic: cost1=%f, cost2=%f", cost1, cost2)
	}
}

func TestMayflyAdapterAsymmetricBounds(t *testing.T) {
	// Minimum at (3, -40): only reachable if each dimension keeps its own range.
	target := []float64{3, -40}
	shifted := func(x []float64) float64 {
		dx, dy := x[0]-target[0], x[1]-target[1]
		return dx*dx + dy*dy
	}

	lower := []float64{0, -64}
	upper := []float64{4, 0}

	best, cost := NewMayfly(100, 20, 7).Run(shifted, lower, upper, 2)

	for i, v := range best {
		if v < lower[i] || v > upper[i] {
			t.Errorf("Parameter %d = %f outside [%f, %f]", i, v, lower[i], upper[i])
		}
	}
	if cost > 1.0 {
		t.Errorf("Expected cost near 0, got %f (best=%v)", cost, best)
	}
}

func TestClamp(t *testing.T) {
	x := []float64{-5, 0.5, 12}
	Clamp(x, []float64{0, 0, 0}, []float64{1, 1, 10})

	want := []float64{0, 0.5, 10}
	for i := range x {
		if x[i] != want[i] {
			t.Errorf("x[%d] = %f, want %f", i, x[i], want[i])
		}
	}
}
