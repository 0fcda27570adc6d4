package search

import (
	"log/slog"
	"math"
)

// ConvergenceConfig decides when a step-wise search stops early.
type ConvergenceConfig struct {
	Enabled bool

	// Patience is how many consecutive steps may fail to improve the best SAD
	// by Threshold before the search stops.
	Patience int

	// Threshold is the relative SAD reduction a step must achieve against the
	// last significant cost, e.g. 0.02 for 2%.
	Threshold float64
}

// DefaultConvergenceConfig stops after two steps that gain less than 2%.
func DefaultConvergenceConfig() ConvergenceConfig {
	return ConvergenceConfig{Enabled: true, Patience: 2, Threshold: 0.02}
}

// DisabledConvergenceConfig never stops early.
func DisabledConvergenceConfig() ConvergenceConfig {
	return ConvergenceConfig{}
}

// ConvergenceTracker follows the best SAD after each search step.
type ConvergenceTracker struct {
	config  ConvergenceConfig
	history []uint32
	best    uint32
	anchor  uint32 // cost of the last significant improvement
	stale   int
}

// NewConvergenceTracker returns a tracker with no steps recorded.
func NewConvergenceTracker(config ConvergenceConfig) *ConvergenceTracker {
	c := &ConvergenceTracker{config: config}
	c.Reset()
	return c
}

// gain is the relative reduction from anchor to cost. A zero anchor cannot
// be improved on.
func gain(anchor, cost uint32) float64 {
	if anchor == 0 || cost >= anchor {
		return 0
	}
	return float64(anchor-cost) / float64(anchor)
}

// Update records the best cost after one step and reports whether the
// search has converged.
func (c *ConvergenceTracker) Update(cost uint32) bool {
	if !c.config.Enabled {
		return false
	}

	c.history = append(c.history, cost)
	c.best = min(c.best, cost)

	if len(c.history) == 1 {
		c.anchor = cost
		return false
	}

	g := gain(c.anchor, cost)
	if g > 0 && g >= c.config.Threshold {
		c.anchor = cost
		c.stale = 0
		return false
	}

	c.stale++
	if c.stale < c.config.Patience {
		return false
	}

	slog.Debug("Search converged",
		"best_sad", c.best,
		"steps", len(c.history),
		"last_gain", g,
	)
	return true
}

// BestCost returns the lowest cost recorded, math.MaxUint32 before any step.
func (c *ConvergenceTracker) BestCost() uint32 {
	return c.best
}

// History returns a copy of the recorded costs.
func (c *ConvergenceTracker) History() []uint32 {
	return append([]uint32(nil), c.history...)
}

// StaleCount returns the number of consecutive steps without a
// significant improvement.
func (c *ConvergenceTracker) StaleCount() int {
	return c.stale
}

// Reset forgets all recorded steps.
func (c *ConvergenceTracker) Reset() {
	c.history = c.history[:0]
	c.best = math.MaxUint32
	c.anchor = math.MaxUint32
	c.stale = 0
}
