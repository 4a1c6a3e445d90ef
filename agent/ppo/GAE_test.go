package ppo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

const tolerance float64 = 1e-12

// TestReturnsAdvantagesConstantSegment checks the recursion against
// the closed form for a segment with constant rewards and values and
// no episode boundaries.
func TestReturnsAdvantagesConstantSegment(t *testing.T) {
	const (
		r      = 1.0
		v      = 0.5
		gamma  = 0.9
		lambda = 0.95
	)
	rewards := []float64{r, r, r}
	dones := []bool{false, false, false}
	values := []float64{v, v, v}

	returns, advantages := returnsAdvantages(rewards, dones, values, v,
		gamma, lambda)

	require.Equal(t, len(rewards), len(returns))
	require.Equal(t, len(rewards), len(advantages))

	// With constant values, every return bootstraps from the same
	// value estimate
	for i := range returns {
		assert.InDelta(t, r+gamma*v, returns[i], tolerance)
	}

	// The one-step TD error is constant, so the advantages form a
	// geometric series in gamma*lambda
	delta := r + gamma*v - v
	decay := gamma * lambda
	assert.InDelta(t, delta, advantages[2], tolerance)
	assert.InDelta(t, delta*(1+decay), advantages[1], tolerance)
	assert.InDelta(t, delta*(1+decay+decay*decay), advantages[0], tolerance)
}

// TestReturnsAdvantagesEpisodeBoundary checks that a done flag cuts
// both recursions.
func TestReturnsAdvantagesEpisodeBoundary(t *testing.T) {
	const (
		gamma  = 0.9
		lambda = 0.95
		nv     = 0.25
	)
	rewards := []float64{1, 1, 1}
	dones := []bool{false, true, false}
	values := []float64{0.1, 0.2, 0.3}

	returns, advantages := returnsAdvantages(rewards, dones, values, nv,
		gamma, lambda)

	delta2 := 1 + gamma*nv - values[2]
	delta1 := 1 - values[1]
	delta0 := 1 + gamma*values[1] - values[0]

	assert.InDelta(t, 1+gamma*nv, returns[2], tolerance)
	assert.InDelta(t, 1.0, returns[1], tolerance)
	assert.InDelta(t, 1+gamma*values[1], returns[0], tolerance)

	assert.InDelta(t, delta2, advantages[2], tolerance)
	assert.InDelta(t, delta1, advantages[1], tolerance)
	assert.InDelta(t, delta0+gamma*lambda*delta1, advantages[0], tolerance)
}

func TestNormalizeRewards(t *testing.T) {
	normalized := normalizeRewards([]float64{1, 2, 3})

	require.Equal(t, 3, len(normalized))
	assert.InDelta(t, 0, stat.Mean(normalized, nil), tolerance)
	assert.InDelta(t, 1, stat.PopStdDev(normalized, nil), 1e-3)
}
