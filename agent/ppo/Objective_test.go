package ppo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	G "gorgonia.org/gorgonia"

	"github.com/ppolab/ppolearn/agent"
	"github.com/ppolab/ppolearn/solver"
)

func TestParseObjective(t *testing.T) {
	assert.Equal(t, clippedObjective, parseObjective(ClippedLoss))
	assert.Equal(t, adaptiveKLObjective, parseObjective(AdaptiveKLLoss))
	assert.Equal(t, a2cObjective, parseObjective(A2CLoss))

	// Unrecognized names fall back to the clipped objective
	assert.Equal(t, clippedObjective, parseObjective("no_such_loss"))
}

func TestAdaptBeta(t *testing.T) {
	a := &actor{dTarg: 0.01}

	// KL below target/1.5 halves beta
	beta := 1.0
	a.adaptBeta(0.001, &beta)
	assert.Equal(t, 0.5, beta)

	// KL above target*1.5 doubles beta
	a.adaptBeta(0.1, &beta)
	assert.Equal(t, 1.0, beta)

	// KL within the band leaves beta unchanged
	a.adaptBeta(0.01, &beta)
	assert.Equal(t, 1.0, beta)
}

func testActor(t *testing.T, policyType agent.PolicyType, outputs int,
	objective lossObjective) *actor {
	t.Helper()

	sol, err := solver.NewDefaultAdam(1e-3, 1)
	require.NoError(t, err)

	a, err := newActor(policyType, 2, outputs, []int{4}, G.GlorotU(1.0),
		sol, 0.5, 0.01, 0.2, 0.01, objective, 42)
	require.NoError(t, err)

	return a
}

// TestStepBootstrapRatio checks that the first ever minibatch compares
// the policy against itself, yielding probability ratios of one.
func TestStepBootstrapRatio(t *testing.T) {
	a := testActor(t, agent.Categorical, 2, clippedObjective)

	obs := []float64{0.1, -0.2, 0.3, 0.4}
	actions := []float64{0, 1}
	advantages := []float64{1.0, -0.5}
	beta := 1.0

	loss, dryLoss, entropy, err := a.Step(obs, actions, advantages, 2, &beta)
	require.NoError(t, err)

	require.Equal(t, 1, a.SnapshotCount())
	ratio := a.trainers[2].ratioVal.Data().([]float64)
	require.Equal(t, 2, len(ratio))
	for _, r := range ratio {
		assert.InDelta(t, 1.0, r, 1e-9)
	}

	assert.False(t, math.IsNaN(loss))
	assert.False(t, math.IsNaN(dryLoss))
	assert.Greater(t, entropy, 0.0)
}

// TestStepAdaptiveKLBootstrap checks that the adaptive KL objective
// observes zero divergence on the bootstrap minibatch and therefore
// halves beta.
func TestStepAdaptiveKLBootstrap(t *testing.T) {
	a := testActor(t, agent.Gaussian, 1, adaptiveKLObjective)

	obs := []float64{0.1, -0.2, 0.3, 0.4}
	actions := []float64{0.5, -0.5}
	advantages := []float64{1.0, 1.0}
	beta := 1.0

	_, _, _, err := a.Step(obs, actions, advantages, 2, &beta)
	require.NoError(t, err)

	kl := scalarValue(a.trainers[2].klVal)
	assert.InDelta(t, 0.0, kl, 1e-9)
	assert.Equal(t, 0.5, beta)
}

// TestStepSnapshotAdvances checks that consecutive minibatches of the
// same size roll the snapshot history forward.
func TestStepSnapshotAdvances(t *testing.T) {
	a := testActor(t, agent.Categorical, 2, clippedObjective)

	obs := []float64{0.1, -0.2, 0.3, 0.4}
	actions := []float64{0, 1}
	advantages := []float64{1.0, -0.5}
	beta := 1.0

	_, _, _, err := a.Step(obs, actions, advantages, 2, &beta)
	require.NoError(t, err)
	_, _, _, err = a.Step(obs, actions, advantages, 2, &beta)
	require.NoError(t, err)

	assert.Equal(t, 2, a.SnapshotCount())
	assert.NotEqual(t, a.history.current.data, a.history.previous.data)
}
