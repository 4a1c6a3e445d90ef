package ppo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/ppolab/ppolearn/environment"
	"github.com/ppolab/ppolearn/timestep"
)

// testEnv is a deterministic two-action environment that gives a
// reward of +1 per step and ends every episode after episodeSteps
// steps
type testEnv struct {
	episodeSteps int
	steps        int
}

func newTestEnv(episodeSteps int) *testEnv {
	return &testEnv{episodeSteps: episodeSteps}
}

func (e *testEnv) Start() mat.Vector {
	return mat.NewVecDense(2, []float64{0, 0})
}

func (e *testEnv) GetReward(_, _, _ mat.Vector) float64 { return 1.0 }

func (e *testEnv) AtGoal(mat.Matrix) bool { return false }

func (e *testEnv) Min() float64 { return 1.0 }

func (e *testEnv) Max() float64 { return 1.0 }

func (e *testEnv) RewardSpec() environment.Spec {
	shape := mat.NewVecDense(1, nil)
	bounds := mat.NewVecDense(1, []float64{1.0})
	return environment.NewSpec(shape, environment.Reward, bounds, bounds,
		environment.Continuous)
}

func (e *testEnv) End(t *timestep.TimeStep) bool {
	if t.Number >= e.episodeSteps {
		t.StepType = timestep.Last
		return true
	}
	return false
}

func (e *testEnv) Reset() timestep.TimeStep {
	e.steps = 0
	return timestep.New(timestep.First, 0, 1.0, e.Start(), 0)
}

func (e *testEnv) Step(_ mat.Vector) (timestep.TimeStep, bool) {
	e.steps++
	obs := mat.NewVecDense(2, []float64{float64(e.steps), 0})
	t := timestep.New(timestep.Mid, 1.0, 1.0, obs, e.steps)
	last := e.End(&t)
	return t, last
}

func (e *testEnv) DiscountSpec() environment.Spec {
	shape := mat.NewVecDense(1, nil)
	bounds := mat.NewVecDense(1, []float64{1.0})
	return environment.NewSpec(shape, environment.Discount, bounds, bounds,
		environment.Continuous)
}

func (e *testEnv) ObservationSpec() environment.Spec {
	shape := mat.NewVecDense(2, nil)
	lower := mat.NewVecDense(2, []float64{0, 0})
	upper := mat.NewVecDense(2, []float64{100, 100})
	return environment.NewSpec(shape, environment.Observation, lower, upper,
		environment.Continuous)
}

func (e *testEnv) ActionSpec() environment.Spec {
	shape := mat.NewVecDense(1, nil)
	lower := mat.NewVecDense(1, []float64{0})
	upper := mat.NewVecDense(1, []float64{1})
	return environment.NewSpec(shape, environment.Action, lower, upper,
		environment.Discrete)
}

func (e *testEnv) Close() error { return nil }

func testConfig() Config {
	config := DefaultConfig()
	config.Layers = []int{8}
	config.BatchSize = 2
	config.SolvedThreshold = 1e12
	return config
}

// TestOptimizeTrigger checks one full collect and optimize cycle: the
// buffer empties after the trigger and the snapshot history grows by
// one push per minibatch.
func TestOptimizeTrigger(t *testing.T) {
	env := newTestEnv(3)
	p, err := New(env, testConfig())
	require.NoError(t, err)
	p.epochs = 1
	p.optimizeEvery = 3

	step := env.Reset()
	require.NoError(t, p.ObserveFirst(step))

	for i := 0; i < 3; i++ {
		action := p.SelectAction(p.prevStep)
		nextStep, last := env.Step(action)
		require.NoError(t, p.Observe(action, nextStep))
		require.NoError(t, p.Step())
		if last {
			break
		}
	}

	// Three transitions at batch size two make two minibatches
	assert.Equal(t, 0, p.buffer.length())
	assert.Equal(t, 2, p.actor.SnapshotCount())
	assert.Equal(t, 1, len(p.lossRows))
	assert.Equal(t, 0, p.lossRows[0].Update)
}

// TestObserveRecordsTransitions checks that observations are recorded
// against the state the action was taken in.
func TestObserveRecordsTransitions(t *testing.T) {
	env := newTestEnv(3)
	p, err := New(env, testConfig())
	require.NoError(t, err)

	step := env.Reset()
	require.NoError(t, p.ObserveFirst(step))

	action := p.SelectAction(p.prevStep)
	nextStep, _ := env.Step(action)
	require.NoError(t, p.Observe(action, nextStep))

	assert.Equal(t, 1, p.buffer.length())
	assert.Equal(t, []float64{0, 0}, p.buffer.observations)
	assert.Equal(t, 1.0, p.buffer.rewards[0])
	assert.False(t, p.buffer.dones[0])
}

// TestEvaluationTrigger checks the episodes at which evaluation
// rollouts run.
func TestEvaluationTrigger(t *testing.T) {
	env := newTestEnv(3)
	p, err := New(env, testConfig())
	require.NoError(t, err)

	evalTable, lossTable, err := p.Training(1, 100, 4, 3)
	require.NoError(t, err)

	episodes := make(map[int]bool)
	for _, row := range evalTable.Rows {
		episodes[row.Episode] = true
	}
	assert.Equal(t, map[int]bool{1: true, 3: true}, episodes)

	// Every evaluation point runs the full set of rollouts, and every
	// rollout of the test environment earns one reward per step
	assert.Equal(t, 2*evaluationRollouts, len(evalTable.Rows))
	for _, row := range evalTable.Rows {
		assert.Equal(t, 3.0, row.Reward)
	}

	assert.Equal(t, ClippedLoss, evalTable.LossName)
	assert.Equal(t, ClippedLoss, lossTable.LossName)
}

// TestTrainingOptimizes checks that a full training run triggers
// optimization on the configured cadence and clears the buffer.
func TestTrainingOptimizes(t *testing.T) {
	env := newTestEnv(3)
	p, err := New(env, testConfig())
	require.NoError(t, err)

	// Nine timesteps over three episodes trigger three optimization
	// passes
	_, lossTable, err := p.Training(2, 3, 3, 3)
	require.NoError(t, err)

	require.Equal(t, 3, len(lossTable.Rows))
	for i, row := range lossTable.Rows {
		assert.Equal(t, i, row.Update)
	}
	assert.Equal(t, 0, p.buffer.length())
}

// TestSolvedStopsCollecting checks that reaching the solved threshold
// turns the remaining episodes into no-op passes.
func TestSolvedStopsCollecting(t *testing.T) {
	env := newTestEnv(3)
	config := testConfig()
	config.SolvedThreshold = 3.0 // every rollout earns exactly 3
	p, err := New(env, config)
	require.NoError(t, err)

	_, lossTable, err := p.Training(1, 3, 10, 3)
	require.NoError(t, err)

	// The run is solved at the first evaluation point after episode 1,
	// so only episodes 0 and 1 collect data and optimize
	assert.Equal(t, 2, len(lossTable.Rows))
}
