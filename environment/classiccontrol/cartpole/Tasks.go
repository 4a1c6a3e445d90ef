package cartpole

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/ppolab/ppolearn/environment"
	ts "github.com/ppolab/ppolearn/timestep"
)

const (
	// FailAngle is the pole angle at which balancing fails
	FailAngle float64 = 12 * 2 * math.Pi / 360

	// FailPosition is the cart position at which balancing fails
	FailPosition float64 = 2.4
)

// Balance implements the classic control Cartpole balancing task. The
// goal of the agent is to balance the pole on the cart in an upright
// position for as long as possible.
//
// The reward is +1 on every timestep. Episodes end after a step limit,
// after the pole has fallen past the angle threshold θ, or after the
// cart has left the track.
type Balance struct {
	env.Starter
	stepLimiter    env.Ender
	failureLimiter env.Ender
	failAngle      float64
}

// NewBalance creates and returns a new Balance task
func NewBalance(s env.Starter, episodeSteps int, failAngle float64) *Balance {
	stepLimiter := env.NewStepLimit(episodeSteps)

	legalIntervals := []r1.Interval{
		{Min: -FailPosition, Max: FailPosition},
		{Min: -failAngle, Max: failAngle},
	}
	featureIndices := []int{0, 2}
	failureLimiter := env.NewIntervalLimit(legalIntervals, featureIndices)

	return &Balance{s, stepLimiter, failureLimiter, failAngle}
}

// End checks if a TimeStep is the last in an episode. If so, it adjusts
// the TimeStep's StepType to timestep.Last and returns true. Otherwise,
// the function does not adjust the TimeStep and returns false.
func (b *Balance) End(t *ts.TimeStep) bool {
	if end := b.failureLimiter.End(t); end {
		return true
	}
	if end := b.stepLimiter.End(t); end {
		return true
	}
	return false
}

// GetReward returns the reward for an action taken in some state,
// resulting in a transition to the next state nextState
func (b *Balance) GetReward(_ mat.Vector, _ mat.Vector,
	_ mat.Vector) float64 {
	return 1.0
}

// AtGoal returns whether or not the balancing has failed
func (b *Balance) AtGoal(state mat.Matrix) bool {
	return math.Abs(state.At(0, 2)) < b.failAngle
}

// Min returns the minimum possible reward that can be received in the
// environment
func (b *Balance) Min() float64 {
	return 1.0
}

// Max returns the maximum possible reward that can be received in the
// environment
func (b *Balance) Max() float64 {
	return 1.0
}

// RewardSpec returns the reward specification for the environment
func (b *Balance) RewardSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{b.Min()})
	upperBound := mat.NewVecDense(1, []float64{b.Max()})

	return env.NewSpec(shape, env.Reward, lowerBound, upperBound,
		env.Continuous)
}
