package pendulum

import (
	"math"

	"gonum.org/v1/gonum/mat"

	env "github.com/ppolab/ppolearn/environment"
	ts "github.com/ppolab/ppolearn/timestep"
)

// SwingUp implements the classic control pendulum swing-up task. The
// goal of the agent is to swing the pendulum up and hold it as close
// to vertical as possible, using as little torque as possible.
//
// The reward on each step is -(θ² + 0.1·ω² + 0.001·τ²), where θ is the
// pendulum angle from vertical, ω the angular velocity, and τ the
// applied torque. Episodes end after a step limit.
type SwingUp struct {
	env.Starter
	stepLimiter env.Ender
}

// NewSwingUp creates and returns a new SwingUp task
func NewSwingUp(s env.Starter, episodeSteps int) *SwingUp {
	return &SwingUp{s, env.NewStepLimit(episodeSteps)}
}

// End checks if a TimeStep is the last in an episode. If so, it adjusts
// the TimeStep's StepType to timestep.Last and returns true. Otherwise,
// the function does not adjust the TimeStep and returns false.
func (s *SwingUp) End(t *ts.TimeStep) bool {
	return s.stepLimiter.End(t)
}

// GetReward returns the reward for an action taken in some state,
// resulting in a transition to the next state nextState
func (s *SwingUp) GetReward(state mat.Vector, action mat.Vector,
	_ mat.Vector) float64 {
	th := state.AtVec(0)
	thdot := state.AtVec(1)
	torque := action.AtVec(0)

	cost := th*th + 0.1*thdot*thdot + 0.001*torque*torque
	return -cost
}

// AtGoal returns whether or not the pendulum points straight up
func (s *SwingUp) AtGoal(state mat.Matrix) bool {
	return math.Abs(state.At(0, 0)) < 0.05
}

// Min returns the minimum possible reward that can be received in the
// environment
func (s *SwingUp) Min() float64 {
	return -(AngleBound*AngleBound + 0.1*SpeedBound*SpeedBound +
		0.001*TorqueBound*TorqueBound)
}

// Max returns the maximum possible reward that can be received in the
// environment
func (s *SwingUp) Max() float64 {
	return 0.0
}

// RewardSpec returns the reward specification for the environment
func (s *SwingUp) RewardSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{s.Min()})
	upperBound := mat.NewVecDense(1, []float64{s.Max()})

	return env.NewSpec(shape, env.Reward, lowerBound, upperBound,
		env.Continuous)
}
