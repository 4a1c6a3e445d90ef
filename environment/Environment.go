// Package environment outlines the interfaces and structs needed to implement
// concrete environments
package environment

import (
	"gonum.org/v1/gonum/mat"

	"github.com/ppolab/ppolearn/timestep"
)

// Starter implements a distribution of starting states and samples starting
// states for environments
type Starter interface {
	Start() mat.Vector
}

// Ender determines when environmental episodes end
type Ender interface {
	// End takes a timestep, modifies its StepType to timestep.Last if
	// the episode should end, and returns whether the episode ended
	End(*timestep.TimeStep) bool
}

// Task implements the reward scheme for taking actions in some environment
type Task interface {
	Starter
	GetReward(state mat.Vector, action mat.Vector, nextState mat.Vector) float64
	AtGoal(state mat.Matrix) bool
	Min() float64
	Max() float64
	RewardSpec() Spec
	End(*timestep.TimeStep) bool
}

// Environment implements a simulated environment, which includes a Task to
// complete
type Environment interface {
	Task
	Reset() timestep.TimeStep
	Step(action mat.Vector) (timestep.TimeStep, bool)
	RewardSpec() Spec
	DiscountSpec() Spec
	ObservationSpec() Spec
	ActionSpec() Spec
	Close() error
}

// StateSetter is an Environment whose internal state can be overwritten
// directly. Evaluation rollouts use this to start episodes from a fixed
// state instead of one drawn from the Starter.
type StateSetter interface {
	Environment

	// SetState overwrites the environment state and returns the
	// resulting first timestep of the episode
	SetState(state mat.Vector) timestep.TimeStep
}
