// Package pendulum implements the pendulum classic control environment
package pendulum

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/ppolab/ppolearn/environment"
	ts "github.com/ppolab/ppolearn/timestep"
	"github.com/ppolab/ppolearn/utils/floatutils"
)

// default physical constants
const (
	AngleBound  float64 = math.Pi // +/- angle bounds
	SpeedBound  float64 = 8.0     // +/- angular speed bounds
	TorqueBound float64 = 2.0     // +/- torque bounds

	MaxContinuousAction float64 = TorqueBound
	MinContinuousAction float64 = -MaxContinuousAction

	dt      float64 = 0.05
	Gravity float64 = 9.8
	Mass    float64 = 1.0
	Length  float64 = 1.0

	ActionDims      int = 1
	ObservationDims int = 2
)

// Pendulum implements the classic control environment of an
// underpowered pendulum attached to a fixed base. An agent applies
// torque at the base to swing the pendulum; to point it straight up,
// the pendulum must first be rocked back and forth, using momentum to
// gradually climb higher.
//
// State features consist of the angle of the pendulum from the positive
// y-axis and the angular velocity of the pendulum. Angles are
// normalized to stay within [-π, π], and the angular velocity is
// clipped to [-SpeedBound, SpeedBound].
//
// Actions are continuous and 1-dimensional: the torque applied to the
// pendulum at its fixed base, clipped to stay within
// [MinContinuousAction, MaxContinuousAction].
type Pendulum struct {
	env.Task
	dt           float64
	gravity      float64
	mass         float64
	length       float64
	angleBounds  r1.Interval
	speedBounds  r1.Interval
	torqueBounds r1.Interval
	lastStep     ts.TimeStep
	discount     float64
}

// New creates and returns a new Pendulum environment with the argument
// task
func New(t env.Task, discount float64) (*Pendulum, ts.TimeStep) {
	angleBounds := r1.Interval{Min: -AngleBound, Max: AngleBound}
	speedBounds := r1.Interval{Min: -SpeedBound, Max: SpeedBound}
	torqueBounds := r1.Interval{Min: -TorqueBound, Max: TorqueBound}

	state := t.Start()

	firstStep := ts.New(ts.First, 0.0, discount, state, 0)

	pendulum := Pendulum{t, dt, Gravity, Mass, Length, angleBounds,
		speedBounds, torqueBounds, firstStep, discount}

	return &pendulum, firstStep
}

// Reset resets the environment and returns a starting state drawn from
// the Starter
func (p *Pendulum) Reset() ts.TimeStep {
	state := p.Start()
	startStep := ts.New(ts.First, 0, p.discount, state, 0)
	p.lastStep = startStep

	return startStep
}

// SetState overwrites the environment state, starting a new episode
// from the argument state
func (p *Pendulum) SetState(state mat.Vector) ts.TimeStep {
	if state.Len() != ObservationDims {
		panic(fmt.Sprintf("setstate: illegal state length \n\twant(%v)"+
			"\n\thave(%v)", ObservationDims, state.Len()))
	}
	obs := mat.NewVecDense(state.Len(), nil)
	obs.CloneFromVec(state)

	startStep := ts.New(ts.First, 0, p.discount, obs, 0)
	p.lastStep = startStep

	return startStep
}

// Step takes one environmental step given action a, the torque to
// apply at the pendulum's base, and returns the next state as a
// timestep.TimeStep and a bool indicating whether or not the episode
// has ended
func (p *Pendulum) Step(a mat.Vector) (ts.TimeStep, bool) {
	obs := p.lastStep.Observation
	th, thdot := obs.AtVec(0), obs.AtVec(1)

	// Clip the torque
	torque := floatutils.ClipInterval(a.AtVec(0), p.torqueBounds)

	// Euler integration of the equations of motion
	newthdot := thdot + (-3.0*p.gravity/(2.0*p.length)*math.Sin(th+math.Pi)+
		3.0/(p.mass*p.length*p.length)*torque)*p.dt
	newthdot = floatutils.ClipInterval(newthdot, p.speedBounds)

	newth := normalizeAngle(th+newthdot*p.dt, p.angleBounds)

	newState := mat.NewVecDense(2, []float64{newth, newthdot})
	reward := p.GetReward(obs, a, newState)
	nextStep := ts.New(ts.Mid, reward, p.discount, newState,
		p.lastStep.Number+1)

	p.End(&nextStep)

	p.lastStep = nextStep
	return nextStep, nextStep.Last()
}

// Close performs cleanup of environment resources. Pendulum needs no
// cleanup.
func (p *Pendulum) Close() error { return nil }

// ActionSpec returns the action specification of the environment
func (p *Pendulum) ActionSpec() env.Spec {
	shape := mat.NewVecDense(ActionDims, nil)
	lowerBound := mat.NewVecDense(ActionDims, []float64{MinContinuousAction})
	upperBound := mat.NewVecDense(ActionDims, []float64{MaxContinuousAction})

	return env.NewSpec(shape, env.Action, lowerBound, upperBound,
		env.Continuous)
}

// ObservationSpec returns the observation specification of the
// environment
func (p *Pendulum) ObservationSpec() env.Spec {
	shape := mat.NewVecDense(ObservationDims, nil)
	lowerBound := mat.NewVecDense(ObservationDims,
		[]float64{p.angleBounds.Min, p.speedBounds.Min})
	upperBound := mat.NewVecDense(ObservationDims,
		[]float64{p.angleBounds.Max, p.speedBounds.Max})

	return env.NewSpec(shape, env.Observation, lowerBound, upperBound,
		env.Continuous)
}

// DiscountSpec returns the discounting specification of the environment
func (p *Pendulum) DiscountSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{p.discount})
	upperBound := mat.NewVecDense(1, []float64{p.discount})

	return env.NewSpec(shape, env.Discount, lowerBound, upperBound,
		env.Continuous)
}

func (p *Pendulum) String() string {
	state := p.lastStep.Observation
	return fmt.Sprintf("Pendulum  |  Angle: %v  |  Angular Velocity: %v",
		state.AtVec(0), state.AtVec(1))
}

// normalizeAngle normalizes the pendulum angle to [-π, π]
func normalizeAngle(th float64, angleBounds r1.Interval) float64 {
	if angleBounds.Max != -angleBounds.Min {
		panic("angle bounds should be centered around 0")
	}

	if th > angleBounds.Max {
		divisor := int(th / angleBounds.Max)
		return -math.Pi + th - (angleBounds.Max * float64(divisor))
	} else if th < angleBounds.Min {
		divisor := int(th / angleBounds.Min)
		return math.Pi + th - (angleBounds.Min * float64(divisor))
	}
	return th
}
