package environment

import (
	"gonum.org/v1/gonum/mat"
)

// FixedStarter starts every episode from the same state. It backs the
// fixed evaluation start-state option of training configurations.
type FixedStarter struct {
	state []float64
}

// NewFixedStarter returns a FixedStarter that always starts episodes
// from state
func NewFixedStarter(state []float64) FixedStarter {
	c := make([]float64, len(state))
	copy(c, state)
	return FixedStarter{c}
}

// Start returns the fixed episode starting state
func (f FixedStarter) Start() mat.Vector {
	c := make([]float64, len(f.state))
	copy(c, f.state)
	return mat.NewVecDense(len(c), c)
}
