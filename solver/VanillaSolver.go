package solver

import G "gorgonia.org/gorgonia"

// VanillaConfig describes a plain stochastic gradient descent solver
type VanillaConfig struct {
	StepSize float64
	Batch    int
}

// NewVanilla returns a stochastic gradient descent solver
func NewVanilla(stepSize float64, batchSize int) (*Solver, error) {
	return newSolver(&VanillaConfig{StepSize: stepSize, Batch: batchSize})
}

// Create returns a fresh Gorgonia vanilla solver with this
// configuration
func (v *VanillaConfig) Create() G.Solver {
	return G.NewVanillaSolver(
		G.WithLearnRate(v.StepSize),
		G.WithBatchSize(float64(v.Batch)),
	)
}

// Type returns the solver type the configuration describes
func (v *VanillaConfig) Type() Type { return Vanilla }
