package ppo

import (
	"fmt"

	"github.com/ppolab/ppolearn/agent"
	"github.com/ppolab/ppolearn/environment"
	"github.com/ppolab/ppolearn/initwfn"
	"github.com/ppolab/ppolearn/solver"
)

// Config implements a configuration for a PPO agent
type Config struct {
	// Layers holds the hidden layer sizes shared by the actor and
	// critic networks
	Layers       []int
	InitWFn      *initwfn.InitWFn
	PolicySolver *solver.Solver
	VSolver      *solver.Solver

	Gamma      float64 // Discount factor
	Lambda     float64 // GAE trace decay
	C1         float64 // Critic loss coefficient
	C2         float64 // Entropy bonus coefficient
	RewardNorm bool    // Normalize rewards before computing GAE

	// LossName selects the surrogate objective, one of ClippedLoss,
	// AdaptiveKLLoss, or A2CLoss. An unrecognized name falls back to
	// the clipped objective with a warning.
	LossName    string
	EpsClipping float64 // Clip range of the clipped objective
	BetaKL      float64 // Initial adaptive KL coefficient
	DTarg       float64 // Adaptive KL divergence target
	Std         float64 // Fixed standard deviation of Gaussian policies

	BatchSize int

	// ResetVal optionally fixes the environment state that evaluation
	// rollouts start from. The environment must implement
	// environment.StateSetter if ResetVal is set.
	ResetVal []float64

	// SolvedThreshold marks the run as solved when the mean evaluation
	// reward reaches it, after which remaining episodes are no-ops
	SolvedThreshold float64

	Seed uint64
}

// DefaultConfig returns a Config with default hyperparameter values
func DefaultConfig() Config {
	init, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		panic(err)
	}
	policySolver, err := solver.NewDefaultAdam(5e-4, 1)
	if err != nil {
		panic(err)
	}
	vSolver, err := solver.NewDefaultAdam(1e-3, 1)
	if err != nil {
		panic(err)
	}

	return Config{
		Layers:          []int{64, 64},
		InitWFn:         init,
		PolicySolver:    policySolver,
		VSolver:         vSolver,
		Gamma:           0.99,
		Lambda:          0.95,
		C1:              1.0,
		C2:              0.01,
		RewardNorm:      false,
		LossName:        ClippedLoss,
		EpsClipping:     0.2,
		BetaKL:          1.0,
		DTarg:           0.01,
		Std:             0.5,
		BatchSize:       64,
		SolvedThreshold: 500,
		Seed:            1,
	}
}

// Validate returns an error describing whether or not the
// configuration is valid
func (c Config) Validate() error {
	if len(c.Layers) == 0 {
		return fmt.Errorf("validate: at least one hidden layer is required")
	}
	if c.InitWFn == nil {
		return fmt.Errorf("validate: no weight initializer given")
	}
	if c.PolicySolver == nil || c.VSolver == nil {
		return fmt.Errorf("validate: both network solvers are required")
	}
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("validate: gamma must be in [0, 1], got %v", c.Gamma)
	}
	if c.Lambda < 0 || c.Lambda > 1 {
		return fmt.Errorf("validate: lambda must be in [0, 1], got %v",
			c.Lambda)
	}
	if c.C2 < 0 {
		return fmt.Errorf("validate: entropy coefficient must be "+
			"non-negative, got %v", c.C2)
	}
	if c.EpsClipping <= 0 {
		return fmt.Errorf("validate: clip range must be positive, got %v",
			c.EpsClipping)
	}
	if c.DTarg <= 0 {
		return fmt.Errorf("validate: KL divergence target must be positive, "+
			"got %v", c.DTarg)
	}
	if c.Std <= 0 {
		return fmt.Errorf("validate: standard deviation must be positive, "+
			"got %v", c.Std)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("validate: batch size must be positive, got %v",
			c.BatchSize)
	}
	return nil
}

// CreateAgent creates the PPO agent that the Config describes
func (c Config) CreateAgent(env environment.Environment,
	seed uint64) (agent.Agent, error) {
	config := c
	config.Seed = seed
	return New(env, config)
}

// ValidAgent returns whether the argument agent is valid for the
// Config
func (c Config) ValidAgent(a agent.Agent) bool {
	_, ok := a.(*PPO)
	return ok
}
