// Package envconfig provides configuration structs for configuring
// environments with default physical parameters and tasks. Environment
// configurations in this package are JSON serializable.
package envconfig

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/ppolab/ppolearn/environment"
	"github.com/ppolab/ppolearn/environment/classiccontrol/cartpole"
	"github.com/ppolab/ppolearn/environment/classiccontrol/pendulum"
	ts "github.com/ppolab/ppolearn/timestep"
)

// EnvName stores the name of environments that can be configured with
// this package
type EnvName string

// Environments available for configuration
const (
	Cartpole EnvName = "Cartpole"
	Pendulum EnvName = "Pendulum"
)

// Config implements a specific configuration of a specific environment
// and task
type Config struct {
	Environment   EnvName
	EpisodeCutoff uint
	Discount      float64
}

// NewConfig returns a new environment Config
func NewConfig(envName EnvName, episodeCutoff uint, discount float64) Config {
	return Config{
		Environment:   envName,
		EpisodeCutoff: episodeCutoff,
		Discount:      discount,
	}
}

// Create returns the environment described by the Config as well as
// the first timestep of the environment
func (c Config) Create(seed uint64) (env.Environment, ts.TimeStep) {
	switch c.Environment {
	case Cartpole:
		return CreateCartpole(int(c.EpisodeCutoff), seed, c.Discount)

	case Pendulum:
		return CreatePendulum(int(c.EpisodeCutoff), seed, c.Discount)
	}

	panic(fmt.Sprintf("create: cannot create environment %v, no such "+
		"environment", c.Environment))
}

// CreateCartpole is a factory for creating the Cartpole environment
// with default physical parameters and the balancing task
func CreateCartpole(cutoff int, seed uint64,
	discount float64) (env.Environment, ts.TimeStep) {
	bounds := r1.Interval{Min: -0.05, Max: 0.05}
	s := env.NewUniformStarter([]r1.Interval{
		bounds,
		bounds,
		bounds,
		bounds,
	}, seed)

	task := cartpole.NewBalance(s, cutoff, cartpole.FailAngle)
	return cartpole.New(task, discount)
}

// CreatePendulum is a factory for creating the Pendulum environment
// with default physical parameters and the swing-up task
func CreatePendulum(cutoff int, seed uint64,
	discount float64) (env.Environment, ts.TimeStep) {
	angle := r1.Interval{Min: -pendulum.AngleBound, Max: pendulum.AngleBound}
	speed := r1.Interval{Min: -1.0, Max: 1.0}

	s := env.NewUniformStarter([]r1.Interval{angle, speed}, seed)

	task := pendulum.NewSwingUp(s, cutoff)
	return pendulum.New(task, discount)
}
