// Package solver wraps Gorgonia Solvers behind JSON-serializable
// configurations so that experiments can describe their optimizers in
// configuration files.
package solver

import (
	"encoding/json"
	"fmt"

	G "gorgonia.org/gorgonia"
)

// Type identifies a kind of solver
type Type string

const (
	Adam    Type = "Adam"
	Vanilla Type = "Vanilla"
)

// Config describes a solver and builds fresh instances of it. Each
// training graph gets its own solver so that per-weight state, such as
// Adam moment estimates, is never shared between graphs.
type Config interface {
	Create() G.Solver
	Type() Type
}

// Solver pairs a Gorgonia Solver with the Config that built it. The
// zero value is unusable; construct with NewAdam, NewDefaultAdam, or
// NewVanilla, or unmarshal from JSON.
type Solver struct {
	G.Solver `json:"-"`
	Config
}

func newSolver(c Config) (*Solver, error) {
	if c == nil {
		return nil, fmt.Errorf("newSolver: nil config")
	}
	return &Solver{Solver: c.Create(), Config: c}, nil
}

// solverJSON is the wire format of a Solver
type solverJSON struct {
	Type   Type
	Config json.RawMessage
}

// MarshalJSON implements the json.Marshaler interface
func (s *Solver) MarshalJSON() ([]byte, error) {
	config, err := json.Marshal(s.Config)
	if err != nil {
		return nil, err
	}
	return json.Marshal(solverJSON{Type: s.Config.Type(), Config: config})
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (s *Solver) UnmarshalJSON(data []byte) error {
	var wire solverJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	var config Config
	switch wire.Type {
	case Adam:
		config = &AdamConfig{}
	case Vanilla:
		config = &VanillaConfig{}
	default:
		return fmt.Errorf("unmarshal: unknown solver type %q", wire.Type)
	}
	if err := json.Unmarshal(wire.Config, config); err != nil {
		return err
	}

	s.Config = config
	s.Solver = config.Create()
	return nil
}
