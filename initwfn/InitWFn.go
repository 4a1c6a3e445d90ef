// Package initwfn wraps Gorgonia weight initialization functions
// behind JSON-serializable configurations so that experiments can
// describe their initializers in configuration files.
package initwfn

import (
	"encoding/json"
	"fmt"

	G "gorgonia.org/gorgonia"
)

// Type identifies a kind of weight initialization algorithm
type Type string

const (
	GlorotU Type = "GlorotU"
	GlorotN Type = "GlorotN"
	Zeroes  Type = "Zeroes"
)

// Config describes a weight initialization algorithm and builds the
// Gorgonia InitWFn it names
type Config interface {
	Create() G.InitWFn
	Type() Type
}

// InitWFn pairs a Gorgonia InitWFn with the Config that built it. The
// zero value is unusable; construct with NewGlorotU, NewGlorotN, or
// NewZeroes, or unmarshal from JSON.
type InitWFn struct {
	initWFn G.InitWFn
	Config
}

func newInitWFn(c Config) (*InitWFn, error) {
	if c == nil {
		return nil, fmt.Errorf("newInitWFn: nil config")
	}
	return &InitWFn{initWFn: c.Create(), Config: c}, nil
}

// InitWFn returns the wrapped Gorgonia InitWFn
func (w *InitWFn) InitWFn() G.InitWFn {
	return w.initWFn
}

// String implements the fmt.Stringer interface
func (w *InitWFn) String() string {
	return fmt.Sprintf("{%v InitWFn: %v}", w.Config.Type(), w.Config)
}

// initWFnJSON is the wire format of an InitWFn
type initWFnJSON struct {
	Type   Type
	Config json.RawMessage
}

// MarshalJSON implements the json.Marshaler interface
func (w *InitWFn) MarshalJSON() ([]byte, error) {
	config, err := json.Marshal(w.Config)
	if err != nil {
		return nil, err
	}
	return json.Marshal(initWFnJSON{Type: w.Config.Type(), Config: config})
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (w *InitWFn) UnmarshalJSON(data []byte) error {
	var wire initWFnJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	var config Config
	switch wire.Type {
	case GlorotU:
		config = &GlorotUConfig{}
	case GlorotN:
		config = &GlorotNConfig{}
	case Zeroes:
		config = &ZeroesConfig{}
	default:
		return fmt.Errorf("unmarshal: unknown InitWFn type %q", wire.Type)
	}
	if err := json.Unmarshal(wire.Config, config); err != nil {
		return err
	}

	w.Config = config
	w.initWFn = config.Create()
	return nil
}
