package initwfn

import G "gorgonia.org/gorgonia"

// ZeroesConfig describes zero initialization
type ZeroesConfig struct{}

// NewZeroes returns an initializer that sets all weights to zero
func NewZeroes() (*InitWFn, error) {
	return newInitWFn(&ZeroesConfig{})
}

// Create returns the initialization algorithm as a Gorgonia InitWFn
func (z *ZeroesConfig) Create() G.InitWFn {
	return G.Zeroes()
}

// Type returns the initialization algorithm the configuration
// describes
func (z *ZeroesConfig) Type() Type { return Zeroes }
