package initwfn

import G "gorgonia.org/gorgonia"

// GlorotUConfig describes Glorot uniform initialization
type GlorotUConfig struct {
	Gain float64
}

// NewGlorotU returns a Glorot uniform weight initializer with the
// given gain
func NewGlorotU(gain float64) (*InitWFn, error) {
	return newInitWFn(&GlorotUConfig{Gain: gain})
}

// Create returns the initialization algorithm as a Gorgonia InitWFn
func (g *GlorotUConfig) Create() G.InitWFn {
	return G.GlorotU(g.Gain)
}

// Type returns the initialization algorithm the configuration
// describes
func (g *GlorotUConfig) Type() Type { return GlorotU }

// GlorotNConfig describes Glorot normal initialization
type GlorotNConfig struct {
	Gain float64
}

// NewGlorotN returns a Glorot normal weight initializer with the given
// gain
func NewGlorotN(gain float64) (*InitWFn, error) {
	return newInitWFn(&GlorotNConfig{Gain: gain})
}

// Create returns the initialization algorithm as a Gorgonia InitWFn
func (g *GlorotNConfig) Create() G.InitWFn {
	return G.GlorotN(g.Gain)
}

// Type returns the initialization algorithm the configuration
// describes
func (g *GlorotNConfig) Type() Type { return GlorotN }
