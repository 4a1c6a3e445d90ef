// Package op provides extended Gorgonia graph operations.
//
// Adapted from aunum/gold on GitHub
package op

import (
	"math"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Clip clips the value of a node to the interval [min, max]
func Clip(value *G.Node, min, max float64) (*G.Node, error) {
	minNode := G.NewScalar(
		value.Graph(),
		G.Float64,
		G.WithValue(min),
		G.WithName("clip_min"),
	)
	maxNode := G.NewScalar(
		value.Graph(),
		G.Float64,
		G.WithValue(max),
		G.WithName("clip_max"),
	)

	// Check if its the min value
	minMask, err := G.Lt(value, minNode, true)
	if err != nil {
		return nil, err
	}
	minVal, err := G.HadamardProd(minNode, minMask)
	if err != nil {
		return nil, err
	}

	// Check if its the given value
	isMaskGt, err := G.Gt(value, minNode, true)
	if err != nil {
		return nil, err
	}
	isMaskLt, err := G.Lt(value, maxNode, true)
	if err != nil {
		return nil, err
	}
	isMask, err := G.HadamardProd(isMaskGt, isMaskLt)
	if err != nil {
		return nil, err
	}
	isVal, err := G.HadamardProd(value, isMask)
	if err != nil {
		return nil, err
	}

	// Check if its the max value
	maxMask, err := G.Gt(value, maxNode, true)
	if err != nil {
		return nil, err
	}
	maxVal, err := G.HadamardProd(maxNode, maxMask)
	if err != nil {
		return nil, err
	}
	return G.ReduceAdd(G.Nodes{minVal, isVal, maxVal})
}

// Min returns the elementwise min value between the nodes. If values
// are equal the first value is returned.
func Min(a *G.Node, b *G.Node) (*G.Node, error) {
	aMask, err := G.Lte(a, b, true)
	if err != nil {
		return nil, err
	}
	aVal, err := G.HadamardProd(a, aMask)
	if err != nil {
		return nil, err
	}

	bMask, err := G.Lt(b, a, true)
	if err != nil {
		return nil, err
	}
	bVal, err := G.HadamardProd(b, bMask)
	if err != nil {
		return nil, err
	}
	return G.Add(aVal, bVal)
}

// slice implements the tensor.Slice interface for slicing graph nodes
type slice struct {
	start, end, step int
}

func (s slice) Start() int { return s.start }
func (s slice) End() int   { return s.end }
func (s slice) Step() int  { return s.step }

// Prod calculates the product of a Node along an axis
func Prod(input *G.Node, along int) *G.Node {
	shape := input.Shape()

	// Calculate the first columns along the axis along
	dims := make([]tensor.Slice, len(shape))
	for i := 0; i < len(shape); i++ {
		if i == along {
			dims[i] = slice{0, 1, 1}
		}
	}
	prod := G.Must(G.Slice(input, dims...))

	for i := 1; i < input.Shape()[along]; i++ {
		// Calculate the column that should be multiplied next
		for j := 0; j < len(shape); j++ {
			if j == along {
				dims[j] = slice{i, i + 1, 1}
			}
		}

		s := G.Must(G.Slice(input, dims...))
		prod = G.Must(G.HadamardProd(prod, s))
	}
	return prod
}

// GaussianDensity calculates the elementwise probability density of
// actions under diagonal Gaussian distributions with the given mean
// and a fixed, shared standard deviation std.
//
// The mean and actions nodes should be two-dimensional and of the same
// size m x n, where the rows (m) denote the samples in the batch and
// the columns (n) denote the action dimensions. For row i and column
// j, the returned node holds the density of actions[i, j] under a
// Gaussian with mean mean[i, j] and standard deviation std.
func GaussianDensity(mean *G.Node, std float64, actions *G.Node) *G.Node {
	if mean.Graph() != actions.Graph() {
		panic("gaussianDensity: all nodes must share the same graph")
	}

	coefficient := G.NewConstant(1.0 / (std * math.Sqrt(2*math.Pi)))
	exponentScale := G.NewConstant(-1.0 / (2 * std * std))

	diff := G.Must(G.Sub(actions, mean))
	exponent := G.Must(G.HadamardProd(G.Must(G.Square(diff)), exponentScale))

	return G.Must(G.HadamardProd(G.Must(G.Exp(exponent)), coefficient))
}
