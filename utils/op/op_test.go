package op

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func TestClip(t *testing.T) {
	g := G.NewGraph()
	in := G.NewVector(g, tensor.Float64, G.WithShape(4), G.WithName("in"))

	clipped, err := Clip(in, 0.8, 1.2)
	require.NoError(t, err)

	vm := G.NewTapeMachine(g)
	defer vm.Close()

	err = G.Let(in, tensor.New(
		tensor.WithBacking([]float64{0.5, 0.9, 1.1, 2.0}),
		tensor.WithShape(4),
	))
	require.NoError(t, err)
	require.NoError(t, vm.RunAll())

	out := clipped.Value().Data().([]float64)
	expected := []float64{0.8, 0.9, 1.1, 1.2}
	for i := range expected {
		assert.InDelta(t, expected[i], out[i], 1e-12)
	}
}

func TestMin(t *testing.T) {
	g := G.NewGraph()
	a := G.NewVector(g, tensor.Float64, G.WithShape(3), G.WithName("a"))
	b := G.NewVector(g, tensor.Float64, G.WithShape(3), G.WithName("b"))

	min, err := Min(a, b)
	require.NoError(t, err)

	vm := G.NewTapeMachine(g)
	defer vm.Close()

	require.NoError(t, G.Let(a, tensor.New(
		tensor.WithBacking([]float64{1.0, -2.0, 3.0}),
		tensor.WithShape(3),
	)))
	require.NoError(t, G.Let(b, tensor.New(
		tensor.WithBacking([]float64{0.5, 2.0, 3.0}),
		tensor.WithShape(3),
	)))
	require.NoError(t, vm.RunAll())

	out := min.Value().Data().([]float64)
	expected := []float64{0.5, -2.0, 3.0}
	for i := range expected {
		assert.InDelta(t, expected[i], out[i], 1e-12)
	}
}

func TestGaussianDensity(t *testing.T) {
	g := G.NewGraph()
	mean := G.NewMatrix(g, tensor.Float64, G.WithShape(1, 2),
		G.WithName("mean"))
	actions := G.NewMatrix(g, tensor.Float64, G.WithShape(1, 2),
		G.WithName("actions"))

	density := GaussianDensity(mean, 1.0, actions)

	vm := G.NewTapeMachine(g)
	defer vm.Close()

	require.NoError(t, G.Let(mean, tensor.New(
		tensor.WithBacking([]float64{0, 0}),
		tensor.WithShape(1, 2),
	)))
	require.NoError(t, G.Let(actions, tensor.New(
		tensor.WithBacking([]float64{0, 1}),
		tensor.WithShape(1, 2),
	)))
	require.NoError(t, vm.RunAll())

	out := density.Value().Data().([]float64)
	peak := 1.0 / math.Sqrt(2*math.Pi)
	assert.InDelta(t, peak, out[0], 1e-12)
	assert.InDelta(t, peak*math.Exp(-0.5), out[1], 1e-12)
}
