package ppo

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/ppolab/ppolearn/network"
	"github.com/ppolab/ppolearn/solver"
)

// forwardBundle packages a network clone with the tape machine that
// runs its forward pass
type forwardBundle struct {
	net network.NeuralNet
	vm  G.VM
}

// criticTrainer holds the training graph of the critic for one
// minibatch size
type criticTrainer struct {
	net     network.NeuralNet
	targets *G.Node
	lossVal G.Value
	vm      G.VM
	solver  G.Solver
}

// critic implements the state value function as an MLP with a scalar
// head. The canonical weights live in the single-observation
// prediction network. Batched forward passes and gradient steps run on
// per-batch-size clones whose weights are synchronized with the
// canonical network around each use.
type critic struct {
	c1           float64
	net          network.NeuralNet
	vm           G.VM
	solverConfig solver.Config

	forwards map[int]*forwardBundle
	trainers map[int]*criticTrainer
}

// newCritic returns a new critic for observations with the given
// number of features. The hidden layers use ReLU activations and the
// output head is linear.
func newCritic(features int, hidden []int, init G.InitWFn,
	sol *solver.Solver, c1 float64) (*critic, error) {
	g := G.NewGraph()

	biases := make([]bool, len(hidden))
	activations := make([]*network.Activation, len(hidden))
	for i := range hidden {
		biases[i] = true
		activations[i] = network.ReLU()
	}

	net, err := network.NewMLP(features, 1, 1, g, hidden, biases,
		activations, network.Identity(), init)
	if err != nil {
		return nil, fmt.Errorf("newCritic: could not create network: %v", err)
	}

	return &critic{
		c1:           c1,
		net:          net,
		vm:           G.NewTapeMachine(g),
		solverConfig: sol.Config,
		forwards:     make(map[int]*forwardBundle),
		trainers:     make(map[int]*criticTrainer),
	}, nil
}

// Predict returns the estimated value of a single observation
func (c *critic) Predict(obs []float64) (float64, error) {
	if err := c.net.SetInput(obs); err != nil {
		return 0, fmt.Errorf("predict: could not set input: %v", err)
	}
	if err := c.vm.RunAll(); err != nil {
		return 0, fmt.Errorf("predict: could not run forward pass: %v", err)
	}
	value := c.net.Output().Data().([]float64)
	c.vm.Reset()

	if len(value) != 1 {
		return 0, fmt.Errorf("predict: expected a single predicted value, "+
			"got %v", len(value))
	}
	return value[0], nil
}

// Values returns the estimated values of a batch of n observations,
// flattened in row major order
func (c *critic) Values(obs []float64, n int) ([]float64, error) {
	fwd, err := c.forward(n)
	if err != nil {
		return nil, fmt.Errorf("values: %v", err)
	}
	if err := network.Set(fwd.net, c.net); err != nil {
		return nil, fmt.Errorf("values: could not copy weights: %v", err)
	}

	if err := fwd.net.SetInput(obs); err != nil {
		return nil, fmt.Errorf("values: could not set input: %v", err)
	}
	if err := fwd.vm.RunAll(); err != nil {
		return nil, fmt.Errorf("values: could not run forward pass: %v", err)
	}
	values := append([]float64(nil), fwd.net.Output().Data().([]float64)...)
	fwd.vm.Reset()

	return values, nil
}

// Step performs a single gradient step on the mean squared error
// between the critic's predictions for the minibatch observations and
// the given return targets. The loss is scaled by c1. The value of the
// scaled loss is returned.
func (c *critic) Step(obs, targets []float64, m int) (float64, error) {
	t, err := c.trainer(m)
	if err != nil {
		return 0, fmt.Errorf("step: %v", err)
	}
	if err := network.Set(t.net, c.net); err != nil {
		return 0, fmt.Errorf("step: could not copy weights: %v", err)
	}

	if err := t.net.SetInput(obs); err != nil {
		return 0, fmt.Errorf("step: could not set input: %v", err)
	}
	targetsTensor := tensor.New(
		tensor.WithBacking(append([]float64(nil), targets...)),
		tensor.WithShape(m, 1),
	)
	if err := G.Let(t.targets, targetsTensor); err != nil {
		return 0, fmt.Errorf("step: could not set targets: %v", err)
	}

	if err := t.vm.RunAll(); err != nil {
		return 0, fmt.Errorf("step: could not run gradient step: %v", err)
	}
	if err := t.solver.Step(t.net.Model()); err != nil {
		return 0, fmt.Errorf("step: could not update weights: %v", err)
	}
	t.vm.Reset()

	if err := network.Set(c.net, t.net); err != nil {
		return 0, fmt.Errorf("step: could not copy weights back: %v", err)
	}
	return scalarValue(t.lossVal), nil
}

// forward returns the forward bundle for batch size n, creating it if
// it does not yet exist
func (c *critic) forward(n int) (*forwardBundle, error) {
	if fwd, ok := c.forwards[n]; ok {
		return fwd, nil
	}

	net, err := c.net.CloneWithBatch(n)
	if err != nil {
		return nil, fmt.Errorf("could not clone network to batch size %v: %v",
			n, err)
	}
	fwd := &forwardBundle{
		net: net,
		vm:  G.NewTapeMachine(net.Graph()),
	}
	c.forwards[n] = fwd

	return fwd, nil
}

// trainer returns the training graph for minibatch size m, creating
// it if it does not yet exist
func (c *critic) trainer(m int) (*criticTrainer, error) {
	if t, ok := c.trainers[m]; ok {
		return t, nil
	}

	net, err := c.net.CloneWithBatch(m)
	if err != nil {
		return nil, fmt.Errorf("could not clone network to batch size %v: %v",
			m, err)
	}
	g := net.Graph()

	targets := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(m, 1),
		G.WithName("valueTargets"),
	)

	loss := G.Must(G.Sub(net.Prediction(), targets))
	loss = G.Must(G.Square(loss))
	loss = G.Must(G.Mean(loss))
	loss = G.Must(G.Mul(G.NewConstant(c.c1), loss))

	t := &criticTrainer{
		net:     net,
		targets: targets,
		solver:  c.solverConfig.Create(),
	}
	G.Read(loss, &t.lossVal)

	if _, err := G.Grad(loss, net.Learnables()...); err != nil {
		panic(err)
	}
	t.vm = G.NewTapeMachine(g, G.BindDualValues(net.Learnables()...))
	c.trainers[m] = t

	return t, nil
}

// scalarValue extracts a float64 from the value of a node that reduces
// to a single element
func scalarValue(v G.Value) float64 {
	switch data := v.Data().(type) {
	case float64:
		return data
	case []float64:
		return data[0]
	default:
		panic(fmt.Sprintf("scalarValue: unexpected value type %T", data))
	}
}
