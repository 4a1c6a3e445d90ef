package ppo

import (
	"fmt"
	"math"
	"os"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/ppolab/ppolearn/agent"
	"github.com/ppolab/ppolearn/network"
	"github.com/ppolab/ppolearn/solver"
)

// actor implements the policy as an MLP with tanh hidden layers. A
// categorical policy ends in a softmax head over the discrete actions
// and samples from the resulting probabilities. A Gaussian policy ends
// in a tanh head that outputs the distribution mean for each action
// dimension and samples with a fixed, configured standard deviation.
//
// The canonical weights live in the single-observation network used
// for action selection. Per-minibatch-size clones run the snapshot
// forward passes and the gradient steps, with weights synchronized
// around each use.
type actor struct {
	policyType agent.PolicyType
	std        float64
	c2         float64
	epsClip    float64
	dTarg      float64
	objective  lossObjective

	net network.NeuralNet
	vm  G.VM

	history  *snapshotHistory
	forwards map[int]*forwardBundle
	trainers map[int]*actorTrainer

	solverConfig solver.Config
	src          rand.Source
}

// newActor returns a new actor. For categorical policies, outputs is
// the number of discrete actions. For Gaussian policies, outputs is
// the number of action dimensions.
func newActor(policyType agent.PolicyType, features, outputs int,
	hidden []int, init G.InitWFn, sol *solver.Solver, std, c2, epsClip,
	dTarg float64, objective lossObjective, seed uint64) (*actor, error) {
	g := G.NewGraph()

	biases := make([]bool, len(hidden))
	activations := make([]*network.Activation, len(hidden))
	for i := range hidden {
		biases[i] = true
		activations[i] = network.TanH()
	}

	var outputActivation *network.Activation
	switch policyType {
	case agent.Categorical:
		outputActivation = network.Softmax()
	case agent.Gaussian:
		outputActivation = network.TanH()
	default:
		return nil, fmt.Errorf("newActor: unknown policy type %v", policyType)
	}

	net, err := network.NewMLP(features, 1, outputs, g, hidden, biases,
		activations, outputActivation, init)
	if err != nil {
		return nil, fmt.Errorf("newActor: could not create network: %v", err)
	}

	return &actor{
		policyType:   policyType,
		std:          std,
		c2:           c2,
		epsClip:      epsClip,
		dTarg:        dTarg,
		objective:    objective,
		net:          net,
		vm:           G.NewTapeMachine(g),
		history:      newSnapshotHistory(),
		forwards:     make(map[int]*forwardBundle),
		trainers:     make(map[int]*actorTrainer),
		solverConfig: sol.Config,
		src:          rand.NewSource(seed),
	}, nil
}

// SelectAction samples an action for a single observation from the
// current policy
func (a *actor) SelectAction(obs []float64) (*mat.VecDense, error) {
	if err := a.net.SetInput(obs); err != nil {
		return nil, fmt.Errorf("selectAction: could not set input: %v", err)
	}
	if err := a.vm.RunAll(); err != nil {
		return nil, fmt.Errorf("selectAction: could not run forward pass: %v",
			err)
	}
	out := append([]float64(nil), a.net.Output().Data().([]float64)...)
	a.vm.Reset()

	switch a.policyType {
	case agent.Categorical:
		dist := distuv.NewCategorical(out, a.src)
		return mat.NewVecDense(1, []float64{dist.Rand()}), nil

	case agent.Gaussian:
		action := make([]float64, len(out))
		for i, mean := range out {
			if math.IsNaN(mean) {
				fmt.Fprintln(os.Stderr, "warning: NaN encountered in "+
					"action mean")
			}
			action[i] = distuv.Normal{Mu: mean, Sigma: a.std, Src: a.src}.Rand()
		}
		return mat.NewVecDense(len(action), action), nil

	default:
		return nil, fmt.Errorf("selectAction: unknown policy type %v",
			a.policyType)
	}
}

// Step performs a single gradient step on the selected objective for
// one minibatch. The current policy output for the minibatch is pushed
// onto the snapshot history before the loss is computed, so the first
// ever minibatch compares the policy against itself. The beta argument
// is the adaptive KL coefficient, which is updated in place by the
// adaptive KL objective. The values of the loss, the loss before the
// entropy bonus, and the entropy are returned.
func (a *actor) Step(obs, actions, advantages []float64, m int,
	beta *float64) (loss, dryLoss, entropy float64, err error) {
	cols := a.net.Outputs()

	// Current policy output for the snapshot, computed with the
	// canonical weights
	fwd, err := a.forward(m)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("step: %v", err)
	}
	if err := network.Set(fwd.net, a.net); err != nil {
		return 0, 0, 0, fmt.Errorf("step: could not copy weights: %v", err)
	}
	if err := fwd.net.SetInput(obs); err != nil {
		return 0, 0, 0, fmt.Errorf("step: could not set input: %v", err)
	}
	if err := fwd.vm.RunAll(); err != nil {
		return 0, 0, 0, fmt.Errorf("step: could not run forward pass: %v", err)
	}
	current := append([]float64(nil), fwd.net.Output().Data().([]float64)...)
	fwd.vm.Reset()

	a.history.push(current, m, cols)
	old := a.history.old()
	if old.rows != m {
		// The previous snapshot belongs to a minibatch of a different
		// size, so the policy is compared against itself instead
		old = a.history.current
	}

	t, err := a.trainer(m)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("step: %v", err)
	}
	if err := network.Set(t.net, a.net); err != nil {
		return 0, 0, 0, fmt.Errorf("step: could not copy weights: %v", err)
	}
	if err := t.net.SetInput(obs); err != nil {
		return 0, 0, 0, fmt.Errorf("step: could not set input: %v", err)
	}

	if err := G.Let(t.actions, tensor.New(
		tensor.WithBacking(a.encodeActions(actions, m)),
		tensor.WithShape(m, cols),
	)); err != nil {
		return 0, 0, 0, fmt.Errorf("step: could not set actions: %v", err)
	}
	if err := G.Let(t.advantages, tensor.New(
		tensor.WithBacking(append([]float64(nil), advantages...)),
		tensor.WithShape(m),
	)); err != nil {
		return 0, 0, 0, fmt.Errorf("step: could not set advantages: %v", err)
	}
	if err := G.Let(t.oldPolicy, tensor.New(
		tensor.WithBacking(append([]float64(nil), old.data...)),
		tensor.WithShape(m, cols),
	)); err != nil {
		return 0, 0, 0, fmt.Errorf("step: could not set old policy: %v", err)
	}
	if t.beta != nil {
		if err := G.Let(t.beta, *beta); err != nil {
			return 0, 0, 0, fmt.Errorf("step: could not set beta: %v", err)
		}
	}

	if err := t.vm.RunAll(); err != nil {
		return 0, 0, 0, fmt.Errorf("step: could not run gradient step: %v",
			err)
	}

	if anyNaN(t.ratioVal) {
		fmt.Fprintln(os.Stderr, "warning: NaN encountered in probability "+
			"ratio")
	}
	if a.objective == adaptiveKLObjective {
		a.adaptBeta(scalarValue(t.klVal), beta)
	}

	if err := t.solver.Step(t.net.Model()); err != nil {
		return 0, 0, 0, fmt.Errorf("step: could not update weights: %v", err)
	}
	t.vm.Reset()

	if err := network.Set(a.net, t.net); err != nil {
		return 0, 0, 0, fmt.Errorf("step: could not copy weights back: %v",
			err)
	}

	return scalarValue(t.lossVal), scalarValue(t.dryVal),
		scalarValue(t.entropyVal), nil
}

// SnapshotCount returns the total number of policy snapshots recorded
func (a *actor) SnapshotCount() int {
	return a.history.count()
}

// adaptBeta rescales the adaptive KL coefficient based on the observed
// KL divergence relative to the target
func (a *actor) adaptBeta(kl float64, beta *float64) {
	if math.IsNaN(kl) {
		fmt.Fprintln(os.Stderr, "warning: NaN encountered in average KL "+
			"divergence")
	}
	if kl < a.dTarg/1.5 {
		*beta /= 2
	} else if kl > a.dTarg*1.5 {
		*beta *= 2
	}
	fmt.Printf("beta_KL: %v\n", *beta)
}

// encodeActions converts the minibatch actions from the buffer layout
// into the layout of the trainer's actions node: one-hot rows for
// categorical policies, raw action rows for Gaussian policies
func (a *actor) encodeActions(actions []float64, m int) []float64 {
	if a.policyType != agent.Categorical {
		return append([]float64(nil), actions...)
	}

	cols := a.net.Outputs()
	oneHot := make([]float64, m*cols)
	for i := 0; i < m; i++ {
		oneHot[i*cols+int(actions[i])] = 1.0
	}
	return oneHot
}

// forward returns the forward bundle for batch size n, creating it if
// it does not yet exist
func (a *actor) forward(n int) (*forwardBundle, error) {
	if fwd, ok := a.forwards[n]; ok {
		return fwd, nil
	}

	net, err := a.net.CloneWithBatch(n)
	if err != nil {
		return nil, fmt.Errorf("could not clone network to batch size %v: %v",
			n, err)
	}
	fwd := &forwardBundle{
		net: net,
		vm:  G.NewTapeMachine(net.Graph()),
	}
	a.forwards[n] = fwd

	return fwd, nil
}

// trainer returns the training graph for minibatch size m, creating
// it if it does not yet exist
func (a *actor) trainer(m int) (*actorTrainer, error) {
	if t, ok := a.trainers[m]; ok {
		return t, nil
	}

	t, err := a.buildTrainer(m)
	if err != nil {
		return nil, err
	}
	a.trainers[m] = t

	return t, nil
}

// anyNaN returns whether any element of a value is NaN
func anyNaN(v G.Value) bool {
	switch data := v.Data().(type) {
	case float64:
		return math.IsNaN(data)
	case []float64:
		for _, x := range data {
			if math.IsNaN(x) {
				return true
			}
		}
	}
	return false
}
