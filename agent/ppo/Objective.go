package ppo

import (
	"fmt"
	"os"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/ppolab/ppolearn/agent"
	"github.com/ppolab/ppolearn/network"
	"github.com/ppolab/ppolearn/utils/op"
)

// lossObjective enumerates the surrogate objectives that can drive the
// actor update
type lossObjective int

const (
	clippedObjective lossObjective = iota
	adaptiveKLObjective
	a2cObjective
)

// Configuration names of the loss objectives
const (
	ClippedLoss    = "clipped_loss"
	AdaptiveKLLoss = "adaptative_KL_loss"
	A2CLoss        = "A2C_loss"
)

func (l lossObjective) String() string {
	switch l {
	case adaptiveKLObjective:
		return AdaptiveKLLoss
	case a2cObjective:
		return A2CLoss
	default:
		return ClippedLoss
	}
}

// parseObjective converts a configured loss name into a lossObjective.
// An unrecognized name warns and falls back to the clipped objective.
func parseObjective(name string) lossObjective {
	switch name {
	case ClippedLoss:
		return clippedObjective
	case AdaptiveKLLoss:
		return adaptiveKLObjective
	case A2CLoss:
		return a2cObjective
	default:
		fmt.Fprintf(os.Stderr, "warning: unknown loss function %q, using "+
			"clipped loss as default\n", name)
		return clippedObjective
	}
}

// actorTrainer holds the actor's training graph for one minibatch
// size. The graph computes the selected surrogate objective from the
// network output, the minibatch actions and advantages, and the old
// policy snapshot, then subtracts the entropy bonus.
type actorTrainer struct {
	net        network.NeuralNet
	actions    *G.Node
	advantages *G.Node
	oldPolicy  *G.Node
	beta       *G.Node

	lossVal    G.Value
	dryVal     G.Value
	entropyVal G.Value
	ratioVal   G.Value
	klVal      G.Value

	vm     G.VM
	solver G.Solver
}

// buildTrainer constructs the actor's training graph for minibatch
// size m
func (a *actor) buildTrainer(m int) (*actorTrainer, error) {
	net, err := a.net.CloneWithBatch(m)
	if err != nil {
		return nil, fmt.Errorf("could not clone network to batch size %v: %v",
			m, err)
	}
	g := net.Graph()
	cols := net.Outputs()

	actions := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(m, cols),
		G.WithName("actions"),
	)
	advantages := G.NewVector(
		g,
		tensor.Float64,
		G.WithShape(m),
		G.WithName("advantages"),
	)
	oldPolicy := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(m, cols),
		G.WithName("oldPolicy"),
	)

	t := &actorTrainer{
		net:        net,
		actions:    actions,
		advantages: advantages,
		oldPolicy:  oldPolicy,
		solver:     a.solverConfig.Create(),
	}

	out := net.Prediction()
	eps := G.NewConstant(1e-6)

	// Probability ratio of the current policy to the old snapshot,
	// one entry per minibatch sample, and the auxiliary terms that
	// depend on the policy distribution.
	var ratio, probs, logLik, kl *G.Node
	switch a.policyType {
	case agent.Categorical:
		// For categorical policies the actions node holds one-hot
		// encoded action indices, so a Hadamard product followed by a
		// row sum gathers the probability of each taken action.
		probs = out
		taken := G.Must(G.Sum(G.Must(G.HadamardProd(out, actions)), 1))
		oldTaken := G.Must(G.Sum(G.Must(G.HadamardProd(oldPolicy, actions)),
			1))
		ratio = G.Must(G.HadamardDiv(taken, oldTaken))
		logLik = G.Must(G.Log(G.Must(G.Add(taken, eps))))

		if a.objective == adaptiveKLObjective {
			kl = G.Must(G.Sum(G.Must(G.HadamardProd(
				oldPolicy,
				G.Must(G.Sub(G.Must(G.Log(oldPolicy)), G.Must(G.Log(out)))),
			))))
		}

	case agent.Gaussian:
		// For Gaussian policies the network outputs distribution
		// means and the actions node holds the raw taken actions. The
		// old snapshot stores old means, from which the old density
		// is reconstructed with the fixed standard deviation.
		density := op.GaussianDensity(out, a.std, actions)
		oldDensity := op.GaussianDensity(oldPolicy, a.std, actions)
		probs = density

		perDim := G.Must(G.HadamardDiv(density,
			G.Must(G.Add(oldDensity, eps))))
		if cols > 1 {
			ratio = op.Prod(perDim, 1)
		} else {
			ratio = G.Must(G.Ravel(perDim))
		}
		logLik = G.Must(G.Sum(G.Must(G.Log(G.Must(G.Add(density, eps)))), 1))

		if a.objective == adaptiveKLObjective {
			// Closed-form KL between diagonal Gaussians with equal,
			// fixed standard deviations.
			diff := G.Must(G.Sub(out, oldPolicy))
			kl = G.Must(G.Sum(G.Must(G.Square(diff))))
			kl = G.Must(G.Mul(kl, G.NewConstant(1.0/(2*a.std*a.std))))
		}
	default:
		return nil, fmt.Errorf("unknown policy type %v", a.policyType)
	}
	G.Read(ratio, &t.ratioVal)

	var dry *G.Node
	switch a.objective {
	case clippedObjective:
		surrogate := G.Must(G.HadamardProd(ratio, advantages))

		clipped, err := op.Clip(ratio, 1-a.epsClip, 1+a.epsClip)
		if err != nil {
			return nil, fmt.Errorf("could not clip ratio: %v", err)
		}
		clippedSurrogate := G.Must(G.HadamardProd(clipped, advantages))

		minSurrogate, err := op.Min(surrogate, clippedSurrogate)
		if err != nil {
			return nil, fmt.Errorf("could not take elementwise min: %v", err)
		}
		dry = G.Must(G.Neg(G.Must(G.Sum(minSurrogate))))

	case adaptiveKLObjective:
		surrogate := G.Must(G.Sum(G.Must(G.HadamardProd(ratio, advantages))))

		t.beta = G.NewScalar(g, tensor.Float64, G.WithName("betaKL"))
		penalty := G.Must(G.Mul(t.beta, kl))
		dry = G.Must(G.Add(G.Must(G.Neg(surrogate)), penalty))
		G.Read(kl, &t.klVal)

	case a2cObjective:
		dry = G.Must(G.Neg(G.Must(G.Sum(
			G.Must(G.HadamardProd(logLik, advantages))))))
	}
	G.Read(dry, &t.dryVal)

	entropy := G.Must(G.Neg(G.Must(G.Sum(G.Must(G.HadamardProd(
		probs,
		G.Must(G.Log(G.Must(G.Add(probs, eps)))),
	))))))
	G.Read(entropy, &t.entropyVal)

	loss := G.Must(G.Sub(dry,
		G.Must(G.Mul(G.NewConstant(a.c2), entropy))))
	G.Read(loss, &t.lossVal)

	if _, err := G.Grad(loss, net.Learnables()...); err != nil {
		panic(err)
	}
	t.vm = G.NewTapeMachine(g, G.BindDualValues(net.Learnables()...))

	return t, nil
}
