// Package ppo implements the Proximal Policy Optimization algorithm
// with generalized advantage estimation. This implementation is
// adapted from:
//
// https://arxiv.org/abs/1707.06347
// https://arxiv.org/abs/1506.02438
package ppo

import (
	"fmt"
	"os"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/ppolab/ppolearn/agent"
	"github.com/ppolab/ppolearn/environment"
	ts "github.com/ppolab/ppolearn/timestep"
	"github.com/ppolab/ppolearn/utils/progressbar"
)

// evaluationRollouts is the number of gradient-free rollouts run at
// each evaluation point
const evaluationRollouts int = 50

// PPO implements the Proximal Policy Optimization algorithm. The agent
// collects transitions into a trajectory buffer and, on a fixed
// timestep cadence, sweeps the buffer in minibatches, performing one
// critic gradient step and one actor gradient step per minibatch under
// the configured surrogate objective. The buffer is cleared after each
// optimization pass.
type PPO struct {
	env       environment.Environment
	config    Config
	objective lossObjective

	buffer *trajectoryBuffer
	critic *critic
	actor  *actor
	betaKL float64

	epochs        int
	optimizeEvery int
	timestepCount int
	updateCount   int
	lossRows      []LossRow

	prevStep ts.TimeStep
	eval     bool
}

// New creates and returns a new PPO agent acting in env
func New(env environment.Environment, config Config) (*PPO, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	objective := parseObjective(config.LossName)

	features := env.ObservationSpec().Shape.Len()

	// The action spec determines the policy distribution
	var policyType agent.PolicyType
	var outputs, actionDims int
	if env.ActionSpec().Cardinality == environment.Discrete {
		policyType = agent.Categorical
		outputs = int(env.ActionSpec().UpperBound.AtVec(0)) + 1
		actionDims = 1
	} else {
		policyType = agent.Gaussian
		outputs = env.ActionSpec().Shape.Len()
		actionDims = outputs
	}

	critic, err := newCritic(features, config.Layers,
		config.InitWFn.InitWFn(), config.VSolver, config.C1)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	actor, err := newActor(policyType, features, outputs, config.Layers,
		config.InitWFn.InitWFn(), config.PolicySolver, config.Std, config.C2,
		config.EpsClipping, config.DTarg, objective, config.Seed)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	return &PPO{
		env:       env,
		config:    config,
		objective: objective,
		buffer:    newTrajectoryBuffer(features, actionDims),
		critic:    critic,
		actor:     actor,
		betaKL:    config.BetaKL,
	}, nil
}

// SelectAction samples an action from the current policy at the given
// timestep
func (p *PPO) SelectAction(t ts.TimeStep) *mat.VecDense {
	action, err := p.actor.SelectAction(vecData(t.Observation))
	if err != nil {
		panic(fmt.Sprintf("selectAction: %v", err))
	}
	return action
}

// ObserveFirst records the first timestep in an episode
func (p *PPO) ObserveFirst(t ts.TimeStep) error {
	if !t.First() {
		fmt.Fprintf(os.Stderr, "warning: ObserveFirst() should only be "+
			"called on the first timestep (current timestep = %d)\n", t.Number)
	}
	p.prevStep = t
	return nil
}

// Observe records that the given action led to the given timestep
func (p *PPO) Observe(action mat.Vector, nextStep ts.TimeStep) error {
	if p.eval {
		p.prevStep = nextStep
		return nil
	}

	p.buffer.append(
		vecData(p.prevStep.Observation),
		vecData(action),
		nextStep.Reward,
		nextStep.Last(),
	)
	p.prevStep = nextStep
	p.timestepCount++

	return nil
}

// Step updates the agent. On the configured timestep cadence, the
// buffered rollout segment is optimized for the configured number of
// epochs and the buffer is cleared. On all other timesteps, or in
// evaluation mode, Step is a no-op. The loss metrics of the final
// epoch of each optimization pass are retained.
func (p *PPO) Step() error {
	if p.eval || p.optimizeEvery < 1 || p.timestepCount == 0 ||
		p.timestepCount%p.optimizeEvery != 0 {
		return nil
	}

	nextObs := vecData(p.prevStep.Observation)

	var loss, dryLoss, entropy float64
	var err error
	for epoch := 0; epoch < p.epochs; epoch++ {
		loss, dryLoss, entropy, err = p.optimize(nextObs)
		if err != nil {
			return fmt.Errorf("step: %v", err)
		}
	}

	p.lossRows = append(p.lossRows, LossRow{
		Loss:    loss,
		DryLoss: dryLoss,
		Entropy: entropy,
		Update:  p.updateCount,
	})
	p.updateCount++
	p.buffer.clear()

	return nil
}

// EndEpisode performs cleanup at the end of an episode
func (p *PPO) EndEpisode() {}

// Eval sets the algorithm into evaluation mode
func (p *PPO) Eval() { p.eval = true }

// Train sets the algorithm into training mode
func (p *PPO) Train() { p.eval = false }

// IsEval returns whether the algorithm is in evaluation mode
func (p *PPO) IsEval() bool { return p.eval }

// Training runs the full training loop. Each episode steps the
// environment for at most maxSteps timesteps, optimizing the agent for
// epochs epochs every optimizeEvery accumulated timesteps. Evaluation
// points run at episode 1, every 25th episode, and the final episode.
// Once the mean evaluation reward reaches the solved threshold, the
// remaining episodes become no-op passes. The per-evaluation reward
// table and the per-update loss table are returned.
func (p *PPO) Training(epochs, optimizeEvery, maxEpisodes,
	maxSteps int) (*EvaluationTable, *LossTable, error) {
	if epochs < 1 {
		return nil, nil, fmt.Errorf("training: epochs must be positive, "+
			"got %v", epochs)
	}
	if optimizeEvery < 1 {
		return nil, nil, fmt.Errorf("training: optimizeEvery must be "+
			"positive, got %v", optimizeEvery)
	}
	p.epochs = epochs
	p.optimizeEvery = optimizeEvery

	fmt.Printf("Loss: %v\n", p.objective)
	start := time.Now()

	evalTable := &EvaluationTable{LossName: p.objective.String()}
	solved := false
	episodeCount := 0
	bar := progressbar.New(50, maxEpisodes)

	for ep := 0; ep < maxEpisodes; ep++ {
		if !solved {
			episodeCount++

			step := p.env.Reset()
			if err := p.ObserveFirst(step); err != nil {
				return nil, nil, fmt.Errorf("training: %v", err)
			}

			for i := 0; i < maxSteps; i++ {
				action := p.SelectAction(p.prevStep)
				nextStep, last := p.env.Step(action)

				if err := p.Observe(action, nextStep); err != nil {
					return nil, nil, fmt.Errorf("training: %v", err)
				}
				if err := p.Step(); err != nil {
					return nil, nil, fmt.Errorf("training: %v", err)
				}

				if last {
					break
				}
			}
			p.EndEpisode()
		}

		if ep == 1 || (ep > 0 && ep%25 == 0) || ep == maxEpisodes-1 {
			rewards := make([]float64, evaluationRollouts)
			for j := range rewards {
				reward, err := p.evaluate()
				if err != nil {
					return nil, nil, fmt.Errorf("training: %v", err)
				}
				rewards[j] = reward
				evalTable.Rows = append(evalTable.Rows, EvaluationRow{
					Episode: ep,
					Reward:  reward,
				})
			}

			mean := stat.Mean(rewards, nil)
			std := stat.PopStdDev(rewards, nil)
			fmt.Printf("\nEpisode %d/%d: Mean rewards: %.2f, Std: %.2f\n",
				ep, maxEpisodes, mean, std)

			if mean >= p.config.SolvedThreshold {
				solved = true
			}
		}

		bar.Increment()
		bar.Display()
	}

	if err := p.env.Close(); err != nil {
		return nil, nil, fmt.Errorf("training: could not close "+
			"environment: %v", err)
	}

	evalTable.ElapsedTime = time.Since(start)
	fmt.Printf("\nThe training was done over a total of %d episodes\n",
		episodeCount)
	fmt.Printf("Total time elapsed during training: %v\n",
		evalTable.ElapsedTime)

	lossTable := &LossTable{
		Rows:     append([]LossRow(nil), p.lossRows...),
		LossName: p.objective.String(),
	}
	return evalTable, lossTable, nil
}

// optimize runs one epoch of minibatch updates over the buffered
// rollout segment. For each minibatch, the critic takes one gradient
// step towards the GAE returns, then the actor takes one gradient step
// on the selected objective. The loss metrics averaged over the
// epoch's minibatches are returned.
func (p *PPO) optimize(nextObs []float64) (loss, dryLoss, entropy float64,
	err error) {
	n := p.buffer.length()
	if n == 0 {
		return 0, 0, 0, fmt.Errorf("optimize: no buffered transitions")
	}

	nextValue, err := p.critic.Predict(nextObs)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("optimize: %v", err)
	}
	values, err := p.critic.Values(p.buffer.observations, n)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("optimize: %v", err)
	}

	rewards := p.buffer.rewards
	if p.config.RewardNorm {
		rewards = normalizeRewards(rewards)
	}
	returns, advantages := returnsAdvantages(rewards, p.buffer.dones, values,
		nextValue, p.config.Gamma, p.config.Lambda)

	var lossSum, drySum, entropySum float64
	batches := 0

	for i := 0; i < n; i += p.config.BatchSize {
		end := i + p.config.BatchSize
		if end > n {
			end = n
		}
		m := end - i

		batchObs := p.buffer.observations[i*p.buffer.features : end*p.buffer.features]
		batchActions := p.buffer.actions[i*p.buffer.actionDims : end*p.buffer.actionDims]

		if _, err := p.critic.Step(batchObs, returns[i:end], m); err != nil {
			return 0, 0, 0, fmt.Errorf("optimize: %v", err)
		}

		batchLoss, batchDry, batchEntropy, err := p.actor.Step(batchObs,
			batchActions, advantages[i:end], m, &p.betaKL)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("optimize: %v", err)
		}

		lossSum += batchLoss
		drySum += batchDry
		entropySum += batchEntropy
		batches++
	}

	total := float64(batches)
	return lossSum / total, drySum / total, entropySum / total, nil
}

// evaluate runs a single gradient-free rollout and returns its
// cumulative reward. If the configuration fixes an evaluation start
// state, the environment state is overwritten after the reset.
func (p *PPO) evaluate() (float64, error) {
	p.Eval()
	defer p.Train()

	step := p.env.Reset()
	if p.config.ResetVal != nil {
		setter, ok := p.env.(environment.StateSetter)
		if !ok {
			return 0, fmt.Errorf("evaluate: environment does not support "+
				"fixed reset states, but got reset state %v", p.config.ResetVal)
		}
		state := mat.NewVecDense(len(p.config.ResetVal),
			append([]float64(nil), p.config.ResetVal...))
		step = setter.SetState(state)
	}

	total := 0.0
	for {
		action, err := p.actor.SelectAction(vecData(step.Observation))
		if err != nil {
			return 0, fmt.Errorf("evaluate: %v", err)
		}

		nextStep, last := p.env.Step(action)
		total += nextStep.Reward
		step = nextStep

		if last {
			break
		}
	}
	return total, nil
}

// vecData returns the backing data of a vector
func vecData(v mat.Vector) []float64 {
	if dense, ok := v.(*mat.VecDense); ok {
		return dense.RawVector().Data
	}

	data := make([]float64, v.Len())
	for i := range data {
		data[i] = v.AtVec(i)
	}
	return data
}
