package ppo

import "gonum.org/v1/gonum/stat"

// normalizeRewards returns a copy of rewards rescaled to zero mean and
// approximately unit variance
func normalizeRewards(rewards []float64) []float64 {
	mean := stat.Mean(rewards, nil)
	std := stat.PopStdDev(rewards, nil)

	normalized := make([]float64, len(rewards))
	for i, r := range rewards {
		normalized[i] = (r - mean) / (std + 1e-5)
	}
	return normalized
}

// returnsAdvantages computes the cumulative discounted returns and the
// generalized advantage estimates for one rollout segment.
//
// The values argument holds one state value per buffered transition,
// and nextValue is the value of the state following the final
// transition. The segment is processed in reverse chronological order.
// The return recursion (through last) and the advantage recursion
// (through nextValue) are kept distinct: both are seeded from the
// bootstrap value and both advance to values[i] each iteration, but
// they are read at different points of the loop body.
func returnsAdvantages(rewards []float64, dones []bool, values []float64,
	nextValue, gamma, lambda float64) (returns, advantages []float64) {
	n := len(rewards)
	returns = make([]float64, n)
	advantages = make([]float64, n)

	last := nextValue
	gae := 0.0

	for i := n - 1; i >= 0; i-- {
		notDone := 1.0
		if dones[i] {
			notDone = 0.0
		}

		returns[i] = rewards[i] + gamma*last*notDone
		last = values[i]

		delta := rewards[i] + gamma*nextValue*notDone - values[i]
		gae = delta + gamma*lambda*notDone*gae
		advantages[i] = gae
		nextValue = values[i]
	}

	return returns, advantages
}
