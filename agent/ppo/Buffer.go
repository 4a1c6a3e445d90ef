package ppo

// trajectoryBuffer stores the transitions of one rollout segment. The
// segment may span multiple episodes. Observations and actions are
// stored flattened in row major order with strides features and
// actionDims respectively.
//
// The four fields always hold the same number of transitions because
// a transition is only ever recorded through a single append call.
type trajectoryBuffer struct {
	features   int
	actionDims int

	observations []float64
	actions      []float64
	rewards      []float64
	dones        []bool
}

// newTrajectoryBuffer returns a new empty trajectoryBuffer for
// transitions with the given observation and action dimensions
func newTrajectoryBuffer(features, actionDims int) *trajectoryBuffer {
	return &trajectoryBuffer{
		features:   features,
		actionDims: actionDims,
	}
}

// append records a single transition
func (b *trajectoryBuffer) append(obs, action []float64, reward float64,
	done bool) {
	b.observations = append(b.observations, obs...)
	b.actions = append(b.actions, action...)
	b.rewards = append(b.rewards, reward)
	b.dones = append(b.dones, done)
}

// clear removes all stored transitions. The underlying storage is
// retained for the next rollout segment.
func (b *trajectoryBuffer) clear() {
	b.observations = b.observations[:0]
	b.actions = b.actions[:0]
	b.rewards = b.rewards[:0]
	b.dones = b.dones[:0]
}

// length returns the number of stored transitions
func (b *trajectoryBuffer) length() int {
	return len(b.rewards)
}
