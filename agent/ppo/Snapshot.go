package ppo

// policySnapshot holds the policy output produced for one optimization
// minibatch: action probabilities for categorical policies or
// distribution means for Gaussian policies, flattened in row major
// order.
type policySnapshot struct {
	data []float64
	rows int
	cols int
}

// snapshotHistory records policy outputs across optimization
// minibatches. Only the two most recent snapshots are ever read for
// probability ratios, so the history is a two-slot rolling buffer
// rather than an unbounded sequence. A total push counter is kept so
// the bootstrap case can be distinguished from a full history.
type snapshotHistory struct {
	current  policySnapshot
	previous policySnapshot
	pushes   int
}

func newSnapshotHistory() *snapshotHistory {
	return &snapshotHistory{}
}

// push records the policy output of the current minibatch
func (h *snapshotHistory) push(data []float64, rows, cols int) {
	h.previous = h.current
	h.current = policySnapshot{data: data, rows: rows, cols: cols}
	h.pushes++
}

// old returns the snapshot to use as the previous policy. Once at
// least two snapshots have been pushed this is the second most recent
// one. Before that, the sole recorded snapshot is returned so that
// the first minibatch compares the policy against itself.
func (h *snapshotHistory) old() policySnapshot {
	if h.pushes >= 2 {
		return h.previous
	}
	return h.current
}

// count returns the total number of snapshots pushed over the life of
// the history
func (h *snapshotHistory) count() int {
	return h.pushes
}
