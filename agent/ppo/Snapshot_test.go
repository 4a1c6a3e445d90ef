package ppo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnapshotHistoryBootstrap(t *testing.T) {
	history := newSnapshotHistory()

	first := []float64{0.25, 0.75}
	history.push(first, 1, 2)

	// With a single snapshot, the old policy is the current one
	assert.Equal(t, 1, history.count())
	assert.Equal(t, first, history.old().data)
}

func TestSnapshotHistoryRolls(t *testing.T) {
	history := newSnapshotHistory()

	first := []float64{0.25, 0.75}
	second := []float64{0.5, 0.5}
	third := []float64{0.9, 0.1}

	history.push(first, 1, 2)
	history.push(second, 1, 2)
	assert.Equal(t, 2, history.count())
	assert.Equal(t, first, history.old().data)

	history.push(third, 1, 2)
	assert.Equal(t, 3, history.count())
	assert.Equal(t, second, history.old().data)
	assert.Equal(t, third, history.current.data)
}
