package ppo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrajectoryBufferAppend(t *testing.T) {
	buffer := newTrajectoryBuffer(2, 1)

	buffer.append([]float64{0.1, 0.2}, []float64{0}, 1.0, false)
	buffer.append([]float64{0.3, 0.4}, []float64{1}, 1.0, false)
	buffer.append([]float64{0.5, 0.6}, []float64{0}, 1.0, true)

	assert.Equal(t, 3, buffer.length())

	// All four fields stay in lock step
	assert.Equal(t, buffer.length()*buffer.features, len(buffer.observations))
	assert.Equal(t, buffer.length()*buffer.actionDims, len(buffer.actions))
	assert.Equal(t, buffer.length(), len(buffer.rewards))
	assert.Equal(t, buffer.length(), len(buffer.dones))

	assert.Equal(t, []float64{0.3, 0.4}, buffer.observations[2:4])
	assert.Equal(t, []float64{0, 1, 0}, buffer.actions)
	assert.Equal(t, []bool{false, false, true}, buffer.dones)
}

func TestTrajectoryBufferClear(t *testing.T) {
	buffer := newTrajectoryBuffer(2, 1)
	for i := 0; i < 8; i++ {
		buffer.append([]float64{0, 0}, []float64{0}, 1.0, false)
	}

	buffer.clear()

	assert.Equal(t, 0, buffer.length())
	assert.Equal(t, 0, len(buffer.observations))
	assert.Equal(t, 0, len(buffer.actions))
	assert.Equal(t, 0, len(buffer.rewards))
	assert.Equal(t, 0, len(buffer.dones))

	// Clearing reslices instead of reallocating
	assert.GreaterOrEqual(t, cap(buffer.rewards), 8)

	buffer.append([]float64{1, 1}, []float64{1}, 0.5, true)
	assert.Equal(t, 1, buffer.length())
	assert.Equal(t, 0.5, buffer.rewards[0])
}
