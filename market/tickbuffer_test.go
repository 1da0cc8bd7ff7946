package market

import (
	"testing"

	"github.com/dnldd/pulse/shared"
	"github.com/google/go-cmp/cmp"
	"github.com/peterldowns/testy/assert"
)

func TestTickBuffer(t *testing.T) {
	// Ensure tick buffer size cannot be negative or zero.
	buffer, err := NewTickBuffer(-1)
	assert.Error(t, err)

	buffer, err = NewTickBuffer(0)
	assert.Error(t, err)

	// Ensure a tick buffer can be created.
	size := 4
	buffer, err = NewTickBuffer(size)
	assert.NoError(t, err)
	assert.Equal(t, buffer.Len(), 0)

	// Ensure the latest tick is absent on an empty buffer.
	_, ok := buffer.Latest()
	assert.Equal(t, ok, false)

	// Ensure the buffer can be updated with ticks.
	for idx := range size {
		accepted := buffer.Append(shared.Tick{Epoch: int64(idx + 1), Price: float64(100 + idx)})
		assert.Equal(t, accepted, true)
	}

	assert.Equal(t, buffer.Len(), size)

	// Ensure appends exceeding capacity evict the oldest entry and keep the
	// buffer at capacity.
	accepted := buffer.Append(shared.Tick{Epoch: 5, Price: 104})
	assert.Equal(t, accepted, true)
	assert.Equal(t, buffer.Len(), size)

	all := buffer.All()
	assert.Equal(t, all[0], shared.Tick{Epoch: 2, Price: 101})
	assert.Equal(t, all[len(all)-1], shared.Tick{Epoch: 5, Price: 104})

	// Ensure a duplicate epoch never mutates the buffer.
	accepted = buffer.Append(shared.Tick{Epoch: 5, Price: 999})
	assert.Equal(t, accepted, false)
	assert.Equal(t, buffer.Len(), size)
	assert.Equal(t, cmp.Diff(buffer.All(), all), "")

	// Ensure an out-of-order epoch never mutates the buffer.
	accepted = buffer.Append(shared.Tick{Epoch: 3, Price: 999})
	assert.Equal(t, accepted, false)
	assert.Equal(t, cmp.Diff(buffer.All(), all), "")

	// Ensure the latest tick can be fetched.
	latest, ok := buffer.Latest()
	assert.Equal(t, ok, true)
	assert.Equal(t, latest, shared.Tick{Epoch: 5, Price: 104})

	// Ensure the last n ticks are ordered oldest to newest.
	lastTwo := buffer.LastN(2)
	assert.Equal(t, len(lastTwo), 2)
	assert.Equal(t, lastTwo[0], shared.Tick{Epoch: 4, Price: 103})
	assert.Equal(t, lastTwo[1], shared.Tick{Epoch: 5, Price: 104})

	// Ensure last n clamps to the buffer count and rejects non-positive counts.
	assert.Equal(t, len(buffer.LastN(100)), size)
	assert.Equal(t, len(buffer.LastN(0)), 0)
	assert.Equal(t, len(buffer.LastN(-2)), 0)

	// Ensure clearing the buffer empties it and allows a fresh stream.
	buffer.Clear()
	assert.Equal(t, buffer.Len(), 0)

	accepted = buffer.Append(shared.Tick{Epoch: 1, Price: 50})
	assert.Equal(t, accepted, true)
	assert.Equal(t, buffer.Len(), 1)
}
