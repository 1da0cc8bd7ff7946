package market

import (
	"fmt"

	"github.com/dnldd/pulse/shared"
)

// TickBuffer is a fixed-capacity ordered store of recent ticks. Insertion
// order is time order: a tick whose epoch is at or behind the most recently
// stored tick is a duplicate or out-of-order input and is silently discarded.
type TickBuffer struct {
	data  []shared.Tick
	start int
	count int
	size  int
}

// NewTickBuffer initializes a new tick buffer.
func NewTickBuffer(size int) (*TickBuffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("tick buffer size must be positive, got %d", size)
	}

	return &TickBuffer{
		data: make([]shared.Tick, size),
		size: size,
	}, nil
}

// Append stores the provided tick, evicting the oldest entry when the buffer
// is at capacity. It reports whether the tick was accepted.
func (b *TickBuffer) Append(tick shared.Tick) bool {
	if b.count > 0 {
		last := b.data[(b.start+b.count-1)%b.size]
		if tick.Epoch <= last.Epoch {
			return false
		}
	}

	end := (b.start + b.count) % b.size
	b.data[end] = tick

	if b.count == b.size {
		// Overwrite the oldest entry when the buffer is at capacity.
		b.start = (b.start + 1) % b.size
	} else {
		b.count++
	}

	return true
}

// Len returns the number of buffered ticks.
func (b *TickBuffer) Len() int {
	return b.count
}

// Latest returns the most recently buffered tick.
func (b *TickBuffer) Latest() (shared.Tick, bool) {
	if b.count == 0 {
		return shared.Tick{}, false
	}

	return b.data[(b.start+b.count-1)%b.size], true
}

// LastN fetches the last n ticks from the buffer, ordered oldest to newest.
func (b *TickBuffer) LastN(n int) []shared.Tick {
	if n <= 0 {
		return nil
	}

	// Clamp the number of elements expected if it is greater than the buffer count.
	if n > b.count {
		n = b.count
	}

	set := make([]shared.Tick, n)
	start := (b.start + b.count - n + b.size) % b.size

	for i := range n {
		idx := (start + i) % b.size
		set[i] = b.data[idx]
	}

	return set
}

// All returns the full ordered tick sequence.
func (b *TickBuffer) All() []shared.Tick {
	return b.LastN(b.count)
}

// Clear empties the buffer. It is invoked on upstream stream discontinuities
// so pre-gap and post-gap ticks are never fused.
func (b *TickBuffer) Clear() {
	b.start = 0
	b.count = 0
}
