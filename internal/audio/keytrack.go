// internal/audio/keytrack.go
package audio

import (
	"sort"

	"github.com/ColonelBlimp/cwendec/internal/clock"
)

// Transition is a key state change at a clock time
type Transition struct {
	AtMs int64
	Down bool
}

// KeyTrack records every key transition against a clock. It satisfies
// cw.Keyer and is used to render or measure encoder output offline.
type KeyTrack struct {
	clock       clock.Clock
	transitions []Transition
	down        bool
}

// NewKeyTrack creates an empty track, key up
func NewKeyTrack(clk clock.Clock) *KeyTrack {
	return &KeyTrack{clock: clk}
}

// SetKey records a transition. Repeating the current state is a no-op.
func (k *KeyTrack) SetKey(down bool) error {
	if down == k.down {
		return nil
	}
	k.down = down
	k.transitions = append(k.transitions, Transition{AtMs: k.clock.Millis(), Down: down})
	return nil
}

// Transitions returns the recorded transitions in time order
func (k *KeyTrack) Transitions() []Transition {
	return k.transitions
}

// DownAt reports the key state at time ms
func (k *KeyTrack) DownAt(ms int64) bool {
	i := sort.Search(len(k.transitions), func(i int) bool {
		return k.transitions[i].AtMs > ms
	})
	if i == 0 {
		return false
	}
	return k.transitions[i-1].Down
}

// StartMs returns the time of the first key down, or 0 for an empty track
func (k *KeyTrack) StartMs() int64 {
	if len(k.transitions) == 0 {
		return 0
	}
	return k.transitions[0].AtMs
}

// EndMs returns the time of the last transition, or 0 for an empty track
func (k *KeyTrack) EndMs() int64 {
	if len(k.transitions) == 0 {
		return 0
	}
	return k.transitions[len(k.transitions)-1].AtMs
}

// MarkMs returns the total key-down time of completed marks
func (k *KeyTrack) MarkMs() int64 {
	var total int64
	for i := 1; i < len(k.transitions); i++ {
		if k.transitions[i-1].Down && !k.transitions[i].Down {
			total += k.transitions[i].AtMs - k.transitions[i-1].AtMs
		}
	}
	return total
}

// Reset discards the recording and releases the key
func (k *KeyTrack) Reset() {
	k.transitions = k.transitions[:0]
	k.down = false
}
