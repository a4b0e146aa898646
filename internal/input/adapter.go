// Package input turns a keyer line or an audio level into a debounced
// "signal present" flag with mark/space start timestamps.
package input

import (
	"errors"
	"math"
)

// DefaultDebounceMs is the time a keyer level must persist before it is accepted.
const DefaultDebounceMs = 20

var (
	// ErrPinRequired indicates digital mode was selected without a Pin
	ErrPinRequired = errors.New("digital input requires a pin")
	// ErrSamplerRequired indicates threshold mode was selected without a Sampler
	ErrSamplerRequired = errors.New("threshold input requires a sampler")
	// ErrInvalidMode indicates an unknown input mode
	ErrInvalidMode = errors.New("input mode must be digital or threshold")
	// ErrInvalidDebounce indicates the debounce window is negative
	ErrInvalidDebounce = errors.New("debounce must be non-negative")
)

// Mode selects the physical source of an Adapter. The two are exclusive.
type Mode int

const (
	// Digital reads a binary keyer line and debounces it
	Digital Mode = iota
	// Threshold compares a scalar sample against a fixed threshold
	Threshold
)

func (m Mode) String() string {
	switch m {
	case Digital:
		return "digital"
	case Threshold:
		return "threshold"
	default:
		return "unknown"
	}
}

// Pin is a binary input line, true meaning a high level.
type Pin interface {
	Read() bool
}

// Sampler yields the current scalar level of an analog source.
type Sampler interface {
	Sample() float64
}

// Config describes an Adapter.
type Config struct {
	Mode Mode
	// Pin is read in Digital mode
	Pin Pin
	// ActiveLow inverts the pin level (key closes to ground)
	ActiveLow bool
	// DebounceMs is the digital debounce window
	DebounceMs int64
	// Sampler is read in Threshold mode
	Sampler Sampler
	// Threshold is the level a sample must exceed to count as signal
	Threshold float64
}

// Adapter normalizes a Pin or a Sampler into a signal-present flag.
// It is polled, never blocks, and must be owned by a single goroutine.
type Adapter struct {
	cfg Config

	present      bool  // accepted signal state
	lastRaw      bool  // raw pin level seen on the previous poll
	lastChangeMs int64 // digital: last raw edge; threshold: last sample above threshold
	markStartMs  int64
	spaceStartMs int64
}

// New validates cfg and returns an Adapter in the no-signal state.
func New(cfg Config) (*Adapter, error) {
	switch cfg.Mode {
	case Digital:
		if cfg.Pin == nil {
			return nil, ErrPinRequired
		}
		if cfg.DebounceMs < 0 {
			return nil, ErrInvalidDebounce
		}
	case Threshold:
		if cfg.Sampler == nil {
			return nil, ErrSamplerRequired
		}
	default:
		return nil, ErrInvalidMode
	}

	a := &Adapter{cfg: cfg}
	if cfg.Mode == Threshold {
		// Treat the line as long quiet so a tone present at start opens a mark
		a.lastChangeMs = math.MinInt64 / 2
	}
	return a, nil
}

// Poll samples the source at nowMs. dotMs is the current dot length, which
// sets the settle time of threshold mode.
func (a *Adapter) Poll(nowMs, dotMs int64) {
	if a.cfg.Mode == Digital {
		a.pollDigital(nowMs)
	} else {
		a.pollThreshold(nowMs, dotMs)
	}
}

func (a *Adapter) pollDigital(nowMs int64) {
	raw := a.cfg.Pin.Read()
	if a.cfg.ActiveLow {
		raw = !raw
	}

	// Any raw edge restarts the debounce window
	if raw != a.lastRaw {
		a.lastChangeMs = nowMs
	}
	a.lastRaw = raw

	if nowMs-a.lastChangeMs > a.cfg.DebounceMs {
		a.present = raw
		// Timestamp the edge itself, not the moment it was accepted
		if raw {
			a.markStartMs = a.lastChangeMs
		} else {
			a.spaceStartMs = a.lastChangeMs
		}
	}
}

func (a *Adapter) pollThreshold(nowMs, dotMs int64) {
	settle := dotMs / 2
	if a.cfg.Sampler.Sample() > a.cfg.Threshold {
		// A new mark only after the line has been quiet for half a dot
		if nowMs-a.lastChangeMs > settle {
			a.markStartMs = nowMs
			a.present = true
		}
		a.lastChangeMs = nowMs
		return
	}

	if a.present && nowMs-a.lastChangeMs > settle {
		a.spaceStartMs = a.lastChangeMs
		a.present = false
	}
}

// Present reports whether a signal is currently accepted.
func (a *Adapter) Present() bool {
	return a.present
}

// MarkStart returns the timestamp at which the latest mark began.
func (a *Adapter) MarkStart() int64 {
	return a.markStartMs
}

// SpaceStart returns the timestamp at which the latest space began.
func (a *Adapter) SpaceStart() int64 {
	return a.spaceStartMs
}

// Mode returns the configured mode.
func (a *Adapter) Mode() Mode {
	return a.cfg.Mode
}
