package cw

import (
	"github.com/ColonelBlimp/cwendec/internal/clock"
)

// Source is a polled signal source: a debounced "signal present" flag and
// the start times of the current mark and space. See package input.
type Source interface {
	Poll(nowMs, dotMs int64)
	Present() bool
	MarkStart() int64
	SpaceStart() int64
}

// DecoderState is the phase of the decoder as of the latest poll.
type DecoderState int

const (
	// AwaitingSignal means the decoder is in a space with nothing left to classify
	AwaitingSignal DecoderState = iota
	// InMark means a signal is present
	InMark
	// InSpaceUnclassified means the last mark has not been classified yet
	InSpaceUnclassified
	// Error means the latest poll detected a malformed sequence
	Error
)

func (s DecoderState) String() string {
	switch s {
	case AwaitingSignal:
		return "awaiting-signal"
	case InMark:
		return "in-mark"
	case InSpaceUnclassified:
		return "in-space-unclassified"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Decoder converts a polled on/off signal into characters.
//
// The caller invokes Decode once per loop iteration, at an interval shorter
// than half a dot, and drains Read whenever Available reports true. Only one
// decoded character is held; an unread character is overwritten by the next.
// A Decoder must be confined to one goroutine.
type Decoder struct {
	src    Source
	clock  clock.Clock
	timing Timing
	state  DecoderState

	// Tree cursor
	pointer int
	step    int

	classified  bool // the latest mark has been dealt with
	wordEmitted bool // a word space was emitted since the latest mark

	mailbox rune
}

// NewDecoder returns a decoder reading src at DefaultWPM.
func NewDecoder(src Source, clk clock.Clock) *Decoder {
	d := &Decoder{
		src:    src,
		clock:  clk,
		timing: NewTiming(DefaultWPM),
		// Nothing received yet: no pending mark, no leading word space
		classified:  true,
		wordEmitted: true,
	}
	d.resetCursor()
	return d
}

// SetSpeed changes the expected speed. It takes effect on the next duration
// comparison, so a symbol in flight may be misclassified.
func (d *Decoder) SetSpeed(wpm int) {
	d.timing.SetSpeed(wpm)
}

// Timing returns the decoder's current timing parameters.
func (d *Decoder) Timing() Timing {
	return d.timing
}

// State returns the decoder phase as of the latest Decode.
func (d *Decoder) State() DecoderState {
	return d.state
}

// Available reports whether a decoded character is waiting.
func (d *Decoder) Available() bool {
	return d.mailbox != NoChar
}

// Read returns the pending character and empties the mailbox.
// It returns NoChar when nothing is pending.
func (d *Decoder) Read() rune {
	r := d.mailbox
	d.mailbox = NoChar
	return r
}

// Decode advances the decoder by one poll.
func (d *Decoder) Decode() {
	now := d.clock.Millis()
	d.src.Poll(now, d.timing.DotMs)

	if d.src.Present() {
		d.classified = false
		d.wordEmitted = false
		d.state = InMark
		return
	}

	d.state = AwaitingSignal
	space := now - d.src.SpaceStart()

	if !d.classified {
		d.state = InSpaceUnclassified
		// Give the space a quarter dot to prove it is not a dropout inside the mark
		if space > d.timing.DotMs/4 {
			d.classify(d.src.SpaceStart() - d.src.MarkStart())
		}
	}

	// Character boundary
	if space >= 2*d.timing.DotMs && d.step < RootStep {
		d.emit(SymbolAt(d.pointer))
		d.resetCursor()
	}

	// Word boundary, once per space
	if !d.wordEmitted && space >= d.timing.WordMs*2/3 {
		d.emit(WordSpace)
		d.wordEmitted = true
	}
}

// classify turns a mark duration into a tree move. Durations that are neither
// a clear dot nor a clear dash leave the cursor alone.
func (d *Decoder) classify(markMs int64) {
	t := d.timing
	var sym Symbol
	switch {
	case markMs <= t.DotMs/4:
		// Too short to be a real element
	case markMs < t.DashMs/2:
		sym = Dot
	case markMs < t.DashMs+t.DotMs:
		sym = Dash
	}

	d.classified = true
	if sym == 0 {
		d.state = AwaitingSignal
		return
	}

	if d.step == 0 {
		// More elements than the tree is deep
		d.emit(ErrorMarker)
		d.resetCursor()
		d.state = Error
		return
	}

	if sym == Dot {
		d.pointer -= d.step
	} else {
		d.pointer += d.step
	}
	d.step /= 2
	d.state = AwaitingSignal
}

func (d *Decoder) emit(r rune) {
	d.mailbox = r
}

func (d *Decoder) resetCursor() {
	d.pointer = TreeTop
	d.step = RootStep
}
