package cw

import (
	"errors"
	"fmt"
	"unicode"

	"github.com/ColonelBlimp/cwendec/internal/clock"
)

var (
	// ErrEncoderBusy indicates Write was called while a character is being sent
	ErrEncoderBusy = errors.New("encoder busy")
)

// Keyer is the single output line driven by the encoder (a key or a tone).
type Keyer interface {
	SetKey(down bool) error
}

// EncoderState is the phase of the encoder.
type EncoderState int

const (
	// Idle means the encoder accepts a new character
	Idle EncoderState = iota
	// Building means the signal plan is being computed
	Building
	// SendingOn means the keyer is down for the current symbol
	SendingOn
	// SendingOff means the keyer is up for the gap after the current symbol
	SendingOff
)

func (s EncoderState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Building:
		return "building"
	case SendingOn:
		return "sending-on"
	case SendingOff:
		return "sending-off"
	default:
		return "unknown"
	}
}

// GapKind tells which gap follows a symbol.
type GapKind int

const (
	// IntraCharacter is the one-dot gap between symbols of a character
	IntraCharacter GapKind = iota
	// InterCharacter is the dash-long gap after the last symbol of a character
	InterCharacter
)

// Encoder keys one character at a time with correct element and gap timing.
//
// The caller checks Available, hands over a character with Write, then calls
// Encode every loop iteration until Available reports true again. Encode
// never blocks. An Encoder must be confined to one goroutine.
type Encoder struct {
	out   Keyer
	clock clock.Clock
	speed Timing

	state   EncoderState
	pending rune

	// Signal plan for the character in flight
	plan    []Symbol
	cursor  int
	gap     GapKind
	timing  Timing // snapshot of speed for the character in flight
	sinceMs int64  // start of the current on or off phase
}

// NewEncoder returns an idle encoder driving out at DefaultWPM.
func NewEncoder(out Keyer, clk clock.Clock) *Encoder {
	return &Encoder{
		out:   out,
		clock: clk,
		speed: NewTiming(DefaultWPM),
	}
}

// SetSpeed changes the sending speed from the next character on.
func (e *Encoder) SetSpeed(wpm int) {
	e.speed.SetSpeed(wpm)
}

// Timing returns the encoder's timing parameters.
func (e *Encoder) Timing() Timing {
	return e.speed
}

// State returns the encoder phase.
func (e *Encoder) State() EncoderState {
	return e.state
}

// Available reports whether the encoder is idle and will accept a character.
func (e *Encoder) Available() bool {
	return e.state == Idle && e.pending == NoChar
}

// Write queues r for sending. Lowercase letters are folded to uppercase.
// A character absent from the table is rejected with ErrUnknownCharacter;
// calling Write while busy returns ErrEncoderBusy and leaves the character
// in flight untouched.
func (e *Encoder) Write(r rune) error {
	if !e.Available() {
		return ErrEncoderBusy
	}
	r = unicode.ToUpper(r)
	if _, ok := PositionOf(r); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCharacter, r)
	}
	e.pending = r
	return nil
}

// Encode advances the encoder by one poll, driving the keyer as needed.
func (e *Encoder) Encode() error {
	now := e.clock.Millis()

	if e.state == Idle && e.pending != NoChar {
		if err := e.start(now); err != nil {
			return err
		}
	}

	switch e.state {
	case SendingOn:
		on := e.timing.DotMs
		if e.plan[e.cursor] == Dash {
			on = e.timing.DashMs
		}
		if now-e.sinceMs >= on {
			if err := e.key(false); err != nil {
				return err
			}
			e.sinceMs = now
			e.state = SendingOff
			e.gap = IntraCharacter
			if e.cursor == len(e.plan)-1 {
				e.gap = InterCharacter
			}
		}

	case SendingOff:
		elapsed := now - e.sinceMs
		switch {
		case e.plan[e.cursor] == WordGap:
			// The previous character already sent a character gap
			if elapsed >= e.timing.WordMs-e.timing.DashMs {
				e.cursor++
			}
		case e.gap == IntraCharacter:
			if elapsed >= e.timing.DotMs {
				if err := e.key(true); err != nil {
					return err
				}
				e.cursor++
				e.sinceMs = now
				e.state = SendingOn
			}
		default:
			if elapsed >= e.timing.DashMs {
				e.cursor++
			}
		}
	}

	if e.state != Idle && e.cursor >= len(e.plan) {
		e.finish()
	}
	return nil
}

// start builds the plan for the pending character and keys its first symbol.
func (e *Encoder) start(now int64) error {
	e.state = Building
	plan, err := Plan(e.pending)
	if err != nil {
		e.finish()
		return err
	}

	e.plan = plan
	e.cursor = 0
	e.timing = e.speed
	e.sinceMs = now

	if plan[0] == WordGap {
		e.state = SendingOff
		return nil
	}
	if err := e.key(true); err != nil {
		e.finish()
		return err
	}
	e.state = SendingOn
	return nil
}

func (e *Encoder) finish() {
	e.state = Idle
	e.pending = NoChar
	e.plan = nil
	e.cursor = 0
}

func (e *Encoder) key(down bool) error {
	if err := e.out.SetKey(down); err != nil {
		return fmt.Errorf("set key: %w", err)
	}
	return nil
}
