// internal/dsp/tone.go
package dsp

import (
	"errors"
	"math"

	"github.com/mjibson/go-dsp/window"
)

var (
	// ErrInvalidFrequency indicates frequency must be positive and below Nyquist
	ErrInvalidFrequency = errors.New("tone frequency must be positive and less than Nyquist frequency")
	// ErrInvalidRamp indicates the ramp length must be non-negative
	ErrInvalidRamp = errors.New("ramp length must be non-negative")
	// ErrInvalidAmplitude indicates amplitude must be in (0, 1]
	ErrInvalidAmplitude = errors.New("amplitude must be between 0.0 and 1.0")
)

// ToneConfig holds configuration for the sidetone generator.
type ToneConfig struct {
	// Frequency is the tone pitch in Hz (from config: tone_frequency)
	Frequency float64
	// SampleRate is the output sample rate in Hz (from config: sample_rate)
	SampleRate float64
	// RampMs is the rise and fall time in milliseconds (from config: tone_ramp_ms)
	RampMs int
	// Amplitude is the peak level, 0.0-1.0
	Amplitude float64
}

// ToneGenerator synthesizes a keyed sine tone. Key transitions follow a
// raised-cosine envelope so the tone starts and stops without clicks.
type ToneGenerator struct {
	cfg   ToneConfig
	phase float64
	step  float64 // phase increment per sample

	ramp []float64 // rising half of a Hann window, 0 to ~1
	pos  int       // envelope position in ramp; len(ramp) means fully on
}

// NewToneGenerator creates a tone generator.
func NewToneGenerator(cfg ToneConfig) (*ToneGenerator, error) {
	if cfg.SampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	if cfg.Frequency <= 0 || cfg.Frequency >= cfg.SampleRate/2 {
		return nil, ErrInvalidFrequency
	}
	if cfg.RampMs < 0 {
		return nil, ErrInvalidRamp
	}
	if cfg.Amplitude <= 0 || cfg.Amplitude > 1 {
		return nil, ErrInvalidAmplitude
	}

	n := int(cfg.SampleRate * float64(cfg.RampMs) / 1000)
	var ramp []float64
	if n > 0 {
		// First half of a 2n Hann window is a smooth 0 to 1 rise
		ramp = window.Hann(2 * n)[:n]
	}

	return &ToneGenerator{
		cfg:  cfg,
		step: 2 * math.Pi * cfg.Frequency / cfg.SampleRate,
		ramp: ramp,
	}, nil
}

// Next returns the next output sample for the given key state.
func (g *ToneGenerator) Next(keyDown bool) float64 {
	env := 0.0
	switch {
	case len(g.ramp) == 0:
		if keyDown {
			env = 1
		}
	case keyDown:
		if g.pos < len(g.ramp) {
			g.pos++
		}
		env = g.envelope()
	default:
		if g.pos > 0 {
			g.pos--
		}
		env = g.envelope()
	}

	if env == 0 {
		// Restart at zero phase so every element begins identically
		g.phase = 0
		return 0
	}

	out := g.cfg.Amplitude * env * math.Sin(g.phase)
	g.phase += g.step
	if g.phase >= 2*math.Pi {
		g.phase -= 2 * math.Pi
	}
	return out
}

// Fill writes len(buf) samples for a constant key state.
func (g *ToneGenerator) Fill(buf []float32, keyDown bool) {
	for i := range buf {
		buf[i] = float32(g.Next(keyDown))
	}
}

func (g *ToneGenerator) envelope() float64 {
	if g.pos >= len(g.ramp) {
		return 1
	}
	return g.ramp[g.pos]
}

// Config returns the generator configuration.
func (g *ToneGenerator) Config() ToneConfig {
	return g.cfg
}
