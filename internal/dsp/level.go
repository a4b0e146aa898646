// internal/dsp/level.go
package dsp

import (
	"errors"
	"math"
	"sync/atomic"
)

var (
	// ErrInvalidSampleRate indicates sample rate must be positive
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	// ErrInvalidWindow indicates the level window must be at least one sample
	ErrInvalidWindow = errors.New("level window must be at least 1ms")
)

// LevelConfig holds configuration for the level meter.
type LevelConfig struct {
	// SampleRate is the audio sample rate in Hz (from config: sample_rate)
	SampleRate float64
	// WindowMs is the RMS window length in milliseconds (from config: level_window_ms)
	WindowMs int
}

// LevelMeter reports the RMS level of the most recent complete window of
// audio. Process is called from the audio path, Sample from the poll loop.
type LevelMeter struct {
	blockSize int
	sumSq     float64
	count     int

	level atomic.Uint64 // math.Float64bits of the latest RMS
}

// NewLevelMeter creates a level meter with the given configuration.
func NewLevelMeter(cfg LevelConfig) (*LevelMeter, error) {
	if cfg.SampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	if cfg.WindowMs < 1 {
		return nil, ErrInvalidWindow
	}

	blockSize := int(cfg.SampleRate * float64(cfg.WindowMs) / 1000)
	if blockSize < 1 {
		blockSize = 1
	}
	return &LevelMeter{blockSize: blockSize}, nil
}

// Process accumulates samples (normalized -1.0 to 1.0) and publishes a new
// level every time a window completes.
func (m *LevelMeter) Process(samples []float32) {
	for _, s := range samples {
		v := float64(s)
		m.sumSq += v * v
		m.count++
		if m.count == m.blockSize {
			m.level.Store(math.Float64bits(math.Sqrt(m.sumSq / float64(m.count))))
			m.sumSq = 0
			m.count = 0
		}
	}
}

// Sample returns the latest RMS level. It satisfies input.Sampler.
func (m *LevelMeter) Sample() float64 {
	return math.Float64frombits(m.level.Load())
}

// BlockSize returns the number of samples per RMS window.
func (m *LevelMeter) BlockSize() int {
	return m.blockSize
}

// Reset clears the accumulator and the published level.
func (m *LevelMeter) Reset() {
	m.sumSq = 0
	m.count = 0
	m.level.Store(0)
}
