// cmd/hardware.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ColonelBlimp/cwendec/internal/audio"
	"github.com/ColonelBlimp/cwendec/internal/config"
	"github.com/ColonelBlimp/cwendec/internal/cw"
	"github.com/ColonelBlimp/cwendec/internal/dsp"
	"github.com/ColonelBlimp/cwendec/internal/gpio"
	"github.com/ColonelBlimp/cwendec/internal/input"
	"github.com/ColonelBlimp/cwendec/internal/serialkey"
)

// toneAmplitude is the peak level of generated tones
const toneAmplitude = 0.5

// signalSource is an input adapter together with the device behind it
type signalSource struct {
	*input.Adapter
	// check reports a failed background reader
	check func() error
	close func() error
}

func (s *signalSource) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

func (s *signalSource) Err() error {
	if s.check == nil {
		return nil
	}
	return s.check()
}

// openSource opens the configured input device
func openSource(ctx context.Context, s *config.Settings, logger *slog.Logger) (*signalSource, error) {
	switch s.Input {
	case config.InputGPIO:
		pin, err := gpio.OpenInput(gpio.LineConfig{Chip: s.GPIOChip, Offset: s.KeyPin}, s.ActiveLow, logger)
		if err != nil {
			return nil, fmt.Errorf("open key input: %w", err)
		}
		a, err := newDigitalAdapter(pin, s)
		if err != nil {
			_ = pin.Close()
			return nil, err
		}
		return &signalSource{Adapter: a, close: pin.Close}, nil

	case config.InputSerial:
		down, up := s.SerialKeyBytes()
		key, err := serialkey.Open(serialkey.Config{
			Port:    s.SerialPort,
			Baud:    s.SerialBaud,
			KeyDown: down,
			KeyUp:   up,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("open serial key: %w", err)
		}
		// The device reports key state, not a raw level
		a, err := input.New(input.Config{Mode: input.Digital, Pin: key, DebounceMs: int64(s.DebounceMs)})
		if err != nil {
			_ = key.Close()
			return nil, err
		}
		check := func() error {
			select {
			case <-key.Done():
				if err := key.Err(); err != nil {
					return fmt.Errorf("serial key: %w", err)
				}
				return errors.New("serial key reader stopped")
			default:
				return nil
			}
		}
		return &signalSource{Adapter: a, check: check, close: key.Close}, nil

	case config.InputAudio:
		meter, err := dsp.NewLevelMeter(dsp.LevelConfig{SampleRate: s.SampleRate, WindowMs: s.LevelWindowMs})
		if err != nil {
			return nil, err
		}
		capture := audio.NewCapture(audio.Config{
			DeviceIndex: s.DeviceIndex,
			SampleRate:  uint32(s.SampleRate),
			BufferSize:  uint32(s.BufferSize),
		}, logger)
		capture.SetSink(meter)
		if err := capture.Init(); err != nil {
			return nil, err
		}
		if err := capture.Start(ctx); err != nil {
			_ = capture.Close()
			return nil, err
		}
		a, err := newThresholdAdapter(meter, s)
		if err != nil {
			_ = capture.Close()
			return nil, err
		}
		return &signalSource{Adapter: a, close: capture.Close}, nil
	}
	return nil, fmt.Errorf("unknown input %q", s.Input)
}

func newDigitalAdapter(pin input.Pin, s *config.Settings) (*input.Adapter, error) {
	return input.New(input.Config{
		Mode:       input.Digital,
		Pin:        pin,
		ActiveLow:  s.ActiveLow,
		DebounceMs: int64(s.DebounceMs),
	})
}

func newThresholdAdapter(sampler input.Sampler, s *config.Settings) (*input.Adapter, error) {
	return input.New(input.Config{
		Mode:      input.Threshold,
		Sampler:   sampler,
		Threshold: s.Threshold,
	})
}

// newToneGenerator builds the sidetone / WAV tone from the settings
func newToneGenerator(s *config.Settings, sampleRate float64) (*dsp.ToneGenerator, error) {
	return dsp.NewToneGenerator(dsp.ToneConfig{
		Frequency:  s.ToneFrequency,
		SampleRate: sampleRate,
		RampMs:     s.ToneRampMs,
		Amplitude:  toneAmplitude,
	})
}

// silentKeyer stands in for a key output when none is configured
type silentKeyer struct {
	logger *slog.Logger
}

func (k silentKeyer) SetKey(down bool) error {
	k.logger.Debug("key", "down", down)
	return nil
}

// openKeyer opens the configured key output. The returned close function
// releases the key.
func openKeyer(s *config.Settings, logger *slog.Logger) (cw.Keyer, func() error, error) {
	switch s.Output {
	case config.OutputGPIO:
		out, err := gpio.OpenOutput(gpio.LineConfig{Chip: s.GPIOChip, Offset: s.OutPin}, false, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open key output: %w", err)
		}
		return out, out.Close, nil

	case config.OutputSidetone:
		gen, err := newToneGenerator(s, s.SampleRate)
		if err != nil {
			return nil, nil, err
		}
		tone := audio.NewSidetone(audio.Config{
			DeviceIndex: s.DeviceIndex,
			SampleRate:  uint32(s.SampleRate),
			BufferSize:  uint32(s.BufferSize),
		}, gen, logger)
		if err := tone.Init(); err != nil {
			return nil, nil, err
		}
		if err := tone.Start(); err != nil {
			_ = tone.Close()
			return nil, nil, err
		}
		return tone, tone.Close, nil

	case config.OutputNone:
		return silentKeyer{logger: logger}, func() error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown output %q", s.Output)
}
