// internal/audio/sidetone.go
package audio

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	"github.com/ColonelBlimp/cwendec/internal/dsp"
)

// Sidetone plays a keyed tone on an output device. It satisfies cw.Keyer.
type Sidetone struct {
	config Config
	gen    *dsp.ToneGenerator
	logger *slog.Logger

	mu      sync.Mutex
	ctx     *malgo.AllocatedContext
	device  *malgo.Device
	running atomic.Bool
	keyDown atomic.Bool

	buf []float32 // scratch, audio thread only
}

// NewSidetone creates a sidetone player. gen must use cfg.SampleRate.
func NewSidetone(cfg Config, gen *dsp.ToneGenerator, logger *slog.Logger) *Sidetone {
	return &Sidetone{config: cfg, gen: gen, logger: logger}
}

// Init initializes the audio backend
func (s *Sidetone) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, err := initContext()
	if err != nil {
		return err
	}
	s.ctx = ctx
	return nil
}

// ListDevices returns available playback devices
func (s *Sidetone) ListDevices() ([]malgo.DeviceInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return listDevices(s.ctx, malgo.Playback)
}

// Start opens the playback device. The tone stays silent until SetKey(true).
func (s *Sidetone) Start() error {
	if s.running.Load() {
		return ErrAlreadyRunning
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return ErrNotInitialized
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.SampleRate = s.config.SampleRate
	deviceConfig.PeriodSizeInFrames = s.config.BufferSize
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = 1

	id, err := selectDevice(s.ctx, malgo.Playback, s.config.DeviceIndex)
	if err != nil {
		return err
	}
	if id != nil {
		deviceConfig.Playback.DeviceID = id.Pointer()
	}

	device, err := malgo.InitDevice(s.ctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: s.onSendFrames})
	if err != nil {
		return fmt.Errorf("init playback device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("start playback device: %w", err)
	}

	s.device = device
	s.running.Store(true)
	s.logger.Debug("sidetone started", "frequency", s.gen.Config().Frequency)
	return nil
}

func (s *Sidetone) onSendFrames(output, _ []byte, frameCount uint32) {
	n := int(frameCount)
	if cap(s.buf) < n {
		s.buf = make([]float32, n)
	}
	s.buf = s.buf[:n]
	s.gen.Fill(s.buf, s.keyDown.Load())
	float32ToBytes(output, s.buf)
}

// SetKey turns the tone on or off
func (s *Sidetone) SetKey(down bool) error {
	if !s.running.Load() {
		return ErrNotRunning
	}
	s.keyDown.Store(down)
	return nil
}

// Close stops playback and releases all audio resources
func (s *Sidetone) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.device != nil {
		_ = s.device.Stop()
		s.device.Uninit()
		s.device = nil
	}
	s.running.Store(false)
	s.keyDown.Store(false)

	err := freeContext(s.ctx)
	s.ctx = nil
	return err
}
