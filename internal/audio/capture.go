// internal/audio/capture.go
package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
)

// Sink consumes captured mono samples (float32 normalized -1.0 to 1.0).
// It is called from the audio thread and must be non-blocking and fast.
type Sink interface {
	Process(samples []float32)
}

// Capture streams microphone or line-in audio into a Sink
type Capture struct {
	config Config
	logger *slog.Logger

	mu      sync.Mutex
	ctx     *malgo.AllocatedContext
	device  *malgo.Device
	running atomic.Bool
	sink    atomic.Pointer[sinkHolder]
}

type sinkHolder struct{ Sink }

// NewCapture creates a new audio capture instance
func NewCapture(cfg Config, logger *slog.Logger) *Capture {
	return &Capture{config: cfg, logger: logger}
}

// SetSink sets the consumer for captured samples. A nil sink discards audio.
func (c *Capture) SetSink(s Sink) {
	if s == nil {
		c.sink.Store(nil)
		return
	}
	c.sink.Store(&sinkHolder{s})
}

// Init initializes the audio backend
func (c *Capture) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, err := initContext()
	if err != nil {
		return err
	}
	c.ctx = ctx
	return nil
}

// ListDevices returns available capture devices
func (c *Capture) ListDevices() ([]malgo.DeviceInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return listDevices(c.ctx, malgo.Capture)
}

// Start begins audio capture. Capture stops when ctx is cancelled.
func (c *Capture) Start(ctx context.Context) error {
	if c.running.Load() {
		return ErrAlreadyRunning
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctx == nil {
		return ErrNotInitialized
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.SampleRate = c.config.SampleRate
	deviceConfig.PeriodSizeInFrames = c.config.BufferSize
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = 1

	id, err := selectDevice(c.ctx, malgo.Capture, c.config.DeviceIndex)
	if err != nil {
		return err
	}
	if id != nil {
		deviceConfig.Capture.DeviceID = id.Pointer()
	}

	onRecvFrames := func(_, inputSamples []byte, _ uint32) {
		if len(inputSamples) == 0 {
			return
		}
		if h := c.sink.Load(); h != nil {
			h.Process(bytesToFloat32(inputSamples))
		}
	}

	device, err := malgo.InitDevice(c.ctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onRecvFrames})
	if err != nil {
		return fmt.Errorf("init capture device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("start capture device: %w", err)
	}

	c.device = device
	c.running.Store(true)
	c.logger.Debug("audio capture started",
		"sample_rate", device.SampleRate(), "device_index", c.config.DeviceIndex)

	go func() {
		<-ctx.Done()
		_ = c.Stop()
	}()
	return nil
}

// Stop stops audio capture
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopLocked()
}

func (c *Capture) stopLocked() error {
	if !c.running.Load() {
		return ErrNotRunning
	}
	if c.device != nil {
		_ = c.device.Stop()
		c.device.Uninit()
		c.device = nil
	}
	c.running.Store(false)
	c.logger.Debug("audio capture stopped")
	return nil
}

// Close releases all audio resources
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.stopLocked()
	err := freeContext(c.ctx)
	c.ctx = nil
	return err
}

// IsRunning returns true if capture is active
func (c *Capture) IsRunning() bool {
	return c.running.Load()
}

// bytesToFloat32 converts little-endian F32 frames to samples
func bytesToFloat32(data []byte) []float32 {
	samples := make([]float32, len(data)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return samples
}

// float32ToBytes writes samples as little-endian F32 frames into dst
func float32ToBytes(dst []byte, samples []float32) {
	for i, s := range samples {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(s))
	}
}
