// internal/audio/device.go
package audio

import (
	"errors"
	"fmt"

	"github.com/gen2brain/malgo"
)

var (
	ErrNotInitialized = errors.New("audio device not initialized")
	ErrAlreadyRunning = errors.New("audio device already running")
	ErrNotRunning     = errors.New("audio device not running")
	ErrDeviceIndex    = errors.New("device index out of range")
)

// Config holds audio device configuration
type Config struct {
	DeviceIndex int    // -1 for default device
	SampleRate  uint32 // e.g., 48000
	BufferSize  uint32 // frames per callback
}

// DefaultConfig returns the defaults used for both capture and sidetone
func DefaultConfig() Config {
	return Config{
		DeviceIndex: -1,
		SampleRate:  48000,
		BufferSize:  512,
	}
}

// initContext initializes the audio backend
func initContext() (*malgo.AllocatedContext, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}
	return ctx, nil
}

// listDevices enumerates devices of the given kind
func listDevices(ctx *malgo.AllocatedContext, kind malgo.DeviceType) ([]malgo.DeviceInfo, error) {
	if ctx == nil {
		return nil, ErrNotInitialized
	}
	infos, err := ctx.Devices(kind)
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}
	return infos, nil
}

// selectDevice resolves a device index to an ID. A negative index selects
// the backend default and yields nil.
func selectDevice(ctx *malgo.AllocatedContext, kind malgo.DeviceType, index int) (*malgo.DeviceID, error) {
	if index < 0 {
		return nil, nil
	}
	devices, err := listDevices(ctx, kind)
	if err != nil {
		return nil, err
	}
	if index >= len(devices) {
		return nil, fmt.Errorf("%w: %d (have %d devices)", ErrDeviceIndex, index, len(devices))
	}
	return &devices[index].ID, nil
}

// freeContext releases the backend context
func freeContext(ctx *malgo.AllocatedContext) error {
	if ctx == nil {
		return nil
	}
	if err := ctx.Uninit(); err != nil {
		return fmt.Errorf("uninit context: %w", err)
	}
	ctx.Free()
	return nil
}
