package audio

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingSink struct {
	mu      sync.Mutex
	batches [][]float32
}

func (s *recordingSink) Process(samples []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, samples)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.DeviceIndex != -1 {
		t.Errorf("DefaultConfig().DeviceIndex = %d, want -1", cfg.DeviceIndex)
	}
	if cfg.SampleRate != 48000 {
		t.Errorf("DefaultConfig().SampleRate = %d, want 48000", cfg.SampleRate)
	}
	if cfg.BufferSize != 512 {
		t.Errorf("DefaultConfig().BufferSize = %d, want 512", cfg.BufferSize)
	}
}

func TestCapture_InitialState(t *testing.T) {
	capture := NewCapture(DefaultConfig(), testLogger())

	if capture.IsRunning() {
		t.Error("IsRunning() = true for new capture, want false")
	}
	if capture.sink.Load() != nil {
		t.Error("new capture has a sink")
	}
}

func TestCapture_SetSink(t *testing.T) {
	capture := NewCapture(DefaultConfig(), testLogger())
	sink := &recordingSink{}

	capture.SetSink(sink)
	h := capture.sink.Load()
	if h == nil {
		t.Fatal("SetSink() did not set sink")
	}
	h.Process([]float32{0.25})
	if len(sink.batches) != 1 {
		t.Errorf("sink received %d batches, want 1", len(sink.batches))
	}

	capture.SetSink(nil)
	if capture.sink.Load() != nil {
		t.Error("SetSink(nil) should clear sink")
	}
}

func TestCapture_NotInitialized(t *testing.T) {
	capture := NewCapture(DefaultConfig(), testLogger())

	if _, err := capture.ListDevices(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("ListDevices() error = %v, want ErrNotInitialized", err)
	}
	if err := capture.Start(context.Background()); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Start() error = %v, want ErrNotInitialized", err)
	}
}

func TestCapture_Start_AlreadyRunning(t *testing.T) {
	capture := NewCapture(DefaultConfig(), testLogger())
	capture.running.Store(true)

	if err := capture.Start(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("Start() when running error = %v, want ErrAlreadyRunning", err)
	}
}

func TestCapture_Stop_NotRunning(t *testing.T) {
	capture := NewCapture(DefaultConfig(), testLogger())

	if err := capture.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Stop() error = %v, want ErrNotRunning", err)
	}
}

func TestCapture_Close_NotInitialized(t *testing.T) {
	capture := NewCapture(DefaultConfig(), testLogger())

	if err := capture.Close(); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}
}

func TestBytesToFloat32(t *testing.T) {
	tests := []struct {
		name  string
		bytes []byte
		want  []float32
	}{
		{"empty", []byte{}, []float32{}},
		{"partial sample", []byte{0x00, 0x00, 0x80}, []float32{}},
		{"one", []byte{0x00, 0x00, 0x80, 0x3F}, []float32{1.0}},
		{"extra bytes", []byte{0x00, 0x00, 0x80, 0x3F, 0xFF}, []float32{1.0}},
		{
			name: "several",
			bytes: []byte{
				0x00, 0x00, 0x00, 0x00, // 0.0
				0x00, 0x00, 0x00, 0x3F, // 0.5
				0x00, 0x00, 0x80, 0xBF, // -1.0
			},
			want: []float32{0.0, 0.5, -1.0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := bytesToFloat32(tt.bytes)
			if len(got) != len(tt.want) {
				t.Fatalf("length = %d, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("[%d] = %f, want %f", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFloat32ToBytes(t *testing.T) {
	samples := []float32{0.0, 1.0, -0.5, 0.123}
	buf := make([]byte, len(samples)*4)
	float32ToBytes(buf, samples)

	if buf[6] != 0x80 || buf[7] != 0x3F {
		t.Errorf("1.0 encoded as % X, want 00 00 80 3F", buf[4:8])
	}

	got := bytesToFloat32(buf)
	for i := range samples {
		if got[i] != samples[i] {
			t.Errorf("[%d] = %f, want %f", i, got[i], samples[i])
		}
	}
}
