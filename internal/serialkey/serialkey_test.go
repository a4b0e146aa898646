package serialkey

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

var testConfig = Config{Port: "/dev/null", Baud: 9600, KeyDown: '1', KeyUp: '0'}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// waitFor polls cond for up to a second
func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{"valid", func(*Config) {}, nil},
		{"no port", func(c *Config) { c.Port = "" }, ErrPortRequired},
		{"zero baud", func(c *Config) { c.Baud = 0 }, ErrInvalidBaud},
		{"same bytes", func(c *Config) { c.KeyUp = c.KeyDown }, ErrSameKeyBytes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateJoinsErrors(t *testing.T) {
	err := Config{}.Validate()
	for _, want := range []error{ErrPortRequired, ErrInvalidBaud, ErrSameKeyBytes} {
		if !errors.Is(err, want) {
			t.Errorf("Validate() error = %v, missing %v", err, want)
		}
	}
}

func TestOpen_InvalidConfig(t *testing.T) {
	if _, err := Open(Config{}, testLogger()); !errors.Is(err, ErrPortRequired) {
		t.Errorf("Open() error = %v, want ErrPortRequired", err)
	}
}

func TestKey_FollowsBytes(t *testing.T) {
	r, w := io.Pipe()
	key := New(r, testConfig, testLogger())
	defer key.Close()

	if key.Read() {
		t.Error("Read() = true before any byte")
	}

	_, _ = w.Write([]byte("1"))
	waitFor(t, key.Read, "key down")

	// Unknown bytes leave the state alone; the last event wins
	_, _ = w.Write([]byte("x10"))
	waitFor(t, func() bool { return !key.Read() }, "key up")
}

func TestKey_ReadErrorReleasesKey(t *testing.T) {
	r, w := io.Pipe()
	key := New(r, testConfig, testLogger())

	_, _ = w.Write([]byte("1"))
	waitFor(t, key.Read, "key down")

	cause := errors.New("cable pulled")
	_ = w.CloseWithError(cause)

	select {
	case <-key.Done():
	case <-time.After(time.Second):
		t.Fatal("reader did not stop")
	}
	if !errors.Is(key.Err(), cause) {
		t.Errorf("Err() = %v, want %v", key.Err(), cause)
	}
	if key.Read() {
		t.Error("Read() = true after read failure")
	}
	_ = key.Close()
}

func TestKey_Close(t *testing.T) {
	r, w := io.Pipe()
	key := New(r, testConfig, testLogger())

	_, _ = w.Write([]byte("1"))
	waitFor(t, key.Read, "key down")

	if err := key.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if key.Read() {
		t.Error("Read() = true after Close")
	}
	if key.Err() != nil {
		t.Errorf("Err() = %v after Close, want nil", key.Err())
	}
	// Second close is a no-op
	if err := key.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
