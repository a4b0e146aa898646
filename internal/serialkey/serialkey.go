// Package serialkey reads key state from a serial line. The keying device
// sends one byte on key down and another on key up.
package serialkey

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tarm/serial"

	"github.com/ColonelBlimp/cwendec/internal/recovery"
)

// readTimeout bounds each read so Close is noticed promptly
const readTimeout = 100 * time.Millisecond

var (
	// ErrPortRequired indicates an empty port name
	ErrPortRequired = errors.New("serial port is required")
	// ErrInvalidBaud indicates a non-positive baud rate
	ErrInvalidBaud = errors.New("serial baud rate must be positive")
	// ErrSameKeyBytes indicates key down and key up use the same byte
	ErrSameKeyBytes = errors.New("key down and key up bytes must differ")
)

// Config describes the serial key line
type Config struct {
	Port    string // e.g. /dev/ttyUSB0
	Baud    int
	KeyDown byte
	KeyUp   byte
}

// Validate checks the configuration
func (c Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, ErrPortRequired)
	}
	if c.Baud <= 0 {
		errs = append(errs, ErrInvalidBaud)
	}
	if c.KeyDown == c.KeyUp {
		errs = append(errs, ErrSameKeyBytes)
	}
	return errors.Join(errs...)
}

// Key tracks the key state announced on a serial line. It satisfies
// input.Pin: Read reports true while the key is down.
type Key struct {
	cfg    Config
	port   io.ReadCloser
	logger *slog.Logger

	down   atomic.Bool
	closed atomic.Bool
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// Open opens the serial port and starts reading key events
func Open(cfg Config, logger *slog.Logger) (*Key, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Port,
		Baud:        cfg.Baud,
		ReadTimeout: readTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Port, err)
	}
	logger.Debug("serial key opened", "port", cfg.Port, "baud", cfg.Baud)
	return New(port, cfg, logger), nil
}

// New starts reading key events from an open port
func New(port io.ReadCloser, cfg Config, logger *slog.Logger) *Key {
	k := &Key{
		cfg:    cfg,
		port:   port,
		logger: logger,
		done:   make(chan struct{}),
	}
	recovery.Go(k.readLoop, func() { k.down.Store(false) })
	return k
}

func (k *Key) readLoop() {
	defer close(k.done)

	buf := make([]byte, 64)
	for !k.closed.Load() {
		n, err := k.port.Read(buf)
		for _, b := range buf[:n] {
			switch b {
			case k.cfg.KeyDown:
				k.down.Store(true)
			case k.cfg.KeyUp:
				k.down.Store(false)
			default:
				k.logger.Debug("serial key ignored byte", "byte", b)
			}
		}

		// A read timeout surfaces as io.EOF with no data
		if err == nil || errors.Is(err, io.EOF) {
			continue
		}
		if k.closed.Load() {
			return
		}

		k.mu.Lock()
		k.err = err
		k.mu.Unlock()
		k.down.Store(false)
		k.logger.Error("serial key read failed", "error", err)
		return
	}
}

// Read reports whether the key is down
func (k *Key) Read() bool {
	return k.down.Load()
}

// Done is closed when the reader stops
func (k *Key) Done() <-chan struct{} {
	return k.done
}

// Err returns the error that stopped the reader, if any
func (k *Key) Err() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.err
}

// Close stops the reader and closes the port
func (k *Key) Close() error {
	if k.closed.Swap(true) {
		return nil
	}
	err := k.port.Close()
	<-k.done
	k.down.Store(false)
	return err
}
