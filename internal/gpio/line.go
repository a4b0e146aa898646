// Package gpio connects a straight key or keyer to a GPIO character device
// line, and drives a transmitter keying line.
package gpio

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"syscall"

	"github.com/warthog618/go-gpiocdev"
)

// consumer labels the lines this program requests
const consumer = "cwendec"

var (
	// ErrInvalidOffset indicates a negative line offset
	ErrInvalidOffset = errors.New("gpio line offset must be non-negative")
	// ErrChipRequired indicates an empty chip name
	ErrChipRequired = errors.New("gpio chip name is required")
)

// Line is the subset of *gpiocdev.Line used here.
type Line interface {
	Value() (int, error)
	SetValue(value int) error
	Close() error
}

// LineConfig identifies one GPIO line.
type LineConfig struct {
	Chip   string // e.g. "gpiochip0"
	Offset int
}

func (c LineConfig) validate() error {
	if c.Chip == "" {
		return ErrChipRequired
	}
	if c.Offset < 0 {
		return ErrInvalidOffset
	}
	return nil
}

// requestLine wraps gpiocdev.RequestLine with a clearer error when the
// kernel rejects bias flags.
var requestLine = func(cfg LineConfig, options ...gpiocdev.LineReqOption) (Line, error) {
	options = append(options, gpiocdev.WithConsumer(consumer))
	l, err := gpiocdev.RequestLine(cfg.Chip, cfg.Offset, options...)
	if err != nil {
		if errors.Is(err, syscall.EINVAL) {
			return nil, fmt.Errorf("request %s:%d: %w (bias requires Linux 5.5 or later)", cfg.Chip, cfg.Offset, err)
		}
		return nil, fmt.Errorf("request %s:%d: %w", cfg.Chip, cfg.Offset, err)
	}
	return l, nil
}

// Input is a key contact on a GPIO line. It satisfies input.Pin; the level
// is reported raw and polarity is left to the input adapter.
type Input struct {
	line     Line
	idleHigh bool // level of the released key, reported while reads fail
	logger   *slog.Logger

	mu     sync.Mutex
	failed bool // a read error has been logged and not yet recovered
}

// OpenInput requests cfg as an input. pullUp biases the line high for a key
// that closes to ground.
func OpenInput(cfg LineConfig, pullUp bool, logger *slog.Logger) (*Input, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	options := []gpiocdev.LineReqOption{gpiocdev.AsInput}
	if pullUp {
		options = append(options, gpiocdev.WithPullUp)
	}
	l, err := requestLine(cfg, options...)
	if err != nil {
		return nil, err
	}
	logger.Debug("gpio input requested", "chip", cfg.Chip, "offset", cfg.Offset, "pull_up", pullUp)
	return NewInput(l, pullUp, logger), nil
}

// NewInput wraps an already requested line. idleHigh is the level of the
// line while the key is released.
func NewInput(l Line, idleHigh bool, logger *slog.Logger) *Input {
	return &Input{line: l, idleHigh: idleHigh, logger: logger}
}

// Read returns true for a high level. A failed read reports the released
// key level and is logged once until the line reads again.
func (i *Input) Read() bool {
	v, err := i.line.Value()

	i.mu.Lock()
	defer i.mu.Unlock()
	if err != nil {
		if !i.failed {
			i.logger.Warn("gpio read failed", "error", err)
			i.failed = true
		}
		return i.idleHigh
	}
	if i.failed {
		i.logger.Info("gpio read recovered")
		i.failed = false
	}
	return v != 0
}

// Close releases the line.
func (i *Input) Close() error {
	return i.line.Close()
}

// Output keys a transmitter through a GPIO line. It satisfies cw.Keyer.
type Output struct {
	line   Line
	logger *slog.Logger
}

// OpenOutput requests cfg as an output, initially key up. With activeLow
// the line is driven low while the key is down.
func OpenOutput(cfg LineConfig, activeLow bool, logger *slog.Logger) (*Output, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	options := []gpiocdev.LineReqOption{gpiocdev.AsOutput(0)}
	if activeLow {
		options = append(options, gpiocdev.AsActiveLow)
	}
	l, err := requestLine(cfg, options...)
	if err != nil {
		return nil, err
	}
	logger.Debug("gpio output requested", "chip", cfg.Chip, "offset", cfg.Offset, "active_low", activeLow)
	return NewOutput(l, logger), nil
}

// NewOutput wraps an already requested line.
func NewOutput(l Line, logger *slog.Logger) *Output {
	return &Output{line: l, logger: logger}
}

// SetKey drives the line active for key down.
func (o *Output) SetKey(down bool) error {
	v := 0
	if down {
		v = 1
	}
	if err := o.line.SetValue(v); err != nil {
		return fmt.Errorf("gpio set value: %w", err)
	}
	return nil
}

// Close releases the key and the line.
func (o *Output) Close() error {
	if err := o.line.SetValue(0); err != nil {
		o.logger.Warn("gpio release key failed", "error", err)
	}
	return o.line.Close()
}
