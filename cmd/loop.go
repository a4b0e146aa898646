// cmd/loop.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/fatih/color"

	"github.com/ColonelBlimp/cwendec/internal/clock"
	"github.com/ColonelBlimp/cwendec/internal/cw"
)

// pollLoop calls step every interval until it reports done, fails, or ctx
// is cancelled. Cancellation is not an error.
func pollLoop(ctx context.Context, interval time.Duration, step func() (bool, error)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		done, err := step()
		if err != nil || done {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// simulate runs step against a manual clock, one millisecond per call,
// until it reports done or fails.
func simulate(clk *clock.Manual, step func() (bool, error)) error {
	for {
		done, err := step()
		if err != nil || done {
			return err
		}
		clk.Advance(1)
	}
}

// textSender feeds text to an encoder one character at a time. Characters
// the table does not know are logged and skipped.
type textSender struct {
	enc    *cw.Encoder
	clk    clock.Clock
	logger *slog.Logger

	text      []rune
	pos       int
	delayMs   int64 // extra pause before each character
	idleSince int64 // when the encoder last became idle; -1 while busy
}

func newTextSender(enc *cw.Encoder, clk clock.Clock, logger *slog.Logger, text string, delayMs int64) *textSender {
	return &textSender{
		enc:       enc,
		clk:       clk,
		logger:    logger,
		text:      []rune(text),
		delayMs:   delayMs,
		idleSince: -1,
	}
}

// step advances the encoder and hands over the next character as soon as
// the previous one is finished. It reports done once all text has been sent.
func (t *textSender) step() (bool, error) {
	if !t.enc.Available() {
		if err := t.enc.Encode(); err != nil {
			return false, err
		}
		if !t.enc.Available() {
			return false, nil
		}
	}

	for t.pos < len(t.text) {
		if t.delayMs > 0 {
			now := t.clk.Millis()
			if t.idleSince < 0 {
				t.idleSince = now
			}
			if now-t.idleSince < t.delayMs {
				return false, nil
			}
		}

		r := t.text[t.pos]
		t.pos++
		if err := t.enc.Write(r); err != nil {
			if errors.Is(err, cw.ErrUnknownCharacter) {
				t.logger.Warn("skipping character", "char", string(r))
				continue
			}
			return false, err
		}
		t.idleSince = -1
		return false, t.enc.Encode()
	}
	return true, nil
}

// printer writes decoded characters, highlighting decode errors
type printer struct {
	w        io.Writer
	errColor *color.Color
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w, errColor: color.New(color.FgRed, color.Bold)}
}

func (p *printer) print(r rune) {
	if r == cw.ErrorMarker {
		_, _ = p.errColor.Fprint(p.w, string(r))
		return
	}
	_, _ = fmt.Fprint(p.w, string(r))
}

// stateLogger logs decoder phase changes at debug level
type stateLogger struct {
	logger *slog.Logger
	last   cw.DecoderState
}

func (s *stateLogger) observe(st cw.DecoderState) {
	if st == s.last {
		return
	}
	s.last = st
	s.logger.Debug("decoder state", "state", st)
}
