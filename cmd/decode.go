// cmd/decode.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/cwendec/internal/audio"
	"github.com/ColonelBlimp/cwendec/internal/clock"
	"github.com/ColonelBlimp/cwendec/internal/config"
	"github.com/ColonelBlimp/cwendec/internal/cw"
	"github.com/ColonelBlimp/cwendec/internal/dsp"
)

var decodeWAVPath string

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode Morse code from the configured input",
	Long: `Decodes Morse code from the configured input and prints the text until
interrupted. With --wav a recording is decoded instead, as fast as possible.`,
	Args: cobra.NoArgs,
	RunE: runDecode,
}

func init() {
	decodeCmd.Flags().StringVar(&decodeWAVPath, "wav", "", "decode a WAV recording instead of the live input")
	rootCmd.AddCommand(decodeCmd)
}

func runDecode(cmd *cobra.Command, _ []string) error {
	s, logger, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	out := newPrinter(cmd.OutOrStdout())
	defer fmt.Fprintln(cmd.OutOrStdout())

	if decodeWAVPath != "" {
		return decodeWAV(decodeWAVPath, s, logger, out)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return decodeLive(ctx, s, logger, out)
}

func decodeLive(ctx context.Context, s *config.Settings, logger *slog.Logger, out *printer) error {
	src, err := openSource(ctx, s, logger)
	if err != nil {
		return err
	}
	defer src.Close()

	dec := cw.NewDecoder(src, clock.NewSystem())
	dec.SetSpeed(s.WPM)
	states := &stateLogger{logger: logger}
	logger.Info("decoding", "input", s.Input, "wpm", s.WPM)

	interval := time.Duration(s.PollIntervalMs) * time.Millisecond
	return pollLoop(ctx, interval, func() (bool, error) {
		if err := src.Err(); err != nil {
			return false, err
		}
		dec.Decode()
		states.observe(dec.State())
		if dec.Available() {
			out.print(dec.Read())
		}
		return false, nil
	})
}

// decodeWAV replays a recording through the level meter against a
// simulated clock.
func decodeWAV(path string, s *config.Settings, logger *slog.Logger, out *printer) error {
	r, err := audio.OpenWAV(path)
	if err != nil {
		return err
	}
	defer r.Close()

	meter, err := dsp.NewLevelMeter(dsp.LevelConfig{SampleRate: float64(r.SampleRate()), WindowMs: s.LevelWindowMs})
	if err != nil {
		return err
	}
	src, err := newThresholdAdapter(meter, s)
	if err != nil {
		return err
	}

	clk := clock.NewManual(0)
	dec := cw.NewDecoder(src, clk)
	dec.SetSpeed(s.WPM)
	states := &stateLogger{logger: logger}
	logger.Debug("decoding recording", "path", path, "sample_rate", r.SampleRate())

	// Keep polling past the end so the last character and word close
	tailMs := 2 * dec.Timing().WordMs
	return simulate(clk, func() (bool, error) {
		samples, err := r.Advance(clk.Millis())
		switch {
		case errors.Is(err, io.EOF):
			tailMs--
		case err != nil:
			return false, err
		}
		meter.Process(samples)
		dec.Decode()
		states.observe(dec.State())
		if dec.Available() {
			out.print(dec.Read())
		}
		return tailMs <= 0, nil
	})
}
