// cmd/send.go
package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/cwendec/internal/audio"
	"github.com/ColonelBlimp/cwendec/internal/clock"
	"github.com/ColonelBlimp/cwendec/internal/config"
	"github.com/ColonelBlimp/cwendec/internal/cw"
)

// wavPadMs is the silence around rendered recordings
const wavPadMs = 500

var sendWAVPath string

var errNothingToSend = errors.New("nothing to send")

var sendCmd = &cobra.Command{
	Use:   "send [text...]",
	Short: "Send text as Morse code",
	Long: `Keys the given text (or standard input, line by line) on the configured
output. With --wav the keying is rendered to a WAV file instead.`,
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVar(&sendWAVPath, "wav", "", "render to a WAV file instead of keying the output")
	rootCmd.AddCommand(sendCmd)
}

// normalizeText collapses whitespace runs into single word spaces
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func runSend(cmd *cobra.Command, args []string) error {
	s, logger, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	if sendWAVPath != "" {
		text := normalizeText(strings.Join(args, " "))
		if text == "" {
			b, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			text = normalizeText(string(b))
		}
		if text == "" {
			return errNothingToSend
		}
		return renderWAV(sendWAVPath, text, s, logger)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	keyer, release, err := openKeyer(s, logger)
	if err != nil {
		return err
	}
	defer release()

	clk := clock.NewSystem()
	enc := cw.NewEncoder(keyer, clk)
	enc.SetSpeed(s.SenderWPM())
	logger.Info("sending", "output", s.Output, "wpm", s.SenderWPM())

	if len(args) > 0 {
		return sendText(ctx, enc, clk, s, logger, normalizeText(strings.Join(args, " ")))
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		// A line break is a word break
		if err := sendText(ctx, enc, clk, s, logger, normalizeText(scanner.Text())+" "); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// sendText keys text in real time
func sendText(ctx context.Context, enc *cw.Encoder, clk clock.Clock, s *config.Settings, logger *slog.Logger, text string) error {
	sender := newTextSender(enc, clk, logger, text, 0)
	interval := time.Duration(s.PollIntervalMs) * time.Millisecond
	return pollLoop(ctx, interval, sender.step)
}

// renderWAV keys text against a simulated clock and writes the result
func renderWAV(path, text string, s *config.Settings, logger *slog.Logger) error {
	clk := clock.NewManual(0)
	track := audio.NewKeyTrack(clk)
	enc := cw.NewEncoder(track, clk)
	enc.SetSpeed(s.SenderWPM())

	if err := simulate(clk, newTextSender(enc, clk, logger, text, 0).step); err != nil {
		return err
	}

	gen, err := newToneGenerator(s, s.SampleRate)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}
	if err := audio.WriteWAV(f, track, gen, wavPadMs); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close wav: %w", err)
	}
	logger.Info("rendered", "path", path, "duration_ms", track.EndMs()-track.StartMs()+2*wavPadMs, "wpm", s.SenderWPM())
	return nil
}
