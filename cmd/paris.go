// cmd/paris.go
package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/cwendec/internal/clock"
	"github.com/ColonelBlimp/cwendec/internal/config"
	"github.com/ColonelBlimp/cwendec/internal/cw"
)

// parisWord is the standard word: 50 dot-units including its word gap
const parisWord = "PARIS "

var errParisCount = errors.New("count must be at least 1")

var parisCount int

var parisCmd = &cobra.Command{
	Use:   "paris",
	Short: "Send PARIS repeatedly and report the sending speed",
	Long: `Sends the standard word PARIS and measures how long it took, including
any group_delay_ms pause before each character. With output "none" the
timing is simulated and the result is immediate.`,
	Args: cobra.NoArgs,
	RunE: runParis,
}

func init() {
	parisCmd.Flags().IntVarP(&parisCount, "count", "n", 1, "number of times to send PARIS")
	rootCmd.AddCommand(parisCmd)
}

// measuredWPM converts the time taken for a number of PARIS words to WPM
func measuredWPM(words int, elapsedMs int64) float64 {
	if elapsedMs <= 0 {
		return 0
	}
	return float64(words) * 60000 / float64(elapsedMs)
}

func runParis(cmd *cobra.Command, _ []string) error {
	if parisCount < 1 {
		return errParisCount
	}
	s, logger, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	text := strings.Repeat(parisWord, parisCount)
	delay := int64(s.GroupDelayMs)

	var elapsed int64
	if s.Output == config.OutputNone {
		clk := clock.NewManual(0)
		enc := cw.NewEncoder(silentKeyer{logger: logger}, clk)
		enc.SetSpeed(s.SenderWPM())
		if err := simulate(clk, newTextSender(enc, clk, logger, text, delay).step); err != nil {
			return err
		}
		elapsed = clk.Millis()
	} else {
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
		interval := time.Duration(s.PollIntervalMs) * time.Millisecond
		if err := pollLoop(ctx, interval, newTextSender(enc, clk, logger, text, delay).step); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
		elapsed = clk.Millis()
	}

	fmt.Fprintf(cmd.OutOrStdout(), "PARIS x%d in %.2f s: %.1f wpm (set %d wpm)\n",
		parisCount, float64(elapsed)/1000, measuredWPM(parisCount, elapsed), s.SenderWPM())
	return nil
}
