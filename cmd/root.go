// cmd/root.go
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ColonelBlimp/cwendec/internal/config"
	"github.com/ColonelBlimp/cwendec/internal/cw"
)

var rootCmd = &cobra.Command{
	Use:   "cwendec",
	Short: "CW (Morse code) encoder and decoder",
	Long: `Decodes Morse code from a keyer line, a serial key or audio, and keys
text out through a GPIO line or a sidetone. Includes a copy trainer and a
PARIS speed test.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags (override config file)
	rootCmd.PersistentFlags().IntP("wpm", "w", cw.DefaultWPM, "speed in words per minute")
	rootCmd.PersistentFlags().StringP("input", "i", config.InputGPIO, "signal input: gpio, serial or audio")
	rootCmd.PersistentFlags().StringP("output", "o", config.OutputSidetone, "key output: gpio, sidetone or none")
	rootCmd.PersistentFlags().BoolP("debug", "D", false, "enable debug output")
}

// bindFlags connects the global flags to viper keys. It runs on every
// initialization because viper may have been reset since the last one.
func bindFlags() {
	flags := rootCmd.PersistentFlags()
	_ = viper.BindPFlag("wpm", flags.Lookup("wpm"))
	_ = viper.BindPFlag("input", flags.Lookup("input"))
	_ = viper.BindPFlag("output", flags.Lookup("output"))
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))
}

func initConfig() {
	bindFlags()
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger returns a text logger writing to w
func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadSettings reads the validated configuration and builds the logger
func loadSettings(cmd *cobra.Command) (*config.Settings, *slog.Logger, error) {
	s, err := config.Get()
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(cmd.ErrOrStderr(), s.Debug)
	logger.Debug("configuration loaded",
		"wpm", s.WPM, "send_wpm", s.SenderWPM(), "input", s.Input, "output", s.Output)
	return s, logger, nil
}
