// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/ColonelBlimp/cwendec/internal/cw"
	"github.com/ColonelBlimp/cwendec/internal/trainer"
)

const (
	AppName       = "cwendec"
	ConfigType    = "yaml"
	DefaultConfig = `# CW Encoder/Decoder Configuration

# Speed
wpm: 13                 # Decoding speed in words per minute
send_wpm: 0             # Sending speed, 0 = same as wpm

# Input: gpio, serial or audio
input: "gpio"
gpio_chip: "gpiochip0"  # GPIO character device (use 'gpiodetect' to find)
key_pin: 17             # Line offset of the key input
active_low: true        # Key closes to ground; enables the line pull-up
debounce_ms: 20         # Key level must persist this long to be accepted (less than a dot)

# Serial key line
serial_port: "/dev/ttyUSB0"
serial_baud: 9600
serial_key_down: "1"    # Byte sent by the device on key down
serial_key_up: "0"      # Byte sent by the device on key up

# Audio input (threshold mode)
device_index: -1        # -1 for default device
sample_rate: 48000      # Audio sample rate in Hz
buffer_size: 512        # Frames per audio callback
threshold: 0.1          # RMS level (0.0-1.0) that counts as signal
level_window_ms: 5      # RMS averaging window

# Output: gpio, sidetone or none
output: "sidetone"
out_pin: 27             # Line offset of the transmitter key output
tone_frequency: 700     # Sidetone pitch in Hz
tone_ramp_ms: 5         # Sidetone rise/fall time, avoids key clicks

# Poll loop
poll_interval_ms: 2     # Must be less than half a dot at the configured speeds

# Trainer
char_set: "koch"        # letters, numbers, punctuation, all or koch
group_size: 5           # Characters per group
koch_count: 5           # Koch characters in use
koch_skip: 0            # Koch characters to leave out from the start
group_delay_ms: 0       # Extra pause before each character of a group

# Output
debug: false            # Enable debug logging
`
)

// Settings holds all application configuration
type Settings struct {
	// Speed
	WPM     int `mapstructure:"wpm"`
	SendWPM int `mapstructure:"send_wpm"`

	// Input
	Input      string `mapstructure:"input"`
	GPIOChip   string `mapstructure:"gpio_chip"`
	KeyPin     int    `mapstructure:"key_pin"`
	ActiveLow  bool   `mapstructure:"active_low"`
	DebounceMs int    `mapstructure:"debounce_ms"`

	// Serial key line
	SerialPort    string `mapstructure:"serial_port"`
	SerialBaud    int    `mapstructure:"serial_baud"`
	SerialKeyDown string `mapstructure:"serial_key_down"`
	SerialKeyUp   string `mapstructure:"serial_key_up"`

	// Audio input
	DeviceIndex   int     `mapstructure:"device_index"`
	SampleRate    float64 `mapstructure:"sample_rate"`
	BufferSize    int     `mapstructure:"buffer_size"`
	Threshold     float64 `mapstructure:"threshold"`
	LevelWindowMs int     `mapstructure:"level_window_ms"`

	// Output
	Output        string  `mapstructure:"output"`
	OutPin        int     `mapstructure:"out_pin"`
	ToneFrequency float64 `mapstructure:"tone_frequency"`
	ToneRampMs    int     `mapstructure:"tone_ramp_ms"`

	// Poll loop
	PollIntervalMs int `mapstructure:"poll_interval_ms"`

	// Trainer
	CharSet      string `mapstructure:"char_set"`
	GroupSize    int    `mapstructure:"group_size"`
	KochCount    int    `mapstructure:"koch_count"`
	KochSkip     int    `mapstructure:"koch_skip"`
	GroupDelayMs int    `mapstructure:"group_delay_ms"`

	Debug bool `mapstructure:"debug"`
}

// Input sources
const (
	InputGPIO   = "gpio"
	InputSerial = "serial"
	InputAudio  = "audio"
)

// Output sinks
const (
	OutputGPIO     = "gpio"
	OutputSidetone = "sidetone"
	OutputNone     = "none"
)

// Init initializes Viper with defaults and config file.
// Config file search order: current directory, then ~/.config/cwendec/
func Init() error {
	viper.SetDefault("wpm", cw.DefaultWPM)
	viper.SetDefault("send_wpm", 0)
	viper.SetDefault("input", InputGPIO)
	viper.SetDefault("gpio_chip", "gpiochip0")
	viper.SetDefault("key_pin", 17)
	viper.SetDefault("active_low", true)
	viper.SetDefault("debounce_ms", 20)
	viper.SetDefault("serial_port", "/dev/ttyUSB0")
	viper.SetDefault("serial_baud", 9600)
	viper.SetDefault("serial_key_down", "1")
	viper.SetDefault("serial_key_up", "0")
	viper.SetDefault("device_index", -1)
	viper.SetDefault("sample_rate", 48000)
	viper.SetDefault("buffer_size", 512)
	viper.SetDefault("threshold", 0.1)
	viper.SetDefault("level_window_ms", 5)
	viper.SetDefault("output", OutputSidetone)
	viper.SetDefault("out_pin", 27)
	viper.SetDefault("tone_frequency", 700)
	viper.SetDefault("tone_ramp_ms", 5)
	viper.SetDefault("poll_interval_ms", 2)
	viper.SetDefault("char_set", string(trainer.Koch))
	viper.SetDefault("group_size", 5)
	viper.SetDefault("koch_count", 5)
	viper.SetDefault("koch_skip", 0)
	viper.SetDefault("group_delay_ms", 0)
	viper.SetDefault("debug", false)

	viper.SetConfigType(ConfigType)

	// Priority order: current directory first, then XDG config
	viper.AddConfigPath(".")

	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	viper.AddConfigPath(filepath.Join(configDir, AppName))

	// Try .config.yaml first (hidden file), then config.yaml
	viper.SetConfigName(".config")
	if err = viper.ReadInConfig(); err != nil {
		viper.SetConfigName("config")
		err = viper.ReadInConfig()
	}

	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("read config: %w", err)
		}
		// No config found - create default in ~/.config/cwendec/
		if err = ensureConfigExists(filepath.Join(configDir, AppName)); err != nil {
			return err
		}
		if err = viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}

	return nil
}

func ensureConfigExists(configPath string) error {
	configFile := filepath.Join(configPath, "config.yaml")

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err = os.MkdirAll(configPath, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
		if err = os.WriteFile(configFile, []byte(DefaultConfig), 0644); err != nil {
			return fmt.Errorf("write default config: %w", err)
		}
	}
	return nil
}

// Get returns the current settings
func Get() (*Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &s, nil
}

// SenderWPM returns the sending speed, falling back to the decoding speed
func (s *Settings) SenderWPM() int {
	if s.SendWPM > 0 {
		return s.SendWPM
	}
	return s.WPM
}

// SerialKeyBytes returns the key down and key up bytes of the serial line
func (s *Settings) SerialKeyBytes() (down, up byte) {
	if s.SerialKeyDown != "" {
		down = s.SerialKeyDown[0]
	}
	if s.SerialKeyUp != "" {
		up = s.SerialKeyUp[0]
	}
	return down, up
}

// Validate checks that all settings are within acceptable ranges
func (s *Settings) Validate() error {
	var errs []error

	// Speed
	if s.WPM < 1 || s.WPM > 60 {
		errs = append(errs, fmt.Errorf("wpm must be between 1 and 60, got %d", s.WPM))
	}
	if s.SendWPM < 0 || s.SendWPM > 60 {
		errs = append(errs, fmt.Errorf("send_wpm must be between 0 and 60, got %d", s.SendWPM))
	}

	// Input
	switch s.Input {
	case InputGPIO, InputSerial, InputAudio:
	default:
		errs = append(errs, fmt.Errorf("input must be one of gpio, serial, audio, got %q", s.Input))
	}
	if s.GPIOChip == "" {
		errs = append(errs, errors.New("gpio_chip must not be empty"))
	}
	if s.KeyPin < 0 {
		errs = append(errs, fmt.Errorf("key_pin must be non-negative, got %d", s.KeyPin))
	}
	if s.DebounceMs < 0 || s.DebounceMs > 100 {
		errs = append(errs, fmt.Errorf("debounce_ms must be between 0 and 100, got %d", s.DebounceMs))
	}

	// Serial key line
	if s.Input == InputSerial && s.SerialPort == "" {
		errs = append(errs, errors.New("serial_port must be set for serial input"))
	}
	if s.SerialBaud <= 0 {
		errs = append(errs, fmt.Errorf("serial_baud must be positive, got %d", s.SerialBaud))
	}
	if len(s.SerialKeyDown) != 1 || len(s.SerialKeyUp) != 1 {
		errs = append(errs, fmt.Errorf("serial_key_down and serial_key_up must be single bytes, got %q and %q", s.SerialKeyDown, s.SerialKeyUp))
	} else if s.SerialKeyDown == s.SerialKeyUp {
		errs = append(errs, fmt.Errorf("serial_key_down and serial_key_up must differ, both %q", s.SerialKeyDown))
	}

	// Audio
	if s.SampleRate < 8000 || s.SampleRate > 192000 {
		errs = append(errs, fmt.Errorf("sample_rate must be between 8000 and 192000 Hz, got %v", s.SampleRate))
	}
	if s.BufferSize < 64 || s.BufferSize > 8192 {
		errs = append(errs, fmt.Errorf("buffer_size must be between 64 and 8192, got %d", s.BufferSize))
	}
	if s.BufferSize&(s.BufferSize-1) != 0 {
		errs = append(errs, fmt.Errorf("buffer_size should be a power of 2, got %d", s.BufferSize))
	}
	if s.Threshold <= 0.0 || s.Threshold > 1.0 {
		errs = append(errs, fmt.Errorf("threshold must be greater than 0.0 and at most 1.0, got %v", s.Threshold))
	}
	if s.LevelWindowMs < 1 || s.LevelWindowMs > 50 {
		errs = append(errs, fmt.Errorf("level_window_ms must be between 1 and 50, got %d", s.LevelWindowMs))
	}

	// Output
	switch s.Output {
	case OutputGPIO, OutputSidetone, OutputNone:
	default:
		errs = append(errs, fmt.Errorf("output must be one of gpio, sidetone, none, got %q", s.Output))
	}
	if s.OutPin < 0 {
		errs = append(errs, fmt.Errorf("out_pin must be non-negative, got %d", s.OutPin))
	}
	if s.Input == InputGPIO && s.Output == OutputGPIO && s.OutPin == s.KeyPin {
		errs = append(errs, fmt.Errorf("out_pin and key_pin must differ, both %d", s.KeyPin))
	}
	if s.ToneFrequency < 100 || s.ToneFrequency > 3000 {
		errs = append(errs, fmt.Errorf("tone_frequency must be between 100 and 3000 Hz, got %v", s.ToneFrequency))
	}
	if s.ToneRampMs < 0 || s.ToneRampMs > 20 {
		errs = append(errs, fmt.Errorf("tone_ramp_ms must be between 0 and 20, got %d", s.ToneRampMs))
	}

	// Nyquist check: tone frequency must be less than half the sample rate
	if s.ToneFrequency >= s.SampleRate/2 {
		errs = append(errs, fmt.Errorf("tone_frequency (%v Hz) must be less than Nyquist frequency (%v Hz)", s.ToneFrequency, s.SampleRate/2))
	}

	// The state machines need several polls per dot
	if s.PollIntervalMs < 1 {
		errs = append(errs, fmt.Errorf("poll_interval_ms must be at least 1, got %d", s.PollIntervalMs))
	} else if fastest := max(s.WPM, s.SenderWPM()); fastest >= 1 {
		half := cw.NewTiming(fastest).DotMs / 2
		if int64(s.PollIntervalMs) >= half {
			errs = append(errs, fmt.Errorf("poll_interval_ms (%d) must be less than half a dot (%d ms at %d wpm)", s.PollIntervalMs, half, fastest))
		}
	}

	// A key level must settle well within one dot
	if s.Input == InputGPIO || s.Input == InputSerial {
		if fastest := max(s.WPM, s.SenderWPM()); fastest >= 1 {
			dot := cw.NewTiming(fastest).DotMs
			if int64(s.DebounceMs) >= dot {
				errs = append(errs, fmt.Errorf("debounce_ms (%d) must be less than a dot (%d ms at %d wpm)", s.DebounceMs, dot, fastest))
			}
		}
	}

	// Trainer
	cs, err := trainer.ParseCharSet(s.CharSet)
	if err != nil {
		errs = append(errs, fmt.Errorf("char_set: %w", err))
	}
	if s.GroupSize < 1 || s.GroupSize > trainer.MaxGroupSize {
		errs = append(errs, fmt.Errorf("group_size must be between 1 and %d, got %d", trainer.MaxGroupSize, s.GroupSize))
	}
	if cs == trainer.Koch {
		if _, err := trainer.Characters(cs, s.KochCount, s.KochSkip); err != nil {
			errs = append(errs, fmt.Errorf("koch_count/koch_skip: %w", err))
		}
	}
	if s.GroupDelayMs < 0 || s.GroupDelayMs > 5000 {
		errs = append(errs, fmt.Errorf("group_delay_ms must be between 0 and 5000, got %d", s.GroupDelayMs))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
