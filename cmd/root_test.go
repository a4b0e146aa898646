package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// setupCmdTest isolates a command run: fresh viper, empty home and working
// directory, no colors, and all flags back at their defaults afterwards.
func setupCmdTest(t *testing.T) string {
	t.Helper()
	viper.Reset()

	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", "")

	origDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir: %v", err)
	}

	noColor := color.NoColor
	color.NoColor = true

	t.Cleanup(func() {
		color.NoColor = noColor
		resetFlags()
		viper.Reset()
		if err := os.Chdir(origDir); err != nil {
			t.Logf("failed to restore dir: %v", err)
		}
	})
	return tmpDir
}

// resetFlags returns every flag of the command tree to its default
func resetFlags() {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	rootCmd.PersistentFlags().VisitAll(reset)
	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(reset)
	}
	rootCmd.SetIn(nil)
}

// writeConfig writes a config.yaml into the working directory
func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
}

// execute runs the root command and returns what it wrote to stdout and stderr
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCmd_HasExpectedFlags(t *testing.T) {
	flags := rootCmd.PersistentFlags()

	tests := []struct {
		name      string
		shorthand string
		defValue  string
	}{
		{"wpm", "w", "13"},
		{"input", "i", "gpio"},
		{"output", "o", "sidetone"},
		{"debug", "D", "false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := flags.Lookup(tt.name)
			if flag == nil {
				t.Fatalf("flag %q not found", tt.name)
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("flag %q shorthand = %q, want %q", tt.name, flag.Shorthand, tt.shorthand)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("flag %q default = %q, want %q", tt.name, flag.DefValue, tt.defValue)
			}
			if flag.Usage == "" {
				t.Errorf("flag %q has no description", tt.name)
			}
		})
	}
}

func TestRootCmd_Properties(t *testing.T) {
	if rootCmd.Use != "cwendec" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "cwendec")
	}
	if rootCmd.Short == "" {
		t.Error("rootCmd.Short is empty")
	}
	if rootCmd.Long == "" {
		t.Error("rootCmd.Long is empty")
	}
}

func TestRootCmd_Subcommands(t *testing.T) {
	for _, name := range []string{"decode", "send", "train", "paris", "table", "devices"} {
		t.Run(name, func(t *testing.T) {
			c, _, err := rootCmd.Find([]string{name})
			if err != nil {
				t.Fatalf("Find(%q) error = %v", name, err)
			}
			if c.Name() != name {
				t.Errorf("Find(%q) = %q", name, c.Name())
			}
			if c.Short == "" {
				t.Errorf("%s has no short description", name)
			}
		})
	}
}

func TestRootCmd_HelpOutput(t *testing.T) {
	setupCmdTest(t)

	out, _, err := execute(t, "--help")
	if err != nil {
		t.Fatalf("Execute() with --help error = %v", err)
	}
	for _, want := range []string{"cwendec", "--wpm", "decode", "send"} {
		if !strings.Contains(out, want) {
			t.Errorf("help output should contain %q", want)
		}
	}
}

func TestInitConfig(t *testing.T) {
	dir := setupCmdTest(t)
	writeConfig(t, dir, "wpm: 20")

	initConfig()

	if viper.GetInt("wpm") != 20 {
		t.Errorf("viper.GetInt(wpm) = %d, want 20", viper.GetInt("wpm"))
	}
}

func TestInitConfig_CreatesDefault(t *testing.T) {
	home := setupCmdTest(t)

	initConfig()

	if _, err := os.Stat(filepath.Join(home, ".config", "cwendec", "config.yaml")); err != nil {
		t.Errorf("default config not created: %v", err)
	}
}

func TestFlagOverridesConfig(t *testing.T) {
	dir := setupCmdTest(t)
	writeConfig(t, dir, "wpm: 20\noutput: none")

	out, _, err := execute(t, "paris", "--wpm", "24")
	if err != nil {
		t.Fatalf("paris error = %v", err)
	}
	if !strings.Contains(out, "set 24 wpm") {
		t.Errorf("output = %q, want the flag speed", out)
	}
}

func TestInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantErr string
	}{
		{"speed out of range", "wpm: 100\noutput: none", "wpm"},
		{"bad threshold", "threshold: 2.0\noutput: none", "threshold"},
		{"unknown output", "output: lamp", "output"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := setupCmdTest(t)
			writeConfig(t, dir, tt.config)

			_, _, err := execute(t, "paris")
			if err == nil {
				t.Fatal("expected error for invalid config, got nil")
			}
			if !strings.Contains(err.Error(), "invalid config") || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want config error mentioning %q", err, tt.wantErr)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	newLogger(&buf, false).Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug message logged without debug: %q", buf.String())
	}

	newLogger(&buf, true).Debug("shown", "key", 1)
	if !strings.Contains(buf.String(), "shown") || !strings.Contains(buf.String(), "key=1") {
		t.Errorf("log output = %q", buf.String())
	}
}
