package main

import (
	"os"
	"os/exec"
	"strings"
	"testing"
)

// TestMain_Table runs the binary entry point in a subprocess, since
// cmd.Execute exits the process on failure.
func TestMain_Table(t *testing.T) {
	if os.Getenv("CWENDEC_RUN_MAIN") == "1" {
		os.Args = []string{"cwendec", "table"}
		main()
		return
	}

	home := t.TempDir()
	cmd := exec.Command(os.Args[0], "-test.run=TestMain_Table")
	cmd.Dir = home
	cmd.Env = append(os.Environ(), "CWENDEC_RUN_MAIN=1", "HOME="+home, "XDG_CONFIG_HOME=")
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("subprocess failed: %v", err)
	}
	if !strings.Contains(string(out), "S  ...") {
		t.Errorf("table output missing S, got %q", out)
	}
}

func TestMain_UnknownCommand(t *testing.T) {
	if os.Getenv("CWENDEC_RUN_MAIN") == "2" {
		os.Args = []string{"cwendec", "transmit"}
		main()
		return
	}

	home := t.TempDir()
	cmd := exec.Command(os.Args[0], "-test.run=TestMain_UnknownCommand")
	cmd.Dir = home
	cmd.Env = append(os.Environ(), "CWENDEC_RUN_MAIN=2", "HOME="+home, "XDG_CONFIG_HOME=")
	err := cmd.Run()
	if e, ok := err.(*exec.ExitError); !ok || e.ExitCode() != 1 {
		t.Errorf("exit = %v, want exit status 1", err)
	}
}
