// internal/recovery/recovery.go
package recovery

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
)

// Overridden in tests.
var (
	output io.Writer = os.Stderr
	exit             = os.Exit
)

func report(r any) {
	_, _ = fmt.Fprintf(output, "FATAL: %v\n\nStack trace:\n%s\n", r, debug.Stack())
}

// HandlePanic should be deferred at the top of main().
// It prints the panic and stack trace and exits with code 1.
func HandlePanic() {
	if r := recover(); r != nil {
		report(r)
		exit(1)
	}
}

// HandlePanicFunc is HandlePanic with a cleanup step (release a key line,
// close a device) run before exiting.
func HandlePanicFunc(cleanup func()) {
	if r := recover(); r != nil {
		report(r)
		if cleanup != nil {
			cleanup()
		}
		exit(1)
	}
}

// Go runs fn on a new goroutine guarded by HandlePanicFunc(cleanup).
// A panic in a background reader must not leave the transmitter keyed.
func Go(fn func(), cleanup func()) {
	go func() {
		defer HandlePanicFunc(cleanup)
		fn()
	}()
}
