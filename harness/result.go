// Package harness manages execution of per-engine benchmark binaries.
package harness

import (
	"fmt"
	"time"
)

// CapturedRun holds the raw output of one engine invocation. Timings
// are extracted from Stdout afterwards; Stderr is kept verbatim for
// diagnostics.
type CapturedRun struct {
	Engine    string        `json:"engine"`
	Stdout    string        `json:"stdout"`
	Stderr    string        `json:"stderr"`
	ExitCode  int           `json:"exit_code"`
	Wall      time.Duration `json:"wall_ns"`
	DiskBytes uint64        `json:"disk_bytes"`
}

// RunError reports a failed engine invocation. ExitCode is -1 when the
// process never ran or was killed before exiting on its own. Stderr
// carries the captured engine output, or the spawn error when the
// process could not start.
type RunError struct {
	Engine   string
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
}

func (e *RunError) Error() string {
	switch {
	case e.TimedOut:
		return fmt.Sprintf("engine %s timed out", e.Engine)
	case e.ExitCode >= 0:
		return fmt.Sprintf(
			"engine %s exited with code %d", e.Engine, e.ExitCode,
		)
	default:
		return fmt.Sprintf("engine %s failed to start", e.Engine)
	}
}
