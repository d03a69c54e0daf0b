package report

import (
	"fmt"
	"time"
)

// Result is the record of one tunnel run, from a successful Start to the
// Stop that ended it. Set once, never changed.
type Result struct {
	// Identity
	RunID      string `json:"run_id"`
	PID        int    `json:"pid"`
	ConfigPath string `json:"config_path"`

	// Timing
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	RuntimeSeconds float64   `json:"runtime_seconds"`

	// Outcome of the single reap attempt made by Stop
	Outcome  string `json:"outcome"`
	Exit     string `json:"exit"`
	ExitCode int    `json:"exit_code"`
}

// NewResult creates an immutable result
func NewResult(runID string, pid int, configPath string, startTime, endTime time.Time) *Result {
	return &Result{
		RunID:          runID,
		PID:            pid,
		ConfigPath:     configPath,
		StartTime:      startTime,
		EndTime:        endTime,
		RuntimeSeconds: endTime.Sub(startTime).Seconds(),
	}
}

// SetExit records what the reap observed. Call this ONCE at stop.
func (r *Result) SetExit(outcome, exit string, code int) {
	r.Outcome = outcome
	r.Exit = exit
	r.ExitCode = code
}

// Summary is the one-line form of the run, meant for grep.
func (r *Result) Summary() string {
	return fmt.Sprintf("TUNNEL %s | outcome=%s | exit=%s | runtime=%.0fs | pid=%d",
		r.RunID,
		r.Outcome,
		r.Exit,
		r.RuntimeSeconds,
		r.PID,
	)
}
