package tunnel

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// State is the supervisor's lifecycle state.
type State string

const (
	StateStopped  State = "stopped"
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateStopping State = "stopping"
)

// ExitReason describes why a reaped tunnel terminated
type ExitReason string

const (
	ExitReasonSuccess ExitReason = "success" // Exit code 0
	ExitReasonError   ExitReason = "error"   // Exit code != 0
	ExitReasonSignal  ExitReason = "signal"  // Killed by signal
	ExitReasonUnknown ExitReason = "unknown"
)

// ExitStatus is what one non-blocking reap observed. Reaped is false when
// the child had not exited yet; the other fields are then meaningless.
type ExitStatus struct {
	Reaped bool       `json:"reaped"`
	Code   int        `json:"exit_code"`
	Signal string     `json:"signal,omitempty"`
	Reason ExitReason `json:"exit_reason"`
}

func (e ExitStatus) String() string {
	switch {
	case !e.Reaped:
		return "still running"
	case e.Reason == ExitReasonSignal:
		return fmt.Sprintf("terminated by %s", e.Signal)
	default:
		return fmt.Sprintf("exit status %d", e.Code)
	}
}

// exitStatusFrom converts the status returned by wait4.
func exitStatusFrom(ws unix.WaitStatus) ExitStatus {
	status := ExitStatus{Reaped: true, Code: -1, Reason: ExitReasonUnknown}

	switch {
	case ws.Exited():
		status.Code = ws.ExitStatus()
		if status.Code == 0 {
			status.Reason = ExitReasonSuccess
		} else {
			status.Reason = ExitReasonError
		}
	case ws.Signaled():
		status.Signal = SignalName(ws.Signal())
		status.Reason = ExitReasonSignal
	}
	return status
}

// SignalName returns the signal name for a signal number
func SignalName(sig unix.Signal) string {
	switch sig {
	case unix.SIGKILL:
		return "SIGKILL"
	case unix.SIGTERM:
		return "SIGTERM"
	case unix.SIGINT:
		return "SIGINT"
	case unix.SIGHUP:
		return "SIGHUP"
	case unix.SIGQUIT:
		return "SIGQUIT"
	case unix.SIGABRT:
		return "SIGABRT"
	case unix.SIGSEGV:
		return "SIGSEGV"
	case unix.SIGPIPE:
		return "SIGPIPE"
	default:
		return fmt.Sprintf("SIG%d", int(sig))
	}
}
