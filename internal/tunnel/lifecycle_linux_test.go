package tunnel

import (
	"testing"

	"golang.org/x/sys/unix"
)

// Linux encodes the exit code in bits 8-15 and the terminating signal in
// bits 0-6 of the wait status.
func TestExitStatusFrom(t *testing.T) {
	tests := []struct {
		name   string
		ws     unix.WaitStatus
		reason ExitReason
		code   int
		signal string
	}{
		{"clean exit", unix.WaitStatus(0), ExitReasonSuccess, 0, ""},
		{"exit 3", unix.WaitStatus(3 << 8), ExitReasonError, 3, ""},
		{"terminated", unix.WaitStatus(unix.SIGTERM), ExitReasonSignal, -1, "SIGTERM"},
		{"killed", unix.WaitStatus(unix.SIGKILL), ExitReasonSignal, -1, "SIGKILL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := exitStatusFrom(tt.ws)
			if !got.Reaped {
				t.Fatal("expected Reaped")
			}
			if got.Reason != tt.reason {
				t.Errorf("Reason = %s, want %s", got.Reason, tt.reason)
			}
			if got.Code != tt.code {
				t.Errorf("Code = %d, want %d", got.Code, tt.code)
			}
			if got.Signal != tt.signal {
				t.Errorf("Signal = %q, want %q", got.Signal, tt.signal)
			}
		})
	}
}

func TestExitStatusString(t *testing.T) {
	tests := []struct {
		status ExitStatus
		want   string
	}{
		{ExitStatus{}, "still running"},
		{ExitStatus{Reaped: true, Code: 0, Reason: ExitReasonSuccess}, "exit status 0"},
		{ExitStatus{Reaped: true, Code: -1, Signal: "SIGTERM", Reason: ExitReasonSignal}, "terminated by SIGTERM"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestSignalName(t *testing.T) {
	if got := SignalName(unix.SIGHUP); got != "SIGHUP" {
		t.Errorf("SignalName(SIGHUP) = %s", got)
	}
	if got := SignalName(unix.Signal(60)); got != "SIG60" {
		t.Errorf("SignalName(60) = %s", got)
	}
}
