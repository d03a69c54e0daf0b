package tunnel

import (
	"io"

	"go.opentelemetry.io/otel/trace"
)

// Option configures a Supervisor during creation.
type Option func(*Supervisor)

// WithBinary sets the tunnel executable. Defaults to DefaultBinary.
func WithBinary(path string) Option {
	return func(s *Supervisor) {
		s.binary = path
	}
}

// WithTempDir sets the directory that holds rendered config files.
// Empty means os.TempDir().
func WithTempDir(dir string) Option {
	return func(s *Supervisor) {
		s.tempDir = dir
	}
}

// WithProbe replaces the fixed startup delay with another readiness probe.
func WithProbe(p Probe) Option {
	return func(s *Supervisor) {
		if p != nil {
			s.probe = p
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Supervisor) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithTracer sets the tracer used for start and stop spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Supervisor) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithOutput redirects the child's stdout and stderr. Both default to the
// supervisor's own. Use *os.File values; other writers need a Wait to
// drain, and Stop never waits.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(s *Supervisor) {
		s.stdout = stdout
		s.stderr = stderr
	}
}
