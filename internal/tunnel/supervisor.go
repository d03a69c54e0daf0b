// Package tunnel supervises a single stunnel child process: it renders the
// tunnel configuration, launches the binary against it, waits for it to come
// up and terminates it on request.
//
// There is exactly one child per Supervisor. Nothing watches the child after
// Start returns; a tunnel that dies on its own is only noticed by Status.
package tunnel

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/psantana5/tunnelsup/internal/report"
)

// Logger is the log sink the supervisor writes to. It never configures it.
type Logger interface {
	Debug(message string, fields ...map[string]interface{})
	Info(message string, fields ...map[string]interface{})
	Warn(message string, fields ...map[string]interface{})
	DebugEnabled() bool
}

// Recorder receives lifecycle counts and finished runs. report.Metrics is
// the Prometheus implementation.
type Recorder interface {
	ObserveStart(result string)
	ObserveStop(outcome string)
	ObserveRender()
	SetUp(up bool)
	ObserveRun(r *report.Result)
}

// Start results and stop outcomes passed to Recorder.
const (
	ResultOK                = "ok"
	ResultInvalidSettings   = "invalid_settings"
	ResultConfigWriteFailed = "config_write_failed"
	ResultSpawnFailed       = "spawn_failed"
	ResultNotReady          = "not_ready"

	OutcomeReaped  = "reaped"
	OutcomeRunning = "still_running"
	OutcomeGone    = "gone"
)

const configPattern = "stunnel-config-*"

// Status is a snapshot of the supervisor.
type Status struct {
	State      State     `json:"state"`
	PID        int       `json:"pid,omitempty"`
	Alive      bool      `json:"alive"`
	ConfigPath string    `json:"config_path,omitempty"`
	RunID      string    `json:"run_id,omitempty"`
	Command    []string  `json:"command,omitempty"`
	StartedAt  time.Time `json:"started_at,omitempty"`

	// LastRun describes the most recent stopped run, if any.
	LastRun *report.Result `json:"last_run,omitempty"`
}

// Supervisor owns one tunnel child. Start and Stop are serialized; callers
// may share a Supervisor between goroutines.
type Supervisor struct {
	log      Logger
	binary   string
	tempDir  string
	probe    Probe
	recorder Recorder
	tracer   trace.Tracer
	stdout   io.Writer
	stderr   io.Writer

	mu         sync.Mutex
	state      State
	cmd        *exec.Cmd
	pid        int
	configPath string
	runID      string
	startedAt  time.Time
	lastRun    *report.Result
}

// New creates a stopped Supervisor.
func New(log Logger, opts ...Option) *Supervisor {
	s := &Supervisor{
		log:      log,
		binary:   DefaultBinary,
		probe:    FixedDelay(DefaultStartupDelay),
		recorder: nopRecorder{},
		tracer:   otel.Tracer("github.com/psantana5/tunnelsup/internal/tunnel"),
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		state:    StateStopped,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the tunnel when settings enable HA. With HA disabled it
// does nothing and returns nil. On success the child is tracked and the
// supervisor is Running; on any error it is Stopped again and nothing is
// left behind.
//
// The lock is not held during the readiness wait, so Status reports
// Starting meanwhile. A Stop issued during the wait terminates the child
// and makes Start return ErrNotReady.
func (s *Supervisor) Start(ctx context.Context, settings Settings) error {
	if !settings.HAEnabled {
		s.log.Debug("HA disabled, tunnel not started")
		return nil
	}

	s.mu.Lock()
	if s.state != StateStopped {
		defer s.mu.Unlock()
		return fmt.Errorf("%w: %s, pid %d", ErrAlreadyRunning, s.state, s.pid)
	}

	runID := uuid.NewString()
	ctx, span := s.tracer.Start(ctx, "tunnel.start",
		trace.WithAttributes(attribute.String("tunnel.run_id", runID)))
	defer span.End()

	// fail must be called with s.mu held.
	fail := func(result string, err error) error {
		s.state = StateStopped
		s.recorder.ObserveStart(result)
		span.RecordError(err)
		span.SetStatus(codes.Error, result)
		return err
	}

	if err := settings.Validate(); err != nil {
		defer s.mu.Unlock()
		return fail(ResultInvalidSettings, err)
	}
	accept, _ := settings.AcceptHost()

	s.state = StateStarting
	log := logWith(s.log, map[string]interface{}{"run_id": runID})

	path, err := s.writeConfig(settings)
	if err != nil {
		defer s.mu.Unlock()
		return fail(ResultConfigWriteFailed, err)
	}
	span.SetAttributes(attribute.String("tunnel.config_path", path))

	log.Info(fmt.Sprintf("Starting %s with configuration: %s", s.binary, path))
	cmd, err := spawn(s.binary, path, s.stdout, s.stderr)
	if err != nil {
		defer s.mu.Unlock()
		s.removeConfig(path)
		return fail(ResultSpawnFailed, fmt.Errorf("%w: %s: %v", ErrSpawnFailed, s.binary, err))
	}
	pid := cmd.Process.Pid
	span.SetAttributes(attribute.Int("tunnel.pid", pid))

	s.cmd = cmd
	s.pid = pid
	s.configPath = path
	s.runID = runID
	s.startedAt = time.Now()
	s.mu.Unlock()

	target := Target{PID: pid, PIDFile: settings.PIDFile(), AcceptPort: accept.Port}
	probeErr := s.probe.Wait(ctx, target)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runID != runID {
		// Stop already terminated the child and cleaned up; the state may
		// now belong to a later Start.
		err := fmt.Errorf("%w: stopped during startup", ErrNotReady)
		s.recorder.ObserveStart(ResultNotReady)
		span.RecordError(err)
		span.SetStatus(codes.Error, ResultNotReady)
		return err
	}

	if probeErr != nil {
		log.Warn("Tunnel did not become ready, terminating", map[string]interface{}{
			"pid":   pid,
			"error": probeErr.Error(),
		})
		_ = terminate(pid)
		_, _ = reap(pid)
		s.removeConfig(path)
		s.clear()
		return fail(ResultNotReady, fmt.Errorf("%w: %w", ErrNotReady, probeErr))
	}

	s.state = StateRunning

	s.recorder.ObserveStart(ResultOK)
	s.recorder.SetUp(true)
	log.Info(fmt.Sprintf("Stunnel started: %d", pid), map[string]interface{}{
		"command": strings.Join(cmd.Args, " "),
		"config":  path,
	})
	return nil
}

// clear forgets the tracked child. Callers hold s.mu.
func (s *Supervisor) clear() {
	s.cmd = nil
	s.pid = 0
	s.configPath = ""
	s.runID = ""
	s.startedAt = time.Time{}
	s.state = StateStopped
}

// Stop terminates the tracked child. It sends SIGTERM, makes one
// non-blocking reap attempt and forgets the child whether or not it has
// exited yet; there is no escalation to SIGKILL. Stop never fails: a
// child that is already gone is not an error. Without a tracked child it
// does nothing. A child still in its readiness wait is stopped the same way.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pid == 0 {
		return
	}

	_, span := s.tracer.Start(context.Background(), "tunnel.stop", trace.WithAttributes(
		attribute.String("tunnel.run_id", s.runID),
		attribute.Int("tunnel.pid", s.pid),
	))
	defer span.End()

	s.state = StateStopping
	pid := s.pid
	log := logWith(s.log, map[string]interface{}{"run_id": s.runID, "pid": pid})

	if err := terminate(pid); err != nil {
		log.Warn("Failed to signal stunnel", map[string]interface{}{"error": err.Error()})
	}

	run := report.NewResult(s.runID, pid, s.configPath, s.startedAt, time.Now())

	outcome := OutcomeReaped
	status, err := reap(pid)
	switch {
	case err != nil:
		outcome = OutcomeGone
		log.Warn("Failed to reap stunnel", map[string]interface{}{"error": err.Error()})
	case !status.Reaped:
		outcome = OutcomeRunning
		log.Info("Stunnel signalled, exit not observed yet")
	default:
		log.Info(fmt.Sprintf("Stunnel terminated. Exit status: <%s>", status), map[string]interface{}{
			"exit_code":   status.Code,
			"exit_reason": string(status.Reason),
		})
	}
	span.SetAttributes(attribute.String("tunnel.stop_outcome", outcome))

	exit, code := status.String(), status.Code
	if !status.Reaped {
		code = -1
	}
	if err != nil {
		exit = "unknown"
	}
	run.SetExit(outcome, exit, code)
	log.Info(run.Summary())

	s.removeConfig(s.configPath)
	s.clear()
	s.lastRun = run

	s.recorder.ObserveStop(outcome)
	s.recorder.ObserveRun(run)
	s.recorder.SetUp(false)
}

// Status reports the current state and whether the tracked pid still exists.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		State:      s.state,
		PID:        s.pid,
		ConfigPath: s.configPath,
		RunID:      s.runID,
		StartedAt:  s.startedAt,
		LastRun:    s.lastRun,
	}
	if s.cmd != nil {
		st.Command = append([]string(nil), s.cmd.Args...)
	}
	st.Alive = pidAlive(s.pid)
	return st
}

// PID returns the tracked process id, or 0.
func (s *Supervisor) PID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pid
}

// writeConfig renders settings into a fresh owner-only temp file.
func (s *Supervisor) writeConfig(settings Settings) (string, error) {
	var emit func(string)
	if s.log.DebugEnabled() {
		emit = func(chunk string) { s.log.Debug(chunk) }
	}

	var b strings.Builder
	if err := render(&b, settings, emit); err != nil {
		return "", err
	}
	s.recorder.ObserveRender()

	f, err := os.CreateTemp(s.tempDir, configPattern)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrConfigWriteFailed, err)
	}
	path := f.Name()

	if err := f.Chmod(0o600); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("%w: %v", ErrConfigWriteFailed, err)
	}
	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("%w: %v", ErrConfigWriteFailed, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("%w: %v", ErrConfigWriteFailed, err)
	}
	return path, nil
}

func (s *Supervisor) removeConfig(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.log.Warn("Failed to remove tunnel config", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
	}
}

// fieldLogger stamps fixed fields onto every entry.
type fieldLogger struct {
	Logger
	fields map[string]interface{}
}

func logWith(l Logger, fields map[string]interface{}) Logger {
	return fieldLogger{Logger: l, fields: fields}
}

func (l fieldLogger) merge(fields []map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(l.fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for _, f := range fields {
		for k, v := range f {
			merged[k] = v
		}
	}
	return merged
}

func (l fieldLogger) Debug(message string, fields ...map[string]interface{}) {
	l.Logger.Debug(message, l.merge(fields))
}

func (l fieldLogger) Info(message string, fields ...map[string]interface{}) {
	l.Logger.Info(message, l.merge(fields))
}

func (l fieldLogger) Warn(message string, fields ...map[string]interface{}) {
	l.Logger.Warn(message, l.merge(fields))
}

type nopRecorder struct{}

func (nopRecorder) ObserveStart(string)       {}
func (nopRecorder) ObserveStop(string)        {}
func (nopRecorder) ObserveRender()            {}
func (nopRecorder) SetUp(bool)                {}
func (nopRecorder) ObserveRun(*report.Result) {}
