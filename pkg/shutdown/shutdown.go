package shutdown

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Logger is the subset of logging.Logger the manager uses.
type Logger interface {
	Info(message string, fields ...map[string]interface{})
	Warn(message string, fields ...map[string]interface{})
}

type step struct {
	name string
	fn   func(context.Context) error
}

// Manager handles graceful shutdown
type Manager struct {
	steps   []step
	mu      sync.Mutex
	timeout time.Duration
	log     Logger
	once    sync.Once
}

// New creates a new shutdown manager
func New(timeout time.Duration, log Logger) *Manager {
	return &Manager{
		timeout: timeout,
		log:     log,
	}
}

// Register adds a shutdown function.
// Functions are called in reverse order (LIFO).
func (m *Manager) Register(name string, fn func(context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, step{name: name, fn: fn})
}

// Shutdown executes all registered shutdown functions once. Later calls
// are no-ops.
func (m *Manager) Shutdown() {
	m.once.Do(func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()

		for i := len(m.steps) - 1; i >= 0; i-- {
			s := m.steps[i]
			if err := s.fn(ctx); err != nil {
				m.log.Warn("Shutdown step failed", map[string]interface{}{
					"step":  s.name,
					"error": err.Error(),
				})
				continue
			}
			m.log.Info("Shutdown step complete", map[string]interface{}{"step": s.name})
		}
	})
}

// WaitWithContext blocks until ctx is done, then runs Shutdown and returns
// ctx.Err(). Route SIGINT/SIGTERM into ctx with signal.NotifyContext; the
// manager does not subscribe to signals itself.
func (m *Manager) WaitWithContext(ctx context.Context) error {
	<-ctx.Done()
	m.log.Info("Shutdown requested", map[string]interface{}{"reason": ctx.Err().Error()})
	m.Shutdown()
	return ctx.Err()
}

// StopHTTPServer creates a shutdown function for http.Server
func StopHTTPServer(server interface{ Shutdown(context.Context) error }, name string) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to stop %s server: %w", name, err)
		}
		return nil
	}
}

// Func adapts a function that cannot fail.
func Func(fn func()) func(context.Context) error {
	return func(context.Context) error {
		fn()
		return nil
	}
}
