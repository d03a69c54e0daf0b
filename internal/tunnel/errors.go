package tunnel

import "errors"

var (
	// ErrConfigWriteFailed is returned when the temporary config file could
	// not be created or written.
	ErrConfigWriteFailed = errors.New("tunnel config write failed")

	// ErrSpawnFailed is returned when the tunnel binary could not be launched.
	ErrSpawnFailed = errors.New("tunnel spawn failed")

	// ErrInvalidSettings is returned when Settings break an invariant.
	ErrInvalidSettings = errors.New("invalid tunnel settings")

	// ErrNotReady is returned when the readiness probe gave up. The child
	// has already been signalled when this is returned.
	ErrNotReady = errors.New("tunnel not ready")

	// ErrAlreadyRunning is returned by Start while a child is tracked.
	ErrAlreadyRunning = errors.New("tunnel already running")
)
