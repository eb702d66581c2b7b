package errors

import "errors"

// Common error types used across the coopsched library

var (
	// ErrAlreadyRunning indicates that Start was called on a running scheduler
	ErrAlreadyRunning = errors.New("scheduler already running")

	// ErrNotRunning indicates that an operation requires a running scheduler
	ErrNotRunning = errors.New("scheduler not running")

	// ErrNilExecutor indicates that a nil executor was supplied
	ErrNilExecutor = errors.New("executor cannot be nil")

	// ErrNilProcess indicates that a nil process handle was supplied
	ErrNilProcess = errors.New("process cannot be nil")

	// ErrProcessTerminal indicates an operation on a Done or Cancelled process
	ErrProcessTerminal = errors.New("process already terminal")

	// ErrProcessNotReady indicates that a process is not in the Ready state
	ErrProcessNotReady = errors.New("process not ready")

	// ErrProcessQueued indicates that a process is already enqueued
	ErrProcessQueued = errors.New("process already enqueued")

	// ErrInvalidDelay indicates a negative delay or timeout value
	ErrInvalidDelay = errors.New("delay must not be negative")

	// ErrCronStopped indicates that a cron job was already stopped
	ErrCronStopped = errors.New("cron job already stopped")
)

// IsMisuse returns true if the error reports a caller mistake that the
// scheduler turned into a no-op rather than a failure
func IsMisuse(err error) bool {
	return errors.Is(err, ErrAlreadyRunning) ||
		errors.Is(err, ErrNotRunning) ||
		errors.Is(err, ErrProcessTerminal) ||
		errors.Is(err, ErrProcessNotReady) ||
		errors.Is(err, ErrProcessQueued) ||
		errors.Is(err, ErrCronStopped)
}
