package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors
const (
	ErrConfig  = "CONFIG"
	ErrSpawn   = "SPAWN"
	ErrPipe    = "PIPE"
	ErrDied    = "DIED"
	ErrTimeout = "TIMEOUT"
	ErrSession = "SESSION"
	ErrSSH     = "SSH"
	ErrExec    = "EXEC"
)

// Sentinel errors for the interpreter lifecycle. Structured errors carry one of
// these in their cause chain so callers can use errors.Is to decide between
// restarting the session and giving up.
var (
	// ErrSpawnFailed means the interpreter executable could not be started.
	ErrSpawnFailed = errors.New("process could not be spawned")
	// ErrBrokenPipe means input was written to a child that already exited.
	ErrBrokenPipe = errors.New("broken pipe to child process")
	// ErrProcessDied means the child exited while the session expected it alive.
	ErrProcessDied = errors.New("child process died")
	// ErrStartupTimeout means the first completion marker never showed up.
	ErrStartupTimeout = errors.New("startup timed out")
	// ErrExecutionTimeout means a command did not complete in time.
	ErrExecutionTimeout = errors.New("execution timed out")
	// ErrSessionBusy means execute was called while another command was running.
	ErrSessionBusy = errors.New("session is busy")
	// ErrSessionDead means the session lost its child and must be restarted.
	ErrSessionDead = errors.New("session is dead")
	// ErrSessionNotReady means the session was never started or was closed.
	ErrSessionNotReady = errors.New("session is not ready")
)

// Error represents a structured error with code, message, suggestion, and optional cause.
// Rendered as:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// Wrap wraps an existing error with a message, defaulting to ErrExec code.
func Wrap(err error, message string) *Error {
	return &Error{
		Code:    ErrExec,
		Message: message,
		Cause:   err,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// Lifecycle builds a structured error whose cause chain contains sentinel, plus
// the underlying error when there is one.
func Lifecycle(sentinel error, cause error, code, message, suggestion string) *Error {
	chain := sentinel
	if cause != nil {
		chain = errors.Join(sentinel, cause)
	}
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      chain,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", strings.ReplaceAll(e.Cause.Error(), "\n", "\n  ")))
	}

	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var vxErr *Error
	if errors.As(err, &vxErr) {
		return vxErr.Code == code
	}
	return false
}

// IsRestartable reports whether err leaves the session recoverable by an
// explicit restart (as opposed to a spawn failure or caller misuse).
func IsRestartable(err error) bool {
	return errors.Is(err, ErrProcessDied) ||
		errors.Is(err, ErrBrokenPipe) ||
		errors.Is(err, ErrStartupTimeout) ||
		errors.Is(err, ErrExecutionTimeout) ||
		errors.Is(err, ErrSessionDead)
}

// ExitError carries the exit code of a child process (or of the CLI itself)
// without any extra message formatting.
type ExitError struct {
	Code int
}

// NewExitError creates an ExitError for the given code.
func NewExitError(code int) *ExitError {
	return &ExitError{Code: code}
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// GetExitCode extracts the exit code from an ExitError anywhere in err's chain.
func GetExitCode(err error) (int, bool) {
	if err == nil {
		return 0, false
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}
