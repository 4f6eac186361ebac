// Package errors defines the sentinel errors shared by every vocabstats
// component and maps them to process exit codes.
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrUnreadable    = errors.New("input unreadable")
	ErrMalformed     = errors.New("malformed document payload")
	ErrUnsupported   = errors.New("unsupported input")
	ErrLocked        = errors.New("output locked by another run")
	ErrSink          = errors.New("sink write failed")
)

// Exit codes returned by the CLI.
const (
	ExitOK       = 0
	ExitInternal = 1
	ExitConfig   = 2
	ExitInput    = 3
	ExitOutput   = 4
)

type AppError struct {
	Err      error
	Message  string
	ExitCode int
	// Cause is the underlying failure, if any. The exit code still follows Err.
	Cause error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Err.Error(), e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

func New(sentinel error, message string) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  message,
		ExitCode: exitCodeFor(sentinel),
	}
}

func Newf(sentinel error, format string, args ...any) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  fmt.Sprintf(format, args...),
		ExitCode: exitCodeFor(sentinel),
	}
}

// Wrap classifies cause under sentinel while keeping it reachable through
// errors.Is and errors.As.
func Wrap(sentinel, cause error, message string) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  message,
		ExitCode: exitCodeFor(sentinel),
		Cause:    cause,
	}
}

// ExitCode maps err to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.ExitCode
	}
	return exitCodeFor(err)
}

func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfig
	case errors.Is(err, ErrUnreadable), errors.Is(err, ErrMalformed), errors.Is(err, ErrUnsupported):
		return ExitInput
	case errors.Is(err, ErrLocked), errors.Is(err, ErrSink):
		return ExitOutput
	default:
		return ExitInternal
	}
}
