package types

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrScreenplayNotFound is returned before any execution when the
	// screenplay path does not exist.
	ErrScreenplayNotFound = errors.New("screenplay not found")

	// ErrAbortedByUser is returned when the sentinel file disappears while
	// a screenplay is still running.
	ErrAbortedByUser = errors.New("aborted by user")

	// ErrExternalAction matches every *ExternalActionError.
	ErrExternalAction = errors.New("external action failed")

	// ErrNotSupported matches every *NotSupportedError.
	ErrNotSupported = errors.New("direction not supported")

	// ErrNoCompatibleBackend is returned when no registered backend's probe
	// matches the host.
	ErrNoCompatibleBackend = errors.New("no compatible automation backend")

	// ErrHelperPermission is returned when the mouse/keyboard helper cannot
	// be made executable.
	ErrHelperPermission = errors.New("automation helper is not executable")

	// ErrSkip ends the enclosing perform block. It never escapes it.
	ErrSkip = errors.New("skip")
)

// ExternalActionError reports a shell or automation process that exited
// with a non-zero status.
type ExternalActionError struct {
	Command  string
	ExitCode int
	Output   string
}

func (e *ExternalActionError) Error() string {
	msg := fmt.Sprintf("command %q exited with status %d", e.Command, e.ExitCode)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

func (e *ExternalActionError) Is(target error) bool {
	return target == ErrExternalAction
}

// NotSupportedError reports a direction, or an option of a direction, that
// the active backend declines.
type NotSupportedError struct {
	Direction string
	Backend   string
}

func (e *NotSupportedError) Error() string {
	return fmt.Sprintf("%s doesn't support %s", e.Backend, strings.TrimSuffix(e.Direction, "."))
}

func (e *NotSupportedError) Is(target error) bool {
	return target == ErrNotSupported
}

// NotSupported builds a NotSupportedError.
func NotSupported(direction, backend string) error {
	return &NotSupportedError{Direction: direction, Backend: backend}
}
