package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for broad classification.
var (
	ErrAmbiguousMode      = errors.New("ambiguous mode")
	ErrUnknownMonitor     = errors.New("unknown monitor")
	ErrNoActiveWindow     = errors.New("no active window")
	ErrSelectionCancelled = errors.New("selection cancelled")
)

// ErrorKind is a coarse-grained categorization for errors.
type ErrorKind string

const (
	KindConfig                ErrorKind = "config"
	KindAmbiguousMode         ErrorKind = "ambiguous_mode"
	KindCompositorUnreachable ErrorKind = "compositor_unreachable"
	KindCompositorProtocol    ErrorKind = "compositor_protocol"
	KindUnknownMonitor        ErrorKind = "unknown_monitor"
	KindNoActiveWindow        ErrorKind = "no_active_window"
	KindSelectionCancelled    ErrorKind = "selection_cancelled"
	KindCaptureBackend        ErrorKind = "capture_backend"
	KindOutputWrite           ErrorKind = "output_write"
)

// Process exit codes. Cancelling an interactive selection is a deliberate
// abort, not a failure, and gets its own code.
const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitCancelled = 2
)

// OpError wraps an underlying error with operation context and a kind.
type OpError struct {
	Op     string
	Kind   ErrorKind
	Target string // Optional: monitor name, window address, file path
	Err    error
}

func (e *OpError) Error() string {
	if e == nil {
		return "<nil>"
	}

	base := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Target != "" {
		base += fmt.Sprintf(" (%s)", e.Target)
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

func (e *OpError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsKind helps callers classify errors without depending on infra packages.
func IsKind(err error, kind ErrorKind) bool {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Kind == kind
	}
	return false
}

// Kind extracts the kind from an error chain, or "" when untyped.
func Kind(err error) ErrorKind {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Kind
	}
	switch {
	case errors.Is(err, ErrAmbiguousMode):
		return KindAmbiguousMode
	case errors.Is(err, ErrUnknownMonitor):
		return KindUnknownMonitor
	case errors.Is(err, ErrNoActiveWindow):
		return KindNoActiveWindow
	case errors.Is(err, ErrSelectionCancelled):
		return KindSelectionCancelled
	}
	return ""
}

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if Kind(err) == KindSelectionCancelled {
		return ExitCancelled
	}
	return ExitFailure
}
