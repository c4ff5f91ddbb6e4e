package cli

import (
	"errors"
	"strings"

	"github.com/JonMunkholm/cpdsstox/internal/core"
)

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // Run completed; per-table failures are only logged
	ExitGeneralError    = 1  // Fatal run error (unreadable input, cancelled run, ...)
	ExitUsageError      = 2  // CLI usage error (unknown flag, bad argument)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration
	ExitConnectionError = 11 // Failed to connect to the sink
)

// UsageError marks a command line mistake.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }

func (e *UsageError) Unwrap() error { return e.Err }

// cobra reports argument and command mistakes as plain errors.
var usagePatterns = []string{
	"unknown flag",
	"unknown shorthand flag",
	"unknown command",
	"accepts ",
	"required flag",
	"invalid argument",
	"flag needs an argument",
}

// ExitCodeForError returns the process exit code for an error returned by
// Execute. Returns ExitSuccess (0) for nil errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var ue *UsageError
	switch {
	case errors.As(err, &ue):
		return ExitUsageError
	case errors.Is(err, core.ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, core.ErrConnection):
		return ExitConnectionError
	}

	errStr := err.Error()
	for _, p := range usagePatterns {
		if strings.Contains(errStr, p) {
			return ExitUsageError
		}
	}

	return ExitGeneralError
}
