package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JonMunkholm/cpdsstox/internal/core"
)

func TestExitCodeForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, ExitSuccess},
		{"usage error", &UsageError{Err: errors.New("bad flag")}, ExitUsageError},
		{"unknown flag", errors.New("unknown flag: --foo"), ExitUsageError},
		{"unknown command", errors.New(`unknown command "x" for "cpload load"`), ExitUsageError},
		{"invalid config", fmt.Errorf("config validation: %w", core.ErrInvalidConfig), ExitConfigError},
		{"connection", fmt.Errorf("%w: ping sqlite: boom", core.ErrConnection), ExitConnectionError},
		{"fatal run error", &core.FatalError{Op: "extract", Path: "a.csv", Err: core.ErrMissingInput}, ExitGeneralError},
		{"general error", errors.New("something went wrong"), ExitGeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCodeForError(tt.err))
		})
	}
}

func runRoot(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	return Execute(context.Background())
}

func TestExecute_UnknownFlag(t *testing.T) {
	err := runRoot(t, "load", "--bogus")
	assert.Error(t, err)
	assert.Equal(t, ExitUsageError, ExitCodeForError(err))
}

func TestExecute_UnexpectedArgument(t *testing.T) {
	err := runRoot(t, "reset", "extra")
	assert.Error(t, err)
	assert.Equal(t, ExitUsageError, ExitCodeForError(err))
}
