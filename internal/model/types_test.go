package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCleanCategoryIsValid verifies that IsValid accepts exactly the
// predefined categories and rejects everything else.
func TestCleanCategoryIsValid(t *testing.T) {
	valid := []CleanCategory{CategoryAptCache, CategoryTemp, CategoryLogs, CategorySnap}
	for _, c := range valid {
		assert.True(t, c.IsValid(), "category %q should be valid", c)
	}

	invalid := []CleanCategory{"", "browser", "APT-CACHE", "tempfiles"}
	for _, c := range invalid {
		assert.False(t, c.IsValid(), "category %q should be invalid", c)
	}
}

// TestParseCleanCategory verifies case-insensitive parsing and the
// error message for unknown values.
func TestParseCleanCategory(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    CleanCategory
		wantErr bool
	}{
		{name: "lowercase", input: "temp", want: CategoryTemp},
		{name: "uppercase is normalized", input: "LOGS", want: CategoryLogs},
		{name: "mixed case", input: "Apt-Cache", want: CategoryAptCache},
		{name: "snap", input: "snap", want: CategorySnap},
		{name: "unknown value", input: "registry", wantErr: true},
		{name: "empty string", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCleanCategory(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestSnapRevisionID verifies the canonical identifier format used
// in log lines and result output.
func TestSnapRevisionID(t *testing.T) {
	rev := SnapRevision{Name: "core20", Revision: "1974"}
	assert.Equal(t, "core20 (rev 1974)", rev.ID())

	// Sideloaded revisions keep their "x" prefix.
	side := SnapRevision{Name: "mytool", Revision: "x2"}
	assert.Equal(t, "mytool (rev x2)", side.ID())
}

// TestCLIErrorMessage verifies the error string with and without an
// underlying error.
func TestCLIErrorMessage(t *testing.T) {
	plain := NewCLIError(ExitSnapdUnavailable, "snapd is not available")
	assert.Equal(t, "snapd is not available", plain.Error())
	assert.Equal(t, ExitSnapdUnavailable, plain.Code)

	underlying := errors.New("exec: \"snap\": executable file not found in $PATH")
	wrapped := WrapCLIError(ExitSnapdUnavailable, "snapd is not available", underlying)
	assert.Contains(t, wrapped.Error(), "snapd is not available")
	assert.Contains(t, wrapped.Error(), "executable file not found")
}

// TestCLIErrorUnwrap verifies that errors.Is can see through CLIError
// to the underlying error.
func TestCLIErrorUnwrap(t *testing.T) {
	underlying := errors.New("permission denied")
	wrapped := WrapCLIError(ExitGeneralError, "failed to delete", underlying)

	assert.True(t, errors.Is(wrapped, underlying),
		"errors.Is should match the wrapped error")
	assert.Nil(t, NewCLIError(ExitSuccess, "ok").Unwrap())

	// Cancellation is detected through wrapped CLIErrors: the CLI maps
	// context.Canceled to its own exit code even when the cancellation
	// surfaced inside a wrapped apt or snap step.
	cancelled := WrapCLIError(ExitAptError, "apt-get clean failed", context.Canceled)
	assert.True(t, errors.Is(cancelled, context.Canceled),
		"errors.Is should find context.Canceled through CLIError")
}

// TestExitCodeValues pins the numeric exit codes. These are part of the
// external contract consumed by cron wrappers and must not drift.
func TestExitCodeValues(t *testing.T) {
	assert.Equal(t, 0, int(ExitSuccess))
	assert.Equal(t, 1, int(ExitGeneralError))
	assert.Equal(t, 2, int(ExitConfigError))
	assert.Equal(t, 3, int(ExitSnapdUnavailable))
	assert.Equal(t, 4, int(ExitAptError))
	assert.Equal(t, 5, int(ExitCancelled))
}
