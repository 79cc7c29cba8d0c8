// Package model defines the domain types for the usweep CLI.
//
// All entities in this package represent transient state: each maintenance
// run reconstructs everything from the live system (apt, snapd, filesystem)
// and nothing is persisted between invocations. These types are used
// throughout the application for passing data between components.
package model

import (
	"fmt"
	"strings"
	"time"
)

// CleanCategory groups cleanup items by the subsystem they belong to.
// Categories drive both reporting (per-category byte totals) and
// selection (a run may restrict itself to a subset of categories).
type CleanCategory string

const (
	// CategoryAptCache covers downloaded package files under the apt
	// archives directory, including the partial download directory.
	CategoryAptCache CleanCategory = "apt-cache"

	// CategoryTemp covers temporary file trees (/tmp, /var/tmp and any
	// extra directories added via configuration).
	CategoryTemp CleanCategory = "temp"

	// CategoryLogs covers rotated/compressed log files and oversized
	// active log files under the configured log directories.
	CategoryLogs CleanCategory = "logs"

	// CategorySnap covers disabled snap revisions, orphaned .snap files
	// and the snapd download cache.
	CategorySnap CleanCategory = "snap"
)

// String returns the string representation of CleanCategory.
// This method satisfies the fmt.Stringer interface, enabling
// human-readable output in CLI commands and logging.
func (c CleanCategory) String() string {
	return string(c)
}

// IsValid checks whether the CleanCategory value is one of the
// predefined valid categories.
func (c CleanCategory) IsValid() bool {
	switch c {
	case CategoryAptCache, CategoryTemp, CategoryLogs, CategorySnap:
		return true
	default:
		return false
	}
}

// ParseCleanCategory converts a string to a CleanCategory.
// Returns an error if the string does not match any valid category.
func ParseCleanCategory(s string) (CleanCategory, error) {
	category := CleanCategory(strings.ToLower(s))
	if !category.IsValid() {
		return "", fmt.Errorf("invalid clean category: %q (valid: apt-cache, temp, logs, snap)", s)
	}
	return category, nil
}

// CleanAction describes what the cleaner does with a CleanItem.
// Most items are deleted outright; active log files are truncated
// in place so that processes holding them open keep a valid handle.
type CleanAction string

const (
	// ActionDelete removes the file or directory entry from disk.
	ActionDelete CleanAction = "delete"

	// ActionTruncate truncates the file to zero bytes but keeps the
	// inode. Used for active log files that daemons write to via an
	// open file descriptor — deleting those would not free space until
	// the writer is restarted.
	ActionTruncate CleanAction = "truncate"
)

// CleanItem represents a single filesystem entry scheduled for cleanup.
// Items are produced by the scan phase and consumed by the delete phase;
// the split allows --dry-run to stop after scanning and report the plan.
type CleanItem struct {
	// Path is the absolute filesystem path of the entry.
	Path string `json:"path"`

	// Size is the entry size in bytes at scan time. For truncation
	// items this is the number of bytes the truncation will reclaim.
	Size int64 `json:"size"`

	// Category groups the item for reporting.
	Category CleanCategory `json:"category"`

	// Description is a short human-readable label for the item's
	// source (e.g., "Rotated logs", "Temporary files").
	Description string `json:"description"`

	// Action is what the cleaner will do with the item.
	// Defaults to ActionDelete when empty.
	Action CleanAction `json:"action,omitempty"`
}

// SnapRevision represents one installed revision of a snap package as
// reported by `snap list --all`. A snap typically has one enabled
// revision plus zero or more disabled revisions retained from earlier
// refreshes. Disabled revisions are prune candidates.
type SnapRevision struct {
	// Name is the snap package name (e.g., "core20", "amazon-ssm-agent").
	Name string `json:"name"`

	// Version is the upstream version string for this revision.
	Version string `json:"version"`

	// Revision is the store revision identifier. Usually numeric
	// (e.g., "2785") but sideloaded snaps use an "x" prefix (e.g., "x1"),
	// so it is kept as a string.
	Revision string `json:"revision"`

	// Tracking is the channel this snap follows (e.g., "latest/stable").
	Tracking string `json:"tracking"`

	// Disabled reports whether snapd lists this revision as disabled.
	// The enabled revision of a snap is never a removal candidate.
	Disabled bool `json:"disabled"`
}

// ID returns the canonical "name (rev N)" identifier used in log lines
// and result output.
func (r *SnapRevision) ID() string {
	return fmt.Sprintf("%s (rev %s)", r.Name, r.Revision)
}

// OrphanSnapFile represents a .snap file on disk that does not
// correspond to any revision currently known to snapd. These are
// leftovers from interrupted refreshes or manual installs and are
// safe to delete.
type OrphanSnapFile struct {
	// Path is the absolute path of the .snap file.
	Path string `json:"path"`

	// Name is the snap name parsed from the file name.
	Name string `json:"name"`

	// Revision is the revision parsed from the file name.
	Revision string `json:"revision"`

	// Size is the file size in bytes.
	Size int64 `json:"size"`
}

// DiskUsage is a point-in-time snapshot of filesystem usage for a
// single mount point, taken before and after each maintenance run so
// the report can show how much space was actually reclaimed.
type DiskUsage struct {
	// Path is the mount point the snapshot was taken for.
	Path string `json:"path"`

	// TotalBytes is the filesystem capacity.
	TotalBytes uint64 `json:"totalBytes"`

	// UsedBytes is the number of bytes in use.
	UsedBytes uint64 `json:"usedBytes"`

	// FreeBytes is the number of bytes available.
	FreeBytes uint64 `json:"freeBytes"`

	// UsedPercent is the used fraction expressed as a percentage.
	UsedPercent float64 `json:"usedPercent"`
}

// SkippedItem records a per-item failure during a best-effort run.
// Skipped items do not fail the run; they are reported so operators
// can investigate recurring permission or lock problems.
type SkippedItem struct {
	// Path is the path or identifier of the item that could not be processed.
	Path string `json:"path"`

	// Reason is the error text.
	Reason string `json:"reason"`
}

// CleanReport is the outcome of a cache-cleaner run. It records what was
// removed, what was skipped, and the disk usage delta.
type CleanReport struct {
	// DryRun reports whether the run only planned the cleanup.
	DryRun bool `json:"dryRun"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"startedAt"`

	// AptSteps lists the apt maintenance steps that were executed
	// (e.g., "clean", "autoclean", "purge 3 packages").
	AptSteps []string `json:"aptSteps,omitempty"`

	// PurgedPackages lists obsolete packages removed via apt purge,
	// after the configured exclusion patterns were applied.
	PurgedPackages []string `json:"purgedPackages,omitempty"`

	// ExcludedPackages lists autoremove candidates that were kept
	// because they matched an exclusion pattern (typically kernels).
	ExcludedPackages []string `json:"excludedPackages,omitempty"`

	// ItemsRemoved is the number of filesystem entries deleted or truncated.
	ItemsRemoved int `json:"itemsRemoved"`

	// BytesReclaimed is the total size of removed/truncated entries.
	BytesReclaimed int64 `json:"bytesReclaimed"`

	// BytesPerCategory breaks BytesReclaimed down by category.
	BytesPerCategory map[CleanCategory]int64 `json:"bytesPerCategory,omitempty"`

	// Skipped lists per-item failures that were logged and skipped.
	Skipped []SkippedItem `json:"skipped,omitempty"`

	// UsageBefore and UsageAfter are root filesystem snapshots taken
	// around the run. UsageAfter is zero-valued in dry-run mode.
	UsageBefore DiskUsage `json:"usageBefore"`
	UsageAfter  DiskUsage `json:"usageAfter"`
}

// PruneReport is the outcome of a snap-pruner run.
type PruneReport struct {
	// DryRun reports whether the run only planned the pruning.
	DryRun bool `json:"dryRun"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"startedAt"`

	// RemovedRevisions lists the disabled revisions that were removed.
	RemovedRevisions []SnapRevision `json:"removedRevisions,omitempty"`

	// ProtectedRevisions lists disabled revisions kept because their
	// snap is on the protected list.
	ProtectedRevisions []SnapRevision `json:"protectedRevisions,omitempty"`

	// OrphansDeleted lists orphaned .snap files that were deleted.
	OrphansDeleted []OrphanSnapFile `json:"orphansDeleted,omitempty"`

	// CacheFilesDeleted is the number of snapd download cache files removed.
	CacheFilesDeleted int `json:"cacheFilesDeleted"`

	// BytesReclaimed is the total bytes freed by orphan and cache
	// deletion. Revision removal is performed by snapd itself, so its
	// contribution shows up only in the disk usage delta.
	BytesReclaimed int64 `json:"bytesReclaimed"`

	// Skipped lists per-item failures that were logged and skipped.
	Skipped []SkippedItem `json:"skipped,omitempty"`

	// UsageBefore and UsageAfter are root filesystem snapshots taken
	// around the run. UsageAfter is zero-valued in dry-run mode.
	UsageBefore DiskUsage `json:"usageBefore"`
	UsageAfter  DiskUsage `json:"usageAfter"`
}

// ExitCode defines the CLI exit codes. Cron and monitoring scripts use
// these to distinguish a failed precondition (which needs operator
// action) from a best-effort completion (which does not).
type ExitCode int

const (
	// ExitSuccess indicates the command completed, possibly with
	// per-item skips. Best-effort completion is still success.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitConfigError indicates the configuration file could not be
	// read or failed validation.
	ExitConfigError ExitCode = 2

	// ExitSnapdUnavailable indicates the snap subsystem is absent or
	// not responding. prune-snaps aborts before touching anything.
	ExitSnapdUnavailable ExitCode = 3

	// ExitAptError indicates an apt-get invocation failed outright
	// (as opposed to individual items being skipped).
	ExitAptError ExitCode = 4

	// ExitCancelled indicates the run was interrupted before it could
	// finish (Ctrl-C, or SIGTERM from a service manager).
	ExitCancelled ExitCode = 5
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
// This follows Go's error wrapping convention introduced in Go 1.13.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
