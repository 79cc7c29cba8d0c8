// Package snappkg drives snapd maintenance: pruning disabled snap
// revisions, deleting orphaned .snap files, and clearing the snapd
// download cache.
//
// This package wraps the snap CLI (via os/exec) rather than talking to
// the snapd REST socket directly. The CLI is the stable, documented
// interface; the socket API is versioned with snapd itself and offers
// nothing extra for the operations needed here.
//
// The availability of snapd is a hard precondition: every entry point
// that mutates state is expected to be gated behind Available(), and
// failures there carry ExitSnapdUnavailable so that the run aborts
// before touching the filesystem.
package snappkg

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/mmr-tortoise/usweep/internal/model"
)

// Default locations managed by snapd on Ubuntu. Overridable on the
// Manager for tests.
const (
	// DefaultSnapsDir holds the mounted .snap files, one per revision.
	DefaultSnapsDir = "/var/lib/snapd/snaps"

	// DefaultCacheDir holds snapd's download cache, keyed by content
	// hash. Entries are re-fetched on demand, so the directory can be
	// emptied at any time.
	DefaultCacheDir = "/var/lib/snapd/cache"
)

// Manager provides snap maintenance operations by invoking the snap CLI
// and inspecting snapd's state directories.
type Manager struct {
	// SnapsDir is the directory scanned for orphaned .snap files.
	SnapsDir string

	// CacheDir is the snapd download cache directory.
	CacheDir string
}

// NewManager creates a Manager with the standard Ubuntu snapd paths.
func NewManager() *Manager {
	return &Manager{
		SnapsDir: DefaultSnapsDir,
		CacheDir: DefaultCacheDir,
	}
}

// Available verifies that the snap CLI exists and snapd responds.
//
// `snap version` prints both the client and daemon versions and fails
// when snapd is not running, which makes it a cheap responsiveness
// probe. Returns a model.CLIError with ExitSnapdUnavailable on failure,
// satisfying the fail-fast precondition: callers abort before mutating
// anything.
func (m *Manager) Available(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "snap", "version")
	if output, err := cmd.CombinedOutput(); err != nil {
		message := "snapd is not available on this system"
		if details := strings.TrimSpace(string(output)); details != "" {
			message = fmt.Sprintf("%s: %s", message, details)
		}
		return model.WrapCLIError(model.ExitSnapdUnavailable, message, err)
	}
	return nil
}

// ListAll returns every installed snap revision, including disabled
// ones, by parsing `snap list --all`.
func (m *Manager) ListAll(ctx context.Context) ([]model.SnapRevision, error) {
	output, err := runSnap(ctx, "list", "--all")
	if err != nil {
		return nil, err
	}
	return parseSnapList(output), nil
}

// RemoveRevision removes a single revision of a snap via
// `snap remove <name> --revision=<rev>`.
//
// snapd itself refuses to remove the active revision of an installed
// snap, so this is safe even if the caller's disabled-flag bookkeeping
// is stale — the command fails instead of breaking the snap.
func (m *Manager) RemoveRevision(ctx context.Context, name, revision string) error {
	_, err := runSnap(ctx, "remove", name, "--revision="+revision)
	return err
}

// DisabledRevisions filters the given revisions down to prune
// candidates: disabled revisions whose snap is not protected.
// It returns the candidates and the disabled revisions that were kept
// due to protection, in input order.
func DisabledRevisions(revisions []model.SnapRevision, isProtected func(name string) bool) (candidates, protected []model.SnapRevision) {
	for _, rev := range revisions {
		if !rev.Disabled {
			continue
		}
		if isProtected != nil && isProtected(rev.Name) {
			protected = append(protected, rev)
			continue
		}
		candidates = append(candidates, rev)
	}
	return candidates, protected
}

// runSnap executes a snap command with the given arguments.
//
// It captures stdout and stderr separately. On success it returns the
// stdout output. On failure it returns a model.CLIError with
// ExitSnapdUnavailable, including stderr output for diagnostics.
func runSnap(ctx context.Context, args ...string) (string, error) {
	// #nosec G204 — args are constructed internally, not from user input
	cmd := exec.CommandContext(ctx, "snap", args...)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		stderrStr := strings.TrimSpace(stderr.String())
		message := fmt.Sprintf("snap %s failed", strings.Join(args, " "))
		if stderrStr != "" {
			message = fmt.Sprintf("%s: %s", message, stderrStr)
		}
		return "", model.WrapCLIError(model.ExitSnapdUnavailable, message, err)
	}

	return stdout.String(), nil
}

// parseSnapList parses `snap list --all` output into SnapRevision values.
//
// The output is a whitespace-aligned table:
//
//	Name    Version        Rev    Tracking       Publisher   Notes
//	core20  20230622       1974   latest/stable  canonical✓  base,disabled
//	lxd     5.0.2-838e1b2  24322  5.0/stable/…   canonical✓  -
//
// The Notes column is a comma-separated flag list ("-" when empty);
// a revision is disabled when "disabled" appears among the flags.
// Column positions are not stable across snapd versions, so fields are
// split on whitespace rather than fixed offsets.
func parseSnapList(output string) []model.SnapRevision {
	var revisions []model.SnapRevision

	for i, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 6 {
			continue
		}
		// Skip the header row. Matching on the first cell rather than
		// the line index keeps this robust against leading blank lines.
		if i == 0 || fields[0] == "Name" {
			continue
		}

		revisions = append(revisions, model.SnapRevision{
			Name:     fields[0],
			Version:  fields[1],
			Revision: fields[2],
			Tracking: fields[3],
			Disabled: hasNote(fields[5], "disabled"),
		})
	}

	return revisions
}

// hasNote reports whether the given flag appears in a comma-separated
// Notes cell. A plain "-" cell carries no flags.
func hasNote(notes, flag string) bool {
	if notes == "-" {
		return false
	}
	for _, note := range strings.Split(notes, ",") {
		if note == flag {
			return true
		}
	}
	return false
}
