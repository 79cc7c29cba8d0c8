// Package aptcache drives apt's cache maintenance operations.
//
// This package wraps the apt-get CLI (via os/exec) to purge the package
// download cache and remove packages the resolver marks as automatically
// installed and no longer needed.
//
// Design decisions:
//   - We shell out to apt-get rather than binding libapt because apt-get
//     is the stable scripting interface Debian documents, and the cache
//     operations have no library-level equivalent worth the cgo cost.
//   - Obsolete-package removal is split into a simulation step and an
//     explicit purge step. Running `apt-get -y autoremove` directly would
//     bypass the exclusion list, so we parse the simulation output,
//     filter it, and purge only the survivors.
//   - apt-get invocation failures are wrapped in model.CLIError with
//     ExitAptError so the CLI layer maps them to the right exit code.
package aptcache

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/mmr-tortoise/usweep/internal/model"
)

// Manager provides apt cache maintenance operations by invoking apt-get.
//
// It is currently stateless — the struct exists as a receiver to support
// future extensions such as a configurable apt-get binary path.
type Manager struct{}

// NewManager creates a new aptcache Manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// Clean removes all downloaded package files from the apt archives
// directory (`apt-get clean`). Safe at any time: apt re-downloads
// packages on demand.
func (m *Manager) Clean(ctx context.Context) error {
	_, err := runAptGet(ctx, "clean")
	return err
}

// AutoClean removes downloaded package files that can no longer be
// fetched from any configured source (`apt-get -y autoclean`).
//
// After Clean this is normally a no-op; it is still run so that a
// partially failed Clean leaves no stale archives behind.
func (m *Manager) AutoClean(ctx context.Context) error {
	_, err := runAptGet(ctx, "-y", "autoclean")
	return err
}

// AutoremoveCandidates returns the packages that `apt-get autoremove`
// would remove, without removing anything. It runs the simulation mode
// (`apt-get -s autoremove`) and parses the "Remv" action lines.
//
// The caller is expected to filter this list against the configured
// exclusion patterns before passing it to Purge.
func (m *Manager) AutoremoveCandidates(ctx context.Context) ([]string, error) {
	output, err := runAptGet(ctx, "-s", "autoremove")
	if err != nil {
		return nil, err
	}
	return parseRemovalSimulation(output), nil
}

// Purge removes the given packages together with their configuration
// files (`apt-get -y purge <pkgs...>`). An empty package list is a no-op.
func (m *Manager) Purge(ctx context.Context, packages []string) error {
	if len(packages) == 0 {
		return nil
	}

	args := append([]string{"-y", "purge"}, packages...)
	_, err := runAptGet(ctx, args...)
	return err
}

// runAptGet executes apt-get with the given arguments.
//
// It captures stdout and stderr separately. On success it returns the
// stdout output. On failure it returns a model.CLIError with ExitAptError,
// including the stderr output in the message for diagnostics.
//
// DEBIAN_FRONTEND=noninteractive suppresses dpkg configuration prompts,
// which would otherwise hang a cron-driven run waiting for input that
// never comes.
func runAptGet(ctx context.Context, args ...string) (string, error) {
	// #nosec G204 — args are constructed internally, not from user input
	cmd := exec.CommandContext(ctx, "apt-get", args...)
	cmd.Env = append(os.Environ(), "DEBIAN_FRONTEND=noninteractive")

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		stderrStr := strings.TrimSpace(stderr.String())
		message := fmt.Sprintf("apt-get %s failed", strings.Join(args, " "))
		if stderrStr != "" {
			message = fmt.Sprintf("%s: %s", message, stderrStr)
		}
		return "", model.WrapCLIError(model.ExitAptError, message, err)
	}

	return stdout.String(), nil
}

// parseRemovalSimulation parses `apt-get -s autoremove` output into the
// list of packages that would be removed.
//
// The simulation prints one action line per package in the form:
//
//	Remv linux-headers-5.15.0-89 [5.15.0-89.99]
//	Remv libllvm14 [1:14.0.0-1ubuntu1.1]
//
// Only "Remv" lines are action lines; the human-readable summary block
// ("The following packages will be REMOVED: ...") wraps package names
// unpredictably, so it is ignored in favor of the machine-oriented lines.
func parseRemovalSimulation(output string) []string {
	var packages []string
	seen := make(map[string]bool)

	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] != "Remv" {
			continue
		}

		// fields[1] is the package name; the bracketed version and any
		// dependency annotations follow it.
		name := fields[1]
		if !seen[name] {
			seen[name] = true
			packages = append(packages, name)
		}
	}

	return packages
}
