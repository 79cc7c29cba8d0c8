// clean.go implements the "usweep clean" command.
//
// The clean command is the cache cleaner: it purges the apt package
// cache, removes obsolete packages (after applying the configured
// exclusion patterns, which keep kernel packages by default), sweeps
// temp directories, and deletes or truncates log files.
//
// Every step is best-effort. A failing apt step or an undeletable file
// is logged at warn level, recorded in the report, and the run
// continues — the command still exits 0, because the next scheduled
// cycle retries naturally. The one hard failure is apt-get being
// absent entirely, which no amount of retrying fixes.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/usweep/internal/aptcache"
	"github.com/mmr-tortoise/usweep/internal/config"
	"github.com/mmr-tortoise/usweep/internal/diskstat"
	"github.com/mmr-tortoise/usweep/internal/fsclean"
	"github.com/mmr-tortoise/usweep/internal/model"
)

// cleanFlags holds the flag values for the clean command.
type cleanFlags struct {
	// dryRun stops after the scan phase and prints the plan.
	dryRun bool
}

// NewCleanCommand creates the "clean" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewCleanCommand() *cobra.Command {
	flags := &cleanFlags{}

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Free up disk space",
		Long: `Clean the apt package cache, remove obsolete packages, sweep temp
directories, and delete or truncate log files.

Obsolete-package removal honors the configured exclusion patterns;
kernel packages are excluded by default so that boot entries GRUB may
still reference are never purged. Per-item failures are logged and
skipped — the command exits 0 on best-effort completion.

Examples:
  usweep clean
  usweep clean --dry-run
  usweep clean --json --log-file /var/log/usweep.log`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cmd.Context(), flags)
		},
	}

	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Preview the cleanup plan without deleting")

	return cmd
}

// runClean is the main logic function for the clean command.
func runClean(ctx context.Context, flags *cleanFlags) error {
	cfg, closeLog, err := setup()
	if err != nil {
		return err
	}
	defer closeLog()

	report := &model.CleanReport{
		DryRun:           flags.dryRun,
		StartedAt:        time.Now(),
		BytesPerCategory: make(map[model.CleanCategory]int64),
	}

	// Step 1: Snapshot disk usage before doing anything. A failed
	// snapshot is logged but does not block the cleanup itself.
	if usage, err := diskstat.Snapshot(ctx, diskstat.DefaultMount); err != nil {
		log.WithError(err).Warn("could not snapshot disk usage")
	} else {
		report.UsageBefore = usage
	}

	// Step 2: apt maintenance.
	if err := runAptSteps(ctx, cfg, flags.dryRun, report); err != nil {
		return err
	}

	// Step 3: Scan the filesystem targets and the log directories.
	items, err := fsclean.ScanTargets(ctx, cfg)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "filesystem scan failed", err)
	}
	logItems, err := fsclean.ScanLogs(ctx, cfg, time.Now())
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "log scan failed", err)
	}
	items = append(items, logItems...)
	log.WithField("items", len(items)).Debug("cleanup plan scanned")

	// Step 4: Apply the plan, unless this is a dry run. Dry runs report
	// the plan's sizes as if everything succeeded.
	if flags.dryRun {
		for _, item := range items {
			report.ItemsRemoved++
			report.BytesReclaimed += item.Size
			report.BytesPerCategory[item.Category] += item.Size
		}
	} else {
		result, err := fsclean.Clean(ctx, items)
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "cleanup interrupted", err)
		}
		report.ItemsRemoved = result.ItemsRemoved
		report.BytesReclaimed = result.BytesReclaimed
		for category, bytes := range result.BytesPerCategory {
			report.BytesPerCategory[category] += bytes
		}
		for _, skipped := range result.Skipped {
			log.WithField("path", skipped.Path).WithField("reason", skipped.Reason).
				Warn("skipped cleanup item")
		}
		report.Skipped = append(report.Skipped, result.Skipped...)

		// Step 5: Snapshot disk usage again for the report delta.
		if usage, err := diskstat.Snapshot(ctx, diskstat.DefaultMount); err != nil {
			log.WithError(err).Warn("could not snapshot disk usage")
		} else {
			report.UsageAfter = usage
		}
	}

	log.WithField("reclaimed", report.BytesReclaimed).
		WithField("items", report.ItemsRemoved).
		Info("clean run finished")

	printCleanResult(report)
	return nil
}

// runAptSteps performs the apt portion of the cleanup: cache purge,
// autoclean, and exclusion-filtered obsolete-package removal.
//
// Individual step failures are logged and recorded as skipped; only a
// missing apt-get binary is fatal, mapped to ExitAptError.
func runAptSteps(ctx context.Context, cfg *config.Config, dryRun bool, report *model.CleanReport) error {
	apt := aptcache.NewManager()

	skipStep := func(step string, err error) error {
		if errors.Is(err, exec.ErrNotFound) {
			return model.WrapCLIError(model.ExitAptError, "apt-get is not installed", err)
		}
		log.WithError(err).WithField("step", step).Warn("apt step failed, continuing")
		report.Skipped = append(report.Skipped, model.SkippedItem{
			Path:   "apt-get " + step,
			Reason: err.Error(),
		})
		return nil
	}

	// The simulation runs even in dry-run mode — it is itself read-only
	// and the plan output is the whole point of a dry run.
	candidates, err := apt.AutoremoveCandidates(ctx)
	if err != nil {
		if stepErr := skipStep("autoremove simulation", err); stepErr != nil {
			return stepErr
		}
	}

	var purge []string
	for _, pkg := range candidates {
		if cfg.IsExcludedPackage(pkg) {
			report.ExcludedPackages = append(report.ExcludedPackages, pkg)
			continue
		}
		purge = append(purge, pkg)
	}
	if len(report.ExcludedPackages) > 0 {
		log.WithField("packages", report.ExcludedPackages).
			Debug("autoremove candidates kept by exclusion patterns")
	}

	if dryRun {
		report.AptSteps = append(report.AptSteps, "clean (planned)", "autoclean (planned)")
		report.PurgedPackages = purge
		return nil
	}

	if err := apt.Clean(ctx); err != nil {
		if stepErr := skipStep("clean", err); stepErr != nil {
			return stepErr
		}
	} else {
		report.AptSteps = append(report.AptSteps, "clean")
	}

	if err := apt.AutoClean(ctx); err != nil {
		if stepErr := skipStep("autoclean", err); stepErr != nil {
			return stepErr
		}
	} else {
		report.AptSteps = append(report.AptSteps, "autoclean")
	}

	if len(purge) > 0 {
		if err := apt.Purge(ctx, purge); err != nil {
			if stepErr := skipStep("purge", err); stepErr != nil {
				return stepErr
			}
		} else {
			report.AptSteps = append(report.AptSteps, fmt.Sprintf("purge %d packages", len(purge)))
			report.PurgedPackages = purge
		}
	}

	return nil
}

// printCleanResult outputs the clean command result in text or JSON
// format based on the --json global flag.
func printCleanResult(report *model.CleanReport) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(data))
		return
	}

	heading := "Cleaned up"
	if report.DryRun {
		heading = "Would clean up (dry run)"
	}
	fmt.Printf("%s %s across %d items\n", heading, FormatSize(report.BytesReclaimed), report.ItemsRemoved)
	fmt.Printf("  By category: %s\n", FormatCategoryTotals(report.BytesPerCategory))

	if len(report.AptSteps) > 0 {
		fmt.Printf("  Apt steps: %v\n", report.AptSteps)
	}
	if len(report.PurgedPackages) > 0 {
		fmt.Printf("  Purged packages: %d\n", len(report.PurgedPackages))
	}
	if len(report.ExcludedPackages) > 0 {
		fmt.Printf("  Kept by exclusion patterns: %d\n", len(report.ExcludedPackages))
	}
	if len(report.Skipped) > 0 {
		fmt.Printf("  Skipped with errors: %d (see log)\n", len(report.Skipped))
	}
	if !report.DryRun {
		fmt.Printf("  Disk: %s\n", FormatUsageDelta(report.UsageBefore, report.UsageAfter))
	}
}
