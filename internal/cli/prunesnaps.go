// prunesnaps.go implements the "usweep prune-snaps" command.
//
// The prune-snaps command removes the disk weight snapd accumulates
// over time: disabled revisions kept around after refreshes, orphaned
// .snap files no revision references anymore, and the download cache.
//
// snapd being present and responsive is a hard precondition. When the
// probe fails, the command exits nonzero without having modified the
// filesystem; everything after the probe is best-effort in the same way
// as the clean command.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/usweep/internal/diskstat"
	"github.com/mmr-tortoise/usweep/internal/model"
	"github.com/mmr-tortoise/usweep/internal/snappkg"
)

// pruneFlags holds the flag values for the prune-snaps command.
type pruneFlags struct {
	// dryRun reports what would be pruned without removing anything.
	dryRun bool
}

// NewPruneSnapsCommand creates the "prune-snaps" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewPruneSnapsCommand() *cobra.Command {
	flags := &pruneFlags{}

	cmd := &cobra.Command{
		Use:   "prune-snaps",
		Short: "Remove disabled snap revisions and orphaned snap files",
		Long: `Remove disabled snap revisions, delete orphaned .snap files, and clear
the snapd download cache.

The enabled revision of a snap is never touched, and .snap files backing
any revision snapd still lists — enabled or disabled — are preserved.
Snaps on the configured protected list keep their disabled revisions.

Fails fast with a nonzero exit code if snapd is not available.

Examples:
  usweep prune-snaps
  usweep prune-snaps --dry-run
  usweep prune-snaps --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runPruneSnaps(cmd.Context(), flags)
		},
	}

	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Preview without removing anything")

	return cmd
}

// runPruneSnaps is the main logic function for the prune-snaps command.
func runPruneSnaps(ctx context.Context, flags *pruneFlags) error {
	cfg, closeLog, err := setup()
	if err != nil {
		return err
	}
	defer closeLog()

	snaps := snappkg.NewManager()

	// Step 1: Hard precondition — abort before touching anything when
	// snapd is absent or unresponsive.
	if err := snaps.Available(ctx); err != nil {
		return err
	}
	log.Debug("snapd is available")

	report := &model.PruneReport{
		DryRun:    flags.dryRun,
		StartedAt: time.Now(),
	}

	if usage, err := diskstat.Snapshot(ctx, diskstat.DefaultMount); err != nil {
		log.WithError(err).Warn("could not snapshot disk usage")
	} else {
		report.UsageBefore = usage
	}

	// Step 2: List every installed revision, enabled and disabled.
	installed, err := snaps.ListAll(ctx)
	if err != nil {
		return err
	}
	log.WithField("revisions", len(installed)).Debug("listed snap revisions")

	// Step 3: Remove disabled revisions, honoring the protected list.
	candidates, protected := snappkg.DisabledRevisions(installed, cfg.IsProtectedSnap)
	report.ProtectedRevisions = protected

	for _, rev := range candidates {
		if flags.dryRun {
			report.RemovedRevisions = append(report.RemovedRevisions, rev)
			continue
		}
		if err := snaps.RemoveRevision(ctx, rev.Name, rev.Revision); err != nil {
			log.WithError(err).WithField("revision", rev.ID()).Warn("failed to remove snap revision, continuing")
			report.Skipped = append(report.Skipped, model.SkippedItem{
				Path:   rev.ID(),
				Reason: err.Error(),
			})
			continue
		}
		log.WithField("revision", rev.ID()).Info("removed disabled snap revision")
		report.RemovedRevisions = append(report.RemovedRevisions, rev)
	}

	// Step 4: Delete orphaned .snap files. The referenced set is the
	// pre-removal listing: a file backing any revision snapd listed at
	// the start of the run is never considered an orphan, even if the
	// revision was just removed (snapd deletes those files itself).
	orphans, err := snaps.ScanOrphans(ctx, installed)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "orphan scan failed", err)
	}
	for _, orphan := range orphans {
		if flags.dryRun {
			report.OrphansDeleted = append(report.OrphansDeleted, orphan)
			report.BytesReclaimed += orphan.Size
			continue
		}
		if err := snaps.DeleteOrphan(orphan); err != nil {
			log.WithError(err).WithField("path", orphan.Path).Warn("failed to delete orphan snap file, continuing")
			report.Skipped = append(report.Skipped, model.SkippedItem{
				Path:   orphan.Path,
				Reason: err.Error(),
			})
			continue
		}
		log.WithField("path", orphan.Path).Info("deleted orphan snap file")
		report.OrphansDeleted = append(report.OrphansDeleted, orphan)
		report.BytesReclaimed += orphan.Size
	}

	// Step 5: Clear the snapd download cache. A dry run only measures
	// it, so the preview reports the same file count and byte total a
	// real run would reclaim.
	if flags.dryRun {
		count, size, err := snaps.CacheUsage(ctx)
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "snapd cache scan failed", err)
		}
		report.CacheFilesDeleted = count
		report.BytesReclaimed += size
	} else {
		deleted, reclaimed, err := snaps.ClearCache(ctx, func(path string, err error) {
			log.WithError(err).WithField("path", path).Warn("failed to delete cache file, continuing")
			report.Skipped = append(report.Skipped, model.SkippedItem{
				Path:   path,
				Reason: err.Error(),
			})
		})
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "snapd cache sweep failed", err)
		}
		report.CacheFilesDeleted = deleted
		report.BytesReclaimed += reclaimed

		if usage, err := diskstat.Snapshot(ctx, diskstat.DefaultMount); err != nil {
			log.WithError(err).Warn("could not snapshot disk usage")
		} else {
			report.UsageAfter = usage
		}
	}

	log.WithField("revisions", len(report.RemovedRevisions)).
		WithField("orphans", len(report.OrphansDeleted)).
		WithField("cacheFiles", report.CacheFilesDeleted).
		Info("prune run finished")

	printPruneResult(report)
	return nil
}

// printPruneResult outputs the prune-snaps result in text or JSON
// format based on the --json global flag.
func printPruneResult(report *model.PruneReport) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(data))
		return
	}

	heading := "Pruned"
	if report.DryRun {
		heading = "Would prune (dry run)"
	}
	fmt.Printf("%s %d disabled revisions, %d orphan files, %d cache files\n",
		heading, len(report.RemovedRevisions), len(report.OrphansDeleted), report.CacheFilesDeleted)

	for _, rev := range report.RemovedRevisions {
		fmt.Printf("  - %s\n", rev.ID())
	}
	for _, orphan := range report.OrphansDeleted {
		fmt.Printf("  - %s (%s)\n", orphan.Path, FormatSize(orphan.Size))
	}
	if len(report.ProtectedRevisions) > 0 {
		fmt.Printf("  Protected (kept): %d\n", len(report.ProtectedRevisions))
	}
	if len(report.Skipped) > 0 {
		fmt.Printf("  Skipped with errors: %d (see log)\n", len(report.Skipped))
	}
	if !report.DryRun {
		fmt.Printf("  Disk: %s\n", FormatUsageDelta(report.UsageBefore, report.UsageAfter))
	}
}
