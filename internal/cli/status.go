// status.go implements the "usweep status" command.
//
// The status command is read-only: it shows per-mount disk usage and
// what a clean run would currently reclaim, so an operator can decide
// whether an out-of-schedule run is worth it.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/usweep/internal/diskstat"
	"github.com/mmr-tortoise/usweep/internal/fsclean"
	"github.com/mmr-tortoise/usweep/internal/model"
)

// NewStatusCommand creates the "status" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show disk usage and reclaimable space",
		Long: `Show per-mount disk usage and an estimate of what a clean run would
reclaim. Nothing is modified.

Examples:
  usweep status
  usweep status --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context())
		},
	}
}

// statusResult aggregates the data shown by the status command.
type statusResult struct {
	Mounts      []model.DiskUsage             `json:"mounts"`
	Reclaimable map[model.CleanCategory]int64 `json:"reclaimable"`
	PlanItems   int                           `json:"planItems"`
	PlanBytes   int64                         `json:"planBytes"`
}

// runStatus is the main logic function for the status command.
func runStatus(ctx context.Context) error {
	cfg, closeLog, err := setup()
	if err != nil {
		return err
	}
	defer closeLog()

	mounts, err := diskstat.Mounts(ctx)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to read disk usage", err)
	}

	items, err := fsclean.ScanTargets(ctx, cfg)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "filesystem scan failed", err)
	}
	logItems, err := fsclean.ScanLogs(ctx, cfg, time.Now())
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "log scan failed", err)
	}
	items = append(items, logItems...)

	result := statusResult{
		Mounts:      mounts,
		Reclaimable: make(map[model.CleanCategory]int64),
	}
	for _, item := range items {
		result.PlanItems++
		result.PlanBytes += item.Size
		result.Reclaimable[item.Category] += item.Size
	}

	printStatusResult(result)
	return nil
}

// printStatusResult outputs the status in text or JSON format based on
// the --json global flag.
func printStatusResult(result statusResult) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	// Per-mount usage table with aligned columns.
	fmt.Printf("%-25s %-10s %-10s %-10s %s\n", "MOUNT", "SIZE", "USED", "FREE", "USE%")
	for _, mount := range result.Mounts {
		fmt.Printf("%-25s %-10s %-10s %-10s %.1f%%\n",
			mount.Path,
			FormatSize(int64(mount.TotalBytes)),
			FormatSize(int64(mount.UsedBytes)),
			FormatSize(int64(mount.FreeBytes)),
			mount.UsedPercent,
		)
	}

	fmt.Printf("\nReclaimable by clean: %s across %d items\n",
		FormatSize(result.PlanBytes), result.PlanItems)
	fmt.Printf("  By category: %s\n", FormatCategoryTotals(result.Reclaimable))
}
