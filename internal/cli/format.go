// format.go contains the pure formatting helpers shared by the command
// output functions. Kept separate from the commands so they can be unit
// tested without running anything.
package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/mmr-tortoise/usweep/internal/model"
)

// FormatSize renders a byte count human-readable (IEC units, e.g.
// "1.5 MiB"). Negative values — possible for usage deltas when other
// processes wrote during a run — keep their sign.
//
// This function is exported for testing purposes (tested in format_test.go).
func FormatSize(bytes int64) string {
	if bytes < 0 {
		return "-" + humanize.IBytes(uint64(-bytes))
	}
	return humanize.IBytes(uint64(bytes))
}

// FormatCategoryTotals converts a per-category byte map into a stable,
// comma-separated summary string. Returns "-" for an empty map.
//
// Example:
//
//	{temp: 1048576, logs: 2048} → "logs: 2.0 KiB, temp: 1.0 MiB"
func FormatCategoryTotals(totals map[model.CleanCategory]int64) string {
	if len(totals) == 0 {
		return "-"
	}

	// Sort category names so the output is deterministic; map iteration
	// order would otherwise shuffle the report between runs.
	names := make([]string, 0, len(totals))
	for category := range totals {
		names = append(names, category.String())
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, FormatSize(totals[model.CleanCategory(name)])))
	}
	return strings.Join(parts, ", ")
}

// FormatUsageDelta renders the before/after disk usage line for run
// reports, including the reclaimed delta.
func FormatUsageDelta(before, after model.DiskUsage) string {
	reclaimed := int64(before.UsedBytes) - int64(after.UsedBytes)
	return fmt.Sprintf("%s used -> %s used (%s reclaimed)",
		FormatSize(int64(before.UsedBytes)),
		FormatSize(int64(after.UsedBytes)),
		FormatSize(reclaimed))
}
