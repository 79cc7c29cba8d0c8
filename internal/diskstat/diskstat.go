// Package diskstat reads filesystem usage via gopsutil.
//
// Each maintenance run snapshots the root filesystem before and after
// doing its work so the report can state how many bytes were actually
// reclaimed — the scanned plan sizes are an estimate, while the usage
// delta is ground truth.
package diskstat

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/disk"

	"github.com/mmr-tortoise/usweep/internal/model"
)

// DefaultMount is the mount point snapshotted around maintenance runs.
const DefaultMount = "/"

// Snapshot returns the current usage of the filesystem containing path.
func Snapshot(ctx context.Context, path string) (model.DiskUsage, error) {
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return model.DiskUsage{}, fmt.Errorf("failed to read disk usage for %s: %w", path, err)
	}

	return model.DiskUsage{
		Path:        path,
		TotalBytes:  usage.Total,
		UsedBytes:   usage.Used,
		FreeBytes:   usage.Free,
		UsedPercent: usage.UsedPercent,
	}, nil
}

// Mounts returns usage snapshots for all physical partitions, sorted by
// whatever order the OS reports them in. Pseudo filesystems (proc,
// tmpfs-backed mounts and the like) are excluded; they do not hold
// reclaimable package or log data.
func Mounts(ctx context.Context) ([]model.DiskUsage, error) {
	partitions, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list partitions: %w", err)
	}

	snapshots := make([]model.DiskUsage, 0, len(partitions))
	for _, p := range partitions {
		usage, err := Snapshot(ctx, p.Mountpoint)
		if err != nil {
			// A mount that disappears mid-listing (container teardown,
			// unmounted media) is not worth failing the whole report.
			continue
		}
		snapshots = append(snapshots, usage)
	}

	return snapshots, nil
}

// Reclaimed returns the used-bytes delta between two snapshots.
// Positive means space was freed. The value can be slightly negative
// when unrelated processes wrote data during the run; reports show it
// as-is rather than clamping, since hiding growth would mask problems.
func Reclaimed(before, after model.DiskUsage) int64 {
	return int64(before.UsedBytes) - int64(after.UsedBytes)
}
