package diskstat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/usweep/internal/model"
)

// TestSnapshot verifies that a snapshot of an existing directory returns
// internally consistent numbers.
func TestSnapshot(t *testing.T) {
	usage, err := Snapshot(context.Background(), t.TempDir())
	require.NoError(t, err)

	assert.Positive(t, usage.TotalBytes)
	assert.LessOrEqual(t, usage.UsedBytes, usage.TotalBytes)
	assert.GreaterOrEqual(t, usage.UsedPercent, 0.0)
	assert.LessOrEqual(t, usage.UsedPercent, 100.0)
}

// TestSnapshotMissingPath verifies that a nonexistent path is an error.
func TestSnapshotMissingPath(t *testing.T) {
	_, err := Snapshot(context.Background(), "/definitely/not/a/mount/point")
	assert.Error(t, err)
}

// TestReclaimed covers the delta computation, including the negative
// case where unrelated writes outpaced the cleanup.
func TestReclaimed(t *testing.T) {
	before := model.DiskUsage{UsedBytes: 10_000}
	after := model.DiskUsage{UsedBytes: 7_500}
	assert.Equal(t, int64(2_500), Reclaimed(before, after))

	grown := model.DiskUsage{UsedBytes: 11_000}
	assert.Equal(t, int64(-1_000), Reclaimed(before, grown))

	assert.Zero(t, Reclaimed(before, before))
}
