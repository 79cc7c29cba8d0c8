// orphan.go implements detection and deletion of .snap files that no
// longer belong to any installed revision, and clearing of the snapd
// download cache.
//
// snapd keeps one <name>_<revision>.snap file per installed revision
// under /var/lib/snapd/snaps. Interrupted refreshes and manually
// sideloaded installs can leave .snap files behind that snapd no
// longer tracks; those files are never mounted again and only consume
// disk space.
package snappkg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mmr-tortoise/usweep/internal/model"
)

// ScanOrphans returns the .snap files in SnapsDir that do not match any
// of the given installed revisions.
//
// A file is referenced — and therefore preserved — when its parsed
// name and revision match a listed revision, whether that revision is
// enabled or disabled. Disabled revisions stay mounted until they are
// removed through snapd, so their backing files must not be deleted
// out from under the mount.
//
// Files whose names do not follow the <name>_<revision>.snap convention
// are left alone: they were not placed there by snapd and deleting them
// is not this tool's call.
func (m *Manager) ScanOrphans(ctx context.Context, installed []model.SnapRevision) ([]model.OrphanSnapFile, error) {
	// Index installed revisions for O(1) lookup during the scan.
	referenced := make(map[string]bool, len(installed))
	for _, rev := range installed {
		referenced[rev.Name+"_"+rev.Revision] = true
	}

	entries, err := os.ReadDir(m.SnapsDir)
	if err != nil {
		if os.IsNotExist(err) {
			// No snaps directory means nothing to prune, not an error —
			// a fresh instance may never have installed a snap.
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snaps directory %s: %w", m.SnapsDir, err)
	}

	var orphans []model.OrphanSnapFile
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() {
			continue
		}

		name, revision, ok := ParseSnapFileName(entry.Name())
		if !ok {
			continue
		}
		if referenced[name+"_"+revision] {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// File vanished between ReadDir and Info — nothing to delete.
			continue
		}

		orphans = append(orphans, model.OrphanSnapFile{
			Path:     filepath.Join(m.SnapsDir, entry.Name()),
			Name:     name,
			Revision: revision,
			Size:     info.Size(),
		})
	}

	return orphans, nil
}

// DeleteOrphan removes a single orphaned .snap file from disk.
func (m *Manager) DeleteOrphan(orphan model.OrphanSnapFile) error {
	if err := os.Remove(orphan.Path); err != nil {
		return fmt.Errorf("failed to delete orphan snap file %s: %w", orphan.Path, err)
	}
	return nil
}

// ClearCache deletes the regular files in the snapd download cache
// directory. It is best-effort: per-file failures are reported through
// the skip callback and the sweep continues. Returns the number of
// files deleted and the bytes reclaimed.
func (m *Manager) ClearCache(ctx context.Context, skip func(path string, err error)) (int, int64, error) {
	entries, err := os.ReadDir(m.CacheDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("failed to read snapd cache directory %s: %w", m.CacheDir, err)
	}

	deleted := 0
	var reclaimed int64
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return deleted, reclaimed, err
		}
		// The cache only contains regular files keyed by content hash;
		// anything else in the directory is not ours to manage.
		if entry.IsDir() {
			continue
		}

		path := filepath.Join(m.CacheDir, entry.Name())
		var size int64
		if info, err := entry.Info(); err == nil {
			size = info.Size()
		}

		if err := os.Remove(path); err != nil {
			if skip != nil {
				skip(path, err)
			}
			continue
		}
		deleted++
		reclaimed += size
	}

	return deleted, reclaimed, nil
}

// CacheUsage counts the regular files in the snapd download cache and
// sums their sizes without deleting anything. Dry-run pruning uses it
// so the preview covers the same ground as a real run.
func (m *Manager) CacheUsage(ctx context.Context) (int, int64, error) {
	entries, err := os.ReadDir(m.CacheDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("failed to read snapd cache directory %s: %w", m.CacheDir, err)
	}

	count := 0
	var total int64
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return count, total, err
		}
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		count++
		total += info.Size()
	}

	return count, total, nil
}

// ParseSnapFileName splits a snap file name of the form
// <name>_<revision>.snap into its parts.
//
// Snap names may contain hyphens but never underscores, so the revision
// is everything after the last underscore. Returns ok=false for names
// that do not follow the convention.
func ParseSnapFileName(fileName string) (name, revision string, ok bool) {
	stem, found := strings.CutSuffix(fileName, ".snap")
	if !found {
		return "", "", false
	}

	idx := strings.LastIndex(stem, "_")
	if idx <= 0 || idx == len(stem)-1 {
		return "", "", false
	}

	return stem[:idx], stem[idx+1:], true
}
