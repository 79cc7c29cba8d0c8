// scanner.go implements the scan phase: building the cleanup plan
// without modifying the filesystem.
package fsclean

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/mmr-tortoise/usweep/internal/config"
	"github.com/mmr-tortoise/usweep/internal/model"
)

// rotatedNumericRe matches numeric rotation suffixes produced by
// logrotate without compression, e.g. "syslog.1" or "kern.log.2".
var rotatedNumericRe = regexp.MustCompile(`\.\d+$`)

// ScanTargets walks the configured directory-sweep targets and returns
// one CleanItem per removable entry. Directories are reported as a
// single item with their aggregate size, since the clean phase removes
// them recursively in one operation.
//
// Unreadable directories are skipped silently: on a hardened system
// some temp subtrees are owned by other users, and a scan-time
// permission error is not worth failing the run over. The clean phase
// reports its own failures for entries that made it into the plan.
func ScanTargets(ctx context.Context, cfg *config.Config) ([]model.CleanItem, error) {
	var items []model.CleanItem

	for _, target := range Targets(cfg) {
		for _, dir := range target.Paths {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			items = append(items, scanDirectory(dir, target)...)
		}
	}

	return items, nil
}

// scanDirectory lists the immediate entries of dir and converts the
// ones matching the target's pattern into CleanItems.
func scanDirectory(dir string, target CleanTarget) []model.CleanItem {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var items []model.CleanItem
	for _, entry := range entries {
		name := entry.Name()

		if target.Pattern != "" {
			if entry.IsDir() {
				continue
			}
			if ok, _ := filepath.Match(target.Pattern, name); !ok {
				continue
			}
		}

		path := filepath.Join(dir, name)
		var size int64
		if entry.IsDir() {
			size = dirSize(path)
		} else if info, err := entry.Info(); err == nil {
			size = info.Size()
		}

		items = append(items, model.CleanItem{
			Path:        path,
			Size:        size,
			Category:    target.Category,
			Description: target.Description,
			Action:      model.ActionDelete,
		})
	}

	return items
}

// ScanLogs walks the configured log directories and returns removable
// log entries:
//
//   - rotated or compressed log files (name.1, name.gz, name.old, ...)
//     whose modification time is older than log_max_age_days;
//   - active .log files larger than the truncate threshold, reported
//     as truncation items.
//
// now is a parameter rather than time.Now() so tests can pin the clock.
func ScanLogs(ctx context.Context, cfg *config.Config, now time.Time) ([]model.CleanItem, error) {
	cutoff := now.AddDate(0, 0, -cfg.LogMaxAge())
	threshold := cfg.TruncateThreshold()

	var items []model.CleanItem
	for _, dir := range cfg.LogDirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				// Unreadable subtree — skip it and keep walking.
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				return nil
			}

			switch {
			case IsRotatedLog(d.Name()):
				if info.ModTime().Before(cutoff) {
					items = append(items, model.CleanItem{
						Path:        path,
						Size:        info.Size(),
						Category:    model.CategoryLogs,
						Description: "Rotated logs",
						Action:      model.ActionDelete,
					})
				}
			case threshold > 0 && strings.HasSuffix(d.Name(), ".log") && info.Size() > threshold:
				items = append(items, model.CleanItem{
					Path:        path,
					Size:        info.Size(),
					Category:    model.CategoryLogs,
					Description: "Oversized active logs",
					Action:      model.ActionTruncate,
				})
			}

			return nil
		})
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	return items, nil
}

// IsRotatedLog reports whether the file name looks like a rotated or
// compressed log file rather than an active one. Covers the suffixes
// logrotate produces in its default and compress configurations.
func IsRotatedLog(name string) bool {
	for _, suffix := range []string{".gz", ".xz", ".bz2", ".old"} {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return rotatedNumericRe.MatchString(name)
}

// dirSize returns the total size of all regular files under dir.
// Errors during the walk are ignored; a partially sized directory is
// still worth reporting in the plan.
func dirSize(dir string) int64 {
	var total int64
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}
