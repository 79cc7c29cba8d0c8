// Package fsclean implements the filesystem side of the cache cleaner:
// scanning known cache, temp, and log locations for removable entries
// and deleting or truncating them.
//
// The work is split into a scan phase and a clean phase. The scan
// produces a plan ([]model.CleanItem with sizes) without touching
// anything, which is what --dry-run prints; the clean phase applies the
// plan best-effort, skipping entries that fail and accounting for the
// bytes actually reclaimed.
package fsclean

import (
	"os"

	"github.com/mmr-tortoise/usweep/internal/config"
	"github.com/mmr-tortoise/usweep/internal/model"
)

// CleanTarget describes a category of filesystem locations that the
// scanner inspects for removable entries.
type CleanTarget struct {
	// Name is the unique identifier for this target.
	Name string

	// Paths is the list of directories to scan.
	Paths []string

	// Pattern is an optional file glob (filepath.Match syntax) applied
	// to entry names. Empty means every entry matches. Directories are
	// only matched when Pattern is empty: a glob target wants specific
	// files, not whole trees.
	Pattern string

	// Category groups the resulting items for reporting.
	Category model.CleanCategory

	// Description is a human-readable label carried onto each item.
	Description string
}

// Targets returns the directory-sweep targets for the given
// configuration. Log files are handled separately by ScanLogs because
// they follow age and size rules, not unconditional removal.
//
// The apt archives target is a backstop: `apt-get clean` empties the
// directory through apt itself, but when apt fails (held lock, broken
// dpkg state) the leftover .deb files are still safe to delete directly.
func Targets(cfg *config.Config) []CleanTarget {
	tempPaths := append([]string{os.TempDir(), "/var/tmp"}, cfg.ExtraTempDirs...)

	return []CleanTarget{
		{
			Name: "AptArchives",
			// The glob keeps the apt lock file and the partial/
			// subdirectory entry intact; partials are swept by the
			// second target.
			Paths:       []string{"/var/cache/apt/archives"},
			Pattern:     "*.deb",
			Category:    model.CategoryAptCache,
			Description: "Cached package files",
		},
		{
			Name:        "AptPartial",
			Paths:       []string{"/var/cache/apt/archives/partial"},
			Category:    model.CategoryAptCache,
			Description: "Partial package downloads",
		},
		{
			Name:        "TempFiles",
			Paths:       tempPaths,
			Category:    model.CategoryTemp,
			Description: "Temporary files",
		},
	}
}
