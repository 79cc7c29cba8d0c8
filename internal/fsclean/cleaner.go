// cleaner.go implements the clean phase: applying a scanned plan to the
// filesystem best-effort.
package fsclean

import (
	"context"
	"os"

	"github.com/mmr-tortoise/usweep/internal/model"
)

// Result summarizes what the clean phase actually did.
type Result struct {
	// ItemsRemoved is the number of plan entries successfully deleted
	// or truncated.
	ItemsRemoved int

	// BytesReclaimed is the total scanned size of the successful entries.
	BytesReclaimed int64

	// BytesPerCategory breaks BytesReclaimed down by category.
	BytesPerCategory map[model.CleanCategory]int64

	// Skipped lists entries that failed, with the error text. A failed
	// entry never aborts the run; cleanup is best-effort by contract.
	Skipped []model.SkippedItem
}

// Clean applies the given plan. Each item is deleted (recursively, for
// directories) or truncated according to its Action. Failures are
// recorded in the result and the run continues; the only error Clean
// itself returns is context cancellation.
func Clean(ctx context.Context, items []model.CleanItem) (Result, error) {
	result := Result{
		BytesPerCategory: make(map[model.CleanCategory]int64),
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		var err error
		switch item.Action {
		case model.ActionTruncate:
			err = os.Truncate(item.Path, 0)
		default:
			err = os.RemoveAll(item.Path)
		}

		if err != nil {
			// A vanished file already achieved the goal.
			if os.IsNotExist(err) {
				continue
			}
			result.Skipped = append(result.Skipped, model.SkippedItem{
				Path:   item.Path,
				Reason: err.Error(),
			})
			continue
		}

		result.ItemsRemoved++
		result.BytesReclaimed += item.Size
		result.BytesPerCategory[item.Category] += item.Size
	}

	return result, nil
}
