package retention

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// Prune removes <root>/<subject>/<YYYY-MM-DD> directories whose date is
// strictly before cutoff's calendar date, then removes subject directories
// left empty. Entries that don't look like a date directory are left alone.
func Prune(ctx context.Context, root string, cutoff time.Time) (int, error) {
	subjects, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	cutoffDay := cutoff.Format("2006-01-02")
	removed := 0

	for _, subject := range subjects {
		if !subject.IsDir() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		subjectDir := filepath.Join(root, subject.Name())
		dates, err := os.ReadDir(subjectDir)
		if err != nil {
			continue
		}
		for _, date := range dates {
			if !date.IsDir() {
				continue
			}
			name := date.Name()
			if _, err := time.Parse("2006-01-02", name); err != nil {
				continue
			}
			// Lexicographic compare is chronological for this layout.
			if name >= cutoffDay {
				continue
			}
			if err := os.RemoveAll(filepath.Join(subjectDir, name)); err == nil {
				removed++
			}
		}

		// Drop the subject directory if the sweep emptied it.
		if rest, err := os.ReadDir(subjectDir); err == nil && len(rest) == 0 {
			_ = os.Remove(subjectDir)
		}
	}
	return removed, nil
}
