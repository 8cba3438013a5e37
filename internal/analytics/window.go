// Package analytics aggregates expenses and trips into time-bucketed and
// categorical summaries.
package analytics

import (
	"time"

	"github.com/ukydev/motormate/internal/validation"
)

const (
	// DefaultMonths is the trailing window for total, per-vehicle and
	// fuel-price views.
	DefaultMonths = 12
	// ComparativeMonths is the trailing window for cross-vehicle views.
	ComparativeMonths = 6
)

// Window is an inclusive date range.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Range holds caller overrides for a window. Nil bounds fall back to the
// view's default.
type Range struct {
	Start *time.Time
	End   *time.Time
}

// ResolveWindow applies r over the trailing window of months calendar
// months ending at now. The default start is the first instant of the
// month months-1 before the end, so the window spans months buckets.
func ResolveWindow(now time.Time, months int, r Range) (Window, error) {
	if err := validation.DateRange(r.Start, r.End); err != nil {
		return Window{}, err
	}
	w := Window{End: now.UTC()}
	if r.End != nil {
		w.End = r.End.UTC()
	}
	if r.Start != nil {
		w.Start = r.Start.UTC()
	} else {
		w.Start = monthStart(w.End).AddDate(0, -(months - 1), 0)
	}
	if w.Start.After(w.End) {
		return Window{}, validation.New("startDate", "must not be after endDate", w.Start.Format(time.RFC3339))
	}
	return w, nil
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// monthKey is the YYYY-MM bucket of t in UTC.
func monthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}
