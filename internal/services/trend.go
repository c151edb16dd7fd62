package services

import (
	"fmt"
	"time"

	"github.com/tbourn/glpi-dashboard-backend/internal/domain"
)

// ComputeTrend formats the period-over-period change of a count.
//
//	ComputeTrend(0, 0)   == "0%"
//	ComputeTrend(5, 0)   == "+100%"
//	ComputeTrend(8, 10)  == "-20.0%"
//	ComputeTrend(12, 10) == "+20.0%"
func ComputeTrend(current, previous int) string {
	if previous == 0 {
		if current > 0 {
			return "+100%"
		}
		return "0%"
	}
	pct := float64(current-previous) / float64(previous) * 100
	return fmt.Sprintf("%+.1f%%", pct)
}

// computeTrends applies ComputeTrend to each bucket.
func computeTrends(cur, prev domain.StatusCounts) domain.Trends {
	return domain.Trends{
		New:        ComputeTrend(cur.New, prev.New),
		Pending:    ComputeTrend(cur.Pending, prev.Pending),
		InProgress: ComputeTrend(cur.InProgress, prev.InProgress),
		Resolved:   ComputeTrend(cur.Resolved, prev.Resolved),
	}
}

// trendWindows returns the current and previous windows used for trends.
// Without a range the current window is the 7 days ending today (UTC) and the
// previous one the 7 days before it.
func trendWindows(rng *domain.DateRange, now time.Time) (cur, prev domain.DateRange) {
	if rng != nil {
		return *rng, rng.Previous()
	}
	y, m, d := now.UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	cur = domain.DateRange{Start: today.AddDate(0, 0, -6), End: today}
	return cur, cur.Previous()
}
