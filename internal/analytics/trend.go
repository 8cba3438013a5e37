package analytics

import (
	"github.com/ukydev/motormate/internal/numeric"
)

// Direction is the classified movement of a metric.
type Direction string

const (
	Increasing Direction = "increasing"
	Decreasing Direction = "decreasing"
	Stable     Direction = "stable"
)

// Trend thresholds, in percent.
const (
	ExpenseTrendThreshold   = 5.0
	TripTrendThreshold      = 10.0
	FuelPriceTrendThreshold = 2.0
)

// trendSpan is how many monthly buckets each side of the comparison holds.
const trendSpan = 3

// Trend compares the latest monthly buckets with the ones before them.
type Trend struct {
	Direction       Direction `json:"direction"`
	PercentChange   float64   `json:"percent_change"`
	RecentAverage   float64   `json:"recent_average"`
	PreviousAverage float64   `json:"previous_average"`
}

// ClassifyTrend takes monthly values in ascending month order. The mean of
// the last three is compared with the mean of the three before (fewer at
// the edges); a change beyond ±threshold percent is a direction.
func ClassifyTrend(monthly []float64, threshold float64) Trend {
	n := len(monthly)
	recentFrom := max(n-trendSpan, 0)
	previousFrom := max(recentFrom-trendSpan, 0)

	recent := numeric.Mean(monthly[recentFrom:])
	previous := numeric.Mean(monthly[previousFrom:recentFrom])
	change := numeric.PercentChange(previous, recent)

	dir := Stable
	switch {
	case change > threshold:
		dir = Increasing
	case change < -threshold:
		dir = Decreasing
	}
	return Trend{
		Direction:       dir,
		PercentChange:   numeric.Round2(change),
		RecentAverage:   numeric.Round2(recent),
		PreviousAverage: numeric.Round2(previous),
	}
}
