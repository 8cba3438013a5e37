package mileage

import (
	"sort"
	"time"

	"github.com/ukydev/motormate/internal/models"
	"github.com/ukydev/motormate/internal/numeric"
)

// Attribution selects which fill-up's fuel volume is charged to the
// interval between two consecutive fill-ups.
type Attribution int

const (
	// AttributeCurrent charges the newer fill-up's volume: filling to full
	// replaces what was burned since the previous fill.
	AttributeCurrent Attribution = iota
	// AttributeOlder charges the older fill-up's volume: fuel added at the
	// start of the interval is consumed over it.
	AttributeOlder
)

// DataPoint is the mileage over one interval between fill-ups.
type DataPoint struct {
	ExpenseID    string    `json:"expense_id"`
	Date         time.Time `json:"date"`
	FromOdometer int64     `json:"from_odometer"`
	ToOdometer   int64     `json:"to_odometer"`
	Distance     float64   `json:"distance"`
	FuelUsed     float64   `json:"fuel_used"`
	Mileage      float64   `json:"mileage"`
	Cost         float64   `json:"cost"`
	CostPerKm    float64   `json:"cost_per_km"`
}

// Stats aggregates a vehicle's fuel history.
type Stats struct {
	FillUps           int     `json:"fill_ups"`
	DataPoints        int     `json:"data_points"`
	AverageMileage    float64 `json:"average_mileage"`
	BestMileage       float64 `json:"best_mileage"`
	WorstMileage      float64 `json:"worst_mileage"`
	TotalDistance     float64 `json:"total_distance"`
	TotalFuel         float64 `json:"total_fuel"`
	TotalFuelCost     float64 `json:"total_fuel_cost"`
	TotalFuelQuantity float64 `json:"total_fuel_quantity"`
	CostPerDistance   float64 `json:"cost_per_distance"`
	AverageFuelPrice  float64 `json:"average_fuel_price"`
}

// Report is the calculator output: summary stats plus the data points,
// newest first.
type Report struct {
	Stats  Stats       `json:"stats"`
	Points []DataPoint `json:"data_points"`
}

// Option configures Calculate.
type Option func(*calcConfig)

type calcConfig struct {
	attribution Attribution
}

// WithAttribution overrides the default AttributeCurrent policy.
func WithAttribution(a Attribution) Option {
	return func(c *calcConfig) { c.attribution = a }
}

// Calculate derives mileage data points from a vehicle's fuel expenses.
// Non-fuel records are ignored. Sparse input is normal: every ratio with a
// zero denominator is reported as 0.
//
// The default AttributeCurrent charges each interval with the newer
// fill-up's volume, so (1000 km, no fuel) then (1400 km, 30 L) reads as
// 400 km over 30 L, 13.33.
func Calculate(expenses []models.Expense, opts ...Option) Report {
	cfg := calcConfig{attribution: AttributeCurrent}
	for _, opt := range opts {
		opt(&cfg)
	}

	fuel := make([]models.Expense, 0, len(expenses))
	for _, e := range expenses {
		if e.IsFuel() {
			fuel = append(fuel, e)
		}
	}
	sortNewestFirst(fuel)

	report := Report{Points: make([]DataPoint, 0)}
	var totalFuelCost, totalFuelQty float64
	for _, e := range fuel {
		totalFuelCost += e.Amount
		totalFuelQty += e.FuelAdded()
	}

	var (
		mileages      []float64
		totalDistance float64
		totalFuel     float64
		best, worst   float64
	)
	for i := 0; i+1 < len(fuel); i++ {
		current, older := &fuel[i], &fuel[i+1]
		curOdo, ok1 := current.Odometer()
		oldOdo, ok2 := older.Odometer()
		if !ok1 || !ok2 || current.FuelAdded() <= 0 {
			continue
		}
		distance := float64(curOdo - oldOdo)
		charged := current
		if cfg.attribution == AttributeOlder {
			charged = older
		}
		used := charged.FuelAdded()
		if distance <= 0 || used <= 0 {
			continue
		}

		m := distance / used
		report.Points = append(report.Points, DataPoint{
			ExpenseID:    current.ID.Hex(),
			Date:         current.Date,
			FromOdometer: oldOdo,
			ToOdometer:   curOdo,
			Distance:     distance,
			FuelUsed:     numeric.Round2(used),
			Mileage:      numeric.Round2(m),
			Cost:         numeric.Round2(charged.Amount),
			CostPerKm:    numeric.Round2(numeric.Ratio(charged.Amount, distance)),
		})

		if len(mileages) == 0 || m > best {
			best = m
		}
		if len(mileages) == 0 || m < worst {
			worst = m
		}
		mileages = append(mileages, m)
		totalDistance += distance
		totalFuel += used
	}

	report.Stats = Stats{
		FillUps:           len(fuel),
		DataPoints:        len(mileages),
		AverageMileage:    numeric.Round2(numeric.Mean(mileages)),
		BestMileage:       numeric.Round2(best),
		WorstMileage:      numeric.Round2(worst),
		TotalDistance:     numeric.Round2(totalDistance),
		TotalFuel:         numeric.Round2(totalFuel),
		TotalFuelCost:     numeric.Round2(totalFuelCost),
		TotalFuelQuantity: numeric.Round2(totalFuelQty),
		CostPerDistance:   numeric.Round2(numeric.Ratio(totalFuelCost, totalDistance)),
		AverageFuelPrice:  numeric.Round2(numeric.Ratio(totalFuelCost, totalFuelQty)),
	}
	return report
}

// sortNewestFirst orders by date, then odometer, then id, all descending.
func sortNewestFirst(expenses []models.Expense) {
	sort.SliceStable(expenses, func(i, j int) bool {
		a, b := &expenses[i], &expenses[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		ao, _ := a.Odometer()
		bo, _ := b.Odometer()
		if ao != bo {
			return ao > bo
		}
		return a.ID.Hex() > b.ID.Hex()
	})
}
