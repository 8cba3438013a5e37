package analytics

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/motormate/internal/models"
	"github.com/ukydev/motormate/internal/validation"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func ptr[T any](v T) *T { return &v }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func expense(vehicle primitive.ObjectID, t models.ExpenseType, amount float64, date time.Time) models.Expense {
	return models.Expense{
		ID:          primitive.NewObjectID(),
		VehicleID:   vehicle,
		ExpenseType: t,
		Amount:      amount,
		Date:        date,
		IsActive:    true,
	}
}

func fuel(vehicle primitive.ObjectID, odometer int64, added, amount float64, date time.Time) models.Expense {
	e := expense(vehicle, models.ExpenseFuel, amount, date)
	e.OdometerReading = ptr(odometer)
	e.Fuel = &models.FuelDetails{FuelAdded: added}
	return e
}

func trip(vehicle primitive.ObjectID, purpose models.TripPurpose, distance, cost float64, date time.Time) models.Trip {
	return models.Trip{
		ID:        primitive.NewObjectID(),
		VehicleID: vehicle,
		Purpose:   purpose,
		Distance:  distance,
		TotalCost: cost,
		Date:      date,
		IsActive:  true,
	}
}

func TestResolveWindow(t *testing.T) {
	now := time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)

	t.Run("default trailing months", func(t *testing.T) {
		w, err := ResolveWindow(now, DefaultMonths, Range{})
		require.NoError(t, err)
		assert.Equal(t, time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC), w.Start)
		assert.Equal(t, now, w.End)
	})

	t.Run("comparative window", func(t *testing.T) {
		w, err := ResolveWindow(now, ComparativeMonths, Range{})
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), w.Start)
	})

	t.Run("overrides", func(t *testing.T) {
		start := day(2024, 2, 1)
		end := day(2024, 3, 1)
		w, err := ResolveWindow(now, DefaultMonths, Range{Start: &start, End: &end})
		require.NoError(t, err)
		assert.Equal(t, start, w.Start)
		assert.Equal(t, end, w.End)
	})

	t.Run("start after end", func(t *testing.T) {
		start := day(2024, 4, 1)
		end := day(2024, 3, 1)
		_, err := ResolveWindow(now, DefaultMonths, Range{Start: &start, End: &end})
		var verrs validation.Errors
		require.ErrorAs(t, err, &verrs)
		assert.Equal(t, "startDate", verrs[0].Field)
	})

	t.Run("start override after default end", func(t *testing.T) {
		start := now.AddDate(0, 1, 0)
		_, err := ResolveWindow(now, DefaultMonths, Range{Start: &start})
		assert.Error(t, err)
	})
}

func TestClassifyTrend(t *testing.T) {
	tests := []struct {
		name      string
		monthly   []float64
		threshold float64
		direction Direction
		change    float64
	}{
		{"rising last month", []float64{100, 100, 100, 100, 100, 150}, ExpenseTrendThreshold, Increasing, 16.67},
		{"falling", []float64{200, 200, 200, 100, 100, 100}, ExpenseTrendThreshold, Decreasing, -50},
		{"within threshold", []float64{100, 100, 100, 104, 104, 104}, ExpenseTrendThreshold, Stable, 4},
		{"exactly at threshold", []float64{100, 100, 100, 105, 105, 105}, ExpenseTrendThreshold, Stable, 5},
		{"trip threshold is wider", []float64{10, 10, 10, 11, 11, 11}, TripTrendThreshold, Stable, 10},
		{"fuel threshold is narrower", []float64{100, 100, 100, 103, 103, 103}, FuelPriceTrendThreshold, Increasing, 3},
		{"no previous buckets", []float64{100, 200}, ExpenseTrendThreshold, Stable, 0},
		{"empty", nil, ExpenseTrendThreshold, Stable, 0},
		{"short previous span", []float64{50, 100, 100, 100}, ExpenseTrendThreshold, Increasing, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyTrend(tt.monthly, tt.threshold)
			assert.Equal(t, tt.direction, got.Direction)
			assert.InDelta(t, tt.change, got.PercentChange, 1e-9)
		})
	}
}

func TestSummarizeExpenses(t *testing.T) {
	car := primitive.NewObjectID()
	bike := primitive.NewObjectID()
	expenses := []models.Expense{
		expense(car, models.ExpenseFuel, 40, day(2024, 1, 5)),
		expense(car, models.ExpenseService, 120, day(2024, 1, 20)),
		expense(bike, models.ExpenseFuel, 15, day(2024, 2, 2)),
		expense(car, models.ExpenseOther, 10.01, day(2024, 3, 31)),
		expense(bike, models.ExpenseFuel, 25, day(2024, 3, 1)),
	}

	s := SummarizeExpenses(expenses, map[primitive.ObjectID]string{car: "Car", bike: "Bike"})

	assert.Equal(t, 5, s.Count)
	assert.Equal(t, 210.01, s.Total)
	require.Len(t, s.ByMonth, 3)
	assert.Equal(t, MonthlyExpense{Month: "2024-01", Total: 160, Count: 2, Average: 80}, s.ByMonth[0])
	assert.Equal(t, MonthlyExpense{Month: "2024-02", Total: 15, Count: 1, Average: 15}, s.ByMonth[1])
	assert.Equal(t, "2024-03", s.ByMonth[2].Month)
	assert.Equal(t, 35.01, s.ByMonth[2].Total)

	require.Len(t, s.ByType, 3)
	assert.Equal(t, models.ExpenseFuel, s.ByType[0].Type)
	assert.Equal(t, 80.0, s.ByType[0].Total)
	assert.Equal(t, 3, s.ByType[0].Count)

	require.Len(t, s.ByVehicle, 2)
	assert.Equal(t, "Car", s.ByVehicle[0].VehicleName)
	assert.Equal(t, 170.01, s.ByVehicle[0].Total)
	assert.Equal(t, "Bike", s.ByVehicle[1].VehicleName)
}

func TestSummarizeExpensesUnknownVehicle(t *testing.T) {
	s := SummarizeExpenses([]models.Expense{
		expense(primitive.NewObjectID(), models.ExpenseOther, 5, day(2024, 1, 1)),
	}, nil)
	require.Len(t, s.ByVehicle, 1)
	assert.Equal(t, UnknownVehicleName, s.ByVehicle[0].VehicleName)
}

func TestSummarizeTrips(t *testing.T) {
	car := primitive.NewObjectID()
	trips := []models.Trip{
		trip(car, models.PurposeCommute, 20, 3, day(2024, 1, 3)),
		trip(car, models.PurposeCommute, 30, 4.5, day(2024, 1, 4)),
		trip(car, models.PurposeLeisure, 150, 22.5, day(2024, 2, 10)),
	}

	s := SummarizeTrips(trips, map[primitive.ObjectID]string{car: "Car"})

	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 200.0, s.TotalDistance)
	assert.Equal(t, 30.0, s.TotalCost)
	assert.Equal(t, 66.67, s.AverageDistance)
	assert.Equal(t, 0.15, s.CostPerKm)
	require.Len(t, s.ByMonth, 2)
	assert.Equal(t, MonthlyTrips{Month: "2024-01", Count: 2, Distance: 50, Cost: 7.5}, s.ByMonth[0])
	assert.Equal(t, []float64{2, 1}, s.MonthlyCounts())

	require.Len(t, s.ByPurpose, 6)
	for _, p := range s.ByPurpose {
		switch p.Purpose {
		case models.PurposeCommute:
			assert.Equal(t, 2, p.Count)
			assert.Equal(t, 25.0, p.AverageDistance)
		case models.PurposeLeisure:
			assert.Equal(t, 1, p.Count)
		default:
			assert.Zero(t, p.Count)
		}
	}
}

func TestEmptySummaries(t *testing.T) {
	es := SummarizeExpenses(nil, nil)
	ts := SummarizeTrips(nil, nil)
	fp := SummarizeFuelPrices(nil)
	rows, rankings := CompareVehicles(nil, nil, nil)

	assert.Zero(t, es.Total)
	assert.NotNil(t, es.ByMonth)
	assert.NotNil(t, es.ByVehicle)
	assert.Len(t, es.ByType, 3)
	assert.NotNil(t, ts.ByMonth)
	assert.NotNil(t, ts.ByVehicle)
	assert.NotNil(t, fp.Months)
	assert.Equal(t, Stable, fp.Trend.Direction)
	assert.NotNil(t, rows)
	assert.Nil(t, rankings.MostExpensive)
	assert.Nil(t, rankings.LeastEfficient)

	out, err := json.Marshal(es)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"by_month":[]`)
	assert.NotContains(t, string(out), "null")
}

func TestSummariesAreDeterministic(t *testing.T) {
	a, b, c := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	expenses := []models.Expense{
		expense(a, models.ExpenseFuel, 50, day(2024, 1, 1)),
		expense(b, models.ExpenseFuel, 50, day(2024, 1, 2)),
		expense(c, models.ExpenseService, 50, day(2024, 2, 1)),
	}
	trips := []models.Trip{
		trip(a, models.PurposeBusiness, 10, 1, day(2024, 1, 1)),
		trip(b, models.PurposeBusiness, 10, 1, day(2024, 1, 1)),
	}

	first, err := json.Marshal([]interface{}{SummarizeExpenses(expenses, nil), SummarizeTrips(trips, nil)})
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := json.Marshal([]interface{}{SummarizeExpenses(expenses, nil), SummarizeTrips(trips, nil)})
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestCompareVehicles(t *testing.T) {
	alpha := models.Vehicle{ID: primitive.NewObjectID(), Name: "Alpha"}
	beta := models.Vehicle{ID: primitive.NewObjectID(), Name: "Beta"}
	gamma := models.Vehicle{ID: primitive.NewObjectID(), Name: "Gamma"}

	expenses := []models.Expense{
		fuel(alpha.ID, 1000, 40, 60, day(2024, 1, 1)),
		fuel(alpha.ID, 1400, 30, 45, day(2024, 1, 10)),
		fuel(beta.ID, 500, 20, 30, day(2024, 1, 2)),
		fuel(beta.ID, 800, 20, 30, day(2024, 1, 12)),
		expense(gamma.ID, models.ExpenseService, 300, day(2024, 1, 3)),
		expense(primitive.NewObjectID(), models.ExpenseOther, 999, day(2024, 1, 3)),
	}
	trips := []models.Trip{
		trip(alpha.ID, models.PurposeCommute, 400, 0, day(2024, 1, 5)),
		trip(beta.ID, models.PurposeCommute, 300, 0, day(2024, 1, 6)),
	}

	rows, r := CompareVehicles([]models.Vehicle{gamma, beta, alpha}, expenses, trips)

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, []string{rows[0].Name, rows[1].Name, rows[2].Name})
	assert.Equal(t, 105.0, rows[0].TotalExpense)
	assert.Equal(t, 13.33, rows[0].AverageMileage)
	assert.Equal(t, 15.0, rows[1].AverageMileage)
	assert.Equal(t, 0.26, rows[0].CostPerKm)

	require.Len(t, r.ByExpense, 3)
	assert.Equal(t, "Gamma", r.MostExpensive.Name)
	assert.Equal(t, "Beta", r.LeastExpensive.Name)

	require.Len(t, r.ByMileage, 2, "vehicles without mileage are not ranked by it")
	assert.Equal(t, "Beta", r.MostEfficient.Name)
	assert.Equal(t, "Alpha", r.LeastEfficient.Name)

	assert.Equal(t, "Alpha", r.MostDriven.Name)
	assert.Equal(t, "Gamma", r.LeastDriven.Name)
}

func TestCompareVehiclesTiesByName(t *testing.T) {
	b := models.Vehicle{ID: primitive.NewObjectID(), Name: "B"}
	a := models.Vehicle{ID: primitive.NewObjectID(), Name: "A"}
	expenses := []models.Expense{
		expense(a.ID, models.ExpenseOther, 10, day(2024, 1, 1)),
		expense(b.ID, models.ExpenseOther, 10, day(2024, 1, 1)),
	}
	_, r := CompareVehicles([]models.Vehicle{b, a}, expenses, nil)
	assert.Equal(t, "A", r.ByExpense[0].Name)
	assert.Equal(t, "B", r.ByExpense[1].Name)
}

func TestSummarizeFuelPrices(t *testing.T) {
	car := primitive.NewObjectID()
	expenses := []models.Expense{
		fuel(car, 100, 20, 30, day(2024, 1, 2)),
		fuel(car, 400, 20, 32, day(2024, 1, 20)),
		fuel(car, 700, 40, 64, day(2024, 2, 5)),
		fuel(car, 900, 10, 17, day(2024, 3, 5)),
		expense(car, models.ExpenseService, 500, day(2024, 3, 6)),
	}

	fp := SummarizeFuelPrices(expenses)

	require.Len(t, fp.Months, 3)
	assert.Equal(t, MonthlyFuelPrice{Month: "2024-01", AveragePrice: 1.55, TotalCost: 62, TotalFuel: 40, FillUps: 2}, fp.Months[0])
	assert.Equal(t, 1.6, fp.Months[1].AveragePrice)
	assert.Equal(t, 1.7, fp.Months[2].AveragePrice)
	assert.Equal(t, 1.55, fp.MinPrice)
	assert.Equal(t, 1.7, fp.MaxPrice)
	assert.Equal(t, 1.59, fp.AveragePrice)
	assert.Equal(t, Stable, fp.Trend.Direction, "fewer than four months has no previous span")
}
