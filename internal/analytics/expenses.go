package analytics

import (
	"sort"

	"github.com/ukydev/motormate/internal/models"
	"github.com/ukydev/motormate/internal/numeric"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MonthlyExpense is one YYYY-MM bucket of expense totals.
type MonthlyExpense struct {
	Month   string  `json:"month"`
	Total   float64 `json:"total"`
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

// TypeExpense is the expense total for one expense type.
type TypeExpense struct {
	Type    models.ExpenseType `json:"type"`
	Total   float64            `json:"total"`
	Count   int                `json:"count"`
	Average float64            `json:"average"`
}

// VehicleExpense is the expense total for one vehicle.
type VehicleExpense struct {
	VehicleID   string  `json:"vehicle_id"`
	VehicleName string  `json:"vehicle_name"`
	Total       float64 `json:"total"`
	Count       int     `json:"count"`
	Average     float64 `json:"average"`
}

// ExpenseSummary is the one-pass aggregation of a set of expenses.
type ExpenseSummary struct {
	Total     float64          `json:"total"`
	Count     int              `json:"count"`
	Average   float64          `json:"average"`
	ByMonth   []MonthlyExpense `json:"by_month"`
	ByType    []TypeExpense    `json:"by_type"`
	ByVehicle []VehicleExpense `json:"by_vehicle"`
}

// MonthlyTotals returns the bucket totals in month order.
func (s ExpenseSummary) MonthlyTotals() []float64 {
	out := make([]float64, len(s.ByMonth))
	for i, m := range s.ByMonth {
		out[i] = m.Total
	}
	return out
}

// amountAcc accumulates a running total and count. Averages are derived
// once accumulation ends.
type amountAcc struct {
	total float64
	count int
}

func (a *amountAcc) add(v float64) {
	a.total += v
	a.count++
}

func (a amountAcc) average() float64 {
	return numeric.Ratio(a.total, float64(a.count))
}

var expenseTypes = []models.ExpenseType{models.ExpenseFuel, models.ExpenseService, models.ExpenseOther}

// SummarizeExpenses buckets expenses by month, type and vehicle in a
// single pass. names labels vehicle buckets; unknown ids fall back to
// UnknownVehicleName. Every expense type appears in ByType, zeroed if
// absent.
func SummarizeExpenses(expenses []models.Expense, names map[primitive.ObjectID]string) ExpenseSummary {
	var overall amountAcc
	byMonth := make(map[string]*amountAcc)
	byType := make(map[models.ExpenseType]*amountAcc)
	byVehicle := make(map[primitive.ObjectID]*amountAcc)

	for i := range expenses {
		e := &expenses[i]
		overall.add(e.Amount)
		bucket(byMonth, monthKey(e.Date)).add(e.Amount)
		bucket(byType, e.ExpenseType).add(e.Amount)
		bucket(byVehicle, e.VehicleID).add(e.Amount)
	}

	s := ExpenseSummary{
		Total:     numeric.Round2(overall.total),
		Count:     overall.count,
		Average:   numeric.Round2(overall.average()),
		ByMonth:   make([]MonthlyExpense, 0, len(byMonth)),
		ByType:    make([]TypeExpense, 0, len(expenseTypes)),
		ByVehicle: make([]VehicleExpense, 0, len(byVehicle)),
	}
	for _, month := range sortedKeys(byMonth) {
		a := byMonth[month]
		s.ByMonth = append(s.ByMonth, MonthlyExpense{
			Month:   month,
			Total:   numeric.Round2(a.total),
			Count:   a.count,
			Average: numeric.Round2(a.average()),
		})
	}
	for _, t := range expenseTypes {
		var a amountAcc
		if got, ok := byType[t]; ok {
			a = *got
		}
		s.ByType = append(s.ByType, TypeExpense{
			Type:    t,
			Total:   numeric.Round2(a.total),
			Count:   a.count,
			Average: numeric.Round2(a.average()),
		})
	}
	for id, a := range byVehicle {
		s.ByVehicle = append(s.ByVehicle, VehicleExpense{
			VehicleID:   id.Hex(),
			VehicleName: vehicleName(names, id),
			Total:       numeric.Round2(a.total),
			Count:       a.count,
			Average:     numeric.Round2(a.average()),
		})
	}
	sort.Slice(s.ByVehicle, func(i, j int) bool {
		a, b := s.ByVehicle[i], s.ByVehicle[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		return a.VehicleID < b.VehicleID
	})
	return s
}

// UnknownVehicleName labels buckets of vehicles that are no longer active.
const UnknownVehicleName = "Removed vehicle"

func vehicleName(names map[primitive.ObjectID]string, id primitive.ObjectID) string {
	if n, ok := names[id]; ok {
		return n
	}
	return UnknownVehicleName
}

func bucket[K comparable, V any](m map[K]*V, key K) *V {
	v, ok := m[key]
	if !ok {
		v = new(V)
		m[key] = v
	}
	return v
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
