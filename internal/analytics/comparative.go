package analytics

import (
	"sort"

	"github.com/ukydev/motormate/internal/mileage"
	"github.com/ukydev/motormate/internal/models"
	"github.com/ukydev/motormate/internal/numeric"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VehicleComparison is one vehicle's row in the comparative view.
type VehicleComparison struct {
	VehicleID      string  `json:"vehicle_id"`
	Name           string  `json:"name"`
	TotalExpense   float64 `json:"total_expense"`
	ExpenseCount   int     `json:"expense_count"`
	TotalDistance  float64 `json:"total_distance"`
	TripCount      int     `json:"trip_count"`
	AverageMileage float64 `json:"average_mileage"`
	CostPerKm      float64 `json:"cost_per_km"`
}

// Rankings orders vehicles three ways. The extremes are nil when their
// ordering is empty.
type Rankings struct {
	ByExpense      []VehicleComparison `json:"by_expense"`
	ByMileage      []VehicleComparison `json:"by_mileage"`
	ByDistance     []VehicleComparison `json:"by_distance"`
	MostExpensive  *VehicleComparison  `json:"most_expensive"`
	LeastExpensive *VehicleComparison  `json:"least_expensive"`
	MostEfficient  *VehicleComparison  `json:"most_efficient"`
	LeastEfficient *VehicleComparison  `json:"least_efficient"`
	MostDriven     *VehicleComparison  `json:"most_driven"`
	LeastDriven    *VehicleComparison  `json:"least_driven"`
}

// Comparative is the cross-vehicle view.
type Comparative struct {
	Window   Window              `json:"window"`
	Vehicles []VehicleComparison `json:"vehicles"`
	Rankings Rankings            `json:"rankings"`
}

// CompareVehicles builds one row per vehicle from the records in the
// window. Records of vehicles outside the list are ignored.
func CompareVehicles(vehicles []models.Vehicle, expenses []models.Expense, trips []models.Trip) ([]VehicleComparison, Rankings) {
	type acc struct {
		expense amountAcc
		trips   tripAcc
		fuel    []models.Expense
	}
	byID := make(map[primitive.ObjectID]*acc, len(vehicles))
	for _, v := range vehicles {
		byID[v.ID] = &acc{}
	}
	for i := range expenses {
		e := &expenses[i]
		a, ok := byID[e.VehicleID]
		if !ok {
			continue
		}
		a.expense.add(e.Amount)
		if e.IsFuel() {
			a.fuel = append(a.fuel, *e)
		}
	}
	for i := range trips {
		if a, ok := byID[trips[i].VehicleID]; ok {
			a.trips.add(&trips[i])
		}
	}

	rows := make([]VehicleComparison, 0, len(vehicles))
	for i := range vehicles {
		v := &vehicles[i]
		a, ok := byID[v.ID]
		if !ok {
			// listed twice
			continue
		}
		delete(byID, v.ID)
		report := mileage.Calculate(a.fuel)
		rows = append(rows, VehicleComparison{
			VehicleID:      v.ID.Hex(),
			Name:           v.DisplayName(),
			TotalExpense:   numeric.Round2(a.expense.total),
			ExpenseCount:   a.expense.count,
			TotalDistance:  numeric.Round2(a.trips.distance),
			TripCount:      a.trips.count,
			AverageMileage: report.Stats.AverageMileage,
			CostPerKm:      numeric.Round2(numeric.Ratio(a.expense.total, a.trips.distance)),
		})
	}
	sortByNameThenID(rows)
	return rows, rank(rows)
}

func rank(rows []VehicleComparison) Rankings {
	r := Rankings{
		ByExpense:  orderBy(rows, func(c VehicleComparison) float64 { return c.TotalExpense }, false),
		ByMileage:  orderBy(rows, func(c VehicleComparison) float64 { return c.AverageMileage }, true),
		ByDistance: orderBy(rows, func(c VehicleComparison) float64 { return c.TotalDistance }, false),
	}
	r.MostExpensive, r.LeastExpensive = extremes(r.ByExpense)
	r.MostEfficient, r.LeastEfficient = extremes(r.ByMileage)
	r.MostDriven, r.LeastDriven = extremes(r.ByDistance)
	return r
}

// orderBy copies rows sorted by key descending. rows must already be in
// name, id order so the stable sort breaks ties the same way.
func orderBy(rows []VehicleComparison, key func(VehicleComparison) float64, skipZero bool) []VehicleComparison {
	out := make([]VehicleComparison, 0, len(rows))
	for _, c := range rows {
		if skipZero && key(c) == 0 {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return key(out[i]) > key(out[j]) })
	return out
}

func extremes(ordered []VehicleComparison) (first, last *VehicleComparison) {
	if len(ordered) == 0 {
		return nil, nil
	}
	f, l := ordered[0], ordered[len(ordered)-1]
	return &f, &l
}

func sortByNameThenID(rows []VehicleComparison) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Name != rows[j].Name {
			return rows[i].Name < rows[j].Name
		}
		return rows[i].VehicleID < rows[j].VehicleID
	})
}
