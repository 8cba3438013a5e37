package analytics

import (
	"sort"

	"github.com/ukydev/motormate/internal/models"
	"github.com/ukydev/motormate/internal/numeric"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MonthlyTrips is one YYYY-MM bucket of trip totals.
type MonthlyTrips struct {
	Month    string  `json:"month"`
	Count    int     `json:"count"`
	Distance float64 `json:"distance"`
	Cost     float64 `json:"cost"`
}

// PurposeTrips is the trip total for one purpose.
type PurposeTrips struct {
	Purpose         models.TripPurpose `json:"purpose"`
	Count           int                `json:"count"`
	Distance        float64            `json:"distance"`
	Cost            float64            `json:"cost"`
	AverageDistance float64            `json:"average_distance"`
}

// VehicleTrips is the trip total for one vehicle.
type VehicleTrips struct {
	VehicleID   string  `json:"vehicle_id"`
	VehicleName string  `json:"vehicle_name"`
	Count       int     `json:"count"`
	Distance    float64 `json:"distance"`
	Cost        float64 `json:"cost"`
}

// TripSummary is the one-pass aggregation of a set of trips.
type TripSummary struct {
	Count           int            `json:"count"`
	TotalDistance   float64        `json:"total_distance"`
	TotalCost       float64        `json:"total_cost"`
	AverageDistance float64        `json:"average_distance"`
	AverageCost     float64        `json:"average_cost"`
	CostPerKm       float64        `json:"cost_per_km"`
	ByMonth         []MonthlyTrips `json:"by_month"`
	ByPurpose       []PurposeTrips `json:"by_purpose"`
	ByVehicle       []VehicleTrips `json:"by_vehicle"`
}

// MonthlyCounts returns the trip count of each bucket in month order.
func (s TripSummary) MonthlyCounts() []float64 {
	out := make([]float64, len(s.ByMonth))
	for i, m := range s.ByMonth {
		out[i] = float64(m.Count)
	}
	return out
}

type tripAcc struct {
	count    int
	distance float64
	cost     float64
}

func (a *tripAcc) add(t *models.Trip) {
	a.count++
	a.distance += t.Distance
	a.cost += t.TotalCost
}

var tripPurposes = []models.TripPurpose{
	models.PurposeBusiness,
	models.PurposePersonal,
	models.PurposeCommute,
	models.PurposeLeisure,
	models.PurposeDelivery,
	models.PurposeOther,
}

// SummarizeTrips buckets trips by month, purpose and vehicle in a single
// pass. Every purpose appears in ByPurpose, zeroed if absent.
func SummarizeTrips(trips []models.Trip, names map[primitive.ObjectID]string) TripSummary {
	var overall tripAcc
	byMonth := make(map[string]*tripAcc)
	byPurpose := make(map[models.TripPurpose]*tripAcc)
	byVehicle := make(map[primitive.ObjectID]*tripAcc)

	for i := range trips {
		t := &trips[i]
		overall.add(t)
		bucket(byMonth, monthKey(t.Date)).add(t)
		bucket(byPurpose, t.Purpose).add(t)
		bucket(byVehicle, t.VehicleID).add(t)
	}

	n := float64(overall.count)
	s := TripSummary{
		Count:           overall.count,
		TotalDistance:   numeric.Round2(overall.distance),
		TotalCost:       numeric.Round2(overall.cost),
		AverageDistance: numeric.Round2(numeric.Ratio(overall.distance, n)),
		AverageCost:     numeric.Round2(numeric.Ratio(overall.cost, n)),
		CostPerKm:       numeric.Round2(numeric.Ratio(overall.cost, overall.distance)),
		ByMonth:         make([]MonthlyTrips, 0, len(byMonth)),
		ByPurpose:       make([]PurposeTrips, 0, len(tripPurposes)),
		ByVehicle:       make([]VehicleTrips, 0, len(byVehicle)),
	}
	for _, month := range sortedKeys(byMonth) {
		a := byMonth[month]
		s.ByMonth = append(s.ByMonth, MonthlyTrips{
			Month:    month,
			Count:    a.count,
			Distance: numeric.Round2(a.distance),
			Cost:     numeric.Round2(a.cost),
		})
	}
	for _, p := range tripPurposes {
		var a tripAcc
		if got, ok := byPurpose[p]; ok {
			a = *got
		}
		s.ByPurpose = append(s.ByPurpose, PurposeTrips{
			Purpose:         p,
			Count:           a.count,
			Distance:        numeric.Round2(a.distance),
			Cost:            numeric.Round2(a.cost),
			AverageDistance: numeric.Round2(numeric.Ratio(a.distance, float64(a.count))),
		})
	}
	for id, a := range byVehicle {
		s.ByVehicle = append(s.ByVehicle, VehicleTrips{
			VehicleID:   id.Hex(),
			VehicleName: vehicleName(names, id),
			Count:       a.count,
			Distance:    numeric.Round2(a.distance),
			Cost:        numeric.Round2(a.cost),
		})
	}
	sort.Slice(s.ByVehicle, func(i, j int) bool {
		a, b := s.ByVehicle[i], s.ByVehicle[j]
		if a.Distance != b.Distance {
			return a.Distance > b.Distance
		}
		return a.VehicleID < b.VehicleID
	})
	return s
}
