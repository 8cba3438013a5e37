package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/ukydev/motormate/internal/db"
	"github.com/ukydev/motormate/internal/mileage"
	"github.com/ukydev/motormate/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// ExpenseLister lists expenses matching a filter.
type ExpenseLister interface {
	ListExpenses(ctx context.Context, filter db.ExpenseFilter) ([]models.Expense, error)
}

// TripLister lists trips matching a filter.
type TripLister interface {
	ListTrips(ctx context.Context, filter db.TripFilter) ([]models.Trip, error)
}

// VehicleLister reads a user's vehicles.
type VehicleLister interface {
	ListActiveVehicles(ctx context.Context, userID primitive.ObjectID) ([]models.Vehicle, error)
	FindVehicleByID(ctx context.Context, userID primitive.ObjectID, id string) (*models.Vehicle, error)
}

// Total is the account-wide view.
type Total struct {
	Window         Window         `json:"window"`
	Expenses       ExpenseSummary `json:"expenses"`
	Trips          TripSummary    `json:"trips"`
	ExpenseTrend   Trend          `json:"expense_trend"`
	TripTrend      Trend          `json:"trip_trend"`
	ActiveVehicles int            `json:"active_vehicles"`
}

// VehicleView is the single-vehicle view.
type VehicleView struct {
	Window       Window         `json:"window"`
	VehicleID    string         `json:"vehicle_id"`
	VehicleName  string         `json:"vehicle_name"`
	Expenses     ExpenseSummary `json:"expenses"`
	Trips        TripSummary    `json:"trips"`
	ExpenseTrend Trend          `json:"expense_trend"`
	TripTrend    Trend          `json:"trip_trend"`
	Mileage      mileage.Stats  `json:"mileage"`
}

// Service answers the analytics views from the store.
type Service struct {
	expenses ExpenseLister
	trips    TripLister
	vehicles VehicleLister
	now      func() time.Time
}

// NewService creates an analytics service.
func NewService(expenses ExpenseLister, trips TripLister, vehicles VehicleLister) *Service {
	return &Service{
		expenses: expenses,
		trips:    trips,
		vehicles: vehicles,
		now:      time.Now,
	}
}

// records is what one view reads from the store.
type records struct {
	expenses []models.Expense
	trips    []models.Trip
	vehicles []models.Vehicle
}

// load fetches the window's expenses and trips, plus the user's active
// vehicles, concurrently.
func (s *Service) load(ctx context.Context, userID primitive.ObjectID, vehicleID *primitive.ObjectID, w Window) (records, error) {
	var rec records
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rec.expenses, err = s.expenses.ListExpenses(ctx, db.ExpenseFilter{
			UserID: userID, VehicleID: vehicleID, Start: &w.Start, End: &w.End,
		})
		if err != nil {
			return fmt.Errorf("list expenses: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		rec.trips, err = s.trips.ListTrips(ctx, db.TripFilter{
			UserID: userID, VehicleID: vehicleID, Start: &w.Start, End: &w.End,
		})
		if err != nil {
			return fmt.Errorf("list trips: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		rec.vehicles, err = s.vehicles.ListActiveVehicles(ctx, userID)
		if err != nil {
			return fmt.Errorf("list vehicles: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return records{}, err
	}
	return rec, nil
}

func names(vehicles []models.Vehicle) map[primitive.ObjectID]string {
	m := make(map[primitive.ObjectID]string, len(vehicles))
	for i := range vehicles {
		m[vehicles[i].ID] = vehicles[i].DisplayName()
	}
	return m
}

// Total summarises every record of the user in the window.
func (s *Service) Total(ctx context.Context, userID primitive.ObjectID, r Range) (*Total, error) {
	w, err := ResolveWindow(s.now(), DefaultMonths, r)
	if err != nil {
		return nil, err
	}
	rec, err := s.load(ctx, userID, nil, w)
	if err != nil {
		return nil, err
	}
	labels := names(rec.vehicles)
	t := &Total{
		Window:         w,
		Expenses:       SummarizeExpenses(rec.expenses, labels),
		Trips:          SummarizeTrips(rec.trips, labels),
		ActiveVehicles: len(rec.vehicles),
	}
	t.ExpenseTrend = ClassifyTrend(t.Expenses.MonthlyTotals(), ExpenseTrendThreshold)
	t.TripTrend = ClassifyTrend(t.Trips.MonthlyCounts(), TripTrendThreshold)
	return t, nil
}

// Vehicle summarises one owned vehicle. An unknown or foreign vehicle id
// yields db.ErrNotFound.
func (s *Service) Vehicle(ctx context.Context, userID primitive.ObjectID, vehicleID string, r Range) (*VehicleView, error) {
	w, err := ResolveWindow(s.now(), DefaultMonths, r)
	if err != nil {
		return nil, err
	}
	v, err := s.vehicles.FindVehicleByID(ctx, userID, vehicleID)
	if err != nil {
		return nil, err
	}
	rec, err := s.load(ctx, userID, &v.ID, w)
	if err != nil {
		return nil, err
	}
	labels := map[primitive.ObjectID]string{v.ID: v.DisplayName()}
	view := &VehicleView{
		Window:      w,
		VehicleID:   v.ID.Hex(),
		VehicleName: v.DisplayName(),
		Expenses:    SummarizeExpenses(rec.expenses, labels),
		Trips:       SummarizeTrips(rec.trips, labels),
		Mileage:     mileage.Calculate(rec.expenses).Stats,
	}
	view.ExpenseTrend = ClassifyTrend(view.Expenses.MonthlyTotals(), ExpenseTrendThreshold)
	view.TripTrend = ClassifyTrend(view.Trips.MonthlyCounts(), TripTrendThreshold)
	return view, nil
}

// Comparative ranks the user's active vehicles over the comparative window.
func (s *Service) Comparative(ctx context.Context, userID primitive.ObjectID, r Range) (*Comparative, error) {
	w, err := ResolveWindow(s.now(), ComparativeMonths, r)
	if err != nil {
		return nil, err
	}
	rec, err := s.load(ctx, userID, nil, w)
	if err != nil {
		return nil, err
	}
	rows, rankings := CompareVehicles(rec.vehicles, rec.expenses, rec.trips)
	return &Comparative{Window: w, Vehicles: rows, Rankings: rankings}, nil
}

// FuelPrices reports the monthly price per unit, optionally for a single
// owned vehicle.
func (s *Service) FuelPrices(ctx context.Context, userID primitive.ObjectID, vehicleID string, r Range) (*FuelPrices, error) {
	w, err := ResolveWindow(s.now(), DefaultMonths, r)
	if err != nil {
		return nil, err
	}
	filter := db.ExpenseFilter{UserID: userID, Type: models.ExpenseFuel, Start: &w.Start, End: &w.End}
	if vehicleID != "" {
		v, err := s.vehicles.FindVehicleByID(ctx, userID, vehicleID)
		if err != nil {
			return nil, err
		}
		filter.VehicleID = &v.ID
	}
	expenses, err := s.expenses.ListExpenses(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list fuel expenses: %w", err)
	}
	fp := SummarizeFuelPrices(expenses)
	fp.Window = w
	fp.VehicleID = vehicleID
	return &fp, nil
}
