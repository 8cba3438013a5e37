package mileage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ukydev/motormate/internal/db"
	"github.com/ukydev/motormate/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memoryFuelStore is an in-memory stand-in for the expense collection's
// chain operations.
type memoryFuelStore struct {
	mu       sync.Mutex
	expenses map[primitive.ObjectID]*models.Expense

	findErr     error
	setErr      error
	retargetErr error
}

func newMemoryFuelStore() *memoryFuelStore {
	return &memoryFuelStore{expenses: make(map[primitive.ObjectID]*models.Expense)}
}

func (s *memoryFuelStore) add(e *models.Expense) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	e.IsActive = true
	s.expenses[e.ID] = e
}

func (s *memoryFuelStore) get(id primitive.ObjectID) *models.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expenses[id]
}

func (s *memoryFuelStore) FindFuelPredecessor(ctx context.Context, vehicleID primitive.ObjectID, odometer int64) (*models.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	var best *models.Expense
	for _, e := range s.expenses {
		if e.VehicleID != vehicleID || !e.IsFuel() || !e.IsActive || e.Fuel.NextFuelingOdometer != nil {
			continue
		}
		o, ok := e.Odometer()
		if !ok || o >= odometer {
			continue
		}
		if best == nil {
			best = e
			continue
		}
		bo, _ := best.Odometer()
		if o > bo || (o == bo && e.Date.After(best.Date)) {
			best = e
		}
	}
	if best == nil {
		return nil, db.ErrNotFound
	}
	cp := *best
	fuel := *best.Fuel
	cp.Fuel = &fuel
	return &cp, nil
}

func (s *memoryFuelStore) SetNextFuelingIfUnset(ctx context.Context, id primitive.ObjectID, odometer int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return false, s.setErr
	}
	e, ok := s.expenses[id]
	if !ok || !e.IsFuel() || e.Fuel.NextFuelingOdometer != nil {
		return false, nil
	}
	v := odometer
	e.Fuel.NextFuelingOdometer = &v
	return true, nil
}

func (s *memoryFuelStore) RetargetNextFueling(ctx context.Context, vehicleID, exclude primitive.ObjectID, from, to int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.retargetErr != nil {
		return 0, s.retargetErr
	}
	var moved int64
	for id, e := range s.expenses {
		if id == exclude || e.VehicleID != vehicleID || !e.IsFuel() {
			continue
		}
		if p := e.Fuel.NextFuelingOdometer; p != nil && *p == from {
			v := to
			e.Fuel.NextFuelingOdometer = &v
			moved++
		}
	}
	return moved, nil
}

func (s *memoryFuelStore) SetNextFueling(ctx context.Context, id primitive.ObjectID, next *int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok || !e.IsFuel() {
		return nil
	}
	if next == nil {
		e.Fuel.NextFuelingOdometer = nil
		return nil
	}
	v := *next
	e.Fuel.NextFuelingOdometer = &v
	return nil
}

func (s *memoryFuelStore) ListExpenses(ctx context.Context, filter db.ExpenseFilter) ([]models.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Expense, 0)
	for _, e := range s.expenses {
		if e.UserID != filter.UserID || !e.IsActive {
			continue
		}
		if filter.VehicleID != nil && e.VehicleID != *filter.VehicleID {
			continue
		}
		if filter.Type != "" && e.ExpenseType != filter.Type {
			continue
		}
		cp := *e
		if e.Fuel != nil {
			fuel := *e.Fuel
			cp.Fuel = &fuel
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func odo(v int64) *int64 { return &v }

var (
	testUser    = primitive.NewObjectID()
	testVehicle = primitive.NewObjectID()
	baseDate    = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
)

func fuelExpense(odometer int64, fuelAdded, amount float64, daysAfterBase int) *models.Expense {
	return &models.Expense{
		UserID:          testUser,
		VehicleID:       testVehicle,
		ExpenseType:     models.ExpenseFuel,
		Amount:          amount,
		Date:            baseDate.AddDate(0, 0, daysAfterBase),
		OdometerReading: odo(odometer),
		Fuel:            &models.FuelDetails{FuelAdded: fuelAdded},
	}
}
