package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/motormate/internal/db"
	"github.com/ukydev/motormate/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeStore struct {
	expenses []models.Expense
	trips    []models.Trip
	vehicles []models.Vehicle
	err      error

	lastExpenseFilter db.ExpenseFilter
}

func (f *fakeStore) ListExpenses(ctx context.Context, filter db.ExpenseFilter) ([]models.Expense, error) {
	f.lastExpenseFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Expense, 0)
	for _, e := range f.expenses {
		if filter.VehicleID != nil && e.VehicleID != *filter.VehicleID {
			continue
		}
		if filter.Type != "" && e.ExpenseType != filter.Type {
			continue
		}
		if e.Date.Before(*filter.Start) || e.Date.After(*filter.End) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeStore) ListTrips(ctx context.Context, filter db.TripFilter) ([]models.Trip, error) {
	out := make([]models.Trip, 0)
	for _, t := range f.trips {
		if filter.VehicleID != nil && t.VehicleID != *filter.VehicleID {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeStore) ListActiveVehicles(ctx context.Context, userID primitive.ObjectID) ([]models.Vehicle, error) {
	return f.vehicles, nil
}

func (f *fakeStore) FindVehicleByID(ctx context.Context, userID primitive.ObjectID, id string) (*models.Vehicle, error) {
	for i := range f.vehicles {
		if f.vehicles[i].ID.Hex() == id && f.vehicles[i].UserID == userID {
			v := f.vehicles[i]
			return &v, nil
		}
	}
	return nil, db.ErrNotFound
}

func newTestService(store *fakeStore) *Service {
	s := NewService(store, store, store)
	s.now = func() time.Time { return time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC) }
	return s
}

func TestServiceTotalEmpty(t *testing.T) {
	s := newTestService(&fakeStore{})

	total, err := s.Total(context.Background(), primitive.NewObjectID(), Range{})
	require.NoError(t, err)
	assert.Zero(t, total.ActiveVehicles)
	assert.Zero(t, total.Expenses.Count)
	assert.Empty(t, total.Expenses.ByMonth)
	assert.Equal(t, Stable, total.ExpenseTrend.Direction)
	assert.Equal(t, Stable, total.TripTrend.Direction)
}

func TestServiceTotalAppliesWindow(t *testing.T) {
	user := primitive.NewObjectID()
	car := models.Vehicle{ID: primitive.NewObjectID(), UserID: user, Name: "Car"}
	store := &fakeStore{
		vehicles: []models.Vehicle{car},
		expenses: []models.Expense{
			expense(car.ID, models.ExpenseOther, 10, day(2023, 6, 30)),
			expense(car.ID, models.ExpenseOther, 20, day(2023, 7, 1)),
			expense(car.ID, models.ExpenseOther, 30, day(2024, 6, 1)),
		},
	}
	s := newTestService(store)

	total, err := s.Total(context.Background(), user, Range{})
	require.NoError(t, err)
	assert.Equal(t, 2, total.Expenses.Count)
	assert.Equal(t, 50.0, total.Expenses.Total)
	assert.Equal(t, 1, total.ActiveVehicles)
}

func TestServiceVehicleNotOwned(t *testing.T) {
	car := models.Vehicle{ID: primitive.NewObjectID(), UserID: primitive.NewObjectID()}
	s := newTestService(&fakeStore{vehicles: []models.Vehicle{car}})

	_, err := s.Vehicle(context.Background(), primitive.NewObjectID(), car.ID.Hex(), Range{})
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestServiceVehicleIncludesMileage(t *testing.T) {
	user := primitive.NewObjectID()
	car := models.Vehicle{ID: primitive.NewObjectID(), UserID: user, Make: "Honda", Model: "City"}
	store := &fakeStore{
		vehicles: []models.Vehicle{car},
		expenses: []models.Expense{
			fuel(car.ID, 1000, 35, 50, day(2024, 5, 1)),
			fuel(car.ID, 1400, 30, 45, day(2024, 5, 20)),
		},
	}
	s := newTestService(store)

	view, err := s.Vehicle(context.Background(), user, car.ID.Hex(), Range{})
	require.NoError(t, err)
	assert.Equal(t, "Honda City", view.VehicleName)
	assert.Equal(t, 13.33, view.Mileage.AverageMileage)
	assert.Equal(t, 95.0, view.Expenses.Total)
}

func TestServiceFuelPricesFiltersFuel(t *testing.T) {
	user := primitive.NewObjectID()
	car := models.Vehicle{ID: primitive.NewObjectID(), UserID: user}
	store := &fakeStore{vehicles: []models.Vehicle{car}}
	s := newTestService(store)

	fp, err := s.FuelPrices(context.Background(), user, car.ID.Hex(), Range{})
	require.NoError(t, err)
	assert.Equal(t, car.ID.Hex(), fp.VehicleID)
	assert.Equal(t, models.ExpenseFuel, store.lastExpenseFilter.Type)
	require.NotNil(t, store.lastExpenseFilter.VehicleID)
	assert.Equal(t, car.ID, *store.lastExpenseFilter.VehicleID)
}

func TestServiceStoreError(t *testing.T) {
	boom := errors.New("connection reset")
	s := newTestService(&fakeStore{err: boom})

	_, err := s.Comparative(context.Background(), primitive.NewObjectID(), Range{})
	assert.ErrorIs(t, err, boom)
}

func TestServiceRejectsInvertedRange(t *testing.T) {
	s := newTestService(&fakeStore{})
	start := day(2024, 5, 1)
	end := day(2024, 4, 1)

	_, err := s.Total(context.Background(), primitive.NewObjectID(), Range{Start: &start, End: &end})
	assert.Error(t, err)
}
