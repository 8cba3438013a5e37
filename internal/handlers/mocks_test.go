package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/motormate/internal/db"
	"github.com/ukydev/motormate/internal/middleware"
	"github.com/ukydev/motormate/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockVehicleCollection is a mock implementation of VehicleCollection
type MockVehicleCollection struct {
	mock.Mock
}

func (m *MockVehicleCollection) InsertVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	args := m.Called(ctx, vehicle)
	if args.Error(0) == nil && vehicle.ID.IsZero() {
		vehicle.ID = primitive.NewObjectID()
	}
	return args.Error(0)
}

func (m *MockVehicleCollection) FindVehicles(ctx context.Context, userID primitive.ObjectID, page db.Page) ([]models.Vehicle, int64, error) {
	args := m.Called(ctx, userID, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Vehicle), args.Get(1).(int64), args.Error(2)
}

func (m *MockVehicleCollection) ListActiveVehicles(ctx context.Context, userID primitive.ObjectID) ([]models.Vehicle, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Vehicle), args.Error(1)
}

func (m *MockVehicleCollection) FindVehicleByID(ctx context.Context, userID primitive.ObjectID, id string) (*models.Vehicle, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vehicle), args.Error(1)
}

func (m *MockVehicleCollection) UpdateVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	args := m.Called(ctx, vehicle)
	return args.Error(0)
}

func (m *MockVehicleCollection) DeactivateVehicle(ctx context.Context, userID primitive.ObjectID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockVehicleCollection) RaiseOdometer(ctx context.Context, id primitive.ObjectID, odometer int64) error {
	args := m.Called(ctx, id, odometer)
	return args.Error(0)
}

// MockExpenseCollection is a mock implementation of ExpenseCollection
type MockExpenseCollection struct {
	mock.Mock
}

func (m *MockExpenseCollection) InsertExpense(ctx context.Context, expense *models.Expense) error {
	args := m.Called(ctx, expense)
	if args.Error(0) == nil && expense.ID.IsZero() {
		expense.ID = primitive.NewObjectID()
	}
	return args.Error(0)
}

func (m *MockExpenseCollection) FindExpenses(ctx context.Context, filter db.ExpenseFilter, page db.Page) ([]models.Expense, int64, error) {
	args := m.Called(ctx, filter, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Expense), args.Get(1).(int64), args.Error(2)
}

func (m *MockExpenseCollection) ListExpenses(ctx context.Context, filter db.ExpenseFilter) ([]models.Expense, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Expense), args.Error(1)
}

func (m *MockExpenseCollection) FindExpenseByID(ctx context.Context, userID primitive.ObjectID, id string) (*models.Expense, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Expense), args.Error(1)
}

func (m *MockExpenseCollection) ReplaceExpense(ctx context.Context, expense *models.Expense) error {
	args := m.Called(ctx, expense)
	return args.Error(0)
}

func (m *MockExpenseCollection) DeactivateExpense(ctx context.Context, userID primitive.ObjectID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockExpenseCollection) FindFuelPredecessor(ctx context.Context, vehicleID primitive.ObjectID, odometer int64) (*models.Expense, error) {
	args := m.Called(ctx, vehicleID, odometer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Expense), args.Error(1)
}

func (m *MockExpenseCollection) SetNextFuelingIfUnset(ctx context.Context, id primitive.ObjectID, odometer int64) (bool, error) {
	args := m.Called(ctx, id, odometer)
	return args.Bool(0), args.Error(1)
}

func (m *MockExpenseCollection) RetargetNextFueling(ctx context.Context, vehicleID, exclude primitive.ObjectID, from, to int64) (int64, error) {
	args := m.Called(ctx, vehicleID, exclude, from, to)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockExpenseCollection) SetNextFueling(ctx context.Context, id primitive.ObjectID, next *int64) error {
	args := m.Called(ctx, id, next)
	return args.Error(0)
}

// MockTripCollection is a mock implementation of TripCollection
type MockTripCollection struct {
	mock.Mock
}

func (m *MockTripCollection) InsertTrip(ctx context.Context, trip *models.Trip) error {
	args := m.Called(ctx, trip)
	if args.Error(0) == nil && trip.ID.IsZero() {
		trip.ID = primitive.NewObjectID()
	}
	return args.Error(0)
}

func (m *MockTripCollection) FindTrips(ctx context.Context, filter db.TripFilter, page db.Page) ([]models.Trip, int64, error) {
	args := m.Called(ctx, filter, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Trip), args.Get(1).(int64), args.Error(2)
}

func (m *MockTripCollection) ListTrips(ctx context.Context, filter db.TripFilter) ([]models.Trip, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Trip), args.Error(1)
}

func (m *MockTripCollection) FindTripByID(ctx context.Context, userID primitive.ObjectID, id string) (*models.Trip, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Trip), args.Error(1)
}

func (m *MockTripCollection) ReplaceTrip(ctx context.Context, trip *models.Trip) error {
	args := m.Called(ctx, trip)
	return args.Error(0)
}

func (m *MockTripCollection) DeactivateTrip(ctx context.Context, userID primitive.ObjectID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

// MockUserCollection is a mock implementation of UserCollection
type MockUserCollection struct {
	mock.Mock
}

func (m *MockUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) UpsertGoogleUser(ctx context.Context, profile models.GoogleProfile) (*models.User, error) {
	args := m.Called(ctx, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) UpdateProfile(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockPostCollection is a mock implementation of PostCollection
type MockPostCollection struct {
	mock.Mock
}

func (m *MockPostCollection) InsertPost(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	if args.Error(0) == nil && post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	return args.Error(0)
}

func (m *MockPostCollection) FindVisiblePosts(ctx context.Context, page db.Page) ([]models.Post, int64, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Post), args.Get(1).(int64), args.Error(2)
}

func (m *MockPostCollection) FindPostByID(ctx context.Context, id string) (*models.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostCollection) React(ctx context.Context, id string, userID primitive.ObjectID, kind models.Reaction) (*models.Post, error) {
	args := m.Called(ctx, id, userID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostCollection) AddReport(ctx context.Context, id string, report models.Report) (*models.Post, error) {
	args := m.Called(ctx, id, report)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostCollection) DeactivatePost(ctx context.Context, authorID primitive.ObjectID, id string) error {
	args := m.Called(ctx, authorID, id)
	return args.Error(0)
}

// response is the decoded envelope with data kept raw.
type response struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Message string            `json:"message"`
	Errors  []json.RawMessage `json:"errors"`
	Page    int64             `json:"page"`
	Pages   int64             `json:"pages"`
	Total   int64             `json:"total"`
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) response {
	t.Helper()
	var resp response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// newRequest builds a request authenticated as userID. A nil body sends none.
func newRequest(t *testing.T, method, target string, userID primitive.ObjectID, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if !userID.IsZero() {
		ctx := middleware.WithUser(req.Context(), &models.Claims{UserID: userID.Hex(), Email: "driver@example.com"})
		req = req.WithContext(ctx)
	}
	return req
}

func int64Ptr(v int64) *int64 { return &v }
