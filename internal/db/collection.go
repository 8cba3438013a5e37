package db

import (
	"context"

	"github.com/ukydev/motormate/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VehicleCollection defines the interface for vehicle data operations.
type VehicleCollection interface {
	InsertVehicle(ctx context.Context, vehicle *models.Vehicle) error
	FindVehicles(ctx context.Context, userID primitive.ObjectID, page Page) ([]models.Vehicle, int64, error)
	ListActiveVehicles(ctx context.Context, userID primitive.ObjectID) ([]models.Vehicle, error)
	FindVehicleByID(ctx context.Context, userID primitive.ObjectID, id string) (*models.Vehicle, error)
	UpdateVehicle(ctx context.Context, vehicle *models.Vehicle) error
	DeactivateVehicle(ctx context.Context, userID primitive.ObjectID, id string) error
	RaiseOdometer(ctx context.Context, id primitive.ObjectID, odometer int64) error
}

// ExpenseCollection defines the interface for expense data operations.
type ExpenseCollection interface {
	InsertExpense(ctx context.Context, expense *models.Expense) error
	FindExpenses(ctx context.Context, filter ExpenseFilter, page Page) ([]models.Expense, int64, error)
	ListExpenses(ctx context.Context, filter ExpenseFilter) ([]models.Expense, error)
	FindExpenseByID(ctx context.Context, userID primitive.ObjectID, id string) (*models.Expense, error)
	ReplaceExpense(ctx context.Context, expense *models.Expense) error
	DeactivateExpense(ctx context.Context, userID primitive.ObjectID, id string) error
	FuelChainStore
}

// FuelChainStore holds the pointer-chain operations on fuel expenses.
type FuelChainStore interface {
	FindFuelPredecessor(ctx context.Context, vehicleID primitive.ObjectID, odometer int64) (*models.Expense, error)
	SetNextFuelingIfUnset(ctx context.Context, id primitive.ObjectID, odometer int64) (bool, error)
	RetargetNextFueling(ctx context.Context, vehicleID, exclude primitive.ObjectID, from, to int64) (int64, error)
	SetNextFueling(ctx context.Context, id primitive.ObjectID, next *int64) error
}

// TripCollection defines the interface for trip data operations.
type TripCollection interface {
	InsertTrip(ctx context.Context, trip *models.Trip) error
	FindTrips(ctx context.Context, filter TripFilter, page Page) ([]models.Trip, int64, error)
	ListTrips(ctx context.Context, filter TripFilter) ([]models.Trip, error)
	FindTripByID(ctx context.Context, userID primitive.ObjectID, id string) (*models.Trip, error)
	ReplaceTrip(ctx context.Context, trip *models.Trip) error
	DeactivateTrip(ctx context.Context, userID primitive.ObjectID, id string) error
}

// UserCollection defines the interface for user database operations
type UserCollection interface {
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	UpsertGoogleUser(ctx context.Context, profile models.GoogleProfile) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
}

// PostCollection defines the interface for feed post operations.
type PostCollection interface {
	InsertPost(ctx context.Context, post *models.Post) error
	FindVisiblePosts(ctx context.Context, page Page) ([]models.Post, int64, error)
	FindPostByID(ctx context.Context, id string) (*models.Post, error)
	React(ctx context.Context, id string, userID primitive.ObjectID, kind models.Reaction) (*models.Post, error)
	AddReport(ctx context.Context, id string, report models.Report) (*models.Post, error)
	DeactivatePost(ctx context.Context, authorID primitive.ObjectID, id string) error
}
