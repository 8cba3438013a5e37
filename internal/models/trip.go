package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
	"time"
)

// TripPurpose classifies why a trip was made.
type TripPurpose string

const (
	PurposeBusiness TripPurpose = "business"
	PurposePersonal TripPurpose = "personal"
	PurposeCommute  TripPurpose = "commute"
	PurposeLeisure  TripPurpose = "leisure"
	PurposeDelivery TripPurpose = "delivery"
	PurposeOther    TripPurpose = "other"
)

// Trip represents a journey made in one of the user's vehicles.
type Trip struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID        primitive.ObjectID `json:"user_id" bson:"user_id"`
	VehicleID     primitive.ObjectID `json:"vehicle_id" bson:"vehicle_id"`
	StartLocation string             `json:"start_location" bson:"start_location"`
	EndLocation   string             `json:"end_location" bson:"end_location"`
	Distance      float64            `json:"distance" bson:"distance"`     // in kilometers
	TotalCost     float64            `json:"total_cost" bson:"total_cost"` // tolls, fuel share, parking
	StartOdometer *int64             `json:"start_odometer,omitempty" bson:"start_odometer,omitempty"`
	EndOdometer   *int64             `json:"end_odometer,omitempty" bson:"end_odometer,omitempty"`
	Purpose       TripPurpose        `json:"purpose" bson:"purpose"`
	Date          time.Time          `json:"date" bson:"date"`
	Notes         string             `json:"notes,omitempty" bson:"notes,omitempty"`
	IsActive      bool               `json:"is_active" bson:"is_active"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}

// TripRequest is the create/update payload for a trip.
type TripRequest struct {
	VehicleID     string      `json:"vehicle_id" validate:"required,mongodb"`
	StartLocation string      `json:"start_location" validate:"required,max=200"`
	EndLocation   string      `json:"end_location" validate:"required,max=200"`
	Distance      float64     `json:"distance" validate:"required,gt=0"`
	TotalCost     float64     `json:"total_cost" validate:"required,gt=0"`
	StartOdometer *int64      `json:"start_odometer" validate:"omitempty,gte=0"`
	EndOdometer   *int64      `json:"end_odometer" validate:"omitempty,gte=0"`
	Purpose       TripPurpose `json:"purpose" validate:"required,oneof=business personal commute leisure delivery other"`
	Date          time.Time   `json:"date" validate:"required,notfuture"`
	Notes         string      `json:"notes" validate:"max=1000"`
}

// ApplyTo copies the request onto t.
func (r *TripRequest) ApplyTo(t *Trip, vehicleID primitive.ObjectID) {
	t.VehicleID = vehicleID
	t.StartLocation = r.StartLocation
	t.EndLocation = r.EndLocation
	t.Distance = r.Distance
	t.TotalCost = r.TotalCost
	t.StartOdometer = r.StartOdometer
	t.EndOdometer = r.EndOdometer
	t.Purpose = r.Purpose
	t.Date = r.Date
	t.Notes = r.Notes
}
