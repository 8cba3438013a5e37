package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FuelType is the energy source a vehicle runs on.
type FuelType string

const (
	FuelPetrol   FuelType = "petrol"
	FuelDiesel   FuelType = "diesel"
	FuelElectric FuelType = "electric"
	FuelHybrid   FuelType = "hybrid"
	FuelCNG      FuelType = "cng"
	FuelLPG      FuelType = "lpg"
)

// Insurance holds a vehicle's policy metadata.
type Insurance struct {
	Provider     string     `bson:"provider,omitempty" json:"provider,omitempty"`
	PolicyNumber string     `bson:"policy_number,omitempty" json:"policy_number,omitempty"`
	ExpiryDate   *time.Time `bson:"expiry_date,omitempty" json:"expiry_date,omitempty"`
}

// Vehicle represents a vehicle registered by a user.
type Vehicle struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID             primitive.ObjectID `bson:"user_id" json:"user_id"`
	Name               string             `bson:"name" json:"name"`
	Make               string             `bson:"make" json:"make"`
	Model              string             `bson:"model" json:"model"`
	Year               int                `bson:"year" json:"year"`
	RegistrationNumber string             `bson:"registration_number" json:"registration_number"`
	FuelType           FuelType           `bson:"fuel_type" json:"fuel_type"`
	Odometer           int64              `bson:"odometer" json:"odometer"` // baseline in kilometers, only ever raised
	PurchaseCost       float64            `bson:"purchase_cost" json:"purchase_cost"`
	PurchaseDate       *time.Time         `bson:"purchase_date,omitempty" json:"purchase_date,omitempty"`
	Insurance          Insurance          `bson:"insurance" json:"insurance"`
	RegistrationExpiry *time.Time         `bson:"registration_expiry,omitempty" json:"registration_expiry,omitempty"`
	IsActive           bool               `bson:"is_active" json:"is_active"`
	CreatedAt          time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time          `bson:"updated_at" json:"updated_at"`
}

// DisplayName returns the user-facing label for the vehicle.
func (v *Vehicle) DisplayName() string {
	if v.Name != "" {
		return v.Name
	}
	if v.Make == "" && v.Model == "" {
		return v.RegistrationNumber
	}
	if v.Model == "" {
		return v.Make
	}
	if v.Make == "" {
		return v.Model
	}
	return v.Make + " " + v.Model
}

// VehicleRequest is the create/update payload for a vehicle.
type VehicleRequest struct {
	Name               string     `json:"name" validate:"max=100"`
	Make               string     `json:"make" validate:"required,max=50"`
	Model              string     `json:"model" validate:"required,max=50"`
	Year               int        `json:"year" validate:"required,gte=1900,lte=2100"`
	RegistrationNumber string     `json:"registration_number" validate:"required,max=20"`
	FuelType           FuelType   `json:"fuel_type" validate:"required,oneof=petrol diesel electric hybrid cng lpg"`
	Odometer           int64      `json:"odometer" validate:"gte=0"`
	PurchaseCost       float64    `json:"purchase_cost" validate:"gte=0"`
	PurchaseDate       *time.Time `json:"purchase_date" validate:"omitempty,notfuture"`
	Insurance          Insurance  `json:"insurance"`
	RegistrationExpiry *time.Time `json:"registration_expiry"`
}

// Apply copies the request onto v, leaving identity and bookkeeping fields alone.
func (r *VehicleRequest) Apply(v *Vehicle) {
	v.Name = r.Name
	v.Make = r.Make
	v.Model = r.Model
	v.Year = r.Year
	v.RegistrationNumber = r.RegistrationNumber
	v.FuelType = r.FuelType
	if r.Odometer > v.Odometer {
		v.Odometer = r.Odometer
	}
	v.PurchaseCost = r.PurchaseCost
	v.PurchaseDate = r.PurchaseDate
	v.Insurance = r.Insurance
	v.RegistrationExpiry = r.RegistrationExpiry
}
