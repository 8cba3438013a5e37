package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExpenseType discriminates the expense variants.
type ExpenseType string

const (
	ExpenseFuel    ExpenseType = "Fuel"
	ExpenseService ExpenseType = "Service"
	ExpenseOther   ExpenseType = "Other"
)

// IsValidExpenseType checks if an expense type is known.
func IsValidExpenseType(t ExpenseType) bool {
	switch t {
	case ExpenseFuel, ExpenseService, ExpenseOther:
		return true
	default:
		return false
	}
}

// FuelDetails is the payload of a fuel expense.
type FuelDetails struct {
	FuelAdded    float64 `bson:"fuel_added" json:"fuel_added"` // in liters (or kWh for EVs)
	PricePerUnit float64 `bson:"price_per_unit" json:"price_per_unit"`
	TotalFuel    float64 `bson:"total_fuel" json:"total_fuel"`
	TotalCost    float64 `bson:"total_cost" json:"total_cost"`
	Station      string  `bson:"station,omitempty" json:"station,omitempty"`
	FullTank     bool    `bson:"full_tank" json:"full_tank"`
	// NextFuelingOdometer is the odometer reading of the following fill-up.
	// Nil until the linker or a repair sets it.
	NextFuelingOdometer *int64 `bson:"next_fueling_odometer,omitempty" json:"next_fueling_odometer,omitempty"`
}

// ServiceDetails is the payload of a service expense.
type ServiceDetails struct {
	ServiceType        string     `bson:"service_type" json:"service_type"`
	ServiceDescription string     `bson:"service_description" json:"service_description"`
	ServiceCenter      string     `bson:"service_center,omitempty" json:"service_center,omitempty"`
	NextServiceDate    *time.Time `bson:"next_service_date,omitempty" json:"next_service_date,omitempty"`
}

// OtherDetails is the payload of any other expense.
type OtherDetails struct {
	OtherExpenseType string `bson:"other_expense_type" json:"other_expense_type"`
}

// Expense represents a single cost logged against a vehicle. Exactly one of
// Fuel, Service or Other is set, matching ExpenseType.
type Expense struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID `bson:"user_id" json:"user_id"`
	VehicleID       primitive.ObjectID `bson:"vehicle_id" json:"vehicle_id"`
	ExpenseType     ExpenseType        `bson:"expense_type" json:"expense_type"`
	Amount          float64            `bson:"amount" json:"amount"`
	Date            time.Time          `bson:"date" json:"date"`
	Description     string             `bson:"description,omitempty" json:"description,omitempty"`
	OdometerReading *int64             `bson:"odometer_reading,omitempty" json:"odometer_reading,omitempty"`
	Fuel            *FuelDetails       `bson:"fuel,omitempty" json:"fuel,omitempty"`
	Service         *ServiceDetails    `bson:"service,omitempty" json:"service,omitempty"`
	Other           *OtherDetails      `bson:"other,omitempty" json:"other,omitempty"`
	IsActive        bool               `bson:"is_active" json:"is_active"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
}

// IsFuel reports whether the expense is a fuel fill-up with its payload present.
func (e *Expense) IsFuel() bool {
	return e.ExpenseType == ExpenseFuel && e.Fuel != nil
}

// Odometer returns the odometer reading and whether one was recorded.
func (e *Expense) Odometer() (int64, bool) {
	if e.OdometerReading == nil {
		return 0, false
	}
	return *e.OdometerReading, true
}

// FuelAdded returns the fuel volume of a fuel expense, 0 otherwise.
func (e *Expense) FuelAdded() float64 {
	if e.Fuel == nil {
		return 0
	}
	return e.Fuel.FuelAdded
}

// ExpenseRequest is the wire payload for creating or replacing an expense.
// Fields of every variant are accepted flat; Variant picks the ones that
// belong to ExpenseType.
type ExpenseRequest struct {
	VehicleID       string      `json:"vehicle_id" validate:"required,mongodb"`
	ExpenseType     ExpenseType `json:"expense_type" validate:"required,oneof=Fuel Service Other"`
	Amount          float64     `json:"amount" validate:"gte=0"`
	Date            time.Time   `json:"date" validate:"required,notfuture"`
	Description     string      `json:"description" validate:"max=500"`
	OdometerReading *int64      `json:"odometer_reading" validate:"omitempty,gte=0"`

	FuelAdded           float64 `json:"fuel_added"`
	PricePerUnit        float64 `json:"price_per_unit"`
	TotalFuel           float64 `json:"total_fuel"`
	TotalCost           float64 `json:"total_cost"`
	Station             string  `json:"station"`
	FullTank            bool    `json:"full_tank"`
	NextFuelingOdometer *int64  `json:"next_fueling_odometer"`

	ServiceType        string     `json:"service_type"`
	ServiceDescription string     `json:"service_description"`
	ServiceCenter      string     `json:"service_center"`
	NextServiceDate    *time.Time `json:"next_service_date"`

	OtherExpenseType string `json:"other_expense_type"`
}

// ExpenseVariant is the type-specific part of an expense request. Each
// implementation carries its own required fields.
type ExpenseVariant interface {
	Type() ExpenseType
	apply(e *Expense)
}

// FuelInput holds the fields a fuel expense must carry.
type FuelInput struct {
	OdometerReading     *int64  `json:"odometer_reading" validate:"required,gte=0"`
	FuelAdded           float64 `json:"fuel_added" validate:"required,gt=0"`
	PricePerUnit        float64 `json:"price_per_unit" validate:"gte=0"`
	TotalFuel           float64 `json:"total_fuel" validate:"gte=0"`
	TotalCost           float64 `json:"total_cost" validate:"gte=0"`
	Station             string  `json:"station" validate:"max=100"`
	FullTank            bool    `json:"full_tank"`
	NextFuelingOdometer *int64  `json:"next_fueling_odometer" validate:"omitempty,gte=0"`
}

func (FuelInput) Type() ExpenseType { return ExpenseFuel }

func (in FuelInput) apply(e *Expense) {
	e.OdometerReading = in.OdometerReading
	e.Fuel = &FuelDetails{
		FuelAdded:           in.FuelAdded,
		PricePerUnit:        in.PricePerUnit,
		TotalFuel:           in.TotalFuel,
		TotalCost:           in.TotalCost,
		Station:             in.Station,
		FullTank:            in.FullTank,
		NextFuelingOdometer: in.NextFuelingOdometer,
	}
}

// ServiceInput holds the fields a service expense must carry.
type ServiceInput struct {
	OdometerReading    *int64     `json:"odometer_reading" validate:"required,gte=0"`
	ServiceType        string     `json:"service_type" validate:"required,oneof=oil_change tire_rotation brake_service battery inspection repair general other"`
	ServiceDescription string     `json:"service_description" validate:"required,max=500"`
	ServiceCenter      string     `json:"service_center" validate:"max=100"`
	NextServiceDate    *time.Time `json:"next_service_date"`
}

func (ServiceInput) Type() ExpenseType { return ExpenseService }

func (in ServiceInput) apply(e *Expense) {
	e.OdometerReading = in.OdometerReading
	e.Service = &ServiceDetails{
		ServiceType:        in.ServiceType,
		ServiceDescription: in.ServiceDescription,
		ServiceCenter:      in.ServiceCenter,
		NextServiceDate:    in.NextServiceDate,
	}
}

// OtherInput holds the fields an other expense must carry.
type OtherInput struct {
	OdometerReading  *int64 `json:"odometer_reading" validate:"omitempty,gte=0"`
	OtherExpenseType string `json:"other_expense_type" validate:"required,oneof=insurance registration parking toll fine cleaning accessories other"`
}

func (OtherInput) Type() ExpenseType { return ExpenseOther }

func (in OtherInput) apply(e *Expense) {
	e.OdometerReading = in.OdometerReading
	e.Other = &OtherDetails{OtherExpenseType: in.OtherExpenseType}
}

// Variant extracts the type-specific input for r.ExpenseType.
func (r *ExpenseRequest) Variant() (ExpenseVariant, error) {
	switch r.ExpenseType {
	case ExpenseFuel:
		return FuelInput{
			OdometerReading:     r.OdometerReading,
			FuelAdded:           r.FuelAdded,
			PricePerUnit:        r.PricePerUnit,
			TotalFuel:           r.TotalFuel,
			TotalCost:           r.TotalCost,
			Station:             r.Station,
			FullTank:            r.FullTank,
			NextFuelingOdometer: r.NextFuelingOdometer,
		}, nil
	case ExpenseService:
		return ServiceInput{
			OdometerReading:    r.OdometerReading,
			ServiceType:        r.ServiceType,
			ServiceDescription: r.ServiceDescription,
			ServiceCenter:      r.ServiceCenter,
			NextServiceDate:    r.NextServiceDate,
		}, nil
	case ExpenseOther:
		return OtherInput{
			OdometerReading:  r.OdometerReading,
			OtherExpenseType: r.OtherExpenseType,
		}, nil
	default:
		return nil, fmt.Errorf("unknown expense type %q", r.ExpenseType)
	}
}

// ApplyTo writes the common fields and the variant onto e, clearing the
// payloads of the other variants.
func (r *ExpenseRequest) ApplyTo(e *Expense, vehicleID primitive.ObjectID, variant ExpenseVariant) {
	e.VehicleID = vehicleID
	e.ExpenseType = variant.Type()
	e.Amount = r.Amount
	e.Date = r.Date
	e.Description = r.Description
	e.Fuel, e.Service, e.Other = nil, nil, nil
	variant.apply(e)
}
