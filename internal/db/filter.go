package db

import (
	"errors"
	"fmt"
	"time"

	"github.com/ukydev/motormate/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when a record is absent, inactive or owned by
	// someone else. The three cases are deliberately indistinguishable.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidID is returned when an id is not a valid ObjectID hex string.
	ErrInvalidID = errors.New("invalid id")
	// ErrAlreadyReported is returned when a user reports the same post twice.
	ErrAlreadyReported = errors.New("post already reported")
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// ParseID converts a hex string to an ObjectID.
func ParseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return oid, nil
}

// Page selects a slice of a sorted result set. Number is 1-based.
type Page struct {
	Number int64
	Limit  int64
}

// Normalize clamps the page into its allowed bounds.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// Pages returns how many pages total records span.
func (p Page) Pages(total int64) int64 {
	p = p.Normalize()
	if total == 0 {
		return 0
	}
	return (total + p.Limit - 1) / p.Limit
}

func (p Page) findOptions(sort bson.D) *options.FindOptions {
	p = p.Normalize()
	return options.Find().
		SetSort(sort).
		SetSkip((p.Number - 1) * p.Limit).
		SetLimit(p.Limit)
}

// ExpenseFilter narrows expense queries. UserID is always applied.
type ExpenseFilter struct {
	UserID    primitive.ObjectID
	VehicleID *primitive.ObjectID
	Type      models.ExpenseType
	Start     *time.Time
	End       *time.Time
}

func (f ExpenseFilter) bson() bson.M {
	m := bson.M{"user_id": f.UserID, "is_active": true}
	if f.VehicleID != nil {
		m["vehicle_id"] = *f.VehicleID
	}
	if f.Type != "" {
		m["expense_type"] = f.Type
	}
	if r := dateRange(f.Start, f.End); r != nil {
		m["date"] = r
	}
	return m
}

// TripFilter narrows trip queries. UserID is always applied.
type TripFilter struct {
	UserID    primitive.ObjectID
	VehicleID *primitive.ObjectID
	Purpose   models.TripPurpose
	Start     *time.Time
	End       *time.Time
}

func (f TripFilter) bson() bson.M {
	m := bson.M{"user_id": f.UserID, "is_active": true}
	if f.VehicleID != nil {
		m["vehicle_id"] = *f.VehicleID
	}
	if f.Purpose != "" {
		m["purpose"] = f.Purpose
	}
	if r := dateRange(f.Start, f.End); r != nil {
		m["date"] = r
	}
	return m
}

// dateRange builds an inclusive range on both ends.
func dateRange(start, end *time.Time) bson.M {
	if start == nil && end == nil {
		return nil
	}
	r := bson.M{}
	if start != nil {
		r["$gte"] = *start
	}
	if end != nil {
		r["$lte"] = *end
	}
	return r
}

var byDateDesc = bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}}
