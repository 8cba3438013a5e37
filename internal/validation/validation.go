// Package validation checks request payloads before they reach the store.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ukydev/motormate/internal/models"
)

// FieldError describes one rejected field.
type FieldError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Errors is a list of field errors. It is returned as an error so callers
// can map it with errors.As.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// New returns Errors with a single field error.
func New(field, message string, value interface{}) Errors {
	return Errors{{Field: field, Message: message, Value: value}}
}

// now is replaced in tests.
var now = time.Now

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	// notfuture rejects timestamps later than the current instant.
	_ = v.RegisterValidation("notfuture", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		if !ok {
			return false
		}
		return !t.After(now())
	})
	return v
}

// Struct validates v against its struct tags.
func Struct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field:   fe.Field(),
			Message: message(fe),
			Value:   fe.Value(),
		})
	}
	return out
}

// Expense validates the common fields of r and then the variant picked by
// its expense type. The variant is returned once both pass.
func Expense(r *models.ExpenseRequest) (models.ExpenseVariant, error) {
	if err := Struct(r); err != nil {
		return nil, err
	}
	variant, err := r.Variant()
	if err != nil {
		return nil, New("expense_type", err.Error(), r.ExpenseType)
	}
	if err := Struct(variant); err != nil {
		return nil, err
	}
	return variant, nil
}

// Trip validates r, including the odometer ordering rule.
func Trip(r *models.TripRequest) error {
	if err := Struct(r); err != nil {
		return err
	}
	if r.StartOdometer != nil && r.EndOdometer != nil && *r.EndOdometer <= *r.StartOdometer {
		return New("end_odometer", "must be greater than start_odometer", *r.EndOdometer)
	}
	return nil
}

// DateRange rejects a window whose start is after its end.
func DateRange(start, end *time.Time) error {
	if start != nil && end != nil && start.After(*end) {
		return New("startDate", "must not be after endDate", start.Format(time.RFC3339))
	}
	return nil
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "mongodb":
		return "must be a valid id"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "notfuture":
		return "cannot be in the future"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return "is invalid"
	}
}
