package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/motormate/internal/db"
	"github.com/ukydev/motormate/internal/middleware"
	"github.com/ukydev/motormate/internal/validation"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxBodyBytes = 1 << 20

// Envelope is the body of every JSON response.
type Envelope struct {
	Success bool              `json:"success"`
	Data    interface{}       `json:"data,omitempty"`
	Message string            `json:"message,omitempty"`
	Errors  validation.Errors `json:"errors,omitempty"`
	*Pagination
}

// Pagination is added to list responses.
type Pagination struct {
	Page  int64 `json:"page"`
	Pages int64 `json:"pages"`
	Total int64 `json:"total"`
}

// Responder writes envelopes and maps errors to status codes.
type Responder struct {
	hideErrors bool
}

// NewResponder returns a Responder. In production the detail of
// unexpected errors is kept out of responses.
func NewResponder(production bool) Responder {
	return Responder{hideErrors: production}
}

func writeJSON(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Warn("Failed to write response")
	}
}

// Success writes data with status.
func (Responder) Success(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, Envelope{Success: true, Data: data})
}

// SendMessage writes a success envelope carrying only a message.
func (Responder) SendMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: message})
}

// SendPage writes one page of results.
func (Responder) SendPage(w http.ResponseWriter, data interface{}, page db.Page, total int64) {
	page = page.Normalize()
	writeJSON(w, http.StatusOK, Envelope{
		Success: true,
		Data:    data,
		Pagination: &Pagination{
			Page:  page.Number,
			Pages: page.Pages(total),
			Total: total,
		},
	})
}

// Fail writes a failure envelope with status and message.
func (Responder) Fail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Envelope{Success: false, Message: message})
}

// Error maps err to a response:
// validation errors and malformed ids are 400, missing or foreign records
// 404, everything else 500.
func (rs Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusBadRequest, Envelope{Message: "Validation failed", Errors: verrs})
	case errors.Is(err, db.ErrInvalidID):
		writeJSON(w, http.StatusBadRequest, Envelope{
			Message: "Validation failed",
			Errors:  validation.New("id", "must be a valid id", nil),
		})
	case errors.Is(err, db.ErrNotFound):
		rs.Fail(w, http.StatusNotFound, "Record not found")
	default:
		log.WithError(err).WithFields(log.Fields{
			"request_id": middleware.RequestID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
		}).Error("Request failed")
		msg := "Server error"
		if !rs.hideErrors {
			msg += ": " + err.Error()
		}
		rs.Fail(w, http.StatusInternalServerError, msg)
	}
}

// decodeJSON reads a single JSON object from the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return validation.New("body", "is required", nil)
		}
		return validation.New("body", "must be valid JSON: "+err.Error(), nil)
	}
	return nil
}

func currentUser(r *http.Request) (primitive.ObjectID, bool) {
	return middleware.UserIDFromContext(r.Context())
}

// parsePage reads page and limit. Limits above the maximum are clamped.
func parsePage(r *http.Request) (db.Page, error) {
	page := db.Page{Number: 1, Limit: db.DefaultPageLimit}
	q := r.URL.Query()
	if v := q.Get("page"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 1 {
			return page, validation.New("page", "must be a positive integer", v)
		}
		page.Number = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 1 {
			return page, validation.New("limit", "must be a positive integer", v)
		}
		page.Limit = n
	}
	return page.Normalize(), nil
}

const dateOnly = "2006-01-02"

// parseDate reads an RFC 3339 timestamp or a YYYY-MM-DD date. A bare date
// used as an end bound covers the whole day.
func parseDate(r *http.Request, key string, endOfDay bool) (*time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateOnly, v)
	if err != nil {
		return nil, validation.New(key, "must be an RFC 3339 timestamp or YYYY-MM-DD date", v)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// parseDateRange reads startDate and endDate and rejects an inverted range.
func parseDateRange(r *http.Request) (start, end *time.Time, err error) {
	if start, err = parseDate(r, "startDate", false); err != nil {
		return nil, nil, err
	}
	if end, err = parseDate(r, "endDate", true); err != nil {
		return nil, nil, err
	}
	if err := validation.DateRange(start, end); err != nil {
		return nil, nil, err
	}
	return start, end, nil
}

// parseOptionalID reads an optional ObjectID query parameter.
func parseOptionalID(r *http.Request, key string) (*primitive.ObjectID, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(v)
	if err != nil {
		return nil, validation.New(key, "must be a valid id", v)
	}
	return &id, nil
}
