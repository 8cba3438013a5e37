package handlers

import (
	"net/http"

	"github.com/ukydev/motormate/internal/analytics"
	"github.com/ukydev/motormate/internal/validation"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AnalyticsHandler serves /api/analytics.
type AnalyticsHandler struct {
	Responder
	service *analytics.Service
}

// NewAnalyticsHandler creates an analytics handler.
func NewAnalyticsHandler(rs Responder, service *analytics.Service) *AnalyticsHandler {
	return &AnalyticsHandler{Responder: rs, service: service}
}

func (h *AnalyticsHandler) Total(w http.ResponseWriter, r *http.Request) {
	userID, rng, ok := h.request(w, r)
	if !ok {
		return
	}
	view, err := h.service.Total(r.Context(), userID, rng)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.Success(w, http.StatusOK, view)
}

func (h *AnalyticsHandler) Vehicle(w http.ResponseWriter, r *http.Request) {
	userID, rng, ok := h.request(w, r)
	if !ok {
		return
	}
	view, err := h.service.Vehicle(r.Context(), userID, r.PathValue("vehicleId"), rng)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.Success(w, http.StatusOK, view)
}

func (h *AnalyticsHandler) Comparative(w http.ResponseWriter, r *http.Request) {
	userID, rng, ok := h.request(w, r)
	if !ok {
		return
	}
	view, err := h.service.Comparative(r.Context(), userID, rng)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.Success(w, http.StatusOK, view)
}

func (h *AnalyticsHandler) FuelPrices(w http.ResponseWriter, r *http.Request) {
	userID, rng, ok := h.request(w, r)
	if !ok {
		return
	}
	vehicleID := r.URL.Query().Get("vehicleId")
	if vehicleID != "" {
		if _, err := primitive.ObjectIDFromHex(vehicleID); err != nil {
			h.Error(w, r, validation.New("vehicleId", "must be a valid id", vehicleID))
			return
		}
	}
	view, err := h.service.FuelPrices(r.Context(), userID, vehicleID, rng)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.Success(w, http.StatusOK, view)
}

func (h *AnalyticsHandler) request(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, analytics.Range, bool) {
	userID, ok := currentUser(r)
	if !ok {
		h.Fail(w, http.StatusUnauthorized, "User context not found")
		return primitive.NilObjectID, analytics.Range{}, false
	}
	start, end, err := parseDateRange(r)
	if err != nil {
		h.Error(w, r, err)
		return primitive.NilObjectID, analytics.Range{}, false
	}
	return userID, analytics.Range{Start: start, End: end}, true
}
