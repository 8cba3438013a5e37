package handlers

import (
	"net/http"

	"github.com/ukydev/motormate/internal/analytics"
	"github.com/ukydev/motormate/internal/db"
	"github.com/ukydev/motormate/internal/events"
	"github.com/ukydev/motormate/internal/mileage"
	"github.com/ukydev/motormate/internal/models"
	"github.com/ukydev/motormate/internal/validation"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VehicleHandler serves /api/vehicles.
type VehicleHandler struct {
	Responder
	vehicles  db.VehicleCollection
	expenses  db.ExpenseCollection
	trips     db.TripCollection
	publisher events.Publisher
}

// NewVehicleHandler creates a vehicle handler.
func NewVehicleHandler(rs Responder, vehicles db.VehicleCollection, expenses db.ExpenseCollection, trips db.TripCollection, publisher events.Publisher) *VehicleHandler {
	return &VehicleHandler{
		Responder: rs,
		vehicles:  vehicles,
		expenses:  expenses,
		trips:     trips,
		publisher: publisher,
	}
}

// VehicleStats is the lifetime summary of one vehicle.
type VehicleStats struct {
	Vehicle  *models.Vehicle          `json:"vehicle"`
	Expenses analytics.ExpenseSummary `json:"expenses"`
	Trips    analytics.TripSummary    `json:"trips"`
	Mileage  mileage.Stats            `json:"mileage"`
}

func (h *VehicleHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		h.Fail(w, http.StatusUnauthorized, "User context not found")
		return
	}

	var req models.VehicleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	if err := validation.Struct(&req); err != nil {
		h.Error(w, r, err)
		return
	}

	vehicle := models.Vehicle{UserID: userID}
	req.Apply(&vehicle)
	if err := h.vehicles.InsertVehicle(r.Context(), &vehicle); err != nil {
		h.Error(w, r, err)
		return
	}

	events.Emit(r.Context(), h.publisher, events.Event{
		Kind: events.VehicleCreated, UserID: userID.Hex(), EntityID: vehicle.ID.Hex(), VehicleID: vehicle.ID.Hex(),
	})
	h.Success(w, http.StatusCreated, vehicle)
}

func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		h.Fail(w, http.StatusUnauthorized, "User context not found")
		return
	}
	page, err := parsePage(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}

	vehicles, total, err := h.vehicles.FindVehicles(r.Context(), userID, page)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.SendPage(w, vehicles, page, total)
}

func (h *VehicleHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		h.Fail(w, http.StatusUnauthorized, "User context not found")
		return
	}
	vehicle, err := h.vehicles.FindVehicleByID(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.Success(w, http.StatusOK, vehicle)
}

func (h *VehicleHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		h.Fail(w, http.StatusUnauthorized, "User context not found")
		return
	}
	vehicle, err := h.vehicles.FindVehicleByID(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		h.Error(w, r, err)
		return
	}

	var req models.VehicleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	if err := validation.Struct(&req); err != nil {
		h.Error(w, r, err)
		return
	}

	req.Apply(vehicle)
	if err := h.vehicles.UpdateVehicle(r.Context(), vehicle); err != nil {
		h.Error(w, r, err)
		return
	}

	events.Emit(r.Context(), h.publisher, events.Event{
		Kind: events.VehicleUpdated, UserID: userID.Hex(), EntityID: vehicle.ID.Hex(), VehicleID: vehicle.ID.Hex(),
	})
	h.Success(w, http.StatusOK, vehicle)
}

func (h *VehicleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		h.Fail(w, http.StatusUnauthorized, "User context not found")
		return
	}
	id := r.PathValue("id")
	if err := h.vehicles.DeactivateVehicle(r.Context(), userID, id); err != nil {
		h.Error(w, r, err)
		return
	}

	events.Emit(r.Context(), h.publisher, events.Event{
		Kind: events.VehicleDeleted, UserID: userID.Hex(), EntityID: id, VehicleID: id,
	})
	h.SendMessage(w, "Vehicle deleted")
}

// Stats summarises every active expense and trip of the vehicle.
func (h *VehicleHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		h.Fail(w, http.StatusUnauthorized, "User context not found")
		return
	}
	vehicle, err := h.vehicles.FindVehicleByID(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		h.Error(w, r, err)
		return
	}

	expenses, err := h.expenses.ListExpenses(r.Context(), db.ExpenseFilter{UserID: userID, VehicleID: &vehicle.ID})
	if err != nil {
		h.Error(w, r, err)
		return
	}
	trips, err := h.trips.ListTrips(r.Context(), db.TripFilter{UserID: userID, VehicleID: &vehicle.ID})
	if err != nil {
		h.Error(w, r, err)
		return
	}

	names := map[primitive.ObjectID]string{vehicle.ID: vehicle.DisplayName()}
	h.Success(w, http.StatusOK, VehicleStats{
		Vehicle:  vehicle,
		Expenses: analytics.SummarizeExpenses(expenses, names),
		Trips:    analytics.SummarizeTrips(trips, names),
		Mileage:  mileage.Calculate(expenses).Stats,
	})
}
