package handlers

import (
	"net/http"

	"github.com/ukydev/motormate/internal/analytics"
	"github.com/ukydev/motormate/internal/db"
	"github.com/ukydev/motormate/internal/events"
	"github.com/ukydev/motormate/internal/models"
	"github.com/ukydev/motormate/internal/validation"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var tripPurposes = map[models.TripPurpose]bool{
	models.PurposeBusiness: true,
	models.PurposePersonal: true,
	models.PurposeCommute:  true,
	models.PurposeLeisure:  true,
	models.PurposeDelivery: true,
	models.PurposeOther:    true,
}

// TripHandler serves /api/trips.
type TripHandler struct {
	Responder
	trips     db.TripCollection
	vehicles  db.VehicleCollection
	publisher events.Publisher
}

// NewTripHandler creates a trip handler.
func NewTripHandler(rs Responder, trips db.TripCollection, vehicles db.VehicleCollection, publisher events.Publisher) *TripHandler {
	return &TripHandler{
		Responder: rs,
		trips:     trips,
		vehicles:  vehicles,
		publisher: publisher,
	}
}

func (h *TripHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		h.Fail(w, http.StatusUnauthorized, "User context not found")
		return
	}

	var req models.TripRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	if err := validation.Trip(&req); err != nil {
		h.Error(w, r, err)
		return
	}
	vehicle, err := h.vehicles.FindVehicleByID(r.Context(), userID, req.VehicleID)
	if err != nil {
		h.Error(w, r, err)
		return
	}

	trip := models.Trip{UserID: userID}
	req.ApplyTo(&trip, vehicle.ID)
	if err := h.trips.InsertTrip(r.Context(), &trip); err != nil {
		h.Error(w, r, err)
		return
	}

	events.Emit(r.Context(), h.publisher, events.Event{
		Kind: events.TripCreated, UserID: userID.Hex(), EntityID: trip.ID.Hex(), VehicleID: vehicle.ID.Hex(),
	})
	h.Success(w, http.StatusCreated, trip)
}

func (h *TripHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		h.Fail(w, http.StatusUnauthorized, "User context not found")
		return
	}
	filter, err := tripFilter(r, userID)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	page, err := parsePage(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}

	trips, total, err := h.trips.FindTrips(r.Context(), filter, page)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.SendPage(w, trips, page, total)
}

func (h *TripHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		h.Fail(w, http.StatusUnauthorized, "User context not found")
		return
	}
	trip, err := h.trips.FindTripByID(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.Success(w, http.StatusOK, trip)
}

func (h *TripHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		h.Fail(w, http.StatusUnauthorized, "User context not found")
		return
	}
	trip, err := h.trips.FindTripByID(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		h.Error(w, r, err)
		return
	}

	var req models.TripRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	if err := validation.Trip(&req); err != nil {
		h.Error(w, r, err)
		return
	}
	vehicle, err := h.vehicles.FindVehicleByID(r.Context(), userID, req.VehicleID)
	if err != nil {
		h.Error(w, r, err)
		return
	}

	req.ApplyTo(trip, vehicle.ID)
	if err := h.trips.ReplaceTrip(r.Context(), trip); err != nil {
		h.Error(w, r, err)
		return
	}

	events.Emit(r.Context(), h.publisher, events.Event{
		Kind: events.TripUpdated, UserID: userID.Hex(), EntityID: trip.ID.Hex(), VehicleID: vehicle.ID.Hex(),
	})
	h.Success(w, http.StatusOK, trip)
}

func (h *TripHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		h.Fail(w, http.StatusUnauthorized, "User context not found")
		return
	}
	id := r.PathValue("id")
	if err := h.trips.DeactivateTrip(r.Context(), userID, id); err != nil {
		h.Error(w, r, err)
		return
	}

	events.Emit(r.Context(), h.publisher, events.Event{
		Kind: events.TripDeleted, UserID: userID.Hex(), EntityID: id,
	})
	h.SendMessage(w, "Trip deleted")
}

// Stats summarises the trips matching the list filters.
func (h *TripHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		h.Fail(w, http.StatusUnauthorized, "User context not found")
		return
	}
	filter, err := tripFilter(r, userID)
	if err != nil {
		h.Error(w, r, err)
		return
	}

	trips, err := h.trips.ListTrips(r.Context(), filter)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	vehicles, err := h.vehicles.ListActiveVehicles(r.Context(), userID)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	names := make(map[primitive.ObjectID]string, len(vehicles))
	for i := range vehicles {
		names[vehicles[i].ID] = vehicles[i].DisplayName()
	}
	h.Success(w, http.StatusOK, analytics.SummarizeTrips(trips, names))
}

func tripFilter(r *http.Request, userID primitive.ObjectID) (db.TripFilter, error) {
	filter := db.TripFilter{UserID: userID}
	vehicleID, err := parseOptionalID(r, "vehicleId")
	if err != nil {
		return filter, err
	}
	filter.VehicleID = vehicleID

	if p := models.TripPurpose(r.URL.Query().Get("purpose")); p != "" {
		if !tripPurposes[p] {
			return filter, validation.New("purpose", "must be one of: business personal commute leisure delivery other", string(p))
		}
		filter.Purpose = p
	}

	filter.Start, filter.End, err = parseDateRange(r)
	return filter, err
}
