package handlers

import (
	"context"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/motormate/internal/analytics"
	"github.com/ukydev/motormate/internal/db"
	"github.com/ukydev/motormate/internal/events"
	"github.com/ukydev/motormate/internal/mileage"
	"github.com/ukydev/motormate/internal/models"
	"github.com/ukydev/motormate/internal/validation"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExpenseHandler serves /api/expenses.
type ExpenseHandler struct {
	Responder
	expenses  db.ExpenseCollection
	vehicles  db.VehicleCollection
	linker    *mileage.Linker
	relinker  *mileage.Relinker
	publisher events.Publisher
}

// NewExpenseHandler creates an expense handler. The fuel pointer chain is
// maintained through expenses.
func NewExpenseHandler(rs Responder, expenses db.ExpenseCollection, vehicles db.VehicleCollection, publisher events.Publisher) *ExpenseHandler {
	return &ExpenseHandler{
		Responder: rs,
		expenses:  expenses,
		vehicles:  vehicles,
		linker:    mileage.NewLinker(expenses),
		relinker:  mileage.NewRelinker(expenses),
		publisher: publisher,
	}
}

// ExpenseStats is the per-vehicle expense breakdown.
type ExpenseStats struct {
	VehicleID string                   `json:"vehicle_id"`
	Summary   analytics.ExpenseSummary `json:"summary"`
	Mileage   mileage.Stats            `json:"mileage"`
}

// MileageRecalculation is the result of a chain repair plus a fresh report.
type MileageRecalculation struct {
	Relink mileage.RelinkResult `json:"relink"`
	Report mileage.Report       `json:"report"`
}

func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		h.Fail(w, http.StatusUnauthorized, "User context not found")
		return
	}

	var req models.ExpenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	variant, err := validation.Expense(&req)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	vehicle, err := h.vehicles.FindVehicleByID(r.Context(), userID, req.VehicleID)
	if err != nil {
		h.Error(w, r, err)
		return
	}

	expense := models.Expense{UserID: userID}
	req.ApplyTo(&expense, vehicle.ID, variant)
	if err := h.expenses.InsertExpense(r.Context(), &expense); err != nil {
		h.Error(w, r, err)
		return
	}

	h.linker.OnCreate(r.Context(), &expense)
	h.raiseOdometer(r.Context(), &expense)
	events.Emit(r.Context(), h.publisher, events.Event{
		Kind: events.ExpenseCreated, UserID: userID.Hex(), EntityID: expense.ID.Hex(), VehicleID: vehicle.ID.Hex(),
	})
	h.Success(w, http.StatusCreated, expense)
}

func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		h.Fail(w, http.StatusUnauthorized, "User context not found")
		return
	}
	filter, err := expenseFilter(r, userID)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	page, err := parsePage(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}

	expenses, total, err := h.expenses.FindExpenses(r.Context(), filter, page)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.SendPage(w, expenses, page, total)
}

func (h *ExpenseHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		h.Fail(w, http.StatusUnauthorized, "User context not found")
		return
	}
	expense, err := h.expenses.FindExpenseByID(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.Success(w, http.StatusOK, expense)
}

// Update replaces an expense. A fuel pointer the request leaves unset is
// carried over, and a changed odometer re-threads the chain.
func (h *ExpenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		h.Fail(w, http.StatusUnauthorized, "User context not found")
		return
	}
	existing, err := h.expenses.FindExpenseByID(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		h.Error(w, r, err)
		return
	}

	var req models.ExpenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	variant, err := validation.Expense(&req)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	vehicle, err := h.vehicles.FindVehicleByID(r.Context(), userID, req.VehicleID)
	if err != nil {
		h.Error(w, r, err)
		return
	}

	updated := *existing
	req.ApplyTo(&updated, vehicle.ID, variant)
	sameVehicle := existing.VehicleID == updated.VehicleID
	if sameVehicle && existing.IsFuel() && updated.IsFuel() && updated.Fuel.NextFuelingOdometer == nil {
		updated.Fuel.NextFuelingOdometer = existing.Fuel.NextFuelingOdometer
	}
	if err := h.expenses.ReplaceExpense(r.Context(), &updated); err != nil {
		h.Error(w, r, err)
		return
	}

	oldOdo, hadOdo := existing.Odometer()
	newOdo, hasOdo := updated.Odometer()
	switch {
	case sameVehicle && existing.IsFuel() && hadOdo && hasOdo:
		h.linker.OnOdometerChange(r.Context(), &updated, oldOdo, newOdo)
	case !sameVehicle || !existing.IsFuel():
		h.linker.OnCreate(r.Context(), &updated)
	}
	h.raiseOdometer(r.Context(), &updated)

	events.Emit(r.Context(), h.publisher, events.Event{
		Kind: events.ExpenseUpdated, UserID: userID.Hex(), EntityID: updated.ID.Hex(), VehicleID: updated.VehicleID.Hex(),
	})
	h.Success(w, http.StatusOK, updated)
}

func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		h.Fail(w, http.StatusUnauthorized, "User context not found")
		return
	}
	id := r.PathValue("id")
	if err := h.expenses.DeactivateExpense(r.Context(), userID, id); err != nil {
		h.Error(w, r, err)
		return
	}

	events.Emit(r.Context(), h.publisher, events.Event{
		Kind: events.ExpenseDeleted, UserID: userID.Hex(), EntityID: id,
	})
	h.SendMessage(w, "Expense deleted")
}

// Stats breaks down the vehicle's expenses, optionally within a date range.
func (h *ExpenseHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, vehicle, ok := h.ownedVehicle(w, r)
	if !ok {
		return
	}
	start, end, err := parseDateRange(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}

	expenses, err := h.expenses.ListExpenses(r.Context(), db.ExpenseFilter{
		UserID: userID, VehicleID: &vehicle.ID, Start: start, End: end,
	})
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.Success(w, http.StatusOK, ExpenseStats{
		VehicleID: vehicle.ID.Hex(),
		Summary:   analytics.SummarizeExpenses(expenses, map[primitive.ObjectID]string{vehicle.ID: vehicle.DisplayName()}),
		Mileage:   mileage.Calculate(expenses).Stats,
	})
}

// Fuel lists the vehicle's fill-ups, newest first.
func (h *ExpenseHandler) Fuel(w http.ResponseWriter, r *http.Request) {
	userID, vehicle, ok := h.ownedVehicle(w, r)
	if !ok {
		return
	}
	page, err := parsePage(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}

	expenses, total, err := h.expenses.FindExpenses(r.Context(), db.ExpenseFilter{
		UserID: userID, VehicleID: &vehicle.ID, Type: models.ExpenseFuel,
	}, page)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.SendPage(w, expenses, page, total)
}

// CalculateMileage rebuilds the vehicle's fuel pointer chain and returns a
// fresh mileage report.
func (h *ExpenseHandler) CalculateMileage(w http.ResponseWriter, r *http.Request) {
	userID, vehicle, ok := h.ownedVehicle(w, r)
	if !ok {
		return
	}

	result, err := h.relinker.Relink(r.Context(), userID, vehicle.ID)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	report, err := h.mileageReport(r.Context(), userID, vehicle.ID)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.Success(w, http.StatusOK, MileageRecalculation{Relink: result, Report: report})
}

// MileageStats returns the vehicle's mileage report.
func (h *ExpenseHandler) MileageStats(w http.ResponseWriter, r *http.Request) {
	userID, vehicle, ok := h.ownedVehicle(w, r)
	if !ok {
		return
	}
	report, err := h.mileageReport(r.Context(), userID, vehicle.ID)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.Success(w, http.StatusOK, report)
}

func (h *ExpenseHandler) mileageReport(ctx context.Context, userID, vehicleID primitive.ObjectID) (mileage.Report, error) {
	fuel, err := h.expenses.ListExpenses(ctx, db.ExpenseFilter{
		UserID: userID, VehicleID: &vehicleID, Type: models.ExpenseFuel,
	})
	if err != nil {
		return mileage.Report{}, err
	}
	return mileage.Calculate(fuel), nil
}

// ownedVehicle resolves the {vehicleId} path value, writing the error
// response itself when it fails.
func (h *ExpenseHandler) ownedVehicle(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, *models.Vehicle, bool) {
	userID, ok := currentUser(r)
	if !ok {
		h.Fail(w, http.StatusUnauthorized, "User context not found")
		return primitive.NilObjectID, nil, false
	}
	vehicle, err := h.vehicles.FindVehicleByID(r.Context(), userID, r.PathValue("vehicleId"))
	if err != nil {
		h.Error(w, r, err)
		return primitive.NilObjectID, nil, false
	}
	return userID, vehicle, true
}

// raiseOdometer lifts the vehicle baseline to the expense's reading. It
// is a secondary write: failures are logged only.
func (h *ExpenseHandler) raiseOdometer(ctx context.Context, e *models.Expense) {
	odometer, ok := e.Odometer()
	if !ok {
		return
	}
	if err := h.vehicles.RaiseOdometer(ctx, e.VehicleID, odometer); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"vehicle_id": e.VehicleID.Hex(),
			"expense_id": e.ID.Hex(),
			"odometer":   odometer,
		}).Warn("Failed to raise vehicle odometer")
	}
}

func expenseFilter(r *http.Request, userID primitive.ObjectID) (db.ExpenseFilter, error) {
	filter := db.ExpenseFilter{UserID: userID}
	vehicleID, err := parseOptionalID(r, "vehicleId")
	if err != nil {
		return filter, err
	}
	filter.VehicleID = vehicleID

	if t := models.ExpenseType(r.URL.Query().Get("expenseType")); t != "" {
		if !models.IsValidExpenseType(t) {
			return filter, validation.New("expenseType", "must be one of: Fuel Service Other", string(t))
		}
		filter.Type = t
	}

	filter.Start, filter.End, err = parseDateRange(r)
	return filter, err
}
