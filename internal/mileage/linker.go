// Package mileage maintains the fuel pointer chain and derives mileage
// figures from consecutive fill-ups.
package mileage

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/motormate/internal/db"
	"github.com/ukydev/motormate/internal/metrics"
	"github.com/ukydev/motormate/internal/models"
)

const (
	opLink     = "link_predecessor"
	opRetarget = "retarget_successor"
)

// Linker keeps next_fueling_odometer pointers consistent as fuel expenses
// are created and edited. It never reports failure to its caller: every
// store error is logged and counted, and the triggering write stands.
type Linker struct {
	store db.FuelChainStore
}

// NewLinker returns a Linker writing through store.
func NewLinker(store db.FuelChainStore) *Linker {
	return &Linker{store: store}
}

// OnCreate links the nearest earlier fill-up of the same vehicle that has no
// forward pointer yet to e. Pointers that are already set are never
// overwritten.
func (l *Linker) OnCreate(ctx context.Context, e *models.Expense) {
	if !e.IsFuel() {
		return
	}
	odometer, ok := e.Odometer()
	if !ok {
		return
	}
	l.linkPredecessor(ctx, e, odometer)
}

// OnOdometerChange re-threads the chain after e's odometer moved from
// oldOdometer to newOdometer: the predecessor search runs again for the new
// value, and any record pointing at the old value is retargeted.
func (l *Linker) OnOdometerChange(ctx context.Context, e *models.Expense, oldOdometer, newOdometer int64) {
	if !e.IsFuel() || oldOdometer == newOdometer {
		return
	}
	l.linkPredecessor(ctx, e, newOdometer)
	l.retargetSuccessor(ctx, e, oldOdometer, newOdometer)
}

func (l *Linker) linkPredecessor(ctx context.Context, e *models.Expense, odometer int64) {
	logger := log.WithFields(log.Fields{
		"expense_id": e.ID.Hex(),
		"vehicle_id": e.VehicleID.Hex(),
		"odometer":   odometer,
	})

	pred, err := l.store.FindFuelPredecessor(ctx, e.VehicleID, odometer)
	if errors.Is(err, db.ErrNotFound) {
		// First fill-up of the vehicle.
		metrics.LinkerOperations.WithLabelValues(opLink, metrics.OutcomeSkipped).Inc()
		return
	}
	if err != nil {
		logger.WithError(err).Warn("Failed to find fuel predecessor")
		metrics.LinkerOperations.WithLabelValues(opLink, metrics.OutcomeFailed).Inc()
		return
	}
	if pred.ID == e.ID {
		metrics.LinkerOperations.WithLabelValues(opLink, metrics.OutcomeSkipped).Inc()
		return
	}
	won, err := l.store.SetNextFuelingIfUnset(ctx, pred.ID, odometer)
	if err != nil {
		logger.WithError(err).WithField("predecessor_id", pred.ID.Hex()).Warn("Failed to link fuel predecessor")
		metrics.LinkerOperations.WithLabelValues(opLink, metrics.OutcomeFailed).Inc()
		return
	}
	if !won {
		// Another write set the pointer between our read and the update.
		metrics.LinkerOperations.WithLabelValues(opLink, metrics.OutcomeSkipped).Inc()
		return
	}
	logger.WithField("predecessor_id", pred.ID.Hex()).Debug("Linked fuel predecessor")
	metrics.LinkerOperations.WithLabelValues(opLink, metrics.OutcomeLinked).Inc()
}

func (l *Linker) retargetSuccessor(ctx context.Context, e *models.Expense, oldOdometer, newOdometer int64) {
	moved, err := l.store.RetargetNextFueling(ctx, e.VehicleID, e.ID, oldOdometer, newOdometer)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"expense_id": e.ID.Hex(),
			"vehicle_id": e.VehicleID.Hex(),
			"from":       oldOdometer,
			"to":         newOdometer,
		}).Warn("Failed to retarget fuel pointer")
		metrics.LinkerOperations.WithLabelValues(opRetarget, metrics.OutcomeFailed).Inc()
		return
	}
	if moved == 0 {
		metrics.LinkerOperations.WithLabelValues(opRetarget, metrics.OutcomeSkipped).Inc()
		return
	}
	metrics.LinkerOperations.WithLabelValues(opRetarget, metrics.OutcomeLinked).Inc()
}
