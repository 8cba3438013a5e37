package mileage

import (
	"context"
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/motormate/internal/db"
	"github.com/ukydev/motormate/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChainRepairStore is what Relinker needs from the expense store.
type ChainRepairStore interface {
	ListExpenses(ctx context.Context, filter db.ExpenseFilter) ([]models.Expense, error)
	SetNextFueling(ctx context.Context, id primitive.ObjectID, next *int64) error
}

// RelinkResult summarises one chain rebuild.
type RelinkResult struct {
	VehicleID string `json:"vehicle_id"`
	Checked   int    `json:"checked"`
	Updated   int    `json:"updated"`
}

// Relinker rebuilds a vehicle's pointer chain from scratch. Unlike Linker
// it overwrites existing pointers, so it repairs links left stale by
// out-of-order inserts or lost secondary writes.
type Relinker struct {
	store ChainRepairStore
}

// NewRelinker returns a Relinker writing through store.
func NewRelinker(store ChainRepairStore) *Relinker {
	return &Relinker{store: store}
}

// Relink points every active fuel expense of the vehicle at the odometer of
// the next fill-up with a strictly greater reading, and clears the pointer
// on the last one. Only records whose pointer changes are written.
func (r *Relinker) Relink(ctx context.Context, userID, vehicleID primitive.ObjectID) (RelinkResult, error) {
	result := RelinkResult{VehicleID: vehicleID.Hex()}
	expenses, err := r.store.ListExpenses(ctx, db.ExpenseFilter{
		UserID:    userID,
		VehicleID: &vehicleID,
		Type:      models.ExpenseFuel,
	})
	if err != nil {
		return result, fmt.Errorf("list fuel expenses: %w", err)
	}

	chain := make([]models.Expense, 0, len(expenses))
	for _, e := range expenses {
		if _, ok := e.Odometer(); ok && e.IsFuel() {
			chain = append(chain, e)
		}
	}
	sort.SliceStable(chain, func(i, j int) bool {
		ai, _ := chain[i].Odometer()
		aj, _ := chain[j].Odometer()
		if ai != aj {
			return ai < aj
		}
		return chain[i].Date.Before(chain[j].Date)
	})
	result.Checked = len(chain)

	for i := range chain {
		cur, _ := chain[i].Odometer()
		var want *int64
		for j := i + 1; j < len(chain); j++ {
			if next, _ := chain[j].Odometer(); next > cur {
				want = &next
				break
			}
		}
		if samePointer(chain[i].Fuel.NextFuelingOdometer, want) {
			continue
		}
		if err := r.store.SetNextFueling(ctx, chain[i].ID, want); err != nil {
			return result, fmt.Errorf("relink expense %s: %w", chain[i].ID.Hex(), err)
		}
		result.Updated++
	}

	log.WithFields(log.Fields{
		"vehicle_id": result.VehicleID,
		"checked":    result.Checked,
		"updated":    result.Updated,
	}).Info("Rebuilt fuel pointer chain")
	return result, nil
}

func samePointer(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
