package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ukydev/motormate/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const nextFuelingField = "fuel.next_fueling_odometer"

// MongoExpenseCollection implements ExpenseCollection for MongoDB.
type MongoExpenseCollection struct {
	Collection *mongo.Collection
}

// InsertExpense inserts an expense record, assigning its ID.
func (c *MongoExpenseCollection) InsertExpense(ctx context.Context, expense *models.Expense) error {
	if c.Collection == nil {
		return errNilCollection
	}
	now := time.Now()
	expense.ID = primitive.NewObjectID()
	expense.IsActive = true
	expense.CreatedAt = now
	expense.UpdatedAt = now
	_, err := c.Collection.InsertOne(ctx, expense)
	return err
}

// FindExpenses returns a page of expenses matching filter, newest first.
func (c *MongoExpenseCollection) FindExpenses(ctx context.Context, filter ExpenseFilter, page Page) ([]models.Expense, int64, error) {
	return findPage[models.Expense](ctx, c.Collection, filter.bson(), byDateDesc, page)
}

// ListExpenses returns every expense matching filter, newest first.
func (c *MongoExpenseCollection) ListExpenses(ctx context.Context, filter ExpenseFilter) ([]models.Expense, error) {
	return findAll[models.Expense](ctx, c.Collection, filter.bson(), options.Find().SetSort(byDateDesc))
}

// FindExpenseByID finds an active expense owned by userID.
func (c *MongoExpenseCollection) FindExpenseByID(ctx context.Context, userID primitive.ObjectID, id string) (*models.Expense, error) {
	objectID, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	var expense models.Expense
	if err := findOne(ctx, c.Collection, bson.M{"_id": objectID, "user_id": userID, "is_active": true}, &expense); err != nil {
		return nil, err
	}
	return &expense, nil
}

// ReplaceExpense replaces the owned expense document.
func (c *MongoExpenseCollection) ReplaceExpense(ctx context.Context, expense *models.Expense) error {
	if c.Collection == nil {
		return errNilCollection
	}
	expense.UpdatedAt = time.Now()
	res, err := c.Collection.ReplaceOne(ctx,
		bson.M{"_id": expense.ID, "user_id": expense.UserID, "is_active": true},
		expense,
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateExpense soft-deletes an expense.
func (c *MongoExpenseCollection) DeactivateExpense(ctx context.Context, userID primitive.ObjectID, id string) error {
	return softDelete(ctx, c.Collection, "user_id", userID, id)
}

func activeFuel(vehicleID primitive.ObjectID) bson.M {
	return bson.M{
		"vehicle_id":   vehicleID,
		"expense_type": models.ExpenseFuel,
		"is_active":    true,
	}
}

// FindFuelPredecessor returns the active fuel expense of the vehicle with
// an unset forward pointer and the largest odometer reading strictly below
// odometer, most recent date first on ties. ErrNotFound means no earlier
// fill-up is waiting for a link.
func (c *MongoExpenseCollection) FindFuelPredecessor(ctx context.Context, vehicleID primitive.ObjectID, odometer int64) (*models.Expense, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	filter := activeFuel(vehicleID)
	filter["odometer_reading"] = bson.M{"$lt": odometer}
	filter[nextFuelingField] = nil
	opts := options.FindOne().SetSort(bson.D{
		{Key: "odometer_reading", Value: -1},
		{Key: "date", Value: -1},
	})
	var expense models.Expense
	err := c.Collection.FindOne(ctx, filter, opts).Decode(&expense)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find fuel predecessor: %w", err)
	}
	return &expense, nil
}

// SetNextFuelingIfUnset sets the forward pointer of expense id only while it
// is unset. The match and the write are one atomic document update; the
// returned bool reports whether this call won.
func (c *MongoExpenseCollection) SetNextFuelingIfUnset(ctx context.Context, id primitive.ObjectID, odometer int64) (bool, error) {
	if c.Collection == nil {
		return false, errNilCollection
	}
	res, err := c.Collection.UpdateOne(ctx,
		bson.M{"_id": id, "expense_type": models.ExpenseFuel, nextFuelingField: nil},
		bson.M{"$set": bson.M{nextFuelingField: odometer, "updated_at": time.Now()}},
	)
	if err != nil {
		return false, fmt.Errorf("set next fueling: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

// RetargetNextFueling moves every pointer of the vehicle equal to from over
// to to, skipping expense exclude. It returns the number of records moved.
func (c *MongoExpenseCollection) RetargetNextFueling(ctx context.Context, vehicleID, exclude primitive.ObjectID, from, to int64) (int64, error) {
	if c.Collection == nil {
		return 0, errNilCollection
	}
	filter := activeFuel(vehicleID)
	filter["_id"] = bson.M{"$ne": exclude}
	filter[nextFuelingField] = from
	res, err := c.Collection.UpdateMany(ctx, filter,
		bson.M{"$set": bson.M{nextFuelingField: to, "updated_at": time.Now()}},
	)
	if err != nil {
		return 0, fmt.Errorf("retarget next fueling: %w", err)
	}
	return res.ModifiedCount, nil
}

// SetNextFueling overwrites the forward pointer of expense id. A nil next
// removes it.
func (c *MongoExpenseCollection) SetNextFueling(ctx context.Context, id primitive.ObjectID, next *int64) error {
	if c.Collection == nil {
		return errNilCollection
	}
	update := bson.M{
		"$unset": bson.M{nextFuelingField: ""},
		"$set":   bson.M{"updated_at": time.Now()},
	}
	if next != nil {
		update = bson.M{"$set": bson.M{nextFuelingField: *next, "updated_at": time.Now()}}
	}
	_, err := c.Collection.UpdateOne(ctx, bson.M{"_id": id, "expense_type": models.ExpenseFuel}, update)
	if err != nil {
		return fmt.Errorf("set next fueling: %w", err)
	}
	return nil
}
