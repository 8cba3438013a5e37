package db

import (
	"context"
	"time"

	"github.com/ukydev/motormate/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoVehicleCollection implements VehicleCollection for MongoDB.
type MongoVehicleCollection struct {
	Collection *mongo.Collection
}

// InsertVehicle inserts a vehicle record, assigning its ID.
func (c *MongoVehicleCollection) InsertVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	if c.Collection == nil {
		return errNilCollection
	}
	now := time.Now()
	vehicle.ID = primitive.NewObjectID()
	vehicle.IsActive = true
	vehicle.CreatedAt = now
	vehicle.UpdatedAt = now
	_, err := c.Collection.InsertOne(ctx, vehicle)
	return err
}

// FindVehicles returns a page of the user's active vehicles, newest first.
func (c *MongoVehicleCollection) FindVehicles(ctx context.Context, userID primitive.ObjectID, page Page) ([]models.Vehicle, int64, error) {
	return findPage[models.Vehicle](ctx, c.Collection,
		bson.M{"user_id": userID, "is_active": true},
		bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
		page,
	)
}

// ListActiveVehicles returns all of the user's active vehicles ordered by name.
func (c *MongoVehicleCollection) ListActiveVehicles(ctx context.Context, userID primitive.ObjectID) ([]models.Vehicle, error) {
	return findAll[models.Vehicle](ctx, c.Collection,
		bson.M{"user_id": userID, "is_active": true},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}),
	)
}

// FindVehicleByID finds an active vehicle owned by userID.
func (c *MongoVehicleCollection) FindVehicleByID(ctx context.Context, userID primitive.ObjectID, id string) (*models.Vehicle, error) {
	objectID, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	var vehicle models.Vehicle
	if err := findOne(ctx, c.Collection, bson.M{"_id": objectID, "user_id": userID, "is_active": true}, &vehicle); err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// UpdateVehicle replaces the owned vehicle document.
func (c *MongoVehicleCollection) UpdateVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	if c.Collection == nil {
		return errNilCollection
	}
	vehicle.UpdatedAt = time.Now()
	result, err := c.Collection.ReplaceOne(ctx,
		bson.M{"_id": vehicle.ID, "user_id": vehicle.UserID, "is_active": true},
		vehicle,
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateVehicle soft-deletes a vehicle.
func (c *MongoVehicleCollection) DeactivateVehicle(ctx context.Context, userID primitive.ObjectID, id string) error {
	return softDelete(ctx, c.Collection, "user_id", userID, id)
}

// RaiseOdometer lifts the vehicle's odometer baseline to odometer if it is
// currently lower. The baseline never decreases.
func (c *MongoVehicleCollection) RaiseOdometer(ctx context.Context, id primitive.ObjectID, odometer int64) error {
	if c.Collection == nil {
		return errNilCollection
	}
	_, err := c.Collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$max": bson.M{"odometer": odometer}},
	)
	return err
}
