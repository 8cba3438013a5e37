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

// MongoTripCollection implements TripCollection for MongoDB.
type MongoTripCollection struct {
	Collection *mongo.Collection
}

// InsertTrip inserts a trip record into the collection.
func (c *MongoTripCollection) InsertTrip(ctx context.Context, trip *models.Trip) error {
	if c.Collection == nil {
		return errNilCollection
	}
	trip.ID = primitive.NewObjectID()
	trip.IsActive = true
	trip.CreatedAt = time.Now()
	trip.UpdatedAt = time.Now()
	_, err := c.Collection.InsertOne(ctx, trip)
	return err
}

// FindTrips returns a page of trips matching filter, newest first.
func (c *MongoTripCollection) FindTrips(ctx context.Context, filter TripFilter, page Page) ([]models.Trip, int64, error) {
	return findPage[models.Trip](ctx, c.Collection, filter.bson(), byDateDesc, page)
}

// ListTrips returns every trip matching filter, newest first.
func (c *MongoTripCollection) ListTrips(ctx context.Context, filter TripFilter) ([]models.Trip, error) {
	return findAll[models.Trip](ctx, c.Collection, filter.bson(), options.Find().SetSort(byDateDesc))
}

// FindTripByID finds an active trip owned by userID.
func (c *MongoTripCollection) FindTripByID(ctx context.Context, userID primitive.ObjectID, id string) (*models.Trip, error) {
	objectID, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	var trip models.Trip
	if err := findOne(ctx, c.Collection, bson.M{"_id": objectID, "user_id": userID, "is_active": true}, &trip); err != nil {
		return nil, err
	}
	return &trip, nil
}

// ReplaceTrip replaces the owned trip document.
func (c *MongoTripCollection) ReplaceTrip(ctx context.Context, trip *models.Trip) error {
	if c.Collection == nil {
		return errNilCollection
	}
	trip.UpdatedAt = time.Now()
	res, err := c.Collection.ReplaceOne(ctx,
		bson.M{"_id": trip.ID, "user_id": trip.UserID, "is_active": true},
		trip,
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateTrip soft-deletes a trip.
func (c *MongoTripCollection) DeactivateTrip(ctx context.Context, userID primitive.ObjectID, id string) error {
	return softDelete(ctx, c.Collection, "user_id", userID, id)
}
