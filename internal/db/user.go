package db

import (
	"context"
	"time"

	"github.com/ukydev/motormate/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoUserCollection implements UserCollection for MongoDB
type MongoUserCollection struct {
	Collection *mongo.Collection
}

// FindUserByID finds an active user by their ID
func (c *MongoUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	objectID, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := findOne(ctx, c.Collection, bson.M{"_id": objectID, "is_active": true}, &user); err != nil {
		return nil, err
	}

	return &user, nil
}

// UpsertGoogleUser creates the user for a Google identity on first sign-in
// and refreshes email, avatar and last login on every later one. The name
// is only taken from Google on creation since users may edit it.
func (c *MongoUserCollection) UpsertGoogleUser(ctx context.Context, profile models.GoogleProfile) (*models.User, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"email":      profile.Email,
			"avatar":     profile.Picture,
			"last_login": now,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"google_id":  profile.Subject,
			"name":       profile.Name,
			"is_active":  true,
			"created_at": now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var user models.User
	err := c.Collection.FindOneAndUpdate(ctx, bson.M{"google_id": profile.Subject}, update, opts).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile writes the owner-editable profile fields of user.
func (c *MongoUserCollection) UpdateProfile(ctx context.Context, user *models.User) error {
	if c.Collection == nil {
		return errNilCollection
	}
	user.UpdatedAt = time.Now()
	res, err := c.Collection.UpdateOne(
		ctx,
		bson.M{"_id": user.ID, "is_active": true},
		bson.M{"$set": bson.M{
			"name":       user.Name,
			"phone":      user.Phone,
			"address":    user.Address,
			"updated_at": user.UpdatedAt,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
