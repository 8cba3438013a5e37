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

// MongoPostCollection implements PostCollection for MongoDB.
type MongoPostCollection struct {
	Collection *mongo.Collection
}

// InsertPost inserts a post, assigning its ID.
func (c *MongoPostCollection) InsertPost(ctx context.Context, post *models.Post) error {
	if c.Collection == nil {
		return errNilCollection
	}
	now := time.Now()
	post.ID = primitive.NewObjectID()
	post.Likes = []primitive.ObjectID{}
	post.Dislikes = []primitive.ObjectID{}
	post.Reports = []models.Report{}
	post.IsActive = true
	post.CreatedAt = now
	post.UpdatedAt = now
	_, err := c.Collection.InsertOne(ctx, post)
	return err
}

// FindVisiblePosts returns a page of active, unhidden posts, newest first.
func (c *MongoPostCollection) FindVisiblePosts(ctx context.Context, page Page) ([]models.Post, int64, error) {
	return findPage[models.Post](ctx, c.Collection,
		bson.M{"is_active": true, "is_hidden": false},
		bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
		page,
	)
}

// FindPostByID finds an active, unhidden post.
func (c *MongoPostCollection) FindPostByID(ctx context.Context, id string) (*models.Post, error) {
	objectID, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	var post models.Post
	if err := findOne(ctx, c.Collection, visiblePost(objectID), &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// React applies a like or dislike from userID to post id in one atomic
// update. Reacting with the kind the user already holds clears it, and the
// opposite kind is always removed. The updated post is returned.
func (c *MongoPostCollection) React(ctx context.Context, id string, userID primitive.ObjectID, kind models.Reaction) (*models.Post, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	objectID, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	update, err := reactionUpdate(userID, kind, time.Now())
	if err != nil {
		return nil, err
	}
	return c.findAndUpdate(ctx, visiblePost(objectID), update)
}

// AddReport appends report to post id unless report.UserID already reported
// it. The post is hidden in the same update once it reaches
// models.ReportHideThreshold reports.
func (c *MongoPostCollection) AddReport(ctx context.Context, id string, report models.Report) (*models.Post, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	objectID, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	filter := visiblePost(objectID)
	filter["reports.user_id"] = bson.M{"$ne": report.UserID}

	post, err := c.findAndUpdate(ctx, filter, reportUpdate(report, time.Now()))
	if !errors.Is(err, ErrNotFound) {
		return post, err
	}
	// No match: either the post is gone or this user already reported it.
	if _, err := c.FindPostByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, ErrAlreadyReported
}

func (c *MongoPostCollection) findAndUpdate(ctx context.Context, filter bson.M, update mongo.Pipeline) (*models.Post, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var post models.Post
	err := c.Collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update post feedback: %w", err)
	}
	return &post, nil
}

func visiblePost(id primitive.ObjectID) bson.M {
	return bson.M{"_id": id, "is_active": true, "is_hidden": false}
}

func arrayField(name string) bson.M {
	return bson.M{"$ifNull": bson.A{"$" + name, bson.A{}}}
}

// reactionUpdate builds the pipeline that toggles userID in the kind's set
// and removes it from the other. Both fields read the pre-update document.
func reactionUpdate(userID primitive.ObjectID, kind models.Reaction, now time.Time) (mongo.Pipeline, error) {
	var same, other string
	switch kind {
	case models.ReactionLike:
		same, other = "likes", "dislikes"
	case models.ReactionDislike:
		same, other = "dislikes", "likes"
	default:
		return nil, fmt.Errorf("unknown reaction %q", kind)
	}
	user := bson.A{userID}
	return mongo.Pipeline{{{Key: "$set", Value: bson.M{
		same: bson.M{"$cond": bson.A{
			bson.M{"$in": bson.A{userID, arrayField(same)}},
			bson.M{"$setDifference": bson.A{arrayField(same), user}},
			bson.M{"$concatArrays": bson.A{arrayField(same), user}},
		}},
		other:        bson.M{"$setDifference": bson.A{arrayField(other), user}},
		"updated_at": now,
	}}}}, nil
}

// reportUpdate builds the pipeline that appends report and raises
// is_hidden when the new count reaches the threshold.
func reportUpdate(report models.Report, now time.Time) mongo.Pipeline {
	return mongo.Pipeline{{{Key: "$set", Value: bson.M{
		"reports": bson.M{"$concatArrays": bson.A{
			arrayField("reports"),
			bson.A{bson.M{"$literal": report}},
		}},
		"is_hidden": bson.M{"$or": bson.A{
			"$is_hidden",
			bson.M{"$gte": bson.A{
				bson.M{"$add": bson.A{bson.M{"$size": arrayField("reports")}, 1}},
				models.ReportHideThreshold,
			}},
		}},
		"updated_at": now,
	}}}}
}

// DeactivatePost soft-deletes a post written by authorID.
func (c *MongoPostCollection) DeactivatePost(ctx context.Context, authorID primitive.ObjectID, id string) error {
	return softDelete(ctx, c.Collection, "author_id", authorID, id)
}
