package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReportHideThreshold is the number of reports that hides a post.
const ReportHideThreshold = 5

// Reaction is a like or a dislike.
type Reaction string

const (
	ReactionLike    Reaction = "like"
	ReactionDislike Reaction = "dislike"
)

// Report is a single user's complaint about a post.
type Report struct {
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Reason    string             `bson:"reason" json:"reason"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Post is an entry in the social feed.
type Post struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	AuthorID   primitive.ObjectID   `bson:"author_id" json:"author_id"`
	AuthorName string               `bson:"author_name" json:"author_name"`
	Content    string               `bson:"content" json:"content"`
	Likes      []primitive.ObjectID `bson:"likes" json:"likes"`
	Dislikes   []primitive.ObjectID `bson:"dislikes" json:"dislikes"`
	Reports    []Report             `bson:"reports" json:"-"`
	IsHidden   bool                 `bson:"is_hidden" json:"-"`
	IsActive   bool                 `bson:"is_active" json:"-"`
	CreatedAt  time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time            `bson:"updated_at" json:"updated_at"`
}

// PostRequest is the payload for a new post.
type PostRequest struct {
	Content string `json:"content" validate:"required,min=1,max=1000"`
}

// ReportRequest is the payload for reporting a post.
type ReportRequest struct {
	Reason string `json:"reason" validate:"required,max=300"`
}
