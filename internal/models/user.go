package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Address is a user's postal address.
type Address struct {
	Street     string `bson:"street,omitempty" json:"street,omitempty" validate:"max=200"`
	City       string `bson:"city,omitempty" json:"city,omitempty" validate:"max=100"`
	State      string `bson:"state,omitempty" json:"state,omitempty" validate:"max=100"`
	PostalCode string `bson:"postal_code,omitempty" json:"postal_code,omitempty" validate:"max=20"`
	Country    string `bson:"country,omitempty" json:"country,omitempty" validate:"max=100"`
}

// User represents an account created through Google sign-in.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GoogleID  string             `bson:"google_id" json:"-"`
	Email     string             `bson:"email" json:"email"`
	Name      string             `bson:"name" json:"name"`
	Avatar    string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Phone     string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Address   Address            `bson:"address" json:"address"`
	IsActive  bool               `bson:"is_active" json:"is_active"`
	LastLogin *time.Time         `bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// GoogleProfile is the identity returned by Google's userinfo endpoint.
type GoogleProfile struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// ProfileUpdateRequest holds the fields a user may change on their own profile.
type ProfileUpdateRequest struct {
	Name    *string  `json:"name" validate:"omitempty,min=1,max=100"`
	Phone   *string  `json:"phone" validate:"omitempty,max=20"`
	Address *Address `json:"address"`
}

// ApplyTo copies the provided fields onto u.
func (r *ProfileUpdateRequest) ApplyTo(u *User) {
	if r.Name != nil {
		u.Name = *r.Name
	}
	if r.Phone != nil {
		u.Phone = *r.Phone
	}
	if r.Address != nil {
		u.Address = *r.Address
	}
}

// LoginResponse represents a successful sign-in response
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Claims represents JWT claims
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Exp    int64  `json:"exp"`
}
