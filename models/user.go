package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// User types
const (
	UserTypeClient = "client"
	UserTypeLawyer = "lawyer"
	UserTypeAdmin  = "admin"
)

// User holds the structure for the users collection in mongo
type User struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details UserDetails        `json:"user" bson:"user"`
	Version int32              `json:"__v" bson:"__v"`
}

// UserDetails holds the structure for the inner user structure as defined in the user collection in mongo
type UserDetails struct {
	Email           string             `json:"email" bson:"email"`
	FirstName       string             `json:"firstName" bson:"firstName"`
	LastName        string             `json:"lastName" bson:"lastName"`
	Phone           string             `json:"phone" bson:"phone"`
	UserType        string             `json:"userType" bson:"userType"` // "client", "lawyer", "admin"
	PasswordHash    string             `json:"-" bson:"passwordHash"`
	ProfileImageURL string             `json:"profileImageUrl" bson:"profileImageUrl"`
	IsVerified      bool               `json:"isVerified" bson:"isVerified"`
	IsActive        bool               `json:"isActive" bson:"isActive"`
	CreatedAt       primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt       primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// FullName returns the display name of the user
func (u User) FullName() string {
	if u.Details.LastName == "" {
		return u.Details.FirstName
	}
	return u.Details.FirstName + " " + u.Details.LastName
}
