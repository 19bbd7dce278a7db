package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Availability statuses for a lawyer profile
const (
	AvailabilityAvailable   = "available"
	AvailabilityBusy        = "busy"
	AvailabilityUnavailable = "unavailable"
)

// Lawyer holds the structure for the lawyers collection in mongo
type Lawyer struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details LawyerDetails      `json:"lawyer" bson:"lawyer"`
	Version int32              `json:"__v" bson:"__v"`
}

// LawyerDetails holds the structure for the inner lawyer profile
type LawyerDetails struct {
	UserID             primitive.ObjectID `json:"userID" bson:"userID"`
	BarNumber          string             `json:"barNumber" bson:"barNumber"`
	BarState           string             `json:"barState" bson:"barState"`
	LawFirm            string             `json:"lawFirm" bson:"lawFirm"`
	YearsExperience    int                `json:"yearsExperience" bson:"yearsExperience"`
	HourlyRate         *float64           `json:"hourlyRate" bson:"hourlyRate"`
	Bio                string             `json:"bio" bson:"bio"`
	Specializations    []string           `json:"specializations" bson:"specializations"`
	Languages          []string           `json:"languages" bson:"languages"`
	AvailabilityStatus string             `json:"availabilityStatus" bson:"availabilityStatus"`
	Rating             float64            `json:"rating" bson:"rating"`
	TotalReviews       int                `json:"totalReviews" bson:"totalReviews"`
	TotalCases         int                `json:"totalCases" bson:"totalCases"`
	CreatedAt          primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt          primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// LawyerSearchResult is a lawyer profile joined with the owning account
type LawyerSearchResult struct {
	UserID             string   `json:"id"`
	FirstName          string   `json:"firstName"`
	LastName           string   `json:"lastName"`
	Email              string   `json:"email"`
	Specializations    []string `json:"specializations"`
	Rating             float64  `json:"rating"`
	YearsExperience    int      `json:"yearsExperience"`
	HourlyRate         *float64 `json:"hourlyRate"`
	LawFirm            string   `json:"lawFirm"`
	Bio                string   `json:"bio"`
	AvailabilityStatus string   `json:"availabilityStatus"`
	MatchScore         float64  `json:"matchScore"`
}
