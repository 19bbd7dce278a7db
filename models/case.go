package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Case statuses
const (
	CaseStatusOpen       = "open"
	CaseStatusInProgress = "in_progress"
	CaseStatusCompleted  = "completed"
	CaseStatusCancelled  = "cancelled"
)

// Case holds the structure for the cases collection in mongo
type Case struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details CaseDetails        `json:"case" bson:"case"`
	Version int32              `json:"__v" bson:"__v"`
}

// CaseDetails holds the structure for the inner case details. The content
// fields are a snapshot of the originating request at acceptance time.
type CaseDetails struct {
	CaseNumber string             `json:"caseNumber" bson:"caseNumber"`
	RequestID  primitive.ObjectID `json:"requestID" bson:"requestID"`
	ClientID   primitive.ObjectID `json:"clientID" bson:"clientID"`
	LawyerID   primitive.ObjectID `json:"lawyerID" bson:"lawyerID"`

	Title        string   `json:"title" bson:"title"`
	Description  string   `json:"description" bson:"description"`
	Category     string   `json:"category" bson:"category"`
	UrgencyLevel string   `json:"urgencyLevel" bson:"urgencyLevel"`
	BudgetMin    *float64 `json:"budgetMin" bson:"budgetMin"`
	BudgetMax    *float64 `json:"budgetMax" bson:"budgetMax"`

	Status    string             `json:"status" bson:"status"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}
