package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Request statuses. Accepted, rejected and cancelled are terminal.
const (
	RequestStatusPending   = "pending"
	RequestStatusAccepted  = "accepted"
	RequestStatusRejected  = "rejected"
	RequestStatusCancelled = "cancelled"
)

// Urgency levels
const (
	UrgencyLow    = "low"
	UrgencyMedium = "medium"
	UrgencyHigh   = "high"
	UrgencyUrgent = "urgent"
)

// Meeting types
const (
	MeetingTypeOnline   = "online"
	MeetingTypeInPerson = "in-person"
	MeetingTypePhone    = "phone"
)

// LawyerRequest holds the structure for the lawyer_requests collection in mongo
type LawyerRequest struct {
	ID      primitive.ObjectID   `json:"_id" bson:"_id"`
	Details LawyerRequestDetails `json:"request" bson:"request"`
	Version int32                `json:"__v" bson:"__v"`
}

// LawyerRequestDetails holds the structure for the inner request details
type LawyerRequestDetails struct {
	ClientID primitive.ObjectID `json:"clientID" bson:"clientID"`
	LawyerID primitive.ObjectID `json:"lawyerID" bson:"lawyerID"`

	Title                string   `json:"title" bson:"title"`
	Description          string   `json:"description" bson:"description"`
	Category             string   `json:"category" bson:"category"`
	UrgencyLevel         string   `json:"urgencyLevel" bson:"urgencyLevel"` // "low", "medium", "high", "urgent"
	BudgetMin            *float64 `json:"budgetMin" bson:"budgetMin"`
	BudgetMax            *float64 `json:"budgetMax" bson:"budgetMax"`
	PreferredMeetingType string   `json:"preferredMeetingType,omitempty" bson:"preferredMeetingType,omitempty"`
	Location             string   `json:"location,omitempty" bson:"location,omitempty"`
	AdditionalNotes      string   `json:"additionalNotes,omitempty" bson:"additionalNotes,omitempty"`

	// Status: "pending", "accepted", "rejected", "cancelled"
	Status string `json:"status" bson:"status"`

	ResponseMessage string              `json:"responseMessage" bson:"responseMessage"`
	RespondedAt     *primitive.DateTime `json:"respondedAt" bson:"respondedAt"`

	MeetingSlots    []MeetingSlot    `json:"meetingSlots" bson:"meetingSlots"`
	SelectedMeeting *SelectedMeeting `json:"selectedMeeting" bson:"selectedMeeting"`
	MeetingLink     *MeetingLink     `json:"meetingLink" bson:"meetingLink"`

	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// MeetingSlot is a consultation time proposed by the lawyer on acceptance
type MeetingSlot struct {
	Date        string `json:"date" bson:"date"` // "2006-01-02"
	Time        string `json:"time" bson:"time"` // "15:04" or "3:04 PM"
	Duration    int    `json:"duration" bson:"duration"`
	MeetingType string `json:"meetingType" bson:"meetingType"`
	Available   bool   `json:"available" bson:"available"`
}

// SelectedMeeting is the slot picked by the client after acceptance
type SelectedMeeting struct {
	MeetingSlot    `bson:",inline"`
	StartsAt       *primitive.DateTime `json:"startsAt,omitempty" bson:"startsAt,omitempty"`
	SelectedAt     primitive.DateTime  `json:"selectedAt" bson:"selectedAt"`
	ReminderSentAt *primitive.DateTime `json:"reminderSentAt,omitempty" bson:"reminderSentAt,omitempty"`
}

// MeetingLink is the join information produced by a meeting provider
type MeetingLink struct {
	MeetingID string              `json:"meetingID" bson:"meetingID"`
	JoinURL   string              `json:"joinUrl" bson:"joinUrl"`
	HostURL   string              `json:"hostUrl,omitempty" bson:"hostUrl,omitempty"`
	Provider  string              `json:"provider" bson:"provider"`
	Password  string              `json:"password,omitempty" bson:"password,omitempty"`
	CreatedAt primitive.DateTime  `json:"createdAt" bson:"createdAt"`
	ExpiresAt *primitive.DateTime `json:"expiresAt,omitempty" bson:"expiresAt,omitempty"`
}

// IsParty reports whether the user is the client or the lawyer of the request
func (r LawyerRequest) IsParty(userID primitive.ObjectID) bool {
	return r.Details.ClientID == userID || r.Details.LawyerID == userID
}

// RoleOf returns "client" or "lawyer" for a party of the request, or "" otherwise
func (r LawyerRequest) RoleOf(userID primitive.ObjectID) string {
	switch userID {
	case r.Details.ClientID:
		return UserTypeClient
	case r.Details.LawyerID:
		return UserTypeLawyer
	}
	return ""
}

// RequestView is a request shaped for display with both parties' names
type RequestView struct {
	LawyerRequest
	ClientName  string `json:"clientName"`
	ClientEmail string `json:"clientEmail"`
	LawyerName  string `json:"lawyerName"`
	LawyerEmail string `json:"lawyerEmail"`
}
