package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Message types
const (
	MessageTypeText          = "text"
	MessageTypeFile          = "file"
	MessageTypeMeetingUpdate = "meeting_update"
	MessageTypeSystem        = "system"
)

// Message holds the structure for the messages collection in mongo
type Message struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details MessageDetails     `json:"message" bson:"message"`
	Version int32              `json:"__v" bson:"__v"`
}

// MessageDetails holds the structure for the inner message details
type MessageDetails struct {
	RequestID   primitive.ObjectID  `json:"requestID" bson:"requestID"`
	SenderID    primitive.ObjectID  `json:"senderID" bson:"senderID"`
	SenderType  string              `json:"senderType" bson:"senderType"` // "client", "lawyer"
	Content     string              `json:"content" bson:"content"`
	MessageType string              `json:"messageType" bson:"messageType"`
	FileURL     string              `json:"fileUrl,omitempty" bson:"fileUrl,omitempty"`
	FileName    string              `json:"fileName,omitempty" bson:"fileName,omitempty"`
	IsRead      bool                `json:"isRead" bson:"isRead"`
	CreatedAt   primitive.DateTime  `json:"createdAt" bson:"createdAt"`
	UpdatedAt   primitive.DateTime  `json:"updatedAt" bson:"updatedAt"`
	EditedAt    *primitive.DateTime `json:"editedAt,omitempty" bson:"editedAt,omitempty"`
}

// MessageView is a message with the sender's display name
type MessageView struct {
	Message
	SenderName string `json:"senderName"`
}

// ConversationSummary describes one accepted request from a viewer's perspective
type ConversationSummary struct {
	RequestID       string              `json:"requestID"`
	RequestTitle    string              `json:"requestTitle"`
	ClientName      string              `json:"clientName"`
	LawyerName      string              `json:"lawyerName"`
	Status          string              `json:"status"`
	LastMessage     *Message            `json:"lastMessage"`
	LastMessageTime *primitive.DateTime `json:"lastMessageTime"`
	UnreadCount     int64               `json:"unreadCount"`
	TotalMessages   int64               `json:"totalMessages"`
	UpdatedAt       primitive.DateTime  `json:"updatedAt"`
}

// Participant is one side of a conversation
type Participant struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ConversationInfo holds the conversation details and its participants
type ConversationInfo struct {
	RequestID       string             `json:"requestID"`
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	Category        string             `json:"category"`
	Status          string             `json:"status"`
	Client          Participant        `json:"client"`
	Lawyer          Participant        `json:"lawyer"`
	MeetingSlots    []MeetingSlot      `json:"meetingSlots"`
	SelectedMeeting *SelectedMeeting   `json:"selectedMeeting"`
	MeetingLink     *MeetingLink       `json:"meetingLink"`
	CreatedAt       primitive.DateTime `json:"createdAt"`
	UpdatedAt       primitive.DateTime `json:"updatedAt"`
}
