package services

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/jai-platform/jai-api/databases"
	"github.com/jai-platform/jai-api/models"
)

const maxMessageLength = 2000

var messageTypes = map[string]bool{
	models.MessageTypeText:          true,
	models.MessageTypeFile:          true,
	models.MessageTypeMeetingUpdate: true,
	models.MessageTypeSystem:        true,
}

// ConversationService gates messaging on request status and keeps read state
type ConversationService struct {
	Requests databases.RequestDatabase
	Messages databases.MessageDatabase
	Accounts AccountFinder
	Notifier Notifier
	Now      func() time.Time
}

// SendMessageInput is a new chat message
type SendMessageInput struct {
	Content     string `json:"content"`
	MessageType string `json:"messageType"`
	FileURL     string `json:"fileUrl"`
	FileName    string `json:"fileName"`
}

// CanMessage reports whether the request hosts a conversation
func CanMessage(req models.LawyerRequest) bool {
	return req.Details.Status == models.RequestStatusAccepted
}

func (s ConversationService) now() time.Time { return nowFunc(s.Now)() }

// Open loads a request the actor is a party to and checks that it accepts
// messages
func (s ConversationService) Open(ctx context.Context, actor Actor, requestID primitive.ObjectID) (*models.LawyerRequest, error) {
	req, err := s.party(ctx, actor, requestID)
	if err != nil {
		return nil, err
	}
	if !CanMessage(*req) {
		return nil, conflict("request is not accepted")
	}
	return req, nil
}

// Send appends a message to an accepted request's conversation
func (s ConversationService) Send(ctx context.Context, actor Actor, requestID primitive.ObjectID, in SendMessageInput) (*models.MessageView, error) {
	req, err := s.Open(ctx, actor, requestID)
	if err != nil {
		return nil, err
	}

	content := strings.TrimSpace(in.Content)
	if err := validateMessage(content); err != nil {
		return nil, err
	}
	msgType := in.MessageType
	if msgType == "" {
		msgType = models.MessageTypeText
	}
	if !messageTypes[msgType] {
		return nil, invalid("message type must be text, file, meeting_update or system")
	}
	if msgType == models.MessageTypeFile && in.FileURL == "" {
		return nil, invalid("file messages need a file url")
	}

	now := primitive.NewDateTimeFromTime(s.now())
	msg := models.Message{
		ID: primitive.NewObjectID(),
		Details: models.MessageDetails{
			RequestID:   req.ID,
			SenderID:    actor.ID,
			SenderType:  req.RoleOf(actor.ID),
			Content:     content,
			MessageType: msgType,
			FileURL:     in.FileURL,
			FileName:    in.FileName,
			IsRead:      false,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
	if _, err := s.Messages.InsertOne(ctx, msg); err != nil {
		return nil, err
	}

	// conversation recency
	if _, err := s.Requests.UpdateOne(ctx, bson.M{"_id": req.ID}, bson.M{"$set": bson.M{"request.updatedAt": now}}); err != nil {
		zap.S().Warnw("failed to touch request after message", "requestID", req.ID.Hex(), "error", err)
	}

	view := models.MessageView{Message: msg, SenderName: newDisplayNames(s.Accounts).name(ctx, actor.ID)}
	if s.Notifier != nil {
		s.Notifier.MessageSent(ctx, *req, view)
	}
	return &view, nil
}

// List marks the other party's messages read and returns the conversation
// oldest first
func (s ConversationService) List(ctx context.Context, actor Actor, requestID primitive.ObjectID) ([]models.MessageView, error) {
	req, err := s.party(ctx, actor, requestID)
	if err != nil {
		return nil, err
	}
	if _, err := s.markRead(ctx, actor, bson.M{"message.requestID": req.ID}); err != nil {
		return nil, err
	}

	msgs, err := s.Messages.Find(ctx, bson.M{"message.requestID": req.ID},
		options.Find().SetSort(bson.D{{Key: "message.createdAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	names := newDisplayNames(s.Accounts)
	views := make([]models.MessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, models.MessageView{Message: m, SenderName: names.name(ctx, m.Details.SenderID)})
	}
	return views, nil
}

// Summary lists the actor's accepted requests with their last message and
// unread count, most recent conversation first. Conversations without
// messages come last.
func (s ConversationService) Summary(ctx context.Context, actor Actor) ([]models.ConversationSummary, error) {
	reqs, err := s.Requests.Find(ctx, bson.M{
		"request.status": models.RequestStatusAccepted,
		"$or":            []bson.M{{"request.clientID": actor.ID}, {"request.lawyerID": actor.ID}},
	}, options.Find().SetSort(bson.D{{Key: "request.updatedAt", Value: -1}}))
	if err != nil {
		return nil, err
	}

	names := newDisplayNames(s.Accounts)
	summaries := make([]models.ConversationSummary, 0, len(reqs))
	for _, r := range reqs {
		last, err := s.Messages.Find(ctx, bson.M{"message.requestID": r.ID},
			options.Find().SetSort(bson.D{{Key: "message.createdAt", Value: -1}, {Key: "_id", Value: -1}}).SetLimit(1))
		if err != nil {
			return nil, err
		}
		unread, err := s.Messages.CountDocuments(ctx, unreadFilter(actor, bson.M{"message.requestID": r.ID}))
		if err != nil {
			return nil, err
		}
		total, err := s.Messages.CountDocuments(ctx, bson.M{"message.requestID": r.ID})
		if err != nil {
			return nil, err
		}

		summary := models.ConversationSummary{
			RequestID:     r.ID.Hex(),
			RequestTitle:  r.Details.Title,
			ClientName:    names.name(ctx, r.Details.ClientID),
			LawyerName:    names.name(ctx, r.Details.LawyerID),
			Status:        r.Details.Status,
			UnreadCount:   unread,
			TotalMessages: total,
			UpdatedAt:     r.Details.UpdatedAt,
		}
		if len(last) > 0 {
			summary.LastMessage = &last[0]
			summary.LastMessageTime = &last[0].Details.CreatedAt
		}
		summaries = append(summaries, summary)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		a, b := summaries[i].LastMessageTime, summaries[j].LastMessageTime
		if a == nil || b == nil {
			return a != nil
		}
		return *a > *b
	})
	return summaries, nil
}

// MarkRead marks the given messages read when the actor did not send them.
// It returns how many messages changed from unread to read.
func (s ConversationService) MarkRead(ctx context.Context, actor Actor, messageIDs []primitive.ObjectID) (int64, error) {
	if len(messageIDs) == 0 {
		return 0, invalid("message ids are required")
	}
	return s.markRead(ctx, actor, bson.M{"_id": bson.M{"$in": messageIDs}})
}

// MarkAllRead marks every message in the request not sent by the actor read
func (s ConversationService) MarkAllRead(ctx context.Context, actor Actor, requestID primitive.ObjectID) (int64, error) {
	req, err := s.party(ctx, actor, requestID)
	if err != nil {
		return 0, err
	}
	return s.markRead(ctx, actor, bson.M{"message.requestID": req.ID})
}

// Edit replaces the content of a message the actor sent
func (s ConversationService) Edit(ctx context.Context, actor Actor, messageID primitive.ObjectID, content string) (*models.Message, error) {
	msg, err := s.ownMessage(ctx, actor, messageID, "edit")
	if err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if err := validateMessage(content); err != nil {
		return nil, err
	}

	now := primitive.NewDateTimeFromTime(s.now())
	_, err = s.Messages.UpdateOne(ctx, bson.M{"_id": msg.ID}, bson.M{"$set": bson.M{
		"message.content":   content,
		"message.editedAt":  now,
		"message.updatedAt": now,
	}})
	if err != nil {
		return nil, err
	}
	msg.Details.Content = content
	msg.Details.EditedAt = &now
	msg.Details.UpdatedAt = now
	return msg, nil
}

// Delete removes a message the actor sent
func (s ConversationService) Delete(ctx context.Context, actor Actor, messageID primitive.ObjectID) error {
	msg, err := s.ownMessage(ctx, actor, messageID, "delete")
	if err != nil {
		return err
	}
	if _, err := s.Messages.DeleteOne(ctx, bson.M{"_id": msg.ID}); err != nil {
		return err
	}
	return nil
}

// Info describes the conversation and its participants
func (s ConversationService) Info(ctx context.Context, actor Actor, requestID primitive.ObjectID) (*models.ConversationInfo, error) {
	req, err := s.party(ctx, actor, requestID)
	if err != nil {
		return nil, err
	}
	names := newDisplayNames(s.Accounts)
	participant := func(id primitive.ObjectID) models.Participant {
		return models.Participant{ID: id.Hex(), Name: names.name(ctx, id), Email: names.email(ctx, id)}
	}
	return &models.ConversationInfo{
		RequestID:       req.ID.Hex(),
		Title:           req.Details.Title,
		Description:     req.Details.Description,
		Category:        req.Details.Category,
		Status:          req.Details.Status,
		Client:          participant(req.Details.ClientID),
		Lawyer:          participant(req.Details.LawyerID),
		MeetingSlots:    req.Details.MeetingSlots,
		SelectedMeeting: req.Details.SelectedMeeting,
		MeetingLink:     req.Details.MeetingLink,
		CreatedAt:       req.Details.CreatedAt,
		UpdatedAt:       req.Details.UpdatedAt,
	}, nil
}

func (s ConversationService) party(ctx context.Context, actor Actor, requestID primitive.ObjectID) (*models.LawyerRequest, error) {
	req, err := loadRequest(ctx, s.Requests, requestID)
	if err != nil {
		return nil, err
	}
	if !req.IsParty(actor.ID) {
		return nil, permission("only the request's client or lawyer can access its conversation")
	}
	return req, nil
}

func (s ConversationService) ownMessage(ctx context.Context, actor Actor, messageID primitive.ObjectID, verb string) (*models.Message, error) {
	msg, err := s.Messages.FindOne(ctx, bson.M{"_id": messageID})
	if err != nil {
		if databases.IsNotFound(err) {
			return nil, notFound("message %s does not exist", messageID.Hex())
		}
		return nil, err
	}
	if msg.Details.SenderID != actor.ID {
		return nil, permission("only the sender can %s a message", verb)
	}
	return msg, nil
}

func (s ConversationService) markRead(ctx context.Context, actor Actor, scope bson.M) (int64, error) {
	res, err := s.Messages.UpdateMany(ctx, unreadFilter(actor, scope), bson.M{"$set": bson.M{"message.isRead": true}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// unreadFilter narrows scope to unread messages the actor did not send
func unreadFilter(actor Actor, scope bson.M) bson.M {
	filter := bson.M{"message.senderID": bson.M{"$ne": actor.ID}, "message.isRead": false}
	for k, v := range scope {
		filter[k] = v
	}
	return filter
}

func validateMessage(content string) error {
	n := utf8.RuneCountInString(content)
	if n < 1 || n > maxMessageLength {
		return invalid("message content must be 1 to %d characters", maxMessageLength)
	}
	return nil
}
