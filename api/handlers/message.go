package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/jai-platform/jai-api/api"
	"github.com/jai-platform/jai-api/attachments"
	"github.com/jai-platform/jai-api/config"
	"github.com/jai-platform/jai-api/services"
)

// Message exposes conversations on accepted requests
type Message struct {
	Conversations services.ConversationService
	Attachments   attachments.Store
}

// MarkReadRequest lists messages to mark read
type MarkReadRequest struct {
	MessageIDs []string `json:"messageIds"`
}

// EditMessageRequest is the new content of a message
type EditMessageRequest struct {
	Content string `json:"content"`
}

// AttachmentResponse points at an uploaded file
type AttachmentResponse struct {
	FileURL  string `json:"fileUrl"`
	FileName string `json:"fileName"`
}

// MessagesHandler returns a request's conversation and marks the other
// party's messages read
func (m Message) MessagesHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	msgs, err := m.Conversations.List(ctx, actor, id)
	if err != nil {
		serviceError("failed to get messages", w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// SendMessageHandler posts a message to an accepted request
func (m Message) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in services.SendMessageInput
	if !decodeBody(w, r, &in) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	msg, err := m.Conversations.Send(ctx, actor, id, in)
	if err != nil {
		serviceError("failed to send message", w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// MarkConversationReadHandler marks every message in a request read
func (m Message) MarkConversationReadHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	n, err := m.Conversations.MarkAllRead(ctx, actor, id)
	if err != nil {
		serviceError("failed to mark messages read", w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"modifiedCount": n})
}

// MarkReadHandler marks the listed messages read
func (m Message) MarkReadHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	var in MarkReadRequest
	if !decodeBody(w, r, &in) {
		return
	}
	ids := make([]primitive.ObjectID, 0, len(in.MessageIDs))
	for _, hex := range in.MessageIDs {
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
			return
		}
		ids = append(ids, id)
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	n, err := m.Conversations.MarkRead(ctx, actor, ids)
	if err != nil {
		serviceError("failed to mark messages read", w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"modifiedCount": n})
}

// EditMessageHandler replaces the content of the caller's message
func (m Message) EditMessageHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in EditMessageRequest
	if !decodeBody(w, r, &in) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	msg, err := m.Conversations.Edit(ctx, actor, id, in.Content)
	if err != nil {
		serviceError("failed to edit message", w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// DeleteMessageHandler removes the caller's message
func (m Message) DeleteMessageHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := m.Conversations.Delete(ctx, actor, id); err != nil {
		serviceError("failed to delete message", w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "message deleted"})
}

// ConversationsHandler summarizes the caller's conversations
func (m Message) ConversationsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	summaries, err := m.Conversations.Summary(ctx, actor)
	if err != nil {
		serviceError("failed to get conversations", w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

// ConversationInfoHandler describes a conversation and its participants
func (m Message) ConversationInfoHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	info, err := m.Conversations.Info(ctx, actor, id)
	if err != nil {
		serviceError("failed to get conversation info", w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// UploadAttachmentHandler stores a multipart "file" for an accepted request
// and returns its URL for a follow-up file message
func (m Message) UploadAttachmentHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if m.Attachments == nil {
		config.ErrorStatus("failed to upload attachment", http.StatusServiceUnavailable, w, errors.New("attachments are not configured"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	if _, err := m.Conversations.Open(ctx, actor, id); err != nil {
		serviceError("failed to upload attachment", w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, attachments.MaxSize+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		config.ErrorStatus("failed to read file", http.StatusBadRequest, w, err)
		return
	}
	defer file.Close()
	if header.Size > attachments.MaxSize {
		config.ErrorStatus("failed to read file", http.StatusBadRequest, w, fmt.Errorf("file exceeds %d bytes", attachments.MaxSize))
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := attachments.ObjectKey(id.Hex(), header.Filename)
	url, err := m.Attachments.Upload(ctx, key, contentType, file, header.Size)
	if err != nil {
		zap.S().Errorw("attachment upload failed", "requestID", id.Hex(), "key", key, "error", err, "requestId", api.RequestIDFrom(r.Context()))
		config.ErrorStatus("failed to upload attachment", http.StatusBadGateway, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, AttachmentResponse{FileURL: url, FileName: header.Filename})
}
