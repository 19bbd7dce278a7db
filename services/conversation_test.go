package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jai-platform/jai-api/models"
)

func TestCanMessage(t *testing.T) {
	for status, want := range map[string]bool{
		models.RequestStatusPending:   false,
		models.RequestStatusAccepted:  true,
		models.RequestStatusRejected:  false,
		models.RequestStatusCancelled: false,
	} {
		req := models.LawyerRequest{Details: models.LawyerRequestDetails{Status: status}}
		assert.Equal(t, want, CanMessage(req), status)
	}
}

func TestConversationService_SendGate(t *testing.T) {
	e := newEnv(t)

	pending := e.pending(t)
	rejected := e.pending(t)
	_, err := e.reqs.Respond(context.Background(), e.lawyer, rejected.ID, RespondInput{Action: ActionReject})
	require.NoError(t, err)
	cancelled := e.pending(t)
	_, err = e.reqs.Cancel(context.Background(), e.client, cancelled.ID)
	require.NoError(t, err)

	for _, id := range []primitive.ObjectID{pending.ID, rejected.ID, cancelled.ID} {
		_, err := e.conv.Send(context.Background(), e.client, id, SendMessageInput{Content: "Hello"})
		assert.ErrorIs(t, err, ErrConflict)
		assert.Contains(t, err.Error(), "request is not accepted")
	}
	assert.Empty(t, e.allMessages())

	accepted := e.accepted(t)
	msg, err := e.conv.Send(context.Background(), e.client, accepted.ID, SendMessageInput{Content: "Hello"})
	require.NoError(t, err)
	assert.Equal(t, "Casey Client", msg.SenderName)

	msgs := e.allMessages()
	require.Len(t, msgs, 1)
	assert.False(t, msgs[0].Details.IsRead)
	assert.Equal(t, models.UserTypeClient, msgs[0].Details.SenderType)
	assert.Equal(t, models.MessageTypeText, msgs[0].Details.MessageType)
	assert.Equal(t, accepted.ID, msgs[0].Details.RequestID)
}

func TestConversationService_HelloScenario(t *testing.T) {
	e := newEnv(t)
	req := e.pending(t)

	_, err := e.conv.Send(context.Background(), e.client, req.ID, SendMessageInput{Content: "Hello"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = e.reqs.Respond(context.Background(), e.lawyer, req.ID, RespondInput{Action: ActionAccept})
	require.NoError(t, err)
	_, err = e.conv.Send(context.Background(), e.client, req.ID, SendMessageInput{Content: "Hello"})
	require.NoError(t, err)

	lawyerSummary, err := e.conv.Summary(context.Background(), e.lawyer)
	require.NoError(t, err)
	require.Len(t, lawyerSummary, 1)
	assert.Equal(t, int64(1), lawyerSummary[0].UnreadCount)

	msgs, err := e.conv.List(context.Background(), e.lawyer, req.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Hello", msgs[0].Details.Content)
	assert.True(t, msgs[0].Details.IsRead)

	lawyerSummary, err = e.conv.Summary(context.Background(), e.lawyer)
	require.NoError(t, err)
	assert.Equal(t, int64(0), lawyerSummary[0].UnreadCount)
	assert.Equal(t, int64(1), lawyerSummary[0].TotalMessages)

	// the client's own message never counts as unread for the client
	clientSummary, err := e.conv.Summary(context.Background(), e.client)
	require.NoError(t, err)
	assert.Equal(t, int64(0), clientSummary[0].UnreadCount)
}

func TestConversationService_ListMarksOnlyOtherPartyRead(t *testing.T) {
	e := newEnv(t)
	req := e.accepted(t)

	_, err := e.conv.Send(context.Background(), e.client, req.ID, SendMessageInput{Content: "From client"})
	require.NoError(t, err)
	_, err = e.conv.Send(context.Background(), e.lawyer, req.ID, SendMessageInput{Content: "From lawyer"})
	require.NoError(t, err)

	msgs, err := e.conv.List(context.Background(), e.client, req.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "From client", msgs[0].Details.Content)
	assert.False(t, msgs[0].Details.IsRead)
	assert.Equal(t, "From lawyer", msgs[1].Details.Content)
	assert.True(t, msgs[1].Details.IsRead)
	assert.Equal(t, "Lee Lawyer", msgs[1].SenderName)

	// re-listing changes nothing
	n, err := e.conv.MarkAllRead(context.Background(), e.client, req.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	_, err = e.conv.List(context.Background(), e.client, req.ID)
	require.NoError(t, err)
	for _, m := range e.allMessages() {
		assert.Equal(t, m.Details.SenderID == e.lawyer.ID, m.Details.IsRead, m.Details.Content)
	}
}

func TestConversationService_PartyOnly(t *testing.T) {
	e := newEnv(t)
	req := e.accepted(t)

	_, err := e.conv.Send(context.Background(), e.otherClient, req.ID, SendMessageInput{Content: "Hi"})
	assert.ErrorIs(t, err, ErrPermission)
	_, err = e.conv.List(context.Background(), e.otherLawyer, req.ID)
	assert.ErrorIs(t, err, ErrPermission)
	_, err = e.conv.Info(context.Background(), e.otherClient, req.ID)
	assert.ErrorIs(t, err, ErrPermission)
	_, err = e.conv.MarkAllRead(context.Background(), e.otherClient, req.ID)
	assert.ErrorIs(t, err, ErrPermission)
	_, err = e.conv.List(context.Background(), e.client, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConversationService_SendValidation(t *testing.T) {
	e := newEnv(t)
	req := e.accepted(t)

	tests := []SendMessageInput{
		{Content: ""},
		{Content: "   "},
		{Content: strings.Repeat("a", 2001)},
		{Content: "hi", MessageType: "video"},
		{Content: "see file", MessageType: models.MessageTypeFile},
	}
	for _, in := range tests {
		_, err := e.conv.Send(context.Background(), e.client, req.ID, in)
		assert.ErrorIs(t, err, ErrValidation)
	}

	_, err := e.conv.Send(context.Background(), e.client, req.ID, SendMessageInput{Content: strings.Repeat("a", 2000)})
	assert.NoError(t, err)
	_, err = e.conv.Send(context.Background(), e.client, req.ID, SendMessageInput{
		Content:     "contract.pdf",
		MessageType: models.MessageTypeFile,
		FileURL:     "https://files.example.com/contract.pdf",
		FileName:    "contract.pdf",
	})
	assert.NoError(t, err)
	assert.Len(t, e.allMessages(), 2)
}

func TestConversationService_SendTouchesRequestAndNotifies(t *testing.T) {
	e := newEnv(t)
	req := e.accepted(t)
	before := e.storedRequest(t, req.ID).Details.UpdatedAt

	msg, err := e.conv.Send(context.Background(), e.lawyer, req.ID, SendMessageInput{Content: "Hi"})
	require.NoError(t, err)

	assert.Greater(t, int64(e.storedRequest(t, req.ID).Details.UpdatedAt), int64(before))
	last := e.notifier.events[len(e.notifier.events)-1]
	assert.Equal(t, "message", last.kind)
	assert.Equal(t, msg.ID, last.messageID)
}

func TestConversationService_SummaryOrdering(t *testing.T) {
	e := newEnv(t)
	quiet := e.accepted(t)
	older := e.accepted(t)
	newer := e.accepted(t)
	e.pending(t)

	_, err := e.conv.Send(context.Background(), e.lawyer, older.ID, SendMessageInput{Content: "first"})
	require.NoError(t, err)
	_, err = e.conv.Send(context.Background(), e.lawyer, newer.ID, SendMessageInput{Content: "second"})
	require.NoError(t, err)
	_, err = e.conv.Send(context.Background(), e.lawyer, newer.ID, SendMessageInput{Content: "third"})
	require.NoError(t, err)

	summaries, err := e.conv.Summary(context.Background(), e.client)
	require.NoError(t, err)
	require.Len(t, summaries, 3)

	assert.Equal(t, newer.ID.Hex(), summaries[0].RequestID)
	assert.Equal(t, "third", summaries[0].LastMessage.Details.Content)
	assert.Equal(t, int64(2), summaries[0].UnreadCount)
	assert.Equal(t, int64(2), summaries[0].TotalMessages)
	assert.Equal(t, "Lee Lawyer", summaries[0].LawyerName)

	assert.Equal(t, older.ID.Hex(), summaries[1].RequestID)
	assert.Equal(t, int64(1), summaries[1].UnreadCount)

	assert.Equal(t, quiet.ID.Hex(), summaries[2].RequestID)
	assert.Nil(t, summaries[2].LastMessage)
	assert.Nil(t, summaries[2].LastMessageTime)
	assert.Equal(t, int64(0), summaries[2].TotalMessages)

	none, err := e.conv.Summary(context.Background(), e.otherClient)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestConversationService_MarkRead(t *testing.T) {
	e := newEnv(t)
	req := e.accepted(t)

	fromLawyer, err := e.conv.Send(context.Background(), e.lawyer, req.ID, SendMessageInput{Content: "one"})
	require.NoError(t, err)
	fromLawyer2, err := e.conv.Send(context.Background(), e.lawyer, req.ID, SendMessageInput{Content: "two"})
	require.NoError(t, err)
	fromClient, err := e.conv.Send(context.Background(), e.client, req.ID, SendMessageInput{Content: "three"})
	require.NoError(t, err)

	_, err = e.conv.MarkRead(context.Background(), e.client, nil)
	assert.ErrorIs(t, err, ErrValidation)

	n, err := e.conv.MarkRead(context.Background(), e.client, []primitive.ObjectID{fromLawyer.ID, fromClient.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = e.conv.MarkRead(context.Background(), e.client, []primitive.ObjectID{fromLawyer.ID, fromLawyer2.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = e.conv.MarkRead(context.Background(), e.client, []primitive.ObjectID{fromLawyer.ID, fromLawyer2.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	for _, m := range e.allMessages() {
		if m.ID == fromClient.ID {
			assert.False(t, m.Details.IsRead)
		} else {
			assert.True(t, m.Details.IsRead)
		}
	}
}

func TestConversationService_EditAndDelete(t *testing.T) {
	e := newEnv(t)
	req := e.accepted(t)

	msg, err := e.conv.Send(context.Background(), e.client, req.ID, SendMessageInput{Content: "Helo"})
	require.NoError(t, err)

	_, err = e.conv.Edit(context.Background(), e.lawyer, msg.ID, "Hello")
	assert.ErrorIs(t, err, ErrPermission)
	_, err = e.conv.Edit(context.Background(), e.client, msg.ID, "")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = e.conv.Edit(context.Background(), e.client, primitive.NewObjectID(), "Hello")
	assert.ErrorIs(t, err, ErrNotFound)

	edited, err := e.conv.Edit(context.Background(), e.client, msg.ID, "Hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello", edited.Details.Content)
	require.NotNil(t, edited.Details.EditedAt)

	stored := e.allMessages()[0]
	assert.Equal(t, "Hello", stored.Details.Content)
	assert.NotNil(t, stored.Details.EditedAt)

	err = e.conv.Delete(context.Background(), e.lawyer, msg.ID)
	assert.ErrorIs(t, err, ErrPermission)
	assert.Len(t, e.allMessages(), 1)

	require.NoError(t, e.conv.Delete(context.Background(), e.client, msg.ID))
	assert.Empty(t, e.allMessages())

	err = e.conv.Delete(context.Background(), e.client, msg.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConversationService_Info(t *testing.T) {
	e := newEnv(t)
	req := e.accepted(t)

	info, err := e.conv.Info(context.Background(), e.lawyer, req.ID)
	require.NoError(t, err)
	assert.Equal(t, req.ID.Hex(), info.RequestID)
	assert.Equal(t, "Casey Client", info.Client.Name)
	assert.Equal(t, "lawyer@example.com", info.Lawyer.Email)
	assert.Len(t, info.MeetingSlots, 1)
	require.NotNil(t, info.MeetingLink)
	assert.Equal(t, "meet-1", info.MeetingLink.MeetingID)
}

func TestConversationService_SameTimestampOrdersByID(t *testing.T) {
	e := newEnv(t)
	req := e.accepted(t)

	at := primitive.NewDateTimeFromTime(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	early := primitive.NewObjectIDFromTimestamp(at.Time())
	late := primitive.NewObjectIDFromTimestamp(at.Time().Add(time.Second))
	for _, m := range []struct {
		id      primitive.ObjectID
		content string
	}{{late, "second"}, {early, "first"}} {
		e.messages.docs = append(e.messages.docs, toM(models.Message{
			ID: m.id,
			Details: models.MessageDetails{
				RequestID:   req.ID,
				SenderID:    e.lawyer.ID,
				SenderType:  models.UserTypeLawyer,
				Content:     m.content,
				MessageType: models.MessageTypeText,
				CreatedAt:   at,
				UpdatedAt:   at,
			},
		}))
	}

	msgs, err := e.conv.List(context.Background(), e.client, req.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Details.Content)
	assert.Equal(t, "second", msgs[1].Details.Content)

	summaries, err := e.conv.Summary(context.Background(), e.client)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.NotNil(t, summaries[0].LastMessage)
	assert.Equal(t, "second", summaries[0].LastMessage.Details.Content)
}
