package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jai-platform/jai-api/models"
)

type mockPusher struct{ mock.Mock }

func (m *mockPusher) Push(userID string, event string, data interface{}) error {
	return m.Called(userID, event, data).Error(0)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) Send(ctx context.Context, toEmail, toName, subject, plain, html string) error {
	return m.Called(ctx, toEmail, toName, subject, plain, html).Error(0)
}

func notifierRequest(e *env) models.LawyerRequest {
	return models.LawyerRequest{
		ID: primitive.NewObjectID(),
		Details: models.LawyerRequestDetails{
			ClientID:     e.client.ID,
			LawyerID:     e.lawyer.ID,
			Title:        "Contract <Review>",
			Description:  "Lease questions",
			Category:     "Contract Law",
			UrgencyLevel: models.UrgencyMedium,
			Status:       models.RequestStatusPending,
		},
	}
}

func TestNotifications_RequestCreated(t *testing.T) {
	e := newEnv(t)
	pusher := &mockPusher{}
	mailer := &mockMailer{}
	n := Notifications{Pusher: pusher, Mailer: mailer, Accounts: e.dir}
	req := notifierRequest(e)

	pusher.On("Push", e.lawyer.ID.Hex(), EventRequestUpdated, req).Return(nil)
	mailer.On("Send", mock.Anything, "lawyer@example.com", "Lee Lawyer",
		"New consultation request: Contract <Review>", mock.Anything,
		mock.MatchedBy(func(html string) bool { return strings.Contains(html, "&lt;Review&gt;") })).Return(nil)

	n.RequestCreated(context.Background(), req)

	pusher.AssertExpectations(t)
	mailer.AssertExpectations(t)
}

func TestNotifications_RequestRespondedIncludesLink(t *testing.T) {
	e := newEnv(t)
	pusher := &mockPusher{}
	mailer := &mockMailer{}
	n := Notifications{Pusher: pusher, Mailer: mailer, Accounts: e.dir}
	req := notifierRequest(e)
	req.Details.Status = models.RequestStatusAccepted
	req.Details.ResponseMessage = "Happy to help"
	req.Details.MeetingLink = &models.MeetingLink{JoinURL: "https://meet.google.com/abc"}

	pusher.On("Push", e.client.ID.Hex(), EventRequestUpdated, req).Return(errors.New("not connected"))
	mailer.On("Send", mock.Anything, "client@example.com", "Casey Client", mock.Anything,
		"Your consultation request \"Contract <Review>\" was accepted.\n\nMessage from the lawyer:\nHappy to help\n\nJoin the consultation: https://meet.google.com/abc",
		mock.Anything).Return(errors.New("sendgrid down"))

	assert.NotPanics(t, func() { n.RequestResponded(context.Background(), req) })
	pusher.AssertExpectations(t)
	mailer.AssertExpectations(t)
}

func TestNotifications_MessageSentGoesToOtherParty(t *testing.T) {
	e := newEnv(t)
	pusher := &mockPusher{}
	n := Notifications{Pusher: pusher}
	req := notifierRequest(e)

	fromClient := models.MessageView{Message: models.Message{Details: models.MessageDetails{SenderID: e.client.ID}}}
	fromLawyer := models.MessageView{Message: models.Message{Details: models.MessageDetails{SenderID: e.lawyer.ID}}}
	pusher.On("Push", e.lawyer.ID.Hex(), EventNewMessage, fromClient).Return(nil).Once()
	pusher.On("Push", e.client.ID.Hex(), EventNewMessage, fromLawyer).Return(nil).Once()

	n.MessageSent(context.Background(), req, fromClient)
	n.MessageSent(context.Background(), req, fromLawyer)
	pusher.AssertExpectations(t)
}

func TestNotifications_MissingRecipientSkipsMail(t *testing.T) {
	e := newEnv(t)
	mailer := &mockMailer{}
	n := Notifications{Mailer: mailer, Accounts: e.dir}
	req := notifierRequest(e)
	req.Details.LawyerID = primitive.NewObjectID()

	n.RequestCreated(context.Background(), req)
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
