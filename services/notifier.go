package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/jai-platform/jai-api/models"
	templates "github.com/jai-platform/jai-api/templates/html"
)

// Realtime event names
const (
	EventNewMessage     = "new_message"
	EventRequestUpdated = "request_updated"
)

// Notifier is told about lifecycle events after they are stored. Delivery is
// best effort and never fails the operation.
type Notifier interface {
	RequestCreated(ctx context.Context, req models.LawyerRequest)
	RequestResponded(ctx context.Context, req models.LawyerRequest)
	MessageSent(ctx context.Context, req models.LawyerRequest, msg models.MessageView)
}

// Pusher delivers an event to a connected user
type Pusher interface {
	Push(userID string, event string, data interface{}) error
}

// Mailer sends a plain text and html email to one recipient
type Mailer interface {
	Send(ctx context.Context, toEmail, toName, subject, plain, html string) error
}

// Notifications fans events out to realtime connections and email
type Notifications struct {
	Pusher   Pusher
	Mailer   Mailer
	Accounts AccountFinder
}

// RequestCreated emails the lawyer and pushes the new request
func (n Notifications) RequestCreated(ctx context.Context, req models.LawyerRequest) {
	n.push(req.Details.LawyerID.Hex(), EventRequestUpdated, req)

	subject := "New consultation request: " + req.Details.Title
	body := fmt.Sprintf("You have a new %s consultation request (%s urgency).\n\n%s",
		req.Details.Category, req.Details.UrgencyLevel, req.Details.Description)
	n.mail(ctx, req, req.Details.LawyerID, subject, body)
}

// RequestResponded emails the client and pushes the updated request
func (n Notifications) RequestResponded(ctx context.Context, req models.LawyerRequest) {
	n.push(req.Details.ClientID.Hex(), EventRequestUpdated, req)

	subject := fmt.Sprintf("Your request \"%s\" was %s", req.Details.Title, req.Details.Status)
	body := fmt.Sprintf("Your consultation request \"%s\" was %s.", req.Details.Title, req.Details.Status)
	if req.Details.ResponseMessage != "" {
		body += "\n\nMessage from the lawyer:\n" + req.Details.ResponseMessage
	}
	if req.Details.MeetingLink != nil {
		body += "\n\nJoin the consultation: " + req.Details.MeetingLink.JoinURL
	}
	n.mail(ctx, req, req.Details.ClientID, subject, body)
}

// MessageSent pushes the message to the party that did not send it
func (n Notifications) MessageSent(_ context.Context, req models.LawyerRequest, msg models.MessageView) {
	recipient := req.Details.ClientID
	if msg.Details.SenderID == req.Details.ClientID {
		recipient = req.Details.LawyerID
	}
	n.push(recipient.Hex(), EventNewMessage, msg)
}

func (n Notifications) push(userID, event string, data interface{}) {
	if n.Pusher == nil {
		return
	}
	if err := n.Pusher.Push(userID, event, data); err != nil {
		zap.S().Debugw("realtime push skipped", "userID", userID, "event", event, "error", err)
	}
}

func (n Notifications) mail(ctx context.Context, req models.LawyerRequest, to primitive.ObjectID, subject, body string) {
	if n.Mailer == nil || n.Accounts == nil {
		return
	}
	user, err := n.Accounts.FindAccount(ctx, to)
	if err != nil {
		zap.S().Warnw("failed to resolve email recipient", "requestID", req.ID.Hex(), "userID", to.Hex(), "error", err)
		return
	}
	htmlBody := templates.RenderEmail(subject, "<p>"+templates.Text(body)+"</p>")
	if err := n.Mailer.Send(ctx, user.Details.Email, user.FullName(), subject, body, htmlBody); err != nil {
		zap.S().Warnw("failed to send email", "requestID", req.ID.Hex(), "to", user.Details.Email, "error", err)
	}
}
