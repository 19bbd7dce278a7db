package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/jai-platform/jai-api/meetings"
	"github.com/jai-platform/jai-api/models"
)

type fakeIssuer struct {
	link  *models.MeetingLink
	err   error
	calls int
	got   meetings.IssueInput
}

func (f *fakeIssuer) Issue(_ context.Context, in meetings.IssueInput) (*models.MeetingLink, error) {
	f.calls++
	f.got = in
	return f.link, f.err
}

type notification struct {
	kind      string
	requestID primitive.ObjectID
	status    string
	messageID primitive.ObjectID
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification
}

func (r *recordingNotifier) RequestCreated(_ context.Context, req models.LawyerRequest) {
	r.add(notification{kind: "created", requestID: req.ID, status: req.Details.Status})
}

func (r *recordingNotifier) RequestResponded(_ context.Context, req models.LawyerRequest) {
	r.add(notification{kind: "responded", requestID: req.ID, status: req.Details.Status})
}

func (r *recordingNotifier) MessageSent(_ context.Context, req models.LawyerRequest, msg models.MessageView) {
	r.add(notification{kind: "message", requestID: req.ID, messageID: msg.ID})
}

func (r *recordingNotifier) add(n notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, n)
}

func (r *recordingNotifier) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		out = append(out, e.kind)
	}
	return out
}

type env struct {
	users, lawyers, requests, cases, messages *memCollection

	dir      Directory
	reqs     RequestService
	conv     ConversationService
	issuer   *fakeIssuer
	notifier *recordingNotifier

	client, lawyer, otherClient, otherLawyer Actor
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		users:    newMemCollection(),
		lawyers:  newMemCollection(),
		requests: newMemCollection(),
		cases:    newMemCollection(),
		messages: newMemCollection(),
		issuer: &fakeIssuer{link: &models.MeetingLink{
			MeetingID: "meet-1",
			JoinURL:   "https://meet.google.com/abcdefghij",
			Provider:  meetings.ProviderPlaceholder,
		}},
		notifier: &recordingNotifier{},
	}

	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	tick := 0
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	e.dir = Directory{Users: memDB[models.User]{e.users}, Lawyers: memDB[models.Lawyer]{e.lawyers}, Now: now}
	e.reqs = RequestService{
		Requests: memDB[models.LawyerRequest]{e.requests},
		Cases:    memDB[models.Case]{e.cases},
		Accounts: e.dir,
		Meetings: e.issuer,
		Notifier: e.notifier,
		Now:      now,
	}
	e.conv = ConversationService{
		Requests: memDB[models.LawyerRequest]{e.requests},
		Messages: memDB[models.Message]{e.messages},
		Accounts: e.dir,
		Notifier: e.notifier,
		Now:      now,
	}

	e.client = e.seedUser(t, "client@example.com", "Casey", "Client", models.UserTypeClient)
	e.lawyer = e.seedUser(t, "lawyer@example.com", "Lee", "Lawyer", models.UserTypeLawyer)
	e.otherClient = e.seedUser(t, "other@example.com", "Olive", "Other", models.UserTypeClient)
	e.otherLawyer = e.seedUser(t, "counsel@example.com", "Cole", "Counsel", models.UserTypeLawyer)
	return e
}

func (e *env) seedUser(t *testing.T, email, first, last, userType string) Actor {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	u := models.User{
		ID: primitive.NewObjectID(),
		Details: models.UserDetails{
			Email:        email,
			FirstName:    first,
			LastName:     last,
			UserType:     userType,
			PasswordHash: string(hash),
			IsActive:     true,
		},
	}
	_, err = memDB[models.User]{e.users}.InsertOne(context.Background(), u)
	require.NoError(t, err)
	return Actor{ID: u.ID, UserType: userType}
}

func floatPtr(f float64) *float64 { return &f }

func strPtr(s string) *string { return &s }

func validInput(lawyer Actor) CreateRequestInput {
	return CreateRequestInput{
		LawyerID:    lawyer.ID.Hex(),
		Title:       "Contract Review",
		Description: "Please review my commercial lease agreement.",
		Category:    "Contract Law",
		BudgetMin:   floatPtr(100),
		BudgetMax:   floatPtr(500),
	}
}

// pending creates a pending request from the env client to the env lawyer
func (e *env) pending(t *testing.T) *models.LawyerRequest {
	t.Helper()
	req, err := e.reqs.Create(context.Background(), e.client, validInput(e.lawyer))
	require.NoError(t, err)
	return req
}

// accepted creates a request and accepts it with one slot
func (e *env) accepted(t *testing.T) *models.LawyerRequest {
	t.Helper()
	req := e.pending(t)
	req, err := e.reqs.Respond(context.Background(), e.lawyer, req.ID, RespondInput{
		Action:       ActionAccept,
		Message:      "Happy to help",
		MeetingSlots: []models.MeetingSlot{{Date: "2025-06-01", Time: "10:00", Duration: 60}},
	})
	require.NoError(t, err)
	return req
}

func (e *env) storedRequest(t *testing.T, id primitive.ObjectID) models.LawyerRequest {
	t.Helper()
	req, err := memDB[models.LawyerRequest]{e.requests}.FindOne(context.Background(), bson.M{"_id": id})
	require.NoError(t, err)
	return *req
}

func (e *env) allCases() []models.Case {
	return memDB[models.Case]{e.cases}.all()
}

func (e *env) allMessages() []models.Message {
	return memDB[models.Message]{e.messages}.all()
}
