package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/jai-platform/jai-api/databases"
	"github.com/jai-platform/jai-api/models"
	"github.com/jai-platform/jai-api/services"
	templates "github.com/jai-platform/jai-api/templates/html"
)

// reminderWindow is how far ahead of a selected meeting reminders go out
const reminderWindow = 24 * time.Hour

// Scheduler handles periodic background jobs
type Scheduler struct {
	cron     *cron.Cron
	Requests databases.RequestDatabase
	Accounts services.AccountFinder
	Mailer   services.Mailer
	Now      func() time.Time
}

// NewScheduler creates a new scheduler instance
func NewScheduler(requests databases.RequestDatabase, accounts services.AccountFinder, mailer services.Mailer) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		Requests: requests,
		Accounts: accounts,
		Mailer:   mailer,
		Now:      time.Now,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	_, err := s.cron.AddFunc("*/15 * * * *", s.runMeetingReminders)
	if err != nil {
		zap.S().Errorw("failed to register meeting reminder job", "error", err)
	}
	s.cron.Start()
	zap.S().Info("Meeting reminder scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("Meeting reminder scheduler stopped")
}

func (s *Scheduler) runMeetingReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	sent, err := s.SendMeetingReminders(ctx)
	if err != nil {
		zap.S().Errorw("meeting reminder job failed", "error", err)
		return
	}
	zap.S().Infow("meeting reminder job finished", "sent", sent)
}

// SendMeetingReminders emails both parties of every accepted request whose
// selected meeting starts within the next 24 hours. Each request is claimed
// with a conditional update first, so a reminder goes out once even when
// several instances run the job.
func (s *Scheduler) SendMeetingReminders(ctx context.Context) (int, error) {
	// nothing to send; leave requests unclaimed for an instance that can mail
	if s.Mailer == nil {
		return 0, nil
	}
	now := s.Now().UTC()
	due, err := s.Requests.Find(ctx, bson.M{
		"request.status": models.RequestStatusAccepted,
		"request.selectedMeeting.startsAt": bson.M{
			"$gte": primitive.NewDateTimeFromTime(now),
			"$lte": primitive.NewDateTimeFromTime(now.Add(reminderWindow)),
		},
		"request.selectedMeeting.reminderSentAt": nil,
	})
	if err != nil {
		return 0, fmt.Errorf("find due meetings: %w", err)
	}

	sent := 0
	for _, req := range due {
		res, err := s.Requests.UpdateOne(ctx, bson.M{
			"_id":                                    req.ID,
			"request.selectedMeeting.reminderSentAt": nil,
		}, bson.M{"$set": bson.M{"request.selectedMeeting.reminderSentAt": primitive.NewDateTimeFromTime(now)}})
		if err != nil {
			zap.S().Errorw("failed to claim meeting reminder", "requestID", req.ID.Hex(), "error", err)
			continue
		}
		if res.MatchedCount == 0 {
			continue
		}
		s.remind(ctx, req, req.Details.ClientID)
		s.remind(ctx, req, req.Details.LawyerID)
		sent++
	}
	return sent, nil
}

func (s *Scheduler) remind(ctx context.Context, req models.LawyerRequest, userID primitive.ObjectID) {
	user, err := s.Accounts.FindAccount(ctx, userID)
	if err != nil {
		zap.S().Warnw("failed to resolve reminder recipient", "requestID", req.ID.Hex(), "userID", userID.Hex(), "error", err)
		return
	}

	meeting := req.Details.SelectedMeeting
	startsAt := meeting.StartsAt.Time().UTC().Format("Monday, January 2 at 15:04 MST")
	subject := "Reminder: consultation \"" + req.Details.Title + "\""
	plain := fmt.Sprintf("Your %s consultation \"%s\" starts %s and lasts %d minutes.",
		meeting.MeetingType, req.Details.Title, startsAt, meeting.Duration)
	content := "<p>" + templates.Text(plain) + "</p>"
	if link := req.Details.MeetingLink; link != nil && link.JoinURL != "" {
		plain += "\n\nJoin: " + link.JoinURL
		content += templates.Button("Join the meeting", link.JoinURL)
	}
	htmlBody := templates.RenderEmail(subject, content)

	if err := s.Mailer.Send(ctx, user.Details.Email, user.FullName(), subject, plain, htmlBody); err != nil {
		zap.S().Warnw("failed to send meeting reminder", "requestID", req.ID.Hex(), "to", user.Details.Email, "error", err)
	}
}
