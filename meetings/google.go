package meetings

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const (
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleCalendarAPI = "https://www.googleapis.com/calendar/v3/"
)

// GoogleMeetProvider creates Google Meet links through calendar events with
// conference data
type GoogleMeetProvider struct {
	tokens   oauth2.TokenSource
	calendar *calendar.Service
	initErr  error
}

// NewGoogleMeetProvider returns a provider using an OAuth refresh token
func NewGoogleMeetProvider(clientID, clientSecret, refreshToken string, client *http.Client) *GoogleMeetProvider {
	return newGoogleMeetProvider(clientID, clientSecret, refreshToken, client, googleTokenURL, googleCalendarAPI)
}

func newGoogleMeetProvider(clientID, clientSecret, refreshToken string, client *http.Client, tokenURL, apiBase string) *GoogleMeetProvider {
	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: tokenURL, AuthStyle: oauth2.AuthStyleInParams},
		Scopes:       []string{calendar.CalendarEventsScope},
	}
	tokens := oauth2.ReuseTokenSource(nil, conf.TokenSource(tokenContext(client), &oauth2.Token{RefreshToken: refreshToken}))

	authed := &http.Client{
		Transport: &oauth2.Transport{Source: tokens, Base: client.Transport},
		Timeout:   client.Timeout,
	}
	svc, err := calendar.NewService(context.Background(), option.WithHTTPClient(authed), option.WithEndpoint(apiBase))
	return &GoogleMeetProvider{tokens: tokens, calendar: svc, initErr: err}
}

// Name returns the provider name stored on meeting links
func (p *GoogleMeetProvider) Name() string { return ProviderGoogleMeet }

// ValidateCredentials reports whether an access token can be obtained
func (p *GoogleMeetProvider) ValidateCredentials(ctx context.Context) bool {
	if p.initErr != nil {
		zap.S().Warnw("google calendar client unavailable", "error", p.initErr)
		return false
	}
	if _, err := p.tokens.Token(); err != nil {
		zap.S().Warnw("google credentials validation failed", "error", err)
		return false
	}
	return true
}

// CreateMeeting inserts a calendar event on the host's calendar and returns
// its Meet video entry point
func (p *GoogleMeetProvider) CreateMeeting(ctx context.Context, spec Spec) (*Meeting, error) {
	if p.initErr != nil {
		return nil, fmt.Errorf("%w: google calendar: %v", ErrProvider, p.initErr)
	}

	attendees := make([]*calendar.EventAttendee, 0, len(spec.Attendees))
	for _, a := range spec.Attendees {
		attendees = append(attendees, &calendar.EventAttendee{Email: a})
	}
	event := &calendar.Event{
		Summary:     spec.Title,
		Description: spec.Description,
		Start:       &calendar.EventDateTime{DateTime: spec.Start.UTC().Format(time.RFC3339), TimeZone: "UTC"},
		End:         &calendar.EventDateTime{DateTime: spec.Start.Add(spec.Duration).UTC().Format(time.RFC3339), TimeZone: "UTC"},
		Attendees:   attendees,
		ConferenceData: &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId:             uuid.NewString(),
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{Type: "hangoutsMeet"},
			},
		},
		Reminders: &calendar.EventReminders{
			UseDefault: false,
			Overrides: []*calendar.EventReminder{
				{Method: "email", Minutes: 24 * 60},
				{Method: "popup", Minutes: 60},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}

	calendarID := spec.HostEmail
	if calendarID == "" {
		calendarID = "primary"
	}
	created, err := p.calendar.Events.Insert(calendarID, event).ConferenceDataVersion(1).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: google calendar: %v", ErrProvider, err)
	}

	joinURL := ""
	if created.ConferenceData != nil {
		for _, ep := range created.ConferenceData.EntryPoints {
			if ep.EntryPointType == "video" {
				joinURL = ep.Uri
				break
			}
		}
	}
	if joinURL == "" {
		joinURL = created.HangoutLink
	}
	if joinURL == "" {
		return nil, fmt.Errorf("%w: google calendar event %s has no meet link", ErrProvider, created.Id)
	}

	return &Meeting{
		ID:       created.Id,
		JoinURL:  joinURL,
		HostURL:  joinURL,
		Provider: ProviderGoogleMeet,
	}, nil
}

// CancelMeeting deletes the calendar event from the primary calendar
func (p *GoogleMeetProvider) CancelMeeting(ctx context.Context, meetingID string) bool {
	if p.initErr != nil {
		zap.S().Errorw("failed to cancel google meet", "meetingID", meetingID, "error", p.initErr)
		return false
	}
	if err := p.calendar.Events.Delete("primary", meetingID).Context(ctx).Do(); err != nil {
		zap.S().Errorw("failed to cancel google meet", "meetingID", meetingID, "error", err)
		return false
	}
	return true
}
