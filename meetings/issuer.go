package meetings

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/jai-platform/jai-api/config"
	"github.com/jai-platform/jai-api/models"
)

// Config is the provider configuration an Issuer is built from
type Config = config.MeetingConfig

const (
	// DefaultDuration is used when a slot carries no duration
	DefaultDuration = 60 * time.Minute
	// expiryBuffer is added after the scheduled end of a meeting
	expiryBuffer = 15 * time.Minute
)

var slotLayouts = []string{"2006-01-02 3:04 PM", "2006-01-02 15:04"}

// ParseSlot parses a slot date ("2006-01-02") and time ("3:04 PM" or "15:04")
// as UTC
func ParseSlot(date, clock string) (time.Time, error) {
	date, clock = strings.TrimSpace(date), strings.TrimSpace(clock)
	if date == "" || clock == "" {
		return time.Time{}, fmt.Errorf("missing meeting date or time")
	}
	s := date + " " + strings.ToUpper(clock)
	for _, layout := range slotLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable meeting date/time %q", date+" "+clock)
}

// IssueInput is the request data a meeting link is generated for
type IssueInput struct {
	Title       string
	Description string
	Slot        models.MeetingSlot
	HostEmail   string
	Attendees   []string
}

// Issuer creates meeting links with the provider chosen at construction
type Issuer struct {
	provider Provider
	timeout  time.Duration
	now      func() time.Time
}

// NewIssuer picks Google Meet when its credentials are complete, then Zoom,
// then the placeholder provider when enabled. With none of them the issuer is
// disabled and Issue returns no link.
func NewIssuer(conf Config, client *http.Client) *Issuer {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	var p Provider
	switch {
	case conf.GoogleClientID != "" && conf.GoogleClientSecret != "" && conf.GoogleRefreshToken != "":
		p = NewGoogleMeetProvider(conf.GoogleClientID, conf.GoogleClientSecret, conf.GoogleRefreshToken, client)
	case conf.ZoomAPIKey != "" && conf.ZoomAPISecret != "" && conf.ZoomAccountID != "":
		p = NewZoomProvider(conf.ZoomAPIKey, conf.ZoomAPISecret, conf.ZoomAccountID, client)
	case conf.PlaceholderLinks:
		p = PlaceholderProvider{}
	}
	return NewIssuerWithProvider(p, conf.ProviderTimeout)
}

// NewIssuerWithProvider builds an issuer around an explicit provider. A nil
// provider disables issuance.
func NewIssuerWithProvider(p Provider, timeout time.Duration) *Issuer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Issuer{provider: p, timeout: timeout, now: time.Now}
}

// Enabled reports whether a provider is configured
func (i *Issuer) Enabled() bool {
	return i != nil && i.provider != nil
}

// ProviderName returns the configured provider, or "none"
func (i *Issuer) ProviderName() string {
	if !i.Enabled() {
		return "none"
	}
	return i.provider.Name()
}

// Issue creates a meeting for the slot. It returns (nil, nil) when the issuer
// is disabled. Every failure wraps ErrProvider.
func (i *Issuer) Issue(ctx context.Context, in IssueInput) (*models.MeetingLink, error) {
	if !i.Enabled() {
		zap.S().Infow("no meeting provider configured, skipping meeting link")
		return nil, nil
	}

	start, err := ParseSlot(in.Slot.Date, in.Slot.Time)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	duration := time.Duration(in.Slot.Duration) * time.Minute
	if duration <= 0 {
		duration = DefaultDuration
	}

	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	if !i.provider.ValidateCredentials(ctx) {
		return nil, fmt.Errorf("%w: invalid %s credentials", ErrProvider, i.provider.Name())
	}

	m, err := i.provider.CreateMeeting(ctx, Spec{
		Title:       "Legal Consultation: " + in.Title,
		Description: "Legal consultation regarding: " + in.Description,
		Start:       start,
		Duration:    duration,
		HostEmail:   in.HostEmail,
		Attendees:   in.Attendees,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %s timed out: %v", ErrProvider, i.provider.Name(), err)
		}
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	expires := primitive.NewDateTimeFromTime(start.Add(duration + expiryBuffer))
	zap.S().Infow("meeting link created", "provider", m.Provider, "meetingID", m.ID)
	return &models.MeetingLink{
		MeetingID: m.ID,
		JoinURL:   m.JoinURL,
		HostURL:   m.HostURL,
		Provider:  m.Provider,
		Password:  m.Password,
		CreatedAt: primitive.NewDateTimeFromTime(i.now()),
		ExpiresAt: &expires,
	}, nil
}

// Cancel cancels a meeting created by the configured provider
func (i *Issuer) Cancel(ctx context.Context, meetingID string) bool {
	if !i.Enabled() {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()
	ok := i.provider.CancelMeeting(ctx, meetingID)
	if !ok {
		zap.S().Warnw("failed to cancel meeting", "provider", i.provider.Name(), "meetingID", meetingID)
	}
	return ok
}
