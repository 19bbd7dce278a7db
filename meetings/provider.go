// Package meetings issues video meeting links for accepted consultations.
package meetings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// ErrProvider wraps every failure reported by a meeting provider
var ErrProvider = errors.New("meeting provider")

// Provider names
const (
	ProviderGoogleMeet  = "google_meet"
	ProviderZoom        = "zoom"
	ProviderPlaceholder = "placeholder"
)

// Spec describes the meeting to create
type Spec struct {
	Title       string
	Description string
	Start       time.Time
	Duration    time.Duration
	HostEmail   string
	Attendees   []string
}

// Meeting is what a provider returns for a created meeting
type Meeting struct {
	ID       string
	JoinURL  string
	HostURL  string
	Password string
	Provider string
}

// Provider is a video conferencing backend
type Provider interface {
	Name() string
	ValidateCredentials(ctx context.Context) bool
	CreateMeeting(ctx context.Context, spec Spec) (*Meeting, error)
	CancelMeeting(ctx context.Context, meetingID string) bool
}

// tokenContext carries the HTTP client used for token requests. Token
// sources outlive any single call, so it is not derived from a request context.
func tokenContext(client *http.Client) context.Context {
	return context.WithValue(context.Background(), oauth2.HTTPClient, client)
}

// doJSON sends body as JSON (when non-nil) and decodes the response into out
// (when non-nil). It returns the response status code. Authorization comes
// from the client's transport.
func doJSON(ctx context.Context, client *http.Client, method, url string, body, out interface{}) (int, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rdr)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}
