package config

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	os.Setenv("DB_URI", "mongodb://127.0.0.1:27017")
	os.Setenv("DB_NAME", "test")
	conf := New()

	assert.NotEmpty(t, conf)
	assert.Equal(t, "mongodb://127.0.0.1:27017", conf.URL)
	assert.Equal(t, "test", conf.DatabaseName)
}

func TestNewDefaults(t *testing.T) {
	os.Unsetenv("TOKEN_TTL_MINUTES")
	os.Unsetenv("REQUEST_TIMEOUT_SECONDS")
	os.Unsetenv("MEETING_PROVIDER_TIMEOUT_SECONDS")
	os.Unsetenv("MEETING_PLACEHOLDER_LINKS")
	conf := New()

	assert.Equal(t, 30*time.Minute, conf.TokenTTL)
	assert.Equal(t, 30*time.Second, conf.RequestTimeout)
	assert.Equal(t, 10*time.Second, conf.Meetings.ProviderTimeout)
	assert.False(t, conf.Meetings.PlaceholderLinks)
}

func TestNewMeetingConfig(t *testing.T) {
	t.Setenv("ZOOM_API_KEY", "key")
	t.Setenv("ZOOM_API_SECRET", "secret")
	t.Setenv("ZOOM_ACCOUNT_ID", "acct")
	t.Setenv("MEETING_PLACEHOLDER_LINKS", "true")
	t.Setenv("MEETING_PROVIDER_TIMEOUT_SECONDS", "3")
	conf := New()

	assert.Equal(t, "key", conf.Meetings.ZoomAPIKey)
	assert.Equal(t, "acct", conf.Meetings.ZoomAccountID)
	assert.True(t, conf.Meetings.PlaceholderLinks)
	assert.Equal(t, 3*time.Second, conf.Meetings.ProviderTimeout)
}

func TestErrorStatus(t *testing.T) {
	rr := httptest.NewRecorder()
	ErrorStatus("error it borked", http.StatusBadRequest, rr, errors.New("bad request"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, `{"response": "error it borked, bad request"}`, rr.Body.String())
}

func TestSetLoggerSetsDevelopmentLogger(t *testing.T) {
	l, err := setLogger("development")
	assert.NoError(t, err)
	assert.True(t, l.Core().Enabled(-1))
}

func TestSetLoggerSetsProductionLogger(t *testing.T) {
	l, err := setLogger("production")
	assert.NoError(t, err)
	assert.False(t, l.Core().Enabled(-1))
	assert.True(t, l.Core().Enabled(0))
}

func TestSetLoggerSetsLocalLogger(t *testing.T) {
	l, err := setLogger("local")
	assert.NoError(t, err)
	assert.True(t, l.Core().Enabled(-1))
}
