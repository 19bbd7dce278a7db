package handlers

import (
	"net/http"
	"time"

	"github.com/jai-platform/jai-api/api"
	"github.com/jai-platform/jai-api/models"
	"github.com/jai-platform/jai-api/services"
)

// Auth exposes registration, login and logout
type Auth struct {
	Directory services.Directory
	Guard     *api.Auth
}

// LoginRequest is the body of a login call
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries a freshly issued access token
type TokenResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// RegisterHandler creates an account
func (a Auth) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if !decodeBody(w, r, &in) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := a.Directory.Register(ctx, in)
	if err != nil {
		serviceError("failed to register user", w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// LoginHandler exchanges an email and password for an access token
func (a Auth) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var in LoginRequest
	if !decodeBody(w, r, &in) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := a.Directory.Authenticate(ctx, in.Email, in.Password)
	if err != nil {
		serviceError("failed to login", w, err)
		return
	}
	a.issue(w, r, user)
}

// TokenHandler issues an access token to a caller authenticated with basic
// credentials
func (a Auth) TokenHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := a.Directory.FindAccount(ctx, actor.ID)
	if err != nil {
		serviceError("failed to get user", w, err)
		return
	}
	a.issue(w, r, user)
}

func (a Auth) issue(w http.ResponseWriter, r *http.Request, user *models.User) {
	token, expiresAt, err := a.Guard.IssueToken(r, user)
	if err != nil {
		serviceError("failed to issue token", w, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{Token: token, ExpiresAt: expiresAt, User: user})
}

// LogoutHandler revokes the bearer token used for the call
func (a Auth) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	token, ok := api.BearerToken(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"response": "a bearer token is required to logout"})
		return
	}
	if err := a.Guard.RevokeToken(r, token); err != nil {
		serviceError("failed to revoke token", w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"revoked": true})
}

// MeHandler returns the authenticated account
func (a Auth) MeHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := a.Directory.FindAccount(ctx, actor.ID)
	if err != nil {
		serviceError("failed to get user", w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
