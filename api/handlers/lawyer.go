package handlers

import (
	"net/http"
	"strconv"

	"github.com/jai-platform/jai-api/api"
	"github.com/jai-platform/jai-api/models"
	"github.com/jai-platform/jai-api/services"
)

// Lawyer exposes the lawyer directory
type Lawyer struct {
	Directory services.Directory
}

// LawyerProfileResponse is a lawyer account with its profile
type LawyerProfileResponse struct {
	User    *models.User   `json:"user"`
	Profile *models.Lawyer `json:"profile"`
}

// SearchHandler lists lawyers filtered by the specialization, availability
// and minRating query parameters
func (l Lawyer) SearchHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := services.LawyerQuery{
		Specialization: q.Get("specialization"),
		Availability:   q.Get("availability"),
	}
	query.MinRating, _ = strconv.ParseFloat(q.Get("minRating"), 64)
	query.Limit, _ = strconv.ParseInt(q.Get("limit"), 10, 64)
	query.Page, _ = strconv.ParseInt(q.Get("page"), 10, 64)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	results, err := l.Directory.SearchLawyers(ctx, query)
	if err != nil {
		serviceError("failed to search lawyers", w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// LawyerHandler returns one lawyer account and profile
func (l Lawyer) LawyerHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "user_id")
	if !ok {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := l.Directory.FindAccount(ctx, userID)
	if err != nil {
		serviceError("failed to get lawyer", w, err)
		return
	}
	if user.Details.UserType != models.UserTypeLawyer {
		serviceError("failed to get lawyer", w, services.ErrNotFound)
		return
	}
	profile, err := l.Directory.FindLawyerProfile(ctx, userID)
	if err != nil {
		serviceError("failed to get lawyer profile", w, err)
		return
	}
	writeJSON(w, http.StatusOK, LawyerProfileResponse{User: user, Profile: profile})
}

// UpsertProfileHandler creates or replaces the caller's lawyer profile
func (l Lawyer) UpsertProfileHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	var in services.LawyerProfileInput
	if !decodeBody(w, r, &in) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	profile, err := l.Directory.UpsertLawyerProfile(ctx, actor, in)
	if err != nil {
		serviceError("failed to update lawyer profile", w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
