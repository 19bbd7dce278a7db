package handlers

import (
	"net/http"

	"github.com/jai-platform/jai-api/api"
	"github.com/jai-platform/jai-api/models"
	"github.com/jai-platform/jai-api/services"
)

// Request exposes the lawyer request lifecycle
type Request struct {
	Service services.RequestService
}

// CreateRequestHandler sends a new request to a lawyer
func (q Request) CreateRequestHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	var in services.CreateRequestInput
	if !decodeBody(w, r, &in) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	req, err := q.Service.Create(ctx, actor, in)
	if err != nil {
		serviceError("failed to create request", w, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// RequestsHandler lists the caller's requests, newest first
func (q Request) RequestsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	reqs, err := q.Service.ListFor(ctx, actor)
	if err != nil {
		serviceError("failed to get requests", w, err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

// PendingRequestsHandler lists the pending requests addressed to the caller
func (q Request) PendingRequestsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	reqs, err := q.Service.ListPending(ctx, actor)
	if err != nil {
		serviceError("failed to get pending requests", w, err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

// RequestByIDHandler returns one request to either party
func (q Request) RequestByIDHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	req, err := q.Service.Get(ctx, actor, id)
	if err != nil {
		serviceError("failed to get request", w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// UpdateRequestHandler edits a pending request's content
func (q Request) UpdateRequestHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var patch services.RequestPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	req, err := q.Service.Update(ctx, actor, id, patch)
	if err != nil {
		serviceError("failed to update request", w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// CancelRequestHandler withdraws a pending request
func (q Request) CancelRequestHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	req, err := q.Service.Cancel(ctx, actor, id)
	if err != nil {
		serviceError("failed to cancel request", w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// RespondHandler accepts or rejects a pending request. Accepting may issue a
// meeting link, so the call gets its own deadline instead of the query
// timeout.
func (q Request) RespondHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in services.RespondInput
	if !decodeBody(w, r, &in) {
		return
	}

	req, err := q.Service.Respond(r.Context(), actor, id, in)
	if err != nil {
		serviceError("failed to respond to request", w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// SelectMeetingHandler records the client's chosen meeting slot
func (q Request) SelectMeetingHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var slot models.MeetingSlot
	if !decodeBody(w, r, &slot) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	req, err := q.Service.SelectMeeting(ctx, actor, id, slot)
	if err != nil {
		serviceError("failed to select meeting", w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// CasesHandler lists the caller's cases
func (q Request) CasesHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	cases, err := q.Service.ListCasesFor(ctx, actor)
	if err != nil {
		serviceError("failed to get cases", w, err)
		return
	}
	writeJSON(w, http.StatusOK, cases)
}

// CaseByIDHandler returns one case to either party
func (q Request) CaseByIDHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	c, err := q.Service.GetCase(ctx, actor, id)
	if err != nil {
		serviceError("failed to get case", w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
