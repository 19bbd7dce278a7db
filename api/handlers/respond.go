package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jai-platform/jai-api/api"
	"github.com/jai-platform/jai-api/config"
	"github.com/jai-platform/jai-api/services"
)

// statusFor maps a service error to its http status
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// serviceError writes err with the status its kind maps to
func serviceError(message string, w http.ResponseWriter, err error) {
	config.ErrorStatus(message, statusFor(err), w, err)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}

// pathID reads an ObjectID route variable, writing a 400 when it is malformed
func pathID(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)[name])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return primitive.NilObjectID, false
	}
	return id, true
}

// currentActor returns the authenticated actor, writing a 401 when missing
func currentActor(w http.ResponseWriter, r *http.Request) (services.Actor, bool) {
	actor, ok := api.ActorFrom(r.Context())
	if !ok {
		config.ErrorStatus("failed to get authenticated user", http.StatusUnauthorized, w, services.ErrUnauthenticated)
	}
	return actor, ok
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return false
	}
	return true
}
