package handlers

import (
	"net/http"

	"github.com/jai-platform/jai-api/realtime"
)

// Realtime upgrades authenticated callers to a websocket
type Realtime struct {
	Hub *realtime.Hub
}

// ConnectHandler registers the caller's websocket for pushed events
func (rt Realtime) ConnectHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	rt.Hub.Serve(w, r, actor.ID.Hex())
}

// queryToken lets browsers, which cannot set headers on a websocket
// handshake, pass the access token as the "token" query parameter
func queryToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := r.URL.Query().Get("token"); token != "" && r.Header.Get("Authorization") == "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
		next.ServeHTTP(w, r)
	})
}
