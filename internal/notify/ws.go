package notify

import (
	"context"
	"database/sql"
	"net/http"

	"golang.org/x/net/websocket"

	"tasktracker-backend/internal/auth"
)

// WSHandler upgrades GET /api/v1/ws to a WebSocket and subscribes the
// caller to their family's event stream. Browsers cannot set headers on
// WebSocket requests, so the JWT travels in the token query parameter.
func WSHandler(hub *Hub, dbx *sql.DB, jwtSecret []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := auth.ParseToken(jwtSecret, r.URL.Query().Get("token"))
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		familyID, err := familyOf(r.Context(), dbx, claims.UserID)
		if err != nil {
			http.Error(w, "no family", http.StatusNotFound)
			return
		}

		websocket.Handler(func(ws *websocket.Conn) {
			hub.serve(familyID, ws)
		}).ServeHTTP(w, r)
	}
}

func familyOf(ctx context.Context, dbx *sql.DB, userID int) (int, error) {
	var familyID int
	err := dbx.QueryRowContext(ctx, `
		SELECT family_id FROM family_members WHERE user_id = $1
	`, userID).Scan(&familyID)
	return familyID, err
}

func (h *Hub) serve(familyID int, ws *websocket.Conn) {
	c := &client{send: make(chan []byte, 16)}
	h.register(familyID, c)
	defer h.unregister(familyID, c)

	// Drain the socket so we notice the client going away. Inbound
	// frames carry nothing, the stream is push-only.
	done := make(chan struct{})
	go func() {
		defer close(done)
		var discard string
		for {
			if err := websocket.Message.Receive(ws, &discard); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case frame := <-c.send:
			if err := websocket.Message.Send(ws, string(frame)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
