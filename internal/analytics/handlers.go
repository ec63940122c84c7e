package analytics

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"tasktracker-backend/internal/auth"
)

// AppOpenedHandler records the client-side "app opened" metric.
func AppOpenedHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var body struct {
			ColdStart bool   `json:"cold_start"`
			From      string `json:"from"` // push/deeplink/icon/unknown
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		env := FromRequest(r)
		env.UserID = uid

		Log(r.Context(), dbx, env, "app_opened", map[string]any{
			"cold_start": body.ColdStart,
			"from":       body.From,
		}, SourceEventKeyFromRequest(r))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}
