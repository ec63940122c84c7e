package notify

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tasktracker-backend/internal/auth"
)

type Webhook struct {
	ID        int       `json:"id"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

func ListWebhooksHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		familyID, err := familyOf(r.Context(), dbx, uid)
		if err != nil {
			http.Error(w, "no family", http.StatusNotFound)
			return
		}

		rows, err := dbx.QueryContext(r.Context(), `
			SELECT id, url, created_at FROM webhooks
			WHERE family_id = $1
			ORDER BY id
		`, familyID)
		if err != nil {
			http.Error(w, "db query error", http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		hooks := []Webhook{}
		for rows.Next() {
			var h Webhook
			if err := rows.Scan(&h.ID, &h.URL, &h.CreatedAt); err != nil {
				http.Error(w, "db scan error", http.StatusInternalServerError)
				return
			}
			hooks = append(hooks, h)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(hooks)
	}
}

func CreateWebhookHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		familyID, err := familyOf(r.Context(), dbx, uid)
		if err != nil {
			http.Error(w, "no family", http.StatusNotFound)
			return
		}

		var body struct {
			URL string `json:"url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if !strings.HasPrefix(body.URL, "http://") && !strings.HasPrefix(body.URL, "https://") {
			http.Error(w, "url must be http or https", http.StatusBadRequest)
			return
		}

		var hook Webhook
		hook.URL = body.URL
		err = dbx.QueryRowContext(r.Context(), `
			INSERT INTO webhooks (family_id, url, created_by)
			VALUES ($1, $2, $3)
			RETURNING id, created_at
		`, familyID, body.URL, uid).Scan(&hook.ID, &hook.CreatedAt)
		if err != nil {
			http.Error(w, "db insert error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(hook)
	}
}

func DeleteWebhookHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		familyID, err := familyOf(r.Context(), dbx, uid)
		if err != nil {
			http.Error(w, "no family", http.StatusNotFound)
			return
		}

		id, err := strconv.Atoi(r.PathValue("id"))
		if err != nil {
			http.Error(w, "invalid webhook id", http.StatusBadRequest)
			return
		}

		res, err := dbx.ExecContext(r.Context(), `
			DELETE FROM webhooks WHERE id = $1 AND family_id = $2
		`, id, familyID)
		if err != nil {
			http.Error(w, "db delete error", http.StatusInternalServerError)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			http.Error(w, "webhook not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}
