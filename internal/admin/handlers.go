package admin

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// StatsHandler feeds the admin dashboard overview cards.
func StatsHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var stats struct {
			Users                int `json:"users"`
			Families             int `json:"families"`
			Tasks                int `json:"tasks"`
			TasksCompleted7d     int `json:"tasks_completed_7d"`
			OpenFocusSessions    int `json:"open_focus_sessions"`
			PointsIssued         int `json:"points_issued"`
			ActiveChallenges     int `json:"active_challenges"`
			AchievementsUnlocked int `json:"achievements_unlocked"`
		}

		counts := []struct {
			dst *int
			sql string
		}{
			{&stats.Users, `SELECT COUNT(*) FROM users`},
			{&stats.Families, `SELECT COUNT(*) FROM families`},
			{&stats.Tasks, `SELECT COUNT(*) FROM tasks`},
			{&stats.TasksCompleted7d, `SELECT COUNT(*) FROM tasks
				WHERE completed_at >= now() - interval '7 days'`},
			{&stats.OpenFocusSessions, `SELECT COUNT(*) FROM focus_sessions
				WHERE ended_at IS NULL`},
			{&stats.PointsIssued, `SELECT COALESCE(SUM(points), 0) FROM points_ledger
				WHERE points > 0`},
			{&stats.ActiveChallenges, `SELECT COUNT(*) FROM challenges
				WHERE starts_at <= now() AND ends_at > now()`},
			{&stats.AchievementsUnlocked, `SELECT COUNT(*) FROM user_achievements`},
		}

		for _, c := range counts {
			if err := dbx.QueryRowContext(r.Context(), c.sql).Scan(c.dst); err != nil {
				http.Error(w, "db query error", http.StatusInternalServerError)
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(stats)
	}
}

func UsersHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := pageParams(r, 50)

		rows, err := dbx.QueryContext(r.Context(), `
			SELECT id, email, display_name, role, created_at
			FROM users
			ORDER BY id
			LIMIT $1 OFFSET $2
		`, limit, offset)
		if err != nil {
			http.Error(w, "db query error", http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		type user struct {
			ID          int       `json:"id"`
			Email       string    `json:"email"`
			DisplayName string    `json:"display_name"`
			Role        string    `json:"role"`
			CreatedAt   time.Time `json:"created_at"`
		}
		users := []user{}
		for rows.Next() {
			var u user
			if err := rows.Scan(&u.ID, &u.Email, &u.DisplayName, &u.Role, &u.CreatedAt); err != nil {
				http.Error(w, "db scan error", http.StatusInternalServerError)
				return
			}
			users = append(users, u)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(users)
	}
}

func EventsHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := pageParams(r, 100)

		rows, err := dbx.QueryContext(r.Context(), `
			SELECT id, event_name, event_time, user_id, platform, app_version, properties
			FROM analytics_events
			ORDER BY event_time DESC, id DESC
			LIMIT $1 OFFSET $2
		`, limit, offset)
		if err != nil {
			http.Error(w, "db query error", http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		type event struct {
			ID         int             `json:"id"`
			EventName  string          `json:"event_name"`
			EventTime  time.Time       `json:"event_time"`
			UserID     int             `json:"user_id"`
			Platform   string          `json:"platform"`
			AppVersion string          `json:"app_version"`
			Properties json.RawMessage `json:"properties"`
		}
		events := []event{}
		for rows.Next() {
			var e event
			if err := rows.Scan(&e.ID, &e.EventName, &e.EventTime, &e.UserID,
				&e.Platform, &e.AppVersion, &e.Properties); err != nil {
				http.Error(w, "db scan error", http.StatusInternalServerError)
				return
			}
			events = append(events, e)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(events)
	}
}

func pageParams(r *http.Request, defaultLimit int) (limit, offset int) {
	limit = defaultLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 500 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}
