package focus

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"tasktracker-backend/internal/analytics"
	"tasktracker-backend/internal/auth"
	"tasktracker-backend/internal/family"
	"tasktracker-backend/internal/gamification"
)

type Session struct {
	ID                   int        `json:"id"`
	TaskID               *int       `json:"task_id,omitempty"`
	StartedAt            time.Time  `json:"started_at"`
	EndedAt              *time.Time `json:"ended_at,omitempty"`
	DurationMinutes      int        `json:"duration_minutes"`
	SessionQualityRating *int       `json:"session_quality_rating,omitempty"`
	DistractionCount     int        `json:"distraction_count"`
}

func StartHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		role, _ := auth.RoleFromContext(r.Context())
		if role == "child" {
			controls, err := family.ControlsFor(r.Context(), dbx, uid)
			if err != nil {
				http.Error(w, "db query error", http.StatusInternalServerError)
				return
			}
			if controls.InQuietHours(time.Now()) {
				http.Error(w, "focus sessions are disabled during quiet hours", http.StatusConflict)
				return
			}
		}

		var open int
		err := dbx.QueryRowContext(r.Context(), `
			SELECT COUNT(*) FROM focus_sessions WHERE user_id = $1 AND ended_at IS NULL
		`, uid).Scan(&open)
		if err != nil {
			http.Error(w, "db query error", http.StatusInternalServerError)
			return
		}
		if open > 0 {
			http.Error(w, "a focus session is already running", http.StatusConflict)
			return
		}

		var body struct {
			TaskID *int `json:"task_id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		if body.TaskID != nil {
			familyID, err := family.IDOf(r.Context(), dbx, uid)
			if err != nil {
				http.Error(w, "no family", http.StatusNotFound)
				return
			}
			var one int
			if err := dbx.QueryRowContext(r.Context(), `
				SELECT 1 FROM tasks WHERE id = $1 AND family_id = $2
			`, *body.TaskID, familyID).Scan(&one); err != nil {
				http.Error(w, "task not found", http.StatusNotFound)
				return
			}
		}

		var s Session
		s.TaskID = body.TaskID
		err = dbx.QueryRowContext(r.Context(), `
			INSERT INTO focus_sessions (user_id, task_id)
			VALUES ($1, $2)
			RETURNING id, started_at
		`, uid, body.TaskID).Scan(&s.ID, &s.StartedAt)
		if err != nil {
			http.Error(w, "db insert error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(s)
	}
}

func EndHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		id, err := strconv.Atoi(r.PathValue("id"))
		if err != nil {
			http.Error(w, "invalid session id", http.StatusBadRequest)
			return
		}

		var body struct {
			SessionQualityRating *int `json:"session_quality_rating"`
			DistractionCount     int  `json:"distraction_count"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if body.SessionQualityRating != nil &&
			(*body.SessionQualityRating < 1 || *body.SessionQualityRating > 5) {
			http.Error(w, "session_quality_rating must be 1..5", http.StatusBadRequest)
			return
		}
		if body.DistractionCount < 0 {
			http.Error(w, "distraction_count must be >= 0", http.StatusBadRequest)
			return
		}

		// Sessions of other users are invisible, a foreign id is a 404.
		var startedAt time.Time
		var endedAt sql.NullTime
		err = dbx.QueryRowContext(r.Context(), `
			SELECT started_at, ended_at FROM focus_sessions
			WHERE id = $1 AND user_id = $2
		`, id, uid).Scan(&startedAt, &endedAt)
		if err != nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		if endedAt.Valid {
			http.Error(w, "session already ended", http.StatusConflict)
			return
		}

		row := dbx.QueryRowContext(r.Context(), `
			UPDATE focus_sessions SET
				ended_at = now(),
				duration_minutes = GREATEST(0, CEIL(EXTRACT(EPOCH FROM (now() - started_at)) / 60))::int,
				session_quality_rating = $1,
				distraction_count = $2
			WHERE id = $3 AND user_id = $4 AND ended_at IS NULL
			RETURNING id, task_id, started_at, ended_at, duration_minutes,
				session_quality_rating, distraction_count
		`, body.SessionQualityRating, body.DistractionCount, id, uid)

		s, err := scanSession(row)
		if err != nil {
			http.Error(w, "db update error", http.StatusInternalServerError)
			return
		}

		// Finishing sessions feeds the focus_5 achievement.
		if familyID, err := family.IDOf(r.Context(), dbx, uid); err == nil {
			if _, err := gamification.CheckAndUnlock(r.Context(), dbx, uid, familyID); err != nil {
				log.Println("focus: checking achievements:", err)
			}
		}

		env := analytics.FromRequest(r)
		env.UserID = uid
		analytics.Log(r.Context(), dbx, env, "focus_session_ended", map[string]any{
			"session_id":       s.ID,
			"duration_minutes": s.DurationMinutes,
			"quality_rating":   body.SessionQualityRating,
			"distractions":     body.DistractionCount,
		}, analytics.SourceEventKeyFromRequest(r))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(s)
	}
}

func ListHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		rows, err := dbx.QueryContext(r.Context(), `
			SELECT id, task_id, started_at, ended_at, duration_minutes,
				session_quality_rating, distraction_count
			FROM focus_sessions
			WHERE user_id = $1
			ORDER BY started_at DESC
			LIMIT 100
		`, uid)
		if err != nil {
			http.Error(w, "db query error", http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		sessions := []Session{}
		for rows.Next() {
			s, err := scanSession(rows)
			if err != nil {
				http.Error(w, "db scan error", http.StatusInternalServerError)
				return
			}
			sessions = append(sessions, s)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(sessions)
	}
}

func StatsHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var (
			count      int
			minutes    int
			avgQuality sql.NullFloat64
		)
		err := dbx.QueryRowContext(r.Context(), `
			SELECT COUNT(*), COALESCE(SUM(duration_minutes), 0), AVG(session_quality_rating)
			FROM focus_sessions
			WHERE user_id = $1 AND ended_at IS NOT NULL
		`, uid).Scan(&count, &minutes, &avgQuality)
		if err != nil {
			http.Error(w, "db query error", http.StatusInternalServerError)
			return
		}

		resp := map[string]any{
			"session_count":   count,
			"focused_minutes": minutes,
		}
		if avgQuality.Valid {
			resp["average_quality"] = avgQuality.Float64
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func scanSession(row interface{ Scan(...any) error }) (Session, error) {
	var (
		s       Session
		taskID  sql.NullInt64
		endedAt sql.NullTime
		quality sql.NullInt64
	)
	err := row.Scan(&s.ID, &taskID, &s.StartedAt, &endedAt, &s.DurationMinutes,
		&quality, &s.DistractionCount)
	if err != nil {
		return s, err
	}
	if taskID.Valid {
		v := int(taskID.Int64)
		s.TaskID = &v
	}
	if endedAt.Valid {
		s.EndedAt = &endedAt.Time
	}
	if quality.Valid {
		v := int(quality.Int64)
		s.SessionQualityRating = &v
	}
	return s, nil
}
