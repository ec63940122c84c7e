package gamification

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tasktracker-backend/internal/auth"
	"tasktracker-backend/internal/family"
)

func PointsHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		balance, err := Balance(r.Context(), dbx, uid)
		if err != nil {
			http.Error(w, "db query error", http.StatusInternalServerError)
			return
		}

		entries, err := RecentEntries(r.Context(), dbx, uid, 20)
		if err != nil {
			http.Error(w, "db query error", http.StatusInternalServerError)
			return
		}

		streak, err := StreakFor(r.Context(), dbx, uid)
		if err != nil {
			http.Error(w, "db query error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"balance": balance,
			"streak":  streak,
			"recent":  entries,
		})
	}
}

func AchievementsHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		list, err := ListForUser(r.Context(), dbx, uid)
		if err != nil {
			http.Error(w, "db query error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	}
}

func LeaderboardHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		familyID, err := family.IDOf(r.Context(), dbx, uid)
		if err != nil {
			http.Error(w, "no family", http.StatusNotFound)
			return
		}

		rows, err := dbx.QueryContext(r.Context(), `
			SELECT u.id, u.display_name, COALESCE(SUM(pl.points), 0) AS balance
			FROM family_members fm
			JOIN users u ON u.id = fm.user_id
			LEFT JOIN points_ledger pl ON pl.user_id = u.id
			WHERE fm.family_id = $1
			GROUP BY u.id, u.display_name
			ORDER BY balance DESC, u.id
		`, familyID)
		if err != nil {
			http.Error(w, "db query error", http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		type row struct {
			UserID      int    `json:"user_id"`
			DisplayName string `json:"display_name"`
			Balance     int    `json:"balance"`
			Rank        int    `json:"rank"`
		}
		board := []row{}
		for rows.Next() {
			var e row
			if err := rows.Scan(&e.UserID, &e.DisplayName, &e.Balance); err != nil {
				http.Error(w, "db scan error", http.StatusInternalServerError)
				return
			}
			e.Rank = len(board) + 1
			board = append(board, e)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(board)
	}
}

func ListChallengesHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		familyID, err := family.IDOf(r.Context(), dbx, uid)
		if err != nil {
			http.Error(w, "no family", http.StatusNotFound)
			return
		}

		rows, err := dbx.QueryContext(r.Context(), `
			SELECT id, title, target_count, reward_points, starts_at, ends_at, created_by, created_at
			FROM challenges
			WHERE family_id = $1
			ORDER BY ends_at DESC
		`, familyID)
		if err != nil {
			http.Error(w, "db query error", http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		list := []Challenge{}
		for rows.Next() {
			var c Challenge
			if err := rows.Scan(&c.ID, &c.Title, &c.TargetCount, &c.RewardPoints,
				&c.StartsAt, &c.EndsAt, &c.CreatedBy, &c.CreatedAt); err != nil {
				http.Error(w, "db scan error", http.StatusInternalServerError)
				return
			}
			list = append(list, c)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	}
}

func CreateChallengeHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		familyID, err := family.IDOf(r.Context(), dbx, uid)
		if err != nil {
			http.Error(w, "no family", http.StatusNotFound)
			return
		}

		var body struct {
			Title        string    `json:"title"`
			TargetCount  int       `json:"target_count"`
			RewardPoints int       `json:"reward_points"`
			EndsAt       time.Time `json:"ends_at"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		body.Title = strings.TrimSpace(body.Title)
		switch {
		case body.Title == "":
			http.Error(w, "title is required", http.StatusBadRequest)
			return
		case body.TargetCount < 1:
			http.Error(w, "target_count must be >= 1", http.StatusBadRequest)
			return
		case body.RewardPoints < 1:
			http.Error(w, "reward_points must be >= 1", http.StatusBadRequest)
			return
		case !body.EndsAt.After(time.Now()):
			http.Error(w, "ends_at must be in the future", http.StatusBadRequest)
			return
		}

		c := Challenge{
			Title:        body.Title,
			TargetCount:  body.TargetCount,
			RewardPoints: body.RewardPoints,
			EndsAt:       body.EndsAt,
			CreatedBy:    uid,
		}
		err = dbx.QueryRowContext(r.Context(), `
			INSERT INTO challenges (family_id, title, target_count, reward_points, ends_at, created_by)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, starts_at, created_at
		`, familyID, c.Title, c.TargetCount, c.RewardPoints, c.EndsAt, uid).
			Scan(&c.ID, &c.StartsAt, &c.CreatedAt)
		if err != nil {
			http.Error(w, "db insert error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(c)
	}
}

func ChallengeProgressHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		familyID, err := family.IDOf(r.Context(), dbx, uid)
		if err != nil {
			http.Error(w, "no family", http.StatusNotFound)
			return
		}

		id, err := strconv.Atoi(r.PathValue("id"))
		if err != nil {
			http.Error(w, "invalid challenge id", http.StatusBadRequest)
			return
		}

		var exists int
		if err := dbx.QueryRowContext(r.Context(), `
			SELECT 1 FROM challenges WHERE id = $1 AND family_id = $2
		`, id, familyID).Scan(&exists); err != nil {
			http.Error(w, "challenge not found", http.StatusNotFound)
			return
		}

		rows, err := dbx.QueryContext(r.Context(), `
			SELECT user_id, completed, rewarded_at
			FROM challenge_progress
			WHERE challenge_id = $1
			ORDER BY completed DESC, user_id
		`, id)
		if err != nil {
			http.Error(w, "db query error", http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		progress := []ChallengeProgress{}
		for rows.Next() {
			var p ChallengeProgress
			var rewardedAt sql.NullTime
			if err := rows.Scan(&p.UserID, &p.Completed, &rewardedAt); err != nil {
				http.Error(w, "db scan error", http.StatusInternalServerError)
				return
			}
			if rewardedAt.Valid {
				p.Rewarded = true
				p.RewardAt = &rewardedAt.Time
			}
			progress = append(progress, p)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(progress)
	}
}
