package family

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"tasktracker-backend/internal/auth"
)

func CreateFamilyHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if _, err := IDOf(r.Context(), dbx, uid); err == nil {
			http.Error(w, "already in a family", http.StatusConflict)
			return
		}

		var body struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			http.Error(w, "name is required", http.StatusBadRequest)
			return
		}

		tx, err := dbx.Begin()
		if err != nil {
			http.Error(w, "db begin failed", http.StatusInternalServerError)
			return
		}
		defer tx.Rollback()

		var f Family
		f.Name = body.Name
		f.OwnerID = uid
		err = tx.QueryRow(`
			INSERT INTO families (name, owner_id)
			VALUES ($1, $2)
			RETURNING id, created_at
		`, body.Name, uid).Scan(&f.ID, &f.CreatedAt)
		if err != nil {
			http.Error(w, "db insert error", http.StatusInternalServerError)
			return
		}

		if _, err := tx.Exec(`
			INSERT INTO family_members (family_id, user_id) VALUES ($1, $2)
		`, f.ID, uid); err != nil {
			http.Error(w, "db insert error", http.StatusInternalServerError)
			return
		}

		if err := tx.Commit(); err != nil {
			http.Error(w, "db commit failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(f)
	}
}

func GetFamilyHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		familyID, err := IDOf(r.Context(), dbx, uid)
		if err != nil {
			http.Error(w, "no family", http.StatusNotFound)
			return
		}

		var f Family
		f.ID = familyID
		err = dbx.QueryRowContext(r.Context(), `
			SELECT name, owner_id, created_at FROM families WHERE id = $1
		`, familyID).Scan(&f.Name, &f.OwnerID, &f.CreatedAt)
		if err != nil {
			http.Error(w, "no family", http.StatusNotFound)
			return
		}

		rows, err := dbx.QueryContext(r.Context(), `
			SELECT u.id, u.email, u.display_name, u.role, fm.joined_at
			FROM family_members fm
			JOIN users u ON u.id = fm.user_id
			WHERE fm.family_id = $1
			ORDER BY fm.joined_at
		`, familyID)
		if err != nil {
			http.Error(w, "db query error", http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		for rows.Next() {
			var m Member
			if err := rows.Scan(&m.UserID, &m.Email, &m.DisplayName, &m.Role, &m.JoinedAt); err != nil {
				http.Error(w, "db scan error", http.StatusInternalServerError)
				return
			}
			f.Members = append(f.Members, m)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(f)
	}
}

// AddMemberHandler lets a parent create a child account inside the family.
func AddMemberHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		familyID, err := IDOf(r.Context(), dbx, uid)
		if err != nil {
			http.Error(w, "no family", http.StatusNotFound)
			return
		}

		var body struct {
			Email       string `json:"email"`
			Password    string `json:"password"`
			DisplayName string `json:"display_name"`
			Role        string `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		body.Email = strings.ToLower(strings.TrimSpace(body.Email))
		if body.Email == "" || len(body.Password) < 8 {
			http.Error(w, "email & password (min 8 chars) required", http.StatusBadRequest)
			return
		}
		if body.Role == "" {
			body.Role = "child"
		}
		if body.Role != "child" && body.Role != "parent" {
			http.Error(w, "role must be child or parent", http.StatusBadRequest)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			http.Error(w, "hash error", http.StatusInternalServerError)
			return
		}

		tx, err := dbx.Begin()
		if err != nil {
			http.Error(w, "db begin failed", http.StatusInternalServerError)
			return
		}
		defer tx.Rollback()

		var memberID int
		err = tx.QueryRow(`
			INSERT INTO users (email, password_hash, display_name, role)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (email) DO NOTHING
			RETURNING id
		`, body.Email, string(hash), body.DisplayName, body.Role).Scan(&memberID)
		if err != nil {
			http.Error(w, "email already exists", http.StatusBadRequest)
			return
		}

		if _, err := tx.Exec(`
			INSERT INTO family_members (family_id, user_id) VALUES ($1, $2)
		`, familyID, memberID); err != nil {
			http.Error(w, "db insert error", http.StatusInternalServerError)
			return
		}

		if err := tx.Commit(); err != nil {
			http.Error(w, "db commit failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user_id":      memberID,
			"email":        body.Email,
			"display_name": body.DisplayName,
			"role":         body.Role,
		})
	}
}

func RemoveMemberHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		familyID, err := IDOf(r.Context(), dbx, uid)
		if err != nil {
			http.Error(w, "no family", http.StatusNotFound)
			return
		}

		memberID, err := strconv.Atoi(r.PathValue("id"))
		if err != nil {
			http.Error(w, "invalid member id", http.StatusBadRequest)
			return
		}

		var ownerID int
		if err := dbx.QueryRowContext(r.Context(), `
			SELECT owner_id FROM families WHERE id = $1
		`, familyID).Scan(&ownerID); err != nil {
			http.Error(w, "no family", http.StatusNotFound)
			return
		}
		if memberID == ownerID {
			http.Error(w, "cannot remove the family owner", http.StatusConflict)
			return
		}

		tx, err := dbx.Begin()
		if err != nil {
			http.Error(w, "db begin failed", http.StatusInternalServerError)
			return
		}
		defer tx.Rollback()

		if _, err := tx.Exec(`
			UPDATE tasks SET assignee_id = NULL
			WHERE family_id = $1 AND assignee_id = $2
		`, familyID, memberID); err != nil {
			http.Error(w, "db update error", http.StatusInternalServerError)
			return
		}

		if _, err := tx.Exec(`
			DELETE FROM parental_controls WHERE family_id = $1 AND child_id = $2
		`, familyID, memberID); err != nil {
			http.Error(w, "db delete error", http.StatusInternalServerError)
			return
		}

		res, err := tx.Exec(`
			DELETE FROM family_members WHERE family_id = $1 AND user_id = $2
		`, familyID, memberID)
		if err != nil {
			http.Error(w, "db delete error", http.StatusInternalServerError)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			http.Error(w, "member not found", http.StatusNotFound)
			return
		}

		if err := tx.Commit(); err != nil {
			http.Error(w, "db commit failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}

func GetControlsHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		familyID, err := IDOf(r.Context(), dbx, uid)
		if err != nil {
			http.Error(w, "no family", http.StatusNotFound)
			return
		}

		rows, err := dbx.QueryContext(r.Context(), `
			SELECT child_id, require_approval, daily_task_limit,
			       quiet_hours_start, quiet_hours_end
			FROM parental_controls
			WHERE family_id = $1
			ORDER BY child_id
		`, familyID)
		if err != nil {
			http.Error(w, "db query error", http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		controls := []Controls{}
		for rows.Next() {
			var c Controls
			if err := rows.Scan(&c.ChildID, &c.RequireApproval, &c.DailyTaskLimit,
				&c.QuietHoursStart, &c.QuietHoursEnd); err != nil {
				http.Error(w, "db scan error", http.StatusInternalServerError)
				return
			}
			controls = append(controls, c)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(controls)
	}
}

// PutControlsHandler upserts parental controls for one child of the family.
func PutControlsHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		familyID, err := IDOf(r.Context(), dbx, uid)
		if err != nil {
			http.Error(w, "no family", http.StatusNotFound)
			return
		}

		var c Controls
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		if c.DailyTaskLimit < 0 {
			http.Error(w, "daily_task_limit must be >= 0", http.StatusBadRequest)
			return
		}
		if c.QuietHoursStart < 0 || c.QuietHoursStart >= 1440 ||
			c.QuietHoursEnd < 0 || c.QuietHoursEnd >= 1440 {
			http.Error(w, "quiet hours must be minutes within a day", http.StatusBadRequest)
			return
		}

		// Controls only apply to children of the same family.
		var role string
		err = dbx.QueryRowContext(r.Context(), `
			SELECT u.role
			FROM users u
			JOIN family_members fm ON fm.user_id = u.id
			WHERE u.id = $1 AND fm.family_id = $2
		`, c.ChildID, familyID).Scan(&role)
		if err != nil {
			http.Error(w, "child not found", http.StatusNotFound)
			return
		}
		if role != "child" {
			http.Error(w, "controls apply to child accounts only", http.StatusBadRequest)
			return
		}

		_, err = dbx.ExecContext(r.Context(), `
			INSERT INTO parental_controls (
				child_id, family_id, require_approval, daily_task_limit,
				quiet_hours_start, quiet_hours_end, updated_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, now())
			ON CONFLICT (child_id) DO UPDATE SET
				require_approval = EXCLUDED.require_approval,
				daily_task_limit = EXCLUDED.daily_task_limit,
				quiet_hours_start = EXCLUDED.quiet_hours_start,
				quiet_hours_end = EXCLUDED.quiet_hours_end,
				updated_at = now()
		`, c.ChildID, familyID, c.RequireApproval, c.DailyTaskLimit,
			c.QuietHoursStart, c.QuietHoursEnd)
		if err != nil {
			http.Error(w, "db upsert error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(c)
	}
}
