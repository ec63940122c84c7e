package auth

import (
	"database/sql"
	"encoding/json"
	"net/http"
)

// DeleteAccountHandler removes the caller and every row that references
// them, in one transaction, children before parents. A family owner can
// only delete their account once the family has no other members; the
// remaining one-person family is deleted along with the account.
func DeleteAccountHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var ownedFamily sql.NullInt64
		_ = dbx.QueryRow(`SELECT id FROM families WHERE owner_id = $1`, uid).Scan(&ownedFamily)

		if ownedFamily.Valid {
			var others int
			_ = dbx.QueryRow(`
				SELECT COUNT(*) FROM family_members
				WHERE family_id = $1 AND user_id <> $2
			`, ownedFamily.Int64, uid).Scan(&others)
			if others > 0 {
				http.Error(w, "family still has members", http.StatusConflict)
				return
			}
		}

		tx, err := dbx.Begin()
		if err != nil {
			http.Error(w, "db begin failed", http.StatusInternalServerError)
			return
		}
		defer tx.Rollback()

		userSteps := []struct {
			name string
			sql  string
		}{
			{"user_achievements", `DELETE FROM user_achievements WHERE user_id = $1`},
			{"challenge_progress", `DELETE FROM challenge_progress WHERE user_id = $1`},
			{"points_ledger", `DELETE FROM points_ledger WHERE user_id = $1`},
			{"focus_sessions", `DELETE FROM focus_sessions WHERE user_id = $1`},
			{"analytics_events", `DELETE FROM analytics_events WHERE user_id = $1`},
			{"webhooks", `DELETE FROM webhooks WHERE created_by = $1`},
			{"task assignments", `UPDATE tasks SET assignee_id = NULL WHERE assignee_id = $1`},
			{"created tasks", `UPDATE tasks t SET created_by = f.owner_id
				FROM families f
				WHERE t.family_id = f.id AND t.created_by = $1 AND f.owner_id <> $1`},
			{"created challenges", `UPDATE challenges c SET created_by = f.owner_id
				FROM families f
				WHERE c.family_id = f.id AND c.created_by = $1 AND f.owner_id <> $1`},
			{"parental_controls", `DELETE FROM parental_controls WHERE child_id = $1`},
			{"family_members", `DELETE FROM family_members WHERE user_id = $1`},
		}

		for _, step := range userSteps {
			if _, err := tx.Exec(step.sql, uid); err != nil {
				http.Error(w, "delete "+step.name+" failed", http.StatusInternalServerError)
				return
			}
		}

		if ownedFamily.Valid {
			familySteps := []struct {
				name string
				sql  string
			}{
				{"challenge_progress", `DELETE FROM challenge_progress
					WHERE challenge_id IN (SELECT id FROM challenges WHERE family_id = $1)`},
				{"challenges", `DELETE FROM challenges WHERE family_id = $1`},
				{"tasks", `DELETE FROM tasks WHERE family_id = $1`},
				{"categories", `DELETE FROM categories WHERE family_id = $1`},
				{"webhooks", `DELETE FROM webhooks WHERE family_id = $1`},
				{"family", `DELETE FROM families WHERE id = $1`},
			}
			for _, step := range familySteps {
				if _, err := tx.Exec(step.sql, ownedFamily.Int64); err != nil {
					http.Error(w, "delete "+step.name+" failed", http.StatusInternalServerError)
					return
				}
			}
		}

		if _, err := tx.Exec(`DELETE FROM users WHERE id = $1`, uid); err != nil {
			http.Error(w, "delete user failed", http.StatusInternalServerError)
			return
		}

		if err := tx.Commit(); err != nil {
			http.Error(w, "db commit failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
		})
	}
}
