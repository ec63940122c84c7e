package categories

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

type Category struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Icon      string    `json:"icon"`
	CreatedAt time.Time `json:"created_at"`
}

type categoryBody struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

func (b *categoryBody) validate() string {
	b.Name = strings.TrimSpace(b.Name)
	if b.Name == "" {
		return "name is required"
	}
	if b.Color == "" {
		b.Color = "#808080"
	}
	if !strings.HasPrefix(b.Color, "#") || (len(b.Color) != 7 && len(b.Color) != 4) {
		return "color must be a hex value like #aabbcc"
	}
	return ""
}

func ListHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		familyID, ok := callerFamily(dbx, w, r)
		if !ok {
			return
		}

		rows, err := dbx.QueryContext(r.Context(), `
			SELECT id, name, color, icon, created_at
			FROM categories
			WHERE family_id = $1
			ORDER BY name
		`, familyID)
		if err != nil {
			http.Error(w, "db query error", http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		cats := []Category{}
		for rows.Next() {
			var c Category
			if err := rows.Scan(&c.ID, &c.Name, &c.Color, &c.Icon, &c.CreatedAt); err != nil {
				http.Error(w, "db scan error", http.StatusInternalServerError)
				return
			}
			cats = append(cats, c)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(cats)
	}
}

func CreateHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		familyID, ok := callerFamily(dbx, w, r)
		if !ok {
			return
		}

		var body categoryBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if msg := body.validate(); msg != "" {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}

		c := Category{Name: body.Name, Color: body.Color, Icon: body.Icon}
		err := dbx.QueryRowContext(r.Context(), `
			INSERT INTO categories (family_id, name, color, icon)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at
		`, familyID, body.Name, body.Color, body.Icon).Scan(&c.ID, &c.CreatedAt)
		if err != nil {
			http.Error(w, "db insert error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(c)
	}
}

func GetHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		familyID, ok := callerFamily(dbx, w, r)
		if !ok {
			return
		}

		id, err := strconv.Atoi(r.PathValue("id"))
		if err != nil {
			http.Error(w, "invalid category id", http.StatusBadRequest)
			return
		}

		var c Category
		c.ID = id
		err = dbx.QueryRowContext(r.Context(), `
			SELECT name, color, icon, created_at
			FROM categories
			WHERE id = $1 AND family_id = $2
		`, id, familyID).Scan(&c.Name, &c.Color, &c.Icon, &c.CreatedAt)
		if err != nil {
			http.Error(w, "category not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(c)
	}
}

func UpdateHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		familyID, ok := callerFamily(dbx, w, r)
		if !ok {
			return
		}

		id, err := strconv.Atoi(r.PathValue("id"))
		if err != nil {
			http.Error(w, "invalid category id", http.StatusBadRequest)
			return
		}

		var body categoryBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if msg := body.validate(); msg != "" {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}

		var c Category
		c.ID = id
		c.Name = body.Name
		c.Color = body.Color
		c.Icon = body.Icon
		err = dbx.QueryRowContext(r.Context(), `
			UPDATE categories
			SET name = $1, color = $2, icon = $3
			WHERE id = $4 AND family_id = $5
			RETURNING created_at
		`, body.Name, body.Color, body.Icon, id, familyID).Scan(&c.CreatedAt)
		if err != nil {
			http.Error(w, "category not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(c)
	}
}

// DeleteHandler removes a category. Tasks keep existing with a NULL
// category (FK is ON DELETE SET NULL).
func DeleteHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		familyID, ok := callerFamily(dbx, w, r)
		if !ok {
			return
		}

		id, err := strconv.Atoi(r.PathValue("id"))
		if err != nil {
			http.Error(w, "invalid category id", http.StatusBadRequest)
			return
		}

		res, err := dbx.ExecContext(r.Context(), `
			DELETE FROM categories WHERE id = $1 AND family_id = $2
		`, id, familyID)
		if err != nil {
			http.Error(w, "db delete error", http.StatusInternalServerError)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			http.Error(w, "category not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}

func callerFamily(dbx *sql.DB, w http.ResponseWriter, r *http.Request) (int, bool) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return 0, false
	}
	familyID, err := family.IDOf(r.Context(), dbx, uid)
	if err != nil {
		http.Error(w, "no family", http.StatusNotFound)
		return 0, false
	}
	return familyID, true
}
