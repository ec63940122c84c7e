package auth

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

type credentialsBody struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

func RegisterHandler(dbx *sql.DB, jwtSecret, csrfSecret []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body credentialsBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		body.Email = strings.ToLower(strings.TrimSpace(body.Email))
		if body.Email == "" || body.Password == "" {
			http.Error(w, "email & password required", http.StatusBadRequest)
			return
		}
		if len(body.Password) < 8 {
			http.Error(w, "password must be at least 8 characters", http.StatusBadRequest)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			http.Error(w, "hash error", http.StatusInternalServerError)
			return
		}

		var id int
		err = dbx.QueryRow(`
			INSERT INTO users (email, password_hash, display_name, role)
			VALUES ($1, $2, $3, 'parent')
			ON CONFLICT (email) DO NOTHING
			RETURNING id
		`, body.Email, string(hash), body.DisplayName).Scan(&id)
		if err != nil {
			http.Error(w, "email already exists", http.StatusBadRequest)
			return
		}

		writeTokenResponse(w, jwtSecret, csrfSecret, id, "parent")
	}
}

func LoginHandler(dbx *sql.DB, jwtSecret, csrfSecret []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body credentialsBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var (
			id   int
			hash string
			role string
		)
		err := dbx.QueryRow(`
			SELECT id, password_hash, role FROM users WHERE email = $1
		`, strings.ToLower(strings.TrimSpace(body.Email))).Scan(&id, &hash, &role)
		if err != nil {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(body.Password)) != nil {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}

		writeTokenResponse(w, jwtSecret, csrfSecret, id, role)
	}
}

func writeTokenResponse(w http.ResponseWriter, jwtSecret, csrfSecret []byte, id int, role string) {
	token, err := GenerateToken(jwtSecret, id, role)
	if err != nil {
		http.Error(w, "token error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"user_id":    id,
		"role":       role,
		"token":      token,
		"csrf_token": GenerateCSRFToken(csrfSecret, id),
	})
}

func LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// JWT is stateless, the client just drops the token.
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
		})
	}
}

func MeHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var (
			email    string
			name     string
			role     string
			familyID sql.NullInt64
		)
		err := dbx.QueryRow(`
			SELECT u.email, u.display_name, u.role, fm.family_id
			FROM users u
			LEFT JOIN family_members fm ON fm.user_id = u.id
			WHERE u.id = $1
		`, uid).Scan(&email, &name, &role, &familyID)
		if err != nil {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}

		resp := map[string]any{
			"user_id":      uid,
			"email":        email,
			"display_name": name,
			"role":         role,
		}
		if familyID.Valid {
			resp["family_id"] = familyID.Int64
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
