package auth

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey string

const (
	userIDKey ctxKey = "user_id"
	roleKey   ctxKey = "role"
)

type Middleware struct {
	jwtSecret  []byte
	csrfSecret []byte
}

func New(jwtSecret, csrfSecret []byte) Middleware {
	return Middleware{jwtSecret: jwtSecret, csrfSecret: csrfSecret}
}

// Wrap checks the bearer token and, for state-changing methods, the CSRF
// header, then puts user id and role into the request context.
func (m Middleware) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(h, "Bearer ")
		claims, err := ParseToken(m.jwtSecret, tokenString)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		if stateChanging(r.Method) {
			csrf := r.Header.Get("X-CSRF-Token")
			if !VerifyCSRFToken(m.csrfSecret, claims.UserID, csrf) {
				http.Error(w, "missing or invalid csrf token", http.StatusUnauthorized)
				return
			}
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
		ctx = context.WithValue(ctx, roleKey, claims.Role)

		next(w, r.WithContext(ctx))
	}
}

// RequireRole rejects callers whose token role is not in the allowed set.
// Admins pass every check.
func (m Middleware) RequireRole(next http.HandlerFunc, roles ...string) http.HandlerFunc {
	return m.Wrap(func(w http.ResponseWriter, r *http.Request) {
		role, _ := RoleFromContext(r.Context())
		if role == "admin" {
			next(w, r)
			return
		}
		for _, want := range roles {
			if role == want {
				next(w, r)
				return
			}
		}
		http.Error(w, "forbidden", http.StatusForbidden)
	})
}

func stateChanging(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func UserIDFromContext(ctx context.Context) (int, bool) {
	v := ctx.Value(userIDKey)
	if v == nil {
		return 0, false
	}
	uid, ok := v.(int)
	return uid, ok
}

func RoleFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(roleKey)
	if v == nil {
		return "", false
	}
	role, ok := v.(string)
	return role, ok
}
