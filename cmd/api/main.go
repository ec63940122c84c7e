package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"tasktracker-backend/internal/admin"
	"tasktracker-backend/internal/analytics"
	"tasktracker-backend/internal/auth"
	"tasktracker-backend/internal/categories"
	"tasktracker-backend/internal/config"
	"tasktracker-backend/internal/db"
	"tasktracker-backend/internal/family"
	"tasktracker-backend/internal/focus"
	"tasktracker-backend/internal/gamification"
	"tasktracker-backend/internal/notify"
	"tasktracker-backend/internal/tasks"
)

func main() {
	cfg := config.Load()

	database, err := db.Connect(cfg.ConnString())
	if err != nil {
		log.Fatal("❌ Failed to connect DB:", err)
	}
	defer database.Close()
	log.Println("✅ Connected to PostgreSQL!")

	if err := db.Migrate(database); err != nil {
		log.Fatal("❌ Migrations failed:", err)
	}
	if err := db.SeedAdmin(database, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatal("❌ Admin seed failed:", err)
	}
	if err := db.SeedAchievements(database); err != nil {
		log.Fatal("❌ Achievement seed failed:", err)
	}
	log.Println("✅ Schema migrated, defaults seeded")

	jwtSecret := []byte(cfg.JWTSecret)
	csrfSecret := []byte(cfg.CSRFSecret)
	mw := auth.New(jwtSecret, csrfSecret)

	hub := notify.NewHub()
	dispatcher := notify.NewDispatcher(hub, database)

	mux := http.NewServeMux()

	// route registers one path with a method switch, teacher-style.
	route := func(pattern string, methods map[string]http.HandlerFunc) {
		mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			if h, ok := methods[r.Method]; ok {
				h(w, r)
				return
			}
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		})
	}

	// Health endpoint
	mux.HandleFunc("/api/v1/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// ----- AUTH -----
	route("/api/v1/auth/register", map[string]http.HandlerFunc{
		http.MethodPost: auth.RegisterHandler(database, jwtSecret, csrfSecret),
	})
	route("/api/v1/auth/login", map[string]http.HandlerFunc{
		http.MethodPost: auth.LoginHandler(database, jwtSecret, csrfSecret),
	})
	route("/api/v1/auth/logout", map[string]http.HandlerFunc{
		http.MethodPost: auth.LogoutHandler(),
	})
	route("/api/v1/auth/me", map[string]http.HandlerFunc{
		http.MethodGet: mw.Wrap(auth.MeHandler(database)),
	})
	route("/api/v1/auth/account", map[string]http.HandlerFunc{
		http.MethodDelete: mw.Wrap(auth.DeleteAccountHandler(database)),
	})

	// ----- FAMILY -----
	route("/api/v1/family", map[string]http.HandlerFunc{
		http.MethodGet:  mw.Wrap(family.GetFamilyHandler(database)),
		http.MethodPost: mw.RequireRole(family.CreateFamilyHandler(database), "parent"),
	})
	route("/api/v1/family/members", map[string]http.HandlerFunc{
		http.MethodPost: mw.RequireRole(family.AddMemberHandler(database), "parent"),
	})
	route("/api/v1/family/members/{id}", map[string]http.HandlerFunc{
		http.MethodDelete: mw.RequireRole(family.RemoveMemberHandler(database), "parent"),
	})
	route("/api/v1/family/controls", map[string]http.HandlerFunc{
		http.MethodGet: mw.RequireRole(family.GetControlsHandler(database), "parent"),
		http.MethodPut: mw.RequireRole(family.PutControlsHandler(database), "parent"),
	})

	// ----- CATEGORIES -----
	route("/api/v1/categories", map[string]http.HandlerFunc{
		http.MethodGet:  mw.Wrap(categories.ListHandler(database)),
		http.MethodPost: mw.Wrap(categories.CreateHandler(database)),
	})
	route("/api/v1/categories/{id}", map[string]http.HandlerFunc{
		http.MethodGet:    mw.Wrap(categories.GetHandler(database)),
		http.MethodPut:    mw.Wrap(categories.UpdateHandler(database)),
		http.MethodDelete: mw.Wrap(categories.DeleteHandler(database)),
	})

	// ----- TASKS -----
	route("/api/v1/tasks", map[string]http.HandlerFunc{
		http.MethodGet:  mw.Wrap(tasks.ListHandler(database)),
		http.MethodPost: mw.Wrap(tasks.CreateHandler(database, dispatcher)),
	})
	route("/api/v1/tasks/{id}", map[string]http.HandlerFunc{
		http.MethodGet:    mw.Wrap(tasks.GetHandler(database)),
		http.MethodPut:    mw.Wrap(tasks.UpdateHandler(database)),
		http.MethodDelete: mw.Wrap(tasks.DeleteHandler(database)),
	})
	route("/api/v1/tasks/{id}/progress", map[string]http.HandlerFunc{
		http.MethodPost: mw.Wrap(tasks.ProgressHandler(database, dispatcher)),
	})
	route("/api/v1/tasks/{id}/complete", map[string]http.HandlerFunc{
		http.MethodPost: mw.Wrap(tasks.CompleteHandler(database, dispatcher)),
	})
	route("/api/v1/tasks/{id}/approve", map[string]http.HandlerFunc{
		http.MethodPost: mw.RequireRole(tasks.ApproveHandler(database, dispatcher), "parent"),
	})

	// ----- FOCUS SESSIONS -----
	route("/api/v1/focus", map[string]http.HandlerFunc{
		http.MethodGet: mw.Wrap(focus.ListHandler(database)),
	})
	route("/api/v1/focus/start", map[string]http.HandlerFunc{
		http.MethodPost: mw.Wrap(focus.StartHandler(database)),
	})
	route("/api/v1/focus/stats", map[string]http.HandlerFunc{
		http.MethodGet: mw.Wrap(focus.StatsHandler(database)),
	})
	route("/api/v1/focus/{id}/end", map[string]http.HandlerFunc{
		http.MethodPost: mw.Wrap(focus.EndHandler(database)),
	})

	// ----- GAMIFICATION -----
	route("/api/v1/points", map[string]http.HandlerFunc{
		http.MethodGet: mw.Wrap(gamification.PointsHandler(database)),
	})
	route("/api/v1/achievements", map[string]http.HandlerFunc{
		http.MethodGet: mw.Wrap(gamification.AchievementsHandler(database)),
	})
	route("/api/v1/leaderboard", map[string]http.HandlerFunc{
		http.MethodGet: mw.Wrap(gamification.LeaderboardHandler(database)),
	})
	route("/api/v1/challenges", map[string]http.HandlerFunc{
		http.MethodGet:  mw.Wrap(gamification.ListChallengesHandler(database)),
		http.MethodPost: mw.RequireRole(gamification.CreateChallengeHandler(database), "parent"),
	})
	route("/api/v1/challenges/{id}/progress", map[string]http.HandlerFunc{
		http.MethodGet: mw.Wrap(gamification.ChallengeProgressHandler(database)),
	})

	// ----- REAL-TIME & WEBHOOKS -----
	mux.HandleFunc("/api/v1/ws", notify.WSHandler(hub, database, jwtSecret))
	route("/api/v1/webhooks", map[string]http.HandlerFunc{
		http.MethodGet:  mw.RequireRole(notify.ListWebhooksHandler(database), "parent"),
		http.MethodPost: mw.RequireRole(notify.CreateWebhookHandler(database), "parent"),
	})
	route("/api/v1/webhooks/{id}", map[string]http.HandlerFunc{
		http.MethodDelete: mw.RequireRole(notify.DeleteWebhookHandler(database), "parent"),
	})

	// ----- ANALYTICS -----
	route("/api/v1/analytics/app-opened", map[string]http.HandlerFunc{
		http.MethodPost: mw.Wrap(analytics.AppOpenedHandler(database)),
	})

	// ----- ADMIN DASHBOARD -----
	route("/api/v1/admin/stats", map[string]http.HandlerFunc{
		http.MethodGet: mw.RequireRole(admin.StatsHandler(database)),
	})
	route("/api/v1/admin/users", map[string]http.HandlerFunc{
		http.MethodGet: mw.RequireRole(admin.UsersHandler(database)),
	})
	route("/api/v1/admin/events", map[string]http.HandlerFunc{
		http.MethodGet: mw.RequireRole(admin.EventsHandler(database)),
	})

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Content-Type", "Authorization", "X-CSRF-Token",
			"X-Platform", "X-App-Version", "X-Session-Id", "Idempotency-Key",
		},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:    cfg.Addr(),
		Handler: c.Handler(mux),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Println("🚀 API server is running on", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("❌ Server failed:", err)
		}
	}()

	<-ctx.Done()
	log.Println("⏳ Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println("❌ Shutdown error:", err)
	}
	log.Println("✅ Server stopped")
}
