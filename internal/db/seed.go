package db

import (
	"database/sql"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// SeedAdmin makes sure the default admin account exists. Safe to call on
// every startup; an existing admin row is left untouched so a changed
// password is never reverted.
func SeedAdmin(dbx *sql.DB, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing admin password: %w", err)
	}

	_, err = dbx.Exec(`
		INSERT INTO users (email, password_hash, display_name, role)
		VALUES ($1, $2, 'Administrator', 'admin')
		ON CONFLICT (email) DO NOTHING
	`, email, string(hash))
	if err != nil {
		return fmt.Errorf("seeding admin user: %w", err)
	}
	return nil
}

// SeedAchievements inserts the built-in achievement catalog.
func SeedAchievements(dbx *sql.DB) error {
	rows := []struct {
		slug, title, desc string
		bonus             int
	}{
		{"first_task", "First Steps", "Complete your first task", 25},
		{"task_10", "Task Master", "Complete 10 tasks", 100},
		{"streak_7", "Week Warrior", "Complete tasks 7 days in a row", 150},
		{"focus_5", "Deep Worker", "Finish 5 focus sessions", 75},
	}

	for _, a := range rows {
		_, err := dbx.Exec(`
			INSERT INTO achievements (slug, title, description, bonus_points)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (slug) DO UPDATE SET
				title = EXCLUDED.title,
				description = EXCLUDED.description,
				bonus_points = EXCLUDED.bonus_points
		`, a.slug, a.title, a.desc, a.bonus)
		if err != nil {
			return fmt.Errorf("seeding achievement %s: %w", a.slug, err)
		}
	}
	return nil
}
