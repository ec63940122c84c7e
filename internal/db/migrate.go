package db

import (
	"database/sql"
	"fmt"
)

// Migrate runs all schema migrations. Statements are idempotent, the whole
// list re-runs on every startup.
func Migrate(dbx *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := dbx.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            SERIAL PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		display_name  TEXT NOT NULL DEFAULT '',
		role          TEXT NOT NULL DEFAULT 'parent'
		              CHECK (role IN ('admin','parent','child')),
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS families (
		id         SERIAL PRIMARY KEY,
		name       TEXT NOT NULL,
		owner_id   INTEGER NOT NULL REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS family_members (
		family_id INTEGER NOT NULL REFERENCES families(id),
		user_id   INTEGER NOT NULL REFERENCES users(id),
		joined_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (family_id, user_id)
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS family_members_user_idx
		ON family_members (user_id)`,

	`CREATE TABLE IF NOT EXISTS parental_controls (
		child_id          INTEGER PRIMARY KEY REFERENCES users(id),
		family_id         INTEGER NOT NULL REFERENCES families(id),
		require_approval  BOOLEAN NOT NULL DEFAULT FALSE,
		daily_task_limit  INTEGER NOT NULL DEFAULT 0,
		quiet_hours_start INTEGER NOT NULL DEFAULT 0,
		quiet_hours_end   INTEGER NOT NULL DEFAULT 0,
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS categories (
		id         SERIAL PRIMARY KEY,
		family_id  INTEGER NOT NULL REFERENCES families(id),
		name       TEXT NOT NULL,
		color      TEXT NOT NULL DEFAULT '#808080',
		icon       TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS tasks (
		id                  SERIAL PRIMARY KEY,
		family_id           INTEGER NOT NULL REFERENCES families(id),
		category_id         INTEGER REFERENCES categories(id) ON DELETE SET NULL,
		title               TEXT NOT NULL,
		description         TEXT NOT NULL DEFAULT '',
		difficulty          INTEGER NOT NULL DEFAULT 1,
		points              INTEGER NOT NULL DEFAULT 10,
		progress_percentage INTEGER NOT NULL DEFAULT 0,
		status              TEXT NOT NULL DEFAULT 'todo'
		                    CHECK (status IN ('todo','in_progress','done','approved')),
		assignee_id         INTEGER REFERENCES users(id),
		created_by          INTEGER NOT NULL REFERENCES users(id),
		due_date            TIMESTAMPTZ,
		points_withheld     BOOLEAN NOT NULL DEFAULT FALSE,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
		completed_at        TIMESTAMPTZ
	)`,

	`CREATE INDEX IF NOT EXISTS tasks_family_status_idx
		ON tasks (family_id, status)`,

	`CREATE TABLE IF NOT EXISTS focus_sessions (
		id                     SERIAL PRIMARY KEY,
		user_id                INTEGER NOT NULL REFERENCES users(id),
		task_id                INTEGER REFERENCES tasks(id) ON DELETE SET NULL,
		started_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
		ended_at               TIMESTAMPTZ,
		duration_minutes       INTEGER NOT NULL DEFAULT 0,
		session_quality_rating INTEGER,
		distraction_count      INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS points_ledger (
		id         SERIAL PRIMARY KEY,
		user_id    INTEGER NOT NULL REFERENCES users(id),
		family_id  INTEGER NOT NULL REFERENCES families(id),
		points     INTEGER NOT NULL,
		reason     TEXT NOT NULL,
		ref_type   TEXT NOT NULL DEFAULT '',
		ref_id     INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE INDEX IF NOT EXISTS points_ledger_user_idx
		ON points_ledger (user_id, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS achievements (
		id           SERIAL PRIMARY KEY,
		slug         TEXT NOT NULL UNIQUE,
		title        TEXT NOT NULL,
		description  TEXT NOT NULL DEFAULT '',
		bonus_points INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS user_achievements (
		user_id        INTEGER NOT NULL REFERENCES users(id),
		achievement_id INTEGER NOT NULL REFERENCES achievements(id),
		unlocked_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (user_id, achievement_id)
	)`,

	`CREATE TABLE IF NOT EXISTS challenges (
		id            SERIAL PRIMARY KEY,
		family_id     INTEGER NOT NULL REFERENCES families(id),
		title         TEXT NOT NULL,
		target_count  INTEGER NOT NULL,
		reward_points INTEGER NOT NULL,
		starts_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		ends_at       TIMESTAMPTZ NOT NULL,
		created_by    INTEGER NOT NULL REFERENCES users(id),
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS challenge_progress (
		challenge_id INTEGER NOT NULL REFERENCES challenges(id),
		user_id      INTEGER NOT NULL REFERENCES users(id),
		completed    INTEGER NOT NULL DEFAULT 0,
		rewarded_at  TIMESTAMPTZ,
		PRIMARY KEY (challenge_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS analytics_events (
		id               SERIAL PRIMARY KEY,
		event_name       TEXT NOT NULL,
		event_time       TIMESTAMPTZ NOT NULL,
		user_id          INTEGER NOT NULL,
		session_id       TEXT,
		platform         TEXT NOT NULL DEFAULT 'unknown',
		app_version      TEXT NOT NULL DEFAULT '',
		device_locale    TEXT,
		source_event_key TEXT UNIQUE,
		properties       JSONB NOT NULL DEFAULT '{}'::jsonb
	)`,

	`CREATE TABLE IF NOT EXISTS webhooks (
		id         SERIAL PRIMARY KEY,
		family_id  INTEGER NOT NULL REFERENCES families(id),
		url        TEXT NOT NULL,
		created_by INTEGER NOT NULL REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}
