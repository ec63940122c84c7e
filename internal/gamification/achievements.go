package gamification

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type Achievement struct {
	ID          int        `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	BonusPoints int        `json:"bonus_points"`
	UnlockedAt  *time.Time `json:"unlocked_at,omitempty"`
}

// CheckAndUnlock evaluates every unlock rule for the user and grants any
// achievement not yet held, awarding its bonus points. Returns the newly
// unlocked achievements so the caller can broadcast them.
func CheckAndUnlock(ctx context.Context, dbx *sql.DB, userID, familyID int) ([]Achievement, error) {
	var completed int
	if err := dbx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM tasks
		WHERE assignee_id = $1 AND status IN ('done','approved')
	`, userID).Scan(&completed); err != nil {
		return nil, fmt.Errorf("counting completed tasks: %w", err)
	}

	var focusDone int
	if err := dbx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM focus_sessions
		WHERE user_id = $1 AND ended_at IS NOT NULL
	`, userID).Scan(&focusDone); err != nil {
		return nil, fmt.Errorf("counting focus sessions: %w", err)
	}

	streak, err := StreakFor(ctx, dbx, userID)
	if err != nil {
		return nil, fmt.Errorf("computing streak: %w", err)
	}

	earned := []string{}
	if completed >= 1 {
		earned = append(earned, "first_task")
	}
	if completed >= 10 {
		earned = append(earned, "task_10")
	}
	if streak >= 7 {
		earned = append(earned, "streak_7")
	}
	if focusDone >= 5 {
		earned = append(earned, "focus_5")
	}

	unlocked := []Achievement{}
	for _, slug := range earned {
		a, fresh, err := unlock(ctx, dbx, userID, slug)
		if err != nil {
			return nil, err
		}
		if !fresh {
			continue
		}
		if a.BonusPoints > 0 {
			if err := Award(ctx, dbx, userID, familyID, a.BonusPoints,
				"achievement_unlocked", "achievement", a.ID); err != nil {
				return nil, err
			}
		}
		unlocked = append(unlocked, a)
	}
	return unlocked, nil
}

// unlock grants one achievement; fresh is false when it was already held.
func unlock(ctx context.Context, dbx *sql.DB, userID int, slug string) (Achievement, bool, error) {
	var a Achievement
	a.Slug = slug
	err := dbx.QueryRowContext(ctx, `
		SELECT id, title, description, bonus_points FROM achievements WHERE slug = $1
	`, slug).Scan(&a.ID, &a.Title, &a.Description, &a.BonusPoints)
	if err != nil {
		return a, false, fmt.Errorf("loading achievement %s: %w", slug, err)
	}

	res, err := dbx.ExecContext(ctx, `
		INSERT INTO user_achievements (user_id, achievement_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, achievement_id) DO NOTHING
	`, userID, a.ID)
	if err != nil {
		return a, false, fmt.Errorf("unlocking achievement %s: %w", slug, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return a, false, err
	}
	return a, n > 0, nil
}

// ListForUser returns the whole catalog with unlock timestamps where held.
func ListForUser(ctx context.Context, dbx *sql.DB, userID int) ([]Achievement, error) {
	rows, err := dbx.QueryContext(ctx, `
		SELECT a.id, a.slug, a.title, a.description, a.bonus_points, ua.unlocked_at
		FROM achievements a
		LEFT JOIN user_achievements ua
			ON ua.achievement_id = a.id AND ua.user_id = $1
		ORDER BY a.id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing achievements: %w", err)
	}
	defer rows.Close()

	out := []Achievement{}
	for rows.Next() {
		var a Achievement
		var unlockedAt sql.NullTime
		if err := rows.Scan(&a.ID, &a.Slug, &a.Title, &a.Description, &a.BonusPoints, &unlockedAt); err != nil {
			return nil, err
		}
		if unlockedAt.Valid {
			a.UnlockedAt = &unlockedAt.Time
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
