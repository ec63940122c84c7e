package gamification

import (
	"context"
	"database/sql"
	"time"
)

// CurrentStreak counts consecutive UTC calendar days with at least one
// completion, walking back from today. A streak that ended yesterday still
// counts (the user has until midnight to extend it).
func CurrentStreak(completionDays []time.Time, now time.Time) int {
	if len(completionDays) == 0 {
		return 0
	}

	seen := make(map[string]bool, len(completionDays))
	for _, d := range completionDays {
		seen[d.UTC().Format("2006-01-02")] = true
	}

	day := now.UTC()
	if !seen[day.Format("2006-01-02")] {
		day = day.AddDate(0, 0, -1)
		if !seen[day.Format("2006-01-02")] {
			return 0
		}
	}

	streak := 0
	for seen[day.Format("2006-01-02")] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// StreakFor loads the user's completion days and computes the streak.
func StreakFor(ctx context.Context, dbx *sql.DB, userID int) (int, error) {
	rows, err := dbx.QueryContext(ctx, `
		SELECT DISTINCT date_trunc('day', completed_at AT TIME ZONE 'UTC')
		FROM tasks
		WHERE assignee_id = $1 AND completed_at IS NOT NULL
	`, userID)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return 0, err
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	return CurrentStreak(days, time.Now()), nil
}
