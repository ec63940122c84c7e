package family

import (
	"context"
	"database/sql"
	"time"
)

type Member struct {
	UserID      int       `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	JoinedAt    time.Time `json:"joined_at"`
}

type Family struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	OwnerID   int       `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	Members   []Member  `json:"members"`
}

type Controls struct {
	ChildID         int  `json:"child_id"`
	RequireApproval bool `json:"require_approval"`
	DailyTaskLimit  int  `json:"daily_task_limit"`
	QuietHoursStart int  `json:"quiet_hours_start"`
	QuietHoursEnd   int  `json:"quiet_hours_end"`
}

// InQuietHours reports whether the clock time of now falls inside the
// configured quiet window. A window may wrap past midnight
// (e.g. 21:00–07:00). Equal start and end means no quiet hours.
func (c Controls) InQuietHours(now time.Time) bool {
	if c.QuietHoursStart == c.QuietHoursEnd {
		return false
	}
	minute := now.UTC().Hour()*60 + now.UTC().Minute()
	if c.QuietHoursStart < c.QuietHoursEnd {
		return minute >= c.QuietHoursStart && minute < c.QuietHoursEnd
	}
	return minute >= c.QuietHoursStart || minute < c.QuietHoursEnd
}

// IDOf returns the family the user belongs to. sql.ErrNoRows means the
// user has not created or joined a family yet.
func IDOf(ctx context.Context, dbx *sql.DB, userID int) (int, error) {
	var familyID int
	err := dbx.QueryRowContext(ctx, `
		SELECT family_id FROM family_members WHERE user_id = $1
	`, userID).Scan(&familyID)
	return familyID, err
}

// IsMember reports whether the user belongs to the given family.
func IsMember(ctx context.Context, dbx *sql.DB, familyID, userID int) bool {
	var one int
	err := dbx.QueryRowContext(ctx, `
		SELECT 1 FROM family_members WHERE family_id = $1 AND user_id = $2
	`, familyID, userID).Scan(&one)
	return err == nil
}

// ControlsFor loads parental controls for a child; missing rows come back
// as the zero value (no restrictions).
func ControlsFor(ctx context.Context, dbx *sql.DB, childID int) (Controls, error) {
	c := Controls{ChildID: childID}
	err := dbx.QueryRowContext(ctx, `
		SELECT require_approval, daily_task_limit, quiet_hours_start, quiet_hours_end
		FROM parental_controls
		WHERE child_id = $1
	`, childID).Scan(&c.RequireApproval, &c.DailyTaskLimit, &c.QuietHoursStart, &c.QuietHoursEnd)
	if err == sql.ErrNoRows {
		return c, nil
	}
	return c, err
}
