package gamification

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type LedgerEntry struct {
	ID        int       `json:"id"`
	Points    int       `json:"points"`
	Reason    string    `json:"reason"`
	RefType   string    `json:"ref_type,omitempty"`
	RefID     int       `json:"ref_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Award appends one ledger entry. The ledger is append-only; balances are
// always computed by summing it.
func Award(ctx context.Context, dbx *sql.DB, userID, familyID, points int, reason, refType string, refID int) error {
	_, err := dbx.ExecContext(ctx, `
		INSERT INTO points_ledger (user_id, family_id, points, reason, ref_type, ref_id)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, userID, familyID, points, reason, refType, refID)
	if err != nil {
		return fmt.Errorf("inserting ledger entry: %w", err)
	}
	return nil
}

func Balance(ctx context.Context, dbx *sql.DB, userID int) (int, error) {
	var balance int
	err := dbx.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(points), 0) FROM points_ledger WHERE user_id = $1
	`, userID).Scan(&balance)
	return balance, err
}

func RecentEntries(ctx context.Context, dbx *sql.DB, userID, limit int) ([]LedgerEntry, error) {
	rows, err := dbx.QueryContext(ctx, `
		SELECT id, points, reason, ref_type, ref_id, created_at
		FROM points_ledger
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing ledger entries: %w", err)
	}
	defer rows.Close()

	entries := []LedgerEntry{}
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(&e.ID, &e.Points, &e.Reason, &e.RefType, &e.RefID, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// TaskPoints derives the default reward from difficulty (1..5 → 10..50).
func TaskPoints(difficulty int) int {
	return ClampDifficulty(difficulty) * 10
}

func ClampDifficulty(d int) int {
	if d < 1 {
		return 1
	}
	if d > 5 {
		return 5
	}
	return d
}

func ClampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
