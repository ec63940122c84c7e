package gamification

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type Challenge struct {
	ID           int       `json:"id"`
	Title        string    `json:"title"`
	TargetCount  int       `json:"target_count"`
	RewardPoints int       `json:"reward_points"`
	StartsAt     time.Time `json:"starts_at"`
	EndsAt       time.Time `json:"ends_at"`
	CreatedBy    int       `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
}

type ChallengeProgress struct {
	UserID    int        `json:"user_id"`
	Completed int        `json:"completed"`
	Rewarded  bool       `json:"rewarded"`
	RewardAt  *time.Time `json:"rewarded_at,omitempty"`
}

// AdvanceChallenges bumps the user's progress on every challenge whose
// window covers now, and pays the reward the first time the target is
// reached. Returns ids of challenges the user just finished.
func AdvanceChallenges(ctx context.Context, dbx *sql.DB, userID, familyID int) ([]int, error) {
	rows, err := dbx.QueryContext(ctx, `
		SELECT id, target_count, reward_points
		FROM challenges
		WHERE family_id = $1 AND starts_at <= now() AND ends_at > now()
	`, familyID)
	if err != nil {
		return nil, fmt.Errorf("listing active challenges: %w", err)
	}
	defer rows.Close()

	type active struct {
		id, target, reward int
	}
	var actives []active
	for rows.Next() {
		var a active
		if err := rows.Scan(&a.id, &a.target, &a.reward); err != nil {
			return nil, err
		}
		actives = append(actives, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	finished := []int{}
	for _, a := range actives {
		var completed int
		var rewardedAt sql.NullTime
		err := dbx.QueryRowContext(ctx, `
			INSERT INTO challenge_progress (challenge_id, user_id, completed)
			VALUES ($1, $2, 1)
			ON CONFLICT (challenge_id, user_id) DO UPDATE SET
				completed = challenge_progress.completed + 1
			RETURNING completed, rewarded_at
		`, a.id, userID).Scan(&completed, &rewardedAt)
		if err != nil {
			return nil, fmt.Errorf("advancing challenge %d: %w", a.id, err)
		}

		if completed < a.target || rewardedAt.Valid {
			continue
		}

		res, err := dbx.ExecContext(ctx, `
			UPDATE challenge_progress SET rewarded_at = now()
			WHERE challenge_id = $1 AND user_id = $2 AND rewarded_at IS NULL
		`, a.id, userID)
		if err != nil {
			return nil, fmt.Errorf("marking challenge %d rewarded: %w", a.id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			continue
		}

		if err := Award(ctx, dbx, userID, familyID, a.reward,
			"challenge_completed", "challenge", a.id); err != nil {
			return nil, err
		}
		finished = append(finished, a.id)
	}
	return finished, nil
}
