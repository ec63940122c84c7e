package tasks

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"tasktracker-backend/internal/analytics"
	"tasktracker-backend/internal/family"
	"tasktracker-backend/internal/gamification"
	"tasktracker-backend/internal/notify"
)

func ProgressHandler(dbx *sql.DB, dispatcher *notify.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		familyID, _, ok := callerFamily(dbx, w, r)
		if !ok {
			return
		}

		id, err := strconv.Atoi(r.PathValue("id"))
		if err != nil {
			http.Error(w, "invalid task id", http.StatusBadRequest)
			return
		}

		var body struct {
			ProgressPercentage int `json:"progress_percentage"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		progress := gamification.ClampProgress(body.ProgressPercentage)

		// Reaching 100% is reportable progress, not completion; the
		// explicit complete call stays the only way to finish a task.
		row := dbx.QueryRowContext(r.Context(), `
			UPDATE tasks SET
				progress_percentage = $1,
				status = CASE WHEN status = 'todo' AND $1 > 0 THEN 'in_progress' ELSE status END,
				updated_at = now()
			WHERE id = $2 AND family_id = $3 AND status IN ('todo','in_progress')
			RETURNING `+taskColumns+`
		`, progress, id, familyID)

		t, err := scanTask(row)
		if err == sql.ErrNoRows {
			http.Error(w, "task not found or already completed", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "db update error", http.StatusInternalServerError)
			return
		}

		dispatcher.Publish(familyID, "task_progress", map[string]any{
			"task_id":             t.ID,
			"progress_percentage": t.ProgressPercentage,
		})

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(t)
	}
}

func CompleteHandler(dbx *sql.DB, dispatcher *notify.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		familyID, uid, ok := callerFamily(dbx, w, r)
		if !ok {
			return
		}

		id, err := strconv.Atoi(r.PathValue("id"))
		if err != nil {
			http.Error(w, "invalid task id", http.StatusBadRequest)
			return
		}

		current, err := fetchTask(dbx, r, familyID, id)
		if err != nil {
			http.Error(w, "task not found", http.StatusNotFound)
			return
		}
		if current.Status == StatusDone || current.Status == StatusApproved {
			http.Error(w, "task already completed", http.StatusConflict)
			return
		}

		// Points go to the assignee; an unassigned task rewards whoever
		// completes it.
		beneficiary := uid
		if current.AssigneeID != nil {
			beneficiary = *current.AssigneeID
		}

		withheld := false
		var role string
		if err := dbx.QueryRowContext(r.Context(), `
			SELECT role FROM users WHERE id = $1
		`, beneficiary).Scan(&role); err != nil {
			http.Error(w, "db query error", http.StatusInternalServerError)
			return
		}
		if role == "child" {
			controls, err := family.ControlsFor(r.Context(), dbx, beneficiary)
			if err != nil {
				http.Error(w, "db query error", http.StatusInternalServerError)
				return
			}
			withheld = controls.RequireApproval
		}

		row := dbx.QueryRowContext(r.Context(), `
			UPDATE tasks SET
				status = 'done',
				progress_percentage = 100,
				points_withheld = $1,
				assignee_id = COALESCE(assignee_id, $2),
				completed_at = now(),
				updated_at = now()
			WHERE id = $3 AND family_id = $4 AND status IN ('todo','in_progress')
			RETURNING `+taskColumns+`
		`, withheld, beneficiary, id, familyID)

		t, err := scanTask(row)
		if err == sql.ErrNoRows {
			http.Error(w, "task already completed", http.StatusConflict)
			return
		}
		if err != nil {
			http.Error(w, "db update error", http.StatusInternalServerError)
			return
		}

		pointsAwarded := 0
		if !withheld {
			if err := gamification.Award(r.Context(), dbx, beneficiary, familyID,
				t.Points, "task_completed", "task", t.ID); err != nil {
				log.Println("tasks: awarding points:", err)
			} else {
				pointsAwarded = t.Points
			}
		}

		advance, unlock := lifecycleHooks(transitionComplete, withheld)
		finishGamification(dbx, dispatcher, r, beneficiary, familyID, advance, unlock)

		dispatcher.Publish(familyID, "task_completed", map[string]any{
			"task_id":         t.ID,
			"user_id":         beneficiary,
			"points":          pointsAwarded,
			"points_withheld": withheld,
		})

		env := analytics.FromRequest(r)
		env.UserID = uid
		analytics.Log(r.Context(), dbx, env, "task_completed", map[string]any{
			"task_id":         t.ID,
			"difficulty":      t.Difficulty,
			"points":          pointsAwarded,
			"points_withheld": withheld,
		}, analytics.SourceEventKeyFromRequest(r))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(t)
	}
}

// ApproveHandler releases withheld points and moves a done task to
// approved. Parent only (enforced by route middleware).
func ApproveHandler(dbx *sql.DB, dispatcher *notify.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		familyID, uid, ok := callerFamily(dbx, w, r)
		if !ok {
			return
		}

		id, err := strconv.Atoi(r.PathValue("id"))
		if err != nil {
			http.Error(w, "invalid task id", http.StatusBadRequest)
			return
		}

		current, err := fetchTask(dbx, r, familyID, id)
		if err != nil {
			http.Error(w, "task not found", http.StatusNotFound)
			return
		}
		if current.Status != StatusDone {
			http.Error(w, "only done tasks can be approved", http.StatusConflict)
			return
		}

		wasWithheld := false
		if err := dbx.QueryRowContext(r.Context(), `
			SELECT points_withheld FROM tasks WHERE id = $1
		`, id).Scan(&wasWithheld); err != nil {
			http.Error(w, "db query error", http.StatusInternalServerError)
			return
		}

		row := dbx.QueryRowContext(r.Context(), `
			UPDATE tasks SET
				status = 'approved',
				points_withheld = FALSE,
				updated_at = now()
			WHERE id = $1 AND family_id = $2 AND status = 'done'
			RETURNING `+taskColumns+`
		`, id, familyID)

		t, err := scanTask(row)
		if err == sql.ErrNoRows {
			http.Error(w, "only done tasks can be approved", http.StatusConflict)
			return
		}
		if err != nil {
			http.Error(w, "db update error", http.StatusInternalServerError)
			return
		}

		beneficiary := uid
		if t.AssigneeID != nil {
			beneficiary = *t.AssigneeID
		}

		pointsAwarded := 0
		if wasWithheld {
			if err := gamification.Award(r.Context(), dbx, beneficiary, familyID,
				t.Points, "task_approved", "task", t.ID); err != nil {
				log.Println("tasks: awarding points:", err)
			} else {
				pointsAwarded = t.Points
			}
		}

		// Challenge progress was already counted at completion; approval
		// only re-checks achievement unlocks.
		advance, unlock := lifecycleHooks(transitionApprove, wasWithheld)
		finishGamification(dbx, dispatcher, r, beneficiary, familyID, advance, unlock)

		dispatcher.Publish(familyID, "task_approved", map[string]any{
			"task_id":     t.ID,
			"user_id":     beneficiary,
			"approved_by": uid,
			"points":      pointsAwarded,
		})

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(t)
	}
}

const (
	transitionComplete = "complete"
	transitionApprove  = "approve"
)

// lifecycleHooks decides which gamification hooks a transition runs. A task
// advances challenge progress exactly once, at completion — approval only
// releases withheld points and re-checks achievement unlocks.
func lifecycleHooks(transition string, withheld bool) (advanceChallenges, checkAchievements bool) {
	switch transition {
	case transitionComplete:
		return true, true
	case transitionApprove:
		return false, withheld
	}
	return false, false
}

// finishGamification runs the post-completion hooks. Failures are logged,
// never surfaced to the client.
func finishGamification(dbx *sql.DB, dispatcher *notify.Dispatcher, r *http.Request,
	beneficiary, familyID int, advanceChallenges, checkAchievements bool) {

	if advanceChallenges {
		finished, err := gamification.AdvanceChallenges(r.Context(), dbx, beneficiary, familyID)
		if err != nil {
			log.Println("tasks: advancing challenges:", err)
		}
		for _, challengeID := range finished {
			dispatcher.Publish(familyID, "challenge_completed", map[string]any{
				"challenge_id": challengeID,
				"user_id":      beneficiary,
			})
		}
	}

	if checkAchievements {
		unlocked, err := gamification.CheckAndUnlock(r.Context(), dbx, beneficiary, familyID)
		if err != nil {
			log.Println("tasks: checking achievements:", err)
		}
		for _, a := range unlocked {
			dispatcher.Publish(familyID, "achievement_unlocked", map[string]any{
				"user_id":      beneficiary,
				"slug":         a.Slug,
				"title":        a.Title,
				"bonus_points": a.BonusPoints,
			})
		}
	}
}
