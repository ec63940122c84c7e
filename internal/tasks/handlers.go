package tasks

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"tasktracker-backend/internal/auth"
	"tasktracker-backend/internal/family"
	"tasktracker-backend/internal/notify"
)

const taskColumns = `id, category_id, title, description, difficulty, points,
	progress_percentage, status, assignee_id, created_by, due_date,
	created_at, updated_at, completed_at`

func scanTask(row interface{ Scan(...any) error }) (Task, error) {
	var (
		t           Task
		categoryID  sql.NullInt64
		assigneeID  sql.NullInt64
		dueDate     sql.NullTime
		completedAt sql.NullTime
	)
	err := row.Scan(&t.ID, &categoryID, &t.Title, &t.Description, &t.Difficulty,
		&t.Points, &t.ProgressPercentage, &t.Status, &assigneeID, &t.CreatedBy,
		&dueDate, &t.CreatedAt, &t.UpdatedAt, &completedAt)
	if err != nil {
		return t, err
	}
	if categoryID.Valid {
		v := int(categoryID.Int64)
		t.CategoryID = &v
	}
	if assigneeID.Valid {
		v := int(assigneeID.Int64)
		t.AssigneeID = &v
	}
	if dueDate.Valid {
		t.DueDate = &dueDate.Time
	}
	if completedAt.Valid {
		t.CompletedAt = &completedAt.Time
	}
	t.Overdue = overdue(t, time.Now())
	return t, nil
}

func ListHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		familyID, _, ok := callerFamily(dbx, w, r)
		if !ok {
			return
		}

		query := `SELECT ` + taskColumns + ` FROM tasks WHERE family_id = $1`
		args := []any{familyID}

		q := r.URL.Query()
		if status := q.Get("status"); status != "" {
			args = append(args, status)
			query += ` AND status = $` + strconv.Itoa(len(args))
		}
		if assignee := q.Get("assignee_id"); assignee != "" {
			id, err := strconv.Atoi(assignee)
			if err != nil {
				http.Error(w, "invalid assignee_id", http.StatusBadRequest)
				return
			}
			args = append(args, id)
			query += ` AND assignee_id = $` + strconv.Itoa(len(args))
		}
		if category := q.Get("category_id"); category != "" {
			id, err := strconv.Atoi(category)
			if err != nil {
				http.Error(w, "invalid category_id", http.StatusBadRequest)
				return
			}
			args = append(args, id)
			query += ` AND category_id = $` + strconv.Itoa(len(args))
		}
		if q.Get("overdue") == "true" {
			query += ` AND due_date IS NOT NULL AND due_date < now()
				AND status IN ('todo','in_progress')`
		}
		query += ` ORDER BY created_at DESC, id DESC`

		rows, err := dbx.QueryContext(r.Context(), query, args...)
		if err != nil {
			http.Error(w, "db query error", http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		list := []Task{}
		for rows.Next() {
			t, err := scanTask(rows)
			if err != nil {
				http.Error(w, "db scan error", http.StatusInternalServerError)
				return
			}
			list = append(list, t)
		}
		if err := rows.Err(); err != nil {
			http.Error(w, "db rows error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	}
}

func CreateHandler(dbx *sql.DB, dispatcher *notify.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		familyID, uid, ok := callerFamily(dbx, w, r)
		if !ok {
			return
		}

		var body taskBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if msg := body.validate(); msg != "" {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}

		role, _ := auth.RoleFromContext(r.Context())
		if role == "child" {
			// Children always self-assign and honor their daily limit.
			body.AssigneeID = &uid

			controls, err := family.ControlsFor(r.Context(), dbx, uid)
			if err != nil {
				http.Error(w, "db query error", http.StatusInternalServerError)
				return
			}
			if controls.DailyTaskLimit > 0 {
				var createdToday int
				err := dbx.QueryRowContext(r.Context(), `
					SELECT COUNT(*) FROM tasks
					WHERE created_by = $1 AND created_at >= $2
				`, uid, utcDayStart(time.Now())).Scan(&createdToday)
				if err != nil {
					http.Error(w, "db query error", http.StatusInternalServerError)
					return
				}
				if createdToday >= controls.DailyTaskLimit {
					http.Error(w, "daily task limit reached", http.StatusConflict)
					return
				}
			}
		}

		if body.AssigneeID != nil && !family.IsMember(r.Context(), dbx, familyID, *body.AssigneeID) {
			http.Error(w, "assignee not in family", http.StatusBadRequest)
			return
		}
		if body.CategoryID != nil && !categoryInFamily(dbx, r, familyID, *body.CategoryID) {
			http.Error(w, "category not found", http.StatusNotFound)
			return
		}

		row := dbx.QueryRowContext(r.Context(), `
			INSERT INTO tasks (family_id, category_id, title, description,
				difficulty, points, status, assignee_id, created_by, due_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING `+taskColumns+`
		`, familyID, body.CategoryID, body.Title, body.Description,
			body.Difficulty, *body.Points, body.Status, body.AssigneeID, uid, body.DueDate)

		t, err := scanTask(row)
		if err != nil {
			http.Error(w, "db insert error", http.StatusInternalServerError)
			return
		}

		dispatcher.Publish(familyID, "task_created", map[string]any{
			"task_id":     t.ID,
			"title":       t.Title,
			"assignee_id": t.AssigneeID,
			"created_by":  uid,
		})

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(t)
	}
}

func GetHandler(dbx *sql.DB) http.HandlerFunc {
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

		t, err := fetchTask(dbx, r, familyID, id)
		if err != nil {
			http.Error(w, "task not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(t)
	}
}

func UpdateHandler(dbx *sql.DB) http.HandlerFunc {
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

		current, err := fetchTask(dbx, r, familyID, id)
		if err != nil {
			http.Error(w, "task not found", http.StatusNotFound)
			return
		}
		if current.Status == StatusDone || current.Status == StatusApproved {
			http.Error(w, "completed tasks cannot be edited", http.StatusConflict)
			return
		}

		var body taskBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if msg := body.validate(); msg != "" {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}

		if body.AssigneeID != nil && !family.IsMember(r.Context(), dbx, familyID, *body.AssigneeID) {
			http.Error(w, "assignee not in family", http.StatusBadRequest)
			return
		}
		if body.CategoryID != nil && !categoryInFamily(dbx, r, familyID, *body.CategoryID) {
			http.Error(w, "category not found", http.StatusNotFound)
			return
		}

		row := dbx.QueryRowContext(r.Context(), `
			UPDATE tasks SET
				category_id = $1, title = $2, description = $3, difficulty = $4,
				points = $5, status = $6, assignee_id = $7, due_date = $8,
				updated_at = now()
			WHERE id = $9 AND family_id = $10
			RETURNING `+taskColumns+`
		`, body.CategoryID, body.Title, body.Description, body.Difficulty,
			*body.Points, body.Status, body.AssigneeID, body.DueDate, id, familyID)

		t, err := scanTask(row)
		if err != nil {
			http.Error(w, "db update error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(t)
	}
}

func DeleteHandler(dbx *sql.DB) http.HandlerFunc {
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

		res, err := dbx.ExecContext(r.Context(), `
			DELETE FROM tasks WHERE id = $1 AND family_id = $2
		`, id, familyID)
		if err != nil {
			http.Error(w, "db delete error", http.StatusInternalServerError)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			http.Error(w, "task not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}

func fetchTask(dbx *sql.DB, r *http.Request, familyID, id int) (Task, error) {
	row := dbx.QueryRowContext(r.Context(), `
		SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND family_id = $2
	`, id, familyID)
	return scanTask(row)
}

func categoryInFamily(dbx *sql.DB, r *http.Request, familyID, categoryID int) bool {
	var one int
	err := dbx.QueryRowContext(r.Context(), `
		SELECT 1 FROM categories WHERE id = $1 AND family_id = $2
	`, categoryID, familyID).Scan(&one)
	return err == nil
}

// callerFamily resolves the authenticated caller and their family, writing
// the error response itself when either is missing.
func callerFamily(dbx *sql.DB, w http.ResponseWriter, r *http.Request) (familyID, uid int, ok bool) {
	uid, hasUID := auth.UserIDFromContext(r.Context())
	if !hasUID {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return 0, 0, false
	}
	familyID, err := family.IDOf(r.Context(), dbx, uid)
	if err != nil {
		http.Error(w, "no family", http.StatusNotFound)
		return 0, 0, false
	}
	return familyID, uid, true
}

// overdue is true for open tasks past their due date.
func overdue(t Task, now time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	if t.Status == StatusDone || t.Status == StatusApproved {
		return false
	}
	return t.DueDate.Before(now)
}

// utcDayStart is midnight UTC of the day containing now, regardless of the
// server's local zone.
func utcDayStart(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
