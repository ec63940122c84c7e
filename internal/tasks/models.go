package tasks

import (
	"strings"
	"time"

	"tasktracker-backend/internal/gamification"
)

type Task struct {
	ID                 int        `json:"id"`
	CategoryID         *int       `json:"category_id,omitempty"`
	Title              string     `json:"title"`
	Description        string     `json:"description,omitempty"`
	Difficulty         int        `json:"difficulty"`
	Points             int        `json:"points"`
	ProgressPercentage int        `json:"progress_percentage"`
	Status             string     `json:"status"`
	AssigneeID         *int       `json:"assignee_id,omitempty"`
	CreatedBy          int        `json:"created_by"`
	DueDate            *time.Time `json:"due_date,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	Overdue            bool       `json:"overdue"`
}

const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
	StatusApproved   = "approved"
)

type taskBody struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CategoryID  *int       `json:"category_id"`
	Difficulty  int        `json:"difficulty"`
	Points      *int       `json:"points"`
	AssigneeID  *int       `json:"assignee_id"`
	DueDate     *time.Time `json:"due_date"`
	Status      string     `json:"status"`
}

// validate normalizes the body in place and returns a client-facing error
// message, empty when the body is acceptable.
func (b *taskBody) validate() string {
	b.Title = strings.TrimSpace(b.Title)
	if b.Title == "" {
		return "title is required"
	}

	if b.Difficulty == 0 {
		b.Difficulty = 1
	}
	b.Difficulty = gamification.ClampDifficulty(b.Difficulty)

	if b.Points == nil {
		p := gamification.TaskPoints(b.Difficulty)
		b.Points = &p
	} else if *b.Points < 0 {
		return "points must be >= 0"
	}

	if b.Status == "" {
		b.Status = StatusTodo
	}
	if b.Status != StatusTodo && b.Status != StatusInProgress {
		return "status must be todo or in_progress"
	}
	return ""
}
