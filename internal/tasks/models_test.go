package tasks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskBodyValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    taskBody
		wantMsg string
	}{
		{"minimal", taskBody{Title: "Dishes"}, ""},
		{"trimmed title", taskBody{Title: "  Walk the dog  "}, ""},
		{"empty title", taskBody{Title: "   "}, "title is required"},
		{"negative points", taskBody{Title: "x", Points: intPtr(-5)}, "points must be >= 0"},
		{"bad status", taskBody{Title: "x", Status: "done"}, "status must be todo or in_progress"},
		{"in_progress ok", taskBody{Title: "x", Status: "in_progress"}, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.wantMsg, tc.body.validate())
		})
	}
}

func TestTaskBodyValidateDefaults(t *testing.T) {
	body := taskBody{Title: "Homework"}
	require.Equal(t, "", body.validate())

	assert.Equal(t, "Homework", body.Title)
	assert.Equal(t, 1, body.Difficulty)
	require.NotNil(t, body.Points)
	assert.Equal(t, 10, *body.Points)
	assert.Equal(t, StatusTodo, body.Status)
}

func TestTaskBodyValidateDerivesPointsFromDifficulty(t *testing.T) {
	body := taskBody{Title: "Clean room", Difficulty: 4}
	require.Equal(t, "", body.validate())

	require.NotNil(t, body.Points)
	assert.Equal(t, 40, *body.Points)
}

func TestTaskBodyValidateClampsDifficulty(t *testing.T) {
	body := taskBody{Title: "x", Difficulty: 12}
	require.Equal(t, "", body.validate())
	assert.Equal(t, 5, body.Difficulty)

	body = taskBody{Title: "x", Difficulty: -3}
	require.Equal(t, "", body.validate())
	assert.Equal(t, 1, body.Difficulty)
}

func TestTaskBodyValidateKeepsExplicitPoints(t *testing.T) {
	body := taskBody{Title: "x", Difficulty: 2, Points: intPtr(75)}
	require.Equal(t, "", body.validate())
	assert.Equal(t, 75, *body.Points)
}

func TestOverdue(t *testing.T) {
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		task Task
		want bool
	}{
		{"no due date", Task{Status: StatusTodo}, false},
		{"due in future", Task{Status: StatusTodo, DueDate: &future}, false},
		{"past due, open", Task{Status: StatusTodo, DueDate: &past}, true},
		{"past due, in progress", Task{Status: StatusInProgress, DueDate: &past}, true},
		{"past due, done", Task{Status: StatusDone, DueDate: &past}, false},
		{"past due, approved", Task{Status: StatusApproved, DueDate: &past}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, overdue(tc.task, now))
		})
	}
}

func TestUTCDayStart(t *testing.T) {
	denver, err := time.LoadLocation("America/Denver")
	if err != nil {
		t.Skip("tzdata unavailable")
	}

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			"utc midday",
			time.Date(2026, 8, 26, 12, 30, 0, 0, time.UTC),
			time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC),
		},
		{
			"local evening is next utc day",
			time.Date(2026, 8, 25, 20, 0, 0, 0, denver),
			time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC),
		},
		{
			"local morning same utc day",
			time.Date(2026, 8, 26, 8, 0, 0, 0, denver),
			time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, tc.want.Equal(utcDayStart(tc.now)))
		})
	}
}

func intPtr(v int) *int { return &v }
