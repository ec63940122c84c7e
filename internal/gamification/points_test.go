package gamification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskPoints(t *testing.T) {
	tests := []struct {
		difficulty int
		want       int
	}{
		{1, 10},
		{3, 30},
		{5, 50},
		{0, 10},   // clamped up
		{-2, 10},  // clamped up
		{9, 50},   // clamped down
		{100, 50}, // clamped down
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, TaskPoints(tc.difficulty), "difficulty %d", tc.difficulty)
	}
}

func TestClampProgress(t *testing.T) {
	assert.Equal(t, 0, ClampProgress(-5))
	assert.Equal(t, 0, ClampProgress(0))
	assert.Equal(t, 55, ClampProgress(55))
	assert.Equal(t, 100, ClampProgress(100))
	assert.Equal(t, 100, ClampProgress(250))
}
