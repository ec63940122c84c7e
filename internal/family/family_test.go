package family

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 8, 26, hour, minute, 0, 0, time.UTC)
}

func TestInQuietHours(t *testing.T) {
	daytime := Controls{QuietHoursStart: 13 * 60, QuietHoursEnd: 15 * 60}
	overnight := Controls{QuietHoursStart: 21 * 60, QuietHoursEnd: 7 * 60}
	disabled := Controls{}

	tests := []struct {
		name     string
		controls Controls
		now      time.Time
		want     bool
	}{
		{"inside daytime window", daytime, at(14, 0), true},
		{"at window start", daytime, at(13, 0), true},
		{"at window end", daytime, at(15, 0), false},
		{"before window", daytime, at(12, 59), false},

		{"overnight late evening", overnight, at(22, 30), true},
		{"overnight early morning", overnight, at(6, 59), true},
		{"overnight midday", overnight, at(12, 0), false},
		{"overnight boundary end", overnight, at(7, 0), false},

		{"disabled window never quiet", disabled, at(3, 0), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.controls.InQuietHours(tc.now))
		})
	}
}
