package tasks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLifecycleHooks(t *testing.T) {
	tests := []struct {
		name        string
		transition  string
		withheld    bool
		wantAdvance bool
		wantUnlock  bool
	}{
		{"complete advances and unlocks", transitionComplete, false, true, true},
		{"withheld complete still counts at completion", transitionComplete, true, true, true},
		{"approve of withheld task only unlocks", transitionApprove, true, false, true},
		{"approve without withheld points is a no-op", transitionApprove, false, false, false},
		{"unknown transition runs nothing", "reopen", false, false, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			advance, unlock := lifecycleHooks(tc.transition, tc.withheld)
			assert.Equal(t, tc.wantAdvance, advance)
			assert.Equal(t, tc.wantUnlock, unlock)
		})
	}
}

// A single real completion must advance challenge progress exactly once,
// whether or not the points are withheld for approval.
func TestLifecycleHooksAdvanceOncePerCompletion(t *testing.T) {
	for _, withheld := range []bool{false, true} {
		completeAdvance, _ := lifecycleHooks(transitionComplete, withheld)
		approveAdvance, _ := lifecycleHooks(transitionApprove, withheld)

		assert.True(t, completeAdvance, "completion is the counting event (withheld=%v)", withheld)
		assert.False(t, approveAdvance, "approval must never advance challenges again (withheld=%v)", withheld)
	}
}
