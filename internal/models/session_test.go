package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    SessionStatus
		to      SessionStatus
		allowed bool
	}{
		{"scheduled to active", SessionStatusScheduled, SessionStatusActive, true},
		{"scheduled to cancelled", SessionStatusScheduled, SessionStatusCancelled, true},
		{"scheduled to completed skips active", SessionStatusScheduled, SessionStatusCompleted, false},
		{"active to completed", SessionStatusActive, SessionStatusCompleted, true},
		{"active to cancelled", SessionStatusActive, SessionStatusCancelled, true},
		{"active back to scheduled", SessionStatusActive, SessionStatusScheduled, false},
		{"completed is terminal", SessionStatusCompleted, SessionStatusActive, false},
		{"completed cannot cancel", SessionStatusCompleted, SessionStatusCancelled, false},
		{"cancelled is terminal", SessionStatusCancelled, SessionStatusScheduled, false},
		{"self transition rejected", SessionStatusScheduled, SessionStatusScheduled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestSessionStatusTerminal(t *testing.T) {
	assert.False(t, SessionStatusScheduled.Terminal())
	assert.False(t, SessionStatusActive.Terminal())
	assert.True(t, SessionStatusCompleted.Terminal())
	assert.True(t, SessionStatusCancelled.Terminal())
}
