package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmergencyRequestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to EmergencyRequestStatus
		allowed  bool
	}{
		{RequestPending, RequestInProgress, true},
		{RequestPending, RequestCancelled, true},
		{RequestPending, RequestFulfilled, false},
		{RequestInProgress, RequestFulfilled, true},
		{RequestInProgress, RequestPending, false},
		{RequestFulfilled, RequestPending, false},
		{RequestCancelled, RequestInProgress, false},
		{RequestExpired, RequestExpired, true},
		{RequestPending, "unknown", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestEmergencyRequestStatusTerminal(t *testing.T) {
	assert.False(t, RequestPending.IsTerminal())
	assert.False(t, RequestInProgress.IsTerminal())
	assert.True(t, RequestFulfilled.IsTerminal())
	assert.True(t, RequestExpired.IsTerminal())
	assert.True(t, RequestCancelled.IsTerminal())
	assert.False(t, EmergencyRequestStatus("done").IsValid())
}

func TestNewPaginationResult(t *testing.T) {
	p := NewPaginationResult(21, 2, 10)
	assert.Equal(t, int64(3), p.TotalPages)
	assert.Equal(t, 2, p.CurrentPage)

	assert.Equal(t, int64(0), NewPaginationResult(0, 1, 10).TotalPages)
}
