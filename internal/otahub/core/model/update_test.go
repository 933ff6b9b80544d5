package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLifecycleStatusClasses(t *testing.T) {
	tests := []struct {
		status   LifecycleStatus
		active   bool
		terminal bool
	}{
		{StatusPending, true, false},
		{StatusInProgress, true, false},
		{StatusCompleted, false, true},
		{StatusFailed, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			assert.Equal(t, tt.active, tt.status.IsActive())
			assert.Equal(t, tt.terminal, tt.status.IsTerminal())
		})
	}
}

func TestCloneIsIndependent(t *testing.T) {
	u := &Update{ID: 1, LifecycleStatus: StatusPending}
	c := u.Clone()
	c.LifecycleStatus = StatusFailed

	assert.Equal(t, StatusPending, u.LifecycleStatus)
	assert.Nil(t, (*Vehicle)(nil).Clone())
}
