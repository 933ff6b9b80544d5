package model

import "time"

// LifecycleStatus is the state of one OTA update record.
type LifecycleStatus string

const (
	StatusPending    LifecycleStatus = "PENDING"
	StatusInProgress LifecycleStatus = "IN_PROGRESS"
	StatusCompleted  LifecycleStatus = "COMPLETED"
	StatusFailed     LifecycleStatus = "FAILED"
)

// IsActive reports whether the status blocks a new assignment.
func (s LifecycleStatus) IsActive() bool {
	return s == StatusPending || s == StatusInProgress
}

// IsTerminal reports whether no further transition is possible.
func (s LifecycleStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

func (s LifecycleStatus) String() string { return string(s) }

// Update is an OTA firmware update assigned to a vehicle.
type Update struct {
	// ID is assigned by the store on commit and increases monotonically.
	ID int64

	// VehicleID references the target vehicle.
	VehicleID string

	FromVersion string
	ToVersion   string

	LifecycleStatus LifecycleStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a copy safe to hand out of a store.
func (u *Update) Clone() *Update {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
