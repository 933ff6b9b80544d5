package core

import (
	"context"
	"time"

	"github.com/autopeer-io/otahub/internal/otahub/core/model"
)

// EventType names a committed change.
type EventType string

const (
	EventVehicleRegistered EventType = "VehicleRegistered"
	EventUpdateAssigned    EventType = "UpdateAssigned"
	EventUpdateStarted     EventType = "UpdateStarted"
	EventUpdateCompleted   EventType = "UpdateCompleted"
	EventUpdateFailed      EventType = "UpdateFailed"
)

// Event describes a change after it has been committed.
type Event struct {
	Type      EventType
	VehicleID string
	Vehicle   *model.Vehicle
	Update    *model.Update
	Timestamp time.Time
}

// EventNotifier publishes committed changes to interested parties.
// In the hub this is implemented by the MQTT outbound adapter.
type EventNotifier interface {
	// Notify hands an event over for delivery. It must not block on the
	// network; delivery failures are the notifier's concern.
	Notify(ctx context.Context, event *Event) error
}
