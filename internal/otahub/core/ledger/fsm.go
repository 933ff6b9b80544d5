package ledger

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/autopeer-io/otahub/internal/otahub/core/model"
	fsmutil "github.com/autopeer-io/otahub/internal/pkg/util/fsm"
)

const (
	// EventStart moves a pending update into progress.
	EventStart = "start"
	// EventComplete finishes an update and applies its target version.
	EventComplete = "complete"
	// EventFail finishes an update without touching the vehicle.
	EventFail = "fail"
)

// lifecycleEvents is the transition graph. Assignment creates records in
// PENDING and is not an event of the machine.
var lifecycleEvents = fsm.Events{
	{Name: EventStart, Src: []string{string(model.StatusPending)}, Dst: string(model.StatusInProgress)},
	{Name: EventComplete, Src: []string{string(model.StatusInProgress)}, Dst: string(model.StatusCompleted)},
	{Name: EventFail, Src: []string{string(model.StatusInProgress)}, Dst: string(model.StatusFailed)},
}

// newLifecycle builds a machine positioned at the record's current status.
// Every event must be fired with the record as its first argument.
func (l *Ledger) newLifecycle(u *model.Update) *fsm.FSM {
	callbacks := fsm.Callbacks{
		// Side-Effects (enter_...)
		"enter_" + string(model.StatusCompleted): fsmutil.WrapEvent(l.actionEnterCompleted),
	}
	return fsm.NewFSM(string(u.LifecycleStatus), lifecycleEvents, callbacks)
}

// actionEnterCompleted moves the vehicle to the update's target version.
func (l *Ledger) actionEnterCompleted(ctx context.Context, e *fsm.Event) error {
	u, err := updateArg(e)
	if err != nil {
		return err
	}
	if err := l.registry.ApplyVersion(ctx, u.VehicleID, u.ToVersion); err != nil {
		return fmt.Errorf("complete update %d: %w", u.ID, err)
	}
	return nil
}

func updateArg(e *fsm.Event) (*model.Update, error) {
	if len(e.Args) == 0 {
		return nil, fmt.Errorf("event %s fired without an update", e.Event)
	}
	u, ok := e.Args[0].(*model.Update)
	if !ok {
		return nil, fmt.Errorf("event %s fired with %T, want *model.Update", e.Event, e.Args[0])
	}
	return u, nil
}
