// Package ledger owns OTA update records and enforces their lifecycle:
// PENDING -> IN_PROGRESS -> COMPLETED | FAILED.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/autopeer-io/otahub/internal/otahub/core"
	"github.com/autopeer-io/otahub/internal/otahub/core/model"
	"github.com/autopeer-io/otahub/internal/otahub/core/registry"
	fsmutil "github.com/autopeer-io/otahub/internal/pkg/util/fsm"
)

// Ledger operates on the updates of one unit of work.
type Ledger struct {
	updates  core.UpdateRepository
	registry *registry.Registry
	now      func() time.Time
}

// New returns a ledger bound to repo that validates and applies versions
// through reg.
func New(repo core.UpdateRepository, reg *registry.Registry) *Ledger {
	return &Ledger{updates: repo, registry: reg, now: time.Now}
}

// Assign creates a PENDING update. The vehicle must have no active update,
// must exist, and must currently run from.
func (l *Ledger) Assign(ctx context.Context, vehicleID, from, to string) (*model.Update, error) {
	active, err := l.updates.FindActive(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, fmt.Errorf("assign %s: update %d is %s: %w",
			vehicleID, active.ID, active.LifecycleStatus, core.ErrActiveUpdateConflict)
	}

	v, err := l.registry.GetForUpdate(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if v.CurrentVersion != from {
		return nil, &core.VersionMismatchError{VehicleID: vehicleID, Expected: from, Actual: v.CurrentVersion}
	}

	now := l.now().UTC()
	u := &model.Update{
		VehicleID:       vehicleID,
		FromVersion:     from,
		ToVersion:       to,
		LifecycleStatus: model.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := l.updates.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Start moves a PENDING update to IN_PROGRESS.
func (l *Ledger) Start(ctx context.Context, id int64) (*model.Update, error) {
	return l.fire(ctx, id, EventStart)
}

// Complete moves an IN_PROGRESS update to COMPLETED and sets the vehicle's
// firmware to the update's target version.
func (l *Ledger) Complete(ctx context.Context, id int64) (*model.Update, error) {
	return l.fire(ctx, id, EventComplete)
}

// Fail moves an IN_PROGRESS update to FAILED.
func (l *Ledger) Fail(ctx context.Context, id int64) (*model.Update, error) {
	return l.fire(ctx, id, EventFail)
}

// History returns the vehicle's updates, most recent first. Unknown
// vehicles yield core.ErrVehicleNotFound; known vehicles without updates
// yield an empty slice.
func (l *Ledger) History(ctx context.Context, vehicleID string) ([]*model.Update, error) {
	if _, err := l.registry.Get(ctx, vehicleID); err != nil {
		return nil, err
	}
	updates, err := l.updates.ListByVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if updates == nil {
		updates = []*model.Update{}
	}
	return updates, nil
}

func (l *Ledger) fire(ctx context.Context, id int64, event string) (*model.Update, error) {
	u, err := l.updates.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	from := u.LifecycleStatus
	machine := l.newLifecycle(u)
	if err := machine.Event(ctx, event, u); err != nil {
		if fsmutil.IsRejected(err) {
			return nil, &core.TransitionError{UpdateID: id, Event: event, Current: string(from)}
		}
		return nil, fsmutil.Cause(err)
	}

	to := model.LifecycleStatus(machine.Current())
	at := l.now().UTC()
	if err := l.updates.Transition(ctx, id, from, to, at); err != nil {
		return nil, err
	}

	u.LifecycleStatus = to
	u.UpdatedAt = at
	return u, nil
}
