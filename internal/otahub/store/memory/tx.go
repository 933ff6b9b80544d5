package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/autopeer-io/otahub/internal/otahub/core"
	"github.com/autopeer-io/otahub/internal/otahub/core/model"
)

type transition struct {
	from, to model.LifecycleStatus
	at       time.Time
}

// tx stages writes on top of the committed state. Reads see committed
// data overlaid with the unit's own writes.
type tx struct {
	s *Store

	newVehicles []*model.Vehicle
	versions    map[string]string
	newUpdates  []*model.Update
	transitions map[int64]transition
}

var _ core.Tx = (*tx)(nil)

func newTx(s *Store) *tx {
	return &tx{
		s:           s,
		versions:    make(map[string]string),
		transitions: make(map[int64]transition),
	}
}

func (t *tx) Vehicles() core.VehicleRepository { return vehicleRepo{t} }
func (t *tx) Updates() core.UpdateRepository   { return updateRepo{t} }

func (t *tx) createsVehicle(id string) bool {
	for _, v := range t.newVehicles {
		if v.VehicleID == id {
			return true
		}
	}
	return false
}

// releases reports whether the unit moves update id out of the active set.
func (t *tx) releases(id int64) bool {
	tr, ok := t.transitions[id]
	return ok && !tr.to.IsActive()
}

func (t *tx) overlayVehicle(v *model.Vehicle) *model.Vehicle {
	if version, ok := t.versions[v.VehicleID]; ok {
		v.CurrentVersion = version
	}
	return v
}

func (t *tx) overlayUpdate(u *model.Update) *model.Update {
	if tr, ok := t.transitions[u.ID]; ok {
		u.LifecycleStatus = tr.to
		u.UpdatedAt = tr.at
	}
	return u
}

type vehicleRepo struct{ t *tx }

func (r vehicleRepo) Get(_ context.Context, vehicleID string) (*model.Vehicle, error) {
	for _, v := range r.t.newVehicles {
		if v.VehicleID == vehicleID {
			return r.t.overlayVehicle(v.Clone()), nil
		}
	}
	v, ok := r.t.s.committedVehicle(vehicleID)
	if !ok {
		return nil, fmt.Errorf("vehicle %s: %w", vehicleID, core.ErrVehicleNotFound)
	}
	return r.t.overlayVehicle(v), nil
}

// GetForUpdate is Get; the scope lock already serializes the vehicle.
func (r vehicleRepo) GetForUpdate(ctx context.Context, vehicleID string) (*model.Vehicle, error) {
	return r.Get(ctx, vehicleID)
}

func (r vehicleRepo) Create(ctx context.Context, vehicle *model.Vehicle) error {
	if _, err := r.Get(ctx, vehicle.VehicleID); err == nil {
		return fmt.Errorf("register %s: %w", vehicle.VehicleID, core.ErrDuplicateVehicle)
	}
	r.t.newVehicles = append(r.t.newVehicles, vehicle.Clone())
	return nil
}

func (r vehicleRepo) List(context.Context) ([]*model.Vehicle, error) {
	out := r.t.s.committedVehicles()
	for _, v := range r.t.newVehicles {
		out = append(out, v.Clone())
	}
	for _, v := range out {
		r.t.overlayVehicle(v)
	}
	return out, nil
}

func (r vehicleRepo) SetVersion(ctx context.Context, vehicleID, version string) error {
	if _, err := r.Get(ctx, vehicleID); err != nil {
		return err
	}
	r.t.versions[vehicleID] = version
	return nil
}

type updateRepo struct{ t *tx }

func (r updateRepo) Get(_ context.Context, id int64) (*model.Update, error) {
	u, ok := r.t.s.committedUpdate(id)
	if !ok {
		return nil, fmt.Errorf("ota update %d: %w", id, core.ErrUpdateNotFound)
	}
	return r.t.overlayUpdate(u), nil
}

func (r updateRepo) FindActive(_ context.Context, vehicleID string) (*model.Update, error) {
	for _, u := range r.t.newUpdates {
		if u.VehicleID == vehicleID && u.LifecycleStatus.IsActive() {
			return u.Clone(), nil
		}
	}
	u, ok := r.t.s.committedActive(vehicleID)
	if !ok {
		return nil, nil
	}
	if u = r.t.overlayUpdate(u); !u.LifecycleStatus.IsActive() {
		return nil, nil
	}
	return u, nil
}

func (r updateRepo) Create(ctx context.Context, update *model.Update) error {
	active, err := r.FindActive(ctx, update.VehicleID)
	if err != nil {
		return err
	}
	if active != nil && update.LifecycleStatus.IsActive() {
		return fmt.Errorf("assign %s: %w", update.VehicleID, core.ErrActiveUpdateConflict)
	}
	// The caller's pointer is kept so that commit can report the assigned ID.
	r.t.newUpdates = append(r.t.newUpdates, update)
	return nil
}

func (r updateRepo) Transition(ctx context.Context, id int64, from, to model.LifecycleStatus, at time.Time) error {
	u, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if u.LifecycleStatus != from {
		return fmt.Errorf("transition %d from %s: update is %s: %w", id, from, u.LifecycleStatus, core.ErrInvalidTransition)
	}
	if prev, ok := r.t.transitions[id]; ok {
		from = prev.from
	}
	r.t.transitions[id] = transition{from: from, to: to, at: at}
	return nil
}

func (r updateRepo) ListByVehicle(_ context.Context, vehicleID string) ([]*model.Update, error) {
	var out []*model.Update
	for i := len(r.t.newUpdates) - 1; i >= 0; i-- {
		if u := r.t.newUpdates[i]; u.VehicleID == vehicleID {
			out = append(out, u.Clone())
		}
	}
	for _, u := range r.t.s.committedHistory(vehicleID) {
		out = append(out, r.t.overlayUpdate(u))
	}
	return out, nil
}
