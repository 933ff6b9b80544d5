// Package memory is an in-process implementation of core.Store.
//
// Units of work on the same vehicle are serialized by a per-vehicle lock.
// Writes are staged on the transaction and applied together under the map
// lock at commit, so readers never see part of a unit. Units on different
// vehicles only meet in that short commit section.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/autopeer-io/otahub/internal/otahub/core"
	"github.com/autopeer-io/otahub/internal/otahub/core/model"
)

var _ core.Store = (*Store)(nil)

// Store keeps vehicles and updates in maps guarded by mu.
type Store struct {
	mu        sync.RWMutex
	vehicles  map[string]*model.Vehicle
	order     []string
	updates   map[int64]*model.Update
	byVehicle map[string][]int64 // ascending IDs
	active    map[string]int64   // vehicleID -> PENDING or IN_PROGRESS update
	nextID    int64

	locks *keyedMutex
}

// New returns an empty store.
func New() *Store {
	return &Store{
		vehicles:  make(map[string]*model.Vehicle),
		updates:   make(map[int64]*model.Update),
		byVehicle: make(map[string][]int64),
		active:    make(map[string]int64),
		locks:     newKeyedMutex(),
	}
}

// Atomic runs fn while holding the lock of the scoped vehicle and commits
// its staged writes if fn succeeds. An update scope naming an unknown update
// fails with core.ErrUpdateNotFound without running fn.
func (s *Store) Atomic(ctx context.Context, scope core.Scope, fn core.TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key, locked, err := s.lockKey(scope)
	if err != nil {
		return err
	}
	if locked {
		unlock := s.locks.Lock(key)
		defer unlock()
	}

	t := newTx(s)
	if err := fn(ctx, t); err != nil {
		return err
	}
	return s.commit(t)
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// lockKey resolves a scope to the vehicle whose lock guards it. The owning
// vehicle of an update never changes, so resolving before locking is safe.
func (s *Store) lockKey(scope core.Scope) (string, bool, error) {
	switch scope.Kind {
	case core.ScopeVehicle:
		return scope.VehicleID, true, nil
	case core.ScopeUpdate:
		s.mu.RLock()
		defer s.mu.RUnlock()
		u, ok := s.updates[scope.UpdateID]
		if !ok {
			return "", false, fmt.Errorf("ota update %d: %w", scope.UpdateID, core.ErrUpdateNotFound)
		}
		return u.VehicleID, true, nil
	default:
		return "", false, nil
	}
}

// commit validates every staged write against the current state and then
// applies all of them. Validation failures leave the store untouched.
func (s *Store) commit(t *tx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, v := range t.newVehicles {
		if _, ok := s.vehicles[v.VehicleID]; ok {
			return fmt.Errorf("register %s: %w", v.VehicleID, core.ErrDuplicateVehicle)
		}
	}
	for id := range t.versions {
		if _, ok := s.vehicles[id]; !ok && !t.createsVehicle(id) {
			return fmt.Errorf("set version of %s: %w", id, core.ErrVehicleNotFound)
		}
	}
	for id, tr := range t.transitions {
		u, ok := s.updates[id]
		if !ok {
			return fmt.Errorf("transition %d: %w", id, core.ErrUpdateNotFound)
		}
		if u.LifecycleStatus != tr.from {
			return fmt.Errorf("transition %d to %s: %w", id, tr.to, core.ErrInvalidTransition)
		}
	}
	claimed := make(map[string]bool)
	for _, u := range t.newUpdates {
		id, held := s.active[u.VehicleID]
		if (held && !t.releases(id)) || claimed[u.VehicleID] {
			return fmt.Errorf("assign %s: %w", u.VehicleID, core.ErrActiveUpdateConflict)
		}
		claimed[u.VehicleID] = true
	}

	for _, v := range t.newVehicles {
		s.vehicles[v.VehicleID] = v.Clone()
		s.order = append(s.order, v.VehicleID)
	}
	for id, version := range t.versions {
		s.vehicles[id].CurrentVersion = version
	}
	for id, tr := range t.transitions {
		u := s.updates[id]
		u.LifecycleStatus = tr.to
		u.UpdatedAt = tr.at
		if !tr.to.IsActive() && s.active[u.VehicleID] == id {
			delete(s.active, u.VehicleID)
		}
	}
	for _, u := range t.newUpdates {
		s.nextID++
		u.ID = s.nextID
		stored := u.Clone()
		s.updates[stored.ID] = stored
		s.byVehicle[stored.VehicleID] = append(s.byVehicle[stored.VehicleID], stored.ID)
		if stored.LifecycleStatus.IsActive() {
			s.active[stored.VehicleID] = stored.ID
		}
	}

	return nil
}

func (s *Store) committedVehicle(id string) (*model.Vehicle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vehicles[id]
	return v.Clone(), ok
}

func (s *Store) committedVehicles() []*model.Vehicle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Vehicle, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.vehicles[id].Clone())
	}
	return out
}

func (s *Store) committedUpdate(id int64) (*model.Update, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.updates[id]
	return u.Clone(), ok
}

func (s *Store) committedActive(vehicleID string) (*model.Update, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.active[vehicleID]
	if !ok {
		return nil, false
	}
	return s.updates[id].Clone(), true
}

// committedHistory returns the vehicle's updates with the highest ID first.
func (s *Store) committedHistory(vehicleID string) []*model.Update {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byVehicle[vehicleID]
	out := make([]*model.Update, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.updates[id].Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}
