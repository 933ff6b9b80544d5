package core

import (
	"context"
	"time"

	"github.com/autopeer-io/otahub/internal/otahub/core/model"
)

// VehicleRepository is the transactional view of persisted vehicles.
type VehicleRepository interface {
	// Get retrieves a vehicle by its ID. Returns ErrVehicleNotFound if absent.
	Get(ctx context.Context, vehicleID string) (*model.Vehicle, error)

	// Create stores a new vehicle. Returns ErrDuplicateVehicle if the ID is taken.
	Create(ctx context.Context, vehicle *model.Vehicle) error

	// GetForUpdate is Get for a unit that will write based on what it read.
	// Stores that do not serialize by scope lock the row until commit.
	GetForUpdate(ctx context.Context, vehicleID string) (*model.Vehicle, error)

	// List returns all vehicles in registration order.
	List(ctx context.Context) ([]*model.Vehicle, error)

	// SetVersion replaces the firmware version of a vehicle.
	SetVersion(ctx context.Context, vehicleID, version string) error
}

// UpdateRepository is the transactional view of persisted OTA updates.
type UpdateRepository interface {
	// Get retrieves an update by ID. Returns ErrUpdateNotFound if absent.
	Get(ctx context.Context, id int64) (*model.Update, error)

	// FindActive returns the PENDING or IN_PROGRESS update of a vehicle, or
	// nil when there is none.
	FindActive(ctx context.Context, vehicleID string) (*model.Update, error)

	// Create stores a new update. The store assigns ID no later than commit
	// and must reject a second active update for the same vehicle with
	// ErrActiveUpdateConflict, even when the caller's FindActive raced.
	Create(ctx context.Context, update *model.Update) error

	// Transition moves an update from one status to another only if it is
	// still in from, stamping UpdatedAt with at. Returns ErrInvalidTransition
	// otherwise.
	Transition(ctx context.Context, id int64, from, to model.LifecycleStatus, at time.Time) error

	// ListByVehicle returns the updates of a vehicle, highest ID first.
	ListByVehicle(ctx context.Context, vehicleID string) ([]*model.Update, error)
}

// Tx is the view a unit of work operates on.
type Tx interface {
	Vehicles() VehicleRepository
	Updates() UpdateRepository
}

// ScopeKind tells what a Scope refers to.
type ScopeKind int

const (
	// ScopeFleet covers reads spanning all vehicles.
	ScopeFleet ScopeKind = iota
	// ScopeVehicle covers one vehicle, including one whose ID is empty.
	ScopeVehicle
	// ScopeUpdate covers the vehicle owning one update.
	ScopeUpdate
)

// Scope names what a unit of work touches so that a store can serialize
// conflicting work without blocking unrelated vehicles.
type Scope struct {
	Kind ScopeKind

	// VehicleID is the vehicle the unit reads or writes.
	VehicleID string

	// UpdateID is used when only the update is known; the store resolves it
	// to its vehicle.
	UpdateID int64
}

// VehicleScope scopes a unit of work to one vehicle.
func VehicleScope(vehicleID string) Scope { return Scope{Kind: ScopeVehicle, VehicleID: vehicleID} }

// UpdateScope scopes a unit of work to the vehicle owning an update.
func UpdateScope(id int64) Scope { return Scope{Kind: ScopeUpdate, UpdateID: id} }

// FleetScope is used by reads spanning all vehicles.
func FleetScope() Scope { return Scope{Kind: ScopeFleet} }

// TxFunc is a unit of work.
type TxFunc func(ctx context.Context, tx Tx) error

// Store runs units of work atomically: either every write of fn becomes
// visible at once or none does, and two units with overlapping scope never
// interleave.
type Store interface {
	Atomic(ctx context.Context, scope Scope, fn TxFunc) error

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend.
	Close() error
}
