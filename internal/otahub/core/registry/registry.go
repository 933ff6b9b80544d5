// Package registry holds the set of known vehicles and their firmware state.
package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/autopeer-io/otahub/internal/otahub/core"
	"github.com/autopeer-io/otahub/internal/otahub/core/model"
)

// Registry operates on the vehicles of one unit of work.
type Registry struct {
	vehicles core.VehicleRepository
	now      func() time.Time
}

// New returns a registry bound to repo.
func New(repo core.VehicleRepository) *Registry {
	return &Registry{vehicles: repo, now: time.Now}
}

// Register creates a vehicle. It fails with core.ErrDuplicateVehicle if the
// ID is already known; the remaining fields are taken as given.
func (r *Registry) Register(ctx context.Context, vehicleID, vehicleModel, version, status string) (*model.Vehicle, error) {
	if _, err := r.vehicles.Get(ctx, vehicleID); err == nil {
		return nil, fmt.Errorf("register %s: %w", vehicleID, core.ErrDuplicateVehicle)
	} else if !errors.Is(err, core.ErrVehicleNotFound) {
		return nil, err
	}

	v := &model.Vehicle{
		VehicleID:         vehicleID,
		Model:             vehicleModel,
		CurrentVersion:    version,
		OperationalStatus: status,
		CreatedAt:         r.now().UTC(),
	}
	if err := r.vehicles.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// List returns every vehicle in registration order.
func (r *Registry) List(ctx context.Context) ([]*model.Vehicle, error) {
	return r.vehicles.List(ctx)
}

// Get returns one vehicle or core.ErrVehicleNotFound.
func (r *Registry) Get(ctx context.Context, vehicleID string) (*model.Vehicle, error) {
	return r.vehicles.Get(ctx, vehicleID)
}

// GetForUpdate returns one vehicle and keeps its version stable until the
// unit of work commits.
func (r *Registry) GetForUpdate(ctx context.Context, vehicleID string) (*model.Vehicle, error) {
	return r.vehicles.GetForUpdate(ctx, vehicleID)
}

// ApplyVersion records a new firmware version. Only the ledger calls this,
// when an update completes.
func (r *Registry) ApplyVersion(ctx context.Context, vehicleID, version string) error {
	if _, err := r.vehicles.Get(ctx, vehicleID); err != nil {
		return err
	}
	return r.vehicles.SetVersion(ctx, vehicleID, version)
}
