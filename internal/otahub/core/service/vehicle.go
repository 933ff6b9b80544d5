package service

import (
	"context"

	"github.com/autopeer-io/otahub/internal/otahub/core"
	"github.com/autopeer-io/otahub/internal/otahub/core/model"
)

// RegisterVehicle adds a vehicle to the fleet.
func (s *Service) RegisterVehicle(ctx context.Context, vehicleID, vehicleModel, version, status string) (*model.Vehicle, error) {
	var v *model.Vehicle
	err := s.atomic(ctx, OpRegisterVehicle, core.VehicleScope(vehicleID), func(ctx context.Context, u *unit) error {
		var err error
		v, err = u.registry.Register(ctx, vehicleID, vehicleModel, version, status)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, &core.Event{Type: core.EventVehicleRegistered, VehicleID: v.VehicleID, Vehicle: v.Clone()})
	return v, nil
}

// ListVehicles returns all vehicles in registration order.
func (s *Service) ListVehicles(ctx context.Context) ([]*model.Vehicle, error) {
	var list []*model.Vehicle
	err := s.atomic(ctx, OpListVehicles, core.FleetScope(), func(ctx context.Context, u *unit) error {
		var err error
		list, err = u.registry.List(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*model.Vehicle{}
	}
	return list, nil
}
