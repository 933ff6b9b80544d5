package service

import (
	"context"

	"github.com/autopeer-io/otahub/internal/otahub/core"
	"github.com/autopeer-io/otahub/internal/otahub/core/ledger"
	"github.com/autopeer-io/otahub/internal/otahub/core/model"
	"github.com/autopeer-io/otahub/internal/pkg/metrics"
)

// AssignUpdate creates a PENDING update moving vehicleID from one firmware
// version to another. The active-update check, the version precondition
// and the insert happen in one unit of work.
func (s *Service) AssignUpdate(ctx context.Context, vehicleID, fromVersion, toVersion string) (*model.Update, error) {
	var upd *model.Update
	err := s.atomic(ctx, OpAssignUpdate, core.VehicleScope(vehicleID), func(ctx context.Context, u *unit) error {
		var err error
		upd, err = u.ledger.Assign(ctx, vehicleID, fromVersion, toVersion)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, core.EventUpdateAssigned, upd)
	return upd, nil
}

// StartUpdate moves a PENDING update to IN_PROGRESS.
func (s *Service) StartUpdate(ctx context.Context, id int64) (*model.Update, error) {
	return s.transition(ctx, OpStartUpdate, core.EventUpdateStarted, id, (*ledger.Ledger).Start)
}

// CompleteUpdate moves an IN_PROGRESS update to COMPLETED and applies its
// target version to the vehicle in the same unit of work.
func (s *Service) CompleteUpdate(ctx context.Context, id int64) (*model.Update, error) {
	return s.transition(ctx, OpCompleteUpdate, core.EventUpdateCompleted, id, (*ledger.Ledger).Complete)
}

// FailUpdate moves an IN_PROGRESS update to FAILED. The vehicle keeps its
// firmware version.
func (s *Service) FailUpdate(ctx context.Context, id int64) (*model.Update, error) {
	return s.transition(ctx, OpFailUpdate, core.EventUpdateFailed, id, (*ledger.Ledger).Fail)
}

// GetHistory returns a vehicle's updates, most recent first.
func (s *Service) GetHistory(ctx context.Context, vehicleID string) ([]*model.Update, error) {
	var history []*model.Update
	err := s.atomic(ctx, OpGetHistory, core.VehicleScope(vehicleID), func(ctx context.Context, u *unit) error {
		var err error
		history, err = u.ledger.History(ctx, vehicleID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return history, nil
}

type ledgerEvent func(l *ledger.Ledger, ctx context.Context, id int64) (*model.Update, error)

func (s *Service) transition(ctx context.Context, op string, event core.EventType, id int64, fire ledgerEvent) (*model.Update, error) {
	var upd *model.Update
	err := s.atomic(ctx, op, core.UpdateScope(id), func(ctx context.Context, u *unit) error {
		var err error
		upd, err = fire(u.ledger, ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, event, upd)
	return upd, nil
}

func (s *Service) committed(ctx context.Context, event core.EventType, upd *model.Update) {
	metrics.UpdateTransitionsTotal.WithLabelValues(string(upd.LifecycleStatus)).Inc()
	s.notify(ctx, &core.Event{Type: event, VehicleID: upd.VehicleID, Update: upd.Clone()})
}
