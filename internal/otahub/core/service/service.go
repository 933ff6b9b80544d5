package service

import (
	"context"
	"time"

	"github.com/autopeer-io/otahub/internal/otahub/core"
	"github.com/autopeer-io/otahub/internal/otahub/core/ledger"
	"github.com/autopeer-io/otahub/internal/otahub/core/registry"
	"github.com/autopeer-io/otahub/internal/pkg/metrics"
	"github.com/autopeer-io/otahub/pkg/log"
)

// Operation names, used as metric labels and in logs.
const (
	OpRegisterVehicle = "register_vehicle"
	OpListVehicles    = "list_vehicles"
	OpAssignUpdate    = "assign_update"
	OpStartUpdate     = "start_update"
	OpCompleteUpdate  = "complete_update"
	OpFailUpdate      = "fail_update"
	OpGetHistory      = "get_history"
)

// Service implements the OTA hub use cases. Every operation is one atomic
// unit of work on the store; committed writes are then announced through
// the notifier.
type Service struct {
	store    core.Store
	notifier core.EventNotifier
	now      func() time.Time
}

// New creates the service. A nil notifier disables event publishing.
func New(store core.Store, notifier core.EventNotifier) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

// Ready reports whether the backing store is reachable.
func (s *Service) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// unit is the registry and ledger bound to one transaction.
type unit struct {
	registry *registry.Registry
	ledger   *ledger.Ledger
}

// atomic runs fn as a single unit of work and records its outcome.
func (s *Service) atomic(ctx context.Context, op string, scope core.Scope, fn func(ctx context.Context, u *unit) error) error {
	start := time.Now()

	err := s.store.Atomic(ctx, scope, func(ctx context.Context, tx core.Tx) error {
		reg := registry.New(tx.Vehicles())
		return fn(ctx, &unit{registry: reg, ledger: ledger.New(tx.Updates(), reg)})
	})
	err = core.StorageFailure(err)

	metrics.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	switch {
	case err == nil:
		metrics.OperationsTotal.WithLabelValues(op, metrics.ResultOK).Inc()
	case core.IsValidation(err):
		metrics.OperationsTotal.WithLabelValues(op, metrics.ResultRejected).Inc()
		log.FromContext(ctx).Debug("Operation rejected", "operation", op, "reason", err.Error())
	default:
		metrics.OperationsTotal.WithLabelValues(op, metrics.ResultError).Inc()
		log.FromContext(ctx).Error(err, "Operation failed", "operation", op)
	}
	return err
}

// notify publishes a committed change. Failures are logged and never
// reach the caller; the change is already durable.
func (s *Service) notify(ctx context.Context, event *core.Event) {
	if s.notifier == nil {
		return
	}
	event.Timestamp = s.now().UTC()
	if err := s.notifier.Notify(ctx, event); err != nil {
		log.FromContext(ctx).Error(err, "Failed to publish event", "type", event.Type, "vehicleID", event.VehicleID)
	}
}
