package sql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/autopeer-io/otahub/internal/otahub/core"
	"github.com/autopeer-io/otahub/internal/otahub/core/model"
)

type tx struct {
	db *gorm.DB
}

var _ core.Tx = (*tx)(nil)

func (t *tx) Vehicles() core.VehicleRepository { return &vehicleRepo{db: t.db} }
func (t *tx) Updates() core.UpdateRepository   { return &updateRepo{db: t.db} }

type vehicleRepo struct {
	db *gorm.DB
}

func (r *vehicleRepo) Get(ctx context.Context, vehicleID string) (*model.Vehicle, error) {
	return r.first(r.db.WithContext(ctx), vehicleID)
}

// GetForUpdate reads the vehicle with SELECT ... FOR UPDATE, so a concurrent
// completion cannot change its version before this transaction commits.
// SQLite has no row locks; its single connection serializes instead.
func (r *vehicleRepo) GetForUpdate(ctx context.Context, vehicleID string) (*model.Vehicle, error) {
	return r.first(lockRow(r.db.WithContext(ctx)), vehicleID)
}

func lockRow(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (r *vehicleRepo) first(db *gorm.DB, vehicleID string) (*model.Vehicle, error) {
	var row vehicleRow
	err := db.Where("vehicle_id = ?", vehicleID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("vehicle %s: %w", vehicleID, core.ErrVehicleNotFound)
	}
	if err != nil {
		return nil, core.StorageFailure(fmt.Errorf("get vehicle %s: %w", vehicleID, err))
	}
	return row.toModel(), nil
}

func (r *vehicleRepo) Create(ctx context.Context, vehicle *model.Vehicle) error {
	err := r.db.WithContext(ctx).Create(toVehicleRow(vehicle)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("register %s: %w", vehicle.VehicleID, core.ErrDuplicateVehicle)
	}
	if err != nil {
		return core.StorageFailure(fmt.Errorf("create vehicle %s: %w", vehicle.VehicleID, err))
	}
	return nil
}

func (r *vehicleRepo) List(ctx context.Context) ([]*model.Vehicle, error) {
	var rows []vehicleRow
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, core.StorageFailure(fmt.Errorf("list vehicles: %w", err))
	}
	out := make([]*model.Vehicle, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toModel())
	}
	return out, nil
}

func (r *vehicleRepo) SetVersion(ctx context.Context, vehicleID, version string) error {
	res := r.db.WithContext(ctx).Model(&vehicleRow{}).
		Where("vehicle_id = ?", vehicleID).
		Update("current_version", version)
	if res.Error != nil {
		return core.StorageFailure(fmt.Errorf("set version of %s: %w", vehicleID, res.Error))
	}
	if res.RowsAffected == 0 {
		// MySQL reports zero affected rows when the value is unchanged.
		if _, err := r.Get(ctx, vehicleID); err != nil {
			return err
		}
	}
	return nil
}

type updateRepo struct {
	db *gorm.DB
}

func (r *updateRepo) Get(ctx context.Context, id int64) (*model.Update, error) {
	var row updateRow
	err := r.db.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("ota update %d: %w", id, core.ErrUpdateNotFound)
	}
	if err != nil {
		return nil, core.StorageFailure(fmt.Errorf("get ota update %d: %w", id, err))
	}
	return row.toModel(), nil
}

func (r *updateRepo) FindActive(ctx context.Context, vehicleID string) (*model.Update, error) {
	var rows []updateRow
	err := r.db.WithContext(ctx).
		Where("vehicle_id = ? AND status IN ?", vehicleID,
			[]string{string(model.StatusPending), string(model.StatusInProgress)}).
		Order("id DESC").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, core.StorageFailure(fmt.Errorf("find active update of %s: %w", vehicleID, err))
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].toModel(), nil
}

func (r *updateRepo) Create(ctx context.Context, update *model.Update) error {
	row := toUpdateRow(update)
	err := r.db.WithContext(ctx).Create(row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("assign %s: %w", update.VehicleID, core.ErrActiveUpdateConflict)
	}
	if err != nil {
		return core.StorageFailure(fmt.Errorf("create ota update for %s: %w", update.VehicleID, err))
	}
	update.ID = row.ID
	update.CreatedAt = row.CreatedAt
	update.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *updateRepo) Transition(ctx context.Context, id int64, from, to model.LifecycleStatus, at time.Time) error {
	changes := map[string]any{
		"status":     string(to),
		"updated_at": at.UTC(),
	}
	if !to.IsActive() {
		changes["active_slot"] = nil
	}

	res := r.db.WithContext(ctx).Model(&updateRow{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(changes)
	if res.Error != nil {
		return core.StorageFailure(fmt.Errorf("transition ota update %d: %w", id, res.Error))
	}
	if res.RowsAffected == 1 {
		return nil
	}

	current, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("transition %d from %s: update is %s: %w", id, from, current.LifecycleStatus, core.ErrInvalidTransition)
}

func (r *updateRepo) ListByVehicle(ctx context.Context, vehicleID string) ([]*model.Update, error) {
	var rows []updateRow
	if err := r.db.WithContext(ctx).Where("vehicle_id = ?", vehicleID).Order("id DESC").Find(&rows).Error; err != nil {
		return nil, core.StorageFailure(fmt.Errorf("list ota updates of %s: %w", vehicleID, err))
	}
	out := make([]*model.Update, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toModel())
	}
	return out, nil
}
