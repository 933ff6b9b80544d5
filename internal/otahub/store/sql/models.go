package sql

import (
	"time"

	"github.com/autopeer-io/otahub/internal/otahub/core/model"
)

// vehicleRow is the vehicles table. ID only records registration order.
type vehicleRow struct {
	ID             uint64 `gorm:"primaryKey;autoIncrement"`
	VehicleID      string `gorm:"size:128;not null;uniqueIndex:idx_vehicles_vehicle_id"`
	Model          string `gorm:"size:255"`
	CurrentVersion string `gorm:"size:128"`
	Status         string `gorm:"size:128"`
	CreatedAt      time.Time
}

func (vehicleRow) TableName() string { return "vehicles" }

// updateRow is the ota_updates table.
//
// ActiveSlot holds the vehicle ID while the update is PENDING or IN_PROGRESS
// and is NULL once terminal. Its unique index is what makes a second active
// update for a vehicle impossible to commit; NULLs never collide.
type updateRow struct {
	ID          int64   `gorm:"primaryKey;autoIncrement"`
	VehicleID   string  `gorm:"size:128;not null;index:idx_ota_updates_vehicle_id"`
	FromVersion string  `gorm:"size:128"`
	ToVersion   string  `gorm:"size:128"`
	Status      string  `gorm:"size:32;not null"`
	ActiveSlot  *string `gorm:"size:128;uniqueIndex:idx_ota_updates_active_slot"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (updateRow) TableName() string { return "ota_updates" }

func allModels() []any {
	return []any{&vehicleRow{}, &updateRow{}}
}

func toVehicleRow(v *model.Vehicle) *vehicleRow {
	return &vehicleRow{
		VehicleID:      v.VehicleID,
		Model:          v.Model,
		CurrentVersion: v.CurrentVersion,
		Status:         v.OperationalStatus,
		CreatedAt:      v.CreatedAt,
	}
}

func (r *vehicleRow) toModel() *model.Vehicle {
	return &model.Vehicle{
		VehicleID:         r.VehicleID,
		Model:             r.Model,
		CurrentVersion:    r.CurrentVersion,
		OperationalStatus: r.Status,
		CreatedAt:         r.CreatedAt,
	}
}

func toUpdateRow(u *model.Update) *updateRow {
	row := &updateRow{
		VehicleID:   u.VehicleID,
		FromVersion: u.FromVersion,
		ToVersion:   u.ToVersion,
		Status:      string(u.LifecycleStatus),
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
	if u.LifecycleStatus.IsActive() {
		slot := u.VehicleID
		row.ActiveSlot = &slot
	}
	return row
}

func (r *updateRow) toModel() *model.Update {
	return &model.Update{
		ID:              r.ID,
		VehicleID:       r.VehicleID,
		FromVersion:     r.FromVersion,
		ToVersion:       r.ToVersion,
		LifecycleStatus: model.LifecycleStatus(r.Status),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}
