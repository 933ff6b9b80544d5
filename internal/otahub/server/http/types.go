package http

import (
	"time"

	"github.com/autopeer-io/otahub/internal/otahub/core/model"
)

// vehicleCreateRequest is the body of POST /vehicles. Fields are pointers
// so that a missing field and an empty string can be told apart.
type vehicleCreateRequest struct {
	VehicleID      *string `json:"vehicle_id" validate:"required"`
	Model          *string `json:"model" validate:"required"`
	CurrentVersion *string `json:"current_version" validate:"required"`
	Status         *string `json:"status" validate:"required"`
}

// updateCreateRequest is the body of POST /updates.
type updateCreateRequest struct {
	VehicleID   *string `json:"vehicle_id" validate:"required"`
	FromVersion *string `json:"from_version" validate:"required"`
	ToVersion   *string `json:"to_version" validate:"required"`
}

type vehicleResponse struct {
	VehicleID      string    `json:"vehicle_id"`
	Model          string    `json:"model"`
	CurrentVersion string    `json:"current_version"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

type updateResponse struct {
	ID          int64     `json:"id"`
	VehicleID   string    `json:"vehicle_id"`
	FromVersion string    `json:"from_version"`
	ToVersion   string    `json:"to_version"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func toVehicleResponse(v *model.Vehicle) vehicleResponse {
	return vehicleResponse{
		VehicleID:      v.VehicleID,
		Model:          v.Model,
		CurrentVersion: v.CurrentVersion,
		Status:         v.OperationalStatus,
		CreatedAt:      v.CreatedAt,
	}
}

func toUpdateResponse(u *model.Update) updateResponse {
	return updateResponse{
		ID:          u.ID,
		VehicleID:   u.VehicleID,
		FromVersion: u.FromVersion,
		ToVersion:   u.ToVersion,
		Status:      string(u.LifecycleStatus),
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
