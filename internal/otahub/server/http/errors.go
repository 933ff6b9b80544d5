package http

import (
	"errors"
	"net/http"

	"github.com/autopeer-io/otahub/internal/otahub/core"
	"github.com/autopeer-io/otahub/internal/otahub/core/ledger"
)

// Client facing messages.
const (
	detailUnauthorized         = "Unauthorized"
	detailVehicleExists        = "Vehicle already exists"
	detailVehicleNotFound      = "Vehicle not found"
	detailUpdateNotFound       = "OTA update not found"
	detailActiveUpdate         = "An OTA update is already active for this vehicle"
	detailVersionMismatch      = "Version mismatch: vehicle is on "
	detailCannotStart          = "OTA update cannot be started"
	detailNotInProgress        = "OTA update is not in progress"
	detailOnlyInProgressFailed = "Only IN_PROGRESS updates can be failed"
	detailInternal             = "Internal server error"
)

// transitionDetails holds the rejection message of each lifecycle event.
var transitionDetails = map[string]string{
	ledger.EventStart:    detailCannotStart,
	ledger.EventComplete: detailNotInProgress,
	ledger.EventFail:     detailOnlyInProgressFailed,
}

// errorStatus maps a service error onto a status code and detail. event is
// the lifecycle event the request fired, if any.
func errorStatus(err error, event string) (int, string) {
	var mismatch *core.VersionMismatchError

	switch {
	case errors.Is(err, core.ErrDuplicateVehicle):
		return http.StatusConflict, detailVehicleExists
	case errors.Is(err, core.ErrVehicleNotFound):
		return http.StatusNotFound, detailVehicleNotFound
	case errors.Is(err, core.ErrUpdateNotFound):
		return http.StatusNotFound, detailUpdateNotFound
	case errors.Is(err, core.ErrActiveUpdateConflict):
		return http.StatusBadRequest, detailActiveUpdate
	case errors.As(err, &mismatch):
		return http.StatusBadRequest, detailVersionMismatch + mismatch.Actual
	case errors.Is(err, core.ErrInvalidTransition):
		if detail, ok := transitionDetails[event]; ok {
			return http.StatusBadRequest, detail
		}
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, detailInternal
	}
}
