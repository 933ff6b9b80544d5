package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/autopeer-io/otahub/internal/otahub/core/model"
)

// Service is the set of use cases the HTTP adapter serves.
type Service interface {
	RegisterVehicle(ctx context.Context, vehicleID, vehicleModel, version, status string) (*model.Vehicle, error)
	ListVehicles(ctx context.Context) ([]*model.Vehicle, error)
	AssignUpdate(ctx context.Context, vehicleID, fromVersion, toVersion string) (*model.Update, error)
	StartUpdate(ctx context.Context, id int64) (*model.Update, error)
	CompleteUpdate(ctx context.Context, id int64) (*model.Update, error)
	FailUpdate(ctx context.Context, id int64) (*model.Update, error)
	GetHistory(ctx context.Context, vehicleID string) ([]*model.Update, error)
	Ready(ctx context.Context) error
}

type handler struct {
	svc Service
}

func (h *handler) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, messageResponse{Message: "OTA Backend is running"})
}

func (h *handler) registerVehicle(w http.ResponseWriter, r *http.Request) {
	var req vehicleCreateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	v, err := h.svc.RegisterVehicle(r.Context(), *req.VehicleID, *req.Model, *req.CurrentVersion, *req.Status)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, r, http.StatusCreated, toVehicleResponse(v))
}

func (h *handler) listVehicles(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListVehicles(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	out := make([]vehicleResponse, 0, len(list))
	for _, v := range list {
		out = append(out, toVehicleResponse(v))
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *handler) assignUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateCreateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	u, err := h.svc.AssignUpdate(r.Context(), *req.VehicleID, *req.FromVersion, *req.ToVersion)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, r, http.StatusOK, toUpdateResponse(u))
}

// lifecycle serves the start, complete and fail routes.
func (h *handler) lifecycle(event string, fire func(ctx context.Context, id int64) (*model.Update, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
		if err != nil {
			writeError(w, r, http.StatusUnprocessableEntity, "update id must be an integer")
			return
		}

		u, err := fire(r.Context(), id)
		if err != nil {
			writeServiceError(w, r, err, event)
			return
		}
		writeJSON(w, r, http.StatusOK, toUpdateResponse(u))
	}
}

func (h *handler) history(w http.ResponseWriter, r *http.Request) {
	updates, err := h.svc.GetHistory(r.Context(), mux.Vars(r)["vehicle_id"])
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	out := make([]updateResponse, 0, len(updates))
	for _, u := range updates {
		out = append(out, toUpdateResponse(u))
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *handler) healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *handler) readyz(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Ready(r.Context()); err != nil {
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

