package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mhadysydney/fridge-controll-app/pkg/dout1"
	"github.com/mhadysydney/fridge-controll-app/pkg/store"
	"github.com/mhadysydney/fridge-controll-app/pkg/store/models"
)

// DOUT1Handler serves the output automation endpoints.
type DOUT1Handler struct {
	store store.Store
}

// NewDOUT1Handler creates a DOUT1Handler.
func NewDOUT1Handler(st store.Store) *DOUT1Handler {
	return &DOUT1Handler{store: st}
}

type dout1StatusResponse struct {
	IMEI           string  `json:"imei"`
	Active         bool    `json:"dout1_active"`
	DeactivateTime *string `json:"deactivate_time"`
}

// Status returns the automation state for a device.
//
// GET /dout1_status/{imei}
func (h *DOUT1Handler) Status(w http.ResponseWriter, r *http.Request) {
	imei := chi.URLParam(r, "imei")

	state, err := h.store.GetDOUT1State(r.Context(), imei)
	if errors.Is(err, models.ErrStateNotFound) {
		NotFound(w, "no automation state for imei "+imei)
		return
	}
	if err != nil {
		InternalServerError(w, err.Error())
		return
	}

	WriteJSONOK(w, dout1StatusResponse{
		IMEI:           state.IMEI,
		Active:         state.Active,
		DeactivateTime: state.DeactivateTime,
	})
}

type dout1ControlRequest struct {
	Activate *bool `json:"activate"`
}

type dout1ControlResponse struct {
	Command string `json:"command"`
	Status  string `json:"status"`
}

// Control queues a manual output command for a device. The command is
// delivered the next time the device connects.
//
// POST /dout1_control/{imei}  body: {"activate": bool}
func (h *DOUT1Handler) Control(w http.ResponseWriter, r *http.Request) {
	imei := chi.URLParam(r, "imei")

	var req dout1ControlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body: "+err.Error())
		return
	}
	if req.Activate == nil {
		BadRequest(w, "missing required field: activate")
		return
	}

	known, err := h.store.KnownIMEI(r.Context(), imei)
	if err != nil {
		InternalServerError(w, err.Error())
		return
	}
	if !known {
		NotFound(w, "unknown imei "+imei)
		return
	}

	command := dout1.CommandDeactivate
	if *req.Activate {
		command = dout1.CommandActivate
	}

	if _, err := h.store.EnqueueCommand(r.Context(), imei, command); err != nil {
		InternalServerError(w, err.Error())
		return
	}

	WriteJSONOK(w, dout1ControlResponse{Command: command, Status: "queued"})
}
