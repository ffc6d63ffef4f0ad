package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mhadysydney/fridge-controll-app/pkg/store"
	"github.com/mhadysydney/fridge-controll-app/pkg/store/models"
)

// CommandHandler serves the command queue endpoints.
type CommandHandler struct {
	store store.Store
}

// NewCommandHandler creates a CommandHandler.
func NewCommandHandler(st store.Store) *CommandHandler {
	return &CommandHandler{store: st}
}

type queuedCommand struct {
	ID      uint64 `json:"id"`
	Command string `json:"command"`
}

type commandQueueResponse struct {
	Commands []queuedCommand `json:"commands"`
}

// List returns the pending commands for a device in FIFO order.
//
// GET /command_queue/{imei}
func (h *CommandHandler) List(w http.ResponseWriter, r *http.Request) {
	imei := chi.URLParam(r, "imei")

	commands, err := h.store.ListPendingCommands(r.Context(), imei)
	if err != nil {
		InternalServerError(w, err.Error())
		return
	}

	resp := commandQueueResponse{Commands: make([]queuedCommand, 0, len(commands))}
	for _, cmd := range commands {
		resp.Commands = append(resp.Commands, queuedCommand{ID: cmd.ID, Command: cmd.Command})
	}
	WriteJSONOK(w, resp)
}

type updateCommandRequest struct {
	Status models.CommandStatus `json:"status"`
}

// Update transitions a queued command to a terminal status.
//
// POST /command_queue/update/{id}  body: {"status": "completed"|"failed"}
func (h *CommandHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		BadRequest(w, "invalid command id")
		return
	}

	var req updateCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body: "+err.Error())
		return
	}
	if req.Status != models.CommandCompleted && req.Status != models.CommandFailed {
		BadRequest(w, "status must be completed or failed")
		return
	}

	if err := h.store.MarkCommand(r.Context(), id, req.Status); err != nil {
		if errors.Is(err, models.ErrCommandNotFound) {
			NotFound(w, "no command with id "+strconv.FormatUint(id, 10))
			return
		}
		InternalServerError(w, err.Error())
		return
	}

	WriteJSONOK(w, map[string]any{"id": id, "status": req.Status})
}
