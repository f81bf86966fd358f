package handler

import (
	"encoding/json"
	"net/http"

	"trackmate/internal/core/service"
)

type CommandHandler struct {
	commandService service.CommandService
	pollingService service.PollingService
	locatorNumber  string
}

func NewCommandHandler(commandService service.CommandService, pollingService service.PollingService, locatorNumber string) *CommandHandler {
	return &CommandHandler{
		commandService: commandService,
		pollingService: pollingService,
		locatorNumber:  locatorNumber,
	}
}

type sendCommandRequest struct {
	Action string `json:"action"`
}

func (h *CommandHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.commandService.Send(h.locatorNumber, req.Action); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "sent",
		"action": req.Action,
	})
}

// Session reports the polling state for the configured locator.
func (h *CommandHandler) Session(w http.ResponseWriter, r *http.Request) {
	session, err := h.pollingService.Session(h.locatorNumber)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if session == nil {
		http.Error(w, "No polling session yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(session)
}
