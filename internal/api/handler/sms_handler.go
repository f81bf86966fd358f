package handler

import (
	"encoding/json"
	"net/http"

	"trackmate/internal/sms"
)

// SmsHandler is the HTTP alternative to the MQTT inbound topic, for
// gateways that can only POST a webhook per received text.
type SmsHandler struct {
	router *sms.Router
}

func NewSmsHandler(router *sms.Router) *SmsHandler {
	return &SmsHandler{
		router: router,
	}
}

type inboundSmsRequest struct {
	Sender string `json:"sender"`
	Body   string `json:"body"`
}

func (h *SmsHandler) Inbound(w http.ResponseWriter, r *http.Request) {
	var req inboundSmsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Sender == "" {
		http.Error(w, "Sender required", http.StatusBadRequest)
		return
	}

	h.router.HandleMessage(req.Sender, req.Body)
	w.WriteHeader(http.StatusAccepted)
}
