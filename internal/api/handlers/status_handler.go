// internal/api/handlers/status_handler.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/fawad-mazhar/delos/internal/orchestrator"
)

type StatusHandler struct {
	orchestrator *orchestrator.Orchestrator
}

func NewStatusHandler(o *orchestrator.Orchestrator) *StatusHandler {
	return &StatusHandler{
		orchestrator: o,
	}
}

func (h *StatusHandler) GetSystemStatus(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(h.orchestrator.SystemState())
}

type maxThreadsRequest struct {
	MaxThreads int `json:"maxThreads"`
}

func (h *StatusHandler) SetMaxThreads(w http.ResponseWriter, r *http.Request) {
	var req maxThreadsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.orchestrator.SetMaxThreads(req.MaxThreads); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	json.NewEncoder(w).Encode(map[string]int{
		"maxThreads": req.MaxThreads,
	})
}
