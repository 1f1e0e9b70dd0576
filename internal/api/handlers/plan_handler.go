// internal/api/handlers/plan_handler.go
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/fawad-mazhar/delos/internal/models"
	"github.com/fawad-mazhar/delos/internal/orchestrator"
	"github.com/go-chi/chi/v5"
)

type PlanHandler struct {
	orchestrator *orchestrator.Orchestrator
}

func NewPlanHandler(o *orchestrator.Orchestrator) *PlanHandler {
	return &PlanHandler{
		orchestrator: o,
	}
}

func (h *PlanHandler) CreateLoadPlan(w http.ResponseWriter, r *http.Request) {
	var plan models.LoadPlan
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.orchestrator.RegisterPlan(&plan); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Load plan created successfully",
		"id":      plan.ID,
	})
}

func (h *PlanHandler) GetLoadPlan(w http.ResponseWriter, r *http.Request) {
	planID := chi.URLParam(r, "id")

	plan, err := h.orchestrator.GetPlan(planID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	json.NewEncoder(w).Encode(plan)
}

func (h *PlanHandler) ExecutePlan(w http.ResponseWriter, r *http.Request) {
	planID := chi.URLParam(r, "id")

	// Parse optional execution data
	var data map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		data = make(map[string]interface{})
	}

	executionID, err := h.orchestrator.ExecutePlan(planID, data)
	if err != nil {
		status := http.StatusInternalServerError
		if strings.Contains(err.Error(), "not found") {
			status = http.StatusNotFound
		} else if strings.Contains(err.Error(), "cycle") {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{
		"message":     "Load plan scheduled successfully",
		"executionId": executionID,
	})
}

func (h *PlanHandler) GetExecutionStatus(w http.ResponseWriter, r *http.Request) {
	executionID := chi.URLParam(r, "id")

	state, err := h.orchestrator.ExecutionState(executionID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	json.NewEncoder(w).Encode(state)
}

func (h *PlanHandler) CancelExecution(w http.ResponseWriter, r *http.Request) {
	executionID := chi.URLParam(r, "id")

	if err := h.orchestrator.CancelExecution(executionID); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	json.NewEncoder(w).Encode(map[string]string{
		"message": "Execution canceled",
		"id":      executionID,
	})
}

type prioritizeRequest struct {
	JobID    string `json:"jobId"`
	Priority int64  `json:"priority"`
}

func (h *PlanHandler) PrioritizeJob(w http.ResponseWriter, r *http.Request) {
	executionID := chi.URLParam(r, "id")

	var req prioritizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.orchestrator.PrioritizeJob(executionID, req.JobID, req.Priority); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	json.NewEncoder(w).Encode(map[string]string{
		"message": "Job prioritized",
		"jobId":   req.JobID,
	})
}
