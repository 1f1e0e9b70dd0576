// internal/api/routes/routes.go
package routes

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fawad-mazhar/delos/internal/api/handlers"
	"github.com/fawad-mazhar/delos/internal/orchestrator"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func SetupRouter(o *orchestrator.Orchestrator) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			next.ServeHTTP(w, r)
		})
	})

	// Initialize handlers
	planHandler := handlers.NewPlanHandler(o)
	statusHandler := handlers.NewStatusHandler(o)

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Load plan endpoints
		r.Route("/load-plans", func(r chi.Router) {
			r.Post("/", planHandler.CreateLoadPlan)
			r.Get("/{id}", planHandler.GetLoadPlan)
			r.Post("/{id}/execute", planHandler.ExecutePlan)
		})

		// Execution endpoints
		r.Route("/executions", func(r chi.Router) {
			r.Get("/{id}/status", planHandler.GetExecutionStatus)
			r.Post("/{id}/cancel", planHandler.CancelExecution)
			r.Post("/{id}/prioritize", planHandler.PrioritizeJob)
		})

		// System endpoints
		r.Get("/system/status", statusHandler.GetSystemStatus)
		r.Put("/system/max-threads", statusHandler.SetMaxThreads)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	return r
}
