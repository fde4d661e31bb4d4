package routes

import (
	"net/http"

	"profiling-bundler/api/rest/handlers"

	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(r *mux.Router, jobHandler *handlers.JobHandler, dashboardHandler *handlers.DashboardHandler) {
	api := r.PathPrefix("/v1").Subrouter()

	// Profiling bundle endpoints
	api.HandleFunc("/profiling-bundles", jobHandler.SubmitJob).Methods("POST")
	api.HandleFunc("/profiling-bundles", jobHandler.ListJobs).Methods("GET")
	api.HandleFunc("/profiling-bundles/{id}", jobHandler.GetJob).Methods("GET")
	api.HandleFunc("/profiling-bundles/{id}/events", jobHandler.GetJobEvents).Methods("GET")
	api.HandleFunc("/profiling-bundles/{id}/artifacts", jobHandler.GetJobArtifacts).Methods("GET")
	api.HandleFunc("/profiling-bundles/{id}/inputs", jobHandler.GetJobInputs).Methods("GET")

	// Dashboard endpoints
	api.HandleFunc("/dashboard/summary", dashboardHandler.GetSummary).Methods("GET")
	r.HandleFunc("/metrics", dashboardHandler.GetMetrics).Methods("GET")

	// Health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")
}
