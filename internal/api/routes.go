package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Valuation reads
	api.HandleFunc("/portfolios/{id}/summary", handler.GetPortfolioSummary).Methods("GET")
	api.HandleFunc("/portfolios/{id}/quotes", handler.GetPortfolioQuotes).Methods("GET")
	api.HandleFunc("/users/{userId}/portfolios/summary", handler.GetUserSummaries).Methods("GET")

	// Invalidation hooks
	api.HandleFunc("/portfolios/{id}/invalidate", handler.InvalidatePortfolio).Methods("POST")
	api.HandleFunc("/users/{userId}/invalidate", handler.InvalidateUser).Methods("POST")
	api.HandleFunc("/portfolios/{id}/positions", handler.DeletePositions).Methods("DELETE")

	// Manual job triggers
	api.HandleFunc("/jobs/alerts", handler.TriggerAlerts).Methods("POST")
	api.HandleFunc("/jobs/snapshots", handler.TriggerSnapshots).Methods("POST")

	return r
}
