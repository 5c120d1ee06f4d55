package api

import (
	"github.com/alexivanou/gazetteer/internal/metrics"
	"github.com/alexivanou/gazetteer/internal/service"
	"github.com/alexivanou/gazetteer/internal/stats"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// NewRouter creates a new HTTP router
func NewRouter(service service.ServiceInterface, statsCollector *stats.Collector, logger *zap.Logger) *mux.Router {
	handler := NewHandler(service, logger)
	statsHandler := NewStatsHandler(statsCollector, logger)

	router := mux.NewRouter()
	router.Use(metricsMiddleware)

	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	router.Handle("/metrics", metrics.Handler()).Methods("GET")

	// API v1
	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/countries", handler.ListCountries).Methods("GET")
	v1.HandleFunc("/countries/{id}/cities", handler.ListCitiesInCountry).Methods("GET")
	v1.HandleFunc("/nearest", handler.FindNearestCity).Methods("GET")
	v1.HandleFunc("/city/{id}", handler.GetCity).Methods("GET")
	v1.HandleFunc("/city/{id}/around", handler.CitiesAroundCity).Methods("GET")
	v1.HandleFunc("/cities/lookup", handler.LookupCity).Methods("GET")
	v1.HandleFunc("/cities/{country}/{region}/{city}", handler.GetCityByURL).Methods("GET")
	v1.HandleFunc("/autocomplete", handler.Autocomplete).Methods("GET")
	v1.HandleFunc("/languages", handler.GetAvailableLanguages).Methods("GET")
	v1.HandleFunc("/stats", statsHandler.GetStats).Methods("GET")

	return router
}
