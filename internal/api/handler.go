package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/alexivanou/gazetteer/internal/model"
	"github.com/alexivanou/gazetteer/internal/service"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Handler handles HTTP requests
type Handler struct {
	service service.ServiceInterface
	logger  *zap.Logger
}

// NewHandler creates a new handler instance
func NewHandler(service service.ServiceInterface, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Error encoding response", zap.Error(err))
	}
}

// writeError maps service errors onto HTTP status codes
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, model.ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("Request failed", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func pathID(r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	return id, err == nil
}

// queryInt parses an optional integer parameter
func queryInt(r *http.Request, name string, def int) (int, bool) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, true
	}
	v, err := strconv.Atoi(s)
	return v, err == nil
}

func queryFloat(r *http.Request, name string) (float64, bool) {
	v, err := strconv.ParseFloat(r.URL.Query().Get(name), 64)
	return v, err == nil
}

// ListCountries handles GET /api/v1/countries
func (h *Handler) ListCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := h.service.ListCountries(r.Context(), r.URL.Query().Get("lang"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, countries)
}

// ListCitiesInCountry handles GET /api/v1/countries/{id}/cities
func (h *Handler) ListCitiesInCountry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid country id", http.StatusBadRequest)
		return
	}
	population, ok := queryInt(r, "population", service.DefaultMinPopulation)
	if !ok || population < 0 {
		http.Error(w, "invalid population parameter", http.StatusBadRequest)
		return
	}
	size, ok := queryInt(r, "size", service.DefaultMaxCities)
	if !ok || size <= 0 {
		http.Error(w, "invalid size parameter", http.StatusBadRequest)
		return
	}

	cities, err := h.service.ListCitiesInCountry(r.Context(), id, r.URL.Query().Get("lang"), int64(population), size)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, cities)
}

// FindNearestCity handles GET /api/v1/nearest
func (h *Handler) FindNearestCity(w http.ResponseWriter, r *http.Request) {
	lat, latOK := queryFloat(r, "lat")
	lng, lngOK := queryFloat(r, "lng")
	if !latOK || !lngOK {
		http.Error(w, "numeric parameters 'lat' and 'lng' are required", http.StatusBadRequest)
		return
	}

	response, err := h.service.FindNearestCity(r.Context(), lat, lng, r.URL.Query().Get("lang"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, response)
}

// GetCity handles GET /api/v1/city/{id}
func (h *Handler) GetCity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid city id", http.StatusBadRequest)
		return
	}

	city, err := h.service.GetCityByID(r.Context(), id, r.URL.Query().Get("lang"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, city)
}

// CitiesAroundCity handles GET /api/v1/city/{id}/around
func (h *Handler) CitiesAroundCity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid city id", http.StatusBadRequest)
		return
	}
	distance := float64(service.DefaultAroundDistanceKm)
	if r.URL.Query().Get("distance") != "" {
		if distance, ok = queryFloat(r, "distance"); !ok || distance <= 0 {
			http.Error(w, "invalid distance parameter", http.StatusBadRequest)
			return
		}
	}

	cities, err := h.service.CitiesAroundCity(r.Context(), id, distance, r.URL.Query().Get("lang"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, cities)
}

// LookupCity handles GET /api/v1/cities/lookup?crc=
func (h *Handler) LookupCity(w http.ResponseWriter, r *http.Request) {
	crc := r.URL.Query().Get("crc")
	if crc == "" {
		http.Error(w, "query parameter 'crc' is required", http.StatusBadRequest)
		return
	}

	city, err := h.service.FindCityByCompositeName(r.Context(), crc, r.URL.Query().Get("lang"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, city)
}

// GetCityByURL handles GET /api/v1/cities/{country}/{region}/{city}
func (h *Handler) GetCityByURL(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	city, err := h.service.FindCityByURLPath(r.Context(), vars["country"], vars["region"], vars["city"], r.URL.Query().Get("lang"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, city)
}

// Autocomplete handles GET /api/v1/autocomplete
func (h *Handler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	size, ok := queryInt(r, "size", 0)
	if !ok || size < 0 {
		http.Error(w, "invalid size parameter", http.StatusBadRequest)
		return
	}

	req := model.AutocompleteRequest{
		Query:    r.URL.Query().Get("q"),
		Language: r.URL.Query().Get("lang"),
		Limit:    size,
	}
	if fields := r.URL.Query().Get("fields"); fields != "" {
		req.Fields = strings.Split(fields, ",")
	}

	response, err := h.service.Autocomplete(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, response)
}

// GetAvailableLanguages handles GET /api/v1/languages
func (h *Handler) GetAvailableLanguages(w http.ResponseWriter, r *http.Request) {
	languages, err := h.service.GetAvailableLanguages(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, map[string]interface{}{
		"languages": languages,
		"count":     len(languages),
	})
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
