package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexivanou/gazetteer/internal/model"
	"github.com/alexivanou/gazetteer/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockService is a mock implementation of ServiceInterface
type MockService struct {
	mock.Mock
}

func (m *MockService) ListCountries(ctx context.Context, lang string) ([]model.NamedItem, error) {
	args := m.Called(ctx, lang)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.NamedItem), args.Error(1)
}

func (m *MockService) ListCitiesInCountry(ctx context.Context, countryID int, lang string, minPopulation int64, maxResults int) ([]model.NamedItem, error) {
	args := m.Called(ctx, countryID, lang, minPopulation, maxResults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.NamedItem), args.Error(1)
}

func (m *MockService) FindNearestCity(ctx context.Context, lat, lng float64, lang string) (*model.NearestCityResponse, error) {
	args := m.Called(ctx, lat, lng, lang)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.NearestCityResponse), args.Error(1)
}

func (m *MockService) city(args mock.Arguments) (*model.CityDetail, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CityDetail), args.Error(1)
}

func (m *MockService) FindCityByCompositeName(ctx context.Context, crc, lang string) (*model.CityDetail, error) {
	return m.city(m.Called(ctx, crc, lang))
}

func (m *MockService) FindCityByURLPath(ctx context.Context, country, region, city, lang string) (*model.CityDetail, error) {
	return m.city(m.Called(ctx, country, region, city, lang))
}

func (m *MockService) GetCityByID(ctx context.Context, id int, lang string) (*model.CityDetail, error) {
	return m.city(m.Called(ctx, id, lang))
}

func (m *MockService) Autocomplete(ctx context.Context, req model.AutocompleteRequest) (*model.AutocompleteResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AutocompleteResponse), args.Error(1)
}

func (m *MockService) CitiesAroundCity(ctx context.Context, id int, distanceKm float64, lang string) ([]model.CityDetail, error) {
	args := m.Called(ctx, id, distanceKm, lang)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CityDetail), args.Error(1)
}

func (m *MockService) GetAvailableLanguages(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func serve(ms *MockService, target string) *httptest.ResponseRecorder {
	router := NewRouter(ms, nil, zap.NewNop())
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", target, nil))
	return rr
}

func TestHandler_Autocomplete(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		mockSetup      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "successful request",
			target: "/api/v1/autocomplete?q=Ham&lang=de&size=5",
			mockSetup: func(ms *MockService) {
				ms.On("Autocomplete", mock.Anything, model.AutocompleteRequest{Query: "Ham", Language: "de", Limit: 5}).
					Return(&model.AutocompleteResponse{Results: []any{"Hamburg, Hamburg, Deutschland"}}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"results":["Hamburg, Hamburg, Deutschland"]}`,
		},
		{
			name:   "fields are split",
			target: "/api/v1/autocomplete?q=Ham&fields=id,composite_name",
			mockSetup: func(ms *MockService) {
				ms.On("Autocomplete", mock.Anything, model.AutocompleteRequest{Query: "Ham", Fields: []string{"id", "composite_name"}}).
					Return(&model.AutocompleteResponse{Results: []any{[]any{2911298, "Hamburg, Hamburg, Germany"}}}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"results":[[2911298,"Hamburg, Hamburg, Germany"]]}`,
		},
		{
			name:   "query too short",
			target: "/api/v1/autocomplete?q=H",
			mockSetup: func(ms *MockService) {
				ms.On("Autocomplete", mock.Anything, mock.Anything).
					Return(nil, fmt.Errorf("query must be at least 2 characters: %w", model.ErrInvalidArgument))
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid size",
			target:         "/api/v1/autocomplete?q=Ham&size=abc",
			mockSetup:      func(ms *MockService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "service error",
			target: "/api/v1/autocomplete?q=Ham",
			mockSetup: func(ms *MockService) {
				ms.On("Autocomplete", mock.Anything, mock.Anything).Return(nil, errors.New("database error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := new(MockService)
			tt.mockSetup(ms)

			rr := serve(ms, tt.target)
			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, rr.Body.String())
			}
			ms.AssertExpectations(t)
		})
	}
}

func TestHandler_FindNearestCity(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		mockSetup      func(*MockService)
		expectedStatus int
	}{
		{
			name:   "successful request",
			target: "/api/v1/nearest?lat=53.55&lng=9.99&lang=en",
			mockSetup: func(ms *MockService) {
				ms.On("FindNearestCity", mock.Anything, 53.55, 9.99, "en").Return(&model.NearestCityResponse{
					City:       model.CityDetail{ID: 2911298, Name: "Hamburg"},
					DistanceKm: 0.4,
				}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing lng",
			target:         "/api/v1/nearest?lat=53.55",
			mockSetup:      func(ms *MockService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "nothing nearby",
			target: "/api/v1/nearest?lat=-85&lng=0",
			mockSetup: func(ms *MockService) {
				ms.On("FindNearestCity", mock.Anything, -85.0, 0.0, "").Return(nil, model.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := new(MockService)
			tt.mockSetup(ms)

			rr := serve(ms, tt.target)
			assert.Equal(t, tt.expectedStatus, rr.Code)
			ms.AssertExpectations(t)
		})
	}
}

func TestHandler_GetCity(t *testing.T) {
	ms := new(MockService)
	ms.On("GetCityByID", mock.Anything, 2911298, "de").Return(&model.CityDetail{ID: 2911298, Name: "Hamburg"}, nil)
	ms.On("GetCityByID", mock.Anything, 1, "").Return(nil, fmt.Errorf("city 1: %w", model.ErrNotFound))

	rr := serve(ms, "/api/v1/city/2911298?lang=de")
	require.Equal(t, http.StatusOK, rr.Code)
	var city model.CityDetail
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &city))
	assert.Equal(t, "Hamburg", city.Name)

	assert.Equal(t, http.StatusNotFound, serve(ms, "/api/v1/city/1").Code)
	assert.Equal(t, http.StatusBadRequest, serve(ms, "/api/v1/city/abc").Code)
}

func TestHandler_CitiesAroundCity(t *testing.T) {
	ms := new(MockService)
	ms.On("CitiesAroundCity", mock.Anything, 2911298, float64(service.DefaultAroundDistanceKm), "").
		Return([]model.CityDetail{{ID: 2911298}}, nil)
	ms.On("CitiesAroundCity", mock.Anything, 2911298, 5.5, "").Return([]model.CityDetail{}, nil)

	assert.Equal(t, http.StatusOK, serve(ms, "/api/v1/city/2911298/around").Code)
	assert.Equal(t, http.StatusOK, serve(ms, "/api/v1/city/2911298/around?distance=5.5").Code)
	assert.Equal(t, http.StatusBadRequest, serve(ms, "/api/v1/city/2911298/around?distance=-1").Code)
	ms.AssertExpectations(t)
}

func TestHandler_Countries(t *testing.T) {
	ms := new(MockService)
	ms.On("ListCountries", mock.Anything, "en").Return([]model.NamedItem{{ID: 2921044, Name: "Germany"}}, nil)
	ms.On("ListCitiesInCountry", mock.Anything, 2921044, "", int64(service.DefaultMinPopulation), service.DefaultMaxCities).
		Return([]model.NamedItem{{ID: 2911298, Name: "Hamburg, Hamburg, Germany"}}, nil)
	ms.On("ListCitiesInCountry", mock.Anything, 999, "", int64(100), 5).Return(nil, model.ErrNotFound)

	rr := serve(ms, "/api/v1/countries?lang=en")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[[2921044,"Germany"]]`, rr.Body.String())

	rr = serve(ms, "/api/v1/countries/2921044/cities")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[[2911298,"Hamburg, Hamburg, Germany"]]`, rr.Body.String())

	assert.Equal(t, http.StatusNotFound, serve(ms, "/api/v1/countries/999/cities?population=100&size=5").Code)
	assert.Equal(t, http.StatusBadRequest, serve(ms, "/api/v1/countries/2921044/cities?size=0").Code)
	ms.AssertExpectations(t)
}

func TestHandler_Lookups(t *testing.T) {
	ms := new(MockService)
	ms.On("FindCityByCompositeName", mock.Anything, "Hamburg, Hamburg, Germany", "").Return(&model.CityDetail{ID: 2911298}, nil)
	ms.On("FindCityByURLPath", mock.Anything, "germany", "hamburg", "hamburg", "en").Return(&model.CityDetail{ID: 2911298}, nil)

	assert.Equal(t, http.StatusOK, serve(ms, "/api/v1/cities/lookup?crc=Hamburg%2C+Hamburg%2C+Germany").Code)
	assert.Equal(t, http.StatusBadRequest, serve(ms, "/api/v1/cities/lookup").Code)
	assert.Equal(t, http.StatusOK, serve(ms, "/api/v1/cities/germany/hamburg/hamburg?lang=en").Code)
	ms.AssertExpectations(t)
}

func TestHandler_GetAvailableLanguages(t *testing.T) {
	ms := new(MockService)
	ms.On("GetAvailableLanguages", mock.Anything).Return([]string{"de", "en"}, nil)

	rr := serve(ms, "/api/v1/languages")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"languages":["de","en"],"count":2}`, rr.Body.String())
}

func TestHandler_HealthAndMetrics(t *testing.T) {
	ms := new(MockService)

	rr := serve(ms, "/health")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())

	rr = serve(ms, "/metrics")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "gazetteer_http_requests_total")
}
