package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexivanou/gazetteer/internal/config"
	"github.com/alexivanou/gazetteer/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mocks struct {
	country *MockCountryRepository
	city    *MockCityRepository
	altName *MockAltNameRepository
}

func newMockService(ttl time.Duration) (*Service, mocks) {
	m := mocks{
		country: new(MockCountryRepository),
		city:    new(MockCityRepository),
		altName: new(MockAltNameRepository),
	}
	svc := NewService(m.country, m.city, m.altName, []string{"en", "de"}, config.QueryConfig{
		DefaultLanguage:       "en",
		AutocompleteMinLength: 2,
		CacheTTL:              ttl,
	})
	return svc, m
}

func ptr(f float64) *float64 { return &f }

var hamburg = model.City{ID: 2911298, Name: "Hamburg", Lat: 53.55073, Lng: 9.99302, Population: 1845229, RegionID: 2911297, CountryID: 2921044, Timezone: "Europe/Berlin"}

func hamburgMain(lang string) *model.AltName {
	return &model.AltName{
		ID: 1, Ref: model.CityRef(2911298), Language: lang, Name: "Hamburg", Slug: "hamburg", IsMain: true,
		CountryID: 2921044, RegionID: 2911297, Lat: ptr(53.55073), Lng: ptr(9.99302),
		CRC: "Hamburg, Hamburg, Germany", URL: "germany/hamburg/hamburg",
	}
}

func TestGetCityByID(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		svc, m := newMockService(0)
		m.city.On("GetCityByID", ctx, 2911298).Return(&hamburg, nil)
		m.altName.On("GetMainName", ctx, model.CityRef(2911298), "en").Return(hamburgMain("en"), nil)

		result, err := svc.GetCityByID(ctx, 2911298, "")
		require.NoError(t, err)
		assert.Equal(t, "Hamburg", result.Name)
		assert.Equal(t, "Hamburg, Hamburg, Germany", result.CompositeName)
		assert.Equal(t, "germany/hamburg/hamburg", result.URL)
		assert.Equal(t, model.Coordinate{Lat: 53.55073, Lng: 9.99302}, result.Coordinates)
		assert.Equal(t, "Europe/Berlin", result.Timezone)
		m.city.AssertExpectations(t)
		m.altName.AssertExpectations(t)
	})

	t.Run("City not found", func(t *testing.T) {
		svc, m := newMockService(0)
		m.city.On("GetCityByID", ctx, 999).Return(nil, nil)

		_, err := svc.GetCityByID(ctx, 999, "en")
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("No main name", func(t *testing.T) {
		svc, m := newMockService(0)
		m.city.On("GetCityByID", ctx, 2911298).Return(&hamburg, nil)
		m.altName.On("GetMainName", ctx, model.CityRef(2911298), "de").Return(nil, nil)

		_, err := svc.GetCityByID(ctx, 2911298, "de")
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("Unconfigured language", func(t *testing.T) {
		svc, m := newMockService(0)
		_, err := svc.GetCityByID(ctx, 2911298, "xx")
		assert.ErrorIs(t, err, model.ErrInvalidArgument)
		m.city.AssertNotCalled(t, "GetCityByID", mock.Anything, mock.Anything)
	})

	t.Run("Repository error", func(t *testing.T) {
		svc, m := newMockService(0)
		m.city.On("GetCityByID", ctx, 1).Return(nil, errors.New("db down"))

		_, err := svc.GetCityByID(ctx, 1, "en")
		require.Error(t, err)
		assert.NotErrorIs(t, err, model.ErrNotFound)
		assert.Contains(t, err.Error(), "db down")
	})
}

func TestFindNearestCity(t *testing.T) {
	ctx := context.Background()

	t.Run("Expands radius until a city is found", func(t *testing.T) {
		svc, m := newMockService(0)
		near := model.City{ID: 20, Lat: 53.6, Lng: 10.0}
		far := model.City{ID: 10, Lat: 54.0, Lng: 10.5}

		m.city.On("FindCitiesInBox", ctx, mock.Anything).Return([]model.City{}, nil).Once()
		m.city.On("FindCitiesInBox", ctx, mock.Anything).Return([]model.City{far, near}, nil).Once()
		m.altName.On("GetMainName", ctx, model.CityRef(20), "en").Return(&model.AltName{ID: 5, Ref: model.CityRef(20), Name: "Near"}, nil)

		result, err := svc.FindNearestCity(ctx, 53.55, 9.99, "en")
		require.NoError(t, err)
		assert.Equal(t, 20, result.City.ID)
		assert.Equal(t, "Near", result.City.Name)
		assert.Equal(t, model.Coordinate{Lat: 53.55, Lng: 9.99}, result.RequestCoordinates)
		assert.InDelta(t, 5.7, result.DistanceKm, 0.5)
		m.city.AssertNumberOfCalls(t, "FindCitiesInBox", 2)
	})

	t.Run("Tie goes to lowest id", func(t *testing.T) {
		svc, m := newMockService(0)
		m.city.On("FindCitiesInBox", ctx, mock.Anything).Return([]model.City{
			{ID: 30, Lat: 1, Lng: 0},
			{ID: 7, Lat: -1, Lng: 0},
		}, nil)
		m.altName.On("GetMainName", ctx, model.CityRef(7), "en").Return(&model.AltName{ID: 1, Ref: model.CityRef(7)}, nil)

		result, err := svc.FindNearestCity(ctx, 0, 0, "en")
		require.NoError(t, err)
		assert.Equal(t, 7, result.City.ID)
	})

	t.Run("Nothing within the largest radius", func(t *testing.T) {
		svc, m := newMockService(0)
		m.city.On("FindCitiesInBox", ctx, mock.Anything).Return([]model.City{}, nil)

		_, err := svc.FindNearestCity(ctx, -80, 0, "en")
		assert.ErrorIs(t, err, model.ErrNotFound)
		m.city.AssertNumberOfCalls(t, "FindCitiesInBox", 6)
	})

	t.Run("Invalid coordinates", func(t *testing.T) {
		svc, _ := newMockService(0)
		_, err := svc.FindNearestCity(ctx, 91, 0, "en")
		assert.ErrorIs(t, err, model.ErrInvalidArgument)
	})
}

func TestFindCityByCompositeNameAndURL(t *testing.T) {
	ctx := context.Background()
	svc, m := newMockService(0)
	m.altName.On("FindCityMainByCRC", ctx, "Hamburg, Hamburg, Germany", "en").Return(hamburgMain("en"), nil)
	m.altName.On("FindCityMainByCRC", ctx, "Nowhere", "en").Return(nil, nil)
	m.altName.On("FindCityMainByURL", ctx, "germany/hamburg/hamburg", "en").Return(hamburgMain("en"), nil)
	m.city.On("GetCityByID", ctx, 2911298).Return(&hamburg, nil)

	byCRC, err := svc.FindCityByCompositeName(ctx, "Hamburg, Hamburg, Germany", "en")
	require.NoError(t, err)
	assert.Equal(t, 2911298, byCRC.ID)

	byURL, err := svc.FindCityByURLPath(ctx, "germany", "hamburg", "hamburg", "en")
	require.NoError(t, err)
	assert.Equal(t, byCRC, byURL)

	_, err = svc.FindCityByCompositeName(ctx, "Nowhere", "en")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = svc.FindCityByURLPath(ctx, "germany", "", "hamburg", "en")
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}

func TestCitiesAroundCity(t *testing.T) {
	ctx := context.Background()
	svc, m := newMockService(0)

	farther := model.City{ID: 3, Lat: 53.7, Lng: 10.1}
	unnamed := model.City{ID: 4, Lat: 53.56, Lng: 9.99}
	m.city.On("GetCityByID", ctx, 2911298).Return(&hamburg, nil)
	m.city.On("FindCitiesInBox", ctx, mock.Anything).Return([]model.City{farther, hamburg, unnamed}, nil)
	m.altName.On("GetCityMainNames", ctx, []int{2911298, 4, 3}, "en").Return([]model.AltName{
		{ID: 9, Ref: model.CityRef(3), Name: "Farther"},
		*hamburgMain("en"),
	}, nil)

	result, err := svc.CitiesAroundCity(ctx, 2911298, 0, "en")
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, 2911298, result[0].ID)
	assert.Equal(t, 3, result[1].ID)

	m.city.On("GetCityByID", ctx, 1).Return(nil, nil)
	_, err = svc.CitiesAroundCity(ctx, 1, 20, "en")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestAutocomplete(t *testing.T) {
	ctx := context.Background()

	mainRow := func(id int, crc string) model.AltName {
		return model.AltName{ID: int64(id), Ref: model.CityRef(id), Name: crc, CRC: crc, Lat: ptr(1.5)}
	}

	t.Run("Prefix then substring, deduplicated", func(t *testing.T) {
		svc, m := newMockService(0)
		m.altName.On("SearchCityMainsByPrefix", ctx, "ham", "en", 20).Return([]model.AltName{
			mainRow(1, "Hamburg, Hamburg, Germany"),
			mainRow(2, "Hamm, North Rhine-Westphalia, Germany"),
		}, nil)
		m.altName.On("SearchCityMainsBySubstring", ctx, "ham", "en", 18).Return([]model.AltName{
			mainRow(3, "Hamm, North Rhine-Westphalia, Germany"),
			mainRow(4, "New Hamburg, Ontario, Canada"),
		}, nil)

		result, err := svc.Autocomplete(ctx, model.AutocompleteRequest{Query: "ham"})
		require.NoError(t, err)
		assert.Equal(t, []any{
			"Hamburg, Hamburg, Germany",
			"Hamm, North Rhine-Westphalia, Germany",
			"New Hamburg, Ontario, Canada",
		}, result.Results)
	})

	t.Run("Full prefix page skips substring search", func(t *testing.T) {
		svc, m := newMockService(0)
		m.altName.On("SearchCityMainsByPrefix", ctx, "ham", "de", 1).Return([]model.AltName{mainRow(1, "Hamburg")}, nil)

		result, err := svc.Autocomplete(ctx, model.AutocompleteRequest{Query: "ham", Language: "de", Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, []any{"Hamburg"}, result.Results)
		m.altName.AssertNotCalled(t, "SearchCityMainsBySubstring", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Several fields yield tuples", func(t *testing.T) {
		svc, m := newMockService(0)
		m.altName.On("SearchCityMainsByPrefix", ctx, "ha", "en", 20).Return([]model.AltName{mainRow(1, "Hamburg")}, nil)
		m.altName.On("SearchCityMainsBySubstring", ctx, "ha", "en", 19).Return([]model.AltName{}, nil)

		result, err := svc.Autocomplete(ctx, model.AutocompleteRequest{Query: "ha", Fields: []string{"id", "composite_name", "lat"}})
		require.NoError(t, err)
		assert.Equal(t, []any{[]any{1, "Hamburg", 1.5}}, result.Results)
	})

	t.Run("Invalid requests", func(t *testing.T) {
		svc, m := newMockService(0)
		_, err := svc.Autocomplete(ctx, model.AutocompleteRequest{Query: "H"})
		assert.ErrorIs(t, err, model.ErrInvalidArgument)

		_, err = svc.Autocomplete(ctx, model.AutocompleteRequest{Query: "Hamburg", Fields: []string{"population"}})
		assert.ErrorIs(t, err, model.ErrInvalidArgument)

		// two runes, four bytes
		m.altName.On("SearchCityMainsByPrefix", ctx, "Üß", "en", 20).Return([]model.AltName{}, nil)
		m.altName.On("SearchCityMainsBySubstring", ctx, "Üß", "en", 20).Return([]model.AltName{}, nil)
		result, err := svc.Autocomplete(ctx, model.AutocompleteRequest{Query: "Üß"})
		require.NoError(t, err)
		assert.Empty(t, result.Results)
	})
}
