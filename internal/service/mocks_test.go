package service

import (
	"context"

	"github.com/alexivanou/gazetteer/internal/geo"
	"github.com/alexivanou/gazetteer/internal/model"
	"github.com/stretchr/testify/mock"
)

// MockCountryRepository implements repository.CountryRepository interface
type MockCountryRepository struct {
	mock.Mock
}

func (m *MockCountryRepository) UpsertCountries(ctx context.Context, countries []model.Country) error {
	args := m.Called(ctx, countries)
	return args.Error(0)
}

func (m *MockCountryRepository) ListCountries(ctx context.Context) ([]model.Country, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Country), args.Error(1)
}

func (m *MockCountryRepository) GetCountryByID(ctx context.Context, id int) (*model.Country, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Country), args.Error(1)
}

// MockCityRepository implements repository.CityRepository interface
type MockCityRepository struct {
	mock.Mock
}

func (m *MockCityRepository) UpsertCities(ctx context.Context, cities []model.City) error {
	args := m.Called(ctx, cities)
	return args.Error(0)
}

func (m *MockCityRepository) ListCities(ctx context.Context) ([]model.City, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.City), args.Error(1)
}

func (m *MockCityRepository) GetCityByID(ctx context.Context, id int) (*model.City, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.City), args.Error(1)
}

func (m *MockCityRepository) FindCitiesInBox(ctx context.Context, box geo.BoundingBox) ([]model.City, error) {
	args := m.Called(ctx, box)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.City), args.Error(1)
}

// MockAltNameRepository implements repository.AltNameRepository interface
type MockAltNameRepository struct {
	mock.Mock
}

func (m *MockAltNameRepository) names(args mock.Arguments) ([]model.AltName, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AltName), args.Error(1)
}

func (m *MockAltNameRepository) name(args mock.Arguments) (*model.AltName, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AltName), args.Error(1)
}

func (m *MockAltNameRepository) InsertAltNames(ctx context.Context, names []model.AltName) error {
	return m.Called(ctx, names).Error(0)
}

func (m *MockAltNameRepository) DeleteAllAltNames(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockAltNameRepository) ListAltNames(ctx context.Context, t model.EntityType, lang string) ([]model.AltName, error) {
	return m.names(m.Called(ctx, t, lang))
}

func (m *MockAltNameRepository) UpdateMainFlags(ctx context.Context, setIDs, clearIDs []int64) error {
	return m.Called(ctx, setIDs, clearIDs).Error(0)
}

func (m *MockAltNameRepository) UpdateComposites(ctx context.Context, updates []model.CompositeUpdate) error {
	return m.Called(ctx, updates).Error(0)
}

func (m *MockAltNameRepository) ListMainNames(ctx context.Context, t model.EntityType, lang string) ([]model.AltName, error) {
	return m.names(m.Called(ctx, t, lang))
}

func (m *MockAltNameRepository) GetMainName(ctx context.Context, ref model.GeoRef, lang string) (*model.AltName, error) {
	return m.name(m.Called(ctx, ref, lang))
}

func (m *MockAltNameRepository) GetCityMainNames(ctx context.Context, cityIDs []int, lang string) ([]model.AltName, error) {
	return m.names(m.Called(ctx, cityIDs, lang))
}

func (m *MockAltNameRepository) FindCityMainByCRC(ctx context.Context, crc, lang string) (*model.AltName, error) {
	return m.name(m.Called(ctx, crc, lang))
}

func (m *MockAltNameRepository) FindCityMainByURL(ctx context.Context, url, lang string) (*model.AltName, error) {
	return m.name(m.Called(ctx, url, lang))
}

func (m *MockAltNameRepository) SearchCityMainsByPrefix(ctx context.Context, query, lang string, limit int) ([]model.AltName, error) {
	return m.names(m.Called(ctx, query, lang, limit))
}

func (m *MockAltNameRepository) SearchCityMainsBySubstring(ctx context.Context, query, lang string, limit int) ([]model.AltName, error) {
	return m.names(m.Called(ctx, query, lang, limit))
}

func (m *MockAltNameRepository) ListCityMainsInCountry(ctx context.Context, countryID int, lang string, minPopulation int64, limit int) ([]model.AltName, error) {
	return m.names(m.Called(ctx, countryID, lang, minPopulation, limit))
}

func (m *MockAltNameRepository) GetAvailableLanguages(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
