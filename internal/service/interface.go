package service

import (
	"context"

	"github.com/alexivanou/gazetteer/internal/model"
)

// ServiceInterface defines the service interface for testing
type ServiceInterface interface {
	ListCountries(ctx context.Context, lang string) ([]model.NamedItem, error)
	ListCitiesInCountry(ctx context.Context, countryID int, lang string, minPopulation int64, maxResults int) ([]model.NamedItem, error)
	FindNearestCity(ctx context.Context, lat, lng float64, lang string) (*model.NearestCityResponse, error)
	FindCityByCompositeName(ctx context.Context, crc, lang string) (*model.CityDetail, error)
	FindCityByURLPath(ctx context.Context, country, region, city, lang string) (*model.CityDetail, error)
	Autocomplete(ctx context.Context, req model.AutocompleteRequest) (*model.AutocompleteResponse, error)
	GetCityByID(ctx context.Context, id int, lang string) (*model.CityDetail, error)
	CitiesAroundCity(ctx context.Context, id int, distanceKm float64, lang string) ([]model.CityDetail, error)
	GetAvailableLanguages(ctx context.Context) ([]string, error)
}
