package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/alexivanou/gazetteer/internal/geo"
	"github.com/alexivanou/gazetteer/internal/model"
)

// DefaultAroundDistanceKm is the half side of the box used by CitiesAroundCity
const DefaultAroundDistanceKm = 20

// GetCityByID retrieves detailed information about a city
func (s *Service) GetCityByID(ctx context.Context, id int, lang string) (*model.CityDetail, error) {
	lang, err := s.language(lang)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	city, err := s.cityRepo.GetCityByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get city: %w", err)
	}
	if city == nil {
		return nil, fmt.Errorf("city %d: %w", id, model.ErrNotFound)
	}
	return s.detail(ctx, *city, lang)
}

// detail joins a city with its main name in lang
func (s *Service) detail(ctx context.Context, city model.City, lang string) (*model.CityDetail, error) {
	main, err := s.altNameRepo.GetMainName(ctx, model.CityRef(city.ID), lang)
	if err != nil {
		return nil, fmt.Errorf("failed to get city name: %w", err)
	}
	if main == nil {
		return nil, fmt.Errorf("main name of city %d in %q: %w", city.ID, lang, model.ErrNotFound)
	}
	d := model.NewCityDetail(city, *main)
	return &d, nil
}

// FindNearestCity finds the closest city to the given coordinates. The
// search box grows through geo.SearchRadiiKm until it holds a city.
func (s *Service) FindNearestCity(ctx context.Context, lat, lng float64, lang string) (*model.NearestCityResponse, error) {
	lang, err := s.language(lang)
	if err != nil {
		return nil, err
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 || math.IsNaN(lat) || math.IsNaN(lng) {
		return nil, fmt.Errorf("coordinates (%f, %f) out of range: %w", lat, lng, model.ErrInvalidArgument)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, radius := range geo.SearchRadiiKm {
		cities, err := s.cityRepo.FindCitiesInBox(ctx, geo.BoundingBoxAround(lat, lng, radius))
		if err != nil {
			return nil, fmt.Errorf("failed to find cities: %w", err)
		}
		if len(cities) == 0 {
			continue
		}

		nearest := closest(cities, lat, lng)
		detail, err := s.detail(ctx, nearest, lang)
		if err != nil {
			return nil, err
		}
		return &model.NearestCityResponse{
			City:               *detail,
			RequestCoordinates: model.Coordinate{Lat: lat, Lng: lng},
			DistanceKm:         geo.DistanceKm(lat, lng, nearest.Lat, nearest.Lng),
		}, nil
	}

	return nil, fmt.Errorf("no city within %.0f km of (%f, %f): %w",
		geo.SearchRadiiKm[len(geo.SearchRadiiKm)-1], lat, lng, model.ErrNotFound)
}

// closest picks the minimal flat degree distance, lowest id on a tie
func closest(cities []model.City, lat, lng float64) model.City {
	best := cities[0]
	bestDist := geo.DegreeDistance(lat, lng, best.Lat, best.Lng)
	for _, c := range cities[1:] {
		d := geo.DegreeDistance(lat, lng, c.Lat, c.Lng)
		if d < bestDist || (d == bestDist && c.ID < best.ID) {
			best, bestDist = c, d
		}
	}
	return best
}

// FindCityByCompositeName looks a city up by its "City, Region, Country" name
func (s *Service) FindCityByCompositeName(ctx context.Context, crc, lang string) (*model.CityDetail, error) {
	lang, err := s.language(lang)
	if err != nil {
		return nil, err
	}
	if crc == "" {
		return nil, fmt.Errorf("empty composite name: %w", model.ErrInvalidArgument)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	main, err := s.altNameRepo.FindCityMainByCRC(ctx, crc, lang)
	if err != nil {
		return nil, fmt.Errorf("failed to find city: %w", err)
	}
	if main == nil {
		return nil, fmt.Errorf("city %q: %w", crc, model.ErrNotFound)
	}
	return s.cityWithMain(ctx, *main)
}

// FindCityByURLPath looks a city up by its country/region/city slug path
func (s *Service) FindCityByURLPath(ctx context.Context, country, region, city, lang string) (*model.CityDetail, error) {
	lang, err := s.language(lang)
	if err != nil {
		return nil, err
	}
	if country == "" || region == "" || city == "" {
		return nil, fmt.Errorf("incomplete url path: %w", model.ErrInvalidArgument)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	path := country + "/" + region + "/" + city
	main, err := s.altNameRepo.FindCityMainByURL(ctx, path, lang)
	if err != nil {
		return nil, fmt.Errorf("failed to find city: %w", err)
	}
	if main == nil {
		return nil, fmt.Errorf("city %q: %w", path, model.ErrNotFound)
	}
	return s.cityWithMain(ctx, *main)
}

func (s *Service) cityWithMain(ctx context.Context, main model.AltName) (*model.CityDetail, error) {
	id := main.Ref.GeonameID()
	city, err := s.cityRepo.GetCityByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get city: %w", err)
	}
	if city == nil {
		return nil, fmt.Errorf("city %d: %w", id, model.ErrNotFound)
	}
	d := model.NewCityDetail(*city, main)
	return &d, nil
}

// CitiesAroundCity returns every city inside the box of half side
// distanceKm around the given city, the city itself included, nearest
// first. Cities without a main name in lang are left out.
func (s *Service) CitiesAroundCity(ctx context.Context, id int, distanceKm float64, lang string) ([]model.CityDetail, error) {
	lang, err := s.language(lang)
	if err != nil {
		return nil, err
	}
	if distanceKm <= 0 {
		distanceKm = DefaultAroundDistanceKm
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	center, err := s.cityRepo.GetCityByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get city: %w", err)
	}
	if center == nil {
		return nil, fmt.Errorf("city %d: %w", id, model.ErrNotFound)
	}

	cities, err := s.cityRepo.FindCitiesInBox(ctx, geo.BoundingBoxAround(center.Lat, center.Lng, distanceKm))
	if err != nil {
		return nil, fmt.Errorf("failed to find cities: %w", err)
	}
	sort.SliceStable(cities, func(i, j int) bool {
		di := geo.DegreeDistance(center.Lat, center.Lng, cities[i].Lat, cities[i].Lng)
		dj := geo.DegreeDistance(center.Lat, center.Lng, cities[j].Lat, cities[j].Lng)
		if di != dj {
			return di < dj
		}
		return cities[i].ID < cities[j].ID
	})

	ids := make([]int, 0, len(cities))
	for _, c := range cities {
		ids = append(ids, c.ID)
	}
	mains, err := s.altNameRepo.GetCityMainNames(ctx, ids, lang)
	if err != nil {
		return nil, fmt.Errorf("failed to get city names: %w", err)
	}
	byID := make(map[int]model.AltName, len(mains))
	for _, m := range mains {
		byID[m.Ref.GeonameID()] = m
	}

	result := make([]model.CityDetail, 0, len(cities))
	for _, c := range cities {
		main, ok := byID[c.ID]
		if !ok {
			continue
		}
		result = append(result, model.NewCityDetail(c, main))
	}
	return result, nil
}
