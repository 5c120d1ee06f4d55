package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/alexivanou/gazetteer/internal/model"
)

const (
	DefaultMinPopulation = 5000
	DefaultMaxCities     = 10000
)

// ListCountries returns (id, main name) of every country, sorted by name
func (s *Service) ListCountries(ctx context.Context, lang string) ([]model.NamedItem, error) {
	lang, err := s.language(lang)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return cached(s, "countries:"+lang, func() ([]model.NamedItem, error) {
		mains, err := s.altNameRepo.ListMainNames(ctx, model.EntityCountry, lang)
		if err != nil {
			return nil, fmt.Errorf("failed to list countries: %w", err)
		}

		items := make([]model.NamedItem, 0, len(mains))
		for _, m := range mains {
			items = append(items, model.NamedItem{ID: m.Ref.GeonameID(), Name: m.Name})
		}
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].Name != items[j].Name {
				return items[i].Name < items[j].Name
			}
			return items[i].ID < items[j].ID
		})
		return items, nil
	})
}

// ListCitiesInCountry returns (id, composite name) of the country's cities
// with more than minPopulation inhabitants, sorted by composite name.
func (s *Service) ListCitiesInCountry(ctx context.Context, countryID int, lang string, minPopulation int64, maxResults int) ([]model.NamedItem, error) {
	lang, err := s.language(lang)
	if err != nil {
		return nil, err
	}
	if minPopulation < 0 {
		minPopulation = DefaultMinPopulation
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxCities
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	key := fmt.Sprintf("cities:%d:%s:%d:%d", countryID, lang, minPopulation, maxResults)
	return cached(s, key, func() ([]model.NamedItem, error) {
		country, err := s.countryRepo.GetCountryByID(ctx, countryID)
		if err != nil {
			return nil, fmt.Errorf("failed to get country: %w", err)
		}
		if country == nil {
			return nil, fmt.Errorf("country %d: %w", countryID, model.ErrNotFound)
		}

		mains, err := s.altNameRepo.ListCityMainsInCountry(ctx, countryID, lang, minPopulation, maxResults)
		if err != nil {
			return nil, fmt.Errorf("failed to list cities: %w", err)
		}

		items := make([]model.NamedItem, 0, len(mains))
		for _, m := range mains {
			items = append(items, model.NamedItem{ID: m.Ref.GeonameID(), Name: m.CRC})
		}
		return items, nil
	})
}
