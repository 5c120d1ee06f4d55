package service

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/alexivanou/gazetteer/internal/model"
)

const (
	defaultMinQueryLength    = 2
	defaultAutocompleteLimit = 20
	maxAutocompleteLimit     = 1000

	// FieldCompositeName is the field returned when none is requested
	FieldCompositeName = "composite_name"
)

// autocompleteFields maps a requested field name to its value in a main row
var autocompleteFields = map[string]func(model.AltName) any{
	FieldCompositeName: func(a model.AltName) any { return a.CRC },
	"id":               func(a model.AltName) any { return a.Ref.GeonameID() },
	"name":             func(a model.AltName) any { return a.Name },
	"slug":             func(a model.AltName) any { return a.Slug },
	"url":              func(a model.AltName) any { return a.URL },
	"country_id":       func(a model.AltName) any { return a.CountryID },
	"region_id":        func(a model.AltName) any { return a.RegionID },
	"lat":              func(a model.AltName) any { return deref(a.Lat) },
	"lng":              func(a model.AltName) any { return deref(a.Lng) },
}

func deref(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

// Autocomplete suggests cities whose composite name starts with the query,
// followed by those that only contain it. A single requested field yields
// bare values, several fields yield one tuple per city.
func (s *Service) Autocomplete(ctx context.Context, req model.AutocompleteRequest) (*model.AutocompleteResponse, error) {
	lang, err := s.language(req.Language)
	if err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(req.Query) < s.minQueryLength {
		return nil, fmt.Errorf("query must be at least %d characters: %w", s.minQueryLength, model.ErrInvalidArgument)
	}

	fields := req.Fields
	if len(fields) == 0 {
		fields = []string{FieldCompositeName}
	}
	getters := make([]func(model.AltName) any, 0, len(fields))
	for _, f := range fields {
		get, ok := autocompleteFields[f]
		if !ok {
			return nil, fmt.Errorf("unknown field %q: %w", f, model.ErrInvalidArgument)
		}
		getters = append(getters, get)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultAutocompleteLimit
	}
	if limit > maxAutocompleteLimit {
		limit = maxAutocompleteLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches, err := s.altNameRepo.SearchCityMainsByPrefix(ctx, req.Query, lang, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search cities: %w", err)
	}
	if len(matches) < limit {
		more, err := s.altNameRepo.SearchCityMainsBySubstring(ctx, req.Query, lang, limit-len(matches))
		if err != nil {
			return nil, fmt.Errorf("failed to search cities: %w", err)
		}
		matches = append(matches, more...)
	}

	results := make([]any, 0, len(matches))
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		values := make([]any, len(getters))
		for i, get := range getters {
			values[i] = get(m)
		}
		key := fmt.Sprint(values...)
		if seen[key] {
			continue
		}
		seen[key] = true

		if len(values) == 1 {
			results = append(results, values[0])
		} else {
			results = append(results, values)
		}
	}

	if len(results) > limit {
		results = results[:limit]
	}
	return &model.AutocompleteResponse{Results: results}, nil
}
