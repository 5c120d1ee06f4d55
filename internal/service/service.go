package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alexivanou/gazetteer/internal/config"
	"github.com/alexivanou/gazetteer/internal/model"
	"github.com/alexivanou/gazetteer/internal/repository"
	"github.com/patrickmn/go-cache"
)

// Service provides business logic for the API
type Service struct {
	countryRepo repository.CountryRepository
	cityRepo    repository.CityRepository
	altNameRepo repository.AltNameRepository

	languages      map[string]bool
	defaultLang    string
	minQueryLength int

	// mu lets a reimport run exclusively of readers
	mu       sync.RWMutex
	cache    *cache.Cache
	cacheTTL time.Duration
}

// NewService creates a new service instance
func NewService(
	countryRepo repository.CountryRepository,
	cityRepo repository.CityRepository,
	altNameRepo repository.AltNameRepository,
	languages []string,
	cfg config.QueryConfig,
) *Service {
	langs := make(map[string]bool, len(languages))
	for _, l := range languages {
		langs[l] = true
	}
	minLen := cfg.AutocompleteMinLength
	if minLen <= 0 {
		minLen = defaultMinQueryLength
	}

	return &Service{
		countryRepo:    countryRepo,
		cityRepo:       cityRepo,
		altNameRepo:    altNameRepo,
		languages:      langs,
		defaultLang:    cfg.DefaultLanguage,
		minQueryLength: minLen,
		cache:          cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		cacheTTL:       cfg.CacheTTL,
	}
}

// Exclusive runs fn while no query is in flight and drops cached listings
// afterwards, so readers never see a half imported store.
func (s *Service) Exclusive(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.cache.Flush()
	return fn()
}

// GetAvailableLanguages returns a list of all languages with stored names
func (s *Service) GetAvailableLanguages(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	langs, err := s.altNameRepo.GetAvailableLanguages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get languages: %w", err)
	}
	return langs, nil
}

// language resolves the requested language; empty means the default one
func (s *Service) language(lang string) (string, error) {
	if lang == "" {
		return s.defaultLang, nil
	}
	if !s.languages[lang] {
		return "", fmt.Errorf("language %q is not configured: %w", lang, model.ErrInvalidArgument)
	}
	return lang, nil
}

func cached[T any](s *Service, key string, load func() (T, error)) (T, error) {
	if v, ok := s.cache.Get(key); ok {
		return v.(T), nil
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	if s.cacheTTL > 0 {
		s.cache.Set(key, v, s.cacheTTL)
	}
	return v, nil
}
