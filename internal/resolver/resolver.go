// Package resolver derives the canonical name of every location in every
// configured language, together with the composite strings of city names.
package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexivanou/gazetteer/internal/metrics"
	"github.com/alexivanou/gazetteer/internal/model"
	"github.com/alexivanou/gazetteer/internal/repository"
	"go.uber.org/zap"
)

// ErrResolution is wrapped by every resolution failure
var ErrResolution = errors.New("resolution failed")

// Pass names used in failures, logs and metrics
const (
	PassGapFill   = "gap_fill"
	PassMain      = "main_selection"
	PassComposite = "composite"
)

// Failure describes one (entity, language) pair that could not be resolved
type Failure struct {
	Pass   string
	Key    model.MainKey
	Reason string
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %s %d (%s): %s", f.Pass, f.Key.Type, f.Key.ID, f.Key.Language, f.Reason)
}

func (f Failure) Unwrap() error {
	return ErrResolution
}

// Report summarizes one resolver run
type Report struct {
	GapFilled    int
	MainsSet     int
	MainsCleared int
	Composites   int
	Failures     []Failure
}

// Resolver runs the gap fill, main selection and composite passes
type Resolver struct {
	countries repository.CountryRepository
	regions   repository.RegionRepository
	cities    repository.CityRepository
	altNames  repository.AltNameRepository
	languages []string
	logger    *zap.Logger
}

// New creates a resolver for the given languages
func New(repos *repository.Container, languages []string, logger *zap.Logger) *Resolver {
	return &Resolver{
		countries: repos.Country,
		regions:   repos.Region,
		cities:    repos.City,
		altNames:  repos.AltName,
		languages: languages,
		logger:    logger,
	}
}

// hierarchy is the snapshot of locations a run works against
type hierarchy struct {
	entities map[model.EntityType][]model.Entity
	cities   map[int]model.City
}

func (r *Resolver) loadHierarchy(ctx context.Context) (*hierarchy, error) {
	countries, err := r.countries.ListCountries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list countries: %w", err)
	}
	regions, err := r.regions.ListRegions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list regions: %w", err)
	}
	cities, err := r.cities.ListCities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list cities: %w", err)
	}

	h := &hierarchy{
		entities: make(map[model.EntityType][]model.Entity, len(model.EntityTypes)),
		cities:   make(map[int]model.City, len(cities)),
	}
	for _, c := range countries {
		h.entities[model.EntityCountry] = append(h.entities[model.EntityCountry], model.Entity{ID: c.ID, Name: c.Name})
	}
	for _, rg := range regions {
		h.entities[model.EntityRegion] = append(h.entities[model.EntityRegion], model.Entity{ID: rg.ID, Name: rg.Name, CountryID: rg.CountryID})
	}
	for _, c := range cities {
		h.entities[model.EntityCity] = append(h.entities[model.EntityCity], model.Entity{ID: c.ID, Name: c.Name, CountryID: c.CountryID, RegionID: c.RegionID})
		h.cities[c.ID] = c
	}
	return h, nil
}

// Run executes all passes for every entity type and language. Pair level
// failures do not stop the run; they are reported and returned joined
// after every other pair has been processed.
func (r *Resolver) Run(ctx context.Context) (*Report, error) {
	h, err := r.loadHierarchy(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{}

	for _, lang := range r.languages {
		for _, t := range model.EntityTypes {
			if err := r.gapFill(ctx, h, t, lang, report); err != nil {
				return report, err
			}
		}
	}
	metrics.RecordResolverChanges(PassGapFill, report.GapFilled)

	for _, lang := range r.languages {
		for _, t := range model.EntityTypes {
			if err := r.selectMains(ctx, h, t, lang, report); err != nil {
				return report, err
			}
		}
	}
	metrics.RecordResolverChanges(PassMain, report.MainsSet+report.MainsCleared)

	for _, lang := range r.languages {
		if err := r.compose(ctx, h, lang, report); err != nil {
			return report, err
		}
	}
	metrics.RecordResolverChanges(PassComposite, report.Composites)

	r.logger.Info("Resolution finished",
		zap.Int("gap_filled", report.GapFilled),
		zap.Int("mains_set", report.MainsSet),
		zap.Int("mains_cleared", report.MainsCleared),
		zap.Int("composites", report.Composites),
		zap.Int("failures", len(report.Failures)),
	)

	if len(report.Failures) == 0 {
		return report, nil
	}
	errs := make([]error, 0, len(report.Failures))
	for _, f := range report.Failures {
		errs = append(errs, f)
	}
	return report, errors.Join(errs...)
}

func (r *Resolver) fail(report *Report, f Failure) {
	report.Failures = append(report.Failures, f)
	metrics.RecordResolverFailure(f.Pass, f.Key.Type.String())
	r.logger.Warn("Resolution failure",
		zap.String("pass", f.Pass),
		zap.String("entity", f.Key.Type.String()),
		zap.Int("id", f.Key.ID),
		zap.String("language", f.Key.Language),
		zap.String("reason", f.Reason),
	)
}

func (r *Resolver) gapFill(ctx context.Context, h *hierarchy, t model.EntityType, lang string, report *Report) error {
	existing, err := r.altNames.ListAltNames(ctx, t, lang)
	if err != nil {
		return fmt.Errorf("failed to list %s names: %w", t, err)
	}

	missing, err := GapFill(t, lang, h.entities[t], existing)
	if err != nil {
		return err
	}
	if len(missing) == 0 {
		return nil
	}

	if err := r.altNames.InsertAltNames(ctx, missing); err != nil {
		return fmt.Errorf("failed to insert gap fill names for %s: %w", t, err)
	}
	report.GapFilled += len(missing)
	r.logger.Debug("Gap filled", zap.String("entity", t.String()), zap.String("language", lang), zap.Int("rows", len(missing)))
	return nil
}

func (r *Resolver) selectMains(ctx context.Context, h *hierarchy, t model.EntityType, lang string, report *Report) error {
	rows, err := r.altNames.ListAltNames(ctx, t, lang)
	if err != nil {
		return fmt.Errorf("failed to list %s names: %w", t, err)
	}

	groups := make(map[int][]model.AltName)
	for _, a := range rows {
		id := a.Ref.GeonameID()
		groups[id] = append(groups[id], a)
	}

	var setIDs, clearIDs []int64
	for _, e := range h.entities[t] {
		group := groups[e.ID]
		main, ok := SelectMain(group)
		if !ok {
			r.fail(report, Failure{
				Pass:   PassMain,
				Key:    model.MainKey{Type: t, ID: e.ID, Language: lang},
				Reason: "no name rows",
			})
			continue
		}
		toSet, toClear := MainFlagChanges(group, main)
		setIDs = append(setIDs, toSet...)
		clearIDs = append(clearIDs, toClear...)
	}

	if err := r.altNames.UpdateMainFlags(ctx, setIDs, clearIDs); err != nil {
		return fmt.Errorf("failed to update %s main flags: %w", t, err)
	}
	report.MainsSet += len(setIDs)
	report.MainsCleared += len(clearIDs)
	return nil
}

func (r *Resolver) mainsByID(ctx context.Context, t model.EntityType, lang string) (map[int]model.AltName, error) {
	mains, err := r.altNames.ListMainNames(ctx, t, lang)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s main names: %w", t, err)
	}
	byID := make(map[int]model.AltName, len(mains))
	for _, m := range mains {
		byID[m.Ref.GeonameID()] = m
	}
	return byID, nil
}

func (r *Resolver) compose(ctx context.Context, h *hierarchy, lang string, report *Report) error {
	countryMains, err := r.mainsByID(ctx, model.EntityCountry, lang)
	if err != nil {
		return err
	}
	regionMains, err := r.mainsByID(ctx, model.EntityRegion, lang)
	if err != nil {
		return err
	}
	cityMains, err := r.altNames.ListMainNames(ctx, model.EntityCity, lang)
	if err != nil {
		return fmt.Errorf("failed to list city main names: %w", err)
	}

	var updates []model.CompositeUpdate
	for _, main := range cityMains {
		key := main.Key()
		city, ok := h.cities[key.ID]
		if !ok {
			r.fail(report, Failure{Pass: PassComposite, Key: key, Reason: "city not found"})
			continue
		}
		country, ok := countryMains[city.CountryID]
		if !ok {
			r.fail(report, Failure{Pass: PassComposite, Key: key, Reason: fmt.Sprintf("no main name for country %d", city.CountryID)})
			continue
		}
		region, ok := regionMains[city.RegionID]
		if !ok {
			r.fail(report, Failure{Pass: PassComposite, Key: key, Reason: fmt.Sprintf("no main name for region %d", city.RegionID)})
			continue
		}

		update := model.CompositeUpdate{
			ID:        main.ID,
			CountryID: city.CountryID,
			RegionID:  city.RegionID,
			Lat:       city.Lat,
			Lng:       city.Lng,
			CRC:       ComposeCRC(main.Name, region.Name, country.Name),
			URL:       ComposeURL(country.Slug, region.Slug, main.Slug),
		}
		if !compositeChanged(main, update) {
			continue
		}
		updates = append(updates, update)
	}

	if err := r.altNames.UpdateComposites(ctx, updates); err != nil {
		return fmt.Errorf("failed to update composites: %w", err)
	}
	report.Composites += len(updates)
	return nil
}

func compositeChanged(a model.AltName, u model.CompositeUpdate) bool {
	return a.CountryID != u.CountryID ||
		a.RegionID != u.RegionID ||
		a.Lat == nil || *a.Lat != u.Lat ||
		a.Lng == nil || *a.Lng != u.Lng ||
		a.CRC != u.CRC ||
		a.URL != u.URL
}
