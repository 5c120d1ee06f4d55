// Package importer runs the full import: it fetches every dataset, stores
// the hierarchy and the alternate names, and then resolves canonical names.
package importer

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/alexivanou/gazetteer/internal/config"
	"github.com/alexivanou/gazetteer/internal/fetcher"
	"github.com/alexivanou/gazetteer/internal/metrics"
	"github.com/alexivanou/gazetteer/internal/model"
	"github.com/alexivanou/gazetteer/internal/repository"
	"github.com/alexivanou/gazetteer/internal/resolver"
	"github.com/alexivanou/gazetteer/internal/seeder"
	"go.uber.org/zap"
)

// Summary describes one import run
type Summary struct {
	Reports    []*seeder.Report
	UpToDate   []string
	Resolution *resolver.Report
	Duration   time.Duration
}

// Importer imports GeoNames datasets into the store
type Importer struct {
	cfg      config.ImportConfig
	repos    *repository.Container
	parser   *seeder.Parser
	resolver *resolver.Resolver
	logger   *zap.Logger
}

// New creates an importer
func New(cfg config.ImportConfig, repos *repository.Container, logger *zap.Logger) *Importer {
	return &Importer{
		cfg:      cfg,
		repos:    repos,
		parser:   seeder.NewParser(cfg),
		resolver: resolver.New(repos, cfg.Languages, logger),
		logger:   logger,
	}
}

// indexes are built lazily from the store, at most once per run
type indexes struct {
	repos     *repository.Container
	countries seeder.CountryIndex
	regions   seeder.RegionIndex
	geonames  *seeder.GeonameIndex
}

func (ix *indexes) countryIndex(ctx context.Context) (seeder.CountryIndex, error) {
	if ix.countries == nil {
		countries, err := ix.repos.Country.ListCountries(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to build country index: %w", err)
		}
		ix.countries = seeder.NewCountryIndex(countries)
	}
	return ix.countries, nil
}

func (ix *indexes) regionIndex(ctx context.Context) (seeder.RegionIndex, error) {
	if ix.regions == nil {
		regions, err := ix.repos.Region.ListRegions(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to build region index: %w", err)
		}
		ix.regions = seeder.NewRegionIndex(regions)
	}
	return ix.regions, nil
}

func (ix *indexes) geonameIndex(ctx context.Context) (*seeder.GeonameIndex, error) {
	if ix.geonames != nil {
		return ix.geonames, nil
	}
	countries, err := ix.repos.Country.ListCountries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build geoname index: %w", err)
	}
	regions, err := ix.repos.Region.ListRegions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build geoname index: %w", err)
	}
	cities, err := ix.repos.City.ListCities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build geoname index: %w", err)
	}
	ix.geonames = seeder.NewGeonameIndex(countries, regions, cities)
	return ix.geonames, nil
}

type step struct {
	dataset string
	run     func(ctx context.Context, r io.Reader, ix *indexes) (*seeder.Report, error)
}

// Run imports every dataset that changed (or all of them when forced) and
// always finishes with the resolution passes.
func (im *Importer) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary, err := im.run(ctx)
	summary.Duration = time.Since(start)
	metrics.RecordImportRun(err == nil, summary.Duration)

	if err != nil {
		im.logger.Error("Import failed", zap.Duration("duration", summary.Duration), zap.Error(err))
		return summary, err
	}
	im.logger.Info("Import completed",
		zap.Duration("duration", summary.Duration),
		zap.Strings("up_to_date", summary.UpToDate),
	)
	return summary, nil
}

func (im *Importer) run(ctx context.Context) (*Summary, error) {
	summary := &Summary{}
	fetch := fetcher.New(im.cfg, im.logger)
	ix := &indexes{repos: im.repos}

	steps := []step{
		{dataset: fetcher.Country, run: im.importCountries},
		{dataset: fetcher.Region, run: im.importRegions},
		{dataset: fetcher.City, run: im.importCities},
		{dataset: fetcher.AltName, run: im.importAltNames},
	}

	for _, s := range steps {
		upToDate, err := fetch.Fetch(ctx, s.dataset)
		if err != nil {
			return summary, fmt.Errorf("failed to fetch %s: %w", s.dataset, err)
		}
		if upToDate && !im.cfg.Force {
			im.logger.Info("Dataset unchanged, skipping import", zap.String("dataset", s.dataset))
			summary.UpToDate = append(summary.UpToDate, s.dataset)
			continue
		}

		report, err := im.runStep(ctx, fetch, s, ix)
		if err != nil {
			return summary, err
		}
		summary.Reports = append(summary.Reports, report)
	}

	res, err := im.Resolve(ctx)
	summary.Resolution = res
	return summary, err
}

func (im *Importer) runStep(ctx context.Context, fetch *fetcher.Fetcher, s step, ix *indexes) (*seeder.Report, error) {
	rc, err := fetch.Open(s.dataset)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	im.logger.Info("Importing dataset", zap.String("dataset", s.dataset))
	report, err := s.run(ctx, rc, ix)
	if err != nil {
		return nil, fmt.Errorf("failed to import %s: %w", s.dataset, err)
	}

	skipped := make(map[string]int, len(report.Skipped))
	fields := []zap.Field{zap.String("dataset", s.dataset), zap.Int("total", report.Total), zap.Int("imported", report.Imported)}
	for reason, n := range report.Skipped {
		skipped[string(reason)] = n
		fields = append(fields, zap.Int("skipped_"+string(reason), n))
	}
	metrics.RecordImportRows(s.dataset, report.Imported, skipped)
	im.logger.Info("Dataset imported", fields...)
	return report, nil
}

// Resolve runs only the resolution passes over the current store
func (im *Importer) Resolve(ctx context.Context) (*resolver.Report, error) {
	res, err := im.resolver.Run(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to resolve names: %w", err)
	}
	return res, nil
}

func (im *Importer) importCountries(ctx context.Context, r io.Reader, _ *indexes) (*seeder.Report, error) {
	countries, report, err := im.parser.ParseCountries(r)
	if err != nil {
		return nil, err
	}
	if err := im.repos.Country.UpsertCountries(ctx, countries); err != nil {
		return nil, err
	}
	return report, nil
}

func (im *Importer) importRegions(ctx context.Context, r io.Reader, ix *indexes) (*seeder.Report, error) {
	countries, err := ix.countryIndex(ctx)
	if err != nil {
		return nil, err
	}
	regions, report, err := im.parser.ParseRegions(r, countries)
	if err != nil {
		return nil, err
	}
	if err := im.repos.Region.UpsertRegions(ctx, regions); err != nil {
		return nil, err
	}
	return report, nil
}

func (im *Importer) importCities(ctx context.Context, r io.Reader, ix *indexes) (*seeder.Report, error) {
	countries, err := ix.countryIndex(ctx)
	if err != nil {
		return nil, err
	}
	regions, err := ix.regionIndex(ctx)
	if err != nil {
		return nil, err
	}
	cities, report, err := im.parser.ParseCities(r, countries, regions)
	if err != nil {
		return nil, err
	}
	if err := im.repos.City.UpsertCities(ctx, cities); err != nil {
		return nil, err
	}
	return report, nil
}

func (im *Importer) importAltNames(ctx context.Context, r io.Reader, ix *indexes) (*seeder.Report, error) {
	ids, err := ix.geonameIndex(ctx)
	if err != nil {
		return nil, err
	}
	im.logger.Info("Geoname index built",
		zap.Int("countries", ids.Len(model.EntityCountry)),
		zap.Int("regions", ids.Len(model.EntityRegion)),
		zap.Int("cities", ids.Len(model.EntityCity)),
	)

	if err := im.repos.AltName.DeleteAllAltNames(ctx); err != nil {
		return nil, err
	}

	inserted := 0
	return im.parser.ProcessAlternateNames(r, ids, func(batch []model.AltName) error {
		if err := im.repos.AltName.InsertAltNames(ctx, batch); err != nil {
			return fmt.Errorf("failed to insert alternate names batch: %w", err)
		}
		inserted += len(batch)
		im.logger.Debug("Alternate names batch stored", zap.Int("inserted", inserted))
		return nil
	})
}
