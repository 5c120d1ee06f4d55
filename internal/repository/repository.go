package repository

import (
	"context"
	"fmt"

	"github.com/alexivanou/gazetteer/internal/config"
	"github.com/alexivanou/gazetteer/internal/geo"
	"github.com/alexivanou/gazetteer/internal/model"
	"github.com/jmoiron/sqlx"
)

// CountryRepository defines operations for countries
type CountryRepository interface {
	UpsertCountries(ctx context.Context, countries []model.Country) error
	ListCountries(ctx context.Context) ([]model.Country, error)
	GetCountryByID(ctx context.Context, id int) (*model.Country, error)
}

// RegionRepository defines operations for regions
type RegionRepository interface {
	UpsertRegions(ctx context.Context, regions []model.Region) error
	ListRegions(ctx context.Context) ([]model.Region, error)
}

// CityRepository defines operations for cities
type CityRepository interface {
	UpsertCities(ctx context.Context, cities []model.City) error
	ListCities(ctx context.Context) ([]model.City, error)
	GetCityByID(ctx context.Context, id int) (*model.City, error)
	FindCitiesInBox(ctx context.Context, box geo.BoundingBox) ([]model.City, error)
}

// AltNameRepository defines operations for alternate names
type AltNameRepository interface {
	InsertAltNames(ctx context.Context, names []model.AltName) error
	DeleteAllAltNames(ctx context.Context) error
	ListAltNames(ctx context.Context, t model.EntityType, lang string) ([]model.AltName, error)
	UpdateMainFlags(ctx context.Context, setIDs, clearIDs []int64) error
	UpdateComposites(ctx context.Context, updates []model.CompositeUpdate) error

	ListMainNames(ctx context.Context, t model.EntityType, lang string) ([]model.AltName, error)
	GetMainName(ctx context.Context, ref model.GeoRef, lang string) (*model.AltName, error)
	GetCityMainNames(ctx context.Context, cityIDs []int, lang string) ([]model.AltName, error)
	FindCityMainByCRC(ctx context.Context, crc, lang string) (*model.AltName, error)
	FindCityMainByURL(ctx context.Context, url, lang string) (*model.AltName, error)
	SearchCityMainsByPrefix(ctx context.Context, query, lang string, limit int) ([]model.AltName, error)
	SearchCityMainsBySubstring(ctx context.Context, query, lang string, limit int) ([]model.AltName, error)
	ListCityMainsInCountry(ctx context.Context, countryID int, lang string, minPopulation int64, limit int) ([]model.AltName, error)
	GetAvailableLanguages(ctx context.Context) ([]string, error)
}

// Container holds all repositories
type Container struct {
	Country CountryRepository
	Region  RegionRepository
	City    CityRepository
	AltName AltNameRepository
}

// NewRepositories creates repository implementations based on DB type
func NewRepositories(db *sqlx.DB, dbType config.DBType) *Container {
	d := sqliteDialect
	if dbType == config.DBTypePostgreSQL {
		d = postgresDialect
	}

	return &Container{
		Country: &countryRepository{db: db},
		Region:  &regionRepository{db: db},
		City:    &cityRepository{db: db},
		AltName: &altNameRepository{db: db, dialect: d},
	}
}

// IsDatabaseEmpty reports whether no city has been imported yet. A store
// without the cities table counts as empty; any other failure is returned.
func IsDatabaseEmpty(ctx context.Context, db *sqlx.DB) (bool, error) {
	exists, err := tableExists(ctx, db, "cities")
	if err != nil {
		return false, fmt.Errorf("failed to look up cities table: %w", err)
	}
	if !exists {
		return true, nil
	}

	var count int
	if err := db.GetContext(ctx, &count, "SELECT COUNT(*) FROM cities"); err != nil {
		return false, fmt.Errorf("failed to count cities: %w", err)
	}
	return count == 0, nil
}

func tableExists(ctx context.Context, db *sqlx.DB, table string) (bool, error) {
	q := `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ?`
	if db.DriverName() == "sqlite3" {
		q = `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`
	}

	var n int
	if err := db.GetContext(ctx, &n, db.Rebind(q), table); err != nil {
		return false, err
	}
	return n > 0, nil
}
