package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/alexivanou/gazetteer/internal/geo"
	"github.com/alexivanou/gazetteer/internal/model"
	"github.com/jmoiron/sqlx"
)

type countryRepository struct {
	db *sqlx.DB
}

func (r *countryRepository) UpsertCountries(ctx context.Context, countries []model.Country) error {
	q := `
		INSERT INTO countries (id, name, code, tld, continent, population)
		VALUES (:id, :name, :code, :tld, :continent, :population)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			code = excluded.code,
			tld = excluded.tld,
			continent = excluded.continent,
			population = excluded.population`
	return upsertEach(ctx, r.db, q, countries)
}

func (r *countryRepository) ListCountries(ctx context.Context) ([]model.Country, error) {
	var countries []model.Country
	if err := r.db.SelectContext(ctx, &countries, "SELECT * FROM countries ORDER BY id"); err != nil {
		return nil, err
	}
	return countries, nil
}

func (r *countryRepository) GetCountryByID(ctx context.Context, id int) (*model.Country, error) {
	var country model.Country
	if err := r.db.GetContext(ctx, &country, r.db.Rebind("SELECT * FROM countries WHERE id = ?"), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &country, nil
}

type regionRepository struct {
	db *sqlx.DB
}

func (r *regionRepository) UpsertRegions(ctx context.Context, regions []model.Region) error {
	q := `
		INSERT INTO regions (id, name, code, country_id)
		VALUES (:id, :name, :code, :country_id)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			code = excluded.code,
			country_id = excluded.country_id`
	return upsertEach(ctx, r.db, q, regions)
}

func (r *regionRepository) ListRegions(ctx context.Context) ([]model.Region, error) {
	var regions []model.Region
	if err := r.db.SelectContext(ctx, &regions, "SELECT * FROM regions ORDER BY id"); err != nil {
		return nil, err
	}
	return regions, nil
}

type cityRepository struct {
	db *sqlx.DB
}

func (r *cityRepository) UpsertCities(ctx context.Context, cities []model.City) error {
	q := `
		INSERT INTO cities (id, name, lat, lng, population, region_id, country_id, timezone)
		VALUES (:id, :name, :lat, :lng, :population, :region_id, :country_id, :timezone)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			lat = excluded.lat,
			lng = excluded.lng,
			population = excluded.population,
			region_id = excluded.region_id,
			country_id = excluded.country_id,
			timezone = excluded.timezone`
	return upsertEach(ctx, r.db, q, cities)
}

func (r *cityRepository) ListCities(ctx context.Context) ([]model.City, error) {
	var cities []model.City
	if err := r.db.SelectContext(ctx, &cities, "SELECT * FROM cities ORDER BY id"); err != nil {
		return nil, err
	}
	return cities, nil
}

func (r *cityRepository) GetCityByID(ctx context.Context, id int) (*model.City, error) {
	var city model.City
	if err := r.db.GetContext(ctx, &city, r.db.Rebind("SELECT * FROM cities WHERE id = ?"), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &city, nil
}

func (r *cityRepository) FindCitiesInBox(ctx context.Context, box geo.BoundingBox) ([]model.City, error) {
	q := `
		SELECT * FROM cities
		WHERE lat BETWEEN ? AND ? AND lng BETWEEN ? AND ?
		ORDER BY id
	`
	var cities []model.City
	err := r.db.SelectContext(ctx, &cities, r.db.Rebind(q), box.LatMin, box.LatMax, box.LngMin, box.LngMax)
	if err != nil {
		return nil, err
	}
	return cities, nil
}
