package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/alexivanou/gazetteer/internal/model"
	"github.com/jmoiron/sqlx"
)

// altNameRow is the persisted shape of model.AltName
type altNameRow struct {
	ID           int64           `db:"id"`
	GeonameID    int             `db:"geoname_id"`
	Type         int             `db:"type"`
	Language     string          `db:"language"`
	Name         string          `db:"name"`
	Slug         string          `db:"slug"`
	IsPreferred  bool            `db:"is_preferred"`
	IsShort      bool            `db:"is_short"`
	IsColloquial bool            `db:"is_colloquial"`
	IsHistoric   bool            `db:"is_historic"`
	IsMain       bool            `db:"is_main"`
	CountryID    sql.NullInt64   `db:"country_id"`
	RegionID     sql.NullInt64   `db:"region_id"`
	Lat          sql.NullFloat64 `db:"lat"`
	Lng          sql.NullFloat64 `db:"lng"`
	CRC          string          `db:"crc"`
	CRCSearch    string          `db:"crc_search"`
	URL          string          `db:"url"`
}

// searchKey is the case folded form autocomplete matches against. SQLite's
// LOWER only folds ASCII, so folding happens here for both dialects.
func searchKey(s string) string {
	return strings.ToLower(s)
}

func toAltNameRow(a model.AltName) altNameRow {
	row := altNameRow{
		ID:           a.ID,
		GeonameID:    a.Ref.GeonameID(),
		Type:         int(a.Ref.Type()),
		Language:     a.Language,
		Name:         a.Name,
		Slug:         a.Slug,
		IsPreferred:  a.IsPreferred,
		IsShort:      a.IsShort,
		IsColloquial: a.IsColloquial,
		IsHistoric:   a.IsHistoric,
		IsMain:       a.IsMain,
		CRC:          a.CRC,
		CRCSearch:    searchKey(a.CRC),
		URL:          a.URL,
	}
	if a.CountryID != 0 {
		row.CountryID = sql.NullInt64{Int64: int64(a.CountryID), Valid: true}
	}
	if a.RegionID != 0 {
		row.RegionID = sql.NullInt64{Int64: int64(a.RegionID), Valid: true}
	}
	if a.Lat != nil {
		row.Lat = sql.NullFloat64{Float64: *a.Lat, Valid: true}
	}
	if a.Lng != nil {
		row.Lng = sql.NullFloat64{Float64: *a.Lng, Valid: true}
	}
	return row
}

func (row altNameRow) toModel() (model.AltName, error) {
	ref, err := model.NewGeoRef(model.EntityType(row.Type), row.GeonameID)
	if err != nil {
		return model.AltName{}, fmt.Errorf("alt name %d: %w", row.ID, err)
	}
	a := model.AltName{
		ID:           row.ID,
		Ref:          ref,
		Language:     row.Language,
		Name:         row.Name,
		Slug:         row.Slug,
		IsPreferred:  row.IsPreferred,
		IsShort:      row.IsShort,
		IsColloquial: row.IsColloquial,
		IsHistoric:   row.IsHistoric,
		IsMain:       row.IsMain,
		CRC:          row.CRC,
		URL:          row.URL,
	}
	if row.CountryID.Valid {
		a.CountryID = int(row.CountryID.Int64)
	}
	if row.RegionID.Valid {
		a.RegionID = int(row.RegionID.Int64)
	}
	if row.Lat.Valid {
		lat := row.Lat.Float64
		a.Lat = &lat
	}
	if row.Lng.Valid {
		lng := row.Lng.Float64
		a.Lng = &lng
	}
	return a, nil
}

func toModels(rows []altNameRow) ([]model.AltName, error) {
	names := make([]model.AltName, 0, len(rows))
	for _, row := range rows {
		a, err := row.toModel()
		if err != nil {
			return nil, err
		}
		names = append(names, a)
	}
	return names, nil
}

type altNameRepository struct {
	db      *sqlx.DB
	dialect dialect
}

func (r *altNameRepository) InsertAltNames(ctx context.Context, names []model.AltName) error {
	rows := make([]altNameRow, 0, len(names))
	for _, a := range names {
		rows = append(rows, toAltNameRow(a))
	}

	// Bind variable limit workaround (17 params per row)
	for _, batch := range chunks(rows, r.dialect.insertChunk) {
		_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO alt_names (geoname_id, type, language, name, slug,
			is_preferred, is_short, is_colloquial, is_historic, is_main,
			country_id, region_id, lat, lng, crc, crc_search, url)
		VALUES (:geoname_id, :type, :language, :name, :slug,
			:is_preferred, :is_short, :is_colloquial, :is_historic, :is_main,
			:country_id, :region_id, :lat, :lng, :crc, :crc_search, :url)`,
			batch)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *altNameRepository) DeleteAllAltNames(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM alt_names")
	return err
}

// ListAltNames returns every row of one entity type in one language,
// grouped by entity and in insertion order within an entity.
func (r *altNameRepository) ListAltNames(ctx context.Context, t model.EntityType, lang string) ([]model.AltName, error) {
	q := `SELECT * FROM alt_names WHERE type = ? AND language = ? ORDER BY geoname_id, id`
	return r.selectNames(ctx, q, int(t), lang)
}

func (r *altNameRepository) UpdateMainFlags(ctx context.Context, setIDs, clearIDs []int64) error {
	if len(setIDs) == 0 && len(clearIDs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// clear first so a pair never briefly holds two mains. A demoted row
	// loses its composite fields; only city mains carry them.
	for _, update := range []struct {
		query string
		flag  bool
		ids   []int64
	}{
		{"UPDATE alt_names SET is_main = ?, crc = '', crc_search = '', url = '', lat = NULL, lng = NULL WHERE id IN (?)", false, clearIDs},
		{"UPDATE alt_names SET is_main = ? WHERE id IN (?)", true, setIDs},
	} {
		for _, batch := range chunks(update.ids, r.dialect.inChunk) {
			q, args, err := sqlx.In(update.query, update.flag, batch)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, tx.Rebind(q), args...); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

type compositeRow struct {
	model.CompositeUpdate
	CRCSearch string `db:"crc_search"`
}

func (r *altNameRepository) UpdateComposites(ctx context.Context, updates []model.CompositeUpdate) error {
	rows := make([]compositeRow, 0, len(updates))
	for _, u := range updates {
		rows = append(rows, compositeRow{CompositeUpdate: u, CRCSearch: searchKey(u.CRC)})
	}

	q := `
		UPDATE alt_names SET
			country_id = :country_id,
			region_id = :region_id,
			lat = :lat,
			lng = :lng,
			crc = :crc,
			crc_search = :crc_search,
			url = :url
		WHERE id = :id`
	return upsertEach(ctx, r.db, q, rows)
}

func (r *altNameRepository) ListMainNames(ctx context.Context, t model.EntityType, lang string) ([]model.AltName, error) {
	q := `SELECT * FROM alt_names WHERE type = ? AND language = ? AND is_main = ? ORDER BY geoname_id, id`
	return r.selectNames(ctx, q, int(t), lang, true)
}

func (r *altNameRepository) GetMainName(ctx context.Context, ref model.GeoRef, lang string) (*model.AltName, error) {
	q := `SELECT * FROM alt_names WHERE type = ? AND geoname_id = ? AND language = ? AND is_main = ? ORDER BY id LIMIT 1`
	return r.getName(ctx, q, int(ref.Type()), ref.GeonameID(), lang, true)
}

func (r *altNameRepository) GetCityMainNames(ctx context.Context, cityIDs []int, lang string) ([]model.AltName, error) {
	var result []model.AltName
	for _, batch := range chunks(cityIDs, r.dialect.inChunk) {
		q, args, err := sqlx.In(
			`SELECT * FROM alt_names WHERE type = ? AND language = ? AND is_main = ? AND geoname_id IN (?) ORDER BY geoname_id, id`,
			int(model.EntityCity), lang, true, batch)
		if err != nil {
			return nil, err
		}
		names, err := r.selectNames(ctx, q, args...)
		if err != nil {
			return nil, err
		}
		result = append(result, names...)
	}
	return result, nil
}

func (r *altNameRepository) FindCityMainByCRC(ctx context.Context, crc, lang string) (*model.AltName, error) {
	q := `SELECT * FROM alt_names WHERE type = ? AND language = ? AND is_main = ? AND crc = ? ORDER BY id LIMIT 1`
	return r.getName(ctx, q, int(model.EntityCity), lang, true, crc)
}

func (r *altNameRepository) FindCityMainByURL(ctx context.Context, url, lang string) (*model.AltName, error) {
	q := `SELECT * FROM alt_names WHERE type = ? AND language = ? AND is_main = ? AND url = ? ORDER BY id LIMIT 1`
	return r.getName(ctx, q, int(model.EntityCity), lang, true, url)
}

// SearchCityMainsByPrefix matches city main names whose crc starts with query, ignoring case
func (r *altNameRepository) SearchCityMainsByPrefix(ctx context.Context, query, lang string, limit int) ([]model.AltName, error) {
	q := `
		SELECT * FROM alt_names
		WHERE type = ? AND language = ? AND is_main = ?
			AND crc_search LIKE ? ESCAPE '\'
		ORDER BY crc, id
		LIMIT ?`
	return r.selectNames(ctx, q, int(model.EntityCity), lang, true, escapeLike(searchKey(query))+"%", limit)
}

// SearchCityMainsBySubstring matches crc containing query but not starting with it
func (r *altNameRepository) SearchCityMainsBySubstring(ctx context.Context, query, lang string, limit int) ([]model.AltName, error) {
	q := `
		SELECT * FROM alt_names
		WHERE type = ? AND language = ? AND is_main = ?
			AND crc_search LIKE ? ESCAPE '\'
			AND crc_search NOT LIKE ? ESCAPE '\'
		ORDER BY crc, id
		LIMIT ?`
	escaped := escapeLike(searchKey(query))
	return r.selectNames(ctx, q, int(model.EntityCity), lang, true, "%"+escaped+"%", escaped+"%", limit)
}

func (r *altNameRepository) ListCityMainsInCountry(ctx context.Context, countryID int, lang string, minPopulation int64, limit int) ([]model.AltName, error) {
	q := `
		SELECT * FROM alt_names
		WHERE type = ? AND language = ? AND is_main = ?
			AND geoname_id IN (SELECT id FROM cities WHERE country_id = ? AND population > ?)
		ORDER BY crc, id
		LIMIT ?`
	return r.selectNames(ctx, q, int(model.EntityCity), lang, true, countryID, minPopulation, limit)
}

func (r *altNameRepository) GetAvailableLanguages(ctx context.Context) ([]string, error) {
	var langs []string
	if err := r.db.SelectContext(ctx, &langs, "SELECT DISTINCT language FROM alt_names ORDER BY language"); err != nil {
		return nil, err
	}
	return langs, nil
}

func (r *altNameRepository) selectNames(ctx context.Context, q string, args ...any) ([]model.AltName, error) {
	var rows []altNameRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	return toModels(rows)
}

func (r *altNameRepository) getName(ctx context.Context, q string, args ...any) (*model.AltName, error) {
	var row altNameRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(q), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	a, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &a, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
