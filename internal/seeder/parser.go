package seeder

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alexivanou/gazetteer/internal/config"
	"github.com/alexivanou/gazetteer/internal/model"
	"github.com/alexivanou/gazetteer/internal/slug"
)

// SkipReason explains why an input row produced no record
type SkipReason string

const (
	SkipMissingID           SkipReason = "missing_id"
	SkipUnknownCountry      SkipReason = "unknown_country"
	SkipUnknownRegion       SkipReason = "unknown_region"
	SkipClassification      SkipReason = "classification"
	SkipMalformed           SkipReason = "malformed"
	SkipEmptyName           SkipReason = "empty_name"
	SkipUnsupportedLanguage SkipReason = "unsupported_language"
	SkipUnknownGeoname      SkipReason = "unknown_geoname"
	SkipAmbiguousGeoname    SkipReason = "ambiguous_geoname"
)

// Report counts the outcome of parsing one dataset
type Report struct {
	Dataset  string
	Total    int
	Imported int
	Skipped  map[SkipReason]int
}

func newReport(dataset string) *Report {
	return &Report{Dataset: dataset, Skipped: make(map[SkipReason]int)}
}

func (r *Report) skip(reason SkipReason) {
	r.Skipped[reason]++
}

// SkippedTotal returns the number of rows skipped for any reason
func (r *Report) SkippedTotal() int {
	n := 0
	for _, c := range r.Skipped {
		n += c
	}
	return n
}

// Parser parses GeoNames data files
type Parser struct {
	batchSize int
	languages map[string]bool
	cityTypes map[string]bool
}

// NewParser creates a new parser instance with config
func NewParser(cfg config.ImportConfig) *Parser {
	languages := make(map[string]bool)
	for _, lang := range cfg.Languages {
		languages[lang] = true
	}
	cityTypes := make(map[string]bool)
	for _, code := range cfg.CityTypes {
		cityTypes[code] = true
	}

	return &Parser{
		batchSize: cfg.BatchSize,
		languages: languages,
		cityTypes: cityTypes,
	}
}

// eachRow calls fn with the tab separated columns of every data line
func eachRow(reader io.Reader, report *Report, fn func(parts []string)) error {
	buf := make([]byte, 0, 64*1024)
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()

		// Skip comments and blank lines
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}

		report.Total++
		fn(strings.Split(line, "\t"))
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to scan %s: %w", report.Dataset, err)
	}
	return nil
}

// ParseCountries parses countryInfo.txt
func (p *Parser) ParseCountries(reader io.Reader) ([]model.Country, *Report, error) {
	report := newReport("country")
	var countries []model.Country

	err := eachRow(reader, report, func(parts []string) {
		// We need at least column 16 (geonameid)
		if len(parts) < 17 {
			report.skip(SkipMissingID)
			return
		}
		id, err := strconv.Atoi(strings.TrimSpace(parts[16]))
		if err != nil {
			report.skip(SkipMissingID)
			return
		}
		if parts[4] == "" {
			report.skip(SkipEmptyName)
			return
		}

		population, _ := strconv.ParseInt(parts[7], 10, 64)
		countries = append(countries, model.Country{
			ID:         id,
			Name:       parts[4],
			Code:       parts[0],
			TLD:        strings.TrimPrefix(parts[9], "."),
			Continent:  parts[8],
			Population: population,
		})
		report.Imported++
	})
	if err != nil {
		return nil, nil, err
	}

	return countries, report, nil
}

// ParseRegions parses admin1CodesASCII.txt
func (p *Parser) ParseRegions(reader io.Reader, countries CountryIndex) ([]model.Region, *Report, error) {
	report := newReport("region")
	var regions []model.Region

	err := eachRow(reader, report, func(parts []string) {
		if len(parts) < 4 {
			report.skip(SkipMissingID)
			return
		}
		id, err := strconv.Atoi(strings.TrimSpace(parts[3]))
		if err != nil {
			report.skip(SkipMissingID)
			return
		}
		code := parts[0]
		countryCode, _, _ := strings.Cut(code, ".")
		countryID, ok := countries[countryCode]
		if !ok {
			report.skip(SkipUnknownCountry)
			return
		}
		if parts[1] == "" {
			report.skip(SkipEmptyName)
			return
		}

		regions = append(regions, model.Region{
			ID:        id,
			Name:      parts[1],
			Code:      code,
			CountryID: countryID,
		})
		report.Imported++
	})
	if err != nil {
		return nil, nil, err
	}

	return regions, report, nil
}

// ParseCities parses the cities dump keeping only allowed feature codes
func (p *Parser) ParseCities(reader io.Reader, countries CountryIndex, regions RegionIndex) ([]model.City, *Report, error) {
	report := newReport("city")
	var cities []model.City

	err := eachRow(reader, report, func(parts []string) {
		if len(parts) < 15 {
			report.skip(SkipMalformed)
			return
		}

		id, err := strconv.Atoi(parts[0])
		if err != nil {
			report.skip(SkipMalformed)
			return
		}

		if !p.cityTypes[parts[7]] {
			report.skip(SkipClassification)
			return
		}

		countryID, ok := countries[parts[8]]
		if !ok {
			report.skip(SkipUnknownCountry)
			return
		}

		region, ok := regions[parts[8]+"."+parts[10]]
		if !ok {
			report.skip(SkipUnknownRegion)
			return
		}

		lat, err := strconv.ParseFloat(parts[4], 64)
		if err != nil {
			report.skip(SkipMalformed)
			return
		}
		lng, err := strconv.ParseFloat(parts[5], 64)
		if err != nil {
			report.skip(SkipMalformed)
			return
		}

		var population int64
		if parts[14] != "" {
			population, err = strconv.ParseInt(parts[14], 10, 64)
			if err != nil {
				report.skip(SkipMalformed)
				return
			}
		}

		if parts[1] == "" {
			report.skip(SkipEmptyName)
			return
		}

		var timezone string
		if len(parts) > 17 {
			timezone = parts[17]
		}

		cities = append(cities, model.City{
			ID:         id,
			Name:       parts[1],
			Lat:        lat,
			Lng:        lng,
			Population: population,
			RegionID:   region.ID,
			CountryID:  countryID,
			Timezone:   timezone,
		})
		report.Imported++
	})
	if err != nil {
		return nil, nil, err
	}

	return cities, report, nil
}

// ProcessAlternateNames streams alternateNames.txt to callback in batches to avoid OOM
func (p *Parser) ProcessAlternateNames(
	reader io.Reader,
	ids *GeonameIndex,
	callback func(batch []model.AltName) error,
) (*Report, error) {
	report := newReport("alt_name")

	batchSize := p.batchSize
	if batchSize <= 0 {
		batchSize = 10000
	}
	batch := make([]model.AltName, 0, batchSize)

	var callbackErr error
	err := eachRow(reader, report, func(parts []string) {
		if callbackErr != nil {
			return
		}
		if len(parts) < 4 {
			report.skip(SkipMalformed)
			return
		}

		geonameID, err := strconv.Atoi(parts[1])
		if err != nil {
			report.skip(SkipMissingID)
			return
		}

		name := parts[3]
		if name == "" {
			report.skip(SkipEmptyName)
			return
		}

		lang := parts[2]
		if !p.languages[lang] {
			report.skip(SkipUnsupportedLanguage)
			return
		}

		ref, reason := ids.Classify(geonameID)
		if reason != "" {
			report.skip(reason)
			return
		}

		batch = append(batch, model.AltName{
			Ref:          ref,
			Language:     lang,
			Name:         name,
			Slug:         slug.Make(name),
			IsPreferred:  flag(parts, 4),
			IsShort:      flag(parts, 5),
			IsColloquial: flag(parts, 6),
			IsHistoric:   flag(parts, 7),
		})
		report.Imported++

		if len(batch) >= batchSize {
			if err := callback(batch); err != nil {
				callbackErr = fmt.Errorf("alt name callback error: %w", err)
				return
			}
			batch = batch[:0]
		}
	})
	if err != nil {
		return nil, err
	}
	if callbackErr != nil {
		return nil, callbackErr
	}

	if len(batch) > 0 {
		if err := callback(batch); err != nil {
			return nil, fmt.Errorf("alt name callback error: %w", err)
		}
	}

	return report, nil
}

func flag(parts []string, i int) bool {
	return len(parts) > i && parts[i] == "1"
}
