package resolver

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/alexivanou/gazetteer/internal/model"
	"github.com/alexivanou/gazetteer/internal/slug"
)

const (
	maxCRCLength = 200
	maxURLLength = 100
)

type tryFunc func(rows []model.AltName) (model.AltName, bool)

// selectionChain is tried in order; the first function that succeeds
// picks the main row. Rows are sorted by id so "first" means lowest id.
var selectionChain = []tryFunc{
	keepSingleMain,
	onlyRow,
	firstWhere(func(a model.AltName) bool { return a.IsShort }),
	firstWhere(func(a model.AltName) bool { return a.IsPreferred }),
	firstWhere(func(model.AltName) bool { return true }),
}

// keepSingleMain succeeds only when exactly one row is already main.
// Several mains fall through to the rest of the chain, which ignores the
// current flags and so repairs the pair in the same pass.
func keepSingleMain(rows []model.AltName) (model.AltName, bool) {
	var main model.AltName
	count := 0
	for _, r := range rows {
		if r.IsMain {
			main = r
			count++
		}
	}
	return main, count == 1
}

func onlyRow(rows []model.AltName) (model.AltName, bool) {
	if len(rows) == 1 {
		return rows[0], true
	}
	return model.AltName{}, false
}

func firstWhere(pred func(model.AltName) bool) tryFunc {
	return func(rows []model.AltName) (model.AltName, bool) {
		for _, r := range rows {
			if pred(r) {
				return r, true
			}
		}
		return model.AltName{}, false
	}
}

// SelectMain picks the main row among all rows of one (entity, language)
// pair. It returns false when rows is empty.
func SelectMain(rows []model.AltName) (model.AltName, bool) {
	sorted := make([]model.AltName, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	for _, try := range selectionChain {
		if main, ok := try(sorted); ok {
			return main, true
		}
	}
	return model.AltName{}, false
}

// MainFlagChanges returns the row ids whose is_main flag must be set or
// cleared so that main is the only main row.
func MainFlagChanges(rows []model.AltName, main model.AltName) (setIDs, clearIDs []int64) {
	for _, r := range rows {
		want := r.ID == main.ID
		switch {
		case want && !r.IsMain:
			setIDs = append(setIDs, r.ID)
		case !want && r.IsMain:
			clearIDs = append(clearIDs, r.ID)
		}
	}
	return setIDs, clearIDs
}

// GapFill synthesizes a row from the default name of every entity that
// has no row in lang yet.
func GapFill(t model.EntityType, lang string, entities []model.Entity, existing []model.AltName) ([]model.AltName, error) {
	have := make(map[int]struct{}, len(existing))
	for _, a := range existing {
		have[a.Ref.GeonameID()] = struct{}{}
	}

	var missing []model.AltName
	for _, e := range entities {
		if _, ok := have[e.ID]; ok {
			continue
		}
		ref, err := e.Ref(t)
		if err != nil {
			return nil, err
		}
		a := model.AltName{
			Ref:         ref,
			Language:    lang,
			Name:        e.Name,
			Slug:        slug.Make(e.Name),
			IsPreferred: true,
			IsShort:     true,
		}
		switch t {
		case model.EntityRegion:
			a.CountryID = e.CountryID
		case model.EntityCity:
			a.CountryID = e.CountryID
			a.RegionID = e.RegionID
		}
		missing = append(missing, a)
	}
	return missing, nil
}

// ComposeCRC builds "City, Region, Country"
func ComposeCRC(city, region, country string) string {
	return truncate(strings.Join([]string{city, region, country}, ", "), maxCRCLength)
}

// ComposeURL builds "country/region/city" from slugs
func ComposeURL(countrySlug, regionSlug, citySlug string) string {
	return truncate(strings.Join([]string{countrySlug, regionSlug, citySlug}, "/"), maxURLLength)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
