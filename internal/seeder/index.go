package seeder

import (
	"github.com/alexivanou/gazetteer/internal/model"
)

// CountryIndex maps ISO country codes to country ids
type CountryIndex map[string]int

// NewCountryIndex builds the index from stored countries
func NewCountryIndex(countries []model.Country) CountryIndex {
	idx := make(CountryIndex, len(countries))
	for _, c := range countries {
		idx[c.Code] = c.ID
	}
	return idx
}

// RegionIndex maps "CC.admin1" codes to regions
type RegionIndex map[string]model.Region

// NewRegionIndex builds the index from stored regions
func NewRegionIndex(regions []model.Region) RegionIndex {
	idx := make(RegionIndex, len(regions))
	for _, r := range regions {
		idx[r.Code] = r
	}
	return idx
}

// GeonameIndex holds the known geoname ids partitioned by entity type
type GeonameIndex struct {
	partitions map[model.EntityType]map[int]struct{}
}

// NewGeonameIndex builds the index from stored hierarchy rows
func NewGeonameIndex(countries []model.Country, regions []model.Region, cities []model.City) *GeonameIndex {
	g := &GeonameIndex{partitions: make(map[model.EntityType]map[int]struct{}, len(model.EntityTypes))}
	for _, t := range model.EntityTypes {
		g.partitions[t] = make(map[int]struct{})
	}
	for _, c := range countries {
		g.partitions[model.EntityCountry][c.ID] = struct{}{}
	}
	for _, r := range regions {
		g.partitions[model.EntityRegion][r.ID] = struct{}{}
	}
	for _, c := range cities {
		g.partitions[model.EntityCity][c.ID] = struct{}{}
	}
	return g
}

// Classify resolves a geoname id to its reference. The id must be present
// in exactly one partition; otherwise the skip reason is returned.
func (g *GeonameIndex) Classify(id int) (model.GeoRef, SkipReason) {
	var found []model.EntityType
	for _, t := range model.EntityTypes {
		if _, ok := g.partitions[t][id]; ok {
			found = append(found, t)
		}
	}

	switch len(found) {
	case 0:
		return nil, SkipUnknownGeoname
	case 1:
		ref, _ := model.NewGeoRef(found[0], id)
		return ref, ""
	default:
		return nil, SkipAmbiguousGeoname
	}
}

// Len returns the number of ids in the partition of the given type
func (g *GeonameIndex) Len(t model.EntityType) int {
	return len(g.partitions[t])
}
