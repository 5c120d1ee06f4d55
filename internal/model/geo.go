package model

import "fmt"

// EntityType identifies which hierarchy level a GeoRef points at.
// The numeric values are persisted in alt_names.type.
type EntityType int

const (
	EntityCountry EntityType = 1
	EntityRegion  EntityType = 2
	EntityCity    EntityType = 3
)

// EntityTypes lists every entity type in resolution order
var EntityTypes = []EntityType{EntityCountry, EntityRegion, EntityCity}

func (t EntityType) String() string {
	switch t {
	case EntityCountry:
		return "country"
	case EntityRegion:
		return "region"
	case EntityCity:
		return "city"
	default:
		return fmt.Sprintf("EntityType(%d)", int(t))
	}
}

// GeoRef is a reference to exactly one Country, Region or City.
// It is implemented only by CountryRef, RegionRef and CityRef.
type GeoRef interface {
	GeonameID() int
	Type() EntityType
	isGeoRef()
}

// CountryRef references a Country by geoname id
type CountryRef int

// RegionRef references a Region by geoname id
type RegionRef int

// CityRef references a City by geoname id
type CityRef int

func (r CountryRef) GeonameID() int   { return int(r) }
func (r CountryRef) Type() EntityType { return EntityCountry }
func (CountryRef) isGeoRef()          {}

func (r RegionRef) GeonameID() int   { return int(r) }
func (r RegionRef) Type() EntityType { return EntityRegion }
func (RegionRef) isGeoRef()          {}

func (r CityRef) GeonameID() int   { return int(r) }
func (r CityRef) Type() EntityType { return EntityCity }
func (CityRef) isGeoRef()          {}

// NewGeoRef builds the reference for a persisted (type, geoname_id) pair
func NewGeoRef(t EntityType, id int) (GeoRef, error) {
	switch t {
	case EntityCountry:
		return CountryRef(id), nil
	case EntityRegion:
		return RegionRef(id), nil
	case EntityCity:
		return CityRef(id), nil
	default:
		return nil, fmt.Errorf("unknown entity type %d: %w", int(t), ErrInvalidArgument)
	}
}

// Country represents a country in the database
type Country struct {
	ID         int    `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	Code       string `db:"code" json:"code"`
	TLD        string `db:"tld" json:"tld"`
	Continent  string `db:"continent" json:"continent"`
	Population int64  `db:"population" json:"population"`
}

// Region represents a first-level administrative division
type Region struct {
	ID        int    `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	Code      string `db:"code" json:"code"`
	CountryID int    `db:"country_id" json:"country_id"`
}

// City represents a populated place
type City struct {
	ID         int     `db:"id" json:"id"`
	Name       string  `db:"name" json:"name"`
	Lat        float64 `db:"lat" json:"lat"`
	Lng        float64 `db:"lng" json:"lng"`
	Population int64   `db:"population" json:"population"`
	RegionID   int     `db:"region_id" json:"region_id"`
	CountryID  int     `db:"country_id" json:"country_id"`
	Timezone   string  `db:"timezone" json:"timezone"`
}

// Entity is the minimal view of any hierarchy row used for gap filling
type Entity struct {
	ID        int
	Name      string
	CountryID int
	RegionID  int
}

// Ref returns the GeoRef of the entity for the given type
func (e Entity) Ref(t EntityType) (GeoRef, error) {
	return NewGeoRef(t, e.ID)
}
