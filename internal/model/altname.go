package model

// AltName is one name variant of a Country, Region or City in one language.
// CountryID and RegionID are 0 when unset.
type AltName struct {
	ID           int64
	Ref          GeoRef
	Language     string
	Name         string
	Slug         string
	IsPreferred  bool
	IsShort      bool
	IsColloquial bool
	IsHistoric   bool
	IsMain       bool

	CountryID int
	RegionID  int
	Lat       *float64
	Lng       *float64
	CRC       string
	URL       string
}

// MainKey identifies the (entity, language) pair an AltName belongs to
type MainKey struct {
	Type     EntityType
	ID       int
	Language string
}

// Key returns the pair this row competes for is_main within
func (a AltName) Key() MainKey {
	return MainKey{Type: a.Ref.Type(), ID: a.Ref.GeonameID(), Language: a.Language}
}

// CompositeUpdate carries the derived fields written onto a city main row
type CompositeUpdate struct {
	ID        int64   `db:"id"`
	CountryID int     `db:"country_id"`
	RegionID  int     `db:"region_id"`
	Lat       float64 `db:"lat"`
	Lng       float64 `db:"lng"`
	CRC       string  `db:"crc"`
	URL       string  `db:"url"`
}
