package model

import "encoding/json"

// NamedItem is an (id, name) pair, rendered as a two element JSON array
type NamedItem struct {
	ID   int
	Name string
}

// MarshalJSON renders the item as [id, name]
func (n NamedItem) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{n.ID, n.Name})
}

// Coordinate represents geographic coordinates
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// CityDetail is a city joined with its main name in one language
type CityDetail struct {
	ID            int        `json:"id"`
	Name          string     `json:"name"`
	Slug          string     `json:"slug"`
	CompositeName string     `json:"composite_name"`
	URL           string     `json:"url"`
	Language      string     `json:"language"`
	CountryID     int        `json:"country_id"`
	RegionID      int        `json:"region_id"`
	Coordinates   Coordinate `json:"coordinates"`
	Population    int64      `json:"population"`
	Timezone      string     `json:"timezone,omitempty"`
}

// NewCityDetail combines a city with its main AltName
func NewCityDetail(city City, main AltName) CityDetail {
	return CityDetail{
		ID:            city.ID,
		Name:          main.Name,
		Slug:          main.Slug,
		CompositeName: main.CRC,
		URL:           main.URL,
		Language:      main.Language,
		CountryID:     city.CountryID,
		RegionID:      city.RegionID,
		Coordinates:   Coordinate{Lat: city.Lat, Lng: city.Lng},
		Population:    city.Population,
		Timezone:      city.Timezone,
	}
}

// NearestCityResponse represents the response for nearest city search
type NearestCityResponse struct {
	City               CityDetail `json:"city"`
	RequestCoordinates Coordinate `json:"request_coordinates"`
	DistanceKm         float64    `json:"distance_km"`
}

// AutocompleteResponse wraps autocomplete results
type AutocompleteResponse struct {
	Results []any `json:"results"`
}

// AutocompleteRequest represents an autocomplete query
type AutocompleteRequest struct {
	Query    string
	Language string
	Limit    int
	Fields   []string
}
