// Package geo holds the small amount of geodesy the query layer needs.
package geo

import (
	"math"

	"github.com/golang/geo/s2"
)

const (
	// WGS-84 ellipsoid axes in metres
	wgs84A = 6378137.0
	wgs84B = 6356752.3

	earthMeanRadiusKm = 6371.0088
)

// SearchRadiiKm are the radii tried in order when looking for the nearest city
var SearchRadiiKm = []float64{10, 50, 100, 200, 500, 2000}

// BoundingBox is a lat/lng rectangle in decimal degrees
type BoundingBox struct {
	LatMin, LatMax float64
	LngMin, LngMax float64
}

// EarthRadius returns the WGS-84 radius in metres at the given latitude in radians
func EarthRadius(lat float64) float64 {
	an := wgs84A * wgs84A * math.Cos(lat)
	bn := wgs84B * wgs84B * math.Sin(lat)
	ad := wgs84A * math.Cos(lat)
	bd := wgs84B * math.Sin(lat)
	return math.Sqrt((an*an + bn*bn) / (ad*ad + bd*bd))
}

// BoundingBoxAround returns the box of side 2*halfSideKm centred on the point
func BoundingBoxAround(lat, lng, halfSideKm float64) BoundingBox {
	latRad := deg2rad(lat)
	lngRad := deg2rad(lng)
	halfSide := 1000 * halfSideKm

	radius := EarthRadius(latRad)
	// radius of the parallel at the given latitude
	pradius := radius * math.Cos(latRad)

	return BoundingBox{
		LatMin: rad2deg(latRad - halfSide/radius),
		LatMax: rad2deg(latRad + halfSide/radius),
		LngMin: rad2deg(lngRad - halfSide/pradius),
		LngMax: rad2deg(lngRad + halfSide/pradius),
	}
}

// DegreeDistance is the flat euclidean distance in degree space.
// It is the ordering used to pick the nearest city.
func DegreeDistance(lat1, lng1, lat2, lng2 float64) float64 {
	return math.Hypot(lat1-lat2, lng1-lng2)
}

// DistanceKm returns the great-circle distance between two points
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	a := s2.LatLngFromDegrees(lat1, lng1)
	b := s2.LatLngFromDegrees(lat2, lng2)
	return a.Distance(b).Radians() * earthMeanRadiusKm
}

func deg2rad(d float64) float64 { return math.Pi * d / 180.0 }

func rad2deg(r float64) float64 { return 180.0 * r / math.Pi }
