package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKm(t *testing.T) {
	tests := []struct {
		name     string
		lat1     float64
		lng1     float64
		lat2     float64
		lng2     float64
		expected float64 // km
		epsilon  float64
	}{
		{
			name:     "Same point",
			lat1:     52.5200,
			lng1:     13.4050,
			lat2:     52.5200,
			lng2:     13.4050,
			expected: 0.0,
			epsilon:  0.001,
		},
		{
			name: "Berlin to Potsdam",
			// Berlin
			lat1: 52.5200,
			lng1: 13.4050,
			// Potsdam
			lat2: 52.3989,
			lng2: 13.0657,
			// Approx 26 km
			expected: 26.0,
			epsilon:  1.0,
		},
		{
			name:     "North Pole to South Pole",
			lat1:     90.0,
			lng1:     0.0,
			lat2:     -90.0,
			lng2:     0.0,
			expected: 20003.9, // Half of the meridian
			epsilon:  50.0,    // Larger tolerance due to sphere model
		},
		{
			name:     "Equator 1 degree diff",
			lat1:     0.0,
			lng1:     0.0,
			lat2:     0.0,
			lng2:     1.0,
			expected: 111.19, // ~111 km
			epsilon:  0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceKm(tt.lat1, tt.lng1, tt.lat2, tt.lng2)

			diff := math.Abs(got - tt.expected)
			assert.True(t, diff <= tt.epsilon,
				"Expected distance ~%.2f km, got %.2f km (diff %.4f > epsilon %.4f)",
				tt.expected, got, diff, tt.epsilon)
		})
	}
}

func TestEarthRadius(t *testing.T) {
	assert.InDelta(t, wgs84A, EarthRadius(0), 0.001)
	assert.InDelta(t, wgs84B, EarthRadius(math.Pi/2), 0.001)
	mid := EarthRadius(deg2rad(45))
	assert.Greater(t, mid, wgs84B)
	assert.Less(t, mid, wgs84A)
}

func TestBoundingBoxAround(t *testing.T) {
	t.Run("Equator", func(t *testing.T) {
		box := BoundingBoxAround(0, 0, 10)
		// 10 km is ~0.0898 degrees at the equator
		assert.InDelta(t, -0.0898, box.LatMin, 0.001)
		assert.InDelta(t, 0.0898, box.LatMax, 0.001)
		assert.InDelta(t, -0.0898, box.LngMin, 0.001)
		assert.InDelta(t, 0.0898, box.LngMax, 0.001)
	})

	t.Run("Longitude span widens with latitude", func(t *testing.T) {
		box := BoundingBoxAround(60, 10, 10)
		latSpan := box.LatMax - box.LatMin
		lngSpan := box.LngMax - box.LngMin
		assert.InDelta(t, 2*latSpan, lngSpan, 0.01)
		assert.Less(t, box.LatMin, 60.0)
		assert.Greater(t, box.LatMax, 60.0)
		assert.Less(t, box.LatMax, 61.0)
	})

	t.Run("Box grows with radius", func(t *testing.T) {
		var prev float64
		for _, r := range SearchRadiiKm {
			box := BoundingBoxAround(53.55, 9.99, r)
			span := box.LatMax - box.LatMin
			assert.Greater(t, span, prev)
			prev = span
		}
	})
}

func TestDegreeDistance(t *testing.T) {
	assert.Equal(t, 0.0, DegreeDistance(1, 1, 1, 1))
	assert.InDelta(t, 5.0, DegreeDistance(0, 0, 3, 4), 1e-9)
}
