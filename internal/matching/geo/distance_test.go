package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMiles_KnownPairs(t *testing.T) {
	tests := []struct {
		name       string
		lat1, lng1 float64
		lat2, lng2 float64
		want       float64
		delta      float64
	}{
		{"san francisco to los angeles", 37.7749, -122.4194, 34.0522, -118.2437, 347, 3},
		{"new york to london", 40.7128, -74.0060, 51.5074, -0.1278, 3461, 10},
		{"short hop", 37.77, -122.42, 37.77, -122.24, 9.8, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Miles(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			assert.InDelta(t, tt.want, got, tt.delta)
		})
	}
}

func TestMiles_Symmetry(t *testing.T) {
	points := [][2]float64{
		{37.77, -122.42},
		{40.71, -74.00},
		{-33.86, 151.21},
		{51.50, -0.12},
		{1.35, 103.82},
	}

	for _, a := range points {
		for _, b := range points {
			ab := Miles(a[0], a[1], b[0], b[1])
			ba := Miles(b[0], b[1], a[0], a[1])
			assert.InDelta(t, ab, ba, 1e-9)
			assert.GreaterOrEqual(t, ab, 0.0)
		}
		assert.Equal(t, 0.0, Miles(a[0], a[1], a[0], a[1]))
	}
}

func TestMiles_MissingCoordinates(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
	}{
		{"zero origin latitude", 0, -122.42, 37.77, -122.42},
		{"zero destination longitude", 37.77, -122.42, 37.77, 0},
		{"all zero", 0, 0, 0, 0},
		{"NaN", math.NaN(), -122.42, 37.77, -122.42},
		{"infinite", 37.77, math.Inf(1), 37.77, -122.42},
		{"latitude out of range", 91, -122.42, 37.77, -122.42},
		{"longitude out of range", 37.77, -181, 37.77, -122.42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Miles(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			assert.Equal(t, UnknownDistanceMiles, got)
			assert.True(t, IsUnknown(got))
		})
	}
}

func TestCategory(t *testing.T) {
	assert.Equal(t, CategoryLocal, Category(0))
	assert.Equal(t, CategoryLocal, Category(100))
	assert.Equal(t, CategoryRegional, Category(100.5))
	assert.Equal(t, CategoryRegional, Category(500))
	assert.Equal(t, CategoryNational, Category(1500))
	assert.Equal(t, CategoryInternational, Category(1500.1))
	assert.Equal(t, CategoryUnknown, Category(UnknownDistanceMiles))
}

func TestCategoryWithin(t *testing.T) {
	tests := []struct {
		name  string
		miles float64
		local float64
		want  string
	}{
		{"inside narrowed band", 50, 50, CategoryLocal},
		{"outside narrowed band", 80, 50, CategoryRegional},
		{"widened band", 300, 400, CategoryLocal},
		{"non-positive falls back", 100, 0, CategoryLocal},
		{"unknown distance", UnknownDistanceMiles, 50, CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CategoryWithin(tt.miles, tt.local))
		})
	}
}
