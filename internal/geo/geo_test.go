package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	nycCityHall  = Coordinate{Latitude: 40.7128, Longitude: -74.0060}
	williamsburg = Coordinate{Latitude: 40.7306, Longitude: -73.9352}
	losAngeles   = Coordinate{Latitude: 34.0522, Longitude: -118.2437}
)

func TestHaversine_KnownDistances(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Coordinate
		expected float64
		delta    float64
	}{
		{"same point", nycCityHall, nycCityHall, 0, 1e-9},
		{"manhattan to williamsburg", nycCityHall, williamsburg, 3.91, 0.01},
		{"new york to los angeles", nycCityHall, losAngeles, 2445.71, 0.5},
		{"quarter meridian", Coordinate{0, 0}, Coordinate{90, 0}, math.Pi / 2 * EarthRadiusMiles, 1e-6},
		{"antipodes", Coordinate{0, 0}, Coordinate{0, 180}, math.Pi * EarthRadiusMiles, 1e-6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Haversine(tt.a, tt.b)
			assert.False(t, math.IsNaN(float64(d)))
			assert.InDelta(t, tt.expected, float64(d), tt.delta)
		})
	}
}

func TestHaversine_Symmetric(t *testing.T) {
	points := []Coordinate{
		nycCityHall, williamsburg, losAngeles,
		{Latitude: -33.8688, Longitude: 151.2093},
		{Latitude: 51.5074, Longitude: -0.1278},
		{Latitude: 89.9, Longitude: 179.9},
		{Latitude: -89.9, Longitude: -179.9},
	}

	for _, a := range points {
		for _, b := range points {
			assert.Equal(t, Haversine(a, b).Rounded(), Haversine(b, a).Rounded(), "%v <-> %v", a, b)
		}
	}
}

func TestMiles_Rounded(t *testing.T) {
	assert.Equal(t, 3.91, Haversine(nycCityHall, williamsburg).Rounded())
	assert.Equal(t, 1.24, Miles(1.235).Rounded())
	assert.Equal(t, 0.0, Miles(0.004).Rounded())
}

func TestCoordinate_Validate(t *testing.T) {
	tests := []struct {
		name    string
		c       Coordinate
		wantErr string
	}{
		{"valid", nycCityHall, ""},
		{"poles and dateline", Coordinate{90, 180}, ""},
		{"south pole", Coordinate{-90, -180}, ""},
		{"latitude too big", Coordinate{90.01, 0}, "latitude"},
		{"latitude too small", Coordinate{-91, 0}, "latitude"},
		{"longitude too big", Coordinate{0, 180.5}, "longitude"},
		{"nan latitude", Coordinate{math.NaN(), 0}, "latitude"},
		{"infinite longitude", Coordinate{0, math.Inf(-1)}, "longitude"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var rangeErr *RangeError
			require.ErrorAs(t, err, &rangeErr)
			assert.Equal(t, tt.wantErr, rangeErr.Field)
		})
	}
}

func TestNewCoordinate(t *testing.T) {
	c, err := NewCoordinate(40.7128, -74.0060)
	require.NoError(t, err)
	assert.Equal(t, nycCityHall, c)

	_, err = NewCoordinate(100, 0)
	assert.Error(t, err)
}

func TestGrid_Snap(t *testing.T) {
	g := NewGrid(0.1)

	tests := []struct {
		name string
		in   Coordinate
		want Cell
	}{
		{"city hall", nycCityHall, Cell{40.7, -74.0}},
		{"nearby point same cell", Coordinate{40.68, -73.98}, Cell{40.7, -74.0}},
		{"williamsburg", williamsburg, Cell{40.7, -73.9}},
		{"half step rounds away from zero", Coordinate{0.05, -0.05}, Cell{0.1, -0.1}},
		{"negative half step", Coordinate{-73.95, 40.75}, Cell{-74.0, 40.8}},
		{"origin", Coordinate{0, 0}, Cell{0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.Snap(tt.in))
		})
	}
}

func TestGrid_SnapIsIdempotent(t *testing.T) {
	g := NewGrid(0.1)
	for _, c := range []Coordinate{nycCityHall, williamsburg, losAngeles} {
		cell := g.Snap(c)
		again := g.Snap(Coordinate{Latitude: cell.Latitude, Longitude: cell.Longitude})
		assert.Equal(t, cell, again)
	}
}

func TestNewGrid_DefaultsInvalidSize(t *testing.T) {
	assert.Equal(t, DefaultGridSize, NewGrid(0).Size)
	assert.Equal(t, DefaultGridSize, NewGrid(-1).Size)
	assert.Equal(t, 0.5, NewGrid(0.5).Size)

	cell := NewGrid(0.5).Snap(Coordinate{40.7128, -74.0060})
	assert.Equal(t, Cell{40.5, -74.0}, cell)
}
