// Package geo holds the coordinate and distance types used by matching and hotspots.
package geo

import (
	"fmt"
	"math"
)

// EarthRadiusMiles is the mean Earth radius used for haversine distances
const EarthRadiusMiles = 3959.0

// Miles is a great-circle distance
type Miles float64

// Rounded returns the distance rounded to two decimals
func (m Miles) Rounded() float64 {
	return RoundTo(float64(m), 2)
}

// Coordinate is a WGS84 latitude/longitude pair in degrees
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// RangeError reports which axis of a coordinate is invalid
type RangeError struct {
	Field string
	Value float64
}

func (e *RangeError) Error() string {
	switch e.Field {
	case "latitude":
		return fmt.Sprintf("latitude %v must be between -90 and 90", e.Value)
	default:
		return fmt.Sprintf("longitude %v must be between -180 and 180", e.Value)
	}
}

// NewCoordinate validates and returns a coordinate
func NewCoordinate(lat, lon float64) (Coordinate, error) {
	c := Coordinate{Latitude: lat, Longitude: lon}
	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}
	return c, nil
}

// Validate rejects NaN, infinities and out-of-range values
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Latitude) || c.Latitude < -90 || c.Latitude > 90 {
		return &RangeError{Field: "latitude", Value: c.Latitude}
	}
	if math.IsNaN(c.Longitude) || c.Longitude < -180 || c.Longitude > 180 {
		return &RangeError{Field: "longitude", Value: c.Longitude}
	}
	return nil
}

// Haversine returns the great-circle distance between a and b
func Haversine(a, b Coordinate) Miles {
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	// clamp float drift so antipodal points do not produce NaN
	h = math.Min(1, math.Max(0, h))

	return Miles(EarthRadiusMiles * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h)))
}

// RoundTo rounds v to the given number of decimal places, half away from zero
func RoundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
