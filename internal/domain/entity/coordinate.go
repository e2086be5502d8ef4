// Package entity contains the core business objects of the project.
package entity

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/pkg/errors"
)

// ErrCoordinateOutOfRange is returned when a coordinate lies outside the valid
// latitude/longitude ranges or outside the service's supported bounds.
var ErrCoordinateOutOfRange = errors.New("coordinate out of range")

// Coordinate represents a geographic position reported by a device.
type Coordinate struct {
	Latitude  float64 `json:"lat"` // The geographic latitude in decimal degrees.
	Longitude float64 `json:"lng"` // The geographic longitude in decimal degrees.
}

// Point converts the coordinate to an orb.Point (lng/lat order).
func (c Coordinate) Point() orb.Point {
	return orb.Point{c.Longitude, c.Latitude}
}

// Validate checks that the coordinate lies within the valid geographic ranges.
func (c Coordinate) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return errors.Wrapf(ErrCoordinateOutOfRange, "latitude %f", c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return errors.Wrapf(ErrCoordinateOutOfRange, "longitude %f", c.Longitude)
	}

	return nil
}

// DistanceMeters returns the great-circle distance to another coordinate in meters.
func (c Coordinate) DistanceMeters(other Coordinate) float64 {
	return geo.Distance(c.Point(), other.Point())
}

// Bounds describes the geographic area the service supports. Coordinates
// outside the bounds are discarded, not forwarded.
type Bounds struct {
	MinLatitude  float64 `json:"minLat" yaml:"minLat"`
	MaxLatitude  float64 `json:"maxLat" yaml:"maxLat"`
	MinLongitude float64 `json:"minLng" yaml:"minLng"`
	MaxLongitude float64 `json:"maxLng" yaml:"maxLng"`
}

// WorldBounds covers the whole valid coordinate space.
func WorldBounds() Bounds {
	return Bounds{MinLatitude: -90, MaxLatitude: 90, MinLongitude: -180, MaxLongitude: 180}
}

// Bound converts the bounds to an orb.Bound.
func (b Bounds) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLongitude, b.MinLatitude},
		Max: orb.Point{b.MaxLongitude, b.MaxLatitude},
	}
}

// Contains reports whether the coordinate lies within the bounds.
func (b Bounds) Contains(c Coordinate) bool {
	return b.Bound().Contains(c.Point())
}
