package entity

import (
	"fmt"
	"math"
)

// roomCellPrecision is the number of decimal degrees kept when snapping a
// coordinate to its room cell. Two decimals yields cells of roughly 1.1 km at
// the equator.
const roomCellPrecision = 2

// LocationRoom is a discrete geographic subscription unit. A client joins a
// room to receive events relevant to a coordinate and holds at most one active
// membership at a time.
type LocationRoom struct {
	ID        string  `json:"id"`  // Deterministic cell identifier, e.g. "loc:25.03:121.56".
	Latitude  float64 `json:"lat"` // The cell's anchor latitude (truncated).
	Longitude float64 `json:"lng"` // The cell's anchor longitude (truncated).
}

// RoomForCoordinate derives the room for a coordinate by truncating it to the
// fixed cell resolution. The derivation is deterministic: any two coordinates
// in the same cell map to the same room.
func RoomForCoordinate(c Coordinate) LocationRoom {
	lat := truncateDegrees(c.Latitude)
	lng := truncateDegrees(c.Longitude)

	return LocationRoom{
		ID:        fmt.Sprintf("loc:%.*f:%.*f", roomCellPrecision, lat, roomCellPrecision, lng),
		Latitude:  lat,
		Longitude: lng,
	}
}

// Anchor returns the cell's anchor coordinate, used as the join/leave payload.
func (r LocationRoom) Anchor() Coordinate {
	return Coordinate{Latitude: r.Latitude, Longitude: r.Longitude}
}

func truncateDegrees(v float64) float64 {
	factor := math.Pow10(roomCellPrecision)

	return math.Trunc(v*factor) / factor
}
