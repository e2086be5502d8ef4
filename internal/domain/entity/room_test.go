package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomForCoordinate(t *testing.T) {
	room := RoomForCoordinate(Coordinate{Latitude: 25.0339, Longitude: 121.5645})

	assert.Equal(t, "loc:25.03:121.56", room.ID)
	assert.InDelta(t, 25.03, room.Latitude, 0.0001)
	assert.InDelta(t, 121.56, room.Longitude, 0.0001)
}

func TestRoomForCoordinate_SameCellSameRoom(t *testing.T) {
	// Any two coordinates inside the same cell must derive the same room.
	a := RoomForCoordinate(Coordinate{Latitude: 25.0301, Longitude: 121.5601})
	b := RoomForCoordinate(Coordinate{Latitude: 25.0399, Longitude: 121.5699})

	assert.Equal(t, a, b)
}

func TestRoomForCoordinate_AdjacentCellDiffers(t *testing.T) {
	a := RoomForCoordinate(Coordinate{Latitude: 25.0399, Longitude: 121.5654})
	b := RoomForCoordinate(Coordinate{Latitude: 25.0401, Longitude: 121.5654})

	assert.NotEqual(t, a.ID, b.ID)
}

func TestRoomForCoordinate_NegativeCoordinates(t *testing.T) {
	room := RoomForCoordinate(Coordinate{Latitude: -33.8688, Longitude: -70.6693})

	assert.Equal(t, "loc:-33.86:-70.66", room.ID)
}

func TestLocationRoom_Anchor(t *testing.T) {
	room := RoomForCoordinate(Coordinate{Latitude: 25.0339, Longitude: 121.5645})
	anchor := room.Anchor()

	assert.Equal(t, room.Latitude, anchor.Latitude)
	assert.Equal(t, room.Longitude, anchor.Longitude)
	// The anchor maps back to its own room.
	assert.Equal(t, room.ID, RoomForCoordinate(anchor).ID)
}
