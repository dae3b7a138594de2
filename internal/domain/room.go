package domain

import "time"

// RoomStatus is the occupancy state of a room.
type RoomStatus string

const (
	RoomAvailable RoomStatus = "available"
	RoomOccupied  RoomStatus = "occupied"
)

// Room is a rentable space. CurrentContractID is owned exclusively by the
// room/tenancy synchronizer: it points at the active contract occupying the
// room, and Status is "occupied" iff that pointer is set.
type Room struct {
	ID                string
	Name              string
	Status            RoomStatus
	CurrentContractID *string
	MaxTenants        int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewRoom creates an available room.
func NewRoom(id, name string, maxTenants int) Room {
	now := time.Now().UTC()
	return Room{
		ID:         id,
		Name:       name,
		Status:     RoomAvailable,
		MaxTenants: maxTenants,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
