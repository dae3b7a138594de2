package domain

import "time"

// Tenancy is a historical record of a tenant physically occupying a room,
// kept separate from the legal contract. At most one row per (room, tenant)
// pair may have IsCurrent set at any time.
type Tenancy struct {
	ID         string
	RoomID     string
	TenantID   string
	IsCurrent  bool
	MovedInAt  time.Time
	MovedOutAt *time.Time
}

// NewTenancy opens a tenancy record as of the given move-in date.
func NewTenancy(id, roomID, tenantID string, movedInAt time.Time) Tenancy {
	return Tenancy{
		ID:        id,
		RoomID:    roomID,
		TenantID:  tenantID,
		IsCurrent: true,
		MovedInAt: movedInAt,
	}
}
