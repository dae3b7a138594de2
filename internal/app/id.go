package app

import "github.com/google/uuid"

// newID produces an identifier for contracts, rooms, and tenancy rows.
// Isolated here so the ID strategy can evolve independently.
func newID() string {
	return uuid.NewString()
}
