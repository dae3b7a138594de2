package app

import (
	"context"
	"fmt"

	"github.com/neomorfeo/leaseiq/internal/domain"
)

// The room/tenancy synchronizer applies the side effects of a contract
// entering or leaving the active state. Both functions run inside the
// caller's transaction; any error aborts the whole transaction.

// applyActivation marks the room occupied by the contract and opens a
// tenancy row. It fails with a CapacityError if the room is full, leaving
// the contract unactivated.
func (e *Engine) applyActivation(ctx context.Context, s domain.Stores, c *domain.Contract) error {
	room, err := s.Rooms.GetByID(ctx, c.RoomID)
	if err != nil {
		return err
	}

	// A prior open tenancy for this pair (e.g. from an earlier contract)
	// is closed before opening the new one.
	if err := s.Tenancies.CloseCurrent(ctx, c.RoomID, c.TenantID, e.now()); err != nil {
		return fmt.Errorf("closing prior tenancy: %w", err)
	}

	current, err := s.Tenancies.CountCurrent(ctx, c.RoomID)
	if err != nil {
		return fmt.Errorf("counting current tenants: %w", err)
	}
	if current+1 > room.MaxTenants {
		return &domain.CapacityError{RoomID: room.ID, MaxTenants: room.MaxTenants}
	}

	tenancy := domain.NewTenancy(newID(), c.RoomID, c.TenantID, c.StartDate)
	if err := s.Tenancies.Insert(ctx, tenancy); err != nil {
		return fmt.Errorf("opening tenancy: %w", err)
	}

	room.CurrentContractID = &c.ID
	room.Status = domain.RoomOccupied
	if err := s.Rooms.Update(ctx, room); err != nil {
		return fmt.Errorf("occupying room: %w", err)
	}
	return nil
}

// applyDeactivation frees the room and closes the tenant's open tenancy row.
// The room is only touched if it still points at this contract; a room that
// has since been reassigned by a concurrent operation is left alone.
func (e *Engine) applyDeactivation(ctx context.Context, s domain.Stores, c *domain.Contract) error {
	room, err := s.Rooms.GetByID(ctx, c.RoomID)
	if err != nil {
		return err
	}

	if room.CurrentContractID != nil && *room.CurrentContractID == c.ID {
		room.CurrentContractID = nil
		room.Status = domain.RoomAvailable
		if err := s.Rooms.Update(ctx, room); err != nil {
			return fmt.Errorf("freeing room: %w", err)
		}
	}

	if err := s.Tenancies.CloseCurrent(ctx, c.RoomID, c.TenantID, e.now()); err != nil {
		return fmt.Errorf("closing tenancy: %w", err)
	}
	return nil
}
