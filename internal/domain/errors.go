package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrContractNotFound = errors.New("contract not found")
	ErrRoomNotFound     = errors.New("room not found")
	ErrPermissionDenied = errors.New("permission denied")
)

// ConflictError is returned when a date range collides with a blocking
// contract on the same room. It identifies the blocking contract so the
// caller can surface it.
type ConflictError struct {
	ContractID string
	Start      time.Time
	End        time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("room already reserved by contract %s from %s to %s",
		e.ContractID, e.Start.Format("2006-01-02"), e.End.Format("2006-01-02"))
}

// TransitionError is returned when a state transition is not allowed.
type TransitionError struct {
	Event   Event
	Current Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %q is not valid from state %q", e.Event, e.Current)
}

// CapacityError is returned when activating a contract would exceed the
// room's tenant capacity. It aborts the enclosing transaction.
type CapacityError struct {
	RoomID     string
	MaxTenants int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("room %s is at its capacity of %d tenants", e.RoomID, e.MaxTenants)
}

// ValidationError is returned for input rejected before any transaction
// opens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
