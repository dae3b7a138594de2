package domain

import (
	"context"
	"time"
)

// ContractStore defines the persistence contract for rental contracts.
// GetByID returns soft-deleted contracts too; callers that must not see
// them check Deleted themselves (restore needs the deleted row).
type ContractStore interface {
	Create(ctx context.Context, contract Contract) error
	GetByID(ctx context.Context, id string) (Contract, error)
	List(ctx context.Context, filter ContractFilter) ([]Contract, error)
	// ListBlockingByRoom returns the room's contracts in a blocking status,
	// soft-deleted rows excluded. Callers run FindConflict over the result.
	ListBlockingByRoom(ctx context.Context, roomID string) ([]Contract, error)
	// ListExpiring returns non-deleted active/pending contracts whose end
	// date is strictly before the given day.
	ListExpiring(ctx context.Context, before time.Time) ([]Contract, error)
	Update(ctx context.Context, contract Contract) error
	HardDelete(ctx context.Context, id string) error
}

// ContractFilter holds optional criteria for listing contracts.
type ContractFilter struct {
	Status         *Status
	RoomID         string
	TenantID       string
	IncludeDeleted bool
	Limit          int
	Offset         int
}

// RoomStore defines the persistence contract for rooms.
type RoomStore interface {
	Create(ctx context.Context, room Room) error
	GetByID(ctx context.Context, id string) (Room, error)
	Update(ctx context.Context, room Room) error
}

// TenancyStore defines the persistence contract for tenancy history rows.
type TenancyStore interface {
	Insert(ctx context.Context, tenancy Tenancy) error
	// CloseCurrent closes any open tenancy row for the (room, tenant) pair.
	// A pair with no open row is a no-op.
	CloseCurrent(ctx context.Context, roomID, tenantID string, movedOutAt time.Time) error
	// CountCurrent returns the number of distinct tenants currently in the room.
	CountCurrent(ctx context.Context, roomID string) (int, error)
	ListByRoom(ctx context.Context, roomID string) ([]Tenancy, error)
}

// BillStore gives the clearance gate read access to the billing system's
// rows. Create exists for the external billing producer; the engine itself
// only lists and deletes drafts.
type BillStore interface {
	Create(ctx context.Context, bill Bill) error
	// ListByContract returns the contract's bills, optionally filtered to
	// the given statuses. A nil filter returns everything.
	ListByContract(ctx context.Context, contractID string, statusIn []BillStatus) ([]Bill, error)
	DeleteDrafts(ctx context.Context, contractID string) error
}

// Notification is an external side effect (email, push) recorded in the
// outbox during a transaction and delivered only after it commits.
type Notification struct {
	Kind        string
	RecipientID string
	Data        map[string]string
}

// Notification kinds dispatched by the engine.
const (
	NoticeContractCreated      = "contract.created"
	NoticeContractApproved     = "contract.approved"
	NoticeContractRejected     = "contract.rejected"
	NoticeContractUpdated      = "contract.updated"
	NoticeTerminationRequested = "contract.termination_requested"
	NoticeTerminationDeclined  = "contract.termination_declined"
	NoticeClearancePending     = "contract.clearance_pending"
	NoticeContractTerminated   = "contract.terminated"
	NoticeContractExpired      = "contract.expired"
	NoticeContractRestored     = "contract.restored"
	NoticeContractDeleted      = "contract.deleted"
)

// NotificationOutbox enqueues notifications inside the owning transaction,
// so a notification exists iff the state change committed. Delivery failure
// downstream never affects the committed change.
type NotificationOutbox interface {
	Enqueue(ctx context.Context, n Notification) error
}

// Stores bundles the transaction-scoped ports handed to an InTx callback.
type Stores struct {
	Contracts ContractStore
	Rooms     RoomStore
	Tenancies TenancyStore
	Bills     BillStore
	Outbox    NotificationOutbox
}

// TxRunner executes fn inside a single database transaction. Every
// multi-entity mutation in the engine goes through it: either all of the
// callback's writes commit or none do.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}

// TransitionValidator checks transition legality against the Transitions
// table and returns the destination state.
type TransitionValidator interface {
	Apply(ctx context.Context, current Status, event Event) (Status, error)
}
