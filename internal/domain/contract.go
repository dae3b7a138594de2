package domain

import (
	"fmt"
	"time"
)

// Status represents the lifecycle state of a rental contract.
type Status string

const (
	StatusPending              Status = "pending"
	StatusRejected             Status = "rejected"
	StatusActive               Status = "active"
	StatusRequestedTermination Status = "requested_termination"
	StatusPendingTransaction   Status = "pending_transaction"
	StatusTerminated           Status = "terminated"
	StatusExpired              Status = "expired"
)

// Blocking reports whether a contract in this state reserves its room's
// date range against other contracts.
func (s Status) Blocking() bool {
	return s == StatusActive || s == StatusPending || s == StatusPendingTransaction
}

// Occupying reports whether a contract in this state holds its room.
// Occupancy begins at activation and ends only when the contract reaches a
// terminal state, so the clearance-wait states keep the room held.
func (s Status) Occupying() bool {
	return s == StatusActive || s == StatusRequestedTermination || s == StatusPendingTransaction
}

// Terminal reports whether the state has no outgoing transitions.
func (s Status) Terminal() bool {
	return s == StatusTerminated || s == StatusExpired
}

// Event represents an action that triggers a state transition.
type Event string

const (
	EventApprove            Event = "approve"
	EventReject             Event = "reject"
	EventResubmit           Event = "resubmit"
	EventRequestTermination Event = "request_termination"
	EventDeclineTermination Event = "decline_termination"
	EventAwaitClearance     Event = "await_clearance"
	EventTerminate          Event = "terminate"
	EventExpire             Event = "expire"
)

// Transition defines a valid state change: an event moves a contract from Src to Dst.
type Transition struct {
	Event Event
	Src   Status
	Dst   Status
}

// Transitions defines all valid state changes in the contract lifecycle.
// This table is the single authority on legality; no other code path may
// mutate a contract's status directly.
var Transitions = []Transition{
	{Event: EventApprove, Src: StatusPending, Dst: StatusActive},
	{Event: EventReject, Src: StatusPending, Dst: StatusRejected},
	{Event: EventResubmit, Src: StatusRejected, Dst: StatusPending},
	{Event: EventRequestTermination, Src: StatusActive, Dst: StatusRequestedTermination},
	{Event: EventDeclineTermination, Src: StatusRequestedTermination, Dst: StatusActive},
	{Event: EventAwaitClearance, Src: StatusActive, Dst: StatusPendingTransaction},
	{Event: EventAwaitClearance, Src: StatusRequestedTermination, Dst: StatusPendingTransaction},
	{Event: EventTerminate, Src: StatusActive, Dst: StatusTerminated},
	{Event: EventTerminate, Src: StatusRequestedTermination, Dst: StatusTerminated},
	{Event: EventTerminate, Src: StatusPendingTransaction, Dst: StatusTerminated},
	{Event: EventExpire, Src: StatusActive, Dst: StatusExpired},
	{Event: EventExpire, Src: StatusPendingTransaction, Dst: StatusExpired},
}

// Allowed reports whether the transition table contains an entry for the
// given event from the given state.
func Allowed(src Status, event Event) bool {
	for _, t := range Transitions {
		if t.Src == src && t.Event == event {
			return true
		}
	}
	return false
}

// ContractTerms holds the caller-supplied parameters of a contract. The same
// struct is used for creation and for updates; end_date is never part of it
// because it is always derived from StartDate and DurationMonths.
type ContractTerms struct {
	RoomID             string
	TenantID           string
	StartDate          time.Time
	DurationMonths     int
	RentAmount         int64
	DepositAmount      int64
	PenaltyRate        float64
	PaymentCycleMonths int
	AttachmentKey      string
}

// Contract is the core domain entity: a time-bounded rental agreement
// binding a tenant to a room.
type Contract struct {
	ID                 string
	RoomID             string
	TenantID           string
	StartDate          time.Time
	DurationMonths     int
	EndDate            time.Time // derived: StartDate + DurationMonths
	RentAmount         int64     // minor currency units per payment cycle
	DepositAmount      int64
	PenaltyRate        float64
	PaymentCycleMonths int
	Status             Status
	Note               string // append-only audit trail
	AttachmentKey      string // opaque file-storage reference
	EvidenceKey        string // set on force-termination
	DeletedAt          *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// EndDateFor derives a contract's end date from its start date and duration.
func EndDateFor(start time.Time, durationMonths int) time.Time {
	return start.AddDate(0, durationMonths, 0)
}

// NewContract creates a contract in the initial "pending" state.
func NewContract(id string, terms ContractTerms) Contract {
	now := time.Now().UTC()
	return Contract{
		ID:                 id,
		RoomID:             terms.RoomID,
		TenantID:           terms.TenantID,
		StartDate:          terms.StartDate,
		DurationMonths:     terms.DurationMonths,
		EndDate:            EndDateFor(terms.StartDate, terms.DurationMonths),
		RentAmount:         terms.RentAmount,
		DepositAmount:      terms.DepositAmount,
		PenaltyRate:        terms.PenaltyRate,
		PaymentCycleMonths: terms.PaymentCycleMonths,
		Status:             StatusPending,
		AttachmentKey:      terms.AttachmentKey,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// ApplyTerms overwrites the mutable fields of a contract and re-derives the
// end date. Status is deliberately untouched.
func (c *Contract) ApplyTerms(terms ContractTerms) {
	c.RoomID = terms.RoomID
	c.TenantID = terms.TenantID
	c.StartDate = terms.StartDate
	c.DurationMonths = terms.DurationMonths
	c.EndDate = EndDateFor(terms.StartDate, terms.DurationMonths)
	c.RentAmount = terms.RentAmount
	c.DepositAmount = terms.DepositAmount
	c.PenaltyRate = terms.PenaltyRate
	c.PaymentCycleMonths = terms.PaymentCycleMonths
	if terms.AttachmentKey != "" {
		c.AttachmentKey = terms.AttachmentKey
	}
}

// AppendNote adds a dated line to the contract's audit note.
func (c *Contract) AppendNote(at time.Time, line string) {
	entry := fmt.Sprintf("[%s] %s", at.Format("2006-01-02"), line)
	if c.Note == "" {
		c.Note = entry
		return
	}
	c.Note += "\n" + entry
}

// Deleted reports whether the contract is soft-deleted.
func (c *Contract) Deleted() bool {
	return c.DeletedAt != nil
}
