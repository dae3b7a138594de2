package app

import (
	"context"
	"fmt"
	"time"

	"github.com/neomorfeo/leaseiq/internal/domain"
)

// ApprovalAction is the landlord's decision on a pending contract.
type ApprovalAction string

const (
	ApprovalAccept ApprovalAction = "accept"
	ApprovalReject ApprovalAction = "reject"
)

// TerminationAction is the tenant's decision on a termination request.
type TerminationAction string

const (
	TerminationApprove TerminationAction = "approve"
	TerminationReject  TerminationAction = "reject"
)

// Engine orchestrates the contract lifecycle: it validates input, checks
// conflicts, drives the transition table, and applies room/tenancy side
// effects atomically.
type Engine struct {
	db        domain.Stores // non-transactional reads
	tx        domain.TxRunner
	validator domain.TransitionValidator
	policy    Policy
	now       func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithNow overrides the engine's clock. Used by tests and the sweeper's
// deterministic runs.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates the lifecycle engine with the given adapters.
func NewEngine(db domain.Stores, tx domain.TxRunner, validator domain.TransitionValidator, policy Policy, opts ...Option) *Engine {
	e := &Engine{
		db:        db,
		tx:        tx,
		validator: validator,
		policy:    policy,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// transition applies an event through the table and mutates the contract.
func (e *Engine) transition(ctx context.Context, c *domain.Contract, event domain.Event) error {
	status, err := e.validator.Apply(ctx, c.Status, event)
	if err != nil {
		return err
	}
	c.Status = status
	return nil
}

// getLive fetches a contract and hides soft-deleted rows behind not-found.
func getLive(ctx context.Context, s domain.Stores, id string) (domain.Contract, error) {
	c, err := s.Contracts.GetByID(ctx, id)
	if err != nil {
		return domain.Contract{}, err
	}
	if c.Deleted() {
		return domain.Contract{}, domain.ErrContractNotFound
	}
	return c, nil
}

// checkConflict re-runs the conflict detector inside the transaction. The
// in-transaction check is what closes the check-then-act window between two
// concurrent creates for the same room.
func checkConflict(ctx context.Context, s domain.Stores, roomID string, start, end time.Time, excludeID string) error {
	blocking, err := s.Contracts.ListBlockingByRoom(ctx, roomID)
	if err != nil {
		return fmt.Errorf("listing blocking contracts: %w", err)
	}
	if hit := domain.FindConflict(blocking, start, end, excludeID); hit != nil {
		return &domain.ConflictError{ContractID: hit.ID, Start: hit.StartDate, End: hit.EndDate}
	}
	return nil
}

func notify(ctx context.Context, s domain.Stores, kind string, c *domain.Contract) error {
	return s.Outbox.Enqueue(ctx, domain.Notification{
		Kind:        kind,
		RecipientID: c.TenantID,
		Data: map[string]string{
			"contract_id": c.ID,
			"room_id":     c.RoomID,
			"status":      string(c.Status),
		},
	})
}

// Create validates the terms, checks for conflicts, and persists a new
// contract in the pending state. Manually entered data and the AI document
// pipeline's candidate payloads both enter here.
func (e *Engine) Create(ctx context.Context, actor domain.Actor, terms domain.ContractTerms) (domain.Contract, error) {
	if !actor.Staff() {
		return domain.Contract{}, domain.ErrPermissionDenied
	}
	if err := e.policy.validateTerms(terms, e.now()); err != nil {
		return domain.Contract{}, err
	}

	contract := domain.NewContract(newID(), terms)
	contract.AppendNote(e.now(), "contract created")

	err := e.tx.InTx(ctx, func(ctx context.Context, s domain.Stores) error {
		if _, err := s.Rooms.GetByID(ctx, terms.RoomID); err != nil {
			return err
		}
		if err := checkConflict(ctx, s, terms.RoomID, contract.StartDate, contract.EndDate, ""); err != nil {
			return err
		}
		if err := s.Contracts.Create(ctx, contract); err != nil {
			return fmt.Errorf("creating contract: %w", err)
		}
		return notify(ctx, s, domain.NoticeContractCreated, &contract)
	})
	if err != nil {
		return domain.Contract{}, err
	}
	return contract, nil
}

// Approve drives pending → active (accept) or pending → rejected (reject).
// Rejecting without a reason is always an error. Accepting runs the
// activation side effects in the same transaction.
func (e *Engine) Approve(ctx context.Context, actor domain.Actor, id string, action ApprovalAction, reason string) (domain.Contract, error) {
	if !actor.Staff() {
		return domain.Contract{}, domain.ErrPermissionDenied
	}
	if action != ApprovalAccept && action != ApprovalReject {
		return domain.Contract{}, &domain.ValidationError{Field: "action", Reason: "must be accept or reject"}
	}
	if action == ApprovalReject && reason == "" {
		return domain.Contract{}, &domain.ValidationError{Field: "reason", Reason: "required when rejecting"}
	}

	var contract domain.Contract
	err := e.tx.InTx(ctx, func(ctx context.Context, s domain.Stores) error {
		c, err := getLive(ctx, s, id)
		if err != nil {
			return err
		}

		kind := domain.NoticeContractApproved
		if action == ApprovalAccept {
			if err := e.transition(ctx, &c, domain.EventApprove); err != nil {
				return err
			}
			c.AppendNote(e.now(), "approved")
			if err := e.applyActivation(ctx, s, &c); err != nil {
				return err
			}
		} else {
			if err := e.transition(ctx, &c, domain.EventReject); err != nil {
				return err
			}
			c.AppendNote(e.now(), "rejected: "+reason)
			kind = domain.NoticeContractRejected
		}

		if err := s.Contracts.Update(ctx, c); err != nil {
			return fmt.Errorf("updating contract: %w", err)
		}
		contract = c
		return notify(ctx, s, kind, &c)
	})
	if err != nil {
		return domain.Contract{}, err
	}
	return contract, nil
}

// Update replaces a contract's terms while it is still pending or rejected.
// A rejected contract is resubmitted back to pending. The conflict detector
// runs again, excluding the contract itself.
func (e *Engine) Update(ctx context.Context, actor domain.Actor, id string, terms domain.ContractTerms) (domain.Contract, error) {
	if !actor.Staff() {
		return domain.Contract{}, domain.ErrPermissionDenied
	}
	if err := e.policy.validateTerms(terms, e.now()); err != nil {
		return domain.Contract{}, err
	}

	var contract domain.Contract
	err := e.tx.InTx(ctx, func(ctx context.Context, s domain.Stores) error {
		c, err := getLive(ctx, s, id)
		if err != nil {
			return err
		}
		if c.Status != domain.StatusPending && c.Status != domain.StatusRejected {
			return &domain.ValidationError{Field: "status", Reason: "only pending or rejected contracts can be edited"}
		}
		if _, err := s.Rooms.GetByID(ctx, terms.RoomID); err != nil {
			return err
		}

		start := terms.StartDate
		end := domain.EndDateFor(start, terms.DurationMonths)
		if err := checkConflict(ctx, s, terms.RoomID, start, end, c.ID); err != nil {
			return err
		}

		c.ApplyTerms(terms)
		if c.Status == domain.StatusRejected {
			if err := e.transition(ctx, &c, domain.EventResubmit); err != nil {
				return err
			}
			c.AppendNote(e.now(), "resubmitted after edits")
		} else {
			c.AppendNote(e.now(), "terms updated")
		}

		if err := s.Contracts.Update(ctx, c); err != nil {
			return fmt.Errorf("updating contract: %w", err)
		}
		contract = c
		return notify(ctx, s, domain.NoticeContractUpdated, &c)
	})
	if err != nil {
		return domain.Contract{}, err
	}
	return contract, nil
}

// RequestTermination moves an active contract to requested_termination. The
// tenant then decides via HandleTerminationRequest.
func (e *Engine) RequestTermination(ctx context.Context, actor domain.Actor, id, reason string) (domain.Contract, error) {
	if !actor.Staff() {
		return domain.Contract{}, domain.ErrPermissionDenied
	}
	if reason == "" {
		return domain.Contract{}, &domain.ValidationError{Field: "reason", Reason: "required"}
	}

	var contract domain.Contract
	err := e.tx.InTx(ctx, func(ctx context.Context, s domain.Stores) error {
		c, err := getLive(ctx, s, id)
		if err != nil {
			return err
		}
		if err := e.transition(ctx, &c, domain.EventRequestTermination); err != nil {
			return err
		}
		c.AppendNote(e.now(), "termination requested: "+reason)
		if err := s.Contracts.Update(ctx, c); err != nil {
			return fmt.Errorf("updating contract: %w", err)
		}
		contract = c
		return notify(ctx, s, domain.NoticeTerminationRequested, &c)
	})
	if err != nil {
		return domain.Contract{}, err
	}
	return contract, nil
}

// HandleTerminationRequest records the tenant's decision. Approval invokes
// the financial clearance gate; rejection returns the contract to active.
// Only the contract's tenant (or an admin) may decide.
func (e *Engine) HandleTerminationRequest(ctx context.Context, actor domain.Actor, id string, action TerminationAction) (domain.Contract, error) {
	if action != TerminationApprove && action != TerminationReject {
		return domain.Contract{}, &domain.ValidationError{Field: "action", Reason: "must be approve or reject"}
	}

	var contract domain.Contract
	err := e.tx.InTx(ctx, func(ctx context.Context, s domain.Stores) error {
		c, err := getLive(ctx, s, id)
		if err != nil {
			return err
		}
		if !actor.Owns(c) && !actor.Admin() {
			return domain.ErrPermissionDenied
		}

		var kind string
		if action == TerminationReject {
			if err := e.transition(ctx, &c, domain.EventDeclineTermination); err != nil {
				return err
			}
			c.AppendNote(e.now(), "termination declined by tenant")
			kind = domain.NoticeTerminationDeclined
		} else {
			if c.Status != domain.StatusRequestedTermination {
				return &domain.TransitionError{Event: domain.EventTerminate, Current: c.Status}
			}
			c.AppendNote(e.now(), "termination approved by tenant")
			if _, err := e.resolveTermination(ctx, s, &c); err != nil {
				return err
			}
			kind = clearanceNotice(&c)
		}

		if err := s.Contracts.Update(ctx, c); err != nil {
			return fmt.Errorf("updating contract: %w", err)
		}
		contract = c
		return notify(ctx, s, kind, &c)
	})
	if err != nil {
		return domain.Contract{}, err
	}
	return contract, nil
}

// ForceTerminate is the administrative termination path. It requires an
// evidence attachment and runs the same clearance gate as the voluntary path.
func (e *Engine) ForceTerminate(ctx context.Context, actor domain.Actor, id, reason, evidenceKey string) (domain.Contract, error) {
	if !actor.Staff() {
		return domain.Contract{}, domain.ErrPermissionDenied
	}
	if reason == "" {
		return domain.Contract{}, &domain.ValidationError{Field: "reason", Reason: "required"}
	}
	if evidenceKey == "" {
		return domain.Contract{}, &domain.ValidationError{Field: "evidence", Reason: "required for forced termination"}
	}

	var contract domain.Contract
	err := e.tx.InTx(ctx, func(ctx context.Context, s domain.Stores) error {
		c, err := getLive(ctx, s, id)
		if err != nil {
			return err
		}
		if c.Status != domain.StatusRequestedTermination {
			return &domain.TransitionError{Event: domain.EventTerminate, Current: c.Status}
		}

		c.EvidenceKey = evidenceKey
		c.AppendNote(e.now(), "force-terminated: "+reason)
		if _, err := e.resolveTermination(ctx, s, &c); err != nil {
			return err
		}

		if err := s.Contracts.Update(ctx, c); err != nil {
			return fmt.Errorf("updating contract: %w", err)
		}
		contract = c
		return notify(ctx, s, clearanceNotice(&c), &c)
	})
	if err != nil {
		return domain.Contract{}, err
	}
	return contract, nil
}

// ResolvePendingTransaction re-checks the bills of a contract stalled in
// pending_transaction and completes the termination once they are settled.
// With unpaid bills remaining it is a no-op.
func (e *Engine) ResolvePendingTransaction(ctx context.Context, actor domain.Actor, id string) (domain.Contract, error) {
	if !actor.Staff() {
		return domain.Contract{}, domain.ErrPermissionDenied
	}

	var contract domain.Contract
	err := e.tx.InTx(ctx, func(ctx context.Context, s domain.Stores) error {
		c, err := getLive(ctx, s, id)
		if err != nil {
			return err
		}
		if c.Status != domain.StatusPendingTransaction {
			return &domain.TransitionError{Event: domain.EventTerminate, Current: c.Status}
		}

		freed, err := e.resolveTermination(ctx, s, &c)
		if err != nil {
			return err
		}
		if !freed {
			// Bills still outstanding; leave the contract untouched.
			contract = c
			return nil
		}

		c.AppendNote(e.now(), "financial clearance complete")
		if err := s.Contracts.Update(ctx, c); err != nil {
			return fmt.Errorf("updating contract: %w", err)
		}
		contract = c
		return notify(ctx, s, clearanceNotice(&c), &c)
	})
	if err != nil {
		return domain.Contract{}, err
	}
	return contract, nil
}

// Delete soft-deletes a contract. A room-holding contract is deactivated
// first, so a deleted contract never holds a room, whatever state it was in.
func (e *Engine) Delete(ctx context.Context, actor domain.Actor, id string) (domain.Contract, error) {
	if !actor.Staff() {
		return domain.Contract{}, domain.ErrPermissionDenied
	}

	var contract domain.Contract
	err := e.tx.InTx(ctx, func(ctx context.Context, s domain.Stores) error {
		c, err := getLive(ctx, s, id)
		if err != nil {
			return err
		}
		if c.Status.Occupying() {
			if err := e.applyDeactivation(ctx, s, &c); err != nil {
				return err
			}
		}
		deletedAt := e.now()
		c.DeletedAt = &deletedAt
		c.AppendNote(deletedAt, "soft-deleted")
		if err := s.Contracts.Update(ctx, c); err != nil {
			return fmt.Errorf("updating contract: %w", err)
		}
		contract = c
		return notify(ctx, s, domain.NoticeContractDeleted, &c)
	})
	if err != nil {
		return domain.Contract{}, err
	}
	return contract, nil
}

// Restore brings back a soft-deleted contract. A contract in a blocking
// status must pass the conflict detector again; a room-holding contract is
// re-synchronized as on activation, except an active one already past its
// end date, which the sweeper will pick up instead.
func (e *Engine) Restore(ctx context.Context, actor domain.Actor, id string) (domain.Contract, error) {
	if !actor.Staff() {
		return domain.Contract{}, domain.ErrPermissionDenied
	}

	var contract domain.Contract
	err := e.tx.InTx(ctx, func(ctx context.Context, s domain.Stores) error {
		c, err := s.Contracts.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !c.Deleted() {
			return &domain.ValidationError{Field: "id", Reason: "contract is not deleted"}
		}

		if c.Status.Blocking() {
			if err := checkConflict(ctx, s, c.RoomID, c.StartDate, c.EndDate, c.ID); err != nil {
				return err
			}
		}

		c.DeletedAt = nil
		c.AppendNote(e.now(), "restored")

		reoccupy := c.Status.Occupying()
		if c.Status == domain.StatusActive && !c.EndDate.After(e.now()) {
			reoccupy = false
		}
		if reoccupy {
			if err := e.applyActivation(ctx, s, &c); err != nil {
				return err
			}
		}

		if err := s.Contracts.Update(ctx, c); err != nil {
			return fmt.Errorf("updating contract: %w", err)
		}
		contract = c
		return notify(ctx, s, domain.NoticeContractRestored, &c)
	})
	if err != nil {
		return domain.Contract{}, err
	}
	return contract, nil
}

// HardDelete irreversibly removes a contract. It is refused while any bill
// still references the contract; tenancy history is kept either way.
func (e *Engine) HardDelete(ctx context.Context, actor domain.Actor, id string) error {
	if !actor.Admin() {
		return domain.ErrPermissionDenied
	}

	return e.tx.InTx(ctx, func(ctx context.Context, s domain.Stores) error {
		c, err := s.Contracts.GetByID(ctx, id)
		if err != nil {
			return err
		}

		bills, err := s.Bills.ListByContract(ctx, c.ID, nil)
		if err != nil {
			return fmt.Errorf("listing bills: %w", err)
		}
		if len(bills) > 0 {
			return &domain.ValidationError{Field: "id", Reason: "contract is referenced by financial records"}
		}

		room, err := s.Rooms.GetByID(ctx, c.RoomID)
		if err == nil && room.CurrentContractID != nil && *room.CurrentContractID == c.ID {
			room.CurrentContractID = nil
			room.Status = domain.RoomAvailable
			if err := s.Rooms.Update(ctx, room); err != nil {
				return fmt.Errorf("freeing room: %w", err)
			}
		}

		return s.Contracts.HardDelete(ctx, c.ID)
	})
}

// GetByID returns a contract by its identifier, soft-deleted rows included
// for staff callers.
func (e *Engine) GetByID(ctx context.Context, actor domain.Actor, id string) (domain.Contract, error) {
	c, err := e.db.Contracts.GetByID(ctx, id)
	if err != nil {
		return domain.Contract{}, err
	}
	if c.Deleted() && !actor.Staff() {
		return domain.Contract{}, domain.ErrContractNotFound
	}
	if !actor.Staff() && !actor.Owns(c) {
		return domain.Contract{}, domain.ErrPermissionDenied
	}
	return c, nil
}

// List returns contracts matching the filter. Tenants only see their own.
func (e *Engine) List(ctx context.Context, actor domain.Actor, filter domain.ContractFilter) ([]domain.Contract, error) {
	if !actor.Staff() {
		filter.TenantID = actor.ID
		filter.IncludeDeleted = false
	}
	return e.db.Contracts.List(ctx, filter)
}

// CreateRoom provisions a room so contracts can be written against it.
func (e *Engine) CreateRoom(ctx context.Context, actor domain.Actor, id, name string, maxTenants int) (domain.Room, error) {
	if !actor.Staff() {
		return domain.Room{}, domain.ErrPermissionDenied
	}
	if maxTenants <= 0 {
		return domain.Room{}, &domain.ValidationError{Field: "max_tenants", Reason: "must be positive"}
	}
	if id == "" {
		id = newID()
	}

	room := domain.NewRoom(id, name, maxTenants)
	if err := e.db.Rooms.Create(ctx, room); err != nil {
		return domain.Room{}, fmt.Errorf("creating room: %w", err)
	}
	return room, nil
}

// GetRoom returns a room by its identifier.
func (e *Engine) GetRoom(ctx context.Context, id string) (domain.Room, error) {
	return e.db.Rooms.GetByID(ctx, id)
}
