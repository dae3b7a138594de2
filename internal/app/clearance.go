package app

import (
	"context"
	"fmt"

	"github.com/neomorfeo/leaseiq/internal/domain"
)

// resolveTermination is the financial clearance gate. It decides whether a
// termination completes now or must wait on unpaid bills, mutates the
// contract's status through the transition table, and runs the deactivation
// side effects when the room is freed. It runs inside the caller's
// transaction and is idempotent for contracts already in pending_transaction.
func (e *Engine) resolveTermination(ctx context.Context, s domain.Stores, c *domain.Contract) (roomFreed bool, err error) {
	// Draft bills are un-issued forecasts; they must not block clearance.
	if err := s.Bills.DeleteDrafts(ctx, c.ID); err != nil {
		return false, fmt.Errorf("deleting draft bills: %w", err)
	}

	unpaid, err := s.Bills.ListByContract(ctx, c.ID, domain.UnpaidBillStatuses)
	if err != nil {
		return false, fmt.Errorf("listing unpaid bills: %w", err)
	}

	if len(unpaid) > 0 {
		if c.Status == domain.StatusPendingTransaction {
			// Still waiting; nothing to do.
			return false, nil
		}
		status, err := e.validator.Apply(ctx, c.Status, domain.EventAwaitClearance)
		if err != nil {
			return false, err
		}
		c.Status = status
		return false, nil
	}

	event := domain.EventTerminate
	if !e.now().Before(c.EndDate) && domain.Allowed(c.Status, domain.EventExpire) {
		event = domain.EventExpire
	}
	status, err := e.validator.Apply(ctx, c.Status, event)
	if err != nil {
		return false, err
	}
	c.Status = status

	if err := e.applyDeactivation(ctx, s, c); err != nil {
		return false, err
	}
	return true, nil
}

// clearanceNotice maps the gate's outcome to the notification kind sent to
// the contract's tenant after commit.
func clearanceNotice(c *domain.Contract) string {
	switch c.Status {
	case domain.StatusPendingTransaction:
		return domain.NoticeClearancePending
	case domain.StatusExpired:
		return domain.NoticeContractExpired
	default:
		return domain.NoticeContractTerminated
	}
}
