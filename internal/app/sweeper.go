package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neomorfeo/leaseiq/internal/domain"
)

// SweepExpired re-evaluates contracts whose end date has passed and drives
// them through the state machine. Each contract is processed in its own
// transaction to bound lock duration; one contract's failure is logged and
// does not abort the sweep of the others. Returns the number of contracts
// transitioned.
func (e *Engine) SweepExpired(ctx context.Context) (int, error) {
	today := e.now()

	candidates, err := e.db.Contracts.ListExpiring(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("listing expiring contracts: %w", err)
	}

	count := 0
	for _, candidate := range candidates {
		changed, err := e.sweepOne(ctx, candidate.ID)
		if err != nil {
			slog.WarnContext(ctx, "sweep failed for contract",
				"contract_id", candidate.ID,
				"error", err,
			)
			continue
		}
		if changed {
			count++
		}
	}
	return count, nil
}

// sweepOne transitions a single overdue contract inside its own transaction.
// The contract is re-read under the transaction because a user-initiated
// request may have moved it since the candidate list was taken.
func (e *Engine) sweepOne(ctx context.Context, id string) (changed bool, err error) {
	err = e.tx.InTx(ctx, func(ctx context.Context, s domain.Stores) error {
		c, err := s.Contracts.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if c.Deleted() || !e.now().After(c.EndDate) {
			return nil
		}

		switch c.Status {
		case domain.StatusPending:
			// pending → expired is not in the table; the only legal exit for
			// a stale pending contract is rejection.
			if err := e.transition(ctx, &c, domain.EventReject); err != nil {
				return err
			}
			c.AppendNote(e.now(), "rejected by sweep: end date passed before approval")
			changed = true
			if err := s.Contracts.Update(ctx, c); err != nil {
				return fmt.Errorf("updating contract: %w", err)
			}
			return notify(ctx, s, domain.NoticeContractRejected, &c)

		case domain.StatusActive:
			if done, err := e.sweepActive(ctx, s, &c); err != nil || !done {
				return err
			}
			changed = true
			if err := s.Contracts.Update(ctx, c); err != nil {
				return fmt.Errorf("updating contract: %w", err)
			}
			return notify(ctx, s, clearanceNotice(&c), &c)

		default:
			// Moved on since the candidate scan; nothing to do.
			return nil
		}
	})
	return changed, err
}

// sweepActive applies the clearance gate to an overdue active contract, with
// one extra deferral: before the building's utility-billing cut-off day the
// last month's bills may not have been issued yet, so the contract parks in
// pending_transaction instead of hard-expiring.
func (e *Engine) sweepActive(ctx context.Context, s domain.Stores, c *domain.Contract) (bool, error) {
	if err := s.Bills.DeleteDrafts(ctx, c.ID); err != nil {
		return false, fmt.Errorf("deleting draft bills: %w", err)
	}
	unpaid, err := s.Bills.ListByContract(ctx, c.ID, domain.UnpaidBillStatuses)
	if err != nil {
		return false, fmt.Errorf("listing unpaid bills: %w", err)
	}

	if len(unpaid) > 0 || e.now().Day() < e.policy.BillingCutoffDay {
		if err := e.transition(ctx, c, domain.EventAwaitClearance); err != nil {
			return false, err
		}
		c.AppendNote(e.now(), "expired pending financial clearance")
		return true, nil
	}

	if err := e.transition(ctx, c, domain.EventExpire); err != nil {
		return false, err
	}
	c.AppendNote(e.now(), "expired by sweep")
	if err := e.applyDeactivation(ctx, s, c); err != nil {
		return false, err
	}
	return true, nil
}
