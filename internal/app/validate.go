package app

import (
	"time"

	"github.com/neomorfeo/leaseiq/internal/domain"
)

// Policy holds the configurable validation caps applied before any
// transaction opens.
type Policy struct {
	MaxDurationMonths   int
	StartDatePastDays   int // how far in the past a start date may lie
	StartDateFutureDays int // how far ahead a start date may lie
	BillingCutoffDay    int // utility-billing cut-off day of month, sweep grace window
}

// DefaultPolicy returns the caps used when no configuration overrides them.
func DefaultPolicy() Policy {
	return Policy{
		MaxDurationMonths:   60,
		StartDatePastDays:   30,
		StartDateFutureDays: 365,
		BillingCutoffDay:    25,
	}
}

// validateTerms rejects malformed contract parameters. It is the single
// validation path for manual input and the AI document pipeline alike.
func (p Policy) validateTerms(terms domain.ContractTerms, now time.Time) error {
	if terms.RoomID == "" {
		return &domain.ValidationError{Field: "room_id", Reason: "required"}
	}
	if terms.TenantID == "" {
		return &domain.ValidationError{Field: "tenant_id", Reason: "required"}
	}
	if terms.StartDate.IsZero() {
		return &domain.ValidationError{Field: "start_date", Reason: "required"}
	}
	if terms.StartDate.Before(now.AddDate(0, 0, -p.StartDatePastDays)) {
		return &domain.ValidationError{Field: "start_date", Reason: "too far in the past"}
	}
	if terms.StartDate.After(now.AddDate(0, 0, p.StartDateFutureDays)) {
		return &domain.ValidationError{Field: "start_date", Reason: "too far in the future"}
	}
	if terms.DurationMonths <= 0 {
		return &domain.ValidationError{Field: "duration_months", Reason: "must be positive"}
	}
	if terms.DurationMonths > p.MaxDurationMonths {
		return &domain.ValidationError{Field: "duration_months", Reason: "exceeds maximum duration"}
	}
	if terms.RentAmount <= 0 {
		return &domain.ValidationError{Field: "rent_amount", Reason: "must be positive"}
	}
	if terms.DepositAmount < 0 {
		return &domain.ValidationError{Field: "deposit_amount", Reason: "must not be negative"}
	}
	if terms.PenaltyRate < 0 {
		return &domain.ValidationError{Field: "penalty_rate", Reason: "must not be negative"}
	}
	if terms.PaymentCycleMonths <= 0 {
		return &domain.ValidationError{Field: "payment_cycle_months", Reason: "must be positive"}
	}
	if terms.PaymentCycleMonths > terms.DurationMonths {
		return &domain.ValidationError{Field: "payment_cycle_months", Reason: "longer than the contract duration"}
	}
	return nil
}
