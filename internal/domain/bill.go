package domain

import "time"

// BillStatus is the payment state of a bill. Bills belong to the billing
// system; this core only reads them to decide financial clearance, and
// deletes stale drafts before a clearance check.
type BillStatus string

const (
	BillDraft         BillStatus = "draft"
	BillIssued        BillStatus = "issued"
	BillPartiallyPaid BillStatus = "partially_paid"
	BillOverdue       BillStatus = "overdue"
	BillPaid          BillStatus = "paid"
)

// UnpaidBillStatuses are the bill states that block financial clearance.
// Drafts are un-issued forecasts and never block; paid bills are settled.
var UnpaidBillStatuses = []BillStatus{BillIssued, BillPartiallyPaid, BillOverdue}

// Bill is a charge raised against a contract by the external billing system.
type Bill struct {
	ID         string
	ContractID string
	Status     BillStatus
	Amount     int64
	CreatedAt  time.Time
}
