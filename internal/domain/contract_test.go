package domain_test

import (
	"strings"
	"testing"
	"time"

	"github.com/neomorfeo/leaseiq/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewContract(t *testing.T) {
	terms := domain.ContractTerms{
		RoomID:             "101",
		TenantID:           "55",
		StartDate:          date(2025, 2, 1),
		DurationMonths:     12,
		RentAmount:         500_000,
		DepositAmount:      1_000_000,
		PenaltyRate:        0.05,
		PaymentCycleMonths: 3,
	}

	c := domain.NewContract("c-1", terms)

	if c.Status != domain.StatusPending {
		t.Errorf("Status = %q, want %q", c.Status, domain.StatusPending)
	}
	if want := date(2026, 2, 1); !c.EndDate.Equal(want) {
		t.Errorf("EndDate = %v, want %v", c.EndDate, want)
	}
	if c.Deleted() {
		t.Error("new contract should not be deleted")
	}
	if c.UpdatedAt != c.CreatedAt {
		t.Error("UpdatedAt should equal CreatedAt on a new contract")
	}
}

func TestEndDateFor(t *testing.T) {
	cases := []struct {
		start  time.Time
		months int
		want   time.Time
	}{
		{date(2025, 2, 1), 12, date(2026, 2, 1)},
		{date(2025, 6, 1), 3, date(2025, 9, 1)},
		{date(2025, 1, 31), 1, date(2025, 3, 3)}, // Go normalizes Feb 31
	}
	for _, tc := range cases {
		if got := domain.EndDateFor(tc.start, tc.months); !got.Equal(tc.want) {
			t.Errorf("EndDateFor(%v, %d) = %v, want %v", tc.start, tc.months, got, tc.want)
		}
	}
}

func TestApplyTerms_RederivesEndDate(t *testing.T) {
	c := domain.NewContract("c-1", domain.ContractTerms{
		RoomID: "101", TenantID: "55",
		StartDate: date(2025, 2, 1), DurationMonths: 12,
		RentAmount: 1, PaymentCycleMonths: 1,
	})

	c.ApplyTerms(domain.ContractTerms{
		RoomID: "101", TenantID: "55",
		StartDate: date(2025, 3, 1), DurationMonths: 6,
		RentAmount: 2, PaymentCycleMonths: 1,
	})

	if want := date(2025, 9, 1); !c.EndDate.Equal(want) {
		t.Errorf("EndDate = %v, want %v", c.EndDate, want)
	}
	if c.Status != domain.StatusPending {
		t.Errorf("ApplyTerms must not touch status, got %q", c.Status)
	}
}

func TestAppendNote(t *testing.T) {
	var c domain.Contract
	c.AppendNote(date(2025, 2, 1), "created")
	c.AppendNote(date(2025, 3, 1), "approved")

	lines := strings.Split(c.Note, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 note lines, got %d: %q", len(lines), c.Note)
	}
	if lines[0] != "[2025-02-01] created" {
		t.Errorf("first line = %q", lines[0])
	}
	if lines[1] != "[2025-03-01] approved" {
		t.Errorf("second line = %q", lines[1])
	}
}

func TestStatus_Blocking(t *testing.T) {
	blocking := []domain.Status{domain.StatusActive, domain.StatusPending, domain.StatusPendingTransaction}
	for _, s := range blocking {
		if !s.Blocking() {
			t.Errorf("%q should block", s)
		}
	}
	free := []domain.Status{domain.StatusRejected, domain.StatusRequestedTermination, domain.StatusTerminated, domain.StatusExpired}
	for _, s := range free {
		if s.Blocking() {
			t.Errorf("%q should not block", s)
		}
	}
}

func TestTransitions_MatchTable(t *testing.T) {
	// The full legality table: every pair present here must exist, every
	// pair absent must not.
	legal := map[domain.Status][]domain.Status{
		domain.StatusPending:              {domain.StatusActive, domain.StatusRejected},
		domain.StatusRejected:             {domain.StatusPending},
		domain.StatusActive:               {domain.StatusRequestedTermination, domain.StatusPendingTransaction, domain.StatusTerminated, domain.StatusExpired},
		domain.StatusRequestedTermination: {domain.StatusPendingTransaction, domain.StatusTerminated, domain.StatusActive},
		domain.StatusPendingTransaction:   {domain.StatusTerminated, domain.StatusExpired},
	}

	found := map[domain.Status]map[domain.Status]bool{}
	for _, tr := range domain.Transitions {
		if found[tr.Src] == nil {
			found[tr.Src] = map[domain.Status]bool{}
		}
		found[tr.Src][tr.Dst] = true
	}

	for src, dsts := range legal {
		for _, dst := range dsts {
			if !found[src][dst] {
				t.Errorf("missing transition %q → %q", src, dst)
			}
		}
	}
	for src, dsts := range found {
		for dst := range dsts {
			ok := false
			for _, want := range legal[src] {
				if want == dst {
					ok = true
				}
			}
			if !ok {
				t.Errorf("unexpected transition %q → %q", src, dst)
			}
		}
	}
}

func TestTransitions_TerminalStatesHaveNoExit(t *testing.T) {
	for _, tr := range domain.Transitions {
		if tr.Src.Terminal() {
			t.Errorf("terminal state %q has outgoing transition %q", tr.Src, tr.Event)
		}
	}
}

func TestAllowed(t *testing.T) {
	if !domain.Allowed(domain.StatusPending, domain.EventApprove) {
		t.Error("approve from pending should be allowed")
	}
	if domain.Allowed(domain.StatusRequestedTermination, domain.EventExpire) {
		t.Error("expire from requested_termination should not be allowed")
	}
	if domain.Allowed(domain.StatusExpired, domain.EventTerminate) {
		t.Error("terminate from expired should not be allowed")
	}
}
