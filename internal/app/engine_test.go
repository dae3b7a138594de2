package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	adapter "github.com/neomorfeo/leaseiq/internal/adapter/fsm"
	"github.com/neomorfeo/leaseiq/internal/app"
	"github.com/neomorfeo/leaseiq/internal/domain"
)

// --- In-memory stores ---

type memContracts struct {
	rows map[string]domain.Contract
}

func (m *memContracts) Create(_ context.Context, c domain.Contract) error {
	m.rows[c.ID] = c
	return nil
}

func (m *memContracts) GetByID(_ context.Context, id string) (domain.Contract, error) {
	c, ok := m.rows[id]
	if !ok {
		return domain.Contract{}, domain.ErrContractNotFound
	}
	return c, nil
}

func (m *memContracts) List(_ context.Context, f domain.ContractFilter) ([]domain.Contract, error) {
	var out []domain.Contract
	for _, c := range m.rows {
		if f.Status != nil && c.Status != *f.Status {
			continue
		}
		if f.RoomID != "" && c.RoomID != f.RoomID {
			continue
		}
		if f.TenantID != "" && c.TenantID != f.TenantID {
			continue
		}
		if !f.IncludeDeleted && c.Deleted() {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *memContracts) ListBlockingByRoom(_ context.Context, roomID string) ([]domain.Contract, error) {
	var out []domain.Contract
	for _, c := range m.rows {
		if c.RoomID == roomID && c.Status.Blocking() && !c.Deleted() {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memContracts) ListExpiring(_ context.Context, before time.Time) ([]domain.Contract, error) {
	var out []domain.Contract
	for _, c := range m.rows {
		if c.Deleted() {
			continue
		}
		if (c.Status == domain.StatusActive || c.Status == domain.StatusPending) && c.EndDate.Before(before) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memContracts) Update(_ context.Context, c domain.Contract) error {
	if _, ok := m.rows[c.ID]; !ok {
		return domain.ErrContractNotFound
	}
	m.rows[c.ID] = c
	return nil
}

func (m *memContracts) HardDelete(_ context.Context, id string) error {
	if _, ok := m.rows[id]; !ok {
		return domain.ErrContractNotFound
	}
	delete(m.rows, id)
	return nil
}

type memRooms struct {
	rows map[string]domain.Room
}

func (m *memRooms) Create(_ context.Context, r domain.Room) error {
	m.rows[r.ID] = r
	return nil
}

func (m *memRooms) GetByID(_ context.Context, id string) (domain.Room, error) {
	r, ok := m.rows[id]
	if !ok {
		return domain.Room{}, domain.ErrRoomNotFound
	}
	return r, nil
}

func (m *memRooms) Update(_ context.Context, r domain.Room) error {
	m.rows[r.ID] = r
	return nil
}

type memTenancies struct {
	rows []domain.Tenancy
}

func (m *memTenancies) Insert(_ context.Context, t domain.Tenancy) error {
	m.rows = append(m.rows, t)
	return nil
}

func (m *memTenancies) CloseCurrent(_ context.Context, roomID, tenantID string, movedOutAt time.Time) error {
	for i := range m.rows {
		t := &m.rows[i]
		if t.RoomID == roomID && t.TenantID == tenantID && t.IsCurrent {
			t.IsCurrent = false
			out := movedOutAt
			t.MovedOutAt = &out
		}
	}
	return nil
}

func (m *memTenancies) CountCurrent(_ context.Context, roomID string) (int, error) {
	seen := map[string]bool{}
	for _, t := range m.rows {
		if t.RoomID == roomID && t.IsCurrent {
			seen[t.TenantID] = true
		}
	}
	return len(seen), nil
}

func (m *memTenancies) ListByRoom(_ context.Context, roomID string) ([]domain.Tenancy, error) {
	var out []domain.Tenancy
	for _, t := range m.rows {
		if t.RoomID == roomID {
			out = append(out, t)
		}
	}
	return out, nil
}

type memBills struct {
	rows map[string]domain.Bill
}

func (m *memBills) Create(_ context.Context, b domain.Bill) error {
	m.rows[b.ID] = b
	return nil
}

func (m *memBills) ListByContract(_ context.Context, contractID string, statusIn []domain.BillStatus) ([]domain.Bill, error) {
	var out []domain.Bill
	for _, b := range m.rows {
		if b.ContractID != contractID {
			continue
		}
		if statusIn != nil {
			match := false
			for _, s := range statusIn {
				if b.Status == s {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, b)
	}
	return out, nil
}

func (m *memBills) DeleteDrafts(_ context.Context, contractID string) error {
	for id, b := range m.rows {
		if b.ContractID == contractID && b.Status == domain.BillDraft {
			delete(m.rows, id)
		}
	}
	return nil
}

type memOutbox struct {
	sent []domain.Notification
}

func (m *memOutbox) Enqueue(_ context.Context, n domain.Notification) error {
	m.sent = append(m.sent, n)
	return nil
}

// memTx hands the shared stores straight to the callback. Rollback behavior
// is covered by the sqlite adapter tests.
type memTx struct {
	stores domain.Stores
}

func (m memTx) InTx(_ context.Context, fn func(ctx context.Context, s domain.Stores) error) error {
	return fn(context.Background(), m.stores)
}

// --- Fixture ---

type fixture struct {
	engine    *app.Engine
	contracts *memContracts
	rooms     *memRooms
	tenancies *memTenancies
	bills     *memBills
	outbox    *memOutbox
	now       time.Time
}

var (
	staff  = domain.Actor{ID: "mgr-1", Role: domain.RoleManager}
	admin  = domain.Actor{ID: "adm-1", Role: domain.RoleAdmin}
	tenant = domain.Actor{ID: "55", Role: domain.RoleTenant}
)

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	f := &fixture{
		contracts: &memContracts{rows: map[string]domain.Contract{}},
		rooms:     &memRooms{rows: map[string]domain.Room{}},
		tenancies: &memTenancies{},
		bills:     &memBills{rows: map[string]domain.Bill{}},
		outbox:    &memOutbox{},
		now:       now,
	}
	stores := domain.Stores{
		Contracts: f.contracts,
		Rooms:     f.rooms,
		Tenancies: f.tenancies,
		Bills:     f.bills,
		Outbox:    f.outbox,
	}
	f.engine = app.NewEngine(stores, memTx{stores}, adapter.New(), app.DefaultPolicy(),
		app.WithNow(func() time.Time { return f.now }),
	)
	f.rooms.rows["101"] = domain.NewRoom("101", "Room 101", 2)
	return f
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func terms101() domain.ContractTerms {
	return domain.ContractTerms{
		RoomID:             "101",
		TenantID:           "55",
		StartDate:          date(2025, 2, 1),
		DurationMonths:     12,
		RentAmount:         500_000,
		DepositAmount:      1_000_000,
		PenaltyRate:        0.05,
		PaymentCycleMonths: 3,
	}
}

func (f *fixture) mustCreate(t *testing.T, terms domain.ContractTerms) domain.Contract {
	t.Helper()
	c, err := f.engine.Create(context.Background(), staff, terms)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return c
}

func (f *fixture) mustActivate(t *testing.T, terms domain.ContractTerms) domain.Contract {
	t.Helper()
	c := f.mustCreate(t, terms)
	c, err := f.engine.Approve(context.Background(), staff, c.ID, app.ApprovalAccept, "")
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	return c
}

// --- Scenarios A–F ---

func TestCreate_PendingWithDerivedEndDate(t *testing.T) {
	f := newFixture(t, date(2025, 1, 15))

	c := f.mustCreate(t, terms101())

	if c.Status != domain.StatusPending {
		t.Errorf("Status = %q, want %q", c.Status, domain.StatusPending)
	}
	if want := date(2026, 2, 1); !c.EndDate.Equal(want) {
		t.Errorf("EndDate = %v, want %v", c.EndDate, want)
	}
	if len(f.outbox.sent) != 1 || f.outbox.sent[0].Kind != domain.NoticeContractCreated {
		t.Errorf("expected a %s notification, got %+v", domain.NoticeContractCreated, f.outbox.sent)
	}
}

func TestApprove_ActivatesRoomAndTenancy(t *testing.T) {
	f := newFixture(t, date(2025, 1, 15))
	c := f.mustActivate(t, terms101())

	if c.Status != domain.StatusActive {
		t.Fatalf("Status = %q, want %q", c.Status, domain.StatusActive)
	}

	room, _ := f.rooms.GetByID(context.Background(), "101")
	if room.Status != domain.RoomOccupied {
		t.Errorf("room status = %q, want %q", room.Status, domain.RoomOccupied)
	}
	if room.CurrentContractID == nil || *room.CurrentContractID != c.ID {
		t.Errorf("room.CurrentContractID = %v, want %q", room.CurrentContractID, c.ID)
	}

	open := 0
	for _, ten := range f.tenancies.rows {
		if ten.IsCurrent {
			open++
			if !ten.MovedInAt.Equal(date(2025, 2, 1)) {
				t.Errorf("MovedInAt = %v, want %v", ten.MovedInAt, date(2025, 2, 1))
			}
		}
	}
	if open != 1 {
		t.Errorf("open tenancy rows = %d, want 1", open)
	}
}

func TestCreate_OverlapConflict(t *testing.T) {
	f := newFixture(t, date(2025, 1, 15))
	first := f.mustCreate(t, terms101())

	second := terms101()
	second.TenantID = "56"
	second.StartDate = date(2025, 6, 1)
	second.DurationMonths = 3

	_, err := f.engine.Create(context.Background(), staff, second)
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.ContractID != first.ID {
		t.Errorf("conflict references %q, want %q", conflict.ContractID, first.ID)
	}
}

func TestRequestTermination(t *testing.T) {
	f := newFixture(t, date(2025, 3, 1))
	c := f.mustActivate(t, mustStartMarch(terms101()))

	c, err := f.engine.RequestTermination(context.Background(), staff, c.ID, "non-payment")
	if err != nil {
		t.Fatalf("RequestTermination failed: %v", err)
	}
	if c.Status != domain.StatusRequestedTermination {
		t.Errorf("Status = %q, want %q", c.Status, domain.StatusRequestedTermination)
	}
}

func mustStartMarch(terms domain.ContractTerms) domain.ContractTerms {
	terms.StartDate = date(2025, 3, 1)
	return terms
}

func TestHandleTermination_OverdueBillParksInPendingTransaction(t *testing.T) {
	f := newFixture(t, date(2025, 3, 1))
	c := f.mustActivate(t, mustStartMarch(terms101()))
	if _, err := f.engine.RequestTermination(context.Background(), staff, c.ID, "non-payment"); err != nil {
		t.Fatal(err)
	}

	f.bills.rows["b-1"] = domain.Bill{ID: "b-1", ContractID: c.ID, Status: domain.BillOverdue, Amount: 100}

	got, err := f.engine.HandleTerminationRequest(context.Background(), tenant, c.ID, app.TerminationApprove)
	if err != nil {
		t.Fatalf("HandleTerminationRequest failed: %v", err)
	}
	if got.Status != domain.StatusPendingTransaction {
		t.Errorf("Status = %q, want %q", got.Status, domain.StatusPendingTransaction)
	}

	room, _ := f.rooms.GetByID(context.Background(), "101")
	if room.Status != domain.RoomOccupied {
		t.Errorf("room should stay occupied while clearance is pending, got %q", room.Status)
	}
}

func TestResolvePendingTransaction_CompletesAfterBillsCleared(t *testing.T) {
	f := newFixture(t, date(2025, 3, 1))
	c := f.mustActivate(t, mustStartMarch(terms101()))
	if _, err := f.engine.RequestTermination(context.Background(), staff, c.ID, "non-payment"); err != nil {
		t.Fatal(err)
	}
	f.bills.rows["b-1"] = domain.Bill{ID: "b-1", ContractID: c.ID, Status: domain.BillOverdue, Amount: 100}
	if _, err := f.engine.HandleTerminationRequest(context.Background(), tenant, c.ID, app.TerminationApprove); err != nil {
		t.Fatal(err)
	}

	// Bill is settled externally.
	b := f.bills.rows["b-1"]
	b.Status = domain.BillPaid
	f.bills.rows["b-1"] = b

	got, err := f.engine.ResolvePendingTransaction(context.Background(), staff, c.ID)
	if err != nil {
		t.Fatalf("ResolvePendingTransaction failed: %v", err)
	}
	if got.Status != domain.StatusTerminated {
		t.Errorf("Status = %q, want %q", got.Status, domain.StatusTerminated)
	}

	room, _ := f.rooms.GetByID(context.Background(), "101")
	if room.Status != domain.RoomAvailable {
		t.Errorf("room status = %q, want %q", room.Status, domain.RoomAvailable)
	}
	for _, ten := range f.tenancies.rows {
		if ten.IsCurrent {
			t.Error("tenancy row should be closed after termination")
		}
	}
}

func TestResolvePendingTransaction_PastEndDateExpires(t *testing.T) {
	f := newFixture(t, date(2025, 3, 1))
	c := f.mustActivate(t, mustStartMarch(terms101()))
	if _, err := f.engine.RequestTermination(context.Background(), staff, c.ID, "leaving"); err != nil {
		t.Fatal(err)
	}
	f.bills.rows["b-1"] = domain.Bill{ID: "b-1", ContractID: c.ID, Status: domain.BillIssued, Amount: 100}
	if _, err := f.engine.HandleTerminationRequest(context.Background(), tenant, c.ID, app.TerminationApprove); err != nil {
		t.Fatal(err)
	}
	delete(f.bills.rows, "b-1")

	f.now = date(2026, 4, 1) // past the 2026-03-01 end date

	got, err := f.engine.ResolvePendingTransaction(context.Background(), staff, c.ID)
	if err != nil {
		t.Fatalf("ResolvePendingTransaction failed: %v", err)
	}
	if got.Status != domain.StatusExpired {
		t.Errorf("Status = %q, want %q", got.Status, domain.StatusExpired)
	}
}

func TestResolvePendingTransaction_UnpaidBillsIsNoop(t *testing.T) {
	f := newFixture(t, date(2025, 3, 1))
	c := f.mustActivate(t, mustStartMarch(terms101()))
	if _, err := f.engine.RequestTermination(context.Background(), staff, c.ID, "leaving"); err != nil {
		t.Fatal(err)
	}
	f.bills.rows["b-1"] = domain.Bill{ID: "b-1", ContractID: c.ID, Status: domain.BillOverdue, Amount: 100}
	if _, err := f.engine.HandleTerminationRequest(context.Background(), tenant, c.ID, app.TerminationApprove); err != nil {
		t.Fatal(err)
	}

	got, err := f.engine.ResolvePendingTransaction(context.Background(), staff, c.ID)
	if err != nil {
		t.Fatalf("ResolvePendingTransaction failed: %v", err)
	}
	if got.Status != domain.StatusPendingTransaction {
		t.Errorf("Status = %q, want %q", got.Status, domain.StatusPendingTransaction)
	}
}

// --- Guards and permissions ---

func TestApprove_RejectWithoutReasonFails(t *testing.T) {
	f := newFixture(t, date(2025, 1, 15))
	c := f.mustCreate(t, terms101())

	_, err := f.engine.Approve(context.Background(), staff, c.ID, app.ApprovalReject, "")
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != "reason" {
		t.Errorf("Field = %q, want %q", verr.Field, "reason")
	}
}

func TestApprove_RejectThenResubmit(t *testing.T) {
	f := newFixture(t, date(2025, 1, 15))
	c := f.mustCreate(t, terms101())

	c, err := f.engine.Approve(context.Background(), staff, c.ID, app.ApprovalReject, "dates wrong")
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if c.Status != domain.StatusRejected {
		t.Fatalf("Status = %q, want %q", c.Status, domain.StatusRejected)
	}

	c, err = f.engine.Update(context.Background(), staff, c.ID, terms101())
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if c.Status != domain.StatusPending {
		t.Errorf("Status after resubmit = %q, want %q", c.Status, domain.StatusPending)
	}
}

func TestUpdate_RefusedWhileActive(t *testing.T) {
	f := newFixture(t, date(2025, 1, 15))
	c := f.mustActivate(t, terms101())

	_, err := f.engine.Update(context.Background(), staff, c.ID, terms101())
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestTransition_IllegalPairFails(t *testing.T) {
	f := newFixture(t, date(2025, 1, 15))
	c := f.mustCreate(t, terms101())

	// Termination cannot be requested on a pending contract.
	_, err := f.engine.RequestTermination(context.Background(), staff, c.ID, "nope")
	var trErr *domain.TransitionError
	if !errors.As(err, &trErr) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
	if trErr.Current != domain.StatusPending {
		t.Errorf("Current = %q, want %q", trErr.Current, domain.StatusPending)
	}
}

func TestHandleTermination_RequiresTenantOwnership(t *testing.T) {
	f := newFixture(t, date(2025, 3, 1))
	c := f.mustActivate(t, mustStartMarch(terms101()))
	if _, err := f.engine.RequestTermination(context.Background(), staff, c.ID, "leaving"); err != nil {
		t.Fatal(err)
	}

	other := domain.Actor{ID: "99", Role: domain.RoleTenant}
	_, err := f.engine.HandleTerminationRequest(context.Background(), other, c.ID, app.TerminationApprove)
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("expected ErrPermissionDenied, got %v", err)
	}

	// Managers are not the tenant party either.
	_, err = f.engine.HandleTerminationRequest(context.Background(), staff, c.ID, app.TerminationApprove)
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("expected ErrPermissionDenied for manager, got %v", err)
	}
}

func TestHandleTermination_DeclineReturnsToActive(t *testing.T) {
	f := newFixture(t, date(2025, 3, 1))
	c := f.mustActivate(t, mustStartMarch(terms101()))
	if _, err := f.engine.RequestTermination(context.Background(), staff, c.ID, "leaving"); err != nil {
		t.Fatal(err)
	}

	got, err := f.engine.HandleTerminationRequest(context.Background(), tenant, c.ID, app.TerminationReject)
	if err != nil {
		t.Fatalf("decline failed: %v", err)
	}
	if got.Status != domain.StatusActive {
		t.Errorf("Status = %q, want %q", got.Status, domain.StatusActive)
	}
}

func TestForceTerminate_RequiresEvidence(t *testing.T) {
	f := newFixture(t, date(2025, 3, 1))
	c := f.mustActivate(t, mustStartMarch(terms101()))
	if _, err := f.engine.RequestTermination(context.Background(), staff, c.ID, "damage"); err != nil {
		t.Fatal(err)
	}

	_, err := f.engine.ForceTerminate(context.Background(), staff, c.ID, "damage", "")
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	got, err := f.engine.ForceTerminate(context.Background(), staff, c.ID, "damage", "evidence/photo.jpg")
	if err != nil {
		t.Fatalf("ForceTerminate failed: %v", err)
	}
	if got.Status != domain.StatusTerminated {
		t.Errorf("Status = %q, want %q", got.Status, domain.StatusTerminated)
	}
	if got.EvidenceKey != "evidence/photo.jpg" {
		t.Errorf("EvidenceKey = %q", got.EvidenceKey)
	}
}

func TestCreate_PermissionDeniedForTenant(t *testing.T) {
	f := newFixture(t, date(2025, 1, 15))

	_, err := f.engine.Create(context.Background(), tenant, terms101())
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestApprove_CapacityExceeded(t *testing.T) {
	f := newFixture(t, date(2025, 1, 15))
	f.rooms.rows["101"] = domain.NewRoom("101", "Room 101", 1)

	f.mustActivate(t, terms101())

	// A second tenant with a non-overlapping window still cannot move in
	// while the first tenancy keeps the room at capacity.
	f.now = date(2026, 2, 15)
	second := terms101()
	second.TenantID = "56"
	second.StartDate = date(2026, 3, 1)
	c := f.mustCreate(t, second)

	_, err := f.engine.Approve(context.Background(), staff, c.ID, app.ApprovalAccept, "")
	var capErr *domain.CapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("expected CapacityError, got %v", err)
	}
	if capErr.RoomID != "101" {
		t.Errorf("RoomID = %q, want %q", capErr.RoomID, "101")
	}
}

// --- Soft delete / restore / hard delete ---

func TestDelete_ActiveContractFreesRoom(t *testing.T) {
	f := newFixture(t, date(2025, 3, 1))
	c := f.mustActivate(t, mustStartMarch(terms101()))

	got, err := f.engine.Delete(context.Background(), staff, c.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !got.Deleted() {
		t.Error("contract should be soft-deleted")
	}

	room, _ := f.rooms.GetByID(context.Background(), "101")
	if room.Status != domain.RoomAvailable {
		t.Errorf("room status = %q, want %q", room.Status, domain.RoomAvailable)
	}
}

// mustParkPendingTransaction drives a fresh contract into the clearance-wait
// state via an overdue bill.
func (f *fixture) mustParkPendingTransaction(t *testing.T) domain.Contract {
	t.Helper()
	c := f.mustActivate(t, mustStartMarch(terms101()))
	if _, err := f.engine.RequestTermination(context.Background(), staff, c.ID, "non-payment"); err != nil {
		t.Fatal(err)
	}
	f.bills.rows["b-1"] = domain.Bill{ID: "b-1", ContractID: c.ID, Status: domain.BillOverdue, Amount: 100}
	c, err := f.engine.HandleTerminationRequest(context.Background(), tenant, c.ID, app.TerminationApprove)
	if err != nil {
		t.Fatalf("HandleTerminationRequest failed: %v", err)
	}
	if c.Status != domain.StatusPendingTransaction {
		t.Fatalf("Status = %q, want %q", c.Status, domain.StatusPendingTransaction)
	}
	return c
}

func TestDelete_PendingTransactionFreesRoom(t *testing.T) {
	f := newFixture(t, date(2025, 3, 1))
	c := f.mustParkPendingTransaction(t)

	if _, err := f.engine.Delete(context.Background(), staff, c.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	room, _ := f.rooms.GetByID(context.Background(), "101")
	if room.Status != domain.RoomAvailable {
		t.Errorf("room status = %q, want %q", room.Status, domain.RoomAvailable)
	}
	if room.CurrentContractID != nil {
		t.Errorf("room should not point at a deleted contract, got %q", *room.CurrentContractID)
	}
}

func TestRestore_PendingTransactionReoccupiesRoom(t *testing.T) {
	f := newFixture(t, date(2025, 3, 1))
	c := f.mustParkPendingTransaction(t)
	if _, err := f.engine.Delete(context.Background(), staff, c.ID); err != nil {
		t.Fatal(err)
	}

	got, err := f.engine.Restore(context.Background(), staff, c.ID)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if got.Status != domain.StatusPendingTransaction {
		t.Errorf("Status = %q, want %q", got.Status, domain.StatusPendingTransaction)
	}

	room, _ := f.rooms.GetByID(context.Background(), "101")
	if room.Status != domain.RoomOccupied {
		t.Errorf("room status = %q, want %q", room.Status, domain.RoomOccupied)
	}
}

func TestRestore_ActiveContractReoccupiesRoom(t *testing.T) {
	f := newFixture(t, date(2025, 3, 1))
	c := f.mustActivate(t, mustStartMarch(terms101()))
	if _, err := f.engine.Delete(context.Background(), staff, c.ID); err != nil {
		t.Fatal(err)
	}

	got, err := f.engine.Restore(context.Background(), staff, c.ID)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if got.Deleted() {
		t.Error("contract should no longer be deleted")
	}

	room, _ := f.rooms.GetByID(context.Background(), "101")
	if room.Status != domain.RoomOccupied {
		t.Errorf("room status = %q, want %q", room.Status, domain.RoomOccupied)
	}
}

func TestRestore_ConflictWithNewerContract(t *testing.T) {
	f := newFixture(t, date(2025, 3, 1))
	c := f.mustActivate(t, mustStartMarch(terms101()))
	if _, err := f.engine.Delete(context.Background(), staff, c.ID); err != nil {
		t.Fatal(err)
	}

	// The freed room is re-let for an overlapping window.
	replacement := terms101()
	replacement.TenantID = "77"
	replacement.StartDate = date(2025, 4, 1)
	f.mustActivate(t, replacement)

	_, err := f.engine.Restore(context.Background(), staff, c.ID)
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
}

func TestRestore_PastEndDateDoesNotReoccupy(t *testing.T) {
	f := newFixture(t, date(2025, 3, 1))
	c := f.mustActivate(t, mustStartMarch(terms101()))
	if _, err := f.engine.Delete(context.Background(), staff, c.ID); err != nil {
		t.Fatal(err)
	}

	f.now = date(2026, 6, 1) // past end date 2026-03-01

	got, err := f.engine.Restore(context.Background(), staff, c.ID)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if got.Deleted() {
		t.Error("contract should be restored")
	}

	room, _ := f.rooms.GetByID(context.Background(), "101")
	if room.Status != domain.RoomAvailable {
		t.Errorf("room must stay available past the contract's end, got %q", room.Status)
	}
}

func TestHardDelete_RefusedWithBills(t *testing.T) {
	f := newFixture(t, date(2025, 1, 15))
	c := f.mustCreate(t, terms101())
	f.bills.rows["b-1"] = domain.Bill{ID: "b-1", ContractID: c.ID, Status: domain.BillPaid, Amount: 100}

	err := f.engine.HardDelete(context.Background(), admin, c.ID)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestHardDelete_AdminOnly(t *testing.T) {
	f := newFixture(t, date(2025, 1, 15))
	c := f.mustCreate(t, terms101())

	if err := f.engine.HardDelete(context.Background(), staff, c.ID); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("manager hard delete: expected ErrPermissionDenied, got %v", err)
	}

	if err := f.engine.HardDelete(context.Background(), admin, c.ID); err != nil {
		t.Errorf("admin hard delete failed: %v", err)
	}
	if _, err := f.contracts.GetByID(context.Background(), c.ID); !errors.Is(err, domain.ErrContractNotFound) {
		t.Error("contract row should be gone")
	}
}

func TestGetByID_TenantSeesOwnOnly(t *testing.T) {
	f := newFixture(t, date(2025, 1, 15))
	c := f.mustCreate(t, terms101())

	if _, err := f.engine.GetByID(context.Background(), tenant, c.ID); err != nil {
		t.Errorf("owner read failed: %v", err)
	}

	other := domain.Actor{ID: "99", Role: domain.RoleTenant}
	if _, err := f.engine.GetByID(context.Background(), other, c.ID); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("expected ErrPermissionDenied, got %v", err)
	}
}
