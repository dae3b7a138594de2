package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/neomorfeo/leaseiq/internal/domain"
)

// Compile-time check: contractStore implements domain.ContractStore.
var _ domain.ContractStore = (*contractStore)(nil)

type contractStore struct {
	q querier
}

const contractColumns = `id, room_id, tenant_id, start_date, duration_months, end_date,
	rent_amount, deposit_amount, penalty_rate, payment_cycle_months,
	status, note, attachment_key, evidence_key, deleted_at, created_at, updated_at`

func (s *contractStore) Create(ctx context.Context, c domain.Contract) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO contracts (`+contractColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.RoomID, c.TenantID,
		c.StartDate.Format(dateFormat), c.DurationMonths, c.EndDate.Format(dateFormat),
		c.RentAmount, c.DepositAmount, c.PenaltyRate, c.PaymentCycleMonths,
		string(c.Status), c.Note, c.AttachmentKey, c.EvidenceKey,
		nullTime(c.DeletedAt),
		c.CreatedAt.Format(timeFormat), c.UpdatedAt.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting contract: %w", err)
	}
	return nil
}

func (s *contractStore) GetByID(ctx context.Context, id string) (domain.Contract, error) {
	return scanContract(s.q.QueryRowContext(ctx,
		`SELECT `+contractColumns+` FROM contracts WHERE id = ?`, id,
	))
}

func (s *contractStore) List(ctx context.Context, filter domain.ContractFilter) ([]domain.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts`
	var where []string
	var args []any

	if filter.Status != nil {
		where = append(where, `status = ?`)
		args = append(args, string(*filter.Status))
	}
	if filter.RoomID != "" {
		where = append(where, `room_id = ?`)
		args = append(args, filter.RoomID)
	}
	if filter.TenantID != "" {
		where = append(where, `tenant_id = ?`)
		args = append(args, filter.TenantID)
	}
	if !filter.IncludeDeleted {
		where = append(where, `deleted_at IS NULL`)
	}
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	return s.queryContracts(ctx, query, args...)
}

func (s *contractStore) ListBlockingByRoom(ctx context.Context, roomID string) ([]domain.Contract, error) {
	return s.queryContracts(ctx,
		`SELECT `+contractColumns+` FROM contracts
		 WHERE room_id = ?
		   AND deleted_at IS NULL
		   AND status IN (?, ?, ?)`,
		roomID,
		string(domain.StatusActive), string(domain.StatusPending), string(domain.StatusPendingTransaction),
	)
}

func (s *contractStore) ListExpiring(ctx context.Context, before time.Time) ([]domain.Contract, error) {
	return s.queryContracts(ctx,
		`SELECT `+contractColumns+` FROM contracts
		 WHERE deleted_at IS NULL
		   AND status IN (?, ?)
		   AND end_date < ?`,
		string(domain.StatusActive), string(domain.StatusPending),
		before.Format(dateFormat),
	)
}

func (s *contractStore) Update(ctx context.Context, c domain.Contract) error {
	result, err := s.q.ExecContext(ctx,
		`UPDATE contracts SET
			room_id = ?, tenant_id = ?, start_date = ?, duration_months = ?, end_date = ?,
			rent_amount = ?, deposit_amount = ?, penalty_rate = ?, payment_cycle_months = ?,
			status = ?, note = ?, attachment_key = ?, evidence_key = ?, deleted_at = ?,
			updated_at = ?
		 WHERE id = ?`,
		c.RoomID, c.TenantID,
		c.StartDate.Format(dateFormat), c.DurationMonths, c.EndDate.Format(dateFormat),
		c.RentAmount, c.DepositAmount, c.PenaltyRate, c.PaymentCycleMonths,
		string(c.Status), c.Note, c.AttachmentKey, c.EvidenceKey,
		nullTime(c.DeletedAt),
		time.Now().UTC().Format(timeFormat),
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("updating contract: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrContractNotFound
	}
	return nil
}

func (s *contractStore) HardDelete(ctx context.Context, id string) error {
	result, err := s.q.ExecContext(ctx, `DELETE FROM contracts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting contract: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrContractNotFound
	}
	return nil
}

func (s *contractStore) queryContracts(ctx context.Context, query string, args ...any) ([]domain.Contract, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing contracts: %w", err)
	}
	defer rows.Close()

	var contracts []domain.Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, c)
	}
	return contracts, rows.Err()
}

func scanContract(row rowScanner) (domain.Contract, error) {
	var c domain.Contract
	var status, startDate, endDate, createdAt, updatedAt string
	var deletedAt sql.NullString

	err := row.Scan(
		&c.ID, &c.RoomID, &c.TenantID, &startDate, &c.DurationMonths, &endDate,
		&c.RentAmount, &c.DepositAmount, &c.PenaltyRate, &c.PaymentCycleMonths,
		&status, &c.Note, &c.AttachmentKey, &c.EvidenceKey, &deletedAt,
		&createdAt, &updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Contract{}, domain.ErrContractNotFound
		}
		return domain.Contract{}, fmt.Errorf("scanning contract: %w", err)
	}

	c.Status = domain.Status(status)
	if c.StartDate, err = time.Parse(dateFormat, startDate); err != nil {
		return domain.Contract{}, fmt.Errorf("parsing start_date: %w", err)
	}
	if c.EndDate, err = time.Parse(dateFormat, endDate); err != nil {
		return domain.Contract{}, fmt.Errorf("parsing end_date: %w", err)
	}
	if c.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
		return domain.Contract{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if c.UpdatedAt, err = time.Parse(timeFormat, updatedAt); err != nil {
		return domain.Contract{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	if deletedAt.Valid {
		t, err := time.Parse(timeFormat, deletedAt.String)
		if err != nil {
			return domain.Contract{}, fmt.Errorf("parsing deleted_at: %w", err)
		}
		c.DeletedAt = &t
	}
	return c, nil
}

// nullTime renders an optional timestamp for storage.
func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(timeFormat)
}
