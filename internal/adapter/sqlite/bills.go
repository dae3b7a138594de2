package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/neomorfeo/leaseiq/internal/domain"
)

// Compile-time check: billStore implements domain.BillStore.
var _ domain.BillStore = (*billStore)(nil)

type billStore struct {
	q querier
}

func (s *billStore) Create(ctx context.Context, b domain.Bill) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO bills (id, contract_id, status, amount, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.ContractID, string(b.Status), b.Amount, b.CreatedAt.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting bill: %w", err)
	}
	return nil
}

func (s *billStore) ListByContract(ctx context.Context, contractID string, statusIn []domain.BillStatus) ([]domain.Bill, error) {
	query := `SELECT id, contract_id, status, amount, created_at FROM bills WHERE contract_id = ?`
	args := []any{contractID}

	if len(statusIn) > 0 {
		placeholders := strings.Repeat("?, ", len(statusIn)-1) + "?"
		query += ` AND status IN (` + placeholders + `)`
		for _, st := range statusIn {
			args = append(args, string(st))
		}
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing bills: %w", err)
	}
	defer rows.Close()

	var bills []domain.Bill
	for rows.Next() {
		var b domain.Bill
		var status, createdAt string
		if err := rows.Scan(&b.ID, &b.ContractID, &status, &b.Amount, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning bill: %w", err)
		}
		b.Status = domain.BillStatus(status)
		if b.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		bills = append(bills, b)
	}
	return bills, rows.Err()
}

func (s *billStore) DeleteDrafts(ctx context.Context, contractID string) error {
	_, err := s.q.ExecContext(ctx,
		`DELETE FROM bills WHERE contract_id = ? AND status = ?`,
		contractID, string(domain.BillDraft),
	)
	if err != nil {
		return fmt.Errorf("deleting draft bills: %w", err)
	}
	return nil
}
