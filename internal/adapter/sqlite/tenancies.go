package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/neomorfeo/leaseiq/internal/domain"
)

// Compile-time check: tenancyStore implements domain.TenancyStore.
var _ domain.TenancyStore = (*tenancyStore)(nil)

type tenancyStore struct {
	q querier
}

func (s *tenancyStore) Insert(ctx context.Context, t domain.Tenancy) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO tenancies (id, room_id, tenant_id, is_current, moved_in_at, moved_out_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.RoomID, t.TenantID, boolInt(t.IsCurrent),
		t.MovedInAt.Format(dateFormat), nullTime(t.MovedOutAt),
	)
	if err != nil {
		return fmt.Errorf("inserting tenancy: %w", err)
	}
	return nil
}

func (s *tenancyStore) CloseCurrent(ctx context.Context, roomID, tenantID string, movedOutAt time.Time) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE tenancies SET is_current = 0, moved_out_at = ?
		 WHERE room_id = ? AND tenant_id = ? AND is_current = 1`,
		movedOutAt.Format(timeFormat), roomID, tenantID,
	)
	if err != nil {
		return fmt.Errorf("closing tenancy: %w", err)
	}
	return nil
}

func (s *tenancyStore) CountCurrent(ctx context.Context, roomID string) (int, error) {
	var count int
	err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT tenant_id) FROM tenancies WHERE room_id = ? AND is_current = 1`,
		roomID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting current tenants: %w", err)
	}
	return count, nil
}

func (s *tenancyStore) ListByRoom(ctx context.Context, roomID string) ([]domain.Tenancy, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, room_id, tenant_id, is_current, moved_in_at, moved_out_at
		 FROM tenancies WHERE room_id = ? ORDER BY moved_in_at`,
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing tenancies: %w", err)
	}
	defer rows.Close()

	var tenancies []domain.Tenancy
	for rows.Next() {
		var t domain.Tenancy
		var isCurrent int
		var movedIn string
		var movedOut sql.NullString

		if err := rows.Scan(&t.ID, &t.RoomID, &t.TenantID, &isCurrent, &movedIn, &movedOut); err != nil {
			return nil, fmt.Errorf("scanning tenancy: %w", err)
		}
		t.IsCurrent = isCurrent != 0
		if t.MovedInAt, err = time.Parse(dateFormat, movedIn); err != nil {
			return nil, fmt.Errorf("parsing moved_in_at: %w", err)
		}
		if movedOut.Valid {
			out, err := time.Parse(timeFormat, movedOut.String)
			if err != nil {
				return nil, fmt.Errorf("parsing moved_out_at: %w", err)
			}
			t.MovedOutAt = &out
		}
		tenancies = append(tenancies, t)
	}
	return tenancies, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
