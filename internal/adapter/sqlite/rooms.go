package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/neomorfeo/leaseiq/internal/domain"
)

// Compile-time check: roomStore implements domain.RoomStore.
var _ domain.RoomStore = (*roomStore)(nil)

type roomStore struct {
	q querier
}

func (s *roomStore) Create(ctx context.Context, r domain.Room) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO rooms (id, name, status, current_contract_id, max_tenants, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Name, string(r.Status), nullString(r.CurrentContractID), r.MaxTenants,
		r.CreatedAt.Format(timeFormat), r.UpdatedAt.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting room: %w", err)
	}
	return nil
}

func (s *roomStore) GetByID(ctx context.Context, id string) (domain.Room, error) {
	var r domain.Room
	var status, createdAt, updatedAt string
	var current sql.NullString

	err := s.q.QueryRowContext(ctx,
		`SELECT id, name, status, current_contract_id, max_tenants, created_at, updated_at
		 FROM rooms WHERE id = ?`, id,
	).Scan(&r.ID, &r.Name, &status, &current, &r.MaxTenants, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Room{}, domain.ErrRoomNotFound
		}
		return domain.Room{}, fmt.Errorf("scanning room: %w", err)
	}

	r.Status = domain.RoomStatus(status)
	if current.Valid {
		v := current.String
		r.CurrentContractID = &v
	}
	if r.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
		return domain.Room{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if r.UpdatedAt, err = time.Parse(timeFormat, updatedAt); err != nil {
		return domain.Room{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	return r, nil
}

func (s *roomStore) Update(ctx context.Context, r domain.Room) error {
	result, err := s.q.ExecContext(ctx,
		`UPDATE rooms SET name = ?, status = ?, current_contract_id = ?, max_tenants = ?, updated_at = ?
		 WHERE id = ?`,
		r.Name, string(r.Status), nullString(r.CurrentContractID), r.MaxTenants,
		time.Now().UTC().Format(timeFormat), r.ID,
	)
	if err != nil {
		return fmt.Errorf("updating room: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrRoomNotFound
	}
	return nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
