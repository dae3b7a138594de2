package river

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/leaseiq/internal/adapter/sqlite"
	"github.com/neomorfeo/leaseiq/internal/domain"
)

// NotificationArgs carries a queued notification. River serializes this as
// JSON into its job table; the row is inserted through the owning
// transaction, so a notification exists iff the lifecycle change committed.
type NotificationArgs struct {
	NotificationKind string            `json:"kind"`
	RecipientID      string            `json:"recipient_id"`
	Data             map[string]string `json:"data,omitempty"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (NotificationArgs) Kind() string { return "notification.dispatch" }

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Outbox implements domain.NotificationOutbox over a single transaction.
type Outbox struct {
	client *Client
	tx     *sql.Tx
}

// Compile-time check: Outbox implements domain.NotificationOutbox.
var _ domain.NotificationOutbox = (*Outbox)(nil)

// NewOutboxFactory returns the factory the sqlite repository uses to build a
// transaction-scoped outbox per InTx call.
func NewOutboxFactory(client *Client) sqlite.OutboxFactory {
	return func(tx *sql.Tx) domain.NotificationOutbox {
		return &Outbox{client: client, tx: tx}
	}
}

// Enqueue inserts a notification job in the caller's transaction. Delivery
// is at-most-once: the job never retries, and a delivery failure is the
// worker's problem, not the transaction's.
func (o *Outbox) Enqueue(ctx context.Context, n domain.Notification) error {
	_, err := o.client.InsertTx(ctx, o.tx, NotificationArgs{
		NotificationKind: n.Kind,
		RecipientID:      n.RecipientID,
		Data:             n.Data,
	}, &river.InsertOpts{MaxAttempts: 1})
	if err != nil {
		return fmt.Errorf("enqueuing notification job: %w", err)
	}
	return nil
}
