package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"

	"github.com/neomorfeo/leaseiq/internal/domain"

	_ "modernc.org/sqlite" // Register SQLite driver.
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	dateFormat = "2006-01-02"
	timeFormat = "2006-01-02T15:04:05Z"
)

// querier is the subset of *sql.DB and *sql.Tx the stores need, so the same
// store code serves both direct reads and transactional work.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// OutboxFactory builds a transaction-scoped notification outbox. The river
// adapter supplies the real one; until it is set, enqueued notifications are
// only logged.
type OutboxFactory func(tx *sql.Tx) domain.NotificationOutbox

// Repository owns the SQLite database and implements domain.TxRunner plus
// all entity stores.
type Repository struct {
	db     *sql.DB
	outbox OutboxFactory
}

// New opens a SQLite database, runs migrations, and returns a ready repository.
func New(dataSourceName string) (*Repository, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// A single connection serializes writers, which the in-transaction
	// conflict re-check depends on, and avoids SQLITE_BUSY when the DB is
	// shared with the embedded job queue.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	// Enable foreign keys (off by default in SQLite).
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return NewFromDB(db)
}

// NewFromDB wraps an existing database connection, runs migrations, and
// returns a ready repository. Use this when the *sql.DB has been
// pre-configured (e.g., with otelsql instrumentation).
func NewFromDB(db *sql.DB) (*Repository, error) {
	if err := runMigrations(db); err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

// SetOutboxFactory installs the transactional notification outbox. Called
// once during wiring, after the job-queue client exists.
func (r *Repository) SetOutboxFactory(f OutboxFactory) {
	r.outbox = f
}

// Close closes the underlying database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// DB returns the underlying database connection for use by other adapters
// (e.g., river).
func (r *Repository) DB() *sql.DB {
	return r.db
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

// Stores returns database-backed stores for non-transactional reads.
func (r *Repository) Stores() domain.Stores {
	return r.stores(r.db, logOutbox{})
}

func (r *Repository) stores(q querier, outbox domain.NotificationOutbox) domain.Stores {
	return domain.Stores{
		Contracts: &contractStore{q: q},
		Rooms:     &roomStore{q: q},
		Tenancies: &tenancyStore{q: q},
		Bills:     &billStore{q: q},
		Outbox:    outbox,
	}
}

// Compile-time check: Repository implements domain.TxRunner.
var _ domain.TxRunner = (*Repository)(nil)

// InTx runs fn inside a single transaction and commits iff it returns nil.
// The stores handed to fn all write through the same *sql.Tx, so a contract
// status change and its room/tenancy side effects are atomic, and a conflict
// check inside fn is serialized against concurrent writers.
func (r *Repository) InTx(ctx context.Context, fn func(ctx context.Context, s domain.Stores) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	outbox := domain.NotificationOutbox(logOutbox{})
	if r.outbox != nil {
		outbox = r.outbox(tx)
	}

	if err := fn(ctx, r.stores(tx, outbox)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rolling back: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// logOutbox stands in until the job-queue outbox is wired. Notifications
// are best-effort, so logging is an acceptable floor.
type logOutbox struct{}

func (logOutbox) Enqueue(ctx context.Context, n domain.Notification) error {
	slog.InfoContext(ctx, "notification (no outbox wired)",
		"kind", n.Kind,
		"recipient_id", n.RecipientID,
	)
	return nil
}
