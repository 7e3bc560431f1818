// Package store provides SQLite-backed persistence for ContactKitt.
// Uses ncruces/go-sqlite3/driver which provides a database/sql interface,
// with jmoiron/sqlx for struct scanning and named parameters.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// SQLiteStore is the SQLite-backed contact store.
// Thread-safe; writers are serialised on a single connection.
type SQLiteStore struct {
	mu         sync.Mutex
	db         *sqlx.DB
	dsn        string
	collection string
	quoted     string
	ready      bool
}

// schema creates one collection table if it is missing.
// AUTOINCREMENT keeps deleted keys from being handed out again.
const schema = `
CREATE TABLE IF NOT EXISTS %[1]s (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL DEFAULT '',
    email TEXT NOT NULL DEFAULT '',
    phone TEXT NOT NULL DEFAULT '',
    profile TEXT NOT NULL DEFAULT ''
);
`

// NewSQLiteStore creates a new in-memory SQLite store.
func NewSQLiteStore() (*SQLiteStore, error) {
	return NewSQLiteStoreWithDSN(":memory:")
}

// NewSQLiteStoreWithDSN creates a store with a specific data source name.
// Use ":memory:" for in-memory or a file path for persistent storage.
func NewSQLiteStoreWithDSN(dsn string) (*SQLiteStore, error) {
	return OpenSQLiteStore(dsn, DefaultCollectionName)
}

// OpenSQLiteStore opens dsn and keeps contacts in the named table.
// The schema is not touched until Init or the first operation.
func OpenSQLiteStore(dsn, collection string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: ":memory:" databases are per-connection and
	// SQLite only supports one writer at a time anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &SQLiteStore{
		db:         db,
		dsn:        dsn,
		collection: collection,
		quoted:     quoteIdent(collection),
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Init creates the contacts table if it is missing and records SchemaVersion
// in user_version. Later calls on the same store are no-ops.
func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initLocked(ctx)
}

func (s *SQLiteStore) initLocked(ctx context.Context) error {
	if s.ready {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin upgrade: %w", err)
	}
	defer tx.Rollback()

	var version int
	if err := tx.GetContext(ctx, &version, "PRAGMA user_version"); err != nil {
		return fmt.Errorf("failed to read user_version: %w", err)
	}

	if version > SchemaVersion {
		return fmt.Errorf("%w: database is at %d, want %d", ErrSchemaVersion, version, SchemaVersion)
	}

	// user_version covers the whole file, but each collection is its own
	// table, so a version-1 database may still lack this one.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(schema, s.quoted)); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if version < SchemaVersion {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
			return fmt.Errorf("failed to set user_version: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit upgrade: %w", err)
	}
	s.ready = true
	return nil
}

// Names reports the data source name and the unquoted table name.
func (s *SQLiteStore) Names() (database, collection string) {
	return s.dsn, s.collection
}

// begin opens a transaction on the contacts table, running the upgrade first if needed.
func (s *SQLiteStore) begin(ctx context.Context, readOnly bool) (*sqlx.Tx, error) {
	if err := s.initLocked(ctx); err != nil {
		return nil, err
	}
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: readOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// =============================================================================
// Contact CRUD
// =============================================================================

// List returns all contacts in key order.
func (s *SQLiteStore) List(ctx context.Context) ([]*Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.begin(ctx, true)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	contacts := []*Contact{}
	query := fmt.Sprintf(`SELECT id, name, email, phone, profile FROM %s ORDER BY id`, s.quoted)
	if err := tx.SelectContext(ctx, &contacts, query); err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit list: %w", err)
	}
	return contacts, nil
}

// Insert adds a contact and lets SQLite assign its key.
func (s *SQLiteStore) Insert(ctx context.Context, c *Contact) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.begin(ctx, false)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.NamedExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (name, email, phone, profile)
		VALUES (:name, :email, :phone, :profile)
	`, s.quoted), c)
	if err != nil {
		return 0, fmt.Errorf("failed to insert contact: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read assigned key: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit insert: %w", err)
	}

	c.ID = id
	return id, nil
}

// Delete removes the contact at id. Missing keys affect no rows.
func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.begin(ctx, false)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, s.quoted), id); err != nil {
		return fmt.Errorf("failed to delete contact %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}

// Update overwrites every column at c.ID, inserting the row if it does not exist.
func (s *SQLiteStore) Update(ctx context.Context, c *Contact) error {
	if err := checkKey(c.ID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.begin(ctx, false)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, name, email, phone, profile)
		VALUES (:id, :name, :email, :phone, :profile)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			phone = excluded.phone,
			profile = excluded.profile
	`, s.quoted), c)
	if err != nil {
		return fmt.Errorf("failed to put contact %d: %w", c.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit update: %w", err)
	}
	return nil
}

// =============================================================================
// Helpers
// =============================================================================

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
