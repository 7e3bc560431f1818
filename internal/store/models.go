// Package store provides contact persistence for ContactKitt.
// One collection of contacts, keyed by an engine-assigned auto-increment id,
// behind a single Storer interface with IndexedDB, SQLite, file and memory backends.
package store

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

const (
	// DefaultDatabaseName is the database every backend opens.
	DefaultDatabaseName = "contact_db"
	// DefaultCollectionName is the single record collection inside it.
	DefaultCollectionName = "contacts"
	// SchemaVersion gates the one-time collection setup.
	SchemaVersion = 1
	// KeyPath is the record field holding the auto-increment key.
	KeyPath = "id"
)

var (
	// ErrInvalidKey is returned when an update names a key no engine can assign.
	ErrInvalidKey = errors.New("store: invalid contact key")
	// ErrSchemaVersion is returned when the stored schema is newer than SchemaVersion.
	ErrSchemaVersion = errors.New("store: unsupported schema version")
)

// Contact is the only record kind in the store.
// Maps 1:1 to the object shape kept in the IndexedDB "contacts" store.
type Contact struct {
	ID      int64  `json:"id" yaml:"id" db:"id"`
	Name    string `json:"name" yaml:"name" db:"name"`
	Email   string `json:"email" yaml:"email" db:"email"`
	Phone   string `json:"phone" yaml:"phone" db:"phone"`
	Profile string `json:"profile" yaml:"profile" db:"profile"`
}

// Validate checks caller-supplied fields. Stores never call it.
func (c *Contact) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("contact name is required")
	}
	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			return fmt.Errorf("invalid email %q: %w", c.Email, err)
		}
	}
	return nil
}

// Storer defines the contact adapter contract shared by every backend.
type Storer interface {
	// Init ensures the database and collection exist at SchemaVersion.
	// Calling it again is a no-op.
	Init(ctx context.Context) error

	// List returns every contact in ascending key order.
	List(ctx context.Context) ([]*Contact, error)

	// Insert adds c with a fresh key, sets c.ID and returns it.
	Insert(ctx context.Context, c *Contact) (int64, error)

	// Delete removes the record at id. Missing keys are a no-op.
	Delete(ctx context.Context, id int64) error

	// Update replaces the record at c.ID wholesale, creating it if absent.
	Update(ctx context.Context, c *Contact) error

	// Close releases the database handle.
	Close() error
}

// Namer is implemented by stores bound to a named database and collection.
type Namer interface {
	Names() (database, collection string)
}

// NamesOf reports where s keeps its contacts, falling back to the defaults
// for stores that are not bound to a name.
func NamesOf(s Storer) (database, collection string) {
	if n, ok := s.(Namer); ok {
		return n.Names()
	}
	return DefaultDatabaseName, DefaultCollectionName
}

func checkKey(id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidKey, id)
	}
	return nil
}
