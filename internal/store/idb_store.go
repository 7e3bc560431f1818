//go:build js && wasm

package store

import (
	"context"
	"fmt"
	"sync"
	"syscall/js"

	"github.com/hack-pad/go-indexeddb/idb"
)

// IDBStore keeps contacts in a browser IndexedDB object store.
// The database handle is opened on first use and owned until Close.
type IDBStore struct {
	factory    *idb.Factory
	name       string
	collection string

	mu sync.Mutex
	db *idb.Database
}

// NewIDBStore creates a store over factory, normally idb.Global().
func NewIDBStore(factory *idb.Factory, database, collection string) *IDBStore {
	return &IDBStore{
		factory:    factory,
		name:       database,
		collection: collection,
	}
}

// Names reports the IndexedDB database and object store names.
func (s *IDBStore) Names() (database, collection string) {
	return s.name, s.collection
}

// Init opens the database at SchemaVersion. The upgrade hook creates the
// object store with an auto-increment "id" key the first time only.
func (s *IDBStore) Init(ctx context.Context) error {
	_, err := s.handle(ctx)
	return err
}

// Close closes the owned database connection.
func (s *IDBStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *IDBStore) handle(ctx context.Context) (*idb.Database, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db, nil
	}

	req, err := s.factory.Open(ctx, s.name, SchemaVersion, s.upgrade)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", s.name, err)
	}
	db, err := req.Await(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", s.name, err)
	}
	s.db = db
	return db, nil
}

func (s *IDBStore) upgrade(db *idb.Database, oldVersion, newVersion uint) error {
	names, err := db.ObjectStoreNames()
	if err != nil {
		return err
	}
	for _, name := range names {
		if name == s.collection {
			return nil
		}
	}
	_, err = db.CreateObjectStore(s.collection, idb.ObjectStoreOptions{
		KeyPath:       js.ValueOf(KeyPath),
		AutoIncrement: true,
	})
	return err
}

// objectStore starts a transaction in mode and returns the contacts store within it.
func (s *IDBStore) objectStore(ctx context.Context, mode idb.TransactionMode) (*idb.Transaction, *idb.ObjectStore, error) {
	db, err := s.handle(ctx)
	if err != nil {
		return nil, nil, err
	}
	txn, err := db.Transaction(mode, s.collection)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin %s transaction: %w", mode, err)
	}
	store, err := txn.ObjectStore(s.collection)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open object store %s: %w", s.collection, err)
	}
	return txn, store, nil
}

// =============================================================================
// Contact CRUD
// =============================================================================

func (s *IDBStore) List(ctx context.Context) ([]*Contact, error) {
	_, store, err := s.objectStore(ctx, idb.TransactionReadOnly)
	if err != nil {
		return nil, err
	}

	req, err := store.OpenCursor(idb.CursorNext)
	if err != nil {
		return nil, fmt.Errorf("failed to scan contacts: %w", err)
	}

	contacts := []*Contact{}
	err = req.Iter(ctx, func(cursor *idb.CursorWithValue) error {
		value, err := cursor.Value()
		if err != nil {
			return err
		}
		contacts = append(contacts, contactFromJS(value))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan contacts: %w", err)
	}
	return contacts, nil
}

func (s *IDBStore) Insert(ctx context.Context, c *Contact) (int64, error) {
	txn, store, err := s.objectStore(ctx, idb.TransactionReadWrite)
	if err != nil {
		return 0, err
	}

	req, err := store.Add(contactToJS(c, false))
	if err != nil {
		return 0, fmt.Errorf("failed to insert contact: %w", err)
	}
	key, err := req.Request.Await(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to insert contact: %w", err)
	}
	if err := txn.Await(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit insert: %w", err)
	}

	c.ID = int64(key.Int())
	return c.ID, nil
}

func (s *IDBStore) Delete(ctx context.Context, id int64) error {
	txn, store, err := s.objectStore(ctx, idb.TransactionReadWrite)
	if err != nil {
		return err
	}

	req, err := store.Delete(js.ValueOf(id))
	if err != nil {
		return fmt.Errorf("failed to delete contact %d: %w", id, err)
	}
	if err := req.Await(ctx); err != nil {
		return fmt.Errorf("failed to delete contact %d: %w", id, err)
	}
	if err := txn.Await(ctx); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}

func (s *IDBStore) Update(ctx context.Context, c *Contact) error {
	if err := checkKey(c.ID); err != nil {
		return err
	}

	txn, store, err := s.objectStore(ctx, idb.TransactionReadWrite)
	if err != nil {
		return err
	}

	req, err := store.Put(contactToJS(c, true))
	if err != nil {
		return fmt.Errorf("failed to put contact %d: %w", c.ID, err)
	}
	if _, err := req.Await(ctx); err != nil {
		return fmt.Errorf("failed to put contact %d: %w", c.ID, err)
	}
	if err := txn.Await(ctx); err != nil {
		return fmt.Errorf("failed to commit update: %w", err)
	}
	return nil
}

// =============================================================================
// JS conversion
// =============================================================================

// contactToJS builds the stored object. The key is omitted on insert so the
// key generator assigns one.
func contactToJS(c *Contact, withKey bool) js.Value {
	obj := map[string]interface{}{
		"name":    c.Name,
		"email":   c.Email,
		"phone":   c.Phone,
		"profile": c.Profile,
	}
	if withKey {
		obj[KeyPath] = c.ID
	}
	return js.ValueOf(obj)
}

func contactFromJS(v js.Value) *Contact {
	return &Contact{
		ID:      int64(v.Get(KeyPath).Int()),
		Name:    jsString(v.Get("name")),
		Email:   jsString(v.Get("email")),
		Phone:   jsString(v.Get("phone")),
		Profile: jsString(v.Get("profile")),
	}
}

// jsString reads a text field; records written by other clients may hold
// any structured-clone value there.
func jsString(v js.Value) string {
	switch v.Type() {
	case js.TypeString:
		return v.String()
	case js.TypeUndefined, js.TypeNull:
		return ""
	default:
		return js.Global().Get("JSON").Call("stringify", v).String()
	}
}
