package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"sync"

	"github.com/hack-pad/hackpadfs"
)

// FileStore keeps the whole collection as one JSON document on a hackpadfs.FS.
// In the browser the FS is hackpadfs/indexeddb; tests use hackpadfs/mem.
// Every operation reads the document, and mutations write it back in full.
type FileStore struct {
	FS   hackpadfs.FS
	Path string
	mu   sync.RWMutex

	database   string
	collection string
}

// fileDocument is the on-disk shape of a FileStore collection.
type fileDocument struct {
	SchemaVersion int        `json:"schemaVersion"`
	KeyPath       string     `json:"keyPath"`
	NextID        int64      `json:"nextId"`
	Contacts      []*Contact `json:"contacts"`
}

// NewFileStore creates a store for database/collection under fs.
// The document lives at "<database>/<collection>.json".
func NewFileStore(fs hackpadfs.FS, database, collection string) *FileStore {
	return &FileStore{
		FS:         fs,
		Path:       path.Join(database, collection+".json"),
		database:   database,
		collection: collection,
	}
}

func (s *FileStore) Names() (database, collection string) {
	return s.database, s.collection
}

// Init writes an empty version-1 document if none exists yet.
func (s *FileStore) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.load()
	return err
}

// Close is a no-op; the FS is owned by the caller.
func (s *FileStore) Close() error {
	return nil
}

// =============================================================================
// Contact CRUD
// =============================================================================

func (s *FileStore) List(ctx context.Context) ([]*Contact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, err := s.read()
	if errors.Is(err, hackpadfs.ErrNotExist) {
		return []*Contact{}, nil
	}
	if err != nil {
		return nil, err
	}
	if doc.Contacts == nil {
		return []*Contact{}, nil
	}
	return doc.Contacts, nil
}

func (s *FileStore) Insert(ctx context.Context, c *Contact) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return 0, err
	}

	copy := *c
	copy.ID = doc.NextID
	doc.NextID++
	doc.Contacts = append(doc.Contacts, &copy)

	if err := s.save(doc); err != nil {
		return 0, err
	}
	c.ID = copy.ID
	return copy.ID, nil
}

func (s *FileStore) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	i := doc.find(id)
	if i < 0 {
		return nil
	}
	doc.Contacts = append(doc.Contacts[:i], doc.Contacts[i+1:]...)
	return s.save(doc)
}

func (s *FileStore) Update(ctx context.Context, c *Contact) error {
	if err := checkKey(c.ID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	copy := *c
	if i := doc.find(c.ID); i >= 0 {
		doc.Contacts[i] = &copy
	} else {
		doc.Contacts = append(doc.Contacts, &copy)
		sort.Slice(doc.Contacts, func(i, j int) bool { return doc.Contacts[i].ID < doc.Contacts[j].ID })
	}
	if c.ID >= doc.NextID {
		doc.NextID = c.ID + 1
	}
	return s.save(doc)
}

// =============================================================================
// Persistence
// =============================================================================

// load reads the document, creating it on first use.
func (s *FileStore) load() (*fileDocument, error) {
	doc, err := s.read()
	if errors.Is(err, hackpadfs.ErrNotExist) {
		doc = &fileDocument{SchemaVersion: SchemaVersion, KeyPath: KeyPath, NextID: 1}
		if err := s.save(doc); err != nil {
			return nil, err
		}
		return doc, nil
	}
	return doc, err
}

func (s *FileStore) read() (*fileDocument, error) {
	content, err := hackpadfs.ReadFile(s.FS, s.Path)
	if err != nil {
		return nil, err
	}

	var doc fileDocument
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.Path, err)
	}
	if doc.SchemaVersion > SchemaVersion {
		return nil, fmt.Errorf("%w: %s is at %d, want %d", ErrSchemaVersion, s.Path, doc.SchemaVersion, SchemaVersion)
	}
	if doc.NextID < 1 {
		doc.NextID = 1
	}
	return &doc, nil
}

func (s *FileStore) save(doc *fileDocument) error {
	content, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode collection: %w", err)
	}
	if dir := path.Dir(s.Path); dir != "." {
		if err := hackpadfs.MkdirAll(s.FS, dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := hackpadfs.WriteFullFile(s.FS, s.Path, content, 0o644); err != nil {
		return fmt.Errorf("failed to write collection file: %w", err)
	}
	return nil
}

func (d *fileDocument) find(id int64) int {
	for i, c := range d.Contacts {
		if c.ID == id {
			return i
		}
	}
	return -1
}
