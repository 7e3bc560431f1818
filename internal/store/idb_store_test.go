//go:build js && wasm

package store

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/hack-pad/go-indexeddb/idb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dbCount int64

// newIDBStore opens a store in a fresh database so tests do not share state.
func newIDBStore(t *testing.T) *IDBStore {
	t.Helper()
	name := fmt.Sprintf("contact_db_test_%d", atomic.AddInt64(&dbCount, 1))
	s := NewIDBStore(idb.Global(), name, DefaultCollectionName)
	t.Cleanup(func() {
		s.Close()
		req, err := idb.Global().DeleteDatabase(name)
		if err == nil {
			req.Await(context.Background())
		}
	})
	return s
}

func TestIDBStoreScenario(t *testing.T) {
	ctx := context.Background()
	s := newIDBStore(t)
	require.NoError(t, s.Init(ctx))
	require.NoError(t, s.Init(ctx))

	id, err := s.Insert(ctx, ada())
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	contacts, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, Contact{ID: 1, Name: "Ada", Email: "ada@x.com", Phone: "555-0100", Profile: "eng"}, *contacts[0])

	require.NoError(t, s.Update(ctx, &Contact{ID: id, Name: "Ada", Email: "ada@y.com", Phone: "555-0100", Profile: "eng"}))
	contacts, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "ada@y.com", contacts[0].Email)

	require.NoError(t, s.Delete(ctx, id))
	require.NoError(t, s.Delete(ctx, id))
	contacts, err = s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, contacts)

	next, err := s.Insert(ctx, ada())
	require.NoError(t, err)
	assert.Equal(t, int64(2), next)
}

func TestIDBStoreUpdateUpserts(t *testing.T) {
	ctx := context.Background()
	s := newIDBStore(t)

	require.NoError(t, s.Update(ctx, &Contact{ID: 10, Name: "Late"}))
	contacts, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, int64(10), contacts[0].ID)

	assert.ErrorIs(t, s.Update(ctx, &Contact{Name: "no key"}), ErrInvalidKey)
}
