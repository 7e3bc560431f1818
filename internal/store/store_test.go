package store

import (
	"context"
	"testing"

	"github.com/hack-pad/hackpadfs/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Store Factory for Testing All Native Implementations
// =============================================================================

// storeFactory creates a store for testing.
// MemStore, SQLiteStore and FileStore run the same suite.
type storeFactory func() (Storer, error)

func memStoreFactory() (Storer, error) {
	return NewMemStore(), nil
}

func sqliteStoreFactory() (Storer, error) {
	return NewSQLiteStore()
}

func fileStoreFactory() (Storer, error) {
	fs, err := mem.NewFS()
	if err != nil {
		return nil, err
	}
	return NewFileStore(fs, DefaultDatabaseName, DefaultCollectionName), nil
}

// runTestsForAllStores runs a test function against every store implementation.
func runTestsForAllStores(t *testing.T, testName string, testFn func(t *testing.T, store Storer)) {
	factories := map[string]storeFactory{
		"MemStore":    memStoreFactory,
		"SQLiteStore": sqliteStoreFactory,
		"FileStore":   fileStoreFactory,
	}

	for name, factory := range factories {
		t.Run(name+"/"+testName, func(t *testing.T) {
			store, err := factory()
			require.NoError(t, err, "Failed to create store")
			defer store.Close()
			require.NoError(t, store.Init(context.Background()))
			testFn(t, store)
		})
	}
}

func ada() *Contact {
	return &Contact{Name: "Ada", Email: "ada@x.com", Phone: "555-0100", Profile: "eng"}
}

// =============================================================================
// Initialization
// =============================================================================

func TestInitIdempotent(t *testing.T) {
	runTestsForAllStores(t, "InitIdempotent", func(t *testing.T, store Storer) {
		ctx := context.Background()
		_, err := store.Insert(ctx, ada())
		require.NoError(t, err)

		before, err := store.List(ctx)
		require.NoError(t, err)

		require.NoError(t, store.Init(ctx))
		require.NoError(t, store.Init(ctx))

		after, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})
}

func TestListEmpty(t *testing.T) {
	runTestsForAllStores(t, "ListEmpty", func(t *testing.T, store Storer) {
		contacts, err := store.List(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, contacts, "empty collection should list as an empty slice")
		assert.Empty(t, contacts)
	})
}

// =============================================================================
// Contact CRUD
// =============================================================================

func TestInsertAndList(t *testing.T) {
	runTestsForAllStores(t, "InsertAndList", func(t *testing.T, store Storer) {
		ctx := context.Background()

		first := &Contact{Name: "Grace", Email: "grace@navy.mil", Phone: "555-0101", Profile: "admiral"}
		firstID, err := store.Insert(ctx, first)
		require.NoError(t, err)
		assert.Equal(t, firstID, first.ID, "Insert should set the assigned key on the input")

		c := ada()
		id, err := store.Insert(ctx, c)
		require.NoError(t, err)
		assert.NotEqual(t, firstID, id, "keys must be fresh")

		contacts, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, contacts, 2)
		assert.Equal(t, *first, *contacts[0])
		assert.Equal(t, Contact{ID: id, Name: "Ada", Email: "ada@x.com", Phone: "555-0100", Profile: "eng"}, *contacts[1])
	})
}

func TestListReturnsCopies(t *testing.T) {
	runTestsForAllStores(t, "ListReturnsCopies", func(t *testing.T, store Storer) {
		ctx := context.Background()
		c := ada()
		_, err := store.Insert(ctx, c)
		require.NoError(t, err)
		c.Email = "changed@x.com"

		contacts, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, contacts, 1)
		contacts[0].Name = "Changed"

		again, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, *ada(), Contact{Name: again[0].Name, Email: again[0].Email, Phone: again[0].Phone, Profile: again[0].Profile})
	})
}

func TestInsertDoesNotValidate(t *testing.T) {
	runTestsForAllStores(t, "InsertDoesNotValidate", func(t *testing.T, store Storer) {
		ctx := context.Background()
		_, err := store.Insert(ctx, &Contact{Email: "not an email"})
		require.NoError(t, err)

		contacts, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, contacts, 1)
		assert.Equal(t, "not an email", contacts[0].Email)
	})
}

func TestInsertIgnoresCallerKey(t *testing.T) {
	runTestsForAllStores(t, "InsertIgnoresCallerKey", func(t *testing.T, store Storer) {
		ctx := context.Background()
		c := ada()
		c.ID = 99
		id, err := store.Insert(ctx, c)
		require.NoError(t, err)
		assert.Equal(t, int64(1), id)
	})
}

func TestDelete(t *testing.T) {
	runTestsForAllStores(t, "Delete", func(t *testing.T, store Storer) {
		ctx := context.Background()
		keep, err := store.Insert(ctx, &Contact{Name: "Keep"})
		require.NoError(t, err)
		gone, err := store.Insert(ctx, &Contact{Name: "Gone"})
		require.NoError(t, err)

		require.NoError(t, store.Delete(ctx, gone))

		contacts, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, contacts, 1)
		assert.Equal(t, keep, contacts[0].ID)
	})
}

func TestDeleteMissingIsNoop(t *testing.T) {
	runTestsForAllStores(t, "DeleteMissing", func(t *testing.T, store Storer) {
		ctx := context.Background()
		_, err := store.Insert(ctx, ada())
		require.NoError(t, err)
		before, err := store.List(ctx)
		require.NoError(t, err)

		assert.NoError(t, store.Delete(ctx, 12345))
		assert.NoError(t, store.Delete(ctx, 0))

		after, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})
}

func TestKeysNotReused(t *testing.T) {
	runTestsForAllStores(t, "KeysNotReused", func(t *testing.T, store Storer) {
		ctx := context.Background()
		first, err := store.Insert(ctx, ada())
		require.NoError(t, err)
		require.NoError(t, store.Delete(ctx, first))

		second, err := store.Insert(ctx, ada())
		require.NoError(t, err)
		assert.Greater(t, second, first)
	})
}

func TestUpdateReplacesRecord(t *testing.T) {
	runTestsForAllStores(t, "UpdateReplaces", func(t *testing.T, store Storer) {
		ctx := context.Background()
		id, err := store.Insert(ctx, ada())
		require.NoError(t, err)

		replacement := &Contact{ID: id, Name: "Ada Lovelace", Email: "", Phone: "", Profile: "math"}
		require.NoError(t, store.Update(ctx, replacement))

		contacts, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, contacts, 1)
		assert.Equal(t, *replacement, *contacts[0], "old field values must be discarded")
	})
}

func TestUpdateMissingUpserts(t *testing.T) {
	runTestsForAllStores(t, "UpdateUpserts", func(t *testing.T, store Storer) {
		ctx := context.Background()
		c := &Contact{ID: 7, Name: "Late", Email: "late@x.com"}
		require.NoError(t, store.Update(ctx, c))

		contacts, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, contacts, 1)
		assert.Equal(t, *c, *contacts[0])

		// The key generator moves past an explicit key.
		next, err := store.Insert(ctx, ada())
		require.NoError(t, err)
		assert.Equal(t, int64(8), next)
	})
}

func TestUpdateRejectsInvalidKey(t *testing.T) {
	runTestsForAllStores(t, "UpdateInvalidKey", func(t *testing.T, store Storer) {
		err := store.Update(context.Background(), ada())
		assert.ErrorIs(t, err, ErrInvalidKey)
	})
}

func TestCanceledContext(t *testing.T) {
	runTestsForAllStores(t, "CanceledContext", func(t *testing.T, store Storer) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := store.Insert(ctx, ada())
		assert.Error(t, err)
	})
}

// =============================================================================
// End-to-end scenario
// =============================================================================

func TestAdaScenario(t *testing.T) {
	runTestsForAllStores(t, "AdaScenario", func(t *testing.T, store Storer) {
		ctx := context.Background()

		id, err := store.Insert(ctx, ada())
		require.NoError(t, err)

		contacts, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, contacts, 1)
		assert.Equal(t, Contact{ID: id, Name: "Ada", Email: "ada@x.com", Phone: "555-0100", Profile: "eng"}, *contacts[0])

		require.NoError(t, store.Update(ctx, &Contact{ID: id, Name: "Ada", Email: "ada@y.com", Phone: "555-0100", Profile: "eng"}))
		contacts, err = store.List(ctx)
		require.NoError(t, err)
		require.Len(t, contacts, 1)
		assert.Equal(t, "ada@y.com", contacts[0].Email)

		require.NoError(t, store.Delete(ctx, id))
		contacts, err = store.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, contacts)
	})
}

// =============================================================================
// Validation
// =============================================================================

func TestContactValidate(t *testing.T) {
	tests := []struct {
		name    string
		contact Contact
		wantErr bool
	}{
		{"valid", Contact{Name: "Ada", Email: "ada@x.com"}, false},
		{"no email", Contact{Name: "Ada"}, false},
		{"blank name", Contact{Name: "  ", Email: "ada@x.com"}, true},
		{"bad email", Contact{Name: "Ada", Email: "ada-at-x"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.contact.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// =============================================================================
// Names
// =============================================================================

func TestNamesOf(t *testing.T) {
	fs, err := mem.NewFS()
	require.NoError(t, err)
	sqlite, err := OpenSQLiteStore(":memory:", "people")
	require.NoError(t, err)
	defer sqlite.Close()

	tests := []struct {
		name       string
		store      Storer
		database   string
		collection string
	}{
		{"mem store uses defaults", NewMemStore(), DefaultDatabaseName, DefaultCollectionName},
		{"file store", NewFileStore(fs, "crm", "people"), "crm", "people"},
		{"sqlite store", sqlite, ":memory:", "people"},
		{"traced store forwards", WithTrace(NewFileStore(fs, "crm", "leads"), nil), "crm", "leads"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			database, collection := NamesOf(tt.store)
			assert.Equal(t, tt.database, database)
			assert.Equal(t, tt.collection, collection)
		})
	}
}
