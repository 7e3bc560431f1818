package store

import (
	"context"
	"log/slog"
)

// TracedStore wraps a Storer and logs every operation on entry and completion.
type TracedStore struct {
	next Storer
	log  *slog.Logger
}

// WithTrace decorates s with structured trace logging.
// A nil logger falls back to slog.Default().
func WithTrace(s Storer, logger *slog.Logger) *TracedStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &TracedStore{next: s, log: logger.With("component", "store")}
}

// Unwrap returns the decorated store.
func (t *TracedStore) Unwrap() Storer {
	return t.next
}

// Names reports the names of the decorated store.
func (t *TracedStore) Names() (database, collection string) {
	return NamesOf(t.next)
}

func (t *TracedStore) Init(ctx context.Context) error {
	t.log.InfoContext(ctx, "init database")
	err := t.next.Init(ctx)
	t.done(ctx, "init", err)
	return err
}

func (t *TracedStore) List(ctx context.Context) ([]*Contact, error) {
	t.log.InfoContext(ctx, "GET from the database")
	contacts, err := t.next.List(ctx)
	t.done(ctx, "list", err, "count", len(contacts))
	return contacts, err
}

func (t *TracedStore) Insert(ctx context.Context, c *Contact) (int64, error) {
	t.log.InfoContext(ctx, "POST to the database")
	id, err := t.next.Insert(ctx, c)
	t.done(ctx, "insert", err, "id", id)
	return id, err
}

func (t *TracedStore) Delete(ctx context.Context, id int64) error {
	t.log.InfoContext(ctx, "DELETE from the database", "id", id)
	err := t.next.Delete(ctx, id)
	t.done(ctx, "delete", err, "id", id)
	return err
}

func (t *TracedStore) Update(ctx context.Context, c *Contact) error {
	t.log.InfoContext(ctx, "PUT to the database", "id", c.ID)
	err := t.next.Update(ctx, c)
	t.done(ctx, "update", err, "id", c.ID)
	return err
}

func (t *TracedStore) Close() error {
	return t.next.Close()
}

func (t *TracedStore) done(ctx context.Context, op string, err error, attrs ...any) {
	if err != nil {
		t.log.ErrorContext(ctx, "operation failed", append([]any{"op", op, "err", err}, attrs...)...)
		return
	}
	t.log.InfoContext(ctx, "operation complete", append([]any{"op", op}, attrs...)...)
}
