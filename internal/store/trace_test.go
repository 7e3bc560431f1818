package store

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTracedMemStore(buf *bytes.Buffer) *TracedStore {
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return WithTrace(NewMemStore(), logger)
}

func TestTraceLogsEntryAndCompletion(t *testing.T) {
	var buf bytes.Buffer
	s := newTracedMemStore(&buf)
	ctx := context.Background()

	id, err := s.Insert(ctx, ada())
	require.NoError(t, err)
	_, err = s.List(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, id))

	out := buf.String()
	assert.Contains(t, out, `msg="POST to the database"`)
	assert.Contains(t, out, "op=insert")
	assert.Contains(t, out, "id=1")
	assert.Contains(t, out, `msg="GET from the database"`)
	assert.Contains(t, out, "count=1")
	assert.Contains(t, out, `msg="DELETE from the database"`)
	assert.Contains(t, out, "component=store")
}

func TestTracePassesErrorsThrough(t *testing.T) {
	var buf bytes.Buffer
	s := newTracedMemStore(&buf)

	err := s.Update(context.Background(), &Contact{Name: "no key"})
	assert.True(t, errors.Is(err, ErrInvalidKey))
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "op=update")
}

func TestTraceUnwrap(t *testing.T) {
	inner := NewMemStore()
	s := WithTrace(inner, nil)
	assert.Same(t, inner, s.Unwrap())
}
