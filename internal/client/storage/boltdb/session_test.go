package boltdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/annosync/internal/client/storage"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "annosync-client.db")
	s, err := New(context.Background(), dbPath)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})
	return s
}

func TestStorage_SaveAndGetSession(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	session := &storage.Session{
		ClientID:  "client-1",
		ServerURL: "ws://localhost:8081/ws",
		Document:  "shared/example.pdf",
		Page:      3,
		Zoom:      1.5,
	}
	require.NoError(t, s.SaveSession(ctx, session))

	got, err := s.GetSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, session, got)
}

func TestStorage_GetSession_NotFound(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.GetSession(context.Background())
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
}

func TestStorage_SaveSession_Overwrites(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSession(ctx, &storage.Session{ClientID: "client-1", Page: 1, Zoom: 1.0}))
	require.NoError(t, s.SaveSession(ctx, &storage.Session{ClientID: "client-1", Page: 7, Zoom: 2.0}))

	got, err := s.GetSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Page)
	assert.Equal(t, 2.0, got.Zoom)
}

func TestStorage_DeleteSession(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSession(ctx, &storage.Session{ClientID: "client-1"}))
	require.NoError(t, s.DeleteSession(ctx))

	_, err := s.GetSession(ctx)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
}

func TestStorage_DeleteSession_NotFound(t *testing.T) {
	s := newTestStorage(t)

	err := s.DeleteSession(context.Background())
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
}
