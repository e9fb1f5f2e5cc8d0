package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "fluxgate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestModelSources(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, ok, err := s.GetSource(ctx, "textbook")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.UpsertSource(ctx, ModelSource{ModelID: "textbook", Preload: true}))
	require.NoError(t, s.UpsertSource(ctx, ModelSource{ModelID: "custom", Path: "/data/custom.json"}))

	src, ok, err := s.GetSource(ctx, "textbook")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, src.Preload)
	assert.Empty(t, src.Path)
	assert.False(t, src.AddedAt.IsZero())

	// Upsert updates in place.
	require.NoError(t, s.UpsertSource(ctx, ModelSource{ModelID: "textbook", Preload: false}))
	src, _, err = s.GetSource(ctx, "textbook")
	require.NoError(t, err)
	assert.False(t, src.Preload)

	sources, err := s.ListSources(ctx)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "custom", sources[0].ModelID)
	assert.Equal(t, "textbook", sources[1].ModelID)

	require.NoError(t, s.DeleteSource(ctx, "custom"))
	sources, err = s.ListSources(ctx)
	require.NoError(t, err)
	assert.Len(t, sources, 1)
}

func TestAPIKeys(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	record := APIKeyRecord{
		ID:        "abc123",
		Name:      "ci",
		Prefix:    "fg-abc1",
		HashedKey: "deadbeef",
		CreatedAt: time.Now(),
	}
	require.NoError(t, s.CreateAPIKey(ctx, record))

	keys, err := s.ListAPIKeys(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, "ci", keys[0].Name)
	assert.Nil(t, keys[0].LastUsedAt)

	require.NoError(t, s.UpdateAPIKeyLastUsed(ctx, "abc123"))
	keys, err = s.ListAPIKeys(ctx)
	require.NoError(t, err)
	require.NotNil(t, keys[0].LastUsedAt)

	require.NoError(t, s.DeleteAPIKey(ctx, "abc123"))
	keys, err = s.ListAPIKeys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestUsers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, exists, err := s.GetUser(ctx, "admin")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.CreateUser(ctx, UserRecord{Username: "admin", PasswordHash: "hash1"}))

	u, exists, err := s.GetUser(ctx, "admin")
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, "hash1", u.PasswordHash)

	require.NoError(t, s.UpdateUserPassword(ctx, "admin", "hash2"))
	u, _, err = s.GetUser(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "hash2", u.PasswordHash)

	// Duplicate usernames violate the primary key.
	assert.Error(t, s.CreateUser(ctx, UserRecord{Username: "admin", PasswordHash: "x"}))
}
