package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/aura-events/dashboard/internal/models"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fs,
		"redis":  NewRedisStore(rdb, "test:session", zaptest.NewLogger(t)),
	}
}

func organizerSession() Session {
	return Session{
		Token: "tok-123",
		User: models.User{
			ID:     "u1",
			Email:  "org@example.com",
			Role:   models.RoleOrganizer,
			Status: models.StatusPending,
		},
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			assert.Nil(t, store.Load(ctx))

			want := organizerSession()
			require.NoError(t, store.Save(ctx, want))

			got := store.Load(ctx)
			require.NotNil(t, got)
			assert.Equal(t, want, *got)
		})
	}
}

func TestStore_TokenKeptVerbatim(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			want := organizerSession()
			want.Token = " tok-123\n"
			require.NoError(t, store.Save(ctx, want))

			got := store.Load(ctx)
			require.NotNil(t, got)
			assert.Equal(t, want.Token, got.Token)
		})
	}
}

func TestStore_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Save(ctx, organizerSession()))
			admin := Session{Token: "other", User: models.User{Email: "a@example.com", Role: models.RoleAdmin}}
			require.NoError(t, store.Save(ctx, admin))

			got := store.Load(ctx)
			require.NotNil(t, got)
			assert.Equal(t, admin, *got)
		})
	}
}

func TestStore_ClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Clear(ctx))
			require.NoError(t, store.Save(ctx, organizerSession()))
			require.NoError(t, store.Clear(ctx))
			assert.Nil(t, store.Load(ctx))
			require.NoError(t, store.Clear(ctx))
			assert.Nil(t, store.Load(ctx))
		})
	}
}

func TestStore_SaveRejectsEmptyToken(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Save(ctx, organizerSession()))
			err := store.Save(ctx, Session{User: models.User{Email: "x@example.com"}})
			assert.ErrorIs(t, err, ErrEmptyToken)
			assert.NotNil(t, store.Load(ctx), "failed save must not disturb the stored session")
		})
	}
}

func TestFileStore_MalformedUserReadsAsEmpty(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, tokenFile), []byte("tok"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, userFile), []byte("{not json"), 0o600))
	assert.Nil(t, store.Load(context.Background()))
}

func TestFileStore_MissingTokenReadsAsEmpty(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, userFile), []byte(`{"email":"a@b.c","role":"admin"}`), 0o600))
	assert.Nil(t, store.Load(context.Background()))
}

func TestRedisStore_PartialPairReadsAsEmpty(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	store := NewRedisStore(rdb, "ns", nil)

	require.NoError(t, mr.Set("ns:token", "tok"))
	assert.Nil(t, store.Load(context.Background()))
}

func TestRedisStore_UnreachableServerReadsAsEmpty(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	store := NewRedisStore(rdb, "ns", zaptest.NewLogger(t))
	require.NoError(t, store.Save(context.Background(), organizerSession()))

	mr.Close()
	assert.Nil(t, store.Load(context.Background()))
}
