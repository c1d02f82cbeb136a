package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llm-session-relay/internal/cache"
	"llm-session-relay/internal/model"
)

type countingStore struct {
	*MemoryStore
	reads int
}

func (s *countingStore) RecentMessages(ctx context.Context, sessionID string, limit int) ([]model.Turn, error) {
	s.reads++
	return s.MemoryStore.RecentMessages(ctx, sessionID, limit)
}

func newCachedStore(t *testing.T) (*CachedStore, *countingStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	backing := &countingStore{MemoryStore: NewMemoryStore()}
	return NewCachedStore(backing, cache.NewWindowCache(client, time.Minute, 5*time.Second)), backing, mr
}

func TestCachedStoreServesCleanWindowFromCache(t *testing.T) {
	ctx := context.Background()
	store, backing, _ := newCachedStore(t)
	require.NoError(t, store.CreateSession(ctx, "s1"))
	require.NoError(t, backing.AppendMessage(ctx, "s1", model.RoleUser, "hi"))

	first, err := store.RecentMessages(ctx, "s1", 20)
	require.NoError(t, err)
	second, err := store.RecentMessages(ctx, "s1", 20)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, backing.reads)
}

func TestCachedStoreNeverServesStaleWindow(t *testing.T) {
	ctx := context.Background()
	store, backing, mr := newCachedStore(t)
	require.NoError(t, store.CreateSession(ctx, "s1"))
	require.NoError(t, backing.AppendMessage(ctx, "s1", model.RoleUser, "one"))

	_, err := store.RecentMessages(ctx, "s1", 20)
	require.NoError(t, err)

	require.NoError(t, store.AppendMessage(ctx, "s1", model.RoleAssistant, "two"))
	turns, err := store.RecentMessages(ctx, "s1", 20)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "two", turns[1].Content)

	// Dirty reads do not populate the cache.
	reads := backing.reads
	_, err = store.RecentMessages(ctx, "s1", 20)
	require.NoError(t, err)
	assert.Equal(t, reads+1, backing.reads)

	mr.FastForward(6 * time.Second)
	_, err = store.RecentMessages(ctx, "s1", 20)
	require.NoError(t, err)
	_, err = store.RecentMessages(ctx, "s1", 20)
	require.NoError(t, err)
	assert.Equal(t, reads+2, backing.reads)
}

func TestCachedStoreFallsThroughWhenRedisIsDown(t *testing.T) {
	ctx := context.Background()
	store, backing, mr := newCachedStore(t)
	require.NoError(t, store.CreateSession(ctx, "s1"))
	mr.SetError("ERR cache unavailable")

	require.NoError(t, store.AppendMessage(ctx, "s1", model.RoleUser, "hi"))
	turns, err := store.RecentMessages(ctx, "s1", 20)
	require.NoError(t, err)
	assert.Equal(t, []model.Turn{{Role: model.RoleUser, Content: "hi"}}, turns)
	assert.Equal(t, 1, backing.reads)
}
