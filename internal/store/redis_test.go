package store

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// newRedisTestStore connects to the Redis instance named by
// HERMES_TEST_REDIS_ADDR, skipping the test when none is configured.
// The selected database is flushed, so always point this at a throwaway DB.
func newRedisTestStore(t *testing.T) *RedisStore {
	t.Helper()

	addr := os.Getenv("HERMES_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("HERMES_TEST_REDIS_ADDR not set, skipping redis integration test")
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	t.Cleanup(func() { _ = client.Close() })

	s := NewRedisStore(client)
	require.NoError(t, s.FlushAll(context.Background()))
	return s
}

func TestRedisStore_HashRoundTrip(t *testing.T) {
	s := newRedisTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetFields(ctx, "h", map[string]string{"a": "1", "b": "2"}))
	require.NoError(t, s.SetFields(ctx, "h", map[string]string{"b": "3"}))

	fields, err := s.GetFields(ctx, "h")
	require.NoError(t, err)
	require.Equal(t, map[string]string{"a": "1", "b": "3"}, fields)

	exists, err := s.ExistsKey(ctx, "h")
	require.NoError(t, err)
	require.True(t, exists)

	deleted, err := s.DeleteKey(ctx, "h")
	require.NoError(t, err)
	require.True(t, deleted)

	fields, err = s.GetFields(ctx, "h")
	require.NoError(t, err)
	require.Empty(t, fields)
}

func TestRedisStore_SetRoundTrip(t *testing.T) {
	s := newRedisTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddToSet(ctx, "ids", "a"))
	require.NoError(t, s.AddToSet(ctx, "ids", "b"))

	members, err := s.MembersOf(ctx, "ids")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a", "b"}, members)

	removed, err := s.RemoveFromSet(ctx, "ids", "a")
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = s.RemoveFromSet(ctx, "ids", "missing")
	require.NoError(t, err)
	require.False(t, removed)
}

func TestRedisStore_Atomic(t *testing.T) {
	s := newRedisTestStore(t)
	ctx := context.Background()

	err := s.Atomic(ctx, func(b Batch) error {
		b.SetFields("h", map[string]string{"a": "1"})
		b.AddToSet("ids", "h")
		return nil
	})
	require.NoError(t, err)

	fields, err := s.GetFields(ctx, "h")
	require.NoError(t, err)
	require.Equal(t, "1", fields["a"])

	members, err := s.MembersOf(ctx, "ids")
	require.NoError(t, err)
	require.Equal(t, []string{"h"}, members)

	err = s.Atomic(ctx, func(b Batch) error {
		b.DeleteKey("h")
		b.DeleteFields("other", "x")
		b.RemoveFromSet("ids", "h")
		return nil
	})
	require.NoError(t, err)

	fields, err = s.GetFields(ctx, "h")
	require.NoError(t, err)
	require.Empty(t, fields)
}

func TestRedisStore_InsertUnique(t *testing.T) {
	s := newRedisTestStore(t)
	ctx := context.Background()

	ins := UniqueInsert{
		IndexKey:     "index",
		IndexField:   "alice",
		IndexValue:   "id-1",
		RecordKey:    "user:id-1",
		RecordFields: map[string]string{"id": "id-1", "username": "alice"},
		SetKey:       "users",
		SetMember:    "id-1",
	}

	inserted, err := s.InsertUnique(ctx, ins)
	require.NoError(t, err)
	require.True(t, inserted)

	dup := ins
	dup.IndexValue = "id-2"
	dup.RecordKey = "user:id-2"
	dup.SetMember = "id-2"
	inserted, err = s.InsertUnique(ctx, dup)
	require.NoError(t, err)
	require.False(t, inserted)

	fields, err := s.GetFields(ctx, "user:id-2")
	require.NoError(t, err)
	require.Empty(t, fields, "losing insert must not write its record")

	index, err := s.GetFields(ctx, "index")
	require.NoError(t, err)
	require.Equal(t, "id-1", index["alice"])
}
