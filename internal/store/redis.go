// Package store defines the key-value persistence boundary for Hermes Gateway.
package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// insertUniqueScript performs the guarded insert server-side so the
// existence check and the writes form one indivisible unit.
//
// KEYS[1] = index hash, KEYS[2] = record hash, KEYS[3] = membership set
// ARGV[1] = index field, ARGV[2] = index value, ARGV[3] = set member,
// ARGV[4..] = record field/value pairs
var insertUniqueScript = redis.NewScript(`
if redis.call('HEXISTS', KEYS[1], ARGV[1]) == 1 then
  return 0
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
redis.call('SADD', KEYS[3], ARGV[3])
for i = 4, #ARGV, 2 do
  redis.call('HSET', KEYS[2], ARGV[i], ARGV[i + 1])
end
return 1
`)

// RedisStore implements Store on top of Redis hashes and sets.
// Hash records, set indexes and the Lua-scripted unique insert map the
// Store contract directly onto Redis primitives.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a RedisStore using the given client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// GetFields retrieves the field map stored under key.
func (s *RedisStore) GetFields(ctx context.Context, key string) (map[string]string, error) {
	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, storeErr("hgetall", key, err)
	}
	return fields, nil
}

// SetFields merges the given fields into the hash stored under key.
func (s *RedisStore) SetFields(ctx context.Context, key string, fields map[string]string) error {
	if err := s.client.HSet(ctx, key, fields).Err(); err != nil {
		return storeErr("hset", key, err)
	}
	return nil
}

// DeleteFields removes individual fields from the hash under key.
func (s *RedisStore) DeleteFields(ctx context.Context, key string, fields ...string) error {
	if err := s.client.HDel(ctx, key, fields...).Err(); err != nil {
		return storeErr("hdel", key, err)
	}
	return nil
}

// DeleteKey removes the key entirely.
func (s *RedisStore) DeleteKey(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Del(ctx, key).Result()
	if err != nil {
		return false, storeErr("del", key, err)
	}
	return n > 0, nil
}

// ExistsKey checks whether the key exists.
func (s *RedisStore) ExistsKey(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, storeErr("exists", key, err)
	}
	return n > 0, nil
}

// AddToSet adds member to the set stored under key.
func (s *RedisStore) AddToSet(ctx context.Context, key, member string) error {
	if err := s.client.SAdd(ctx, key, member).Err(); err != nil {
		return storeErr("sadd", key, err)
	}
	return nil
}

// RemoveFromSet removes member from the set stored under key.
func (s *RedisStore) RemoveFromSet(ctx context.Context, key, member string) (bool, error) {
	n, err := s.client.SRem(ctx, key, member).Result()
	if err != nil {
		return false, storeErr("srem", key, err)
	}
	return n > 0, nil
}

// MembersOf returns all members of the set stored under key.
func (s *RedisStore) MembersOf(ctx context.Context, key string) ([]string, error) {
	members, err := s.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, storeErr("smembers", key, err)
	}
	return members, nil
}

// Atomic executes the recorded writes inside a MULTI/EXEC transaction.
func (s *RedisStore) Atomic(ctx context.Context, fn func(b Batch) error) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		return fn(&redisBatch{ctx: ctx, pipe: pipe})
	})
	if err != nil {
		return fmt.Errorf("%w: tx: %v", ErrUnavailable, err)
	}
	return nil
}

// InsertUnique runs the guarded insert script.
func (s *RedisStore) InsertUnique(ctx context.Context, ins UniqueInsert) (bool, error) {
	args := make([]interface{}, 0, 3+2*len(ins.RecordFields))
	args = append(args, ins.IndexField, ins.IndexValue, ins.SetMember)
	for field, value := range ins.RecordFields {
		args = append(args, field, value)
	}

	keys := []string{ins.IndexKey, ins.RecordKey, ins.SetKey}
	inserted, err := insertUniqueScript.Run(ctx, s.client, keys, args...).Int()
	if err != nil {
		return false, storeErr("insert-unique", ins.RecordKey, err)
	}
	return inserted == 1, nil
}

// FlushAll removes every key in the current database. Test/reset use only.
func (s *RedisStore) FlushAll(ctx context.Context) error {
	if err := s.client.FlushDB(ctx).Err(); err != nil {
		return fmt.Errorf("%w: flushdb: %v", ErrUnavailable, err)
	}
	return nil
}

// redisBatch queues writes on a transaction pipeline.
type redisBatch struct {
	ctx  context.Context
	pipe redis.Pipeliner
}

func (b *redisBatch) SetFields(key string, fields map[string]string) {
	b.pipe.HSet(b.ctx, key, fields)
}

func (b *redisBatch) DeleteFields(key string, fields ...string) {
	b.pipe.HDel(b.ctx, key, fields...)
}

func (b *redisBatch) DeleteKey(key string) {
	b.pipe.Del(b.ctx, key)
}

func (b *redisBatch) AddToSet(key, member string) {
	b.pipe.SAdd(b.ctx, key, member)
}

func (b *redisBatch) RemoveFromSet(key, member string) {
	b.pipe.SRem(b.ctx, key, member)
}

func storeErr(op, key string, err error) error {
	return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, op, key, err)
}

// Ensure RedisStore implements Store
var _ Store = (*RedisStore)(nil)
