// Package store defines the key-value persistence boundary for Hermes Gateway.
package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory implementation of Store.
// Used for unit tests and single-node development; a single mutex gives the
// same per-operation atomicity the Redis implementation gets from the server.
type MemoryStore struct {
	mu     sync.Mutex
	hashes map[string]map[string]string
	sets   map[string]map[string]struct{}
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		hashes: make(map[string]map[string]string),
		sets:   make(map[string]map[string]struct{}),
	}
}

// GetFields retrieves a copy of the field map stored under key.
func (s *MemoryStore) GetFields(ctx context.Context, key string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields := make(map[string]string, len(s.hashes[key]))
	for f, v := range s.hashes[key] {
		fields[f] = v
	}
	return fields, nil
}

// SetFields merges the given fields into the hash stored under key.
func (s *MemoryStore) SetFields(ctx context.Context, key string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setFieldsLocked(key, fields)
	return nil
}

// DeleteFields removes individual fields from the hash under key.
func (s *MemoryStore) DeleteFields(ctx context.Context, key string, fields ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash, ok := s.hashes[key]
	if !ok {
		return nil
	}
	for _, f := range fields {
		delete(hash, f)
	}
	if len(hash) == 0 {
		delete(s.hashes, key)
	}
	return nil
}

// DeleteKey removes the key entirely.
func (s *MemoryStore) DeleteKey(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteKeyLocked(key), nil
}

// ExistsKey checks whether the key exists as a hash or a set.
func (s *MemoryStore) ExistsKey(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, isHash := s.hashes[key]
	_, isSet := s.sets[key]
	return isHash || isSet, nil
}

// AddToSet adds member to the set stored under key.
func (s *MemoryStore) AddToSet(ctx context.Context, key, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.addToSetLocked(key, member)
	return nil
}

// RemoveFromSet removes member from the set stored under key.
func (s *MemoryStore) RemoveFromSet(ctx context.Context, key, member string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.removeFromSetLocked(key, member), nil
}

// MembersOf returns all members of the set stored under key.
func (s *MemoryStore) MembersOf(ctx context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	members := make([]string, 0, len(s.sets[key]))
	for m := range s.sets[key] {
		members = append(members, m)
	}
	return members, nil
}

// Atomic records the writes, then applies them all under one lock hold.
// If the record function fails nothing is applied.
func (s *MemoryStore) Atomic(ctx context.Context, fn func(b Batch) error) error {
	batch := &memoryBatch{}
	if err := fn(batch); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, op := range batch.ops {
		op(s)
	}
	return nil
}

// InsertUnique performs the guarded insert under one lock hold.
func (s *MemoryStore) InsertUnique(ctx context.Context, ins UniqueInsert) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.hashes[ins.IndexKey][ins.IndexField]; taken {
		return false, nil
	}
	s.setFieldsLocked(ins.IndexKey, map[string]string{ins.IndexField: ins.IndexValue})
	s.setFieldsLocked(ins.RecordKey, ins.RecordFields)
	s.addToSetLocked(ins.SetKey, ins.SetMember)
	return true, nil
}

// FlushAll removes every key. Test/reset use only.
func (s *MemoryStore) FlushAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hashes = make(map[string]map[string]string)
	s.sets = make(map[string]map[string]struct{})
	return nil
}

func (s *MemoryStore) setFieldsLocked(key string, fields map[string]string) {
	hash, ok := s.hashes[key]
	if !ok {
		hash = make(map[string]string, len(fields))
		s.hashes[key] = hash
	}
	for f, v := range fields {
		hash[f] = v
	}
}

func (s *MemoryStore) deleteKeyLocked(key string) bool {
	_, isHash := s.hashes[key]
	_, isSet := s.sets[key]
	delete(s.hashes, key)
	delete(s.sets, key)
	return isHash || isSet
}

func (s *MemoryStore) addToSetLocked(key, member string) {
	set, ok := s.sets[key]
	if !ok {
		set = make(map[string]struct{})
		s.sets[key] = set
	}
	set[member] = struct{}{}
}

func (s *MemoryStore) removeFromSetLocked(key, member string) bool {
	set, ok := s.sets[key]
	if !ok {
		return false
	}
	if _, present := set[member]; !present {
		return false
	}
	delete(set, member)
	if len(set) == 0 {
		delete(s.sets, key)
	}
	return true
}

// memoryBatch records writes as closures applied later under the store lock.
type memoryBatch struct {
	ops []func(*MemoryStore)
}

func (b *memoryBatch) SetFields(key string, fields map[string]string) {
	copied := make(map[string]string, len(fields))
	for f, v := range fields {
		copied[f] = v
	}
	b.ops = append(b.ops, func(s *MemoryStore) { s.setFieldsLocked(key, copied) })
}

func (b *memoryBatch) DeleteFields(key string, fields ...string) {
	copied := append([]string(nil), fields...)
	b.ops = append(b.ops, func(s *MemoryStore) {
		hash, ok := s.hashes[key]
		if !ok {
			return
		}
		for _, f := range copied {
			delete(hash, f)
		}
		if len(hash) == 0 {
			delete(s.hashes, key)
		}
	})
}

func (b *memoryBatch) DeleteKey(key string) {
	b.ops = append(b.ops, func(s *MemoryStore) { s.deleteKeyLocked(key) })
}

func (b *memoryBatch) AddToSet(key, member string) {
	b.ops = append(b.ops, func(s *MemoryStore) { s.addToSetLocked(key, member) })
}

func (b *memoryBatch) RemoveFromSet(key, member string) {
	b.ops = append(b.ops, func(s *MemoryStore) { s.removeFromSetLocked(key, member) })
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
