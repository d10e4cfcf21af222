package store

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestMemoryStore_SetFieldsMerges(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.SetFields(ctx, "h", map[string]string{"a": "1", "b": "2"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.SetFields(ctx, "h", map[string]string{"b": "3", "c": "4"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fields, err := s.GetFields(ctx, "h")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]string{"a": "1", "b": "3", "c": "4"}
	if len(fields) != len(want) {
		t.Fatalf("expected %d fields, got %d", len(want), len(fields))
	}
	for f, v := range want {
		if fields[f] != v {
			t.Errorf("field %s: expected %q, got %q", f, v, fields[f])
		}
	}
}

func TestMemoryStore_GetFieldsAbsentKey(t *testing.T) {
	s := NewMemoryStore()

	fields, err := s.GetFields(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fields) != 0 {
		t.Errorf("expected empty map for absent key, got %v", fields)
	}
}

func TestMemoryStore_DeleteKey(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.SetFields(ctx, "h", map[string]string{"a": "1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deleted, err := s.DeleteKey(ctx, "h")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deleted {
		t.Error("expected true deleting an existing key")
	}

	deleted, err = s.DeleteKey(ctx, "h")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted {
		t.Error("expected false deleting an absent key")
	}
}

func TestMemoryStore_Sets(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.AddToSet(ctx, "ids", "a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.AddToSet(ctx, "ids", "b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.AddToSet(ctx, "ids", "a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	members, err := s.MembersOf(ctx, "ids")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(members) != 2 {
		t.Errorf("expected 2 members, got %d", len(members))
	}

	removed, err := s.RemoveFromSet(ctx, "ids", "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !removed {
		t.Error("expected true removing a present member")
	}

	removed, err = s.RemoveFromSet(ctx, "ids", "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed {
		t.Error("expected false removing an absent member")
	}
}

func TestMemoryStore_AtomicAllOrNothing(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	err := s.Atomic(ctx, func(b Batch) error {
		b.SetFields("h", map[string]string{"a": "1"})
		b.AddToSet("ids", "h")
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fields, _ := s.GetFields(ctx, "h")
	if fields["a"] != "1" {
		t.Error("committed batch should have written the hash")
	}
	members, _ := s.MembersOf(ctx, "ids")
	if len(members) != 1 {
		t.Error("committed batch should have written the set")
	}

	// A failing record function must leave nothing applied.
	wantErr := errors.New("record failed")
	err = s.Atomic(ctx, func(b Batch) error {
		b.DeleteKey("h")
		b.RemoveFromSet("ids", "h")
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected recorded error back, got %v", err)
	}

	fields, _ = s.GetFields(ctx, "h")
	if fields["a"] != "1" {
		t.Error("aborted batch must not delete the hash")
	}
	members, _ = s.MembersOf(ctx, "ids")
	if len(members) != 1 {
		t.Error("aborted batch must not touch the set")
	}
}

func TestMemoryStore_InsertUnique(t *testing.T) {
	s := NewMemoryStore()
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
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !inserted {
		t.Fatal("first insert should win")
	}

	dup := ins
	dup.IndexValue = "id-2"
	dup.RecordKey = "user:id-2"
	dup.SetMember = "id-2"
	inserted, err = s.InsertUnique(ctx, dup)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inserted {
		t.Fatal("duplicate index field must not insert")
	}

	// The loser must have written nothing.
	if fields, _ := s.GetFields(ctx, "user:id-2"); len(fields) != 0 {
		t.Error("losing insert must not write its record")
	}
	members, _ := s.MembersOf(ctx, "users")
	if len(members) != 1 {
		t.Errorf("expected 1 registered id, got %d", len(members))
	}
	index, _ := s.GetFields(ctx, "index")
	if index["alice"] != "id-1" {
		t.Errorf("index should still point at the winner, got %q", index["alice"])
	}
}

func TestMemoryStore_InsertUniqueConcurrent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	const attempts = 32
	var wg sync.WaitGroup
	wins := make(chan string, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := string(rune('a' + n%26))
			inserted, err := s.InsertUnique(ctx, UniqueInsert{
				IndexKey:     "index",
				IndexField:   "contested",
				IndexValue:   id,
				RecordKey:    "user:" + id,
				RecordFields: map[string]string{"id": id},
				SetKey:       "users",
				SetMember:    id,
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if inserted {
				wins <- id
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	var winners []string
	for id := range wins {
		winners = append(winners, id)
	}
	if len(winners) != 1 {
		t.Fatalf("expected exactly one winner, got %d", len(winners))
	}

	index, _ := s.GetFields(ctx, "index")
	if index["contested"] != winners[0] {
		t.Errorf("index points at %q, winner was %q", index["contested"], winners[0])
	}
}
