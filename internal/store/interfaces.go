// Package store defines the key-value persistence boundary for Hermes Gateway.
// The backing store offers only primitive per-key operations; everything the
// service layer needs beyond that (multi-key atomic units, race-free unique
// inserts) is expressed here so that implementations can provide it natively.
package store

import (
	"context"
	"errors"
)

// Store errors
var (
	// ErrUnavailable indicates the backing store could not be reached or
	// failed mid-operation. Non-retriable within the request.
	ErrUnavailable = errors.New("store unavailable")
)

// =============================================================================
// Store Interface
// =============================================================================

// Store defines the atomic primitives exposed by the backing key-value store.
// Every operation against a single key is atomic on its own; Atomic groups
// several write operations into one indivisible unit, and InsertUnique
// performs a server-side check-and-insert so that concurrent duplicates
// cannot both succeed.
type Store interface {
	// GetFields retrieves the field map stored under key.
	// Returns an empty map when the key is absent.
	GetFields(ctx context.Context, key string) (map[string]string, error)

	// SetFields merges the given fields into the hash stored under key,
	// creating it if absent. Fields not named are left untouched.
	SetFields(ctx context.Context, key string, fields map[string]string) error

	// DeleteFields removes individual fields from the hash under key.
	DeleteFields(ctx context.Context, key string, fields ...string) error

	// DeleteKey removes the key entirely.
	// Returns true if the key existed.
	DeleteKey(ctx context.Context, key string) (bool, error)

	// ExistsKey checks whether the key exists.
	ExistsKey(ctx context.Context, key string) (bool, error)

	// AddToSet adds member to the set stored under key.
	AddToSet(ctx context.Context, key, member string) error

	// RemoveFromSet removes member from the set stored under key.
	// Returns true if the member was present.
	RemoveFromSet(ctx context.Context, key, member string) (bool, error)

	// MembersOf returns all members of the set stored under key.
	// Order is not significant; absent keys yield an empty slice.
	MembersOf(ctx context.Context, key string) ([]string, error)

	// Atomic executes the writes recorded on the Batch as a single
	// indivisible unit. Either every recorded operation applies or none
	// does; concurrent readers never observe a partial state.
	Atomic(ctx context.Context, fn func(b Batch) error) error

	// InsertUnique atomically writes a record hash, registers it in a
	// uniqueness index, and adds it to a membership set - but only if the
	// index field is unoccupied. Returns false (and writes nothing) when
	// the index field is already taken. This is the race-free
	// check-then-insert primitive: of two concurrent calls with the same
	// index field, exactly one wins.
	InsertUnique(ctx context.Context, ins UniqueInsert) (bool, error)

	// FlushAll removes every key in the store. Test/reset use only; must
	// never be reachable from production call paths.
	FlushAll(ctx context.Context) error
}

// Batch records write operations to be applied as one atomic unit.
// Operations are queued, not executed, until the surrounding Atomic call
// commits them.
type Batch interface {
	// SetFields queues a field-map merge into the hash under key.
	SetFields(key string, fields map[string]string)

	// DeleteFields queues removal of individual fields from the hash
	// under key.
	DeleteFields(key string, fields ...string)

	// DeleteKey queues removal of the key.
	DeleteKey(key string)

	// AddToSet queues adding member to the set under key.
	AddToSet(key, member string)

	// RemoveFromSet queues removing member from the set under key.
	RemoveFromSet(key, member string)
}

// UniqueInsert describes a record insert guarded by a uniqueness index.
type UniqueInsert struct {
	// IndexKey is the hash acting as the uniqueness index.
	IndexKey string

	// IndexField is the field that must be unoccupied (e.g. a username).
	IndexField string

	// IndexValue is written under IndexField on success (e.g. the new id).
	IndexValue string

	// RecordKey is the hash key the record fields are written to.
	RecordKey string

	// RecordFields is the full field map of the new record.
	RecordFields map[string]string

	// SetKey is the membership set the new record is registered in.
	SetKey string

	// SetMember is the member added to SetKey (normally the record id).
	SetMember string
}
