package vstore

import (
	"context"
)

// Store is the persistence backend of one record set. Implementations map
// a set to a single database table and delegate all coordination to the
// stores atomic primitives: a conditional UPDATE for versioned mutation
// and a uniqueness constraint for first-write races. Implementations must
// never check a version in one round trip and write in another.
type Store[TxContext context.Context] interface {
	// Create inserts a new record with version 1, a fresh id and the
	// current sort timestamp. The key must not exist yet.
	Create(ctx TxContext, key string, fields []byte) (*Record, error)

	// Load reads the record with the given id so the caller has a version
	// to mutate against. Returns ErrNoSuchRecord if it does not exist.
	Load(ctx TxContext, id string) (*Record, error)

	// Update conditionally replaces the records fields: the write only
	// happens if the stored version still equals the given version, and it
	// increments the version by one. Returns ErrNoSuchRecord if the record
	// does not exist and ErrStaleVersion if the version did not match.
	// The version comparison and the write are one atomic store operation.
	Update(ctx TxContext, id string, version int, fields []byte) (*Record, error)

	// Upsert inserts a record with version 1 if no record exists for the
	// key, otherwise replaces the existing records fields and increments
	// its version. Concurrent upserts of the same key never surface a
	// uniqueness violation, the loser of the insert race is converted into
	// an update of the winners row.
	Upsert(ctx TxContext, key string, fields []byte) (*Record, error)

	// SelectBefore returns up to limit records strictly before the cursor
	// position in descending (sort timestamp, id) order. A nil cursor
	// starts from the most recent record.
	SelectBefore(ctx TxContext, before *Cursor, limit int) ([]Record, error)
}

// RunInTx runs some code in a database transaction. If fn returns an
// error the transaction is rolled back and none of its writes survive.
type RunInTx[TxContext context.Context, R any] func(ctx context.Context, fn func(ctx TxContext) (R, error)) (R, error)
