package vstore

import (
	"context"
	"errors"
)

// Limits that a requested page size is clamped into. Values outside the
// range are not an error, they are silently brought back into bounds.
const (
	MinLimit = 1
	MaxLimit = 100
)

// Validate checks entity specific fields before a write. It returns a
// *ValidationError (or any other error) to reject the write. Validation
// rules belong to the caller, the collection only guarantees that no write
// happens when validation fails.
type Validate func(fields []byte) error

type Option[TxContext context.Context] func(c *Collection[TxContext])

// WithValidation installs a validation hook that runs before every
// Insert, Update, Upsert and batch submission.
func WithValidation[TxContext context.Context](validate Validate) Option[TxContext] {
	return func(c *Collection[TxContext]) {
		c.validate = validate
	}
}

// Collection is the consistency layer over one record set. It performs
// keyset pagination and version checked mutation on top of a Store and
// holds no mutable state of its own, all coordination is delegated to the
// backing stores atomic primitives.
type Collection[TxContext context.Context] struct {
	store    Store[TxContext]
	validate Validate
}

// New creates a Collection over the given store. The stores backing table
// needs to already exist.
func New[TxContext context.Context](store Store[TxContext], options ...Option[TxContext]) *Collection[TxContext] {
	c := &Collection[TxContext]{store: store}

	for _, option := range options {
		option(c)
	}

	return c
}

// FetchPage returns one page of the record set in descending
// (sort timestamp, id) order, newest first. An empty cursor starts at the
// most recent record, otherwise the page continues strictly after the
// position the cursor encodes. The limit is clamped into
// [MinLimit, MaxLimit] before use.
//
// The returned pages NextCursor is set if, and only if, more records
// remain. A cursor pointing past the last record yields an empty page and
// no error.
func (c *Collection[TxContext]) FetchPage(ctx TxContext, limit int, cursor string) (Page, error) {
	if limit < MinLimit {
		limit = MinLimit
	}

	if limit > MaxLimit {
		limit = MaxLimit
	}

	var before *Cursor
	if cursor != "" {
		decoded, err := DecodeCursor(cursor)
		if err != nil {
			return Page{}, err
		}

		before = &decoded
	}

	// fetch one extra row to learn if another page exists
	rows, err := c.store.SelectBefore(ctx, before, limit+1)
	if err != nil {
		return Page{}, wrap(err, "select page")
	}

	page := Page{Items: rows, Count: len(rows)}

	if len(rows) > limit {
		page.Items = rows[:limit]
		page.Count = limit
		page.HasMore = true

		next := page.Items[limit-1].cursor()
		page.NextCursor = &next
	}

	metricPagesServed.Inc()

	return page, nil
}

// Insert creates a new record with version 1 under the given natural key.
func (c *Collection[TxContext]) Insert(ctx TxContext, key string, fields []byte) (*Record, error) {
	if err := c.runValidation(fields); err != nil {
		return nil, err
	}

	return c.store.Create(ctx, key, fields)
}

// Load reads a record by id, e.g. to obtain the current version before
// calling Update.
func (c *Collection[TxContext]) Load(ctx TxContext, id string) (*Record, error) {
	return c.store.Load(ctx, id)
}

// Update applies a mutation to a previously read record. The write only
// happens if the stored version still equals record.Version, otherwise
// ErrStaleVersion is returned and the caller decides whether to re-read
// and retry or to surface the conflict. Update itself never retries.
func (c *Collection[TxContext]) Update(ctx TxContext, record Record) (*Record, error) {
	if err := c.runValidation(record.Fields); err != nil {
		return nil, err
	}

	updated, err := c.store.Update(ctx, record.Id, record.Version, record.Fields)
	if errors.Is(err, ErrStaleVersion) {
		metricStaleConflicts.Inc()
	}

	return updated, err
}

// Upsert creates or replaces the record stored under the given natural
// key. There is no expected version to violate here, re-invoking Upsert
// with the same key simply advances the record to the latest values,
// last writer wins.
func (c *Collection[TxContext]) Upsert(ctx TxContext, key string, fields []byte) (*Record, error) {
	if err := c.runValidation(fields); err != nil {
		return nil, err
	}

	record, err := c.store.Upsert(ctx, key, fields)
	if err == nil {
		metricUpserts.Inc()
	}

	return record, err
}

// SubmitBatch applies the version checked update of Update to every given
// record inside a single transaction. Either all records commit with
// incremented versions, or the transaction is rolled back and none of the
// updates survive, a failure on the last record undoes all earlier ones.
// The returned error names the record that failed.
//
// An empty batch succeeds without opening a transaction.
func (c *Collection[TxContext]) SubmitBatch(ctx context.Context, runInTx RunInTx[TxContext, []Record], records []Record) ([]Record, error) {
	if len(records) == 0 {
		return nil, nil
	}

	// reject invalid fields before touching the store
	for _, record := range records {
		if err := c.runValidation(record.Fields); err != nil {
			return nil, wrap(err, "record %s", record.Id)
		}
	}

	updated, err := runInTx(ctx, func(ctx TxContext) ([]Record, error) {
		result := make([]Record, 0, len(records))

		for _, record := range records {
			current, err := c.store.Update(ctx, record.Id, record.Version, record.Fields)
			if err != nil {
				return nil, wrap(err, "record %s", record.Id)
			}

			result = append(result, *current)
		}

		return result, nil
	})

	if err != nil {
		metricBatchRollbacks.Inc()
		if errors.Is(err, ErrStaleVersion) {
			metricStaleConflicts.Inc()
		}

		return nil, err
	}

	return updated, nil
}

func (c *Collection[TxContext]) runValidation(fields []byte) error {
	if c.validate == nil {
		return nil
	}

	return c.validate(fields)
}
