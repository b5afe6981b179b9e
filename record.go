package vstore

import (
	"fmt"
)

// Record is one versioned row of a record set. The record is immutable
// from the point of view of this library, mutation always goes through a
// conditional write that checks Version.
type Record struct {
	// Id is an opaque unique identifier, stable over the records lifetime.
	Id string

	// Version starts at 1 on creation and increases by exactly one with
	// every successful mutation.
	Version int

	// SortTimestamp orders the record within its set, in microseconds.
	// Assigned by the store on creation and never changed afterwards.
	SortTimestamp int64

	// Key is the records natural key, a single opaque value carrying the
	// sets uniqueness constraint. Composing it from business fields
	// (e.g. session plus participant) is the callers concern.
	Key string

	// Fields holds the entity specific payload.
	Fields []byte
}

func (r Record) String() string {
	return fmt.Sprintf("Record(id=%s, version=%d)", r.Id, r.Version)
}

// cursor returns the cursor pointing at this record.
func (r Record) cursor() Cursor {
	return Cursor{Timestamp: r.SortTimestamp, Id: r.Id}
}

// Page is the result of one paginated fetch.
type Page struct {
	// Items in descending (sort timestamp, id) order, at most the
	// requested limit.
	Items []Record

	// HasMore indicates that older records exist beyond this page.
	HasMore bool

	// NextCursor points at the last item of this page. It is set if,
	// and only if, HasMore is true.
	NextCursor *Cursor

	// Count is the number of items returned.
	Count int
}
