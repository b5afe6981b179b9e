package vstore

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Cursor marks the position of the last item of a page within the
// descending (sort timestamp, id) order. It is handed to clients as an
// opaque string, consumers must never construct or inspect one themselves.
type Cursor struct {
	// Timestamp is the sort timestamp of the last returned record
	// in microseconds.
	Timestamp int64 `json:"ts"`

	// Id is the id of the last returned record. It breaks ties between
	// records sharing a timestamp.
	Id string `json:"id"`
}

// Encode serializes the cursor into a url safe string without padding.
// Encoding is deterministic, the same cursor always encodes to the
// same string.
func (c Cursor) Encode() string {
	// a fixed shape struct with two fields can not fail to marshal
	payload, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(payload)
}

func (c Cursor) String() string {
	return fmt.Sprintf("Cursor(ts=%d, id=%s)", c.Timestamp, c.Id)
}

// DecodeCursor parses a cursor string previously produced by Cursor.Encode.
// Any malformed input, garbage bytes, valid base64 that is not json, or a
// payload with missing or ill typed fields, results in an error matching
// ErrInvalidCursor. DecodeCursor never panics.
func DecodeCursor(value string) (Cursor, error) {
	payload, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return Cursor{}, invalidCursor("decode base64: %s", err)
	}

	var fields struct {
		Timestamp *int64  `json:"ts"`
		Id        *string `json:"id"`
	}

	if err := json.Unmarshal(payload, &fields); err != nil {
		return Cursor{}, invalidCursor("unmarshal payload: %s", err)
	}

	if fields.Timestamp == nil {
		return Cursor{}, invalidCursor("missing field 'ts'")
	}

	if fields.Id == nil {
		return Cursor{}, invalidCursor("missing field 'id'")
	}

	if _, err := uuid.Parse(*fields.Id); err != nil {
		return Cursor{}, invalidCursor("field 'id' is not an identifier: %s", err)
	}

	cursor := Cursor{
		Timestamp: *fields.Timestamp,
		Id:        *fields.Id,
	}

	return cursor, nil
}

func invalidCursor(message string, args ...interface{}) error {
	return Error{fmt.Errorf("%w: %s", ErrInvalidCursor, fmt.Sprintf(message, args...))}
}
