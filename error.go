package vstore

import (
	"fmt"
	"sort"
	"strings"
)

var ErrInvalidCursor = makeErr("invalid cursor")
var ErrStaleVersion = makeErr("stale version, record was modified concurrently")
var ErrNoSuchRecord = makeErr("no such record")

type Error struct {
	error
}

func (e Error) Unwrap() error {
	return e.error
}

func makeErr(message string, args ...interface{}) error {
	return Error{fmt.Errorf(message, args...)}
}

func wrap(err error, message string, args ...interface{}) error {
	if err == nil {
		return nil
	}

	err = fmt.Errorf("%s: %w", fmt.Sprintf(message, args...), err)
	return Error{err}
}

// ValidationError indicates that a records fields violate a domain
// constraint. No write happens when validation fails.
type ValidationError struct {
	// Fields maps the offending field name to a message.
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}

	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}

	sort.Strings(names)

	parts := make([]string, len(names))
	for idx, name := range names {
		parts[idx] = name + ": " + e.Fields[name]
	}

	return "validation failed: " + strings.Join(parts, ", ")
}
