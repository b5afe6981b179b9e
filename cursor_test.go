package vstore

import (
	"encoding/base64"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Cursor codec", func() {
	It("round trips a cursor", func() {
		cursor := Cursor{
			Timestamp: 1699999999123456,
			Id:        uuid.NewString(),
		}

		decoded, err := DecodeCursor(cursor.Encode())
		Expect(err).ToNot(HaveOccurred())
		Expect(decoded).To(Equal(cursor))
	})

	It("encodes deterministically", func() {
		cursor := Cursor{Timestamp: 42, Id: "e7b9c2a4-3f7e-4f7b-9c69-000000000001"}
		Expect(cursor.Encode()).To(Equal(cursor.Encode()))
	})

	It("rejects garbage input", func() {
		_, err := DecodeCursor("%%% definitely not a cursor %%%")
		Expect(err).To(MatchError(ErrInvalidCursor))
	})

	It("rejects valid base64 that is not json", func() {
		value := base64.RawURLEncoding.EncodeToString([]byte("hello world"))

		_, err := DecodeCursor(value)
		Expect(err).To(MatchError(ErrInvalidCursor))
	})

	It("rejects a payload without a timestamp", func() {
		value := base64.RawURLEncoding.EncodeToString([]byte(`{"id":"e7b9c2a4-3f7e-4f7b-9c69-000000000001"}`))

		_, err := DecodeCursor(value)
		Expect(err).To(MatchError(ErrInvalidCursor))
	})

	It("rejects a payload without an id", func() {
		value := base64.RawURLEncoding.EncodeToString([]byte(`{"ts":1234}`))

		_, err := DecodeCursor(value)
		Expect(err).To(MatchError(ErrInvalidCursor))
	})

	It("rejects a timestamp that is not an integer", func() {
		value := base64.RawURLEncoding.EncodeToString([]byte(`{"ts":"soon","id":"e7b9c2a4-3f7e-4f7b-9c69-000000000001"}`))

		_, err := DecodeCursor(value)
		Expect(err).To(MatchError(ErrInvalidCursor))
	})

	It("rejects an id that is not an identifier", func() {
		value := base64.RawURLEncoding.EncodeToString([]byte(`{"ts":1234,"id":"not an uuid"}`))

		_, err := DecodeCursor(value)
		Expect(err).To(MatchError(ErrInvalidCursor))
	})

	It("never produces a cursor from an empty string", func() {
		_, err := DecodeCursor("")
		Expect(err).To(MatchError(ErrInvalidCursor))
	})
})
