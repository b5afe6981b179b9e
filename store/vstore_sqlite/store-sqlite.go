package vstore_sqlite

import (
	"fmt"
	"time"

	"github.com/flachnetz/startup/v2/lib/ql"
	"github.com/google/uuid"
	"vstore"
	"vstore/store/vstore_pg"
)

// SqliteStore persists one record set in the sqlite table the store value
// names. Everything that is dialect neutral is delegated to the postgres
// store.
type SqliteStore string

var _ vstore.Store[ql.TxContext] = SqliteStore("")

func (s SqliteStore) Create(ctx ql.TxContext, key string, fields []byte) (*vstore.Record, error) {
	return vstore_pg.PostgresStore(s).Create(ctx, key, fields)
}

func (s SqliteStore) Load(ctx ql.TxContext, id string) (*vstore.Record, error) {
	return vstore_pg.PostgresStore(s).Load(ctx, id)
}

func (s SqliteStore) Update(ctx ql.TxContext, id string, version int, fields []byte) (*vstore.Record, error) {
	return vstore_pg.PostgresStore(s).Update(ctx, id, version, fields)
}

func (s SqliteStore) SelectBefore(ctx ql.TxContext, before *vstore.Cursor, limit int) ([]vstore.Record, error) {
	return vstore_pg.PostgresStore(s).SelectBefore(ctx, before, limit)
}

// Upsert matches the postgres implementation except that sqlite refers to
// the conflicting row with unqualified column names in DO UPDATE.
func (s SqliteStore) Upsert(ctx ql.TxContext, key string, fields []byte) (*vstore.Record, error) {
	stmt := fmt.Sprintf(`
		INSERT INTO %q ("id", "version", "sort_ts", "natural_key", "fields") VALUES ($1, 1, $2, $3, $4)
		ON CONFLICT ("natural_key") DO UPDATE SET "fields"=excluded."fields", "version"="version"+1
		RETURNING "id", "version", "sort_ts", "natural_key", "fields"`, string(s))

	row, err := ql.Get[sqliteRecord](ctx, stmt, uuid.NewString(), time.Now().UnixMicro(), key, fields)
	if err != nil {
		return nil, fmt.Errorf("upsert record %q into %q: %w", key, string(s), err)
	}

	record := &vstore.Record{
		Id:            row.Id,
		Version:       row.Version,
		SortTimestamp: row.SortTs,
		Key:           row.NaturalKey,
		Fields:        row.Fields,
	}

	return record, nil
}

type sqliteRecord struct {
	Id         string `db:"id"`
	Version    int    `db:"version"`
	SortTs     int64  `db:"sort_ts"`
	NaturalKey string `db:"natural_key"`
	Fields     []byte `db:"fields"`
}
