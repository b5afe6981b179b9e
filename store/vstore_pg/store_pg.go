package vstore_pg

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/flachnetz/startup/v2/lib/ql"
	"github.com/google/uuid"
	"vstore"
)

// PostgresStore persists one record set in the postgres table the store
// value names. The table needs the columns id, version, sort_ts,
// natural_key and fields, with a unique constraint on natural_key.
type PostgresStore string

var _ vstore.Store[ql.TxContext] = PostgresStore("")

type dbRecord struct {
	Id         string `db:"id"`
	Version    int    `db:"version"`
	SortTs     int64  `db:"sort_ts"`
	NaturalKey string `db:"natural_key"`
	Fields     []byte `db:"fields"`
}

func (r dbRecord) asRecord() *vstore.Record {
	return &vstore.Record{
		Id:            r.Id,
		Version:       r.Version,
		SortTimestamp: r.SortTs,
		Key:           r.NaturalKey,
		Fields:        r.Fields,
	}
}

func (s PostgresStore) Create(ctx ql.TxContext, key string, fields []byte) (*vstore.Record, error) {
	record := &vstore.Record{
		Id:            uuid.NewString(),
		Version:       1,
		SortTimestamp: time.Now().UnixMicro(),
		Key:           key,
		Fields:        fields,
	}

	stmt := fmt.Sprintf(`INSERT INTO %q ("id", "version", "sort_ts", "natural_key", "fields") VALUES ($1, 1, $2, $3, $4)`, string(s))

	if _, err := ql.ExecAffected(ctx, stmt, record.Id, record.SortTimestamp, key, fields); err != nil {
		return nil, fmt.Errorf("insert record into %q: %w", string(s), err)
	}

	return record, nil
}

func (s PostgresStore) Load(ctx ql.TxContext, id string) (*vstore.Record, error) {
	query := fmt.Sprintf(`SELECT "id", "version", "sort_ts", "natural_key", "fields" FROM %q WHERE "id"=$1`, string(s))

	row, err := ql.Get[dbRecord](ctx, query, id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("loading record id=%s: %w", id, vstore.ErrNoSuchRecord)

	case err != nil:
		return nil, fmt.Errorf("loading record: %w", err)
	}

	return row.asRecord(), nil
}

func (s PostgresStore) Update(ctx ql.TxContext, id string, version int, fields []byte) (*vstore.Record, error) {
	stmt := fmt.Sprintf(`UPDATE %q SET "fields"=$3, "version"=$2+1 WHERE "id"=$1 AND "version"=$2 RETURNING "id", "version", "sort_ts", "natural_key", "fields"`, string(s))

	row, err := ql.Get[dbRecord](ctx, stmt, id, version, fields)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// the conditional write matched nothing. Only now, after the
		// atomic write already failed, find out why.
		return nil, s.classifyFailedUpdate(ctx, id, version)

	case err != nil:
		return nil, fmt.Errorf("update record %s@%d in database: %w", id, version, err)
	}

	return row.asRecord(), nil
}

func (s PostgresStore) classifyFailedUpdate(ctx ql.TxContext, id string, version int) error {
	query := fmt.Sprintf(`SELECT "version" FROM %q WHERE "id"=$1`, string(s))

	stored, err := ql.Get[int](ctx, query, id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("update record %s: %w", id, vstore.ErrNoSuchRecord)

	case err != nil:
		return fmt.Errorf("classify failed update of record %s: %w", id, err)
	}

	return fmt.Errorf("update record %s, expected version %d but stored is %d: %w", id, version, *stored, vstore.ErrStaleVersion)
}

func (s PostgresStore) Upsert(ctx ql.TxContext, key string, fields []byte) (*vstore.Record, error) {
	stmt := fmt.Sprintf(`
		INSERT INTO %[1]q ("id", "version", "sort_ts", "natural_key", "fields") VALUES ($1, 1, $2, $3, $4)
		ON CONFLICT ("natural_key") DO UPDATE SET "fields"=excluded."fields", "version"=%[1]q."version"+1
		RETURNING "id", "version", "sort_ts", "natural_key", "fields"`, string(s))

	row, err := ql.Get[dbRecord](ctx, stmt, uuid.NewString(), time.Now().UnixMicro(), key, fields)
	if err != nil {
		return nil, fmt.Errorf("upsert record %q into %q: %w", key, string(s), err)
	}

	return row.asRecord(), nil
}

func (s PostgresStore) SelectBefore(ctx ql.TxContext, before *vstore.Cursor, limit int) ([]vstore.Record, error) {
	var rows []dbRecord
	var err error

	if before == nil {
		query := fmt.Sprintf(`SELECT "id", "version", "sort_ts", "natural_key", "fields" FROM %q ORDER BY "sort_ts" DESC, "id" DESC LIMIT $1`, string(s))
		rows, err = ql.Select[dbRecord](ctx, query, limit)
	} else {
		query := fmt.Sprintf(`
			SELECT "id", "version", "sort_ts", "natural_key", "fields" FROM %q
			WHERE "sort_ts" < $1 OR ("sort_ts" = $1 AND "id" < $2)
			ORDER BY "sort_ts" DESC, "id" DESC LIMIT $3`, string(s))
		rows, err = ql.Select[dbRecord](ctx, query, before.Timestamp, before.Id, limit)
	}

	if err != nil {
		return nil, fmt.Errorf("select page from %q: %w", string(s), err)
	}

	records := make([]vstore.Record, len(rows))
	for idx, row := range rows {
		records[idx] = *row.asRecord()
	}

	return records, nil
}
