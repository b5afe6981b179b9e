package vstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in process Store used by the tests in this package.
// It is safe for concurrent use so the race properties of the conditional
// writes can be exercised without a database.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
	idByKey map[string]string
	clock   int64
}

var _ Store[context.Context] = &MemoryStore{}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: map[string]Record{},
		idByKey: map[string]string{},
	}
}

func (m *MemoryStore) Create(ctx context.Context, key string, fields []byte) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.idByKey[key]; ok {
		return nil, makeErr("key %q already exists", key)
	}

	record := Record{
		Id:            uuid.NewString(),
		Version:       1,
		SortTimestamp: m.nextTimestampLocked(),
		Key:           key,
		Fields:        fields,
	}

	m.records[record.Id] = record
	m.idByKey[key] = record.Id

	return &record, nil
}

func (m *MemoryStore) Load(ctx context.Context, id string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[id]
	if !ok {
		return nil, ErrNoSuchRecord
	}

	return &record, nil
}

func (m *MemoryStore) Update(ctx context.Context, id string, version int, fields []byte) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[id]
	if !ok {
		return nil, ErrNoSuchRecord
	}

	if record.Version != version {
		return nil, ErrStaleVersion
	}

	record.Version = version + 1
	record.Fields = fields

	m.records[id] = record

	return &record, nil
}

func (m *MemoryStore) Upsert(ctx context.Context, key string, fields []byte) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.idByKey[key]; ok {
		record := m.records[id]
		record.Version++
		record.Fields = fields

		m.records[id] = record

		return &record, nil
	}

	record := Record{
		Id:            uuid.NewString(),
		Version:       1,
		SortTimestamp: m.nextTimestampLocked(),
		Key:           key,
		Fields:        fields,
	}

	m.records[record.Id] = record
	m.idByKey[key] = record.Id

	return &record, nil
}

func (m *MemoryStore) SelectBefore(ctx context.Context, before *Cursor, limit int) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := make([]Record, 0, len(m.records))
	for _, record := range m.records {
		rows = append(rows, record)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].SortTimestamp != rows[j].SortTimestamp {
			return rows[i].SortTimestamp > rows[j].SortTimestamp
		}

		return rows[i].Id > rows[j].Id
	})

	result := make([]Record, 0, limit)
	for _, record := range rows {
		if before != nil && !beforeCursor(record, *before) {
			continue
		}

		result = append(result, record)
		if len(result) == limit {
			break
		}
	}

	return result, nil
}

// RunInTx satisfies RunInTx[context.Context, []Record]. It snapshots the
// store and restores it when fn fails, so batch submissions stay atomic
// against the memory store as well.
func (m *MemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context) ([]Record, error)) ([]Record, error) {
	m.mu.Lock()
	snapshotRecords := make(map[string]Record, len(m.records))
	for id, record := range m.records {
		snapshotRecords[id] = record
	}
	snapshotIds := make(map[string]string, len(m.idByKey))
	for key, id := range m.idByKey {
		snapshotIds[key] = id
	}
	m.mu.Unlock()

	result, err := fn(ctx)
	if err != nil {
		m.mu.Lock()
		m.records = snapshotRecords
		m.idByKey = snapshotIds
		m.mu.Unlock()

		return nil, err
	}

	return result, nil
}

func (m *MemoryStore) nextTimestampLocked() int64 {
	now := time.Now().UnixMicro()
	if now <= m.clock {
		now = m.clock + 1
	}

	m.clock = now

	return now
}

func beforeCursor(record Record, cursor Cursor) bool {
	if record.SortTimestamp != cursor.Timestamp {
		return record.SortTimestamp < cursor.Timestamp
	}

	return record.Id < cursor.Id
}
