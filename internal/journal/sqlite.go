package journal

import (
	"context"
	"database/sql"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"
)

// Store writes journal records to a local sqlite file, payloads encoded as
// msgpack blobs.
type Store struct {
	db *sql.DB
}

func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS orders (id INTEGER PRIMARY KEY AUTOINCREMENT, created_at TEXT NOT NULL, payload BLOB NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS cycles (id INTEGER PRIMARY KEY AUTOINCREMENT, created_at TEXT NOT NULL, payload BLOB NOT NULL)`,
	}
	for _, table := range tables {
		if _, err := db.Exec(table); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) RecordOrder(ctx context.Context, record OrderRecord) error {
	return s.insert(ctx, "orders", record.Time, record)
}

func (s *Store) RecordCycle(ctx context.Context, record CycleRecord) error {
	return s.insert(ctx, "cycles", record.Time, record)
}

func (s *Store) insert(ctx context.Context, table string, at time.Time, record interface{}) error {
	payload, err := msgpack.Marshal(record)
	if err != nil {
		return err
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO `+table+` (created_at, payload) VALUES (?, ?)`,
		at.UTC().Format(time.RFC3339Nano), payload)
	return err
}

// Orders returns all recorded order submissions, oldest first.
func (s *Store) Orders(ctx context.Context) ([]OrderRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM orders ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []OrderRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var record OrderRecord
		if err := msgpack.Unmarshal(payload, &record); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Cycles returns all completed cycles, oldest first.
func (s *Store) Cycles(ctx context.Context) ([]CycleRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM cycles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []CycleRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var record CycleRecord
		if err := msgpack.Unmarshal(payload, &record); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
