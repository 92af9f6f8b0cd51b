package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/equipreport/internal/equipment"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS equipment_artifacts (
    id          TEXT PRIMARY KEY,
    owner_id    TEXT NOT NULL,
    filename    TEXT NOT NULL,
    created_at  INTEGER NOT NULL,
    row_count   INTEGER NOT NULL,
    summary     TEXT NOT NULL,
    payload_ref TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS equipment_artifacts_owner_created_idx
    ON equipment_artifacts (owner_id, created_at DESC);
`

// SQLiteStore is a MetaStore backed by a SQLite database file. Creation
// times are stored as Unix microseconds.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path. Use ":memory:"
// for a throwaway database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, rec Record) error {
	summary, err := json.Marshal(rec.Summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO equipment_artifacts (`+pgColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.OwnerID, rec.Filename, rec.CreatedAt.UnixMicro(), rec.EntryCount, string(summary), rec.PayloadRef,
	)
	if err != nil {
		return fmt.Errorf("insert artifact: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListByOwner(ctx context.Context, ownerID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+pgColumns+` FROM equipment_artifacts
		WHERE owner_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		ownerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		rec, err := scanSQLiteRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	return recs, nil
}

func (s *SQLiteStore) Get(ctx context.Context, ownerID, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+pgColumns+` FROM equipment_artifacts WHERE id = ? AND owner_id = ?`,
		id, ownerID,
	)
	rec, err := scanSQLiteRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, equipment.ErrNotFound
	}
	return rec, err
}

func (s *SQLiteStore) Delete(ctx context.Context, ownerID, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM equipment_artifacts WHERE id = ? AND owner_id = ?`,
		id, ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("delete artifact: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete artifact: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) PayloadRefs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload_ref FROM equipment_artifacts`)
	if err != nil {
		return nil, fmt.Errorf("list payload refs: %w", err)
	}
	defer rows.Close()

	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, fmt.Errorf("list payload refs: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRecord(row rowScanner) (Record, error) {
	var (
		rec       Record
		createdAt int64
		summary   string
	)
	err := row.Scan(&rec.ID, &rec.OwnerID, &rec.Filename, &createdAt, &rec.EntryCount, &summary, &rec.PayloadRef)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("scan artifact: %w", err)
	}
	if err := json.Unmarshal([]byte(summary), &rec.Summary); err != nil {
		return Record{}, fmt.Errorf("decode summary %s: %w", rec.ID, err)
	}
	rec.CreatedAt = time.UnixMicro(createdAt).UTC()
	return rec, nil
}
