package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/equipreport/internal/equipment"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS equipment_artifacts (
    id          UUID PRIMARY KEY,
    owner_id    TEXT NOT NULL,
    filename    TEXT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL,
    row_count   INTEGER NOT NULL,
    summary     JSONB NOT NULL,
    payload_ref TEXT NOT NULL
)`

const pgIndex = `
CREATE INDEX IF NOT EXISTS equipment_artifacts_owner_created_idx
    ON equipment_artifacts (owner_id, created_at DESC)`

const pgColumns = `id, owner_id, filename, created_at, row_count, summary, payload_ref`

// PGStore is a MetaStore backed by PostgreSQL. The pool is owned by the
// caller.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore wraps pool. Call EnsureSchema before first use.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// EnsureSchema creates the metadata table and index if missing.
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range []string{pgSchema, pgIndex} {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *PGStore) Insert(ctx context.Context, rec Record) error {
	id := toPgUUID(rec.ID)
	if !id.Valid {
		return fmt.Errorf("insert: invalid id %q", rec.ID)
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO equipment_artifacts (`+pgColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, rec.OwnerID, rec.Filename, rec.CreatedAt, rec.EntryCount, rec.Summary, rec.PayloadRef,
	)
	if err != nil {
		return fmt.Errorf("insert artifact: %w", err)
	}
	return nil
}

func (s *PGStore) ListByOwner(ctx context.Context, ownerID string, limit int) ([]Record, error) {
	query := `SELECT ` + pgColumns + ` FROM equipment_artifacts
		WHERE owner_id = $1 ORDER BY created_at DESC, id DESC`
	args := []any{ownerID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		rec, err := scanPGRecord(rows)
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

func (s *PGStore) Get(ctx context.Context, ownerID, id string) (Record, error) {
	pgID := toPgUUID(id)
	if !pgID.Valid {
		return Record{}, equipment.ErrNotFound
	}
	row := s.pool.QueryRow(ctx,
		`SELECT `+pgColumns+` FROM equipment_artifacts WHERE id = $1 AND owner_id = $2`,
		pgID, ownerID,
	)
	rec, err := scanPGRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, equipment.ErrNotFound
	}
	return rec, err
}

func (s *PGStore) Delete(ctx context.Context, ownerID, id string) (bool, error) {
	pgID := toPgUUID(id)
	if !pgID.Valid {
		return false, nil
	}
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM equipment_artifacts WHERE id = $1 AND owner_id = $2`,
		pgID, ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("delete artifact: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PGStore) PayloadRefs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT payload_ref FROM equipment_artifacts`)
	if err != nil {
		return nil, fmt.Errorf("list payload refs: %w", err)
	}
	refs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list payload refs: %w", err)
	}
	return refs, nil
}

// LockOwner takes a session advisory lock keyed on ownerID on a dedicated
// connection. The lock is held until release is called.
func (s *PGStore) LockOwner(ctx context.Context, ownerID string) (func(), error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire lock conn: %w", err)
	}
	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock(hashtext($1))`, ownerID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("advisory lock: %w", err)
	}
	return func() {
		ctx := context.Background()
		if _, err := conn.Exec(ctx, `SELECT pg_advisory_unlock(hashtext($1))`, ownerID); err != nil {
			// Closing the session drops any lock it still holds.
			_ = conn.Conn().Close(ctx)
		}
		conn.Release()
	}, nil
}

// Close is a no-op; the pool belongs to the caller.
func (s *PGStore) Close() error {
	return nil
}

func scanPGRecord(row pgx.Row) (Record, error) {
	var (
		rec Record
		id  pgtype.UUID
	)
	err := row.Scan(&id, &rec.OwnerID, &rec.Filename, &rec.CreatedAt, &rec.EntryCount, &rec.Summary, &rec.PayloadRef)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("scan artifact: %w", err)
	}
	rec.ID = uuidToString(id)
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, nil
}

func toPgUUID(s string) pgtype.UUID {
	if s == "" {
		return pgtype.UUID{Valid: false}
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{Valid: false}
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}
}

func uuidToString(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	return uuid.UUID(u.Bytes).String()
}
