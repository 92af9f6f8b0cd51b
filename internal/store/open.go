package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Open returns the MetaStore named by url:
//
//	memory                  in-process, lost on exit
//	sqlite://path/to/db     SQLite file (sqlite://:memory: for a temp database)
//	postgres://...          PostgreSQL with a default pool
//
// A bare path is treated as a SQLite file.
func Open(ctx context.Context, url string) (MetaStore, error) {
	switch {
	case url == "" || url == "memory":
		return NewMemStore(), nil
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return OpenPostgres(ctx, url, PoolConfig{})
	case strings.HasPrefix(url, "sqlite://"):
		return OpenSQLite(ctx, strings.TrimPrefix(url, "sqlite://"))
	case strings.Contains(url, "://"):
		return nil, fmt.Errorf("unsupported database url scheme: %s", url)
	default:
		return OpenSQLite(ctx, url)
	}
}

// PoolConfig tunes the PostgreSQL connection pool. Zero fields keep the
// pgx defaults.
type PoolConfig struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// OpenPostgres connects a pool to url, verifies it and creates the schema.
// The returned store closes the pool on Close.
func OpenPostgres(ctx context.Context, url string, pc PoolConfig) (MetaStore, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if pc.MaxConns > 0 {
		poolConfig.MaxConns = pc.MaxConns
	}
	if pc.MinConns > 0 {
		poolConfig.MinConns = pc.MinConns
	}
	if pc.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = pc.MaxConnLifetime
	}
	if pc.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = pc.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &ownedPGStore{PGStore: NewPGStore(pool)}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// ownedPGStore closes its pool on Close.
type ownedPGStore struct {
	*PGStore
}

func (s *ownedPGStore) Close() error {
	s.pool.Close()
	return nil
}
