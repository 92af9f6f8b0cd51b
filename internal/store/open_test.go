package store

import (
	"context"
	"path/filepath"
	"testing"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "meta.db")

	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"", "*store.MemStore", false},
		{"memory", "*store.MemStore", false},
		{"sqlite://:memory:", "*store.SQLiteStore", false},
		{dbPath, "*store.SQLiteStore", false},
		{"mysql://localhost/db", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			s, err := Open(ctx, tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer s.Close()
			if got := typeName(s); got != tt.want {
				t.Errorf("Open(%q) = %s, want %s", tt.url, got, tt.want)
			}
		})
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *MemStore:
		return "*store.MemStore"
	case *SQLiteStore:
		return "*store.SQLiteStore"
	case *ownedPGStore:
		return "*store.ownedPGStore"
	}
	return "unknown"
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "meta.db")

	s, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	rec := Record{PayloadRef: "artifacts/x.json"}
	rec.ID = "3b241101-e2bb-4255-8caf-4136c566a962"
	rec.OwnerID = "alice"
	rec.Filename = "plant.csv"
	rec.CreatedAt = frozenClock()
	rec.Summary = testSummary
	rec.EntryCount = 2
	if err := s.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	s.Close()

	s, err = OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	got, err := s.Get(ctx, "alice", rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.CreatedAt.Equal(rec.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, rec.CreatedAt)
	}
	if got.Summary.Distribution["Pump"] != 1 {
		t.Errorf("Summary not restored: %+v", got.Summary)
	}

	refs, err := s.PayloadRefs(ctx)
	if err != nil || len(refs) != 1 || refs[0] != "artifacts/x.json" {
		t.Errorf("PayloadRefs = %v, %v", refs, err)
	}
}

func TestOpenPostgres_BadURL(t *testing.T) {
	if _, err := OpenPostgres(context.Background(), "postgres://user@localhost:notaport/db", PoolConfig{MaxConns: 4}); err == nil {
		t.Fatal("OpenPostgres with invalid port: expected error")
	}
}
