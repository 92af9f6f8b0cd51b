// Package store persists equipment artifacts with a bounded per-owner
// history.
//
// An artifact is split in two: a metadata record (id, owner, filename,
// creation time, summary) kept in a MetaStore, and the row payload kept in a
// blob.Store under the record's PayloadRef. Repository coordinates the two
// and enforces retention.
package store

import (
	"context"

	"github.com/JonMunkholm/equipreport/internal/equipment"
)

// Record is one metadata row.
type Record struct {
	equipment.ArtifactSummary
	PayloadRef string
}

// MetaStore holds artifact metadata. Implementations must scope every
// lookup by owner; a record owned by someone else is reported exactly like a
// missing one.
type MetaStore interface {
	// Insert adds a record. IDs are unique.
	Insert(ctx context.Context, rec Record) error

	// ListByOwner returns owner's records newest first. limit <= 0 returns all.
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]Record, error)

	// Get returns one record or equipment.ErrNotFound.
	Get(ctx context.Context, ownerID, id string) (Record, error)

	// Delete removes one record and reports whether it existed.
	Delete(ctx context.Context, ownerID, id string) (bool, error)

	// PayloadRefs returns the payload reference of every record.
	PayloadRefs(ctx context.Context) ([]string, error)

	Close() error
}

// OwnerLocker is implemented by meta stores shared between processes. The
// repository holds the returned lock across every Store and Delete of
// ownerID so retention holds when several servers use one database.
type OwnerLocker interface {
	LockOwner(ctx context.Context, ownerID string) (release func(), err error)
}
