package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/equipreport/internal/blob"
	"github.com/JonMunkholm/equipreport/internal/equipment"
	"github.com/JonMunkholm/equipreport/internal/logging"
)

// DefaultRetention is how many artifacts each owner keeps.
const DefaultRetention = 5

// payloadPrefix is the blob namespace for row payloads.
const payloadPrefix = "artifacts/"

// StoreResult describes a successful Store.
type StoreResult struct {
	Artifact equipment.ArtifactSummary
	Evicted  []string // IDs removed by retention
	Warnings []string // Non-fatal eviction problems
}

// Repository persists artifacts and keeps at most retention of them per
// owner. Store and Delete for the same owner are serialized; different owners
// never wait on each other.
type Repository struct {
	meta      MetaStore
	blobs     blob.Store
	retention int
	locks     *ownerLocks
	now       func() time.Time

	// pending holds payload refs written but not yet recorded, so the
	// sweeper leaves them alone.
	pendingMu sync.Mutex
	pending   map[string]struct{}
}

// NewRepository creates a Repository. retention <= 0 uses DefaultRetention.
func NewRepository(meta MetaStore, blobs blob.Store, retention int) *Repository {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Repository{
		meta:      meta,
		blobs:     blobs,
		retention: retention,
		locks:     newOwnerLocks(),
		now:       time.Now,
		pending:   make(map[string]struct{}),
	}
}

// Retention returns the per-owner artifact limit.
func (r *Repository) Retention() int {
	return r.retention
}

// Store persists a new artifact for ownerID and then evicts everything
// beyond the newest retention artifacts.
//
// A payload that cannot be released during eviction is logged and reported
// in StoreResult.Warnings; its metadata is removed regardless. Failing to
// remove eviction metadata is a StorageError.
func (r *Repository) Store(ctx context.Context, ownerID, filename string, rows []equipment.ValidatedRow, summary equipment.Summary) (StoreResult, error) {
	unlock := r.locks.lock(ownerID)
	defer unlock()
	release, err := r.lockShared(ctx, ownerID)
	if err != nil {
		return StoreResult{}, err
	}
	defer release()

	createdAt, err := r.nextTimestamp(ctx, ownerID)
	if err != nil {
		return StoreResult{}, err
	}

	id := uuid.NewString()
	rec := Record{
		ArtifactSummary: equipment.ArtifactSummary{
			ID:         id,
			OwnerID:    ownerID,
			Filename:   filename,
			CreatedAt:  createdAt,
			Summary:    summary,
			EntryCount: len(rows),
		},
		PayloadRef: payloadPrefix + id + ".json",
	}

	payload, err := json.Marshal(rows)
	if err != nil {
		return StoreResult{}, fmt.Errorf("encode rows: %w", err)
	}

	r.markPending(rec.PayloadRef)
	defer r.clearPending(rec.PayloadRef)

	if err := r.blobs.Put(ctx, rec.PayloadRef, payload); err != nil {
		return StoreResult{}, &equipment.StorageError{Op: "put", Ref: rec.PayloadRef, Err: err}
	}
	if err := r.meta.Insert(ctx, rec); err != nil {
		if derr := r.blobs.Delete(context.WithoutCancel(ctx), rec.PayloadRef); derr != nil {
			logging.FromContext(ctx).Warn("release payload after failed insert",
				"ref", rec.PayloadRef, "error", derr)
		}
		return StoreResult{}, &equipment.StorageError{Op: "insert", Ref: id, Err: err}
	}

	// The artifact is committed, so eviction runs to completion.
	res := StoreResult{Artifact: rec.ArtifactSummary}
	if err := r.trim(context.WithoutCancel(ctx), ownerID, &res); err != nil {
		return res, err
	}
	return res, nil
}

// trim evicts every artifact of ownerID beyond rank retention.
func (r *Repository) trim(ctx context.Context, ownerID string, res *StoreResult) error {
	recs, err := r.meta.ListByOwner(ctx, ownerID, 0)
	if err != nil {
		return &equipment.StorageError{Op: "list", Err: err}
	}
	if len(recs) <= r.retention {
		return nil
	}

	logger := logging.FromContext(ctx)
	if logging.OwnerFromContext(ctx) == "" {
		logger = logger.With("owner", ownerID)
	}
	for _, old := range recs[r.retention:] {
		if err := r.blobs.Delete(ctx, old.PayloadRef); err != nil {
			logger.Warn("evict: release payload failed",
				"dataset_id", old.ID, "ref", old.PayloadRef, "error", err)
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("dataset %s: payload not released: %v", old.ID, err))
		}
		if _, err := r.meta.Delete(ctx, ownerID, old.ID); err != nil {
			return &equipment.StorageError{Op: "evict", Ref: old.ID, Err: err}
		}
		res.Evicted = append(res.Evicted, old.ID)
		logger.Info("dataset evicted", "dataset_id", old.ID)
	}
	return nil
}

// nextTimestamp returns now, nudged forward if needed so creation times of
// one owner's artifacts are strictly increasing. Times are truncated to
// microseconds, the resolution every MetaStore keeps.
func (r *Repository) nextTimestamp(ctx context.Context, ownerID string) (time.Time, error) {
	ts := r.now().UTC().Truncate(time.Microsecond)

	newest, err := r.meta.ListByOwner(ctx, ownerID, 1)
	if err != nil {
		return time.Time{}, &equipment.StorageError{Op: "list", Err: err}
	}
	if len(newest) > 0 && !ts.After(newest[0].CreatedAt) {
		ts = newest[0].CreatedAt.Add(time.Microsecond)
	}
	return ts, nil
}

// List returns ownerID's artifacts newest first, at most retention of them.
func (r *Repository) List(ctx context.Context, ownerID string) ([]equipment.ArtifactSummary, error) {
	recs, err := r.meta.ListByOwner(ctx, ownerID, r.retention)
	if err != nil {
		return nil, &equipment.StorageError{Op: "list", Err: err}
	}
	out := make([]equipment.ArtifactSummary, len(recs))
	for i, rec := range recs {
		out[i] = rec.ArtifactSummary
	}
	return out, nil
}

// Get returns one artifact with its rows. Missing, foreign and malformed
// IDs all yield equipment.ErrNotFound.
func (r *Repository) Get(ctx context.Context, ownerID, id string) (equipment.Artifact, error) {
	id, ok := canonicalID(id)
	if !ok {
		return equipment.Artifact{}, equipment.ErrNotFound
	}
	rec, err := r.meta.Get(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, equipment.ErrNotFound) {
			return equipment.Artifact{}, err
		}
		return equipment.Artifact{}, &equipment.StorageError{Op: "get", Ref: id, Err: err}
	}

	payload, err := r.blobs.Get(ctx, rec.PayloadRef)
	if err != nil {
		return equipment.Artifact{}, &equipment.StorageError{Op: "read", Ref: rec.PayloadRef, Err: err}
	}
	var rows []equipment.ValidatedRow
	if err := json.Unmarshal(payload, &rows); err != nil {
		return equipment.Artifact{}, &equipment.StorageError{Op: "decode", Ref: rec.PayloadRef, Err: err}
	}

	return equipment.Artifact{ArtifactSummary: rec.ArtifactSummary, Rows: rows}, nil
}

// Delete removes one artifact. The payload goes first; if it cannot be
// released the metadata is kept and a StorageError returned, so the call
// can be retried.
func (r *Repository) Delete(ctx context.Context, ownerID, id string) error {
	id, ok := canonicalID(id)
	if !ok {
		return equipment.ErrNotFound
	}

	unlock := r.locks.lock(ownerID)
	defer unlock()
	release, err := r.lockShared(ctx, ownerID)
	if err != nil {
		return err
	}
	defer release()

	rec, err := r.meta.Get(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, equipment.ErrNotFound) {
			return err
		}
		return &equipment.StorageError{Op: "get", Ref: id, Err: err}
	}

	if err := r.blobs.Delete(ctx, rec.PayloadRef); err != nil {
		return &equipment.StorageError{Op: "delete", Ref: rec.PayloadRef, Err: err}
	}

	found, err := r.meta.Delete(ctx, ownerID, id)
	if err != nil {
		return &equipment.StorageError{Op: "delete", Ref: id, Err: err}
	}
	if !found {
		return equipment.ErrNotFound
	}
	return nil
}

// lockShared takes the meta store's cross-process owner lock when it has
// one.
func (r *Repository) lockShared(ctx context.Context, ownerID string) (func(), error) {
	l, ok := r.meta.(OwnerLocker)
	if !ok {
		return func() {}, nil
	}
	release, err := l.LockOwner(ctx, ownerID)
	if err != nil {
		return nil, &equipment.StorageError{Op: "lock", Err: err}
	}
	return release, nil
}

func (r *Repository) markPending(ref string) {
	r.pendingMu.Lock()
	r.pending[ref] = struct{}{}
	r.pendingMu.Unlock()
}

func (r *Repository) clearPending(ref string) {
	r.pendingMu.Lock()
	delete(r.pending, ref)
	r.pendingMu.Unlock()
}

func (r *Repository) pendingRefs() map[string]struct{} {
	r.pendingMu.Lock()
	defer r.pendingMu.Unlock()
	out := make(map[string]struct{}, len(r.pending))
	for ref := range r.pending {
		out[ref] = struct{}{}
	}
	return out
}

// canonicalID parses id as a UUID and returns its canonical form.
func canonicalID(id string) (string, bool) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return u.String(), true
}
