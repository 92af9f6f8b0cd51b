package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/JonMunkholm/equipreport/internal/equipment"
)

// MemStore is an in-process MetaStore.
type MemStore struct {
	mu      sync.RWMutex
	byOwner map[string][]Record
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{byOwner: make(map[string][]Record)}
}

func (m *MemStore) Insert(ctx context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, recs := range m.byOwner {
		for _, r := range recs {
			if r.ID == rec.ID {
				return fmt.Errorf("insert %s: duplicate id", rec.ID)
			}
		}
	}
	m.byOwner[rec.OwnerID] = append(m.byOwner[rec.OwnerID], rec)
	return nil
}

func (m *MemStore) ListByOwner(ctx context.Context, ownerID string, limit int) ([]Record, error) {
	m.mu.RLock()
	recs := append([]Record(nil), m.byOwner[ownerID]...)
	m.mu.RUnlock()

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

func (m *MemStore) Get(ctx context.Context, ownerID, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.byOwner[ownerID] {
		if r.ID == id {
			return r, nil
		}
	}
	return Record{}, equipment.ErrNotFound
}

func (m *MemStore) Delete(ctx context.Context, ownerID, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	recs := m.byOwner[ownerID]
	for i, r := range recs {
		if r.ID == id {
			m.byOwner[ownerID] = append(recs[:i:i], recs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *MemStore) PayloadRefs(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var refs []string
	for _, recs := range m.byOwner {
		for _, r := range recs {
			refs = append(refs, r.PayloadRef)
		}
	}
	return refs, nil
}

func (m *MemStore) Close() error {
	return nil
}
