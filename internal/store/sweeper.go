package store

// sweeper.go removes orphaned payload blobs.
//
// Eviction keeps going when a payload cannot be released, which can leave
// blobs that no metadata record references. The sweeper runs periodically
// to delete them. Like eviction it logs failures and never stops the
// application.

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// DefaultSweepInterval is how often StartSweeper runs when given zero.
const DefaultSweepInterval = time.Hour

// SweepResult reports one sweep.
type SweepResult struct {
	Scanned int
	Removed int
	Failed  int
}

// StartSweeper sweeps immediately, then every interval, until ctx is
// cancelled. It blocks; run it in its own goroutine.
func (r *Repository) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	slog.Info("orphan sweeper started", "interval", interval.String())

	r.runSweep(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("orphan sweeper stopped")
			return
		case <-ticker.C:
			r.runSweep(ctx)
		}
	}
}

func (r *Repository) runSweep(ctx context.Context) {
	start := time.Now()
	res, err := r.Sweep(ctx)
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("orphan sweep failed", "error", err)
		}
		return
	}
	slog.Info("orphan sweep completed",
		"scanned", res.Scanned,
		"removed", res.Removed,
		"failed", res.Failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// Sweep deletes payload blobs that no metadata record references.
//
// Blobs are listed before the reference snapshot is taken, and payloads of
// in-flight Store calls are skipped, so a blob written between the two
// steps is never mistaken for an orphan.
func (r *Repository) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult

	blobs, err := r.blobs.List(ctx)
	if err != nil {
		return res, err
	}
	pending := r.pendingRefs()
	refs, err := r.meta.PayloadRefs(ctx)
	if err != nil {
		return res, err
	}

	live := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		live[ref] = struct{}{}
	}

	for _, ref := range blobs {
		if !strings.HasPrefix(ref, payloadPrefix) {
			continue
		}
		res.Scanned++
		if _, ok := live[ref]; ok {
			continue
		}
		if _, ok := pending[ref]; ok {
			continue
		}
		if err := r.blobs.Delete(ctx, ref); err != nil {
			slog.Warn("orphan sweep: delete failed", "ref", ref, "error", err)
			res.Failed++
			continue
		}
		res.Removed++
	}
	return res, nil
}
