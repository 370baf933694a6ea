package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"adwarden/activedirectory"

	"github.com/google/uuid"
)

// Snapshotter is the directory capability Sync consumes: fetch a fresh
// user snapshot with no side effects.
type Snapshotter interface {
	FetchUsers(ctx context.Context, filter string) ([]activedirectory.NormalizedUser, error)
}

// Ledger is the persistence capability Sync consumes.
type Ledger interface {
	LatestPerIdentity(ctx context.Context) (map[string]Record, error)
	Apply(ctx context.Context, plan Plan) error
}

// Sync runs one reconciliation: fetch the snapshot first (no side
// effects), then stage and commit all writes in a single transaction.
// A directory failure aborts before any persistence write is attempted;
// a persistence failure rolls the whole run back.
func Sync(ctx context.Context, directory Snapshotter, ledger Ledger, filter string, now time.Time) (SyncResult, error) {
	runID := uuid.New()
	log := slog.With("run_id", runID)

	fresh, err := directory.FetchUsers(ctx, filter)
	if err != nil {
		return SyncResult{}, fmt.Errorf("directory snapshot failed: %w", err)
	}

	latest, err := ledger.LatestPerIdentity(ctx)
	if err != nil {
		return SyncResult{}, fmt.Errorf("ledger read failed: %w", err)
	}

	plan := BuildPlan(fresh, latest, now)
	if err := ledger.Apply(ctx, plan); err != nil {
		return SyncResult{}, fmt.Errorf("ledger write failed: %w", err)
	}

	result := SyncResult{
		RunID:       runID,
		Processed:   len(fresh),
		Inserted:    len(plan.Inserts),
		Updated:     len(plan.Appends),
		Inactivated: len(plan.Deactivations),
	}
	result.Message = fmt.Sprintf(
		"processed %d accounts: %d inserted, %d updated, %d inactivated",
		result.Processed, result.Inserted, result.Updated, result.Inactivated,
	)

	log.Info("reconciliation run complete",
		"processed", result.Processed,
		"inserted", result.Inserted,
		"updated", result.Updated,
		"inactivated", result.Inactivated)
	return result, nil
}
