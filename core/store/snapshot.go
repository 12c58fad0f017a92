package store

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/campusdesk/core"
)

// SnapshotStore persists serialized cache state for a short time.
// It is a cache: a missing or expired snapshot only means the backend is asked again.
type SnapshotStore interface {
	Save(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	// Load returns the payload of an unexpired snapshot, ok is false when there is none.
	Load(ctx context.Context, key string) (payload []byte, ok bool, err error)
	// Invalidate drops the snapshot at key and every snapshot whose key starts with key + ":".
	Invalidate(ctx context.Context, key string) error
	// Purge drops the snapshots expired at now and returns how many were removed.
	Purge(ctx context.Context, now time.Time) (int, error)
}

// InvalidateOnMutate returns a MutateFunc dropping the snapshots under key.
func InvalidateOnMutate(key string, snapshots SnapshotStore, logger core.Logger) MutateFunc {
	return func(ctx context.Context, name string) {
		if snapshots == nil {
			return
		}
		// invalidate even when the caller is gone
		ctx = context.WithoutCancel(ctx)
		if err := snapshots.Invalidate(ctx, key); err != nil {
			logger.Error(errors.Wrapf(err, "invalidating %s after %s mutation", key, name).Error(), err)
		}
	}
}
