package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/campusdesk/core/store"
)

type snapshotRow struct {
	Key       string    `db:"key"`
	Payload   []byte    `db:"payload"`
	ExpiresAt null.Time `db:"expires_at"` // null: never
}

type snapshotRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

var _ store.SnapshotStore = (*snapshotRepository)(nil)

func NewSnapshotRepository(db *sqlx.DB) store.SnapshotStore {
	return &snapshotRepository{db: db, now: time.Now}
}

const upsertSnapshot = `
INSERT INTO snapshots (key, payload, expires_at) VALUES (:key, :payload, :expires_at)
ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, expires_at = EXCLUDED.expires_at, created_at = now()`

func (repo *snapshotRepository) Save(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	row := snapshotRow{Key: key, Payload: payload}
	if ttl > 0 {
		row.ExpiresAt = null.TimeFrom(repo.now().UTC().Add(ttl))
	}
	if _, err := repo.db.NamedExecContext(ctx, upsertSnapshot, row); err != nil {
		return errors.Wrapf(err, "saving snapshot %s", key)
	}
	return nil
}

func (repo *snapshotRepository) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var row snapshotRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT key, payload, expires_at FROM snapshots WHERE key = $1 AND (expires_at IS NULL OR expires_at > $2)`,
		key, repo.now().UTC(),
	)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, false, nil
	case err != nil:
		return nil, false, errors.Wrapf(err, "loading snapshot %s", key)
	}
	return row.Payload, true, nil
}

func (repo *snapshotRepository) Invalidate(ctx context.Context, key string) error {
	_, err := repo.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE key = $1 OR starts_with(key, $2)`,
		key, key+":",
	)
	if err != nil {
		return errors.Wrapf(err, "invalidating snapshot %s", key)
	}
	return nil
}

func (repo *snapshotRepository) Purge(ctx context.Context, now time.Time) (int, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM snapshots WHERE expires_at IS NOT NULL AND expires_at <= $1`, now.UTC())
	if err != nil {
		return 0, errors.Wrap(err, "purging snapshots")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "purging snapshots")
	}
	return int(n), nil
}
