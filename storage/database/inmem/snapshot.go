package inmemdb

import (
	"context"
	"strings"
	"time"

	"github.com/trezcool/campusdesk/core/store"
)

type snapshotRow struct {
	payload   []byte
	expiresAt time.Time // zero: never
}

type snapshotRepository struct {
	db  *snapshotTable
	now func() time.Time
}

var _ store.SnapshotStore = (*snapshotRepository)(nil)

func NewSnapshotRepository(db *DB) store.SnapshotStore {
	return &snapshotRepository{db: db.snapshot, now: time.Now}
}

func (repo *snapshotRepository) Save(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	row := snapshotRow{payload: append([]byte(nil), payload...)}
	if ttl > 0 {
		row.expiresAt = repo.now().Add(ttl)
	}
	repo.db.table[key] = row
	return nil
}

func (repo *snapshotRepository) Load(_ context.Context, key string) ([]byte, bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	row, ok := repo.db.table[key]
	if !ok || (!row.expiresAt.IsZero() && !repo.now().Before(row.expiresAt)) {
		return nil, false, nil
	}
	return append([]byte(nil), row.payload...), true, nil
}

func (repo *snapshotRepository) Invalidate(_ context.Context, key string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for k := range repo.db.table {
		if k == key || strings.HasPrefix(k, key+":") {
			delete(repo.db.table, k)
		}
	}
	return nil
}

func (repo *snapshotRepository) Purge(_ context.Context, now time.Time) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var n int
	for k, row := range repo.db.table {
		if !row.expiresAt.IsZero() && !now.Before(row.expiresAt) {
			delete(repo.db.table, k)
			n++
		}
	}
	return n, nil
}
