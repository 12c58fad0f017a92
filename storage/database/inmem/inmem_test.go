package inmemdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campusdesk/core"
	"github.com/trezcool/campusdesk/core/admission"
)

func newDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open()
	require.NoError(t, err)
	return db
}

func TestSnapshotRepository(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.January, 10, 9, 0, 0, 0, time.UTC)
	repo := NewSnapshotRepository(newDB(t)).(*snapshotRepository)
	repo.now = func() time.Time { return now }

	require.NoError(t, repo.Save(ctx, "admin-storage:b1:reference:2024", []byte(`{"a":1}`), time.Minute))
	require.NoError(t, repo.Save(ctx, "admin-storage:b2:reference:2024", []byte(`{"a":2}`), time.Hour))
	require.NoError(t, repo.Save(ctx, "staff-storage:b1:reference:2024", []byte(`{"a":3}`), time.Minute))

	payload, ok, err := repo.Load(ctx, "admin-storage:b1:reference:2024")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(payload))

	_, ok, err = repo.Load(ctx, "admin-storage:b9:reference:2024")
	require.NoError(t, err)
	assert.False(t, ok)

	// expired snapshots are not served
	now = now.Add(2 * time.Minute)
	_, ok, _ = repo.Load(ctx, "admin-storage:b1:reference:2024")
	assert.False(t, ok)

	n, err := repo.Purge(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// invalidation covers the key and everything under it, never a sibling prefix
	require.NoError(t, repo.Save(ctx, "admin-storage-old", []byte(`{}`), 0))
	require.NoError(t, repo.Invalidate(ctx, "admin-storage"))
	_, ok, _ = repo.Load(ctx, "admin-storage:b2:reference:2024")
	assert.False(t, ok)
	_, ok, _ = repo.Load(ctx, "admin-storage-old")
	assert.True(t, ok)
}

func TestSnapshotRepository_copiesPayload(t *testing.T) {
	ctx := context.Background()
	repo := NewSnapshotRepository(newDB(t))

	payload := []byte(`{"a":1}`)
	require.NoError(t, repo.Save(ctx, "k", payload, 0))
	payload[2] = 'b'

	got, ok, err := repo.Load(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"a":1}`, string(got))
}

func TestDraftRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewDraftRepository(newDB(t))
	t0 := time.Date(2024, time.January, 10, 9, 0, 0, 0, time.UTC)
	scope := core.Scope{Portal: core.PortalAdmin, BranchID: "b1"}

	old := admission.NewWizard("w1", "u1", scope, nil, t0)
	fresh := admission.NewWizard("w2", "u1", scope, nil, t0.Add(time.Hour))
	require.NoError(t, repo.SaveWizard(ctx, old))
	require.NoError(t, repo.SaveWizard(ctx, fresh))

	got, err := repo.GetWizard(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.Owner)
	assert.Equal(t, 1, got.Index())

	n, err := repo.PurgeWizards(ctx, t0.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = repo.GetWizard(ctx, "w1")
	assert.Equal(t, admission.ErrDraftNotFound, err)
	_, err = repo.GetWizard(ctx, "w2")
	assert.NoError(t, err)

	require.NoError(t, repo.DeleteWizard(ctx, "w2"))
	_, err = repo.GetWizard(ctx, "w2")
	assert.Equal(t, admission.ErrDraftNotFound, err)
}

func TestDraftRepository_claims(t *testing.T) {
	ctx := context.Background()
	repo := NewDraftRepository(newDB(t))
	t0 := time.Date(2024, time.January, 10, 9, 0, 0, 0, time.UTC)
	w := admission.NewWizard("w1", "u1", core.Scope{Portal: core.PortalStaff}, nil, t0)
	require.NoError(t, repo.SaveWizard(ctx, w))

	assert.Equal(t, admission.ErrDraftNotFound, repo.ClaimWizard(ctx, "missing"))
	require.NoError(t, repo.ClaimWizard(ctx, "w1"))
	assert.Equal(t, admission.ErrDraftSubmitting, repo.ClaimWizard(ctx, "w1"))

	// a claimed draft is not purged
	n, err := repo.PurgeWizards(ctx, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, repo.ReleaseWizard(ctx, "w1"))
	require.NoError(t, repo.ClaimWizard(ctx, "w1"))

	require.NoError(t, repo.DeleteWizard(ctx, "w1"))
	require.NoError(t, repo.SaveWizard(ctx, w))
	assert.NoError(t, repo.ClaimWizard(ctx, "w1"))
}
