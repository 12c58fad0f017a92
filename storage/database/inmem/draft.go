package inmemdb

import (
	"context"
	"time"

	"github.com/trezcool/campusdesk/core/admission"
)

type draftRepository struct {
	db *draftTable
}

var _ admission.DraftRepository = (*draftRepository)(nil)

func NewDraftRepository(db *DB) admission.DraftRepository {
	return &draftRepository{db: db.draft}
}

func (repo *draftRepository) SaveWizard(_ context.Context, w admission.Wizard) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.table[w.ID] = w
	return nil
}

func (repo *draftRepository) GetWizard(_ context.Context, id string) (admission.Wizard, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if w, ok := repo.db.table[id]; ok {
		return w, nil
	}
	return admission.Wizard{}, admission.ErrDraftNotFound
}

func (repo *draftRepository) DeleteWizard(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.table, id)
	delete(repo.db.claims, id)
	return nil
}

func (repo *draftRepository) ClaimWizard(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return admission.ErrDraftNotFound
	}
	if _, ok := repo.db.claims[id]; ok {
		return admission.ErrDraftSubmitting
	}
	repo.db.claims[id] = struct{}{}
	return nil
}

func (repo *draftRepository) ReleaseWizard(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.claims, id)
	return nil
}

func (repo *draftRepository) PurgeWizards(_ context.Context, before time.Time) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var n int
	for id, w := range repo.db.table {
		if _, claimed := repo.db.claims[id]; claimed {
			continue
		}
		if w.UpdatedAt.Before(before) {
			delete(repo.db.table, id)
			n++
		}
	}
	return n, nil
}
