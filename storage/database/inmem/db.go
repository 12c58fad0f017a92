// Package inmemdb keeps the gateway state in process memory, for development and tests.
package inmemdb

import (
	"sync"

	"github.com/trezcool/campusdesk/core/admission"
)

type (
	DB struct {
		snapshot *snapshotTable
		draft    *draftTable
	}

	snapshotTable struct {
		sync.RWMutex
		table map[string]snapshotRow
	}

	draftTable struct {
		sync.RWMutex
		table  map[string]admission.Wizard
		claims map[string]struct{}
	}
)

func Open() (*DB, error) {
	db := &DB{
		snapshot: &snapshotTable{table: make(map[string]snapshotRow)},
		draft: &draftTable{
			table:  make(map[string]admission.Wizard),
			claims: make(map[string]struct{}),
		},
	}
	return db, nil
}
