package testutil

import (
	"os"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/campusdesk/core"
	"github.com/trezcool/campusdesk/storage/database"
)

// OpenDB opens and migrates the test database configured by the TEST_DATABASE_* variables.
// The test is skipped when TEST_DATABASE_NAME is not set.
func OpenDB(t *testing.T) *sqlx.DB {
	t.Helper()
	if os.Getenv("TEST_DATABASE_NAME") == "" {
		t.Skip("TEST_DATABASE_NAME not set")
	}
	t.Setenv("ENV", "TEST")
	conf := core.NewConfig()

	if err := database.CreateIfNotExist(conf); err != nil {
		t.Fatalf("database.CreateIfNotExist(): %v", err)
	}
	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("database.Open(): %v", err)
	}
	if err := database.Migrate(db, "up"); err != nil {
		t.Fatalf("database.Migrate(): %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}
