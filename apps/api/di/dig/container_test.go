package dig_container

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/campusdesk/apps/api/echo"
	"github.com/trezcool/campusdesk/core/store"
)

func TestNew(t *testing.T) {
	t.Setenv("ENV", "TEST")
	t.Setenv("TEST_DATABASE_ENGINE", "memory")

	c := New()
	err := c.Invoke(func(server *echoapi.Server, snapshots store.SnapshotStore, closeDB DBCloser) {
		assert.NotNil(t, server)
		assert.NotNil(t, snapshots)
		assert.NoError(t, closeDB())
	})
	require.NoError(t, err)
}
