package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/compliance-engine/rentroll"
	"github.com/warp/compliance-engine/store/sqlite"
	"github.com/warp/compliance-engine/store/storetest"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) rentroll.Store {
		return newStore(t)
	})
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	// GIVEN a file-backed store with one snapshot
	path := filepath.Join(t.TempDir(), "compliance.db")
	s, err := sqlite.New(path)
	require.NoError(t, err)
	require.NoError(t, s.SavePropertySnapshot(context.Background(), storetest.Fixture()))
	require.NoError(t, s.Close())

	// WHEN the database is reopened
	reopened, err := sqlite.New(path)
	require.NoError(t, err)
	defer reopened.Close()

	// THEN the snapshot is still there and migration is idempotent
	ps, err := reopened.LoadPropertySnapshot(context.Background(), "maple-court", "snap-jun")
	require.NoError(t, err)
	assert.Len(t, ps.Units, 2)
}

func TestSQLiteStore_Reset(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.SavePropertySnapshot(ctx, storetest.Fixture()))

	require.NoError(t, s.Reset(ctx))

	props, err := s.ListProperties(ctx)
	require.NoError(t, err)
	assert.Empty(t, props)
}
