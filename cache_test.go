//go:build cgo

package goprovenance

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cachedConfig(t *testing.T, path string) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.CachePath = path
	return cfg
}

func TestPrepareIndexUsesCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	first := newTestEngine(t, cachedConfig(t, path))
	status, err := first.PrepareIndex(ctx, references())
	require.NoError(t, err)
	assert.Equal(t, SourceBuild, status.Source)
	require.NoError(t, first.Close())

	second := newTestEngine(t, cachedConfig(t, path))
	status, err = second.PrepareIndex(ctx, references())
	require.NoError(t, err)
	assert.Equal(t, SourceCache, status.Source)
	assert.Nil(t, status.Report, "cache hits skip the parse")
	assert.Equal(t, 4, second.Index().Len())

	rec, err := second.Process(manifesto())
	require.NoError(t, err)
	assert.Equal(t, marxID, rec.Links[0].CanonicalID)

	snaps, err := second.Snapshots(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, status.ContentHash, snaps[0].ContentHash)
}

func TestShortfallFallsBackToCachedSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	seed := newTestEngine(t, cachedConfig(t, path))
	good, err := seed.PrepareIndex(ctx, references())
	require.NoError(t, err)
	require.NoError(t, seed.Close())

	e := newTestEngine(t, cachedConfig(t, path))
	status, err := e.PrepareIndex(ctx, shortReferences())
	assert.ErrorIs(t, err, ErrIndexShortfall)
	require.NotNil(t, status)
	assert.Equal(t, SourceFallback, status.Source)
	assert.Equal(t, good.ContentHash, status.ContentHash)
	require.NotNil(t, e.Index())

	rec, err := e.Process(smithReport())
	require.NoError(t, err)
	assert.Equal(t, johnID, rec.Links[0].CanonicalID)
}

func TestLoadCachedIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	e := newTestEngine(t, cachedConfig(t, path))
	_, err := e.LoadCachedIndex(ctx)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	_, err = e.PrepareIndex(ctx, references())
	require.NoError(t, err)

	fresh := newTestEngine(t, cachedConfig(t, path))
	status, err := fresh.LoadCachedIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceCache, status.Source)
	assert.Equal(t, 4, status.Entities)
}
