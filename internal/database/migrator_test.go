package database

import (
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPending_EmbeddedMigrations(t *testing.T) {
	names, err := Pending(migrationsFS)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"001_create_gallery_assets.sql",
		"002_create_asset_events.sql",
	}, names)

	for _, name := range names {
		body, err := fs.ReadFile(migrationsFS, "migrations/"+name)
		require.NoError(t, err)
		assert.True(t, strings.Contains(string(body), "CREATE TABLE IF NOT EXISTS"), name)
	}
}

func TestPending_SortsAndSkipsDirectories(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/010_late.sql":     {Data: []byte("SELECT 1;")},
		"migrations/002_early.sql":    {Data: []byte("SELECT 1;")},
		"migrations/archive/old.sql":  {Data: []byte("SELECT 1;")},
		"migrations/001_earliest.sql": {Data: []byte("SELECT 1;")},
	}

	names, err := Pending(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_earliest.sql", "002_early.sql", "010_late.sql"}, names)
}

func TestPending_MissingDirectory(t *testing.T) {
	_, err := Pending(fstest.MapFS{})
	assert.ErrorContains(t, err, "failed to read migrations directory")
}

func TestGalleryMigrationDeclaresEventChannel(t *testing.T) {
	body, err := fs.ReadFile(migrationsFS, "migrations/002_create_asset_events.sql")
	require.NoError(t, err)
	assert.Contains(t, string(body), "channel TEXT NOT NULL")
}
