package database

import (
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "data", "ledger.db")}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestLoadMigrations(t *testing.T) {
	source := fstest.MapFS{
		"010_add_index.sql":   {Data: []byte("CREATE INDEX i ON t(a);")},
		"002_create_t.sql":    {Data: []byte("CREATE TABLE t (a TEXT);")},
		"README.md":           {Data: []byte("ignored")},
		"nested/003_skip.sql": {Data: []byte("ignored")},
	}

	migrations, err := LoadMigrations(source)
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, 2, migrations[0].Version)
	assert.Equal(t, "create_t", migrations[0].Name)
	assert.Equal(t, 10, migrations[1].Version)
}

func TestLoadMigrations_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		source fstest.MapFS
	}{
		{"no version prefix", fstest.MapFS{"create.sql": {Data: []byte("SELECT 1;")}}},
		{"duplicate version", fstest.MapFS{
			"001_a.sql": {Data: []byte("SELECT 1;")},
			"001_b.sql": {Data: []byte("SELECT 1;")},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadMigrations(tt.source)
			assert.Error(t, err)
		})
	}
}

func TestMigrator_RunEmbedded(t *testing.T) {
	db := openTestDB(t)
	m := NewMigrator(db, zap.NewNop())

	require.NoError(t, m.Run())
	// second run is a no-op
	require.NoError(t, m.Run())

	applied, err := m.AppliedVersions()
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{1: true, 2: true}, applied)

	for _, table := range []string{"documents", "document_items", "snapshot_meta"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestMigrator_FailedMigrationRollsBack(t *testing.T) {
	db := openTestDB(t)
	source := fstest.MapFS{
		"001_ok.sql":     {Data: []byte("CREATE TABLE ok (a TEXT);")},
		"002_broken.sql": {Data: []byte("CREATE TABLE broken (;")},
	}
	m := NewMigratorFS(db, source, zap.NewNop())

	require.Error(t, m.Run())

	applied, err := m.AppliedVersions()
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{1: true}, applied)
}
