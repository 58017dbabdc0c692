package database

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSessionStore_SeedsReferenceData(t *testing.T) {
	db, err := OpenSessionStore(Config{Path: MemoryPath}, nil)
	require.NoError(t, err)
	defer db.Close()

	var poCount, elementCount int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM purchase_orders").Scan(&poCount))
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM project_elements").Scan(&elementCount))
	assert.Equal(t, 2, poCount)
	assert.Equal(t, 6, elementCount)

	var expected float64
	require.NoError(t, db.QueryRow("SELECT expected_amount FROM purchase_orders WHERE invoice_id = ?", "INV-2024-002").Scan(&expected))
	assert.Equal(t, 4200.50, expected)
}

func TestMigrator_RunIsIdempotent(t *testing.T) {
	db, err := New(Config{}, nil)
	require.NoError(t, err)
	defer db.Close()

	m := NewMigrator(db, nil)
	require.NoError(t, m.Run())
	require.NoError(t, m.Run())

	var applied int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied))
	assert.Equal(t, 2, applied)
}

func TestMigrator_LoadOrdersByVersion(t *testing.T) {
	source := fstest.MapFS{
		"010_later.sql":  {Data: []byte("SELECT 1;")},
		"002_second.sql": {Data: []byte("SELECT 2;")},
		"README.md":      {Data: []byte("ignored")},
	}

	migrations, err := NewMigratorFS(nil, source, nil).Load()
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, 2, migrations[0].Version)
	assert.Equal(t, "second", migrations[0].Name)
	assert.Equal(t, 10, migrations[1].Version)
}

func TestMigrator_LoadRejectsBadFilename(t *testing.T) {
	source := fstest.MapFS{"initial.sql": {Data: []byte("SELECT 1;")}}

	_, err := NewMigratorFS(nil, source, nil).Load()
	assert.ErrorContains(t, err, "invalid migration filename")
}

func TestMigrator_LoadRejectsDuplicateVersions(t *testing.T) {
	source := fstest.MapFS{
		"001_a.sql":  {Data: []byte("SELECT 1;")},
		"0001_b.sql": {Data: []byte("SELECT 1;")},
	}

	_, err := NewMigratorFS(nil, source, nil).Load()
	assert.ErrorContains(t, err, "duplicate migration version 1")
}

func TestMigrator_FailedMigrationIsNotRecorded(t *testing.T) {
	db, err := New(Config{}, nil)
	require.NoError(t, err)
	defer db.Close()

	source := fstest.MapFS{
		"001_ok.sql":     {Data: []byte("CREATE TABLE t (id INTEGER);")},
		"002_broken.sql": {Data: []byte("INSERT INTO t VALUES (1); INSERT INTO missing VALUES (2);")},
	}

	err = NewMigratorFS(db, source, nil).Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "002_broken")

	var applied, rows int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied))
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM t").Scan(&rows))
	assert.Equal(t, 1, applied)
	assert.Equal(t, 0, rows, "partial migration must roll back")
}
