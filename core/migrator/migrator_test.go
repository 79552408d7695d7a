package migrator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AvaProtocol/ap-airdrop/core/testutil"
	"github.com/AvaProtocol/ap-airdrop/storage"
)

type countingBackup struct {
	calls int
	err   error
}

func (b *countingBackup) PerformBackup() (string, error) {
	b.calls++
	return "/tmp/backup.json", b.err
}

func TestMigrator(t *testing.T) {
	db := testutil.TestMustDB()
	defer storage.Destroy(db.(*storage.BadgerStorage))

	backup := &countingBackup{}
	m := NewMigrator(db, backup, testutil.GetLogger(), nil)

	runs := 0
	m.Register("test_migration", func(db storage.Storage) (int, error) {
		runs++
		return 5, db.Set([]byte("test:key"), []byte("migrated"))
	})

	require.NoError(t, m.Run())
	assert.Equal(t, 1, runs)
	assert.Equal(t, 1, backup.calls)

	record, err := db.GetKey(MigrationKey("test_migration"))
	require.NoError(t, err)
	assert.Contains(t, string(record), "records=5")
	assert.Contains(t, string(record), "ts=")

	value, err := db.GetKey([]byte("test:key"))
	require.NoError(t, err)
	assert.Equal(t, "migrated", string(value))

	// applied migrations neither run again nor trigger a backup
	require.NoError(t, m.Run())
	assert.Equal(t, 1, runs)
	assert.Equal(t, 1, backup.calls)
}

func TestMigratorStopsOnFailure(t *testing.T) {
	db := testutil.TestMustDB()
	defer storage.Destroy(db.(*storage.BadgerStorage))

	m := NewMigrator(db, nil, testutil.GetLogger(), []Migration{
		{Name: "broken", Function: func(storage.Storage) (int, error) { return 0, errors.New("boom") }},
		{Name: "after", Function: func(storage.Storage) (int, error) { return 1, nil }},
	})

	err := m.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration broken failed")

	exists, err := db.Exist(MigrationKey("after"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMigratorBackupFailureBlocksMigrations(t *testing.T) {
	db := testutil.TestMustDB()
	defer storage.Destroy(db.(*storage.BadgerStorage))

	ran := false
	m := NewMigrator(db, &countingBackup{err: errors.New("disk full")}, testutil.GetLogger(), []Migration{
		{Name: "pending", Function: func(storage.Storage) (int, error) { ran = true; return 0, nil }},
	})

	require.Error(t, m.Run())
	assert.False(t, ran)
}
