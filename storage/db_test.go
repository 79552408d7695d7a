package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDB(t *testing.T) Storage {
	db, err := NewWithPath(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func TestBatchWriteAndPrefix(t *testing.T) {
	db := mustDB(t)

	err := db.BatchWrite(map[string][]byte{
		"w:1:0001": []byte("a"),
		"w:1:0002": []byte("b"),
		"w:2:0001": []byte("c"),
		"s:salt":   []byte("d"),
	})
	require.NoError(t, err)

	items, err := db.GetByPrefix([]byte("w:1:"))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "w:1:0001", string(items[0].Key))
	assert.Equal(t, "b", string(items[1].Value))

	total, err := db.CountKeysByPrefix([]byte("w:"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	removed, err := db.DeleteByPrefix([]byte("w:1:"))
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	total, err = db.CountKeysByPrefix([]byte("w:"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	_, err = db.DeleteByPrefix(nil)
	assert.Error(t, err)
}

func TestExist(t *testing.T) {
	db := mustDB(t)

	found, err := db.Exist([]byte("missing"))
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, db.Set([]byte("k"), []byte("v")))
	found, err = db.Exist([]byte("k"))
	require.NoError(t, err)
	assert.True(t, found)

	require.NoError(t, db.Delete([]byte("k")))
	_, err = db.GetKey([]byte("k"))
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestCounters(t *testing.T) {
	db := mustDB(t)

	v, err := db.GetCounter([]byte("c"), 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), v)

	_, err = db.GetCounter([]byte("c"))
	assert.ErrorIs(t, err, ErrKeyNotFound)

	v, err = db.IncCounter([]byte("c"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v)

	v, err = db.IncCounter([]byte("c"))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), v)

	require.NoError(t, db.SetCounter([]byte("c"), 40))
	v, err = db.GetCounter([]byte("c"))
	require.NoError(t, err)
	assert.Equal(t, uint64(40), v)
}

func TestInMemory(t *testing.T) {
	db, err := New(&Config{InMemory: true})
	require.NoError(t, err)
	defer Destroy(db.(*BadgerStorage))

	require.NoError(t, db.Set([]byte("k"), []byte("v")))
	v, err := db.GetKey([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, "v", string(v))
}

func TestSetManyIsAllOrNothing(t *testing.T) {
	db := mustDB(t)

	require.NoError(t, db.SetMany(map[string][]byte{
		"w:1:0001": []byte("a"),
		"w:1:0002": []byte("b"),
	}))

	value, err := db.GetKey([]byte("w:1:0002"))
	require.NoError(t, err)
	assert.Equal(t, "b", string(value))

	// badger rejects the empty key, so nothing of the transaction lands
	err = db.SetMany(map[string][]byte{
		"w:1:0001": []byte("changed"),
		"":         []byte("bad"),
	})
	require.Error(t, err)

	value, err = db.GetKey([]byte("w:1:0001"))
	require.NoError(t, err)
	assert.Equal(t, "a", string(value))
}
