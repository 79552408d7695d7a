package walletstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AvaProtocol/ap-airdrop/core/testutil"
	"github.com/AvaProtocol/ap-airdrop/model"
	"github.com/AvaProtocol/ap-airdrop/storage"
	"github.com/AvaProtocol/ap-airdrop/storage/schema"
)

func newTestStore(t *testing.T) (*Store, storage.Storage) {
	db := testutil.TestMustDB()
	t.Cleanup(func() { storage.Destroy(db.(*storage.BadgerStorage)) })

	s, err := New(db, testutil.TestPassphrase, testutil.GetLogger())
	require.NoError(t, err)

	return s, db
}

func TestReplaceAllEncryptsSecrets(t *testing.T) {
	s, db := newTestStore(t)
	wallets := testutil.TestWallets(3)

	require.NoError(t, s.ReplaceAll(wallets))

	items, err := db.GetByPrefix(schema.WalletGenerationPrefix(1))
	require.NoError(t, err)
	require.Len(t, items, 3)

	for i, item := range items {
		assert.NotContains(t, string(item.Value), wallets[i].SecretKey, "secret key must not be stored in plaintext")
		assert.NotContains(t, string(item.Value), "abandon", "recovery phrase must not be stored in plaintext")
	}

	loaded, err := s.LoadAll()
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	for i, w := range loaded {
		assert.Equal(t, wallets[i].Index, w.Index)
		assert.Equal(t, wallets[i].SecretKey, w.SecretKey)
		assert.Equal(t, wallets[i].RecoveryPhrase, w.RecoveryPhrase)
	}

	// in memory records keep their plaintext
	assert.False(t, IsEncrypted(wallets[0].SecretKey))
}

func TestReplaceAllDiscardsPreviousSet(t *testing.T) {
	s, db := newTestStore(t)

	require.NoError(t, s.ReplaceAll(testutil.TestWallets(5)))
	require.NoError(t, s.ReplaceAll(testutil.TestWallets(2)))

	loaded, err := s.LoadAll()
	require.NoError(t, err)
	assert.Len(t, loaded, 2)

	total, err := db.CountKeysByPrefix(schema.WalletGenerationPrefix(1))
	require.NoError(t, err)
	assert.Zero(t, total, "previous generation should be purged")

	count, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestReplaceAllRejectsDuplicateIndex(t *testing.T) {
	s, _ := newTestStore(t)
	wallets := testutil.TestWallets(2)
	wallets[1].Index = 0

	err := s.ReplaceAll(wallets)
	assert.True(t, model.IsCode(err, model.PersistenceError))
}

func TestUpdatePersistsSingleRecord(t *testing.T) {
	s, _ := newTestStore(t)
	wallets := testutil.TestWallets(2)
	require.NoError(t, s.ReplaceAll(wallets))

	err := s.Update(wallets[1], func(w *model.Wallet) error {
		w.MarkCompleted("Monad")
		w.Balance = decimal.RequireFromString("0.25")
		return nil
	})
	require.NoError(t, err)

	loaded, err := s.LoadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"Monad"}, loaded[1].CompletedTasks)
	assert.Equal(t, "0.25", loaded[1].Balance.String())
	assert.Empty(t, loaded[0].CompletedTasks)
}

type failingSetMany struct {
	storage.Storage
}

func (failingSetMany) SetMany(map[string][]byte) error {
	return errors.New("disk full")
}

func TestUpdateManyPersistsTogether(t *testing.T) {
	s, _ := newTestStore(t)
	wallets := testutil.TestWallets(3)
	require.NoError(t, s.ReplaceAll(wallets))

	from, to := wallets[0], wallets[2]
	err := s.UpdateMany([]*model.Wallet{from, to}, func() error {
		from.Balance = decimal.RequireFromString("-1")
		to.Balance = decimal.RequireFromString("0.999")
		return nil
	})
	require.NoError(t, err)

	loaded, err := s.LoadAll()
	require.NoError(t, err)
	assert.Equal(t, "-1", loaded[0].Balance.String())
	assert.True(t, loaded[1].Balance.IsZero())
	assert.Equal(t, "0.999", loaded[2].Balance.String())
}

func TestUpdateManyRollsBackOnWriteFailure(t *testing.T) {
	db := testutil.TestMustDB()
	t.Cleanup(func() { storage.Destroy(db.(*storage.BadgerStorage)) })

	s, err := New(failingSetMany{db}, testutil.TestPassphrase, testutil.GetLogger())
	require.NoError(t, err)

	wallets := testutil.TestWallets(2)
	wallets[0].Balance = decimal.NewFromInt(5)
	require.NoError(t, s.ReplaceAll(wallets))

	err = s.UpdateMany(wallets, func() error {
		wallets[0].Balance = decimal.Zero
		wallets[1].Balance = decimal.NewFromInt(5)
		wallets[1].MarkCompleted("Monad")
		return nil
	})
	require.Error(t, err)
	assert.True(t, model.IsCode(err, model.PersistenceError))

	assert.Equal(t, "5", wallets[0].Balance.String())
	assert.True(t, wallets[1].Balance.IsZero())
	assert.Empty(t, wallets[1].CompletedTasks)

	loaded, err := s.LoadAll()
	require.NoError(t, err)
	assert.Equal(t, "5", loaded[0].Balance.String())
	assert.True(t, loaded[1].Balance.IsZero())
}

func TestUpdateRollsBackOnMutateError(t *testing.T) {
	s, _ := newTestStore(t)
	wallets := testutil.TestWallets(1)
	require.NoError(t, s.ReplaceAll(wallets))

	err := s.Update(wallets[0], func(w *model.Wallet) error {
		w.MarkCompleted("Monad")
		return errors.New("rejected")
	})
	require.Error(t, err)
	assert.Empty(t, wallets[0].CompletedTasks)
}

func TestSnapshotIsDetached(t *testing.T) {
	s, _ := newTestStore(t)
	wallets := testutil.TestWallets(2)
	require.NoError(t, s.ReplaceAll(wallets))

	copies := s.Snapshot(wallets)
	require.Len(t, copies, 2)
	assert.NotSame(t, wallets[0], copies[0])

	require.NoError(t, s.Update(wallets[0], func(w *model.Wallet) error {
		w.MarkCompleted("Monad")
		return nil
	}))
	assert.Empty(t, copies[0].CompletedTasks)

	copies[1].Balance = decimal.NewFromInt(9)
	assert.True(t, wallets[1].Balance.IsZero())
}

func TestSnapshotWhileUpdating(t *testing.T) {
	s, _ := newTestStore(t)
	wallets := testutil.TestWallets(4)
	require.NoError(t, s.ReplaceAll(wallets))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			for _, w := range wallets {
				err := s.Update(w, func(w *model.Wallet) error {
					w.MarkCompleted(fmt.Sprintf("net-%d", i))
					w.Balance = w.Balance.Add(decimal.NewFromInt(1))
					return nil
				})
				assert.NoError(t, err)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			for _, w := range s.Snapshot(wallets) {
				_ = w.Redacted()
			}
		}
	}()
	wg.Wait()

	for _, w := range s.Snapshot(wallets) {
		assert.Len(t, w.CompletedTasks, 50)
		assert.Equal(t, "50", w.Balance.String())
	}
}

func TestLoadAllFallsBackToStoredValueOnDecryptFailure(t *testing.T) {
	s, db := newTestStore(t)
	require.NoError(t, s.ReplaceAll(testutil.TestWallets(2)))

	// a record written with another key
	other, err := NewFieldCipher("another passphrase", bytes.Repeat([]byte{1}, SaltLength))
	require.NoError(t, err)
	foreign, err := other.Encrypt("foreign secret")
	require.NoError(t, err)

	w := testutil.TestWallets(1)[0]
	w.Index = 1
	w.SecretKey = foreign
	data, err := json.Marshal(w)
	require.NoError(t, err)
	require.NoError(t, db.Set([]byte(schema.WalletStorageKey(1, 1)), data))

	loaded, err := s.LoadAll()
	require.NoError(t, err, "a broken field must not abort the load")
	require.Len(t, loaded, 2)
	assert.Equal(t, foreign, loaded[1].SecretKey)
	assert.Equal(t, w.RecoveryPhrase, loaded[1].RecoveryPhrase)
	assert.Equal(t, testutil.TestWallets(1)[0].SecretKey, loaded[0].SecretKey)
}

func TestClosedStorageIsPersistenceError(t *testing.T) {
	s, db := newTestStore(t)
	db.Close()

	_, err := s.LoadAll()
	assert.True(t, model.IsCode(err, model.PersistenceError))

	err = s.ReplaceAll(testutil.TestWallets(1))
	assert.True(t, model.IsCode(err, model.PersistenceError))
}

func TestReserveIndexesNeverReuses(t *testing.T) {
	s, _ := newTestStore(t)

	start, err := s.ReserveIndexes(10, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), start)

	require.NoError(t, s.Clear())

	start, err = s.ReserveIndexes(5, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), start, "a clear must not rewind the index counter")

	start, err = s.ReserveIndexes(1, 40)
	require.NoError(t, err)
	assert.Equal(t, uint64(40), start)
}

func TestSaltSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	db, err := storage.NewWithPath(dir)
	require.NoError(t, err)

	s, err := New(db, testutil.TestPassphrase, testutil.GetLogger())
	require.NoError(t, err)
	require.NoError(t, s.ReplaceAll(testutil.TestWallets(1)))
	require.NoError(t, db.Close())

	db, err = storage.NewWithPath(dir)
	require.NoError(t, err)
	defer db.Close()

	s, err = New(db, testutil.TestPassphrase, testutil.GetLogger())
	require.NoError(t, err)
	loaded, err := s.LoadAll()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, testutil.TestWallets(1)[0].SecretKey, loaded[0].SecretKey)
}

func TestExportRedactsSecrets(t *testing.T) {
	s, _ := newTestStore(t)
	wallets := testutil.TestWallets(2)
	require.NoError(t, s.ReplaceAll(wallets))

	var buf bytes.Buffer
	n, err := s.WriteExport(&buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var doc Export
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.NotEmpty(t, doc.Version)
	require.Len(t, doc.Wallets, 2)
	assert.Equal(t, model.RedactedMarker, doc.Wallets[0].SecretKey)
	assert.Equal(t, model.RedactedMarker, doc.Wallets[1].RecoveryPhrase)
	assert.False(t, strings.Contains(buf.String(), wallets[0].SecretKey))
}

func TestDumpAndRestoreCollections(t *testing.T) {
	src, _ := newTestStore(t)
	wallets := testutil.TestWallets(4)
	wallets[2].MarkCompleted("Monad")
	require.NoError(t, src.ReplaceAll(wallets))

	data, err := src.DumpCollections()
	require.NoError(t, err)
	assert.Len(t, data[WalletsCollection], 4)
	assert.NotEmpty(t, data[SettingsCollection])

	dst, _ := newTestStore(t)
	require.NoError(t, dst.RestoreCollections(testutil.TestPassphrase, data))

	restored, err := dst.LoadAll()
	require.NoError(t, err)
	require.Len(t, restored, 4)
	for i, w := range restored {
		assert.Equal(t, wallets[i].SecretKey, w.SecretKey)
		assert.Equal(t, wallets[i].RecoveryPhrase, w.RecoveryPhrase)
		assert.Equal(t, wallets[i].CompletedTasks, w.CompletedTasks)
	}

	start, err := dst.ReserveIndexes(1, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), start)

	err = dst.RestoreCollections(testutil.TestPassphrase, map[string][]json.RawMessage{"tasks": nil})
	assert.True(t, model.IsCode(err, model.ValidationError))
}

func TestLoadAllWhileRestoring(t *testing.T) {
	s, _ := newTestStore(t)
	wallets := testutil.TestWallets(3)
	require.NoError(t, s.ReplaceAll(wallets))

	data, err := s.DumpCollections()
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 10; i++ {
			assert.NoError(t, s.RestoreCollections(testutil.TestPassphrase, data))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			loaded, err := s.LoadAll()
			if !assert.NoError(t, err) {
				return
			}
			// the set may be mid swap, whatever is read decrypts
			for _, w := range loaded {
				assert.Equal(t, wallets[w.Index].SecretKey, w.SecretKey)
			}
		}
	}()
	wg.Wait()

	loaded, err := s.LoadAll()
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	assert.Equal(t, wallets[2].RecoveryPhrase, loaded[2].RecoveryPhrase)
}
