// Package walletstore persists wallet records on top of the key-value storage.
// The secret key and recovery phrase of every record are encrypted before they
// are written and decrypted on the way back.
package walletstore

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	sdklogging "github.com/Layr-Labs/eigensdk-go/logging"

	"github.com/AvaProtocol/ap-airdrop/model"
	applog "github.com/AvaProtocol/ap-airdrop/pkg/logger"
	"github.com/AvaProtocol/ap-airdrop/storage"
	"github.com/AvaProtocol/ap-airdrop/storage/schema"
)

const (
	StorageUnavailableError = "storage is not ready"
	StorageWriteError       = "cannot write to storage"
	StorageReadError        = "cannot read from storage"

	SaltSetting = "cipher_salt"
)

// Store is the encrypted wallet collection. ReplaceAll, Update and Clear are
// serialized by a single lock so a bulk replace never interleaves with another
// write. Wallets handed to Update are only mutated under that lock, Snapshot
// copies them under it too.
type Store struct {
	db     storage.Storage
	logger sdklogging.Logger

	lock sync.Mutex

	// a restore swaps the cipher while LoadAll may be decrypting
	cipherMu sync.RWMutex
	cipher   *FieldCipher
}

// New opens the wallet store. The cipher salt is created on first use and kept in
// the settings collection.
func New(db storage.Storage, passphrase string, logger sdklogging.Logger) (*Store, error) {
	if db == nil {
		return nil, model.NewError(model.PersistenceError, StorageUnavailableError)
	}

	s := &Store{
		db:     db,
		logger: applog.Ensure(logger),
	}

	salt, err := s.loadOrCreateSalt()
	if err != nil {
		return nil, err
	}

	fc, err := NewFieldCipher(passphrase, salt)
	if err != nil {
		return nil, err
	}
	s.setFieldCipher(fc)

	return s, nil
}

func (s *Store) fieldCipher() *FieldCipher {
	s.cipherMu.RLock()
	defer s.cipherMu.RUnlock()

	return s.cipher
}

func (s *Store) setFieldCipher(fc *FieldCipher) {
	s.cipherMu.Lock()
	defer s.cipherMu.Unlock()

	s.cipher = fc
}

func (s *Store) loadOrCreateSalt() ([]byte, error) {
	value, err := s.Setting(SaltSetting)
	if err == nil && value != "" {
		return hex.DecodeString(value)
	}
	if err != nil && !errors.Is(err, storage.ErrKeyNotFound) {
		return nil, err
	}

	salt, err := NewSalt()
	if err != nil {
		return nil, err
	}

	if err := s.SetSetting(SaltSetting, hex.EncodeToString(salt)); err != nil {
		return nil, err
	}

	return salt, nil
}

func (s *Store) generation() (uint64, error) {
	gen, err := s.db.GetCounter([]byte(schema.WalletGenerationKey), 0)
	if err != nil {
		return 0, model.WrapError(model.PersistenceError, StorageReadError, err)
	}
	return gen, nil
}

// ReplaceAll discards every stored wallet and writes the given set. The new set is
// written under a fresh generation, the generation pointer flips in a single
// transaction, then the previous generation is purged. A reader never sees a mix
// of both sets.
func (s *Store) ReplaceAll(wallets []*model.Wallet) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	current, err := s.generation()
	if err != nil {
		return err
	}
	next := current + 1

	updates := make(map[string][]byte, len(wallets))
	for _, w := range wallets {
		key := schema.WalletStorageKey(next, w.Index)
		if _, dup := updates[key]; dup {
			return model.NewError(model.PersistenceError, fmt.Sprintf("duplicate wallet index %d", w.Index))
		}

		data, err := s.encode(w)
		if err != nil {
			return err
		}
		updates[key] = data
	}

	// leftovers of an interrupted replace
	if _, err := s.db.DeleteByPrefix(schema.WalletGenerationPrefix(next)); err != nil {
		return model.WrapError(model.PersistenceError, StorageWriteError, err)
	}

	if len(updates) > 0 {
		if err := s.db.BatchWrite(updates); err != nil {
			return model.WrapError(model.PersistenceError, StorageWriteError, err)
		}
	}

	if err := s.db.SetCounter([]byte(schema.WalletGenerationKey), next); err != nil {
		return model.WrapError(model.PersistenceError, StorageWriteError, err)
	}

	if removed, err := s.db.DeleteByPrefix(schema.WalletGenerationPrefix(current)); err != nil {
		s.logger.Warn("cannot purge previous wallet generation", "generation", current, "error", err)
	} else {
		s.logger.Debug("purged previous wallet generation", "generation", current, "removed", removed)
	}

	s.logger.Info("replaced wallet set", "wallets", len(wallets), "generation", next)
	return nil
}

// LoadAll returns every wallet ordered by index with secrets decrypted. A field
// that cannot be decrypted is returned as stored and the rest of the load goes on.
func (s *Store) LoadAll() ([]*model.Wallet, error) {
	gen, err := s.generation()
	if err != nil {
		return nil, err
	}

	items, err := s.db.GetByPrefix(schema.WalletGenerationPrefix(gen))
	if err != nil {
		return nil, model.WrapError(model.PersistenceError, StorageReadError, err)
	}

	wallets := make([]*model.Wallet, 0, len(items))
	for _, item := range items {
		w := &model.Wallet{}
		if err := w.FromStorageData(item.Value); err != nil {
			return nil, model.WrapError(model.PersistenceError, fmt.Sprintf("wallet record %s is corrupted", item.Key), err)
		}

		w.SecretKey = s.decryptField(w, "secretKey", w.SecretKey)
		w.RecoveryPhrase = s.decryptField(w, "recoveryPhrase", w.RecoveryPhrase)
		wallets = append(wallets, w)
	}

	return wallets, nil
}

// Update applies mutate to the wallet and persists that single record. The
// mutation and the write happen under the store lock so a record is never
// persisted half updated. When the write fails the wallet is put back the way it
// was.
func (s *Store) Update(w *model.Wallet, mutate func(*model.Wallet) error) error {
	return s.UpdateMany([]*model.Wallet{w}, func() error {
		if mutate == nil {
			return nil
		}
		return mutate(w)
	})
}

// UpdateMany runs mutate under the store lock and persists every wallet of ws in
// one transaction. Either all records are written or none are, and on any error
// the wallets in memory are restored to their state before mutate ran.
func (s *Store) UpdateMany(ws []*model.Wallet, mutate func() error) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	originals := make([]*model.Wallet, len(ws))
	for i, w := range ws {
		originals[i] = w.Clone()
	}
	rollback := func() {
		for i, w := range ws {
			*w = *originals[i]
		}
	}

	if mutate != nil {
		if err := mutate(); err != nil {
			rollback()
			return err
		}
	}

	gen, err := s.generation()
	if err != nil {
		rollback()
		return err
	}

	updates := make(map[string][]byte, len(ws))
	for _, w := range ws {
		data, err := s.encode(w)
		if err != nil {
			rollback()
			return err
		}
		updates[schema.WalletStorageKey(gen, w.Index)] = data
	}

	if err := s.db.SetMany(updates); err != nil {
		rollback()
		return model.WrapError(model.PersistenceError, StorageWriteError, err)
	}

	return nil
}

// Snapshot returns deep copies of ws taken under the store lock, safe to read
// while a run keeps updating the originals
func (s *Store) Snapshot(ws []*model.Wallet) []*model.Wallet {
	s.lock.Lock()
	defer s.lock.Unlock()

	copies := make([]*model.Wallet, len(ws))
	for i, w := range ws {
		copies[i] = w.Clone()
	}
	return copies
}

// Clear removes every wallet. The index counter is left alone so indexes are
// never handed out twice.
func (s *Store) Clear() error {
	return s.ReplaceAll(nil)
}

// Count returns the number of stored wallets
func (s *Store) Count() (int64, error) {
	gen, err := s.generation()
	if err != nil {
		return 0, err
	}

	total, err := s.db.CountKeysByPrefix(schema.WalletGenerationPrefix(gen))
	if err != nil {
		return 0, model.WrapError(model.PersistenceError, StorageReadError, err)
	}
	return total, nil
}

// NextIndex returns the index the next reservation would start at, without
// reserving anything
func (s *Store) NextIndex(floor uint64) (uint64, error) {
	next, err := s.db.GetCounter([]byte(schema.WalletNextIndexKey), 0)
	if err != nil {
		return 0, model.WrapError(model.PersistenceError, StorageReadError, err)
	}
	if floor > next {
		next = floor
	}
	return next, nil
}

// ReserveIndexes hands out n consecutive indexes starting at
// max(persisted counter, floor). floor lets the caller account for wallets it
// already holds in memory.
func (s *Store) ReserveIndexes(n int, floor uint64) (uint64, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	next, err := s.db.GetCounter([]byte(schema.WalletNextIndexKey), 0)
	if err != nil {
		return 0, model.WrapError(model.PersistenceError, StorageReadError, err)
	}
	if floor > next {
		next = floor
	}

	if err := s.db.SetCounter([]byte(schema.WalletNextIndexKey), next+uint64(n)); err != nil {
		return 0, model.WrapError(model.PersistenceError, StorageWriteError, err)
	}

	return next, nil
}

// Setting reads a raw setting value, storage.ErrKeyNotFound when unset
func (s *Store) Setting(name string) (string, error) {
	value, err := s.db.GetKey(schema.SettingKey(name))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return "", err
		}
		return "", model.WrapError(model.PersistenceError, StorageReadError, err)
	}
	return string(value), nil
}

func (s *Store) SetSetting(name, value string) error {
	if err := s.db.Set(schema.SettingKey(name), []byte(value)); err != nil {
		return model.WrapError(model.PersistenceError, StorageWriteError, err)
	}
	return nil
}

func (s *Store) encode(w *model.Wallet) ([]byte, error) {
	stored := w.Clone()

	var err error
	if stored.SecretKey, err = s.encryptField(w.SecretKey); err != nil {
		return nil, err
	}
	if stored.RecoveryPhrase, err = s.encryptField(w.RecoveryPhrase); err != nil {
		return nil, err
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return nil, model.WrapError(model.PersistenceError, fmt.Sprintf("cannot encode wallet %d", w.Index), err)
	}
	return data, nil
}

func (s *Store) encryptField(value string) (string, error) {
	// restored backups may hand us values that are still encrypted
	if IsEncrypted(value) {
		return value, nil
	}

	enc, err := s.fieldCipher().Encrypt(value)
	if err != nil {
		return "", model.WrapError(model.PersistenceError, "cannot encrypt wallet secret", err)
	}
	return enc, nil
}

func (s *Store) decryptField(w *model.Wallet, field, stored string) string {
	if stored == "" {
		return stored
	}

	plain, err := s.fieldCipher().Decrypt(stored)
	if err != nil {
		s.logger.Warn("cannot decrypt wallet field, returning stored value", "index", w.Index, "field", field, "error", err)
		return stored
	}
	return plain
}
