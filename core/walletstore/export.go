package walletstore

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/AvaProtocol/ap-airdrop/model"
	"github.com/AvaProtocol/ap-airdrop/storage/schema"
	"github.com/AvaProtocol/ap-airdrop/version"
)

const (
	WalletsCollection  = "wallets"
	SettingsCollection = "settings"
)

// Export is the one way, redacted wallet document. It cannot be re-imported.
type Export struct {
	Version   string          `json:"version"`
	Timestamp time.Time       `json:"timestamp"`
	Wallets   []*model.Wallet `json:"wallets"`
}

type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// NewExport builds the redacted export of the given wallets
func NewExport(wallets []*model.Wallet) *Export {
	redacted := make([]*model.Wallet, len(wallets))
	for i, w := range wallets {
		redacted[i] = w.Redacted()
	}

	return &Export{
		Version:   version.Get(),
		Timestamp: time.Now().UTC(),
		Wallets:   redacted,
	}
}

// WriteExport writes the redacted export of every stored wallet
func (s *Store) WriteExport(w io.Writer) (int, error) {
	wallets, err := s.LoadAll()
	if err != nil {
		return 0, err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewExport(wallets)); err != nil {
		return 0, fmt.Errorf("cannot write export: %w", err)
	}

	return len(wallets), nil
}

// DumpCollections returns every persisted collection in its stored form. Wallet
// secrets stay encrypted, the settings carry the salt needed to read them back.
func (s *Store) DumpCollections() (map[string][]json.RawMessage, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	gen, err := s.generation()
	if err != nil {
		return nil, err
	}

	walletItems, err := s.db.GetByPrefix(schema.WalletGenerationPrefix(gen))
	if err != nil {
		return nil, model.WrapError(model.PersistenceError, StorageReadError, err)
	}

	settingItems, err := s.db.GetByPrefix(schema.SettingPrefix())
	if err != nil {
		return nil, model.WrapError(model.PersistenceError, StorageReadError, err)
	}

	data := map[string][]json.RawMessage{
		WalletsCollection:  make([]json.RawMessage, 0, len(walletItems)),
		SettingsCollection: make([]json.RawMessage, 0, len(settingItems)),
	}

	for _, item := range walletItems {
		data[WalletsCollection] = append(data[WalletsCollection], json.RawMessage(item.Value))
	}

	for _, item := range settingItems {
		raw, err := json.Marshal(&Setting{Key: schema.SettingNameFromKey(item.Key), Value: string(item.Value)})
		if err != nil {
			return nil, err
		}
		data[SettingsCollection] = append(data[SettingsCollection], raw)
	}

	return data, nil
}

// RestoreCollections fully replaces each named collection. Settings are restored
// first and the cipher is rebuilt from the restored salt, so the restored wallets
// decrypt with the same passphrase they were written with.
func (s *Store) RestoreCollections(passphrase string, data map[string][]json.RawMessage) error {
	for name := range data {
		if name != WalletsCollection && name != SettingsCollection {
			return model.NewValidationError("unknown collection %q in backup", name)
		}
	}

	if settings, ok := data[SettingsCollection]; ok {
		if err := s.restoreSettings(passphrase, settings); err != nil {
			return err
		}
	}

	if items, ok := data[WalletsCollection]; ok {
		wallets := make([]*model.Wallet, 0, len(items))
		for i, raw := range items {
			w := &model.Wallet{}
			if err := w.FromStorageData(raw); err != nil {
				return model.NewValidationError("wallet entry %d in backup is invalid: %v", i, err)
			}
			wallets = append(wallets, w)
		}

		if err := s.ReplaceAll(wallets); err != nil {
			return err
		}

		// keep the index counter ahead of the restored set
		if _, err := s.ReserveIndexes(0, model.NextIndex(wallets)); err != nil {
			return err
		}
	}

	return nil
}

func (s *Store) restoreSettings(passphrase string, items []json.RawMessage) error {
	settings := make([]*Setting, 0, len(items))
	for i, raw := range items {
		setting := &Setting{}
		if err := json.Unmarshal(raw, setting); err != nil || setting.Key == "" {
			return model.NewValidationError("setting entry %d in backup is invalid", i)
		}
		settings = append(settings, setting)
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if _, err := s.db.DeleteByPrefix(schema.SettingPrefix()); err != nil {
		return model.WrapError(model.PersistenceError, StorageWriteError, err)
	}

	updates := make(map[string][]byte, len(settings))
	for _, setting := range settings {
		updates[string(schema.SettingKey(setting.Key))] = []byte(setting.Value)
	}
	if len(updates) > 0 {
		if err := s.db.BatchWrite(updates); err != nil {
			return model.WrapError(model.PersistenceError, StorageWriteError, err)
		}
	}

	salt, err := s.loadOrCreateSalt()
	if err != nil {
		return err
	}

	fc, err := NewFieldCipher(passphrase, salt)
	if err != nil {
		return err
	}
	s.setFieldCipher(fc)

	return nil
}
