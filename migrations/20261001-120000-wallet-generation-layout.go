package migrations

import (
	"fmt"

	"github.com/AvaProtocol/ap-airdrop/model"
	"github.com/AvaProtocol/ap-airdrop/storage"
	"github.com/AvaProtocol/ap-airdrop/storage/schema"
)

// LegacyWalletPrefix is the flat layout databases used before wallet
// generations: one wallet:<index> record per wallet
const LegacyWalletPrefix = "wallet:"

// WalletGenerationLayout moves flat wallet records into the current generation.
// Records keep their stored form, secrets stay encrypted with the same salt. A
// record already present in the generation wins over its legacy copy. The next
// index counter is raised past every moved wallet.
func WalletGenerationLayout(db storage.Storage) (int, error) {
	items, err := db.GetByPrefix([]byte(LegacyWalletPrefix))
	if err != nil {
		return 0, fmt.Errorf("cannot read legacy wallets: %w", err)
	}
	if len(items) == 0 {
		return 0, nil
	}

	gen, err := db.GetCounter([]byte(schema.WalletGenerationKey), 0)
	if err != nil {
		return 0, err
	}

	updates := make(map[string][]byte, len(items))
	var nextIndex uint64
	for _, item := range items {
		w := &model.Wallet{}
		if err := w.FromStorageData(item.Value); err != nil {
			return 0, fmt.Errorf("legacy wallet %s is corrupted: %w", item.Key, err)
		}
		nextIndex = max(nextIndex, w.Index+1)

		key := schema.WalletStorageKey(gen, w.Index)
		if exists, err := db.Exist([]byte(key)); err != nil {
			return 0, err
		} else if exists {
			continue
		}
		updates[key] = item.Value
	}

	if len(updates) > 0 {
		if err := db.BatchWrite(updates); err != nil {
			return 0, fmt.Errorf("cannot write migrated wallets: %w", err)
		}
	}

	counter, err := db.GetCounter([]byte(schema.WalletNextIndexKey), 0)
	if err != nil {
		return 0, err
	}
	if nextIndex > counter {
		if err := db.SetCounter([]byte(schema.WalletNextIndexKey), nextIndex); err != nil {
			return 0, err
		}
	}

	if _, err := db.DeleteByPrefix([]byte(LegacyWalletPrefix)); err != nil {
		return 0, fmt.Errorf("cannot remove legacy wallets: %w", err)
	}

	return len(updates), nil
}
