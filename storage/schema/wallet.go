package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Key layout
//
//	w:gen                    -> current wallet generation (counter)
//	w:<gen>:<index>          -> wallet record, sensitive fields encrypted
//	w:next_index             -> next wallet index to hand out (counter)
//	s:<name>                 -> setting value
//
// Indexes are zero padded so a prefix scan returns wallets in index order.
const (
	WalletGenerationKey = "w:gen"
	WalletNextIndexKey  = "w:next_index"

	settingPrefix = "s:"
)

// WalletGenerationPrefix returns the prefix holding every wallet of a generation
func WalletGenerationPrefix(gen uint64) []byte {
	return []byte(fmt.Sprintf("w:%d:", gen))
}

// WalletStorageKey constructs the key of a wallet record within a generation
func WalletStorageKey(gen uint64, index uint64) string {
	return fmt.Sprintf("w:%d:%020d", gen, index)
}

// WalletIndexFromKey parses the wallet index back from a storage key
func WalletIndexFromKey(key []byte) (uint64, error) {
	parts := strings.Split(string(key), ":")
	if len(parts) != 3 || parts[0] != "w" {
		return 0, fmt.Errorf("not a wallet key: %s", key)
	}

	return strconv.ParseUint(parts[2], 10, 64)
}

func SettingPrefix() []byte {
	return []byte(settingPrefix)
}

func SettingKey(name string) []byte {
	return []byte(settingPrefix + name)
}

func SettingNameFromKey(key []byte) string {
	return strings.TrimPrefix(string(key), settingPrefix)
}
