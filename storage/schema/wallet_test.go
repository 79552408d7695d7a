package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletStorageKey(t *testing.T) {
	key := WalletStorageKey(3, 42)
	assert.True(t, strings.HasPrefix(key, string(WalletGenerationPrefix(3))))

	index, err := WalletIndexFromKey([]byte(key))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), index)

	_, err = WalletIndexFromKey([]byte("s:salt"))
	assert.Error(t, err)
}

func TestWalletKeysSortByIndex(t *testing.T) {
	assert.Less(t, WalletStorageKey(1, 9), WalletStorageKey(1, 10))
}

func TestSettingKey(t *testing.T) {
	assert.Equal(t, "cipher_salt", SettingNameFromKey(SettingKey("cipher_salt")))
}
