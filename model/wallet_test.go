package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkCompleted(t *testing.T) {
	w := &Wallet{CompletedTasks: []string{}}

	assert.True(t, w.MarkCompleted("Monad"), "first insert should change the wallet")
	assert.False(t, w.MarkCompleted("Monad"), "duplicate insert should be ignored")
	assert.True(t, w.MarkCompleted("Berachain"))

	assert.Equal(t, []string{"Monad", "Berachain"}, w.CompletedTasks)
	assert.True(t, w.HasCompleted("Berachain"))
	assert.False(t, w.HasCompleted("Sepolia"))
}

func TestRedactedKeepsOriginal(t *testing.T) {
	w := &Wallet{
		Index:          3,
		Address:        "0xabc",
		SecretKey:      "deadbeef",
		RecoveryPhrase: "one two three",
		Balance:        decimal.RequireFromString("1.5"),
		CompletedTasks: []string{"Monad"},
	}

	r := w.Redacted()
	assert.Equal(t, RedactedMarker, r.SecretKey)
	assert.Equal(t, RedactedMarker, r.RecoveryPhrase)
	assert.Equal(t, "deadbeef", w.SecretKey)

	r.CompletedTasks[0] = "changed"
	assert.Equal(t, "Monad", w.CompletedTasks[0], "clone must not share the completed slice")
}

func TestWalletStorageRoundTrip(t *testing.T) {
	w := &Wallet{
		Index:        7,
		ChainVariant: ChainSolana,
		Address:      "3yZe7d",
		Balance:      decimal.RequireFromString("0.001"),
	}

	data, err := w.ToJSON()
	require.NoError(t, err)

	var got Wallet
	require.NoError(t, got.FromStorageData(data))
	assert.Equal(t, uint64(7), got.Index)
	assert.True(t, got.Balance.Equal(w.Balance))
	assert.NotNil(t, got.CompletedTasks, "completed tasks default to an empty set")
}

func TestNextIndex(t *testing.T) {
	assert.Equal(t, uint64(0), NextIndex(nil))
	assert.Equal(t, uint64(10), NextIndex([]*Wallet{{Index: 2}, {Index: 9}, {Index: 4}}))
}

func TestUniqueNetworks(t *testing.T) {
	networks := UniqueNetworks([]*Network{
		{Name: " Monad ", Tasks: []TaskKind{TaskFaucet}},
		nil,
		{Name: ""},
		{Name: "Monad", Tasks: []TaskKind{TaskSwap}},
		{Name: "Berachain"},
	})

	require.Len(t, networks, 2)
	assert.Equal(t, "Monad", networks[0].Name)
	assert.Equal(t, []TaskKind{TaskFaucet}, networks[0].Tasks)
	assert.Equal(t, []TaskKind{TaskCustom}, networks[1].Tasks, "missing tasks default to custom")
}

func TestErrorCodes(t *testing.T) {
	err := fmt.Errorf("while running: %w", NewTaskFailedError(TaskSwap, "Monad"))

	assert.True(t, IsCode(err, TaskFailedError))
	assert.False(t, IsCode(err, ValidationError))
	assert.Equal(t, TaskFailedError, GetErrorCode(err))

	e, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, TaskSwap, e.Details["kind"])

	cause := errors.New("db closed")
	wrapped := WrapError(PersistenceError, "cannot load wallets", cause)
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, ErrorCode(""), GetErrorCode(cause))
}
