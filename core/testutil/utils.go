package testutil

import (
	"fmt"
	"os"
	"strings"
	"time"

	sdklogging "github.com/Layr-Labs/eigensdk-go/logging"
	"github.com/shopspring/decimal"

	"github.com/AvaProtocol/ap-airdrop/model"
	"github.com/AvaProtocol/ap-airdrop/storage"
)

const TestPassphrase = "correct horse battery staple"

// Shortcut to initialize a storage at the given path, panic if we cannot create db
func TestMustDB() storage.Storage {
	dir, err := os.MkdirTemp("", "aptest")
	if err != nil {
		panic(err)
	}

	db, err := storage.NewWithPath(dir)
	if err != nil {
		panic(err)
	}
	return db
}

func GetLogger() sdklogging.Logger {
	logger, err := sdklogging.NewZapLogger("development")
	if err != nil {
		panic(err)
	}
	return logger
}

// TestWallets builds n evm wallets with deterministic fields, indexes start at 0
func TestWallets(n int) []*model.Wallet {
	wallets := make([]*model.Wallet, n)
	for i := range wallets {
		wallets[i] = &model.Wallet{
			Index:          uint64(i),
			ChainVariant:   model.ChainEVM,
			Address:        fmt.Sprintf("0x%040x", i+1),
			SecretKey:      strings.Repeat(fmt.Sprintf("%x", i%16), 64),
			RecoveryPhrase: "abandon ability able about above absent absorb abstract absurd abuse access accident",
			CreatedAt:      time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
			Balance:        decimal.Zero,
			CompletedTasks: []string{},
		}
	}

	return wallets
}

// TestNetworks builds networks named net-0..net-(n-1) that each run the given tasks
func TestNetworks(n int, tasks ...model.TaskKind) []*model.Network {
	if len(tasks) == 0 {
		tasks = []model.TaskKind{model.TaskFaucet}
	}

	networks := make([]*model.Network, n)
	for i := range networks {
		networks[i] = &model.Network{
			Name:  fmt.Sprintf("net-%d", i),
			Chain: "Ethereum",
			Tasks: append([]model.TaskKind{}, tasks...),
		}
	}

	return networks
}
