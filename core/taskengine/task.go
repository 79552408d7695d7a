package taskengine

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/AvaProtocol/ap-airdrop/core/sim"
	"github.com/AvaProtocol/ap-airdrop/model"
)

const (
	MinTaskLatency = 2 * time.Second
	MaxTaskLatency = 5 * time.Second

	MinTaskPause = 1 * time.Second
	MaxTaskPause = 3 * time.Second

	// DelaySpread randomizes the network and wallet delays by +/-30%
	DelaySpread = 0.3
)

// SuccessRates is the probability for a task kind to succeed on one invocation
var SuccessRates = map[model.TaskKind]float64{
	model.TaskFaucet:  0.90,
	model.TaskSwap:    0.85,
	model.TaskBridge:  0.90,
	model.TaskNFTMint: 0.90,
	model.TaskStake:   0.85,
	model.TaskCustom:  0.80,
}

type amountRange struct {
	min, max decimal.Decimal
}

var (
	defaultAmounts = amountRange{decimal.RequireFromString("0.001"), decimal.RequireFromString("0.01")}
	wideAmounts    = amountRange{decimal.RequireFromString("0.0005"), decimal.RequireFromString("0.02")}
)

// TaskResult describes a simulated transaction
type TaskResult struct {
	Kind    model.TaskKind
	Network string
	Wallet  uint64
	Amount  decimal.Decimal
	TxHash  string
	Latency time.Duration
}

func movesFunds(kind model.TaskKind) bool {
	return kind == model.TaskSwap || kind == model.TaskBridge
}

// simulateTask waits for the confirmation latency then draws the outcome. The
// latency wait ignores cancellation so a submitted transaction always settles.
func simulateTask(ctx context.Context, src sim.Source, network *model.Network, wallet *model.Wallet, kind model.TaskKind, randomizeGas bool) (*TaskResult, error) {
	result := &TaskResult{
		Kind:    kind,
		Network: network.Name,
		Wallet:  wallet.Index,
		Amount:  decimal.Zero,
		Latency: sim.Between(src, MinTaskLatency, MaxTaskLatency),
	}

	if movesFunds(kind) {
		r := defaultAmounts
		if randomizeGas {
			r = wideAmounts
		}
		result.Amount = sim.Amount(src, r.min, r.max)
	}

	// the error can only be a cancellation which the latency wait does not honor
	_ = src.Sleep(context.WithoutCancel(ctx), result.Latency)

	if !sim.Chance(src, SuccessRates[kind]) {
		return result, model.NewTaskFailedError(kind, network.Name)
	}

	result.TxHash = crypto.Keccak256Hash([]byte(fmt.Sprintf("%s:%s:%s:%s", network.Name, wallet.Address, kind, ulid.Make()))).Hex()
	return result, nil
}
