package catalog

import (
	"github.com/AvaProtocol/ap-airdrop/model"
)

// DefaultNetworks is the built in catalog used when no remote one answers
func DefaultNetworks() []*model.Network {
	return []*model.Network{
		{
			Name:  "Sepolia",
			Chain: "Ethereum",
			Tasks: []model.TaskKind{model.TaskFaucet, model.TaskSwap, model.TaskNFTMint},
			Score: 8,
			RPC:   "https://rpc.sepolia.org",
			Links: []string{"https://sepoliafaucet.com"},
		},
		{
			Name:  "Holesky",
			Chain: "Ethereum",
			Tasks: []model.TaskKind{model.TaskFaucet, model.TaskStake},
			Score: 7,
			RPC:   "https://ethereum-holesky-rpc.publicnode.com",
		},
		{
			Name:  "Base Sepolia",
			Chain: "Base",
			Tasks: []model.TaskKind{model.TaskFaucet, model.TaskBridge, model.TaskSwap},
			Score: 8.5,
			RPC:   "https://sepolia.base.org",
			Links: []string{"https://bridge.base.org"},
		},
		{
			Name:  "Arbitrum Sepolia",
			Chain: "Arbitrum",
			Tasks: []model.TaskKind{model.TaskFaucet, model.TaskBridge},
			Score: 7.5,
			RPC:   "https://sepolia-rollup.arbitrum.io/rpc",
		},
		{
			Name:  "Solana Devnet",
			Chain: "Solana",
			Tasks: []model.TaskKind{model.TaskFaucet, model.TaskSwap, model.TaskNFTMint},
			Score: 6.5,
			RPC:   "https://api.devnet.solana.com",
		},
	}
}
