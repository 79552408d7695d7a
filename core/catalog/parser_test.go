package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AvaProtocol/ap-airdrop/model"
)

const pasted = `
## Monad Testnet - faucet, swaps and NFT mints
Chain: Monad
RPC: https://testnet-rpc.monad.xyz
Faucet at https://faucet.monad.xyz, trade on https://app.kuru.io
Router: 0x1111111111111111111111111111111111111111
Score: 9/10

2. Solana Devnet
Stake some SOL with a validator, then claim from the faucet.
https://api.devnet.solana.com/rpc
Token 0x2222222222222222222222222222222222222222

Name: Mystery Net
nothing to do here yet

https://only-a-link.example.com
`

func TestParseDescriptors(t *testing.T) {
	networks := ParseDescriptors(pasted)
	require.Len(t, networks, 3)

	monad := networks[0]
	assert.Equal(t, "Monad Testnet", monad.Name)
	assert.Equal(t, "Monad", monad.Chain)
	assert.Equal(t, []model.TaskKind{model.TaskFaucet, model.TaskSwap, model.TaskNFTMint}, monad.Tasks)
	assert.Equal(t, "https://testnet-rpc.monad.xyz", monad.RPC)
	assert.Equal(t, []string{"https://faucet.monad.xyz", "https://app.kuru.io"}, monad.Links)
	assert.Equal(t, map[string]string{"router": "0x1111111111111111111111111111111111111111"}, monad.ContractAddresses)
	assert.Equal(t, 9.0, monad.Score)

	solana := networks[1]
	assert.Equal(t, "Solana Devnet", solana.Name)
	assert.Equal(t, "Solana", solana.Chain)
	assert.Equal(t, []model.TaskKind{model.TaskStake, model.TaskFaucet}, solana.Tasks)
	assert.Equal(t, "https://api.devnet.solana.com/rpc", solana.RPC)
	assert.Empty(t, solana.Links)
	assert.Equal(t, map[string]string{"contract1": "0x2222222222222222222222222222222222222222"}, solana.ContractAddresses)

	mystery := networks[2]
	assert.Equal(t, "Mystery Net", mystery.Name)
	assert.Equal(t, "Unknown", mystery.Chain)
	assert.Equal(t, []model.TaskKind{model.TaskCustom}, mystery.Tasks)
	assert.Zero(t, mystery.Score)
}

func TestParseDescriptorsDeduplicates(t *testing.T) {
	networks := ParseDescriptors("Sepolia\nfaucet\n\nSepolia\nbridge")
	require.Len(t, networks, 1)
	assert.Equal(t, []model.TaskKind{model.TaskFaucet}, networks[0].Tasks)
}

func TestParseDescriptorsEmpty(t *testing.T) {
	assert.Empty(t, ParseDescriptors(""))
	assert.Empty(t, ParseDescriptors("\n\n   \n"))
}
