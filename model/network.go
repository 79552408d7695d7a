package model

import (
	"strings"

	"github.com/samber/lo"
)

type TaskKind string

const (
	TaskFaucet  TaskKind = "faucet"
	TaskSwap    TaskKind = "swap"
	TaskBridge  TaskKind = "bridge"
	TaskNFTMint TaskKind = "nft_mint"
	TaskStake   TaskKind = "stake"
	TaskCustom  TaskKind = "custom"
)

var KnownTaskKinds = []TaskKind{TaskFaucet, TaskSwap, TaskBridge, TaskNFTMint, TaskStake, TaskCustom}

func (k TaskKind) IsKnown() bool {
	return lo.Contains(KnownTaskKinds, k)
}

// Network describes one testnet and the ordered list of tasks to run on it for
// every wallet. Score, RPC, Links and ContractAddresses are informational only.
type Network struct {
	Name              string            `json:"name"`
	Chain             string            `json:"chain"`
	Tasks             []TaskKind        `json:"tasks"`
	Score             float64           `json:"score,omitempty"`
	RPC               string            `json:"rpc,omitempty"`
	Links             []string          `json:"links,omitempty"`
	ContractAddresses map[string]string `json:"contractAddresses,omitempty"`
}

// Normalize trims the name and falls back to a single custom task when none are
// listed
func (n *Network) Normalize() {
	n.Name = strings.TrimSpace(n.Name)
	n.Chain = strings.TrimSpace(n.Chain)

	n.Tasks = lo.Filter(n.Tasks, func(k TaskKind, _ int) bool {
		return strings.TrimSpace(string(k)) != ""
	})
	if len(n.Tasks) == 0 {
		n.Tasks = []TaskKind{TaskCustom}
	}
}

// UniqueNetworks normalizes the list and drops nameless entries and later
// duplicates of a name, keeping the original order
func UniqueNetworks(networks []*Network) []*Network {
	valid := lo.Filter(networks, func(n *Network, _ int) bool {
		if n == nil {
			return false
		}
		n.Normalize()
		return n.Name != ""
	})

	return lo.UniqBy(valid, func(n *Network) string {
		return n.Name
	})
}
