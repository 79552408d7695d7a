package model

import (
	"encoding/json"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type ChainVariant string

const (
	ChainEVM    ChainVariant = "evm"
	ChainSolana ChainVariant = "solana"
)

// RedactedMarker replaces sensitive fields in exports
const RedactedMarker = "[REDACTED]"

func (c ChainVariant) IsSupported() bool {
	return c == ChainEVM || c == ChainSolana
}

// Wallet is one generated identity. SecretKey and RecoveryPhrase are held in
// plaintext in memory only, the store encrypts them before they hit disk.
type Wallet struct {
	Index          uint64          `json:"index"`
	ChainVariant   ChainVariant    `json:"chainVariant"`
	Address        string          `json:"address"`
	SecretKey      string          `json:"secretKey"`
	RecoveryPhrase string          `json:"recoveryPhrase"`
	CreatedAt      time.Time       `json:"createdAt"`
	Balance        decimal.Decimal `json:"balance"`
	CompletedTasks []string        `json:"completedTasks"`
}

// HasCompleted reports whether the network name is already recorded for this wallet
func (w *Wallet) HasCompleted(network string) bool {
	return lo.Contains(w.CompletedTasks, network)
}

// MarkCompleted appends the network name unless it is already present. It returns
// false when nothing changed.
func (w *Wallet) MarkCompleted(network string) bool {
	if w.HasCompleted(network) {
		return false
	}

	w.CompletedTasks = append(w.CompletedTasks, network)
	return true
}

// Redacted returns a copy suitable for export, sensitive fields are replaced
func (w *Wallet) Redacted() *Wallet {
	c := w.Clone()
	c.SecretKey = RedactedMarker
	c.RecoveryPhrase = RedactedMarker

	return c
}

func (w *Wallet) Clone() *Wallet {
	c := *w
	c.CompletedTasks = append([]string{}, w.CompletedTasks...)

	return &c
}

// Return a compact json ready to persist to storage
func (w *Wallet) ToJSON() ([]byte, error) {
	return json.Marshal(w)
}

func (w *Wallet) FromStorageData(body []byte) error {
	if err := json.Unmarshal(body, w); err != nil {
		return err
	}

	if w.CompletedTasks == nil {
		w.CompletedTasks = []string{}
	}

	return nil
}

// NextIndex returns max(index)+1 over the given wallets, or 0 for an empty set
func NextIndex(wallets []*Wallet) uint64 {
	if len(wallets) == 0 {
		return 0
	}

	last := lo.MaxBy(wallets, func(a, b *Wallet) bool {
		return a.Index > b.Index
	})

	return last.Index + 1
}
