// Package generator creates wallet identities in fixed size batches. Between
// batches it reports progress and pauses so a long generation stays observable
// and can be cancelled.
package generator

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	sdklogging "github.com/Layr-Labs/eigensdk-go/logging"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/AvaProtocol/ap-airdrop/core/notify"
	"github.com/AvaProtocol/ap-airdrop/core/sim"
	"github.com/AvaProtocol/ap-airdrop/metrics"
	"github.com/AvaProtocol/ap-airdrop/model"
	applog "github.com/AvaProtocol/ap-airdrop/pkg/logger"
)

const (
	BatchSize = 100
	MinCount  = 1
	MaxCount  = 20000

	// BatchPause is the cooperative pause between two batches
	BatchPause = 10 * time.Millisecond
)

// Store is the part of the wallet store the generator needs
type Store interface {
	ReplaceAll(wallets []*model.Wallet) error
	NextIndex(floor uint64) (uint64, error)
	ReserveIndexes(n int, floor uint64) (uint64, error)
}

// countRule is checked on its own so the bounds live in MinCount and MaxCount
var countRule = fmt.Sprintf("min=%d,max=%d", MinCount, MaxCount)

type Request struct {
	Count   int
	Variant model.ChainVariant `validate:"required"`
}

type Generator struct {
	store    Store
	notifier notify.Notifier
	logger   sdklogging.Logger
	metrics  metrics.Recorder
	src      sim.Source

	derivers map[model.ChainVariant]AddressDeriver
	words    []string
	entropy  io.Reader
	now      func() time.Time
	validate *validator.Validate

	// one generation at a time, the index range is read before it is reserved
	lock sync.Mutex
}

type Option func(*Generator)

// WithEntropy replaces crypto/rand as the source of secrets and phrases
func WithEntropy(r io.Reader) Option {
	return func(g *Generator) { g.entropy = r }
}

func WithSource(src sim.Source) Option {
	return func(g *Generator) { g.src = src }
}

func WithMetrics(m metrics.Recorder) Option {
	return func(g *Generator) { g.metrics = metrics.Ensure(m) }
}

func WithDeriver(variant model.ChainVariant, d AddressDeriver) Option {
	return func(g *Generator) { g.derivers[variant] = d }
}

func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

func New(store Store, notifier notify.Notifier, logger sdklogging.Logger, opts ...Option) *Generator {
	g := &Generator{
		store:    store,
		notifier: notify.Ensure(notifier),
		logger:   applog.Ensure(logger),
		metrics:  metrics.Noop(),
		src:      sim.Default(),
		derivers: DefaultDerivers(),
		words:    wordList(),
		entropy:  rand.Reader,
		now:      time.Now,
		validate: validator.New(),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

func (g *Generator) check(req *Request) error {
	if err := g.validate.Var(req.Count, countRule); err != nil {
		return model.NewValidationError("wallet count must be between %d and %d, got %d", MinCount, MaxCount, req.Count)
	}

	if err := g.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Field() == "Variant" {
			return model.NewError(model.UnsupportedChainError, "missing chain variant")
		}
		return model.NewValidationError("invalid generate request: %v", err)
	}

	if _, ok := g.derivers[req.Variant]; !ok || !req.Variant.IsSupported() {
		return model.NewError(
			model.UnsupportedChainError,
			fmt.Sprintf("unsupported chain variant %q", req.Variant),
			map[string]any{"variant": req.Variant},
		)
	}

	return nil
}

// Generate creates count wallets of the given variant, appends them to existing
// and persists the full set. It returns the full set. On error nothing new is
// persisted and existing is returned untouched.
func (g *Generator) Generate(ctx context.Context, existing []*model.Wallet, count int, variant model.ChainVariant) ([]*model.Wallet, error) {
	req := &Request{Count: count, Variant: variant}
	if err := g.check(req); err != nil {
		return nil, err
	}

	g.lock.Lock()
	defer g.lock.Unlock()

	start, err := g.store.NextIndex(model.NextIndex(existing))
	if err != nil {
		return nil, err
	}

	g.logger.Info("generating wallets", "count", count, "variant", variant, "first_index", start)
	g.notifier.Log(notify.Info, fmt.Sprintf("Generating %d %s wallets", count, variant))

	created := make([]*model.Wallet, 0, count)
	for done := 0; done < count; {
		size := min(BatchSize, count-done)

		batch, err := g.generateBatch(variant, start+uint64(done), size)
		if err != nil {
			return nil, err
		}

		created = append(created, batch...)
		done += size

		g.notifier.Progress(int(math.Round(float64(done) / float64(count) * 100)))

		if err := g.src.Sleep(ctx, BatchPause); err != nil {
			g.logger.Warn("wallet generation cancelled", "generated", done, "requested", count)
			return nil, fmt.Errorf("wallet generation cancelled: %w", err)
		}
	}

	all := make([]*model.Wallet, 0, len(existing)+len(created))
	all = append(all, existing...)
	all = append(all, created...)

	// the counter moves first, a failed replace then only skips indexes
	reserved, err := g.store.ReserveIndexes(count, start)
	if err == nil && reserved != start {
		err = model.NewError(model.PersistenceError, fmt.Sprintf("index range moved from %d to %d while generating", start, reserved))
	}
	if err != nil {
		g.logger.Error("cannot reserve wallet indexes", "first_index", start, "count", count, "error", err)
		g.notifier.Toast(notify.Error, "Generation failed", err.Error())
		return nil, err
	}

	if err := g.store.ReplaceAll(all); err != nil {
		g.notifier.Toast(notify.Error, "Generation failed", err.Error())
		return nil, err
	}

	g.metrics.AddWalletsGenerated(string(variant), count)
	g.notifier.Toast(notify.Success, "Generation complete", fmt.Sprintf("%d %s wallets generated", count, variant))
	g.logger.Info("generated wallets", "count", count, "variant", variant, "total", len(all))

	return all, nil
}

func (g *Generator) generateBatch(variant model.ChainVariant, firstIndex uint64, size int) ([]*model.Wallet, error) {
	deriver := g.derivers[variant]
	batch := make([]*model.Wallet, size)

	for i := range batch {
		secret, err := newSecret(g.entropy)
		if err != nil {
			return nil, err
		}

		phrase, err := newPhrase(g.entropy, g.words)
		if err != nil {
			return nil, err
		}

		batch[i] = &model.Wallet{
			Index:          firstIndex + uint64(i),
			ChainVariant:   variant,
			Address:        deriver.Derive(secret),
			SecretKey:      hex.EncodeToString(secret),
			RecoveryPhrase: phrase,
			CreatedAt:      g.now().UTC(),
			Balance:        decimal.Zero,
			CompletedTasks: []string{},
		}
	}

	return batch, nil
}
