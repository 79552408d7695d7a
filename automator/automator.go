// Package automator wires the wallet store, the generator, the task engine, the
// cascade pipeline, the catalog and the backup service together. It owns the in
// memory wallet set every run works on.
package automator

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Layr-Labs/eigensdk-go/logging"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/AvaProtocol/ap-airdrop/core/backup"
	"github.com/AvaProtocol/ap-airdrop/core/cascade"
	"github.com/AvaProtocol/ap-airdrop/core/catalog"
	"github.com/AvaProtocol/ap-airdrop/core/config"
	"github.com/AvaProtocol/ap-airdrop/core/generator"
	"github.com/AvaProtocol/ap-airdrop/core/migrator"
	"github.com/AvaProtocol/ap-airdrop/core/notify"
	"github.com/AvaProtocol/ap-airdrop/core/runstate"
	"github.com/AvaProtocol/ap-airdrop/core/sim"
	"github.com/AvaProtocol/ap-airdrop/core/taskengine"
	"github.com/AvaProtocol/ap-airdrop/core/walletstore"
	"github.com/AvaProtocol/ap-airdrop/metrics"
	"github.com/AvaProtocol/ap-airdrop/migrations"
	"github.com/AvaProtocol/ap-airdrop/model"
	applog "github.com/AvaProtocol/ap-airdrop/pkg/logger"
	"github.com/AvaProtocol/ap-airdrop/storage"
	"github.com/AvaProtocol/ap-airdrop/version"
)

type Status string

const (
	initStatus     Status = "init"
	runningStatus  Status = "running"
	shutdownStatus Status = "shutdown"

	BusyError = "wallets cannot change while a task run or cascade is active"
)

type Automator struct {
	config   *config.Config
	logger   logging.Logger
	notifier notify.Notifier

	db        storage.Storage
	store     *walletstore.Store
	generator *generator.Generator
	engine    *taskengine.Engine
	cascade   *cascade.Pipeline
	catalog   *catalog.Client
	backup    *backup.Service

	registry *prometheus.Registry
	metrics  *metrics.AirdropMetrics

	walletsMu sync.RWMutex
	wallets   []*model.Wallet

	statusMu sync.RWMutex
	status   Status
	echo     *echo.Echo
}

type Option func(*options)

type options struct {
	src sim.Source
}

// WithSource replaces the randomness and clock of every simulated operation
func WithSource(src sim.Source) Option {
	return func(o *options) { o.src = src }
}

// New opens the storage at c.DbPath, applies pending migrations and builds every
// service. The stored wallets are loaded into memory.
func New(c *config.Config, notifier notify.Notifier, opts ...Option) (*Automator, error) {
	o := &options{src: sim.Default()}
	for _, opt := range opts {
		opt(o)
	}

	logger := applog.Ensure(c.Logger)
	notifier = notify.Multi(notify.NewLoggerNotifier(logger), notify.Ensure(notifier))

	db, err := storage.New(&storage.Config{Path: c.DbPath})
	if err != nil {
		return nil, model.WrapError(model.PersistenceError, fmt.Sprintf("cannot open storage at %s", c.DbPath), err)
	}

	store, err := walletstore.New(db, c.Passphrase, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	backupService := backup.NewService(logger, store, c.Passphrase, c.BackupDir)
	if err := migrator.NewMigrator(db, backupService, logger, migrations.Migrations).Run(); err != nil {
		db.Close()
		return nil, err
	}

	wallets, err := store.LoadAll()
	if err != nil {
		db.Close()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	cache, err := catalog.NewCache(c.CatalogCacheTTL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot create catalog cache: %w", err)
	}

	a := &Automator{
		config:   c,
		logger:   logger,
		notifier: notifier,

		db:        db,
		store:     store,
		generator: generator.New(store, notifier, logger, generator.WithSource(o.src), generator.WithMetrics(m)),
		engine:    taskengine.New(store, o.src, notifier, logger, m),
		cascade:   cascade.New(store, o.src, notifier, logger, m),
		catalog:   catalog.New(c.CatalogURL, logger, catalog.WithCache(cache)),
		backup:    backupService,

		registry: registry,
		metrics:  m,

		wallets: wallets,
		status:  initStatus,
	}

	logger.Info("automator ready", "version", version.Get(), "db", c.DbPath, "wallets", len(wallets))
	return a, nil
}

// Wallets returns copies of the in memory wallet set ordered by index. A run
// going on keeps updating the originals, the copies never change.
func (a *Automator) Wallets() []*model.Wallet {
	return a.store.Snapshot(a.live())
}

// live returns the wallet records runs mutate through the store
func (a *Automator) live() []*model.Wallet {
	a.walletsMu.RLock()
	defer a.walletsMu.RUnlock()

	return append([]*model.Wallet{}, a.wallets...)
}

func (a *Automator) busy() bool {
	return a.engine.State() != runstate.Idle || a.cascade.State() != runstate.Idle
}

// GenerateWallets appends count new wallets of variant to the set
func (a *Automator) GenerateWallets(ctx context.Context, count int, variant model.ChainVariant) ([]*model.Wallet, error) {
	a.walletsMu.Lock()
	defer a.walletsMu.Unlock()

	all, err := a.generator.Generate(ctx, a.wallets, count, variant)
	if err != nil {
		return nil, err
	}

	created := all[len(a.wallets):]
	a.wallets = all
	return a.store.Snapshot(created), nil
}

// ClearWallets removes every wallet. Indexes are not handed out again.
func (a *Automator) ClearWallets() error {
	a.walletsMu.Lock()
	defer a.walletsMu.Unlock()

	if a.busy() {
		return model.NewValidationError(BusyError)
	}

	if err := a.store.Clear(); err != nil {
		return err
	}

	a.logger.Info("cleared wallets", "count", len(a.wallets))
	a.wallets = nil
	return nil
}

// Networks returns the catalog, narrowed by an optional filter expression
func (a *Automator) Networks(ctx context.Context, filter string) ([]*model.Network, error) {
	return catalog.Filter(a.catalog.Networks(ctx), filter)
}

// RunTasks executes every task of networks for the whole wallet set. A nil
// networks list runs the catalog. options override the configured defaults.
func (a *Automator) RunTasks(ctx context.Context, networks []*model.Network, options map[string]any) (*taskengine.RunReport, error) {
	opts, err := taskengine.DecodeOptions(a.config.Execution, options)
	if err != nil {
		return nil, err
	}

	if networks == nil {
		networks = a.catalog.Networks(ctx)
	}

	return a.engine.ExecuteAll(ctx, networks, a.live(), opts)
}

func (a *Automator) StopTasks() bool {
	return a.engine.Stop()
}

func (a *Automator) TaskStats() model.ExecutionStats {
	return a.engine.Stats()
}

func (a *Automator) Engine() *taskengine.Engine {
	return a.engine
}

// FundForward runs a forward cascade with the configured gas buffer
func (a *Automator) FundForward(ctx context.Context, amount decimal.Decimal) (*cascade.Report, error) {
	gasBuffer := a.config.GasBuffer
	if gasBuffer.IsZero() {
		gasBuffer = cascade.DefaultGasBuffer
	}

	return a.cascade.FundForward(ctx, a.live(), amount, gasBuffer)
}

func (a *Automator) FundReverse(ctx context.Context, destination string) (*cascade.Report, error) {
	return a.cascade.FundReverse(ctx, a.live(), destination)
}

func (a *Automator) StopCascade() bool {
	return a.cascade.Stop()
}

func (a *Automator) Cascade() *cascade.Pipeline {
	return a.cascade
}

// Export writes the redacted wallet export
func (a *Automator) Export(w io.Writer) (int, error) {
	return a.store.WriteExport(w)
}

// Backup writes a full backup into the configured backup directory
func (a *Automator) Backup() (string, error) {
	return a.backup.PerformBackup()
}

func (a *Automator) WriteBackup(w io.Writer) error {
	return a.backup.Write(w)
}

// Restore replaces the stored collections with the backup read from r and
// reloads the wallet set
func (a *Automator) Restore(r io.Reader) (*backup.Document, error) {
	a.walletsMu.Lock()
	defer a.walletsMu.Unlock()

	if a.busy() {
		return nil, model.NewValidationError(BusyError)
	}

	doc, err := a.backup.Restore(r)
	if err != nil {
		return nil, err
	}

	wallets, err := a.store.LoadAll()
	if err != nil {
		return nil, err
	}
	a.wallets = wallets

	return doc, nil
}

func (a *Automator) Registry() *prometheus.Registry {
	return a.registry
}

func (a *Automator) Status() Status {
	a.statusMu.RLock()
	defer a.statusMu.RUnlock()

	return a.status
}

func (a *Automator) setStatus(s Status) {
	a.statusMu.Lock()
	defer a.statusMu.Unlock()

	a.status = s
}

// Start serves the HTTP API and periodic backups until ctx is done or the
// process receives SIGINT or SIGTERM
func (a *Automator) Start(ctx context.Context) error {
	a.logger.Info("starting automator", "version", version.Get())

	if a.config.BackupInterval > 0 {
		if err := a.backup.StartPeriodicBackup(a.config.BackupInterval); err != nil {
			a.logger.Error("cannot start periodic backup", "error", err)
		}
	}

	a.startHttpServer(ctx)
	a.setStatus(runningStatus)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	a.logger.Info("shutting down")

	return a.Close()
}

// Close stops any active run and releases the storage
func (a *Automator) Close() error {
	a.setStatus(shutdownStatus)

	a.engine.Stop()
	a.cascade.Stop()
	a.backup.StopPeriodicBackup()
	a.stopHttpServer()

	return a.db.Close()
}
