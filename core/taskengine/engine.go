package taskengine

import (
	"context"
	"fmt"
	"sync"
	"time"

	sdklogging "github.com/Layr-Labs/eigensdk-go/logging"
	"github.com/oklog/ulid/v2"

	"github.com/AvaProtocol/ap-airdrop/core/notify"
	"github.com/AvaProtocol/ap-airdrop/core/runstate"
	"github.com/AvaProtocol/ap-airdrop/core/sim"
	"github.com/AvaProtocol/ap-airdrop/metrics"
	"github.com/AvaProtocol/ap-airdrop/model"
	applog "github.com/AvaProtocol/ap-airdrop/pkg/logger"
	"github.com/AvaProtocol/ap-airdrop/pkg/timekeeper"
)

const component = "taskengine"

// Store persists a single wallet after mutate ran under the store lock
type Store interface {
	Update(w *model.Wallet, mutate func(*model.Wallet) error) error
}

// RunReport summarizes one ExecuteAll call
type RunReport struct {
	RunID    string               `json:"runId"`
	Outcome  runstate.Outcome     `json:"outcome"`
	Stats    model.ExecutionStats `json:"stats"`
	Elapsed  time.Duration        `json:"elapsed"`
	Rejected bool                 `json:"rejected,omitempty"`
}

type Engine struct {
	store    Store
	src      sim.Source
	notifier notify.Notifier
	logger   sdklogging.Logger
	metrics  metrics.Recorder

	run *runstate.RunState

	statsMu sync.RWMutex
	stats   model.ExecutionStats
}

func New(store Store, src sim.Source, notifier notify.Notifier, logger sdklogging.Logger, m metrics.Recorder) *Engine {
	if src == nil {
		src = sim.Default()
	}

	return &Engine{
		store:    store,
		src:      src,
		notifier: notify.Ensure(notifier),
		logger:   applog.Ensure(logger),
		metrics:  metrics.Ensure(m),
		run:      runstate.New(),
	}
}

// Stats returns a snapshot of the counters of the current or last run
func (e *Engine) Stats() model.ExecutionStats {
	e.statsMu.RLock()
	defer e.statsMu.RUnlock()

	return e.stats
}

// Stop asks the active run to halt at its next check point. It returns false
// when nothing is running.
func (e *Engine) Stop() bool {
	if !e.run.Stop() {
		return false
	}

	e.logger.Info("task run stop requested")
	e.notifier.Log(notify.Warning, "Stopping task execution")
	return true
}

func (e *Engine) State() runstate.State {
	return e.run.State()
}

func (e *Engine) LastOutcome() runstate.Outcome {
	return e.run.LastOutcome()
}

func (e *Engine) updateStats(fn func(s *model.ExecutionStats)) {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()

	fn(&e.stats)
}

// ExecuteAll runs every task of every network for every wallet. A call made
// while another run is active is rejected with a warning and no error. Setup
// failures return the error along with a Failed report. Per wallet task
// failures are counted, never returned.
func (e *Engine) ExecuteAll(ctx context.Context, networks []*model.Network, wallets []*model.Wallet, opts Options) (*RunReport, error) {
	report := &RunReport{RunID: ulid.Make().String()}

	runCtx, ok := e.run.Begin(ctx)
	if !ok {
		e.logger.Warn(AlreadyRunningWarning, "run_id", report.RunID)
		e.notifier.Log(notify.Warning, "Task execution is already running")
		report.Outcome = runstate.Rejected
		report.Rejected = true
		report.Stats = e.Stats()
		return report, nil
	}

	e.metrics.SetRunActive(component, true)
	defer e.metrics.SetRunActive(component, false)

	elapse := timekeeper.NewElapsing()
	e.updateStats(func(s *model.ExecutionStats) { *s = model.ExecutionStats{} })

	finish := func(outcome runstate.Outcome) *RunReport {
		e.run.Finish(outcome)
		report.Outcome = outcome
		report.Stats = e.Stats()
		report.Elapsed = elapse.Total()
		return report
	}

	if len(wallets) == 0 {
		e.notifier.Toast(notify.Error, "Execution failed", NoWalletsMessage)
		return finish(runstate.Failed), model.NewError(model.NoWalletsError, NoWalletsMessage)
	}

	networks = model.UniqueNetworks(networks)
	if len(networks) == 0 {
		e.notifier.Toast(notify.Error, "Execution failed", NoNetworksMessage)
		return finish(runstate.Failed), model.NewError(model.NoNetworksError, NoNetworksMessage)
	}

	total := uint64(len(networks) * len(wallets))
	e.updateStats(func(s *model.ExecutionStats) { s.TotalTasks = total })

	e.logger.Info("task run started", "run_id", report.RunID, "networks", len(networks), "wallets", len(wallets), "units", total)
	e.notifier.Log(notify.Info, fmt.Sprintf("Starting execution of %d networks for %d wallets", len(networks), len(wallets)))
	e.notifier.Progress(0)

	if opts.RandomizeOrder {
		sim.Shuffle(e.src, networks)
	}

	outcome := runstate.Completed
	for i, network := range networks {
		if e.run.ShouldStop(runCtx) {
			outcome = runstate.Stopped
			break
		}

		e.notifier.Log(notify.Info, fmt.Sprintf("Processing %s (%d/%d)", network.Name, i+1, len(networks)))
		if !e.processNetwork(runCtx, network, wallets, opts) {
			outcome = runstate.Stopped
			break
		}
		e.logger.Info("network finished", "run_id", report.RunID, "network", network.Name, "elapsed", elapse.Report())

		if i < len(networks)-1 && opts.networkPause() > 0 {
			// an interrupted pause is caught by the check at the top of the loop
			_ = e.src.Sleep(runCtx, sim.Jitter(e.src, opts.networkPause(), DelaySpread))
		}
	}

	report = finish(outcome)
	e.logger.Info("task run finished",
		"run_id", report.RunID,
		"outcome", report.Outcome,
		"completed", report.Stats.Completed,
		"successful", report.Stats.Successful,
		"failed", report.Stats.Failed,
		"skipped", report.Stats.Skipped,
		"elapsed", report.Elapsed,
	)

	summary := fmt.Sprintf("%d successful, %d failed, %d skipped", report.Stats.Successful, report.Stats.Failed, report.Stats.Skipped)
	if outcome == runstate.Stopped {
		e.notifier.Toast(notify.Warning, "Execution stopped", summary)
	} else {
		e.notifier.Toast(notify.Success, "Execution complete", summary)
	}

	return report, nil
}

// processNetwork runs one network for every wallet. It returns false when the
// run was stopped.
func (e *Engine) processNetwork(ctx context.Context, network *model.Network, wallets []*model.Wallet, opts Options) bool {
	order := append([]*model.Wallet{}, wallets...)
	if opts.RandomizeOrder {
		sim.Shuffle(e.src, order)
	}

	for i, wallet := range order {
		if e.run.ShouldStop(ctx) {
			return false
		}

		if wallet.HasCompleted(network.Name) {
			e.updateStats(func(s *model.ExecutionStats) {
				s.Completed++
				s.Skipped++
			})
			e.metrics.IncWalletUnit("skipped")
			e.reportProgress()
			continue
		}

		if !e.processUnit(ctx, network, wallet, opts) {
			return false
		}
		e.reportProgress()

		if i < len(order)-1 && opts.walletPause() > 0 {
			_ = e.src.Sleep(ctx, sim.Jitter(e.src, opts.walletPause(), DelaySpread))
		}
	}

	return true
}

// processUnit runs the tasks of a network for one wallet. It returns false when
// the unit was interrupted by a stop, in which case it is not counted.
func (e *Engine) processUnit(ctx context.Context, network *model.Network, wallet *model.Wallet, opts Options) bool {
	for i, kind := range network.Tasks {
		if e.run.ShouldStop(ctx) {
			return false
		}

		if i > 0 {
			// a stop during the pause ends the unit before the next task
			_ = e.src.Sleep(ctx, sim.Between(e.src, MinTaskPause, MaxTaskPause))
			if e.run.ShouldStop(ctx) {
				return false
			}
		}

		if !kind.IsKnown() {
			e.logger.Warn("skipping unknown task kind", "network", network.Name, "wallet", wallet.Index, "kind", kind)
			e.notifier.Log(notify.Warning, fmt.Sprintf("Unknown task %q on %s, skipped", kind, network.Name))
			e.metrics.IncTaskOutcome(string(kind), "skipped")
			continue
		}

		result, err := simulateTask(ctx, e.src, network, wallet, kind, opts.RandomizeGas)
		if err != nil {
			e.metrics.IncTaskOutcome(string(kind), "failed")
			e.failUnit(network, wallet, err)
			return true
		}

		e.metrics.IncTaskOutcome(string(kind), "success")
		e.logger.Debug("task succeeded",
			"network", network.Name,
			"wallet", wallet.Index,
			"kind", kind,
			"amount", result.Amount.String(),
			"tx", result.TxHash,
			"latency", result.Latency,
		)
	}

	err := e.store.Update(wallet, func(w *model.Wallet) error {
		w.MarkCompleted(network.Name)
		return nil
	})
	if err != nil {
		e.failUnit(network, wallet, model.WrapError(model.PersistenceError, CompletionWriteError, err))
		return true
	}

	e.updateStats(func(s *model.ExecutionStats) {
		s.Completed++
		s.Successful++
	})
	e.metrics.IncWalletUnit("success")
	e.notifier.Log(notify.Success, fmt.Sprintf("Wallet %d completed %s", wallet.Index, network.Name))

	return true
}

func (e *Engine) failUnit(network *model.Network, wallet *model.Wallet, err error) {
	e.updateStats(func(s *model.ExecutionStats) {
		s.Completed++
		s.Failed++
	})
	e.metrics.IncWalletUnit("failed")

	e.logger.Warn("wallet unit failed", "network", network.Name, "wallet", wallet.Index, "error", err)
	e.notifier.Log(notify.Error, fmt.Sprintf("Wallet %d failed on %s: %v", wallet.Index, network.Name, err))
}

func (e *Engine) reportProgress() {
	stats := e.Stats()
	if stats.TotalTasks == 0 {
		return
	}
	e.notifier.Progress(int(stats.Completed * 100 / stats.TotalTasks))
}
