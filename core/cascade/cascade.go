// Package cascade simulates moving funds along the wallet list. Forward mode
// pushes a fixed amount from each wallet to the next one and stops at the first
// broken link. Reverse mode drains every wallet into its predecessor, and the
// first wallet into an external destination, skipping over failed transfers.
package cascade

import (
	"context"
	"fmt"
	"time"

	sdklogging "github.com/Layr-Labs/eigensdk-go/logging"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/AvaProtocol/ap-airdrop/core/notify"
	"github.com/AvaProtocol/ap-airdrop/core/runstate"
	"github.com/AvaProtocol/ap-airdrop/core/sim"
	"github.com/AvaProtocol/ap-airdrop/metrics"
	"github.com/AvaProtocol/ap-airdrop/model"
	applog "github.com/AvaProtocol/ap-airdrop/pkg/logger"
	"github.com/AvaProtocol/ap-airdrop/pkg/timekeeper"
)

type Mode string

const (
	Forward Mode = "forward"
	Reverse Mode = "reverse"

	component = "cascade"

	// ForwardFailureRate is the chance of a forward link running out of gas
	ForwardFailureRate = 0.10
	// ReverseFailureRate is the chance of a reverse transfer being dropped
	ReverseFailureRate = 0.05

	MinTransferPause = 2 * time.Second
	MaxTransferPause = 8 * time.Second
)

var (
	DefaultGasBuffer = decimal.RequireFromString("0.001")
	// GasReserve stays on a wallet drained by a reverse cascade
	GasReserve = decimal.RequireFromString("0.001")
)

// Store persists a single wallet after mutate ran under the store lock
// Store persists the wallets touched by one link together, or none of them
type Store interface {
	UpdateMany(ws []*model.Wallet, mutate func() error) error
}

// Transfer is one simulated link of a cascade
type Transfer struct {
	From   uint64          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
	Error  string          `json:"error,omitempty"`
}

type Report struct {
	RunID     string           `json:"runId"`
	Mode      Mode             `json:"mode"`
	Outcome   runstate.Outcome `json:"outcome"`
	Transfers []Transfer       `json:"transfers"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Moved     decimal.Decimal  `json:"moved"`
	Elapsed   time.Duration    `json:"elapsed"`
	Rejected  bool             `json:"rejected,omitempty"`
}

func (r *Report) record(t Transfer, err error) {
	if err != nil {
		t.Error = err.Error()
		r.Failed++
	} else {
		r.Succeeded++
		r.Moved = r.Moved.Add(t.Amount)
	}
	r.Transfers = append(r.Transfers, t)
}

// Pipeline runs one cascade at a time, forward and reverse share the run state
type Pipeline struct {
	store    Store
	src      sim.Source
	notifier notify.Notifier
	logger   sdklogging.Logger
	metrics  metrics.Recorder

	run *runstate.RunState
}

func New(store Store, src sim.Source, notifier notify.Notifier, logger sdklogging.Logger, m metrics.Recorder) *Pipeline {
	if src == nil {
		src = sim.Default()
	}

	return &Pipeline{
		store:    store,
		src:      src,
		notifier: notify.Ensure(notifier),
		logger:   applog.Ensure(logger),
		metrics:  metrics.Ensure(m),
		run:      runstate.New(),
	}
}

func (p *Pipeline) Stop() bool {
	if !p.run.Stop() {
		return false
	}

	p.logger.Info("cascade stop requested")
	p.notifier.Log(notify.Warning, "Stopping cascade")
	return true
}

func (p *Pipeline) State() runstate.State {
	return p.run.State()
}

func (p *Pipeline) LastOutcome() runstate.Outcome {
	return p.run.LastOutcome()
}

// begin starts a run or builds the Rejected report when one is active
func (p *Pipeline) begin(ctx context.Context, mode Mode) (context.Context, *Report, bool) {
	report := &Report{
		RunID:     ulid.Make().String(),
		Mode:      mode,
		Moved:     decimal.Zero,
		Transfers: []Transfer{},
	}

	runCtx, ok := p.run.Begin(ctx)
	if !ok {
		p.logger.Warn(AlreadyRunningWarning, "mode", mode, "run_id", report.RunID)
		p.notifier.Log(notify.Warning, "A cascade is already running")
		report.Outcome = runstate.Rejected
		report.Rejected = true
		return nil, report, false
	}

	p.metrics.SetRunActive(component, true)
	return runCtx, report, true
}

func (p *Pipeline) finish(report *Report, outcome runstate.Outcome, elapse *timekeeper.Elapsing) *Report {
	p.run.Finish(outcome)
	p.metrics.SetRunActive(component, false)

	report.Outcome = outcome
	report.Elapsed = elapse.Total()

	p.logger.Info("cascade finished",
		"run_id", report.RunID,
		"mode", report.Mode,
		"outcome", outcome,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"moved", report.Moved.String(),
		"elapsed", report.Elapsed,
	)
	return report
}

func (p *Pipeline) pause(ctx context.Context) {
	// an interrupted pause is caught by the stop check of the next link
	_ = p.src.Sleep(ctx, sim.Between(p.src, MinTransferPause, MaxTransferPause))
}

// move applies the balance changes of one link and persists them in a single
// write. When the write fails no balance changes, in memory or stored.
func (p *Pipeline) move(ws []*model.Wallet, apply func()) error {
	err := p.store.UpdateMany(ws, func() error {
		apply()
		return nil
	})
	if err != nil {
		return model.WrapError(model.PersistenceError, BalanceWriteError, err)
	}
	return nil
}

// FundForward sends amount from every wallet to the next one, the receiver gets
// amount minus gasBuffer. The first wallet is assumed funded externally. The
// first failed link aborts the cascade with its error and leaves the balances
// of the later wallets untouched.
func (p *Pipeline) FundForward(ctx context.Context, wallets []*model.Wallet, amount, gasBuffer decimal.Decimal) (*Report, error) {
	runCtx, report, ok := p.begin(ctx, Forward)
	if !ok {
		return report, nil
	}
	elapse := timekeeper.NewElapsing()

	if len(wallets) < 2 {
		p.notifier.Toast(notify.Error, "Cascade failed", InsufficientWalletsMessage)
		return p.finish(report, runstate.Failed, elapse), model.NewError(
			model.InsufficientWalletsError,
			InsufficientWalletsMessage,
			map[string]any{"required": 2, "available": len(wallets)},
		)
	}

	if gasBuffer.IsNegative() || !amount.IsPositive() || amount.LessThanOrEqual(gasBuffer) {
		p.notifier.Toast(notify.Error, "Cascade failed", "invalid amount")
		return p.finish(report, runstate.Failed, elapse), model.NewValidationError(
			"amount %s must be positive and above the gas buffer %s", amount, gasBuffer)
	}

	received := amount.Sub(gasBuffer)
	links := len(wallets) - 1

	p.logger.Info("forward cascade started", "run_id", report.RunID, "wallets", len(wallets), "amount", amount.String(), "gas_buffer", gasBuffer.String())
	p.notifier.Log(notify.Info, fmt.Sprintf("Starting forward cascade of %s across %d wallets", amount, len(wallets)))

	for i := 0; i < links; i++ {
		if p.run.ShouldStop(runCtx) {
			p.notifier.Toast(notify.Warning, "Cascade stopped", fmt.Sprintf("%d of %d transfers done", report.Succeeded, links))
			return p.finish(report, runstate.Stopped, elapse), nil
		}

		from, to := wallets[i], wallets[i+1]
		transfer := Transfer{From: from.Index, To: to.Address, Amount: received}

		if sim.Chance(p.src, ForwardFailureRate) {
			err := model.NewError(model.InsufficientGasError, InsufficientGasMessage, map[string]any{"from": from.Index, "to": to.Index})
			report.record(transfer, err)
			p.metrics.IncTransfer(string(Forward), "failed")

			p.logger.Warn("forward cascade broken", "from", from.Index, "to", to.Index, "error", err)
			p.notifier.Log(notify.Error, fmt.Sprintf("Transfer %d -> %d failed: %s", from.Index, to.Index, InsufficientGasMessage))
			p.notifier.Toast(notify.Error, "Cascade failed", fmt.Sprintf("Cascade halted at wallet %d", from.Index))
			return p.finish(report, runstate.Failed, elapse), err
		}

		err := p.move([]*model.Wallet{from, to}, func() {
			from.Balance = from.Balance.Sub(amount)
			to.Balance = to.Balance.Add(received)
		})
		if err != nil {
			report.record(transfer, err)
			p.metrics.IncTransfer(string(Forward), "failed")
			p.logger.Error("cannot persist forward transfer", "from", from.Index, "to", to.Index, "error", err)
			p.notifier.Toast(notify.Error, "Cascade failed", fmt.Sprintf("Cascade halted at wallet %d", from.Index))
			return p.finish(report, runstate.Failed, elapse), err
		}

		report.record(transfer, nil)
		p.metrics.IncTransfer(string(Forward), "success")
		p.notifier.Log(notify.Success, fmt.Sprintf("Sent %s from wallet %d to wallet %d", received, from.Index, to.Index))
		p.notifier.Progress((i + 1) * 100 / links)

		if i < links-1 {
			p.pause(runCtx)
		}
	}

	p.notifier.Toast(notify.Success, "Cascade complete", fmt.Sprintf("%d transfers, %s moved", report.Succeeded, report.Moved))
	return p.finish(report, runstate.Completed, elapse), nil
}

// FundReverse drains the wallets from last to first. Wallet i sends everything
// above GasReserve to wallet i-1, the first wallet sends to destination. Failed
// transfers are logged and the traversal goes on.
func (p *Pipeline) FundReverse(ctx context.Context, wallets []*model.Wallet, destination string) (*Report, error) {
	runCtx, report, ok := p.begin(ctx, Reverse)
	if !ok {
		return report, nil
	}
	elapse := timekeeper.NewElapsing()

	if len(wallets) < 1 {
		p.notifier.Toast(notify.Error, "Cascade failed", InsufficientWalletsMessage)
		return p.finish(report, runstate.Failed, elapse), model.NewError(
			model.InsufficientWalletsError,
			InsufficientWalletsMessage,
			map[string]any{"required": 1, "available": 0},
		)
	}

	if destination == "" {
		p.notifier.Toast(notify.Error, "Cascade failed", MissingDestinationMessage)
		return p.finish(report, runstate.Failed, elapse), model.NewValidationError(MissingDestinationMessage)
	}

	p.logger.Info("reverse cascade started", "run_id", report.RunID, "wallets", len(wallets), "destination", destination)
	p.notifier.Log(notify.Info, fmt.Sprintf("Starting reverse cascade of %d wallets to %s", len(wallets), destination))

	for i := len(wallets) - 1; i >= 0; i-- {
		if p.run.ShouldStop(runCtx) {
			p.notifier.Toast(notify.Warning, "Cascade stopped", fmt.Sprintf("%d transfers done, %d failed", report.Succeeded, report.Failed))
			return p.finish(report, runstate.Stopped, elapse), nil
		}

		source := wallets[i]
		var target *model.Wallet
		to := destination
		if i > 0 {
			target = wallets[i-1]
			to = target.Address
		}

		amount, err := p.drain(source, target)
		sent := Transfer{From: source.Index, To: to, Amount: amount}
		report.record(sent, err)

		if err != nil {
			p.metrics.IncTransfer(string(Reverse), "failed")
			p.logger.Warn("reverse transfer failed, continuing", "from", source.Index, "to", to, "error", err)
			p.notifier.Log(notify.Warning, fmt.Sprintf("Transfer from wallet %d failed: %v", source.Index, err))
		} else {
			p.metrics.IncTransfer(string(Reverse), "success")
			p.notifier.Log(notify.Success, fmt.Sprintf("Sent %s from wallet %d to %s", sent.Amount, source.Index, to))
		}

		p.notifier.Progress((len(wallets) - i) * 100 / len(wallets))

		if i > 0 {
			p.pause(runCtx)
		}
	}

	p.notifier.Toast(notify.Success, "Cascade complete", fmt.Sprintf("%d transfers, %d failed, %s moved", report.Succeeded, report.Failed, report.Moved))
	return p.finish(report, runstate.Completed, elapse), nil
}

// drain sends everything above GasReserve from source to target, target is nil
// for the external destination
func (p *Pipeline) drain(source, target *model.Wallet) (decimal.Decimal, error) {
	available := source.Balance
	if available.LessThanOrEqual(GasReserve) {
		return decimal.Zero, model.NewError(
			model.InsufficientBalanceError,
			InsufficientBalanceMessage,
			map[string]any{"wallet": source.Index, "balance": available.String()},
		)
	}

	if sim.Chance(p.src, ReverseFailureRate) {
		return decimal.Zero, model.NewError(model.NetworkCongestionError, NetworkCongestionMessage, map[string]any{"wallet": source.Index})
	}

	amount := available.Sub(GasReserve)
	touched := []*model.Wallet{source}
	if target != nil {
		touched = append(touched, target)
	}

	err := p.move(touched, func() {
		source.Balance = GasReserve
		if target != nil {
			target.Balance = target.Balance.Add(amount)
		}
	})
	if err != nil {
		return decimal.Zero, err
	}

	return amount, nil
}
