package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder is what the core services report into. Status labels are "success",
// "failed" or "skipped".
type Recorder interface {
	AddWalletsGenerated(variant string, n int)
	IncTaskOutcome(kind, status string)
	IncWalletUnit(status string)
	IncTransfer(mode, status string)
	SetRunActive(component string, active bool)
}

// AirdropMetrics contains instrumented metrics incremented by the automation services
type AirdropMetrics struct {
	walletsGenerated *prometheus.CounterVec
	taskOutcomes     *prometheus.CounterVec
	walletUnits      *prometheus.CounterVec
	transfers        *prometheus.CounterVec
	activeRuns       *prometheus.GaugeVec
}

const apNamespace = "ap_airdrop"

func New(reg prometheus.Registerer) *AirdropMetrics {
	return &AirdropMetrics{
		walletsGenerated: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: apNamespace,
				Name:      "wallets_generated_total",
				Help:      "The number of wallets generated and persisted",
			}, []string{"variant"}),

		taskOutcomes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: apNamespace,
				Name:      "task_outcomes_total",
				Help:      "The number of simulated task invocations by kind and status",
			}, []string{"kind", "status"}),

		walletUnits: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: apNamespace,
				Name:      "wallet_units_total",
				Help:      "The number of (network, wallet) units processed by status",
			}, []string{"status"}),

		transfers: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: apNamespace,
				Name:      "cascade_transfers_total",
				Help:      "The number of simulated cascade transfers by mode and status",
			}, []string{"mode", "status"}),

		activeRuns: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: apNamespace,
				Name:      "run_active",
				Help:      "1 while a run of the component is in progress",
			}, []string{"component"}),
	}
}

func (m *AirdropMetrics) AddWalletsGenerated(variant string, n int) {
	m.walletsGenerated.WithLabelValues(variant).Add(float64(n))
}

func (m *AirdropMetrics) IncTaskOutcome(kind, status string) {
	m.taskOutcomes.WithLabelValues(kind, status).Inc()
}

func (m *AirdropMetrics) IncWalletUnit(status string) {
	m.walletUnits.WithLabelValues(status).Inc()
}

func (m *AirdropMetrics) IncTransfer(mode, status string) {
	m.transfers.WithLabelValues(mode, status).Inc()
}

func (m *AirdropMetrics) SetRunActive(component string, active bool) {
	v := 0.0
	if active {
		v = 1
	}
	m.activeRuns.WithLabelValues(component).Set(v)
}

type noop struct{}

func (noop) AddWalletsGenerated(string, int) {}
func (noop) IncTaskOutcome(string, string)   {}
func (noop) IncWalletUnit(string)            {}
func (noop) IncTransfer(string, string)      {}
func (noop) SetRunActive(string, bool)       {}

// Noop discards every measurement
func Noop() Recorder {
	return noop{}
}

// Ensure returns r, or a no-op recorder when r is nil
func Ensure(r Recorder) Recorder {
	if r == nil {
		return Noop()
	}
	return r
}
