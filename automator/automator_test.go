package automator

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AvaProtocol/ap-airdrop/core/config"
	"github.com/AvaProtocol/ap-airdrop/core/notify"
	"github.com/AvaProtocol/ap-airdrop/core/runstate"
	"github.com/AvaProtocol/ap-airdrop/core/sim"
	"github.com/AvaProtocol/ap-airdrop/core/taskengine"
	"github.com/AvaProtocol/ap-airdrop/core/testutil"
	"github.com/AvaProtocol/ap-airdrop/model"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		Logger:     testutil.GetLogger(),
		DbPath:     filepath.Join(dir, "db"),
		Passphrase: testutil.TestPassphrase,
		BackupDir:  filepath.Join(dir, "backup"),
		Execution:  taskengine.Options{},
		GasBuffer:  decimal.RequireFromString("0.001"),
	}
}

func newTestAutomator(t *testing.T, c *config.Config) (*Automator, *notify.Recorder) {
	rec := notify.NewRecorder()
	a, err := New(c, rec, WithSource(sim.NewScripted(0.5)))
	require.NoError(t, err)
	return a, rec
}

func TestGenerateAndReload(t *testing.T) {
	c := testConfig(t)
	a, _ := newTestAutomator(t, c)

	created, err := a.GenerateWallets(context.Background(), 3, model.ChainEVM)
	require.NoError(t, err)
	require.Len(t, created, 3)

	more, err := a.GenerateWallets(context.Background(), 2, model.ChainSolana)
	require.NoError(t, err)
	require.Len(t, more, 2)
	assert.Equal(t, uint64(3), more[0].Index)
	assert.Len(t, a.Wallets(), 5)

	secret := a.Wallets()[1].SecretKey
	require.NoError(t, a.Close())

	reopened, _ := newTestAutomator(t, c)
	defer reopened.Close()

	wallets := reopened.Wallets()
	require.Len(t, wallets, 5)
	assert.Equal(t, secret, wallets[1].SecretKey)
}

func TestRunTasksMarksCompletion(t *testing.T) {
	a, _ := newTestAutomator(t, testConfig(t))
	defer a.Close()

	_, err := a.GenerateWallets(context.Background(), 2, model.ChainEVM)
	require.NoError(t, err)

	networks := testutil.TestNetworks(2)
	report, err := a.RunTasks(context.Background(), networks, map[string]any{"walletDelay": "0"})
	require.NoError(t, err)

	assert.Equal(t, runstate.Completed, report.Outcome)
	assert.Equal(t, uint64(4), report.Stats.Successful)
	assert.Equal(t, report.Stats, a.TaskStats())

	for _, w := range a.Wallets() {
		assert.Equal(t, []string{"net-0", "net-1"}, w.CompletedTasks)
	}

	// completion marks survive in storage
	reloaded, err := a.store.LoadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"net-0", "net-1"}, reloaded[0].CompletedTasks)
}

func TestWalletsReadableDuringRun(t *testing.T) {
	a, _ := newTestAutomator(t, testConfig(t))
	defer a.Close()

	_, err := a.GenerateWallets(context.Background(), 20, model.ChainEVM)
	require.NoError(t, err)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(done)

		report, err := a.RunTasks(context.Background(), testutil.TestNetworks(5), map[string]any{"walletDelay": "0"})
		if assert.NoError(t, err) {
			assert.Equal(t, runstate.Completed, report.Outcome)
		}
	}()

	reads := 0
	for running := true; running; reads++ {
		select {
		case <-done:
			running = false
		default:
		}

		for _, w := range a.Wallets() {
			redacted := w.Redacted()
			assert.Equal(t, model.RedactedMarker, redacted.SecretKey)
			assert.LessOrEqual(t, len(redacted.CompletedTasks), 5)
		}
	}
	wg.Wait()
	assert.Positive(t, reads)

	for _, w := range a.Wallets() {
		assert.Len(t, w.CompletedTasks, 5)
	}
}

func TestWalletsReturnsCopies(t *testing.T) {
	a, _ := newTestAutomator(t, testConfig(t))
	defer a.Close()

	created, err := a.GenerateWallets(context.Background(), 2, model.ChainEVM)
	require.NoError(t, err)

	created[0].Balance = decimal.NewFromInt(7)
	wallets := a.Wallets()
	wallets[1].MarkCompleted("net-0")

	again := a.Wallets()
	assert.True(t, again[0].Balance.IsZero())
	assert.Empty(t, again[1].CompletedTasks)
}

func TestNewWithoutLogger(t *testing.T) {
	c := testConfig(t)
	c.Logger = nil

	a, _ := newTestAutomator(t, c)
	defer a.Close()

	_, err := a.GenerateWallets(context.Background(), 1, model.ChainEVM)
	require.NoError(t, err)
	assert.Len(t, a.Wallets(), 1)
}

func TestRunTasksRejectsBadOptions(t *testing.T) {
	a, _ := newTestAutomator(t, testConfig(t))
	defer a.Close()

	_, err := a.RunTasks(context.Background(), testutil.TestNetworks(1), map[string]any{"walletDelay": -1})
	assert.True(t, model.IsCode(err, model.ValidationError))
}

func TestNetworksFromFallback(t *testing.T) {
	a, _ := newTestAutomator(t, testConfig(t))
	defer a.Close()

	all, err := a.Networks(context.Background(), "")
	require.NoError(t, err)
	assert.NotEmpty(t, all)

	solana, err := a.Networks(context.Background(), `chain == "Solana"`)
	require.NoError(t, err)
	require.Len(t, solana, 1)
	assert.Equal(t, "Solana Devnet", solana[0].Name)
}

func TestCascadeRoundTrip(t *testing.T) {
	a, _ := newTestAutomator(t, testConfig(t))
	defer a.Close()

	_, err := a.GenerateWallets(context.Background(), 3, model.ChainEVM)
	require.NoError(t, err)

	forward, err := a.FundForward(context.Background(), decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.Equal(t, runstate.Completed, forward.Outcome)
	assert.Equal(t, 2, forward.Succeeded)

	wallets := a.Wallets()
	assert.True(t, wallets[2].Balance.Equal(decimal.RequireFromString("0.999")))

	reverse, err := a.FundReverse(context.Background(), "0x000000000000000000000000000000000000dEaD")
	require.NoError(t, err)
	assert.Equal(t, runstate.Completed, reverse.Outcome)
	assert.True(t, a.Wallets()[2].Balance.Equal(decimal.RequireFromString("0.001")))
}

func TestClearKeepsIndexesMonotonic(t *testing.T) {
	a, _ := newTestAutomator(t, testConfig(t))
	defer a.Close()

	_, err := a.GenerateWallets(context.Background(), 2, model.ChainEVM)
	require.NoError(t, err)
	require.NoError(t, a.ClearWallets())
	assert.Empty(t, a.Wallets())

	created, err := a.GenerateWallets(context.Background(), 1, model.ChainEVM)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), created[0].Index)
}

func TestBackupAndRestore(t *testing.T) {
	a, _ := newTestAutomator(t, testConfig(t))
	defer a.Close()

	_, err := a.GenerateWallets(context.Background(), 2, model.ChainEVM)
	require.NoError(t, err)
	original := a.Wallets()

	var buf bytes.Buffer
	require.NoError(t, a.WriteBackup(&buf))
	require.NoError(t, a.ClearWallets())

	doc, err := a.Restore(&buf)
	require.NoError(t, err)
	assert.NotEmpty(t, doc.Data)

	restored := a.Wallets()
	require.Len(t, restored, 2)
	assert.Equal(t, original[0].SecretKey, restored[0].SecretKey)
	assert.Equal(t, original[1].Address, restored[1].Address)
}

func TestExportRedactsSecrets(t *testing.T) {
	a, _ := newTestAutomator(t, testConfig(t))
	defer a.Close()

	created, err := a.GenerateWallets(context.Background(), 1, model.ChainEVM)
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := a.Export(&buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, buf.String(), created[0].Address)
	assert.NotContains(t, buf.String(), created[0].SecretKey)
	assert.Contains(t, buf.String(), model.RedactedMarker)
}
