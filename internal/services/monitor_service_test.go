package services

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qwe638853/GasPass-sub000/internal/config"
	"github.com/qwe638853/GasPass-sub000/internal/dispatcher"
	"github.com/qwe638853/GasPass-sub000/internal/models"
	"github.com/qwe638853/GasPass-sub000/internal/relay"
)

type fakeScanner struct {
	triples []models.ActivePolicy
	err     error
	block   chan struct{} // when set, Scan waits until closed
}

func (f *fakeScanner) Scan(ctx context.Context) (*models.ScanCycleResult, []models.ActivePolicy, error) {
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, nil, f.err
	}
	result := models.NewScanCycleResult("test-cycle")
	result.TokensScanned = len(f.triples)
	result.PoliciesFound = len(f.triples)
	return result, f.triples, nil
}

type fakeProber struct {
	mu       sync.Mutex
	balances map[string]models.ProbeResult // owner hex -> result
}

func (f *fakeProber) Probe(ctx context.Context, chain *config.ChainConfig, addr common.Address) models.ProbeResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.balances[addr.Hex()]; ok {
		return r
	}
	return models.Unavailable()
}

type fakeDispatcher struct {
	mu       sync.Mutex
	triggers []*dispatcher.Trigger
	err      error
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, trigger *dispatcher.Trigger) (*relay.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggers = append(f.triggers, trigger)
	if f.err != nil {
		return nil, f.err
	}
	return &relay.Result{TxHash: common.HexToHash("0x01")}, nil
}

func (f *fakeDispatcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.triggers)
}

type fakeFees struct {
	total        *big.Int
	withdrawable *big.Int
}

func (f *fakeFees) TotalFeesCollected(ctx context.Context) (*big.Int, error) {
	return f.total, nil
}
func (f *fakeFees) GetWithdrawableFees(ctx context.Context) (*big.Int, error) {
	return f.withdrawable, nil
}

type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (f *fakePublisher) Publish(subject string, event interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subjects = append(f.subjects, subject)
	return nil
}

func monitorConfig() *config.Config {
	return &config.Config{
		Chains: map[string]config.ChainConfig{
			"base": {ChainID: 8453, Name: "Base", RPCEndpoints: []string{"https://rpc/base"}, Enabled: true},
		},
	}
}

func triple(tokenID int64, chainID uint64, owner common.Address, gasAmount, threshold int64) models.ActivePolicy {
	return models.ActivePolicy{
		TokenID: big.NewInt(tokenID),
		ChainID: chainID,
		Owner:   owner,
		Policy: models.RefuelPolicy{
			GasAmount:    big.NewInt(gasAmount),
			Threshold:    big.NewInt(threshold),
			Agent:        common.HexToAddress("0x3000000000000000000000000000000000000003"),
			LastRefueled: big.NewInt(0),
		},
	}
}

func TestRunCycleTriggersBelowThreshold(t *testing.T) {
	owner := common.HexToAddress("0x2000000000000000000000000000000000000002")
	sc := &fakeScanner{triples: []models.ActivePolicy{
		triple(1, 8453, owner, 10_000_000, 1000),
	}}
	pr := &fakeProber{balances: map[string]models.ProbeResult{
		owner.Hex(): models.BalanceOf(big.NewInt(500)),
	}}
	di := &fakeDispatcher{}
	pub := &fakePublisher{}

	m := NewMonitorService(monitorConfig(), sc, pr, di, &fakeFees{total: big.NewInt(9), withdrawable: big.NewInt(4)}, nil, pub)
	result, err := m.RunCycle(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.RefuelsTriggered)
	assert.Equal(t, 0, result.RefuelsFailed)
	// 0.5% of 10 USDC.
	assert.Equal(t, "50000", result.EstimatedFee.String())
	assert.Equal(t, "9", result.TotalFeesCollected.String())
	assert.Equal(t, "4", result.WithdrawableFees.String())
	assert.Equal(t, 1, di.count())
	assert.Equal(t, "test-cycle", di.triggers[0].CycleID)

	// Last result is exposed for the HTTP layer.
	assert.Same(t, result, m.LastResult())
	assert.Len(t, m.ActivePolicies(), 1)
}

func TestRunCycleSkipsAboveThreshold(t *testing.T) {
	owner := common.HexToAddress("0x2000000000000000000000000000000000000002")
	sc := &fakeScanner{triples: []models.ActivePolicy{
		triple(1, 8453, owner, 10_000_000, 1000),
	}}
	pr := &fakeProber{balances: map[string]models.ProbeResult{
		owner.Hex(): models.BalanceOf(big.NewInt(1000)), // exactly at threshold
	}}
	di := &fakeDispatcher{}

	m := NewMonitorService(monitorConfig(), sc, pr, di, nil, nil, nil)
	result, err := m.RunCycle(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, result.RefuelsTriggered)
	assert.Equal(t, 0, di.count())
}

func TestRunCycleUnavailableBalanceNeverTriggers(t *testing.T) {
	owner := common.HexToAddress("0x2000000000000000000000000000000000000002")
	sc := &fakeScanner{triples: []models.ActivePolicy{
		triple(1, 8453, owner, 10_000_000, 1000),
	}}
	// Prober has no entry for the owner: every probe is Unavailable.
	pr := &fakeProber{}
	di := &fakeDispatcher{}

	m := NewMonitorService(monitorConfig(), sc, pr, di, nil, nil, nil)
	result, err := m.RunCycle(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, result.RefuelsTriggered)
	assert.Equal(t, 1, result.PairsSkipped)
	assert.Equal(t, 0, di.count())
}

func TestRunCycleDispatchFailureCountsAsFailed(t *testing.T) {
	owner := common.HexToAddress("0x2000000000000000000000000000000000000002")
	sc := &fakeScanner{triples: []models.ActivePolicy{
		triple(1, 8453, owner, 10_000_000, 1000),
	}}
	pr := &fakeProber{balances: map[string]models.ProbeResult{
		owner.Hex(): models.BalanceOf(big.NewInt(1)),
	}}
	di := &fakeDispatcher{err: relay.ErrQuoteUnavailable}

	m := NewMonitorService(monitorConfig(), sc, pr, di, nil, nil, nil)
	result, err := m.RunCycle(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.RefuelsTriggered)
	assert.Equal(t, 1, result.RefuelsFailed)
}

func TestRunCycleScannerFailureAborts(t *testing.T) {
	sc := &fakeScanner{err: errors.New("totalSupply unreachable")}
	m := NewMonitorService(monitorConfig(), sc, &fakeProber{}, &fakeDispatcher{}, nil, nil, nil)

	_, err := m.RunCycle(context.Background())

	require.Error(t, err)
	assert.Nil(t, m.LastResult())
}

func TestRunCycleUnconfiguredChainIsSkipped(t *testing.T) {
	owner := common.HexToAddress("0x2000000000000000000000000000000000000002")
	sc := &fakeScanner{triples: []models.ActivePolicy{
		triple(1, 999, owner, 10_000_000, 1000), // chain 999 not configured
	}}
	di := &fakeDispatcher{}

	m := NewMonitorService(monitorConfig(), sc, &fakeProber{}, di, nil, nil, nil)
	result, err := m.RunCycle(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.PairsSkipped)
	assert.Equal(t, 0, di.count())
}

func TestRunCycleNeverOverlaps(t *testing.T) {
	block := make(chan struct{})
	sc := &fakeScanner{block: block}
	m := NewMonitorService(monitorConfig(), sc, &fakeProber{}, &fakeDispatcher{}, nil, nil, nil)

	done := make(chan error, 1)
	go func() {
		_, err := m.RunCycle(context.Background())
		done <- err
	}()

	// Give the first cycle time to take the lock.
	time.Sleep(20 * time.Millisecond)
	_, err := m.RunCycle(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already in progress")

	close(block)
	require.NoError(t, <-done)
}

func TestRunCyclePublishesEvents(t *testing.T) {
	owner := common.HexToAddress("0x2000000000000000000000000000000000000002")
	sc := &fakeScanner{triples: []models.ActivePolicy{
		triple(1, 8453, owner, 10_000_000, 1000),
	}}
	pr := &fakeProber{balances: map[string]models.ProbeResult{
		owner.Hex(): models.BalanceOf(big.NewInt(1)),
	}}
	pub := &fakePublisher{}

	m := NewMonitorService(monitorConfig(), sc, pr, &fakeDispatcher{}, nil, nil, pub)
	_, err := m.RunCycle(context.Background())
	require.NoError(t, err)

	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Contains(t, pub.subjects, "gaspass.refuel.triggered")
	assert.Contains(t, pub.subjects, "gaspass.relay.submitted")
	assert.Contains(t, pub.subjects, "gaspass.scan.completed")
}
