package prober

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/qwe638853/GasPass-sub000/internal/config"
	"github.com/qwe638853/GasPass-sub000/internal/endpoint"
	"github.com/qwe638853/GasPass-sub000/internal/metrics"
	"github.com/qwe638853/GasPass-sub000/internal/models"
	"github.com/qwe638853/GasPass-sub000/internal/utils"
)

// Prober fetches native balances with a bounded retry budget. An exhausted
// budget yields Unavailable, never zero: an RPC outage must read as "skip
// this pair this cycle", not "wallet is empty".
type Prober struct {
	pool           *endpoint.Pool
	maxRetries     int
	baseDelay      time.Duration
	attemptTimeout time.Duration
}

// New creates a prober over the shared endpoint pool.
func New(pool *endpoint.Pool, maxRetries int, baseDelay, attemptTimeout time.Duration) *Prober {
	if maxRetries < 1 {
		maxRetries = 3
	}
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	if attemptTimeout <= 0 {
		attemptTimeout = 10 * time.Second
	}
	return &Prober{
		pool:           pool,
		maxRetries:     maxRetries,
		baseDelay:      baseDelay,
		attemptTimeout: attemptTimeout,
	}
}

// Probe fetches the native balance of addr on the given chain. Endpoints are
// tried in configured order within each attempt; attempts back off linearly.
// The retry budget is also the timeout budget: callers never wrap Probe in
// another retry loop.
func (p *Prober) Probe(ctx context.Context, chain *config.ChainConfig, addr common.Address) models.ProbeResult {
	started := time.Now()
	defer func() {
		metrics.ProbeDuration.WithLabelValues(chain.Name).Observe(time.Since(started).Seconds())
	}()

	var balance models.ProbeResult

	err := utils.Retry(ctx, p.maxRetries, p.baseDelay, func(ctx context.Context) error {
		result, err := p.probeOnce(ctx, chain, addr)
		if err != nil {
			return err
		}
		balance = result
		return nil
	})
	if err != nil {
		log.Printf("⚠️ [Prober] Balance unavailable on %s for %s: %v", chain.Name, addr.Hex(), err)
		metrics.ProbeFailures.WithLabelValues(chain.Name).Inc()
		return models.Unavailable()
	}

	return balance
}

// probeOnce tries each configured endpoint once, in order.
func (p *Prober) probeOnce(ctx context.Context, chain *config.ChainConfig, addr common.Address) (models.ProbeResult, error) {
	var lastErr error
	for _, rpcURL := range chain.RPCEndpoints {
		client, err := p.pool.Get(rpcURL)
		if err != nil {
			lastErr = err
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, p.attemptTimeout)
		wei, err := client.BalanceAt(callCtx, addr, nil)
		cancel()
		if err != nil {
			lastErr = err
			continue
		}
		return models.BalanceOf(wei), nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no RPC endpoints configured for chain %d", chain.ChainID)
	}
	return models.ProbeResult{}, lastErr
}
