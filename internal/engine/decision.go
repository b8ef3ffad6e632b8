package engine

import (
	"log"
	"math/big"
	"sync"

	"github.com/qwe638853/GasPass-sub000/internal/models"
)

// FeeRateBps is the advisory protocol fee: 0.5% of gasAmount. The contract's
// fee accounting is authoritative on execution; this figure only feeds the
// cycle summary and is never compared against on-chain totals.
const FeeRateBps = 50

// Decision is the outcome of evaluating one active policy against a probe.
type Decision struct {
	Trigger      bool
	Reason       string
	EstimatedFee *big.Int // set on Trigger only
}

func skip(reason string) Decision {
	return Decision{Trigger: false, Reason: reason}
}

// EstimateFee computes the advisory 0.5% fee on a prospective refuel.
func EstimateFee(gasAmount *big.Int) *big.Int {
	fee := new(big.Int).Mul(gasAmount, big.NewInt(FeeRateBps))
	return fee.Div(fee, big.NewInt(10000))
}

// Cycle evaluates policies for exactly one scan pass. Each (tokenId, chainId)
// pair is decided at most once per cycle; a fresh Cycle is created every pass
// so no trigger state survives across cycles; cross-cycle dedup belongs to
// the contract's lastRefueled bookkeeping, which this engine never shadows.
type Cycle struct {
	mu   sync.Mutex
	seen map[models.PolicyKey]bool
}

// NewCycle starts a fresh evaluation pass.
func NewCycle() *Cycle {
	return &Cycle{seen: make(map[models.PolicyKey]bool)}
}

// Decide applies the trigger rule:
//
//	Unavailable balance  -> Skip (an outage is not an empty wallet)
//	balance >= threshold -> Skip
//	otherwise            -> Trigger, carrying the advisory fee estimate
//
// A pair already decided this cycle always skips, regardless of balance.
func (c *Cycle) Decide(policy models.ActivePolicy, probe models.ProbeResult) Decision {
	key := policy.Key()

	c.mu.Lock()
	if c.seen[key] {
		c.mu.Unlock()
		return skip("already evaluated this cycle")
	}
	c.seen[key] = true
	c.mu.Unlock()

	if !probe.Available {
		return skip("balance unavailable")
	}

	if probe.Balance.Cmp(policy.Policy.Threshold) >= 0 {
		return skip("balance at or above threshold")
	}

	log.Printf("⛽ [Engine] Trigger: %s balance=%s threshold=%s gasAmount=%s",
		policy.String(), probe.Balance, policy.Policy.Threshold, policy.Policy.GasAmount)

	return Decision{
		Trigger:      true,
		Reason:       "balance below threshold",
		EstimatedFee: EstimateFee(policy.Policy.GasAmount),
	}
}
