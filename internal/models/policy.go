package models

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// RefuelPolicy mirrors the on-chain chainPolicies(tokenId, chainId) tuple.
// A zero threshold means "no policy" for that pair; the contract never stores
// a separate existence flag.
type RefuelPolicy struct {
	GasAmount    *big.Int       `json:"gas_amount"`    // stablecoin units (6 decimals) spent per trigger
	Threshold    *big.Int       `json:"threshold"`     // native-balance floor in wei
	Agent        common.Address `json:"agent"`         // delegate authorized to execute for the holder
	LastRefueled *big.Int       `json:"last_refueled"` // unix timestamp of last successful trigger
}

// Active reports whether the policy exists. threshold > 0 is the sole
// existence marker; gasAmount alone never makes a policy active.
func (p *RefuelPolicy) Active() bool {
	return p.Threshold != nil && p.Threshold.Sign() > 0
}

// PolicyKey identifies one (tokenId, chainId) pair within a scan cycle.
type PolicyKey struct {
	TokenID string
	ChainID uint64
}

// ActivePolicy is one (tokenId, chainId, policy) triple produced by the
// scanner. Owner is resolved once per token so downstream components never
// re-read ownerOf.
type ActivePolicy struct {
	TokenID *big.Int       `json:"token_id"`
	ChainID uint64         `json:"chain_id"`
	Owner   common.Address `json:"owner"`
	Policy  RefuelPolicy   `json:"policy"`
}

// Key returns the dedup key for the pair.
func (a *ActivePolicy) Key() PolicyKey {
	return PolicyKey{TokenID: a.TokenID.String(), ChainID: a.ChainID}
}

func (a *ActivePolicy) String() string {
	return fmt.Sprintf("token=%s chain=%d owner=%s", a.TokenID, a.ChainID, a.Owner.Hex())
}

// ProbeResult is the outcome of one balance probe. Available=false means the
// endpoint could not be reached within the retry budget. It is NOT a zero
// balance and must never trigger a refuel.
type ProbeResult struct {
	Balance   *big.Int
	Available bool
}

// Unavailable marks a probe that exhausted its retry budget.
func Unavailable() ProbeResult {
	return ProbeResult{Available: false}
}

// BalanceOf wraps a successfully probed balance.
func BalanceOf(wei *big.Int) ProbeResult {
	return ProbeResult{Balance: wei, Available: true}
}

// ScanCycleResult summarizes one scan pass. It is ephemeral: constructed at
// cycle start, populated incrementally, logged / exposed over /api/status at
// cycle end. The contract remains the only durable state.
type ScanCycleResult struct {
	CycleID          string    `json:"cycle_id"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
	TokensScanned    int       `json:"tokens_scanned"`
	PoliciesFound    int       `json:"policies_found"`
	PairsSkipped     int       `json:"pairs_skipped"`
	RefuelsTriggered int       `json:"refuels_triggered"`
	RefuelsFailed    int       `json:"refuels_failed"`

	// EstimatedFee aggregates the advisory 0.5% fee figure over all triggers.
	// The contract's fee accounting is authoritative; this is telemetry only.
	EstimatedFee *big.Int `json:"estimated_fee"`

	// Fee snapshot read from the contract at cycle end.
	TotalFeesCollected *big.Int `json:"total_fees_collected"`
	WithdrawableFees   *big.Int `json:"withdrawable_fees"`
}

// NewScanCycleResult creates an empty result for a starting cycle.
func NewScanCycleResult(cycleID string) *ScanCycleResult {
	return &ScanCycleResult{
		CycleID:      cycleID,
		StartedAt:    time.Now(),
		EstimatedFee: new(big.Int),
	}
}

// MetaTxKind distinguishes the user-signed request types the relay forwards.
type MetaTxKind string

const (
	MetaTxMint         MetaTxKind = "mint"
	MetaTxMintBatch    MetaTxKind = "mint_batch"
	MetaTxDeposit      MetaTxKind = "deposit"
	MetaTxSetPolicy    MetaTxKind = "set_policy"
	MetaTxCancelPolicy MetaTxKind = "cancel_policy"
	MetaTxBindAgent    MetaTxKind = "bind_agent"

	// MetaTxAutoRefuel is relayer-originated (no user signature); it carries a
	// triggered refuel from the dispatcher through the same ordered pipeline.
	MetaTxAutoRefuel MetaTxKind = "auto_refuel"
)

// ParseMetaTxKind validates a kind string from the HTTP surface.
func ParseMetaTxKind(s string) (MetaTxKind, error) {
	switch MetaTxKind(s) {
	case MetaTxMint, MetaTxMintBatch, MetaTxDeposit, MetaTxSetPolicy, MetaTxCancelPolicy, MetaTxBindAgent:
		return MetaTxKind(s), nil
	}
	return "", fmt.Errorf("unknown meta-tx kind: %q", s)
}
