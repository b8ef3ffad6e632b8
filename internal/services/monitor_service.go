package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/qwe638853/GasPass-sub000/internal/clients"
	"github.com/qwe638853/GasPass-sub000/internal/config"
	"github.com/qwe638853/GasPass-sub000/internal/db"
	"github.com/qwe638853/GasPass-sub000/internal/dispatcher"
	"github.com/qwe638853/GasPass-sub000/internal/engine"
	"github.com/qwe638853/GasPass-sub000/internal/metrics"
	"github.com/qwe638853/GasPass-sub000/internal/models"
	"github.com/qwe638853/GasPass-sub000/internal/relay"
)

// PolicyScanner enumerates active policies. Satisfied by *scanner.Scanner.
type PolicyScanner interface {
	Scan(ctx context.Context) (*models.ScanCycleResult, []models.ActivePolicy, error)
}

// BalanceProber fetches one native balance. Satisfied by *prober.Prober.
type BalanceProber interface {
	Probe(ctx context.Context, chain *config.ChainConfig, addr common.Address) models.ProbeResult
}

// RefuelDispatcher executes one trigger. Satisfied by *dispatcher.Dispatcher.
type RefuelDispatcher interface {
	Dispatch(ctx context.Context, trigger *dispatcher.Trigger) (*relay.Result, error)
}

// EventPublisher publishes monitor lifecycle events. Satisfied by
// *clients.NATSClient; nil disables publishing.
type EventPublisher interface {
	Publish(subject string, event interface{}) error
}

// FeeReader reads the contract's fee counters for the cycle snapshot.
type FeeReader interface {
	TotalFeesCollected(ctx context.Context) (*big.Int, error)
	GetWithdrawableFees(ctx context.Context) (*big.Int, error)
}

// MonitorService drives the scan → probe → decide → dispatch loop. Cycles
// never overlap: if the previous cycle is still running when the ticker
// fires, the tick is skipped.
type MonitorService struct {
	cfg        *config.Config
	scanner    PolicyScanner
	prober     BalanceProber
	dispatcher RefuelDispatcher
	fees       FeeReader
	database   *db.Database
	events     EventPublisher

	stopChan chan struct{}
	cycleMu  sync.Mutex

	mu          sync.RWMutex
	lastResult  *models.ScanCycleResult
	lastTriples []models.ActivePolicy
}

// NewMonitorService wires the monitor. database and events may be nil.
func NewMonitorService(cfg *config.Config, sc PolicyScanner, pr BalanceProber, di RefuelDispatcher, fees FeeReader, database *db.Database, events EventPublisher) *MonitorService {
	return &MonitorService{
		cfg:        cfg,
		scanner:    sc,
		prober:     pr,
		dispatcher: di,
		fees:       fees,
		database:   database,
		events:     events,
		stopChan:   make(chan struct{}),
	}
}

// Start begins the periodic scan loop.
func (s *MonitorService) Start() {
	interval := s.cfg.Monitor.ScanIntervalDuration()
	log.Printf("🚀 Monitor service starting (scan interval %v, %d chains)...",
		interval, len(s.cfg.EnabledChains()))
	go s.run(interval)
}

// Stop gracefully stops the scan loop. An in-flight cycle runs to completion.
func (s *MonitorService) Stop() {
	log.Println("🛑 Stopping monitor service...")
	close(s.stopChan)
}

func (s *MonitorService) run(interval time.Duration) {
	// Initial cycle on startup.
	if _, err := s.RunCycle(context.Background()); err != nil {
		log.Printf("❌ Initial scan cycle failed: %v", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.RunCycle(context.Background()); err != nil {
				log.Printf("❌ Scan cycle failed: %v", err)
			}
		case <-s.stopChan:
			log.Println("🛑 Monitor scan loop stopped")
			return
		}
	}
}

// RunCycle executes one full cycle. Safe to call from the admin endpoint; a
// concurrent call while a cycle is in flight returns an error instead of
// overlapping.
func (s *MonitorService) RunCycle(ctx context.Context) (*models.ScanCycleResult, error) {
	if !s.cycleMu.TryLock() {
		return nil, fmt.Errorf("scan cycle already in progress")
	}
	defer s.cycleMu.Unlock()

	started := time.Now()
	result, triples, err := s.scanner.Scan(ctx)
	if err != nil {
		metrics.ScanCyclesTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	cycle := engine.NewCycle()
	byChain := groupByChain(triples)

	var wg sync.WaitGroup
	var resultMu sync.Mutex
	for chainID, group := range byChain {
		chain, chainErr := s.cfg.GetChainByID(chainID)
		if chainErr != nil {
			log.Printf("⚠️ [Monitor] %d policies on unconfigured chain %d, skipping", len(group), chainID)
			resultMu.Lock()
			result.PairsSkipped += len(group)
			resultMu.Unlock()
			metrics.PairsSkipped.WithLabelValues("chain_not_configured").Add(float64(len(group)))
			continue
		}

		wg.Add(1)
		go func(chain *config.ChainConfig, group []models.ActivePolicy) {
			defer wg.Done()
			s.processChain(ctx, result, &resultMu, cycle, chain, group)
		}(chain, group)
	}
	wg.Wait()

	s.snapshotFees(ctx, result)

	result.FinishedAt = time.Now()
	metrics.ScanCyclesTotal.WithLabelValues("success").Inc()
	metrics.ScanCycleDuration.Observe(time.Since(started).Seconds())
	metrics.PoliciesFound.Set(float64(result.PoliciesFound))

	s.persistCycle(result)
	s.publish(clients.SubjectScanCompleted, result)

	s.mu.Lock()
	s.lastResult = result
	s.lastTriples = triples
	s.mu.Unlock()

	log.Printf("✅ [Monitor] Cycle %s done in %v: %d policies, %d triggered, %d failed, %d skipped",
		result.CycleID, result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond),
		result.PoliciesFound, result.RefuelsTriggered, result.RefuelsFailed, result.PairsSkipped)
	return result, nil
}

// processChain probes and decides every policy for one chain.
func (s *MonitorService) processChain(ctx context.Context, result *models.ScanCycleResult, resultMu *sync.Mutex, cycle *engine.Cycle, chain *config.ChainConfig, group []models.ActivePolicy) {
	for i := range group {
		policy := group[i]

		probe := s.prober.Probe(ctx, chain, policy.Owner)
		decision := cycle.Decide(policy, probe)
		if !decision.Trigger {
			if !probe.Available {
				resultMu.Lock()
				result.PairsSkipped++
				resultMu.Unlock()
				metrics.PairsSkipped.WithLabelValues("balance_unavailable").Inc()
			}
			continue
		}

		resultMu.Lock()
		result.RefuelsTriggered++
		result.EstimatedFee.Add(result.EstimatedFee, decision.EstimatedFee)
		resultMu.Unlock()
		metrics.RefuelsTriggered.WithLabelValues(chain.Name).Inc()

		record := s.newRefuelRecord(result.CycleID, &policy, probe, decision)
		s.publish(clients.SubjectRefuelTriggered, record)

		relayResult, err := s.dispatcher.Dispatch(ctx, &dispatcher.Trigger{
			CycleID: result.CycleID,
			Policy:  policy,
		})
		if err != nil {
			reason := failureReason(err)
			log.Printf("❌ [Monitor] Refuel dispatch failed for %s (%s): %v", policy.String(), reason, err)
			resultMu.Lock()
			result.RefuelsFailed++
			resultMu.Unlock()
			metrics.RefuelsFailed.WithLabelValues(chain.Name, reason).Inc()

			record.Status = models.RefuelStatusFailed
			record.LastError = err.Error()
		} else {
			record.Status = models.RefuelStatusSubmitted
			record.TxHash = relayResult.TxHash.Hex()
			s.publish(clients.SubjectRelaySubmitted, record)
		}
		record.UpdatedAt = time.Now()
		s.persistRefuel(record)
	}
}

// snapshotFees reads the contract fee counters at cycle end. Best effort: a
// failed read leaves the snapshot fields nil.
func (s *MonitorService) snapshotFees(ctx context.Context, result *models.ScanCycleResult) {
	if s.fees == nil {
		return
	}
	if total, err := s.fees.TotalFeesCollected(ctx); err == nil {
		result.TotalFeesCollected = total
	} else {
		log.Printf("⚠️ [Monitor] totalFeesCollected read failed: %v", err)
	}
	if withdrawable, err := s.fees.GetWithdrawableFees(ctx); err == nil {
		result.WithdrawableFees = withdrawable
	} else {
		log.Printf("⚠️ [Monitor] getWithdrawableFees read failed: %v", err)
	}
}

// LastResult returns the most recent completed cycle summary, or nil.
func (s *MonitorService) LastResult() *models.ScanCycleResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastResult
}

// ActivePolicies returns the triples found by the most recent cycle.
func (s *MonitorService) ActivePolicies() []models.ActivePolicy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastTriples
}

func (s *MonitorService) newRefuelRecord(cycleID string, policy *models.ActivePolicy, probe models.ProbeResult, decision engine.Decision) *models.RefuelRecord {
	now := time.Now()
	return &models.RefuelRecord{
		ID:           uuid.New().String(),
		CycleID:      cycleID,
		TokenID:      policy.TokenID.String(),
		ChainID:      policy.ChainID,
		Owner:        policy.Owner.Hex(),
		Agent:        policy.Policy.Agent.Hex(),
		GasAmount:    bigString(policy.Policy.GasAmount),
		Threshold:    bigString(policy.Policy.Threshold),
		Balance:      bigString(probe.Balance),
		EstimatedFee: bigString(decision.EstimatedFee),
		Status:       models.RefuelStatusTriggered,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (s *MonitorService) persistCycle(result *models.ScanCycleResult) {
	if s.database == nil {
		return
	}
	record := &models.ScanCycleRecord{
		ID:                 result.CycleID,
		StartedAt:          result.StartedAt,
		FinishedAt:         result.FinishedAt,
		TokensScanned:      result.TokensScanned,
		PoliciesFound:      result.PoliciesFound,
		PairsSkipped:       result.PairsSkipped,
		RefuelsTriggered:   result.RefuelsTriggered,
		RefuelsFailed:      result.RefuelsFailed,
		EstimatedFee:       bigString(result.EstimatedFee),
		TotalFeesCollected: bigString(result.TotalFeesCollected),
		WithdrawableFees:   bigString(result.WithdrawableFees),
		CreatedAt:          time.Now(),
	}
	if err := s.database.SaveScanCycle(record); err != nil {
		log.Printf("⚠️ [Monitor] Failed to persist cycle %s: %v", result.CycleID, err)
	}
}

func (s *MonitorService) persistRefuel(record *models.RefuelRecord) {
	if s.database == nil {
		return
	}
	if err := s.database.SaveRefuel(record); err != nil {
		log.Printf("⚠️ [Monitor] Failed to persist refuel %s: %v", record.ID, err)
	}
}

func (s *MonitorService) publish(subject string, event interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(subject, event); err != nil {
		log.Printf("⚠️ [Monitor] Failed to publish %s: %v", subject, err)
	}
}

func groupByChain(triples []models.ActivePolicy) map[uint64][]models.ActivePolicy {
	byChain := make(map[uint64][]models.ActivePolicy)
	for _, t := range triples {
		byChain[t.ChainID] = append(byChain[t.ChainID], t)
	}
	return byChain
}

// failureReason buckets dispatch errors for the failure metric.
func failureReason(err error) string {
	switch {
	case errors.Is(err, relay.ErrQuoteUnavailable):
		return "quote_unavailable"
	case errors.Is(err, relay.ErrHashMismatch):
		return "hash_mismatch"
	case errors.Is(err, relay.ErrTxReverted):
		return "tx_reverted"
	default:
		return "relay_failed"
	}
}

func bigString(n *big.Int) string {
	if n == nil {
		return ""
	}
	return n.String()
}
