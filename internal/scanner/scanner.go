package scanner

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/qwe638853/GasPass-sub000/internal/config"
	"github.com/qwe638853/GasPass-sub000/internal/metrics"
	"github.com/qwe638853/GasPass-sub000/internal/models"
)

// token is one enumerated gas pass with its resolved owner.
type token struct {
	id    *big.Int
	owner common.Address
}

// Scanner enumerates every gas pass known to the contract and collects the
// active (token, chain, policy) triples for the current cycle.
type Scanner struct {
	reader models.GasPassReader
	chains []config.ChainConfig
}

// New creates a scanner over the hub contract reader and the statically
// configured chain set.
func New(reader models.GasPassReader, chains []config.ChainConfig) *Scanner {
	return &Scanner{reader: reader, chains: chains}
}

// Scan runs one enumeration pass. Only a totalSupply failure is catastrophic
// (there is nothing to iterate); every per-token and per-pair read failure is
// logged, counted as skipped, and never aborts the rest of the scan.
//
// Policy reads fan out per chain: one goroutine walks all tokens for its
// chain, so a slow chain column never serializes the others. Tokens are
// enumerated serially first since tokenByIndex/ownerOf hit the single hub
// endpoint anyway.
func (s *Scanner) Scan(ctx context.Context) (*models.ScanCycleResult, []models.ActivePolicy, error) {
	result := models.NewScanCycleResult(uuid.New().String())

	supply, err := s.reader.TotalSupply(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read totalSupply: %w", err)
	}

	tokens := s.enumerateTokens(ctx, supply, result)
	result.TokensScanned = len(tokens)

	if len(tokens) == 0 {
		log.Printf("📋 [Scanner] No tokens to scan (totalSupply=%s)", supply)
		return result, nil, nil
	}

	var (
		mu      sync.Mutex
		triples []models.ActivePolicy
		wg      sync.WaitGroup
	)

	for i := range s.chains {
		chain := s.chains[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			found, skipped := s.scanChain(ctx, &chain, tokens)

			mu.Lock()
			triples = append(triples, found...)
			result.PoliciesFound += len(found)
			result.PairsSkipped += skipped
			mu.Unlock()
		}()
	}
	wg.Wait()

	// Deterministic order for downstream processing and logs.
	sort.Slice(triples, func(i, j int) bool {
		if cmp := triples[i].TokenID.Cmp(triples[j].TokenID); cmp != 0 {
			return cmp < 0
		}
		return triples[i].ChainID < triples[j].ChainID
	})

	log.Printf("🔍 [Scanner] Scanned %d tokens × %d chains: %d active policies, %d pairs skipped",
		result.TokensScanned, len(s.chains), result.PoliciesFound, result.PairsSkipped)

	return result, triples, nil
}

// enumerateTokens walks tokenByIndex/ownerOf. A failed token is dropped (all
// its pairs count as skipped) without touching its neighbours.
func (s *Scanner) enumerateTokens(ctx context.Context, supply *big.Int, result *models.ScanCycleResult) []token {
	tokens := make([]token, 0, supply.Int64())

	one := big.NewInt(1)
	for i := new(big.Int); i.Cmp(supply) < 0; i.Add(i, one) {
		tokenID, err := s.reader.TokenByIndex(ctx, new(big.Int).Set(i))
		if err != nil {
			log.Printf("⚠️ [Scanner] tokenByIndex(%s) failed, skipping token: %v", i, err)
			result.PairsSkipped += len(s.chains)
			metrics.PairsSkipped.WithLabelValues("token_read_error").Add(float64(len(s.chains)))
			continue
		}

		owner, err := s.reader.OwnerOf(ctx, tokenID)
		if err != nil {
			log.Printf("⚠️ [Scanner] ownerOf(%s) failed, skipping token: %v", tokenID, err)
			result.PairsSkipped += len(s.chains)
			metrics.PairsSkipped.WithLabelValues("owner_read_error").Add(float64(len(s.chains)))
			continue
		}

		tokens = append(tokens, token{id: tokenID, owner: owner})
	}

	return tokens
}

// scanChain reads chainPolicies for every token on one chain. Returns the
// active triples and the number of skipped pairs.
func (s *Scanner) scanChain(ctx context.Context, chain *config.ChainConfig, tokens []token) ([]models.ActivePolicy, int) {
	var (
		found   []models.ActivePolicy
		skipped int
	)

	for _, t := range tokens {
		policy, err := s.reader.ChainPolicies(ctx, t.id, chain.ChainID)
		if err != nil {
			log.Printf("⚠️ [Scanner] chainPolicies(token=%s, chain=%d) failed, skipping pair: %v",
				t.id, chain.ChainID, err)
			skipped++
			metrics.PairsSkipped.WithLabelValues("policy_read_error").Inc()
			continue
		}

		// threshold > 0 is the sole existence marker.
		if !policy.Active() {
			continue
		}

		found = append(found, models.ActivePolicy{
			TokenID: t.id,
			ChainID: chain.ChainID,
			Owner:   t.owner,
			Policy:  policy,
		})
	}

	return found, skipped
}
