package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"

	"github.com/qwe638853/GasPass-sub000/internal/bridge"
	"github.com/qwe638853/GasPass-sub000/internal/clients"
	"github.com/qwe638853/GasPass-sub000/internal/config"
	"github.com/qwe638853/GasPass-sub000/internal/contract"
	"github.com/qwe638853/GasPass-sub000/internal/models"
	"github.com/qwe638853/GasPass-sub000/internal/relay"
)

// requestDeadline bounds how long a bridge request stays fillable. Long
// enough to ride out transmitter congestion, short enough that a stale
// request cannot execute against a policy cancelled cycles ago.
const requestDeadline = 30 * time.Minute

// QuoteClient prices one gas delivery. Satisfied by *clients.BungeeClient.
type QuoteClient interface {
	GetQuote(ctx context.Context, req *clients.BungeeQuoteRequest) (*clients.BungeeQuoteResponse, error)
}

// Forwarder is the relay surface the dispatcher submits through.
type Forwarder interface {
	Forward(ctx context.Context, req *relay.MetaTxRequest) (*relay.Result, error)
}

// Trigger is one refuel decision handed over by the monitor.
type Trigger struct {
	CycleID string
	Policy  models.ActivePolicy
}

// Dispatcher turns trigger decisions into autoRefuel submissions: quote the
// route, build the canonical request, bind it to its hash, and hand it to the
// relay. The contract re-derives the hash from the request bytes and reverts
// on any disagreement, so a corrupted quote can never redirect funds.
type Dispatcher struct {
	cfg       *config.Config
	quotes    QuoteClient
	forwarder Forwarder

	contractAddr common.Address
	stableToken  common.Address
}

// New creates a dispatcher bound to the configured hub contract.
func New(cfg *config.Config, quotes QuoteClient, forwarder Forwarder) *Dispatcher {
	return &Dispatcher{
		cfg:          cfg,
		quotes:       quotes,
		forwarder:    forwarder,
		contractAddr: common.HexToAddress(cfg.Contract.Address),
		stableToken:  common.HexToAddress(cfg.Contract.StableToken),
	}
}

// Dispatch executes one trigger end to end. Quote failures are retryable
// (wrapped in ErrQuoteUnavailable, the pair re-evaluates next cycle); a hash
// mismatch is not (ErrHashMismatch, encoding bug until proven otherwise).
func (d *Dispatcher) Dispatch(ctx context.Context, trigger *Trigger) (*relay.Result, error) {
	policy := trigger.Policy

	chain, err := d.cfg.GetChainByID(policy.ChainID)
	if err != nil {
		return nil, fmt.Errorf("refuel target chain: %w", err)
	}

	quote, err := d.quotes.GetQuote(ctx, &clients.BungeeQuoteRequest{
		OriginChainID:      d.cfg.Contract.HubChainID,
		DestinationChainID: policy.ChainID,
		InputToken:         d.stableToken.Hex(),
		InputAmount:        policy.Policy.GasAmount.String(),
		ReceiverAddress:    policy.Owner.Hex(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", relay.ErrQuoteUnavailable, err)
	}

	req, err := d.buildRequest(&policy, chain, quote)
	if err != nil {
		return nil, fmt.Errorf("failed to build bridge request: %w", err)
	}

	expectedHash := req.ComputeExpectedHash()
	if quote.RequestHash != "" && !strings.EqualFold(quote.RequestHash, expectedHash.Hex()) {
		log.Printf("❌ [Dispatcher] Request hash mismatch for %s: local=%s quote=%s",
			policy.String(), expectedHash.Hex(), quote.RequestHash)
		return nil, fmt.Errorf("%w: local=%s quote=%s", relay.ErrHashMismatch, expectedHash.Hex(), quote.RequestHash)
	}

	payload, err := json.Marshal(&contract.AutoRefuelPayload{
		TokenID:       policy.TokenID.String(),
		Inbox:         chain.Inbox,
		RequestData:   hexutil.Encode(req.Encode()),
		ExpectedHash:  expectedHash.Hex(),
		TargetChainID: policy.ChainID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal autoRefuel payload: %w", err)
	}

	log.Printf("⛽ [Dispatcher] Forwarding autoRefuel for %s via %s (hash=%s)",
		policy.String(), chain.Name, expectedHash.Hex())

	// System-originated: no user signature, zero signer queues FIFO.
	return d.forwarder.Forward(ctx, &relay.MetaTxRequest{
		ID:        uuid.New().String(),
		Kind:      models.MetaTxAutoRefuel,
		Signer:    common.Address{},
		Nonce:     0,
		TypedData: payload,
	})
}

// buildRequest assembles the canonical inbox request from policy and quote.
func (d *Dispatcher) buildRequest(policy *models.ActivePolicy, chain *config.ChainConfig, quote *clients.BungeeQuoteResponse) (*bridge.Request, error) {
	nonce, err := bridge.NewNonce()
	if err != nil {
		return nil, err
	}

	switchboardID, err := parseQuoteBig("switchboardId", quote.SwitchboardID)
	if err != nil {
		return nil, err
	}
	minOutput, err := parseQuoteBig("minOutputAmount", quote.Route.MinOutputAmount)
	if err != nil {
		return nil, err
	}
	refuelAmount, err := parseQuoteBig("refuelAmount", quote.Route.RefuelAmount)
	if err != nil {
		return nil, err
	}
	minDestGas, err := parseQuoteBig("minDestGas", quote.Route.MinDestGas)
	if err != nil {
		return nil, err
	}

	return &bridge.Request{
		OriginChainID:      d.cfg.Contract.HubChainID,
		DestinationChainID: chain.ChainID,
		Deadline:           big.NewInt(time.Now().Add(requestDeadline).Unix()),
		Nonce:              nonce,
		Sender:             d.contractAddr,
		Receiver:           policy.Owner,
		Delegate:           policy.Policy.Agent,
		BungeeGateway:      common.HexToAddress(quote.BungeeGateway),
		SwitchboardID:      switchboardID,
		InputToken:         d.stableToken,
		InputAmount:        new(big.Int).Set(policy.Policy.GasAmount),
		OutputToken:        common.HexToAddress(quote.Route.OutputToken),
		MinOutputAmount:    minOutput,
		RefuelAmount:       refuelAmount,
		MinDestGas:         minDestGas,
	}, nil
}

func parseQuoteBig(field, s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("quote field %s is not a decimal integer: %q", field, s)
	}
	return n, nil
}
