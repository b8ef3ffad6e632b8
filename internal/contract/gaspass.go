package contract

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/qwe638853/GasPass-sub000/internal/models"
)

// Caller wraps read access to the GasPass contract on the hub chain. It is a
// thin eth_call layer; all state mutation goes through the relay forwarder.
type Caller struct {
	client  models.EVMClient
	address common.Address
	abi     abi.ABI
	timeout time.Duration
}

// NewCaller parses the embedded ABI once and binds it to the hub client.
func NewCaller(client models.EVMClient, address common.Address, readTimeout time.Duration) (*Caller, error) {
	parsed, err := abi.JSON(strings.NewReader(gasPassABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse GasPass ABI: %w", err)
	}
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	return &Caller{
		client:  client,
		address: address,
		abi:     parsed,
		timeout: readTimeout,
	}, nil
}

// Address returns the bound contract address.
func (c *Caller) Address() common.Address {
	return c.address
}

// call packs, executes eth_call with a per-call timeout, and unpacks.
func (c *Caller) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	input, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	output, err := c.client.CallContract(callCtx, ethereum.CallMsg{
		To:   &c.address,
		Data: input,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}

	values, err := c.abi.Unpack(method, output)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

func (c *Caller) callBig(ctx context.Context, method string, args ...interface{}) (*big.Int, error) {
	values, err := c.call(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	result, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected output type %T", method, values[0])
	}
	return result, nil
}

// TotalSupply returns the number of minted gas passes.
func (c *Caller) TotalSupply(ctx context.Context) (*big.Int, error) {
	return c.callBig(ctx, "totalSupply")
}

// TokenByIndex returns the tokenId at the given enumeration index.
func (c *Caller) TokenByIndex(ctx context.Context, index *big.Int) (*big.Int, error) {
	return c.callBig(ctx, "tokenByIndex", index)
}

// OwnerOf returns the holder of a gas pass.
func (c *Caller) OwnerOf(ctx context.Context, tokenID *big.Int) (common.Address, error) {
	values, err := c.call(ctx, "ownerOf", tokenID)
	if err != nil {
		return common.Address{}, err
	}
	owner, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("ownerOf: unexpected output type %T", values[0])
	}
	return owner, nil
}

// BalanceOf returns the stablecoin value stored in a gas pass.
func (c *Caller) BalanceOf(ctx context.Context, tokenID *big.Int) (*big.Int, error) {
	return c.callBig(ctx, "balanceOf", tokenID)
}

// ChainPolicies returns the stored refuel policy for a (token, chain) pair.
// A zero threshold in the returned policy means no policy exists.
func (c *Caller) ChainPolicies(ctx context.Context, tokenID *big.Int, chainID uint64) (models.RefuelPolicy, error) {
	values, err := c.call(ctx, "chainPolicies", tokenID, chainID)
	if err != nil {
		return models.RefuelPolicy{}, err
	}
	if len(values) != 4 {
		return models.RefuelPolicy{}, fmt.Errorf("chainPolicies: expected 4 outputs, got %d", len(values))
	}

	policy := models.RefuelPolicy{}
	var ok bool
	if policy.GasAmount, ok = values[0].(*big.Int); !ok {
		return models.RefuelPolicy{}, fmt.Errorf("chainPolicies: bad gasAmount type %T", values[0])
	}
	if policy.Threshold, ok = values[1].(*big.Int); !ok {
		return models.RefuelPolicy{}, fmt.Errorf("chainPolicies: bad threshold type %T", values[1])
	}
	if policy.Agent, ok = values[2].(common.Address); !ok {
		return models.RefuelPolicy{}, fmt.Errorf("chainPolicies: bad agent type %T", values[2])
	}
	if policy.LastRefueled, ok = values[3].(*big.Int); !ok {
		return models.RefuelPolicy{}, fmt.Errorf("chainPolicies: bad lastRefueled type %T", values[3])
	}
	return policy, nil
}

// TotalFeesCollected returns the lifetime protocol fee total.
func (c *Caller) TotalFeesCollected(ctx context.Context) (*big.Int, error) {
	return c.callBig(ctx, "totalFeesCollected")
}

// GetWithdrawableFees returns the currently withdrawable fee balance.
func (c *Caller) GetWithdrawableFees(ctx context.Context) (*big.Int, error) {
	return c.callBig(ctx, "getWithdrawableFees")
}

// OwnerNonces returns the meta-tx nonce sequence position for an owner.
func (c *Caller) OwnerNonces(ctx context.Context, owner common.Address) (*big.Int, error) {
	return c.callBig(ctx, "ownerNonces", owner)
}

// Nonces returns the per-token nonce used by deposit/policy signatures.
func (c *Caller) Nonces(ctx context.Context, tokenID *big.Int) (*big.Int, error) {
	return c.callBig(ctx, "nonces", tokenID)
}

// transferTopic is the Transfer(address,address,uint256) event signature.
var transferTopic = common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")

// ParseMintedTokenID scans receipt logs for a Transfer from the zero address
// emitted by the GasPass contract and returns the minted tokenId. Absence is
// not an error: the mint may have succeeded under a different ABI version.
func ParseMintedTokenID(logs []*types.Log, contractAddr common.Address) (*big.Int, bool) {
	for _, entry := range logs {
		if entry.Address != contractAddr {
			continue
		}
		if len(entry.Topics) != 4 || entry.Topics[0] != transferTopic {
			continue
		}
		if entry.Topics[1] != (common.Hash{}) {
			continue // not a mint
		}
		return new(big.Int).SetBytes(entry.Topics[3].Bytes()), true
	}
	return nil, false
}
