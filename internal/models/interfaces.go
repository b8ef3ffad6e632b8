package models

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// EVMClient is the subset of *ethclient.Client the backend uses. Keeping it
// as an interface lets the endpoint pool and tests substitute fakes without
// dialing real RPC endpoints.
type EVMClient interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error)
	NetworkID(ctx context.Context) (*big.Int, error)
	Close()
}

// GasPassReader is the read surface of the GasPass contract consumed by the
// scanner and the HTTP layer. The contract is the source of truth for
// policies, balances and nonces; the monitor only reads.
type GasPassReader interface {
	TotalSupply(ctx context.Context) (*big.Int, error)
	TokenByIndex(ctx context.Context, index *big.Int) (*big.Int, error)
	OwnerOf(ctx context.Context, tokenID *big.Int) (common.Address, error)
	BalanceOf(ctx context.Context, tokenID *big.Int) (*big.Int, error)
	ChainPolicies(ctx context.Context, tokenID *big.Int, chainID uint64) (RefuelPolicy, error)
	TotalFeesCollected(ctx context.Context) (*big.Int, error)
	GetWithdrawableFees(ctx context.Context) (*big.Int, error)
	OwnerNonces(ctx context.Context, owner common.Address) (*big.Int, error)
	Nonces(ctx context.Context, tokenID *big.Int) (*big.Int, error)
}
