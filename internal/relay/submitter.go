package relay

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/qwe638853/GasPass-sub000/internal/contract"
	"github.com/qwe638853/GasPass-sub000/internal/models"
)

// EthSubmitter signs meta-transactions with the dedicated relayer key and
// waits for confirmation. The relayer pays gas; the contract settles the
// signer's intent.
type EthSubmitter struct {
	client         models.EVMClient
	contractAddr   common.Address
	privateKey     *ecdsa.PrivateKey
	relayerAddr    common.Address
	chainID        *big.Int
	gasLimit       uint64
	confirmTimeout time.Duration
}

// NewEthSubmitter parses the hex-encoded relayer private key and binds the
// submitter to the hub chain.
func NewEthSubmitter(client models.EVMClient, contractAddr common.Address, privateKeyHex string, chainID *big.Int, gasLimit uint64, confirmTimeout time.Duration) (*EthSubmitter, error) {
	if privateKeyHex == "" {
		return nil, fmt.Errorf("relayer private key is not set")
	}
	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("failed to parse relayer private key: %w", err)
	}
	if gasLimit == 0 {
		gasLimit = 500_000
	}
	if confirmTimeout <= 0 {
		confirmTimeout = 2 * time.Minute
	}
	return &EthSubmitter{
		client:         client,
		contractAddr:   contractAddr,
		privateKey:     privateKey,
		relayerAddr:    crypto.PubkeyToAddress(privateKey.PublicKey),
		chainID:        chainID,
		gasLimit:       gasLimit,
		confirmTimeout: confirmTimeout,
	}, nil
}

// RelayerAddress returns the address paying gas for forwarded transactions.
func (s *EthSubmitter) RelayerAddress() common.Address {
	return s.relayerAddr
}

// Submit packs, signs, sends and waits for one meta-transaction. The caller
// serializes invocations; PendingNonceAt is safe here only because no other
// goroutine is spending the relayer's nonce.
func (s *EthSubmitter) Submit(ctx context.Context, req *MetaTxRequest) (*Result, error) {
	data, err := contract.PackMetaTx(req.Kind, req.TypedData, req.Signature)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", req.Kind, err)
	}

	nonce, err := s.client.PendingNonceAt(ctx, s.relayerAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch relayer nonce: %w", err)
	}

	gasPrice, err := s.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch gas price: %w", err)
	}

	tx := types.NewTransaction(nonce, s.contractAddr, big.NewInt(0), s.gasLimit, gasPrice, data)
	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(s.chainID), s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := s.client.SendTransaction(ctx, signedTx); err != nil {
		if isNonceConflict(err) {
			return nil, fmt.Errorf("%w: %v", ErrNonceConflict, err)
		}
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}

	log.Printf("🚀 [Relay] Sent %s tx=%s relayerNonce=%d", req.Kind, signedTx.Hash().Hex(), nonce)

	waitCtx, cancel := context.WithTimeout(ctx, s.confirmTimeout)
	defer cancel()

	receipt, err := bind.WaitMined(waitCtx, s.client, signedTx)
	if err != nil {
		return nil, fmt.Errorf("failed waiting for tx %s: %w", signedTx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: tx %s", ErrTxReverted, signedTx.Hash().Hex())
	}

	result := &Result{
		TxHash:      signedTx.Hash(),
		BlockNumber: receipt.BlockNumber,
		GasUsed:     receipt.GasUsed,
	}

	if req.Kind == models.MetaTxMint || req.Kind == models.MetaTxMintBatch {
		if tokenID, ok := contract.ParseMintedTokenID(receipt.Logs, s.contractAddr); ok {
			result.TokenID = tokenID
		} else {
			log.Printf("⚠️ [Relay] Mint tx %s confirmed but no Transfer log found", signedTx.Hash().Hex())
		}
	}

	log.Printf("✅ [Relay] Confirmed %s tx=%s block=%s gasUsed=%d",
		req.Kind, result.TxHash.Hex(), result.BlockNumber, result.GasUsed)
	return result, nil
}
