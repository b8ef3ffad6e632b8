package relay

import (
	"context"
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/qwe638853/GasPass-sub000/internal/models"
)

// MetaTxRequest is one meta-transaction envelope accepted by the forwarder.
// Nonce is the signer's meta-tx nonce and is used only to order same-signer
// submissions; its validity is enforced by the contract, never here. The
// typed data stays opaque until packing.
type MetaTxRequest struct {
	// ID is the caller-supplied idempotency key. Resubmitting an ID returns
	// the first submission's outcome instead of forwarding twice.
	ID        string            `json:"id"`
	Kind      models.MetaTxKind `json:"kind"`
	Signer    common.Address    `json:"signer"`
	Nonce     uint64            `json:"nonce"`
	TypedData json.RawMessage   `json:"typed_data"`
	Signature []byte            `json:"signature"`
}

// Result is the on-chain outcome of one forwarded meta-transaction.
type Result struct {
	TxHash      common.Hash `json:"tx_hash"`
	BlockNumber *big.Int    `json:"block_number"`
	GasUsed     uint64      `json:"gas_used"`

	// TokenID is recovered from mint Transfer logs when present.
	TokenID *big.Int `json:"token_id,omitempty"`
}

// Submitter signs and lands one meta-transaction on the hub chain. The
// forwarder guarantees it is never called concurrently for the same relayer
// key.
type Submitter interface {
	Submit(ctx context.Context, req *MetaTxRequest) (*Result, error)
}
