package contract

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/qwe638853/GasPass-sub000/internal/models"
)

// Typed payload shapes for the *WithSig entrypoints. Big integer fields are
// decimal (or 0x hex) strings so JSON round-trips never lose precision. The
// relay passes them through opaquely; nonce and deadline validity is checked
// by the contract, never here.

// MintPayload mints a new gas pass funded with `value` stablecoin units.
type MintPayload struct {
	To       string `json:"to"`
	Value    string `json:"value"`
	Deadline uint64 `json:"deadline"`
	Nonce    uint64 `json:"nonce"`
}

// MintBatchPayload mints several passes for one recipient in one call.
type MintBatchPayload struct {
	To       string   `json:"to"`
	Values   []string `json:"values"`
	Deadline uint64   `json:"deadline"`
	Nonce    uint64   `json:"nonce"`
}

// DepositPayload tops up an existing pass.
type DepositPayload struct {
	TokenID  string `json:"tokenId"`
	Value    string `json:"value"`
	Deadline uint64 `json:"deadline"`
	Nonce    uint64 `json:"nonce"`
}

// SetPolicyPayload creates or updates a refuel policy for a (token, chain) pair.
type SetPolicyPayload struct {
	TokenID   string `json:"tokenId"`
	ChainID   uint64 `json:"chainId"`
	GasAmount string `json:"gasAmount"`
	Threshold string `json:"threshold"`
	Agent     string `json:"agent"`
	Deadline  uint64 `json:"deadline"`
	Nonce     uint64 `json:"nonce"`
}

// CancelPolicyPayload resets a policy's threshold to zero.
type CancelPolicyPayload struct {
	TokenID  string `json:"tokenId"`
	ChainID  uint64 `json:"chainId"`
	Deadline uint64 `json:"deadline"`
	Nonce    uint64 `json:"nonce"`
}

// BindAgentPayload authorizes an agent wallet for a pass.
type BindAgentPayload struct {
	TokenID  string `json:"tokenId"`
	Agent    string `json:"agent"`
	Deadline uint64 `json:"deadline"`
	Nonce    uint64 `json:"nonce"`
}

// AutoRefuelPayload is dispatcher-originated: the canonical bridge request
// bytes plus the locally computed hash the contract must re-derive.
type AutoRefuelPayload struct {
	TokenID       string `json:"tokenId"`
	Inbox         string `json:"inbox"`
	RequestData   string `json:"requestData"`  // 0x-prefixed canonical encoding
	ExpectedHash  string `json:"expectedHash"` // 0x-prefixed 32 bytes
	TargetChainID uint64 `json:"targetChainId"`
}

var (
	packABI     abi.ABI
	packABIOnce sync.Once
	packABIErr  error
)

func parsedABI() (abi.ABI, error) {
	packABIOnce.Do(func() {
		packABI, packABIErr = abi.JSON(strings.NewReader(gasPassABI))
	})
	return packABI, packABIErr
}

// PackMetaTx turns a relay request's typed data into contract calldata. The
// payload is decoded only to re-encode it for the ABI; no field is validated
// beyond parseability; the contract is the verification authority.
func PackMetaTx(kind models.MetaTxKind, typedData json.RawMessage, signature []byte) ([]byte, error) {
	parsed, err := parsedABI()
	if err != nil {
		return nil, fmt.Errorf("failed to parse GasPass ABI: %w", err)
	}

	switch kind {
	case models.MetaTxMint:
		var p MintPayload
		if err := json.Unmarshal(typedData, &p); err != nil {
			return nil, fmt.Errorf("decode mint payload: %w", err)
		}
		value, err := parseBig(p.Value)
		if err != nil {
			return nil, fmt.Errorf("mint value: %w", err)
		}
		return parsed.Pack("mintWithSig",
			common.HexToAddress(p.To), value,
			new(big.Int).SetUint64(p.Deadline), new(big.Int).SetUint64(p.Nonce), signature)

	case models.MetaTxMintBatch:
		var p MintBatchPayload
		if err := json.Unmarshal(typedData, &p); err != nil {
			return nil, fmt.Errorf("decode mint batch payload: %w", err)
		}
		values := make([]*big.Int, 0, len(p.Values))
		for i, v := range p.Values {
			value, err := parseBig(v)
			if err != nil {
				return nil, fmt.Errorf("mint batch value[%d]: %w", i, err)
			}
			values = append(values, value)
		}
		return parsed.Pack("mintBatchWithSig",
			common.HexToAddress(p.To), values,
			new(big.Int).SetUint64(p.Deadline), new(big.Int).SetUint64(p.Nonce), signature)

	case models.MetaTxDeposit:
		var p DepositPayload
		if err := json.Unmarshal(typedData, &p); err != nil {
			return nil, fmt.Errorf("decode deposit payload: %w", err)
		}
		tokenID, err := parseBig(p.TokenID)
		if err != nil {
			return nil, fmt.Errorf("deposit tokenId: %w", err)
		}
		value, err := parseBig(p.Value)
		if err != nil {
			return nil, fmt.Errorf("deposit value: %w", err)
		}
		return parsed.Pack("depositWithSig",
			tokenID, value,
			new(big.Int).SetUint64(p.Deadline), new(big.Int).SetUint64(p.Nonce), signature)

	case models.MetaTxSetPolicy:
		var p SetPolicyPayload
		if err := json.Unmarshal(typedData, &p); err != nil {
			return nil, fmt.Errorf("decode set policy payload: %w", err)
		}
		tokenID, err := parseBig(p.TokenID)
		if err != nil {
			return nil, fmt.Errorf("set policy tokenId: %w", err)
		}
		gasAmount, err := parseBig(p.GasAmount)
		if err != nil {
			return nil, fmt.Errorf("set policy gasAmount: %w", err)
		}
		threshold, err := parseBig(p.Threshold)
		if err != nil {
			return nil, fmt.Errorf("set policy threshold: %w", err)
		}
		return parsed.Pack("setRefuelPolicyWithSig",
			tokenID, p.ChainID, gasAmount, threshold, common.HexToAddress(p.Agent),
			new(big.Int).SetUint64(p.Deadline), new(big.Int).SetUint64(p.Nonce), signature)

	case models.MetaTxCancelPolicy:
		var p CancelPolicyPayload
		if err := json.Unmarshal(typedData, &p); err != nil {
			return nil, fmt.Errorf("decode cancel policy payload: %w", err)
		}
		tokenID, err := parseBig(p.TokenID)
		if err != nil {
			return nil, fmt.Errorf("cancel policy tokenId: %w", err)
		}
		return parsed.Pack("cancelRefuelPolicyWithSig",
			tokenID, p.ChainID,
			new(big.Int).SetUint64(p.Deadline), new(big.Int).SetUint64(p.Nonce), signature)

	case models.MetaTxBindAgent:
		var p BindAgentPayload
		if err := json.Unmarshal(typedData, &p); err != nil {
			return nil, fmt.Errorf("decode bind agent payload: %w", err)
		}
		tokenID, err := parseBig(p.TokenID)
		if err != nil {
			return nil, fmt.Errorf("bind agent tokenId: %w", err)
		}
		return parsed.Pack("setAgentToWalletWithSig",
			tokenID, common.HexToAddress(p.Agent),
			new(big.Int).SetUint64(p.Deadline), new(big.Int).SetUint64(p.Nonce), signature)

	case models.MetaTxAutoRefuel:
		var p AutoRefuelPayload
		if err := json.Unmarshal(typedData, &p); err != nil {
			return nil, fmt.Errorf("decode auto refuel payload: %w", err)
		}
		tokenID, err := parseBig(p.TokenID)
		if err != nil {
			return nil, fmt.Errorf("auto refuel tokenId: %w", err)
		}
		requestData, err := hexutil.Decode(p.RequestData)
		if err != nil {
			return nil, fmt.Errorf("auto refuel requestData: %w", err)
		}
		var expectedHash [32]byte
		hashBytes, err := hexutil.Decode(p.ExpectedHash)
		if err != nil || len(hashBytes) != 32 {
			return nil, fmt.Errorf("auto refuel expectedHash must be 32 bytes")
		}
		copy(expectedHash[:], hashBytes)
		return parsed.Pack("autoRefuel",
			tokenID, common.HexToAddress(p.Inbox), requestData, expectedHash, p.TargetChainID)
	}

	return nil, fmt.Errorf("unknown meta-tx kind: %q", kind)
}

// parseBig accepts decimal or 0x-prefixed hex integer strings.
func parseBig(s string) (*big.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("empty integer string")
	}
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	n, ok := new(big.Int).SetString(s, base)
	if !ok {
		return nil, fmt.Errorf("invalid integer string: %q", s)
	}
	return n, nil
}
