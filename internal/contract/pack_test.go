package contract

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qwe638853/GasPass-sub000/internal/models"
)

var testSig = make([]byte, 65)

func mustJSON(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestPackMetaTxAllKinds(t *testing.T) {
	cases := []struct {
		kind    models.MetaTxKind
		payload interface{}
	}{
		{models.MetaTxMint, &MintPayload{
			To: "0x2000000000000000000000000000000000000002", Value: "10000000", Deadline: 1767225600, Nonce: 0,
		}},
		{models.MetaTxMintBatch, &MintBatchPayload{
			To: "0x2000000000000000000000000000000000000002", Values: []string{"1", "2"}, Deadline: 1767225600, Nonce: 1,
		}},
		{models.MetaTxDeposit, &DepositPayload{
			TokenID: "7", Value: "5000000", Deadline: 1767225600, Nonce: 2,
		}},
		{models.MetaTxSetPolicy, &SetPolicyPayload{
			TokenID: "7", ChainID: 8453, GasAmount: "10000000", Threshold: "100000000000000000",
			Agent: "0x3000000000000000000000000000000000000003", Deadline: 1767225600, Nonce: 3,
		}},
		{models.MetaTxCancelPolicy, &CancelPolicyPayload{
			TokenID: "7", ChainID: 8453, Deadline: 1767225600, Nonce: 4,
		}},
		{models.MetaTxBindAgent, &BindAgentPayload{
			TokenID: "7", Agent: "0x3000000000000000000000000000000000000003", Deadline: 1767225600, Nonce: 5,
		}},
		{models.MetaTxAutoRefuel, &AutoRefuelPayload{
			TokenID: "7", Inbox: "0xBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB",
			RequestData:   "0x0102",
			ExpectedHash:  "0x1111111111111111111111111111111111111111111111111111111111111111",
			TargetChainID: 8453,
		}},
	}

	for _, tc := range cases {
		data, err := PackMetaTx(tc.kind, mustJSON(t, tc.payload), testSig)
		require.NoError(t, err, "kind %s", tc.kind)
		// 4-byte selector plus at least one argument word.
		assert.Greater(t, len(data), 4, "kind %s", tc.kind)
	}
}

func TestPackMetaTxUnknownKind(t *testing.T) {
	_, err := PackMetaTx("withdraw", json.RawMessage(`{}`), testSig)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown meta-tx kind")
}

func TestPackMetaTxBadPayload(t *testing.T) {
	_, err := PackMetaTx(models.MetaTxMint, json.RawMessage(`{"value": 1}`), testSig)
	assert.Error(t, err)
}

func TestPackMetaTxAutoRefuelRejectsShortHash(t *testing.T) {
	payload := mustJSON(t, &AutoRefuelPayload{
		TokenID: "7", Inbox: "0xBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB",
		RequestData: "0x01", ExpectedHash: "0x1234", TargetChainID: 8453,
	})
	_, err := PackMetaTx(models.MetaTxAutoRefuel, payload, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "32 bytes")
}

func TestParseBigFormats(t *testing.T) {
	n, err := parseBig("1000000")
	require.NoError(t, err)
	assert.Equal(t, "1000000", n.String())

	n, err = parseBig("0xff")
	require.NoError(t, err)
	assert.Equal(t, "255", n.String())

	_, err = parseBig("")
	assert.Error(t, err)
	_, err = parseBig("12z")
	assert.Error(t, err)
}

func TestParseMintedTokenID(t *testing.T) {
	contractAddr := common.HexToAddress("0xCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCC")
	to := common.HexToAddress("0x2000000000000000000000000000000000000002")
	tokenID := big.NewInt(42)

	logs := []*types.Log{
		// Unrelated contract.
		{
			Address: common.HexToAddress("0x9999999999999999999999999999999999999999"),
			Topics:  []common.Hash{transferTopic, {}, common.BytesToHash(to.Bytes()), common.BigToHash(tokenID)},
		},
		// Non-mint transfer (from != zero).
		{
			Address: contractAddr,
			Topics:  []common.Hash{transferTopic, common.BytesToHash(to.Bytes()), common.BytesToHash(to.Bytes()), common.BigToHash(big.NewInt(1))},
		},
		// The mint.
		{
			Address: contractAddr,
			Topics:  []common.Hash{transferTopic, {}, common.BytesToHash(to.Bytes()), common.BigToHash(tokenID)},
		},
	}

	got, ok := ParseMintedTokenID(logs, contractAddr)
	require.True(t, ok)
	assert.Equal(t, "42", got.String())
}

func TestParseMintedTokenIDAbsent(t *testing.T) {
	_, ok := ParseMintedTokenID(nil, common.Address{})
	assert.False(t, ok)
}
