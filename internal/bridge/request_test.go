package bridge

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRequest() *Request {
	return &Request{
		OriginChainID:      42161,
		DestinationChainID: 8453,
		Deadline:           big.NewInt(1767225600),
		Nonce:              big.NewInt(99),
		Sender:             common.HexToAddress("0x1000000000000000000000000000000000000001"),
		Receiver:           common.HexToAddress("0x2000000000000000000000000000000000000002"),
		Delegate:           common.HexToAddress("0x3000000000000000000000000000000000000003"),
		BungeeGateway:      common.HexToAddress("0x4000000000000000000000000000000000000004"),
		SwitchboardID:      big.NewInt(1),
		InputToken:         common.HexToAddress("0x5000000000000000000000000000000000000005"),
		InputAmount:        big.NewInt(10_000_000),
		OutputToken:        common.HexToAddress("0x6000000000000000000000000000000000000006"),
		MinOutputAmount:    big.NewInt(9_900_000),
		RefuelAmount:       big.NewInt(5_000_000_000_000_000),
		MinDestGas:         big.NewInt(100_000),
	}
}

func TestComputeExpectedHashIsDeterministic(t *testing.T) {
	a := sampleRequest().ComputeExpectedHash()
	b := sampleRequest().ComputeExpectedHash()
	assert.Equal(t, a, b)
	assert.NotEqual(t, common.Hash{}, a)
}

func TestComputeExpectedHashSensitivity(t *testing.T) {
	base := sampleRequest().ComputeExpectedHash()

	mutations := map[string]func(*Request){
		"deadline":        func(r *Request) { r.Deadline = big.NewInt(1767225601) },
		"nonce":           func(r *Request) { r.Nonce = big.NewInt(100) },
		"receiver":        func(r *Request) { r.Receiver = common.HexToAddress("0xdead000000000000000000000000000000000000") },
		"delegate":        func(r *Request) { r.Delegate = common.HexToAddress("0xdead000000000000000000000000000000000000") },
		"inputAmount":     func(r *Request) { r.InputAmount = big.NewInt(10_000_001) },
		"outputToken":     func(r *Request) { r.OutputToken = common.HexToAddress("0xdead000000000000000000000000000000000000") },
		"minOutputAmount": func(r *Request) { r.MinOutputAmount = big.NewInt(1) },
		"refuelAmount":    func(r *Request) { r.RefuelAmount = big.NewInt(1) },
		"switchboardId":   func(r *Request) { r.SwitchboardID = big.NewInt(2) },
		"minDestGas":      func(r *Request) { r.MinDestGas = big.NewInt(1) },
		"metadata":        func(r *Request) { r.Metadata = []byte{0x01} },
		"destPayload":     func(r *Request) { r.DestinationPayload = []byte{0x02} },
		"transmitter":     func(r *Request) { r.ExclusiveTransmitter = common.HexToAddress("0xdead000000000000000000000000000000000000") },
	}
	for name, mutate := range mutations {
		req := sampleRequest()
		mutate(req)
		assert.NotEqual(t, base, req.ComputeExpectedHash(), "mutating %s must change the hash", name)
	}
}

func TestBasicRequestHashDiffersFromFullHash(t *testing.T) {
	req := sampleRequest()
	assert.NotEqual(t, req.BasicRequestHash(), req.ComputeExpectedHash())
}

func TestEncodeIsWordAligned(t *testing.T) {
	req := sampleRequest()
	encoded := req.Encode()
	require.NotEmpty(t, encoded)
	assert.Zero(t, len(encoded)%32)
}

func TestEncodeDeterministicAndSensitive(t *testing.T) {
	assert.Equal(t, sampleRequest().Encode(), sampleRequest().Encode())

	changed := sampleRequest()
	changed.RefuelAmount = big.NewInt(1)
	assert.NotEqual(t, sampleRequest().Encode(), changed.Encode())
}

func TestEncodePadsDynamicFields(t *testing.T) {
	req := sampleRequest()
	plain := len(req.Encode())

	req.Metadata = []byte{0x01, 0x02, 0x03} // padded to one word plus length word
	withMeta := len(req.Encode())
	assert.Equal(t, plain+32, withMeta)
	assert.Zero(t, withMeta%32)
}

func TestNewNonceIsRandom(t *testing.T) {
	a, err := NewNonce()
	require.NoError(t, err)
	b, err := NewNonce()
	require.NoError(t, err)
	assert.NotEqual(t, a.String(), b.String())
}
