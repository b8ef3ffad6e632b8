package bridge

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// basicRequestType is the canonical type string of the inbox's inner request
// struct. The contract re-derives the same hash from the request bytes, so
// field order here must match the on-chain struct exactly.
const basicRequestType = "BasicRequest(uint256 deadline,uint256 nonce,address sender,address receiver,address delegate,address bungeeGateway,uint256 switchboardId,address inputToken,uint256 inputAmount,address outputToken,uint256 minOutputAmount,uint256 refuelAmount)"

var basicRequestTypeHash = crypto.Keccak256Hash([]byte(basicRequestType))

// Request is one cross-chain gas delivery order for the bridge inbox. The
// basic fields are hashed under the BasicRequest type hash; the outer fields
// ride alongside in the full request hash.
type Request struct {
	// BasicRequest fields, in struct order.
	OriginChainID      uint64
	DestinationChainID uint64
	Deadline           *big.Int
	Nonce              *big.Int
	Sender             common.Address
	Receiver           common.Address
	Delegate           common.Address
	BungeeGateway      common.Address
	SwitchboardID      *big.Int
	InputToken         common.Address
	InputAmount        *big.Int
	OutputToken        common.Address
	MinOutputAmount    *big.Int
	RefuelAmount       *big.Int

	// Outer request fields.
	SwapOutputToken      common.Address
	MinSwapOutput        *big.Int
	Metadata             []byte
	AffiliateFees        []byte
	MinDestGas           *big.Int
	DestinationPayload   []byte
	ExclusiveTransmitter common.Address
}

// padLeft32 left-pads b into a 32-byte word. Inputs longer than 32 bytes keep
// their least significant 32 bytes, matching ABI truncation of big.Int words.
func padLeft32(b []byte) []byte {
	word := make([]byte, 32)
	if len(b) > 32 {
		b = b[len(b)-32:]
	}
	copy(word[32-len(b):], b)
	return word
}

func bigWord(n *big.Int) []byte {
	if n == nil {
		return make([]byte, 32)
	}
	return padLeft32(n.Bytes())
}

func addressWord(a common.Address) []byte {
	return padLeft32(a.Bytes())
}

// BasicRequestHash is keccak256(abi.encode(typeHash, ...basic fields)), the
// inner hash the inbox binds signatures and settlement to.
func (r *Request) BasicRequestHash() common.Hash {
	var buf []byte
	buf = append(buf, basicRequestTypeHash.Bytes()...)
	buf = append(buf, bigWord(r.Deadline)...)
	buf = append(buf, bigWord(r.Nonce)...)
	buf = append(buf, addressWord(r.Sender)...)
	buf = append(buf, addressWord(r.Receiver)...)
	buf = append(buf, addressWord(r.Delegate)...)
	buf = append(buf, addressWord(r.BungeeGateway)...)
	buf = append(buf, bigWord(r.SwitchboardID)...)
	buf = append(buf, addressWord(r.InputToken)...)
	buf = append(buf, bigWord(r.InputAmount)...)
	buf = append(buf, addressWord(r.OutputToken)...)
	buf = append(buf, bigWord(r.MinOutputAmount)...)
	buf = append(buf, bigWord(r.RefuelAmount)...)
	return crypto.Keccak256Hash(buf)
}

// ComputeExpectedHash derives the full request hash: the basic hash combined
// with the outer fields, dynamic byte fields folded in by their keccak
// digests. The GasPass contract recomputes this from the request bytes and
// reverts on mismatch, so a wrong hash can never move funds; it only wastes
// the relayer's gas, which is why the dispatcher also compares it against the
// quote before forwarding.
func (r *Request) ComputeExpectedHash() common.Hash {
	var buf []byte
	buf = append(buf, r.BasicRequestHash().Bytes()...)
	buf = append(buf, addressWord(r.SwapOutputToken)...)
	buf = append(buf, bigWord(r.MinSwapOutput)...)
	buf = append(buf, crypto.Keccak256(r.Metadata)...)
	buf = append(buf, crypto.Keccak256(r.AffiliateFees)...)
	buf = append(buf, bigWord(r.MinDestGas)...)
	buf = append(buf, crypto.Keccak256(r.DestinationPayload)...)
	buf = append(buf, addressWord(r.ExclusiveTransmitter)...)
	return crypto.Keccak256Hash(buf)
}

// Encode produces the canonical request bytes handed to the inbox: fixed
// fields as 32-byte words in struct order, then each dynamic field as a
// length word followed by its right-padded payload.
func (r *Request) Encode() []byte {
	var buf []byte
	buf = append(buf, bigWord(r.Deadline)...)
	buf = append(buf, bigWord(r.Nonce)...)
	buf = append(buf, addressWord(r.Sender)...)
	buf = append(buf, addressWord(r.Receiver)...)
	buf = append(buf, addressWord(r.Delegate)...)
	buf = append(buf, addressWord(r.BungeeGateway)...)
	buf = append(buf, bigWord(r.SwitchboardID)...)
	buf = append(buf, addressWord(r.InputToken)...)
	buf = append(buf, bigWord(r.InputAmount)...)
	buf = append(buf, addressWord(r.OutputToken)...)
	buf = append(buf, bigWord(r.MinOutputAmount)...)
	buf = append(buf, bigWord(r.RefuelAmount)...)
	buf = append(buf, addressWord(r.SwapOutputToken)...)
	buf = append(buf, bigWord(r.MinSwapOutput)...)
	buf = appendBytesField(buf, r.Metadata)
	buf = appendBytesField(buf, r.AffiliateFees)
	buf = append(buf, bigWord(r.MinDestGas)...)
	buf = appendBytesField(buf, r.DestinationPayload)
	buf = append(buf, addressWord(r.ExclusiveTransmitter)...)
	return buf
}

func appendBytesField(buf, field []byte) []byte {
	buf = append(buf, padLeft32(big.NewInt(int64(len(field))).Bytes())...)
	buf = append(buf, field...)
	if rem := len(field) % 32; rem != 0 {
		buf = append(buf, make([]byte, 32-rem)...)
	}
	return buf
}

// NewNonce draws a random 64-bit request nonce. Bridge request nonces only
// need uniqueness per sender within the deadline window, not sequencing.
func NewNonce() (*big.Int, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return nil, fmt.Errorf("failed to draw request nonce: %w", err)
	}
	return new(big.Int).SetUint64(binary.BigEndian.Uint64(b[:])), nil
}
