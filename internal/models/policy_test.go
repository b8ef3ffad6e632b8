package models

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyActive(t *testing.T) {
	// A positive threshold is the sole marker of an active policy.
	active := RefuelPolicy{GasAmount: big.NewInt(0), Threshold: big.NewInt(1)}
	assert.True(t, active.Active())

	// gasAmount alone never makes a policy active.
	gasOnly := RefuelPolicy{GasAmount: big.NewInt(10_000_000), Threshold: big.NewInt(0)}
	assert.False(t, gasOnly.Active())

	empty := RefuelPolicy{}
	assert.False(t, empty.Active())
}

func TestActivePolicyKey(t *testing.T) {
	p := ActivePolicy{TokenID: big.NewInt(7), ChainID: 8453}
	key := p.Key()
	assert.Equal(t, PolicyKey{TokenID: "7", ChainID: 8453}, key)
}

func TestProbeResult(t *testing.T) {
	unavailable := Unavailable()
	assert.False(t, unavailable.Available)

	// A zero balance is a real observation, not an outage.
	zero := BalanceOf(big.NewInt(0))
	assert.True(t, zero.Available)
	assert.Equal(t, "0", zero.Balance.String())
}

func TestParseMetaTxKind(t *testing.T) {
	for _, kind := range []string{"mint", "mint_batch", "deposit", "set_policy", "cancel_policy", "bind_agent"} {
		got, err := ParseMetaTxKind(kind)
		require.NoError(t, err, kind)
		assert.Equal(t, MetaTxKind(kind), got)
	}

	// auto_refuel is reserved for the dispatcher.
	_, err := ParseMetaTxKind("auto_refuel")
	assert.Error(t, err)

	_, err = ParseMetaTxKind("withdraw")
	assert.Error(t, err)
}

func TestActivePolicyString(t *testing.T) {
	p := ActivePolicy{
		TokenID: big.NewInt(7),
		ChainID: 8453,
		Owner:   common.HexToAddress("0x2000000000000000000000000000000000000002"),
	}
	assert.Contains(t, p.String(), "token=7")
	assert.Contains(t, p.String(), "chain=8453")
}
