package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
server:
  host: "127.0.0.1"
  port: 9090
contract:
  address: "0xCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCC"
  hubChainId: 42161
  hubRpc:
    - "https://arb1.example/rpc"
  stableToken: "0x5000000000000000000000000000000000000005"
monitor:
  scanInterval: 15
  maxRetries: 5
  baseDelayMs: 250
chains:
  base:
    chainId: 8453
    name: "Base"
    rpcEndpoints:
      - "https://base.example/rpc"
    inbox: "0xBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB"
    enabled: true
  optimism:
    chainId: 10
    name: "OP Mainnet"
    rpcEndpoints:
      - "https://op.example/rpc"
    enabled: false
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, testYAML))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, uint64(42161), cfg.Contract.HubChainID)
	assert.Equal(t, 15*time.Second, cfg.Monitor.ScanIntervalDuration())
	assert.Equal(t, 250*time.Millisecond, cfg.Monitor.BaseDelay())
	assert.Len(t, cfg.Chains, 2)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "8181")
	t.Setenv("RELAYER_PRIVATE_KEY", "deadbeef")
	t.Setenv("ADMIN_JWT_SECRET", "s3cret")
	t.Setenv("BASE_RPC_ENDPOINTS", "https://one.example, https://two.example")

	cfg, err := LoadConfig(writeConfig(t, testYAML))
	require.NoError(t, err)

	assert.Equal(t, 8181, cfg.Server.Port)
	assert.Equal(t, "deadbeef", cfg.Relayer.PrivateKey)
	assert.Equal(t, "s3cret", cfg.Admin.JWTSecret)
	assert.Equal(t, []string{"https://one.example", "https://two.example"}, cfg.Chains["base"].RPCEndpoints)
}

func TestLoadConfigRequiresContractAddress(t *testing.T) {
	bad := `
contract:
  hubRpc:
    - "https://arb1.example/rpc"
`
	_, err := LoadConfig(writeConfig(t, bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contract.address")
}

func TestLoadConfigRejectsEnabledChainWithoutEndpoints(t *testing.T) {
	bad := `
contract:
  address: "0xCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCC"
  hubRpc:
    - "https://arb1.example/rpc"
chains:
  base:
    chainId: 8453
    enabled: true
`
	_, err := LoadConfig(writeConfig(t, bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rpcEndpoints")
}

func TestEnabledChains(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, testYAML))
	require.NoError(t, err)

	chains := cfg.EnabledChains()
	require.Len(t, chains, 1)
	assert.Equal(t, uint64(8453), chains[0].ChainID)
}

func TestGetChainByID(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, testYAML))
	require.NoError(t, err)

	chain, err := cfg.GetChainByID(8453)
	require.NoError(t, err)
	assert.Equal(t, "Base", chain.Name)

	// Disabled chains are not resolvable.
	_, err = cfg.GetChainByID(10)
	assert.Error(t, err)

	_, err = cfg.GetChainByID(1)
	assert.Error(t, err)
}

func TestDurationDefaults(t *testing.T) {
	var m MonitorConfig
	assert.Equal(t, 30*time.Second, m.ScanIntervalDuration())
	assert.Equal(t, 500*time.Millisecond, m.BaseDelay())

	var r RelayerConfig
	assert.Equal(t, 25*time.Millisecond, r.OrderingWindow())
}
