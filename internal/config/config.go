package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config application configuration structure
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	NATS     NATSConfig     `yaml:"nats"`
	Contract ContractConfig `yaml:"contract"`
	Relayer  RelayerConfig  `yaml:"relayer"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Bridge   BridgeConfig   `yaml:"bridge"`
	Admin    AdminConfig    `yaml:"admin"`
	CORS     CORSConfig     `yaml:"cors"`

	Chains map[string]ChainConfig `yaml:"chains"`
}

// ServerConfig HTTP server configuration
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig history/audit database configuration. Empty DSN disables
// persistence; the monitor runs without it.
type DatabaseConfig struct {
	DSN    string `yaml:"dsn"`
	Driver string `yaml:"driver"`
}

// NATSConfig event publishing configuration. Empty URL disables publishing.
type NATSConfig struct {
	URL           string `yaml:"url"`
	Timeout       int    `yaml:"timeout"`       // connect timeout (seconds)
	ReconnectWait int    `yaml:"reconnectWait"` // seconds
	MaxReconnects int    `yaml:"maxReconnects"`
}

// ContractConfig locates the GasPass contract on its hub chain.
type ContractConfig struct {
	Address      string   `yaml:"address"`      // GasPass contract address
	HubChainID   uint64   `yaml:"hubChainId"`   // chain the contract lives on
	HubRPC       []string `yaml:"hubRpc"`       // RPC endpoints for the hub chain, tried in order
	StableToken  string   `yaml:"stableToken"`  // stablecoin funding refuels (6 decimals)
	ReadTimeout  int      `yaml:"readTimeout"`  // per read call timeout (seconds)
	WriteTimeout int      `yaml:"writeTimeout"` // confirmation wait timeout (seconds)
}

// RelayerConfig configures the single dedicated relayer key. The private key
// is only ever read from the environment, never from YAML.
type RelayerConfig struct {
	PrivateKey string `yaml:"-"`        // RELAYER_PRIVATE_KEY env only
	GasLimit   uint64 `yaml:"gasLimit"` // gas limit for forwarded transactions
	// OrderingWindowMs is how long the forwarder lets same-signer requests
	// settle before picking the lowest nonce among pending ones.
	OrderingWindowMs int `yaml:"orderingWindowMs"`
}

// MonitorConfig configures the scan/decision loop.
type MonitorConfig struct {
	ScanInterval int `yaml:"scanInterval"` // seconds between cycles
	MaxRetries   int `yaml:"maxRetries"`   // balance probe attempts
	BaseDelayMs  int `yaml:"baseDelayMs"`  // linear backoff base (milliseconds)
	ProbeTimeout int `yaml:"probeTimeout"` // per attempt timeout (seconds)
}

// BridgeConfig configures the external bridge/quote API (Bungee).
type BridgeConfig struct {
	BaseURL string `yaml:"baseUrl"`
	APIKey  string `yaml:"apiKey"`
	Timeout int    `yaml:"timeout"` // request timeout (seconds)
}

// AdminConfig admin API access control configuration
type AdminConfig struct {
	AllowedIPs []string `yaml:"allowedIPs"` // IPs or CIDR ranges allowed on admin endpoints
	JWTSecret  string   `yaml:"-"`          // ADMIN_JWT_SECRET env only
}

// CORSConfig CORS configuration
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// ChainConfig is one supported destination chain.
type ChainConfig struct {
	ChainID      uint64   `yaml:"chainId"`
	Name         string   `yaml:"name"`
	RPCEndpoints []string `yaml:"rpcEndpoints"`
	Inbox        string   `yaml:"inbox"` // bridge inbox contract receiving autoRefuel requests
	Enabled      bool     `yaml:"enabled"`
}

// ScanInterval returns the cycle interval with a sane default.
func (m MonitorConfig) ScanIntervalDuration() time.Duration {
	if m.ScanInterval <= 0 {
		return 30 * time.Second
	}
	return time.Duration(m.ScanInterval) * time.Second
}

// BaseDelay returns the probe backoff base with a sane default.
func (m MonitorConfig) BaseDelay() time.Duration {
	if m.BaseDelayMs <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(m.BaseDelayMs) * time.Millisecond
}

// OrderingWindow returns the forwarder coalescing window with a default.
func (r RelayerConfig) OrderingWindow() time.Duration {
	if r.OrderingWindowMs <= 0 {
		return 25 * time.Millisecond
	}
	return time.Duration(r.OrderingWindowMs) * time.Millisecond
}

// LoadConfig reads the YAML configuration file and applies environment
// variable overrides. It returns the config rather than installing a global;
// the caller wires it into each component explicitly.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
		if _, err := os.Stat("config.local.yaml"); err == nil {
			configPath = "config.local.yaml"
			log.Printf("🔧 Using local configuration file: config.local.yaml")
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	overrideFromEnv(&config)

	if err := validate(&config); err != nil {
		return nil, err
	}

	log.Printf("✅ Configuration loaded from %s (%d chains, hub chain %d)",
		configPath, len(config.Chains), config.Contract.HubChainID)
	return &config, nil
}

// overrideFromEnv applies environment variable overrides on top of the file.
func overrideFromEnv(config *Config) {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		config.Database.DSN = dsn
	}

	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		config.NATS.URL = natsURL
	}
	if natsTimeout := os.Getenv("NATS_TIMEOUT"); natsTimeout != "" {
		if t, err := strconv.Atoi(natsTimeout); err == nil {
			config.NATS.Timeout = t
		}
	}

	if addr := os.Getenv("GASPASS_CONTRACT"); addr != "" {
		config.Contract.Address = addr
	}
	if rpc := os.Getenv("HUB_RPC_ENDPOINTS"); rpc != "" {
		config.Contract.HubRPC = splitAndTrim(rpc)
	}
	if stable := os.Getenv("STABLE_TOKEN"); stable != "" {
		config.Contract.StableToken = stable
	}

	// The relayer key and admin secret are env-only; YAML never carries them.
	config.Relayer.PrivateKey = os.Getenv("RELAYER_PRIVATE_KEY")
	config.Admin.JWTSecret = os.Getenv("ADMIN_JWT_SECRET")

	if gasLimit := os.Getenv("RELAYER_GAS_LIMIT"); gasLimit != "" {
		if limit, err := strconv.ParseUint(gasLimit, 10, 64); err == nil {
			config.Relayer.GasLimit = limit
		}
	}

	if bridgeURL := os.Getenv("BRIDGE_BASE_URL"); bridgeURL != "" {
		config.Bridge.BaseURL = bridgeURL
	}
	if bridgeKey := os.Getenv("BRIDGE_API_KEY"); bridgeKey != "" {
		config.Bridge.APIKey = bridgeKey
	}

	if interval := os.Getenv("SCAN_INTERVAL"); interval != "" {
		if v, err := strconv.Atoi(interval); err == nil {
			config.Monitor.ScanInterval = v
		}
	}

	// Per-chain RPC endpoints, e.g. ARBITRUM_RPC_ENDPOINTS=https://a,https://b
	for chainName, chainConfig := range config.Chains {
		envRPC := fmt.Sprintf("%s_RPC_ENDPOINTS", strings.ToUpper(chainName))
		if rpcEndpoints := os.Getenv(envRPC); rpcEndpoints != "" {
			chainConfig.RPCEndpoints = splitAndTrim(rpcEndpoints)
		}
		envInbox := fmt.Sprintf("%s_INBOX", strings.ToUpper(chainName))
		if inbox := os.Getenv(envInbox); inbox != "" {
			chainConfig.Inbox = inbox
		}
		config.Chains[chainName] = chainConfig
	}

	if corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); corsOrigins != "" {
		config.CORS.AllowedOrigins = splitAndTrim(corsOrigins)
	}
}

func validate(config *Config) error {
	if config.Contract.Address == "" {
		return fmt.Errorf("contract.address is required")
	}
	if len(config.Contract.HubRPC) == 0 {
		return fmt.Errorf("contract.hubRpc requires at least one endpoint")
	}
	for name, chain := range config.Chains {
		if chain.Enabled && len(chain.RPCEndpoints) == 0 {
			return fmt.Errorf("chain %s is enabled but has no rpcEndpoints", name)
		}
	}
	return nil
}

// EnabledChains returns the enabled chains in a stable slice.
func (c *Config) EnabledChains() []ChainConfig {
	chains := make([]ChainConfig, 0, len(c.Chains))
	for _, chain := range c.Chains {
		if chain.Enabled {
			chains = append(chains, chain)
		}
	}
	return chains
}

// GetChainByID returns the enabled chain with the given chain ID.
func (c *Config) GetChainByID(chainID uint64) (*ChainConfig, error) {
	for _, chain := range c.Chains {
		if chain.ChainID == chainID && chain.Enabled {
			chainCopy := chain
			return &chainCopy, nil
		}
	}
	return nil, fmt.Errorf("chain with chainID %d not found or disabled", chainID)
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
