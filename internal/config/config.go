// Package config loads the gateway configuration: chains and their networks,
// connectors and their per-network deployments, and the HTTP server.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"github.com/bimakw/amm-gateway/internal/domain/entities"
)

const (
	defaultMaxHops = 3
	defaultTTL     = 300
)

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Port           string `yaml:"port"`
	RequestTimeout int    `yaml:"requestTimeout"` // seconds
	LogLevel       string `yaml:"logLevel"`
}

// RedisConfig enables the shared pair cache and durable nonces when Addr is set
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// NetworkConfig describes one network of a chain
type NetworkConfig struct {
	ChainID           uint64  `yaml:"chainId"`
	NodeURL           string  `yaml:"nodeURL"`
	TokenListPath     string  `yaml:"tokenListPath"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
}

// ChainConfig describes a chain and its networks
type ChainConfig struct {
	NativeCurrency string                   `yaml:"nativeCurrency"`
	Networks       map[string]NetworkConfig `yaml:"networks"`
}

// DeploymentConfig is a connector's contracts and pools on one network
type DeploymentConfig struct {
	RouterAddress  string   `yaml:"routerAddress"`
	FactoryAddress string   `yaml:"factoryAddress"`
	MaxHops        int      `yaml:"maxHops"`
	Pools          []string `yaml:"pools"`
}

// ConnectorConfig describes one AMM protocol on one chain
type ConnectorConfig struct {
	Chain string `yaml:"chain"`
	// AllowedSlippage is a percent string such as "1%". It is parsed on use.
	AllowedSlippage string                      `yaml:"allowedSlippage"`
	TTL             int                         `yaml:"ttl"` // seconds
	GasLimit        uint64                      `yaml:"gasLimit"`
	NativeName      string                      `yaml:"nativeName"`
	FeeBps          uint64                      `yaml:"feeBps"`
	Networks        map[string]DeploymentConfig `yaml:"networks"`
}

// Config is the gateway configuration
type Config struct {
	Server     ServerConfig               `yaml:"server"`
	Redis      RedisConfig                `yaml:"redis"`
	Chains     map[string]ChainConfig     `yaml:"chains"`
	Connectors map[string]ConnectorConfig `yaml:"connectors"`

	// WalletKeys are hex private keys; they are only read from the environment
	WalletKeys []string `yaml:"-"`
}

// Load reads the YAML file at path over the defaults and applies environment
// overrides. An empty path uses the defaults alone.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
	}

	cfg.ApplyEnv(os.Getenv)
	cfg.normalise()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides values from environment variables:
// PORT, LOG_LEVEL, REDIS_ADDR, REDIS_PASSWORD, WALLET_PRIVATE_KEYS (comma
// separated) and <CHAIN>_<NETWORK>_RPC_URL for every configured network.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := getenv("WALLET_PRIVATE_KEYS"); v != "" {
		c.WalletKeys = c.WalletKeys[:0]
		for _, key := range strings.Split(v, ",") {
			if key = strings.TrimSpace(key); key != "" {
				c.WalletKeys = append(c.WalletKeys, key)
			}
		}
	}

	for chainName, chain := range c.Chains {
		for networkName, network := range chain.Networks {
			if v := getenv(RPCEnvVar(chainName, networkName)); v != "" {
				network.NodeURL = v
				chain.Networks[networkName] = network
			}
		}
	}
}

// RPCEnvVar names the variable overriding a network's node URL, e.g. ETHEREUM_MAINNET_RPC_URL
func RPCEnvVar(chain, network string) string {
	return strings.ToUpper(chain) + "_" + strings.ToUpper(network) + "_RPC_URL"
}

func (c *Config) normalise() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.RequestTimeout <= 0 {
		c.Server.RequestTimeout = 30
	}

	chains := make(map[string]ChainConfig, len(c.Chains))
	for name, chain := range c.Chains {
		chains[strings.ToLower(strings.TrimSpace(name))] = chain
	}
	c.Chains = chains

	connectors := make(map[string]ConnectorConfig, len(c.Connectors))
	for name, conn := range c.Connectors {
		conn.Chain = strings.ToLower(strings.TrimSpace(conn.Chain))
		if conn.TTL <= 0 {
			conn.TTL = defaultTTL
		}
		connectors[strings.ToLower(strings.TrimSpace(name))] = conn
	}
	c.Connectors = connectors
}

// maxFeeBps is a 100% swap fee
const maxFeeBps = 10000

// Validate checks references, addresses and fees. Slippage strings are left to
// the connectors, which reject them on first use.
func (c *Config) Validate() error {
	for name, chain := range c.Chains {
		if len(chain.Networks) == 0 {
			return &entities.ConfigurationError{Field: "chains." + name + ".networks", Err: fmt.Errorf("no networks configured")}
		}
	}

	for name, conn := range c.Connectors {
		chain, ok := c.Chains[conn.Chain]
		if !ok {
			return &entities.ConfigurationError{Field: "connectors." + name + ".chain", Value: conn.Chain, Err: entities.ErrUnsupportedTarget}
		}
		if conn.FeeBps >= maxFeeBps {
			return &entities.ConfigurationError{
				Field: "connectors." + name + ".feeBps",
				Value: strconv.FormatUint(conn.FeeBps, 10),
				Err:   fmt.Errorf("must be below %d", maxFeeBps),
			}
		}
		for network, deployment := range conn.Networks {
			if _, ok := chain.Networks[network]; !ok {
				return &entities.ConfigurationError{Field: "connectors." + name + ".networks", Value: network, Err: entities.ErrUnsupportedTarget}
			}
			for field, value := range map[string]string{"routerAddress": deployment.RouterAddress, "factoryAddress": deployment.FactoryAddress} {
				if !common.IsHexAddress(value) {
					return &entities.ConfigurationError{
						Field: fmt.Sprintf("connectors.%s.networks.%s.%s", name, network, field),
						Value: value,
						Err:   fmt.Errorf("not a hex address"),
					}
				}
			}
		}
	}
	return nil
}

// Network returns the configuration of one network of a chain
func (c *Config) Network(chain, network string) (NetworkConfig, string, bool) {
	ch, ok := c.Chains[chain]
	if !ok {
		return NetworkConfig{}, "", false
	}
	n, ok := ch.Networks[network]
	return n, ch.NativeCurrency, ok
}

// Connector returns a connector's configuration
func (c *Config) Connector(name string) (ConnectorConfig, bool) {
	conn, ok := c.Connectors[name]
	return conn, ok
}

// RouterAddress returns the router deployed on network
func (c ConnectorConfig) RouterAddress(network string) (common.Address, bool) {
	d, ok := c.Networks[network]
	if !ok {
		return common.Address{}, false
	}
	return common.HexToAddress(d.RouterAddress), true
}

// FactoryAddress returns the factory deployed on network
func (c ConnectorConfig) FactoryAddress(network string) (common.Address, bool) {
	d, ok := c.Networks[network]
	if !ok {
		return common.Address{}, false
	}
	return common.HexToAddress(d.FactoryAddress), true
}

// Pools returns the "BASE-QUOTE" pool entries configured for network
func (c ConnectorConfig) Pools(network string) []string {
	return c.Networks[network].Pools
}

// MaxHops returns the route length limit for network
func (c ConnectorConfig) MaxHops(network string) int {
	if hops := c.Networks[network].MaxHops; hops > 0 {
		return hops
	}
	return defaultMaxHops
}

// Deadline returns the swap deadline window
func (c ConnectorConfig) Deadline() time.Duration {
	return time.Duration(c.TTL) * time.Second
}

// Timeout returns the HTTP request timeout
func (s ServerConfig) Timeout() time.Duration {
	return time.Duration(s.RequestTimeout) * time.Second
}
