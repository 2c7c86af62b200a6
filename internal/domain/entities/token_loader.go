package entities

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goccy/go-json"
)

// TokenConfig represents token configuration from JSON
type TokenConfig struct {
	ChainID  uint64 `json:"chainId"`
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals uint8  `json:"decimals"`
}

// TokensConfig represents the token list file structure
type TokensConfig struct {
	Name   string        `json:"name"`
	Tokens []TokenConfig `json:"tokens"`
}

// TokenRegistry holds loaded tokens indexed by address and symbol
type TokenRegistry struct {
	byAddress map[common.Address]Token
	bySymbol  map[string]Token
	all       []Token
}

// NewTokenRegistry creates a new token registry
func NewTokenRegistry() *TokenRegistry {
	return &TokenRegistry{
		byAddress: make(map[common.Address]Token),
		bySymbol:  make(map[string]Token),
		all:       make([]Token, 0),
	}
}

// NewTokenRegistryFromList indexes a chain's full token list
func NewTokenRegistryFromList(tokens []Token) *TokenRegistry {
	r := &TokenRegistry{
		byAddress: make(map[common.Address]Token, len(tokens)),
		bySymbol:  make(map[string]Token, len(tokens)),
		all:       make([]Token, 0, len(tokens)),
	}
	for _, token := range tokens {
		r.Register(token)
	}
	return r
}

// LoadFromFile loads tokens from a JSON token list. Entries for other chains are skipped.
func (r *TokenRegistry) LoadFromFile(path string, chainID uint64) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read token list: %w", err)
	}

	var config TokensConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse token list: %w", err)
	}

	for _, tc := range config.Tokens {
		if tc.ChainID != 0 && tc.ChainID != chainID {
			continue
		}
		if !common.IsHexAddress(tc.Address) {
			return fmt.Errorf("token %s has invalid address %q", tc.Symbol, tc.Address)
		}
		r.Register(NewToken(chainID, common.HexToAddress(tc.Address), tc.Decimals, tc.Symbol, tc.Name))
	}

	return nil
}

// Register adds a token to the registry
func (r *TokenRegistry) Register(token Token) {
	r.byAddress[token.Address] = token
	r.bySymbol[strings.ToUpper(token.Symbol)] = token
	r.all = append(r.all, token)
}

// GetByAddress returns a token by its address
func (r *TokenRegistry) GetByAddress(addr common.Address) (Token, bool) {
	token, ok := r.byAddress[addr]
	return token, ok
}

// GetBySymbol returns a token by its symbol, ignoring case
func (r *TokenRegistry) GetBySymbol(symbol string) (Token, bool) {
	token, ok := r.bySymbol[strings.ToUpper(symbol)]
	return token, ok
}

// GetAll returns all registered tokens
func (r *TokenRegistry) GetAll() []Token {
	return r.all
}

// Count returns the number of registered tokens
func (r *TokenRegistry) Count() int {
	return len(r.all)
}

// DefaultRegistry returns a registry with hardcoded Ethereum mainnet tokens
// Use this as fallback if config file is not available
func DefaultRegistry() *TokenRegistry {
	r := NewTokenRegistry()
	r.Register(WETH)
	r.Register(USDC)
	r.Register(USDT)
	r.Register(DAI)
	return r
}
