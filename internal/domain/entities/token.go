package entities

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Token is the canonical descriptor of an ERC20 token on a specific chain.
// Identity is (ChainID, Address).
type Token struct {
	ChainID  uint64         `json:"chainId"`
	Address  common.Address `json:"address"`
	Symbol   string         `json:"symbol"`
	Name     string         `json:"name"`
	Decimals uint8          `json:"decimals"`
}

// NewToken creates a token descriptor
func NewToken(chainID uint64, address common.Address, decimals uint8, symbol, name string) Token {
	return Token{
		ChainID:  chainID,
		Address:  address,
		Symbol:   symbol,
		Name:     name,
		Decimals: decimals,
	}
}

// Equals reports whether both descriptors refer to the same on-chain token
func (t Token) Equals(other Token) bool {
	return t.ChainID == other.ChainID && t.Address == other.Address
}

// SortsBefore orders tokens by address (Uniswap V2 token0/token1 convention)
func (t Token) SortsBefore(other Token) bool {
	return bytes.Compare(t.Address.Bytes(), other.Address.Bytes()) < 0
}

func (t Token) String() string {
	if t.Symbol != "" {
		return fmt.Sprintf("%s(%s)", t.Symbol, t.Address.Hex())
	}
	return t.Address.Hex()
}

// WETH is the canonical Wrapped Ether token on Ethereum mainnet
var WETH = Token{
	ChainID:  1,
	Address:  common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
	Symbol:   "WETH",
	Name:     "Wrapped Ether",
	Decimals: 18,
}

// USDC is USD Coin on Ethereum mainnet
var USDC = Token{
	ChainID:  1,
	Address:  common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"),
	Symbol:   "USDC",
	Name:     "USD Coin",
	Decimals: 6,
}

// USDT is Tether USD on Ethereum mainnet
var USDT = Token{
	ChainID:  1,
	Address:  common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7"),
	Symbol:   "USDT",
	Name:     "Tether USD",
	Decimals: 6,
}

// DAI is Dai Stablecoin on Ethereum mainnet
var DAI = Token{
	ChainID:  1,
	Address:  common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"),
	Symbol:   "DAI",
	Name:     "Dai Stablecoin",
	Decimals: 18,
}
