package dex

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// FactoryABI is the part of the Uniswap V2 factory interface the gateway calls
const FactoryABI = `[
	{
		"inputs": [
			{"internalType": "address", "name": "tokenA", "type": "address"},
			{"internalType": "address", "name": "tokenB", "type": "address"}
		],
		"name": "getPair",
		"outputs": [{"internalType": "address", "name": "pair", "type": "address"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

// PairABI is the part of the Uniswap V2 pair interface the gateway calls
const PairABI = `[
	{
		"inputs": [],
		"name": "getReserves",
		"outputs": [
			{"internalType": "uint112", "name": "reserve0", "type": "uint112"},
			{"internalType": "uint112", "name": "reserve1", "type": "uint112"},
			{"internalType": "uint32", "name": "blockTimestampLast", "type": "uint32"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "token0",
		"outputs": [{"internalType": "address", "name": "", "type": "address"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "token1",
		"outputs": [{"internalType": "address", "name": "", "type": "address"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

// routerABITemplate is the Uniswap V2 router02 interface. Forks rename the
// native currency methods (swapExactAVAXForTokens, ...), so NATIVE is substituted.
const routerABITemplate = `[
	{
		"inputs": [],
		"name": "factory",
		"outputs": [{"internalType": "address", "name": "", "type": "address"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "uint256", "name": "amountIn", "type": "uint256"},
			{"internalType": "address[]", "name": "path", "type": "address[]"}
		],
		"name": "getAmountsOut",
		"outputs": [{"internalType": "uint256[]", "name": "amounts", "type": "uint256[]"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "uint256", "name": "amountOut", "type": "uint256"},
			{"internalType": "address[]", "name": "path", "type": "address[]"}
		],
		"name": "getAmountsIn",
		"outputs": [{"internalType": "uint256[]", "name": "amounts", "type": "uint256[]"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "uint256", "name": "amountIn", "type": "uint256"},
			{"internalType": "uint256", "name": "amountOutMin", "type": "uint256"},
			{"internalType": "address[]", "name": "path", "type": "address[]"},
			{"internalType": "address", "name": "to", "type": "address"},
			{"internalType": "uint256", "name": "deadline", "type": "uint256"}
		],
		"name": "swapExactTokensForTokens",
		"outputs": [{"internalType": "uint256[]", "name": "amounts", "type": "uint256[]"}],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "uint256", "name": "amountOut", "type": "uint256"},
			{"internalType": "uint256", "name": "amountInMax", "type": "uint256"},
			{"internalType": "address[]", "name": "path", "type": "address[]"},
			{"internalType": "address", "name": "to", "type": "address"},
			{"internalType": "uint256", "name": "deadline", "type": "uint256"}
		],
		"name": "swapTokensForExactTokens",
		"outputs": [{"internalType": "uint256[]", "name": "amounts", "type": "uint256[]"}],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "uint256", "name": "amountOutMin", "type": "uint256"},
			{"internalType": "address[]", "name": "path", "type": "address[]"},
			{"internalType": "address", "name": "to", "type": "address"},
			{"internalType": "uint256", "name": "deadline", "type": "uint256"}
		],
		"name": "swapExactNATIVEForTokens",
		"outputs": [{"internalType": "uint256[]", "name": "amounts", "type": "uint256[]"}],
		"stateMutability": "payable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "uint256", "name": "amountOut", "type": "uint256"},
			{"internalType": "address[]", "name": "path", "type": "address[]"},
			{"internalType": "address", "name": "to", "type": "address"},
			{"internalType": "uint256", "name": "deadline", "type": "uint256"}
		],
		"name": "swapNATIVEForExactTokens",
		"outputs": [{"internalType": "uint256[]", "name": "amounts", "type": "uint256[]"}],
		"stateMutability": "payable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "uint256", "name": "amountIn", "type": "uint256"},
			{"internalType": "uint256", "name": "amountOutMin", "type": "uint256"},
			{"internalType": "address[]", "name": "path", "type": "address[]"},
			{"internalType": "address", "name": "to", "type": "address"},
			{"internalType": "uint256", "name": "deadline", "type": "uint256"}
		],
		"name": "swapExactTokensForNATIVE",
		"outputs": [{"internalType": "uint256[]", "name": "amounts", "type": "uint256[]"}],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "uint256", "name": "amountOut", "type": "uint256"},
			{"internalType": "uint256", "name": "amountInMax", "type": "uint256"},
			{"internalType": "address[]", "name": "path", "type": "address[]"},
			{"internalType": "address", "name": "to", "type": "address"},
			{"internalType": "uint256", "name": "deadline", "type": "uint256"}
		],
		"name": "swapTokensForExactNATIVE",
		"outputs": [{"internalType": "uint256[]", "name": "amounts", "type": "uint256[]"}],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// RouterABI returns the router interface JSON with native currency methods
// spelled with nativeName ("ETH" when empty).
func RouterABI(nativeName string) string {
	if nativeName == "" {
		nativeName = "ETH"
	}
	return strings.ReplaceAll(routerABITemplate, "NATIVE", nativeName)
}

// ParseABI parses an ABI JSON definition
func ParseABI(definition string) (abi.ABI, error) {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to parse abi: %w", err)
	}
	return parsed, nil
}

// MustParseABI is ParseABI for the constant definitions in this package
func MustParseABI(definition string) abi.ABI {
	parsed, err := ParseABI(definition)
	if err != nil {
		panic(err)
	}
	return parsed
}

var (
	factoryABI = MustParseABI(FactoryABI)
	pairABI    = MustParseABI(PairABI)
)
