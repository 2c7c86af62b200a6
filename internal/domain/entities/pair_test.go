package entities

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pairWAVAX = NewToken(43114, common.HexToAddress("0xB31f66AA3C1e785363F0875A1B74E27b85FD66c7"), 18, "WAVAX", "Wrapped AVAX")
	pairUSDC  = NewToken(43114, common.HexToAddress("0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E"), 6, "USDC", "USD Coin")
)

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

func TestNewPairSortsTokens(t *testing.T) {
	p := NewPair(common.HexToAddress("0xf4003f4efbe8691b60249e6afbd307abe7758adb"),
		pairWAVAX, pairUSDC, ether(500), big.NewInt(1_000_000_000_000), DEXPangolin, DefaultFeeBps)

	// 0xB31f... sorts before 0xB97E...
	assert.Equal(t, pairWAVAX.Address, p.Token0.Address)
	assert.Equal(t, ether(500), p.Reserve0)

	swapped := NewPair(p.Address, pairUSDC, pairWAVAX, big.NewInt(1_000_000_000_000), ether(500), DEXPangolin, DefaultFeeBps)
	assert.Equal(t, p.Token0.Address, swapped.Token0.Address)
	assert.Equal(t, p.Reserve0, swapped.Reserve0)
	assert.Equal(t, p.Reserve1, swapped.Reserve1)

	assert.True(t, p.Involves(pairUSDC))
	assert.Equal(t, pairUSDC.Symbol, p.Other(pairWAVAX).Symbol)
	assert.False(t, p.Involves(NewToken(43114, common.HexToAddress("0x1"), 18, "X", "X")))
}

func TestGetAmountOut(t *testing.T) {
	token0 := common.HexToAddress("0x0000000000000000000000000000000000000001")
	token1 := common.HexToAddress("0x0000000000000000000000000000000000000002")

	tests := []struct {
		name     string
		reserve0 *big.Int
		reserve1 *big.Int
		fee      uint64
		amountIn *big.Int
		tokenIn  common.Address
		want     string
	}{
		{
			name:     "token0 in",
			reserve0: ether(10000),
			reserve1: ether(10000),
			fee:      DefaultFeeBps,
			amountIn: ether(1),
			tokenIn:  token0,
			want:     "996900609009281774",
		},
		{
			name:     "token1 in",
			reserve0: ether(10000),
			reserve1: ether(10000),
			fee:      DefaultFeeBps,
			amountIn: ether(1),
			tokenIn:  token1,
			want:     "996900609009281774",
		},
		{
			name:     "tenth of the pool",
			reserve0: ether(1000),
			reserve1: ether(1000),
			fee:      DefaultFeeBps,
			amountIn: ether(100),
			tokenIn:  token0,
			want:     "90661089388014913158",
		},
		{
			name:     "5 bps",
			reserve0: ether(10000),
			reserve1: ether(10000),
			fee:      5,
			amountIn: ether(1),
			tokenIn:  token0,
			want:     "999400109959009596",
		},
		{
			name:     "100 bps",
			reserve0: ether(10000),
			reserve1: ether(10000),
			fee:      100,
			amountIn: ether(1),
			tokenIn:  token0,
			want:     "989901999702029499",
		},
		{
			name:     "mixed decimals",
			reserve0: ether(500),
			reserve1: big.NewInt(1_000_000_000_000),
			fee:      DefaultFeeBps,
			amountIn: ether(1),
			tokenIn:  token0,
			want:     "1990031876",
		},
		{
			name:     "zero amount in",
			reserve0: ether(1),
			reserve1: ether(1),
			fee:      DefaultFeeBps,
			amountIn: big.NewInt(0),
			tokenIn:  token0,
			want:     "0",
		},
		{
			name:     "nil reserves",
			fee:      DefaultFeeBps,
			amountIn: ether(1),
			tokenIn:  token0,
			want:     "0",
		},
		{
			name:     "empty reserveIn",
			reserve0: big.NewInt(0),
			reserve1: big.NewInt(1000),
			fee:      DefaultFeeBps,
			amountIn: ether(1),
			tokenIn:  token0,
			want:     "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Pair{
				Token0:   Token{Address: token0},
				Token1:   Token{Address: token1},
				Reserve0: tt.reserve0,
				Reserve1: tt.reserve1,
				Fee:      tt.fee,
			}
			assert.Equal(t, tt.want, p.GetAmountOut(tt.amountIn, tt.tokenIn).String())
		})
	}
}

func TestGetAmountInRoundTrip(t *testing.T) {
	p := NewPair(common.HexToAddress("0xabc"), pairUSDC, pairWAVAX,
		big.NewInt(10_000_000_000), ether(5000), DEXPangolin, DefaultFeeBps)
	require.Equal(t, pairWAVAX.Address, p.Token0.Address)

	amountOut := big.NewInt(1_000_000) // 1 USDC
	amountIn := p.GetAmountIn(amountOut, pairUSDC.Address)
	require.Positive(t, amountIn.Sign())

	// the computed input buys at least the requested output
	assert.GreaterOrEqual(t, p.GetAmountOut(amountIn, pairWAVAX.Address).Cmp(amountOut), 0)

	less := new(big.Int).Sub(amountIn, big.NewInt(2))
	assert.Negative(t, p.GetAmountOut(less, pairWAVAX.Address).Cmp(amountOut), "GetAmountIn() = %v is not minimal", amountIn)
}

func TestGetAmountInDrainsReserve(t *testing.T) {
	p := &Pair{
		Token0:   Token{Address: common.HexToAddress("0x1")},
		Token1:   Token{Address: common.HexToAddress("0x2")},
		Reserve0: big.NewInt(1000),
		Reserve1: big.NewInt(1000),
		Fee:      DefaultFeeBps,
	}

	assert.Zero(t, p.GetAmountIn(big.NewInt(1000), p.Token1.Address).Sign())
	assert.Zero(t, p.GetAmountIn(big.NewInt(0), p.Token1.Address).Sign())
}
