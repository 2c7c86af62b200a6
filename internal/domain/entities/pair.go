package entities

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// DEXType identifies the AMM protocol a pair belongs to
type DEXType string

const (
	DEXUniswap   DEXType = "uniswap"
	DEXPangolin  DEXType = "pangolin"
	DEXSushiswap DEXType = "sushiswap"
	DEXViperswap DEXType = "viperswap"
)

// DefaultFeeBps is the constant-product swap fee of Uniswap V2 style pairs (0.3%)
const DefaultFeeBps = 30

// Pair represents a constant-product liquidity pair. Token0 sorts before Token1.
type Pair struct {
	Address   common.Address `json:"address"`
	Token0    Token          `json:"token0"`
	Token1    Token          `json:"token1"`
	Reserve0  *big.Int       `json:"reserve0"`
	Reserve1  *big.Int       `json:"reserve1"`
	DEX       DEXType        `json:"dex"`
	Fee       uint64         `json:"fee"` // Fee in basis points (e.g., 30 = 0.3%)
	UpdatedAt int64          `json:"updatedAt"`
}

// NewPair sorts the tokens and their reserves into token0/token1 order
func NewPair(address common.Address, tokenA, tokenB Token, reserveA, reserveB *big.Int, dex DEXType, fee uint64) *Pair {
	if tokenB.SortsBefore(tokenA) {
		tokenA, tokenB = tokenB, tokenA
		reserveA, reserveB = reserveB, reserveA
	}
	return &Pair{
		Address:  address,
		Token0:   tokenA,
		Token1:   tokenB,
		Reserve0: reserveA,
		Reserve1: reserveB,
		DEX:      dex,
		Fee:      fee,
	}
}

// Involves reports whether token is one side of the pair
func (p *Pair) Involves(token Token) bool {
	return token.Address == p.Token0.Address || token.Address == p.Token1.Address
}

// Other returns the token on the opposite side of token
func (p *Pair) Other(token Token) Token {
	if token.Address == p.Token0.Address {
		return p.Token1
	}
	return p.Token0
}

func (p *Pair) reserves(tokenIn common.Address) (reserveIn, reserveOut *big.Int) {
	if tokenIn == p.Token0.Address {
		return p.Reserve0, p.Reserve1
	}
	return p.Reserve1, p.Reserve0
}

// GetAmountOut returns the output for an exact input, or zero when the pair cannot fill it
func (p *Pair) GetAmountOut(amountIn *big.Int, tokenIn common.Address) *big.Int {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return big.NewInt(0)
	}

	reserveIn, reserveOut := p.reserves(tokenIn)
	if reserveIn == nil || reserveOut == nil || reserveIn.Sign() == 0 || reserveOut.Sign() == 0 {
		return big.NewInt(0)
	}

	// Apply fee (e.g., 0.3% fee means multiply by 997/1000)
	feeMultiplier := big.NewInt(10000 - int64(p.Fee))
	amountInWithFee := new(big.Int).Mul(amountIn, feeMultiplier)

	// numerator = amountInWithFee * reserveOut
	numerator := new(big.Int).Mul(amountInWithFee, reserveOut)

	// denominator = reserveIn * 10000 + amountInWithFee
	denominator := new(big.Int).Mul(reserveIn, big.NewInt(10000))
	denominator.Add(denominator, amountInWithFee)

	return new(big.Int).Div(numerator, denominator)
}

// GetAmountIn returns the input needed to receive an exact output of the
// opposite token, or zero when the output would drain the reserve.
func (p *Pair) GetAmountIn(amountOut *big.Int, tokenOut common.Address) *big.Int {
	if amountOut == nil || amountOut.Sign() <= 0 {
		return big.NewInt(0)
	}

	reserveOut, reserveIn := p.reserves(tokenOut)
	if reserveIn == nil || reserveOut == nil || reserveIn.Sign() == 0 || reserveOut.Cmp(amountOut) <= 0 {
		return big.NewInt(0)
	}

	// numerator = reserveIn * amountOut * 10000
	numerator := new(big.Int).Mul(reserveIn, amountOut)
	numerator.Mul(numerator, big.NewInt(10000))

	// denominator = (reserveOut - amountOut) * (10000 - fee)
	denominator := new(big.Int).Sub(reserveOut, amountOut)
	denominator.Mul(denominator, big.NewInt(10000-int64(p.Fee)))

	amountIn := numerator.Div(numerator, denominator)
	return amountIn.Add(amountIn, big.NewInt(1))
}
