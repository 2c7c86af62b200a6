package entities

import (
	"fmt"
	"math/big"
)

// TradeType says which side of a trade is fixed
type TradeType int

const (
	ExactInput TradeType = iota
	ExactOutput
)

func (t TradeType) String() string {
	if t == ExactOutput {
		return "exact_out"
	}
	return "exact_in"
}

// Trade is a priced route. It is derived per quote request and never persisted.
type Trade struct {
	Route          *Route      `json:"route"`
	Type           TradeType   `json:"type"`
	InputAmount    TokenAmount `json:"inputAmount"`
	OutputAmount   TokenAmount `json:"outputAmount"`
	ExecutionPrice Price       `json:"-"`
	PriceImpact    *big.Int    `json:"priceImpact"` // In basis points (e.g., 50 = 0.5%)
}

// NewTrade prices a route from its input and output amounts
func NewTrade(route *Route, tradeType TradeType, input, output TokenAmount) *Trade {
	return &Trade{
		Route:          route,
		Type:           tradeType,
		InputAmount:    input,
		OutputAmount:   output,
		ExecutionPrice: NewPrice(input.Token, output.Token, input.Raw, output.Raw),
		PriceImpact:    route.CalculatePriceImpact(input.Raw, output.Raw),
	}
}

// NewFakeTrade builds a pool-less trade from amounts quoted by a router contract
func NewFakeTrade(tokenIn, tokenOut Token, amountIn, amountOut *big.Int, tradeType TradeType) *Trade {
	return NewTrade(
		NewDirectRoute(tokenIn, tokenOut),
		tradeType,
		NewTokenAmount(tokenIn, amountIn),
		NewTokenAmount(tokenOut, amountOut),
	)
}

// MinimumAmountOut is the least output acceptable under slippage
func (t *Trade) MinimumAmountOut(slippage Percent) TokenAmount {
	if t.Type == ExactOutput {
		return t.OutputAmount
	}
	return TokenAmount{Token: t.OutputAmount.Token, Raw: slippage.MinimumOut(t.OutputAmount.Raw)}
}

// MaximumAmountIn is the most input acceptable under slippage
func (t *Trade) MaximumAmountIn(slippage Percent) TokenAmount {
	if t.Type == ExactInput {
		return t.InputAmount
	}
	return TokenAmount{Token: t.InputAmount.Token, Raw: slippage.MaximumIn(t.InputAmount.Raw)}
}

func (t *Trade) String() string {
	return fmt.Sprintf("%s %s -> %s @ %s (%d hops)",
		t.Type, t.InputAmount, t.OutputAmount, t.ExecutionPrice.ToSignificant(6), t.Route.Hops())
}

// Quote is a trade plus the slippage-adjusted amount the caller should encode
// on-chain: minimum output for sells, maximum input for buys.
type Quote struct {
	Trade          *Trade      `json:"trade"`
	ExpectedAmount TokenAmount `json:"expectedAmount"`
}
