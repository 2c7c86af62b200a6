package entities

import (
	"fmt"
	"math/big"
)

// Route represents a swap path from Input to Output through a sequence of pairs.
// A route with no pairs is a direct quote obtained from a router contract.
type Route struct {
	Pairs  []*Pair `json:"pairs"`
	Path   []Token `json:"path"`
	Input  Token   `json:"input"`
	Output Token   `json:"output"`
}

// NewRoute walks pairs from input and records the token path
func NewRoute(pairs []*Pair, input, output Token) (*Route, error) {
	if len(pairs) == 0 {
		return nil, fmt.Errorf("route needs at least one pair")
	}

	path := make([]Token, 0, len(pairs)+1)
	path = append(path, input)
	current := input
	for i, pair := range pairs {
		if !pair.Involves(current) {
			return nil, fmt.Errorf("pair %d (%s) does not contain %s", i, pair.Address.Hex(), current.Symbol)
		}
		current = pair.Other(current)
		path = append(path, current)
	}
	if current.Address != output.Address {
		return nil, fmt.Errorf("route ends at %s, expected %s", current.Symbol, output.Symbol)
	}

	return &Route{Pairs: pairs, Path: path, Input: input, Output: output}, nil
}

// NewDirectRoute is a single-hop route with no local pair data
func NewDirectRoute(input, output Token) *Route {
	return &Route{Path: []Token{input, output}, Input: input, Output: output}
}

// Hops returns the number of pools traversed
func (r *Route) Hops() int {
	return len(r.Path) - 1
}

// CalculateAmountOut calculates the final output amount for the entire route
func (r *Route) CalculateAmountOut(amountIn *big.Int) *big.Int {
	if len(r.Pairs) == 0 || amountIn == nil {
		return big.NewInt(0)
	}

	currentAmount := new(big.Int).Set(amountIn)
	for i, pair := range r.Pairs {
		currentAmount = pair.GetAmountOut(currentAmount, r.Path[i].Address)
		if currentAmount.Sign() <= 0 {
			return big.NewInt(0)
		}
	}

	return currentAmount
}

// CalculatePriceImpact calculates the price impact in basis points
// Price impact = (spotAmount - actualAmount) / spotAmount * 10000
func (r *Route) CalculatePriceImpact(amountIn, amountOut *big.Int) *big.Int {
	if len(r.Pairs) == 0 || amountIn == nil || amountIn.Sign() == 0 || amountOut == nil {
		return big.NewInt(0)
	}

	spotAmount := r.calculateSpotAmount(amountIn)
	if spotAmount.Sign() == 0 {
		return big.NewInt(0)
	}

	if amountOut.Sign() == 0 {
		return big.NewInt(10000) // 100% price impact if no output
	}

	diff := new(big.Int).Sub(spotAmount, amountOut)
	if diff.Sign() <= 0 {
		return big.NewInt(0)
	}

	impactScaled := new(big.Int).Mul(diff, big.NewInt(10000))
	return new(big.Int).Div(impactScaled, spotAmount)
}

// calculateSpotAmount is the output at the mid price of every hop (no fee, no slippage)
func (r *Route) calculateSpotAmount(amountIn *big.Int) *big.Int {
	num := new(big.Int).Set(amountIn)
	den := big.NewInt(1)

	for i, pair := range r.Pairs {
		reserveIn, reserveOut := pair.reserves(r.Path[i].Address)
		if reserveIn == nil || reserveOut == nil || reserveIn.Sign() == 0 {
			return big.NewInt(0)
		}
		num.Mul(num, reserveOut)
		den.Mul(den, reserveIn)
	}

	return num.Div(num, den)
}

// Labels renders the route as "symbolA-symbolB" hop labels
func (r *Route) Labels() []string {
	labels := make([]string, 0, r.Hops())
	var prev string
	for _, token := range r.Path {
		if token.Symbol == "" {
			continue
		}
		if prev != "" {
			labels = append(labels, prev+"-"+token.Symbol)
		}
		prev = token.Symbol
	}
	return labels
}
