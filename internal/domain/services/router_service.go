package services

import (
	"github.com/bimakw/amm-gateway/internal/domain/entities"
)

// RouterService finds the best route for a trade through a bounded set of pairs
type RouterService struct {
	maxHops int
}

// NewRouterService creates a router limited to maxHops pools per route
func NewRouterService(maxHops int) *RouterService {
	if maxHops < 1 {
		maxHops = 1
	}
	return &RouterService{maxHops: maxHops}
}

// MaxHops returns the hop limit
func (s *RouterService) MaxHops() int {
	return s.maxHops
}

// BestTradeExactIn returns the route giving the largest output for a fixed input.
// Ties keep the route with fewer hops, then the first one found in pair order.
func (s *RouterService) BestTradeExactIn(pairs []*entities.Pair, amountIn entities.TokenAmount, tokenOut entities.Token) (*entities.Trade, error) {
	var best *entities.Trade
	s.searchExactIn(pairs, amountIn, amountIn, tokenOut, s.maxHops, nil, &best)
	if best == nil {
		return nil, &entities.NoLiquidityError{Operation: "priceSwapIn", TokenIn: amountIn.Token, TokenOut: tokenOut}
	}
	return best, nil
}

// BestTradeExactOut returns the route needing the smallest input for a fixed output.
func (s *RouterService) BestTradeExactOut(pairs []*entities.Pair, tokenIn entities.Token, amountOut entities.TokenAmount) (*entities.Trade, error) {
	var best *entities.Trade
	s.searchExactOut(pairs, tokenIn, amountOut, amountOut, s.maxHops, nil, &best)
	if best == nil {
		return nil, &entities.NoLiquidityError{Operation: "priceSwapOut", TokenIn: tokenIn, TokenOut: amountOut.Token}
	}
	return best, nil
}

func (s *RouterService) searchExactIn(
	pairs []*entities.Pair,
	original, current entities.TokenAmount,
	tokenOut entities.Token,
	hopsLeft int,
	visited []*entities.Pair,
	best **entities.Trade,
) {
	for i, pair := range pairs {
		if !pair.Involves(current.Token) {
			continue
		}
		out := pair.GetAmountOut(current.Raw, current.Token.Address)
		if out.Sign() <= 0 {
			continue
		}
		next := pair.Other(current.Token)
		path := appendPair(visited, pair)

		if next.Address == tokenOut.Address {
			route, err := entities.NewRoute(path, original.Token, tokenOut)
			if err != nil {
				continue
			}
			trade := entities.NewTrade(route, entities.ExactInput, original, entities.NewTokenAmount(tokenOut, out))
			if *best == nil || betterExactIn(trade, *best) {
				*best = trade
			}
			continue
		}

		if hopsLeft > 1 && len(pairs) > 1 {
			s.searchExactIn(excluding(pairs, i), original, entities.TokenAmount{Token: next, Raw: out}, tokenOut, hopsLeft-1, path, best)
		}
	}
}

func (s *RouterService) searchExactOut(
	pairs []*entities.Pair,
	tokenIn entities.Token,
	original, current entities.TokenAmount,
	hopsLeft int,
	visited []*entities.Pair,
	best **entities.Trade,
) {
	for i, pair := range pairs {
		if !pair.Involves(current.Token) {
			continue
		}
		in := pair.GetAmountIn(current.Raw, current.Token.Address)
		if in.Sign() <= 0 {
			continue
		}
		prev := pair.Other(current.Token)
		path := prependPair(pair, visited)

		if prev.Address == tokenIn.Address {
			route, err := entities.NewRoute(path, tokenIn, original.Token)
			if err != nil {
				continue
			}
			trade := entities.NewTrade(route, entities.ExactOutput, entities.NewTokenAmount(tokenIn, in), original)
			if *best == nil || betterExactOut(trade, *best) {
				*best = trade
			}
			continue
		}

		if hopsLeft > 1 && len(pairs) > 1 {
			s.searchExactOut(excluding(pairs, i), tokenIn, original, entities.TokenAmount{Token: prev, Raw: in}, hopsLeft-1, path, best)
		}
	}
}

func betterExactIn(candidate, current *entities.Trade) bool {
	switch candidate.OutputAmount.Raw.Cmp(current.OutputAmount.Raw) {
	case 1:
		return true
	case 0:
		return candidate.Route.Hops() < current.Route.Hops()
	}
	return false
}

func betterExactOut(candidate, current *entities.Trade) bool {
	switch candidate.InputAmount.Raw.Cmp(current.InputAmount.Raw) {
	case -1:
		return true
	case 0:
		return candidate.Route.Hops() < current.Route.Hops()
	}
	return false
}

func excluding(pairs []*entities.Pair, i int) []*entities.Pair {
	rest := make([]*entities.Pair, 0, len(pairs)-1)
	rest = append(rest, pairs[:i]...)
	return append(rest, pairs[i+1:]...)
}

func appendPair(visited []*entities.Pair, pair *entities.Pair) []*entities.Pair {
	path := make([]*entities.Pair, 0, len(visited)+1)
	path = append(path, visited...)
	return append(path, pair)
}

func prependPair(pair *entities.Pair, visited []*entities.Pair) []*entities.Pair {
	path := make([]*entities.Pair, 0, len(visited)+1)
	path = append(path, pair)
	return append(path, visited...)
}

// DedupePairs drops repeated pair addresses, keeping the first occurrence
func DedupePairs(pairs []*entities.Pair) []*entities.Pair {
	seen := make(map[string]struct{}, len(pairs))
	out := make([]*entities.Pair, 0, len(pairs))
	for _, pair := range pairs {
		if pair == nil {
			continue
		}
		key := pair.Address.Hex()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, pair)
	}
	return out
}

// EstimateGas estimates gas for a route
func EstimateGas(route *entities.Route) uint64 {
	if route == nil || route.Hops() <= 0 {
		return 150000 // Default single swap estimate
	}

	// Base gas + gas per hop
	baseGas := uint64(21000)
	gasPerHop := uint64(100000) // Approximate gas for a Uniswap V2 swap

	return baseGas + uint64(route.Hops())*gasPerHop
}
