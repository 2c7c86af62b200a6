// Package amm implements the route-searching Uniswap V2 style connector used
// for uniswap on ethereum and pangolin on avalanche.
package amm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sourcegraph/conc/pool"

	"github.com/bimakw/amm-gateway/internal/connectors"
	"github.com/bimakw/amm-gateway/internal/domain/entities"
	"github.com/bimakw/amm-gateway/internal/domain/services"
	"github.com/bimakw/amm-gateway/internal/infrastructure/cache"
	"github.com/bimakw/amm-gateway/internal/infrastructure/dex"
	ethclient "github.com/bimakw/amm-gateway/internal/infrastructure/ethereum"
)

const maxConcurrentPoolFetches = 8

// Connector quotes trades by searching routes over the configured pools plus
// the direct pair of each request, and executes them through the router.
type Connector struct {
	*connectors.Base

	routing   *services.RouterService
	pairCache cache.PairAddressCache

	updateMu sync.Mutex
	pairs    dex.PairSource

	poolsMu sync.RWMutex
	pools   []*entities.Pair
}

var _ connectors.Connector = (*Connector)(nil)

// PoolOutcome is the result of resolving one configured pool entry
type PoolOutcome struct {
	Entry string
	Pair  *entities.Pair
	Err   error
}

// New creates an uninitialized connector. pairCache may be nil.
func New(chain connectors.Chain, settings connectors.Settings, pairCache cache.PairAddressCache, opts ...connectors.Option) *Connector {
	return &Connector{
		Base:      connectors.NewBase(chain, settings, opts...),
		routing:   services.NewRouterService(settings.MaxHops),
		pairCache: pairCache,
	}
}

// Init binds the factory and loads the configured pools. The chain must
// already be ready.
func (c *Connector) Init(ctx context.Context) error {
	return c.Initialize(ctx, func(ctx context.Context, binder dex.Binder) error {
		settings := c.Settings()
		c.pairs = dex.NewUniswapV2Client(binder, settings.FactoryAddress, settings.DEX, settings.FeeBps, c.pairCache)
		c.UpdatePools(ctx)
		return nil
	})
}

// UpdatePools re-resolves every configured "BASE-QUOTE" entry against the
// chain and replaces the pool set. Bad entries are logged and skipped; the
// returned outcomes follow configuration order.
func (c *Connector) UpdatePools(ctx context.Context) []PoolOutcome {
	c.updateMu.Lock()
	defer c.updateMu.Unlock()

	chain := c.Chain()
	entries := c.Settings().Pools
	outcomes := make([]PoolOutcome, len(entries))

	type fetched struct {
		index   int
		outcome PoolOutcome
	}
	p := pool.NewWithResults[fetched]().WithMaxGoroutines(maxConcurrentPoolFetches)

	for i, entry := range entries {
		resolved, warnings := services.ResolvePoolPairs(chain.Name(), []string{entry}, chain.GetTokenForSymbol)
		if len(warnings) > 0 {
			for _, w := range warnings {
				c.skipPool(entry, w)
			}
			outcomes[i] = PoolOutcome{Entry: entry, Err: errors.Join(warnings...)}
			continue
		}

		pp := resolved[0]
		p.Go(func() fetched {
			pair, err := c.pairs.GetPairByTokens(ctx, pp.Base, pp.Quote)
			switch {
			case err != nil:
				err = fmt.Errorf("fetch pool %s: %w", entry, err)
			case pair == nil:
				err = fmt.Errorf("%w: %s on %s %s", entities.ErrPoolNotFound, entry, chain.Name(), chain.Network())
			}
			return fetched{index: i, outcome: PoolOutcome{Entry: entry, Pair: pair, Err: err}}
		})
	}

	found := make([]*entities.Pair, 0, len(entries))
	for _, f := range p.Wait() {
		outcomes[f.index] = f.outcome
	}
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			if outcome.Pair == nil && !isResolveError(outcome.Err) {
				c.skipPool(outcome.Entry, outcome.Err)
			}
			continue
		}
		found = append(found, outcome.Pair)
	}
	found = services.DedupePairs(found)

	c.poolsMu.Lock()
	c.pools = found
	c.poolsMu.Unlock()

	settings := c.Settings()
	c.Metrics().PoolsResolved.WithLabelValues(settings.Connector, chain.Name(), chain.Network()).Set(float64(len(found)))
	return outcomes
}

func isResolveError(err error) bool {
	return errors.Is(err, entities.ErrMalformedPool) || errors.Is(err, entities.ErrUnrecognizedToken)
}

func (c *Connector) skipPool(entry string, err error) {
	reason := "error"
	switch {
	case errors.Is(err, entities.ErrMalformedPool):
		reason = "malformed"
	case errors.Is(err, entities.ErrUnrecognizedToken):
		reason = "unrecognized_token"
	case errors.Is(err, entities.ErrPoolNotFound):
		reason = "not_found"
	}

	chain := c.Chain()
	settings := c.Settings()
	c.Metrics().PoolsSkipped.WithLabelValues(settings.Connector, chain.Name(), chain.Network(), reason).Inc()
	c.Logger().Warn("skipping configured pool",
		"connector", settings.Connector,
		"chain", chain.Name(),
		"network", chain.Network(),
		"pool", entry,
		"reason", reason,
		"error", err,
	)
}

// Pools returns the pools found by the last UpdatePools
func (c *Connector) Pools() []*entities.Pair {
	c.poolsMu.RLock()
	defer c.poolsMu.RUnlock()
	return append([]*entities.Pair(nil), c.pools...)
}

// candidatePairs is the configured pool set plus a fresh copy of the direct pair
func (c *Connector) candidatePairs(ctx context.Context, tokenA, tokenB entities.Token) ([]*entities.Pair, error) {
	direct, err := c.pairs.GetPairByTokens(ctx, tokenA, tokenB)
	if err != nil {
		return nil, fmt.Errorf("fetch pair %s-%s: %w", tokenA.Symbol, tokenB.Symbol, err)
	}

	pairs := c.Pools()
	if direct != nil {
		pairs = append([]*entities.Pair{direct}, pairs...)
	}
	return services.DedupePairs(pairs), nil
}

// EstimateSellTrade finds the route paying the most quote tokens for amount
// base tokens. The expected amount is the minimum output under slippage.
func (c *Connector) EstimateSellTrade(ctx context.Context, base, quote entities.Token, amount *big.Int) (*entities.Quote, error) {
	q, err := c.estimateSell(ctx, base, quote, amount)
	c.ObserveQuote("sell", err)
	return q, err
}

func (c *Connector) estimateSell(ctx context.Context, base, quote entities.Token, amount *big.Int) (*entities.Quote, error) {
	if err := c.RequireReady(); err != nil {
		return nil, err
	}
	slippage, err := c.Settings().Slippage()
	if err != nil {
		return nil, err
	}

	pairs, err := c.candidatePairs(ctx, base, quote)
	if err != nil {
		return nil, err
	}
	trade, err := c.routing.BestTradeExactIn(pairs, entities.NewTokenAmount(base, amount), quote)
	if err != nil {
		return nil, err
	}

	c.Logger().Debug("sell estimate",
		"connector", c.Settings().Connector,
		"trade", trade.String(),
		"route", c.GetTradeRoute(trade),
	)
	return &entities.Quote{Trade: trade, ExpectedAmount: trade.MinimumAmountOut(slippage)}, nil
}

// EstimateBuyTrade finds the route costing the fewest quote tokens for amount
// base tokens. The expected amount is the maximum input under slippage.
func (c *Connector) EstimateBuyTrade(ctx context.Context, quote, base entities.Token, amount *big.Int) (*entities.Quote, error) {
	q, err := c.estimateBuy(ctx, quote, base, amount)
	c.ObserveQuote("buy", err)
	return q, err
}

func (c *Connector) estimateBuy(ctx context.Context, quote, base entities.Token, amount *big.Int) (*entities.Quote, error) {
	if err := c.RequireReady(); err != nil {
		return nil, err
	}
	slippage, err := c.Settings().Slippage()
	if err != nil {
		return nil, err
	}

	pairs, err := c.candidatePairs(ctx, quote, base)
	if err != nil {
		return nil, err
	}
	trade, err := c.routing.BestTradeExactOut(pairs, quote, entities.NewTokenAmount(base, amount))
	if err != nil {
		return nil, err
	}

	c.Logger().Debug("buy estimate",
		"connector", c.Settings().Connector,
		"trade", trade.String(),
		"route", c.GetTradeRoute(trade),
	)
	return &entities.Quote{Trade: trade, ExpectedAmount: trade.MaximumAmountIn(slippage)}, nil
}

// GetPool asks a factory for the pair of two tokens. A zero factory means the
// connector's own. ok is false when the factory reports the zero address.
func (c *Connector) GetPool(ctx context.Context, tokenA, tokenB, factory common.Address) (pair common.Address, ok bool, err error) {
	if err := c.RequireReady(); err != nil {
		return common.Address{}, false, err
	}
	source := c.pairs
	if factory != ethclient.ZeroAddress && factory != c.FactoryAddress() {
		settings := c.Settings()
		source = dex.NewUniswapV2Client(c.Binder(), factory, settings.DEX, settings.FeeBps, c.pairCache)
	}
	pair, err = source.GetPairAddress(ctx, tokenA, tokenB)
	if err != nil {
		return common.Address{}, false, err
	}
	if pair == ethclient.ZeroAddress {
		return common.Address{}, false, nil
	}
	return pair, true, nil
}

// MaxHops returns the route length limit
func (c *Connector) MaxHops() int {
	return c.routing.MaxHops()
}
