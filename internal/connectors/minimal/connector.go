// Package minimal implements connectors that quote a single direct hop by
// asking the router contract itself, with no local pool state. The harmony
// sushiswap and viperswap deployments use it.
package minimal

import (
	"context"
	"math/big"

	"github.com/bimakw/amm-gateway/internal/connectors"
	"github.com/bimakw/amm-gateway/internal/domain/entities"
	"github.com/bimakw/amm-gateway/internal/infrastructure/dex"
)

// Connector quotes through getAmountsOut/getAmountsIn on its fixed router
type Connector struct {
	*connectors.Base
}

var _ connectors.Connector = (*Connector)(nil)

// New creates an uninitialized connector bound to settings.RouterAddress
func New(chain connectors.Chain, settings connectors.Settings, opts ...connectors.Option) *Connector {
	return &Connector{Base: connectors.NewBase(chain, settings, opts...)}
}

// Init binds the router. The chain must already be ready.
func (c *Connector) Init(ctx context.Context) error {
	return c.Initialize(ctx, func(context.Context, dex.Binder) error { return nil })
}

// EstimateSellTrade quotes selling amount base tokens for quote tokens. The
// expected amount is the minimum output under slippage.
func (c *Connector) EstimateSellTrade(ctx context.Context, base, quote entities.Token, amount *big.Int) (*entities.Quote, error) {
	q, err := c.estimate(func(slippage entities.Percent) (*entities.Quote, error) {
		q, err := EstimateSellTrade(ctx, c.RouterClient(), base, quote, amount)
		if err != nil {
			return nil, err
		}
		q.ExpectedAmount = q.Trade.MinimumAmountOut(slippage)
		return q, nil
	})
	c.ObserveQuote("sell", err)
	return q, err
}

// EstimateBuyTrade quotes buying amount base tokens with quote tokens. The
// expected amount is the maximum input under slippage.
func (c *Connector) EstimateBuyTrade(ctx context.Context, quote, base entities.Token, amount *big.Int) (*entities.Quote, error) {
	q, err := c.estimate(func(slippage entities.Percent) (*entities.Quote, error) {
		q, err := EstimateBuyTrade(ctx, c.RouterClient(), quote, base, amount)
		if err != nil {
			return nil, err
		}
		q.ExpectedAmount = q.Trade.MaximumAmountIn(slippage)
		return q, nil
	})
	c.ObserveQuote("buy", err)
	return q, err
}

func (c *Connector) estimate(quote func(entities.Percent) (*entities.Quote, error)) (*entities.Quote, error) {
	if err := c.RequireReady(); err != nil {
		return nil, err
	}
	slippage, err := c.Settings().Slippage()
	if err != nil {
		return nil, err
	}

	q, err := quote(slippage)
	if err != nil {
		return nil, err
	}
	c.Logger().Debug("router estimate",
		"connector", c.Settings().Connector,
		"router", c.Router().Hex(),
		"trade", q.Trade.String(),
	)
	return q, nil
}
