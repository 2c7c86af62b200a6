package connectors

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bimakw/amm-gateway/internal/domain/entities"
	"github.com/bimakw/amm-gateway/internal/domain/services"
	"github.com/bimakw/amm-gateway/internal/infrastructure/dex"
	"github.com/bimakw/amm-gateway/internal/infrastructure/ethereum"
)

// Base carries the state and behavior common to every connector: readiness,
// the token snapshot, the bound router and trade submission.
type Base struct {
	chain      Chain
	settings   Settings
	logger     Logger
	metrics    *Metrics
	binder     dex.Binder
	now        func() time.Time
	routerABI  abi.ABI
	factoryABI abi.ABI

	initMu sync.Mutex
	ready  atomic.Bool
	router *dex.RouterClient
	tokens *entities.TokenRegistry
}

// Option customizes a connector
type Option func(*Base)

// WithLogger sets the connector logger
func WithLogger(logger Logger) Option {
	return func(b *Base) { b.logger = logger }
}

// WithMetrics sets the connector metrics
func WithMetrics(metrics *Metrics) Option {
	return func(b *Base) { b.metrics = metrics }
}

// WithBinder binds contracts through binder instead of the chain provider
func WithBinder(binder dex.Binder) Option {
	return func(b *Base) { b.binder = binder }
}

// WithClock replaces time.Now for trade deadlines
func WithClock(now func() time.Time) Option {
	return func(b *Base) { b.now = now }
}

// NewBase creates the shared part of a connector. It does not touch the chain.
func NewBase(chain Chain, settings Settings, opts ...Option) *Base {
	b := &Base{
		chain:      chain,
		settings:   settings,
		logger:     NopLogger,
		now:        time.Now,
		routerABI:  dex.MustParseABI(dex.RouterABI(settings.NativeName)),
		factoryABI: dex.MustParseABI(dex.FactoryABI),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.metrics == nil {
		b.metrics = NewMetrics(prometheus.NewRegistry())
	}
	return b
}

// Ready reports whether Initialize has completed
func (b *Base) Ready() bool {
	return b.ready.Load()
}

// Initialize requires the chain to be ready, snapshots its token list, binds
// the router and then runs finish. It runs at most once successfully.
func (b *Base) Initialize(ctx context.Context, finish func(ctx context.Context, binder dex.Binder) error) error {
	b.initMu.Lock()
	defer b.initMu.Unlock()

	if b.ready.Load() {
		return nil
	}
	start := time.Now()

	if !b.chain.Ready() {
		return &entities.UnavailableDependencyError{
			Dependency: fmt.Sprintf("%s %s", b.chain.Name(), b.chain.Network()),
			Err:        errors.New("chain is not initialized"),
		}
	}

	binder := b.binder
	if binder == nil {
		binder = dex.BackendBinder(b.chain.Provider())
		b.binder = binder
	}
	b.tokens = entities.NewTokenRegistryFromList(b.chain.StoredTokenList())
	b.router = dex.NewRouterClient(binder, b.settings.RouterAddress, b.routerABI)

	if finish != nil {
		if err := finish(ctx, binder); err != nil {
			return err
		}
	}

	b.ready.Store(true)
	b.metrics.InitDuration.WithLabelValues(b.labels()...).Observe(time.Since(start).Seconds())
	b.logger.Info("connector ready",
		"connector", b.settings.Connector,
		"chain", b.chain.Name(),
		"network", b.chain.Network(),
		"router", b.settings.RouterAddress.Hex(),
		"tokens", b.tokens.Count(),
	)
	return nil
}

// RequireReady fails with an UnavailableDependencyError before Initialize
func (b *Base) RequireReady() error {
	if b.ready.Load() {
		return nil
	}
	return &entities.UnavailableDependencyError{
		Dependency: fmt.Sprintf("%s connector on %s %s", b.settings.Connector, b.chain.Name(), b.chain.Network()),
		Err:        errors.New("connector is not initialized"),
	}
}

func (b *Base) labels(extra ...string) []string {
	return append([]string{b.settings.Connector, b.chain.Name(), b.chain.Network()}, extra...)
}

func (b *Base) Chain() Chain       { return b.chain }
func (b *Base) Settings() Settings { return b.settings }
func (b *Base) Logger() Logger     { return b.logger }
func (b *Base) Metrics() *Metrics  { return b.metrics }

// Router returns the router contract address
func (b *Base) Router() common.Address { return b.settings.RouterAddress }

// RouterABI returns the router interface
func (b *Base) RouterABI() abi.ABI { return b.routerABI }

// FactoryAddress returns the factory contract address
func (b *Base) FactoryAddress() common.Address { return b.settings.FactoryAddress }

// FactoryABI returns the factory interface
func (b *Base) FactoryABI() abi.ABI { return b.factoryABI }

// GasLimit returns the default gas limit of swaps
func (b *Base) GasLimit() uint64 { return b.settings.GasLimit }

// TTL returns the default deadline window of swaps
func (b *Base) TTL() time.Duration { return b.settings.TTL }

// Binder binds contracts once Initialize has run
func (b *Base) Binder() dex.Binder { return b.binder }

// RouterClient returns the bound router. It is nil before Initialize.
func (b *Base) RouterClient() *dex.RouterClient { return b.router }

// GetTokenByAddress looks a token up in the snapshot taken at Initialize
func (b *Base) GetTokenByAddress(address common.Address) (entities.Token, bool) {
	if !b.ready.Load() {
		return entities.Token{}, false
	}
	return b.tokens.GetByAddress(address)
}

// GetTradeRoute returns the "A-B" labels of each hop of trade
func (b *Base) GetTradeRoute(trade *entities.Trade) []string {
	if trade == nil || trade.Route == nil {
		return nil
	}
	return trade.Route.Labels()
}

// ObserveQuote counts a served estimate
func (b *Base) ObserveQuote(side string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, entities.ErrPriceUnavailable):
		outcome = "no_liquidity"
	default:
		outcome = "error"
	}
	b.metrics.QuotesTotal.WithLabelValues(b.labels(side, outcome)...).Inc()
}

func (b *Base) isNative(token entities.Token) bool {
	native := b.chain.NativeCurrency()
	return native != "" && strings.EqualFold(token.Symbol, native)
}

// ExecuteTrade submits trade through the router without waiting for it to be mined.
// Nonces are reserved per wallet and committed once the node accepts the transaction.
func (b *Base) ExecuteTrade(ctx context.Context, req TradeRequest) (*types.Transaction, error) {
	if err := b.RequireReady(); err != nil {
		return nil, err
	}
	if req.Wallet == nil || req.Trade == nil || req.Gas == nil {
		return nil, errors.New("trade request needs a wallet, a trade and a gas strategy")
	}

	slippage, err := b.settings.Slippage()
	if err != nil {
		return nil, err
	}

	router := b.router
	if req.Router != (common.Address{}) && req.Router != router.Address() {
		router = dex.NewRouterClient(b.binder, req.Router, b.routerABI)
	}
	ttl := b.settings.TTL
	if req.TTL > 0 {
		ttl = req.TTL
	}
	gasLimit := b.settings.GasLimit
	if req.GasLimit > 0 {
		gasLimit = req.GasLimit
	}

	tradeID := uuid.NewString()
	wallet := req.Wallet.Address()
	fields := []any{
		"trade_id", tradeID,
		"connector", b.settings.Connector,
		"chain", b.chain.Name(),
		"network", b.chain.Network(),
		"wallet", wallet.Hex(),
	}

	params, err := services.SwapCallParameters(req.Trade, services.SwapOptions{
		Recipient:  wallet,
		Deadline:   b.now().Add(ttl),
		Slippage:   slippage,
		NativeIn:   b.isNative(req.Trade.InputAmount.Token),
		NativeOut:  b.isNative(req.Trade.OutputAmount.Token),
		NativeName: b.settings.NativeName,
	})
	if err != nil {
		b.metrics.TradeErrors.WithLabelValues(b.labels("parameters")...).Inc()
		return nil, err
	}

	nonces := b.chain.NonceManager()
	var (
		nonce       uint64
		reservation *ethereum.NonceReservation
	)
	if req.Nonce != nil {
		nonce = *req.Nonce
	} else {
		reservation, err = nonces.Reserve(ctx, wallet)
		if err != nil {
			b.metrics.TradeErrors.WithLabelValues(b.labels("nonce")...).Inc()
			return nil, fmt.Errorf("reserve nonce: %w", err)
		}
		defer reservation.Release()
		nonce = reservation.Nonce()
	}

	opts, err := req.Wallet.Transactor(ctx, new(big.Int).SetUint64(b.chain.ChainID()))
	if err != nil {
		b.metrics.TradeErrors.WithLabelValues(b.labels("signer")...).Inc()
		return nil, fmt.Errorf("signer: %w", err)
	}
	opts.Nonce = new(big.Int).SetUint64(nonce)
	opts.Value = params.Value
	opts.GasLimit = gasLimit
	if err := req.Gas.apply(opts); err != nil {
		b.metrics.TradeErrors.WithLabelValues(b.labels("gas")...).Inc()
		return nil, err
	}

	tx, err := router.Swap(opts, params.MethodName, params.Args...)
	if err != nil {
		b.metrics.TradeErrors.WithLabelValues(b.labels("submit")...).Inc()
		b.logger.Error("trade submission failed", append(fields, "nonce", nonce, "method", params.MethodName, "error", err)...)
		return nil, err
	}

	if reservation != nil {
		err = reservation.Commit(ctx)
	} else {
		err = nonces.CommitNonce(ctx, wallet, nonce)
	}
	if err != nil {
		b.logger.Warn("nonce commit failed", append(fields, "nonce", nonce, "error", err)...)
	}

	b.metrics.TradesSubmitted.WithLabelValues(b.labels(req.Gas.Kind())...).Inc()
	b.logger.Info("trade submitted", append(fields,
		"tx", tx.Hash().Hex(),
		"nonce", nonce,
		"method", params.MethodName,
		"gas", req.Gas.Kind(),
		"route", strings.Join(b.GetTradeRoute(req.Trade), ","),
	)...)
	return tx, nil
}
