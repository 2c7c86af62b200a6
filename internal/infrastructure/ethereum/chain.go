package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"

	"github.com/bimakw/amm-gateway/internal/domain/entities"
	"github.com/bimakw/amm-gateway/internal/infrastructure/cache"
)

// Logger is the structured logger used by chains. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Backend is a connected node handle
type Backend interface {
	bind.ContractBackend
	ChainID() *big.Int
	Close()
}

// DialFunc connects to a node
type DialFunc func(ctx context.Context, rpcURL string, requestsPerSecond float64) (Backend, error)

// DialClient is the DialFunc backed by ethclient
func DialClient(ctx context.Context, rpcURL string, requestsPerSecond float64) (Backend, error) {
	return NewClient(ctx, rpcURL, requestsPerSecond)
}

// ChainConfig describes one network of an EVM chain
type ChainConfig struct {
	Name              string
	Network           string
	ChainID           uint64
	NodeURL           string
	TokenListPath     string
	NativeCurrency    string
	RequestsPerSecond float64
	DialAttempts      int
}

// Chain is a lazily connected EVM network: node handle, token list and
// per-wallet nonce bookkeeping. It becomes ready after a successful Init.
type Chain struct {
	cfg    ChainConfig
	dial   DialFunc
	store  cache.NonceStore
	logger Logger

	initMu  sync.Mutex
	ready   atomic.Bool
	backend Backend
	tokens  *entities.TokenRegistry
	nonces  *NonceManager
}

// ChainOption customizes a Chain
type ChainOption func(*Chain)

// WithDialer replaces the node dialer
func WithDialer(dial DialFunc) ChainOption {
	return func(c *Chain) { c.dial = dial }
}

// WithNonceStore persists wallet nonces
func WithNonceStore(store cache.NonceStore) ChainOption {
	return func(c *Chain) { c.store = store }
}

// WithLogger sets the chain logger
func WithLogger(logger Logger) ChainOption {
	return func(c *Chain) { c.logger = logger }
}

// NewChain creates an unconnected chain
func NewChain(cfg ChainConfig, opts ...ChainOption) *Chain {
	if cfg.DialAttempts <= 0 {
		cfg.DialAttempts = 5
	}
	c := &Chain{
		cfg:    cfg,
		dial:   DialClient,
		logger: nopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Chain) Name() string           { return c.cfg.Name }
func (c *Chain) Network() string        { return c.cfg.Network }
func (c *Chain) ChainID() uint64        { return c.cfg.ChainID }
func (c *Chain) NativeCurrency() string { return c.cfg.NativeCurrency }

// Ready reports whether Init has completed
func (c *Chain) Ready() bool {
	return c.ready.Load()
}

// Init connects to the node, checks its chain id and loads the token list.
// Calling it again after success is a no-op.
func (c *Chain) Init(ctx context.Context) error {
	c.initMu.Lock()
	defer c.initMu.Unlock()

	if c.ready.Load() {
		return nil
	}

	backend, err := c.dialWithRetry(ctx)
	if err != nil {
		return &entities.UnavailableDependencyError{Dependency: c.String(), Err: err}
	}

	if c.cfg.ChainID != 0 && backend.ChainID().Uint64() != c.cfg.ChainID {
		backend.Close()
		return fmt.Errorf("%s: node reports chain id %s, expected %d", c, backend.ChainID(), c.cfg.ChainID)
	}
	chainID := backend.ChainID().Uint64()

	tokens := entities.NewTokenRegistry()
	if c.cfg.TokenListPath != "" {
		if err := tokens.LoadFromFile(c.cfg.TokenListPath, chainID); err != nil {
			backend.Close()
			return fmt.Errorf("%s: %w", c, err)
		}
	} else if chainID == entities.WETH.ChainID {
		tokens = entities.DefaultRegistry()
	}

	c.cfg.ChainID = chainID
	c.backend = backend
	c.tokens = tokens
	c.nonces = NewNonceManager(c.cfg.Name, c.cfg.Network, backend, c.store)
	c.ready.Store(true)

	c.logger.Info("chain ready",
		"chain", c.cfg.Name,
		"network", c.cfg.Network,
		"chain_id", chainID,
		"tokens", tokens.Count(),
	)
	return nil
}

func (c *Chain) dialWithRetry(ctx context.Context) (Backend, error) {
	if c.cfg.NodeURL == "" {
		return nil, errors.New("no node url configured")
	}

	backoffCfg := backoff.NewExponentialBackOff()
	backoffCfg.InitialInterval = 250 * time.Millisecond
	backoffCfg.MaxInterval = 5 * time.Second

	attempt := 0
	backend, err := backoff.Retry(ctx, func() (Backend, error) {
		attempt++
		return c.dial(ctx, c.cfg.NodeURL, c.cfg.RequestsPerSecond)
	},
		backoff.WithBackOff(backoffCfg),
		backoff.WithMaxTries(uint(c.cfg.DialAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.logger.Warn("node dial failed",
				"chain", c.cfg.Name,
				"network", c.cfg.Network,
				"attempt", attempt,
				"retry_in", next,
				"error", err,
			)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("dial %s after %d attempts: %w", c.cfg.NodeURL, attempt, err)
	}
	return backend, nil
}

// StoredTokenList returns every token on the chain's list
func (c *Chain) StoredTokenList() []entities.Token {
	if !c.ready.Load() {
		return nil
	}
	return c.tokens.GetAll()
}

// GetTokenForSymbol looks a token up by symbol, ignoring case
func (c *Chain) GetTokenForSymbol(symbol string) (entities.Token, bool) {
	if !c.ready.Load() {
		return entities.Token{}, false
	}
	return c.tokens.GetBySymbol(symbol)
}

// Provider returns the node handle. It is nil before Init.
func (c *Chain) Provider() bind.ContractBackend {
	if !c.ready.Load() {
		return nil
	}
	return c.backend
}

// NonceManager returns the chain's nonce manager. It is nil before Init.
func (c *Chain) NonceManager() *NonceManager {
	if !c.ready.Load() {
		return nil
	}
	return c.nonces
}

// Close disconnects from the node
func (c *Chain) Close() {
	c.initMu.Lock()
	defer c.initMu.Unlock()
	if c.backend != nil {
		c.backend.Close()
	}
}

func (c *Chain) String() string {
	return c.cfg.Name + "/" + c.cfg.Network
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
