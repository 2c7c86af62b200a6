// Package connectorstest provides an in-memory chain for connector tests.
package connectorstest

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/bimakw/amm-gateway/internal/domain/entities"
	"github.com/bimakw/amm-gateway/internal/infrastructure/ethereum"
)

// StaticNonces reports the same pending nonce for every account
type StaticNonces uint64

func (n StaticNonces) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return uint64(n), nil
}

// Chain is a connectors.Chain backed by a fixed token list
type Chain struct {
	name, network string
	chainID       uint64
	native        string
	tokens        *entities.TokenRegistry
	nonces        *ethereum.NonceManager

	mu        sync.Mutex
	ready     bool
	initErr   error
	initCalls atomic.Int32
}

// NewChain creates a chain that becomes ready on Init
func NewChain(name, network string, chainID uint64, native string, tokens ...entities.Token) *Chain {
	return &Chain{
		name:    name,
		network: network,
		chainID: chainID,
		native:  native,
		tokens:  entities.NewTokenRegistryFromList(tokens),
		nonces:  ethereum.NewNonceManager(name, network, StaticNonces(0), nil),
	}
}

// NewReadyChain creates a chain that is already initialized
func NewReadyChain(name, network string, chainID uint64, native string, tokens ...entities.Token) *Chain {
	c := NewChain(name, network, chainID, native, tokens...)
	c.ready = true
	return c
}

// FailInit makes Init return err
func (c *Chain) FailInit(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.initErr = err
}

// InitCalls returns how many times Init ran
func (c *Chain) InitCalls() int {
	return int(c.initCalls.Load())
}

func (c *Chain) Name() string           { return c.name }
func (c *Chain) Network() string        { return c.network }
func (c *Chain) ChainID() uint64        { return c.chainID }
func (c *Chain) NativeCurrency() string { return c.native }

func (c *Chain) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

func (c *Chain) Init(ctx context.Context) error {
	c.initCalls.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initErr != nil {
		return c.initErr
	}
	c.ready = true
	return nil
}

func (c *Chain) StoredTokenList() []entities.Token {
	return c.tokens.GetAll()
}

func (c *Chain) GetTokenForSymbol(symbol string) (entities.Token, bool) {
	return c.tokens.GetBySymbol(symbol)
}

// Provider is nil; connectors under test bind contracts through a fake binder
func (c *Chain) Provider() bind.ContractBackend {
	return nil
}

func (c *Chain) NonceManager() *ethereum.NonceManager {
	return c.nonces
}
