package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/time/rate"
)

// Client wraps the go-ethereum client with a per-node request rate limit.
// It satisfies bind.ContractBackend so contracts can be bound directly to it.
type Client struct {
	client  *ethclient.Client
	rpcURL  string
	chainID *big.Int
	limiter *rate.Limiter
	mu      sync.RWMutex
}

var _ bind.ContractBackend = (*Client)(nil)

// NewClient dials a node and reads its chain ID. A non-positive
// requestsPerSecond disables rate limiting.
func NewClient(ctx context.Context, rpcURL string, requestsPerSecond float64) (*Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to read chain id: %w", err)
	}

	c := &Client{
		client:  client,
		rpcURL:  rpcURL,
		chainID: chainID,
	}
	if requestsPerSecond > 0 {
		burst := int(requestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
	return c, nil
}

// Close closes the underlying client connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.client.Close()
}

// ChainID returns the chain ID
func (c *Client) ChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// CallContract executes a contract call
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client.CallContract(ctx, msg, blockNumber)
}

// CodeAt returns the contract code at the given block
func (c *Client) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client.CodeAt(ctx, contract, blockNumber)
}

// HeaderByNumber returns a block header, the latest one when number is nil
func (c *Client) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client.HeaderByNumber(ctx, number)
}

// PendingCodeAt returns the contract code in the pending state
func (c *Client) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client.PendingCodeAt(ctx, account)
}

// PendingNonceAt returns the next nonce of an account including pending transactions
func (c *Client) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client.PendingNonceAt(ctx, account)
}

// EstimateGas estimates the gas required for a transaction
func (c *Client) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client.EstimateGas(ctx, msg)
}

// SuggestGasPrice suggests a gas price based on recent blocks
func (c *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client.SuggestGasPrice(ctx)
}

// SuggestGasTipCap suggests a priority fee for dynamic fee transactions
func (c *Client) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client.SuggestGasTipCap(ctx)
}

// SendTransaction submits a signed transaction
func (c *Client) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client.SendTransaction(ctx, tx)
}

// FilterLogs executes a log filter query
func (c *Client) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client.FilterLogs(ctx, q)
}

// SubscribeFilterLogs subscribes to log events matching the query
func (c *Client) SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client.SubscribeFilterLogs(ctx, q, ch)
}

// Common Ethereum addresses
var (
	ZeroAddress = common.HexToAddress("0x0000000000000000000000000000000000000000")
)
