package ethereum

import (
	"context"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bimakw/amm-gateway/internal/domain/entities"
)

type fakeBackend struct {
	bind.ContractBackend
	chainID uint64
	closed  bool
}

func (f *fakeBackend) ChainID() *big.Int { return new(big.Int).SetUint64(f.chainID) }
func (f *fakeBackend) Close()            { f.closed = true }
func (f *fakeBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return 11, nil
}

const avalancheTokens = `{
  "name": "test list",
  "tokens": [
    {"chainId": 43114, "address": "0xB31f66AA3C1e785363F0875A1B74E27b85FD66c7", "symbol": "WAVAX", "name": "Wrapped AVAX", "decimals": 18},
    {"chainId": 43114, "address": "0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E", "symbol": "USDC", "name": "USD Coin", "decimals": 6},
    {"chainId": 1, "address": "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", "symbol": "USDC", "name": "USD Coin", "decimals": 6}
  ]
}`

func writeTokenList(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tokens.json")
	require.NoError(t, os.WriteFile(path, []byte(avalancheTokens), 0o600))
	return path
}

func TestChainInit(t *testing.T) {
	backend := &fakeBackend{chainID: 43114}
	chain := NewChain(ChainConfig{
		Name:           "avalanche",
		Network:        "avalanche",
		ChainID:        43114,
		NodeURL:        "http://node",
		TokenListPath:  writeTokenList(t),
		NativeCurrency: "AVAX",
	}, WithDialer(func(ctx context.Context, rpcURL string, rps float64) (Backend, error) {
		return backend, nil
	}))

	assert.False(t, chain.Ready())
	assert.Nil(t, chain.Provider())
	_, ok := chain.GetTokenForSymbol("USDC")
	assert.False(t, ok)

	require.NoError(t, chain.Init(context.Background()))
	assert.True(t, chain.Ready())
	assert.Len(t, chain.StoredTokenList(), 2)

	usdc, ok := chain.GetTokenForSymbol("usdc")
	require.True(t, ok)
	assert.Equal(t, uint8(6), usdc.Decimals)
	assert.Equal(t, uint64(43114), usdc.ChainID)

	nonce, err := chain.NonceManager().GetNonce(context.Background(), common.HexToAddress("0x01"))
	require.NoError(t, err)
	assert.Equal(t, uint64(11), nonce)
	assert.Same(t, backend, chain.Provider())
}

func TestChainInitRetriesDial(t *testing.T) {
	attempts := 0
	chain := NewChain(ChainConfig{
		Name:         "ethereum",
		Network:      "mainnet",
		NodeURL:      "http://node",
		DialAttempts: 3,
	}, WithDialer(func(ctx context.Context, rpcURL string, rps float64) (Backend, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("connection refused")
		}
		return &fakeBackend{chainID: 1}, nil
	}))

	require.NoError(t, chain.Init(context.Background()))
	assert.Equal(t, 3, attempts)
	assert.Equal(t, uint64(1), chain.ChainID())

	// mainnet without a token list falls back to the built-in tokens
	_, ok := chain.GetTokenForSymbol("WETH")
	assert.True(t, ok)
}

func TestChainInitUnavailable(t *testing.T) {
	chain := NewChain(ChainConfig{
		Name:         "harmony",
		Network:      "mainnet",
		NodeURL:      "http://node",
		DialAttempts: 1,
	}, WithDialer(func(ctx context.Context, rpcURL string, rps float64) (Backend, error) {
		return nil, errors.New("no route to host")
	}))

	err := chain.Init(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, entities.ErrDependencyUnavailable))
	assert.False(t, chain.Ready())
}

func TestChainInitStopsRetryingWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	attempts := 0
	chain := NewChain(ChainConfig{
		Name:         "avalanche",
		Network:      "fuji",
		NodeURL:      "http://node",
		DialAttempts: 5,
	}, WithDialer(func(ctx context.Context, rpcURL string, rps float64) (Backend, error) {
		attempts++
		cancel()
		return nil, errors.New("connection refused")
	}))

	err := chain.Init(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, entities.ErrDependencyUnavailable)
	assert.Equal(t, 1, attempts)
	assert.False(t, chain.Ready())
}

func TestChainInitGivesUpAfterMaxAttempts(t *testing.T) {
	attempts := 0
	chain := NewChain(ChainConfig{
		Name:         "harmony",
		Network:      "testnet",
		NodeURL:      "http://node",
		DialAttempts: 2,
	}, WithDialer(func(ctx context.Context, rpcURL string, rps float64) (Backend, error) {
		attempts++
		return nil, errors.New("connection refused")
	}))

	err := chain.Init(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "connection refused")
	assert.Equal(t, 2, attempts)
}

func TestChainInitRejectsWrongChainID(t *testing.T) {
	backend := &fakeBackend{chainID: 5}
	chain := NewChain(ChainConfig{
		Name:    "ethereum",
		Network: "mainnet",
		ChainID: 1,
		NodeURL: "http://node",
	}, WithDialer(func(ctx context.Context, rpcURL string, rps float64) (Backend, error) {
		return backend, nil
	}))

	err := chain.Init(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chain id")
	assert.True(t, backend.closed)
	assert.False(t, chain.Ready())
}

func TestChainInitWithoutNodeURL(t *testing.T) {
	chain := NewChain(ChainConfig{Name: "ethereum", Network: "mainnet"})
	err := chain.Init(context.Background())
	assert.True(t, errors.Is(err, entities.ErrDependencyUnavailable))
}

func TestKeystore(t *testing.T) {
	// well-known throwaway development key
	const key = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	ks, err := NewKeystore([]string{key, ""})
	require.NoError(t, err)
	assert.Equal(t, 1, ks.Len())

	w, ok := ks.Get(common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"))
	require.True(t, ok)

	opts, err := w.Transactor(context.Background(), big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, w.Address(), opts.From)

	_, err = NewKeystore([]string{"not-a-key"})
	assert.Error(t, err)
}
