package dex

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/bimakw/amm-gateway/internal/domain/entities"
	"github.com/bimakw/amm-gateway/internal/infrastructure/cache"
	ethclient "github.com/bimakw/amm-gateway/internal/infrastructure/ethereum"
)

// UniswapV2Client fetches pair data from Uniswap V2 compatible DEXes
type UniswapV2Client struct {
	factory        Contract
	factoryAddress common.Address
	bind           Binder
	cache          cache.PairAddressCache
	dexType        entities.DEXType
	fee            uint64 // Fee in basis points (30 = 0.3%)
}

// NewUniswapV2Client creates a client for the factory at factoryAddress.
// pairCache may be nil.
func NewUniswapV2Client(binder Binder, factoryAddress common.Address, dexType entities.DEXType, feeBps uint64, pairCache cache.PairAddressCache) *UniswapV2Client {
	if feeBps == 0 {
		feeBps = entities.DefaultFeeBps
	}
	return &UniswapV2Client{
		factory:        binder(factoryAddress, factoryABI),
		factoryAddress: factoryAddress,
		bind:           binder,
		cache:          pairCache,
		dexType:        dexType,
		fee:            feeBps,
	}
}

// GetPairAddress asks the factory for the pair of two tokens. A missing pair
// is reported as the zero address, not an error.
func (c *UniswapV2Client) GetPairAddress(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error) {
	key := cache.PairCacheKey(c.dexType, c.factoryAddress, tokenA, tokenB)
	if c.cache != nil {
		if cached, ok, err := c.cache.GetPairAddress(ctx, key); err == nil && ok {
			return cached, nil
		}
	}

	token0, token1 := sortTokens(tokenA, tokenB)

	var out []any
	if err := c.factory.Call(&bind.CallOpts{Context: ctx}, &out, "getPair", token0, token1); err != nil {
		return common.Address{}, fmt.Errorf("failed to get pair address: %w", err)
	}
	if len(out) == 0 {
		return common.Address{}, fmt.Errorf("invalid response length")
	}
	pairAddress, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected getPair result %T", out[0])
	}

	if c.cache != nil && pairAddress != ethclient.ZeroAddress {
		// cache write failures are not fatal
		_ = c.cache.SetPairAddress(ctx, key, pairAddress, 0)
	}
	return pairAddress, nil
}

// GetPair fetches pair data including reserves
func (c *UniswapV2Client) GetPair(ctx context.Context, pairAddress common.Address, tokenA, tokenB entities.Token) (*entities.Pair, error) {
	if tokenB.SortsBefore(tokenA) {
		tokenA, tokenB = tokenB, tokenA
	}

	reserves, err := c.getReserves(ctx, pairAddress)
	if err != nil {
		return nil, err
	}

	pair := entities.NewPair(pairAddress, tokenA, tokenB, reserves[0], reserves[1], c.dexType, c.fee)
	pair.UpdatedAt = time.Now().Unix()
	return pair, nil
}

// GetPairByTokens fetches pair data by token, or nil when the factory has no such pair
func (c *UniswapV2Client) GetPairByTokens(ctx context.Context, tokenA, tokenB entities.Token) (*entities.Pair, error) {
	pairAddress, err := c.GetPairAddress(ctx, tokenA.Address, tokenB.Address)
	if err != nil {
		return nil, err
	}

	if pairAddress == ethclient.ZeroAddress {
		return nil, nil
	}

	pair, err := c.GetPair(ctx, pairAddress, tokenA, tokenB)
	if err != nil && c.cache != nil {
		// a cached address that cannot serve reserves is looked up again next time
		_ = c.cache.Delete(ctx, cache.PairCacheKey(c.dexType, c.factoryAddress, tokenA.Address, tokenB.Address))
	}
	return pair, err
}

// getReserves fetches reserves from a pair, in token0/token1 order
func (c *UniswapV2Client) getReserves(ctx context.Context, pairAddress common.Address) ([2]*big.Int, error) {
	var out []any
	pair := c.bind(pairAddress, pairABI)
	if err := pair.Call(&bind.CallOpts{Context: ctx}, &out, "getReserves"); err != nil {
		return [2]*big.Int{}, fmt.Errorf("failed to get reserves: %w", err)
	}

	if len(out) < 2 {
		return [2]*big.Int{}, fmt.Errorf("invalid reserves response length")
	}
	reserve0, ok0 := out[0].(*big.Int)
	reserve1, ok1 := out[1].(*big.Int)
	if !ok0 || !ok1 {
		return [2]*big.Int{}, fmt.Errorf("unexpected reserves types %T, %T", out[0], out[1])
	}

	return [2]*big.Int{reserve0, reserve1}, nil
}

// FactoryAddress returns the factory the client queries
func (c *UniswapV2Client) FactoryAddress() common.Address {
	return c.factoryAddress
}

// DEXType returns the DEX type
func (c *UniswapV2Client) DEXType() entities.DEXType {
	return c.dexType
}

// sortTokens sorts two addresses in ascending byte order (Uniswap V2 convention)
func sortTokens(tokenA, tokenB common.Address) (common.Address, common.Address) {
	if tokenB.Cmp(tokenA) < 0 {
		return tokenB, tokenA
	}
	return tokenA, tokenB
}
