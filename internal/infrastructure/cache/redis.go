package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"

	"github.com/bimakw/amm-gateway/internal/domain/entities"
)

// PairAddressCache remembers factory lookups. Pair addresses never change once
// created, so only existing pairs are worth caching.
type PairAddressCache interface {
	GetPairAddress(ctx context.Context, key string) (common.Address, bool, error)
	SetPairAddress(ctx context.Context, key string, pair common.Address, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// NonceStore persists the next unused nonce of a wallet across restarts
type NonceStore interface {
	LoadNonce(ctx context.Context, key string) (uint64, bool, error)
	SaveNonce(ctx context.Context, key string, nonce uint64) error
}

// Cache is everything the gateway keeps outside process memory
type Cache interface {
	PairAddressCache
	NonceStore
}

// RedisCache implements Cache using Redis
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis cache client
func NewRedisCache(addr, password string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// GetPairAddress retrieves a cached pair address
func (c *RedisCache) GetPairAddress(ctx context.Context, key string) (common.Address, bool, error) {
	value, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return common.Address{}, false, nil // Cache miss
		}
		return common.Address{}, false, err
	}
	if !common.IsHexAddress(value) {
		return common.Address{}, false, fmt.Errorf("cached pair address %q is invalid", value)
	}
	return common.HexToAddress(value), true, nil
}

// SetPairAddress caches a pair address with TTL
func (c *RedisCache) SetPairAddress(ctx context.Context, key string, pair common.Address, ttl time.Duration) error {
	return c.client.Set(ctx, key, pair.Hex(), ttl).Err()
}

// LoadNonce retrieves the persisted next nonce of a wallet
func (c *RedisCache) LoadNonce(ctx context.Context, key string) (uint64, bool, error) {
	value, err := c.client.Get(ctx, key).Uint64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return value, true, nil
}

// SaveNonce persists the next nonce of a wallet without expiry
func (c *RedisCache) SaveNonce(ctx context.Context, key string, nonce uint64) error {
	return c.client.Set(ctx, key, strconv.FormatUint(nonce, 10), 0).Err()
}

// Delete removes a key from cache
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// PairCacheKey generates a cache key for a factory pair lookup. Token order does not matter.
func PairCacheKey(dex entities.DEXType, factory, tokenA, tokenB common.Address) string {
	a, b := strings.ToLower(tokenA.Hex()), strings.ToLower(tokenB.Hex())
	if b < a {
		a, b = b, a
	}
	return fmt.Sprintf("pair:%s:%s:%s:%s", dex, strings.ToLower(factory.Hex()), a, b)
}

// NonceCacheKey generates a cache key for a wallet nonce on one chain network
func NonceCacheKey(chain, network string, wallet common.Address) string {
	return fmt.Sprintf("nonce:%s:%s:%s", chain, network, strings.ToLower(wallet.Hex()))
}

// InMemoryCache implements Cache using in-memory storage (for testing/development)
type InMemoryCache struct {
	mu     sync.Mutex
	pairs  map[string]*cachedPair
	nonces map[string]uint64
}

type cachedPair struct {
	address   common.Address
	expiresAt time.Time
}

// NewInMemoryCache creates a new in-memory cache
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{
		pairs:  make(map[string]*cachedPair),
		nonces: make(map[string]uint64),
	}
}

func (c *InMemoryCache) GetPairAddress(ctx context.Context, key string) (common.Address, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cached, ok := c.pairs[key]; ok {
		if cached.expiresAt.IsZero() || time.Now().Before(cached.expiresAt) {
			return cached.address, true, nil
		}
		delete(c.pairs, key)
	}
	return common.Address{}, false, nil
}

func (c *InMemoryCache) SetPairAddress(ctx context.Context, key string, pair common.Address, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := &cachedPair{address: pair}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	c.pairs[key] = entry
	return nil
}

func (c *InMemoryCache) LoadNonce(ctx context.Context, key string) (uint64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	nonce, ok := c.nonces[key]
	return nonce, ok, nil
}

func (c *InMemoryCache) SaveNonce(ctx context.Context, key string, nonce uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nonces[key] = nonce
	return nil
}

func (c *InMemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.pairs, key)
	delete(c.nonces, key)
	return nil
}
