package ethereum

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bimakw/amm-gateway/internal/infrastructure/cache"
)

// NonceSource reports an account's next nonce as seen by the node
type NonceSource interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
}

// NonceManager hands out nonces per wallet. A wallet has at most one
// outstanding reservation; other callers block until it is committed or released.
type NonceManager struct {
	source  NonceSource
	store   cache.NonceStore
	chain   string
	network string

	mu      sync.Mutex
	wallets map[common.Address]*walletNonce
}

// walletNonce fields are owned by whoever holds sem
type walletNonce struct {
	sem    chan struct{}
	next   uint64
	loaded bool
}

// NewNonceManager creates a nonce manager. store may be nil.
func NewNonceManager(chain, network string, source NonceSource, store cache.NonceStore) *NonceManager {
	return &NonceManager{
		source:  source,
		store:   store,
		chain:   chain,
		network: network,
		wallets: make(map[common.Address]*walletNonce),
	}
}

func (m *NonceManager) wallet(address common.Address) *walletNonce {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.wallets[address]
	if !ok {
		w = &walletNonce{sem: make(chan struct{}, 1)}
		m.wallets[address] = w
	}
	return w
}

func (m *NonceManager) acquire(ctx context.Context, address common.Address) (*walletNonce, error) {
	w := m.wallet(address)
	select {
	case w.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if !w.loaded {
		next, err := m.load(ctx, address)
		if err != nil {
			<-w.sem
			return nil, err
		}
		w.next = next
		w.loaded = true
	}
	return w, nil
}

// load takes the larger of the node's pending nonce and the persisted one
func (m *NonceManager) load(ctx context.Context, address common.Address) (uint64, error) {
	pending, err := m.source.PendingNonceAt(ctx, address)
	if err != nil {
		return 0, fmt.Errorf("failed to read pending nonce of %s: %w", address.Hex(), err)
	}
	if m.store == nil {
		return pending, nil
	}

	stored, ok, err := m.store.LoadNonce(ctx, cache.NonceCacheKey(m.chain, m.network, address))
	if err != nil {
		return 0, fmt.Errorf("failed to load stored nonce of %s: %w", address.Hex(), err)
	}
	if ok && stored > pending {
		return stored, nil
	}
	return pending, nil
}

func (m *NonceManager) persist(ctx context.Context, address common.Address, next uint64) error {
	if m.store == nil {
		return nil
	}
	return m.store.SaveNonce(ctx, cache.NonceCacheKey(m.chain, m.network, address), next)
}

// GetNonce returns the next nonce the wallet would be given, without reserving it
func (m *NonceManager) GetNonce(ctx context.Context, address common.Address) (uint64, error) {
	w, err := m.acquire(ctx, address)
	if err != nil {
		return 0, err
	}
	defer func() { <-w.sem }()
	return w.next, nil
}

// Reserve takes the wallet's next nonce exclusively. The caller must Commit or
// Release the reservation.
func (m *NonceManager) Reserve(ctx context.Context, address common.Address) (*NonceReservation, error) {
	w, err := m.acquire(ctx, address)
	if err != nil {
		return nil, err
	}
	return &NonceReservation{manager: m, wallet: w, address: address, nonce: w.next}, nil
}

// CommitNonce records a nonce the caller chose itself as consumed
func (m *NonceManager) CommitNonce(ctx context.Context, address common.Address, nonce uint64) error {
	w, err := m.acquire(ctx, address)
	if err != nil {
		return err
	}
	defer func() { <-w.sem }()

	if nonce < w.next {
		return nil
	}
	w.next = nonce + 1
	return m.persist(ctx, address, w.next)
}

// NonceReservation is an exclusive claim on one wallet nonce
type NonceReservation struct {
	manager *NonceManager
	wallet  *walletNonce
	address common.Address
	nonce   uint64
	once    sync.Once
}

// Nonce returns the reserved nonce
func (r *NonceReservation) Nonce() uint64 {
	return r.nonce
}

// Commit marks the nonce consumed and lets the next caller in. The in-memory
// counter advances even when persisting fails.
func (r *NonceReservation) Commit(ctx context.Context) error {
	var err error
	r.once.Do(func() {
		r.wallet.next = r.nonce + 1
		err = r.manager.persist(ctx, r.address, r.wallet.next)
		<-r.wallet.sem
	})
	return err
}

// Release gives the nonce back unused. It is a no-op after Commit.
func (r *NonceReservation) Release() {
	r.once.Do(func() {
		<-r.wallet.sem
	})
}
