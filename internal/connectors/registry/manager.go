// Package registry resolves (chain, network) and (chain, network, connector)
// keys to ready instances, building and initializing each key once.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/bimakw/amm-gateway/internal/connectors"
)

// ChainFactory builds an uninitialized chain
type ChainFactory func(chain ChainName, network string) (connectors.Chain, error)

// ConnectorFactory builds an uninitialized connector on a ready chain
type ConnectorFactory func(chain connectors.Chain, name ConnectorName, network string) (connectors.Connector, error)

type chainKey struct {
	chain   ChainName
	network string
}

func (k chainKey) String() string {
	return fmt.Sprintf("%s/%s", k.chain, k.network)
}

type connectorKey struct {
	chain     ChainName
	network   string
	connector ConnectorName
	router    string
}

func (k connectorKey) String() string {
	s := fmt.Sprintf("%s/%s/%s", k.chain, k.network, k.connector)
	if k.router != "" {
		s += "@" + k.router
	}
	return s
}

type initializer interface {
	Ready() bool
	Init(ctx context.Context) error
}

// Status describes one cached instance
type Status struct {
	Kind  string `json:"kind"`
	Key   string `json:"key"`
	Ready bool   `json:"ready"`
}

// Manager owns every chain and connector instance of the process. Instances
// are never evicted.
type Manager struct {
	newChain     ChainFactory
	newConnector ConnectorFactory
	logger       connectors.Logger

	mu         sync.Mutex
	chains     map[chainKey]connectors.Chain
	connectors map[connectorKey]connectors.Connector

	inits singleflight.Group
}

// Option customizes a Manager
type Option func(*Manager)

// WithLogger sets the manager logger
func WithLogger(logger connectors.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// NewManager creates an empty manager
func NewManager(chains ChainFactory, conns ConnectorFactory, opts ...Option) *Manager {
	m := &Manager{
		newChain:     chains,
		newConnector: conns,
		logger:       connectors.NopLogger,
		chains:       make(map[chainKey]connectors.Chain),
		connectors:   make(map[connectorKey]connectors.Connector),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetChain returns the ready chain for (chain, network)
func (m *Manager) GetChain(ctx context.Context, chain, network string) (connectors.Chain, error) {
	name, err := ParseChain(chain)
	if err != nil {
		return nil, err
	}
	return m.getChain(ctx, chainKey{chain: name, network: network})
}

func (m *Manager) getChain(ctx context.Context, key chainKey) (connectors.Chain, error) {
	m.mu.Lock()
	c, ok := m.chains[key]
	if !ok {
		var err error
		if c, err = m.newChain(key.chain, key.network); err != nil {
			m.mu.Unlock()
			return nil, err
		}
		m.chains[key] = c
	}
	m.mu.Unlock()

	if err := m.ensureInit(ctx, "chain:"+key.String(), c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetConnector returns the ready connector for (chain, network, connector),
// initializing its chain first when needed.
func (m *Manager) GetConnector(ctx context.Context, chain, network, connector string) (connectors.Connector, error) {
	chainName, err := ParseChain(chain)
	if err != nil {
		return nil, err
	}
	name, err := ParseConnector(chainName, connector)
	if err != nil {
		return nil, err
	}

	c, err := m.getChain(ctx, chainKey{chain: chainName, network: network})
	if err != nil {
		return nil, err
	}

	key := connectorKey{chain: chainName, network: network, connector: name}
	if router, ok := FixedRouters[name]; ok {
		key.router = router.Hex()
	}

	m.mu.Lock()
	conn, ok := m.connectors[key]
	if !ok {
		if conn, err = m.newConnector(c, name, network); err != nil {
			m.mu.Unlock()
			return nil, err
		}
		m.connectors[key] = conn
	}
	m.mu.Unlock()

	if err := m.ensureInit(ctx, "connector:"+key.String(), conn); err != nil {
		return nil, err
	}
	return conn, nil
}

// ensureInit runs target.Init once across concurrent callers. The shared
// init is detached from any one caller's cancellation; a caller whose
// context ends stops waiting without aborting it.
func (m *Manager) ensureInit(ctx context.Context, key string, target initializer) error {
	if target.Ready() {
		return nil
	}

	ch := m.inits.DoChan(key, func() (any, error) {
		if target.Ready() {
			return nil, nil
		}
		err := target.Init(context.WithoutCancel(ctx))
		if err != nil {
			m.logger.Warn("initialization failed", "key", key, "error", err)
		} else {
			m.logger.Info("initialized", "key", key)
		}
		return nil, err
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Statuses lists every cached instance, chains first, each group sorted by key
func (m *Manager) Statuses() []Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	chains := make([]Status, 0, len(m.chains))
	for key, c := range m.chains {
		chains = append(chains, Status{Kind: "chain", Key: key.String(), Ready: c.Ready()})
	}
	conns := make([]Status, 0, len(m.connectors))
	for key, c := range m.connectors {
		conns = append(conns, Status{Kind: "connector", Key: key.String(), Ready: c.Ready()})
	}
	byKey := func(s []Status) {
		sort.Slice(s, func(i, j int) bool { return s[i].Key < s[j].Key })
	}
	byKey(chains)
	byKey(conns)
	return append(chains, conns...)
}
