package registry

import (
	"github.com/bimakw/amm-gateway/internal/config"
	"github.com/bimakw/amm-gateway/internal/connectors"
	"github.com/bimakw/amm-gateway/internal/connectors/amm"
	"github.com/bimakw/amm-gateway/internal/connectors/minimal"
	"github.com/bimakw/amm-gateway/internal/domain/entities"
	"github.com/bimakw/amm-gateway/internal/infrastructure/cache"
	"github.com/bimakw/amm-gateway/internal/infrastructure/ethereum"
)

// Dependencies are the shared collaborators of configured instances
type Dependencies struct {
	Config  *config.Config
	Cache   cache.Cache // optional
	Metrics *connectors.Metrics
	Logger  connectors.Logger
	Dial    ethereum.DialFunc // optional
}

func (d Dependencies) logger() connectors.Logger {
	if d.Logger == nil {
		return connectors.NopLogger
	}
	return d.Logger
}

// ChainsFromConfig builds chains from the configured networks
func ChainsFromConfig(deps Dependencies) ChainFactory {
	return func(chain ChainName, network string) (connectors.Chain, error) {
		net, native, ok := deps.Config.Network(string(chain), network)
		if !ok {
			return nil, &entities.UnsupportedTargetError{Kind: "network", Value: network, Hint: "not configured for " + string(chain)}
		}

		opts := []ethereum.ChainOption{ethereum.WithLogger(deps.logger())}
		if deps.Cache != nil {
			opts = append(opts, ethereum.WithNonceStore(deps.Cache))
		}
		if deps.Dial != nil {
			opts = append(opts, ethereum.WithDialer(deps.Dial))
		}

		return ethereum.NewChain(ethereum.ChainConfig{
			Name:              string(chain),
			Network:           network,
			ChainID:           net.ChainID,
			NodeURL:           net.NodeURL,
			TokenListPath:     net.TokenListPath,
			NativeCurrency:    native,
			RequestsPerSecond: net.RequestsPerSecond,
		}, opts...), nil
	}
}

// ConnectorsFromConfig builds amm connectors for uniswap and pangolin and
// router-quoted connectors for the harmony variants.
func ConnectorsFromConfig(deps Dependencies) ConnectorFactory {
	return func(chain connectors.Chain, name ConnectorName, network string) (connectors.Connector, error) {
		settings, err := Settings(deps.Config, name, network)
		if err != nil {
			return nil, err
		}

		opts := []connectors.Option{connectors.WithLogger(deps.logger())}
		if deps.Metrics != nil {
			opts = append(opts, connectors.WithMetrics(deps.Metrics))
		}

		if name.Minimal() {
			return minimal.New(chain, settings, opts...), nil
		}
		var pairCache cache.PairAddressCache
		if deps.Cache != nil {
			pairCache = deps.Cache
		}
		return amm.New(chain, settings, pairCache, opts...), nil
	}
}

// Settings resolves a connector's configuration for network. Connectors with
// a fixed router use it when the network does not name one.
func Settings(cfg *config.Config, name ConnectorName, network string) (connectors.Settings, error) {
	conn, ok := cfg.Connector(string(name))
	if !ok {
		return connectors.Settings{}, &entities.UnsupportedTargetError{Kind: "connector", Value: string(name), Hint: "not configured"}
	}

	router, ok := conn.RouterAddress(network)
	if !ok {
		fixed, isFixed := FixedRouters[name]
		if !isFixed {
			return connectors.Settings{}, &entities.UnsupportedTargetError{Kind: "network", Value: network, Hint: "no " + string(name) + " deployment"}
		}
		router = fixed
	}
	factory, _ := conn.FactoryAddress(network)

	return connectors.Settings{
		Connector:       string(name),
		DEX:             name.DEX(),
		RouterAddress:   router,
		FactoryAddress:  factory,
		AllowedSlippage: conn.AllowedSlippage,
		TTL:             conn.Deadline(),
		GasLimit:        conn.GasLimit,
		MaxHops:         conn.MaxHops(network),
		Pools:           conn.Pools(network),
		NativeName:      conn.NativeName,
		FeeBps:          conn.FeeBps,
	}, nil
}
