package registry

import (
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bimakw/amm-gateway/internal/domain/entities"
)

// ChainName is a supported chain
type ChainName string

const (
	Ethereum  ChainName = "ethereum"
	Avalanche ChainName = "avalanche"
	Harmony   ChainName = "harmony"
)

// ConnectorName is a supported AMM protocol
type ConnectorName string

const (
	Uniswap   ConnectorName = "uniswap"
	Pangolin  ConnectorName = "pangolin"
	Sushiswap ConnectorName = "sushiswap"
	Viperswap ConnectorName = "viperswap"
)

var supported = map[ChainName][]ConnectorName{
	Ethereum:  {Uniswap},
	Avalanche: {Pangolin},
	Harmony:   {Sushiswap, Viperswap},
}

// FixedRouters are the routers of connectors that share a chain with other
// variants; they tell the variants' instances apart.
var FixedRouters = map[ConnectorName]common.Address{
	Sushiswap: common.HexToAddress("0x1b02da8cb0d097eb8d57a175b88c7d8b47997506"),
	Viperswap: common.HexToAddress("0xf012702a5f0e54015362cbca26a26fc90aa832a3"),
}

// Minimal reports whether the connector quotes through its router instead of
// searching routes over local pools.
func (n ConnectorName) Minimal() bool {
	_, ok := FixedRouters[n]
	return ok
}

// DEX returns the pair family the connector trades on
func (n ConnectorName) DEX() entities.DEXType {
	return entities.DEXType(n)
}

// ParseChain validates a chain name, ignoring case
func ParseChain(value string) (ChainName, error) {
	name := ChainName(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := supported[name]; !ok {
		return "", &entities.UnsupportedTargetError{Kind: "chain", Value: value, Hint: "expected one of " + strings.Join(Chains(), ", ")}
	}
	return name, nil
}

// ParseConnector validates a connector name for chain, ignoring case
func ParseConnector(chain ChainName, value string) (ConnectorName, error) {
	name := ConnectorName(strings.ToLower(strings.TrimSpace(value)))
	options := make([]string, 0, len(supported[chain]))
	for _, candidate := range supported[chain] {
		if candidate == name {
			return name, nil
		}
		options = append(options, string(candidate))
	}
	return "", &entities.UnsupportedTargetError{
		Kind:  "connector",
		Value: value,
		Hint:  string(chain) + " supports " + strings.Join(options, ", "),
	}
}

// Chains lists the supported chain names in order
func Chains() []string {
	names := make([]string, 0, len(supported))
	for name := range supported {
		names = append(names, string(name))
	}
	sort.Strings(names)
	return names
}
