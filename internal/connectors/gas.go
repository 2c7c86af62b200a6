package connectors

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/shopspring/decimal"

	"github.com/bimakw/amm-gateway/internal/domain/entities"
)

// GasStrategy prices a transaction. It is either LegacyGas or DynamicFeeGas.
type GasStrategy interface {
	Kind() string
	apply(opts *bind.TransactOpts) error
}

// LegacyGas submits with a single gas price given in gwei
type LegacyGas struct {
	GasPriceGwei decimal.Decimal
}

func (LegacyGas) Kind() string { return "legacy" }

func (g LegacyGas) apply(opts *bind.TransactOpts) error {
	if g.GasPriceGwei.IsNegative() {
		return errors.New("gas price must not be negative")
	}
	price, err := GweiToWei(g.GasPriceGwei)
	if err != nil {
		return fmt.Errorf("gas price: %w", err)
	}
	opts.GasPrice = price
	opts.GasFeeCap = nil
	opts.GasTipCap = nil
	return nil
}

// DynamicFeeGas submits an EIP-1559 transaction. Fees are in wei; a nil fee
// is filled in from the node.
type DynamicFeeGas struct {
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
}

func (DynamicFeeGas) Kind() string { return "eip1559" }

func (g DynamicFeeGas) apply(opts *bind.TransactOpts) error {
	if g.MaxFeePerGas != nil && g.MaxPriorityFeePerGas != nil && g.MaxPriorityFeePerGas.Cmp(g.MaxFeePerGas) > 0 {
		return errors.New("max priority fee exceeds max fee")
	}
	opts.GasPrice = nil
	opts.GasFeeCap = g.MaxFeePerGas
	opts.GasTipCap = g.MaxPriorityFeePerGas
	return nil
}

// NewGasStrategy picks EIP-1559 when either fee is given and legacy otherwise
func NewGasStrategy(gasPriceGwei decimal.Decimal, maxFeePerGas, maxPriorityFeePerGas *big.Int) GasStrategy {
	if maxFeePerGas != nil || maxPriorityFeePerGas != nil {
		return DynamicFeeGas{MaxFeePerGas: maxFeePerGas, MaxPriorityFeePerGas: maxPriorityFeePerGas}
	}
	return LegacyGas{GasPriceGwei: gasPriceGwei}
}

// GweiToWei converts a gwei amount to wei, rounding to the nearest wei
func GweiToWei(gwei decimal.Decimal) (*big.Int, error) {
	return entities.RoundToUint256(gwei.Shift(9))
}
