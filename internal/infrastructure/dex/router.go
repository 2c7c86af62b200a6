package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// RouterClient talks to a Uniswap V2 router02 compatible contract
type RouterClient struct {
	contract Contract
	address  common.Address
	abi      abi.ABI
}

// NewRouterClient binds the router at address
func NewRouterClient(binder Binder, address common.Address, parsed abi.ABI) *RouterClient {
	return &RouterClient{
		contract: binder(address, parsed),
		address:  address,
		abi:      parsed,
	}
}

// Address returns the router address
func (r *RouterClient) Address() common.Address {
	return r.address
}

// ABI returns the router interface
func (r *RouterClient) ABI() abi.ABI {
	return r.abi
}

// GetAmountsOut returns the amounts along path for a fixed input
func (r *RouterClient) GetAmountsOut(ctx context.Context, amountIn *big.Int, path []common.Address) ([]*big.Int, error) {
	return r.amounts(ctx, "getAmountsOut", amountIn, path)
}

// GetAmountsIn returns the amounts along path needed for a fixed output
func (r *RouterClient) GetAmountsIn(ctx context.Context, amountOut *big.Int, path []common.Address) ([]*big.Int, error) {
	return r.amounts(ctx, "getAmountsIn", amountOut, path)
}

func (r *RouterClient) amounts(ctx context.Context, method string, amount *big.Int, path []common.Address) ([]*big.Int, error) {
	var out []any
	if err := r.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, amount, path); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: empty response", method)
	}
	amounts, ok := out[0].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected result %T", method, out[0])
	}
	if len(amounts) != len(path) {
		return nil, fmt.Errorf("%s: got %d amounts for a path of %d tokens", method, len(amounts), len(path))
	}
	return amounts, nil
}

// Swap submits a router method call
func (r *RouterClient) Swap(opts *bind.TransactOpts, method string, args ...any) (*types.Transaction, error) {
	tx, err := r.contract.Transact(opts, method, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return tx, nil
}
