package dex

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/bimakw/amm-gateway/internal/domain/entities"
)

// Contract is the subset of bind.BoundContract the AMM clients use
type Contract interface {
	Call(opts *bind.CallOpts, results *[]any, method string, params ...any) error
	Transact(opts *bind.TransactOpts, method string, params ...any) (*types.Transaction, error)
}

// Binder binds an ABI to a deployed contract address
type Binder func(address common.Address, parsed abi.ABI) Contract

// BackendBinder binds contracts to a node backend
func BackendBinder(backend bind.ContractBackend) Binder {
	return func(address common.Address, parsed abi.ABI) Contract {
		return bind.NewBoundContract(address, parsed, backend, backend, backend)
	}
}

// PairSource discovers and prices pairs of a Uniswap V2 compatible DEX
type PairSource interface {
	// GetPairAddress returns the zero address when the factory has no pair
	GetPairAddress(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error)

	// GetPairByTokens returns nil without error when the pair does not exist
	GetPairByTokens(ctx context.Context, tokenA, tokenB entities.Token) (*entities.Pair, error)

	// DEXType returns the type of DEX
	DEXType() entities.DEXType
}

// AmountsQuoter prices a path directly on a router contract
type AmountsQuoter interface {
	GetAmountsOut(ctx context.Context, amountIn *big.Int, path []common.Address) ([]*big.Int, error)
	GetAmountsIn(ctx context.Context, amountOut *big.Int, path []common.Address) ([]*big.Int, error)
}
