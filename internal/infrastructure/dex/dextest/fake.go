// Package dextest provides an in-memory stand-in for Uniswap V2 style
// factory, pair and router contracts.
package dextest

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/bimakw/amm-gateway/internal/infrastructure/dex"
)

// ErrReverted is returned by calls the fake is configured to revert
var ErrReverted = errors.New("execution reverted")

// AmountsFunc answers getAmountsOut / getAmountsIn
type AmountsFunc func(amount *big.Int, path []common.Address) ([]*big.Int, error)

// SentTx is a transaction submitted through Transact
type SentTx struct {
	To     common.Address
	Method string
	Args   []any
	Opts   bind.TransactOpts
	Tx     *types.Transaction
}

// Chain holds the state of every fake contract bound through its Binder
type Chain struct {
	mu       sync.Mutex
	pairs    map[[2]common.Address]common.Address
	reserves map[common.Address][2]*big.Int
	calls    map[string]int

	AmountsOut AmountsFunc
	AmountsIn  AmountsFunc
	// BeforeSend runs inside Transact before the transaction is recorded
	BeforeSend func(method string, opts *bind.TransactOpts) error

	sent []SentTx
}

// NewChain creates an empty fake chain
func NewChain() *Chain {
	return &Chain{
		pairs:    make(map[[2]common.Address]common.Address),
		reserves: make(map[common.Address][2]*big.Int),
		calls:    make(map[string]int),
	}
}

func pairKey(a, b common.Address) [2]common.Address {
	if b.Cmp(a) < 0 {
		a, b = b, a
	}
	return [2]common.Address{a, b}
}

// AddPair registers a pair and its reserves, given in tokenA/tokenB order
func (c *Chain) AddPair(pair, tokenA, tokenB common.Address, reserveA, reserveB *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if tokenB.Cmp(tokenA) < 0 {
		reserveA, reserveB = reserveB, reserveA
	}
	c.pairs[pairKey(tokenA, tokenB)] = pair
	c.reserves[pair] = [2]*big.Int{reserveA, reserveB}
}

// Calls returns how many times method was called
func (c *Chain) Calls(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[method]
}

// CallsTo returns how many times method was called on the contract at address
func (c *Chain) CallsTo(address common.Address, method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[callKey(address, method)]
}

func callKey(address common.Address, method string) string {
	return address.Hex() + "." + method
}

// Sent returns the submitted transactions in order
func (c *Chain) Sent() []SentTx {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]SentTx(nil), c.sent...)
}

// Binder binds fake contracts
func (c *Chain) Binder() dex.Binder {
	return func(address common.Address, parsed abi.ABI) dex.Contract {
		return &contract{chain: c, address: address, abi: parsed}
	}
}

type contract struct {
	chain   *Chain
	address common.Address
	abi     abi.ABI
}

func (f *contract) Call(opts *bind.CallOpts, results *[]any, method string, params ...any) error {
	if _, ok := f.abi.Methods[method]; !ok {
		return fmt.Errorf("method %q not in abi", method)
	}

	c := f.chain
	c.mu.Lock()
	c.calls[method]++
	c.calls[callKey(f.address, method)]++
	c.mu.Unlock()

	switch method {
	case "getPair":
		a, b := params[0].(common.Address), params[1].(common.Address)
		c.mu.Lock()
		pair := c.pairs[pairKey(a, b)]
		c.mu.Unlock()
		*results = []any{pair}
	case "getReserves":
		c.mu.Lock()
		r, ok := c.reserves[f.address]
		c.mu.Unlock()
		if !ok {
			return ErrReverted
		}
		*results = []any{new(big.Int).Set(r[0]), new(big.Int).Set(r[1]), uint32(0)}
	case "getAmountsOut", "getAmountsIn":
		fn := c.AmountsOut
		if method == "getAmountsIn" {
			fn = c.AmountsIn
		}
		if fn == nil {
			return ErrReverted
		}
		amounts, err := fn(params[0].(*big.Int), params[1].([]common.Address))
		if err != nil {
			return err
		}
		*results = []any{amounts}
	default:
		return fmt.Errorf("fake has no %s", method)
	}
	return nil
}

func (f *contract) Transact(opts *bind.TransactOpts, method string, params ...any) (*types.Transaction, error) {
	if _, ok := f.abi.Methods[method]; !ok {
		return nil, fmt.Errorf("method %q not in abi", method)
	}

	c := f.chain
	if c.BeforeSend != nil {
		if err := c.BeforeSend(method, opts); err != nil {
			return nil, err
		}
	}

	var nonce uint64
	if opts.Nonce != nil {
		nonce = opts.Nonce.Uint64()
	}
	to := f.address
	var tx *types.Transaction
	if opts.GasFeeCap != nil || opts.GasTipCap != nil {
		tx = types.NewTx(&types.DynamicFeeTx{
			Nonce:     nonce,
			GasFeeCap: opts.GasFeeCap,
			GasTipCap: opts.GasTipCap,
			Gas:       opts.GasLimit,
			To:        &to,
			Value:     opts.Value,
		})
	} else {
		tx = types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			GasPrice: opts.GasPrice,
			Gas:      opts.GasLimit,
			To:       &to,
			Value:    opts.Value,
		})
	}

	c.mu.Lock()
	c.calls[method]++
	c.sent = append(c.sent, SentTx{To: to, Method: method, Args: params, Opts: *opts, Tx: tx})
	c.mu.Unlock()
	return tx, nil
}
