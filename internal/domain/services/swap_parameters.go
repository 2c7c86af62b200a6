package services

import (
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bimakw/amm-gateway/internal/domain/entities"
)

// SwapOptions control how a trade is turned into a router call
type SwapOptions struct {
	Recipient common.Address
	Deadline  time.Time
	Slippage  entities.Percent
	// NativeIn / NativeOut swap the chain's native currency instead of its wrapped token.
	NativeIn  bool
	NativeOut bool
	// NativeName is the router's spelling of the native currency ("ETH", "AVAX", ...).
	NativeName string
}

// SwapParameters is a Uniswap V2 router call ready to be submitted
type SwapParameters struct {
	MethodName string
	Args       []any
	Value      *big.Int
}

// SwapCallParameters derives the router method, arguments and attached value for a trade
func SwapCallParameters(trade *entities.Trade, opts SwapOptions) (SwapParameters, error) {
	if opts.NativeIn && opts.NativeOut {
		return SwapParameters{}, errors.New("native currency cannot be both input and output")
	}
	if trade == nil || trade.Route == nil {
		return SwapParameters{}, errors.New("trade has no route")
	}

	path := make([]common.Address, 0, len(trade.Route.Path))
	for _, token := range trade.Route.Path {
		path = append(path, token.Address)
	}
	deadline := big.NewInt(opts.Deadline.Unix())
	amountIn := trade.MaximumAmountIn(opts.Slippage).Raw
	amountOut := trade.MinimumAmountOut(opts.Slippage).Raw
	native := opts.NativeName
	if native == "" {
		native = "ETH"
	}

	var params SwapParameters
	switch trade.Type {
	case entities.ExactInput:
		switch {
		case opts.NativeIn:
			params = SwapParameters{"swapExactETHForTokens", []any{amountOut, path, opts.Recipient, deadline}, amountIn}
		case opts.NativeOut:
			params = SwapParameters{"swapExactTokensForETH", []any{amountIn, amountOut, path, opts.Recipient, deadline}, nil}
		default:
			params = SwapParameters{"swapExactTokensForTokens", []any{amountIn, amountOut, path, opts.Recipient, deadline}, nil}
		}
	case entities.ExactOutput:
		switch {
		case opts.NativeIn:
			params = SwapParameters{"swapETHForExactTokens", []any{amountOut, path, opts.Recipient, deadline}, amountIn}
		case opts.NativeOut:
			params = SwapParameters{"swapTokensForExactETH", []any{amountOut, amountIn, path, opts.Recipient, deadline}, nil}
		default:
			params = SwapParameters{"swapTokensForExactTokens", []any{amountOut, amountIn, path, opts.Recipient, deadline}, nil}
		}
	default:
		return SwapParameters{}, errors.New("unknown trade type")
	}

	params.MethodName = strings.Replace(params.MethodName, "ETH", native, 1)
	if params.Value == nil {
		params.Value = big.NewInt(0)
	} else {
		params.Value = new(big.Int).Set(params.Value)
	}
	return params, nil
}
