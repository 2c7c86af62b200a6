package minimal

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bimakw/amm-gateway/internal/domain/entities"
	"github.com/bimakw/amm-gateway/internal/infrastructure/dex"
)

// ScaleToRawUnits turns a whole human quantity into the token's smallest unit
func ScaleToRawUnits(token entities.Token, human *big.Int) *big.Int {
	return entities.ScaleToRawUnits(token, human)
}

// EstimateSellTrade prices selling rawAmountIn of tokenIn on the router.
// The quote's expected amount is the raw output, without slippage.
func EstimateSellTrade(ctx context.Context, router dex.AmountsQuoter, tokenIn, tokenOut entities.Token, rawAmountIn *big.Int) (*entities.Quote, error) {
	const op = "priceSwapIn"

	amounts, err := router.GetAmountsOut(ctx, rawAmountIn, path(tokenIn, tokenOut))
	if err != nil {
		return nil, noLiquidity(op, tokenIn, tokenOut, err)
	}
	out := amounts[len(amounts)-1]
	if out.Sign() <= 0 && rawAmountIn.Sign() > 0 {
		return nil, noLiquidity(op, tokenIn, tokenOut, nil)
	}

	trade := entities.NewFakeTrade(tokenIn, tokenOut, rawAmountIn, out, entities.ExactInput)
	return &entities.Quote{Trade: trade, ExpectedAmount: trade.OutputAmount}, nil
}

// EstimateBuyTrade prices buying rawAmountOut of tokenOut with tokenIn on the
// router. The quote's expected amount is the raw input, without slippage.
func EstimateBuyTrade(ctx context.Context, router dex.AmountsQuoter, tokenIn, tokenOut entities.Token, rawAmountOut *big.Int) (*entities.Quote, error) {
	const op = "priceSwapOut"

	amounts, err := router.GetAmountsIn(ctx, rawAmountOut, path(tokenIn, tokenOut))
	if err != nil {
		return nil, noLiquidity(op, tokenIn, tokenOut, err)
	}
	in := amounts[0]
	if in.Sign() <= 0 && rawAmountOut.Sign() > 0 {
		return nil, noLiquidity(op, tokenIn, tokenOut, nil)
	}

	trade := entities.NewFakeTrade(tokenIn, tokenOut, in, rawAmountOut, entities.ExactOutput)
	return &entities.Quote{Trade: trade, ExpectedAmount: trade.InputAmount}, nil
}

func path(tokenIn, tokenOut entities.Token) []common.Address {
	return []common.Address{tokenIn.Address, tokenOut.Address}
}

// noLiquidity classifies a failed router quote. Cancellation is not a
// liquidity problem and is returned as is.
func noLiquidity(op string, tokenIn, tokenOut entities.Token, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &entities.NoLiquidityError{Operation: op, TokenIn: tokenIn, TokenOut: tokenOut, Err: err}
}
