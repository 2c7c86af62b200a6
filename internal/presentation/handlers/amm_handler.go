package handlers

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/bimakw/amm-gateway/internal/connectors"
	"github.com/bimakw/amm-gateway/internal/domain/entities"
	"github.com/bimakw/amm-gateway/internal/domain/services"
)

// ConnectorSource resolves a ready connector
type ConnectorSource interface {
	GetConnector(ctx context.Context, chain, network, connector string) (connectors.Connector, error)
}

// WalletLookup finds the signer of a managed address
type WalletLookup func(address common.Address) (connectors.Signer, bool)

// AMMHandler serves price estimates and trades on AMM connectors
type AMMHandler struct {
	connectors ConnectorSource
	wallets    WalletLookup
	now        func() time.Time
}

// NewAMMHandler creates a new AMM handler
func NewAMMHandler(source ConnectorSource, wallets WalletLookup) *AMMHandler {
	return &AMMHandler{connectors: source, wallets: wallets, now: time.Now}
}

// Side is the direction of a trade from the base token's point of view
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// PriceRequest represents a price request
type PriceRequest struct {
	Chain     string `json:"chain"`
	Network   string `json:"network"`
	Connector string `json:"connector"`
	Base      string `json:"base"`
	Quote     string `json:"quote"`
	Amount    string `json:"amount"`
	Side      Side   `json:"side"`
}

// PriceResponse represents a price response
type PriceResponse struct {
	Network        string   `json:"network"`
	Timestamp      int64    `json:"timestamp"`
	Latency        float64  `json:"latency"`
	Base           string   `json:"base"`
	Quote          string   `json:"quote"`
	Side           Side     `json:"side"`
	Amount         string   `json:"amount"`
	RawAmount      string   `json:"rawAmount"`
	ExpectedAmount string   `json:"expectedAmount"`
	Price          string   `json:"price"`
	GasLimit       uint64   `json:"gasLimit"`
	GasEstimate    uint64   `json:"gasEstimate"`
	Route          []string `json:"route"`
}

// TradeRequest represents a trade request. Gas values are in gwei; when no
// gas value is given the node's EIP-1559 fee suggestion is used.
type TradeRequest struct {
	PriceRequest
	Address              string  `json:"address"`
	LimitPrice           string  `json:"limitPrice,omitempty"`
	Nonce                *uint64 `json:"nonce,omitempty"`
	GasPrice             string  `json:"gasPrice,omitempty"`
	MaxFeePerGas         string  `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas string  `json:"maxPriorityFeePerGas,omitempty"`
}

// TradeResponse represents a submitted trade
type TradeResponse struct {
	PriceResponse
	TxHash      string `json:"txHash"`
	Nonce       uint64 `json:"nonce"`
	GasStrategy string `json:"gasStrategy"`
}

// estimate is a priced request with the tokens it resolved
type estimate struct {
	conn      connectors.Connector
	base      entities.Token
	quote     entities.Token
	rawAmount *big.Int
	result    *entities.Quote
	price     decimal.Decimal
}

// Price handles POST /api/v1/amm/price
func (h *AMMHandler) Price(w http.ResponseWriter, r *http.Request) {
	start := h.now()

	var req PriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	est, status, err := h.estimate(r.Context(), req)
	if err != nil {
		writeStatusErr(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, h.priceResponse(req, est, start))
}

// Trade handles POST /api/v1/amm/trade
func (h *AMMHandler) Trade(w http.ResponseWriter, r *http.Request) {
	start := h.now()

	var req TradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	if !common.IsHexAddress(req.Address) {
		writeError(w, http.StatusBadRequest, "invalid_address", "address must be a hex address")
		return
	}
	wallet, ok := h.wallets(common.HexToAddress(req.Address))
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown_wallet", "no key is loaded for "+req.Address)
		return
	}
	gas, err := gasStrategy(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_gas", err.Error())
		return
	}
	var limit *decimal.Decimal
	if req.LimitPrice != "" {
		l, err := decimal.NewFromString(req.LimitPrice)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_limit_price", err.Error())
			return
		}
		limit = &l
	}

	est, status, err := h.estimate(r.Context(), req.PriceRequest)
	if err != nil {
		writeStatusErr(w, status, err)
		return
	}

	if limit != nil {
		if req.Side == SideBuy && est.price.GreaterThan(*limit) {
			writeError(w, http.StatusBadRequest, "limit_price_exceeded",
				fmt.Sprintf("swap price %s exceeds limit price %s", est.price, limit))
			return
		}
		if req.Side == SideSell && est.price.LessThan(*limit) {
			writeError(w, http.StatusBadRequest, "limit_price_exceeded",
				fmt.Sprintf("swap price %s is below limit price %s", est.price, limit))
			return
		}
	}

	tx, err := est.conn.ExecuteTrade(r.Context(), connectors.TradeRequest{
		Wallet: wallet,
		Trade:  est.result.Trade,
		Gas:    gas,
		Nonce:  req.Nonce,
	})
	if err != nil {
		writeErr(w, err)
		return
	}

	writeJSON(w, http.StatusOK, TradeResponse{
		PriceResponse: h.priceResponse(req.PriceRequest, est, start),
		TxHash:        tx.Hash().Hex(),
		Nonce:         tx.Nonce(),
		GasStrategy:   gas.Kind(),
	})
}

func (h *AMMHandler) estimate(ctx context.Context, req PriceRequest) (*estimate, int, error) {
	req.Side = Side(strings.ToUpper(string(req.Side)))
	if req.Side != SideBuy && req.Side != SideSell {
		return nil, http.StatusBadRequest, fmt.Errorf("side must be BUY or SELL, got %q", req.Side)
	}

	conn, err := h.connectors.GetConnector(ctx, req.Chain, req.Network, req.Connector)
	if err != nil {
		return nil, 0, err
	}
	base, err := lookupToken(conn, req.Base, entities.SideBase)
	if err != nil {
		return nil, 0, err
	}
	quote, err := lookupToken(conn, req.Quote, entities.SideQuote)
	if err != nil {
		return nil, 0, err
	}
	raw, err := entities.ParseHumanAmount(base, req.Amount)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}

	est := &estimate{conn: conn, base: base, quote: quote, rawAmount: raw}
	if req.Side == SideSell {
		est.result, err = conn.EstimateSellTrade(ctx, base, quote, raw)
		if err == nil {
			est.price = est.result.Trade.ExecutionPrice.Decimal()
		}
	} else {
		est.result, err = conn.EstimateBuyTrade(ctx, quote, base, raw)
		if err == nil {
			est.price = est.result.Trade.ExecutionPrice.Invert().Decimal()
		}
	}
	if err != nil {
		return nil, 0, err
	}
	return est, 0, nil
}

func (h *AMMHandler) priceResponse(req PriceRequest, est *estimate, start time.Time) PriceResponse {
	now := h.now()
	return PriceResponse{
		Network:        est.conn.Chain().Network(),
		Timestamp:      start.UnixMilli(),
		Latency:        now.Sub(start).Seconds(),
		Base:           est.base.Address.Hex(),
		Quote:          est.quote.Address.Hex(),
		Side:           Side(strings.ToUpper(string(req.Side))),
		Amount:         entities.NewTokenAmount(est.base, est.rawAmount).ToExact(),
		RawAmount:      est.rawAmount.String(),
		ExpectedAmount: est.result.ExpectedAmount.ToExact(),
		Price:          est.price.String(),
		GasLimit:       est.conn.Settings().GasLimit,
		GasEstimate:    services.EstimateGas(est.result.Trade.Route),
		Route:          est.conn.GetTradeRoute(est.result.Trade),
	}
}

// lookupToken resolves a symbol, or an address from the connector's token list
func lookupToken(conn connectors.Connector, value string, side entities.TokenSide) (entities.Token, error) {
	chain := conn.Chain()
	if common.IsHexAddress(value) {
		if token, ok := conn.GetTokenByAddress(common.HexToAddress(value)); ok {
			return token, nil
		}
	} else if token, ok := chain.GetTokenForSymbol(value); ok {
		return token, nil
	}
	return entities.Token{}, &entities.UnrecognizedTokenError{Side: side, Symbol: value, Chain: chain.Name()}
}

func gasStrategy(req TradeRequest) (connectors.GasStrategy, error) {
	gwei := func(field, value string) (*big.Int, error) {
		if value == "" {
			return nil, nil
		}
		d, err := decimal.NewFromString(value)
		if err != nil || d.IsNegative() {
			return nil, fmt.Errorf("%s must be a non-negative gwei amount, got %q", field, value)
		}
		wei, err := connectors.GweiToWei(d)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", field, err)
		}
		return wei, nil
	}

	maxFee, err := gwei("maxFeePerGas", req.MaxFeePerGas)
	if err != nil {
		return nil, err
	}
	maxPriority, err := gwei("maxPriorityFeePerGas", req.MaxPriorityFeePerGas)
	if err != nil {
		return nil, err
	}
	if req.GasPrice == "" {
		return connectors.DynamicFeeGas{MaxFeePerGas: maxFee, MaxPriorityFeePerGas: maxPriority}, nil
	}

	price, err := decimal.NewFromString(req.GasPrice)
	if err != nil || price.IsNegative() {
		return nil, fmt.Errorf("gasPrice must be a non-negative gwei amount, got %q", req.GasPrice)
	}
	if _, err := connectors.GweiToWei(price); err != nil {
		return nil, fmt.Errorf("gasPrice: %w", err)
	}
	return connectors.NewGasStrategy(price, maxFee, maxPriority), nil
}

// writeStatusErr writes err with status, or with the status of its type when status is 0
func writeStatusErr(w http.ResponseWriter, status int, err error) {
	if status == 0 {
		writeErr(w, err)
		return
	}
	_, code := errorStatus(err)
	if code == "internal_error" {
		code = "invalid_request"
	}
	writeError(w, status, code, err.Error())
}
