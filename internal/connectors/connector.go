// Package connectors holds what every AMM connector shares: the chain and
// wallet collaborators it consumes, its settings, gas strategies and the
// trade submission path.
package connectors

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/bimakw/amm-gateway/internal/domain/entities"
	"github.com/bimakw/amm-gateway/internal/infrastructure/ethereum"
)

// Logger is a structured, leveled logger. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Chain is the blockchain collaborator a connector is bound to
type Chain interface {
	Name() string
	Network() string
	ChainID() uint64
	NativeCurrency() string
	Ready() bool
	Init(ctx context.Context) error
	StoredTokenList() []entities.Token
	GetTokenForSymbol(symbol string) (entities.Token, bool)
	Provider() bind.ContractBackend
	NonceManager() *ethereum.NonceManager
}

// Signer is a wallet able to sign transactions
type Signer interface {
	Address() common.Address
	Transactor(ctx context.Context, chainID *big.Int) (*bind.TransactOpts, error)
}

// Connector quotes and executes swaps on one AMM deployment of one chain network
type Connector interface {
	Ready() bool
	Init(ctx context.Context) error
	Chain() Chain
	Settings() Settings

	// EstimateSellTrade fixes the base amount sold for quote tokens
	EstimateSellTrade(ctx context.Context, base, quote entities.Token, amount *big.Int) (*entities.Quote, error)
	// EstimateBuyTrade fixes the base amount bought with quote tokens
	EstimateBuyTrade(ctx context.Context, quote, base entities.Token, amount *big.Int) (*entities.Quote, error)
	ExecuteTrade(ctx context.Context, req TradeRequest) (*types.Transaction, error)

	GetTokenByAddress(address common.Address) (entities.Token, bool)
	GetTradeRoute(trade *entities.Trade) []string
}

// Settings is the resolved configuration of one connector on one network
type Settings struct {
	Connector       string
	DEX             entities.DEXType
	RouterAddress   common.Address
	FactoryAddress  common.Address
	AllowedSlippage string
	TTL             time.Duration
	GasLimit        uint64
	MaxHops         int
	Pools           []string
	// NativeName is how the router spells the native currency in method names
	NativeName string
	FeeBps     uint64
}

// Slippage parses AllowedSlippage. It is evaluated on use, so a malformed
// value only fails the operations that need it.
func (s Settings) Slippage() (entities.Percent, error) {
	return entities.ParsePercent(s.AllowedSlippage)
}

// TradeRequest is everything ExecuteTrade needs besides the connector's defaults
type TradeRequest struct {
	Wallet Signer
	Trade  *entities.Trade
	Gas    GasStrategy
	// Router overrides the connector's router when set
	Router common.Address
	// TTL overrides the connector's deadline window when positive
	TTL time.Duration
	// GasLimit overrides the connector's gas limit when positive
	GasLimit uint64
	// Nonce is used as-is when set; otherwise the wallet's next nonce is reserved
	Nonce *uint64
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// NopLogger discards everything
var NopLogger Logger = nopLogger{}
