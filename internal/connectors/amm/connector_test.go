package amm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bimakw/amm-gateway/internal/connectors"
	"github.com/bimakw/amm-gateway/internal/connectors/connectorstest"
	"github.com/bimakw/amm-gateway/internal/domain/entities"
	"github.com/bimakw/amm-gateway/internal/infrastructure/dex/dextest"
	"github.com/bimakw/amm-gateway/internal/infrastructure/ethereum"
)

var (
	tokenA = entities.NewToken(1, common.HexToAddress("0x000000000000000000000000000000000000000a"), 18, "AAA", "Token A")
	tokenB = entities.NewToken(1, common.HexToAddress("0x000000000000000000000000000000000000000b"), 18, "BBB", "Token B")
	tokenC = entities.NewToken(1, common.HexToAddress("0x000000000000000000000000000000000000000c"), 6, "CCC", "Token C")
	tokenD = entities.NewToken(1, common.HexToAddress("0x000000000000000000000000000000000000000d"), 18, "DDD", "Token D")

	routerAddr  = common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")
	factoryAddr = common.HexToAddress("0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f")
	pairAB      = common.HexToAddress("0x00000000000000000000000000000000000000ab")
	pairBC      = common.HexToAddress("0x00000000000000000000000000000000000000bc")
	pairAC      = common.HexToAddress("0x00000000000000000000000000000000000000ac")
)

type logEntry struct {
	msg  string
	args []any
}

type recordingLogger struct {
	mu    sync.Mutex
	warns []logEntry
}

func (l *recordingLogger) Debug(msg string, args ...any) {}
func (l *recordingLogger) Info(msg string, args ...any)  {}
func (l *recordingLogger) Error(msg string, args ...any) {}
func (l *recordingLogger) Warn(msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, logEntry{msg: msg, args: args})
}

func (l *recordingLogger) warnings() []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]logEntry(nil), l.warns...)
}

func testSettings(pools ...string) connectors.Settings {
	return connectors.Settings{
		Connector:       "uniswap",
		DEX:             entities.DEXUniswap,
		RouterAddress:   routerAddr,
		FactoryAddress:  factoryAddr,
		AllowedSlippage: "1%",
		TTL:             5 * time.Minute,
		GasLimit:        300000,
		MaxHops:         3,
		Pools:           pools,
	}
}

type fixture struct {
	chain     *connectorstest.Chain
	contracts *dextest.Chain
	logger    *recordingLogger
	connector *Connector
}

func newFixture(t *testing.T, settings connectors.Settings, opts ...connectors.Option) *fixture {
	t.Helper()
	f := &fixture{
		chain:     connectorstest.NewReadyChain("ethereum", "mainnet", 1, "ETH", tokenA, tokenB, tokenC, tokenD),
		contracts: dextest.NewChain(),
		logger:    &recordingLogger{},
	}
	opts = append([]connectors.Option{
		connectors.WithBinder(f.contracts.Binder()),
		connectors.WithLogger(f.logger),
	}, opts...)
	f.connector = New(f.chain, settings, nil, opts...)
	return f
}

func newTestWallet(t *testing.T) *ethereum.Wallet {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return ethereum.NewWallet(key)
}

func TestInitRequiresReadyChain(t *testing.T) {
	chain := connectorstest.NewChain("ethereum", "mainnet", 1, "ETH", tokenA)
	c := New(chain, testSettings(), nil, connectors.WithBinder(dextest.NewChain().Binder()))

	err := c.Init(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, entities.ErrDependencyUnavailable))
	assert.False(t, c.Ready())

	_, err = c.EstimateSellTrade(context.Background(), tokenA, tokenB, big.NewInt(1))
	assert.True(t, errors.Is(err, entities.ErrDependencyUnavailable))
}

func TestInitResolvesConfiguredPools(t *testing.T) {
	f := newFixture(t, testSettings("AAA-BBB", "AAA-ZZZ", "AAA", "BBB-CCC", "aaa-bbb"))
	f.contracts.AddPair(pairAB, tokenA.Address, tokenB.Address, big.NewInt(1000), big.NewInt(1000))

	require.NoError(t, f.connector.Init(context.Background()))
	assert.True(t, f.connector.Ready())

	pools := f.connector.Pools()
	require.Len(t, pools, 1, "duplicate entries resolve to one pool")
	assert.Equal(t, pairAB, pools[0].Address)

	warnings := f.logger.warnings()
	require.Len(t, warnings, 3)
	assert.Contains(t, fmt.Sprint(warnings[0].args...), "ZZZ")
	assert.Contains(t, fmt.Sprint(warnings[1].args...), "malformed")
	assert.Contains(t, fmt.Sprint(warnings[2].args...), "not_found")

	token, ok := f.connector.GetTokenByAddress(tokenC.Address)
	require.True(t, ok)
	assert.Equal(t, "CCC", token.Symbol)
}

func TestUpdatePoolsOutcomesFollowConfigOrder(t *testing.T) {
	f := newFixture(t, testSettings("BBB-CCC", "AAA", "AAA-BBB"))
	f.contracts.AddPair(pairAB, tokenA.Address, tokenB.Address, big.NewInt(1000), big.NewInt(1000))
	f.contracts.AddPair(pairBC, tokenB.Address, tokenC.Address, big.NewInt(1000), big.NewInt(1000))
	require.NoError(t, f.connector.Init(context.Background()))

	outcomes := f.connector.UpdatePools(context.Background())
	require.Len(t, outcomes, 3)
	assert.Equal(t, "BBB-CCC", outcomes[0].Entry)
	assert.Equal(t, pairBC, outcomes[0].Pair.Address)
	assert.True(t, errors.Is(outcomes[1].Err, entities.ErrMalformedPool))
	assert.Equal(t, pairAB, outcomes[2].Pair.Address)
	assert.Len(t, f.connector.Pools(), 2)
}

func TestEstimateSellTradeAppliesSlippage(t *testing.T) {
	f := newFixture(t, testSettings())
	// 1000 in against 997/200 reserves yields exactly 100 out after the 0.3% fee
	f.contracts.AddPair(pairAB, tokenA.Address, tokenB.Address, big.NewInt(997), big.NewInt(200))
	require.NoError(t, f.connector.Init(context.Background()))

	q, err := f.connector.EstimateSellTrade(context.Background(), tokenA, tokenB, big.NewInt(1000))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), q.Trade.OutputAmount.Raw)
	assert.Equal(t, big.NewInt(99), q.ExpectedAmount.Raw)
	assert.True(t, q.ExpectedAmount.Token.Equals(tokenB))
	assert.Equal(t, []string{"AAA-BBB"}, f.connector.GetTradeRoute(q.Trade))
}

func TestEstimateBuyTradeAppliesSlippage(t *testing.T) {
	f := newFixture(t, testSettings())
	// buying 997 base against 990 quote / 10997 base costs exactly 100 quote
	f.contracts.AddPair(pairAB, tokenB.Address, tokenA.Address, big.NewInt(990), big.NewInt(10997))
	require.NoError(t, f.connector.Init(context.Background()))

	q, err := f.connector.EstimateBuyTrade(context.Background(), tokenB, tokenA, big.NewInt(997))
	require.NoError(t, err)
	assert.Equal(t, entities.ExactOutput, q.Trade.Type)
	assert.Equal(t, big.NewInt(100), q.Trade.InputAmount.Raw)
	assert.Equal(t, big.NewInt(101), q.ExpectedAmount.Raw)
	assert.True(t, q.ExpectedAmount.Token.Equals(tokenB))
}

func TestEstimateRoutesThroughConfiguredPools(t *testing.T) {
	f := newFixture(t, testSettings("AAA-BBB", "BBB-CCC"))
	f.contracts.AddPair(pairAB, tokenA.Address, tokenB.Address, units(1000, 18), units(1000, 18))
	f.contracts.AddPair(pairBC, tokenB.Address, tokenC.Address, units(1000, 18), units(1000, 6))
	require.NoError(t, f.connector.Init(context.Background()))

	q, err := f.connector.EstimateSellTrade(context.Background(), tokenA, tokenC, units(1, 18))
	require.NoError(t, err)
	assert.Equal(t, []string{"AAA-BBB", "BBB-CCC"}, f.connector.GetTradeRoute(q.Trade))
	assert.True(t, q.Trade.OutputAmount.Token.Equals(tokenC))
}

func TestEstimatePrefersFreshDirectPair(t *testing.T) {
	f := newFixture(t, testSettings("AAA-BBB", "BBB-CCC"))
	f.contracts.AddPair(pairAB, tokenA.Address, tokenB.Address, units(1000, 18), units(1000, 18))
	f.contracts.AddPair(pairBC, tokenB.Address, tokenC.Address, units(1000, 18), units(1000, 6))
	require.NoError(t, f.connector.Init(context.Background()))

	// a deep direct pair appears after init
	f.contracts.AddPair(pairAC, tokenA.Address, tokenC.Address, units(1000000, 18), units(1000000, 6))

	q, err := f.connector.EstimateSellTrade(context.Background(), tokenA, tokenC, units(1, 18))
	require.NoError(t, err)
	assert.Equal(t, []string{"AAA-CCC"}, f.connector.GetTradeRoute(q.Trade))
}

func TestEstimateNoRoute(t *testing.T) {
	f := newFixture(t, testSettings("AAA-BBB"))
	f.contracts.AddPair(pairAB, tokenA.Address, tokenB.Address, big.NewInt(1000), big.NewInt(1000))
	require.NoError(t, f.connector.Init(context.Background()))

	_, err := f.connector.EstimateSellTrade(context.Background(), tokenA, tokenD, big.NewInt(10))
	require.Error(t, err)
	assert.True(t, errors.Is(err, entities.ErrPriceUnavailable))

	_, err = f.connector.EstimateBuyTrade(context.Background(), tokenD, tokenA, big.NewInt(10))
	var noLiquidity *entities.NoLiquidityError
	require.True(t, errors.As(err, &noLiquidity))
	assert.Equal(t, "priceSwapOut", noLiquidity.Operation)
}

func TestMalformedSlippageFailsOnUse(t *testing.T) {
	settings := testSettings()
	settings.AllowedSlippage = "one percent"
	f := newFixture(t, settings)
	f.contracts.AddPair(pairAB, tokenA.Address, tokenB.Address, big.NewInt(1000), big.NewInt(1000))

	require.NoError(t, f.connector.Init(context.Background()), "slippage is not validated at load time")

	_, err := f.connector.EstimateSellTrade(context.Background(), tokenA, tokenB, big.NewInt(10))
	var cfgErr *entities.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "allowedSlippage", cfgErr.Field)
}

func TestGetPool(t *testing.T) {
	f := newFixture(t, testSettings())
	f.contracts.AddPair(pairAB, tokenA.Address, tokenB.Address, big.NewInt(1), big.NewInt(1))
	require.NoError(t, f.connector.Init(context.Background()))
	ctx := context.Background()

	pair, ok, err := f.connector.GetPool(ctx, tokenB.Address, tokenA.Address, common.Address{})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, pairAB, pair)

	_, ok, err = f.connector.GetPool(ctx, tokenA.Address, tokenD.Address, factoryAddr)
	require.NoError(t, err)
	assert.False(t, ok)

	sushiFactory := common.HexToAddress("0xC0AEe478e3658e2610c5F7A4A2E1777cE9e4f2Ac")
	pair, ok, err = f.connector.GetPool(ctx, tokenA.Address, tokenB.Address, sushiFactory)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, pairAB, pair)
	assert.Equal(t, 1, f.contracts.CallsTo(sushiFactory, "getPair"))
}

func TestGetPoolRequiresInit(t *testing.T) {
	f := newFixture(t, testSettings())
	_, _, err := f.connector.GetPool(context.Background(), tokenA.Address, tokenB.Address, common.Address{})
	assert.ErrorIs(t, err, entities.ErrDependencyUnavailable)
}

func TestAccessors(t *testing.T) {
	f := newFixture(t, testSettings())
	c := f.connector
	assert.Equal(t, routerAddr, c.Router())
	assert.Equal(t, factoryAddr, c.FactoryAddress())
	assert.Equal(t, uint64(300000), c.GasLimit())
	assert.Equal(t, 5*time.Minute, c.TTL())
	assert.Equal(t, 3, c.MaxHops())
	assert.Contains(t, c.RouterABI().Methods, "swapExactTokensForTokens")
	assert.Contains(t, c.FactoryABI().Methods, "getPair")
}

func sellQuote(t *testing.T, f *fixture) *entities.Quote {
	t.Helper()
	f.contracts.AddPair(pairAB, tokenA.Address, tokenB.Address, big.NewInt(997), big.NewInt(200))
	require.NoError(t, f.connector.Init(context.Background()))
	q, err := f.connector.EstimateSellTrade(context.Background(), tokenA, tokenB, big.NewInt(1000))
	require.NoError(t, err)
	return q
}

func TestExecuteTradeLegacyGas(t *testing.T) {
	now := time.Unix(1700000000, 0)
	f := newFixture(t, testSettings(), connectors.WithClock(func() time.Time { return now }))
	q := sellQuote(t, f)
	wallet := newTestWallet(t)

	tx, err := f.connector.ExecuteTrade(context.Background(), connectors.TradeRequest{
		Wallet: wallet,
		Trade:  q.Trade,
		Gas:    connectors.NewGasStrategy(decimal.RequireFromString("1.5"), nil, nil),
	})
	require.NoError(t, err)
	assert.Equal(t, uint8(types.LegacyTxType), tx.Type())
	assert.Equal(t, uint64(0), tx.Nonce())

	sent := f.contracts.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, routerAddr, sent[0].To)
	assert.Equal(t, "swapExactTokensForTokens", sent[0].Method)
	assert.Equal(t, big.NewInt(1_500_000_000), sent[0].Opts.GasPrice)
	assert.Equal(t, uint64(300000), sent[0].Opts.GasLimit)
	assert.Equal(t, wallet.Address(), sent[0].Opts.From)
	assert.Equal(t, big.NewInt(99), sent[0].Args[1])
	assert.Equal(t, wallet.Address(), sent[0].Args[3])
	assert.Equal(t, big.NewInt(now.Add(5*time.Minute).Unix()), sent[0].Args[4])

	next, err := f.chain.NonceManager().GetNonce(context.Background(), wallet.Address())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), next)
}

func TestExecuteTradeDynamicFee(t *testing.T) {
	f := newFixture(t, testSettings())
	q := sellQuote(t, f)

	tx, err := f.connector.ExecuteTrade(context.Background(), connectors.TradeRequest{
		Wallet:   newTestWallet(t),
		Trade:    q.Trade,
		Gas:      connectors.NewGasStrategy(decimal.Zero, big.NewInt(30e9), big.NewInt(2e9)),
		GasLimit: 250000,
		TTL:      time.Minute,
	})
	require.NoError(t, err)
	assert.Equal(t, uint8(types.DynamicFeeTxType), tx.Type())

	sent := f.contracts.Sent()
	require.Len(t, sent, 1)
	assert.Nil(t, sent[0].Opts.GasPrice)
	assert.Equal(t, big.NewInt(30e9), sent[0].Opts.GasFeeCap)
	assert.Equal(t, big.NewInt(2e9), sent[0].Opts.GasTipCap)
	assert.Equal(t, uint64(250000), sent[0].Opts.GasLimit)
}

func TestExecuteTradeExplicitNonce(t *testing.T) {
	f := newFixture(t, testSettings())
	q := sellQuote(t, f)
	wallet := newTestWallet(t)
	nonce := uint64(42)

	tx, err := f.connector.ExecuteTrade(context.Background(), connectors.TradeRequest{
		Wallet: wallet,
		Trade:  q.Trade,
		Gas:    connectors.LegacyGas{GasPriceGwei: decimal.NewFromInt(1)},
		Nonce:  &nonce,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(42), tx.Nonce())

	next, err := f.chain.NonceManager().GetNonce(context.Background(), wallet.Address())
	require.NoError(t, err)
	assert.Equal(t, uint64(43), next)
}

func TestExecuteTradeFailedSubmissionFreesNonce(t *testing.T) {
	f := newFixture(t, testSettings())
	q := sellQuote(t, f)
	wallet := newTestWallet(t)

	fail := true
	f.contracts.BeforeSend = func(method string, opts *bind.TransactOpts) error {
		if fail {
			fail = false
			return errors.New("insufficient funds")
		}
		return nil
	}
	req := connectors.TradeRequest{Wallet: wallet, Trade: q.Trade, Gas: connectors.LegacyGas{GasPriceGwei: decimal.NewFromInt(1)}}

	_, err := f.connector.ExecuteTrade(context.Background(), req)
	require.ErrorContains(t, err, "insufficient funds")

	tx, err := f.connector.ExecuteTrade(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), tx.Nonce())
}

func TestExecuteTradeConcurrentNoncesNeverCollide(t *testing.T) {
	f := newFixture(t, testSettings())
	q := sellQuote(t, f)
	wallet := newTestWallet(t)

	const trades = 16
	var wg sync.WaitGroup
	for i := 0; i < trades; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.connector.ExecuteTrade(context.Background(), connectors.TradeRequest{
				Wallet: wallet,
				Trade:  q.Trade,
				Gas:    connectors.LegacyGas{GasPriceGwei: decimal.NewFromInt(1)},
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	seen := make(map[uint64]bool)
	for _, s := range f.contracts.Sent() {
		assert.False(t, seen[s.Tx.Nonce()], "nonce %d used twice", s.Tx.Nonce())
		seen[s.Tx.Nonce()] = true
	}
	assert.Len(t, seen, trades)
}

func units(n int64, decimals uint8) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
}
