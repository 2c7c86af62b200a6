package entities

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testBase  = NewToken(123, common.HexToAddress("0x1111111111111111111111111111111111111111"), 12, "A", "Token A")
	testQuote = NewToken(123, common.HexToAddress("0x2222222222222222222222222222222222222222"), 6, "B", "Token B")
)

func TestPriceIsDecimalsInvariant(t *testing.T) {
	in := ScaleToRawUnits(testBase, big.NewInt(3))
	out := ScaleToRawUnits(testQuote, big.NewInt(12))

	assert.Equal(t, "4", NewPrice(testBase, testQuote, in, out).ToSignificant(6))
	assert.Equal(t, "0.25", NewPrice(testQuote, testBase, out, in).ToSignificant(6))
	assert.Equal(t, "0.25", NewPrice(testBase, testQuote, in, out).Invert().ToSignificant(6))
}

func TestPriceToSignificant(t *testing.T) {
	tests := []struct {
		name     string
		baseRaw  int64
		quoteRaw int64
		digits   int32
		want     string
	}{
		{"one third", 3, 1, 4, "0.3333"},
		{"small", 400, 1, 2, "0.0025"},
		{"large", 1, 123456, 3, "123000"},
		{"zero base", 0, 1, 6, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := NewToken(1, common.HexToAddress("0x1"), 0, "X", "X")
			other := NewToken(1, common.HexToAddress("0x2"), 0, "Y", "Y")
			p := NewPrice(token, other, big.NewInt(tt.baseRaw), big.NewInt(tt.quoteRaw))
			assert.Equal(t, tt.want, p.ToSignificant(tt.digits))
		})
	}
}

func TestParseHumanAmount(t *testing.T) {
	raw, err := ParseHumanAmount(testQuote, "1.5")
	require.NoError(t, err)
	assert.Equal(t, "1500000", raw.String())

	_, err = ParseHumanAmount(testQuote, "0.0000001")
	assert.Error(t, err)

	_, err = ParseHumanAmount(testQuote, "-1")
	assert.Error(t, err)

	_, err = ParseHumanAmount(testQuote, "abc")
	assert.Error(t, err)
}

func TestParseHumanAmountBounds(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    string
		tooBig  bool
		wantErr bool
	}{
		{name: "max uint256", value: "115792089237316195423570985008687907853269984665640564039457.584007913129639935", want: MaxUint256.String()},
		{name: "max uint256 plus one", value: "115792089237316195423570985008687907853269984665640564039457.584007913129639936", tooBig: true},
		{name: "huge exponent", value: "1e3000000", tooBig: true},
		{name: "exponent within range", value: "1e20", want: "100000000000000000000000000000000000000"},
		{name: "tiny exponent", value: "1e-3000000", wantErr: true},
		{name: "trailing zeros", value: "1.500000000000000000000000", want: "1500000000000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := ParseHumanAmount(WETH, tt.value)
			switch {
			case tt.tooBig:
				assert.ErrorIs(t, err, ErrAmountTooLarge)
			case tt.wantErr:
				assert.Error(t, err)
				assert.NotErrorIs(t, err, ErrAmountTooLarge)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, raw.String())
			}
		})
	}
}

func TestRoundToUint256(t *testing.T) {
	n, err := RoundToUint256(decimal.RequireFromString("0.6"))
	require.NoError(t, err)
	assert.Equal(t, "1", n.String())

	n, err = RoundToUint256(decimal.RequireFromString("4e-3000000"))
	require.NoError(t, err)
	assert.Equal(t, "0", n.String())

	_, err = RoundToUint256(decimal.RequireFromString("1e3000000"))
	assert.ErrorIs(t, err, ErrAmountTooLarge)

	_, err = RoundToUint256(decimal.NewFromBigInt(new(big.Int).Add(MaxUint256, big.NewInt(1)), 0))
	assert.ErrorIs(t, err, ErrAmountTooLarge)

	_, err = RoundToUint256(decimal.NewFromInt(-1))
	assert.Error(t, err)
}

func TestTokenAmountArithmetic(t *testing.T) {
	a := NewTokenAmount(testBase, big.NewInt(10))
	b := NewTokenAmount(testBase, big.NewInt(5))

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "15", sum.Raw.String())

	_, err = a.Add(NewTokenAmount(testQuote, big.NewInt(1)))
	assert.Error(t, err, "adding amounts of different tokens must fail")

	cmp, err := a.Cmp(b)
	require.NoError(t, err)
	assert.Equal(t, 1, cmp)
}
