package entities

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// MaxUint256 is the largest amount a contract call can encode
var MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// maxUint256Digits is the number of decimal digits of MaxUint256
const maxUint256Digits = 78

// ErrAmountTooLarge is returned for amounts that do not fit in a uint256
var ErrAmountTooLarge = errors.New("amount exceeds uint256")

// TokenAmount is a raw integer amount in the token's smallest unit.
type TokenAmount struct {
	Token Token    `json:"token"`
	Raw   *big.Int `json:"raw"`
}

// NewTokenAmount copies raw so callers can keep mutating their value
func NewTokenAmount(token Token, raw *big.Int) TokenAmount {
	if raw == nil {
		raw = new(big.Int)
	}
	return TokenAmount{Token: token, Raw: new(big.Int).Set(raw)}
}

// Decimal returns the human readable amount
func (a TokenAmount) Decimal() decimal.Decimal {
	if a.Raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(a.Raw, -int32(a.Token.Decimals))
}

// ToExact formats the amount with all significant decimals
func (a TokenAmount) ToExact() string {
	return a.Decimal().String()
}

// ToSignificant formats the amount rounded to n significant digits
func (a TokenAmount) ToSignificant(n int32) string {
	return significant(a.Decimal(), n)
}

// Add sums two amounts of the same token
func (a TokenAmount) Add(other TokenAmount) (TokenAmount, error) {
	if !a.Token.Equals(other.Token) {
		return TokenAmount{}, fmt.Errorf("cannot add %s to %s", other.Token, a.Token)
	}
	return TokenAmount{Token: a.Token, Raw: new(big.Int).Add(a.Raw, other.Raw)}, nil
}

// Cmp compares two amounts of the same token
func (a TokenAmount) Cmp(other TokenAmount) (int, error) {
	if !a.Token.Equals(other.Token) {
		return 0, fmt.Errorf("cannot compare %s with %s", other.Token, a.Token)
	}
	return a.Raw.Cmp(other.Raw), nil
}

func (a TokenAmount) String() string {
	return fmt.Sprintf("%s %s", a.ToExact(), a.Token.Symbol)
}

// ScaleToRawUnits multiplies a whole human quantity by 10^decimals
func ScaleToRawUnits(token Token, human *big.Int) *big.Int {
	return new(big.Int).Mul(human, pow10(token.Decimals))
}

// ParseHumanAmount converts a decimal string such as "1.5" into raw units.
// Amounts finer than the token's precision or above MaxUint256 are rejected.
func ParseHumanAmount(token Token, value string) (*big.Int, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	if d.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %s", value)
	}
	scaled := d.Shift(int32(token.Decimals))
	digits := integerDigits(scaled)
	if digits > maxUint256Digits {
		return nil, fmt.Errorf("amount %s: %w", value, ErrAmountTooLarge)
	}
	if digits <= 0 || !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("amount %s exceeds %d decimals of %s", value, token.Decimals, token.Symbol)
	}
	raw := scaled.BigInt()
	if raw.Cmp(MaxUint256) > 0 {
		return nil, fmt.Errorf("amount %s: %w", value, ErrAmountTooLarge)
	}
	return raw, nil
}

// RoundToUint256 rounds a non-negative d to the nearest integer. The size
// is checked on the exponent before the integer is built.
func RoundToUint256(d decimal.Decimal) (*big.Int, error) {
	if d.IsNegative() {
		return nil, fmt.Errorf("amount must not be negative, got %s", d)
	}
	if d.IsZero() {
		return new(big.Int), nil
	}
	digits := integerDigits(d)
	if digits > maxUint256Digits {
		return nil, ErrAmountTooLarge
	}
	if digits < 0 {
		return new(big.Int), nil
	}
	n := d.Round(0).BigInt()
	if n.Cmp(MaxUint256) > 0 {
		return nil, ErrAmountTooLarge
	}
	return n, nil
}

// integerDigits is the number of digits left of the decimal point; zero or
// less for values below one
func integerDigits(d decimal.Decimal) int64 {
	return int64(d.NumDigits()) + int64(d.Exponent())
}

func pow10(n uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// significant rounds d to n significant digits
func significant(d decimal.Decimal, n int32) string {
	if d.IsZero() {
		return "0"
	}
	intDigits := int32(d.NumDigits()) + d.Exponent()
	return d.Round(n - intDigits).String()
}
