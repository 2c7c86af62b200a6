package entities

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// priceScale is the number of fractional digits kept when dividing normalized amounts
const priceScale = 36

// Price is the amount of Quote paid per unit of Base, kept as the raw amounts
// that produced it so no precision is lost before formatting.
type Price struct {
	Base     Token
	Quote    Token
	baseRaw  *big.Int
	quoteRaw *big.Int
}

// NewPrice builds the price quoteRaw/baseRaw between two tokens
func NewPrice(base, quote Token, baseRaw, quoteRaw *big.Int) Price {
	return Price{
		Base:     base,
		Quote:    quote,
		baseRaw:  new(big.Int).Set(baseRaw),
		quoteRaw: new(big.Int).Set(quoteRaw),
	}
}

// Decimal returns the human price. Both raw amounts are first brought to the
// larger of the two decimal bases so the division never mixes scales.
func (p Price) Decimal() decimal.Decimal {
	if p.baseRaw == nil || p.baseRaw.Sign() == 0 {
		return decimal.Zero
	}
	base, quote := NormalizeDecimals(p.baseRaw, p.Base.Decimals, p.quoteRaw, p.Quote.Decimals)
	return decimal.NewFromBigInt(quote, 0).DivRound(decimal.NewFromBigInt(base, 0), priceScale)
}

// ToSignificant formats the price rounded to n significant digits
func (p Price) ToSignificant(n int32) string {
	return significant(p.Decimal(), n)
}

// Invert returns the price of Quote in units of Base
func (p Price) Invert() Price {
	return Price{Base: p.Quote, Quote: p.Base, baseRaw: p.quoteRaw, quoteRaw: p.baseRaw}
}

func (p Price) String() string {
	return p.Decimal().String()
}

// NormalizeDecimals scales the amount with fewer decimals up so both share
// the larger decimal basis.
func NormalizeDecimals(a *big.Int, aDecimals uint8, b *big.Int, bDecimals uint8) (*big.Int, *big.Int) {
	na, nb := new(big.Int).Set(a), new(big.Int).Set(b)
	switch {
	case aDecimals < bDecimals:
		na.Mul(na, pow10(bDecimals-aDecimals))
	case bDecimals < aDecimals:
		nb.Mul(nb, pow10(aDecimals-bDecimals))
	}
	return na, nb
}
