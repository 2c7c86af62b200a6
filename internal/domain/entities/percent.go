package entities

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

// percentRegexp matches "<integer>[.<fraction>]%"
var percentRegexp = regexp.MustCompile(`^(\d+)(?:\.(\d+))?%$`)

// Percent is an exact fraction of one hundred percent
type Percent struct {
	num *big.Int
	den *big.Int
}

// ParsePercent parses a slippage string such as "1%" or "0.5%".
// The result must be in [0%, 100%).
func ParsePercent(value string) (Percent, error) {
	m := percentRegexp.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return Percent{}, &ConfigurationError{
			Field: "allowedSlippage",
			Value: value,
			Err:   ErrMalformedPercent,
		}
	}

	digits := m[1] + m[2]
	num, _ := new(big.Int).SetString(digits, 10)
	den := new(big.Int).Mul(big.NewInt(100), pow10(uint8(len(m[2]))))

	if num.Cmp(den) >= 0 {
		return Percent{}, &ConfigurationError{
			Field: "allowedSlippage",
			Value: value,
			Err:   fmt.Errorf("%w: must be below 100%%", ErrMalformedPercent),
		}
	}
	return Percent{num: num, den: den}, nil
}

// MustParsePercent is ParsePercent for constants known to be valid
func MustParsePercent(value string) Percent {
	p, err := ParsePercent(value)
	if err != nil {
		panic(err)
	}
	return p
}

// IsZero reports whether the percent is 0%
func (p Percent) IsZero() bool {
	return p.num == nil || p.num.Sign() == 0
}

// MinimumOut returns floor(raw * (1 - p))
func (p Percent) MinimumOut(raw *big.Int) *big.Int {
	if p.IsZero() {
		return new(big.Int).Set(raw)
	}
	out := new(big.Int).Mul(raw, new(big.Int).Sub(p.den, p.num))
	return out.Quo(out, p.den)
}

// MaximumIn returns floor(raw * (1 + p))
func (p Percent) MaximumIn(raw *big.Int) *big.Int {
	if p.IsZero() {
		return new(big.Int).Set(raw)
	}
	in := new(big.Int).Mul(raw, new(big.Int).Add(p.den, p.num))
	return in.Quo(in, p.den)
}

func (p Percent) String() string {
	if p.IsZero() {
		return "0%"
	}
	return new(big.Rat).SetFrac(new(big.Int).Mul(p.num, big.NewInt(100)), p.den).FloatString(4) + "%"
}
