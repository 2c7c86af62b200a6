package services

import (
	"strings"

	"github.com/bimakw/amm-gateway/internal/domain/entities"
)

// TokenLookup resolves a chain-native symbol to its token descriptor
type TokenLookup func(symbol string) (entities.Token, bool)

// PoolPair is a validated "BASE-QUOTE" entry from configuration
type PoolPair struct {
	Entry string
	Base  entities.Token
	Quote entities.Token
}

// ResolvePoolPairs validates configured "BASE-QUOTE" entries against a chain's
// token list. Bad entries never abort resolution; each one is skipped and
// reported in the returned warnings.
func ResolvePoolPairs(chain string, entries []string, lookup TokenLookup) ([]PoolPair, []error) {
	pairs := make([]PoolPair, 0, len(entries))
	var warnings []error

	for _, entry := range entries {
		parts := strings.Split(entry, "-")
		if len(parts) != 2 {
			warnings = append(warnings, &entities.MalformedPoolError{Entry: entry})
			continue
		}

		base, baseOK := lookup(parts[0])
		quote, quoteOK := lookup(parts[1])
		if !baseOK {
			warnings = append(warnings, &entities.UnrecognizedTokenError{Side: entities.SideBase, Symbol: parts[0], Chain: chain})
		}
		if !quoteOK {
			warnings = append(warnings, &entities.UnrecognizedTokenError{Side: entities.SideQuote, Symbol: parts[1], Chain: chain})
		}
		if !baseOK || !quoteOK {
			continue
		}

		pairs = append(pairs, PoolPair{Entry: entry, Base: base, Quote: quote})
	}

	return pairs, warnings
}
