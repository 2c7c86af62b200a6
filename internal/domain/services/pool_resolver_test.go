package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bimakw/amm-gateway/internal/domain/entities"
)

func lookupFrom(tokens ...entities.Token) TokenLookup {
	registry := entities.NewTokenRegistryFromList(tokens)
	return registry.GetBySymbol
}

func TestResolvePoolPairs(t *testing.T) {
	lookup := lookupFrom(tokenA, tokenB, tokenC)

	pairs, warnings := ResolvePoolPairs("ethereum", []string{"AAA-BBB", "BBB-CCC"}, lookup)
	assert.Empty(t, warnings)
	require.Len(t, pairs, 2)
	assert.True(t, pairs[0].Base.Equals(tokenA))
	assert.True(t, pairs[0].Quote.Equals(tokenB))
	assert.Equal(t, "BBB-CCC", pairs[1].Entry)
}

func TestResolvePoolPairsUnknownQuote(t *testing.T) {
	pairs, warnings := ResolvePoolPairs("ethereum", []string{"AAA-BBB"}, lookupFrom(tokenA))

	assert.Empty(t, pairs)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Error(), "BBB")

	var unrecognized *entities.UnrecognizedTokenError
	require.True(t, errors.As(warnings[0], &unrecognized))
	assert.Equal(t, entities.SideQuote, unrecognized.Side)
	assert.True(t, errors.Is(warnings[0], entities.ErrUnrecognizedToken))
}

func TestResolvePoolPairsMalformed(t *testing.T) {
	for _, entry := range []string{"AAA", "AAA-BBB-CCC", ""} {
		t.Run(entry, func(t *testing.T) {
			pairs, warnings := ResolvePoolPairs("ethereum", []string{entry}, lookupFrom(tokenA, tokenB, tokenC))
			assert.Empty(t, pairs)
			require.Len(t, warnings, 1)
			assert.True(t, errors.Is(warnings[0], entities.ErrMalformedPool))
		})
	}
}

func TestResolvePoolPairsIsolatesBadEntries(t *testing.T) {
	pairs, warnings := ResolvePoolPairs("ethereum", []string{"XXX-BBB", "AAA", "AAA-CCC"}, lookupFrom(tokenA, tokenB, tokenC))
	require.Len(t, pairs, 1)
	assert.Equal(t, "AAA-CCC", pairs[0].Entry)
	assert.Len(t, warnings, 2)

	var unrecognized *entities.UnrecognizedTokenError
	require.True(t, errors.As(warnings[0], &unrecognized))
	assert.Equal(t, entities.SideBase, unrecognized.Side)
	assert.Equal(t, "XXX", unrecognized.Symbol)
}
