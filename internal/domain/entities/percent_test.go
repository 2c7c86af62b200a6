package entities

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePercent(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
		minOut  string // applied to 10000
		maxIn   string
	}{
		{value: "1%", minOut: "9900", maxIn: "10100"},
		{value: "0.5%", minOut: "9950", maxIn: "10050"},
		{value: "0%", minOut: "10000", maxIn: "10000"},
		{value: "99.99%", minOut: "1", maxIn: "19999"},
		{value: "100%", wantErr: true},
		{value: "150%", wantErr: true},
		{value: "1", wantErr: true},
		{value: "1/100", wantErr: true},
		{value: ".5%", wantErr: true},
		{value: "-1%", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			p, err := ParsePercent(tt.value)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMalformedPercent))
				var cfgErr *ConfigurationError
				assert.True(t, errors.As(err, &cfgErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.minOut, p.MinimumOut(big.NewInt(10000)).String())
			assert.Equal(t, tt.maxIn, p.MaximumIn(big.NewInt(10000)).String())
		})
	}
}

func TestPercentRoundsDown(t *testing.T) {
	p := MustParsePercent("1%")
	assert.Equal(t, "98", p.MinimumOut(big.NewInt(99)).String()) // 98.01
	assert.Equal(t, "98", p.MaximumIn(big.NewInt(98)).String())  // 98.98
	assert.Equal(t, "1.0000%", p.String())
}
