package currency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	r := NewRegistry()

	c, ok := r.Lookup("BRL")
	require.True(t, ok)
	assert.Equal(t, "R$", c.Symbol)
	assert.Equal(t, "Brazilian Real", c.Name)

	c, ok = r.Lookup(" usd ")
	require.True(t, ok)
	assert.Equal(t, "USD", c.Code)

	_, ok = r.Lookup("XYZ")
	assert.False(t, ok)
}

func TestForCountry(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		country string
		want    string
	}{
		{"BR", "BRL"},
		{"br", "BRL"},
		{"DE", "EUR"},
		{"PT", "EUR"},
		{"NG", "NGN"},
		{"US", "USD"},
		{"ZZ", "USD"},
		{"", "USD"},
	}
	for _, tt := range tests {
		t.Run(tt.country, func(t *testing.T) {
			assert.Equal(t, tt.want, r.ForCountry(tt.country))
		})
	}
}

func TestInstantRailSupported(t *testing.T) {
	r := NewRegistry()

	assert.True(t, r.InstantRailSupported("NGN"))
	assert.True(t, r.InstantRailSupported("usd"))
	assert.False(t, r.InstantRailSupported("JPY"))
	assert.False(t, r.InstantRailSupported("XYZ"))
}

func TestAllReturnsCopy(t *testing.T) {
	r := NewRegistry()

	all := r.All()
	require.NotEmpty(t, all)
	all[0].Code = "MUTATED"

	again := r.All()
	assert.NotEqual(t, "MUTATED", again[0].Code)
}
