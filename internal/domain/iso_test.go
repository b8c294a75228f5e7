package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrencyNumericCode(t *testing.T) {
	tests := []struct {
		alpha string
		want  string
	}{
		{"GBP", "826"},
		{"USD", "840"},
		{"EUR", "978"},
	}
	for _, tt := range tests {
		got, err := CurrencyNumericCode(tt.alpha)
		require.NoError(t, err, tt.alpha)
		assert.Equal(t, tt.want, got)
	}
}

func TestCurrencyNumericCodeUnknown(t *testing.T) {
	_, err := CurrencyNumericCode("JPY")
	require.Error(t, err)
	assert.Equal(t, ErrorCodeValidationUnknownCode, GetErrorCode(err))
}

func TestCountryNumericCode(t *testing.T) {
	tests := []struct {
		alpha2 string
		want   string
	}{
		{"GB", "826"},
		{"US", "840"},
		{"DE", "276"},
		{"FR", "250"},
	}
	for _, tt := range tests {
		got, err := CountryNumericCode(tt.alpha2)
		require.NoError(t, err, tt.alpha2)
		assert.Equal(t, tt.want, got)
	}
}

func TestCountryNumericCodeUnknown(t *testing.T) {
	_, err := CountryNumericCode("XX")
	require.Error(t, err)
	assert.Equal(t, ErrorCodeValidationUnknownCountry, GetErrorCode(err))
}
