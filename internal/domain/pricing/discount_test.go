package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestApplyPercent(t *testing.T) {
	tests := []struct {
		base    string
		percent int
		want    string
	}{
		{"10.00", 20, "8"},
		{"25.00", 10, "22.5"},
		{"9.99", 15, "8.49"},
		{"0.05", 50, "0.03"}, // 0.025, mitad hacia arriba
		{"19.99", 100, "0"},
		{"3.33", 1, "3.3"},
		{"1234.56", 33, "827.16"},
	}
	for _, tt := range tests {
		got := ApplyPercent(decimal.RequireFromString(tt.base), tt.percent)
		assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "%s -%d%% = %s, want %s", tt.base, tt.percent, got, tt.want)
	}
}

func TestValidPercent(t *testing.T) {
	assert.False(t, ValidPercent(0))
	assert.True(t, ValidPercent(1))
	assert.True(t, ValidPercent(100))
	assert.False(t, ValidPercent(101))
	assert.False(t, ValidPercent(-5))
}
