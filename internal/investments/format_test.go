package investments

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	tests := map[string]string{
		"100":       "$100.00",
		"1500.25":   "$1,500.25",
		"0.005":     "$0.01",
		"-42.1":     "-$42.10",
		"123456.78": "$123,456.78",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatAmount(decimal.RequireFromString(in)), in)
	}
}

func TestFormatROI(t *testing.T) {
	assert.Equal(t, "5%", FormatROI(decimal.NewFromInt(5)))
	assert.Equal(t, "7.5%", FormatROI(decimal.RequireFromString("7.50")))
}

func TestFormatCreatedAt(t *testing.T) {
	ts := time.Date(2024, 1, 2, 15, 4, 5, 0, time.FixedZone("X", 3600))
	assert.Equal(t, "2024-01-02 14:04:05 UTC", FormatCreatedAt(ts))
	assert.Empty(t, FormatCreatedAt(time.Time{}))
}
