package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecimalToFixed(t *testing.T) {
	assert.Equal(t, 1.23, DecimalToFixed(1.2345, 2))
	assert.Equal(t, 1.24, DecimalToFixed(1.235001, 2))
	assert.Equal(t, -1.5, DecimalToFixed(-1.46, 1))
	assert.Equal(t, 12.0, DecimalToFixed(11.6, 0))
	assert.True(t, math.IsNaN(DecimalToFixed(math.NaN(), 2)))
	assert.True(t, math.IsInf(DecimalToFixed(math.Inf(1), 2), 1))
}
