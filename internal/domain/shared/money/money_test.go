package money

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromMajorRoundsToCents(t *testing.T) {
	m, err := FromMajor(150.506, "usd")
	require.NoError(t, err)
	assert.Equal(t, int64(15051), m.Amount)
	assert.Equal(t, "USD", m.Currency)
	assert.InDelta(t, 150.51, m.Major(), 0.0001)
}

func TestFromMajorRejectsInvalidAmounts(t *testing.T) {
	for _, amount := range []float64{-1, math.NaN(), math.Inf(1), 1e23, math.MaxInt64 / 100 * 2} {
		_, err := FromMajor(amount, "USD")
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}
	_, err := FromMajor(10, "US")
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestJSONUsesMajorUnits(t *testing.T) {
	raw, err := json.Marshal(Must(20000, "EUR"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":200,"currency":"EUR"}`, string(raw))

	var decoded Money
	require.NoError(t, json.Unmarshal([]byte(`{"amount":99.9}`), &decoded))
	assert.Equal(t, Must(9990, "USD"), decoded)
}

func TestCompareAndSameCurrency(t *testing.T) {
	assert.Equal(t, -1, Must(100, "USD").Compare(Must(200, "USD")))
	assert.Equal(t, 0, Must(100, "USD").Compare(Must(100, "USD")))
	assert.ErrorIs(t, Must(100, "USD").SameCurrency(Must(100, "EUR")), ErrCurrencyMismatch)
}
