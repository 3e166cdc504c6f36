package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrencyIsSupported(t *testing.T) {
	for _, c := range []Currency{RUB, USD, EUR, CNY} {
		assert.True(t, c.IsSupported(), "currency %s", c)
	}
	assert.False(t, Currency("").IsSupported())
	assert.False(t, Currency("GBP").IsSupported())
	assert.False(t, Currency("rub").IsSupported())
}

func TestDefaultCurrency(t *testing.T) {
	assert.Equal(t, RUB, DefaultCurrency)
	assert.True(t, DefaultCurrency.IsSupported())
	assert.Equal(t, "RUB", DefaultCurrency.String())
}
